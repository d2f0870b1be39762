package cpu

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

type tokenKind uint8

const (
	tokRegister tokenKind = iota
	tokNumber
	tokLiteral
)

type token struct {
	kind  tokenKind
	value uint16
	text  string
}

// Assemble encodes a single instruction written the way String formats it,
// for example "LD V0, 0x05" or "DRW V1, V2, 0x5". Numbers may be written
// in decimal, with a 0x prefix or with a $ prefix.
func Assemble(text string) (uint16, error) {
	text = strings.TrimSpace(text)
	name, rest := text, ""
	if i := strings.IndexAny(text, " \t"); i >= 0 {
		name, rest = text[:i], strings.TrimSpace(text[i+1:])
	}
	name = strings.ToUpper(name)

	var toks []token
	if rest != "" {
		for _, field := range strings.Split(rest, ",") {
			tok, err := parseToken(strings.TrimSpace(field))
			if err != nil {
				return 0, errors.Wrapf(err, "assemble %q", text)
			}
			toks = append(toks, tok)
		}
	}

	if name == "DW" {
		if len(toks) != 1 || toks[0].kind != tokNumber {
			return 0, errors.Errorf("assemble %q: DW takes one number", text)
		}
		return toks[0].value, nil
	}

	for i := range forms {
		f := &forms[i]
		if f.name != name || len(f.args) != len(toks) {
			continue
		}
		if in, ok := bind(f, toks); ok {
			return in.Encode(), nil
		}
	}

	return 0, errors.Errorf("assemble %q: no matching instruction", text)
}

// bind fills the operand fields of f from toks.
func bind(f *form, toks []token) (Instruction, bool) {
	in := Instruction{Op: f.op}

	for i, a := range f.args {
		tok := toks[i]
		switch a {
		case argVX, argVY:
			if tok.kind != tokRegister {
				return in, false
			}
			if a == argVX {
				in.X = uint8(tok.value)
			} else {
				in.Y = uint8(tok.value)
			}
		case argKK, argNNN, argN:
			if tok.kind != tokNumber {
				return in, false
			}
			switch {
			case a == argKK && tok.value <= 0xFF:
				in.KK = uint8(tok.value)
			case a == argNNN && tok.value <= 0xFFF:
				in.NNN = tok.value
			case a == argN && tok.value <= 0xF:
				in.N = uint8(tok.value)
			default:
				return in, false
			}
		case argV0:
			if tok.kind != tokRegister || tok.value != 0 {
				return in, false
			}
		default:
			if tok.kind != tokLiteral || tok.text != literals[a] {
				return in, false
			}
		}
	}

	return in, true
}

func parseToken(s string) (token, error) {
	u := strings.ToUpper(s)

	switch u {
	case "I", "[I]", "DT", "ST", "K", "F", "B":
		return token{kind: tokLiteral, text: u}, nil
	}

	if len(u) == 2 && u[0] == 'V' {
		if v, err := strconv.ParseUint(u[1:], 16, 8); err == nil {
			return token{kind: tokRegister, value: uint16(v)}, nil
		}
	}

	v, err := ParseNumber(s)
	if err != nil {
		return token{}, err
	}
	return token{kind: tokNumber, value: v}, nil
}

// ParseNumber parses a 16-bit unsigned number written in decimal, with a
// 0x prefix or with a $ prefix.
func ParseNumber(s string) (uint16, error) {
	base := 0
	if strings.HasPrefix(s, "$") {
		s, base = s[1:], 16
	}
	v, err := strconv.ParseUint(s, base, 16)
	if err != nil {
		return 0, errors.Errorf("invalid number %q", s)
	}
	return uint16(v), nil
}
