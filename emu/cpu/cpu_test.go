package cpu

import (
	"testing"

	"github.com/pkg/errors"
)

func newTestEMU(t *testing.T, opts Options, words ...uint16) *EMU {
	t.Helper()

	if opts.Seed == 0 {
		opts.Seed = 1
	}
	emu := NewEMU(opts)

	p := make([]byte, 0, len(words)*2)
	for _, w := range words {
		p = append(p, byte(w>>8), byte(w))
	}
	if err := emu.LoadProgram(p); err != nil {
		t.Fatal(err)
	}
	return emu
}

func mustStep(t *testing.T, emu *EMU, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if err := emu.Step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
}

type testCase struct {
	Name    string
	Program []uint16
	Steps   int
	Setup   func(*EMU)
	Check   func(*testing.T, *EMU)
}

func runCases(t *testing.T, opts Options, cases []testCase) {
	for _, tc := range cases {
		tc := tc
		t.Run(tc.Name, func(t *testing.T) {
			emu := newTestEMU(t, opts, tc.Program...)
			if tc.Setup != nil {
				tc.Setup(emu)
			}
			if tc.Steps == 0 {
				tc.Steps = len(tc.Program)
			}
			mustStep(t, emu, tc.Steps)
			tc.Check(t, emu)
		})
	}
}

func wantReg(t *testing.T, emu *EMU, r int, want uint8) {
	t.Helper()
	if have := emu.V[r]; have != want {
		t.Errorf("V%X mismatch\nwant:%#02x\nhave:%#02x", r, want, have)
	}
}

func wantPC(t *testing.T, emu *EMU, want uint16) {
	t.Helper()
	if have := emu.PC(); have != want {
		t.Errorf("PC mismatch\nwant:%#04x\nhave:%#04x", want, have)
	}
}

func TestScenarios(t *testing.T) {
	runCases(t, Options{}, []testCase{
		{
			Name:    "clear screen",
			Program: []uint16{0x00E0},
			Setup: func(emu *EMU) {
				emu.display.Draw(0, 0, []byte{0xFF})
			},
			Check: func(t *testing.T, emu *EMU) {
				f := emu.Framebuffer()
				for i, on := range f {
					if on {
						t.Fatalf("pixel %d still set", i)
					}
				}
				wantPC(t, emu, ProgramOffset+2)
			},
		},
		{
			Name:    "load then add immediate",
			Program: []uint16{0x6005, 0x7003},
			Check: func(t *testing.T, emu *EMU) {
				wantReg(t, emu, 0, 8)
			},
		},
		{
			Name:    "add immediate wraps without flag",
			Program: []uint16{0x60FF, 0x7002},
			Check: func(t *testing.T, emu *EMU) {
				wantReg(t, emu, 0, 1)
				wantReg(t, emu, FlagRegister, 0)
			},
		},
		{
			Name:    "jump",
			Program: []uint16{0x1228},
			Check: func(t *testing.T, emu *EMU) {
				wantPC(t, emu, 0x228)
			},
		},
		{
			Name:    "call and return",
			Program: []uint16{0x2206, 0x0000, 0x0000, 0x00EE},
			Steps:   2,
			Check: func(t *testing.T, emu *EMU) {
				wantPC(t, emu, ProgramOffset+2)
				if emu.sp != 0 {
					t.Errorf("stack not empty: sp=%d", emu.sp)
				}
			},
		},
		{
			Name:    "jump with offset",
			Program: []uint16{0x6004, 0xB300},
			Check: func(t *testing.T, emu *EMU) {
				wantPC(t, emu, 0x304)
			},
		},
		{
			Name:    "sys is ignored",
			Program: []uint16{0x0123},
			Check: func(t *testing.T, emu *EMU) {
				wantPC(t, emu, ProgramOffset+2)
			},
		},
	})
}

func TestSkips(t *testing.T) {
	tests := []struct {
		Name string
		Op   uint16
		V0   uint8
		V1   uint8
		Key  int
		Skip bool
	}{
		{"SE imm equal", 0x3005, 5, 0, -1, true},
		{"SE imm differ", 0x3005, 6, 0, -1, false},
		{"SNE imm equal", 0x4005, 5, 0, -1, false},
		{"SNE imm differ", 0x4005, 6, 0, -1, true},
		{"SE reg equal", 0x5010, 7, 7, -1, true},
		{"SE reg differ", 0x5010, 7, 8, -1, false},
		{"SNE reg equal", 0x9010, 7, 7, -1, false},
		{"SNE reg differ", 0x9010, 7, 8, -1, true},
		{"SKP pressed", 0xE09E, 0xA, 0, 0xA, true},
		{"SKP released", 0xE09E, 0xA, 0, -1, false},
		{"SKNP pressed", 0xE0A1, 0xA, 0, 0xA, false},
		{"SKNP released", 0xE0A1, 0xA, 0, -1, true},
		{"SKP key out of range", 0xE09E, 0x1A, 0, 0xA, false},
	}

	for _, tt := range tests {
		t.Run(tt.Name, func(t *testing.T) {
			emu := newTestEMU(t, Options{}, tt.Op)
			emu.V[0], emu.V[1] = tt.V0, tt.V1
			if tt.Key >= 0 {
				if err := emu.SetKey(uint8(tt.Key), true); err != nil {
					t.Fatal(err)
				}
			}
			mustStep(t, emu, 1)

			want := uint16(ProgramOffset + 2)
			if tt.Skip {
				want += 2
			}
			wantPC(t, emu, want)
		})
	}
}

func TestRegisterOps(t *testing.T) {
	tests := []struct {
		Name   string
		Op     uint16
		VX, VY uint8
		Want   uint8
	}{
		{"LD", 0x8120, 0x11, 0x22, 0x22},
		{"OR", 0x8121, 0xF0, 0x0F, 0xFF},
		{"AND", 0x8122, 0xF3, 0x3F, 0x33},
		{"XOR", 0x8123, 0xFF, 0x0F, 0xF0},
	}

	for _, tt := range tests {
		t.Run(tt.Name, func(t *testing.T) {
			emu := newTestEMU(t, Options{}, tt.Op)
			emu.V[1], emu.V[2] = tt.VX, tt.VY
			mustStep(t, emu, 1)
			wantReg(t, emu, 1, tt.Want)
			wantReg(t, emu, 2, tt.VY)
		})
	}
}

func TestAddCarryAllValues(t *testing.T) {
	emu := newTestEMU(t, Options{}, 0x8124)
	for a := 0; a < 256; a++ {
		for b := 0; b < 256; b++ {
			emu.SetPC(ProgramOffset)
			emu.V[1], emu.V[2] = uint8(a), uint8(b)
			mustStep(t, emu, 1)

			if have, want := emu.V[1], uint8((a+b)%256); have != want {
				t.Fatalf("%d+%d: want %d have %d", a, b, want, have)
			}
			if have, want := emu.V[FlagRegister], flag(a+b > 255); have != want {
				t.Fatalf("%d+%d: carry want %d have %d", a, b, want, have)
			}
		}
	}
}

func TestSubBorrowAllValues(t *testing.T) {
	sub := newTestEMU(t, Options{}, 0x8125)
	subn := newTestEMU(t, Options{}, 0x8127)

	for a := 0; a < 256; a++ {
		for b := 0; b < 256; b++ {
			sub.SetPC(ProgramOffset)
			sub.V[1], sub.V[2] = uint8(a), uint8(b)
			mustStep(t, sub, 1)

			if have, want := sub.V[1], uint8(a-b); have != want {
				t.Fatalf("SUB %d-%d: want %d have %d", a, b, want, have)
			}
			if have, want := sub.V[FlagRegister], flag(a >= b); have != want {
				t.Fatalf("SUB %d-%d: flag want %d have %d", a, b, want, have)
			}

			subn.SetPC(ProgramOffset)
			subn.V[1], subn.V[2] = uint8(a), uint8(b)
			mustStep(t, subn, 1)

			if have, want := subn.V[1], uint8(b-a); have != want {
				t.Fatalf("SUBN %d-%d: want %d have %d", b, a, want, have)
			}
			if have, want := subn.V[FlagRegister], flag(b >= a); have != want {
				t.Fatalf("SUBN %d-%d: flag want %d have %d", b, a, want, have)
			}
		}
	}
}

func TestSubFlagBothDirections(t *testing.T) {
	runCases(t, Options{}, []testCase{
		{
			Name:    "a greater than b",
			Program: []uint16{0x6109, 0x6204, 0x8125},
			Check: func(t *testing.T, emu *EMU) {
				wantReg(t, emu, 1, 5)
				wantReg(t, emu, FlagRegister, 1)
			},
		},
		{
			Name:    "a equals b",
			Program: []uint16{0x6104, 0x6204, 0x8125},
			Check: func(t *testing.T, emu *EMU) {
				wantReg(t, emu, 1, 0)
				wantReg(t, emu, FlagRegister, 1)
			},
		},
		{
			Name:    "a less than b",
			Program: []uint16{0x6104, 0x6209, 0x8125},
			Check: func(t *testing.T, emu *EMU) {
				wantReg(t, emu, 1, 0xFB)
				wantReg(t, emu, FlagRegister, 0)
			},
		},
	})
}

func TestShifts(t *testing.T) {
	tests := []struct {
		Name        string
		ShiftFromVY bool
		Op          uint16
		VX, VY      uint8
		Want, Flag  uint8
	}{
		{"SHR in place, low bit set", false, 0x8126, 0x05, 0xF0, 0x02, 1},
		{"SHR in place, low bit clear", false, 0x8126, 0x04, 0xF1, 0x02, 0},
		{"SHL in place, high bit set", false, 0x812E, 0x81, 0x00, 0x02, 1},
		{"SHL in place, high bit clear", false, 0x812E, 0x41, 0xFF, 0x82, 0},
		{"SHR from VY, low bit set", true, 0x8126, 0x00, 0x05, 0x02, 1},
		{"SHR from VY, low bit clear", true, 0x8126, 0xFF, 0x04, 0x02, 0},
		{"SHL from VY, high bit set", true, 0x812E, 0x00, 0x81, 0x02, 1},
		{"SHL from VY, high bit clear", true, 0x812E, 0xFF, 0x41, 0x82, 0},
	}

	for _, tt := range tests {
		t.Run(tt.Name, func(t *testing.T) {
			emu := newTestEMU(t, Options{ShiftFromVY: tt.ShiftFromVY}, tt.Op)
			emu.V[1], emu.V[2] = tt.VX, tt.VY
			mustStep(t, emu, 1)
			wantReg(t, emu, 1, tt.Want)
			wantReg(t, emu, FlagRegister, tt.Flag)
		})
	}
}

func TestFlagRegisterAsDestination(t *testing.T) {
	runCases(t, Options{}, []testCase{
		{
			Name:    "add",
			Program: []uint16{0x6FFF, 0x6102, 0x8F14},
			Check: func(t *testing.T, emu *EMU) {
				wantReg(t, emu, FlagRegister, 1)
			},
		},
		{
			Name:    "sub",
			Program: []uint16{0x6F01, 0x6102, 0x8F15},
			Check: func(t *testing.T, emu *EMU) {
				wantReg(t, emu, FlagRegister, 0)
			},
		},
		{
			Name:    "shr",
			Program: []uint16{0x6F02, 0x8F06},
			Check: func(t *testing.T, emu *EMU) {
				wantReg(t, emu, FlagRegister, 0)
			},
		},
	})
}

func TestDrawTwice(t *testing.T) {
	// LD I, font 0; DRW V0, V1, 5; DRW V0, V1, 5
	emu := newTestEMU(t, Options{}, 0xA000, 0xD015, 0xD015)
	emu.V[0], emu.V[1] = 3, 4

	mustStep(t, emu, 2)
	if emu.V[FlagRegister] != 0 {
		t.Fatal("first draw reported a collision")
	}
	f := emu.Framebuffer()
	if !f.At(3, 4) {
		t.Fatal("first draw left (3,4) unset")
	}

	mustStep(t, emu, 1)
	if emu.V[FlagRegister] != 1 {
		t.Fatal("second draw did not report a collision")
	}
	f = emu.Framebuffer()
	for i, on := range f {
		if on {
			t.Fatalf("pixel %d set after double draw", i)
		}
	}
}

func TestTimers(t *testing.T) {
	emu := newTestEMU(t, Options{}, 0x6102, 0xF115, 0xF118, 0xF207)

	emu.TickTimers()
	if emu.DelayTimer() != 0 || emu.SoundTimer() != 0 {
		t.Fatal("tick at zero moved a timer")
	}

	mustStep(t, emu, 3)
	if !emu.SoundActive() {
		t.Fatal("sound not active after LD ST")
	}

	emu.TickTimers()
	mustStep(t, emu, 1)
	wantReg(t, emu, 2, 1)

	emu.TickTimers()
	emu.TickTimers()
	emu.TickTimers()
	if emu.DelayTimer() != 0 || emu.SoundTimer() != 0 {
		t.Fatalf("timers went below zero: dt=%d st=%d", emu.DelayTimer(), emu.SoundTimer())
	}
	if emu.SoundActive() {
		t.Fatal("sound active at zero")
	}
}

func TestIndexOps(t *testing.T) {
	runCases(t, Options{}, []testCase{
		{
			Name:    "add to index",
			Program: []uint16{0xA300, 0x6110, 0xF11E},
			Check: func(t *testing.T, emu *EMU) {
				if emu.I != 0x310 {
					t.Errorf("I: want 0x310 have %#04x", emu.I)
				}
			},
		},
		{
			Name:    "add to index wraps at 16 bits",
			Program: []uint16{0x61FF, 0xF11E},
			Setup: func(emu *EMU) {
				emu.I = 0xFFFF
			},
			Check: func(t *testing.T, emu *EMU) {
				if emu.I != 0x00FE {
					t.Errorf("I: want 0x00fe have %#04x", emu.I)
				}
			},
		},
		{
			Name:    "font address",
			Program: []uint16{0x610B, 0xF129},
			Check: func(t *testing.T, emu *EMU) {
				if emu.I != FontOffset+0xB*5 {
					t.Errorf("I: want %#04x have %#04x", FontOffset+0xB*5, emu.I)
				}
			},
		},
		{
			Name:    "binary coded decimal",
			Program: []uint16{0x61FE, 0xA300, 0xF133},
			Check: func(t *testing.T, emu *EMU) {
				b, _ := emu.ReadMemory(0x300, 3)
				if b[0] != 2 || b[1] != 5 || b[2] != 4 {
					t.Errorf("BCD of 254: have %v", b)
				}
			},
		},
		{
			Name:    "store and load registers",
			Program: []uint16{0x6011, 0x6122, 0x6233, 0x6344, 0xA300, 0xF255, 0x6000, 0x6100, 0x6200, 0xF165},
			Check: func(t *testing.T, emu *EMU) {
				b, _ := emu.ReadMemory(0x300, 4)
				if b[0] != 0x11 || b[1] != 0x22 || b[2] != 0x33 || b[3] != 0 {
					t.Errorf("stored bytes: have % x", b)
				}
				wantReg(t, emu, 0, 0x11)
				wantReg(t, emu, 1, 0x22)
				wantReg(t, emu, 2, 0)
				if emu.I != 0x300 {
					t.Errorf("I moved: %#04x", emu.I)
				}
			},
		},
	})
}

func TestRandomMasked(t *testing.T) {
	emu := newTestEMU(t, Options{}, 0xC10F)
	for i := 0; i < 100; i++ {
		emu.SetPC(ProgramOffset)
		mustStep(t, emu, 1)
		if emu.V[1]&0xF0 != 0 {
			t.Fatalf("RND ignored mask: %#02x", emu.V[1])
		}
	}

	a := newTestEMU(t, Options{Seed: 42}, 0xC1FF)
	b := newTestEMU(t, Options{Seed: 42}, 0xC1FF)
	mustStep(t, a, 1)
	mustStep(t, b, 1)
	if a.V[1] != b.V[1] {
		t.Fatal("same seed produced different values")
	}
}

func TestWaitForKey(t *testing.T) {
	emu := newTestEMU(t, Options{}, 0xF30A, 0x6001)

	// Held before the wait starts, so it does not count.
	if err := emu.SetKey(2, true); err != nil {
		t.Fatal(err)
	}

	mustStep(t, emu, 3)
	wantPC(t, emu, ProgramOffset)

	if err := emu.SetKey(7, true); err != nil {
		t.Fatal(err)
	}
	mustStep(t, emu, 1)
	wantPC(t, emu, ProgramOffset+2)
	wantReg(t, emu, 3, 7)

	mustStep(t, emu, 1)
	wantReg(t, emu, 0, 1)
}

func TestWaitForKeyRepress(t *testing.T) {
	emu := newTestEMU(t, Options{}, 0xF30A)
	emu.SetKey(2, true)
	mustStep(t, emu, 1)

	emu.SetKey(2, false)
	mustStep(t, emu, 1)
	wantPC(t, emu, ProgramOffset)

	emu.SetKey(2, true)
	mustStep(t, emu, 1)
	wantReg(t, emu, 3, 2)
	wantPC(t, emu, ProgramOffset+2)
}

func TestStackOverflow(t *testing.T) {
	var program []uint16
	for i := 0; i <= StackDepth; i++ {
		program = append(program, 0x2000|uint16(ProgramOffset+2*(i+1)))
	}
	emu := newTestEMU(t, Options{}, program...)

	mustStep(t, emu, StackDepth)

	err := emu.Step()
	if !errors.Is(err, ErrStackOverflow) {
		t.Fatalf("want stack overflow, have %v", err)
	}

	var e *Error
	if !errors.As(err, &e) || e.PC != ProgramOffset+2*StackDepth {
		t.Fatalf("error does not carry the failing address: %v", err)
	}

	regs := emu.Registers()
	if regs.SP != StackDepth {
		t.Fatalf("sp changed: %d", regs.SP)
	}
	for i, addr := range regs.Stack {
		if want := uint16(ProgramOffset + 2*(i+1)); addr != want {
			t.Errorf("stack[%d]: want %#04x have %#04x", i, want, addr)
		}
	}
}

func TestFatalErrors(t *testing.T) {
	tests := []struct {
		Name    string
		Program []uint16
		Setup   func(*EMU)
		Want    error
		WantPC  uint16
	}{
		{"stack underflow", []uint16{0x00EE}, nil, ErrStackUnderflow, ProgramOffset + 2},
		{"invalid opcode", []uint16{0x5121}, nil, ErrInvalidOpcode, ProgramOffset + 2},
		{"invalid 8xy form", []uint16{0x812F}, nil, ErrInvalidOpcode, ProgramOffset + 2},
		{"invalid F form", []uint16{0xF1FF}, nil, ErrInvalidOpcode, ProgramOffset + 2},
		{"bcd out of bounds", []uint16{0xAFFE, 0xF033}, nil, ErrOutOfBounds, ProgramOffset + 4},
		{"draw out of bounds", []uint16{0xAFFF, 0xD012}, nil, ErrOutOfBounds, ProgramOffset + 4},
		{"store out of bounds", []uint16{0xAFFC, 0xFF55}, nil, ErrOutOfBounds, ProgramOffset + 4},
		{"fetch out of bounds", []uint16{0x1FFF}, nil, ErrOutOfBounds, 0xFFF},
		{"fetch past jump offset", []uint16{0x60FF, 0xBFFF}, nil, ErrOutOfBounds, 0x10FE},
	}

	for _, tt := range tests {
		t.Run(tt.Name, func(t *testing.T) {
			emu := newTestEMU(t, Options{}, tt.Program...)
			var err error
			for i := 0; i < len(tt.Program)+1 && err == nil; i++ {
				err = emu.Step()
			}
			if !errors.Is(err, tt.Want) {
				t.Fatalf("want %v, have %v", tt.Want, err)
			}
			if !IsFatal(err) {
				t.Fatalf("%v not fatal", err)
			}
			wantPC(t, emu, tt.WantPC)
		})
	}
}

func TestStateUnchangedOnFailure(t *testing.T) {
	emu := newTestEMU(t, Options{}, 0x6042, 0xAFFE, 0xF255)
	mustStep(t, emu, 2)
	before, _ := emu.ReadMemory(0xFFE, 2)

	if err := emu.Step(); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("want out of bounds, have %v", err)
	}

	after, _ := emu.ReadMemory(0xFFE, 2)
	if before[0] != after[0] || before[1] != after[1] {
		t.Fatal("partial store before failing")
	}
	wantReg(t, emu, 0, 0x42)
}

func TestLoadProgram(t *testing.T) {
	emu := NewEMU(Options{Seed: 1})

	if err := emu.LoadProgram(make([]byte, MaxProgramSize)); err != nil {
		t.Fatalf("full program rejected: %v", err)
	}

	err := emu.LoadProgram(make([]byte, MaxProgramSize+1))
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("want capacity exceeded, have %v", err)
	}
	if IsFatal(err) {
		t.Fatal("capacity error reported as fatal")
	}

	emu.LoadProgram([]byte{1, 2, 3, 4})
	emu.LoadProgram([]byte{9})
	b, _ := emu.ReadMemory(ProgramOffset, 4)
	if b[0] != 9 || b[1] != 0 || b[2] != 0 || b[3] != 0 {
		t.Fatalf("stale bytes after reload: % x", b)
	}

	font, _ := emu.ReadMemory(FontOffset, len(FontSet))
	for i := range FontSet {
		if font[i] != FontSet[i] {
			t.Fatalf("font byte %d: want %#02x have %#02x", i, FontSet[i], font[i])
		}
	}
}

func TestSetKeyRange(t *testing.T) {
	emu := NewEMU(Options{Seed: 1})
	if err := emu.SetKey(0xF, true); err != nil {
		t.Fatal(err)
	}
	if !emu.KeyDown(0xF) {
		t.Fatal("key not latched")
	}
	if err := emu.SetKey(16, true); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("want invalid key, have %v", err)
	}
}

func TestReset(t *testing.T) {
	emu := newTestEMU(t, Options{}, 0x6105, 0xF115, 0x2300, 0xA000, 0xD015)
	emu.WriteMemory(0x300, []byte{0x12, 0x34})
	mustStep(t, emu, 3)

	emu.Reset()

	regs := emu.Registers()
	if regs.PC != ProgramOffset || regs.SP != 0 || regs.DT != 0 || regs.V[1] != 0 {
		t.Fatalf("registers not reset: %+v", regs)
	}
	word, _ := emu.Fetch(ProgramOffset)
	if word != 0x6105 {
		t.Fatalf("program region not kept: %#04x", word)
	}
}

func TestTrace(t *testing.T) {
	var seen []uint16
	emu := newTestEMU(t, Options{Trace: func(pc uint16, in Instruction) {
		seen = append(seen, pc)
		if in.Op != OpLDImm {
			t.Errorf("traced %v", in)
		}
	}}, 0x6001, 0x6102)

	mustStep(t, emu, 2)
	if len(seen) != 2 || seen[0] != ProgramOffset || seen[1] != ProgramOffset+2 {
		t.Fatalf("trace addresses: %v", seen)
	}
}
