package debug

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/beanboi7/chyp8/emu/cpu"
)

const (
	defaultListing = 8
	defaultDump    = 32
)

// Console is a line-oriented front end for a Debugger. An empty line
// repeats the previous command.
type Console struct {
	dbg *Debugger
	out io.Writer

	// Prompt is printed before each line when set.
	Prompt string
	// Interrupt returns the context for continue; cancelling it stops the
	// run. It defaults to a context that is never cancelled.
	Interrupt func() (context.Context, context.CancelFunc)

	last []string
}

func NewConsole(dbg *Debugger, out io.Writer) *Console {
	c := &Console{dbg: dbg, out: out}
	c.Interrupt = func() (context.Context, context.CancelFunc) {
		return context.WithCancel(context.Background())
	}
	return c
}

// Serve reads commands from in until quit or end of input.
func (c *Console) Serve(in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for {
		if c.Prompt != "" {
			fmt.Fprint(c.out, c.Prompt)
		}
		if !scanner.Scan() {
			return scanner.Err()
		}
		if c.Exec(scanner.Text()) {
			return nil
		}
	}
}

// Exec runs one command line and reports whether it asked to quit.
func (c *Console) Exec(line string) bool {
	args := strings.Fields(line)
	if len(args) == 0 {
		if len(c.last) == 0 {
			return false
		}
		args = c.last
	} else {
		c.last = args
	}

	cmd, args := args[0], args[1:]
	switch cmd {
	case "b", "break":
		c.doBreak(args)
	case "s", "step":
		c.doStep(args)
	case "c", "continue":
		c.doContinue()
	case "r", "reg":
		FormatRegisters(c.out, c.dbg.DumpRegisters())
	case "m", "mem":
		c.doMem(args)
	case "d", "dis":
		c.doDis(args)
	case "k", "key":
		c.doKey(args)
	case "t", "tick":
		c.doTick(args)
	case "screen":
		frame := c.dbg.Framebuffer()
		fmt.Fprint(c.out, frame.String())
	case "asm":
		c.doAsm(args)
	case "j", "jump":
		c.doJump(args)
	case "reset":
		c.dbg.Reset()
		fmt.Fprintln(c.out, "machine reset")
	case "q", "quit", "exit":
		return true
	case "h", "help":
		fmt.Fprintln(c.out, "break add|rm|list|clear, step [n], continue, reg, mem [addr] [n],")
		fmt.Fprintln(c.out, "dis [addr] [n], key idx up|down, tick [n], screen, asm addr text,")
		fmt.Fprintln(c.out, "jump addr, reset, quit")
	default:
		fmt.Fprintf(c.out, "error: '%s' is not a valid command\n", cmd)
	}
	return false
}

func (c *Console) doBreak(args []string) {
	if len(args) == 0 {
		args = []string{"list"}
	}
	sub, args := args[0], args[1:]

	switch sub {
	case "a", "add", "r", "rm", "remove":
		if len(args) != 1 {
			fmt.Fprintf(c.out, "usage: break %s addr\n", sub)
			return
		}
		addr, err := cpu.ParseNumber(args[0])
		if err != nil {
			fmt.Fprintln(c.out, err)
			return
		}
		if sub[0] == 'a' {
			c.dbg.AddBreakpoint(addr)
			fmt.Fprintf(c.out, "breakpoint added [%#04x]\n", addr)
		} else {
			c.dbg.RemoveBreakpoint(addr)
			fmt.Fprintf(c.out, "breakpoint removed [%#04x]\n", addr)
		}
	case "l", "ls", "list":
		for i, addr := range c.dbg.Breakpoints() {
			fmt.Fprintf(c.out, "#%d: %#04x\n", i, addr)
		}
	case "clear":
		c.dbg.ClearBreakpoints()
		fmt.Fprintln(c.out, "breakpoints cleared")
	default:
		fmt.Fprintf(c.out, "break: '%s' is not a valid command\n", sub)
	}
}

func (c *Console) doStep(args []string) {
	n, ok := c.count(args, 0, 1)
	if !ok {
		return
	}
	for i := 0; i < n; i++ {
		step, err := c.dbg.StepInstruction()
		fmt.Fprintln(c.out, step.Line)
		if err != nil {
			fmt.Fprintf(c.out, "error: %v\n", err)
			return
		}
	}
}

func (c *Console) doContinue() {
	ctx, cancel := c.Interrupt()
	defer cancel()

	stop := c.dbg.Continue(ctx)
	fmt.Fprintln(c.out, stop)
	if line, err := c.dbg.Disassemble(c.dbg.PC()); err == nil {
		fmt.Fprintln(c.out, line)
	}
}

func (c *Console) doMem(args []string) {
	addr, ok := c.address(args, 0, c.dbg.PC())
	if !ok {
		return
	}
	n, ok := c.count(args, 1, defaultDump)
	if !ok {
		return
	}
	data, err := c.dbg.DumpMemory(addr, addr+uint16(n))
	if err != nil {
		fmt.Fprintln(c.out, err)
		return
	}
	FormatMemory(c.out, addr, data)
}

func (c *Console) doDis(args []string) {
	addr, ok := c.address(args, 0, c.dbg.PC())
	if !ok {
		return
	}
	n, ok := c.count(args, 1, defaultListing)
	if !ok {
		return
	}
	lines, err := c.dbg.DisassembleRange(addr, n)
	for _, line := range lines {
		fmt.Fprintln(c.out, line)
	}
	if err != nil {
		fmt.Fprintln(c.out, err)
	}
}

func (c *Console) doKey(args []string) {
	if len(args) != 2 || (args[1] != "up" && args[1] != "down") {
		fmt.Fprintln(c.out, "usage: key idx up|down")
		return
	}
	key, err := cpu.ParseNumber(args[0])
	if err != nil || key > 0xFF {
		fmt.Fprintf(c.out, "invalid key %q\n", args[0])
		return
	}
	if err := c.dbg.SetKey(uint8(key), args[1] == "down"); err != nil {
		fmt.Fprintln(c.out, err)
	}
}

func (c *Console) doTick(args []string) {
	n, ok := c.count(args, 0, 1)
	if !ok {
		return
	}
	for i := 0; i < n; i++ {
		c.dbg.TickTimers()
	}
	r := c.dbg.DumpRegisters()
	fmt.Fprintf(c.out, "DT:%d ST:%d\n", r.DT, r.ST)
}

func (c *Console) doAsm(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(c.out, "usage: asm addr instruction")
		return
	}
	addr, err := cpu.ParseNumber(args[0])
	if err != nil {
		fmt.Fprintln(c.out, err)
		return
	}
	word, err := cpu.Assemble(strings.Join(args[1:], " "))
	if err != nil {
		fmt.Fprintln(c.out, err)
		return
	}
	if err := c.dbg.Poke(addr, []byte{byte(word >> 8), byte(word)}); err != nil {
		fmt.Fprintln(c.out, err)
		return
	}
	if line, err := c.dbg.Disassemble(addr); err == nil {
		fmt.Fprintln(c.out, line)
	}
}

func (c *Console) doJump(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.out, "usage: jump addr")
		return
	}
	addr, err := cpu.ParseNumber(args[0])
	if err != nil {
		fmt.Fprintln(c.out, err)
		return
	}
	c.dbg.Jump(addr)
	fmt.Fprintf(c.out, "PC: %#04x\n", addr)
}

// address parses args[i] as an address, or returns def when absent.
func (c *Console) address(args []string, i int, def uint16) (uint16, bool) {
	if len(args) <= i {
		return def, true
	}
	addr, err := cpu.ParseNumber(args[i])
	if err != nil {
		fmt.Fprintln(c.out, err)
		return 0, false
	}
	return addr, true
}

// count parses args[i] as a positive decimal count, or returns def when
// absent.
func (c *Console) count(args []string, i, def int) (int, bool) {
	if len(args) <= i {
		return def, true
	}
	n, err := strconv.Atoi(args[i])
	if err != nil || n <= 0 {
		fmt.Fprintf(c.out, "invalid count %q\n", args[i])
		return 0, false
	}
	return n, true
}
