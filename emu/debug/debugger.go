// Package debug wraps an execution engine with breakpoints, a run-mode
// state machine and read-only introspection.
package debug

import (
	"context"
	"fmt"
	"sort"

	"github.com/pkg/errors"

	"github.com/beanboi7/chyp8/emu/cpu"
	"github.com/beanboi7/chyp8/emu/display"
)

// cancelCheckInterval is how many instructions RunUntilStop executes
// between looks at its context.
const cancelCheckInterval = 1024

// Mode is the run-mode of the debugger.
type Mode int

const (
	Halted Mode = iota
	Running
	Stepping
)

func (m Mode) String() string {
	switch m {
	case Halted:
		return "halted"
	case Running:
		return "running"
	case Stepping:
		return "stepping"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Reason says why a run stopped.
type Reason int

const (
	ReasonBreakpoint Reason = iota + 1
	ReasonError
	ReasonCancelled
)

// Stop describes why a run ended. Addr is the breakpoint address, the
// address of the failing instruction, or the program counter at
// cancellation.
type Stop struct {
	Reason Reason
	Addr   uint16
	Err    error
}

func (s Stop) String() string {
	switch s.Reason {
	case ReasonBreakpoint:
		return fmt.Sprintf("breakpoint at %#04x", s.Addr)
	case ReasonError:
		return fmt.Sprintf("error: %v", s.Err)
	case ReasonCancelled:
		return fmt.Sprintf("interrupted at %#04x", s.Addr)
	}
	return "running"
}

// Step is the result of executing a single instruction.
type Step struct {
	Line      Line
	Registers cpu.Registers
}

// Debugger controls and monitors one EMU. Like the engine it is not safe
// for concurrent use.
type Debugger struct {
	emu         *cpu.EMU
	breakpoints map[uint16]struct{}
	mode        Mode

	// Timers tick once every cyclesPerTick executed instructions.
	cyclesPerTick int
	cycles        int
}

// New creates a halted debugger around emu. cyclesPerTick sets the
// instruction-counted timer schedule; zero leaves timer ticks to the
// caller.
func New(emu *cpu.EMU, cyclesPerTick int) *Debugger {
	if cyclesPerTick < 0 {
		cyclesPerTick = 0
	}
	return &Debugger{
		emu:           emu,
		breakpoints:   make(map[uint16]struct{}),
		cyclesPerTick: cyclesPerTick,
	}
}

// Mode returns the current run-mode.
func (d *Debugger) Mode() Mode {
	return d.mode
}

// Pause halts a run driven through Run.
func (d *Debugger) Pause() {
	d.mode = Halted
}

// AddBreakpoint adds a breakpoint. Adding an existing one does nothing.
func (d *Debugger) AddBreakpoint(addr uint16) {
	d.breakpoints[addr] = struct{}{}
}

// RemoveBreakpoint removes a breakpoint if it is set.
func (d *Debugger) RemoveBreakpoint(addr uint16) {
	delete(d.breakpoints, addr)
}

// HasBreakpoint reports whether addr is a breakpoint.
func (d *Debugger) HasBreakpoint(addr uint16) bool {
	_, ok := d.breakpoints[addr]
	return ok
}

// ClearBreakpoints removes every breakpoint.
func (d *Debugger) ClearBreakpoints() {
	d.breakpoints = make(map[uint16]struct{})
}

// Breakpoints returns the breakpoint addresses in ascending order.
func (d *Debugger) Breakpoints() []uint16 {
	addrs := make([]uint16, 0, len(d.breakpoints))
	for addr := range d.breakpoints {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
	return addrs
}

// Reset resets the engine and the timer schedule and clears all
// breakpoints.
func (d *Debugger) Reset() {
	d.emu.Reset()
	d.ClearBreakpoints()
	d.cycles = 0
	d.mode = Halted
}

// exec runs one engine step and keeps the timer schedule.
func (d *Debugger) exec() error {
	if err := d.emu.Step(); err != nil {
		return err
	}

	if d.cyclesPerTick > 0 {
		d.cycles++
		if d.cycles >= d.cyclesPerTick {
			d.cycles = 0
			d.emu.TickTimers()
		}
	}
	return nil
}

// advance executes one instruction and evaluates the stop condition.
func (d *Debugger) advance() (Stop, bool) {
	pc := d.emu.PC()

	if err := d.exec(); err != nil {
		addr := pc
		var e *cpu.Error
		if errors.As(err, &e) {
			addr = e.PC
		}
		return Stop{Reason: ReasonError, Addr: addr, Err: err}, true
	}

	if next := d.emu.PC(); d.HasBreakpoint(next) {
		return Stop{Reason: ReasonBreakpoint, Addr: next}, true
	}
	return Stop{}, false
}

// StepInstruction executes exactly one instruction regardless of
// breakpoints and returns it along with the registers afterwards. Engine
// errors are returned, the debugger stays usable.
func (d *Debugger) StepInstruction() (Step, error) {
	line, _ := d.Disassemble(d.emu.PC())

	d.mode = Stepping
	err := d.exec()
	d.mode = Halted

	return Step{Line: line, Registers: d.emu.Registers()}, err
}

// SingleStep is StepInstruction without the report.
func (d *Debugger) SingleStep() error {
	_, err := d.StepInstruction()
	return err
}

// Run executes up to budget instructions, stopping early at a breakpoint
// or an engine error. It reports the stop and true if the run stopped;
// otherwise the debugger stays Running so a frame driver can call Run
// again.
func (d *Debugger) Run(budget int) (Stop, bool) {
	d.mode = Running
	for i := 0; i < budget; i++ {
		if stop, ok := d.advance(); ok {
			d.mode = Halted
			return stop, true
		}
	}
	return Stop{}, false
}

// RunUntilStop executes instructions until the program counter reaches a
// breakpoint, the engine fails or ctx is done. The instruction at the
// starting program counter always executes, so resuming from a
// breakpoint moves past it.
func (d *Debugger) RunUntilStop(ctx context.Context) Stop {
	d.mode = Running
	defer func() { d.mode = Halted }()

	for n := 0; ; n++ {
		if n%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return Stop{Reason: ReasonCancelled, Addr: d.emu.PC(), Err: err}
			}
		}
		if stop, ok := d.advance(); ok {
			return stop
		}
	}
}

// Continue resumes a halted machine; it is RunUntilStop.
func (d *Debugger) Continue(ctx context.Context) Stop {
	return d.RunUntilStop(ctx)
}

// DumpRegisters returns a snapshot of the register file.
func (d *Debugger) DumpRegisters() cpu.Registers {
	return d.emu.Registers()
}

// DumpMemory returns a copy of memory in [from, to).
func (d *Debugger) DumpMemory(from, to uint16) ([]byte, error) {
	if to < from {
		return nil, errors.Errorf("invalid range %#04x-%#04x", from, to)
	}
	return d.emu.ReadMemory(from, int(to-from))
}

// Poke writes p into memory at addr.
func (d *Debugger) Poke(addr uint16, p []byte) error {
	return d.emu.WriteMemory(addr, p)
}

// Jump moves the program counter.
func (d *Debugger) Jump(addr uint16) {
	d.emu.SetPC(addr)
}

// SetKey forwards a key transition to the engine.
func (d *Debugger) SetKey(key uint8, pressed bool) error {
	return d.emu.SetKey(key, pressed)
}

// TickTimers ticks the engine timers by hand.
func (d *Debugger) TickTimers() {
	d.emu.TickTimers()
}

// Framebuffer returns a copy of the display.
func (d *Debugger) Framebuffer() display.Frame {
	return d.emu.Framebuffer()
}

// SoundActive reports whether the sound timer is running.
func (d *Debugger) SoundActive() bool {
	return d.emu.SoundActive()
}

// PC returns the program counter.
func (d *Debugger) PC() uint16 {
	return d.emu.PC()
}
