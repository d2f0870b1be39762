// Package cpu implements the CHIP-8 execution engine.
//
// An EMU owns its memory, registers, timers, display surface and key
// latch. It is not safe for concurrent use; a single driver calls Step
// some number of times per timer tick and TickTimers at a fixed rate.
package cpu

import (
	"math/rand"
	"time"

	"github.com/pkg/errors"

	"github.com/beanboi7/chyp8/emu/display"
)

const (
	MemorySize     = 4096
	FontOffset     = 0x000
	ProgramOffset  = 0x200
	MaxProgramSize = MemorySize - ProgramOffset
	StackDepth     = 16
	NumKeys        = 16
	FlagRegister   = 0xF

	fontGlyphSize = 5
)

var FontSet = [80]uint8{
	0xF0, 0x90, 0x90, 0x90, 0xF0, // 0
	0x20, 0x60, 0x20, 0x20, 0x70, // 1
	0xF0, 0x10, 0xF0, 0x80, 0xF0, // 2
	0xF0, 0x10, 0xF0, 0x10, 0xF0, // 3
	0x90, 0x90, 0xF0, 0x10, 0x10, // 4
	0xF0, 0x80, 0xF0, 0x10, 0xF0, // 5
	0xF0, 0x80, 0xF0, 0x90, 0xF0, // 6
	0xF0, 0x10, 0x20, 0x40, 0x40, // 7
	0xF0, 0x90, 0xF0, 0x90, 0xF0, // 8
	0xF0, 0x90, 0xF0, 0x10, 0xF0, // 9
	0xF0, 0x90, 0xF0, 0x90, 0x90, // A
	0xE0, 0x90, 0xE0, 0x90, 0xE0, // B
	0xF0, 0x80, 0x80, 0x80, 0xF0, // C
	0xE0, 0x90, 0x90, 0x90, 0xE0, // D
	0xF0, 0x80, 0xF0, 0x80, 0xF0, // E
	0xF0, 0x80, 0xF0, 0x80, 0x80, // F
}

// TraceFunc receives every instruction right before it executes.
type TraceFunc func(pc uint16, in Instruction)

// Options configures a new EMU.
type Options struct {
	Trace TraceFunc

	// ShiftFromVY makes SHR/SHL shift VY into VX instead of shifting VX
	// in place.
	ShiftFromVY bool

	// Seed for the RND instruction. Zero seeds from the clock.
	Seed int64
}

type EMU struct {
	memory      [MemorySize]uint8
	V           [16]uint8
	I           uint16 //address register
	pc          uint16
	stack       [StackDepth]uint16
	sp          uint8
	delayTimer  uint8 //counts down at the tick rate
	soundTimer  uint8 //same as above
	display     display.Surface
	keys        keypad
	rng         *rand.Rand
	trace       TraceFunc
	shiftFromVY bool
}

// Registers is a snapshot of the CPU-visible state.
type Registers struct {
	V     [16]uint8
	I     uint16
	PC    uint16
	SP    uint8
	Stack [StackDepth]uint16
	DT    uint8
	ST    uint8
}

// NewEMU creates a reset machine with the font loaded and an empty
// program region.
func NewEMU(opts Options) *EMU {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	trace := opts.Trace
	if trace == nil {
		trace = func(uint16, Instruction) { /* nop */ }
	}

	emu := &EMU{
		rng:         rand.New(rand.NewSource(seed)),
		trace:       trace,
		shiftFromVY: opts.ShiftFromVY,
	}
	emu.Reset()
	return emu
}

// Reset restores registers, timers, stack and display to their power-on
// values and reloads the font. The program region is left intact.
func (emu *EMU) Reset() {
	emu.V = [16]uint8{}
	emu.I = 0
	emu.pc = ProgramOffset
	emu.stack = [StackDepth]uint16{}
	emu.sp = 0
	emu.delayTimer = 0
	emu.soundTimer = 0
	emu.display.Clear()
	emu.keys.cancelWait()
	emu.loadFont()
}

func (emu *EMU) loadFont() {
	copy(emu.memory[FontOffset:], FontSet[:])
}

// LoadProgram copies p into the program region at ProgramOffset and
// clears whatever followed a previous, longer program.
func (emu *EMU) LoadProgram(p []byte) error {
	if len(p) > MaxProgramSize {
		return errors.Wrapf(ErrCapacityExceeded, "%d bytes, limit is %d", len(p), MaxProgramSize)
	}

	region := emu.memory[ProgramOffset:]
	n := copy(region, p)
	for i := n; i < len(region); i++ {
		region[i] = 0
	}
	return nil
}

// Step performs a single fetch-decode-execute cycle. The program counter
// is advanced past the instruction before it executes, so jumps and calls
// overwrite it. The one exception is LD Vx, K which leaves the program
// counter on itself until a key is pressed.
//
// Errors are of type *Error. On failure the machine is left exactly as
// the failing instruction found it, apart from the advanced program
// counter; a failed fetch does not advance it.
func (emu *EMU) Step() error {
	pc := emu.pc
	if int(pc)+1 >= MemorySize {
		return &Error{PC: pc, Err: ErrOutOfBounds}
	}

	word := uint16(emu.memory[pc])<<8 | uint16(emu.memory[pc+1])
	emu.pc += 2

	in, err := Decode(word)
	if err != nil {
		return &Error{PC: pc, Word: word, Err: err}
	}

	emu.trace(pc, in)

	if err := emu.execute(pc, in); err != nil {
		return &Error{PC: pc, Word: word, Err: err}
	}
	return nil
}

// TickTimers decrements the delay and sound timers, stopping at zero.
func (emu *EMU) TickTimers() {
	if emu.delayTimer > 0 {
		emu.delayTimer--
	}
	if emu.soundTimer > 0 {
		emu.soundTimer--
	}
}

// SetKey updates the latch for key, 0x0 to 0xF.
func (emu *EMU) SetKey(key uint8, pressed bool) error {
	if key >= NumKeys {
		return errors.Wrapf(ErrInvalidKey, "key %d", key)
	}
	emu.keys.set(key, pressed)
	return nil
}

// KeyDown reports whether key is currently held.
func (emu *EMU) KeyDown(key uint8) bool {
	return emu.keys.isDown(key)
}

// Framebuffer returns a copy of the display.
func (emu *EMU) Framebuffer() display.Frame {
	return emu.display.Frame()
}

// Dirty reports whether the display changed since MarkClean.
func (emu *EMU) Dirty() bool {
	return emu.display.Dirty()
}

// MarkClean is called by the renderer after presenting a frame.
func (emu *EMU) MarkClean() {
	emu.display.MarkClean()
}

// SoundActive reports whether the tone should be playing.
func (emu *EMU) SoundActive() bool {
	return emu.soundTimer > 0
}

func (emu *EMU) DelayTimer() uint8 { return emu.delayTimer }
func (emu *EMU) SoundTimer() uint8 { return emu.soundTimer }

// PC returns the program counter.
func (emu *EMU) PC() uint16 {
	return emu.pc
}

// SetPC moves the program counter.
func (emu *EMU) SetPC(addr uint16) {
	emu.keys.cancelWait()
	emu.pc = addr
}

// Registers returns a snapshot of the register file.
func (emu *EMU) Registers() Registers {
	return Registers{
		V:     emu.V,
		I:     emu.I,
		PC:    emu.pc,
		SP:    emu.sp,
		Stack: emu.stack,
		DT:    emu.delayTimer,
		ST:    emu.soundTimer,
	}
}

// Fetch returns the instruction word at addr without executing it.
func (emu *EMU) Fetch(addr uint16) (uint16, error) {
	b, err := emu.span(addr, 2)
	if err != nil {
		return 0, err
	}
	return uint16(b[0])<<8 | uint16(b[1]), nil
}

// ReadMemory returns a copy of n bytes starting at addr.
func (emu *EMU) ReadMemory(addr uint16, n int) ([]byte, error) {
	b, err := emu.span(addr, n)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), b...), nil
}

// WriteMemory copies p into memory starting at addr.
func (emu *EMU) WriteMemory(addr uint16, p []byte) error {
	b, err := emu.span(addr, len(p))
	if err != nil {
		return err
	}
	copy(b, p)
	return nil
}

// span returns the n bytes of memory at addr, or ErrOutOfBounds if any of
// them lies outside memory.
func (emu *EMU) span(addr uint16, n int) ([]byte, error) {
	if n < 0 || int(addr)+n > MemorySize {
		return nil, errors.Wrapf(ErrOutOfBounds, "%d bytes at %#04x", n, addr)
	}
	return emu.memory[addr : int(addr)+n], nil
}
