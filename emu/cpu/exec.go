package cpu

// execute performs the semantics of in, fetched from pc. The program
// counter already points past in.
func (emu *EMU) execute(pc uint16, in Instruction) error {
	x, y := in.X, in.Y
	F := FlagRegister

	if in.Op != OpLDVxK {
		emu.keys.cancelWait()
	}

	switch in.Op {
	case OpSYS:
		// Machine code routines are not emulated.
	case OpCLS:
		emu.display.Clear()
	case OpRET:
		if emu.sp == 0 {
			return ErrStackUnderflow
		}
		emu.sp--
		emu.pc = emu.stack[emu.sp]
	case OpJP:
		emu.pc = in.NNN
	case OpCALL:
		if emu.sp >= StackDepth {
			return ErrStackOverflow
		}
		emu.stack[emu.sp] = emu.pc
		emu.sp++
		emu.pc = in.NNN
	case OpSEImm:
		emu.skipIf(emu.V[x] == in.KK)
	case OpSNEImm:
		emu.skipIf(emu.V[x] != in.KK)
	case OpSEReg:
		emu.skipIf(emu.V[x] == emu.V[y])
	case OpLDImm:
		emu.V[x] = in.KK
	case OpADDImm:
		emu.V[x] += in.KK
	case OpLDReg:
		emu.V[x] = emu.V[y]
	case OpOR:
		emu.V[x] |= emu.V[y]
	case OpAND:
		emu.V[x] &= emu.V[y]
	case OpXOR:
		emu.V[x] ^= emu.V[y]

	// The flag is written after the result so that VF as a destination
	// ends up holding the flag.
	case OpADDReg:
		sum := uint16(emu.V[x]) + uint16(emu.V[y])
		emu.V[x] = uint8(sum)
		emu.V[F] = flag(sum > 0xFF)
	case OpSUB:
		vx, vy := emu.V[x], emu.V[y]
		emu.V[x] = vx - vy
		emu.V[F] = flag(vx >= vy)
	case OpSUBN:
		vx, vy := emu.V[x], emu.V[y]
		emu.V[x] = vy - vx
		emu.V[F] = flag(vy >= vx)
	case OpSHR:
		src := emu.shiftSource(x, y)
		emu.V[x] = src >> 1
		emu.V[F] = src & 0x1
	case OpSHL:
		src := emu.shiftSource(x, y)
		emu.V[x] = src << 1
		emu.V[F] = src >> 7

	case OpSNEReg:
		emu.skipIf(emu.V[x] != emu.V[y])
	case OpLDI:
		emu.I = in.NNN
	case OpJPV0:
		emu.pc = in.NNN + uint16(emu.V[0])
	case OpRND:
		emu.V[x] = uint8(emu.rng.Intn(256)) & in.KK
	case OpDRW:
		sprite, err := emu.span(emu.I, int(in.N))
		if err != nil {
			return err
		}
		emu.V[F] = flag(emu.display.Draw(emu.V[x], emu.V[y], sprite))
	case OpSKP:
		emu.skipIf(emu.keys.isDown(emu.V[x]))
	case OpSKNP:
		emu.skipIf(!emu.keys.isDown(emu.V[x]))
	case OpLDVxDT:
		emu.V[x] = emu.delayTimer
	case OpLDVxK:
		key, ok := emu.keys.awaitPress()
		if !ok {
			// Run this instruction again on the next step.
			emu.pc = pc
			return nil
		}
		emu.V[x] = key
	case OpLDDTVx:
		emu.delayTimer = emu.V[x]
	case OpLDSTVx:
		emu.soundTimer = emu.V[x]
	case OpADDIVx:
		emu.I += uint16(emu.V[x])
	case OpLDFVx:
		emu.I = FontOffset + uint16(emu.V[x]&0xF)*fontGlyphSize
	case OpLDBVx:
		buf, err := emu.span(emu.I, 3)
		if err != nil {
			return err
		}
		v := emu.V[x]
		buf[0] = v / 100
		buf[1] = v / 10 % 10
		buf[2] = v % 10
	case OpLDIVx:
		buf, err := emu.span(emu.I, int(x)+1)
		if err != nil {
			return err
		}
		copy(buf, emu.V[:x+1])
	case OpLDVxI:
		buf, err := emu.span(emu.I, int(x)+1)
		if err != nil {
			return err
		}
		copy(emu.V[:x+1], buf)
	default:
		return ErrInvalidOpcode
	}

	return nil
}

func (emu *EMU) skipIf(cond bool) {
	if cond {
		emu.pc += 2
	}
}

func (emu *EMU) shiftSource(x, y uint8) uint8 {
	if emu.shiftFromVY {
		return emu.V[y]
	}
	return emu.V[x]
}

func flag(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
