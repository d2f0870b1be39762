package cpu

import "math/bits"

// keypad is the input latch. down holds one bit per key; pressed collects
// released-to-pressed transitions for the wait-for-key instruction.
type keypad struct {
	down    uint16
	pressed uint16
	waiting bool
}

func (k *keypad) set(key uint8, down bool) {
	bit := uint16(1) << key
	if down {
		if k.down&bit == 0 {
			k.pressed |= bit
		}
		k.down |= bit
	} else {
		k.down &^= bit
	}
}

func (k *keypad) isDown(key uint8) bool {
	return key < NumKeys && k.down&(1<<key) != 0
}

// awaitPress arms the wait on its first call and reports the lowest key
// pressed since then on a later call.
func (k *keypad) awaitPress() (uint8, bool) {
	if !k.waiting {
		k.waiting = true
		k.pressed = 0
		return 0, false
	}
	if k.pressed == 0 {
		return 0, false
	}

	key := uint8(bits.TrailingZeros16(k.pressed))
	k.pressed = 0
	k.waiting = false
	return key, true
}

func (k *keypad) cancelWait() {
	k.waiting = false
}
