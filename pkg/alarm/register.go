package alarm

// Control register bits, laid out like the AVR WDTCSR register.
const (
	WDP0 uint8 = 1 << 0 // prescaler bit 0
	WDP1 uint8 = 1 << 1 // prescaler bit 1
	WDP2 uint8 = 1 << 2 // prescaler bit 2
	WDE  uint8 = 1 << 3 // system reset enable
	WDCE uint8 = 1 << 4 // change enable
	WDP3 uint8 = 1 << 5 // prescaler bit 3
	WDIE uint8 = 1 << 6 // interrupt enable
	WDIF uint8 = 1 << 7 // interrupt flag
)

const prescalerMask = WDP3 | WDP2 | WDP1 | WDP0

// prescalerBits encodes a prescaler code into its scattered register bits.
// Only the low four bits of t are representable.
func prescalerBits(t Timeout) uint8 {
	bits := uint8(t) & 0x07
	if uint8(t)&0x08 != 0 {
		bits |= WDP3
	}
	return bits
}

// prescalerCode decodes the register's prescaler bits.
func prescalerCode(ctrl uint8) Timeout {
	code := ctrl & 0x07
	if ctrl&WDP3 != 0 {
		code |= 0x08
	}
	return Timeout(code)
}

// register models the control register and its timed change window.
type register struct {
	value      uint8
	changeOpen bool
}

// write applies one store to the register.
//
// WDIE can always be written and WDIF is cleared by writing a one.
// WDE and the prescaler follow the timed sequence: a write with WDCE|WDE
// opens the change window, and only the next write may clear WDE or
// select a new prescaler. WDE can be set at any time.
func (r *register) write(v uint8) {
	next := r.value &^ WDIE
	next |= v & WDIE
	if v&WDIF != 0 {
		next &^= WDIF
	}

	switch {
	case r.changeOpen:
		r.changeOpen = false
		next = next&^(WDE|prescalerMask) | v&(WDE|prescalerMask)
	case v&(WDCE|WDE) == WDCE|WDE:
		r.changeOpen = true
		next |= WDE
	default:
		next |= v & WDE
	}

	r.value = next
}

// enabled reports whether the countdown runs in either mode.
func (r *register) enabled() bool {
	return r.value&(WDE|WDIE) != 0
}
