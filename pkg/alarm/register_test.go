package alarm

import "testing"

func TestPrescalerBitsRoundTrip(t *testing.T) {
	for _, to := range Timeouts() {
		bits := prescalerBits(to)
		if bits&^prescalerMask != 0 {
			t.Errorf("prescalerBits(%v) = %#02x sets non-prescaler bits", to, bits)
		}
		if got := prescalerCode(bits); got != to {
			t.Errorf("prescalerCode(prescalerBits(%v)) = %v", to, got)
		}
	}

	if got := prescalerBits(Timeout8s); got != WDP3|WDP0 {
		t.Errorf("prescalerBits(8s) = %#02x, want WDP3|WDP0", got)
	}
}

func TestRegisterTimedSequence(t *testing.T) {
	tests := []struct {
		name   string
		writes []uint8
		want   uint8
	}{
		{"SetWDEAnytime", []uint8{WDE}, WDE},
		{"CannotClearWDEWithoutWindow", []uint8{WDE, 0}, WDE},
		{"ClearWDEInWindow", []uint8{WDE, WDCE | WDE, 0}, 0},
		{"PrescalerIgnoredWithoutWindow", []uint8{WDE | WDP2}, WDE},
		{"PrescalerInWindow", []uint8{WDCE | WDE, WDE | WDP2 | WDP1}, WDE | WDP2 | WDP1},
		{"WindowLastsOneWrite", []uint8{WDCE | WDE, WDE, WDP2}, WDE},
		{"WDIEAlwaysWritable", []uint8{WDIE}, WDIE},
		{"WDIEClearable", []uint8{WDIE | WDE, WDE}, WDE},
		{"WDCENeverStored", []uint8{WDCE | WDE, WDCE | WDE | WDIE}, WDE | WDIE},
		{"ArmSequence", []uint8{WDCE | WDE, WDIE | WDE | prescalerBits(Timeout2s)}, WDIE | WDE | WDP2 | WDP1 | WDP0},
		{"DisarmSequence", []uint8{WDCE | WDE, WDIE | WDE | WDP3, WDIE | WDE | WDCE, 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r register
			for _, w := range tt.writes {
				r.write(w)
			}
			if r.value != tt.want {
				t.Errorf("register = %#08b, want %#08b", r.value, tt.want)
			}
		})
	}
}

func TestRegisterInterruptFlagWriteOneToClear(t *testing.T) {
	r := register{value: WDIF | WDE}

	r.write(WDE)
	if r.value&WDIF == 0 {
		t.Error("writing 0 to WDIF cleared it")
	}

	r.write(WDIF | WDE)
	if r.value&WDIF != 0 {
		t.Error("writing 1 to WDIF did not clear it")
	}
}

func TestRegisterEnabled(t *testing.T) {
	tests := []struct {
		value uint8
		want  bool
	}{
		{0, false},
		{WDP3 | WDP0, false},
		{WDE, true},
		{WDIE, true},
		{WDIE | WDE, true},
	}
	for _, tt := range tests {
		r := register{value: tt.value}
		if got := r.enabled(); got != tt.want {
			t.Errorf("register{%#08b}.enabled() = %v, want %v", tt.value, got, tt.want)
		}
	}
}
