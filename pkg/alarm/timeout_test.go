package alarm

import (
	"errors"
	"testing"
	"time"
)

func TestTimeoutDurationAndString(t *testing.T) {
	tests := []struct {
		t    Timeout
		dur  time.Duration
		name string
	}{
		{Timeout16ms, 16 * time.Millisecond, "16ms"},
		{Timeout32ms, 32 * time.Millisecond, "32ms"},
		{Timeout64ms, 64 * time.Millisecond, "64ms"},
		{Timeout125ms, 125 * time.Millisecond, "125ms"},
		{Timeout250ms, 250 * time.Millisecond, "250ms"},
		{Timeout500ms, 500 * time.Millisecond, "500ms"},
		{Timeout1s, time.Second, "1s"},
		{Timeout2s, 2 * time.Second, "2s"},
		{Timeout4s, 4 * time.Second, "4s"},
		{Timeout8s, 8 * time.Second, "8s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.t.Valid() {
				t.Errorf("Valid() = false, want true")
			}
			if got := tt.t.Duration(); got != tt.dur {
				t.Errorf("Duration() = %v, want %v", got, tt.dur)
			}
			if got := tt.t.String(); got != tt.name {
				t.Errorf("String() = %q, want %q", got, tt.name)
			}
		})
	}

	if len(Timeouts()) != len(tests) {
		t.Errorf("len(Timeouts()) = %d, want %d", len(Timeouts()), len(tests))
	}
}

func TestTimeoutOutOfRange(t *testing.T) {
	bad := Timeout(12)
	if bad.Valid() {
		t.Error("Timeout(12).Valid() = true, want false")
	}
	if got := bad.Duration(); got != 8*time.Second {
		t.Errorf("Timeout(12).Duration() = %v, want 8s", got)
	}
	// Bits above the 4-bit field are dropped.
	if got := Timeout(0x13).Duration(); got != 125*time.Millisecond {
		t.Errorf("Timeout(0x13).Duration() = %v, want 125ms", got)
	}
	if got := bad.String(); got != "Timeout(12)" {
		t.Errorf("Timeout(12).String() = %q", got)
	}
}

func TestParseTimeout(t *testing.T) {
	for _, want := range Timeouts() {
		got, err := ParseTimeout(want.String())
		if err != nil {
			t.Errorf("ParseTimeout(%q) error = %v", want.String(), err)
		}
		if got != want {
			t.Errorf("ParseTimeout(%q) = %v, want %v", want.String(), got, want)
		}
	}

	for _, s := range []string{"", "100ms", "16", "8S", "1m"} {
		if _, err := ParseTimeout(s); !errors.Is(err, ErrInvalidTimeout) {
			t.Errorf("ParseTimeout(%q) error = %v, want ErrInvalidTimeout", s, err)
		}
	}
}

func TestTimeoutFor(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want Timeout
	}{
		{0, Timeout16ms},
		{16 * time.Millisecond, Timeout16ms},
		{17 * time.Millisecond, Timeout32ms},
		{100 * time.Millisecond, Timeout125ms},
		{time.Second, Timeout1s},
		{3 * time.Second, Timeout4s},
		{time.Minute, Timeout8s},
	}
	for _, tt := range tests {
		if got := TimeoutFor(tt.d); got != tt.want {
			t.Errorf("TimeoutFor(%v) = %v, want %v", tt.d, got, tt.want)
		}
	}
}
