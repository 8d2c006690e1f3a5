package alarm

import (
	"errors"
	"fmt"
	"time"
)

//go:generate stringer -type=Timeout -linecomment

// Timeout selects the alarm period. The value is the 4-bit hardware
// prescaler code.
type Timeout uint8

const (
	Timeout16ms  Timeout = iota // 16ms
	Timeout32ms                 // 32ms
	Timeout64ms                 // 64ms
	Timeout125ms                // 125ms
	Timeout250ms                // 250ms
	Timeout500ms                // 500ms
	Timeout1s                   // 1s
	Timeout2s                   // 2s
	Timeout4s                   // 4s
	Timeout8s                   // 8s
)

// ErrInvalidTimeout is returned when a period name is not one of the
// supported prescaler settings.
var ErrInvalidTimeout = errors.New("invalid alarm timeout")

var periods = [...]time.Duration{
	Timeout16ms:  16 * time.Millisecond,
	Timeout32ms:  32 * time.Millisecond,
	Timeout64ms:  64 * time.Millisecond,
	Timeout125ms: 125 * time.Millisecond,
	Timeout250ms: 250 * time.Millisecond,
	Timeout500ms: 500 * time.Millisecond,
	Timeout1s:    time.Second,
	Timeout2s:    2 * time.Second,
	Timeout4s:    4 * time.Second,
	Timeout8s:    8 * time.Second,
}

// Timeouts returns all supported periods in ascending order.
func Timeouts() []Timeout {
	all := make([]Timeout, len(periods))
	for i := range periods {
		all[i] = Timeout(i)
	}
	return all
}

// Valid reports whether t is a supported prescaler setting.
func (t Timeout) Valid() bool {
	return int(t) < len(periods)
}

// Duration returns the nominal period. Out-of-range values return the
// period the hardware would select after truncating to the prescaler field,
// or 8s for truncated codes above the table.
func (t Timeout) Duration() time.Duration {
	if t.Valid() {
		return periods[t]
	}
	code := uint8(t) & 0x0f
	if int(code) < len(periods) {
		return periods[code]
	}
	return periods[Timeout8s]
}

// ParseTimeout parses a period name such as "125ms" or "2s".
func ParseTimeout(s string) (Timeout, error) {
	for _, t := range Timeouts() {
		if t.String() == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidTimeout, s)
}

// TimeoutFor returns the shortest period that is at least d, capped at 8s.
func TimeoutFor(d time.Duration) Timeout {
	for _, t := range Timeouts() {
		if periods[t] >= d {
			return t
		}
	}
	return Timeout8s
}
