package system

import "strings"

// ResetFlags is the reset-status register. Several bits may be set at once.
type ResetFlags uint8

// Reset-status bits.
const (
	PowerOn    ResetFlags = 1 << 0 // PORF
	External   ResetFlags = 1 << 1 // EXTRF
	BrownOut   ResetFlags = 1 << 2 // BORF
	Watchdog   ResetFlags = 1 << 3 // WDRF
	DebugProbe ResetFlags = 1 << 4 // JTRF
)

// Has reports whether all bits in f are set, regardless of precedence.
func (r ResetFlags) Has(f ResetFlags) bool {
	return r&f == f
}

// IsPowerOn reports a power-on reset.
func (r ResetFlags) IsPowerOn() bool {
	return r.Has(PowerOn)
}

// IsExternal reports an external reset. A power-on reset suppresses it.
func (r ResetFlags) IsExternal() bool {
	return !r.Has(PowerOn) && r.Has(External)
}

// IsBrownOut reports a brown-out reset. A power-on reset suppresses it.
func (r ResetFlags) IsBrownOut() bool {
	return !r.Has(PowerOn) && r.Has(BrownOut)
}

// IsWatchdog reports a watchdog reset. Power-on and external resets
// suppress it, so a snapshot is only trusted after a pure watchdog reset.
func (r ResetFlags) IsWatchdog() bool {
	return !r.Has(PowerOn) && !r.Has(External) && r.Has(Watchdog)
}

// IsDebugProbe reports a reset by the debug probe. A power-on reset
// suppresses it.
func (r ResetFlags) IsDebugProbe() bool {
	return !r.Has(PowerOn) && r.Has(DebugProbe)
}

// Valid reports whether any reset flag is set at all.
func (r ResetFlags) Valid() bool {
	return r != 0
}

// Cause returns the single reset cause by precedence.
func (r ResetFlags) Cause() ResetCause {
	switch {
	case r.IsPowerOn():
		return CausePowerOn
	case r.IsExternal():
		return CauseExternal
	case r.IsBrownOut():
		return CauseBrownOut
	case r.IsWatchdog():
		return CauseWatchdog
	case r.IsDebugProbe():
		return CauseDebugProbe
	default:
		return CauseUnknown
	}
}

var flagNames = []struct {
	flag ResetFlags
	name string
}{
	{PowerOn, "PORF"},
	{External, "EXTRF"},
	{BrownOut, "BORF"},
	{Watchdog, "WDRF"},
	{DebugProbe, "JTRF"},
}

// String lists the set bits by register name, e.g. "EXTRF WDRF".
// Returns "NONE" when no bit is set.
func (r ResetFlags) String() string {
	var names []string
	for _, f := range flagNames {
		if r.Has(f.flag) {
			names = append(names, f.name)
		}
	}
	if len(names) == 0 {
		return "NONE"
	}
	return strings.Join(names, " ")
}

// ResetCause is the decoded reason for the last reset.
type ResetCause uint8

const (
	CauseUnknown ResetCause = iota
	CausePowerOn
	CauseExternal
	CauseBrownOut
	CauseWatchdog
	CauseDebugProbe
)

// String returns a human-readable cause name.
func (c ResetCause) String() string {
	switch c {
	case CausePowerOn:
		return "power-on"
	case CauseExternal:
		return "external"
	case CauseBrownOut:
		return "brown-out"
	case CauseWatchdog:
		return "watchdog"
	case CauseDebugProbe:
		return "debug-probe"
	default:
		return "unknown"
	}
}
