package system

import (
	"math"
	"runtime"
	"time"
)

var bootTime = time.Now()

// BootTime returns when the process started.
func BootTime() time.Time {
	return bootTime
}

// Uptime returns the time since the process started.
func Uptime() time.Duration {
	return time.Since(bootTime)
}

// Millis returns the uptime in milliseconds. It wraps after about 49 days.
func Millis() uint32 {
	return uint32(Uptime().Milliseconds())
}

// FreeMemory returns the heap bytes obtained from the OS but not in use,
// clamped to 32 bits. It briefly stops the world.
func FreeMemory() uint32 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	free := ms.HeapSys - ms.HeapInuse
	if free > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(free)
}

// ProgramCounter returns the program counter of its caller.
//
//go:noinline
func ProgramCounter() uintptr {
	pc, _ := Caller(1)
	return pc
}

// Caller returns the program counter and source location skip frames
// above its caller. Caller(0) describes the caller itself. Inlined frames
// count as frames.
func Caller(skip int) (uintptr, Location) {
	var pcs [1]uintptr
	if runtime.Callers(skip+2, pcs[:]) == 0 {
		return 0, Location{}
	}
	frame, _ := runtime.CallersFrames(pcs[:]).Next()
	return frame.PC, Location{Function: frame.Function, File: frame.File, Line: frame.Line}
}

// Location is a source position resolved from a program counter.
type Location struct {
	Function string
	File     string
	Line     int
}

// Locate resolves pc in the running binary. The zero Location is returned
// for addresses outside any known function. Prefer Caller for live frames:
// Locate cannot see through inlining.
func Locate(pc uintptr) Location {
	if pc == 0 {
		return Location{}
	}
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return Location{}
	}
	file, line := fn.FileLine(pc)
	return Location{Function: fn.Name(), File: file, Line: line}
}

// LocateAddress32 resolves an address that was stored in 32 bits, as in a
// diagnostic snapshot. When the running binary's code lies above 4GiB the
// high bits are lost and the zero Location is returned rather than a wrong
// function. Position-independent builds load at a different base on every
// start, so a stored address may also name nothing in the current process.
func LocateAddress32(addr uint32) Location {
	if !codeFits32() {
		return Location{}
	}
	return Locate(uintptr(addr))
}

// codeFits32 reports whether program counters of this binary fit in 32 bits.
// Replaced in tests.
var codeFits32 = func() bool {
	return uint64(ProgramCounter())>>32 == 0
}
