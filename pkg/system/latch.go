package system

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// LatchVersion is the current version of the latch file format.
const LatchVersion = 1

// DefaultLatchFile is the latch file name inside the state directory.
const DefaultLatchFile = "reset.flags"

// latchState is the on-disk form of the reset-status register.
type latchState struct {
	Version int        `json:"version"`
	Flags   ResetFlags `json:"flags"`
	SetAt   time.Time  `json:"set_at"`
}

// Latch is a reset-status register that survives a process restart.
type Latch struct {
	mu   sync.Mutex
	path string
}

// NewLatch creates a latch stored at path.
func NewLatch(path string) *Latch {
	return &Latch{path: path}
}

// Path returns the latch file path.
func (l *Latch) Path() string {
	return l.path
}

// Set ORs flags into the register. The reset path calls it right before
// restarting the process.
func (l *Latch) Set(flags ResetFlags) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	current, _, err := l.read()
	if err != nil {
		return err
	}
	return l.write(current | flags)
}

// Peek returns the register without clearing it.
func (l *Latch) Peek() (ResetFlags, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	flags, exists, err := l.read()
	if err != nil {
		return 0, err
	}
	if !exists {
		return PowerOn, nil
	}
	return flags, nil
}

// Capture returns the register and clears it, so the next start without an
// intervening reset reads as power-on. Call it before anything else at
// startup.
func (l *Latch) Capture() (ResetFlags, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	flags, exists, err := l.read()
	if err != nil {
		return 0, err
	}
	if !exists {
		return PowerOn, nil
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return flags, fmt.Errorf("clear reset latch: %w", err)
	}
	return flags, nil
}

func (l *Latch) read() (ResetFlags, bool, error) {
	data, err := os.ReadFile(l.path)
	if os.IsNotExist(err) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read reset latch: %w", err)
	}

	var st latchState
	if err := json.Unmarshal(data, &st); err != nil {
		return 0, false, fmt.Errorf("decode reset latch: %w", err)
	}
	return st.Flags, true, nil
}

// write replaces the latch file atomically so a reset mid-write leaves
// either the old or the new register.
func (l *Latch) write(flags ResetFlags) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(latchState{
		Version: LatchVersion,
		Flags:   flags,
		SetAt:   time.Now(),
	}, "", "  ")
	if err != nil {
		return err
	}

	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write reset latch: %w", err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		return fmt.Errorf("write reset latch: %w", err)
	}
	return nil
}
