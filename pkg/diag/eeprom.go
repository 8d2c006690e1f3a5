package diag

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

// ErasedByte is the value of an erased EEPROM cell.
const ErasedByte = 0xFF

// Memory errors.
var (
	ErrOutOfRange = errors.New("address out of range")
	ErrClosed     = errors.New("eeprom closed")
)

// NVMemory is byte-addressable non-volatile memory.
type NVMemory interface {
	io.ReaderAt
	io.WriterAt

	// Size returns the capacity in bytes.
	Size() int64
}

func checkRange(off int64, n int, size int64) error {
	if off < 0 || off+int64(n) > size {
		return fmt.Errorf("%w: [%d, %d) outside %d bytes", ErrOutOfRange, off, off+int64(n), size)
	}
	return nil
}

// MemEEPROM is an in-memory NVMemory. It starts fully erased.
type MemEEPROM struct {
	mu   sync.RWMutex
	data []byte
}

// NewMemEEPROM creates an erased in-memory EEPROM of size bytes.
func NewMemEEPROM(size int) *MemEEPROM {
	return &MemEEPROM{data: bytes.Repeat([]byte{ErasedByte}, size)}
}

// ReadAt implements io.ReaderAt.
func (m *MemEEPROM) ReadAt(p []byte, off int64) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := checkRange(off, len(p), int64(len(m.data))); err != nil {
		return 0, err
	}
	return copy(p, m.data[off:]), nil
}

// WriteAt implements io.WriterAt.
func (m *MemEEPROM) WriteAt(p []byte, off int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := checkRange(off, len(p), int64(len(m.data))); err != nil {
		return 0, err
	}
	return copy(m.data[off:], p), nil
}

// Size implements NVMemory.
func (m *MemEEPROM) Size() int64 {
	return int64(len(m.data))
}

// FileEEPROM is an NVMemory backed by a fixed-size file. Every write is
// synced to stable storage before it returns.
type FileEEPROM struct {
	mu     sync.Mutex
	file   *os.File
	size   int64
	closed bool
}

// OpenFileEEPROM opens or creates the EEPROM image at path. A new or short
// image is extended with erased bytes up to size. A longer image keeps its
// contents but only the first size bytes are addressable.
func OpenFileEEPROM(path string, size int64) (*FileEEPROM, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid eeprom size %d", size)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open eeprom image: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat eeprom image: %w", err)
	}
	if have := info.Size(); have < size {
		fill := bytes.Repeat([]byte{ErasedByte}, int(size-have))
		if _, err := f.WriteAt(fill, have); err != nil {
			f.Close()
			return nil, fmt.Errorf("erase eeprom image: %w", err)
		}
		if err := f.Sync(); err != nil {
			f.Close()
			return nil, fmt.Errorf("sync eeprom image: %w", err)
		}
	}

	return &FileEEPROM{file: f, size: size}, nil
}

// ReadAt implements io.ReaderAt.
func (e *FileEEPROM) ReadAt(p []byte, off int64) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return 0, ErrClosed
	}
	if err := checkRange(off, len(p), e.size); err != nil {
		return 0, err
	}
	return e.file.ReadAt(p, off)
}

// WriteAt implements io.WriterAt.
func (e *FileEEPROM) WriteAt(p []byte, off int64) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return 0, ErrClosed
	}
	if err := checkRange(off, len(p), e.size); err != nil {
		return 0, err
	}
	n, err := e.file.WriteAt(p, off)
	if err != nil {
		return n, err
	}
	return n, e.file.Sync()
}

// Size implements NVMemory.
func (e *FileEEPROM) Size() int64 {
	return e.size
}

// Close closes the image file. It is safe to call Close multiple times.
func (e *FileEEPROM) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	return e.file.Close()
}

var (
	_ NVMemory = (*MemEEPROM)(nil)
	_ NVMemory = (*FileEEPROM)(nil)
)
