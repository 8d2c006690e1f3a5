package diag

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestMemEEPROMStartsErased(t *testing.T) {
	m := NewMemEEPROM(64)
	if m.Size() != 64 {
		t.Fatalf("Size() = %d, want 64", m.Size())
	}

	buf := make([]byte, 64)
	if _, err := m.ReadAt(buf, 0); err != nil {
		t.Fatalf("ReadAt failed: %v", err)
	}
	for i, b := range buf {
		if b != ErasedByte {
			t.Fatalf("byte %d = %#02x, want %#02x", i, b, ErasedByte)
		}
	}
}

func TestMemEEPROMBounds(t *testing.T) {
	m := NewMemEEPROM(16)

	tests := []struct {
		name string
		off  int64
		n    int
	}{
		{"Negative", -1, 1},
		{"PastEnd", 16, 1},
		{"Straddles", 10, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.WriteAt(make([]byte, tt.n), tt.off); !errors.Is(err, ErrOutOfRange) {
				t.Errorf("WriteAt error = %v, want ErrOutOfRange", err)
			}
			if _, err := m.ReadAt(make([]byte, tt.n), tt.off); !errors.Is(err, ErrOutOfRange) {
				t.Errorf("ReadAt error = %v, want ErrOutOfRange", err)
			}
		})
	}
}

func TestFileEEPROMPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eeprom.bin")

	e, err := OpenFileEEPROM(path, 32)
	if err != nil {
		t.Fatalf("OpenFileEEPROM failed: %v", err)
	}
	if _, err := e.WriteAt([]byte{1, 2, 3}, 4); err != nil {
		t.Fatalf("WriteAt failed: %v", err)
	}
	if err := e.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() != 32 {
		t.Errorf("image size = %d, want 32", info.Size())
	}

	e, err = OpenFileEEPROM(path, 32)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer e.Close()

	buf := make([]byte, 8)
	if _, err := e.ReadAt(buf, 2); err != nil {
		t.Fatalf("ReadAt failed: %v", err)
	}
	want := []byte{ErasedByte, ErasedByte, 1, 2, 3, ErasedByte, ErasedByte, ErasedByte}
	if string(buf) != string(want) {
		t.Errorf("ReadAt = % x, want % x", buf, want)
	}
}

func TestFileEEPROMGrowsShortImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eeprom.bin")
	if err := os.WriteFile(path, []byte{0x42}, 0o600); err != nil {
		t.Fatal(err)
	}

	e, err := OpenFileEEPROM(path, 8)
	if err != nil {
		t.Fatalf("OpenFileEEPROM failed: %v", err)
	}
	defer e.Close()

	buf := make([]byte, 8)
	if _, err := e.ReadAt(buf, 0); err != nil {
		t.Fatalf("ReadAt failed: %v", err)
	}
	if buf[0] != 0x42 || buf[7] != ErasedByte {
		t.Errorf("image = % x, want 42 followed by erased bytes", buf)
	}
}

func TestFileEEPROMClosed(t *testing.T) {
	e, err := OpenFileEEPROM(filepath.Join(t.TempDir(), "eeprom.bin"), 8)
	if err != nil {
		t.Fatalf("OpenFileEEPROM failed: %v", err)
	}
	e.Close()
	if err := e.Close(); err != nil {
		t.Errorf("second Close = %v", err)
	}
	if _, err := e.ReadAt(make([]byte, 1), 0); !errors.Is(err, ErrClosed) {
		t.Errorf("ReadAt after Close = %v, want ErrClosed", err)
	}
}

func TestOpenFileEEPROMInvalidSize(t *testing.T) {
	if _, err := OpenFileEEPROM(filepath.Join(t.TempDir(), "x"), 0); err == nil {
		t.Error("OpenFileEEPROM(size 0) succeeded, want error")
	}
}
