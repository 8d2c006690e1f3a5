package diag

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Snapshot defaults.
const (
	// DefaultMagic marks a snapshot record.
	DefaultMagic byte = 0x42

	// SnapshotSize is the encoded payload size in bytes.
	SnapshotSize = 13
)

// Snapshot is the diagnostic state captured at a supervisory fault.
type Snapshot struct {
	// ResetCounter counts consecutive watchdog resets.
	ResetCounter uint8

	// FreeMemoryAtFault is the free heap in bytes when the fault was captured.
	FreeMemoryAtFault uint32

	// FaultAddress is the program address the supervised loop last checked
	// in from.
	FaultAddress uint32

	// Timestamp is the uptime in milliseconds when the fault was captured.
	Timestamp uint32
}

// MarshalBinary encodes the snapshot as 13 little-endian bytes.
func (s Snapshot) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 0, SnapshotSize)
	buf = append(buf, s.ResetCounter)
	buf = binary.LittleEndian.AppendUint32(buf, s.FreeMemoryAtFault)
	buf = binary.LittleEndian.AppendUint32(buf, s.FaultAddress)
	buf = binary.LittleEndian.AppendUint32(buf, s.Timestamp)
	return buf, nil
}

// UnmarshalBinary decodes a snapshot encoded by MarshalBinary.
func (s *Snapshot) UnmarshalBinary(data []byte) error {
	if len(data) != SnapshotSize {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrPayloadSize, len(data), SnapshotSize)
	}
	s.ResetCounter = data[0]
	s.FreeMemoryAtFault = binary.LittleEndian.Uint32(data[1:5])
	s.FaultAddress = binary.LittleEndian.Uint32(data[5:9])
	s.Timestamp = binary.LittleEndian.Uint32(data[9:13])
	return nil
}

// Store keeps a Snapshot in NVMemory.
type Store struct {
	rec *Recorder
}

// NewStore creates a snapshot store at base with the given magic.
func NewStore(nv NVMemory, base int64, magic byte) (*Store, error) {
	rec, err := NewRecorder(nv, base, magic, SnapshotSize)
	if err != nil {
		return nil, err
	}
	return &Store{rec: rec}, nil
}

// Save persists s as a valid record.
func (st *Store) Save(s Snapshot) error {
	return st.rec.SaveValue(s)
}

// Load returns the stored snapshot and whether it is trustworthy.
func (st *Store) Load() (Snapshot, bool, error) {
	var s Snapshot
	ok, err := st.rec.LoadValue(&s)
	return s, ok, err
}

// Invalidate marks the stored snapshot as untrustworthy.
func (st *Store) Invalidate() error {
	return st.rec.Invalidate()
}

// Dump writes the raw record bytes as hex.
func (st *Store) Dump(w io.Writer) error {
	return st.rec.Dump(w, "Snapshot")
}

// Recorder returns the underlying record.
func (st *Store) Recorder() *Recorder {
	return st.rec
}
