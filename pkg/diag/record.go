package diag

import (
	"encoding"
	"errors"
	"fmt"
	"io"
)

// Record layout offsets relative to the base address.
const (
	checksumOffset = 0
	magicOffset    = 1
	headerSize     = 2
)

// ErrPayloadSize is returned when a payload does not have the record's
// declared size.
var ErrPayloadSize = errors.New("payload size mismatch")

// Checksum returns the XOR of all payload bytes.
func Checksum(payload []byte) byte {
	var sum byte
	for _, b := range payload {
		sum ^= b
	}
	return sum
}

// RecordSize returns the NVMemory bytes a record with a payload of
// payloadSize bytes occupies.
func RecordSize(payloadSize int) int {
	return headerSize + payloadSize
}

// Recorder stores one fixed-size checksummed record in NVMemory.
type Recorder struct {
	nv    NVMemory
	base  int64
	magic byte
	size  int
}

// NewRecorder creates a Recorder for payloads of payloadSize bytes at base.
func NewRecorder(nv NVMemory, base int64, magic byte, payloadSize int) (*Recorder, error) {
	if payloadSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrPayloadSize, payloadSize)
	}
	if err := checkRange(base, headerSize+payloadSize, nv.Size()); err != nil {
		return nil, fmt.Errorf("record at %d: %w", base, err)
	}
	return &Recorder{nv: nv, base: base, magic: magic, size: payloadSize}, nil
}

// Len returns the number of NVMemory bytes the record occupies.
func (r *Recorder) Len() int {
	return RecordSize(r.size)
}

// Magic returns the expected magic byte.
func (r *Recorder) Magic() byte {
	return r.magic
}

// Save writes payload as a new valid record.
//
// The whole record is first written with a checksum that cannot match,
// then the real checksum byte is written. A save cut short at any point
// leaves an invalid record.
func (r *Recorder) Save(payload []byte) error {
	if len(payload) != r.size {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrPayloadSize, len(payload), r.size)
	}

	sum := Checksum(payload)
	buf := make([]byte, r.Len())
	buf[checksumOffset] = ^sum
	buf[magicOffset] = r.magic
	copy(buf[headerSize:], payload)

	if _, err := r.nv.WriteAt(buf, r.base); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	if _, err := r.nv.WriteAt([]byte{sum}, r.base+checksumOffset); err != nil {
		return fmt.Errorf("write record checksum: %w", err)
	}
	return nil
}

// Load reads the record. ok is false if the magic or the checksum does not
// match; the payload is then nil. A corrupt record is not an error.
func (r *Recorder) Load() (payload []byte, ok bool, err error) {
	buf, err := r.read()
	if err != nil {
		return nil, false, err
	}
	payload = buf[headerSize:]
	if buf[magicOffset] != r.magic || buf[checksumOffset] != Checksum(payload) {
		return nil, false, nil
	}
	return payload, true, nil
}

// Invalidate makes the stored record fail validation. Only the checksum
// byte is written.
func (r *Recorder) Invalidate() error {
	buf, err := r.read()
	if err != nil {
		return err
	}
	bad := ^Checksum(buf[headerSize:])
	if _, err := r.nv.WriteAt([]byte{bad}, r.base+checksumOffset); err != nil {
		return fmt.Errorf("invalidate record: %w", err)
	}
	return nil
}

// SaveValue marshals v and saves it.
func (r *Recorder) SaveValue(v encoding.BinaryMarshaler) error {
	payload, err := v.MarshalBinary()
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	return r.Save(payload)
}

// LoadValue loads the record into v. It returns false without touching v if
// the record is invalid.
func (r *Recorder) LoadValue(v encoding.BinaryUnmarshaler) (bool, error) {
	payload, ok, err := r.Load()
	if err != nil || !ok {
		return false, err
	}
	if err := v.UnmarshalBinary(payload); err != nil {
		return false, fmt.Errorf("unmarshal record: %w", err)
	}
	return true, nil
}

// Dump writes the raw record bytes as space-separated hex, prefixed by
// label, and a newline.
func (r *Recorder) Dump(w io.Writer, label string) error {
	buf, err := r.read()
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s: % x\n", label, buf); err != nil {
		return err
	}
	return nil
}

func (r *Recorder) read() ([]byte, error) {
	buf := make([]byte, r.Len())
	if _, err := r.nv.ReadAt(buf, r.base); err != nil {
		return nil, fmt.Errorf("read record: %w", err)
	}
	return buf, nil
}
