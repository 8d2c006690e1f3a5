package log

import (
	"errors"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// ErrTruncatedEvent is returned for an event record cut short, which is what
// a reset in the middle of a trace write leaves behind.
var ErrTruncatedEvent = errors.New("truncated trace event")

// Trace events are flat: an envelope map holding at most one payload map.
// Anything deeper or wider is corruption, not a newer writer.
const (
	maxEventNesting = 4
	maxEventKeys    = 32
)

// traceEncMode is the CBOR encoder mode for trace events.
// Deterministic encoding with nanosecond-precision timestamps.
var traceEncMode cbor.EncMode

// traceDecMode is the CBOR decoder mode for trace events.
var traceDecMode cbor.DecMode

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	}
	traceEncMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create trace CBOR encoder mode: %v", err))
	}

	// Unknown keys from newer writers are ignored.
	decOpts := cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyQuiet,
		IndefLength:       cbor.IndefLengthForbidden,
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
		MaxNestedLevels:   maxEventNesting,
		MaxMapPairs:       maxEventKeys,
		MaxArrayElements:  16,
	}
	traceDecMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create trace CBOR decoder mode: %v", err))
	}
}

// EncodeEvent encodes an Event to CBOR bytes using integer keys for compactness.
func EncodeEvent(event Event) ([]byte, error) {
	return traceEncMode.Marshal(event)
}

// DecodeEvent decodes CBOR bytes into an Event. A record cut short returns
// ErrTruncatedEvent.
func DecodeEvent(data []byte) (Event, error) {
	var event Event
	if err := traceDecMode.Unmarshal(data, &event); err != nil {
		if endOfTrace(err) {
			return Event{}, fmt.Errorf("%w: %d bytes", ErrTruncatedEvent, len(data))
		}
		return Event{}, err
	}
	return event, nil
}

// endOfTrace reports whether a decode error means the trace ends here:
// either cleanly, or in a final record the reset did not let us finish.
func endOfTrace(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

// NewEncoder creates a CBOR encoder for trace events that writes to w.
func NewEncoder(w io.Writer) *cbor.Encoder {
	return traceEncMode.NewEncoder(w)
}

// NewDecoder creates a CBOR decoder for trace events that reads from r.
func NewDecoder(r io.Reader) *cbor.Decoder {
	return traceDecMode.NewDecoder(r)
}
