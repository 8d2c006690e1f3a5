// Package diag persists a diagnostic snapshot across a watchdog reset.
//
// A snapshot is written into non-volatile memory (an emulated EEPROM) by
// the supervisory watchdog's diagnostic callback, in the window between the
// first and second alarm stage. After the reset, boot code reads it back.
//
// # Record Layout
//
// A record occupies a fixed region starting at a base address:
//
//	offset 0: checksum (XOR of all payload bytes)
//	offset 1: magic
//	offset 2: payload
//
// A record is valid when the magic matches and the checksum equals the XOR
// of the payload. Save writes the payload and magic first and the checksum
// last, so an interrupted save leaves a stale checksum behind and reads as
// invalid. Invalidate rewrites only the checksum byte with a value that is
// guaranteed not to match.
//
// The XOR checksum detects any single corrupted byte. Two corrupted payload
// bytes whose changes cancel out are not detected.
package diag
