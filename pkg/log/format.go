package log

import "fmt"

// FormatAddress renders a program address as a zero-padded hex string.
func FormatAddress(addr uint64) string {
	return fmt.Sprintf("0x%08x", addr)
}
