package system

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// ErrHalted is returned by Halt once the halted system is reset externally.
var ErrHalted = errors.New("system halted")

// HaltedMessage is printed when the system stops for good.
const HaltedMessage = "Halted! Press RESET to start again"

// Halt is the unrecoverable error path. It prints an alert for msg and the
// halted notice to w, then blocks until ctx ends, which stands in for an
// external reset. The returned error wraps ErrHalted.
func Halt(ctx context.Context, w io.Writer, logger *slog.Logger, msg string) error {
	if logger == nil {
		logger = slog.Default()
	}
	if msg != "" {
		fmt.Fprintf(w, "ALERT: %s\n", msg)
	}
	fmt.Fprintln(w, HaltedMessage)
	logger.Error("system halted", "reason", msg)

	<-ctx.Done()
	if msg == "" {
		return ErrHalted
	}
	return fmt.Errorf("%w: %s", ErrHalted, msg)
}
