package commands

import (
	"fmt"
	"io"

	"github.com/mash-protocol/mash-wdt/pkg/log"
)

// RunFilter copies the events matching filter from path into output and
// returns how many were written.
func RunFilter(path string, filter log.Filter, output string) (int, error) {
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to open trace file: %w", err)
	}
	defer reader.Close()

	logger, err := log.NewFileLogger(output)
	if err != nil {
		return 0, fmt.Errorf("failed to create output trace: %w", err)
	}

	count := 0
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			logger.Close()
			return count, fmt.Errorf("failed to read event: %w", err)
		}

		logger.Log(event)
		count++
	}

	if err := logger.Close(); err != nil {
		return count, fmt.Errorf("failed to close output trace: %w", err)
	}
	if dropped := logger.Dropped(); dropped > 0 {
		return count, fmt.Errorf("%d events could not be written", dropped)
	}
	return count, nil
}
