package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/mash-protocol/mash-wdt/pkg/log"
)

// RunExport exports the trace file to the specified format.
func RunExport(path, format, output string) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open trace file: %w", err)
	}
	defer reader.Close()

	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "jsonl":
		return exportJSONL(reader, w)
	case "csv":
		return exportCSV(reader, w)
	default:
		return fmt.Errorf("unknown format: %s (supported: jsonl, csv)", format)
	}
}

func exportJSONL(reader *log.Reader, w io.Writer) error {
	encoder := json.NewEncoder(w)
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := encoder.Encode(event); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
	}
	return nil
}

func exportCSV(reader *log.Reader, w io.Writer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{"timestamp", "boot_id", "component", "category", "name", "type", "duration_ns", "detail"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		var duration, detail string
		switch {
		case event.Alarm != nil:
			duration = strconv.FormatInt(int64(event.Alarm.Period), 10)
			detail = fmt.Sprintf("control=0x%02x", event.Alarm.Control)
		case event.Call != nil:
			duration = strconv.FormatInt(int64(event.Call.Elapsed), 10)
			detail = event.Call.Detail
		case event.Fault != nil:
			duration = strconv.FormatInt(int64(event.Fault.SinceKick), 10)
			detail = log.FormatAddress(event.Fault.Address) + " " + event.Fault.Function
		case event.Boot != nil:
			detail = fmt.Sprintf("%s count=%d valid=%t", event.Boot.Cause, event.Boot.ResetCount, event.Boot.SnapshotValid)
		case event.Error != nil:
			detail = event.Error.Message
		}

		row := []string{
			event.Timestamp.UTC().Format(timestampLayout),
			event.BootID,
			event.Component.String(),
			event.Category.String(),
			event.Name,
			typeLabel(event),
			duration,
			detail,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	return nil
}
