package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pushline/pushline-go/pkg/log"
)

// RunExport exports the log file to the specified format.
func RunExport(path, format, output string) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	// Determine output writer
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

	// Write header
	header := []string{"timestamp", "session_id", "category", "type", "feature", "channel_id", "detail"}
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

		// Determine event type and detail
		eventType := "unknown"
		channelID := ""
		detail := ""
		switch {
		case event.Token != nil:
			eventType = event.Token.Action.String()
			detail = event.Token.Digest
		case event.Subscription != nil:
			eventType = event.Subscription.Action.String()
			channelID = event.Subscription.ChannelID
			detail = event.Subscription.Endpoint
		case event.Message != nil:
			eventType = event.Message.Outcome.String()
			channelID = event.Message.ChannelID
			detail = fmt.Sprintf("%d bytes", event.Message.Size)
		case event.Verify != nil:
			eventType = "PASS"
			detail = fmt.Sprintf("%d changed, %d skipped", event.Verify.Changed, event.Verify.Skipped)
		case event.StateChange != nil:
			eventType = event.StateChange.NewState
			detail = event.StateChange.OldState
		case event.Error != nil:
			eventType = event.Error.Kind
			detail = event.Error.Message
		}

		row := []string{
			event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z"),
			event.SessionID,
			event.Category.String(),
			eventType,
			eventFeature(event),
			channelID,
			detail,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	return nil
}
