package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/pushline/pushline-go/pkg/log"
)

// Stats holds aggregate statistics about a log file.
type Stats struct {
	TotalEvents      int
	EventsByCategory map[log.Category]int
	Sessions         map[string]*SessionStats
	Messages         MessageStats
	VerifyPasses     int
	VerifyChanged    int
	VerifySkipped    int
	Errors           int
	TimeRange        struct {
		Start time.Time
		End   time.Time
	}
}

// SessionStats holds statistics for a single manager session.
type SessionStats struct {
	FirstSeen time.Time
	LastSeen  time.Time
	Events    int
}

// MessageStats breaks down inbound messages by dispatch outcome.
type MessageStats struct {
	Dispatched     int
	UnknownChannel int
	NotReady       int
	DecryptFailed  int
	PayloadBytes   int
}

// RunStats analyzes the log file and prints statistics.
func RunStats(path string, w io.Writer) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsByCategory: make(map[log.Category]int),
		Sessions:         make(map[string]*SessionStats),
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		stats.TotalEvents++
		stats.EventsByCategory[event.Category]++

		// Track time range
		if stats.TimeRange.Start.IsZero() || event.Timestamp.Before(stats.TimeRange.Start) {
			stats.TimeRange.Start = event.Timestamp
		}
		if event.Timestamp.After(stats.TimeRange.End) {
			stats.TimeRange.End = event.Timestamp
		}

		// Track session stats
		sess, ok := stats.Sessions[event.SessionID]
		if !ok {
			sess = &SessionStats{
				FirstSeen: event.Timestamp,
				LastSeen:  event.Timestamp,
			}
			stats.Sessions[event.SessionID] = sess
		}
		sess.Events++
		if event.Timestamp.After(sess.LastSeen) {
			sess.LastSeen = event.Timestamp
		}

		// Break down messages by outcome
		if event.Message != nil {
			switch event.Message.Outcome {
			case log.MessageDispatched:
				stats.Messages.Dispatched++
				stats.Messages.PayloadBytes += event.Message.Size
			case log.MessageUnknownChannel:
				stats.Messages.UnknownChannel++
			case log.MessageNotReady:
				stats.Messages.NotReady++
			case log.MessageDecryptFailed:
				stats.Messages.DecryptFailed++
			}
		}

		// Aggregate verification passes
		if event.Verify != nil {
			stats.VerifyPasses++
			stats.VerifyChanged += event.Verify.Changed
			stats.VerifySkipped += event.Verify.Skipped
		}

		// Count errors
		if event.Error != nil {
			stats.Errors++
		}
	}

	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== Push Event Log Statistics ===")
	fmt.Fprintln(w)

	// Time range
	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
		fmt.Fprintln(w)
	}

	// Total events
	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	// Events by category
	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []log.Category{log.CategoryToken, log.CategorySubscription, log.CategoryMessage, log.CategoryVerify, log.CategoryState, log.CategoryError} {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-14s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	// Messages by outcome
	if total := stats.Messages.Dispatched + stats.Messages.UnknownChannel + stats.Messages.NotReady + stats.Messages.DecryptFailed; total > 0 {
		fmt.Fprintln(w, "Messages by Outcome:")
		if stats.Messages.Dispatched > 0 {
			fmt.Fprintf(w, "  %-16s %d\n", "DISPATCHED:", stats.Messages.Dispatched)
		}
		if stats.Messages.UnknownChannel > 0 {
			fmt.Fprintf(w, "  %-16s %d\n", "UNKNOWN_CHANNEL:", stats.Messages.UnknownChannel)
		}
		if stats.Messages.NotReady > 0 {
			fmt.Fprintf(w, "  %-16s %d\n", "NOT_READY:", stats.Messages.NotReady)
		}
		if stats.Messages.DecryptFailed > 0 {
			fmt.Fprintf(w, "  %-16s %d\n", "DECRYPT_FAILED:", stats.Messages.DecryptFailed)
		}
		if stats.Messages.PayloadBytes > 0 {
			fmt.Fprintf(w, "  %-16s %d\n", "Payload bytes:", stats.Messages.PayloadBytes)
		}
		fmt.Fprintln(w)
	}

	// Verification summary
	if stats.VerifyPasses > 0 {
		fmt.Fprintln(w, "Verification:")
		fmt.Fprintf(w, "  %-10s %d\n", "Passes:", stats.VerifyPasses)
		fmt.Fprintf(w, "  %-10s %d\n", "Changed:", stats.VerifyChanged)
		if stats.VerifySkipped > 0 {
			fmt.Fprintf(w, "  %-10s %d\n", "Skipped:", stats.VerifySkipped)
		}
		fmt.Fprintln(w)
	}

	// Sessions
	fmt.Fprintf(w, "Sessions: %d\n", len(stats.Sessions))
	if len(stats.Sessions) > 0 {
		// Sort by first seen time
		type sessInfo struct {
			id    string
			stats *SessionStats
		}
		sessions := make([]sessInfo, 0, len(stats.Sessions))
		for id, ss := range stats.Sessions {
			sessions = append(sessions, sessInfo{id, ss})
		}
		sort.Slice(sessions, func(i, j int) bool {
			return sessions[i].stats.FirstSeen.Before(sessions[j].stats.FirstSeen)
		})

		fmt.Fprintln(w, "")
		for _, s := range sessions {
			duration := s.stats.LastSeen.Sub(s.stats.FirstSeen).Round(time.Millisecond)
			shortID := s.id
			if len(shortID) > 8 {
				shortID = shortID[:8]
			}
			fmt.Fprintf(w, "  [%s] %d events, duration %s\n", shortID, s.stats.Events, duration)
		}
	}

	// Errors
	if stats.Errors > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
	}
}
