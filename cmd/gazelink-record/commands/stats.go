package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/gazelink-protocol/gazelink-go/pkg/log"
)

// Stats holds aggregate statistics about a log file.
type Stats struct {
	TotalEvents      int
	EventsByCategory map[log.Category]int
	Sessions         map[string]*SessionStats
	Errors           int
	TimeRange        struct {
		Start time.Time
		End   time.Time
	}
}

// SessionStats holds statistics for a single session.
type SessionStats struct {
	FirstSeen   time.Time
	LastSeen    time.Time
	Events      int
	Profile     string
	Fetches     int
	CacheHits   int
	TotalWaited time.Duration
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

		if stats.TimeRange.Start.IsZero() || event.Timestamp.Before(stats.TimeRange.Start) {
			stats.TimeRange.Start = event.Timestamp
		}
		if event.Timestamp.After(stats.TimeRange.End) {
			stats.TimeRange.End = event.Timestamp
		}

		session, ok := stats.Sessions[event.SessionID]
		if !ok {
			session = &SessionStats{
				FirstSeen: event.Timestamp,
				LastSeen:  event.Timestamp,
			}
			stats.Sessions[event.SessionID] = session
		}
		session.Events++
		if event.Timestamp.After(session.LastSeen) {
			session.LastSeen = event.Timestamp
		}
		if event.Profile != "" && session.Profile == "" {
			session.Profile = event.Profile
		}

		if event.Fetch != nil {
			session.Fetches++
			if !event.Fetch.Updated {
				session.CacheHits++
			}
		}
		if event.Wait != nil {
			session.TotalWaited += event.Wait.Duration
		}
		if event.Error != nil {
			stats.Errors++
		}
	}

	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== GazeLink SDK Event Log Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration: %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Millisecond))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
	fmt.Fprintln(w)

	if len(stats.EventsByCategory) > 0 {
		fmt.Fprintln(w, "Events by Category:")
		categories := make([]log.Category, 0, len(stats.EventsByCategory))
		for c := range stats.EventsByCategory {
			categories = append(categories, c)
		}
		sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })
		for _, c := range categories {
			fmt.Fprintf(w, "  %-12s %d\n", c.String(), stats.EventsByCategory[c])
		}
		fmt.Fprintln(w)
	}

	if len(stats.Sessions) > 0 {
		fmt.Fprintf(w, "Sessions: %d\n", len(stats.Sessions))

		ids := make([]string, 0, len(stats.Sessions))
		for id := range stats.Sessions {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		for _, id := range ids {
			s := stats.Sessions[id]
			fmt.Fprintf(w, "  %s\n", shortenSessionID(id))
			fmt.Fprintf(w, "    Events: %d over %s\n", s.Events, s.LastSeen.Sub(s.FirstSeen).Round(time.Millisecond))
			if s.Profile != "" {
				fmt.Fprintf(w, "    Profile: %s\n", s.Profile)
			}
			if s.Fetches > 0 {
				fmt.Fprintf(w, "    Fetches: %d (%d without a newer frame)\n", s.Fetches, s.CacheHits)
			}
			if s.TotalWaited > 0 {
				fmt.Fprintf(w, "    Time blocked: %s\n", s.TotalWaited.Round(time.Millisecond))
			}
		}
	}
}
