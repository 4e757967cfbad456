package audit

import (
	"fmt"
	"strings"
	"time"

	kerrors "github.com/PolarWolf314/quill/internal/errors"
)

const (
	timestampLayout = "2006-01-02T15:04:05.000000Z"
	dateLayout      = "2006-01-02"
)

// Query selects and orders audit entries.
type Query struct {
	// Limit is the maximum number of entries to return. 0 means no limit.
	Limit int

	// Reverse orders entries from most recent to oldest when true.
	Reverse bool

	// UserID filters entries by user id.
	UserID string

	// Operations filters entries by operation name (comma-separated).
	Operations string

	// Since keeps entries on or after this date (YYYY-MM-DD).
	Since string

	// Until keeps entries on or before this date (YYYY-MM-DD).
	Until string
}

// Filter applies q to entries. The most recent entries are kept when a limit
// applies, whatever the order.
//
// Returns ErrInvalidDateFormat if Since or Until is not YYYY-MM-DD.
func Filter(entries []Entry, q Query) ([]Entry, error) {
	filtered := entries

	if q.UserID != "" {
		filtered = keep(filtered, func(e Entry) bool { return e.UserID == q.UserID })
	}

	if q.Operations != "" {
		ops := make(map[string]bool)
		for _, op := range strings.Split(q.Operations, ",") {
			ops[strings.ToLower(strings.TrimSpace(op))] = true
		}
		filtered = keep(filtered, func(e Entry) bool { return ops[strings.ToLower(e.Operation)] })
	}

	if q.Since != "" {
		since, err := time.Parse(dateLayout, q.Since)
		if err != nil {
			return nil, fmt.Errorf("%w: --since must be YYYY-MM-DD", kerrors.ErrInvalidDateFormat)
		}
		filtered = keep(filtered, func(e Entry) bool {
			t, ok := parseTimestamp(e.Timestamp)
			return ok && !t.Before(since)
		})
	}

	if q.Until != "" {
		until, err := time.Parse(dateLayout, q.Until)
		if err != nil {
			return nil, fmt.Errorf("%w: --until must be YYYY-MM-DD", kerrors.ErrInvalidDateFormat)
		}
		// The whole day is included.
		until = until.Add(24*time.Hour - time.Nanosecond)
		filtered = keep(filtered, func(e Entry) bool {
			t, ok := parseTimestamp(e.Timestamp)
			return ok && !t.After(until)
		})
	}

	if q.Reverse {
		reversed := make([]Entry, len(filtered))
		for i, e := range filtered {
			reversed[len(filtered)-1-i] = e
		}
		filtered = reversed
	}

	if q.Limit > 0 && len(filtered) > q.Limit {
		if q.Reverse {
			filtered = filtered[:q.Limit]
		} else {
			filtered = filtered[len(filtered)-q.Limit:]
		}
	}

	return filtered, nil
}

func keep(entries []Entry, match func(Entry) bool) []Entry {
	var result []Entry
	for _, e := range entries {
		if match(e) {
			result = append(result, e)
		}
	}
	return result
}

func parseTimestamp(ts string) (time.Time, bool) {
	t, err := time.Parse(timestampLayout, ts)
	if err != nil {
		t, err = time.Parse(time.RFC3339, ts)
	}
	return t, err == nil
}

// FormatDate formats a timestamp as YYYY-MM-DD.
func FormatDate(ts string) string {
	t, ok := parseTimestamp(ts)
	if !ok {
		if len(ts) >= 10 {
			return ts[:10]
		}
		return ts
	}
	return t.Format(dateLayout)
}

// FormatDateTime formats a timestamp as YYYY-MM-DD HH:MM:SS.
func FormatDateTime(ts string) string {
	t, ok := parseTimestamp(ts)
	if !ok {
		if len(ts) >= 19 {
			return ts[:19]
		}
		return ts
	}
	return t.Format("2006-01-02 15:04:05")
}

// FormatDetails describes the operation-specific fields of e.
func FormatDetails(e Entry) string {
	switch e.Operation {
	case OpShare:
		if e.EntryID == "" {
			return e.Recipient
		}
		return fmt.Sprintf("%s -> %s", e.EntryID, e.Recipient)
	case OpCloudBackup, OpCloudRestore:
		return e.Status
	default:
		return ""
	}
}
