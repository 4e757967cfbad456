package audit

import (
	"errors"
	"testing"

	kerrors "github.com/PolarWolf314/quill/internal/errors"
)

func sampleEntries() []Entry {
	return []Entry{
		{ID: "1", Timestamp: "2026-01-01T09:00:00.000000Z", UserID: "alice", Operation: OpSessionCreated},
		{ID: "2", Timestamp: "2026-01-02T10:00:00.000000Z", UserID: "alice", Operation: OpShare, EntryID: "e1", Recipient: "bob"},
		{ID: "3", Timestamp: "2026-01-03T11:00:00.000000Z", UserID: "bob", Operation: OpUnlocked},
		{ID: "4", Timestamp: "2026-01-04T12:00:00Z", UserID: "alice", Operation: OpCloudBackup, Status: "backed up"},
		{ID: "5", Timestamp: "not a time", UserID: "alice", Operation: OpLocked},
	}
}

func ids(entries []Entry) string {
	out := ""
	for _, e := range entries {
		out += e.ID
	}
	return out
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name  string
		query Query
		want  string
	}{
		{"no filters", Query{}, "12345"},
		{"by user", Query{UserID: "bob"}, "3"},
		{"by operations", Query{Operations: "share, CLOUD_BACKUP"}, "24"},
		{"since", Query{Since: "2026-01-03"}, "34"},
		{"until includes whole day", Query{Until: "2026-01-02"}, "12"},
		{"reverse", Query{Reverse: true}, "54321"},
		{"limit keeps most recent", Query{Limit: 2}, "45"},
		{"limit reversed keeps most recent", Query{Limit: 2, Reverse: true}, "54"},
		{"combined", Query{UserID: "alice", Since: "2026-01-02", Limit: 1}, "4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Filter(sampleEntries(), tt.query)
			if err != nil {
				t.Fatalf("Filter failed: %v", err)
			}
			if ids(got) != tt.want {
				t.Errorf("Expected entries %q, got %q", tt.want, ids(got))
			}
		})
	}
}

func TestFilter_ReverseDoesNotMutateInput(t *testing.T) {
	entries := sampleEntries()
	if _, err := Filter(entries, Query{Reverse: true}); err != nil {
		t.Fatalf("Filter failed: %v", err)
	}
	if ids(entries) != "12345" {
		t.Errorf("Input was reordered: %q", ids(entries))
	}
}

func TestFilter_InvalidDate(t *testing.T) {
	for _, q := range []Query{{Since: "01/02/2026"}, {Until: "yesterday"}} {
		if _, err := Filter(sampleEntries(), q); !errors.Is(err, kerrors.ErrInvalidDateFormat) {
			t.Errorf("Expected ErrInvalidDateFormat for %+v, got %v", q, err)
		}
	}
}

func TestFormatDateTime(t *testing.T) {
	if got := FormatDateTime("2026-01-02T10:11:12.123456Z"); got != "2026-01-02 10:11:12" {
		t.Errorf("Unexpected datetime: %q", got)
	}
	if got := FormatDate("2026-01-02T10:11:12Z"); got != "2026-01-02" {
		t.Errorf("Unexpected date: %q", got)
	}
	if got := FormatDate("bad"); got != "bad" {
		t.Errorf("Expected unparseable timestamp unchanged, got %q", got)
	}
}

func TestFormatDetails(t *testing.T) {
	share := Entry{Operation: OpShare, EntryID: "e1", Recipient: "bob"}
	if got := FormatDetails(share); got != "e1 -> bob" {
		t.Errorf("Unexpected share details: %q", got)
	}
	backup := Entry{Operation: OpCloudBackup, Status: "backed up"}
	if got := FormatDetails(backup); got != "backed up" {
		t.Errorf("Unexpected backup details: %q", got)
	}
	if got := FormatDetails(Entry{Operation: OpLocked}); got != "" {
		t.Errorf("Expected no details, got %q", got)
	}
}
