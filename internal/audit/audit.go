package audit

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/PolarWolf314/quill/internal/session"

	"github.com/google/uuid"
)

// Operation names recorded in the audit log.
const (
	OpSessionCreated   = "session_created"
	OpSessionRestored  = "session_restored"
	OpLocked           = "locked"
	OpUnlocked         = "unlocked"
	OpLoggedOut        = "logged_out"
	OpShare            = "share"
	OpPasswordChange   = "password_change"
	OpBiometricEnable  = "biometric_enable"
	OpBiometricDisable = "biometric_disable"
	OpCloudBackup      = "cloud_backup"
	OpCloudRestore     = "cloud_restore"
	OpCloudDelete      = "cloud_delete"
	OpKeysCleared      = "keys_cleared"
)

// Entry represents a single audit log entry. It never carries key material.
type Entry struct {
	ID        string `json:"id"`
	Timestamp string `json:"ts"` // RFC3339 with microseconds.
	UserID    string `json:"user_id,omitempty"`
	Operation string `json:"op"`

	// Optional fields depending on operation.
	EntryID   string `json:"entry_id,omitempty"`  // For share.
	Recipient string `json:"recipient,omitempty"` // For share.
	Status    string `json:"status,omitempty"`    // For cloud sync.
}

// Log appends entries to a JSON Lines file. A nil *Log records nothing.
type Log struct {
	path string
	mu   sync.Mutex
}

func NewLog(path string) *Log {
	return &Log{path: path}
}

// Path returns the path to the audit log file.
func (l *Log) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Record appends an entry. Recording is best effort; operations never fail
// because the audit log could not be written.
func (l *Log) Record(entry Entry) {
	if l == nil || l.path == "" {
		return
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp == "" {
		entry.Timestamp = time.Now().UTC().Format("2006-01-02T15:04:05.000000Z")
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0700); err != nil {
		return
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return
	}
	defer f.Close()

	_, _ = f.Write(append(data, '\n'))
}

// ReadEntries reads all entries from the audit log.
// Returns an empty slice if the log doesn't exist.
func (l *Log) ReadEntries() ([]Entry, error) {
	if l.Path() == "" {
		return nil, nil
	}

	data, err := os.ReadFile(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return ParseEntries(data)
}

// ParseEntries parses JSON Lines data into audit entries.
// Malformed lines are silently skipped.
func ParseEntries(data []byte) ([]Entry, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var entries []Entry
	start := 0

	for i := 0; i <= len(data); i++ {
		if i == len(data) || data[i] == '\n' {
			line := data[start:i]
			start = i + 1

			if len(line) == 0 {
				continue
			}

			var entry Entry
			if err := json.Unmarshal(line, &entry); err != nil {
				// Partial writes.
				continue
			}
			entries = append(entries, entry)
		}
	}

	return entries, nil
}

// SessionObserver returns a session observer that records lifecycle events.
func (l *Log) SessionObserver() func(session.Event) {
	return func(e session.Event) {
		if op := sessionOperation(e); op != "" {
			l.Record(Entry{UserID: e.UserID, Operation: op})
		}
	}
}

func sessionOperation(e session.Event) string {
	switch e.To {
	case session.Unlocked:
		if e.From == session.Locked {
			return OpUnlocked
		}
		return OpSessionCreated
	case session.Locked:
		if e.From == session.NoSession {
			return OpSessionRestored
		}
		return OpLocked
	case session.NoSession:
		return OpLoggedOut
	}
	return ""
}
