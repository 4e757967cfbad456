// Package audit provides an audit trail for session and sharing operations.
//
// Session lifecycle events are recorded through SessionObserver; the
// encryption facade records shares, password changes, biometric changes and
// cloud backups directly. Entries never contain key material or plaintext.
//
// # Log Format
//
// The audit log is stored as JSON Lines (one JSON object per line), by
// default at:
//
//	$XDG_DATA_HOME/quill/audit.jsonl
//
// Each entry contains an ID, a UTC timestamp with microseconds, the user ID,
// the operation name and operation-specific details.
//
// # Failure Handling
//
// Audit logging is best-effort. If logging fails (permissions, disk full,
// etc.), the operation continues without error.
//
// # Reading Logs
//
// Use ReadEntries to parse the audit log for display. Malformed entries are
// silently skipped to handle partial writes.
package audit
