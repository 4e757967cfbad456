package entries

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Entry is the plaintext journal entry. The crypto layer only needs it to be serializable.
// Members without a field of their own are kept in Extra and written back unchanged.
type Entry struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Preview string   `json:"preview,omitempty"`
	Mood    string   `json:"mood,omitempty"`
	Tags    []string `json:"tags,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// entryFields are the JSON names decoded into Entry's own fields.
var entryFields = []string{"title", "content", "preview", "mood", "tags"}

// entryJSON has Entry's fields without its methods.
type entryJSON Entry

func (e Entry) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(entryJSON(e))
	if err != nil || len(e.Extra) == 0 {
		return known, err
	}

	members := make(map[string]json.RawMessage, len(e.Extra)+len(entryFields))
	for name, value := range e.Extra {
		if !isEntryField(name) {
			members[name] = value
		}
	}
	if err := json.Unmarshal(known, &members); err != nil {
		return nil, err
	}
	return json.Marshal(members)
}

func (e *Entry) UnmarshalJSON(data []byte) error {
	var known entryJSON
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}
	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil {
		return err
	}

	known.Extra = nil
	for name, value := range members {
		if isEntryField(name) {
			continue
		}
		if known.Extra == nil {
			known.Extra = make(map[string]json.RawMessage)
		}
		known.Extra[name] = value
	}
	*e = Entry(known)
	return nil
}

// isEntryField matches the way encoding/json pairs names with fields, ignoring case.
func isEntryField(name string) bool {
	for _, field := range entryFields {
		if strings.EqualFold(name, field) {
			return true
		}
	}
	return false
}

// EncryptedData is the envelope persisted for one entry and one recipient.
type EncryptedData struct {
	EncryptedContentB64  string `json:"encryptedContentB64"`
	ContentNonceB64      string `json:"contentNonceB64"`
	EncryptedEntryKeyB64 string `json:"encryptedEntryKeyB64"`
	KeyNonceB64          string `json:"keyNonceB64"`
}

// WrappedKey is an entry key wrapped for a single recipient.
type WrappedKey struct {
	EncryptedEntryKeyB64 string `json:"encryptedEntryKeyB64"`
	KeyNonceB64          string `json:"keyNonceB64"`
}

// WithKey returns a copy of d that carries a different key wrapping.
func (d EncryptedData) WithKey(k WrappedKey) EncryptedData {
	d.EncryptedEntryKeyB64 = k.EncryptedEntryKeyB64
	d.KeyNonceB64 = k.KeyNonceB64
	return d
}

// Key returns the key wrapping fields of d.
func (d EncryptedData) Key() WrappedKey {
	return WrappedKey{EncryptedEntryKeyB64: d.EncryptedEntryKeyB64, KeyNonceB64: d.KeyNonceB64}
}

func marshalEntry(entry *Entry) ([]byte, error) {
	if entry == nil {
		return nil, fmt.Errorf("entry must not be nil")
	}
	return json.Marshal(entry)
}

func unmarshalEntry(data []byte) (*Entry, error) {
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}
