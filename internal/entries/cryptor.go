package entries

import (
	"crypto/rand"
	"fmt"
	"io"

	kerrors "github.com/PolarWolf314/quill/internal/errors"
	"github.com/PolarWolf314/quill/internal/keys"

	"golang.org/x/crypto/nacl/box"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	// WrappedKeySize is the size of an entry key sealed with box.
	WrappedKeySize = keys.KeySize + box.Overhead
	// MinContentSize is the smallest plausible sealed entry.
	MinContentSize = secretbox.Overhead + 2
)

// Cryptor performs envelope encryption of journal entries.
type Cryptor struct {
	rand io.Reader
}

// NewCryptor returns a Cryptor reading randomness from crypto/rand.
func NewCryptor() *Cryptor {
	return &Cryptor{rand: rand.Reader}
}

// EncryptEntry seals entry under a fresh entry key and wraps that key to the owner.
func (c *Cryptor) EncryptEntry(entry *Entry, owner *keys.KeyPair) (*EncryptedData, error) {
	if owner == nil || owner.PublicKey == nil || owner.SecretKey == nil {
		return nil, kerrors.ErrInvalidKeyPair
	}

	entryKey, err := c.newEntryKey()
	if err != nil {
		return nil, err
	}
	defer keys.ClearKey(entryKey)

	content, contentNonce, err := c.sealContent(entry, entryKey)
	if err != nil {
		return nil, err
	}

	wrapped, keyNonce, err := c.wrapKey(entryKey, owner.PublicKey, owner.SecretKey)
	if err != nil {
		return nil, err
	}

	return &EncryptedData{
		EncryptedContentB64:  keys.EncodeBytes(content),
		ContentNonceB64:      keys.EncodeBytes(contentNonce[:]),
		EncryptedEntryKeyB64: keys.EncodeBytes(wrapped),
		KeyNonceB64:          keys.EncodeBytes(keyNonce[:]),
	}, nil
}

// DecryptEntry unwraps the entry key with the recipient's secret key and the
// author's public key, then opens the content. Any authentication failure
// reports false.
func (c *Cryptor) DecryptEntry(data *EncryptedData, recipientSecret, authorPublic *[keys.KeySize]byte) (*Entry, bool) {
	if !ValidateEncryptedData(data) || recipientSecret == nil || authorPublic == nil {
		return nil, false
	}

	entryKey, err := c.unwrapKey(data.Key(), authorPublic, recipientSecret)
	if err != nil {
		return nil, false
	}
	defer keys.ClearKey(entryKey)

	entry, err := c.openContent(data, entryKey)
	if err != nil {
		return nil, false
	}
	return entry, true
}

// RewrapEntryKey unwraps an entry key the owner wrapped to themselves and
// wraps the same key to recipient with a fresh nonce. Content is untouched.
func (c *Cryptor) RewrapEntryKey(encryptedEntryKeyB64, keyNonceB64 string, owner *keys.KeyPair, recipient *[keys.KeySize]byte) (*WrappedKey, error) {
	if owner == nil || owner.PublicKey == nil || owner.SecretKey == nil {
		return nil, kerrors.ErrInvalidKeyPair
	}
	if recipient == nil {
		return nil, fmt.Errorf("recipient public key: %w", kerrors.ErrInvalidKeyPair)
	}

	entryKey, err := c.unwrapKey(WrappedKey{EncryptedEntryKeyB64: encryptedEntryKeyB64, KeyNonceB64: keyNonceB64}, owner.PublicKey, owner.SecretKey)
	if err != nil {
		return nil, err
	}
	defer keys.ClearKey(entryKey)

	wrapped, nonce, err := c.wrapKey(entryKey, recipient, owner.SecretKey)
	if err != nil {
		return nil, err
	}

	return &WrappedKey{
		EncryptedEntryKeyB64: keys.EncodeBytes(wrapped),
		KeyNonceB64:          keys.EncodeBytes(nonce[:]),
	}, nil
}

// EncryptWithExistingKey re-seals updated content under the entry key already
// wrapped in existing. The key wrapping fields are returned unchanged so other
// recipients keep access; only the content nonce is new.
func (c *Cryptor) EncryptWithExistingKey(entry *Entry, existing *EncryptedData, recipientSecret, authorPublic *[keys.KeySize]byte) (*EncryptedData, error) {
	if existing == nil {
		return nil, kerrors.ErrInvalidEntryData
	}
	if recipientSecret == nil || authorPublic == nil {
		return nil, kerrors.ErrInvalidKeyPair
	}

	entryKey, err := c.unwrapKey(existing.Key(), authorPublic, recipientSecret)
	if err != nil {
		return nil, err
	}
	defer keys.ClearKey(entryKey)

	content, nonce, err := c.sealContent(entry, entryKey)
	if err != nil {
		return nil, err
	}

	return &EncryptedData{
		EncryptedContentB64:  keys.EncodeBytes(content),
		ContentNonceB64:      keys.EncodeBytes(nonce[:]),
		EncryptedEntryKeyB64: existing.EncryptedEntryKeyB64,
		KeyNonceB64:          existing.KeyNonceB64,
	}, nil
}

func (c *Cryptor) newEntryKey() (*[keys.KeySize]byte, error) {
	key := new([keys.KeySize]byte)
	if _, err := io.ReadFull(c.rand, key[:]); err != nil {
		return nil, fmt.Errorf("failed to generate entry key: %w", err)
	}
	return key, nil
}

func (c *Cryptor) newNonce() (*[keys.NonceSize]byte, error) {
	nonce := new([keys.NonceSize]byte)
	if _, err := io.ReadFull(c.rand, nonce[:]); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return nonce, nil
}

func (c *Cryptor) sealContent(entry *Entry, entryKey *[keys.KeySize]byte) ([]byte, *[keys.NonceSize]byte, error) {
	plaintext, err := marshalEntry(entry)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to serialize entry: %w", err)
	}
	defer keys.Zero(plaintext)

	nonce, err := c.newNonce()
	if err != nil {
		return nil, nil, err
	}
	return secretbox.Seal(nil, plaintext, nonce, entryKey), nonce, nil
}

func (c *Cryptor) openContent(data *EncryptedData, entryKey *[keys.KeySize]byte) (*Entry, error) {
	ciphertext, err := keys.DecodeBytes(data.EncryptedContentB64)
	if err != nil {
		return nil, err
	}
	nonce, err := keys.DecodeNonce(data.ContentNonceB64)
	if err != nil {
		return nil, err
	}

	plaintext, ok := secretbox.Open(nil, ciphertext, nonce, entryKey)
	if !ok {
		return nil, fmt.Errorf("entry content: %w", kerrors.ErrDecryptFailed)
	}
	defer keys.Zero(plaintext)

	entry, err := unmarshalEntry(plaintext)
	if err != nil {
		return nil, fmt.Errorf("failed to parse entry: %w", err)
	}
	return entry, nil
}

func (c *Cryptor) wrapKey(entryKey, recipient, sender *[keys.KeySize]byte) ([]byte, *[keys.NonceSize]byte, error) {
	nonce, err := c.newNonce()
	if err != nil {
		return nil, nil, err
	}
	return box.Seal(nil, entryKey[:], nonce, recipient, sender), nonce, nil
}

// unwrapKey opens a wrapped entry key. peer is the other party of the box:
// the author when reading, the owner itself when the key was self-wrapped.
func (c *Cryptor) unwrapKey(k WrappedKey, peer, secret *[keys.KeySize]byte) (*[keys.KeySize]byte, error) {
	wrapped, err := keys.DecodeBytes(k.EncryptedEntryKeyB64)
	if err != nil {
		return nil, err
	}
	if len(wrapped) != WrappedKeySize {
		return nil, fmt.Errorf("%w: wrapped entry key is %d bytes", kerrors.ErrInvalidKeyLength, len(wrapped))
	}
	nonce, err := keys.DecodeNonce(k.KeyNonceB64)
	if err != nil {
		return nil, err
	}

	raw, ok := box.Open(nil, wrapped, nonce, peer, secret)
	if !ok {
		return nil, fmt.Errorf("entry key: %w", kerrors.ErrDecryptFailed)
	}

	entryKey := new([keys.KeySize]byte)
	copy(entryKey[:], raw)
	keys.Zero(raw)
	return entryKey, nil
}
