package keys

import (
	"encoding/base64"
	"fmt"

	kerrors "github.com/PolarWolf314/quill/internal/errors"
)

// EncodeKey returns the standard padded Base64 form of a key.
func EncodeKey(key *[KeySize]byte) string {
	return base64.StdEncoding.EncodeToString(key[:])
}

// DecodeKey parses a Base64 key and checks its length.
func DecodeKey(s string) (*[KeySize]byte, error) {
	raw, err := DecodeBytes(s)
	if err != nil {
		return nil, err
	}
	if len(raw) != KeySize {
		Zero(raw)
		return nil, fmt.Errorf("%w: expected %d bytes, got %d bytes", kerrors.ErrInvalidKeyLength, KeySize, len(raw))
	}

	key := new([KeySize]byte)
	copy(key[:], raw)
	Zero(raw)
	return key, nil
}

// EncodeBytes returns the standard padded Base64 form of b.
func EncodeBytes(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// DecodeBytes parses standard padded Base64, rejecting non-canonical input.
func DecodeBytes(s string) ([]byte, error) {
	raw, err := base64.StdEncoding.Strict().DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrInvalidEncoding, err)
	}
	return raw, nil
}

// DecodeNonce parses a Base64 nonce and checks its length.
func DecodeNonce(s string) (*[NonceSize]byte, error) {
	raw, err := DecodeBytes(s)
	if err != nil {
		return nil, err
	}
	if len(raw) != NonceSize {
		return nil, fmt.Errorf("%w: expected %d byte nonce, got %d bytes", kerrors.ErrInvalidKeyLength, NonceSize, len(raw))
	}

	nonce := new([NonceSize]byte)
	copy(nonce[:], raw)
	return nonce, nil
}

// IsBase64 reports whether s is canonical standard Base64 decoding to at least minLen bytes.
func IsBase64(s string, minLen int) bool {
	raw, err := DecodeBytes(s)
	if err != nil {
		return false
	}
	return len(raw) >= minLen
}
