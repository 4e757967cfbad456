package biometric

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	kerrors "github.com/PolarWolf314/quill/internal/errors"
	"github.com/PolarWolf314/quill/internal/keys"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/nacl/secretbox"
)

const blobInfo = "quill biometric password v1"

// minBlobSize is salt, nonce and the secretbox tag around a non-empty password.
const minBlobSize = keys.SaltSize + keys.NonceSize + secretbox.Overhead + 1

// sealPassword encrypts password under a key derived from authData.
// Layout: salt(16) || nonce(24) || secretbox(password).
func sealPassword(authData, password []byte) ([]byte, error) {
	var salt [keys.SaltSize]byte
	if _, err := io.ReadFull(rand.Reader, salt[:]); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	var nonce [keys.NonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	key, err := blobKey(authData, salt[:])
	if err != nil {
		return nil, err
	}
	defer keys.ClearKey(key)

	out := make([]byte, 0, keys.SaltSize+keys.NonceSize+secretbox.Overhead+len(password))
	out = append(out, salt[:]...)
	out = append(out, nonce[:]...)
	return secretbox.Seal(out, password, &nonce, key), nil
}

func openPassword(authData, blob []byte) ([]byte, bool) {
	if len(blob) < minBlobSize {
		return nil, false
	}
	salt := blob[:keys.SaltSize]
	var nonce [keys.NonceSize]byte
	copy(nonce[:], blob[keys.SaltSize:keys.SaltSize+keys.NonceSize])

	key, err := blobKey(authData, salt)
	if err != nil {
		return nil, false
	}
	defer keys.ClearKey(key)

	return secretbox.Open(nil, blob[keys.SaltSize+keys.NonceSize:], &nonce, key)
}

func blobKey(authData, salt []byte) (*[keys.KeySize]byte, error) {
	if len(authData) == 0 {
		return nil, kerrors.ErrBiometricFailed
	}
	key := new([keys.KeySize]byte)
	if _, err := io.ReadFull(hkdf.New(sha256.New, authData, salt, []byte(blobInfo)), key[:]); err != nil {
		return nil, fmt.Errorf("failed to derive biometric key: %w", err)
	}
	return key, nil
}
