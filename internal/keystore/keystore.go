package keystore

import (
	"fmt"

	kerrors "github.com/PolarWolf314/quill/internal/errors"
	"github.com/PolarWolf314/quill/internal/keys"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// StoredKeys is the persisted key record for one user.
// EncryptedSecretKeyB64 is only meaningful together with the user's password.
type StoredKeys struct {
	UserID                string `json:"userId" validate:"required"`
	PublicKeyB64          string `json:"publicKeyB64" validate:"required,base64"`
	EncryptedSecretKeyB64 string `json:"encryptedSecretKeyB64" validate:"required,base64"`
	BiometricEnabled      bool   `json:"biometricEnabled,omitempty"`
	EncryptedPasswordB64  string `json:"encryptedPasswordB64,omitempty" validate:"omitempty,base64"`
}

// Validate checks the record shape and the decoded sizes of its key fields.
func (s *StoredKeys) Validate() error {
	if s == nil {
		return kerrors.ErrInvalidStoredKeys
	}
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%w: %v", kerrors.ErrInvalidStoredKeys, err)
	}
	if _, err := keys.DecodeKey(s.PublicKeyB64); err != nil {
		return fmt.Errorf("%w: public key: %v", kerrors.ErrInvalidStoredKeys, err)
	}
	if !keys.IsBase64(s.EncryptedSecretKeyB64, keys.MinEncryptedSecretKeySize) {
		return fmt.Errorf("%w: encrypted secret key is too short", kerrors.ErrInvalidStoredKeys)
	}
	if s.BiometricEnabled && s.EncryptedPasswordB64 == "" {
		return fmt.Errorf("%w: biometric enabled without an encrypted password", kerrors.ErrInvalidStoredKeys)
	}
	return nil
}

// WithoutBiometric returns a copy with the biometric fields stripped.
func (s StoredKeys) WithoutBiometric() StoredKeys {
	s.BiometricEnabled = false
	s.EncryptedPasswordB64 = ""
	return s
}

// Store persists a single StoredKeys record.
type Store interface {
	// Load returns the record, or ErrKeyNotFound when none exists.
	Load() (*StoredKeys, error)
	// Save validates and replaces the record.
	Save(keys *StoredKeys) error
	// Exists reports whether a record is present.
	Exists() bool
	// Clear removes the record. Clearing an empty store is not an error.
	Clear() error
}
