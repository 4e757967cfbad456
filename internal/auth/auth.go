package auth

import (
	"errors"
	"fmt"

	kerrors "github.com/PolarWolf314/quill/internal/errors"
	"github.com/PolarWolf314/quill/internal/keys"
	"github.com/PolarWolf314/quill/internal/keystore"
	logger "github.com/PolarWolf314/quill/internal/logging"
	"github.com/PolarWolf314/quill/internal/session"
)

// Options configures a Service.
type Options struct {
	Keys    *keys.Manager
	Store   keystore.Store
	Session *session.Manager
	Logger  logger.Logger
}

// Service implements signup, login, logout and password change.
type Service struct {
	keys    *keys.Manager
	store   keystore.Store
	session *session.Manager
	log     logger.Logger
}

func NewService(opts Options) *Service {
	return &Service{
		keys:    opts.Keys,
		store:   opts.Store,
		session: opts.Session,
		log:     opts.Logger,
	}
}

// GenerateUserKeys creates the identity key pair for a new account.
func (s *Service) GenerateUserKeys() (*keys.KeyPair, error) {
	return s.keys.GenerateUserKeys()
}

// CompleteSignup protects pair with password, persists the record and opens
// an unlocked session. Nothing is persisted and no session is created unless
// every check passes.
func (s *Service) CompleteSignup(userID string, pair *keys.KeyPair, password []byte) error {
	if userID == "" {
		return kerrors.ErrInvalidUserID
	}
	if err := ValidatePassword(password); err != nil {
		return err
	}
	if !keys.ValidateKeyPair(pair) {
		return kerrors.ErrInvalidKeyPair
	}

	stored, err := s.seal(userID, pair, password)
	if err != nil {
		return err
	}

	// Round-trip the record before committing it.
	reconstructed, err := session.Reconstruct(s.keys, stored, password)
	if err != nil {
		s.log.Errorf("Signup for %s failed reconstruction check: %v", userID, err)
		return kerrors.ErrIntegrityViolation
	}
	defer keys.ClearKeyPair(reconstructed)
	if *reconstructed.PublicKey != *pair.PublicKey {
		return kerrors.ErrIntegrityViolation
	}

	if err := s.store.Save(stored); err != nil {
		return fmt.Errorf("failed to persist keys for %s: %w", userID, err)
	}

	if err := s.session.Create(userID, reconstructed); err != nil {
		s.log.Errorf("Failed to create session after signup: %v", err)
		if clearErr := s.store.Clear(); clearErr != nil {
			s.log.Errorf("Failed to roll back stored keys: %v", clearErr)
		}
		return err
	}

	s.log.Infof("Signed up %s", userID)
	return nil
}

// Login decrypts the stored secret key and opens an unlocked session.
func (s *Service) Login(password []byte) error {
	stored, err := s.store.Load()
	if err != nil {
		if !errors.Is(err, kerrors.ErrKeyNotFound) {
			s.log.Errorf("Failed to load stored keys: %v", err)
		}
		return err
	}

	pair, err := session.Reconstruct(s.keys, stored, password)
	if err != nil {
		if errors.Is(err, kerrors.ErrIntegrityViolation) {
			s.log.WarnfAlways("Stored keys for %s failed validation", stored.UserID)
			s.session.Logout()
		}
		return err
	}
	defer keys.ClearKeyPair(pair)

	if err := s.session.Create(stored.UserID, pair); err != nil {
		return err
	}

	s.log.Infof("Logged in %s", stored.UserID)
	return nil
}

// ChangePassword re-encrypts the secret key under next. current must decrypt
// the stored key. Biometric fields are dropped because the password they
// protect is no longer valid.
func (s *Service) ChangePassword(current, next []byte) error {
	if err := ValidatePasswordChange(current, next); err != nil {
		return err
	}

	stored, err := s.store.Load()
	if err != nil {
		return err
	}

	pair, err := session.Reconstruct(s.keys, stored, current)
	if err != nil {
		return err
	}
	defer keys.ClearKeyPair(pair)

	updated, err := s.seal(stored.UserID, pair, next)
	if err != nil {
		return err
	}
	if stored.BiometricEnabled {
		s.log.WarnfAlways("Biometric login was disabled by the password change; enable it again to keep using it")
	}

	check, err := session.Reconstruct(s.keys, updated, next)
	if err != nil {
		return kerrors.ErrIntegrityViolation
	}
	keys.ClearKeyPair(check)

	if err := s.store.Save(updated); err != nil {
		return fmt.Errorf("failed to persist re-encrypted keys: %w", err)
	}

	if s.session.IsUnlocked() && !s.session.Validate() {
		return kerrors.ErrIntegrityViolation
	}

	s.log.Infof("Changed password for %s", stored.UserID)
	return nil
}

// Logout drops the session. Stored keys are kept.
func (s *Service) Logout() {
	s.session.Logout()
}

func (s *Service) HasStoredKeys() bool {
	return s.store.Exists()
}

// ClearStoredKeys deletes the local key record and logs out. Without a cloud
// backup the identity is unrecoverable.
func (s *Service) ClearStoredKeys() error {
	s.session.Logout()
	if err := s.store.Clear(); err != nil {
		return err
	}
	s.log.Infof("Cleared stored keys")
	return nil
}

// StoredKeys returns the persisted record.
func (s *Service) StoredKeys() (*keystore.StoredKeys, error) {
	return s.store.Load()
}

func (s *Service) seal(userID string, pair *keys.KeyPair, password []byte) (*keystore.StoredKeys, error) {
	encrypted, err := s.keys.EncryptSecretKey(pair.SecretKey, password)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt secret key: %w", err)
	}
	return &keystore.StoredKeys{
		UserID:                userID,
		PublicKeyB64:          keys.EncodeKey(pair.PublicKey),
		EncryptedSecretKeyB64: keys.EncodeBytes(encrypted),
	}, nil
}
