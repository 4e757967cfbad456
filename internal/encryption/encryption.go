package encryption

import (
	"context"
	"errors"
	"fmt"

	"github.com/PolarWolf314/quill/internal/audit"
	"github.com/PolarWolf314/quill/internal/auth"
	"github.com/PolarWolf314/quill/internal/biometric"
	"github.com/PolarWolf314/quill/internal/cloudsync"
	"github.com/PolarWolf314/quill/internal/entries"
	kerrors "github.com/PolarWolf314/quill/internal/errors"
	"github.com/PolarWolf314/quill/internal/keys"
	logger "github.com/PolarWolf314/quill/internal/logging"
	"github.com/PolarWolf314/quill/internal/session"
)

// AccessKey is the sharing record for one recipient of one entry.
// Persisting it is the caller's job.
type AccessKey struct {
	EntryID              string `json:"entryId"`
	UserID               string `json:"userId"`
	EncryptedEntryKeyB64 string `json:"encryptedEntryKeyB64"`
	KeyNonceB64          string `json:"keyNonceB64"`
}

// Options wires a Service. Biometric, Cloud and Audit are optional.
type Options struct {
	Session   *session.Manager
	Auth      *auth.Service
	Biometric *biometric.Service
	Cloud     *cloudsync.Service
	Cryptor   *entries.Cryptor
	Audit     *audit.Log
	Logger    logger.Logger
}

// Service is the single entry point for entry encryption. Every encrypt and
// decrypt path goes through the session and refuses unless it is unlocked.
type Service struct {
	session   *session.Manager
	auth      *auth.Service
	biometric *biometric.Service
	cloud     *cloudsync.Service
	cryptor   *entries.Cryptor
	audit     *audit.Log
	log       logger.Logger
}

func New(opts Options) *Service {
	cryptor := opts.Cryptor
	if cryptor == nil {
		cryptor = entries.NewCryptor()
	}
	return &Service{
		session:   opts.Session,
		auth:      opts.Auth,
		biometric: opts.Biometric,
		cloud:     opts.Cloud,
		cryptor:   cryptor,
		audit:     opts.Audit,
		log:       opts.Logger,
	}
}

// EncryptEntry seals entry for the current user.
func (s *Service) EncryptEntry(entry *entries.Entry) (*entries.EncryptedData, error) {
	var out *entries.EncryptedData
	err := s.session.WithKeyPair(func(pair *keys.KeyPair) error {
		var err error
		out, err = s.cryptor.EncryptEntry(entry, pair)
		return err
	})
	if err != nil {
		s.log.Debugf("EncryptEntry refused: %v", err)
		return nil, err
	}
	return out, nil
}

// DecryptEntry opens data with the current user's secret key. An empty
// authorPublicKeyB64 means the entry was written by the current user.
// Authentication failures return ErrDecryptFailed.
func (s *Service) DecryptEntry(data *entries.EncryptedData, authorPublicKeyB64 string) (*entries.Entry, error) {
	var out *entries.Entry
	err := s.session.WithKeyPair(func(pair *keys.KeyPair) error {
		author, err := s.authorKey(pair, authorPublicKeyB64)
		if err != nil {
			return err
		}
		entry, ok := s.cryptor.DecryptEntry(data, pair.SecretKey, author)
		if !ok {
			return kerrors.ErrDecryptFailed
		}
		out = entry
		return nil
	})
	if err != nil {
		s.log.Debugf("DecryptEntry failed: %v", err)
		return nil, err
	}
	return out, nil
}

// EncryptEntryWithExistingKey re-seals updated content under the entry key in
// existing, keeping every recipient's key wrapping valid.
func (s *Service) EncryptEntryWithExistingKey(entry *entries.Entry, existing *entries.EncryptedData, authorPublicKeyB64 string) (*entries.EncryptedData, error) {
	var out *entries.EncryptedData
	err := s.session.WithKeyPair(func(pair *keys.KeyPair) error {
		author, err := s.authorKey(pair, authorPublicKeyB64)
		if err != nil {
			return err
		}
		out, err = s.cryptor.EncryptWithExistingKey(entry, existing, pair.SecretKey, author)
		return err
	})
	if err != nil {
		s.log.Debugf("EncryptEntryWithExistingKey failed: %v", err)
		return nil, err
	}
	return out, nil
}

// RewrapEntryKeyForUser wraps the entry key of an entry the current user owns
// to recipientPublicKeyB64.
func (s *Service) RewrapEntryKeyForUser(encryptedEntryKeyB64, keyNonceB64, recipientPublicKeyB64 string) (*entries.WrappedKey, error) {
	var out *entries.WrappedKey
	err := s.session.WithKeyPair(func(pair *keys.KeyPair) error {
		recipient, err := keys.DecodeKey(recipientPublicKeyB64)
		if err != nil {
			return fmt.Errorf("recipient public key: %w", err)
		}
		out, err = s.cryptor.RewrapEntryKey(encryptedEntryKeyB64, keyNonceB64, pair, recipient)
		return err
	})
	if err != nil {
		s.log.Debugf("RewrapEntryKeyForUser failed: %v", err)
		return nil, err
	}
	return out, nil
}

// ShareEntry builds the access-key record granting recipientUserID access to
// the entry described by data.
func (s *Service) ShareEntry(entryID string, data *entries.EncryptedData, recipientUserID, recipientPublicKeyB64 string) (*AccessKey, error) {
	if entryID == "" || data == nil {
		return nil, kerrors.ErrInvalidEntryData
	}
	if recipientUserID == "" {
		return nil, kerrors.ErrInvalidUserID
	}

	wrapped, err := s.RewrapEntryKeyForUser(data.EncryptedEntryKeyB64, data.KeyNonceB64, recipientPublicKeyB64)
	if err != nil {
		return nil, err
	}

	s.audit.Record(audit.Entry{
		UserID:    s.session.UserID(),
		Operation: audit.OpShare,
		EntryID:   entryID,
		Recipient: recipientUserID,
	})
	return &AccessKey{
		EntryID:              entryID,
		UserID:               recipientUserID,
		EncryptedEntryKeyB64: wrapped.EncryptedEntryKeyB64,
		KeyNonceB64:          wrapped.KeyNonceB64,
	}, nil
}

// GenerateHashes returns the indexing digests for entry. It needs no session.
func (s *Service) GenerateHashes(entry *entries.Entry) entries.Hashes {
	return entries.GenerateHashes(entry)
}

func (s *Service) authorKey(pair *keys.KeyPair, authorPublicKeyB64 string) (*[keys.KeySize]byte, error) {
	if authorPublicKeyB64 == "" {
		return pair.PublicKey, nil
	}
	author, err := keys.DecodeKey(authorPublicKeyB64)
	if err != nil {
		return nil, fmt.Errorf("author public key: %w", err)
	}
	return author, nil
}

// Session

// RestoreSession moves to Locked when keys are stored locally.
func (s *Service) RestoreSession() error {
	return s.session.Restore()
}

func (s *Service) State() session.State {
	return s.session.State()
}

func (s *Service) IsUnlocked() bool {
	return s.session.IsUnlocked()
}

func (s *Service) CurrentUserID() string {
	return s.session.UserID()
}

// CurrentPublicKey returns the session's public key in Base64, or "".
func (s *Service) CurrentPublicKey() string {
	return s.session.PublicKeyB64()
}

func (s *Service) LockSession() {
	s.session.Lock()
}

func (s *Service) UnlockSession(password []byte) error {
	return s.session.Unlock(password)
}

func (s *Service) ValidateSession() bool {
	return s.session.Validate()
}

// Subscribe registers an observer for session state changes.
func (s *Service) Subscribe(fn func(session.Event)) func() {
	return s.session.Subscribe(fn)
}

// Auth

func (s *Service) GenerateUserKeys() (*keys.KeyPair, error) {
	return s.auth.GenerateUserKeys()
}

func (s *Service) CompleteSignup(userID string, pair *keys.KeyPair, password []byte) error {
	return s.auth.CompleteSignup(userID, pair, password)
}

// Signup generates a key pair for userID and completes signup with it.
func (s *Service) Signup(userID string, password []byte) error {
	if err := auth.ValidatePassword(password); err != nil {
		return err
	}
	pair, err := s.auth.GenerateUserKeys()
	if err != nil {
		return err
	}
	defer keys.ClearKeyPair(pair)
	return s.auth.CompleteSignup(userID, pair, password)
}

func (s *Service) Login(password []byte) error {
	return s.auth.Login(password)
}

// ChangePassword re-encrypts the secret key under next. A biometric
// credential protecting the old password is removed.
func (s *Service) ChangePassword(ctx context.Context, current, next []byte) error {
	hadBiometric := s.biometric != nil && s.biometric.IsEnabled()

	if err := s.auth.ChangePassword(current, next); err != nil {
		return err
	}
	userID := s.session.UserID()
	s.audit.Record(audit.Entry{UserID: userID, Operation: audit.OpPasswordChange})

	if hadBiometric {
		if err := s.biometric.Disable(ctx); err != nil {
			s.log.Warnf("Failed to remove the stale biometric credential: %v", err)
		} else {
			s.audit.Record(audit.Entry{UserID: userID, Operation: audit.OpBiometricDisable})
		}
	}
	return nil
}

func (s *Service) Logout() {
	s.auth.Logout()
}

func (s *Service) HasStoredKeys() bool {
	return s.auth.HasStoredKeys()
}

// ClearStoredKeys removes the local identity. This cannot be undone without
// a cloud backup.
func (s *Service) ClearStoredKeys(ctx context.Context) error {
	userID := s.session.UserID()
	if stored, err := s.auth.StoredKeys(); err == nil {
		userID = stored.UserID
		if stored.BiometricEnabled && s.biometric != nil {
			if err := s.biometric.Disable(ctx); err != nil {
				s.log.Warnf("Failed to remove biometric credential: %v", err)
			}
		}
	}
	if err := s.auth.ClearStoredKeys(); err != nil {
		return err
	}
	s.audit.Record(audit.Entry{UserID: userID, Operation: audit.OpKeysCleared})
	return nil
}

// Biometric

func (s *Service) IsBiometricAvailable(ctx context.Context) bool {
	return s.biometric != nil && s.biometric.IsAvailable(ctx)
}

func (s *Service) IsBiometricEnabled() bool {
	return s.biometric != nil && s.biometric.IsEnabled()
}

func (s *Service) EnableBiometric(ctx context.Context, password []byte) error {
	if s.biometric == nil {
		return kerrors.ErrBiometricUnavailable
	}
	if err := auth.ValidatePassword(password); err != nil {
		return err
	}
	if err := s.biometric.Enable(ctx, password); err != nil {
		return err
	}
	s.audit.Record(audit.Entry{UserID: s.session.UserID(), Operation: audit.OpBiometricEnable})
	return nil
}

func (s *Service) LoginWithBiometric(ctx context.Context) error {
	if s.biometric == nil {
		return kerrors.ErrBiometricUnavailable
	}
	return s.biometric.Login(ctx)
}

func (s *Service) DisableBiometric(ctx context.Context) error {
	if s.biometric == nil {
		return kerrors.ErrBiometricUnavailable
	}
	if err := s.biometric.Disable(ctx); err != nil {
		return err
	}
	s.audit.Record(audit.Entry{UserID: s.userIDForAudit(), Operation: audit.OpBiometricDisable})
	return nil
}

// Cloud sync

func (s *Service) HasCloudEncryptionKeys(ctx context.Context, userID string) (bool, error) {
	if s.cloud == nil {
		return false, kerrors.ErrBackendNotConfigured
	}
	return s.cloud.HasCloudEncryptionKeys(ctx, userID)
}

// BackupKeysToCloud backs up the current session's key pair. The session
// must be unlocked.
func (s *Service) BackupKeysToCloud(ctx context.Context, password []byte) error {
	if s.cloud == nil {
		return kerrors.ErrBackendNotConfigured
	}

	var pair *keys.KeyPair
	if err := s.session.WithKeyPair(func(p *keys.KeyPair) error {
		pair = p.Clone()
		return nil
	}); err != nil {
		return err
	}
	defer keys.ClearKeyPair(pair)

	userID := s.session.UserID()
	if err := s.cloud.BackupKeysToCloud(ctx, userID, pair, password); err != nil {
		return err
	}
	s.audit.Record(audit.Entry{UserID: userID, Operation: audit.OpCloudBackup})
	return nil
}

func (s *Service) RestoreKeysFromCloud(ctx context.Context, userID string, password []byte) error {
	if s.cloud == nil {
		return kerrors.ErrBackendNotConfigured
	}
	if err := s.cloud.RestoreKeysFromCloud(ctx, userID, password); err != nil {
		return err
	}
	s.audit.Record(audit.Entry{UserID: userID, Operation: audit.OpCloudRestore})
	return nil
}

func (s *Service) SyncKeys(ctx context.Context, userID string, password []byte) (cloudsync.SyncStatus, error) {
	if s.cloud == nil {
		return 0, kerrors.ErrBackendNotConfigured
	}
	status, err := s.cloud.SyncKeys(ctx, userID, password)
	if err != nil {
		return 0, err
	}
	switch status {
	case cloudsync.BackedUp:
		s.audit.Record(audit.Entry{UserID: userID, Operation: audit.OpCloudBackup, Status: status.String()})
	case cloudsync.Restored:
		s.audit.Record(audit.Entry{UserID: userID, Operation: audit.OpCloudRestore, Status: status.String()})
	}
	return status, nil
}

func (s *Service) DeleteCloudKeys(ctx context.Context, userID string) error {
	if s.cloud == nil {
		return kerrors.ErrBackendNotConfigured
	}
	if err := s.cloud.DeleteCloudKeys(ctx, userID); err != nil {
		return err
	}
	s.audit.Record(audit.Entry{UserID: userID, Operation: audit.OpCloudDelete})
	return nil
}

// userIDForAudit falls back to the stored record when no session exists.
func (s *Service) userIDForAudit() string {
	if id := s.session.UserID(); id != "" {
		return id
	}
	stored, err := s.auth.StoredKeys()
	if err != nil {
		if !errors.Is(err, kerrors.ErrKeyNotFound) {
			s.log.Debugf("Failed to load stored keys for audit: %v", err)
		}
		return ""
	}
	return stored.UserID
}
