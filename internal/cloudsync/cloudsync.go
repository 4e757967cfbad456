package cloudsync

import (
	"context"
	"errors"
	"fmt"

	kerrors "github.com/PolarWolf314/quill/internal/errors"
	"github.com/PolarWolf314/quill/internal/keys"
	"github.com/PolarWolf314/quill/internal/keystore"
	logger "github.com/PolarWolf314/quill/internal/logging"
	"github.com/PolarWolf314/quill/internal/session"
)

// SyncStatus reports what SyncKeys did.
type SyncStatus int

const (
	// BackedUp means local keys were uploaded.
	BackedUp SyncStatus = iota + 1
	// Restored means cloud keys were downloaded and a session was created.
	Restored
	// AlreadySynced means both sides already had keys.
	AlreadySynced
)

func (s SyncStatus) String() string {
	switch s {
	case BackedUp:
		return "backed up"
	case Restored:
		return "restored"
	case AlreadySynced:
		return "already synchronized"
	default:
		return "unknown"
	}
}

// Options configures a Service.
type Options struct {
	Client  ProfileClient
	Keys    *keys.Manager
	Store   keystore.Store
	Session *session.Manager
	Logger  logger.Logger
}

// Service backs up and restores the password-encrypted identity key.
// Every method returns ErrNotAuthenticated before doing any work when the
// client has no backend credentials.
type Service struct {
	client  ProfileClient
	keys    *keys.Manager
	store   keystore.Store
	session *session.Manager
	log     logger.Logger
}

func NewService(opts Options) *Service {
	return &Service{
		client:  opts.Client,
		keys:    opts.Keys,
		store:   opts.Store,
		session: opts.Session,
		log:     opts.Logger,
	}
}

func (s *Service) ready(userID string) error {
	if s.client == nil {
		return kerrors.ErrBackendNotConfigured
	}
	if !s.client.Authenticated() {
		s.log.Debugf("Skipping cloud sync: not authenticated")
		return kerrors.ErrNotAuthenticated
	}
	if userID == "" {
		return kerrors.ErrInvalidUserID
	}
	return nil
}

// HasCloudEncryptionKeys reports whether the remote profile holds keys.
func (s *Service) HasCloudEncryptionKeys(ctx context.Context, userID string) (bool, error) {
	if err := s.ready(userID); err != nil {
		return false, err
	}
	_, err := s.client.GetKeys(ctx, userID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, kerrors.ErrCloudKeysNotFound):
		return false, nil
	default:
		s.log.Errorf("Failed to check cloud keys for %s: %v", userID, err)
		return false, err
	}
}

// BackupKeysToCloud uploads pair encrypted under password. Existing cloud
// keys are never overwritten; the call then succeeds without writing.
func (s *Service) BackupKeysToCloud(ctx context.Context, userID string, pair *keys.KeyPair, password []byte) error {
	if err := s.ready(userID); err != nil {
		return err
	}
	if !keys.ValidateKeyPair(pair) {
		return kerrors.ErrInvalidKeyPair
	}

	exists, err := s.HasCloudEncryptionKeys(ctx, userID)
	if err != nil {
		return err
	}
	if exists {
		s.log.Infof("Cloud keys already exist for %s; skipping backup", userID)
		return nil
	}

	if err := s.checkLocalPassword(userID, pair, password); err != nil {
		return err
	}

	encrypted, err := s.keys.EncryptSecretKey(pair.SecretKey, password)
	if err != nil {
		return fmt.Errorf("failed to encrypt secret key: %w", err)
	}
	remote := RemoteKeys{
		PublicKey:           keys.EncodeKey(pair.PublicKey),
		EncryptedPrivateKey: keys.EncodeBytes(encrypted),
	}
	if err := s.client.PutKeys(ctx, userID, remote); err != nil {
		s.log.Errorf("Failed to back up keys for %s: %v", userID, err)
		return err
	}

	s.log.Infof("Backed up keys for %s", userID)
	return nil
}

// checkLocalPassword keeps cloud and local copies under one password when a
// local record for the same identity exists.
func (s *Service) checkLocalPassword(userID string, pair *keys.KeyPair, password []byte) error {
	stored, err := s.store.Load()
	if errors.Is(err, kerrors.ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if stored.UserID != userID || stored.PublicKeyB64 != keys.EncodeKey(pair.PublicKey) {
		return nil
	}
	local, err := session.Reconstruct(s.keys, stored, password)
	if err != nil {
		return err
	}
	keys.ClearKeyPair(local)
	return nil
}

// RestoreKeysFromCloud downloads the remote keys, decrypts them with
// password, persists them locally and creates an unlocked session. A local
// record for a different identity is never replaced.
func (s *Service) RestoreKeysFromCloud(ctx context.Context, userID string, password []byte) error {
	if err := s.ready(userID); err != nil {
		return err
	}

	remote, err := s.client.GetKeys(ctx, userID)
	if err != nil {
		if !errors.Is(err, kerrors.ErrCloudKeysNotFound) {
			s.log.Errorf("Failed to fetch cloud keys for %s: %v", userID, err)
		}
		return err
	}
	if err := remote.Validate(); err != nil {
		s.log.Errorf("Cloud keys for %s are malformed: %v", userID, err)
		return err
	}
	if err := s.checkNoOtherIdentity(userID, remote.PublicKey); err != nil {
		return err
	}

	stored := &keystore.StoredKeys{
		UserID:                userID,
		PublicKeyB64:          remote.PublicKey,
		EncryptedSecretKeyB64: remote.EncryptedPrivateKey,
	}
	pair, err := session.Reconstruct(s.keys, stored, password)
	if err != nil {
		if errors.Is(err, kerrors.ErrIntegrityViolation) {
			s.log.WarnfAlways("Cloud keys for %s failed validation", userID)
		}
		return err
	}
	defer keys.ClearKeyPair(pair)

	if err := s.store.Save(stored); err != nil {
		return fmt.Errorf("failed to persist restored keys: %w", err)
	}
	if err := s.session.Create(userID, pair); err != nil {
		return err
	}

	s.log.Infof("Restored keys for %s from the cloud", userID)
	return nil
}

// checkNoOtherIdentity refuses to replace a local record that belongs to a
// different user or key pair.
func (s *Service) checkNoOtherIdentity(userID, publicKeyB64 string) error {
	stored, err := s.store.Load()
	if errors.Is(err, kerrors.ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if stored.UserID != userID {
		s.log.WarnfAlways("Refusing to replace local keys for %s with cloud keys for %s", stored.UserID, userID)
		return fmt.Errorf("%w: local keys belong to %s", kerrors.ErrLocalKeysExist, stored.UserID)
	}
	if stored.PublicKeyB64 != publicKeyB64 {
		s.log.WarnfAlways("Local and cloud keys for %s differ", userID)
		return fmt.Errorf("%w: local and cloud public keys for %s differ", kerrors.ErrLocalKeysExist, userID)
	}
	return nil
}

// SyncKeys backs up when only local keys exist and restores when only cloud
// keys exist. It returns ErrNothingToSync when neither side has keys and
// ErrLocalKeysExist when the two sides hold different identities.
func (s *Service) SyncKeys(ctx context.Context, userID string, password []byte) (SyncStatus, error) {
	if err := s.ready(userID); err != nil {
		return 0, err
	}

	remote, err := s.client.GetKeys(ctx, userID)
	if err != nil && !errors.Is(err, kerrors.ErrCloudKeysNotFound) {
		s.log.Errorf("Failed to check cloud keys for %s: %v", userID, err)
		return 0, err
	}
	cloud := err == nil

	stored, err := s.store.Load()
	if err != nil && !errors.Is(err, kerrors.ErrKeyNotFound) {
		return 0, err
	}
	local := err == nil

	if local && stored.UserID != userID {
		s.log.WarnfAlways("Local keys belong to %s, not %s; nothing was synchronized", stored.UserID, userID)
		return 0, fmt.Errorf("%w: local keys belong to %s", kerrors.ErrLocalKeysExist, stored.UserID)
	}

	switch {
	case local && cloud:
		if err := s.checkNoOtherIdentity(userID, remote.PublicKey); err != nil {
			return 0, err
		}
		return AlreadySynced, nil
	case cloud:
		if err := s.RestoreKeysFromCloud(ctx, userID, password); err != nil {
			return 0, err
		}
		return Restored, nil
	case local:
		pair, err := session.Reconstruct(s.keys, stored, password)
		if err != nil {
			return 0, err
		}
		defer keys.ClearKeyPair(pair)
		if err := s.BackupKeysToCloud(ctx, userID, pair, password); err != nil {
			return 0, err
		}
		return BackedUp, nil
	default:
		return 0, kerrors.ErrNothingToSync
	}
}

// DeleteCloudKeys clears the key fields of the remote profile.
func (s *Service) DeleteCloudKeys(ctx context.Context, userID string) error {
	if err := s.ready(userID); err != nil {
		return err
	}
	if err := s.client.ClearKeys(ctx, userID); err != nil {
		s.log.Errorf("Failed to delete cloud keys for %s: %v", userID, err)
		return err
	}
	s.log.Infof("Deleted cloud keys for %s", userID)
	return nil
}
