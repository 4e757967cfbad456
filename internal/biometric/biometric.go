package biometric

import (
	"context"
	"errors"
	"fmt"

	kerrors "github.com/PolarWolf314/quill/internal/errors"
	"github.com/PolarWolf314/quill/internal/keys"
	"github.com/PolarWolf314/quill/internal/keystore"
	logger "github.com/PolarWolf314/quill/internal/logging"
)

// PasswordLogin is the password login path biometrics unlock.
type PasswordLogin interface {
	Login(password []byte) error
}

// Options configures a Service.
type Options struct {
	Platform Platform
	Store    keystore.Store
	Auth     PasswordLogin
	Logger   logger.Logger
}

// Service stores the user's password encrypted under biometric authenticator
// data. The password still unlocks the secret key; the platform only gates
// retrieval of the password.
type Service struct {
	platform Platform
	store    keystore.Store
	auth     PasswordLogin
	log      logger.Logger
}

func NewService(opts Options) *Service {
	return &Service{
		platform: opts.Platform,
		store:    opts.Store,
		auth:     opts.Auth,
		log:      opts.Logger,
	}
}

// IsAvailable reports whether the platform can run a biometric challenge.
func (s *Service) IsAvailable(ctx context.Context) bool {
	return s.platform != nil && s.platform.Available(ctx)
}

// IsEnabled reports whether the stored record has biometric login enabled.
func (s *Service) IsEnabled() bool {
	stored, err := s.store.Load()
	return err == nil && stored.BiometricEnabled
}

// Enable logs in with password, creates a platform credential and stores the
// password encrypted under its authenticator data. The credential is removed
// again if any later step fails.
func (s *Service) Enable(ctx context.Context, password []byte) (err error) {
	if !s.IsAvailable(ctx) {
		return kerrors.ErrBiometricUnavailable
	}
	if err := s.auth.Login(password); err != nil {
		return err
	}

	stored, err := s.store.Load()
	if err != nil {
		return err
	}
	userID := stored.UserID

	if err := s.platform.CreateCredential(ctx, userID); err != nil {
		s.log.Errorf("Failed to create biometric credential: %v", err)
		return challengeError(err)
	}
	defer func() {
		if err == nil {
			return
		}
		if delErr := s.platform.DeleteCredential(context.WithoutCancel(ctx), userID); delErr != nil {
			s.log.Errorf("Failed to roll back biometric credential: %v", delErr)
		}
	}()

	authData, err := s.platform.Authenticate(ctx, userID)
	if err != nil {
		s.log.Debugf("Biometric challenge during enable failed: %v", err)
		return challengeError(err)
	}
	defer keys.Zero(authData)

	blob, err := sealPassword(authData, password)
	if err != nil {
		return err
	}

	stored.BiometricEnabled = true
	stored.EncryptedPasswordB64 = keys.EncodeBytes(blob)
	if err := s.store.Save(stored); err != nil {
		return fmt.Errorf("failed to persist biometric settings: %w", err)
	}

	s.log.Infof("Enabled biometric login for %s", userID)
	return nil
}

// Login runs a biometric challenge, recovers the stored password and passes
// it to the password login path.
func (s *Service) Login(ctx context.Context) error {
	stored, err := s.store.Load()
	if err != nil {
		return err
	}
	if !stored.BiometricEnabled {
		return kerrors.ErrBiometricNotEnabled
	}
	if !s.IsAvailable(ctx) {
		return kerrors.ErrBiometricUnavailable
	}

	blob, err := keys.DecodeBytes(stored.EncryptedPasswordB64)
	if err != nil {
		s.log.Errorf("Stored biometric password is malformed: %v", err)
		return kerrors.ErrBiometricFailed
	}

	authData, err := s.platform.Authenticate(ctx, stored.UserID)
	if err != nil {
		s.log.Debugf("Biometric challenge failed: %v", err)
		return challengeError(err)
	}
	defer keys.Zero(authData)

	password, ok := openPassword(authData, blob)
	if !ok {
		return kerrors.ErrBiometricFailed
	}
	defer keys.Zero(password)

	return s.auth.Login(password)
}

// Disable strips the biometric fields and deletes the platform credential.
// It succeeds when biometric login is already disabled.
func (s *Service) Disable(ctx context.Context) error {
	stored, err := s.store.Load()
	if err != nil {
		return err
	}

	if stored.BiometricEnabled || stored.EncryptedPasswordB64 != "" {
		stripped := stored.WithoutBiometric()
		if err := s.store.Save(&stripped); err != nil {
			return fmt.Errorf("failed to persist biometric settings: %w", err)
		}
	}

	if s.platform != nil {
		if err := s.platform.DeleteCredential(ctx, stored.UserID); err != nil {
			return fmt.Errorf("failed to remove biometric credential: %w", err)
		}
	}

	s.log.Infof("Disabled biometric login for %s", stored.UserID)
	return nil
}

// challengeError maps platform failures onto the biometric sentinels.
// Cancellation is reported the same as a failed challenge.
func challengeError(err error) error {
	switch {
	case errors.Is(err, kerrors.ErrBiometricUnavailable),
		errors.Is(err, kerrors.ErrBiometricNotEnabled),
		errors.Is(err, kerrors.ErrInvalidUserID):
		return err
	case errors.Is(err, kerrors.ErrBiometricCancelled),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", kerrors.ErrBiometricFailed, kerrors.ErrBiometricCancelled)
	case errors.Is(err, kerrors.ErrBiometricFailed):
		return err
	default:
		return fmt.Errorf("%w: %v", kerrors.ErrBiometricFailed, err)
	}
}
