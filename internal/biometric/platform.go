package biometric

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"

	kerrors "github.com/PolarWolf314/quill/internal/errors"
)

// Platform is the device biometric boundary. Authenticate returns stable
// authenticator data for the user's credential; the same credential yields
// the same bytes on every successful challenge.
type Platform interface {
	Available(ctx context.Context) bool
	CreateCredential(ctx context.Context, userID string) error
	Authenticate(ctx context.Context, userID string) ([]byte, error)
	DeleteCredential(ctx context.Context, userID string) error
}

// ConfirmFunc gates a challenge. Returning false declines it; returning
// ErrBiometricCancelled cancels it.
type ConfirmFunc func(ctx context.Context, userID string) (bool, error)

const credentialSize = 32

var safeUserID = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// DevicePlatform is a software platform for terminals without a biometric
// sensor. Each credential is a random secret in a 0600 file under Dir, and
// retrieving it requires Confirm to succeed.
type DevicePlatform struct {
	Dir     string
	Confirm ConfirmFunc
}

func NewDevicePlatform(dir string, confirm ConfirmFunc) *DevicePlatform {
	return &DevicePlatform{Dir: dir, Confirm: confirm}
}

func (p *DevicePlatform) Available(ctx context.Context) bool {
	return p.Dir != "" && p.Confirm != nil && ctx.Err() == nil
}

func (p *DevicePlatform) CreateCredential(ctx context.Context, userID string) error {
	path, err := p.credentialPath(userID)
	if err != nil {
		return err
	}
	if ctx.Err() != nil {
		return kerrors.ErrBiometricCancelled
	}

	if err := os.MkdirAll(p.Dir, 0700); err != nil {
		return fmt.Errorf("failed to create credential directory: %w", err)
	}

	secret := make([]byte, credentialSize)
	if _, err := io.ReadFull(rand.Reader, secret); err != nil {
		return fmt.Errorf("failed to generate credential: %w", err)
	}
	if err := os.WriteFile(path, secret, 0600); err != nil {
		return fmt.Errorf("failed to write credential: %w", err)
	}
	return nil
}

func (p *DevicePlatform) Authenticate(ctx context.Context, userID string) ([]byte, error) {
	path, err := p.credentialPath(userID)
	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, kerrors.ErrBiometricCancelled
	}
	if p.Confirm == nil {
		return nil, kerrors.ErrBiometricUnavailable
	}

	ok, err := p.Confirm(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, kerrors.ErrBiometricFailed
	}

	secret, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, kerrors.ErrBiometricNotEnabled
		}
		return nil, fmt.Errorf("failed to read credential: %w", err)
	}
	if len(secret) != credentialSize {
		return nil, kerrors.ErrBiometricFailed
	}
	return secret, nil
}

func (p *DevicePlatform) DeleteCredential(ctx context.Context, userID string) error {
	path, err := p.credentialPath(userID)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	return nil
}

func (p *DevicePlatform) credentialPath(userID string) (string, error) {
	if p.Dir == "" {
		return "", kerrors.ErrBiometricUnavailable
	}
	if !safeUserID.MatchString(userID) {
		return "", kerrors.ErrInvalidUserID
	}
	return filepath.Join(p.Dir, userID+".key"), nil
}
