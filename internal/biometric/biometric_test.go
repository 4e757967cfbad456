package biometric

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/PolarWolf314/quill/internal/auth"
	kerrors "github.com/PolarWolf314/quill/internal/errors"
	"github.com/PolarWolf314/quill/internal/keys"
	"github.com/PolarWolf314/quill/internal/keystore"
	logger "github.com/PolarWolf314/quill/internal/logging"
	"github.com/PolarWolf314/quill/internal/session"
)

const testPassword = "longenough1"

// fakePlatform hands out a fixed secret per user and can be told to fail.
type fakePlatform struct {
	available   bool
	authErr     error
	createErr   error
	credentials map[string][]byte
	deleted     int
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{available: true, credentials: make(map[string][]byte)}
}

func (f *fakePlatform) Available(context.Context) bool { return f.available }

func (f *fakePlatform) CreateCredential(_ context.Context, userID string) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.credentials[userID] = bytes.Repeat([]byte{0x42}, 32)
	return nil
}

func (f *fakePlatform) Authenticate(_ context.Context, userID string) ([]byte, error) {
	if f.authErr != nil {
		return nil, f.authErr
	}
	secret, ok := f.credentials[userID]
	if !ok {
		return nil, kerrors.ErrBiometricNotEnabled
	}
	return append([]byte(nil), secret...), nil
}

func (f *fakePlatform) DeleteCredential(_ context.Context, userID string) error {
	delete(f.credentials, userID)
	f.deleted++
	return nil
}

type fixture struct {
	svc      *Service
	platform *fakePlatform
	session  *session.Manager
	store    *keystore.MemoryStore
}

func setupFixture(t *testing.T) *fixture {
	t.Helper()
	km := keys.NewManager(keys.WithParams(keys.Params{Time: 1, MemoryKiB: 64, Threads: 1}))
	store := keystore.NewMemoryStore()
	sm := session.NewManager(session.Options{Store: store, Keys: km, Logger: logger.Discard()})
	authSvc := auth.NewService(auth.Options{Keys: km, Store: store, Session: sm, Logger: logger.Discard()})

	pair, err := authSvc.GenerateUserKeys()
	if err != nil {
		t.Fatalf("Failed to generate keys: %v", err)
	}
	if err := authSvc.CompleteSignup("user-1", pair, []byte(testPassword)); err != nil {
		t.Fatalf("Signup failed: %v", err)
	}
	sm.Logout()

	platform := newFakePlatform()
	svc := NewService(Options{Platform: platform, Store: store, Auth: authSvc, Logger: logger.Discard()})
	return &fixture{svc: svc, platform: platform, session: sm, store: store}
}

func TestEnableThenLogin(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	if err := f.svc.Enable(ctx, []byte(testPassword)); err != nil {
		t.Fatalf("Enable failed: %v", err)
	}
	if !f.svc.IsEnabled() {
		t.Fatal("Expected biometric to be enabled")
	}
	stored, _ := f.store.Load()
	if stored.EncryptedPasswordB64 == "" {
		t.Fatal("Expected an encrypted password blob")
	}
	if bytes.Contains([]byte(stored.EncryptedPasswordB64), []byte(testPassword)) {
		t.Error("Expected the password blob not to contain the password")
	}

	f.session.Logout()
	if err := f.svc.Login(ctx); err != nil {
		t.Fatalf("Biometric login failed: %v", err)
	}
	if !f.session.IsUnlocked() {
		t.Error("Expected biometric login to unlock the session")
	}
}

func TestEnableWrongPassword(t *testing.T) {
	f := setupFixture(t)

	if err := f.svc.Enable(context.Background(), []byte("notmypassword")); !errors.Is(err, kerrors.ErrWrongPassword) {
		t.Fatalf("Expected ErrWrongPassword, got %v", err)
	}
	if len(f.platform.credentials) != 0 {
		t.Error("Expected no credential to be created")
	}
	if f.svc.IsEnabled() {
		t.Error("Expected biometric to stay disabled")
	}
}

func TestEnableRollsBackOnFailedChallenge(t *testing.T) {
	for _, challengeErr := range []error{kerrors.ErrBiometricFailed, kerrors.ErrBiometricCancelled, errors.New("sensor error")} {
		f := setupFixture(t)
		f.platform.authErr = challengeErr

		err := f.svc.Enable(context.Background(), []byte(testPassword))
		if !errors.Is(err, kerrors.ErrBiometricFailed) {
			t.Errorf("%v: expected ErrBiometricFailed, got %v", challengeErr, err)
		}
		if len(f.platform.credentials) != 0 || f.platform.deleted != 1 {
			t.Errorf("%v: expected the credential to be rolled back", challengeErr)
		}
		if f.svc.IsEnabled() {
			t.Errorf("%v: expected biometric to stay disabled", challengeErr)
		}
	}
}

func TestEnableUnavailable(t *testing.T) {
	f := setupFixture(t)
	f.platform.available = false

	if err := f.svc.Enable(context.Background(), []byte(testPassword)); !errors.Is(err, kerrors.ErrBiometricUnavailable) {
		t.Errorf("Expected ErrBiometricUnavailable, got %v", err)
	}
	if f.session.State() != session.NoSession {
		t.Error("Expected no login attempt on an unavailable platform")
	}
}

func TestLoginNotEnabled(t *testing.T) {
	f := setupFixture(t)
	if err := f.svc.Login(context.Background()); !errors.Is(err, kerrors.ErrBiometricNotEnabled) {
		t.Errorf("Expected ErrBiometricNotEnabled, got %v", err)
	}
}

func TestLoginWithoutStoredKeys(t *testing.T) {
	svc := NewService(Options{Platform: newFakePlatform(), Store: keystore.NewMemoryStore(), Logger: logger.Discard()})
	if err := svc.Login(context.Background()); !errors.Is(err, kerrors.ErrKeyNotFound) {
		t.Errorf("Expected ErrKeyNotFound, got %v", err)
	}
}

func TestLoginCancelled(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	if err := f.svc.Enable(ctx, []byte(testPassword)); err != nil {
		t.Fatalf("Enable failed: %v", err)
	}
	f.session.Logout()

	f.platform.authErr = kerrors.ErrBiometricCancelled
	if err := f.svc.Login(ctx); !errors.Is(err, kerrors.ErrBiometricFailed) {
		t.Errorf("Expected cancellation to fail like a declined challenge, got %v", err)
	}
	if f.session.State() != session.NoSession {
		t.Error("Expected no session after a cancelled challenge")
	}
}

func TestLoginWithReplacedCredential(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	if err := f.svc.Enable(ctx, []byte(testPassword)); err != nil {
		t.Fatalf("Enable failed: %v", err)
	}
	f.session.Logout()

	f.platform.credentials["user-1"] = bytes.Repeat([]byte{0x07}, 32)
	if err := f.svc.Login(ctx); !errors.Is(err, kerrors.ErrBiometricFailed) {
		t.Errorf("Expected ErrBiometricFailed, got %v", err)
	}
}

func TestDisable(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	if err := f.svc.Enable(ctx, []byte(testPassword)); err != nil {
		t.Fatalf("Enable failed: %v", err)
	}

	if err := f.svc.Disable(ctx); err != nil {
		t.Fatalf("Disable failed: %v", err)
	}
	stored, _ := f.store.Load()
	if stored.BiometricEnabled || stored.EncryptedPasswordB64 != "" {
		t.Error("Expected biometric fields to be stripped")
	}
	if len(f.platform.credentials) != 0 {
		t.Error("Expected the credential to be deleted")
	}
	if err := f.svc.Disable(ctx); err != nil {
		t.Errorf("Expected disabling twice to succeed, got %v", err)
	}
}

func TestPasswordBlob(t *testing.T) {
	authData := bytes.Repeat([]byte{0x01}, 32)
	blob, err := sealPassword(authData, []byte(testPassword))
	if err != nil {
		t.Fatalf("sealPassword failed: %v", err)
	}
	if len(blob) != keys.SaltSize+keys.NonceSize+16+len(testPassword) {
		t.Errorf("Unexpected blob length %d", len(blob))
	}

	password, ok := openPassword(authData, blob)
	if !ok || string(password) != testPassword {
		t.Fatal("Expected the password to round-trip")
	}
	if _, ok := openPassword(bytes.Repeat([]byte{0x02}, 32), blob); ok {
		t.Error("Expected other authenticator data to fail")
	}
	if _, ok := openPassword(authData, blob[:minBlobSize-1]); ok {
		t.Error("Expected a truncated blob to fail")
	}
	if _, err := sealPassword(nil, []byte(testPassword)); !errors.Is(err, kerrors.ErrBiometricFailed) {
		t.Errorf("Expected empty authenticator data to be rejected, got %v", err)
	}
}

func TestDevicePlatform(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "biometric")
	confirm := true
	p := NewDevicePlatform(dir, func(context.Context, string) (bool, error) { return confirm, nil })
	ctx := context.Background()

	if !p.Available(ctx) {
		t.Fatal("Expected device platform to be available")
	}
	if _, err := p.Authenticate(ctx, "user-1"); !errors.Is(err, kerrors.ErrBiometricNotEnabled) {
		t.Errorf("Expected ErrBiometricNotEnabled before CreateCredential, got %v", err)
	}

	if err := p.CreateCredential(ctx, "user-1"); err != nil {
		t.Fatalf("CreateCredential failed: %v", err)
	}
	first, err := p.Authenticate(ctx, "user-1")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	second, err := p.Authenticate(ctx, "user-1")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if !bytes.Equal(first, second) || len(first) != credentialSize {
		t.Error("Expected stable authenticator data")
	}

	if runtime.GOOS != "windows" {
		info, err := os.Stat(filepath.Join(dir, "user-1.key"))
		if err != nil {
			t.Fatalf("Stat failed: %v", err)
		}
		if info.Mode().Perm() != 0600 {
			t.Errorf("Expected 0600 permissions, got %o", info.Mode().Perm())
		}
	}

	confirm = false
	if _, err := p.Authenticate(ctx, "user-1"); !errors.Is(err, kerrors.ErrBiometricFailed) {
		t.Errorf("Expected a declined confirmation to fail, got %v", err)
	}

	if err := p.DeleteCredential(ctx, "user-1"); err != nil {
		t.Fatalf("DeleteCredential failed: %v", err)
	}
	if err := p.DeleteCredential(ctx, "user-1"); err != nil {
		t.Errorf("Expected deleting a missing credential to succeed, got %v", err)
	}

	if err := p.CreateCredential(ctx, "../escape"); !errors.Is(err, kerrors.ErrInvalidUserID) {
		t.Errorf("Expected ErrInvalidUserID for a path-like user id, got %v", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := p.Authenticate(cancelled, "user-1"); !errors.Is(err, kerrors.ErrBiometricCancelled) {
		t.Errorf("Expected ErrBiometricCancelled, got %v", err)
	}
}
