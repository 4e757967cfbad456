package session

import (
	"errors"
	"testing"

	kerrors "github.com/PolarWolf314/quill/internal/errors"
	"github.com/PolarWolf314/quill/internal/keys"
	"github.com/PolarWolf314/quill/internal/keystore"
	logger "github.com/PolarWolf314/quill/internal/logging"
)

const testPassword = "longenough1"

var testParams = keys.Params{Time: 1, MemoryKiB: 64, Threads: 1}

// setupSession returns a manager whose store holds a record for "user-1".
func setupSession(t *testing.T, purgeOnLock bool) (*Manager, *keys.KeyPair, *keystore.MemoryStore) {
	t.Helper()

	km := keys.NewManager(keys.WithParams(testParams))
	pair, err := km.GenerateUserKeys()
	if err != nil {
		t.Fatalf("Failed to generate keys: %v", err)
	}
	encrypted, err := km.EncryptSecretKey(pair.SecretKey, []byte(testPassword))
	if err != nil {
		t.Fatalf("Failed to encrypt secret key: %v", err)
	}

	store := keystore.NewMemoryStore()
	if err := store.Save(&keystore.StoredKeys{
		UserID:                "user-1",
		PublicKeyB64:          keys.EncodeKey(pair.PublicKey),
		EncryptedSecretKeyB64: keys.EncodeBytes(encrypted),
	}); err != nil {
		t.Fatalf("Failed to save stored keys: %v", err)
	}

	m := NewManager(Options{Store: store, Keys: km, Logger: logger.Discard(), PurgeOnLock: purgeOnLock})
	return m, pair, store
}

func TestInitialState(t *testing.T) {
	m, _, _ := setupSession(t, false)

	if m.State() != NoSession {
		t.Errorf("Expected NoSession, got %s", m.State())
	}
	err := m.WithKeyPair(func(*keys.KeyPair) error { return nil })
	if !errors.Is(err, kerrors.ErrNoSession) {
		t.Errorf("Expected ErrNoSession, got %v", err)
	}
	if err := m.Unlock([]byte(testPassword)); !errors.Is(err, kerrors.ErrNoSession) {
		t.Errorf("Expected Unlock without a session to fail with ErrNoSession, got %v", err)
	}
}

func TestRestoreThenUnlock(t *testing.T) {
	m, pair, _ := setupSession(t, false)

	if err := m.Restore(); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if m.State() != Locked {
		t.Fatalf("Expected Locked after Restore, got %s", m.State())
	}
	if m.PublicKeyB64() != keys.EncodeKey(pair.PublicKey) {
		t.Error("Expected public key to be known while locked")
	}

	called := false
	err := m.WithKeyPair(func(*keys.KeyPair) error { called = true; return nil })
	if !errors.Is(err, kerrors.ErrSessionLocked) || called {
		t.Errorf("Expected locked session to refuse key access, got %v", err)
	}

	if err := m.Unlock([]byte("wrong password")); !errors.Is(err, kerrors.ErrWrongPassword) {
		t.Fatalf("Expected ErrWrongPassword, got %v", err)
	}
	if m.State() != Locked {
		t.Fatalf("Expected to stay Locked after a wrong password, got %s", m.State())
	}

	if err := m.Unlock([]byte(testPassword)); err != nil {
		t.Fatalf("Unlock failed: %v", err)
	}
	if !m.IsUnlocked() {
		t.Fatal("Expected Unlocked")
	}

	err = m.WithKeyPair(func(p *keys.KeyPair) error {
		if *p.SecretKey != *pair.SecretKey {
			t.Error("Expected the decrypted secret key")
		}
		return nil
	})
	if err != nil {
		t.Errorf("WithKeyPair failed: %v", err)
	}
}

func TestRestoreWithoutStoredKeys(t *testing.T) {
	m := NewManager(Options{Store: keystore.NewMemoryStore(), Keys: keys.NewManager(keys.WithParams(testParams)), Logger: logger.Discard()})
	if err := m.Restore(); !errors.Is(err, kerrors.ErrKeyNotFound) {
		t.Errorf("Expected ErrKeyNotFound, got %v", err)
	}
	if m.State() != NoSession {
		t.Errorf("Expected NoSession, got %s", m.State())
	}
}

func TestCreateCopiesPair(t *testing.T) {
	m, pair, _ := setupSession(t, false)

	if err := m.Create("user-1", pair); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	keys.ClearKeyPair(pair)

	if !m.Validate() {
		t.Error("Expected the session to keep its own copy of the key pair")
	}
}

func TestCreateRejectsBadInput(t *testing.T) {
	m, pair, _ := setupSession(t, false)

	if err := m.Create("", pair); !errors.Is(err, kerrors.ErrInvalidUserID) {
		t.Errorf("Expected ErrInvalidUserID, got %v", err)
	}
	mixed := &keys.KeyPair{PublicKey: pair.PublicKey, SecretKey: new([keys.KeySize]byte)}
	if err := m.Create("user-1", mixed); !errors.Is(err, kerrors.ErrIntegrityViolation) {
		t.Errorf("Expected ErrIntegrityViolation, got %v", err)
	}
	if m.State() != NoSession {
		t.Errorf("Expected failed Create to leave NoSession, got %s", m.State())
	}
}

func TestLockRetainsOrPurges(t *testing.T) {
	for _, purge := range []bool{false, true} {
		m, pair, _ := setupSession(t, purge)
		if err := m.Create("user-1", pair); err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		m.Lock()
		if m.State() != Locked {
			t.Fatalf("Expected Locked, got %s", m.State())
		}
		if err := m.WithKeyPair(func(*keys.KeyPair) error { return nil }); !errors.Is(err, kerrors.ErrSessionLocked) {
			t.Errorf("purge=%t: expected ErrSessionLocked, got %v", purge, err)
		}

		m.mu.RLock()
		resident := m.pair != nil
		m.mu.RUnlock()
		if resident == purge {
			t.Errorf("purge=%t: unexpected resident key material %t", purge, resident)
		}

		if err := m.Unlock([]byte(testPassword)); err != nil {
			t.Fatalf("purge=%t: Unlock failed: %v", purge, err)
		}
		if !m.Validate() {
			t.Errorf("purge=%t: expected valid pair after unlock", purge)
		}
	}
}

func TestLogoutZeroesKeys(t *testing.T) {
	m, pair, _ := setupSession(t, false)
	if err := m.Create("user-1", pair); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	m.mu.RLock()
	resident := m.pair.SecretKey
	m.mu.RUnlock()

	m.Logout()

	if *resident != [keys.KeySize]byte{} {
		t.Error("Expected resident secret key to be zeroed on logout")
	}
	if m.State() != NoSession || m.UserID() != "" || m.PublicKeyB64() != "" {
		t.Error("Expected session to be fully dropped")
	}
}

func TestValidateForcesLogout(t *testing.T) {
	m, pair, _ := setupSession(t, false)
	if err := m.Create("user-1", pair); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	m.mu.Lock()
	m.pair.SecretKey[0] ^= 0xff
	m.mu.Unlock()

	if m.Validate() {
		t.Fatal("Expected tampered pair to fail validation")
	}
	if m.State() != NoSession {
		t.Errorf("Expected forced logout, got %s", m.State())
	}
}

func TestUnlockWithReplacedStoredKeys(t *testing.T) {
	m, _, store := setupSession(t, false)
	if err := m.Restore(); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	other, _ := keys.NewManager(keys.WithParams(testParams)).GenerateUserKeys()
	stored, _ := store.Load()
	stored.PublicKeyB64 = keys.EncodeKey(other.PublicKey)
	if err := store.Save(stored); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if err := m.Unlock([]byte(testPassword)); !errors.Is(err, kerrors.ErrIntegrityViolation) {
		t.Errorf("Expected ErrIntegrityViolation, got %v", err)
	}
	if m.State() != NoSession {
		t.Errorf("Expected forced logout, got %s", m.State())
	}
}

func TestSubscribe(t *testing.T) {
	m, pair, _ := setupSession(t, false)

	var events []Event
	unsubscribe := m.Subscribe(func(e Event) { events = append(events, e) })

	if err := m.Create("user-1", pair); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	m.Lock()
	m.Logout()
	unsubscribe()
	if err := m.Create("user-1", pair); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	expected := []Event{
		{From: NoSession, To: Unlocked, UserID: "user-1"},
		{From: Unlocked, To: Locked, UserID: "user-1"},
		{From: Locked, To: NoSession, UserID: "user-1"},
	}
	if len(events) != len(expected) {
		t.Fatalf("Expected %d events, got %d: %+v", len(expected), len(events), events)
	}
	for i := range expected {
		if events[i] != expected[i] {
			t.Errorf("Event %d: expected %+v, got %+v", i, expected[i], events[i])
		}
	}
}
