package session

import (
	"errors"
	"fmt"
	"sync"

	kerrors "github.com/PolarWolf314/quill/internal/errors"
	"github.com/PolarWolf314/quill/internal/keys"
	"github.com/PolarWolf314/quill/internal/keystore"
	logger "github.com/PolarWolf314/quill/internal/logging"
)

// State is the lifecycle state of the session.
type State int

const (
	// NoSession means no user is known to this process.
	NoSession State = iota
	// Locked means the user and public key are known but the secret key is unusable.
	Locked
	// Unlocked means the full key pair is resident and usable.
	Unlocked
)

func (s State) String() string {
	switch s {
	case NoSession:
		return "no-session"
	case Locked:
		return "locked"
	case Unlocked:
		return "unlocked"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Event describes a state transition.
type Event struct {
	From   State
	To     State
	UserID string
}

// Options configures a Manager.
type Options struct {
	Store  keystore.Store
	Keys   *keys.Manager
	Logger logger.Logger

	// PurgeOnLock zeroes the secret key on Lock instead of only gating it.
	PurgeOnLock bool
}

// Manager owns the single session of a process. Callers use WithKeyPair to
// reach the key pair; it refuses unless the session is unlocked.
type Manager struct {
	store       keystore.Store
	keys        *keys.Manager
	log         logger.Logger
	purgeOnLock bool

	mu           sync.RWMutex
	state        State
	userID       string
	publicKeyB64 string
	pair         *keys.KeyPair

	obsMu     sync.Mutex
	observers map[int]func(Event)
	nextObs   int
}

func NewManager(opts Options) *Manager {
	km := opts.Keys
	if km == nil {
		km = keys.NewManager()
	}
	return &Manager{
		store:       opts.Store,
		keys:        km,
		log:         opts.Logger,
		purgeOnLock: opts.PurgeOnLock,
		observers:   make(map[int]func(Event)),
	}
}

// Restore moves NoSession to Locked when a key record is persisted.
// No password is needed; only metadata is read.
func (m *Manager) Restore() error {
	stored, err := m.store.Load()
	if err != nil {
		return err
	}

	m.mu.Lock()
	if m.state != NoSession {
		m.mu.Unlock()
		return nil
	}
	m.state = Locked
	m.userID = stored.UserID
	m.publicKeyB64 = stored.PublicKeyB64
	m.mu.Unlock()

	m.log.Debugf("Restored locked session for %s", stored.UserID)
	m.notify(Event{From: NoSession, To: Locked, UserID: stored.UserID})
	return nil
}

// Create installs an unlocked session for a password already verified by the
// caller. The pair is copied; the caller should clear its own copy.
func (m *Manager) Create(userID string, pair *keys.KeyPair) error {
	if userID == "" {
		return kerrors.ErrInvalidUserID
	}
	if !keys.ValidateKeyPair(pair) {
		return kerrors.ErrIntegrityViolation
	}

	m.mu.Lock()
	from := m.state
	keys.ClearKeyPair(m.pair)
	m.pair = pair.Clone()
	m.userID = userID
	m.publicKeyB64 = keys.EncodeKey(pair.PublicKey)
	m.state = Unlocked
	m.mu.Unlock()

	m.log.Infof("Created unlocked session for %s", userID)
	m.notify(Event{From: from, To: Unlocked, UserID: userID})
	return nil
}

// Unlock decrypts the persisted secret key with password. A wrong password
// leaves the session locked and returns ErrWrongPassword.
func (m *Manager) Unlock(password []byte) error {
	m.mu.RLock()
	state, userID, publicKeyB64 := m.state, m.userID, m.publicKeyB64
	m.mu.RUnlock()

	switch state {
	case NoSession:
		return kerrors.ErrNoSession
	case Unlocked:
		return nil
	}

	stored, err := m.store.Load()
	if err != nil {
		m.log.Errorf("Failed to load stored keys for unlock: %v", err)
		return err
	}
	if stored.UserID != userID || stored.PublicKeyB64 != publicKeyB64 {
		m.log.WarnfAlways("Stored keys no longer match the locked session; logging out")
		m.Logout()
		return kerrors.ErrIntegrityViolation
	}

	pair, err := Reconstruct(m.keys, stored, password)
	if err != nil {
		if errors.Is(err, kerrors.ErrIntegrityViolation) {
			m.Logout()
		}
		return err
	}
	defer keys.ClearKeyPair(pair)

	m.mu.Lock()
	if m.state != Locked || m.userID != userID {
		m.mu.Unlock()
		return kerrors.ErrNoSession
	}
	keys.ClearKeyPair(m.pair)
	m.pair = pair.Clone()
	m.state = Unlocked
	m.mu.Unlock()

	m.log.Infof("Unlocked session for %s", userID)
	m.notify(Event{From: Locked, To: Unlocked, UserID: userID})
	return nil
}

// Lock gates the secret key. With PurgeOnLock the key material is zeroed too.
func (m *Manager) Lock() {
	m.mu.Lock()
	if m.state != Unlocked {
		m.mu.Unlock()
		return
	}
	m.state = Locked
	if m.purgeOnLock {
		keys.ClearKeyPair(m.pair)
		m.pair = nil
	}
	userID := m.userID
	m.mu.Unlock()

	m.log.Infof("Locked session for %s", userID)
	m.notify(Event{From: Unlocked, To: Locked, UserID: userID})
}

// Logout zeroes key material and drops the session.
func (m *Manager) Logout() {
	m.mu.Lock()
	from := m.state
	userID := m.userID
	keys.ClearKeyPair(m.pair)
	m.pair = nil
	m.userID = ""
	m.publicKeyB64 = ""
	m.state = NoSession
	m.mu.Unlock()

	if from == NoSession {
		return
	}
	m.log.Infof("Logged out %s", userID)
	m.notify(Event{From: from, To: NoSession, UserID: userID})
}

// Validate re-checks the resident key pair and logs out if it fails.
// A locked or empty session has nothing to validate and reports false.
func (m *Manager) Validate() bool {
	m.mu.RLock()
	state := m.state
	valid := state == Unlocked && keys.ValidateKeyPair(m.pair) && keys.EncodeKey(m.pair.PublicKey) == m.publicKeyB64
	m.mu.RUnlock()

	if state == Unlocked && !valid {
		m.log.WarnfAlways("Session key pair failed validation; logging out")
		m.Logout()
	}
	return valid
}

// WithKeyPair runs fn with the unlocked key pair. fn must not retain the pair
// or call lifecycle methods on m.
func (m *Manager) WithKeyPair(fn func(pair *keys.KeyPair) error) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	switch m.state {
	case NoSession:
		return kerrors.ErrNoSession
	case Locked:
		return kerrors.ErrSessionLocked
	}
	return fn(m.pair)
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

func (m *Manager) IsUnlocked() bool {
	return m.State() == Unlocked
}

func (m *Manager) UserID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.userID
}

// PublicKeyB64 returns the session's public key, or "" without a session.
func (m *Manager) PublicKeyB64() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.publicKeyB64
}

// Subscribe registers fn for state transitions and returns a function that
// removes it. Observers run synchronously after the transition completes.
func (m *Manager) Subscribe(fn func(Event)) func() {
	m.obsMu.Lock()
	id := m.nextObs
	m.nextObs++
	m.observers[id] = fn
	m.obsMu.Unlock()

	return func() {
		m.obsMu.Lock()
		delete(m.observers, id)
		m.obsMu.Unlock()
	}
}

func (m *Manager) notify(e Event) {
	m.obsMu.Lock()
	fns := make([]func(Event), 0, len(m.observers))
	for _, fn := range m.observers {
		fns = append(fns, fn)
	}
	m.obsMu.Unlock()

	for _, fn := range fns {
		fn(e)
	}
}

// Reconstruct decrypts the secret key in stored with password and validates
// the resulting pair. It returns ErrWrongPassword or ErrIntegrityViolation.
func Reconstruct(km *keys.Manager, stored *keystore.StoredKeys, password []byte) (*keys.KeyPair, error) {
	publicKey, err := keys.DecodeKey(stored.PublicKeyB64)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrInvalidStoredKeys, err)
	}
	ciphertext, err := keys.DecodeBytes(stored.EncryptedSecretKeyB64)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrInvalidStoredKeys, err)
	}

	secretKey, ok := km.DecryptSecretKey(ciphertext, password)
	if !ok {
		return nil, kerrors.ErrWrongPassword
	}

	pair := &keys.KeyPair{PublicKey: publicKey, SecretKey: secretKey}
	if !keys.ValidateKeyPair(pair) {
		keys.ClearKeyPair(pair)
		return nil, kerrors.ErrIntegrityViolation
	}
	return pair, nil
}
