package keys

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"

	kerrors "github.com/PolarWolf314/quill/internal/errors"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/nacl/box"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	// KeySize is the length of public, secret and symmetric keys.
	KeySize = 32
	// NonceSize is the length of box and secretbox nonces.
	NonceSize = 24
	// SaltSize is the length of the argon2id salt.
	SaltSize = 16

	formatVersion = 1
	headerSize    = 1 + 4 + 4 + 1

	// MinEncryptedSecretKeySize is the size of a password-encrypted secret key.
	MinEncryptedSecretKeySize = headerSize + SaltSize + NonceSize + secretbox.Overhead + KeySize
)

// Upper bounds accepted when reading KDF parameters back from ciphertext.
const (
	maxTime      = 16
	maxMemoryKiB = 1 << 20
)

// KeyPair is an identity key pair for box encryption.
type KeyPair struct {
	PublicKey *[KeySize]byte
	SecretKey *[KeySize]byte
}

// Params are the argon2id cost parameters used to derive a key from a password.
type Params struct {
	Time      uint32
	MemoryKiB uint32
	Threads   uint8
}

// Valid reports whether p is within the bounds accepted when decrypting.
func (p Params) Valid() bool {
	return p.Time > 0 && p.Time <= maxTime && p.MemoryKiB > 0 && p.MemoryKiB <= maxMemoryKiB && p.Threads > 0
}

// DefaultParams keeps derivation well under a second on current hardware.
var DefaultParams = Params{Time: 3, MemoryKiB: 64 * 1024, Threads: 4}

// Manager generates identity keys and protects secret keys with a password.
type Manager struct {
	params Params
	rand   io.Reader
}

// Option configures a Manager.
type Option func(*Manager)

// WithParams overrides the KDF cost used for new ciphertexts.
func WithParams(p Params) Option {
	return func(m *Manager) {
		m.params = p
	}
}

// NewManager returns a Manager reading randomness from crypto/rand.
func NewManager(opts ...Option) *Manager {
	m := &Manager{params: DefaultParams, rand: rand.Reader}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GenerateUserKeys creates a fresh identity key pair.
func (m *Manager) GenerateUserKeys() (*KeyPair, error) {
	pub, sec, err := box.GenerateKey(m.rand)
	if err != nil {
		return nil, fmt.Errorf("failed to generate key pair: %w", err)
	}
	return &KeyPair{PublicKey: pub, SecretKey: sec}, nil
}

// EncryptSecretKey seals the secret key under a key derived from password.
//
// Layout: version(1) | time(4) | memory(4) | threads(1) | salt(16) | nonce(24) | secretbox.
func (m *Manager) EncryptSecretKey(secretKey *[KeySize]byte, password []byte) ([]byte, error) {
	if secretKey == nil {
		return nil, kerrors.ErrInvalidKeyPair
	}
	if !m.params.Valid() {
		return nil, kerrors.ErrInvalidKDFParams
	}

	out := make([]byte, headerSize+SaltSize+NonceSize, MinEncryptedSecretKeySize)
	out[0] = formatVersion
	binary.BigEndian.PutUint32(out[1:5], m.params.Time)
	binary.BigEndian.PutUint32(out[5:9], m.params.MemoryKiB)
	out[9] = m.params.Threads

	salt := out[headerSize : headerSize+SaltSize]
	if _, err := io.ReadFull(m.rand, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	var nonce [NonceSize]byte
	if _, err := io.ReadFull(m.rand, nonce[:]); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	copy(out[headerSize+SaltSize:], nonce[:])

	key := deriveKey(password, salt, m.params)
	defer ClearKey(key)

	return secretbox.Seal(out, secretKey[:], &nonce, key), nil
}

// DecryptSecretKey opens a ciphertext produced by EncryptSecretKey.
// It reports false for a wrong password and for corrupted or truncated data alike.
func (m *Manager) DecryptSecretKey(ciphertext []byte, password []byte) (*[KeySize]byte, bool) {
	if len(ciphertext) != MinEncryptedSecretKeySize || ciphertext[0] != formatVersion {
		return nil, false
	}

	params := Params{
		Time:      binary.BigEndian.Uint32(ciphertext[1:5]),
		MemoryKiB: binary.BigEndian.Uint32(ciphertext[5:9]),
		Threads:   ciphertext[9],
	}
	if !params.Valid() {
		return nil, false
	}

	salt := ciphertext[headerSize : headerSize+SaltSize]
	var nonce [NonceSize]byte
	copy(nonce[:], ciphertext[headerSize+SaltSize:headerSize+SaltSize+NonceSize])

	key := deriveKey(password, salt, params)
	defer ClearKey(key)

	plain, ok := secretbox.Open(nil, ciphertext[headerSize+SaltSize+NonceSize:], &nonce, key)
	if !ok || len(plain) != KeySize {
		Zero(plain)
		return nil, false
	}

	secretKey := new([KeySize]byte)
	copy(secretKey[:], plain)
	Zero(plain)
	return secretKey, true
}

// ValidateKeyPair confirms the public key belongs to the secret key by
// sealing a random challenge to the public key and opening it with the secret key.
func ValidateKeyPair(pair *KeyPair) bool {
	if pair == nil || pair.PublicKey == nil || pair.SecretKey == nil {
		return false
	}

	var challenge [KeySize]byte
	if _, err := io.ReadFull(rand.Reader, challenge[:]); err != nil {
		return false
	}

	sealed, err := box.SealAnonymous(nil, challenge[:], pair.PublicKey, rand.Reader)
	if err != nil {
		return false
	}
	opened, ok := box.OpenAnonymous(nil, sealed, pair.PublicKey, pair.SecretKey)
	if !ok {
		return false
	}
	defer Zero(opened)

	return string(opened) == string(challenge[:])
}

func deriveKey(password, salt []byte, p Params) *[KeySize]byte {
	derived := argon2.IDKey(password, salt, p.Time, p.MemoryKiB, p.Threads, KeySize)
	key := new([KeySize]byte)
	copy(key[:], derived)
	Zero(derived)
	return key
}
