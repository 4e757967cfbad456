package configs

import (
	"errors"
	"fmt"
	"os"
	"strings"

	kerrors "github.com/PolarWolf314/quill/internal/errors"
	"github.com/PolarWolf314/quill/internal/keys"

	"github.com/google/uuid"
)

// DefaultTokenEnv names the environment variable holding the backend token.
const DefaultTokenEnv = "QUILL_TOKEN"

type Config struct {
	User    User    `toml:"user"`
	Backend Backend `toml:"backend"`
	KDF     KDF     `toml:"kdf"`
	Session Session `toml:"session"`
}

type User struct {
	UserID string `toml:"user_id"`
}

type Backend struct {
	URL      string `toml:"url"`
	TokenEnv string `toml:"token_env"`
}

// KDF holds the argon2id cost used for newly encrypted secret keys. Existing
// ciphertexts carry their own parameters.
type KDF struct {
	Time      uint32 `toml:"time"`
	MemoryKiB uint32 `toml:"memory_kib"`
	Threads   uint8  `toml:"threads"`
}

type Session struct {
	// PurgeOnLock zeroes the secret key when the session locks.
	PurgeOnLock bool `toml:"purge_on_lock"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Backend: Backend{TokenEnv: DefaultTokenEnv},
		KDF: KDF{
			Time:      keys.DefaultParams.Time,
			MemoryKiB: keys.DefaultParams.MemoryKiB,
			Threads:   keys.DefaultParams.Threads,
		},
	}
}

// Params returns the KDF section as key derivation parameters.
func (c *Config) Params() keys.Params {
	return keys.Params{Time: c.KDF.Time, MemoryKiB: c.KDF.MemoryKiB, Threads: c.KDF.Threads}
}

// Token reads the backend token from the configured environment variable.
func (c *Config) Token() string {
	env := c.Backend.TokenEnv
	if env == "" {
		env = DefaultTokenEnv
	}
	return strings.TrimSpace(os.Getenv(env))
}

// Validate checks that the KDF section is usable.
func (c *Config) Validate() error {
	if !c.Params().Valid() {
		return fmt.Errorf("%w: time=%d memory_kib=%d threads=%d",
			kerrors.ErrInvalidKDFParams, c.KDF.Time, c.KDF.MemoryKiB, c.KDF.Threads)
	}
	return nil
}

// LoadConfig loads the configuration from path over the defaults.
// A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return config, nil
	}

	if err := LoadTOML(path, config); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// SaveConfig saves the configuration to path.
func SaveConfig(path string, config *Config) error {
	if err := SaveTOML(path, config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

// GenerateUserID generates a new user ID.
func GenerateUserID() string {
	return uuid.New().String()
}

// EnsureUserID ensures the configuration at path has a user ID, generating
// and saving one if needed.
func EnsureUserID(path string) (*Config, error) {
	config, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	if config.User.UserID == "" {
		config.User.UserID = GenerateUserID()
		if err := SaveConfig(path, config); err != nil {
			return nil, err
		}
	}

	return config, nil
}
