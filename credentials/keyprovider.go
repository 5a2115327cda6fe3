// Package credentials provides secure credential storage for the attendance CLI.
package credentials

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/zalando/go-keyring"
	"golang.org/x/crypto/argon2"
)

const (
	// keyringService is the service name used in the system keyring.
	keyringService = "user-meeting-attendance"
	// keyringUser is the user/account name used in the system keyring.
	keyringUser = "encryption-key"
	// keyLength is the required encryption key length (256 bits for AES-256).
	keyLength = 32
)

// Argon2 parameters for passphrase-based key derivation.
const (
	argon2Time    = 1
	argon2Memory  = 64 * 1024 // 64 MB
	argon2Threads = 4
)

// EncryptionKeyEnvVar lets CI and scheduled-task environments supply the
// encryption key directly as a 64-character hex string.
const EncryptionKeyEnvVar = "ATTENDANCE_ENCRYPTION_KEY"

// ErrKeyringUnavailable indicates the system keyring is not available.
var ErrKeyringUnavailable = errors.New("system keyring unavailable")

// KeyProvider is an interface for obtaining the encryption key.
type KeyProvider interface {
	// GetKey returns the 32-byte encryption key.
	// If no key exists, it should generate and store a new one.
	GetKey() ([]byte, error)

	// Description returns a human-readable description of the key storage mechanism.
	Description() string
}

// GetDefaultKeyProvider returns the key provider for this environment:
// the env var if set, otherwise the system keyring.
func GetDefaultKeyProvider() (KeyProvider, error) {
	if os.Getenv(EncryptionKeyEnvVar) != "" {
		return NewEnvKeyProvider(EncryptionKeyEnvVar), nil
	}
	return NewKeyringKeyProvider(), nil
}

// KeyringKeyProvider stores the encryption key in the system keyring
// (macOS Keychain, Windows Credential Manager, Linux Secret Service).
type KeyringKeyProvider struct {
	mu sync.Mutex
}

// NewKeyringKeyProvider creates a new KeyringKeyProvider.
func NewKeyringKeyProvider() *KeyringKeyProvider {
	return &KeyringKeyProvider{}
}

// GetKey retrieves the encryption key from the system keyring.
// If no key exists, it generates a new cryptographically random key and stores it.
func (p *KeyringKeyProvider) GetKey() ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	keyHex, err := keyring.Get(keyringService, keyringUser)
	if err == nil {
		key, decErr := hex.DecodeString(keyHex)
		if decErr == nil && len(key) == keyLength {
			return key, nil
		}
		// Invalid key format, regenerate.
	}

	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return nil, fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}

	return p.generateAndStoreKey()
}

// generateAndStoreKey creates a new random key and stores it in the keyring.
// Caller must hold p.mu.
func (p *KeyringKeyProvider) generateAndStoreKey() ([]byte, error) {
	key := make([]byte, keyLength)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generating random key: %w", err)
	}

	keyHex := hex.EncodeToString(key)
	if err := keyring.Set(keyringService, keyringUser, keyHex); err != nil {
		return nil, fmt.Errorf("%w: storing key: %v", ErrKeyringUnavailable, err)
	}

	return key, nil
}

// Description returns a description of this key provider.
func (p *KeyringKeyProvider) Description() string {
	switch runtime.GOOS {
	case "darwin":
		return "macOS Keychain"
	case "windows":
		return "Windows Credential Manager"
	default:
		return "System Keyring (Secret Service)"
	}
}

// PassphraseKeyProvider derives an encryption key from a user-provided passphrase
// using Argon2id. This is the fallback when the system keyring is unavailable,
// e.g. on headless export hosts.
type PassphraseKeyProvider struct {
	passphrase string
	salt       []byte
}

// NewPassphraseKeyProvider creates a new PassphraseKeyProvider.
// The salt should be stored alongside the encrypted credentials.
func NewPassphraseKeyProvider(passphrase string, salt []byte) *PassphraseKeyProvider {
	return &PassphraseKeyProvider{
		passphrase: passphrase,
		salt:       salt,
	}
}

// GetKey derives the encryption key from the passphrase using Argon2id.
func (p *PassphraseKeyProvider) GetKey() ([]byte, error) {
	if p.passphrase == "" {
		return nil, errors.New("passphrase is required")
	}
	if len(p.salt) == 0 {
		return nil, errors.New("salt is required")
	}

	key := argon2.IDKey(
		[]byte(p.passphrase),
		p.salt,
		argon2Time,
		argon2Memory,
		argon2Threads,
		keyLength,
	)

	return key, nil
}

// Description returns a description of this key provider.
func (p *PassphraseKeyProvider) Description() string {
	return "Passphrase-derived key (Argon2id)"
}

// GenerateSalt generates a random salt for passphrase key derivation.
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generating salt: %w", err)
	}
	return salt, nil
}

// EnvKeyProvider uses an encryption key from an environment variable.
// This is primarily for CI and scheduled-task environments.
type EnvKeyProvider struct {
	envVar string
}

// NewEnvKeyProvider creates a new EnvKeyProvider that reads the key from the given env var.
func NewEnvKeyProvider(envVar string) *EnvKeyProvider {
	return &EnvKeyProvider{envVar: envVar}
}

// GetKey returns the key from the environment variable.
func (p *EnvKeyProvider) GetKey() ([]byte, error) {
	keyHex := os.Getenv(p.envVar)
	if keyHex == "" {
		return nil, fmt.Errorf("environment variable %s not set", p.envVar)
	}

	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid key in %s: %w", p.envVar, err)
	}
	if len(key) != keyLength {
		return nil, fmt.Errorf("key in %s must be %d bytes (%d hex chars)", p.envVar, keyLength, keyLength*2)
	}

	return key, nil
}

// Description returns a description of this key provider.
func (p *EnvKeyProvider) Description() string {
	return fmt.Sprintf("Environment variable (%s)", p.envVar)
}
