// Package credentials provides secure credential storage for the attendance CLI.
// It stores the Azure AD app registration (tenant id, client id, client secret)
// or a raw bearer token in ~/.attendance/credentials.yaml with the secret
// fields encrypted at rest (AES-256-GCM).
//
// Encryption Key Storage:
// The encryption key is stored securely using the system keyring:
// - macOS: Keychain
// - Windows: Credential Manager
// - Linux: Secret Service (libsecret)
//
// For CI and scheduled-task environments, set ATTENDANCE_ENCRYPTION_KEY to a
// 64-character hex string (32 bytes).
package credentials

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Credential storage constants.
const (
	DefaultCredentialsDir  = ".attendance"
	DefaultCredentialsFile = "credentials.yaml"

	// AuthTypeClientSecret represents app-registration (client credential) auth.
	AuthTypeClientSecret = "client_secret"
	// AuthTypeToken represents a pre-acquired bearer token.
	AuthTypeToken = "token"
)

// Common errors.
var (
	// ErrNoCredentials is returned when no credentials are stored.
	ErrNoCredentials = errors.New("no credentials stored")
	// ErrExpiredToken is returned when the stored token has expired.
	ErrExpiredToken = errors.New("stored token has expired")
	// ErrInvalidCredentials is returned when stored credentials are malformed.
	ErrInvalidCredentials = errors.New("invalid credentials format")
	// ErrEncryptionFailed is returned when encryption/decryption fails.
	ErrEncryptionFailed = errors.New("encryption failed")
)

// Credentials holds the stored authentication material for the Graph API.
type Credentials struct {
	// AuthType is the type of authentication ("client_secret" or "token").
	AuthType string `yaml:"auth_type"`
	// TenantID is the Azure AD tenant the app registration lives in.
	TenantID string `yaml:"tenant_id,omitempty"`
	// ClientID is the app registration's application (client) id.
	ClientID string `yaml:"client_id,omitempty"`
	// ClientSecret is the app registration secret (encrypted at rest).
	ClientSecret string `yaml:"client_secret,omitempty"`
	// Token is a pre-acquired bearer token (encrypted at rest).
	Token string `yaml:"token,omitempty"`
	// ExpiresAt is the token expiration time, when known.
	ExpiresAt time.Time `yaml:"expires_at,omitempty"`
	// LastUpdated is when the credentials were last updated.
	LastUpdated time.Time `yaml:"last_updated"`
}

// Store manages credential storage operations.
type Store struct {
	// credentialsDir is the directory containing credentials.
	credentialsDir string
	// encryptionKey is the key used for encrypting/decrypting credentials.
	encryptionKey []byte
	// keyProvider is the source of the encryption key.
	keyProvider KeyProvider
}

// NewStore creates a new credential store with default settings. It uses the
// system keyring to store the encryption key securely, or the
// ATTENDANCE_ENCRYPTION_KEY env var when set.
func NewStore() (*Store, error) {
	keyProvider, err := GetDefaultKeyProvider()
	if err != nil {
		return nil, fmt.Errorf("initializing key provider: %w", err)
	}
	return NewStoreWithKeyProvider(keyProvider)
}

// NewStoreWithKeyProvider creates a new credential store with a custom key
// provider. This is primarily used for testing and for passphrase fallback.
func NewStoreWithKeyProvider(keyProvider KeyProvider) (*Store, error) {
	dir, err := CredentialsDir()
	if err != nil {
		return nil, fmt.Errorf("getting credentials directory: %w", err)
	}

	key, err := keyProvider.GetKey()
	if err != nil {
		return nil, fmt.Errorf("getting encryption key: %w", err)
	}

	return &Store{
		credentialsDir: dir,
		encryptionKey:  key,
		keyProvider:    keyProvider,
	}, nil
}

// KeyDescription returns a human-readable description of where the encryption
// key lives.
func (s *Store) KeyDescription() string {
	return s.keyProvider.Description()
}

// Save encrypts the secret fields and writes the credentials file.
func (s *Store) Save(creds *Credentials) error {
	if creds == nil {
		return fmt.Errorf("%w: nil credentials", ErrInvalidCredentials)
	}
	switch creds.AuthType {
	case AuthTypeClientSecret:
		if creds.TenantID == "" || creds.ClientID == "" || creds.ClientSecret == "" {
			return fmt.Errorf("%w: client_secret auth requires tenant_id, client_id, and client_secret", ErrInvalidCredentials)
		}
	case AuthTypeToken:
		if creds.Token == "" {
			return fmt.Errorf("%w: token auth requires a token", ErrInvalidCredentials)
		}
	default:
		return fmt.Errorf("%w: unknown auth_type %q", ErrInvalidCredentials, creds.AuthType)
	}

	stored := *creds
	stored.LastUpdated = time.Now().UTC()

	var err error
	if stored.ClientSecret != "" {
		if stored.ClientSecret, err = s.encrypt(stored.ClientSecret); err != nil {
			return err
		}
	}
	if stored.Token != "" {
		if stored.Token, err = s.encrypt(stored.Token); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(s.credentialsDir, 0o700); err != nil {
		return fmt.Errorf("creating credentials directory: %w", err)
	}

	data, err := yaml.Marshal(&stored)
	if err != nil {
		return fmt.Errorf("marshaling credentials: %w", err)
	}

	path := filepath.Join(s.credentialsDir, DefaultCredentialsFile)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing credentials file: %w", err)
	}
	return nil
}

// Load reads the credentials file and decrypts the secret fields.
func (s *Store) Load() (*Credentials, error) {
	path := filepath.Join(s.credentialsDir, DefaultCredentialsFile)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoCredentials
		}
		return nil, fmt.Errorf("reading credentials file: %w", err)
	}

	var creds Credentials
	if err := yaml.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}

	if creds.ClientSecret != "" {
		if creds.ClientSecret, err = s.decrypt(creds.ClientSecret); err != nil {
			return nil, err
		}
	}
	if creds.Token != "" {
		if creds.Token, err = s.decrypt(creds.Token); err != nil {
			return nil, err
		}
	}

	if creds.AuthType == AuthTypeToken && !creds.ExpiresAt.IsZero() && time.Now().After(creds.ExpiresAt) {
		return &creds, ErrExpiredToken
	}

	return &creds, nil
}

// Delete removes the credentials file. Missing credentials are not an error.
func (s *Store) Delete() error {
	path := filepath.Join(s.credentialsDir, DefaultCredentialsFile)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing credentials file: %w", err)
	}
	return nil
}

// Exists reports whether a credentials file is present.
func (s *Store) Exists() bool {
	path := filepath.Join(s.credentialsDir, DefaultCredentialsFile)
	_, err := os.Stat(path)
	return err == nil
}

// encrypt encrypts plaintext using AES-256-GCM and returns base64-encoded
// nonce+ciphertext.
func (s *Store) encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(s.encryptionKey)
	if err != nil {
		return "", fmt.Errorf("%w: creating cipher: %v", ErrEncryptionFailed, err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("%w: creating GCM: %v", ErrEncryptionFailed, err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("%w: generating nonce: %v", ErrEncryptionFailed, err)
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// decrypt reverses encrypt.
func (s *Store) decrypt(ciphertext string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: decoding base64: %v", ErrEncryptionFailed, err)
	}

	block, err := aes.NewCipher(s.encryptionKey)
	if err != nil {
		return "", fmt.Errorf("%w: creating cipher: %v", ErrEncryptionFailed, err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("%w: creating GCM: %v", ErrEncryptionFailed, err)
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", fmt.Errorf("%w: ciphertext too short", ErrEncryptionFailed)
	}

	nonce, ciphertextBytes := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertextBytes, nil)
	if err != nil {
		return "", fmt.Errorf("%w: decryption failed: %v", ErrEncryptionFailed, err)
	}

	return string(plaintext), nil
}

// CredentialsDir returns the credentials directory path.
// Uses $ATTENDANCE_CONFIG_DIR if set, otherwise ~/.attendance.
func CredentialsDir() (string, error) {
	if dir := os.Getenv("ATTENDANCE_CONFIG_DIR"); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}

	return filepath.Join(home, DefaultCredentialsDir), nil
}

// CredentialsPath returns the full path to the credentials file.
func CredentialsPath() (string, error) {
	dir, err := CredentialsDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DefaultCredentialsFile), nil
}
