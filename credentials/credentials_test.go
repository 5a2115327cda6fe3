package credentials

import (
	"encoding/hex"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testKey is a fixed 32-byte key so tests never touch the system keyring.
const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func newTestStore(t *testing.T) *Store {
	t.Helper()
	t.Setenv("ATTENDANCE_CONFIG_DIR", t.TempDir())
	t.Setenv(EncryptionKeyEnvVar, testKey)

	store, err := NewStore()
	require.NoError(t, err)
	return store
}

func TestSaveAndLoad_ClientSecretRoundTrip(t *testing.T) {
	store := newTestStore(t)

	creds := &Credentials{
		AuthType:     AuthTypeClientSecret,
		TenantID:     "tenant-123",
		ClientID:     "client-456",
		ClientSecret: "s3cret-value",
	}
	require.NoError(t, store.Save(creds))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "tenant-123", loaded.TenantID)
	assert.Equal(t, "client-456", loaded.ClientID)
	assert.Equal(t, "s3cret-value", loaded.ClientSecret)
	assert.False(t, loaded.LastUpdated.IsZero())
}

func TestSave_SecretIsEncryptedOnDisk(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save(&Credentials{
		AuthType:     AuthTypeClientSecret,
		TenantID:     "t",
		ClientID:     "c",
		ClientSecret: "plaintext-secret",
	}))

	path, err := CredentialsPath()
	require.NoError(t, err)
	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.NotContains(t, string(raw), "plaintext-secret")
}

func TestSave_ValidatesRequiredFields(t *testing.T) {
	store := newTestStore(t)

	err := store.Save(&Credentials{AuthType: AuthTypeClientSecret, TenantID: "t"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	err = store.Save(&Credentials{AuthType: AuthTypeToken})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	err = store.Save(&Credentials{AuthType: "password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoad_NoCredentials(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Load()
	assert.ErrorIs(t, err, ErrNoCredentials)
	assert.False(t, store.Exists())
}

func TestLoad_ExpiredToken(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save(&Credentials{
		AuthType:  AuthTypeToken,
		Token:     "bearer-abc",
		ExpiresAt: time.Now().Add(-time.Hour),
	}))

	creds, err := store.Load()
	assert.ErrorIs(t, err, ErrExpiredToken)
	// The expired token is still returned so callers can report details.
	assert.Equal(t, "bearer-abc", creds.Token)
}

func TestDelete(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save(&Credentials{AuthType: AuthTypeToken, Token: "tok"}))
	require.True(t, store.Exists())

	require.NoError(t, store.Delete())
	assert.False(t, store.Exists())

	// Deleting again is not an error.
	assert.NoError(t, store.Delete())
}

func TestLoad_WrongKeyFailsDecryption(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ATTENDANCE_CONFIG_DIR", dir)
	t.Setenv(EncryptionKeyEnvVar, testKey)

	store, err := NewStore()
	require.NoError(t, err)
	require.NoError(t, store.Save(&Credentials{AuthType: AuthTypeToken, Token: "tok"}))

	otherKey := strings.Repeat("ff", 32)
	t.Setenv(EncryptionKeyEnvVar, otherKey)
	otherStore, err := NewStore()
	require.NoError(t, err)

	_, err = otherStore.Load()
	assert.ErrorIs(t, err, ErrEncryptionFailed)
}

func TestPassphraseKeyProvider_Deterministic(t *testing.T) {
	salt, err := GenerateSalt()
	require.NoError(t, err)

	p1 := NewPassphraseKeyProvider("correct horse battery staple", salt)
	p2 := NewPassphraseKeyProvider("correct horse battery staple", salt)

	k1, err := p1.GetKey()
	require.NoError(t, err)
	k2, err := p2.GetKey()
	require.NoError(t, err)
	assert.Equal(t, k1, k2)
	assert.Len(t, k1, 32)

	p3 := NewPassphraseKeyProvider("different passphrase", salt)
	k3, err := p3.GetKey()
	require.NoError(t, err)
	assert.NotEqual(t, k1, k3)
}

func TestEnvKeyProvider_RejectsBadKeys(t *testing.T) {
	t.Setenv("TEST_KEY_VAR", "not-hex")
	p := NewEnvKeyProvider("TEST_KEY_VAR")
	_, err := p.GetKey()
	assert.Error(t, err)

	t.Setenv("TEST_KEY_VAR", hex.EncodeToString([]byte("short")))
	_, err = p.GetKey()
	assert.Error(t, err)

	t.Setenv("TEST_KEY_VAR", testKey)
	key, err := p.GetKey()
	require.NoError(t, err)
	assert.Len(t, key, 32)
}
