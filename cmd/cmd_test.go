package cmd

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dylanstetts/user-meeting-attendance/config"
	"github.com/dylanstetts/user-meeting-attendance/credentials"
	"github.com/dylanstetts/user-meeting-attendance/pkg/attendance"
	umerrors "github.com/dylanstetts/user-meeting-attendance/pkg/errors"
)

// testEncryptionKey is a valid 32-byte (64 hex chars) encryption key for tests.
const testEncryptionKey = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

func setupTestEnv(t *testing.T) {
	t.Helper()
	t.Setenv(credentials.EncryptionKeyEnvVar, testEncryptionKey)
	t.Setenv("ATTENDANCE_CONFIG_DIR", t.TempDir())
}

func resetExportFlags() {
	exportUser = ""
	exportStart = ""
	exportEnd = ""
	exportTypes = nil
	exportOutputDir = ""
	exportConcurrency = 0
	exportDebug = false
}

func TestLoadExportConfig_FlagsOverrideEnv(t *testing.T) {
	setupTestEnv(t)
	t.Setenv("ATTENDANCE_USER", "env@example.com")
	t.Setenv("ATTENDANCE_START_DATE", "2026-01-01")
	t.Setenv("ATTENDANCE_END_DATE", "2026-01-31")

	resetExportFlags()
	exportUser = "flag@example.com"
	exportOutputDir = "/tmp/reports"
	defer resetExportFlags()

	cfg, err := loadExportConfig()
	require.NoError(t, err)
	assert.Equal(t, "flag@example.com", cfg.UserPrincipalName)
	assert.Equal(t, "2026-01-01", cfg.StartDate)
	assert.Equal(t, "/tmp/reports", cfg.OutputDir)
}

func TestLoadExportConfig_RequiresUser(t *testing.T) {
	setupTestEnv(t)
	t.Setenv("ATTENDANCE_USER", "")
	resetExportFlags()
	defer resetExportFlags()

	_, err := loadExportConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user principal name")
	assert.True(t, umerrors.IsValidation(err))
}

func TestLoadExportConfig_DebugEnablesDebugLogging(t *testing.T) {
	setupTestEnv(t)
	resetExportFlags()
	exportUser = "a@example.com"
	exportDebug = true
	defer resetExportFlags()

	cfg, err := loadExportConfig()
	require.NoError(t, err)
	assert.True(t, cfg.Debug)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestTypeFilter_AllDisablesFiltering(t *testing.T) {
	cfg := &config.Config{MeetingTypes: []config.MeetingType{config.MeetingTypeAll}}
	assert.Nil(t, typeFilter(cfg))

	cfg = &config.Config{}
	assert.Nil(t, typeFilter(cfg))
}

func TestTypeFilter_SelectsConfiguredTypes(t *testing.T) {
	cfg := &config.Config{MeetingTypes: []config.MeetingType{
		config.MeetingTypeScheduled, config.MeetingTypeTownhall,
	}}
	filter := typeFilter(cfg)
	require.NotNil(t, filter)

	assert.True(t, filter(attendance.TypeScheduled))
	assert.True(t, filter(attendance.TypeTownhall))
	// Townhall selection admits broadcasts, the same audience.
	assert.True(t, filter(attendance.TypeBroadcast))
	assert.False(t, filter(attendance.TypeOneOnOne))
	assert.False(t, filter(attendance.TypeInstant))
}

func TestNewTokenSource_EnvTokenWins(t *testing.T) {
	setupTestEnv(t)
	t.Setenv("ATTENDANCE_TOKEN", "env-bearer-token")

	tokens, err := newTokenSource()
	require.NoError(t, err)

	got, err := tokens.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "env-bearer-token", got)
}

func TestNewTokenSource_NoCredentials(t *testing.T) {
	setupTestEnv(t)
	os.Unsetenv("ATTENDANCE_TOKEN")

	_, err := newTokenSource()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth login")
}

func TestNewTokenSource_StoredClientSecret(t *testing.T) {
	setupTestEnv(t)

	store, err := credentials.NewStore()
	require.NoError(t, err)
	require.NoError(t, store.Save(&credentials.Credentials{
		AuthType:     credentials.AuthTypeClientSecret,
		TenantID:     "tenant-1",
		ClientID:     "client-1",
		ClientSecret: "s3cret",
	}))

	tokens, err := newTokenSource()
	require.NoError(t, err)
	assert.NotNil(t, tokens)
}

func TestAuthLogin_RequiresCredentials(t *testing.T) {
	setupTestEnv(t)
	authTenantID, authClientID, authClientSecret, authToken = "", "", "", ""

	err := runAuthLogin(newTestCommand(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--token")
}

func TestAuthLoginStatusLogoutRoundTrip(t *testing.T) {
	setupTestEnv(t)

	authTenantID, authClientID, authClientSecret, authToken = "tenant-1", "client-1", "s3cret", ""
	defer func() { authTenantID, authClientID, authClientSecret = "", "", "" }()

	login := newTestCommand()
	require.NoError(t, runAuthLogin(login, nil))
	assert.Contains(t, commandOutput(login), "Login successful")

	status := newTestCommand()
	require.NoError(t, runAuthStatus(status, nil))
	assert.Contains(t, commandOutput(status), "client_secret")
	assert.Contains(t, commandOutput(status), "tenant-1")

	logout := newTestCommand()
	require.NoError(t, runAuthLogout(logout, nil))

	status = newTestCommand()
	require.NoError(t, runAuthStatus(status, nil))
	assert.Contains(t, commandOutput(status), "Not logged in")
}

func newTestCommand() *cobra.Command {
	c := &cobra.Command{}
	c.SetOut(&bytes.Buffer{})
	return c
}

func commandOutput(c *cobra.Command) string {
	return c.OutOrStdout().(*bytes.Buffer).String()
}
