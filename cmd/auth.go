package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dylanstetts/user-meeting-attendance/credentials"
)

// Auth command flags.
var (
	authTenantID       string
	authClientID       string
	authClientSecret   string
	authToken          string
	authNonInteractive bool
)

// AuthCmd represents the auth command group.
var AuthCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Graph API credentials",
	Long: `Manage Microsoft Graph credentials for the attendance exporter.

Two authentication methods are supported:
  - App registration (tenant id, client id, client secret): the exporter
    acquires tokens itself via the client-credentials flow
  - Pre-acquired bearer token: supplied directly and used until it expires

Credentials are stored encrypted at rest. The ATTENDANCE_TOKEN
environment variable overrides stored credentials for one-off runs.`,
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store Graph API credentials",
	Long: `Store Microsoft Graph credentials in the encrypted local store.

Examples:
  # App registration (prompts for the secret)
  attendance auth login --tenant-id <tenant> --client-id <app>

  # App registration, non-interactive
  attendance auth login --tenant-id <tenant> --client-id <app> --client-secret <secret>

  # Pre-acquired token
  attendance auth login --token eyJhbGciOi...`,
	RunE: runAuthLogin,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show stored credential status",
	RunE:  runAuthStatus,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Delete stored credentials",
	RunE:  runAuthLogout,
}

func init() {
	authLoginCmd.Flags().StringVar(&authTenantID, "tenant-id", "", "Azure AD tenant id")
	authLoginCmd.Flags().StringVar(&authClientID, "client-id", "", "App registration client id")
	authLoginCmd.Flags().StringVar(&authClientSecret, "client-secret", "", "App registration client secret")
	authLoginCmd.Flags().StringVar(&authToken, "token", "", "Pre-acquired bearer token")
	authLoginCmd.Flags().BoolVar(&authNonInteractive, "non-interactive", false, "Fail instead of prompting for input")

	AuthCmd.AddCommand(authLoginCmd)
	AuthCmd.AddCommand(authStatusCmd)
	AuthCmd.AddCommand(authLogoutCmd)
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	store, err := credentials.NewStore()
	if err != nil {
		return fmt.Errorf("initializing credential store: %w", err)
	}

	var creds *credentials.Credentials
	switch {
	case authToken != "":
		creds = &credentials.Credentials{
			AuthType: credentials.AuthTypeToken,
			Token:    authToken,
		}
	case authTenantID != "" && authClientID != "":
		secret := authClientSecret
		if secret == "" {
			if authNonInteractive {
				return fmt.Errorf("no client secret provided and --non-interactive flag set")
			}
			secret, err = promptSecret("Client secret: ")
			if err != nil {
				return fmt.Errorf("reading client secret: %w", err)
			}
		}
		creds = &credentials.Credentials{
			AuthType:     credentials.AuthTypeClientSecret,
			TenantID:     authTenantID,
			ClientID:     authClientID,
			ClientSecret: secret,
		}
	default:
		return fmt.Errorf("provide either --token or both --tenant-id and --client-id")
	}

	if err := store.Save(creds); err != nil {
		return fmt.Errorf("saving credentials: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Login successful")
	fmt.Fprintf(out, "  Authentication type: %s\n", creds.AuthType)
	fmt.Fprintf(out, "  Key source: %s\n", store.KeyDescription())
	if path, err := credentials.CredentialsPath(); err == nil {
		fmt.Fprintf(out, "  Stored in: %s\n", path)
	}
	return nil
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if os.Getenv("ATTENDANCE_TOKEN") != "" {
		fmt.Fprintln(out, "Using token from ATTENDANCE_TOKEN environment variable")
		fmt.Fprintln(out, "(stored credentials, if any, are ignored while it is set)")
	}

	store, err := credentials.NewStore()
	if err != nil {
		return fmt.Errorf("initializing credential store: %w", err)
	}
	creds, err := store.Load()
	switch {
	case errors.Is(err, credentials.ErrNoCredentials):
		fmt.Fprintln(out, "Not logged in. Run 'attendance auth login'.")
		return nil
	case errors.Is(err, credentials.ErrExpiredToken):
		fmt.Fprintln(out, "Stored token has expired. Run 'attendance auth login' again.")
		return nil
	case err != nil:
		return err
	}

	fmt.Fprintf(out, "Authentication type: %s\n", creds.AuthType)
	if creds.AuthType == credentials.AuthTypeClientSecret {
		fmt.Fprintf(out, "Tenant: %s\n", creds.TenantID)
		fmt.Fprintf(out, "Client: %s\n", creds.ClientID)
	}
	if !creds.ExpiresAt.IsZero() {
		fmt.Fprintf(out, "Expires: %s\n", creds.ExpiresAt.Format(time.RFC3339))
	}
	fmt.Fprintf(out, "Last updated: %s\n", creds.LastUpdated.Format(time.RFC3339))
	return nil
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	store, err := credentials.NewStore()
	if err != nil {
		return fmt.Errorf("initializing credential store: %w", err)
	}
	if err := store.Delete(); err != nil {
		return fmt.Errorf("deleting credentials: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Credentials deleted")
	return nil
}

// promptSecret reads a secret without echo, falling back to plain input
// when stdin is not a terminal.
func promptSecret(prompt string) (string, error) {
	fmt.Print(prompt)
	secret, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err == nil {
		return strings.TrimSpace(string(secret)), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
