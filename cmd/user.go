package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dylanstetts/user-meeting-attendance/client"
	"github.com/dylanstetts/user-meeting-attendance/config"
	"github.com/dylanstetts/user-meeting-attendance/pkg/logging"
	"github.com/dylanstetts/user-meeting-attendance/pkg/metrics"
)

// UserCmd resolves a user principal name against the Graph API. Useful
// for verifying credentials and permissions before a long export.
var UserCmd = &cobra.Command{
	Use:   "user <principal-name>",
	Short: "Resolve a user principal name",
	Long: `Resolve a user principal name (email) to its directory entry.

A successful lookup confirms that credentials work and the caller has
directory read permission, the cheapest preflight before an export.

Examples:
  attendance user alice@example.com`,
	Args: cobra.ExactArgs(1),
	RunE: runUser,
}

func runUser(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	tokens, err := newTokenSource()
	if err != nil {
		return err
	}

	log := logging.NewLogger(&logging.Config{
		Level:      logging.Level(cfg.LogLevel),
		JSONFormat: cfg.LogJSON,
	})
	gc := client.New(tokens, &client.Options{
		BaseURL:        cfg.GraphBaseURL,
		RequestTimeout: cfg.RequestTimeout,
		MaxRetries:     cfg.MaxRetries,
		RetryBaseDelay: cfg.RetryBaseDelay,
		RequestDelay:   cfg.RequestDelay,
	}, log, metrics.NewRunMetrics())

	user, err := gc.ResolveUser(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("resolving user %s: %w", args[0], err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "ID:             %s\n", user.ID)
	fmt.Fprintf(out, "Display name:   %s\n", user.DisplayName)
	fmt.Fprintf(out, "Principal name: %s\n", user.UserPrincipalName)
	if user.Mail != "" {
		fmt.Fprintf(out, "Mail:           %s\n", user.Mail)
	}
	return nil
}
