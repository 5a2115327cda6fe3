// Package main provides the attendance CLI entry point.
// attendance exports Microsoft Teams meeting attendance for a user to CSV.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dylanstetts/user-meeting-attendance/cmd"
	"github.com/dylanstetts/user-meeting-attendance/pkg/buildinfo"
	umerrors "github.com/dylanstetts/user-meeting-attendance/pkg/errors"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "attendance",
	Short: "Teams meeting attendance exporter",
	Long: `attendance exports Microsoft Teams meeting attendance to CSV.

Meetings are discovered from a user's calendar, chat call history, and
the tenant call-record log over a bounded date range, resolved to online
meetings via the Graph API, and expanded into one row per attendee
interval.

COMMON WORKFLOWS:
  Store credentials: attendance auth login --tenant-id <t> --client-id <c>
  Verify access:     attendance user alice@example.com
  Export a month:    attendance export -u alice@example.com --start 2026-06-01 --end 2026-06-30

Configuration is read from ~/.attendance/config.yaml, overridden by
ATTENDANCE_* environment variables, overridden by flags.`,
	SilenceUsage: true,
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		info := buildinfo.Get()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "attendance %s\n", buildinfo.String())
		fmt.Fprintf(out, "  go version: %s\n", info.GoVersion)
	},
}

func init() {
	rootCmd.AddCommand(cmd.ExportCmd)
	rootCmd.AddCommand(cmd.AuthCmd)
	rootCmd.AddCommand(cmd.UserCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	// Set up signal handling for graceful shutdown.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nReceived interrupt signal, shutting down...")
		cancel()
	}()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if umerrors.IsValidation(err) {
			fmt.Fprintln(os.Stderr, "Run 'attendance export --help' for usage.")
		}
		os.Exit(1)
	}
}
