// Package cmd provides CLI commands for the attendance tool.
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dylanstetts/user-meeting-attendance/client"
	"github.com/dylanstetts/user-meeting-attendance/config"
	"github.com/dylanstetts/user-meeting-attendance/credentials"
	"github.com/dylanstetts/user-meeting-attendance/pkg/attendance"
	"github.com/dylanstetts/user-meeting-attendance/pkg/cache"
	umerrors "github.com/dylanstetts/user-meeting-attendance/pkg/errors"
	"github.com/dylanstetts/user-meeting-attendance/pkg/export"
	"github.com/dylanstetts/user-meeting-attendance/pkg/logging"
	"github.com/dylanstetts/user-meeting-attendance/pkg/metrics"
	"github.com/dylanstetts/user-meeting-attendance/pkg/tracing"
)

// Export command flags.
var (
	exportUser        string
	exportStart       string
	exportEnd         string
	exportTypes       []string
	exportOutputDir   string
	exportConcurrency int
	exportDebug       bool
)

// ExportCmd runs a full attendance export for one user and date range.
var ExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export meeting attendance for a user over a date range",
	Long: `Export meeting attendance for a user over a date range.

Meetings are discovered from the user's calendar, chat call history, and
the tenant call-record log, resolved to online meetings, and expanded
into one CSV row per attendee interval. Meetings that cannot be resolved
or carry no attendance data are written to a separate failures CSV.

Examples:
  # Export June for one user
  attendance export --user alice@example.com --start 2026-06-01 --end 2026-06-30

  # Only scheduled meetings and webinars, custom output directory
  attendance export --user alice@example.com --start 2026-06-01 --end 2026-06-30 \
    --types scheduled,webinar --output ./reports

  # Keep raw report payloads for troubleshooting
  attendance export --user alice@example.com --start 2026-06-01 --end 2026-06-30 --debug`,
	RunE: runExport,
}

func init() {
	ExportCmd.Flags().StringVarP(&exportUser, "user", "u", "", "User principal name (email) to export")
	ExportCmd.Flags().StringVar(&exportStart, "start", "", "Start date (YYYY-MM-DD)")
	ExportCmd.Flags().StringVar(&exportEnd, "end", "", "End date (YYYY-MM-DD, inclusive)")
	ExportCmd.Flags().StringSliceVar(&exportTypes, "types", nil, "Meeting types to include (all, scheduled, adhoc, oneOnOne, webinar, townhall)")
	ExportCmd.Flags().StringVarP(&exportOutputDir, "output", "o", "", "Output directory for CSV files")
	ExportCmd.Flags().IntVar(&exportConcurrency, "concurrency", 0, "Reserved; values above 1 run sequentially")
	ExportCmd.Flags().BoolVar(&exportDebug, "debug", false, "Persist raw report payloads and enable debug logging")
}

// runExport wires configuration, credentials, the Graph client, and the
// pipeline together. Any error before the pipeline starts is fatal and
// nothing is written.
func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadExportConfig()
	if err != nil {
		return err
	}
	start, end, err := cfg.DateRange()
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	log, cleanup, err := newRunLogger(cfg, runID)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	ctx = context.WithValue(ctx, logging.RunIDKey, runID)
	log = log.WithContext(ctx)

	tokens, err := newTokenSource()
	if err != nil {
		return err
	}

	m := metrics.NewRunMetrics()
	if cfg.MetricsAddr != "" {
		go func() {
			if err := m.Serve(ctx, cfg.MetricsAddr); err != nil {
				log.Warn("metrics server stopped", logging.Err(err))
			}
		}()
	}

	gc := client.New(tokens, &client.Options{
		BaseURL:        cfg.GraphBaseURL,
		RequestTimeout: cfg.RequestTimeout,
		MaxRetries:     cfg.MaxRetries,
		RetryBaseDelay: cfg.RetryBaseDelay,
		RequestDelay:   cfg.RequestDelay,
	}, log, m)

	user, err := gc.ResolveUser(ctx, cfg.UserPrincipalName)
	if err != nil {
		if umerrors.IsUnauthorized(err) {
			return fmt.Errorf("authentication rejected, run 'attendance auth login' again: %w", err)
		}
		return fmt.Errorf("resolving user %s: %w", cfg.UserPrincipalName, err)
	}
	log.Info("user resolved",
		logging.F("user_id", user.ID),
		logging.F("display_name", user.DisplayName))

	resolverCache := attendance.NopCache()
	if cfg.Cache.Enabled() {
		rc := cache.New(cache.Options{
			Addr:     cfg.Cache.Addr,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
			TTL:      cfg.Cache.TTL,
		}, log)
		defer rc.Close()
		if err := rc.Ping(ctx); err != nil {
			log.Warn("resolver cache unreachable, continuing without it", logging.Err(err))
		} else {
			resolverCache = rc
		}
	}

	var rawSink attendance.RawSink
	if cfg.Debug {
		dumper := export.NewDebugDumper(cfg.OutputDir, runID)
		rawSink = func(meetingID, reportID string, payload []byte) {
			if path, err := dumper.Dump(payload); err != nil {
				log.Warn("debug payload not written", logging.Err(err))
			} else {
				log.Debug("debug payload written",
					logging.F("meeting_id", meetingID),
					logging.F("report_id", reportID),
					logging.F("path", path))
			}
		}
	}

	tracer := tracing.NewTracer()
	ctx, runSpan := tracer.StartRunSpan(ctx, user.ID, runID)
	defer runSpan.End()
	if traceID := tracing.GetTraceID(ctx); traceID != "" {
		log = log.With(logging.F("trace_id", traceID))
	}

	pipeline := attendance.NewPipeline(&attendance.PipelineDeps{
		Sources: []attendance.Source{
			attendance.NewCalendarSource(gc, log),
			attendance.NewChatSource(gc, log),
			attendance.NewCallRecordSource(gc, log),
			attendance.NewOnlineMeetingSource(),
			attendance.NewBroadcastSource(),
		},
		Classifier:  attendance.NewClassifier(),
		Resolver:    attendance.NewResolver(gc, resolverCache, log),
		Fetcher:     attendance.NewFetcher(gc, rawSink, log),
		TypeFilter:  typeFilter(cfg),
		Concurrency: cfg.Concurrency,
		Metrics:     m,
		Logger:      log,
		Tracer:      tracer,
	})

	result, err := pipeline.Run(ctx, user.ID, start, end)
	if err != nil {
		tracing.SetError(runSpan, err, "run")
		return err
	}
	tracing.SetCounts(runSpan, result.Stats.Candidates, len(result.Rows))

	_, exportSpan := tracer.StartExportSpan(ctx)
	attendancePath := filepath.Join(cfg.OutputDir, export.AttendanceFileName(cfg.UserPrincipalName, start, end))
	failurePath := filepath.Join(cfg.OutputDir, export.FailureFileName(cfg.UserPrincipalName, start, end))
	if err := export.WriteAttendanceCSV(attendancePath, result.Rows); err != nil {
		tracing.SetError(exportSpan, err, "export")
		exportSpan.End()
		return err
	}
	if err := export.WriteFailuresCSV(failurePath, result.Failures); err != nil {
		tracing.SetError(exportSpan, err, "export")
		exportSpan.End()
		return err
	}
	tracing.SetSuccess(exportSpan)
	exportSpan.End()
	tracing.SetSuccess(runSpan)

	printRunSummary(cmd, result, attendancePath, failurePath)
	return nil
}

func loadExportConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	if exportUser != "" {
		cfg.UserPrincipalName = exportUser
	}
	if exportStart != "" {
		cfg.StartDate = exportStart
	}
	if exportEnd != "" {
		cfg.EndDate = exportEnd
	}
	if len(exportTypes) > 0 {
		cfg.MeetingTypes = nil
		for _, t := range exportTypes {
			cfg.MeetingTypes = append(cfg.MeetingTypes, config.MeetingType(t))
		}
	}
	if exportOutputDir != "" {
		cfg.OutputDir = exportOutputDir
	}
	if exportConcurrency > 0 {
		cfg.Concurrency = exportConcurrency
	}
	if exportDebug {
		cfg.Debug = true
		cfg.LogLevel = string(logging.LevelDebug)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.UserPrincipalName == "" {
		return nil, fmt.Errorf("%w: a user principal name is required (--user or ATTENDANCE_USER)", umerrors.ErrValidation)
	}
	return cfg, nil
}

// newRunLogger builds the run logger, attaching a file sink when a run
// log path is configured. The returned cleanup drains the sink.
func newRunLogger(cfg *config.Config, runID string) (logging.Logger, func(), error) {
	logCfg := &logging.Config{
		Level:      logging.Level(cfg.LogLevel),
		JSONFormat: cfg.LogJSON,
	}

	cleanup := func() {}
	if cfg.LogFile != "" {
		sink, err := logging.NewFileSink(logging.FileSinkConfig{Path: cfg.LogFile})
		if err != nil {
			return nil, nil, fmt.Errorf("opening run log %s: %w", cfg.LogFile, err)
		}
		logCfg.Sinks = []logging.Sink{sink}
		cleanup = func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = sink.Flush(ctx)
			_ = sink.Close()
		}
	}

	log := logging.NewLogger(logCfg).With(logging.F("run_id", runID))
	return log, cleanup, nil
}

// newTokenSource builds a Graph token source from environment variables
// or the encrypted credential store, in that order.
func newTokenSource() (client.TokenSource, error) {
	if token := os.Getenv("ATTENDANCE_TOKEN"); token != "" {
		return client.StaticTokenSource(token), nil
	}

	store, err := credentials.NewStore()
	if err != nil {
		return nil, fmt.Errorf("opening credential store: %w", err)
	}
	creds, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("loading credentials (run 'attendance auth login'): %w", err)
	}

	switch creds.AuthType {
	case credentials.AuthTypeToken:
		return client.StaticTokenSource(creds.Token), nil
	case credentials.AuthTypeClientSecret:
		return &client.ClientCredentialsTokenSource{
			TenantID:     creds.TenantID,
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported auth type %q", creds.AuthType)
	}
}

// typeFilter maps the configured meeting-type selection onto the
// pipeline's classification types. Nil means no filtering.
func typeFilter(cfg *config.Config) func(attendance.MeetingType) bool {
	if cfg.HasMeetingType(config.MeetingTypeAll) {
		return nil
	}

	allowed := make(map[attendance.MeetingType]bool)
	for _, t := range cfg.MeetingTypes {
		switch t {
		case config.MeetingTypeScheduled:
			allowed[attendance.TypeScheduled] = true
		case config.MeetingTypeAdHoc:
			allowed[attendance.TypeInstant] = true
		case config.MeetingTypeOneOnOne:
			allowed[attendance.TypeOneOnOne] = true
		case config.MeetingTypeWebinar:
			allowed[attendance.TypeWebinar] = true
		case config.MeetingTypeTownhall:
			allowed[attendance.TypeTownhall] = true
			allowed[attendance.TypeBroadcast] = true
		}
	}
	if len(allowed) == 0 {
		return nil
	}
	return func(mt attendance.MeetingType) bool { return allowed[mt] }
}

func printRunSummary(cmd *cobra.Command, result *attendance.Result, attendancePath, failurePath string) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Export complete")
	fmt.Fprintf(out, "  Candidates discovered: %d\n", result.Stats.Candidates)
	fmt.Fprintf(out, "  Resolved meetings:     %d\n", result.Stats.Resolved)
	fmt.Fprintf(out, "  Attendance rows:       %d\n", len(result.Rows))
	fmt.Fprintf(out, "  Duplicates removed:    %d\n", result.Stats.Duplicates)
	fmt.Fprintf(out, "  Failures:              %d\n", result.Stats.Failures)
	if result.Stats.ChannelErrors > 0 {
		fmt.Fprintf(out, "  Channels unavailable:  %d\n", result.Stats.ChannelErrors)
	}
	fmt.Fprintf(out, "\n  Attendance CSV: %s\n", attendancePath)
	fmt.Fprintf(out, "  Failures CSV:   %s\n", failurePath)
}
