package attendance

import (
	"context"
	"time"

	umerrors "github.com/dylanstetts/user-meeting-attendance/pkg/errors"
	"github.com/dylanstetts/user-meeting-attendance/pkg/logging"
	"github.com/dylanstetts/user-meeting-attendance/pkg/metrics"
	"github.com/dylanstetts/user-meeting-attendance/pkg/tracing"
)

// PipelineDeps carries the collaborators a Pipeline needs.
type PipelineDeps struct {
	Sources    []Source
	Classifier *Classifier
	Resolver   *Resolver
	Fetcher    *Fetcher

	// TypeFilter limits which meeting types proceed to attendance
	// fetching. Nil admits everything. Source channels that cannot
	// produce any admitted type are skipped entirely; candidates from
	// admitted channels are filtered individually by their classified
	// or call-derived type.
	TypeFilter func(MeetingType) bool

	// Concurrency is accepted for forward compatibility. Values above 1
	// are logged and ignored: the Graph client paces requests with a
	// fixed delay, and parallel candidates would defeat that pacing.
	Concurrency int

	Metrics *metrics.RunMetrics
	Logger  logging.Logger
	Tracer  *tracing.Tracer

	// Now supplies the classifier's reference time. Defaults to time.Now.
	Now func() time.Time
}

// Pipeline runs discovery, classification, resolution, and attendance
// fetching for one user and date range in a single sequential pass.
type Pipeline struct {
	deps PipelineDeps
}

// NewPipeline creates a Pipeline.
func NewPipeline(deps *PipelineDeps) *Pipeline {
	d := *deps
	if d.Logger == nil {
		d.Logger = logging.NopLogger()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Classifier == nil {
		d.Classifier = NewClassifier()
	}
	if d.Tracer == nil {
		// Spans are no-ops until the host installs a tracer provider.
		d.Tracer = tracing.NewTracer()
	}
	return &Pipeline{deps: d}
}

// RunStats totals one pipeline run.
type RunStats struct {
	Candidates    int
	Skipped       int
	Resolved      int
	Unresolved    int
	RowsEmitted   int
	Duplicates    int
	Failures      int
	ChannelErrors int
}

// Result is the output of one pipeline run. Every processed candidate
// contributed either rows or exactly one failure entry.
type Result struct {
	Rows     []Row
	Failures []FailureEntry
	Stats    RunStats
}

// channelMeetingTypes lists the meeting types each discovery channel can
// produce, used to skip whole channels under a type filter. Chat and
// call-record discovery only ever surface calls, never scheduled
// meetings or broadcasts.
var channelMeetingTypes = map[SourceChannel][]MeetingType{
	ChannelCalendar:      {TypeScheduled, TypeInstant, TypeOneOnOne, TypeWebinar, TypeTownhall, TypeBroadcast},
	ChannelChatCall:      {TypeInstant, TypeOneOnOne},
	ChannelChatActivity:  {TypeInstant, TypeOneOnOne},
	ChannelCallRecord:    {TypeInstant, TypeOneOnOne},
	ChannelOnlineMeeting: {TypeWebinar},
	ChannelBroadcast:     {TypeTownhall, TypeBroadcast},
}

// Run executes the pipeline. Channel-level failures are recorded and
// the remaining channels still run; Run itself only fails on context
// cancellation.
func (p *Pipeline) Run(ctx context.Context, userID string, start, end time.Time) (*Result, error) {
	if p.deps.Concurrency > 1 {
		p.deps.Logger.Warn("concurrency above 1 is not supported, running sequentially",
			logging.F("requested", p.deps.Concurrency))
	}

	result := &Result{}
	processed := NewProcessedIDSet()
	now := p.deps.Now()

	for _, source := range p.deps.Sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		channel := source.Channel()
		if !p.channelAdmitted(channel) {
			p.deps.Logger.Debug("channel excluded by meeting-type filter",
				logging.F("channel", string(channel)))
			continue
		}
		if err := p.runChannel(ctx, source, userID, start, end, now, processed, result); err != nil {
			return nil, err
		}
	}

	deduped, dropped := Deduplicate(result.Rows)
	result.Rows = deduped
	result.Stats.Duplicates = dropped
	p.countDeduplicated(dropped)

	p.deps.Logger.Info("run complete",
		logging.F("candidates", result.Stats.Candidates),
		logging.F("rows", len(result.Rows)),
		logging.F("duplicates", dropped),
		logging.F("failures", result.Stats.Failures),
		logging.F("channel_errors", result.Stats.ChannelErrors))
	return result, nil
}

// runChannel discovers one channel and processes its candidates. A
// discovery failure is recorded and swallowed; only context cancellation
// propagates.
func (p *Pipeline) runChannel(ctx context.Context, source Source, userID string, start, end, now time.Time, processed *ProcessedIDSet, result *Result) error {
	channel := source.Channel()
	ctx, span := p.deps.Tracer.StartChannelSpan(ctx, string(channel))
	defer span.End()

	candidates, err := source.Discover(ctx, userID, start, end)
	if err != nil {
		// One unavailable channel must not abort the run.
		tracing.SetError(span, err, "discover")
		if umerrors.IsChannelUnavailable(err) {
			p.deps.Logger.Warn("source channel unavailable",
				logging.F("channel", string(channel)), logging.Err(err))
		} else {
			p.deps.Logger.Error("source channel failed",
				logging.F("channel", string(channel)), logging.Err(err))
		}
		result.Stats.ChannelErrors++
		p.countChannelFailure(channel)
		return nil
	}
	p.countCandidates(channel, len(candidates))
	result.Stats.Candidates += len(candidates)

	rowsBefore := len(result.Rows)
	for _, cand := range candidates {
		if err := ctx.Err(); err != nil {
			return err
		}
		p.processCandidate(ctx, userID, cand, now, processed, result)
	}
	tracing.SetCounts(span, len(candidates), len(result.Rows)-rowsBefore)
	tracing.SetSuccess(span)
	return nil
}

func (p *Pipeline) processCandidate(ctx context.Context, userID string, cand *MeetingCandidate, now time.Time, processed *ProcessedIDSet, result *Result) {
	if cand.SourceChannel == ChannelCalendar {
		cl := p.deps.Classifier.Classify(cand, now)
		cand.Classification = &cl
	}
	if p.deps.TypeFilter != nil && !p.deps.TypeFilter(candidateMeetingType(cand)) {
		result.Stats.Skipped++
		return
	}

	resolvedID := cand.OnlineMeetingID
	if p.deps.Resolver != nil {
		rctx, rspan := p.deps.Tracer.StartResolveSpan(ctx, cand.ID)
		resolvedID = p.deps.Resolver.Resolve(rctx, userID, cand)
		rspan.End()
	}
	if resolvedID != "" {
		result.Stats.Resolved++
		p.countResolved()
	} else {
		result.Stats.Unresolved++
		p.countUnresolved()
	}

	// The same meeting can surface through several channels; the first
	// channel that reaches it owns it. Unresolved candidates fall back
	// to their channel-scoped id, which is unique per channel.
	key := resolvedID
	if key == "" {
		key = string(cand.SourceChannel) + "/" + cand.ID
	}
	if processed.Seen(key) {
		result.Stats.Skipped++
		return
	}
	processed.Mark(key)

	fctx, fspan := p.deps.Tracer.StartFetchSpan(ctx, resolvedID)
	rows, err := p.deps.Fetcher.Fetch(fctx, userID, cand)
	if err != nil {
		tracing.SetError(fspan, err, failureReason(err))
		fspan.End()
		result.Failures = append(result.Failures, FailureEntry{
			Subject:       cand.Subject,
			StartTime:     cand.StartTime,
			SourceChannel: cand.SourceChannel,
			ErrorReason:   err.Error(),
		})
		result.Stats.Failures++
		p.countFailure(err)
		return
	}
	tracing.SetSuccess(fspan)
	fspan.End()

	result.Rows = append(result.Rows, rows...)
	result.Stats.RowsEmitted += len(rows)
	p.countRows(rows)
}

// channelAdmitted reports whether the type filter admits at least one
// meeting type the channel can produce. Unknown channels always run.
func (p *Pipeline) channelAdmitted(channel SourceChannel) bool {
	if p.deps.TypeFilter == nil {
		return true
	}
	types, ok := channelMeetingTypes[channel]
	if !ok {
		return true
	}
	for _, t := range types {
		if p.deps.TypeFilter(t) {
			return true
		}
	}
	return false
}

// candidateMeetingType is the type the filter sees. Calendar candidates
// carry a classification; call-derived candidates map direct calls onto
// the one-on-one type and everything else onto instant.
func candidateMeetingType(cand *MeetingCandidate) MeetingType {
	if cand.Classification != nil {
		return cand.Classification.Type
	}
	switch cand.SourceChannel {
	case ChannelOnlineMeeting:
		return TypeWebinar
	case ChannelBroadcast:
		return TypeBroadcast
	default:
		if cand.CallType == callTypeDirect {
			return TypeOneOnOne
		}
		return TypeInstant
	}
}

func (p *Pipeline) countCandidates(channel SourceChannel, n int) {
	if p.deps.Metrics != nil && n > 0 {
		p.deps.Metrics.CandidatesTotal.WithLabelValues(string(channel)).Add(float64(n))
	}
}

func (p *Pipeline) countChannelFailure(channel SourceChannel) {
	if p.deps.Metrics != nil {
		p.deps.Metrics.ChannelFailures.WithLabelValues(string(channel)).Inc()
	}
}

func (p *Pipeline) countResolved() {
	if p.deps.Metrics != nil {
		p.deps.Metrics.MeetingsResolved.Inc()
	}
}

func (p *Pipeline) countUnresolved() {
	if p.deps.Metrics != nil {
		p.deps.Metrics.MeetingsUnresolved.Inc()
	}
}

func (p *Pipeline) countRows(rows []Row) {
	if p.deps.Metrics == nil {
		return
	}
	p.deps.Metrics.RowsEmitted.Add(float64(len(rows)))
	for _, row := range rows {
		p.deps.Metrics.AttendanceSeconds.Observe(float64(row.DurationSeconds))
	}
}

func (p *Pipeline) countDeduplicated(n int) {
	if p.deps.Metrics != nil && n > 0 {
		p.deps.Metrics.RowsDeduplicated.Add(float64(n))
	}
}

func (p *Pipeline) countFailure(err error) {
	if p.deps.Metrics != nil {
		p.deps.Metrics.FailuresRecorded.WithLabelValues(failureReason(err)).Inc()
	}
}

// failureReason buckets a fetch error into a stable metric label.
func failureReason(err error) string {
	switch {
	case umerrors.IsNoOnlineMeeting(err):
		return "no_online_meeting"
	case umerrors.IsNoAttendanceReports(err):
		return "no_reports"
	case umerrors.IsNoAttendanceRecords(err):
		return "no_records"
	case umerrors.IsNotFound(err):
		return "not_found"
	case umerrors.IsForbidden(err):
		return "forbidden"
	case umerrors.IsThrottled(err):
		return "throttled"
	default:
		return "other"
	}
}
