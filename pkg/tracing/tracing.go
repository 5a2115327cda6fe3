// Package tracing wraps OpenTelemetry spans for the attendance
// pipeline. The global tracer provider is supplied by the host process;
// without one, spans are no-ops.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the name of the tracer for attendance operations.
const TracerName = "attendance"

// Span attribute keys
const (
	AttrUserID      = "user_id"
	AttrRunID       = "run_id"
	AttrChannel     = "source_channel"
	AttrCandidateID = "candidate_id"
	AttrMeetingID   = "meeting_id"
	AttrReportID    = "report_id"
	AttrCandidates  = "candidates"
	AttrRows        = "rows"
	AttrErrorReason = "error_reason"
)

// Span names
const (
	SpanRun     = "attendance.run"
	SpanChannel = "attendance.channel"
	SpanResolve = "attendance.resolve"
	SpanFetch   = "attendance.fetch_report"
	SpanExport  = "attendance.export"
)

// Tracer provides distributed tracing for attendance runs.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer creates a new attendance tracer.
func NewTracer() *Tracer {
	return &Tracer{tracer: otel.Tracer(TracerName)}
}

// StartRunSpan starts a root span for a full export run.
func (t *Tracer) StartRunSpan(ctx context.Context, userID, runID string) (context.Context, trace.Span) {
	ctx, span := t.tracer.Start(ctx, SpanRun,
		trace.WithAttributes(attribute.String(AttrUserID, userID)),
	)
	if runID != "" {
		span.SetAttributes(attribute.String(AttrRunID, runID))
	}
	return ctx, span
}

// StartChannelSpan starts a span for one source channel's discovery.
func (t *Tracer) StartChannelSpan(ctx context.Context, channel string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanChannel,
		trace.WithAttributes(attribute.String(AttrChannel, channel)),
	)
}

// StartResolveSpan starts a span for resolving one candidate.
func (t *Tracer) StartResolveSpan(ctx context.Context, candidateID string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanResolve,
		trace.WithAttributes(attribute.String(AttrCandidateID, candidateID)),
	)
}

// StartFetchSpan starts a span for expanding one attendance report.
func (t *Tracer) StartFetchSpan(ctx context.Context, meetingID string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanFetch,
		trace.WithAttributes(attribute.String(AttrMeetingID, meetingID)),
	)
}

// StartExportSpan starts a span for writing the output files.
func (t *Tracer) StartExportSpan(ctx context.Context) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanExport)
}

// SetCounts records discovery and output totals on a span.
func SetCounts(span trace.Span, candidates, rows int) {
	span.SetAttributes(
		attribute.Int(AttrCandidates, candidates),
		attribute.Int(AttrRows, rows),
	)
}

// SetError records an error on the span.
func SetError(span trace.Span, err error, reason string) {
	span.SetStatus(codes.Error, err.Error())
	if reason != "" {
		span.SetAttributes(attribute.String(AttrErrorReason, reason))
	}
	span.RecordError(err)
}

// SetSuccess marks the span as successful.
func SetSuccess(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}

// GetTraceID returns the trace ID from the context.
func GetTraceID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().HasTraceID() {
		return span.SpanContext().TraceID().String()
	}
	return ""
}
