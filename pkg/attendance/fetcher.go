package attendance

import (
	"context"
	"fmt"

	"github.com/dylanstetts/user-meeting-attendance/client"
	umerrors "github.com/dylanstetts/user-meeting-attendance/pkg/errors"
	"github.com/dylanstetts/user-meeting-attendance/pkg/logging"
)

// RawSink receives the raw JSON payload of each expanded attendance
// report. Used for debug persistence; may be nil.
type RawSink func(meetingID, reportID string, payload []byte)

// Fetcher expands attendance reports for resolved candidates into flat
// rows.
type Fetcher struct {
	api     MeetingAPI
	rawSink RawSink
	log     logging.Logger
}

// NewFetcher creates a Fetcher. rawSink may be nil.
func NewFetcher(api MeetingAPI, rawSink RawSink, log logging.Logger) *Fetcher {
	if log == nil {
		log = logging.NopLogger()
	}
	return &Fetcher{api: api, rawSink: rawSink, log: log}
}

// Fetch lists the candidate's attendance reports and flattens every
// record interval into a Row. A report that fails to expand is skipped
// so the remaining reports still contribute rows. The error return is
// non-nil exactly when zero rows result, so each candidate ends in
// either rows or a single failure, never both and never neither.
func (f *Fetcher) Fetch(ctx context.Context, userID string, cand *MeetingCandidate) ([]Row, error) {
	if cand.OnlineMeetingID == "" {
		return nil, umerrors.ErrNoOnlineMeeting
	}

	reports, err := f.api.ListAttendanceReports(ctx, userID, cand.OnlineMeetingID)
	if err != nil {
		return nil, fmt.Errorf("listing attendance reports: %w", err)
	}
	if len(reports) == 0 {
		return nil, umerrors.ErrNoAttendanceReports
	}

	var rows []Row
	var lastErr error
	for _, summary := range reports {
		report, raw, err := f.api.GetAttendanceReport(ctx, userID, cand.OnlineMeetingID, summary.ID)
		if err != nil {
			f.log.Warn("attendance report expansion failed",
				logging.F("meeting_id", cand.OnlineMeetingID),
				logging.F("report_id", summary.ID),
				logging.Err(err))
			lastErr = err
			continue
		}
		if f.rawSink != nil {
			f.rawSink(cand.OnlineMeetingID, summary.ID, raw)
		}
		rows = append(rows, f.flatten(cand, report)...)
	}

	if len(rows) == 0 {
		if lastErr != nil {
			return nil, fmt.Errorf("expanding attendance reports: %w", lastErr)
		}
		return nil, umerrors.ErrNoAttendanceRecords
	}
	return rows, nil
}

// flatten expands each attendance record into one Row per interval. A
// record without intervals still yields one Row carrying the record's
// total seconds, so attendees are never dropped.
func (f *Fetcher) flatten(cand *MeetingCandidate, report *client.AttendanceReport) []Row {
	base := Row{
		MeetingID:     cand.OnlineMeetingID,
		Subject:       cand.Subject,
		SourceChannel: cand.SourceChannel,
		MeetingType:   TypeScheduled,
		Category:      CategoryRegular,
		MeetingStart:  cand.StartTime,
		MeetingEnd:    cand.EndTime,
		ReportID:      report.ID,
	}
	if cand.Classification != nil {
		base.MeetingType = cand.Classification.Type
		base.Category = cand.Classification.Category
	}
	if t, ok := client.ParseGraphTime(report.MeetingStartDateTime); ok {
		base.MeetingStart = t
	}
	if t, ok := client.ParseGraphTime(report.MeetingEndDateTime); ok {
		base.MeetingEnd = t
	}

	var rows []Row
	for _, rec := range report.AttendanceRecords {
		row := base
		row.AttendeeID = rec.ID
		row.AttendeeEmail = rec.EmailAddress
		row.Role = ParseRole(rec.Role)
		if rec.Identity != nil {
			row.AttendeeName = rec.Identity.DisplayName
			if rec.Identity.ID != "" {
				row.AttendeeID = rec.Identity.ID
			}
		}

		if len(rec.AttendanceIntervals) == 0 {
			row.DurationSeconds = rec.TotalAttendanceInSeconds
			rows = append(rows, row)
			continue
		}
		for _, iv := range rec.AttendanceIntervals {
			r := row
			if t, ok := client.ParseGraphTime(iv.JoinDateTime); ok {
				r.JoinTime = t
			}
			if t, ok := client.ParseGraphTime(iv.LeaveDateTime); ok {
				r.LeaveTime = t
			}
			r.DurationSeconds = iv.DurationInSeconds
			rows = append(rows, r)
		}
	}
	return rows
}
