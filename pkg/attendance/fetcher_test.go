package attendance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dylanstetts/user-meeting-attendance/client"
	umerrors "github.com/dylanstetts/user-meeting-attendance/pkg/errors"
)

func TestFetch_UnresolvedCandidate(t *testing.T) {
	f := NewFetcher(&fakeMeetingAPI{}, nil, nil)
	_, err := f.Fetch(context.Background(), "user-1", &MeetingCandidate{ID: "c1"})
	assert.ErrorIs(t, err, umerrors.ErrNoOnlineMeeting)
}

func TestFetch_NoReports(t *testing.T) {
	f := NewFetcher(&fakeMeetingAPI{}, nil, nil)
	_, err := f.Fetch(context.Background(), "user-1",
		&MeetingCandidate{ID: "c1", OnlineMeetingID: "om-1"})
	assert.ErrorIs(t, err, umerrors.ErrNoAttendanceReports)
}

func TestFetch_FlattensIntervalsToRows(t *testing.T) {
	// Attendee A has two intervals, attendee B has one: three rows total.
	api := &fakeMeetingAPI{
		reports: map[string][]client.AttendanceReport{
			"om-1": {{ID: "rep-1"}},
		},
		expanded: map[string]*client.AttendanceReport{
			"rep-1": {
				ID:                   "rep-1",
				MeetingStartDateTime: "2026-06-10T10:00:00Z",
				MeetingEndDateTime:   "2026-06-10T11:00:00Z",
				AttendanceRecords: []client.AttendanceRecord{
					{
						EmailAddress: "a@example.com",
						Role:         "Organizer",
						Identity:     &client.Identity{ID: "att-a", DisplayName: "Alice"},
						AttendanceIntervals: []client.AttendanceInterval{
							{JoinDateTime: "2026-06-10T10:00:00Z", LeaveDateTime: "2026-06-10T10:20:00Z", DurationInSeconds: 1200},
							{JoinDateTime: "2026-06-10T10:25:00Z", LeaveDateTime: "2026-06-10T11:00:00Z", DurationInSeconds: 2100},
						},
					},
					{
						EmailAddress: "b@example.com",
						Role:         "Attendee",
						Identity:     &client.Identity{ID: "att-b", DisplayName: "Bob"},
						AttendanceIntervals: []client.AttendanceInterval{
							{JoinDateTime: "2026-06-10T10:05:00Z", LeaveDateTime: "2026-06-10T10:55:00Z", DurationInSeconds: 3000},
						},
					},
				},
			},
		},
	}

	cand := &MeetingCandidate{
		ID:              "c1",
		Subject:         "Design review",
		SourceChannel:   ChannelCalendar,
		OnlineMeetingID: "om-1",
		Classification:  &Classification{Type: TypeScheduled, Category: CategoryRegular},
	}

	f := NewFetcher(api, nil, nil)
	rows, err := f.Fetch(context.Background(), "user-1", cand)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	first := rows[0]
	assert.Equal(t, "om-1", first.MeetingID)
	assert.Equal(t, "rep-1", first.ReportID)
	assert.Equal(t, "att-a", first.AttendeeID)
	assert.Equal(t, "Alice", first.AttendeeName)
	assert.Equal(t, RoleOrganizer, first.Role)
	assert.Equal(t, 1200, first.DurationSeconds)
	assert.Equal(t, time.Date(2026, 6, 10, 10, 0, 0, 0, time.UTC), first.JoinTime)
	assert.Equal(t, time.Date(2026, 6, 10, 10, 0, 0, 0, time.UTC), first.MeetingStart)

	assert.Equal(t, 2100, rows[1].DurationSeconds)
	assert.Equal(t, "att-b", rows[2].AttendeeID)
	assert.Equal(t, 3000, rows[2].DurationSeconds)
}

func TestFetch_PartialReportFailure(t *testing.T) {
	// First report fails to expand, second succeeds with one record with
	// one interval: one row and no error.
	api := &fakeMeetingAPI{
		reports: map[string][]client.AttendanceReport{
			"om-1": {{ID: "rep-bad"}, {ID: "rep-good"}},
		},
		expandErr: map[string]error{"rep-bad": errors.New("500")},
		expanded: map[string]*client.AttendanceReport{
			"rep-good": {
				ID: "rep-good",
				AttendanceRecords: []client.AttendanceRecord{
					{
						Identity: &client.Identity{ID: "att-1"},
						AttendanceIntervals: []client.AttendanceInterval{
							{JoinDateTime: "2026-06-10T10:00:00Z", DurationInSeconds: 600},
						},
					},
				},
			},
		},
	}

	f := NewFetcher(api, nil, nil)
	rows, err := f.Fetch(context.Background(), "user-1",
		&MeetingCandidate{ID: "c1", OnlineMeetingID: "om-1"})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestFetch_AllReportsFail(t *testing.T) {
	api := &fakeMeetingAPI{
		reports:   map[string][]client.AttendanceReport{"om-1": {{ID: "rep-1"}}},
		expandErr: map[string]error{"rep-1": errors.New("boom")},
	}

	f := NewFetcher(api, nil, nil)
	_, err := f.Fetch(context.Background(), "user-1",
		&MeetingCandidate{ID: "c1", OnlineMeetingID: "om-1"})
	assert.ErrorContains(t, err, "boom")
}

func TestFetch_ReportsWithoutRecords(t *testing.T) {
	api := &fakeMeetingAPI{
		reports:  map[string][]client.AttendanceReport{"om-1": {{ID: "rep-1"}}},
		expanded: map[string]*client.AttendanceReport{"rep-1": {ID: "rep-1"}},
	}

	f := NewFetcher(api, nil, nil)
	_, err := f.Fetch(context.Background(), "user-1",
		&MeetingCandidate{ID: "c1", OnlineMeetingID: "om-1"})
	assert.ErrorIs(t, err, umerrors.ErrNoAttendanceRecords)
}

func TestFetch_RecordWithoutIntervalsStillYieldsRow(t *testing.T) {
	api := &fakeMeetingAPI{
		reports: map[string][]client.AttendanceReport{"om-1": {{ID: "rep-1"}}},
		expanded: map[string]*client.AttendanceReport{
			"rep-1": {
				ID: "rep-1",
				AttendanceRecords: []client.AttendanceRecord{
					{Identity: &client.Identity{ID: "att-1"}, TotalAttendanceInSeconds: 900},
				},
			},
		},
	}

	f := NewFetcher(api, nil, nil)
	rows, err := f.Fetch(context.Background(), "user-1",
		&MeetingCandidate{ID: "c1", OnlineMeetingID: "om-1"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 900, rows[0].DurationSeconds)
	assert.True(t, rows[0].JoinTime.IsZero())
}

func TestFetch_RawSinkReceivesPayloads(t *testing.T) {
	payload := []byte(`{"id":"rep-1"}`)
	api := &fakeMeetingAPI{
		reports: map[string][]client.AttendanceReport{"om-1": {{ID: "rep-1"}}},
		expanded: map[string]*client.AttendanceReport{
			"rep-1": {
				ID: "rep-1",
				AttendanceRecords: []client.AttendanceRecord{
					{Identity: &client.Identity{ID: "att-1"}, TotalAttendanceInSeconds: 60},
				},
			},
		},
		raw: map[string][]byte{"rep-1": payload},
	}

	var gotMeeting, gotReport string
	var gotPayload []byte
	sink := func(meetingID, reportID string, raw []byte) {
		gotMeeting, gotReport, gotPayload = meetingID, reportID, raw
	}

	f := NewFetcher(api, sink, nil)
	_, err := f.Fetch(context.Background(), "user-1",
		&MeetingCandidate{ID: "c1", OnlineMeetingID: "om-1"})
	require.NoError(t, err)
	assert.Equal(t, "om-1", gotMeeting)
	assert.Equal(t, "rep-1", gotReport)
	assert.Equal(t, payload, gotPayload)
}
