// This file contains online-meeting resolution and attendance-report fetching.
package client

import (
	"context"
	"fmt"
	"net/url"
)

// OnlineMeeting is the subset of the Graph onlineMeeting resource the
// exporter needs.
type OnlineMeeting struct {
	ID            string `json:"id"`
	Subject       string `json:"subject"`
	JoinWebURL    string `json:"joinWebUrl"`
	StartDateTime string `json:"startDateTime"`
	EndDateTime   string `json:"endDateTime"`
}

// AttendanceReport is the report header; one meeting may carry several
// reports across recurrence occurrences or corrections.
type AttendanceReport struct {
	ID                    string             `json:"id"`
	TotalParticipantCount int                `json:"totalParticipantCount"`
	MeetingStartDateTime  string             `json:"meetingStartDateTime"`
	MeetingEndDateTime    string             `json:"meetingEndDateTime"`
	AttendanceRecords     []AttendanceRecord `json:"attendanceRecords,omitempty"`
}

// AttendanceRecord is one attendee's participation in one report.
type AttendanceRecord struct {
	ID                       string               `json:"id"`
	EmailAddress             string               `json:"emailAddress"`
	Role                     string               `json:"role"`
	TotalAttendanceInSeconds int                  `json:"totalAttendanceInSeconds"`
	Identity                 *Identity            `json:"identity,omitempty"`
	AttendanceIntervals      []AttendanceInterval `json:"attendanceIntervals,omitempty"`
}

// AttendanceInterval is one contiguous join/leave span; a record has several
// when the attendee rejoined.
type AttendanceInterval struct {
	JoinDateTime      string `json:"joinDateTime"`
	LeaveDateTime     string `json:"leaveDateTime"`
	DurationInSeconds int    `json:"durationInSeconds"`
}

// FindOnlineMeetingByJoinURL queries for an online meeting whose join link
// matches exactly. Returns nil (not an error) when no meeting matches.
func (c *Client) FindOnlineMeetingByJoinURL(ctx context.Context, userID, joinURL string) (*OnlineMeeting, error) {
	query := url.Values{
		"$filter": {fmt.Sprintf("JoinWebUrl eq '%s'", joinURL)},
	}

	var page struct {
		Value []OnlineMeeting `json:"value"`
	}
	path := "/users/" + url.PathEscape(userID) + "/onlineMeetings"
	if _, err := c.Get(ctx, path, query, &page); err != nil {
		return nil, fmt.Errorf("finding online meeting by join url: %w", err)
	}

	if len(page.Value) == 0 {
		return nil, nil
	}
	return &page.Value[0], nil
}

// ListAttendanceReports lists the attendance-report headers for a meeting.
func (c *Client) ListAttendanceReports(ctx context.Context, userID, meetingID string) ([]AttendanceReport, error) {
	var page struct {
		Value []AttendanceReport `json:"value"`
	}
	path := "/users/" + url.PathEscape(userID) + "/onlineMeetings/" + url.PathEscape(meetingID) + "/attendanceReports"
	if _, err := c.Get(ctx, path, nil, &page); err != nil {
		return nil, fmt.Errorf("listing attendance reports for meeting %s: %w", meetingID, err)
	}
	return page.Value, nil
}

// GetAttendanceReport fetches one report expanded with its attendance
// records. The raw payload is returned alongside the decoded report so debug
// mode can persist it verbatim before flattening.
func (c *Client) GetAttendanceReport(ctx context.Context, userID, meetingID, reportID string) (*AttendanceReport, []byte, error) {
	query := url.Values{
		"$expand": {"attendanceRecords"},
	}

	var report AttendanceReport
	path := "/users/" + url.PathEscape(userID) + "/onlineMeetings/" + url.PathEscape(meetingID) +
		"/attendanceReports/" + url.PathEscape(reportID)
	raw, err := c.Get(ctx, path, query, &report)
	if err != nil {
		return nil, nil, fmt.Errorf("expanding attendance report %s: %w", reportID, err)
	}
	return &report, raw, nil
}
