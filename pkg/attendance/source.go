// Package attendance implements meeting discovery, classification,
// resolution, and attendance-report flattening for a single user over a
// date range.
package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/dylanstetts/user-meeting-attendance/client"
	umerrors "github.com/dylanstetts/user-meeting-attendance/pkg/errors"
)

// Source discovers meeting candidates from one channel. Implementations
// must not mutate candidates after returning them.
type Source interface {
	// Channel identifies the discovery channel.
	Channel() SourceChannel

	// Discover returns the candidates found for the user in [start, end].
	// A partial result with an error is discarded by the caller.
	Discover(ctx context.Context, userID string, start, end time.Time) ([]*MeetingCandidate, error)
}

// channelError tags a discovery listing failure. A 403 means the app
// registration lacks the channel's Graph permission, so the whole
// channel is unavailable rather than one request having failed.
func channelError(err error) error {
	if umerrors.IsForbidden(err) {
		return fmt.Errorf("%w: %w", umerrors.ErrChannelUnavailable, err)
	}
	return err
}

// CalendarAPI is the slice of the Graph client the calendar source needs.
type CalendarAPI interface {
	ListCalendarView(ctx context.Context, userID string, start, end time.Time) ([]client.CalendarEvent, error)
}

// ChatAPI is the slice of the Graph client the chat source needs.
type ChatAPI interface {
	ListChats(ctx context.Context, userID string, start, end time.Time) ([]client.Chat, error)
	ListChatMessages(ctx context.Context, chatID string) ([]client.ChatMessage, error)
}

// CallRecordAPI is the slice of the Graph client the call-record source needs.
type CallRecordAPI interface {
	ListCallRecords(ctx context.Context) ([]client.CallRecord, error)
	ListCallRecordSessions(ctx context.Context, callID string) ([]client.CallSession, error)
}

// MeetingAPI is the slice of the Graph client the resolver and the
// attendance fetcher need.
type MeetingAPI interface {
	FindOnlineMeetingByJoinURL(ctx context.Context, userID, joinURL string) (*client.OnlineMeeting, error)
	ListAttendanceReports(ctx context.Context, userID, meetingID string) ([]client.AttendanceReport, error)
	GetAttendanceReport(ctx context.Context, userID, meetingID, reportID string) (*client.AttendanceReport, []byte, error)
}
