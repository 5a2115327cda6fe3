package attendance

import (
	"context"
	"time"

	"github.com/dylanstetts/user-meeting-attendance/pkg/logging"
)

const providerTeams = "teamsForBusiness"

// CalendarSource discovers Teams meetings from the user's calendar view.
type CalendarSource struct {
	api CalendarAPI
	log logging.Logger
}

// NewCalendarSource creates a CalendarSource.
func NewCalendarSource(api CalendarAPI, log logging.Logger) *CalendarSource {
	if log == nil {
		log = logging.NopLogger()
	}
	return &CalendarSource{api: api, log: log}
}

func (s *CalendarSource) Channel() SourceChannel { return ChannelCalendar }

// Discover lists the calendar view and keeps only Teams online meetings.
// Events without a Teams provider or without the online-meeting flag are
// skipped; they cannot carry attendance reports.
func (s *CalendarSource) Discover(ctx context.Context, userID string, start, end time.Time) ([]*MeetingCandidate, error) {
	events, err := s.api.ListCalendarView(ctx, userID, start, end)
	if err != nil {
		return nil, channelError(err)
	}

	var out []*MeetingCandidate
	for _, ev := range events {
		if !ev.IsOnlineMeeting || ev.OnlineMeetingProvider != providerTeams {
			continue
		}

		cand := &MeetingCandidate{
			ID:              ev.ID,
			Subject:         ev.Subject,
			SourceChannel:   ChannelCalendar,
			IsOnlineMeeting: true,
			RawEventType:    ev.Type,
			AttendeeCount:   len(ev.Attendees),
			UserInvolved:    true,
		}
		if ev.OnlineMeeting != nil {
			cand.JoinURL = ev.OnlineMeeting.JoinURL
		}
		if ev.Organizer != nil {
			cand.OrganizerAddress = ev.Organizer.EmailAddress.Address
		}
		if t, ok := ev.Start.Time(); ok {
			cand.StartTime = t
		}
		if t, ok := ev.End.Time(); ok {
			cand.EndTime = t
		}
		out = append(out, cand)
	}

	s.log.Debug("calendar discovery complete",
		logging.F("events", len(events)),
		logging.F("candidates", len(out)))
	return out, nil
}
