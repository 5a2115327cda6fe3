package attendance

import (
	"context"
	"time"

	"github.com/dylanstetts/user-meeting-attendance/client"
	"github.com/dylanstetts/user-meeting-attendance/pkg/logging"
)

const (
	callTypeDirect = "Direct Call"
	callTypeGroup  = "Group Call"
)

// CallRecordSource discovers calls from the communications call-record
// log. The list endpoint has no server-side date filter, so the range
// is applied client-side after listing.
type CallRecordSource struct {
	api CallRecordAPI
	log logging.Logger
}

// NewCallRecordSource creates a CallRecordSource.
func NewCallRecordSource(api CallRecordAPI, log logging.Logger) *CallRecordSource {
	if log == nil {
		log = logging.NopLogger()
	}
	return &CallRecordSource{api: api, log: log}
}

func (s *CallRecordSource) Channel() SourceChannel { return ChannelCallRecord }

func (s *CallRecordSource) Discover(ctx context.Context, userID string, start, end time.Time) ([]*MeetingCandidate, error) {
	records, err := s.api.ListCallRecords(ctx)
	if err != nil {
		return nil, channelError(err)
	}

	var out []*MeetingCandidate
	for _, rec := range records {
		started, ok := client.ParseGraphTime(rec.StartDateTime)
		if !ok || started.Before(start) || started.After(end) {
			continue
		}

		cand := &MeetingCandidate{
			ID:            rec.ID,
			Subject:       "Call " + rec.ID,
			StartTime:     started,
			SourceChannel: ChannelCallRecord,
			JoinURL:       rec.JoinWebURL,
		}
		if ended, ok := client.ParseGraphTime(rec.EndDateTime); ok {
			cand.EndTime = ended
		}
		if rec.JoinWebURL != "" {
			cand.IsOnlineMeeting = true
		}
		if rec.Organizer != nil && rec.Organizer.User != nil {
			cand.OrganizerAddress = rec.Organizer.User.DisplayName
		}

		sessions, err := s.api.ListCallRecordSessions(ctx, rec.ID)
		if err != nil {
			// Fail open: assume a single-session direct call involving
			// the user. Duplicates are cheaper than silently dropped
			// calls, and the deduplicator removes them later.
			s.log.Warn("session lookup failed, assuming involvement",
				logging.F("call_id", rec.ID), logging.Err(err))
			cand.AttendeeCount = 1
			cand.CallType = callTypeDirect
			cand.UserInvolved = true
			out = append(out, cand)
			continue
		}

		count, involved := summarizeSessions(sessions, rec, userID)
		if !involved {
			// The call-record log is tenant-wide; a record whose sessions
			// name only other users is not this user's call.
			s.log.Debug("call does not involve user, skipping",
				logging.F("call_id", rec.ID))
			continue
		}
		cand.AttendeeCount = count
		cand.UserInvolved = involved
		if rec.Type == "peerToPeer" {
			cand.CallType = callTypeDirect
		} else {
			cand.CallType = callTypeGroup
		}
		out = append(out, cand)
	}

	s.log.Debug("call record discovery complete",
		logging.F("records", len(records)),
		logging.F("candidates", len(out)))
	return out, nil
}

// summarizeSessions counts distinct participants across the record's
// sessions and participant list, and reports whether userID is one of
// them.
func summarizeSessions(sessions []client.CallSession, rec client.CallRecord, userID string) (int, bool) {
	ids := make(map[string]struct{})
	add := func(set *client.IdentitySet) {
		if set != nil && set.User != nil && set.User.ID != "" {
			ids[set.User.ID] = struct{}{}
		}
	}

	for i := range rec.Participants {
		add(&rec.Participants[i])
	}
	for _, sess := range sessions {
		if sess.Caller != nil {
			add(sess.Caller.Identity)
		}
		if sess.Callee != nil {
			add(sess.Callee.Identity)
		}
	}

	_, involved := ids[userID]
	return len(ids), involved
}
