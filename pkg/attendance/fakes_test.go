package attendance

import (
	"context"
	"time"

	"github.com/dylanstetts/user-meeting-attendance/client"
)

var (
	rangeStart = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	rangeEnd   = time.Date(2026, 6, 30, 23, 59, 59, 0, time.UTC)
)

type fakeCalendarAPI struct {
	events []client.CalendarEvent
	err    error
}

func (f *fakeCalendarAPI) ListCalendarView(_ context.Context, _ string, _, _ time.Time) ([]client.CalendarEvent, error) {
	return f.events, f.err
}

type fakeChatAPI struct {
	chats    []client.Chat
	messages map[string][]client.ChatMessage
	msgErr   map[string]error
	listErr  error
}

func (f *fakeChatAPI) ListChats(_ context.Context, _ string, _, _ time.Time) ([]client.Chat, error) {
	return f.chats, f.listErr
}

func (f *fakeChatAPI) ListChatMessages(_ context.Context, chatID string) ([]client.ChatMessage, error) {
	if err := f.msgErr[chatID]; err != nil {
		return nil, err
	}
	return f.messages[chatID], nil
}

type fakeCallRecordAPI struct {
	records    []client.CallRecord
	sessions   map[string][]client.CallSession
	sessionErr map[string]error
	listErr    error
}

func (f *fakeCallRecordAPI) ListCallRecords(_ context.Context) ([]client.CallRecord, error) {
	return f.records, f.listErr
}

func (f *fakeCallRecordAPI) ListCallRecordSessions(_ context.Context, callID string) ([]client.CallSession, error) {
	if err := f.sessionErr[callID]; err != nil {
		return nil, err
	}
	return f.sessions[callID], nil
}

type fakeMeetingAPI struct {
	byJoinURL map[string]*client.OnlineMeeting
	reports   map[string][]client.AttendanceReport
	expanded  map[string]*client.AttendanceReport
	raw       map[string][]byte
	expandErr map[string]error
	findErr   error
	listErr   error

	findCalls int
}

func (f *fakeMeetingAPI) FindOnlineMeetingByJoinURL(_ context.Context, _, joinURL string) (*client.OnlineMeeting, error) {
	f.findCalls++
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.byJoinURL[joinURL], nil
}

func (f *fakeMeetingAPI) ListAttendanceReports(_ context.Context, _, meetingID string) ([]client.AttendanceReport, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.reports[meetingID], nil
}

func (f *fakeMeetingAPI) GetAttendanceReport(_ context.Context, _, _, reportID string) (*client.AttendanceReport, []byte, error) {
	if err := f.expandErr[reportID]; err != nil {
		return nil, nil, err
	}
	return f.expanded[reportID], f.raw[reportID], nil
}

type memoryCache struct {
	entries map[string]string
	sets    int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string]string)}
}

func (m *memoryCache) Get(_ context.Context, joinURL string) (string, bool) {
	id, ok := m.entries[joinURL]
	return id, ok
}

func (m *memoryCache) Set(_ context.Context, joinURL, meetingID string) {
	m.entries[joinURL] = meetingID
	m.sets++
}

type staticSource struct {
	channel    SourceChannel
	candidates []*MeetingCandidate
	err        error
}

func (s *staticSource) Channel() SourceChannel { return s.channel }

func (s *staticSource) Discover(_ context.Context, _ string, _, _ time.Time) ([]*MeetingCandidate, error) {
	return s.candidates, s.err
}

// countingSource records how many times its channel was discovered.
type countingSource struct {
	staticSource
	calls int
}

func (s *countingSource) Discover(ctx context.Context, userID string, start, end time.Time) ([]*MeetingCandidate, error) {
	s.calls++
	return s.staticSource.Discover(ctx, userID, start, end)
}
