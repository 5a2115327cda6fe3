package attendance

import (
	"context"
	"time"
)

// OnlineMeetingSource is a structural placeholder. Online meetings
// cannot be enumerated for a user without an id or join link, so this
// channel never produces candidates on its own; meetings it would have
// found surface through the calendar and chat channels instead. It is
// kept so every channel goes through the same pipeline stages.
type OnlineMeetingSource struct{}

// NewOnlineMeetingSource creates an OnlineMeetingSource.
func NewOnlineMeetingSource() *OnlineMeetingSource { return &OnlineMeetingSource{} }

func (s *OnlineMeetingSource) Channel() SourceChannel { return ChannelOnlineMeeting }

func (s *OnlineMeetingSource) Discover(_ context.Context, _ string, _, _ time.Time) ([]*MeetingCandidate, error) {
	return nil, nil
}

// BroadcastSource is a structural placeholder. There is no API surface
// for enumerating broadcast or townhall events; those still get
// classified from calendar data via subject heuristics.
type BroadcastSource struct{}

// NewBroadcastSource creates a BroadcastSource.
func NewBroadcastSource() *BroadcastSource { return &BroadcastSource{} }

func (s *BroadcastSource) Channel() SourceChannel { return ChannelBroadcast }

func (s *BroadcastSource) Discover(_ context.Context, _ string, _, _ time.Time) ([]*MeetingCandidate, error) {
	return nil, nil
}
