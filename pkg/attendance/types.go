// Package attendance implements the meeting discovery, classification, and
// attendance-normalization pipeline. It enumerates candidate meetings from
// multiple discovery channels, classifies calendar meetings into a type
// taxonomy, resolves candidates to canonical online-meeting ids, flattens
// nested attendance reports into per-attendee per-interval rows, and
// deduplicates the result.
package attendance

import (
	"strings"
	"time"
)

// SourceChannel identifies the discovery channel a candidate came from.
type SourceChannel string

const (
	ChannelCalendar      SourceChannel = "Calendar"
	ChannelChatCall      SourceChannel = "ChatCall"
	ChannelChatActivity  SourceChannel = "ChatActivity"
	ChannelCallRecord    SourceChannel = "CallRecord"
	ChannelOnlineMeeting SourceChannel = "OnlineMeeting"
	ChannelBroadcast     SourceChannel = "Broadcast"
)

// MeetingType is the classified meeting taxonomy.
type MeetingType string

const (
	TypeScheduled MeetingType = "Scheduled"
	TypeInstant   MeetingType = "Instant"
	TypeOneOnOne  MeetingType = "OneOnOne"
	TypeWebinar   MeetingType = "Webinar"
	TypeTownhall  MeetingType = "Townhall"
	TypeBroadcast MeetingType = "Broadcast"
)

// Classification is the derived meeting-type tag for a calendar candidate.
// It is attached once and never mutated afterwards.
type Classification struct {
	Type        MeetingType
	IsOneOnOne  bool
	IsInstant   bool
	IsRecurring bool
	Category    string
}

// Raw calendar event types marking a recurring series.
const (
	EventTypeSeriesMaster = "seriesMaster"
	EventTypeOccurrence   = "occurrence"
)

// MeetingCandidate is a discovered meeting before attendance resolution.
//
// ID is unique within a single source channel only; global identity for
// dedup purposes is (OnlineMeetingID, attendee id, join time), which exists
// only after resolution.
type MeetingCandidate struct {
	// ID is the source-local identifier (opaque).
	ID string

	// Subject is the meeting subject or a synthesized description for
	// channels that carry none.
	Subject string

	// StartTime is the scheduled or observed start. Zero when unknown.
	StartTime time.Time

	// EndTime is the scheduled or observed end. Zero when unknown.
	EndTime time.Time

	// SourceChannel is the discovery channel discriminant.
	SourceChannel SourceChannel

	// IsOnlineMeeting reports whether the source flagged this as an online
	// meeting.
	IsOnlineMeeting bool

	// JoinURL is the Teams join link, when the source carries one.
	JoinURL string

	// OnlineMeetingID is the canonical online-meeting id, populated by the
	// resolver.
	OnlineMeetingID string

	// OrganizerAddress is the organizer's email address, when known.
	OrganizerAddress string

	// AttendeeCount is the invited/observed attendee count; 0 means unknown.
	AttendeeCount int

	// RawEventType is the raw calendar event type (singleInstance,
	// occurrence, seriesMaster, exception). Calendar channel only.
	RawEventType string

	// CallType distinguishes call-record candidates ("Direct Call" or
	// "Group Call"). Call-record channel only.
	CallType string

	// UserInvolved reports whether the target user was a party to the call.
	// Call-record channel only; discovery fails open to true.
	UserInvolved bool

	// Classification is set by the classifier for calendar candidates,
	// nil otherwise.
	Classification *Classification
}

// Role is an attendee's role in a meeting.
type Role string

const (
	RoleOrganizer Role = "Organizer"
	RolePresenter Role = "Presenter"
	RoleAttendee  Role = "Attendee"
	RoleUnknown   Role = "Unknown"
)

// ParseRole normalizes the role string Graph returns.
func ParseRole(raw string) Role {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "organizer":
		return RoleOrganizer
	case "presenter":
		return RolePresenter
	case "attendee":
		return RoleAttendee
	default:
		return RoleUnknown
	}
}

// Row is the flattened, denormalized join of a MeetingCandidate, its
// Classification (if any), and one attendance interval. It is the unit of
// deduplication and of CSV export.
type Row struct {
	// MeetingID is the resolved online-meeting id, not the source-local
	// candidate id; the same meeting can be discovered via several channels.
	MeetingID string

	Subject       string
	SourceChannel SourceChannel
	MeetingType   MeetingType
	Category      string

	MeetingStart time.Time
	MeetingEnd   time.Time

	ReportID string

	AttendeeID    string
	AttendeeName  string
	AttendeeEmail string
	Role          Role

	JoinTime        time.Time
	LeaveTime       time.Time
	DurationSeconds int
}

// Key returns the dedup key (meeting id, attendee id, join time).
func (r Row) Key() RowKey {
	return RowKey{
		MeetingID:  r.MeetingID,
		AttendeeID: r.AttendeeID,
		JoinTime:   r.JoinTime.UTC(),
	}
}

// RowKey is the uniqueness key of a Row.
type RowKey struct {
	MeetingID  string
	AttendeeID string
	JoinTime   time.Time
}

// FailureEntry records a candidate that could not be resolved or fetched.
// Append-only; never deduplicated.
type FailureEntry struct {
	Subject       string
	StartTime     time.Time
	SourceChannel SourceChannel
	ErrorReason   string
}

// ProcessedIDSet tracks candidate ids already fully handled within a run,
// preventing reprocessing when a candidate appears via more than one
// discovery path.
type ProcessedIDSet struct {
	seen map[string]struct{}
}

// NewProcessedIDSet creates an empty set.
func NewProcessedIDSet() *ProcessedIDSet {
	return &ProcessedIDSet{seen: make(map[string]struct{})}
}

// Seen reports whether the id was already handled.
func (s *ProcessedIDSet) Seen(id string) bool {
	_, ok := s.seen[id]
	return ok
}

// Mark records the id as handled.
func (s *ProcessedIDSet) Mark(id string) {
	s.seen[id] = struct{}{}
}

// Len returns the number of handled ids.
func (s *ProcessedIDSet) Len() int {
	return len(s.seen)
}
