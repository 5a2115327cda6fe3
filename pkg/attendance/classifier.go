package attendance

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// Classification categories.
const (
	CategoryRegular   = "Regular Meeting"
	CategoryOneOnOne  = "One-on-One"
	CategoryInstant   = "Instant Meeting"
	CategoryWebinar   = "Large Meeting/Webinar"
	CategoryBroadcast = "Broadcast Event"
)

// instantWindow is the heuristic window for flagging a meeting as instant:
// a start time within one day (either direction) of classification time.
// There is no creation timestamp on the event to test directly, so this is
// a documented approximation, not an exact signal.
const instantWindow = 24 * time.Hour

// webinarAttendeeThreshold re-types meetings with large invite lists.
const webinarAttendeeThreshold = 20

// broadcastKeywords mark townhall/broadcast events by subject text.
// Matching is Unicode case-folded.
var broadcastKeywords = []string{"townhall", "all hands", "broadcast", "live event"}

// Classifier assigns a meeting-type tag and category to calendar-derived
// candidates using attendee-count, timing, recurrence, and subject-text
// heuristics. Classification time is injected so results are deterministic.
type Classifier struct {
	folder cases.Caser
}

// NewClassifier creates a Classifier.
func NewClassifier() *Classifier {
	return &Classifier{folder: cases.Fold()}
}

// Classify derives the Classification for a candidate at the given
// classification time. Rules apply in order; among the type-setting rules
// the last matching one wins, while the boolean flags accumulate.
// Classify never fails: a nil candidate yields the default classification.
func (c *Classifier) Classify(cand *MeetingCandidate, now time.Time) Classification {
	cl := Classification{
		Type:     TypeScheduled,
		Category: CategoryRegular,
	}
	if cand == nil {
		return cl
	}

	if cand.AttendeeCount <= 2 {
		cl.IsOneOnOne = true
		cl.Category = CategoryOneOnOne
		cl.Type = TypeOneOnOne
	}

	if !cand.StartTime.IsZero() {
		gap := cand.StartTime.Sub(now)
		if gap < 0 {
			gap = -gap
		}
		if gap <= instantWindow {
			cl.IsInstant = true
			cl.Category = CategoryInstant
			cl.Type = TypeInstant
		}
	}

	if cand.RawEventType == EventTypeSeriesMaster || cand.RawEventType == EventTypeOccurrence {
		cl.IsRecurring = true
	}

	if cand.AttendeeCount > webinarAttendeeThreshold {
		cl.Category = CategoryWebinar
		cl.Type = TypeWebinar
	}

	if c.subjectIsBroadcast(cand.Subject) {
		cl.Category = CategoryBroadcast
		cl.Type = TypeTownhall
	}

	return cl
}

// subjectIsBroadcast reports whether the subject contains a broadcast
// keyword under Unicode case folding.
func (c *Classifier) subjectIsBroadcast(subject string) bool {
	if subject == "" {
		return false
	}
	folded := c.folder.String(subject)
	for _, kw := range broadcastKeywords {
		if strings.Contains(folded, kw) {
			return true
		}
	}
	return false
}
