package attendance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var classifyNow = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

func TestClassify_DefaultIsScheduledRegular(t *testing.T) {
	c := NewClassifier()

	cl := c.Classify(&MeetingCandidate{
		Subject:       "Quarterly planning",
		StartTime:     classifyNow.Add(10 * 24 * time.Hour),
		AttendeeCount: 8,
		RawEventType:  "singleInstance",
	}, classifyNow)

	assert.Equal(t, TypeScheduled, cl.Type)
	assert.Equal(t, CategoryRegular, cl.Category)
	assert.False(t, cl.IsOneOnOne)
	assert.False(t, cl.IsInstant)
	assert.False(t, cl.IsRecurring)
}

func TestClassify_TwoAttendeesThreeDaysOut(t *testing.T) {
	c := NewClassifier()

	// Two attendees, starting 3 days in the future: the one-on-one rule
	// fires, the instant window (1 day) does not.
	cl := c.Classify(&MeetingCandidate{
		Subject:       "1:1 sync",
		StartTime:     classifyNow.Add(3 * 24 * time.Hour),
		AttendeeCount: 2,
	}, classifyNow)

	assert.Equal(t, TypeOneOnOne, cl.Type)
	assert.True(t, cl.IsOneOnOne)
	assert.Equal(t, CategoryOneOnOne, cl.Category)
	assert.False(t, cl.IsInstant)
}

func TestClassify_InstantWindowEitherDirection(t *testing.T) {
	c := NewClassifier()

	for _, offset := range []time.Duration{-23 * time.Hour, 23 * time.Hour} {
		cl := c.Classify(&MeetingCandidate{
			Subject:       "Quick chat",
			StartTime:     classifyNow.Add(offset),
			AttendeeCount: 5,
		}, classifyNow)
		assert.True(t, cl.IsInstant, "offset %v", offset)
		assert.Equal(t, TypeInstant, cl.Type, "offset %v", offset)
		assert.Equal(t, CategoryInstant, cl.Category, "offset %v", offset)
	}

	cl := c.Classify(&MeetingCandidate{
		Subject:       "Next week's review",
		StartTime:     classifyNow.Add(25 * time.Hour),
		AttendeeCount: 5,
	}, classifyNow)
	assert.False(t, cl.IsInstant)
}

func TestClassify_RecurringFlagDoesNotChangeCategory(t *testing.T) {
	c := NewClassifier()

	for _, eventType := range []string{EventTypeSeriesMaster, EventTypeOccurrence} {
		cl := c.Classify(&MeetingCandidate{
			Subject:       "Weekly standup",
			StartTime:     classifyNow.Add(5 * 24 * time.Hour),
			AttendeeCount: 6,
			RawEventType:  eventType,
		}, classifyNow)
		assert.True(t, cl.IsRecurring, eventType)
		assert.Equal(t, CategoryRegular, cl.Category, eventType)
		assert.Equal(t, TypeScheduled, cl.Type, eventType)
	}
}

func TestClassify_LargeMeetingBecomesWebinar(t *testing.T) {
	c := NewClassifier()

	cl := c.Classify(&MeetingCandidate{
		Subject:       "Product deep dive",
		StartTime:     classifyNow.Add(4 * 24 * time.Hour),
		AttendeeCount: 21,
	}, classifyNow)

	assert.Equal(t, TypeWebinar, cl.Type)
	assert.Equal(t, CategoryWebinar, cl.Category)
}

func TestClassify_BroadcastKeywordsWinLast(t *testing.T) {
	c := NewClassifier()

	subjects := []string{
		"Company Townhall",
		"ALL HANDS - June",
		"Quarterly broadcast session",
		"Summer Live Event",
	}
	for _, subject := range subjects {
		cl := c.Classify(&MeetingCandidate{
			Subject:       subject,
			StartTime:     classifyNow.Add(4 * 24 * time.Hour),
			AttendeeCount: 50,
		}, classifyNow)
		// Subject rule runs after the webinar rule, so it wins the type.
		assert.Equal(t, TypeTownhall, cl.Type, subject)
		assert.Equal(t, CategoryBroadcast, cl.Category, subject)
	}
}

func TestClassify_LastWriterWinsButFlagsAccumulate(t *testing.T) {
	c := NewClassifier()

	// Simultaneously instant (starts within a day) and a large meeting:
	// the webinar rule re-types it but the instant flag remains set.
	cl := c.Classify(&MeetingCandidate{
		Subject:       "Emergency review",
		StartTime:     classifyNow.Add(2 * time.Hour),
		AttendeeCount: 30,
		RawEventType:  EventTypeOccurrence,
	}, classifyNow)

	assert.Equal(t, TypeWebinar, cl.Type)
	assert.Equal(t, CategoryWebinar, cl.Category)
	assert.True(t, cl.IsInstant)
	assert.True(t, cl.IsRecurring)
	assert.False(t, cl.IsOneOnOne)
}

func TestClassify_Idempotent(t *testing.T) {
	c := NewClassifier()
	cand := &MeetingCandidate{
		Subject:       "Townhall prep",
		StartTime:     classifyNow.Add(12 * time.Hour),
		AttendeeCount: 2,
		RawEventType:  EventTypeOccurrence,
	}

	first := c.Classify(cand, classifyNow)
	second := c.Classify(cand, classifyNow)
	assert.Equal(t, first, second)
}

func TestClassify_NilCandidateNeverPanics(t *testing.T) {
	c := NewClassifier()
	cl := c.Classify(nil, classifyNow)
	assert.Equal(t, TypeScheduled, cl.Type)
	assert.Equal(t, CategoryRegular, cl.Category)
}

func TestClassify_UnicodeCaseFoldedKeywords(t *testing.T) {
	c := NewClassifier()

	cl := c.Classify(&MeetingCandidate{
		Subject:       "TOWNHALL: Straßenfest updates",
		StartTime:     classifyNow.Add(4 * 24 * time.Hour),
		AttendeeCount: 10,
	}, classifyNow)
	assert.Equal(t, TypeTownhall, cl.Type)
}
