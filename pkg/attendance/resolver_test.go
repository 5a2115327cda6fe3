package attendance

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dylanstetts/user-meeting-attendance/client"
)

func TestResolver_ExistingIDShortCircuits(t *testing.T) {
	api := &fakeMeetingAPI{}
	r := NewResolver(api, nil, nil)

	cand := &MeetingCandidate{ID: "c1", OnlineMeetingID: "om-existing"}
	assert.Equal(t, "om-existing", r.Resolve(context.Background(), "user-1", cand))
	assert.Zero(t, api.findCalls)
}

func TestResolver_NoJoinURLIsUnresolvable(t *testing.T) {
	api := &fakeMeetingAPI{}
	r := NewResolver(api, nil, nil)

	cand := &MeetingCandidate{ID: "c2"}
	assert.Empty(t, r.Resolve(context.Background(), "user-1", cand))
	assert.Zero(t, api.findCalls)
}

func TestResolver_LooksUpByJoinURLAndCaches(t *testing.T) {
	api := &fakeMeetingAPI{byJoinURL: map[string]*client.OnlineMeeting{
		"https://teams.example/j/9": {ID: "om-9"},
	}}
	cache := newMemoryCache()
	r := NewResolver(api, cache, nil)

	cand := &MeetingCandidate{ID: "c3", JoinURL: "https://teams.example/j/9"}
	assert.Equal(t, "om-9", r.Resolve(context.Background(), "user-1", cand))
	assert.Equal(t, "om-9", cand.OnlineMeetingID)
	assert.Equal(t, 1, cache.sets)

	// Second candidate with the same URL hits the cache.
	cand2 := &MeetingCandidate{ID: "c4", JoinURL: "https://teams.example/j/9"}
	assert.Equal(t, "om-9", r.Resolve(context.Background(), "user-1", cand2))
	assert.Equal(t, 1, api.findCalls)
}

func TestResolver_NoMatchAndErrorsAreNotFatal(t *testing.T) {
	cand := &MeetingCandidate{ID: "c5", JoinURL: "https://teams.example/j/none"}

	r := NewResolver(&fakeMeetingAPI{}, nil, nil)
	assert.Empty(t, r.Resolve(context.Background(), "user-1", cand))
	assert.Empty(t, cand.OnlineMeetingID)

	r = NewResolver(&fakeMeetingAPI{findErr: errors.New("503")}, nil, nil)
	assert.Empty(t, r.Resolve(context.Background(), "user-1", cand))
}

func TestResolver_NilCandidate(t *testing.T) {
	r := NewResolver(&fakeMeetingAPI{}, nil, nil)
	assert.Empty(t, r.Resolve(context.Background(), "user-1", nil))
}
