package attendance

import (
	"context"

	"github.com/dylanstetts/user-meeting-attendance/pkg/logging"
)

// ResolverCache maps join URLs to online-meeting ids across runs.
// Implementations must treat misses and backend errors alike: return
// ("", false) and let the resolver fall through to the API.
type ResolverCache interface {
	Get(ctx context.Context, joinURL string) (string, bool)
	Set(ctx context.Context, joinURL, meetingID string)
}

type nopCache struct{}

func (nopCache) Get(context.Context, string) (string, bool) { return "", false }
func (nopCache) Set(context.Context, string, string)        {}

// NopCache returns a ResolverCache that never hits.
func NopCache() ResolverCache { return nopCache{} }

// Resolver maps meeting candidates to canonical online-meeting ids via
// their join URL. Resolution failure is not an error: a candidate that
// cannot be resolved simply has no attendance reports to fetch.
type Resolver struct {
	api   MeetingAPI
	cache ResolverCache
	log   logging.Logger
}

// NewResolver creates a Resolver. A nil cache disables caching.
func NewResolver(api MeetingAPI, cache ResolverCache, log logging.Logger) *Resolver {
	if cache == nil {
		cache = NopCache()
	}
	if log == nil {
		log = logging.NopLogger()
	}
	return &Resolver{api: api, cache: cache, log: log}
}

// Resolve sets cand.OnlineMeetingID when the candidate can be mapped to
// an online meeting, and returns the resolved id. An empty return means
// unresolvable, which is a normal outcome for off-platform or
// unresolvable candidates.
func (r *Resolver) Resolve(ctx context.Context, userID string, cand *MeetingCandidate) string {
	if cand == nil {
		return ""
	}
	if cand.OnlineMeetingID != "" {
		return cand.OnlineMeetingID
	}
	if cand.JoinURL == "" {
		return ""
	}

	if id, ok := r.cache.Get(ctx, cand.JoinURL); ok {
		cand.OnlineMeetingID = id
		return id
	}

	meeting, err := r.api.FindOnlineMeetingByJoinURL(ctx, userID, cand.JoinURL)
	if err != nil {
		r.log.Warn("join URL lookup failed",
			logging.F("candidate_id", cand.ID), logging.Err(err))
		return ""
	}
	if meeting == nil {
		return ""
	}

	cand.OnlineMeetingID = meeting.ID
	r.cache.Set(ctx, cand.JoinURL, meeting.ID)
	return meeting.ID
}
