/*
# Module: services/profile.go
Profile lookups: cache first, then Neynar, with the score signal attached.

## Linked Modules
- [clients/neynar](../clients/neynar.go) - Neynar user lookups
- [storage/repository](../storage/repository.go) - Profile cache
- [score/classify](../score/classify.go) - Score signal descriptor
- [metrics/metrics](../metrics/metrics.go) - Lookup counter

## Tags
service, profile, cache, neynar

## Exports
ProfileService, NewProfileService, ProfileSource

<!-- LinkedDoc RDF -->
@prefix code: <https://schema.codedoc.org/> .
<this> a code:Module ;
    code:name "services/profile.go" ;
    code:description "Profile lookups: cache first, then Neynar, with the score signal attached" ;
    code:linksTo [
        code:name "clients/neynar" ;
        code:path "../clients/neynar.go" ;
        code:relationship "Neynar user lookups"
    ], [
        code:name "storage/repository" ;
        code:path "../storage/repository.go" ;
        code:relationship "Profile cache"
    ], [
        code:name "score/classify" ;
        code:path "../score/classify.go" ;
        code:relationship "Score signal descriptor"
    ], [
        code:name "metrics/metrics" ;
        code:path "../metrics/metrics.go" ;
        code:relationship "Lookup counter"
    ] ;
    code:exports :ProfileService, :NewProfileService, :ProfileSource ;
    code:tags "service", "profile", "cache", "neynar" .
<!-- End LinkedDoc RDF -->
*/
package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/0xmdrakib/BaseTree/metrics"
	"github.com/0xmdrakib/BaseTree/score"
	"github.com/0xmdrakib/BaseTree/storage"
	"github.com/0xmdrakib/BaseTree/types"
)

// ProfileSource fetches a Farcaster user by fid
type ProfileSource interface {
	UserByFID(ctx context.Context, fid int64) (types.NeynarUser, error)
}

// ProfileService serves profiles from the cache or the source
type ProfileService struct {
	source  ProfileSource
	cache   storage.ProfileCache
	ttl     time.Duration
	log     zerolog.Logger
	metrics *metrics.Metrics
}

// NewProfileService creates a profile service. cache may be nil to disable caching.
func NewProfileService(source ProfileSource, cache storage.ProfileCache, ttl time.Duration, logger zerolog.Logger, m *metrics.Metrics) *ProfileService {
	return &ProfileService{
		source:  source,
		cache:   cache,
		ttl:     ttl,
		log:     logger,
		metrics: m,
	}
}

// Configured reports whether the source can serve lookups. Sources that do
// not say are assumed ready.
func (s *ProfileService) Configured() bool {
	if c, ok := s.source.(interface{ Configured() bool }); ok {
		return c.Configured()
	}
	return true
}

// Profile returns the profile for fid with its score signal.
// Cache failures are logged and treated as misses.
func (s *ProfileService) Profile(ctx context.Context, fid int64) (types.Profile, error) {
	if s.cache != nil {
		cached, found, err := s.cache.Get(ctx, fid)
		if err != nil {
			s.log.Warn().Err(err).Int64("fid", fid).Msg("⚠️ profile cache read failed")
		} else if found {
			s.metrics.ProfileLookup("cache")
			cached.Signal = score.Classify(cached.NeynarScore)
			return *cached, nil
		}
	}

	user, err := s.source.UserByFID(ctx, fid)
	if err != nil {
		s.metrics.ProfileLookup("error")
		return types.Profile{}, err
	}
	s.metrics.ProfileLookup("neynar")

	profile := user.Profile()
	profile.Signal = score.Classify(profile.NeynarScore)

	if s.cache != nil && s.ttl > 0 {
		if err := s.cache.Put(ctx, profile, s.ttl); err != nil {
			s.log.Warn().Err(err).Int64("fid", fid).Msg("⚠️ profile cache write failed")
		}
	}

	s.log.Debug().Int64("fid", fid).Str("signal", profile.Signal.Label).Msg("👤 profile loaded")
	return profile, nil
}
