/*
# Module: handlers/profile.go
Profile endpoint: the viewer's Farcaster profile with its score signal.

## Linked Modules
- [services/profile](../services/profile.go) - Cached profile lookups
- [host/environment](../host/environment.go) - Viewer fid fallback

## Tags
http, profile, neynar, api

## Exports
ProfileHandler, NewProfileHandler

<!-- LinkedDoc RDF -->
@prefix code: <https://schema.codedoc.org/> .
<this> a code:Module ;
    code:name "handlers/profile.go" ;
    code:description "Profile endpoint: the viewer's Farcaster profile with its score signal" ;
    code:linksTo [
        code:name "services/profile" ;
        code:path "../services/profile.go" ;
        code:relationship "Cached profile lookups"
    ], [
        code:name "host/environment" ;
        code:path "../host/environment.go" ;
        code:relationship "Viewer fid fallback"
    ] ;
    code:exports :ProfileHandler, :NewProfileHandler ;
    code:tags "http", "profile", "neynar", "api" .
<!-- End LinkedDoc RDF -->
*/
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/0xmdrakib/BaseTree/clients"
	"github.com/0xmdrakib/BaseTree/host"
	"github.com/0xmdrakib/BaseTree/services"
)

// ProfileHandler serves GET /api/profile
type ProfileHandler struct {
	profiles *services.ProfileService
	log      zerolog.Logger
}

// NewProfileHandler creates the profile handler
func NewProfileHandler(profiles *services.ProfileService, logger zerolog.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, log: logger}
}

// ServeHTTP looks up ?fid=N, or the verified viewer when the query has none
func (h *ProfileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.profiles == nil || !h.profiles.Configured() {
		writeError(w, http.StatusInternalServerError, "Server is missing NEYNAR_API_KEY")
		return
	}

	fid, ok := requestFID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Missing fid query parameter")
		return
	}

	profile, err := h.profiles.Profile(r.Context(), fid)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, profile)
	case errors.Is(err, clients.ErrNotConfigured):
		writeError(w, http.StatusInternalServerError, "Server is missing NEYNAR_API_KEY")
	case errors.Is(err, clients.ErrUpstream):
		h.log.Error().Err(err).Int64("fid", fid).Msg("❌ neynar lookup failed")
		writeError(w, http.StatusBadGateway, "Failed to fetch user from Neynar")
	case errors.Is(err, clients.ErrNotFound):
		writeError(w, http.StatusNotFound, "User not found for given fid")
	default:
		h.log.Error().Err(err).Int64("fid", fid).Msg("❌ profile lookup failed")
		writeError(w, http.StatusInternalServerError, "Unexpected server error")
	}
}

func requestFID(r *http.Request) (int64, bool) {
	if raw := r.URL.Query().Get("fid"); raw != "" {
		fid, err := strconv.ParseInt(raw, 10, 64)
		return fid, err == nil && fid > 0
	}
	if viewer, ok := host.FromContext(r.Context()); ok && viewer.FID > 0 {
		return viewer.FID, true
	}
	return 0, false
}
