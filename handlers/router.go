/*
# Module: handlers/router.go
HTTP routing for the mini app backend.

## Linked Modules
- [handlers/cards](./cards.go) - Donation card endpoints
- [handlers/profile](./profile.go) - Profile endpoint
- [handlers/embed](./embed.go) - Embed metadata and preview image
- [handlers/ratelimit](./ratelimit.go) - Per-IP limiting
- [host/quickauth](../host/quickauth.go) - Viewer verification
- [metrics/metrics](../metrics/metrics.go) - Prometheus endpoint

## Tags
http, routing, middleware, chi

## Exports
Router, Deps, NewRouter

<!-- LinkedDoc RDF -->
@prefix code: <https://schema.codedoc.org/> .
<this> a code:Module ;
    code:name "handlers/router.go" ;
    code:description "HTTP routing for the mini app backend" ;
    code:linksTo [
        code:name "handlers/cards" ;
        code:path "./cards.go" ;
        code:relationship "Donation card endpoints"
    ], [
        code:name "handlers/profile" ;
        code:path "./profile.go" ;
        code:relationship "Profile endpoint"
    ], [
        code:name "handlers/embed" ;
        code:path "./embed.go" ;
        code:relationship "Embed metadata and preview image"
    ], [
        code:name "handlers/ratelimit" ;
        code:path "./ratelimit.go" ;
        code:relationship "Per-IP limiting"
    ], [
        code:name "host/quickauth" ;
        code:path "../host/quickauth.go" ;
        code:relationship "Viewer verification"
    ], [
        code:name "metrics/metrics" ;
        code:path "../metrics/metrics.go" ;
        code:relationship "Prometheus endpoint"
    ] ;
    code:exports :Router, :Deps, :NewRouter ;
    code:tags "http", "routing", "middleware", "chi" .
<!-- End LinkedDoc RDF -->
*/
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/0xmdrakib/BaseTree/host"
	"github.com/0xmdrakib/BaseTree/metrics"
	"github.com/0xmdrakib/BaseTree/services"
	"github.com/0xmdrakib/BaseTree/types"
)

// maxBodyBytes caps API request bodies
const maxBodyBytes = 64 << 10

// Deps is everything the routes need. Cards is required; Profiles, Preview
// and Metrics may be nil.
type Deps struct {
	Logger    zerolog.Logger
	Metrics   *metrics.Metrics
	Cards     *services.CardRegistry
	Profiles  *services.ProfileService
	Preview   *services.PreviewRenderer
	Content   services.PreviewContent
	App       types.AppMetadata
	QuickAuth host.QuickAuthConfig
	RateRPS   float64
	RateBurst int

	// TrustProxy lets X-Forwarded-For and X-Real-IP set the client address
	TrustProxy bool
}

// Router is the root HTTP handler
type Router struct {
	mux     *chi.Mux
	limiter *RateLimiter
}

// NewRouter wires every route
func NewRouter(deps Deps) (*Router, error) {
	embed, err := NewEmbedHandler(deps.App, deps.Preview, deps.Content, deps.Cards, deps.Logger)
	if err != nil {
		return nil, err
	}
	limiter := NewRateLimiter(deps.RateRPS, deps.RateBurst)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if deps.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(requestLogger(deps.Logger))
	r.Use(middleware.Recoverer)

	r.Get("/", embed.Page)
	r.Get("/preview.png", embed.Preview)
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(limiter.Middleware)
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
				next.ServeHTTP(w, r)
			})
		})

		r.Get("/health", HandleHealth)
		r.Get("/embed", embed.Metadata)

		r.Group(func(r chi.Router) {
			r.Use(host.QuickAuth(deps.QuickAuth))
			r.Method(http.MethodGet, "/profile", NewProfileHandler(deps.Profiles, deps.Logger))
			r.Route("/cards", NewCardHandler(deps.Cards, deps.Logger).Routes)
		})
	})

	return &Router{mux: r, limiter: limiter}, nil
}

func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rt.mux.ServeHTTP(w, r)
}

// Close stops background work owned by the router
func (rt *Router) Close() {
	rt.limiter.Close()
}
