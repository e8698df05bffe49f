/*
# Module: host/quickauth.go
Quick-auth middleware: verifies the host-issued bearer token and stores the viewer context.

## Linked Modules
- [host/environment](./environment.go) - Host context carried on the request
- [handlers/router](../handlers/router.go) - Mounts the middleware

## Tags
host, auth, jwt, middleware

## Exports
QuickAuth, QuickAuthConfig, Claims

<!-- LinkedDoc RDF -->
@prefix code: <https://schema.codedoc.org/> .
<this> a code:Module ;
    code:name "host/quickauth.go" ;
    code:description "Quick-auth middleware: verifies the host-issued bearer token and stores the viewer context" ;
    code:linksTo [
        code:name "host/environment" ;
        code:path "./environment.go" ;
        code:relationship "Host context carried on the request"
    ], [
        code:name "handlers/router" ;
        code:path "../handlers/router.go" ;
        code:relationship "Mounts the middleware"
    ] ;
    code:exports :QuickAuth, :QuickAuthConfig, :Claims ;
    code:tags "host", "auth", "jwt", "middleware" .
<!-- End LinkedDoc RDF -->
*/
package host

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

// Claims are the quick-auth token claims. The subject is the viewer fid.
type Claims struct {
	Username  string `json:"username,omitempty"`
	ClientFID int64  `json:"client_fid,omitempty"`
	Added     bool   `json:"added,omitempty"`
	jwt.RegisteredClaims
}

// QuickAuthConfig configures token verification
type QuickAuthConfig struct {
	// Secret is the HMAC key shared with the host. Empty disables verification.
	Secret string
	// Domain, when set, must appear in the token audience.
	Domain string
	// Required rejects requests without a valid token instead of passing them on.
	Required bool
	Logger   zerolog.Logger
}

// QuickAuth verifies "Authorization: Bearer <jwt>" and stores the viewer on the
// request context. Requests without a valid token continue without a host
// context unless cfg.Required is set.
func QuickAuth(cfg QuickAuthConfig) func(http.Handler) http.Handler {
	secret := []byte(cfg.Secret)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(secret) == 0 {
				next.ServeHTTP(w, r)
				return
			}

			viewer, err := verify(r.Header.Get("Authorization"), secret, cfg.Domain)
			if err != nil {
				cfg.Logger.Debug().Err(err).Str("path", r.URL.Path).Msg("🔒 quick-auth token not accepted")
				if cfg.Required {
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusUnauthorized)
					json.NewEncoder(w).Encode(map[string]string{"error": "Open this mini app inside Base App or Warpcast."})
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), viewer)))
		})
	}
}

func verify(header string, secret []byte, domain string) (Context, error) {
	if header == "" {
		return Context{}, fmt.Errorf("missing authorization header")
	}
	tokenStr, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || tokenStr == "" {
		return Context{}, fmt.Errorf("authorization header is not a bearer token")
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"})}
	if domain != "" {
		opts = append(opts, jwt.WithAudience(domain))
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, opts...)
	if err != nil {
		return Context{}, fmt.Errorf("invalid token: %w", err)
	}

	fid, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || fid <= 0 {
		return Context{}, fmt.Errorf("token subject %q is not a fid", claims.Subject)
	}

	return Context{
		FID:       fid,
		Username:  claims.Username,
		ClientFID: claims.ClientFID,
		Added:     claims.Added,
	}, nil
}
