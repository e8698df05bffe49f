/*
# Module: host/environment.go
Embedding host detection: who is viewing the mini app and from which client.

## Linked Modules
- [host/quickauth](./quickauth.go) - Populates the host context from a verified token
- [donation/orchestrator](../donation/orchestrator.go) - Refuses to pay outside an embedding host

## Tags
host, mini-app, environment

## Exports
Context, Environment, Static, Embedded, RequestEnvironment, WithContext, FromContext, ErrUnavailable

<!-- LinkedDoc RDF -->
@prefix code: <https://schema.codedoc.org/> .
<this> a code:Module ;
    code:name "host/environment.go" ;
    code:description "Embedding host detection: who is viewing the mini app and from which client" ;
    code:linksTo [
        code:name "host/quickauth" ;
        code:path "./quickauth.go" ;
        code:relationship "Populates the host context from a verified token"
    ], [
        code:name "donation/orchestrator" ;
        code:path "../donation/orchestrator.go" ;
        code:relationship "Refuses to pay outside an embedding host"
    ] ;
    code:exports :Context, :Environment, :Static, :Embedded, :RequestEnvironment, :WithContext, :FromContext, :ErrUnavailable ;
    code:tags "host", "mini-app", "environment" .
<!-- End LinkedDoc RDF -->
*/
package host

import (
	"context"
	"errors"
)

// ErrUnavailable means the app is not running inside an embedding host
var ErrUnavailable = errors.New("embedding host not available")

// Context describes the viewer as reported by the embedding host
type Context struct {
	FID       int64  `json:"fid"`
	Username  string `json:"username,omitempty"`
	ClientFID int64  `json:"clientFid,omitempty"`
	Added     bool   `json:"added"`
}

// Environment detects whether the app runs inside an embedding host
type Environment interface {
	Detect(ctx context.Context) (Context, error)
}

// Static is a fixed environment for the CLI and tests.
// The zero value reports no host.
type Static struct {
	viewer   Context
	embedded bool
}

// Embedded returns a Static environment that always reports viewer
func Embedded(viewer Context) Static {
	return Static{viewer: viewer, embedded: true}
}

// Detect returns the configured viewer, or ErrUnavailable
func (s Static) Detect(context.Context) (Context, error) {
	if !s.embedded {
		return Context{}, ErrUnavailable
	}
	return s.viewer, nil
}

// RequestEnvironment reads the host context QuickAuth stored on the request
type RequestEnvironment struct{}

// Detect returns the host context carried by ctx, or ErrUnavailable
func (RequestEnvironment) Detect(ctx context.Context) (Context, error) {
	if c, ok := FromContext(ctx); ok {
		return c, nil
	}
	return Context{}, ErrUnavailable
}

type contextKey struct{}

// WithContext returns a copy of ctx carrying the host context
func WithContext(ctx context.Context, c Context) context.Context {
	return context.WithValue(ctx, contextKey{}, c)
}

// FromContext returns the host context stored by WithContext
func FromContext(ctx context.Context) (Context, bool) {
	c, ok := ctx.Value(contextKey{}).(Context)
	return c, ok
}
