/*
# Module: gateway/discover.go
Binding selection by configuration and runtime capability discovery.

## Linked Modules
- [gateway/hosted](./hosted.go) - Hosted checkout binding
- [gateway/native](./native.go) - Native wallet binding

## Tags
payments, gateway, capability-discovery

## Exports
Binding, ParseBinding, Discover

<!-- LinkedDoc RDF -->
@prefix code: <https://schema.codedoc.org/> .
<this> a code:Module ;
    code:name "gateway/discover.go" ;
    code:description "Binding selection by configuration and runtime capability discovery" ;
    code:linksTo [
        code:name "gateway/hosted" ;
        code:path "./hosted.go" ;
        code:relationship "Hosted checkout binding"
    ], [
        code:name "gateway/native" ;
        code:path "./native.go" ;
        code:relationship "Native wallet binding"
    ] ;
    code:exports :Binding, :ParseBinding, :Discover ;
    code:tags "payments", "gateway", "capability-discovery" .
<!-- End LinkedDoc RDF -->
*/
package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Binding names which payment binding to use
type Binding string

const (
	BindingAuto   Binding = "auto"
	BindingHosted Binding = "hosted"
	BindingNative Binding = "native"
)

// ErrNotConfigured is returned when the selected binding has no endpoint configured
var ErrNotConfigured = errors.New("payment gateway not configured")

// ParseBinding parses a configured binding name
func ParseBinding(s string) (Binding, error) {
	switch b := Binding(strings.ToLower(strings.TrimSpace(s))); b {
	case BindingAuto, BindingHosted, BindingNative:
		return b, nil
	case "":
		return BindingAuto, nil
	default:
		return "", fmt.Errorf("unknown gateway binding %q", s)
	}
}

// Discover picks the gateway for binding. native and hosted may be nil when
// not configured. With BindingAuto the native wallet wins when the host
// advertises it, and the hosted checkout is the fallback.
func Discover(ctx context.Context, binding Binding, native Capability, hosted Gateway) (Gateway, error) {
	switch binding {
	case BindingHosted:
		if hosted == nil {
			return nil, fmt.Errorf("%w: hosted checkout", ErrNotConfigured)
		}
		return hosted, nil

	case BindingNative:
		if native == nil {
			return nil, fmt.Errorf("%w: native wallet", ErrNotConfigured)
		}
		ok, err := native.Available(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrCapabilityMissing
		}
		return native, nil

	case BindingAuto:
		if native != nil {
			if ok, err := native.Available(ctx); err == nil && ok {
				return native, nil
			}
		}
		if hosted != nil {
			return hosted, nil
		}
		if native != nil {
			return nil, ErrCapabilityMissing
		}
		return nil, ErrNotConfigured

	default:
		return nil, fmt.Errorf("unknown gateway binding %q", binding)
	}
}
