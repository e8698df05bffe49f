/*
# Module: storage/repository.go
Storage interfaces: profile cache and preview image publishing.

## Linked Modules
- [types/profile](../types/profile.go) - Cached profile data

## Tags
storage, repository, interface, cache

## Exports
ProfileCache, PreviewPublisher

<!-- LinkedDoc RDF -->
@prefix code: <https://schema.codedoc.org/> .
<this> a code:Module ;
    code:name "storage/repository.go" ;
    code:description "Storage interfaces: profile cache and preview image publishing" ;
    code:linksTo [
        code:name "types/profile" ;
        code:path "../types/profile.go" ;
        code:relationship "Cached profile data"
    ] ;
    code:exports :ProfileCache, :PreviewPublisher ;
    code:tags "storage", "repository", "interface", "cache" .
<!-- End LinkedDoc RDF -->
*/
package storage

import (
	"context"
	"time"

	"github.com/0xmdrakib/BaseTree/types"
)

// ProfileCache caches third-party profile reads. Get reports a miss with
// found=false and a nil error.
type ProfileCache interface {
	Get(ctx context.Context, fid int64) (profile *types.Profile, found bool, err error)
	Put(ctx context.Context, profile types.Profile, ttl time.Duration) error
}

// PreviewPublisher stores a rendered preview image and returns its public URL
type PreviewPublisher interface {
	Publish(ctx context.Context, png []byte) (string, error)
}
