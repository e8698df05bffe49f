/*
# Module: clients/neynar.go
Neynar API client for Farcaster user lookups with the experimental user score.

## Linked Modules
- [types/profile](../types/profile.go) - Neynar response and profile types

## Tags
api-client, neynar, farcaster, profile

## Exports
NeynarClient, NewNeynarClient, UserByFID, ErrNotConfigured, ErrUpstream, ErrNotFound

<!-- LinkedDoc RDF -->
@prefix code: <https://schema.codedoc.org/> .
<this> a code:Module ;
    code:name "clients/neynar.go" ;
    code:description "Neynar API client for Farcaster user lookups with the experimental user score" ;
    code:linksTo [
        code:name "types/profile" ;
        code:path "../types/profile.go" ;
        code:relationship "Neynar response and profile types"
    ] ;
    code:exports :NeynarClient, :NewNeynarClient, :UserByFID, :ErrNotConfigured, :ErrUpstream, :ErrNotFound ;
    code:tags "api-client", "neynar", "farcaster", "profile" .
<!-- End LinkedDoc RDF -->
*/
package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/0xmdrakib/BaseTree/types"
)

// DefaultNeynarURL is the public Neynar API
const DefaultNeynarURL = "https://api.neynar.com"

var (
	// ErrNotConfigured means no Neynar API key was provided
	ErrNotConfigured = errors.New("neynar API key not configured")
	// ErrUpstream means Neynar answered with a non-2xx status
	ErrUpstream = errors.New("neynar request failed")
	// ErrNotFound means Neynar knows no user with the fid
	ErrNotFound = errors.New("user not found")
)

// NeynarClient handles Neynar API requests
type NeynarClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewNeynarClient creates a new Neynar API client. An empty baseURL uses DefaultNeynarURL.
func NewNeynarClient(apiKey, baseURL string) *NeynarClient {
	if baseURL == "" {
		baseURL = DefaultNeynarURL
	}
	return &NeynarClient{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Configured reports whether an API key is set
func (c *NeynarClient) Configured() bool {
	return c.apiKey != ""
}

// UserByFID fetches one user by fid
func (c *NeynarClient) UserByFID(ctx context.Context, fid int64) (types.NeynarUser, error) {
	if c.apiKey == "" {
		return types.NeynarUser{}, ErrNotConfigured
	}

	url := c.baseURL + "/v2/farcaster/user/bulk?fids=" + strconv.FormatInt(fid, 10)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return types.NeynarUser{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("x-neynar-experimental", "true")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return types.NeynarUser{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return types.NeynarUser{}, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return types.NeynarUser{}, fmt.Errorf("%w (status %d): %s", ErrUpstream, resp.StatusCode, string(body))
	}

	var bulk types.NeynarBulkResponse
	if err := json.Unmarshal(body, &bulk); err != nil {
		return types.NeynarUser{}, fmt.Errorf("failed to parse response: %w", err)
	}

	if len(bulk.Users) == 0 {
		return types.NeynarUser{}, fmt.Errorf("%w: fid %d", ErrNotFound, fid)
	}
	return bulk.Users[0], nil
}
