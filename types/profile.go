/*
# Module: types/profile.go
Farcaster profile data structures served by the profile endpoint and cached.

## Linked Modules
- [score/classify](../score/classify.go) - Score descriptor attached to a profile

## Tags
data-types, profile, farcaster, neynar

## Exports
Profile, NeynarUser, NeynarBulkResponse

<!-- LinkedDoc RDF -->
@prefix code: <https://schema.codedoc.org/> .
<this> a code:Module ;
    code:name "types/profile.go" ;
    code:description "Farcaster profile data structures served by the profile endpoint and cached" ;
    code:linksTo [
        code:name "score/classify" ;
        code:path "../score/classify.go" ;
        code:relationship "Score descriptor attached to a profile"
    ] ;
    code:exports :Profile, :NeynarUser, :NeynarBulkResponse ;
    code:tags "data-types", "profile", "farcaster", "neynar" .
<!-- End LinkedDoc RDF -->
*/
package types

import "github.com/0xmdrakib/BaseTree/score"

// Profile is the reputation card shown next to the donation card
type Profile struct {
	FID            int64            `json:"fid" dynamodbav:"fid"`
	Username       string           `json:"username" dynamodbav:"username"`
	DisplayName    string           `json:"displayName,omitempty" dynamodbav:"display_name,omitempty"`
	PfpURL         string           `json:"pfpUrl,omitempty" dynamodbav:"pfp_url,omitempty"`
	FollowerCount  int64            `json:"followerCount" dynamodbav:"follower_count"`
	FollowingCount int64            `json:"followingCount" dynamodbav:"following_count"`
	NeynarScore    *float64         `json:"neynarScore" dynamodbav:"neynar_score,omitempty"`
	Signal         score.Descriptor `json:"signal" dynamodbav:"-"`
}

// NeynarUser is one user in a Neynar bulk lookup
type NeynarUser struct {
	FID            int64  `json:"fid"`
	Username       string `json:"username"`
	DisplayName    string `json:"display_name,omitempty"`
	PfpURL         string `json:"pfp_url,omitempty"`
	FollowerCount  int64  `json:"follower_count"`
	FollowingCount int64  `json:"following_count"`
	Experimental   *struct {
		NeynarUserScore *float64 `json:"neynar_user_score,omitempty"`
	} `json:"experimental,omitempty"`
}

// NeynarBulkResponse is the body of GET /v2/farcaster/user/bulk
type NeynarBulkResponse struct {
	Users []NeynarUser `json:"users"`
}

// Profile converts a Neynar user into a Profile without a signal descriptor
func (u NeynarUser) Profile() Profile {
	p := Profile{
		FID:            u.FID,
		Username:       u.Username,
		DisplayName:    u.DisplayName,
		PfpURL:         u.PfpURL,
		FollowerCount:  u.FollowerCount,
		FollowingCount: u.FollowingCount,
	}
	if u.Experimental != nil {
		p.NeynarScore = u.Experimental.NeynarUserScore
	}
	return p
}
