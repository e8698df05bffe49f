/*
# Module: types/embed.go
Mini app embed metadata advertised to Farcaster and Base App clients.

## Linked Modules
(None - types package has no dependencies)

## Tags
data-types, embed, mini-app, metadata

## Exports
Embed, EmbedButton, EmbedAction, AppMetadata, NewAppMetadata

<!-- LinkedDoc RDF -->
@prefix code: <https://schema.codedoc.org/> .
<this> a code:Module ;
    code:name "types/embed.go" ;
    code:description "Mini app embed metadata advertised to Farcaster and Base App clients" ;
    code:exports :Embed, :EmbedButton, :EmbedAction, :AppMetadata, :NewAppMetadata ;
    code:tags "data-types", "embed", "mini-app", "metadata" .
<!-- End LinkedDoc RDF -->
*/
package types

import "strings"

// Embed is the fc:miniapp meta tag payload
type Embed struct {
	Version  string      `json:"version"`
	ImageURL string      `json:"imageUrl"`
	Button   EmbedButton `json:"button"`
}

// EmbedButton is the launch button shown under the embed image
type EmbedButton struct {
	Title  string      `json:"title"`
	Action EmbedAction `json:"action"`
}

// EmbedAction opens the mini app
type EmbedAction struct {
	Type                  string `json:"type"`
	URL                   string `json:"url"`
	Name                  string `json:"name"`
	SplashImageURL        string `json:"splashImageUrl"`
	SplashBackgroundColor string `json:"splashBackgroundColor"`
}

// AppMetadata is returned by GET /api/embed
type AppMetadata struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	URL         string `json:"url"`
	BaseAppID   string `json:"baseAppId,omitempty"`
	Embed       Embed  `json:"embed"`
	Ready       bool   `json:"ready"`
}

// NewAppMetadata builds the embed for an app served at appURL. Images are
// served by the app itself.
func NewAppMetadata(appURL, name, description, baseAppID, splashBackground string) AppMetadata {
	appURL = strings.TrimRight(appURL, "/")
	return AppMetadata{
		Name:        name,
		Description: description,
		URL:         appURL,
		BaseAppID:   baseAppID,
		Embed: Embed{
			Version:  "next",
			ImageURL: appURL + "/preview.png",
			Button: EmbedButton{
				Title: "Open " + name,
				Action: EmbedAction{
					Type:                  "launch_frame",
					URL:                   appURL,
					Name:                  name,
					SplashImageURL:        appURL + "/preview.png",
					SplashBackgroundColor: splashBackground,
				},
			},
		},
	}
}
