/*
# Module: handlers/embed.go
Mini app embed surface: the HTML meta page, the embed JSON and the preview image.

## Linked Modules
- [types/embed](../types/embed.go) - Embed metadata
- [services/preview](../services/preview.go) - Preview image rendering
- [services/cards](../services/cards.go) - Readiness of an open card

## Tags
http, embed, mini-app, images

## Exports
EmbedHandler, NewEmbedHandler

<!-- LinkedDoc RDF -->
@prefix code: <https://schema.codedoc.org/> .
<this> a code:Module ;
    code:name "handlers/embed.go" ;
    code:description "Mini app embed surface: the HTML meta page, the embed JSON and the preview image" ;
    code:linksTo [
        code:name "types/embed" ;
        code:path "../types/embed.go" ;
        code:relationship "Embed metadata"
    ], [
        code:name "services/preview" ;
        code:path "../services/preview.go" ;
        code:relationship "Preview image rendering"
    ], [
        code:name "services/cards" ;
        code:path "../services/cards.go" ;
        code:relationship "Readiness of an open card"
    ] ;
    code:exports :EmbedHandler, :NewEmbedHandler ;
    code:tags "http", "embed", "mini-app", "images" .
<!-- End LinkedDoc RDF -->
*/
package handlers

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/0xmdrakib/BaseTree/services"
	"github.com/0xmdrakib/BaseTree/types"
)

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Meta.Name}}</title>
<meta name="description" content="{{.Meta.Description}}">
<meta property="og:title" content="{{.Meta.Name}}">
<meta property="og:description" content="{{.Meta.Description}}">
<meta property="og:url" content="{{.Meta.URL}}">
<meta property="og:image" content="{{.Meta.Embed.ImageURL}}">
{{- if .Meta.BaseAppID}}
<meta name="base:app_id" content="{{.Meta.BaseAppID}}">
{{- end}}
<meta name="fc:miniapp" content="{{.EmbedJSON}}">
</head>
<body>
<p>Open this mini app inside Base App or Warpcast to donate.</p>
</body>
</html>
`))

// EmbedHandler serves the embed metadata and preview image
type EmbedHandler struct {
	meta     types.AppMetadata
	embed    string
	renderer *services.PreviewRenderer
	content  services.PreviewContent
	cards    *services.CardRegistry
	log      zerolog.Logger
}

// NewEmbedHandler creates the embed handler. cards may be nil.
func NewEmbedHandler(meta types.AppMetadata, renderer *services.PreviewRenderer, content services.PreviewContent, cards *services.CardRegistry, logger zerolog.Logger) (*EmbedHandler, error) {
	raw, err := json.Marshal(meta.Embed)
	if err != nil {
		return nil, fmt.Errorf("failed to encode embed: %w", err)
	}
	return &EmbedHandler{
		meta:     meta,
		embed:    string(raw),
		renderer: renderer,
		content:  content,
		cards:    cards,
		log:      logger,
	}, nil
}

// Page handles GET /
func (h *EmbedHandler) Page(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := pageTemplate.Execute(w, struct {
		Meta      types.AppMetadata
		EmbedJSON string
	}{h.meta, h.embed})
	if err != nil {
		h.log.Error().Err(err).Msg("❌ failed to render page")
	}
}

// Metadata handles GET /api/embed. With ?card=<id>, ready reports whether
// that card's profile has loaded.
func (h *EmbedHandler) Metadata(w http.ResponseWriter, r *http.Request) {
	meta := h.meta
	if id := r.URL.Query().Get("card"); id != "" && h.cards != nil {
		if card, err := h.cards.Get(id); err == nil {
			meta.Ready = card.State().Ready
		}
	}
	writeJSON(w, http.StatusOK, meta)
}

// Preview handles GET /preview.png
func (h *EmbedHandler) Preview(w http.ResponseWriter, r *http.Request) {
	if h.renderer == nil {
		writeError(w, http.StatusNotFound, "Preview not available")
		return
	}
	png, err := h.renderer.Render(h.content)
	if err != nil {
		h.log.Error().Err(err).Msg("❌ failed to render preview")
		writeError(w, http.StatusInternalServerError, "Unexpected server error")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(png)
}
