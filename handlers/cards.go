/*
# Module: handlers/cards.go
Donation card endpoints: open a card, pick an amount, donate, close.

## Linked Modules
- [services/cards](../services/cards.go) - Card registry
- [donation/orchestrator](../donation/orchestrator.go) - Per-card state machine
- [types/card](../types/card.go) - Request and response bodies

## Tags
http, donation, cards, api

## Exports
CardHandler, NewCardHandler

<!-- LinkedDoc RDF -->
@prefix code: <https://schema.codedoc.org/> .
<this> a code:Module ;
    code:name "handlers/cards.go" ;
    code:description "Donation card endpoints: open a card, pick an amount, donate, close" ;
    code:linksTo [
        code:name "services/cards" ;
        code:path "../services/cards.go" ;
        code:relationship "Card registry"
    ], [
        code:name "donation/orchestrator" ;
        code:path "../donation/orchestrator.go" ;
        code:relationship "Per-card state machine"
    ], [
        code:name "types/card" ;
        code:path "../types/card.go" ;
        code:relationship "Request and response bodies"
    ] ;
    code:exports :CardHandler, :NewCardHandler ;
    code:tags "http", "donation", "cards", "api" .
<!-- End LinkedDoc RDF -->
*/
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/0xmdrakib/BaseTree/amount"
	"github.com/0xmdrakib/BaseTree/donation"
	"github.com/0xmdrakib/BaseTree/host"
	"github.com/0xmdrakib/BaseTree/services"
	"github.com/0xmdrakib/BaseTree/types"
)

// CardHandler serves /api/cards
type CardHandler struct {
	cards *services.CardRegistry
	log   zerolog.Logger
}

// NewCardHandler creates the card handler
func NewCardHandler(cards *services.CardRegistry, logger zerolog.Logger) *CardHandler {
	return &CardHandler{cards: cards, log: logger}
}

// Routes mounts the card endpoints
func (h *CardHandler) Routes(r chi.Router) {
	r.Post("/", h.Create)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Delete("/", h.Delete)
		r.Put("/amount", h.SetAmount)
		r.Post("/donate", h.Donate)
	})
}

// Create handles POST /api/cards. The body is optional; without a fid the
// verified viewer's profile is loaded.
func (h *CardHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req types.CreateCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.FID == 0 {
		if viewer, ok := host.FromContext(r.Context()); ok {
			req.FID = viewer.FID
		}
	}

	card, err := h.cards.Create(r.Context(), req.FID)
	if err != nil {
		h.log.Error().Err(err).Msg("❌ failed to open card")
		writeError(w, http.StatusInternalServerError, "Unexpected server error")
		return
	}
	writeJSON(w, http.StatusCreated, card.State())
}

// Get handles GET /api/cards/{id}
func (h *CardHandler) Get(w http.ResponseWriter, r *http.Request) {
	card, ok := h.card(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, card.State())
}

// SetAmount handles PUT /api/cards/{id}/amount
func (h *CardHandler) SetAmount(w http.ResponseWriter, r *http.Request) {
	card, ok := h.card(w, r)
	if !ok {
		return
	}

	var req types.AmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	orch := card.Orchestrator()
	if req.Custom != nil {
		if _, err := orch.SetCustom(*req.Custom); err != nil {
			h.writeDonationError(w, err)
			return
		}
	}
	if req.Preset != "" {
		if _, err := orch.Choose(amount.Preset(req.Preset)); err != nil {
			h.writeDonationError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, card.State())
}

// Donate handles POST /api/cards/{id}/donate. It returns once the attempt has
// resolved; failures are reported in the card state.
func (h *CardHandler) Donate(w http.ResponseWriter, r *http.Request) {
	card, ok := h.card(w, r)
	if !ok {
		return
	}
	if _, err := card.Orchestrator().Submit(r.Context()); err != nil {
		h.writeDonationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, card.State())
}

// Delete handles DELETE /api/cards/{id}
func (h *CardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.cards.Delete(chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusNotFound, "Card not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CardHandler) card(w http.ResponseWriter, r *http.Request) (*services.Card, bool) {
	card, err := h.cards.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Card not found")
		return nil, false
	}
	return card, true
}

func (h *CardHandler) writeDonationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, donation.ErrAttemptInFlight):
		writeError(w, http.StatusConflict, "A donation is already processing")
	case errors.Is(err, donation.ErrClosed):
		writeError(w, http.StatusNotFound, "Card not found")
	case errors.Is(err, amount.ErrUnknownPreset):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.log.Error().Err(err).Msg("❌ card update failed")
		writeError(w, http.StatusInternalServerError, "Unexpected server error")
	}
}
