/*
# Module: services/cards.go
Card registry: one donation orchestrator per open card, with idle reaping.

## Linked Modules
- [donation/orchestrator](../donation/orchestrator.go) - Per-card state machine
- [services/profile](./profile.go) - Profile shown on the card
- [types/card](../types/card.go) - Card state served to clients
- [metrics/metrics](../metrics/metrics.go) - Active card gauge

## Tags
service, donation, session, lifecycle

## Exports
CardRegistry, NewCardRegistry, CardRegistryConfig, Card, GatewayResolver, ErrCardNotFound

<!-- LinkedDoc RDF -->
@prefix code: <https://schema.codedoc.org/> .
<this> a code:Module ;
    code:name "services/cards.go" ;
    code:description "Card registry: one donation orchestrator per open card, with idle reaping" ;
    code:linksTo [
        code:name "donation/orchestrator" ;
        code:path "../donation/orchestrator.go" ;
        code:relationship "Per-card state machine"
    ], [
        code:name "services/profile" ;
        code:path "./profile.go" ;
        code:relationship "Profile shown on the card"
    ], [
        code:name "types/card" ;
        code:path "../types/card.go" ;
        code:relationship "Card state served to clients"
    ], [
        code:name "metrics/metrics" ;
        code:path "../metrics/metrics.go" ;
        code:relationship "Active card gauge"
    ] ;
    code:exports :CardRegistry, :NewCardRegistry, :CardRegistryConfig, :Card, :GatewayResolver, :ErrCardNotFound ;
    code:tags "service", "donation", "session", "lifecycle" .
<!-- End LinkedDoc RDF -->
*/
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/0xmdrakib/BaseTree/donation"
	"github.com/0xmdrakib/BaseTree/gateway"
	"github.com/0xmdrakib/BaseTree/host"
	"github.com/0xmdrakib/BaseTree/metrics"
	"github.com/0xmdrakib/BaseTree/types"
)

// ErrCardNotFound is returned for unknown or closed card ids
var ErrCardNotFound = errors.New("card not found")

// GatewayResolver picks the payment binding for a new card
type GatewayResolver func(ctx context.Context) (gateway.Gateway, error)

// CardRegistryConfig configures the registry
type CardRegistryConfig struct {
	Donation     donation.Config
	Environment  host.Environment
	IdleTTL      time.Duration
	ReapInterval time.Duration
}

// Card is one open donation card
type Card struct {
	ID      string
	orch    *donation.Orchestrator
	cfg     donation.Config
	profile *types.Profile

	mu       sync.Mutex
	lastSeen time.Time
}

// Orchestrator returns the card's state machine
func (c *Card) Orchestrator() *donation.Orchestrator {
	return c.orch
}

// State converts the orchestrator snapshot into the API shape
func (c *Card) State() types.CardState {
	s := c.orch.State()

	view := types.CardState{
		ID:             c.ID,
		Status:         string(s.Status),
		Message:        s.Message,
		Locked:         s.Locked(),
		Preset:         string(s.Preset),
		Custom:         s.Custom,
		Amount:         s.Amount,
		Stage:          int(s.Stage),
		StageLabel:     s.Stage.Label(),
		StageEmoji:     s.Stage.Emoji(),
		Recipient:      c.cfg.Recipient,
		RecipientShort: donation.ShortenAddress(c.cfg.Recipient),
		VerifyURL:      c.cfg.VerifyURL,
		Binding:        s.Binding,
		Profile:        c.profile,
		Ready:          c.profile != nil,
	}
	for _, p := range s.Presets {
		view.Presets = append(view.Presets, string(p))
	}
	if s.Receipt != nil {
		view.Receipt = &types.Receipt{
			TransactionHash: s.Receipt.TransactionHash,
			ShortHash:       s.Receipt.ShortHash,
			ExplorerURL:     s.Receipt.ExplorerURL,
			VerifyURL:       s.Receipt.VerifyURL,
		}
	}

	c.mu.Lock()
	view.UpdatedAt = c.lastSeen
	c.mu.Unlock()
	return view
}

func (c *Card) touch(now time.Time) {
	c.mu.Lock()
	c.lastSeen = now
	c.mu.Unlock()
}

func (c *Card) idleSince() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSeen
}

// CardRegistry holds the open cards
type CardRegistry struct {
	cfg      CardRegistryConfig
	resolve  GatewayResolver
	profiles *ProfileService
	log      zerolog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time

	mu    sync.RWMutex
	cards map[string]*Card

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// NewCardRegistry creates the registry and starts its reaper. profiles may be nil.
func NewCardRegistry(cfg CardRegistryConfig, resolve GatewayResolver, profiles *ProfileService, logger zerolog.Logger, m *metrics.Metrics) *CardRegistry {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 30 * time.Minute
	}
	if cfg.ReapInterval <= 0 {
		cfg.ReapInterval = time.Minute
	}
	if cfg.Environment == nil {
		cfg.Environment = host.RequestEnvironment{}
	}

	r := &CardRegistry{
		cfg:      cfg,
		resolve:  resolve,
		profiles: profiles,
		log:      logger,
		metrics:  m,
		now:      time.Now,
		cards:    make(map[string]*Card),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}

	go r.reapIdleCards()

	return r
}

// Create opens a card. fid, when non-zero, loads the viewer's profile; a
// failed profile load leaves the card usable but not ready. Without an
// embedding host the card gets no payment binding.
func (r *CardRegistry) Create(ctx context.Context, fid int64) (*Card, error) {
	var gw gateway.Gateway
	if _, err := r.cfg.Environment.Detect(ctx); err != nil {
		// Capability discovery talks to the host, so it waits for an embedding context.
		r.log.Debug().Err(err).Msg("🔍 no embedding host, skipping payment discovery")
	} else if r.resolve != nil {
		resolved, err := r.resolve(ctx)
		if err != nil {
			r.log.Warn().Err(err).Msg("⚠️ no payment binding for new card")
		} else {
			gw = resolved
		}
	}

	id := uuid.New().String()
	orch, err := donation.New(r.cfg.Donation, gw,
		donation.WithLogger(r.log.With().Str("card", id).Logger()),
		donation.WithMetrics(r.metrics),
		donation.WithEnvironment(r.cfg.Environment),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create card: %w", err)
	}

	card := &Card{ID: id, orch: orch, cfg: r.cfg.Donation, lastSeen: r.now()}

	if fid > 0 && r.profiles != nil {
		profile, err := r.profiles.Profile(ctx, fid)
		if err != nil {
			r.log.Warn().Err(err).Int64("fid", fid).Msg("⚠️ profile unavailable for card")
		} else {
			card.profile = &profile
		}
	}

	r.mu.Lock()
	r.cards[id] = card
	r.mu.Unlock()
	r.metrics.CardOpened()

	r.log.Info().Str("card", id).Str("binding", orch.State().Binding).Msg("🌱 card opened")
	return card, nil
}

// Get returns an open card and marks it as active
func (r *CardRegistry) Get(id string) (*Card, error) {
	r.mu.RLock()
	card, ok := r.cards[id]
	r.mu.RUnlock()

	if !ok {
		return nil, ErrCardNotFound
	}
	card.touch(r.now())
	return card, nil
}

// Delete closes a card. Any payment still in flight finishes without updating it.
func (r *CardRegistry) Delete(id string) error {
	r.mu.Lock()
	card, ok := r.cards[id]
	delete(r.cards, id)
	r.mu.Unlock()

	if !ok {
		return ErrCardNotFound
	}
	card.orch.Close()
	r.metrics.CardClosed()
	r.log.Info().Str("card", id).Msg("🍂 card closed")
	return nil
}

// Len returns the number of open cards
func (r *CardRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cards)
}

// Close stops the reaper and closes every card
func (r *CardRegistry) Close() {
	r.once.Do(func() {
		close(r.stop)
		<-r.done

		r.mu.Lock()
		cards := r.cards
		r.cards = make(map[string]*Card)
		r.mu.Unlock()

		for _, card := range cards {
			card.orch.Close()
			r.metrics.CardClosed()
		}
	})
}

// reapIdleCards closes cards nobody has looked at for IdleTTL
func (r *CardRegistry) reapIdleCards() {
	defer close(r.done)

	ticker := time.NewTicker(r.cfg.ReapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			r.reap()
		}
	}
}

func (r *CardRegistry) reap() int {
	cutoff := r.now().Add(-r.cfg.IdleTTL)

	var idle []string
	r.mu.RLock()
	for id, card := range r.cards {
		if card.idleSince().Before(cutoff) && !card.orch.State().Locked() {
			idle = append(idle, id)
		}
	}
	r.mu.RUnlock()

	reaped := 0
	for _, id := range idle {
		if err := r.Delete(id); err == nil {
			reaped++
		}
	}
	if reaped > 0 {
		r.log.Debug().Int("reaped", reaped).Msg("🧹 idle cards reaped")
	}
	return reaped
}
