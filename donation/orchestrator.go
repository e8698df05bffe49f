/*
# Module: donation/orchestrator.go
Per-card donation state machine: validates the amount, drives the payment gateway,
resolves the outcome and plays the completion sequence on success.

## Linked Modules
- [amount/preset](../amount/preset.go) - Preset and custom amount selection
- [gateway/gateway](../gateway/gateway.go) - Payment capability
- [host/environment](../host/environment.go) - Embedding host detection
- [sequence/sequencer](../sequence/sequencer.go) - Completion sequence
- [metrics/metrics](../metrics/metrics.go) - Submission and outcome counters

## Tags
donation, payments, state-machine, orchestration

## Exports
Orchestrator, New, Config, State, Status, Attempt, Option, WithLogger, WithMetrics, WithEnvironment, WithStageObserver

<!-- LinkedDoc RDF -->
@prefix code: <https://schema.codedoc.org/> .
<this> a code:Module ;
    code:name "donation/orchestrator.go" ;
    code:description "Per-card donation state machine" ;
    code:linksTo [
        code:name "amount/preset" ;
        code:path "../amount/preset.go" ;
        code:relationship "Preset and custom amount selection"
    ], [
        code:name "gateway/gateway" ;
        code:path "../gateway/gateway.go" ;
        code:relationship "Payment capability"
    ], [
        code:name "host/environment" ;
        code:path "../host/environment.go" ;
        code:relationship "Embedding host detection"
    ], [
        code:name "sequence/sequencer" ;
        code:path "../sequence/sequencer.go" ;
        code:relationship "Completion sequence"
    ], [
        code:name "metrics/metrics" ;
        code:path "../metrics/metrics.go" ;
        code:relationship "Submission and outcome counters"
    ] ;
    code:exports :Orchestrator, :New, :Config, :State, :Status, :Attempt, :Option ;
    code:tags "donation", "payments", "state-machine", "orchestration" .
<!-- End LinkedDoc RDF -->
*/
package donation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/0xmdrakib/BaseTree/amount"
	"github.com/0xmdrakib/BaseTree/gateway"
	"github.com/0xmdrakib/BaseTree/host"
	"github.com/0xmdrakib/BaseTree/metrics"
	"github.com/0xmdrakib/BaseTree/sequence"
)

// Status is the donation status of one card
type Status string

const (
	StatusIdle       Status = "idle"
	StatusProcessing Status = "processing"
	StatusSuccess    Status = "success"
	StatusError      Status = "error"
)

// DefaultMaxAmount is the largest donation accepted when none is configured
var DefaultMaxAmount = decimal.NewFromInt(500)

// DefaultGatewayTimeout bounds the initiate call, and separately the status poll that may follow it
const DefaultGatewayTimeout = 2 * time.Minute

// Config is fixed for the lifetime of an orchestrator
type Config struct {
	Recipient      string
	Testnet        bool
	Presets        []string
	DefaultPreset  string
	DefaultCustom  string
	FallbackAmount string
	MaxAmount      decimal.Decimal
	ExplorerURL    string
	VerifyURL      string
	GatewayTimeout time.Duration
	Schedule       sequence.Schedule
}

// State is a snapshot of a card
type State struct {
	Status  Status
	Message string
	Receipt *Receipt
	Preset  amount.Preset
	Presets []amount.Preset
	Custom  string
	Amount  string
	Stage   sequence.Stage
	Binding string
	Attempt *Attempt
	Err     error
}

// Locked reports whether amount controls and submit are disabled
func (s State) Locked() bool {
	return s.Status == StatusProcessing
}

// Attempt is the payment in flight
type Attempt struct {
	ID        uuid.UUID
	Amount    amount.Amount
	Recipient string
	StartedAt time.Time
}

// Orchestrator owns the donation state of one card. At most one attempt is in
// flight; results that arrive after Close are dropped.
type Orchestrator struct {
	cfg     Config
	gateway gateway.Gateway
	env     host.Environment
	log     zerolog.Logger
	metrics *metrics.Metrics
	seq     *sequence.Sequencer
	now     func() time.Time

	mu        sync.Mutex
	selection amount.Selection
	status    Status
	message   string
	receipt   *Receipt
	lastErr   error
	attempt   *Attempt
	closed    bool
}

// Option configures an Orchestrator
type Option func(*options)

type options struct {
	log      zerolog.Logger
	metrics  *metrics.Metrics
	env      host.Environment
	observer func(sequence.Stage)
}

// WithLogger sets the logger
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) { o.log = logger }
}

// WithMetrics records submissions and outcomes in m
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithEnvironment sets the embedding host check. Without it every submit is
// treated as running inside a host.
func WithEnvironment(env host.Environment) Option {
	return func(o *options) { o.env = env }
}

// WithStageObserver is called on every completion sequence stage. It runs
// synchronously and must not call back into the Orchestrator.
func WithStageObserver(fn func(sequence.Stage)) Option {
	return func(o *options) { o.observer = fn }
}

// New creates an idle orchestrator. gw may be nil when no payment binding is
// available; submits then end in the host-unavailable error.
func New(cfg Config, gw gateway.Gateway, opts ...Option) (*Orchestrator, error) {
	o := options{log: zerolog.Nop(), env: host.Embedded(host.Context{})}
	for _, opt := range opts {
		opt(&o)
	}

	if cfg.Recipient == "" {
		return nil, fmt.Errorf("recipient address is required")
	}
	if cfg.MaxAmount.IsZero() {
		cfg.MaxAmount = DefaultMaxAmount
	}
	if cfg.GatewayTimeout <= 0 {
		cfg.GatewayTimeout = DefaultGatewayTimeout
	}
	if cfg.Schedule == (sequence.Schedule{}) {
		cfg.Schedule = sequence.DefaultSchedule
	}

	selection, err := amount.NewSelection(cfg.Presets, cfg.DefaultPreset, cfg.DefaultCustom)
	if err != nil {
		return nil, fmt.Errorf("failed to create amount selection: %w", err)
	}

	return &Orchestrator{
		cfg:       cfg,
		gateway:   gw,
		env:       o.env,
		log:       o.log,
		metrics:   o.metrics,
		seq:       sequence.New(cfg.Schedule, o.observer),
		now:       time.Now,
		selection: selection,
		status:    StatusIdle,
	}, nil
}

// State returns a snapshot of the card
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stateLocked()
}

func (o *Orchestrator) stateLocked() State {
	s := State{
		Status:  o.status,
		Message: o.message,
		Receipt: o.receipt,
		Preset:  o.selection.Preset(),
		Presets: o.selection.Presets(),
		Custom:  o.selection.CustomText(),
		Amount:  o.selection.Display(o.cfg.FallbackAmount),
		Stage:   o.seq.Stage(),
		Err:     o.lastErr,
	}
	if o.gateway != nil {
		s.Binding = o.gateway.Name()
	}
	if o.attempt != nil {
		a := *o.attempt
		s.Attempt = &a
	}
	return s
}

// Choose selects a preset. A finished attempt's result is cleared.
func (o *Orchestrator) Choose(p amount.Preset) (State, error) {
	return o.changeSelection(func(s *amount.Selection) error {
		return s.Choose(p)
	})
}

// SetCustom replaces the custom amount text. A finished attempt's result is cleared.
func (o *Orchestrator) SetCustom(raw string) (State, error) {
	return o.changeSelection(func(s *amount.Selection) error {
		s.SetCustom(raw)
		return nil
	})
}

func (o *Orchestrator) changeSelection(change func(*amount.Selection) error) (State, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return o.stateLocked(), ErrClosed
	}
	if o.status == StatusProcessing {
		return o.stateLocked(), ErrAttemptInFlight
	}
	if err := change(&o.selection); err != nil {
		return o.stateLocked(), err
	}

	if o.status != StatusIdle {
		o.log.Debug().Str("from", string(o.status)).Msg("🔄 selection changed, card reset")
	}
	o.status = StatusIdle
	o.message = ""
	o.receipt = nil
	o.lastErr = nil
	return o.stateLocked(), nil
}

// Submit runs one donation attempt to completion and returns the resulting
// state. Validation, host and gateway failures end in StatusError and are not
// returned as errors; only ErrAttemptInFlight and ErrClosed are.
func (o *Orchestrator) Submit(ctx context.Context) (State, error) {
	o.mu.Lock()
	if o.closed {
		defer o.mu.Unlock()
		return o.stateLocked(), ErrClosed
	}
	if o.status == StatusProcessing {
		defer o.mu.Unlock()
		return o.stateLocked(), ErrAttemptInFlight
	}

	o.message = ""
	o.receipt = nil
	o.lastErr = nil

	amt := o.selection.Submission()
	if err := o.validate(amt); err != nil {
		o.failLocked(err, err.Message())
		defer o.mu.Unlock()
		return o.stateLocked(), nil
	}

	attempt := &Attempt{
		ID:        uuid.New(),
		Amount:    amt,
		Recipient: o.cfg.Recipient,
		StartedAt: o.now(),
	}
	o.attempt = attempt
	o.status = StatusProcessing
	o.mu.Unlock()

	log := o.log.With().Str("attempt", attempt.ID.String()).Str("amount", amt.Text).Logger()

	if _, err := o.env.Detect(ctx); err != nil {
		log.Info().Err(err).Msg("🚫 donation outside embedding host")
		return o.resolve(attempt, StatusError, MessageHostUnavailable, nil, err)
	}
	if o.gateway == nil {
		log.Warn().Msg("🚫 no payment binding available")
		return o.resolve(attempt, StatusError, MessageHostUnavailable, nil, gateway.ErrCapabilityMissing)
	}

	binding := o.gateway.Name()
	log = log.With().Str("binding", binding).Logger()
	log.Info().Str("recipient", attempt.Recipient).Msg("💸 donation submitted")
	o.metrics.Submitted(binding)

	// A dropped client connection must not abandon a payment the wallet may already have sent.
	gctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.cfg.GatewayTimeout)
	defer cancel()

	outcome, err := o.gateway.Initiate(gctx, gateway.Request{
		Amount:    amt,
		Recipient: attempt.Recipient,
		Testnet:   o.cfg.Testnet,
	})
	if err != nil {
		if errors.Is(err, gateway.ErrRejected) {
			log.Info().Err(err).Msg("🙅 donation rejected")
			return o.resolve(attempt, StatusError, MessageRejected, nil, err)
		}
		log.Error().Err(err).Msg("❌ donation failed")
		return o.resolve(attempt, StatusError, failureMessage(err), nil, err)
	}

	switch outcome.Kind {
	case gateway.KindRejected:
		log.Info().Str("reason", outcome.Reason).Msg("🙅 donation rejected")
		return o.resolve(attempt, StatusError, MessageRejected, nil, gateway.ErrRejected)

	case gateway.KindFailed:
		err := &gateway.Error{Reason: outcome.Reason, Message: outcome.Message}
		log.Error().Err(err).Msg("❌ donation failed")
		msg := outcome.Message
		if msg == "" {
			msg = MessagePaymentFailed
		}
		return o.resolve(attempt, StatusError, msg, nil, err)
	}

	reference := outcome.Reference
	if reference == "" && outcome.PendingID != "" {
		reference = o.poll(ctx, log, outcome.PendingID)
	}

	receipt := newReceipt(reference, o.cfg.ExplorerURL, o.cfg.VerifyURL)
	log.Info().Str("reference", reference).Msg("🌳 donation sent")
	return o.resolve(attempt, StatusSuccess, MessageSent, receipt, nil)
}

// poll checks a pending payment once. Failures only cost the reference.
func (o *Orchestrator) poll(ctx context.Context, log zerolog.Logger, id string) string {
	poller, ok := o.gateway.(gateway.Poller)
	if !ok {
		return ""
	}

	// A slow initiate must not eat into the poll's deadline.
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.cfg.GatewayTimeout)
	defer cancel()

	outcome, err := poller.PollStatus(pctx, id, o.cfg.Testnet)
	if err != nil {
		log.Debug().Err(err).Str("payment_id", id).Msg("status poll failed")
		o.metrics.Polled("error")
		return ""
	}
	if outcome.Kind != gateway.KindSuccess || outcome.Reference == "" {
		log.Debug().Str("payment_id", id).Str("kind", string(outcome.Kind)).Msg("status poll returned no reference")
		o.metrics.Polled("empty")
		return ""
	}

	o.metrics.Polled("reference")
	return outcome.Reference
}

// resolve applies the result of attempt unless the card was closed or moved on
func (o *Orchestrator) resolve(attempt *Attempt, status Status, message string, receipt *Receipt, err error) (State, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed || o.attempt != attempt {
		o.log.Debug().Str("attempt", attempt.ID.String()).Msg("late payment result dropped")
		return o.stateLocked(), ErrClosed
	}

	o.attempt = nil
	o.status = status
	o.message = message
	o.receipt = receipt
	o.lastErr = err
	o.metrics.Resolved(string(status))

	if status == StatusSuccess {
		o.seq.Start()
	}
	return o.stateLocked(), nil
}

func (o *Orchestrator) failLocked(err error, message string) {
	o.status = StatusError
	o.message = message
	o.receipt = nil
	o.lastErr = err
	o.metrics.Resolved(string(StatusError))
	o.log.Info().Err(err).Msg("⚠️ donation not submitted")
}

func (o *Orchestrator) validate(a amount.Amount) *ValidationError {
	if !a.IsPositive() {
		return &ValidationError{Reason: ReasonInvalid, Amount: a.Text}
	}
	if a.Exceeds(o.cfg.MaxAmount) {
		return &ValidationError{Reason: ReasonTooLarge, Amount: a.Text}
	}
	return nil
}

// failureMessage prefers the provider's message, then the root cause text.
// Transport failures stay generic.
func failureMessage(err error) string {
	var gwErr *gateway.Error
	if errors.As(err, &gwErr) {
		if gwErr.Message != "" {
			return gwErr.Message
		}
		return MessagePaymentFailed
	}
	if errors.Is(err, gateway.ErrTransport) {
		return MessagePaymentFailed
	}
	for next := errors.Unwrap(err); next != nil; next = errors.Unwrap(next) {
		err = next
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return MessagePaymentFailed
}

// Close tears the card down. An in-flight attempt keeps running but its
// result is dropped, and the completion sequence stops.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	o.closed = true
	o.attempt = nil
	o.seq.Stop()
}

// Closed reports whether Close has been called
func (o *Orchestrator) Closed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closed
}

// Wait blocks until the current completion sequence settles
func (o *Orchestrator) Wait() {
	o.seq.Wait()
}
