package donation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xmdrakib/BaseTree/amount"
	"github.com/0xmdrakib/BaseTree/gateway"
	"github.com/0xmdrakib/BaseTree/host"
	"github.com/0xmdrakib/BaseTree/metrics"
	"github.com/0xmdrakib/BaseTree/sequence"
)

const testRecipient = "0x62233D5483515A79ac06CEcEbac7D399fDF8a99b"

// fakeGateway has no PollStatus, like the native wallet binding
type fakeGateway struct {
	mu       sync.Mutex
	initiate func(ctx context.Context, req gateway.Request) (gateway.Outcome, error)
	requests []gateway.Request
}

func (g *fakeGateway) Name() string { return "fake" }

func (g *fakeGateway) Initiate(ctx context.Context, req gateway.Request) (gateway.Outcome, error) {
	g.mu.Lock()
	g.requests = append(g.requests, req)
	fn := g.initiate
	g.mu.Unlock()
	return fn(ctx, req)
}

func (g *fakeGateway) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.requests)
}

// pollingGateway adds a status poll, like the hosted checkout binding
type pollingGateway struct {
	fakeGateway
	poll      func(ctx context.Context, id string) (gateway.Outcome, error)
	pollCalls int
}

func (g *pollingGateway) PollStatus(ctx context.Context, id string, testnet bool) (gateway.Outcome, error) {
	g.mu.Lock()
	g.pollCalls++
	g.mu.Unlock()
	return g.poll(ctx, id)
}

func returning(out gateway.Outcome, err error) func(context.Context, gateway.Request) (gateway.Outcome, error) {
	return func(context.Context, gateway.Request) (gateway.Outcome, error) {
		return out, err
	}
}

func testConfig() Config {
	return Config{
		Recipient:      testRecipient,
		Presets:        []string{"0.10", "0.50", "1.00"},
		DefaultPreset:  "0.50",
		DefaultCustom:  "1.00",
		FallbackAmount: "1.00",
		ExplorerURL:    "https://basescan.org/tx/",
		VerifyURL:      "https://onetreeplanted.org/pages/donate-crypto",
		GatewayTimeout: 5 * time.Second,
		Schedule: sequence.Schedule{
			Growing:  10 * time.Millisecond,
			Complete: 20 * time.Millisecond,
			Settle:   30 * time.Millisecond,
		},
	}
}

func newOrchestrator(t *testing.T, gw gateway.Gateway, opts ...Option) *Orchestrator {
	t.Helper()
	o, err := New(testConfig(), gw, opts...)
	require.NoError(t, err)
	t.Cleanup(o.Close)
	return o
}

func withCustom(t *testing.T, o *Orchestrator, raw string) {
	t.Helper()
	_, err := o.Choose(amount.Custom)
	require.NoError(t, err)
	_, err = o.SetCustom(raw)
	require.NoError(t, err)
}

func TestSubmitRejectsInvalidAmountsWithoutGatewayCall(t *testing.T) {
	for _, raw := range []string{"0", "-5", "abc", "", "0.001"} {
		t.Run(raw, func(t *testing.T) {
			gw := &fakeGateway{initiate: returning(gateway.Succeeded("0xABCDEF0123456789"), nil)}
			o := newOrchestrator(t, gw)
			withCustom(t, o, raw)

			state, err := o.Submit(context.Background())
			require.NoError(t, err)

			assert.Equal(t, StatusError, state.Status)
			assert.Equal(t, MessageInvalidAmount, state.Message)
			assert.Zero(t, gw.calls())

			var vErr *ValidationError
			require.ErrorAs(t, state.Err, &vErr)
			assert.Equal(t, ReasonInvalid, vErr.Reason)
		})
	}
}

func TestSubmitRejectsAmountOverLimit(t *testing.T) {
	gw := &fakeGateway{initiate: returning(gateway.Succeeded("0xABCDEF0123456789"), nil)}
	o := newOrchestrator(t, gw)
	withCustom(t, o, "501")

	state, err := o.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StatusError, state.Status)
	assert.Equal(t, MessageTooLarge, state.Message)
	assert.Zero(t, gw.calls())

	_, err = o.SetCustom("500")
	require.NoError(t, err)
	state, err = o.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, state.Status)
	assert.Equal(t, 1, gw.calls())
}

func TestSubmitWithImmediateReference(t *testing.T) {
	gw := &pollingGateway{
		fakeGateway: fakeGateway{initiate: returning(gateway.Succeeded("0xABCDEF0123456789"), nil)},
		poll: func(context.Context, string) (gateway.Outcome, error) {
			return gateway.Outcome{}, errors.New("must not poll")
		},
	}

	var (
		mu     sync.Mutex
		stages []sequence.Stage
	)
	o := newOrchestrator(t, gw, WithStageObserver(func(s sequence.Stage) {
		mu.Lock()
		stages = append(stages, s)
		mu.Unlock()
	}))

	state, err := o.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, state.Status)
	assert.Equal(t, MessageSent, state.Message)
	require.NotNil(t, state.Receipt)
	assert.Equal(t, "0xABCDEF0123456789", state.Receipt.TransactionHash)
	assert.Equal(t, "https://basescan.org/tx/0xABCDEF0123456789", state.Receipt.ExplorerURL)
	assert.Zero(t, gw.pollCalls)

	require.Len(t, gw.requests, 1)
	assert.Equal(t, "0.50", gw.requests[0].Amount.Text)
	assert.Equal(t, testRecipient, gw.requests[0].Recipient)

	o.Wait()
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []sequence.Stage{sequence.Seed, sequence.Growing, sequence.Complete, sequence.Idle}, stages)
}

func TestSubmitPollFailureStillSucceeds(t *testing.T) {
	gw := &pollingGateway{
		fakeGateway: fakeGateway{initiate: returning(gateway.Pending("abc"), nil)},
		poll: func(_ context.Context, id string) (gateway.Outcome, error) {
			assert.Equal(t, "abc", id)
			return gateway.Outcome{}, errors.New("status endpoint down")
		},
	}
	m := metrics.New()
	o := newOrchestrator(t, gw, WithMetrics(m))

	state, err := o.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, state.Status)
	assert.Nil(t, state.Receipt)
	assert.NoError(t, state.Err)
	assert.Equal(t, 1, gw.pollCalls)
}

func TestSubmitPollRecordsReference(t *testing.T) {
	gw := &pollingGateway{
		fakeGateway: fakeGateway{initiate: returning(gateway.Pending("abc"), nil)},
		poll: func(context.Context, string) (gateway.Outcome, error) {
			return gateway.Succeeded("0xfeedfacecafebeef"), nil
		},
	}
	o := newOrchestrator(t, gw)

	state, err := o.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, state.Status)
	require.NotNil(t, state.Receipt)
	assert.Equal(t, "0xfeedfacecafebeef", state.Receipt.TransactionHash)
	assert.Equal(t, 1, gw.pollCalls)
}

func TestSubmitPendingWithoutPollerSucceeds(t *testing.T) {
	gw := &fakeGateway{initiate: returning(gateway.Pending("abc"), nil)}
	o := newOrchestrator(t, gw)

	state, err := o.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, state.Status)
	assert.Nil(t, state.Receipt)
}

func TestSubmitShortReferenceIsNotRecorded(t *testing.T) {
	gw := &fakeGateway{initiate: returning(gateway.Succeeded("0x1234"), nil)}
	o := newOrchestrator(t, gw)

	state, err := o.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, state.Status)
	assert.Nil(t, state.Receipt)
}

func TestPollGetsItsOwnDeadline(t *testing.T) {
	gw := &pollingGateway{
		fakeGateway: fakeGateway{initiate: func(ctx context.Context, _ gateway.Request) (gateway.Outcome, error) {
			<-ctx.Done()
			return gateway.Pending("abc"), nil
		}},
		poll: func(ctx context.Context, _ string) (gateway.Outcome, error) {
			if err := ctx.Err(); err != nil {
				return gateway.Outcome{}, err
			}
			_, ok := ctx.Deadline()
			assert.True(t, ok)
			return gateway.Succeeded("0xfeedfacecafebeef"), nil
		},
	}
	cfg := testConfig()
	cfg.GatewayTimeout = 50 * time.Millisecond
	o, err := New(cfg, gw)
	require.NoError(t, err)
	t.Cleanup(o.Close)

	state, err := o.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, state.Status)
	require.NotNil(t, state.Receipt)
	assert.Equal(t, "0xfeedfacecafebeef", state.Receipt.TransactionHash)
	assert.Equal(t, 1, gw.pollCalls)
}

func TestSubmitGatewayErrors(t *testing.T) {
	tests := []struct {
		name     string
		outcome  gateway.Outcome
		err      error
		expected string
	}{
		{
			name:     "thrown rejection",
			err:      &gateway.Error{Status: 400, Reason: "rejected_by_user", Message: "User rejected the request."},
			expected: MessageRejected,
		},
		{
			name:     "rejection sentinel",
			err:      gateway.ErrRejected,
			expected: MessageRejected,
		},
		{
			name:     "provider message",
			err:      &gateway.Error{Status: 502, Message: "insufficient balance"},
			expected: "insufficient balance",
		},
		{
			name:     "provider error without message",
			err:      &gateway.Error{Status: 500},
			expected: MessagePaymentFailed,
		},
		{
			name:     "wrapped cause",
			err:      fmt.Errorf("wallet bridge: %w", errors.New("chain mismatch")),
			expected: "chain mismatch",
		},
		{
			name:     "transport failure",
			err:      fmt.Errorf("%w: failed to call payment provider: %w", gateway.ErrTransport, errors.New("connection reset")),
			expected: MessagePaymentFailed,
		},
		{
			name:     "blank cause",
			err:      errors.New("  "),
			expected: MessagePaymentFailed,
		},
		{
			name:     "rejected outcome",
			outcome:  gateway.Rejection("rejected_by_user", ""),
			expected: MessageRejected,
		},
		{
			name:     "failed outcome with message",
			outcome:  gateway.Failure("gas too low"),
			expected: "gas too low",
		},
		{
			name:     "failed outcome without message",
			outcome:  gateway.Failure(""),
			expected: MessagePaymentFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &fakeGateway{initiate: returning(tt.outcome, tt.err)}
			o := newOrchestrator(t, gw)

			state, err := o.Submit(context.Background())
			require.NoError(t, err)

			assert.Equal(t, StatusError, state.Status)
			assert.Equal(t, tt.expected, state.Message)
			assert.Nil(t, state.Receipt)
			assert.Error(t, state.Err)
			assert.Equal(t, sequence.Idle, state.Stage)
		})
	}

	assert.NotEqual(t, MessageRejected, MessagePaymentFailed)
}

func TestSubmitOutsideHost(t *testing.T) {
	gw := &fakeGateway{initiate: returning(gateway.Succeeded("0xABCDEF0123456789"), nil)}
	o := newOrchestrator(t, gw, WithEnvironment(host.Static{}))

	state, err := o.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StatusError, state.Status)
	assert.Equal(t, MessageHostUnavailable, state.Message)
	assert.ErrorIs(t, state.Err, host.ErrUnavailable)
	assert.Zero(t, gw.calls())
}

func TestSubmitWithoutGateway(t *testing.T) {
	o := newOrchestrator(t, nil)

	state, err := o.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StatusError, state.Status)
	assert.Equal(t, MessageHostUnavailable, state.Message)
	assert.ErrorIs(t, state.Err, gateway.ErrCapabilityMissing)
}

func TestSubmitSurvivesCallerCancellation(t *testing.T) {
	gw := &fakeGateway{initiate: func(ctx context.Context, _ gateway.Request) (gateway.Outcome, error) {
		if err := ctx.Err(); err != nil {
			return gateway.Outcome{}, err
		}
		return gateway.Succeeded("0xABCDEF0123456789"), nil
	}}
	o := newOrchestrator(t, gw)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	state, err := o.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, state.Status)
}

// blockingGateway holds Initiate until release is closed
func blockingGateway() (*fakeGateway, chan struct{}, chan struct{}) {
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	gw := &fakeGateway{initiate: func(context.Context, gateway.Request) (gateway.Outcome, error) {
		once.Do(func() { close(started) })
		<-release
		return gateway.Succeeded("0xABCDEF0123456789"), nil
	}}
	return gw, started, release
}

func TestSecondSubmitWhileProcessingHasNoEffect(t *testing.T) {
	gw, started, release := blockingGateway()
	o := newOrchestrator(t, gw)

	done := make(chan State)
	go func() {
		state, _ := o.Submit(context.Background())
		done <- state
	}()
	<-started

	state, err := o.Submit(context.Background())
	assert.ErrorIs(t, err, ErrAttemptInFlight)
	assert.Equal(t, StatusProcessing, state.Status)
	assert.True(t, state.Locked())
	require.NotNil(t, state.Attempt)
	assert.Equal(t, "0.50", state.Attempt.Amount.Text)

	_, err = o.Choose("1.00")
	assert.ErrorIs(t, err, ErrAttemptInFlight)
	_, err = o.SetCustom("3")
	assert.ErrorIs(t, err, ErrAttemptInFlight)
	assert.Equal(t, amount.Preset("0.50"), o.State().Preset)

	close(release)
	final := <-done

	assert.Equal(t, StatusSuccess, final.Status)
	assert.Nil(t, final.Attempt)
	assert.Equal(t, 1, gw.calls())
}

func TestCloseDuringFlightDropsResult(t *testing.T) {
	gw, started, release := blockingGateway()
	o := newOrchestrator(t, gw)

	done := make(chan error)
	go func() {
		_, err := o.Submit(context.Background())
		done <- err
	}()
	<-started

	o.Close()
	close(release)

	assert.ErrorIs(t, <-done, ErrClosed)

	state := o.State()
	assert.NotEqual(t, StatusSuccess, state.Status)
	assert.Nil(t, state.Receipt)
	assert.Equal(t, sequence.Idle, state.Stage)

	_, err := o.Submit(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestSelectionChangeResetsToIdle(t *testing.T) {
	gw := &fakeGateway{initiate: returning(gateway.Outcome{}, errors.New("boom"))}
	o := newOrchestrator(t, gw)

	state, err := o.Submit(context.Background())
	require.NoError(t, err)
	require.Equal(t, StatusError, state.Status)

	state, err = o.Choose("1.00")
	require.NoError(t, err)
	assert.Equal(t, StatusIdle, state.Status)
	assert.Empty(t, state.Message)
	assert.NoError(t, state.Err)

	gw.initiate = returning(gateway.Succeeded("0xABCDEF0123456789"), nil)
	state, err = o.Submit(context.Background())
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, state.Status)

	state, err = o.SetCustom("2")
	require.NoError(t, err)
	assert.Equal(t, StatusIdle, state.Status)
	assert.Nil(t, state.Receipt)
}

func TestChooseUnknownPreset(t *testing.T) {
	o := newOrchestrator(t, &fakeGateway{})

	_, err := o.Choose("7.77")
	assert.ErrorIs(t, err, amount.ErrUnknownPreset)
	assert.Equal(t, amount.Preset("0.50"), o.State().Preset)
}

func TestDisplayAmountIsFailSoft(t *testing.T) {
	o := newOrchestrator(t, &fakeGateway{})
	withCustom(t, o, "abc")

	assert.Equal(t, "1.00", o.State().Amount)
}

func TestNewRequiresRecipient(t *testing.T) {
	cfg := testConfig()
	cfg.Recipient = ""
	_, err := New(cfg, nil)
	assert.Error(t, err)
}
