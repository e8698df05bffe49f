package services

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xmdrakib/BaseTree/clients"
	"github.com/0xmdrakib/BaseTree/donation"
	"github.com/0xmdrakib/BaseTree/gateway"
	"github.com/0xmdrakib/BaseTree/host"
	"github.com/0xmdrakib/BaseTree/metrics"
	"github.com/0xmdrakib/BaseTree/storage"
	"github.com/0xmdrakib/BaseTree/types"
)

type fakeSource struct {
	calls int
	user  types.NeynarUser
	err   error
}

func (f *fakeSource) UserByFID(_ context.Context, fid int64) (types.NeynarUser, error) {
	f.calls++
	if f.err != nil {
		return types.NeynarUser{}, f.err
	}
	u := f.user
	u.FID = fid
	return u, nil
}

type brokenCache struct{}

func (brokenCache) Get(context.Context, int64) (*types.Profile, bool, error) {
	return nil, false, errors.New("cache down")
}

func (brokenCache) Put(context.Context, types.Profile, time.Duration) error {
	return errors.New("cache down")
}

func TestProfileServiceCachesLookups(t *testing.T) {
	source := &fakeSource{user: types.NeynarUser{Username: "alice", FollowerCount: 10}}
	svc := NewProfileService(source, storage.NewMemoryProfileCache(), time.Minute, zerolog.Nop(), metrics.New())

	first, err := svc.Profile(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, "alice", first.Username)
	assert.Equal(t, "No signal yet", first.Signal.Label)

	second, err := svc.Profile(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, source.calls)
}

func TestProfileServiceCacheFailureIsAMiss(t *testing.T) {
	source := &fakeSource{user: types.NeynarUser{Username: "bob"}}
	svc := NewProfileService(source, brokenCache{}, time.Minute, zerolog.Nop(), nil)

	p, err := svc.Profile(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "bob", p.Username)
	assert.Equal(t, 1, source.calls)
}

func TestProfileServicePropagatesSourceErrors(t *testing.T) {
	svc := NewProfileService(&fakeSource{err: clients.ErrNotFound}, nil, 0, zerolog.Nop(), nil)

	_, err := svc.Profile(context.Background(), 7)
	assert.ErrorIs(t, err, clients.ErrNotFound)
}

type stubGateway struct{}

func (stubGateway) Name() string { return "hosted" }

func (stubGateway) Initiate(context.Context, gateway.Request) (gateway.Outcome, error) {
	return gateway.Succeeded("0xABCDEF0123456789"), nil
}

func registryConfig() CardRegistryConfig {
	return CardRegistryConfig{
		Donation: donation.Config{
			Recipient:      "0x62233D5483515A79ac06CEcEbac7D399fDF8a99b",
			Presets:        []string{"0.10", "0.50", "1.00"},
			DefaultPreset:  "0.50",
			DefaultCustom:  "1.00",
			FallbackAmount: "1.00",
			ExplorerURL:    "https://basescan.org/tx/",
			VerifyURL:      "https://onetreeplanted.org/pages/donate-crypto",
		},
		Environment:  host.Embedded(host.Context{FID: 1}),
		IdleTTL:      time.Minute,
		ReapInterval: time.Hour,
	}
}

func resolveStub(context.Context) (gateway.Gateway, error) {
	return stubGateway{}, nil
}

func TestCardRegistryLifecycle(t *testing.T) {
	m := metrics.New()
	profiles := NewProfileService(&fakeSource{user: types.NeynarUser{Username: "alice"}}, nil, 0, zerolog.Nop(), nil)
	r := NewCardRegistry(registryConfig(), resolveStub, profiles, zerolog.Nop(), m)
	defer r.Close()

	card, err := r.Create(context.Background(), 42)
	require.NoError(t, err)

	state := card.State()
	assert.Equal(t, "idle", state.Status)
	assert.Equal(t, "0.50", state.Amount)
	assert.Equal(t, []string{"0.10", "0.50", "1.00"}, state.Presets)
	assert.Equal(t, "0x6223…a99b", state.RecipientShort)
	assert.Equal(t, "hosted", state.Binding)
	assert.True(t, state.Ready)
	require.NotNil(t, state.Profile)
	assert.Equal(t, "alice", state.Profile.Username)

	got, err := r.Get(card.ID)
	require.NoError(t, err)
	assert.Same(t, card, got)

	_, err = got.Orchestrator().Submit(context.Background())
	require.NoError(t, err)
	state = got.State()
	assert.Equal(t, "success", state.Status)
	require.NotNil(t, state.Receipt)
	assert.Equal(t, "0xABCDEF01…23456789", state.Receipt.ShortHash)

	require.NoError(t, r.Delete(card.ID))
	assert.True(t, card.Orchestrator().Closed())
	assert.ErrorIs(t, r.Delete(card.ID), ErrCardNotFound)
	_, err = r.Get(card.ID)
	assert.ErrorIs(t, err, ErrCardNotFound)
	assert.Zero(t, r.Len())
}

func TestCardRegistryWithoutBinding(t *testing.T) {
	resolve := func(context.Context) (gateway.Gateway, error) {
		return nil, gateway.ErrCapabilityMissing
	}
	r := NewCardRegistry(registryConfig(), resolve, nil, zerolog.Nop(), nil)
	defer r.Close()

	card, err := r.Create(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, card.State().Binding)
	assert.False(t, card.State().Ready)
}

// countingWallet records capability lookups against the host
type countingWallet struct {
	stubGateway
	available int
}

func (w *countingWallet) Name() string { return "native" }

func (w *countingWallet) Available(context.Context) (bool, error) {
	w.available++
	return true, nil
}

func TestCardRegistrySkipsDiscoveryOutsideHost(t *testing.T) {
	wallet := &countingWallet{}
	resolve := func(ctx context.Context) (gateway.Gateway, error) {
		return gateway.Discover(ctx, gateway.BindingAuto, wallet, stubGateway{})
	}
	cfg := registryConfig()
	cfg.Environment = host.RequestEnvironment{}
	r := NewCardRegistry(cfg, resolve, nil, zerolog.Nop(), nil)
	defer r.Close()

	card, err := r.Create(context.Background(), 0)
	require.NoError(t, err)
	assert.Zero(t, wallet.available)
	assert.Empty(t, card.State().Binding)

	state, err := card.Orchestrator().Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, donation.StatusError, state.Status)
	assert.Equal(t, donation.MessageHostUnavailable, state.Message)

	embedded := host.WithContext(context.Background(), host.Context{FID: 7})
	card, err = r.Create(embedded, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, wallet.available)
	assert.Equal(t, "native", card.State().Binding)
}

func TestCardRegistryReapsIdleCards(t *testing.T) {
	r := NewCardRegistry(registryConfig(), resolveStub, nil, zerolog.Nop(), nil)
	defer r.Close()

	now := time.Unix(1_700_000_000, 0)
	r.now = func() time.Time { return now }

	stale, err := r.Create(context.Background(), 0)
	require.NoError(t, err)

	now = now.Add(45 * time.Second)
	fresh, err := r.Create(context.Background(), 0)
	require.NoError(t, err)

	now = now.Add(30 * time.Second)
	assert.Equal(t, 1, r.reap())

	_, err = r.Get(stale.ID)
	assert.ErrorIs(t, err, ErrCardNotFound)
	assert.True(t, stale.Orchestrator().Closed())

	_, err = r.Get(fresh.ID)
	assert.NoError(t, err)
}

func TestCardRegistryCloseClosesCards(t *testing.T) {
	r := NewCardRegistry(registryConfig(), resolveStub, nil, zerolog.Nop(), nil)

	card, err := r.Create(context.Background(), 0)
	require.NoError(t, err)

	r.Close()
	r.Close()
	assert.True(t, card.Orchestrator().Closed())
	assert.Zero(t, r.Len())
}

func TestPreviewRenderer(t *testing.T) {
	r, err := NewPreviewRenderer()
	require.NoError(t, err)

	content := PreviewContent{
		Title:     "Base Tree",
		Tagline:   "Plant a tree with a tap of USDC on Base.",
		Recipient: "0x6223…a99b",
		Footer:    "basetree.example",
	}
	data, err := r.Render(content)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, PreviewWidth, img.Bounds().Dx())
	assert.Equal(t, PreviewHeight, img.Bounds().Dy())

	again, err := r.Render(content)
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

type keylessSource struct{ fakeSource }

func (*keylessSource) Configured() bool { return false }

func TestProfileServiceConfigured(t *testing.T) {
	assert.True(t, NewProfileService(&fakeSource{}, nil, 0, zerolog.Nop(), nil).Configured())
	assert.False(t, NewProfileService(&keylessSource{}, nil, 0, zerolog.Nop(), nil).Configured())
	assert.True(t, NewProfileService(clients.NewNeynarClient("key", ""), nil, 0, zerolog.Nop(), nil).Configured())
}
