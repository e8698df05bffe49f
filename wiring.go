package main

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/rs/zerolog"

	"github.com/0xmdrakib/BaseTree/clients"
	"github.com/0xmdrakib/BaseTree/config"
	"github.com/0xmdrakib/BaseTree/donation"
	"github.com/0xmdrakib/BaseTree/gateway"
	"github.com/0xmdrakib/BaseTree/logging"
	"github.com/0xmdrakib/BaseTree/metrics"
	"github.com/0xmdrakib/BaseTree/services"
	"github.com/0xmdrakib/BaseTree/storage"
)

const cacheSweepInterval = time.Minute

func loadAWS(ctx context.Context, cfg config.Config) (aws.Config, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return awsCfg, nil
}

// newProfileCache returns nil for the "none" backend. The memory cache is
// swept until ctx is done.
func newProfileCache(ctx context.Context, cfg config.Config, logger zerolog.Logger) (storage.ProfileCache, error) {
	switch cfg.Cache.Backend {
	case "dynamodb":
		awsCfg, err := loadAWS(ctx, cfg)
		if err != nil {
			return nil, err
		}
		logger.Info().Str("table", cfg.Cache.Table).Msg("💾 profile cache: DynamoDB")
		return storage.NewProfileDynamoDBCache(dynamodb.NewFromConfig(awsCfg), cfg.Cache.Table), nil
	case "memory":
		cache := storage.NewMemoryProfileCache()
		go cache.Janitor(ctx, cacheSweepInterval)
		logger.Info().Msg("💾 profile cache: in-memory")
		return cache, nil
	default:
		logger.Info().Msg("💾 profile cache disabled")
		return nil, nil
	}
}

func newProfileService(ctx context.Context, cfg config.Config, logger zerolog.Logger, m *metrics.Metrics) (*services.ProfileService, error) {
	cache, err := newProfileCache(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	neynar := clients.NewNeynarClient(cfg.Neynar.APIKey, cfg.Neynar.APIURL)
	if !neynar.Configured() {
		logger.Warn().Msg("⚠️ NEYNAR_API_KEY not set, profile lookups will fail")
	}
	return services.NewProfileService(neynar, cache, cfg.Cache.TTL, logging.Component(logger, "profiles"), m), nil
}

// bindings builds the configured payment bindings. An unset URL leaves the
// interface nil rather than holding a nil pointer.
func bindings(cfg config.Config, logger zerolog.Logger) (native gateway.Capability, hosted gateway.Gateway) {
	opts := []gateway.Option{
		gateway.WithLogger(logging.Component(logger, "gateway")),
		gateway.WithUserAgent("BaseTree/" + Version),
	}
	if cfg.Gateway.NativeURL != "" {
		native = gateway.NewNativeWallet(cfg.Gateway.NativeURL, cfg.Gateway.APIKey, cfg.Gateway.Token, cfg.Gateway.TokenDecimals, opts...)
	}
	if cfg.Gateway.HostedURL != "" {
		hosted = gateway.NewHostedCheckout(cfg.Gateway.HostedURL, cfg.Gateway.APIKey, opts...)
	}
	return native, hosted
}

func gatewayResolver(cfg config.Config, binding gateway.Binding, logger zerolog.Logger) services.GatewayResolver {
	native, hosted := bindings(cfg, logger)
	return func(ctx context.Context) (gateway.Gateway, error) {
		return gateway.Discover(ctx, binding, native, hosted)
	}
}

func previewContent(cfg config.Config) services.PreviewContent {
	return services.PreviewContent{
		Title:     cfg.App.Name,
		Tagline:   "Plant a tree with a tap of USDC on Base.",
		Recipient: donation.ShortenAddress(cfg.Donation.Recipient),
		Footer:    cfg.App.URL,
	}
}
