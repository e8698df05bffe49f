package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/0xmdrakib/BaseTree/handlers"
	"github.com/0xmdrakib/BaseTree/host"
	"github.com/0xmdrakib/BaseTree/logging"
	"github.com/0xmdrakib/BaseTree/metrics"
	"github.com/0xmdrakib/BaseTree/services"
	"github.com/0xmdrakib/BaseTree/types"
)

func serveCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the mini app backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := load()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			logger.Info().Str("version", Version).Msg("✅ BaseTree starting")

			m := metrics.New()
			profiles, err := newProfileService(ctx, cfg, logger, m)
			if err != nil {
				return err
			}

			// Without a quick-auth secret the server cannot tell embedded
			// viewers apart, so every request is treated as embedded.
			var env host.Environment = host.RequestEnvironment{}
			if cfg.Host.QuickAuthSecret == "" {
				env = host.Embedded(host.Context{})
				logger.Warn().Msg("⚠️ host.quick_auth_secret not set, viewers are not verified")
			}

			cards := services.NewCardRegistry(services.CardRegistryConfig{
				Donation:    cfg.DonationConfig(),
				Environment: env,
				IdleTTL:     cfg.Cards.IdleTTL,
			}, gatewayResolver(cfg, cfg.Binding(), logger), profiles, logging.Component(logger, "cards"), m)
			defer cards.Close()

			preview, err := services.NewPreviewRenderer()
			if err != nil {
				return err
			}

			router, err := handlers.NewRouter(handlers.Deps{
				Logger:   logging.Component(logger, "http"),
				Metrics:  m,
				Cards:    cards,
				Profiles: profiles,
				Preview:  preview,
				Content:  previewContent(cfg),
				App:      types.NewAppMetadata(cfg.App.URL, cfg.App.Name, cfg.App.Description, cfg.App.AppID, cfg.App.SplashBackground),
				QuickAuth: host.QuickAuthConfig{
					Secret:   cfg.Host.QuickAuthSecret,
					Domain:   cfg.Host.Domain,
					Required: cfg.Host.Required,
					Logger:   logging.Component(logger, "quickauth"),
				},
				RateRPS:    cfg.Rate.RPS,
				RateBurst:  cfg.Rate.Burst,
				TrustProxy: cfg.Server.TrustProxy,
			})
			if err != nil {
				return err
			}
			defer router.Close()

			srv := &http.Server{
				Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
				Handler: router,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info().Str("addr", srv.Addr).Str("binding", string(cfg.Binding())).Msg("🌍 server listening")
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("server failed: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			logger.Info().Msg("🛑 shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown failed: %w", err)
			}
			return nil
		},
	}
}
