package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/cobra"

	"github.com/0xmdrakib/BaseTree/amount"
	"github.com/0xmdrakib/BaseTree/donation"
	"github.com/0xmdrakib/BaseTree/gateway"
	"github.com/0xmdrakib/BaseTree/host"
	"github.com/0xmdrakib/BaseTree/logging"
	"github.com/0xmdrakib/BaseTree/score"
	"github.com/0xmdrakib/BaseTree/sequence"
	"github.com/0xmdrakib/BaseTree/services"
	"github.com/0xmdrakib/BaseTree/storage"
)

func donateCmd(load loader) *cobra.Command {
	var (
		custom  string
		preset  string
		binding string
		fid     int64
	)

	cmd := &cobra.Command{
		Use:   "donate",
		Short: "Send one donation through the configured payment binding",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			// stages are printed from the sequencer goroutine
			out := &lockedWriter{w: cmd.OutOrStdout()}

			b := cfg.Binding()
			if binding != "" {
				if b, err = gateway.ParseBinding(binding); err != nil {
					return err
				}
			}

			gw, err := gatewayResolver(cfg, b, logger)(ctx)
			if err != nil {
				logger.Warn().Err(err).Str("binding", string(b)).Msg("⚠️ no payment binding available")
			}

			orch, err := donation.New(cfg.DonationConfig(), gw,
				donation.WithLogger(logging.Component(logger, "donation")),
				donation.WithEnvironment(host.Embedded(host.Context{FID: fid})),
				donation.WithStageObserver(func(s sequence.Stage) {
					if s != sequence.Idle {
						fmt.Fprintf(out, "%s %s\n", s.Emoji(), s.Label())
					}
				}),
			)
			if err != nil {
				return err
			}
			defer orch.Close()

			switch {
			case cmd.Flags().Changed("amount"):
				if _, err := orch.SetCustom(custom); err != nil {
					return err
				}
				if _, err := orch.Choose(amount.Custom); err != nil {
					return err
				}
			case preset != "":
				if _, err := orch.Choose(amount.Preset(preset)); err != nil {
					return err
				}
			}

			fmt.Fprintf(out, "Donating %s USDC to %s\n", orch.State().Amount, donation.ShortenAddress(cfg.Donation.Recipient))
			state, err := orch.Submit(ctx)
			if err != nil {
				return err
			}
			if state.Status != donation.StatusSuccess {
				return errors.New(state.Message)
			}

			fmt.Fprintln(out, state.Message)
			if state.Receipt != nil {
				fmt.Fprintf(out, "Transaction: %s\n%s\n", state.Receipt.ShortHash, state.Receipt.ExplorerURL)
			}
			fmt.Fprintf(out, "Verify: %s\n", cfg.Donation.VerifyURL)
			orch.Wait()
			return nil
		},
	}

	cmd.Flags().StringVarP(&custom, "amount", "a", "", "custom amount in USDC, e.g. 0.75")
	cmd.Flags().StringVarP(&preset, "preset", "p", "", "preset amount, e.g. 0.50")
	cmd.Flags().StringVarP(&binding, "binding", "b", "", "payment binding: auto, hosted or native")
	cmd.Flags().Int64Var(&fid, "fid", 0, "viewer fid")
	cmd.MarkFlagsMutuallyExclusive("amount", "preset")

	return cmd
}

func profileCmd(load loader) *cobra.Command {
	var fid int64

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Look up a Farcaster profile and its signal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := load()
			if err != nil {
				return err
			}
			cfg.Cache.Backend = "none"

			profiles, err := newProfileService(cmd.Context(), cfg, logger, nil)
			if err != nil {
				return err
			}
			profile, err := profiles.Profile(cmd.Context(), fid)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(profile)
		},
	}

	cmd.Flags().Int64Var(&fid, "fid", 0, "Farcaster id")
	cmd.MarkFlagRequired("fid")

	return cmd
}

func previewCmd(load loader) *cobra.Command {
	var (
		outPath string
		publish bool
	)

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Render the embed preview image",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := load()
			if err != nil {
				return err
			}

			renderer, err := services.NewPreviewRenderer()
			if err != nil {
				return err
			}
			png, err := renderer.Render(previewContent(cfg))
			if err != nil {
				return err
			}

			if publish {
				awsCfg, err := loadAWS(cmd.Context(), cfg)
				if err != nil {
					return err
				}
				publisher := storage.NewPreviewS3Publisher(s3.NewFromConfig(awsCfg), cfg.Preview.Bucket, cfg.AWS.Region)
				url, err := publisher.Publish(cmd.Context(), png)
				if err != nil {
					return err
				}
				logger.Info().Str("url", url).Msg("☁️ preview published")
				fmt.Fprintln(cmd.OutOrStdout(), url)
				return nil
			}

			if err := os.WriteFile(outPath, png, 0o644); err != nil {
				return fmt.Errorf("failed to write preview: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%dx%d)\n", outPath, services.PreviewWidth, services.PreviewHeight)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "preview.png", "output file")
	cmd.Flags().BoolVar(&publish, "publish", false, "upload to the preview.bucket S3 bucket instead of writing a file")
	cmd.MarkFlagsMutuallyExclusive("out", "publish")

	return cmd
}

func scoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "score [value]",
		Short: "Describe a Neynar user score; omit the value for a user without one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var value *float64
			if len(args) == 1 {
				v, err := strconv.ParseFloat(args[0], 64)
				if err != nil {
					return fmt.Errorf("invalid score %q: %w", args[0], err)
				}
				value = &v
			}
			d := score.Classify(value)
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n%s\n", d.Label, d.Summary)
			return nil
		},
	}
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
