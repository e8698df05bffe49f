package config

import (
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"

	"github.com/0xmdrakib/BaseTree/amount"
	"github.com/0xmdrakib/BaseTree/donation"
	"github.com/0xmdrakib/BaseTree/gateway"
	"github.com/0xmdrakib/BaseTree/sequence"
)

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// Validate checks the settings that cannot be corrected at runtime
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", c.Server.Port)
	}
	if !addressPattern.MatchString(c.Donation.Recipient) {
		return fmt.Errorf("donation.recipient %q is not an address", c.Donation.Recipient)
	}
	if len(c.Donation.Presets) == 0 {
		return fmt.Errorf("donation.presets must not be empty")
	}
	if _, err := amount.NewSelection(c.Donation.Presets, c.Donation.DefaultPreset, c.Donation.DefaultCustom); err != nil {
		return fmt.Errorf("donation presets: %w", err)
	}
	if _, err := amount.Parse(c.Donation.FallbackAmount); err != nil {
		return fmt.Errorf("donation.fallback_amount: %w", err)
	}
	if _, err := c.maxAmount(); err != nil {
		return err
	}
	if _, err := gateway.ParseBinding(c.Gateway.Binding); err != nil {
		return fmt.Errorf("gateway.binding: %w", err)
	}
	if c.Gateway.TokenDecimals < 0 {
		return fmt.Errorf("gateway.token_decimals must not be negative")
	}
	if err := c.Schedule().Validate(); err != nil {
		return fmt.Errorf("sequence: %w", err)
	}
	switch c.Cache.Backend {
	case "memory", "none":
	case "dynamodb":
		if c.Cache.Table == "" {
			return fmt.Errorf("cache.table is required for the dynamodb backend")
		}
	default:
		return fmt.Errorf("cache.backend %q must be memory, dynamodb or none", c.Cache.Backend)
	}
	if c.Rate.RPS < 0 || c.Rate.Burst < 0 {
		return fmt.Errorf("rate limits must not be negative")
	}
	return nil
}

func (c Config) maxAmount() (decimal.Decimal, error) {
	limit, err := decimal.NewFromString(c.Donation.MaxAmount)
	if err != nil || !limit.IsPositive() {
		return decimal.Zero, fmt.Errorf("donation.max_amount %q must be a positive number", c.Donation.MaxAmount)
	}
	return limit, nil
}

// Schedule returns the completion sequence timings
func (c Config) Schedule() sequence.Schedule {
	return sequence.Schedule{
		Growing:  c.Sequence.Growing,
		Complete: c.Sequence.Complete,
		Settle:   c.Sequence.Settle,
	}
}

// DonationConfig returns the settings every card's orchestrator is built with
func (c Config) DonationConfig() donation.Config {
	limit, _ := c.maxAmount()
	return donation.Config{
		Recipient:      c.Donation.Recipient,
		Testnet:        c.Donation.Testnet,
		Presets:        c.Donation.Presets,
		DefaultPreset:  c.Donation.DefaultPreset,
		DefaultCustom:  c.Donation.DefaultCustom,
		FallbackAmount: c.Donation.FallbackAmount,
		MaxAmount:      limit,
		ExplorerURL:    c.Donation.ExplorerURL,
		VerifyURL:      c.Donation.VerifyURL,
		GatewayTimeout: c.Gateway.Timeout,
		Schedule:       c.Schedule(),
	}
}

// Binding returns the configured payment binding
func (c Config) Binding() gateway.Binding {
	b, _ := gateway.ParseBinding(c.Gateway.Binding)
	return b
}
