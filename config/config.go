/*
# Module: config/config.go
Application configuration: defaults, optional YAML file and BASETREE_* environment overrides.

## Linked Modules
- [donation/orchestrator](../donation/orchestrator.go) - Donation settings
- [gateway/discover](../gateway/discover.go) - Payment binding selection

## Tags
config, viper, environment

## Exports
Config, Default, Load, EnvPrefix

<!-- LinkedDoc RDF -->
@prefix code: <https://schema.codedoc.org/> .
<this> a code:Module ;
    code:name "config/config.go" ;
    code:description "Application configuration: defaults, optional YAML file and BASETREE_* environment overrides" ;
    code:linksTo [
        code:name "donation/orchestrator" ;
        code:path "../donation/orchestrator.go" ;
        code:relationship "Donation settings"
    ], [
        code:name "gateway/discover" ;
        code:path "../gateway/discover.go" ;
        code:relationship "Payment binding selection"
    ] ;
    code:exports :Config, :Default, :Load, :EnvPrefix ;
    code:tags "config", "viper", "environment" .
<!-- End LinkedDoc RDF -->
*/
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. BASETREE_SERVER_PORT
const EnvPrefix = "BASETREE"

// Config is built once at startup and passed by value
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	App      AppConfig      `mapstructure:"app"`
	Donation DonationConfig `mapstructure:"donation"`
	Gateway  GatewayConfig  `mapstructure:"gateway"`
	Neynar   NeynarConfig   `mapstructure:"neynar"`
	Host     HostConfig     `mapstructure:"host"`
	Sequence SequenceConfig `mapstructure:"sequence"`
	Cache    CacheConfig    `mapstructure:"cache"`
	AWS      AWSConfig      `mapstructure:"aws"`
	Preview  PreviewConfig  `mapstructure:"preview"`
	Rate     RateConfig     `mapstructure:"rate"`
	Cards    CardsConfig    `mapstructure:"cards"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// TrustProxy takes the client IP from forwarding headers. Only enable it
	// behind a load balancer that overwrites them.
	TrustProxy bool `mapstructure:"trust_proxy"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// AppConfig describes the mini app to embedding clients
type AppConfig struct {
	URL              string `mapstructure:"url"`
	Name             string `mapstructure:"name"`
	Description      string `mapstructure:"description"`
	AppID            string `mapstructure:"app_id"`
	SplashBackground string `mapstructure:"splash_background"`
}

type DonationConfig struct {
	Recipient      string   `mapstructure:"recipient"`
	VerifyURL      string   `mapstructure:"verify_url"`
	ExplorerURL    string   `mapstructure:"explorer_url"`
	Testnet        bool     `mapstructure:"testnet"`
	Presets        []string `mapstructure:"presets"`
	DefaultPreset  string   `mapstructure:"default_preset"`
	DefaultCustom  string   `mapstructure:"default_custom"`
	FallbackAmount string   `mapstructure:"fallback_amount"`
	MaxAmount      string   `mapstructure:"max_amount"`
}

// GatewayConfig selects and configures the payment bindings. An empty URL
// leaves that binding unconfigured.
type GatewayConfig struct {
	Binding       string        `mapstructure:"binding"`
	HostedURL     string        `mapstructure:"hosted_url"`
	NativeURL     string        `mapstructure:"native_url"`
	Token         string        `mapstructure:"token"`
	TokenDecimals int32         `mapstructure:"token_decimals"`
	Timeout       time.Duration `mapstructure:"timeout"`
	APIKey        string        `mapstructure:"api_key"`
}

type NeynarConfig struct {
	APIKey string `mapstructure:"api_key"`
	APIURL string `mapstructure:"api_url"`
}

// HostConfig configures quick-auth verification of the embedding host
type HostConfig struct {
	QuickAuthSecret string `mapstructure:"quick_auth_secret"`
	Domain          string `mapstructure:"domain"`
	Required        bool   `mapstructure:"required"`
}

type SequenceConfig struct {
	Growing  time.Duration `mapstructure:"growing"`
	Complete time.Duration `mapstructure:"complete"`
	Settle   time.Duration `mapstructure:"settle"`
}

type CacheConfig struct {
	Backend string        `mapstructure:"backend"` // "memory", "dynamodb" or "none"
	Table   string        `mapstructure:"table"`
	TTL     time.Duration `mapstructure:"ttl"`
}

type AWSConfig struct {
	Region string `mapstructure:"region"`
}

type PreviewConfig struct {
	Bucket string `mapstructure:"bucket"`
}

type RateConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

type CardsConfig struct {
	IdleTTL time.Duration `mapstructure:"idle_ttl"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ShutdownTimeout: 15 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
		App: AppConfig{
			URL:              "http://localhost:8080",
			Name:             "Base Tree",
			Description:      "See your Farcaster signal and plant a tree with a micro-donation in USDC on Base.",
			SplashBackground: "#050509",
		},
		Donation: DonationConfig{
			Recipient:      "0x62233D5483515A79ac06CEcEbac7D399fDF8a99b",
			VerifyURL:      "https://onetreeplanted.org/pages/donate-crypto",
			ExplorerURL:    "https://basescan.org/tx/",
			Presets:        []string{"0.10", "0.50", "1.00"},
			DefaultPreset:  "0.50",
			DefaultCustom:  "1.00",
			FallbackAmount: "1.00",
			MaxAmount:      "500",
		},
		Gateway: GatewayConfig{
			Binding:       "auto",
			Token:         "eip155:8453/erc20:0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
			TokenDecimals: 6,
			Timeout:       2 * time.Minute,
		},
		Neynar: NeynarConfig{
			APIURL: "https://api.neynar.com",
		},
		Sequence: SequenceConfig{
			Growing:  380 * time.Millisecond,
			Complete: 820 * time.Millisecond,
			Settle:   1600 * time.Millisecond,
		},
		Cache: CacheConfig{
			Backend: "memory",
			Table:   "basetree-profiles",
			TTL:     10 * time.Minute,
		},
		AWS: AWSConfig{
			Region: "us-east-1",
		},
		Rate: RateConfig{
			RPS:   5,
			Burst: 20,
		},
		Cards: CardsConfig{
			IdleTTL: 30 * time.Minute,
		},
	}
}

// Load reads path (or ./basetree.yaml when path is empty and the file exists)
// over the defaults, applies environment overrides and validates the result.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The unprefixed name is what Neynar's docs and existing deployments use.
	if err := v.BindEnv("neynar.api_key", EnvPrefix+"_NEYNAR_API_KEY", "NEYNAR_API_KEY"); err != nil {
		return Config{}, fmt.Errorf("failed to bind environment: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("basetree")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// setDefaults registers every key so environment overrides reach Unmarshal
func setDefaults(v *viper.Viper, d Config) {
	defaults := map[string]any{
		"server.port":              d.Server.Port,
		"server.shutdown_timeout":  d.Server.ShutdownTimeout,
		"server.trust_proxy":       d.Server.TrustProxy,
		"log.level":                d.Log.Level,
		"log.pretty":               d.Log.Pretty,
		"app.url":                  d.App.URL,
		"app.name":                 d.App.Name,
		"app.description":          d.App.Description,
		"app.app_id":               d.App.AppID,
		"app.splash_background":    d.App.SplashBackground,
		"donation.recipient":       d.Donation.Recipient,
		"donation.verify_url":      d.Donation.VerifyURL,
		"donation.explorer_url":    d.Donation.ExplorerURL,
		"donation.testnet":         d.Donation.Testnet,
		"donation.presets":         d.Donation.Presets,
		"donation.default_preset":  d.Donation.DefaultPreset,
		"donation.default_custom":  d.Donation.DefaultCustom,
		"donation.fallback_amount": d.Donation.FallbackAmount,
		"donation.max_amount":      d.Donation.MaxAmount,
		"gateway.binding":          d.Gateway.Binding,
		"gateway.hosted_url":       d.Gateway.HostedURL,
		"gateway.native_url":       d.Gateway.NativeURL,
		"gateway.token":            d.Gateway.Token,
		"gateway.token_decimals":   d.Gateway.TokenDecimals,
		"gateway.timeout":          d.Gateway.Timeout,
		"gateway.api_key":          d.Gateway.APIKey,
		"neynar.api_key":           d.Neynar.APIKey,
		"neynar.api_url":           d.Neynar.APIURL,
		"host.quick_auth_secret":   d.Host.QuickAuthSecret,
		"host.domain":              d.Host.Domain,
		"host.required":            d.Host.Required,
		"sequence.growing":         d.Sequence.Growing,
		"sequence.complete":        d.Sequence.Complete,
		"sequence.settle":          d.Sequence.Settle,
		"cache.backend":            d.Cache.Backend,
		"cache.table":              d.Cache.Table,
		"cache.ttl":                d.Cache.TTL,
		"aws.region":               d.AWS.Region,
		"preview.bucket":           d.Preview.Bucket,
		"rate.rps":                 d.Rate.RPS,
		"rate.burst":               d.Rate.Burst,
		"cards.idle_ttl":           d.Cards.IdleTTL,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}
