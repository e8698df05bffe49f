/*
# Module: main.go
BaseTree command line: the HTTP server and one-shot donation, profile, preview
and score commands.

## Linked Modules
- [config/config](./config/config.go) - Settings
- [handlers/router](./handlers/router.go) - HTTP surface
- [donation/orchestrator](./donation/orchestrator.go) - Donation state machine

## Tags
cli, cobra, entrypoint

## Exports
(None - main package)

<!-- LinkedDoc RDF -->
@prefix code: <https://schema.codedoc.org/> .
<this> a code:Module ;
    code:name "main.go" ;
    code:description "BaseTree command line: the HTTP server and one-shot donation, profile, preview and score commands" ;
    code:linksTo [
        code:name "config/config" ;
        code:path "./config/config.go" ;
        code:relationship "Settings"
    ], [
        code:name "handlers/router" ;
        code:path "./handlers/router.go" ;
        code:relationship "HTTP surface"
    ], [
        code:name "donation/orchestrator" ;
        code:path "./donation/orchestrator.go" ;
        code:relationship "Donation state machine"
    ] ;
    code:tags "cli", "cobra", "entrypoint" .
<!-- End LinkedDoc RDF -->
*/
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/0xmdrakib/BaseTree/config"
	"github.com/0xmdrakib/BaseTree/logging"
)

var Version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "basetree",
		Short:         "BaseTree - Farcaster signal and tree-planting micro-donations on Base",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ./basetree.yaml when present)")

	load := func() (config.Config, zerolog.Logger, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return config.Config{}, zerolog.Nop(), err
		}
		return cfg, logging.New(cfg.Log.Level, cfg.Log.Pretty), nil
	}

	root.AddCommand(serveCmd(load))
	root.AddCommand(donateCmd(load))
	root.AddCommand(profileCmd(load))
	root.AddCommand(previewCmd(load))
	root.AddCommand(scoreCmd())

	return root
}

// loader reads the configuration and builds the logger for a command
type loader func() (config.Config, zerolog.Logger, error)
