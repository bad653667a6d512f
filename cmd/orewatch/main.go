package main

import (
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"
)

var (
	// Version information (set via ldflags during build)
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "orewatch",
		Usage: "ORE mining program state and transaction landing CLI",
		Description: `A command-line tool for reading ORE program accounts from a Solana node,
converting token amounts, deriving program addresses, and checking whether
submitted transactions have landed.

Global flags go before the command, e.g.:
  orewatch --json --jq '.balance' proof <AUTHORITY>`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		Commands: []*cli.Command{
			// Account reads
			configCommand(),
			treasuryCommand(),
			treasuryTokensCommand(),
			clockCommand(),
			proofCommand(),
			// Offline helpers
			deriveCommands(),
			amountCommands(),
			// Transaction landing
			landedCommand(),
			watchCommand(),
			// NATS landing event streaming commands
			{
				Name:  "nats",
				Usage: "NATS landing event streaming commands",
				Subcommands: []*cli.Command{
					subscribeCommand(),
				},
			},
		},
		// Global flags available to all commands
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "rpc-url",
				Usage:   "Solana RPC endpoint",
				EnvVars: []string{"ORE_RPC_URL"},
			},
			&cli.BoolFlag{
				Name:    "json",
				Aliases: []string{"j"},
				Usage:   "Output in JSON format",
			},
			&cli.StringFlag{
				Name:  "jq",
				Usage: "jq filter applied to the JSON output (implies --json)",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level for stderr diagnostics (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
				Value:   "error",
			},
		},
	}
}
