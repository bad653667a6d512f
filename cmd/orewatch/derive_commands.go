package main

import (
	"fmt"
	"io"

	"github.com/brojonat/orewatch/service/ore"
	"github.com/gagliardetto/solana-go"
	"github.com/urfave/cli/v2"
)

func deriveCommands() *cli.Command {
	return &cli.Command{
		Name:  "derive",
		Usage: "Derive ORE program addresses (offline)",
		Subcommands: []*cli.Command{
			{
				Name:      "proof",
				Usage:     "Derive the proof address for an authority",
				ArgsUsage: "AUTHORITY",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return fmt.Errorf("authority is required")
					}
					authority, err := solana.PublicKeyFromBase58(c.Args().Get(0))
					if err != nil {
						return fmt.Errorf("invalid authority %q: %w", c.Args().Get(0), err)
					}

					proof := ore.ProofAddress(authority)
					out := map[string]string{
						"authority": authority.String(),
						"proof":     proof.String(),
					}
					return emit(c, out, func(w io.Writer) {
						fmt.Fprintln(w, proof)
					})
				},
			},
			{
				Name:  "treasury-tokens",
				Usage: "Derive the treasury's ORE token account address",
				Action: func(c *cli.Context) error {
					address := ore.TreasuryTokenAddress()
					out := map[string]string{
						"treasury":        ore.TreasuryAddress.String(),
						"mint":            ore.MintAddress.String(),
						"treasury_tokens": address.String(),
					}
					return emit(c, out, func(w io.Writer) {
						fmt.Fprintln(w, address)
					})
				},
			},
		},
	}
}
