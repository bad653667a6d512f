package main

import (
	"fmt"
	"io"
	"time"

	"github.com/brojonat/orewatch/service/ore"
	"github.com/gagliardetto/solana-go"
	"github.com/urfave/cli/v2"
)

// newRPCClient is swapped out in tests.
var newRPCClient = ore.NewRPCClient

// newReader builds a reader against --rpc-url.
func newReader(c *cli.Context) (*ore.Reader, error) {
	rpcURL := c.String("rpc-url")
	if rpcURL == "" {
		return nil, fmt.Errorf("--rpc-url or ORE_RPC_URL is required")
	}
	return ore.NewReader(newRPCClient(rpcURL), nil, ore.EndpointLabel(rpcURL), nil, newLogger(c)), nil
}

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Show the global ORE program config",
		Action: func(c *cli.Context) error {
			reader, err := newReader(c)
			if err != nil {
				return err
			}
			cfg, err := reader.GetConfig(c.Context)
			if err != nil {
				return fmt.Errorf("failed to get config: %w", err)
			}

			return emit(c, cfg, func(w io.Writer) {
				fmt.Fprintf(w, "Config:           %s\n", ore.ConfigAddress)
				fmt.Fprintf(w, "Base Reward Rate: %s ORE\n", ore.AmountToString(cfg.BaseRewardRate))
				fmt.Fprintf(w, "Last Reset:       %s\n", formatUnix(cfg.LastResetAt))
				fmt.Fprintf(w, "Min Difficulty:   %d\n", cfg.MinDifficulty)
				fmt.Fprintf(w, "Top Balance:      %s ORE\n", ore.AmountToString(cfg.TopBalance))
			})
		},
	}
}

func treasuryCommand() *cli.Command {
	return &cli.Command{
		Name:  "treasury",
		Usage: "Check the global treasury account",
		Action: func(c *cli.Context) error {
			reader, err := newReader(c)
			if err != nil {
				return err
			}
			if _, err := reader.GetTreasury(c.Context); err != nil {
				return fmt.Errorf("failed to get treasury: %w", err)
			}

			out := map[string]string{
				"address":         ore.TreasuryAddress.String(),
				"treasury_tokens": ore.TreasuryTokenAddress().String(),
			}
			return emit(c, out, func(w io.Writer) {
				fmt.Fprintf(w, "Treasury:        %s\n", ore.TreasuryAddress)
				fmt.Fprintf(w, "Treasury Tokens: %s\n", ore.TreasuryTokenAddress())
			})
		},
	}
}

type treasuryTokensOutput struct {
	Address   string `json:"address"`
	Mint      string `json:"mint"`
	Owner     string `json:"owner"`
	BaseUnits uint64 `json:"base_units"`
	UIAmount  string `json:"ui_amount"`
}

func treasuryTokensCommand() *cli.Command {
	return &cli.Command{
		Name:  "treasury-tokens",
		Usage: "Show the ORE balance held by the treasury",
		Action: func(c *cli.Context) error {
			reader, err := newReader(c)
			if err != nil {
				return err
			}
			acct, err := reader.GetTreasuryTokens(c.Context)
			if err != nil {
				return fmt.Errorf("failed to get treasury tokens: %w", err)
			}

			out := treasuryTokensOutput{
				Address:   reader.Deriver().TreasuryTokenAddress().String(),
				Mint:      acct.Mint.String(),
				Owner:     acct.Owner.String(),
				BaseUnits: acct.Amount,
				UIAmount:  ore.AmountToString(acct.Amount),
			}
			return emit(c, out, func(w io.Writer) {
				fmt.Fprintf(w, "Treasury Tokens: %s\n", out.Address)
				fmt.Fprintf(w, "Balance:         %s ORE\n", ore.FormatAmount(acct.Amount))
			})
		},
	}
}

func clockCommand() *cli.Command {
	return &cli.Command{
		Name:  "clock",
		Usage: "Show the on-chain clock sysvar",
		Action: func(c *cli.Context) error {
			reader, err := newReader(c)
			if err != nil {
				return err
			}
			clock, err := reader.GetClock(c.Context)
			if err != nil {
				return fmt.Errorf("failed to get clock: %w", err)
			}

			return emit(c, clock, func(w io.Writer) {
				fmt.Fprintf(w, "Slot:      %d\n", clock.Slot)
				fmt.Fprintf(w, "Epoch:     %d\n", clock.Epoch)
				fmt.Fprintf(w, "Timestamp: %s\n", formatUnix(clock.UnixTimestamp))
			})
		},
	}
}

func proofCommand() *cli.Command {
	return &cli.Command{
		Name:      "proof",
		Usage:     "Show a miner's proof account",
		ArgsUsage: "[AUTHORITY]",
		Description: `Fetch the proof account belonging to AUTHORITY, or the proof at --address.

Example:
  orewatch proof 9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM
  orewatch --jq .balance proof --address <PROOF_ADDRESS>`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "address",
				Usage: "Proof account address (instead of an authority)",
			},
		},
		Action: func(c *cli.Context) error {
			address := c.String("address")
			if (address == "") == (c.NArg() != 1) {
				return fmt.Errorf("exactly one of AUTHORITY or --address is required")
			}

			reader, err := newReader(c)
			if err != nil {
				return err
			}

			var proof *ore.Proof
			if address != "" {
				key, err := solana.PublicKeyFromBase58(address)
				if err != nil {
					return fmt.Errorf("invalid proof address %q: %w", address, err)
				}
				proof, err = reader.GetProof(c.Context, key)
				if err != nil {
					return fmt.Errorf("failed to get proof: %w", err)
				}
			} else {
				authority, err := solana.PublicKeyFromBase58(c.Args().Get(0))
				if err != nil {
					return fmt.Errorf("invalid authority %q: %w", c.Args().Get(0), err)
				}
				proof, err = reader.GetProofWithAuthority(c.Context, authority)
				if err != nil {
					return fmt.Errorf("failed to get proof: %w", err)
				}
			}

			return emit(c, proof, func(w io.Writer) {
				fmt.Fprintf(w, "Authority:     %s\n", proof.Authority)
				fmt.Fprintf(w, "Miner:         %s\n", proof.Miner)
				fmt.Fprintf(w, "Balance:       %s ORE\n", ore.AmountToString(proof.Balance))
				fmt.Fprintf(w, "Total Hashes:  %d\n", proof.TotalHashes)
				fmt.Fprintf(w, "Total Rewards: %s ORE\n", ore.AmountToString(proof.TotalRewards))
				fmt.Fprintf(w, "Last Hash At:  %s\n", formatUnix(proof.LastHashAt))
				fmt.Fprintf(w, "Last Stake At: %s\n", formatUnix(proof.LastStakeAt))
			})
		},
	}
}

func formatUnix(ts int64) string {
	return time.Unix(ts, 0).UTC().Format(time.RFC3339)
}
