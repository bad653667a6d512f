package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/brojonat/orewatch/service/ore"
	"github.com/urfave/cli/v2"
)

type amountOutput struct {
	BaseUnits uint64 `json:"base_units"`
	Amount    string `json:"amount"`
	Decimals  int    `json:"decimals"`
}

func amountCommands() *cli.Command {
	return &cli.Command{
		Name:  "amount",
		Usage: "Convert between base units and ORE",
		Subcommands: []*cli.Command{
			{
				Name:      "to-ui",
				Usage:     "Convert base units to an ORE amount",
				ArgsUsage: "BASE_UNITS",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return fmt.Errorf("base units are required")
					}
					units, err := strconv.ParseUint(c.Args().Get(0), 10, 64)
					if err != nil {
						return fmt.Errorf("invalid base units %q: %w", c.Args().Get(0), err)
					}

					out := amountOutput{
						BaseUnits: units,
						Amount:    ore.AmountToString(units),
						Decimals:  ore.TokenDecimals,
					}
					return emit(c, out, func(w io.Writer) {
						fmt.Fprintln(w, out.Amount)
					})
				},
			},
			{
				Name:      "to-base",
				Usage:     "Convert an ORE amount to base units (truncating)",
				ArgsUsage: "AMOUNT",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "v1",
						Usage: "Use the legacy 9-decimal precision",
					},
				},
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return fmt.Errorf("amount is required")
					}
					amount, err := strconv.ParseFloat(c.Args().Get(0), 64)
					if err != nil {
						return fmt.Errorf("invalid amount %q: %w", c.Args().Get(0), err)
					}

					out := amountOutput{Amount: c.Args().Get(0)}
					if c.Bool("v1") {
						out.BaseUnits = ore.AmountFromFloatV1(amount)
						out.Decimals = ore.TokenDecimalsV1
					} else {
						out.BaseUnits = ore.AmountFromFloat(amount)
						out.Decimals = ore.TokenDecimals
					}
					return emit(c, out, func(w io.Writer) {
						fmt.Fprintln(w, out.BaseUnits)
					})
				},
			},
		},
	}
}
