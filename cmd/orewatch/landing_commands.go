package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brojonat/orewatch/service/ore"
	"github.com/brojonat/orewatch/service/temporal"
	"github.com/gagliardetto/solana-go"
	"github.com/urfave/cli/v2"
)

type landedOutput struct {
	Landed  []string `json:"landed"`
	Pending []string `json:"pending"`
}

func landedCommand() *cli.Command {
	return &cli.Command{
		Name:      "landed",
		Usage:     "Report which transactions have landed (reached confirmed)",
		ArgsUsage: "SIGNATURE...",
		Description: `Fetch the status of each signature and report the ones that have reached
the confirmed commitment level. With --wait, poll until all have landed or
--attempts polls have been made.

Example:
  orewatch landed --wait --interval 2s --attempts 30 <SIG1> <SIG2>`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "wait",
				Aliases: []string{"w"},
				Usage:   "Poll until every signature has landed",
			},
			&cli.DurationFlag{
				Name:    "interval",
				Aliases: []string{"i"},
				Value:   temporal.DefaultPollInterval,
				Usage:   "Delay between polls with --wait",
				EnvVars: []string{"LANDING_POLL_INTERVAL"},
			},
			&cli.IntFlag{
				Name:    "attempts",
				Value:   temporal.DefaultMaxAttempts,
				Usage:   "Number of polls with --wait",
				EnvVars: []string{"LANDING_MAX_ATTEMPTS"},
			},
		},
		Action: func(c *cli.Context) error {
			sigs, err := parseSignatures(c.Args().Slice())
			if err != nil {
				return err
			}
			reader, err := newReader(c)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			var landed []solana.Signature
			if c.Bool("wait") {
				if c.Int("attempts") < 1 {
					return fmt.Errorf("--attempts must be at least 1")
				}
				landed, err = reader.AwaitLanded(ctx, sigs, c.Duration("interval"), c.Int("attempts"))
			} else {
				landed, err = reader.FindLanded(ctx, sigs)
			}
			if err != nil && len(landed) == 0 {
				return fmt.Errorf("failed to check signatures: %w", err)
			}

			out := newLandedOutput(sigs, landed)
			if emitErr := emit(c, out, func(w io.Writer) {
				for _, sig := range out.Landed {
					fmt.Fprintf(w, "landed   %s\n", sig)
				}
				for _, sig := range out.Pending {
					fmt.Fprintf(w, "pending  %s\n", sig)
				}
			}); emitErr != nil {
				return emitErr
			}
			if err != nil {
				return fmt.Errorf("stopped before all signatures were checked: %w", err)
			}
			return nil
		},
	}
}

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "Start a durable landing watch workflow on Temporal",
		ArgsUsage: "SIGNATURE...",
		Description: `Start an AwaitLandingWorkflow for the given signatures. The worker polls
their status and publishes a NATS event as each one lands.

Example:
  orewatch watch --wait <SIG1> <SIG2>`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "temporal-host",
				Usage:   "Temporal server address",
				EnvVars: []string{"TEMPORAL_HOST"},
				Value:   "localhost:7233",
			},
			&cli.StringFlag{
				Name:    "temporal-namespace",
				Usage:   "Temporal namespace",
				EnvVars: []string{"TEMPORAL_NAMESPACE"},
				Value:   "default",
			},
			&cli.StringFlag{
				Name:    "task-queue",
				Usage:   "Temporal task queue",
				EnvVars: []string{"TEMPORAL_TASK_QUEUE"},
				Value:   "orewatch-landing",
			},
			&cli.DurationFlag{
				Name:    "interval",
				Aliases: []string{"i"},
				Value:   temporal.DefaultPollInterval,
				Usage:   "Delay between status checks",
				EnvVars: []string{"LANDING_POLL_INTERVAL"},
			},
			&cli.IntFlag{
				Name:    "attempts",
				Value:   temporal.DefaultMaxAttempts,
				Usage:   "Number of status checks before giving up",
				EnvVars: []string{"LANDING_MAX_ATTEMPTS"},
			},
			&cli.BoolFlag{
				Name:    "wait",
				Aliases: []string{"w"},
				Usage:   "Block until the workflow completes and print its result",
			},
		},
		Action: func(c *cli.Context) error {
			sigs, err := parseSignatures(c.Args().Slice())
			if err != nil {
				return err
			}

			tc, err := temporal.NewClient(
				c.String("temporal-host"),
				c.String("temporal-namespace"),
				c.String("task-queue"),
				newLogger(c),
			)
			if err != nil {
				return err
			}
			defer tc.Close()

			input := temporal.AwaitLandingInput{
				Signatures:   signatureStrings(sigs),
				PollInterval: c.Duration("interval"),
				MaxAttempts:  c.Int("attempts"),
			}

			ctx, cancel := context.WithTimeout(c.Context, 10*time.Second)
			workflowID, runID, err := tc.StartAwaitLanding(ctx, input)
			cancel()
			if err != nil {
				return err
			}

			if !c.Bool("wait") {
				out := map[string]string{"workflow_id": workflowID, "run_id": runID}
				return emit(c, out, func(w io.Writer) {
					fmt.Fprintf(w, "Started landing watch\n")
					fmt.Fprintf(w, "  Workflow ID: %s\n", workflowID)
					fmt.Fprintf(w, "  Run ID:      %s\n", runID)
				})
			}

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			result, err := tc.GetAwaitLandingResult(ctx, workflowID, runID)
			if err != nil {
				return err
			}
			return emit(c, result, func(w io.Writer) {
				fmt.Fprintf(w, "Status:   %s (%d attempts)\n", result.Status, result.Attempts)
				for _, sig := range result.Landed {
					fmt.Fprintf(w, "landed   %s\n", sig)
				}
				for _, sig := range result.Pending {
					fmt.Fprintf(w, "pending  %s\n", sig)
				}
			})
		},
	}
}

// parseSignatures decodes base58 transaction signatures, rejecting an empty list.
func parseSignatures(args []string) ([]solana.Signature, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("at least one signature is required")
	}
	sigs := make([]solana.Signature, 0, len(args))
	for _, arg := range args {
		sig, err := solana.SignatureFromBase58(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid signature %q: %w", arg, err)
		}
		sigs = append(sigs, sig)
	}
	return sigs, nil
}

func signatureStrings(sigs []solana.Signature) []string {
	out := make([]string, len(sigs))
	for i, sig := range sigs {
		out[i] = sig.String()
	}
	return out
}

func newLandedOutput(sigs, landed []solana.Signature) landedOutput {
	set := make(map[solana.Signature]struct{}, len(landed))
	for _, sig := range landed {
		set[sig] = struct{}{}
	}
	return landedOutput{
		Landed:  signatureStrings(landed),
		Pending: signatureStrings(ore.Pending(sigs, set)),
	}
}
