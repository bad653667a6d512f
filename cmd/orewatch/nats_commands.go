package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	natspkg "github.com/brojonat/orewatch/service/nats"
	"github.com/urfave/cli/v2"
)

// subscribeCommand subscribes to landing events.
func subscribeCommand() *cli.Command {
	return &cli.Command{
		Name:      "subscribe",
		Usage:     "Subscribe to transaction landing events",
		ArgsUsage: "[SIGNATURE]",
		Description: `Subscribe to landing events published to NATS JetStream by the worker.

Events are published to the subject: landed.{signature}
Without a signature every landing event is streamed.

Example:
  orewatch --json nats subscribe`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "nats-url",
				Usage:   "NATS server URL",
				EnvVars: []string{"NATS_URL"},
				Value:   "nats://localhost:4222",
			},
			&cli.StringFlag{
				Name:    "durable",
				Aliases: []string{"d"},
				Usage:   "Durable consumer name (survives restarts)",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() > 1 {
				return fmt.Errorf("at most one signature may be given")
			}

			opts := natspkg.SubscribeOptions{
				Signature: c.Args().Get(0),
				Durable:   c.String("durable"),
			}
			jsonOutput := c.Bool("json") || c.String("jq") != ""

			if !jsonOutput {
				fmt.Fprintf(c.App.Writer, "Subscribing to: %s\n", opts.FilterSubject())
				fmt.Fprintf(c.App.Writer, "   NATS: %s\n", c.String("nats-url"))
				fmt.Fprintf(c.App.Writer, "\nWaiting for landings... (Ctrl-C to exit)\n\n")
			}

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			count := 0
			err := natspkg.Subscribe(ctx, c.String("nats-url"), opts, newLogger(c), func(event *natspkg.LandedEvent) error {
				count++
				return emit(c, event, func(w io.Writer) {
					fmt.Fprintf(w, "Landing #%d\n", count)
					fmt.Fprintf(w, "  Signature: %s\n", event.Signature)
					if event.WorkflowID != "" {
						fmt.Fprintf(w, "  Workflow:  %s (attempt %d)\n", event.WorkflowID, event.Attempt)
					}
					fmt.Fprintf(w, "  Observed:  %s\n", event.ObservedAt.Format(time.RFC3339))
					fmt.Fprintf(w, "  Published: %s\n\n", event.PublishedAt.Format(time.RFC3339))
				})
			})
			if err != nil {
				return err
			}

			if !jsonOutput {
				fmt.Fprintf(c.App.Writer, "\nReceived %d landing events\n", count)
			}
			return nil
		},
	}
}
