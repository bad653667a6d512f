package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// SubscribeOptions configures a landing event subscription.
type SubscribeOptions struct {
	// Signature limits the subscription to one transaction. Empty means all.
	Signature string
	// Durable names a consumer that survives restarts. Empty means ephemeral.
	Durable string
}

// FilterSubject returns the subject a subscription listens on.
func (o SubscribeOptions) FilterSubject() string {
	if o.Signature == "" {
		return StreamSubjects
	}
	return (&LandedEvent{Signature: o.Signature}).Subject()
}

// Subscribe consumes landing events from the LANDINGS stream and hands each
// one to handle until ctx is done. Messages that fail to parse are logged
// and acknowledged so they are not redelivered. A handler error stops the
// subscription and is returned.
func Subscribe(ctx context.Context, natsURL string, opts SubscribeOptions, logger *slog.Logger, handle func(*LandedEvent) error) error {
	if logger == nil {
		logger = slog.Default()
	}

	nc, err := nats.Connect(natsURL, nats.Name("orewatch-subscriber"))
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	defer nc.Close()

	js, err := jetstream.New(nc)
	if err != nil {
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}

	consumerConfig := jetstream.ConsumerConfig{
		FilterSubject: opts.FilterSubject(),
		AckPolicy:     jetstream.AckExplicitPolicy,
	}
	if opts.Durable != "" {
		consumerConfig.Durable = opts.Durable
		consumerConfig.Name = opts.Durable
	}

	cons, err := js.CreateOrUpdateConsumer(ctx, StreamName, consumerConfig)
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}

	msgChan := make(chan jetstream.Msg, 10)
	consumeCtx, err := cons.Consume(func(msg jetstream.Msg) {
		select {
		case msgChan <- msg:
		case <-ctx.Done():
		}
	})
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}
	defer consumeCtx.Stop()

	logger.Debug("subscribed to landing events",
		"subject", consumerConfig.FilterSubject,
		"durable", opts.Durable,
	)

	for {
		select {
		case msg := <-msgChan:
			var event LandedEvent
			if err := json.Unmarshal(msg.Data(), &event); err != nil {
				logger.Warn("failed to parse landing event",
					"subject", msg.Subject(),
					"error", err,
				)
				_ = msg.Ack()
				continue
			}
			if err := handle(&event); err != nil {
				return err
			}
			_ = msg.Ack()

		case <-ctx.Done():
			return nil
		}
	}
}
