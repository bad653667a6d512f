package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/brojonat/orewatch/service/metrics"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Publisher defines the interface for publishing landing events to NATS.
type Publisher interface {
	// PublishLanded publishes a single landing event to JetStream.
	// The event is published to the subject "landed.{signature}".
	PublishLanded(ctx context.Context, event *LandedEvent) error

	// PublishLandedBatch publishes multiple landing events.
	PublishLandedBatch(ctx context.Context, events []*LandedEvent) error

	// Close closes the connection to NATS.
	Close() error
}

// JetStreamPublisher publishes landing events to NATS JetStream.
type JetStreamPublisher struct {
	nc      *nats.Conn
	js      jetstream.JetStream
	metrics *metrics.Metrics
	logger  *slog.Logger
}

const (
	// StreamName is the name of the JetStream stream for landing events.
	StreamName = "LANDINGS"

	// StreamSubjects is the subject pattern for the stream.
	StreamSubjects = "landed.*"

	// StreamRetention is how long messages are retained.
	StreamRetention = 7 * 24 * time.Hour
)

// NewPublisher creates a new JetStream publisher.
// It connects to NATS and ensures the stream exists.
// If metrics is nil, no metrics will be recorded.
func NewPublisher(natsURL string, m *metrics.Metrics, logger *slog.Logger) (*JetStreamPublisher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	nc, err := nats.Connect(natsURL,
		nats.Name("orewatch-publisher"),
		nats.Timeout(10*time.Second),
		nats.ReconnectWait(1*time.Second),
		nats.MaxReconnects(-1), // Unlimited reconnects
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	publisher := &JetStreamPublisher{
		nc:      nc,
		js:      js,
		metrics: m,
		logger:  logger,
	}

	if err := publisher.ensureStream(); err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to ensure stream exists: %w", err)
	}

	logger.Info("NATS publisher initialized",
		"url", natsURL,
		"stream", StreamName,
	)

	return publisher, nil
}

// ensureStream creates the JetStream stream if it doesn't exist.
func (p *JetStreamPublisher) ensureStream() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stream, err := p.js.Stream(ctx, StreamName)
	if err == nil {
		info, err := stream.Info(ctx)
		if err == nil {
			p.logger.Debug("JetStream stream already exists",
				"stream", StreamName,
				"messages", info.State.Msgs,
			)
		}
		return nil
	}

	p.logger.Info("creating JetStream stream", "stream", StreamName)

	streamConfig := jetstream.StreamConfig{
		Name:        StreamName,
		Description: "Landing events for watched ORE transactions",
		Subjects:    []string{StreamSubjects},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      StreamRetention,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
	}

	if _, err := p.js.CreateStream(ctx, streamConfig); err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}

	p.logger.Info("JetStream stream created successfully", "stream", StreamName)
	return nil
}

// PublishLanded publishes a single landing event.
func (p *JetStreamPublisher) PublishLanded(ctx context.Context, event *LandedEvent) error {
	subject := event.Subject()
	if event.PublishedAt.IsZero() {
		event.PublishedAt = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal landed event: %w", err)
	}

	start := time.Now()
	// The signature doubles as the message ID so a retried activity does not
	// publish the same landing twice within the dedup window.
	_, err = p.js.Publish(ctx, subject, data, jetstream.WithMsgID(event.Signature))
	duration := time.Since(start).Seconds()

	if p.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		p.metrics.RecordNATSPublish(StreamSubjects, status, duration)
	}

	if err != nil {
		return fmt.Errorf("failed to publish landed event: %w", err)
	}

	p.logger.Debug("published landed event",
		"subject", subject,
		"signature", event.Signature,
	)

	return nil
}

// PublishLandedBatch publishes multiple landing events. A failure on one
// event is logged and the rest are still attempted; the first error is
// returned.
func (p *JetStreamPublisher) PublishLandedBatch(ctx context.Context, events []*LandedEvent) error {
	if len(events) == 0 {
		return nil
	}

	var firstErr error
	for _, event := range events {
		if err := p.PublishLanded(ctx, event); err != nil {
			p.logger.Error("failed to publish landed event in batch",
				"signature", event.Signature,
				"error", err,
			)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	p.logger.Debug("published landed batch",
		"count", len(events),
	)

	return firstErr
}

// Close closes the connection to NATS.
func (p *JetStreamPublisher) Close() error {
	if p.nc != nil {
		p.nc.Close()
		p.logger.Info("NATS publisher closed")
	}
	return nil
}
