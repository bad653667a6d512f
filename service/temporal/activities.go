package temporal

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/brojonat/orewatch/service/metrics"
	natspkg "github.com/brojonat/orewatch/service/nats"
	solanago "github.com/gagliardetto/solana-go"
	"go.temporal.io/sdk/temporal"
)

// AwaitLandingInput contains the input parameters for watching a batch of
// submitted transactions.
type AwaitLandingInput struct {
	Signatures   []string      `json:"signatures"`
	PollInterval time.Duration `json:"poll_interval"` // delay between status checks
	MaxAttempts  int           `json:"max_attempts"`  // number of status checks before giving up
}

// AwaitLandingResult contains the result of watching a batch.
type AwaitLandingResult struct {
	Landed      []string  `json:"landed"`
	Pending     []string  `json:"pending"`
	Attempts    int       `json:"attempts"`
	Status      string    `json:"status"` // "landed" or "timeout"
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	Error       *string   `json:"error,omitempty"`
}

// CheckLandingInput contains parameters for the CheckLanding activity.
type CheckLandingInput struct {
	Signatures []string `json:"signatures"`
}

// CheckLandingResult contains the signatures that have landed.
type CheckLandingResult struct {
	Landed []string `json:"landed"`
}

// PublishLandedInput contains parameters for the PublishLanded activity.
type PublishLandedInput struct {
	Signatures []string  `json:"signatures"`
	WorkflowID string    `json:"workflow_id"`
	Attempt    int       `json:"attempt"`
	ObservedAt time.Time `json:"observed_at"`
}

// PublishLandedResult contains the result of publishing landing events.
type PublishLandedResult struct {
	Published int `json:"published"`
}

// LandingReaderInterface defines the landing lookup needed by activities.
// This allows for easy mocking in tests.
type LandingReaderInterface interface {
	FindLanded(ctx context.Context, signatures []solanago.Signature) ([]solanago.Signature, error)
}

// Activities holds the dependencies needed by Temporal activities.
// Following go-kit pattern, all dependencies are explicit.
type Activities struct {
	reader    LandingReaderInterface
	publisher natspkg.Publisher // optional
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewActivities creates a new Activities instance with explicit dependencies.
// If publisher is nil, landing events are not published. If metrics is nil,
// no metrics will be recorded.
func NewActivities(
	reader LandingReaderInterface,
	publisher natspkg.Publisher,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Activities {
	if logger == nil {
		logger = slog.Default()
	}
	return &Activities{
		reader:    reader,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
	}
}

// CheckLanding fetches signature statuses and reports which signatures have
// reached the confirmed commitment level.
func (a *Activities) CheckLanding(ctx context.Context, input CheckLandingInput) (*CheckLandingResult, error) {
	start := time.Now()
	defer func() {
		if a.metrics != nil {
			a.metrics.RecordActivityDuration("CheckLanding", time.Since(start).Seconds())
		}
	}()

	sigs := make([]solanago.Signature, 0, len(input.Signatures))
	for _, s := range input.Signatures {
		sig, err := solanago.SignatureFromBase58(s)
		if err != nil {
			a.logger.ErrorContext(ctx, "invalid signature",
				"signature", s,
				"error", err,
			)
			// Retrying cannot fix a malformed signature.
			return nil, temporal.NewNonRetryableApplicationError(
				fmt.Sprintf("invalid signature %q", s), "InvalidSignature", err)
		}
		sigs = append(sigs, sig)
	}

	landed, err := a.reader.FindLanded(ctx, sigs)
	if err != nil {
		a.logger.ErrorContext(ctx, "failed to check landing",
			"count", len(sigs),
			"error", err,
		)
		return nil, fmt.Errorf("failed to check landing: %w", err)
	}

	result := &CheckLandingResult{Landed: make([]string, 0, len(landed))}
	for _, sig := range landed {
		result.Landed = append(result.Landed, sig.String())
	}

	a.logger.InfoContext(ctx, "checked landing",
		"total", len(sigs),
		"landed", len(result.Landed),
	)

	return result, nil
}

// PublishLanded publishes one landing event per signature to NATS.
func (a *Activities) PublishLanded(ctx context.Context, input PublishLandedInput) (*PublishLandedResult, error) {
	start := time.Now()
	defer func() {
		if a.metrics != nil {
			a.metrics.RecordActivityDuration("PublishLanded", time.Since(start).Seconds())
		}
	}()

	if a.publisher == nil {
		a.logger.DebugContext(ctx, "no publisher configured, skipping landing events",
			"count", len(input.Signatures),
		)
		return &PublishLandedResult{}, nil
	}

	events := natspkg.NewLandedEvents(input.Signatures, input.WorkflowID, input.Attempt, input.ObservedAt)
	if err := a.publisher.PublishLandedBatch(ctx, events); err != nil {
		return nil, fmt.Errorf("failed to publish landing events: %w", err)
	}

	return &PublishLandedResult{Published: len(events)}, nil
}
