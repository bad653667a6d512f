package temporal

import (
	"fmt"
	"time"

	temporalsdk "go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

var a *Activities // for type-safe activity invocation

const (
	// DefaultPollInterval is used when AwaitLandingInput.PollInterval is unset.
	DefaultPollInterval = 2 * time.Second

	// DefaultMaxAttempts is used when AwaitLandingInput.MaxAttempts is unset.
	DefaultMaxAttempts = 30

	StatusLanded  = "landed"
	StatusTimeout = "timeout"
)

// LandingDefaults fill in AwaitLandingInput fields a caller left unset.
type LandingDefaults struct {
	PollInterval time.Duration
	MaxAttempts  int
}

func (d LandingDefaults) apply(input AwaitLandingInput) AwaitLandingInput {
	if input.PollInterval <= 0 {
		input.PollInterval = d.PollInterval
	}
	if input.MaxAttempts <= 0 {
		input.MaxAttempts = d.MaxAttempts
	}
	return input
}

// awaitLandingWorkflowWithDefaults registers under the same name as
// AwaitLandingWorkflow so clients start it by function reference.
func awaitLandingWorkflowWithDefaults(d LandingDefaults) func(workflow.Context, AwaitLandingInput) (*AwaitLandingResult, error) {
	return func(ctx workflow.Context, input AwaitLandingInput) (*AwaitLandingResult, error) {
		return AwaitLandingWorkflow(ctx, d.apply(input))
	}
}

// AwaitLandingWorkflow watches a batch of submitted transactions until every
// one has landed (reached the confirmed commitment level) or MaxAttempts
// status checks have been made.
//
// Each round:
// 1. Check statuses of still-pending signatures (CheckLanding activity)
// 2. Publish newly landed signatures to NATS (PublishLanded activity)
// 3. Sleep PollInterval and go again
//
// Running out of attempts is not a workflow error: the result reports
// StatusTimeout with the still-pending signatures.
func AwaitLandingWorkflow(ctx workflow.Context, input AwaitLandingInput) (*AwaitLandingResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("AwaitLandingWorkflow started", "signatures", len(input.Signatures))

	interval := input.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	maxAttempts := input.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	result := &AwaitLandingResult{
		Landed:    []string{},
		StartedAt: workflow.Now(ctx),
	}
	pending := uniqueSignatures(input.Signatures)

	activityOptions := workflow.ActivityOptions{
		StartToCloseTimeout: 60 * time.Second,
		RetryPolicy: &temporalsdk.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    30 * time.Second,
			MaximumAttempts:    3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, activityOptions)
	workflowID := workflow.GetInfo(ctx).WorkflowExecution.ID

	for attempt := 1; attempt <= maxAttempts && len(pending) > 0; attempt++ {
		result.Attempts = attempt

		var checkResult *CheckLandingResult
		err := workflow.ExecuteActivity(ctx, a.CheckLanding, CheckLandingInput{Signatures: pending}).Get(ctx, &checkResult)
		if err != nil {
			errMsg := fmt.Sprintf("failed to check landing: %v", err)
			result.Error = &errMsg
			result.Pending = pending
			result.CompletedAt = workflow.Now(ctx)
			return result, fmt.Errorf("failed to check landing: %w", err)
		}

		if len(checkResult.Landed) > 0 {
			result.Landed = append(result.Landed, checkResult.Landed...)
			pending = without(pending, checkResult.Landed)

			publishInput := PublishLandedInput{
				Signatures: checkResult.Landed,
				WorkflowID: workflowID,
				Attempt:    attempt,
				ObservedAt: workflow.Now(ctx),
			}
			var publishResult *PublishLandedResult
			if err := workflow.ExecuteActivity(ctx, a.PublishLanded, publishInput).Get(ctx, &publishResult); err != nil {
				// Landing already happened; a lost notification does not undo it.
				logger.Warn("failed to publish landing events", "error", err, "count", len(checkResult.Landed))
			}
		}

		logger.Info("landing check complete",
			"attempt", attempt,
			"landed", len(result.Landed),
			"pending", len(pending),
		)

		if len(pending) > 0 && attempt < maxAttempts {
			if err := workflow.Sleep(ctx, interval); err != nil {
				return result, err
			}
		}
	}

	result.Pending = pending
	result.CompletedAt = workflow.Now(ctx)
	if len(pending) == 0 {
		result.Status = StatusLanded
	} else {
		result.Status = StatusTimeout
		logger.Warn("signatures did not land", "pending", len(pending), "attempts", result.Attempts)
	}

	return result, nil
}

// uniqueSignatures drops duplicates, keeping first-seen order.
func uniqueSignatures(sigs []string) []string {
	seen := make(map[string]struct{}, len(sigs))
	out := make([]string, 0, len(sigs))
	for _, s := range sigs {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func without(sigs, remove []string) []string {
	drop := make(map[string]struct{}, len(remove))
	for _, s := range remove {
		drop[s] = struct{}{}
	}
	out := make([]string, 0, len(sigs))
	for _, s := range sigs {
		if _, ok := drop[s]; !ok {
			out = append(out, s)
		}
	}
	return out
}
