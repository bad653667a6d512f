package temporal

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"go.temporal.io/sdk/client"
)

// Client starts and inspects landing watch workflows.
type Client struct {
	client    client.Client
	taskQueue string
	logger    *slog.Logger
}

// NewClient creates a new Temporal client.
func NewClient(host, namespace, taskQueue string, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("connecting to temporal",
		"host", host,
		"namespace", namespace,
		"task_queue", taskQueue,
	)

	c, err := client.Dial(client.Options{
		HostPort:  host,
		Namespace: namespace,
		Logger:    newTemporalLogger(logger),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Temporal: %w", err)
	}

	logger.Info("connected to temporal successfully")

	return &Client{
		client:    c,
		taskQueue: taskQueue,
		logger:    logger,
	}, nil
}

// StartAwaitLanding starts an AwaitLandingWorkflow and returns its workflow
// and run IDs. The workflow ID is derived from the full set of signatures, so
// starting a second watch for the same set while the first is running returns
// the running execution, and a different set always gets its own watch.
func (c *Client) StartAwaitLanding(ctx context.Context, input AwaitLandingInput) (string, string, error) {
	if len(input.Signatures) == 0 {
		return "", "", fmt.Errorf("at least one signature is required")
	}

	id := awaitLandingWorkflowID(input.Signatures)
	run, err := c.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        id,
		TaskQueue: c.taskQueue,
	}, AwaitLandingWorkflow, input)
	if err != nil {
		return "", "", fmt.Errorf("failed to start landing workflow: %w", err)
	}

	c.logger.Info("started landing workflow",
		"workflow_id", run.GetID(),
		"run_id", run.GetRunID(),
		"signatures", len(input.Signatures),
	)

	return run.GetID(), run.GetRunID(), nil
}

// GetAwaitLandingResult blocks until the workflow completes and returns its result.
func (c *Client) GetAwaitLandingResult(ctx context.Context, workflowID, runID string) (*AwaitLandingResult, error) {
	var result AwaitLandingResult
	if err := c.client.GetWorkflow(ctx, workflowID, runID).Get(ctx, &result); err != nil {
		return nil, fmt.Errorf("failed to get landing workflow result: %w", err)
	}
	return &result, nil
}

// Close closes the Temporal client connection.
func (c *Client) Close() {
	c.logger.Info("closing temporal client")
	c.client.Close()
}

// awaitLandingWorkflowID names a watch after its whole batch: the same set of
// signatures in any order or with duplicates maps to the same ID, and any
// other set maps to a different one.
func awaitLandingWorkflowID(signatures []string) string {
	sorted := uniqueSignatures(signatures)
	slices.Sort(sorted)
	sum := sha256.Sum256([]byte(strings.Join(sorted, ",")))
	return "await-landing-" + hex.EncodeToString(sum[:16])
}

// temporalLogger adapts slog.Logger to Temporal's logger interface.
type temporalLogger struct {
	logger *slog.Logger
}

func newTemporalLogger(logger *slog.Logger) *temporalLogger {
	return &temporalLogger{logger: logger}
}

func (l *temporalLogger) Debug(msg string, keyvals ...interface{}) {
	l.logger.Debug(msg, keyvals...)
}

func (l *temporalLogger) Info(msg string, keyvals ...interface{}) {
	l.logger.Info(msg, keyvals...)
}

func (l *temporalLogger) Warn(msg string, keyvals ...interface{}) {
	l.logger.Warn(msg, keyvals...)
}

func (l *temporalLogger) Error(msg string, keyvals ...interface{}) {
	l.logger.Error(msg, keyvals...)
}
