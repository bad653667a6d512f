package temporal

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/testsuite"
	"go.temporal.io/sdk/workflow"
)

func newWorkflowEnv(t *testing.T) (*testsuite.TestWorkflowEnvironment, *Activities) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()

	// Register activities first (before mocking)
	activities := &Activities{}
	env.RegisterActivity(activities.CheckLanding)
	env.RegisterActivity(activities.PublishLanded)
	return env, activities
}

func TestAwaitLandingWorkflow_AllLandFirstRound(t *testing.T) {
	env, activities := newWorkflowEnv(t)

	env.OnActivity(activities.CheckLanding, mock.Anything, CheckLandingInput{Signatures: []string{"sig1", "sig2"}}).
		Return(&CheckLandingResult{Landed: []string{"sig1", "sig2"}}, nil).Once()
	env.OnActivity(activities.PublishLanded, mock.Anything, mock.MatchedBy(func(in PublishLandedInput) bool {
		return assert.ObjectsAreEqual([]string{"sig1", "sig2"}, in.Signatures) && in.Attempt == 1
	})).Return(&PublishLandedResult{Published: 2}, nil).Once()

	env.ExecuteWorkflow(AwaitLandingWorkflow, AwaitLandingInput{
		Signatures:   []string{"sig1", "sig2", "sig1"},
		PollInterval: time.Second,
		MaxAttempts:  5,
	})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result AwaitLandingResult
	require.NoError(t, env.GetWorkflowResult(&result))
	assert.Equal(t, StatusLanded, result.Status)
	assert.Equal(t, []string{"sig1", "sig2"}, result.Landed)
	assert.Empty(t, result.Pending)
	assert.Equal(t, 1, result.Attempts)
	env.AssertExpectations(t)
}

func TestAwaitLandingWorkflow_LandsAcrossRounds(t *testing.T) {
	env, activities := newWorkflowEnv(t)

	env.OnActivity(activities.CheckLanding, mock.Anything, CheckLandingInput{Signatures: []string{"sig1", "sig2", "sig3"}}).
		Return(&CheckLandingResult{Landed: []string{"sig2"}}, nil).Once()
	env.OnActivity(activities.CheckLanding, mock.Anything, CheckLandingInput{Signatures: []string{"sig1", "sig3"}}).
		Return(&CheckLandingResult{Landed: []string{}}, nil).Once()
	env.OnActivity(activities.CheckLanding, mock.Anything, CheckLandingInput{Signatures: []string{"sig1", "sig3"}}).
		Return(&CheckLandingResult{Landed: []string{"sig1", "sig3"}}, nil).Once()

	published := 0
	env.OnActivity(activities.PublishLanded, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			published += len(args.Get(1).(PublishLandedInput).Signatures)
		}).
		Return(&PublishLandedResult{}, nil)

	startTime := env.Now()
	env.ExecuteWorkflow(AwaitLandingWorkflow, AwaitLandingInput{
		Signatures:   []string{"sig1", "sig2", "sig3"},
		PollInterval: 10 * time.Second,
		MaxAttempts:  5,
	})

	require.NoError(t, env.GetWorkflowError())

	var result AwaitLandingResult
	require.NoError(t, env.GetWorkflowResult(&result))
	assert.Equal(t, StatusLanded, result.Status)
	assert.ElementsMatch(t, []string{"sig1", "sig2", "sig3"}, result.Landed)
	assert.Equal(t, 3, result.Attempts)
	assert.Equal(t, 3, published, "each landed signature is published exactly once")

	// Two sleeps between three rounds.
	assert.GreaterOrEqual(t, env.Now().Sub(startTime), 20*time.Second)
}

func TestAwaitLandingWorkflow_Timeout(t *testing.T) {
	env, activities := newWorkflowEnv(t)

	env.OnActivity(activities.CheckLanding, mock.Anything, mock.Anything).
		Return(&CheckLandingResult{Landed: []string{}}, nil).Times(3)

	env.ExecuteWorkflow(AwaitLandingWorkflow, AwaitLandingInput{
		Signatures:   []string{"sig1"},
		PollInterval: time.Second,
		MaxAttempts:  3,
	})

	require.NoError(t, env.GetWorkflowError(), "running out of attempts is not a failure")

	var result AwaitLandingResult
	require.NoError(t, env.GetWorkflowResult(&result))
	assert.Equal(t, StatusTimeout, result.Status)
	assert.Equal(t, []string{"sig1"}, result.Pending)
	assert.Empty(t, result.Landed)
	assert.Equal(t, 3, result.Attempts)
	env.AssertExpectations(t)
}

func TestAwaitLandingWorkflow_CheckFails(t *testing.T) {
	env, activities := newWorkflowEnv(t)

	env.OnActivity(activities.CheckLanding, mock.Anything, mock.Anything).
		Return(nil, errors.New("solana RPC error"))

	env.ExecuteWorkflow(AwaitLandingWorkflow, AwaitLandingInput{
		Signatures:  []string{"sig1"},
		MaxAttempts: 3,
	})

	assert.Error(t, env.GetWorkflowError())
}

func TestAwaitLandingWorkflow_PublishFailureDoesNotFail(t *testing.T) {
	env, activities := newWorkflowEnv(t)

	env.OnActivity(activities.CheckLanding, mock.Anything, mock.Anything).
		Return(&CheckLandingResult{Landed: []string{"sig1"}}, nil)
	env.OnActivity(activities.PublishLanded, mock.Anything, mock.Anything).
		Return(nil, errors.New("nats unavailable"))

	env.ExecuteWorkflow(AwaitLandingWorkflow, AwaitLandingInput{Signatures: []string{"sig1"}})

	require.NoError(t, env.GetWorkflowError())

	var result AwaitLandingResult
	require.NoError(t, env.GetWorkflowResult(&result))
	assert.Equal(t, StatusLanded, result.Status)
	assert.Equal(t, []string{"sig1"}, result.Landed)
}

func TestAwaitLandingWorkflow_Defaults(t *testing.T) {
	env, activities := newWorkflowEnv(t)

	env.OnActivity(activities.CheckLanding, mock.Anything, mock.Anything).
		Return(&CheckLandingResult{Landed: []string{}}, nil)

	startTime := env.Now()
	env.ExecuteWorkflow(AwaitLandingWorkflow, AwaitLandingInput{Signatures: []string{"sig1"}})

	require.NoError(t, env.GetWorkflowError())

	var result AwaitLandingResult
	require.NoError(t, env.GetWorkflowResult(&result))
	assert.Equal(t, DefaultMaxAttempts, result.Attempts)
	assert.GreaterOrEqual(t, env.Now().Sub(startTime), time.Duration(DefaultMaxAttempts-1)*DefaultPollInterval)
}

func TestAwaitLandingWorkflow_WorkerDefaults(t *testing.T) {
	env, activities := newWorkflowEnv(t)
	env.RegisterWorkflowWithOptions(
		awaitLandingWorkflowWithDefaults(LandingDefaults{PollInterval: 5 * time.Second, MaxAttempts: 2}),
		workflow.RegisterOptions{Name: "AwaitLandingWorkflow"},
	)

	env.OnActivity(activities.CheckLanding, mock.Anything, mock.Anything).
		Return(&CheckLandingResult{Landed: []string{}}, nil).Times(2)

	startTime := env.Now()
	env.ExecuteWorkflow("AwaitLandingWorkflow", AwaitLandingInput{Signatures: []string{"sig1"}})

	require.NoError(t, env.GetWorkflowError())

	var result AwaitLandingResult
	require.NoError(t, env.GetWorkflowResult(&result))
	assert.Equal(t, 2, result.Attempts)
	assert.Equal(t, StatusTimeout, result.Status)
	assert.GreaterOrEqual(t, env.Now().Sub(startTime), 5*time.Second)
	env.AssertExpectations(t)
}

func TestLandingDefaults_Apply(t *testing.T) {
	d := LandingDefaults{PollInterval: time.Second, MaxAttempts: 4}

	in := d.apply(AwaitLandingInput{})
	assert.Equal(t, time.Second, in.PollInterval)
	assert.Equal(t, 4, in.MaxAttempts)

	in = d.apply(AwaitLandingInput{PollInterval: time.Minute, MaxAttempts: 9})
	assert.Equal(t, time.Minute, in.PollInterval)
	assert.Equal(t, 9, in.MaxAttempts)
}

func TestUniqueSignaturesAndWithout(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, uniqueSignatures([]string{"a", "b", "a", "c", "b"}))
	assert.Equal(t, []string{"a", "c"}, without([]string{"a", "b", "c"}, []string{"b", "z"}))
	assert.Empty(t, without([]string{"a"}, []string{"a"}))
}
