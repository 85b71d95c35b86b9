// Package appcfgdeploy runs AppConfig deployments through the AppConfig API
// with at most one deployment in flight per environment.
//
// A [Queue] belongs to one environment. Requests are started in the order
// they were enqueued; each one is awaited until AppConfig reports a terminal
// state before the next is started. A rollback stops the queue.
package appcfgdeploy

import (
	"context"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/appconfig"
	"github.com/aws/aws-sdk-go-v2/service/appconfig/types"
	"github.com/cenkalti/backoff/v4"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// ErrRolledBack is returned by Run when a deployment did not complete.
var ErrRolledBack = errors.New("deployment rolled back")

var errPending = errors.New("still pending")

// API is the subset of the AppConfig client the queue uses.
type API interface {
	StartDeployment(ctx context.Context, in *appconfig.StartDeploymentInput,
		opts ...func(*appconfig.Options)) (*appconfig.StartDeploymentOutput, error)
	GetDeployment(ctx context.Context, in *appconfig.GetDeploymentInput,
		opts ...func(*appconfig.Options)) (*appconfig.GetDeploymentOutput, error)
	ListDeployments(ctx context.Context, in *appconfig.ListDeploymentsInput,
		opts ...func(*appconfig.Options)) (*appconfig.ListDeploymentsOutput, error)
}

// Request describes one deployment of a configuration version.
type Request struct {
	ConfigurationProfileID string
	ConfigurationVersion   string
	DeploymentStrategyID   string
	Description            string
	KMSKeyIdentifier       string
	// DynamicParameters are passed to extensions declaring dynamic parameters.
	DynamicParameters map[string]string
}

// Result is the outcome of a started deployment.
type Result struct {
	Request          Request
	DeploymentNumber int32
	State            types.DeploymentState
}

// Terminal reports whether AppConfig will not change state any further.
func Terminal(s types.DeploymentState) bool {
	switch s {
	case types.DeploymentStateComplete, types.DeploymentStateRolledBack, types.DeploymentStateReverted:
		return true
	default:
		return false
	}
}

// Option configures a Queue.
type Option func(*Queue)

// WithPollInterval sets how often deployment state is polled. Defaults to 10s.
func WithPollInterval(d time.Duration) Option {
	return func(q *Queue) { q.pollInterval = d }
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(q *Queue) { q.logger = l }
}

// Queue serializes deployments to one environment.
type Queue struct {
	api           API
	applicationID string
	environmentID string
	pollInterval  time.Duration
	logger        *zap.Logger

	mu      sync.Mutex
	pending []Request
	running bool
}

// NewQueue creates a queue for an environment of an application.
func NewQueue(api API, applicationID, environmentID string, opts ...Option) *Queue {
	q := &Queue{
		api:           api,
		applicationID: applicationID,
		environmentID: environmentID,
		pollInterval:  10 * time.Second,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(q)
	}
	q.logger = q.logger.With(
		zap.String("application_id", applicationID),
		zap.String("environment_id", environmentID))
	return q
}

// EnvironmentID returns the environment the queue deploys to.
func (q *Queue) EnvironmentID() string { return q.environmentID }

// Enqueue appends requests. It is safe to call while Run is active.
func (q *Queue) Enqueue(reqs ...Request) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, reqs...)
}

// Len returns the number of requests not yet started.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

func (q *Queue) peek() (Request, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return Request{}, false
	}
	return q.pending[0], true
}

// drop removes the head once AppConfig accepted it.
func (q *Queue) drop() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = q.pending[1:]
}

// Run waits until the environment is idle, then starts pending requests one
// at a time until the queue is empty. It stops with ErrRolledBack at the first
// deployment that does not complete, leaving later requests queued. A request
// whose start call fails stays at the head of the queue.
func (q *Queue) Run(ctx context.Context) ([]Result, error) {
	q.mu.Lock()
	if q.running {
		q.mu.Unlock()
		return nil, errors.New("queue is already running")
	}
	q.running = true
	q.mu.Unlock()
	defer func() {
		q.mu.Lock()
		q.running = false
		q.mu.Unlock()
	}()

	if err := q.WaitIdle(ctx); err != nil {
		return nil, err
	}

	var results []Result
	for {
		req, ok := q.peek()
		if !ok {
			return results, nil
		}

		res, err := q.start(ctx, req)
		if err != nil {
			return results, err
		}
		q.drop()

		res, err = q.await(ctx, res)
		if err != nil {
			return results, err
		}
		results = append(results, res)
		if res.State != types.DeploymentStateComplete {
			return results, errors.Mark(errors.Newf("deployment %d of %s version %s ended %s",
				res.DeploymentNumber, req.ConfigurationProfileID, req.ConfigurationVersion, res.State), ErrRolledBack)
		}
	}
}

func (q *Queue) start(ctx context.Context, req Request) (Result, error) {
	in := &appconfig.StartDeploymentInput{
		ApplicationId:          aws.String(q.applicationID),
		EnvironmentId:          aws.String(q.environmentID),
		ConfigurationProfileId: aws.String(req.ConfigurationProfileID),
		ConfigurationVersion:   aws.String(req.ConfigurationVersion),
		DeploymentStrategyId:   aws.String(req.DeploymentStrategyID),
	}
	if req.Description != "" {
		in.Description = aws.String(req.Description)
	}
	if req.KMSKeyIdentifier != "" {
		in.KmsKeyIdentifier = aws.String(req.KMSKeyIdentifier)
	}
	if len(req.DynamicParameters) > 0 {
		in.DynamicExtensionParameters = req.DynamicParameters
	}

	out, err := q.api.StartDeployment(ctx, in)
	if err != nil {
		return Result{}, errors.Wrapf(err, "failed to start deployment of %s version %s",
			req.ConfigurationProfileID, req.ConfigurationVersion)
	}

	res := Result{Request: req, DeploymentNumber: out.DeploymentNumber, State: out.State}
	q.logger.Info("deployment started",
		zap.Int32("deployment_number", res.DeploymentNumber),
		zap.String("profile_id", req.ConfigurationProfileID),
		zap.String("version", req.ConfigurationVersion))
	return res, nil
}

func (q *Queue) await(ctx context.Context, res Result) (Result, error) {
	log := q.logger.With(zap.Int32("deployment_number", res.DeploymentNumber))

	poll := func() error {
		got, err := q.api.GetDeployment(ctx, &appconfig.GetDeploymentInput{
			ApplicationId:    aws.String(q.applicationID),
			EnvironmentId:    aws.String(q.environmentID),
			DeploymentNumber: aws.Int32(res.DeploymentNumber),
		})
		if err != nil {
			return backoff.Permanent(errors.Wrapf(err, "failed to get deployment %d", res.DeploymentNumber))
		}
		if got.State != res.State {
			log.Debug("deployment state changed", zap.String("state", string(got.State)))
		}
		res.State = got.State
		if !Terminal(res.State) {
			return errPending
		}
		return nil
	}
	if !Terminal(res.State) {
		if err := q.retry(ctx, poll); err != nil {
			return res, err
		}
	}

	log.Info("deployment finished", zap.String("state", string(res.State)))
	return res, nil
}

// WaitIdle blocks until no deployment to the environment is in flight,
// including deployments started outside this queue.
func (q *Queue) WaitIdle(ctx context.Context) error {
	return q.retry(ctx, func() error {
		busy, err := q.inFlight(ctx)
		if err != nil {
			return backoff.Permanent(err)
		}
		if busy != 0 {
			q.logger.Debug("waiting for deployment in flight", zap.Int32("deployment_number", busy))
			return errPending
		}
		return nil
	})
}

func (q *Queue) inFlight(ctx context.Context) (int32, error) {
	in := &appconfig.ListDeploymentsInput{
		ApplicationId: aws.String(q.applicationID),
		EnvironmentId: aws.String(q.environmentID),
	}
	for {
		out, err := q.api.ListDeployments(ctx, in)
		if err != nil {
			return 0, errors.Wrap(err, "failed to list deployments")
		}
		for _, item := range out.Items {
			if !Terminal(item.State) {
				return item.DeploymentNumber, nil
			}
		}
		if out.NextToken == nil {
			return 0, nil
		}
		in.NextToken = out.NextToken
	}
}

// retry runs op every poll interval until it stops returning errPending.
func (q *Queue) retry(ctx context.Context, op backoff.Operation) error {
	err := backoff.Retry(op, backoff.WithContext(backoff.NewConstantBackOff(q.pollInterval), ctx))
	if err != nil && ctx.Err() != nil {
		return errors.Wrap(ctx.Err(), "stopped waiting for deployment")
	}
	return err
}
