package rollout

import (
	"context"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// Processor applies rollout events to the history, archive and alert queue.
type Processor struct {
	history *History
	archive *Archive
	alerts  *Alerter
	fetcher *Fetcher
	region  string
	logger  func(ctx context.Context) *zap.Logger
	now     func() time.Time
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithClock overrides the time source.
func WithClock(now func() time.Time) ProcessorOption {
	return func(p *Processor) { p.now = now }
}

// WithLogger sets how a logger is obtained for an invocation.
func WithLogger(logger func(ctx context.Context) *zap.Logger) ProcessorOption {
	return func(p *Processor) { p.logger = logger }
}

// NewProcessor creates a Processor. region is reported in rollback alerts.
func NewProcessor(
	history *History, archive *Archive, alerts *Alerter, fetcher *Fetcher, region string, opts ...ProcessorOption,
) *Processor {
	p := &Processor{
		history: history,
		archive: archive,
		alerts:  alerts,
		fetcher: fetcher,
		region:  region,
		logger:  func(context.Context) *zap.Logger { return zap.NewNop() },
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Handle processes one EventBridge event. Invalid events are logged and
// dropped; failures talking to AWS are returned so the invocation is retried.
func (p *Processor) Handle(ctx context.Context, raw events.CloudWatchEvent) error {
	log := p.logger(ctx)

	ev, err := DecodeEvent(raw)
	if errors.Is(err, ErrInvalidEvent) {
		log.Warn("dropping rollout event", zap.String("event_id", raw.ID), zap.Error(err))
		return nil
	}
	if err != nil {
		return err
	}

	log = log.With(
		zap.String("stage", string(ev.Stage)),
		zap.String("application_id", ev.Application.ID),
		zap.String("environment_id", ev.Environment.ID),
		zap.Int("deployment_number", ev.DeploymentNumber),
	)
	now := p.now()

	if err := p.archive.PutEvent(ctx, ev, raw.Detail); err != nil {
		return err
	}
	if err := p.history.Record(ctx, ev, now); err != nil {
		return err
	}

	switch ev.Stage {
	case StageStart:
		done, err := p.history.Terminated(ctx, ev)
		if err != nil {
			return err
		}
		if done {
			log.Debug("start arrived after the deployment finished")
			break
		}
		held, err := p.history.Acquire(ctx, ev, now)
		if err != nil {
			return err
		}
		if held != 0 {
			log.Warn("deployment started while another is in flight", zap.Int("in_flight", held))
		}
	case StageComplete:
		if err := p.release(ctx, log, ev); err != nil {
			return err
		}
		cfg, err := p.fetcher.Latest(ctx, ev)
		if err != nil {
			return err
		}
		if err := p.archive.PutConfiguration(ctx, ev, cfg); err != nil {
			return err
		}
	case StageRolledBack:
		if err := p.release(ctx, log, ev); err != nil {
			return err
		}
		if err := p.alerts.RolledBack(ctx, ev, p.region, now); err != nil {
			return err
		}
		log.Error("deployment rolled back")
	case StageStep, StageBaking:
	}

	log.Info("processed rollout event")
	return nil
}

func (p *Processor) release(ctx context.Context, log *zap.Logger, ev Event) error {
	released, err := p.history.Release(ctx, ev)
	if err != nil {
		return err
	}
	if !released {
		log.Debug("in-flight marker held by another deployment or already cleared")
	}
	return nil
}
