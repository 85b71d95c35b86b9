package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/appconfig"
	"github.com/basewarphq/bwappcfg/appcfgdeploy"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

type DeployCmd struct {
	Plan         string        `arg:"" type:"existingfile" help:"Rollout plan (YAML)."`
	Region       string        `help:"AWS region; overrides the plan."`
	PollInterval time.Duration `name:"poll-interval" default:"10s" help:"How often deployment state is polled."`
	DryRun       bool          `name:"dry-run" help:"Print the deployments without starting them."`
}

func (c *DeployCmd) Run(out io.Writer, log *zap.Logger) error {
	plan, err := appcfgdeploy.ReadPlan(c.Plan)
	if err != nil {
		return err
	}

	if c.DryRun {
		for _, env := range plan.Environments {
			for _, d := range env.Deployments {
				fmt.Fprintf(out, "%s/%s: %s@%s via %s\n", plan.Application, env.ID, d.Profile, d.Version, d.Strategy)
			}
		}
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	region := c.Region
	if region == "" {
		region = plan.Region
	}
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return errors.Wrap(err, "failed to load AWS config")
	}

	return c.run(ctx, out, log, plan, appconfig.NewFromConfig(cfg), cfg.Region)
}

func (c *DeployCmd) run(
	ctx context.Context, out io.Writer, log *zap.Logger, plan *appcfgdeploy.Plan, api appcfgdeploy.API, region string,
) error {
	log.Info("running rollout plan", zap.String("application", plan.Application),
		zap.String("region", region), zap.Int("environments", len(plan.Environments)))

	results, err := plan.Run(ctx, api,
		appcfgdeploy.WithPollInterval(c.PollInterval),
		appcfgdeploy.WithLogger(log))
	for _, r := range results {
		fmt.Fprintf(out, "#%d %s@%s %s\n", r.DeploymentNumber,
			r.Request.ConfigurationProfileID, r.Request.ConfigurationVersion, r.State)
	}
	return err
}
