package bwcdkappconfig

import (
	"time"

	"github.com/aws/aws-cdk-go/awscdk/v2/awsappconfig"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
	"github.com/basewarphq/bwappcfg/bwcdk/bwcdkutil"
	"github.com/cockroachdb/errors"
)

// GrowthType describes how a rollout grows over time.
type GrowthType string

const (
	GrowthTypeLinear      GrowthType = "LINEAR"
	GrowthTypeExponential GrowthType = "EXPONENTIAL"
)

// ReplicateTo selects where the strategy definition is saved.
type ReplicateTo string

const (
	ReplicateToNone        ReplicateTo = "NONE"
	ReplicateToSSMDocument ReplicateTo = "SSM_DOCUMENT"
)

// PredefinedStrategy is the id of a strategy AWS provides in every account.
type PredefinedStrategy string

const (
	PredefinedAllAtOnce                     PredefinedStrategy = "AppConfig.AllAtOnce"
	PredefinedLinear50PercentEvery30Seconds PredefinedStrategy = "AppConfig.Linear50PercentEvery30Seconds"
	PredefinedCanary10Percent20Minutes      PredefinedStrategy = "AppConfig.Canary10Percent20Minutes"
	PredefinedLinear20PercentEvery6Minutes  PredefinedStrategy = "AppConfig.Linear20PercentEvery6Minutes"
)

// RolloutStrategy is the shape of a rollout. Durations are whole minutes.
type RolloutStrategy struct {
	GrowthFactor       float64
	DeploymentDuration time.Duration
	FinalBakeTime      time.Duration
	GrowthType         GrowthType
}

// RolloutLinear grows the audience by growthFactor percent per interval.
func RolloutLinear(growthFactor float64, deploymentDuration, finalBakeTime time.Duration) RolloutStrategy {
	return RolloutStrategy{
		GrowthFactor:       growthFactor,
		DeploymentDuration: deploymentDuration,
		FinalBakeTime:      finalBakeTime,
		GrowthType:         GrowthTypeLinear,
	}
}

// RolloutExponential grows the audience exponentially, using growthFactor as the base.
func RolloutExponential(growthFactor float64, deploymentDuration, finalBakeTime time.Duration) RolloutStrategy {
	return RolloutStrategy{
		GrowthFactor:       growthFactor,
		DeploymentDuration: deploymentDuration,
		FinalBakeTime:      finalBakeTime,
		GrowthType:         GrowthTypeExponential,
	}
}

// RolloutCanary10Percent20Minutes matches the predefined AppConfig.Canary10Percent20Minutes.
func RolloutCanary10Percent20Minutes() RolloutStrategy {
	return RolloutExponential(10, 20*time.Minute, 10*time.Minute)
}

func RolloutLinear50PercentEvery30Seconds() RolloutStrategy {
	return RolloutLinear(50, 1*time.Minute, 1*time.Minute)
}

func RolloutLinear20PercentEvery6Minutes() RolloutStrategy {
	return RolloutLinear(20, 30*time.Minute, 30*time.Minute)
}

// RolloutAllAtOnce deploys to all targets immediately and bakes for ten minutes.
func RolloutAllAtOnce() RolloutStrategy {
	return RolloutLinear(100, 0, 10*time.Minute)
}

// DeploymentStrategy decides how fast a deployment reaches all targets.
type DeploymentStrategy interface {
	DeploymentStrategyID() *string
	DeploymentStrategyArn() *string
	// Name is nil for imported strategies.
	Name() *string
}

// DeploymentStrategyProps configures NewDeploymentStrategy.
type DeploymentStrategyProps struct {
	// Name defaults to "{qualifier}-{deployment}-{id}".
	Name        *string
	Description *string
	// Rollout is required.
	Rollout RolloutStrategy
	// ReplicateTo defaults to ReplicateToNone.
	ReplicateTo ReplicateTo
}

type deploymentStrategy struct {
	id   *string
	arn  *string
	name *string
}

type rolloutFields struct {
	GrowthFactor              float64 `validate:"gte=1,lte=100"`
	DeploymentDurationMinutes int64   `validate:"gte=0,lte=1440"`
	FinalBakeTimeMinutes      int64   `validate:"gte=0,lte=1440"`
	GrowthType                string  `validate:"oneof=LINEAR EXPONENTIAL"`
}

// CheckRollout verifies that the rollout is accepted by AppConfig.
func CheckRollout(r RolloutStrategy) error {
	for _, d := range []time.Duration{r.DeploymentDuration, r.FinalBakeTime} {
		if d%time.Minute != 0 {
			return errors.Newf("rollout durations must be whole minutes, got %s", d)
		}
	}
	return validateStruct("deployment strategy", rolloutFields{
		GrowthFactor:              r.GrowthFactor,
		DeploymentDurationMinutes: int64(r.DeploymentDuration / time.Minute),
		FinalBakeTimeMinutes:      int64(r.FinalBakeTime / time.Minute),
		GrowthType:                string(r.GrowthType),
	})
}

// NewDeploymentStrategy creates a custom deployment strategy.
func NewDeploymentStrategy(scope constructs.Construct, id string, props DeploymentStrategyProps) DeploymentStrategy {
	if err := checkNameAndDescription("deployment strategy", props.Name, props.Description); err != nil {
		panic(err)
	}
	if err := CheckRollout(props.Rollout); err != nil {
		panic(err)
	}
	switch props.ReplicateTo {
	case "", ReplicateToNone, ReplicateToSSMDocument:
	default:
		panic(errors.Newf("deployment strategy replicate-to must be NONE or SSM_DOCUMENT, got %q", props.ReplicateTo))
	}
	scope = constructs.NewConstruct(scope, jsii.String(id))

	name := props.Name
	if name == nil {
		name = jsii.String(bwcdkutil.ResourceName(scope, id, bwcdkutil.CasingKebab))
	}
	replicateTo := props.ReplicateTo
	if replicateTo == "" {
		replicateTo = ReplicateToNone
	}

	res := awsappconfig.NewCfnDeploymentStrategy(scope, jsii.String("Resource"), &awsappconfig.CfnDeploymentStrategyProps{
		Name:                        name,
		Description:                 props.Description,
		GrowthFactor:                jsii.Number(props.Rollout.GrowthFactor),
		GrowthType:                  jsii.String(string(props.Rollout.GrowthType)),
		DeploymentDurationInMinutes: jsii.Number(props.Rollout.DeploymentDuration.Minutes()),
		FinalBakeTimeInMinutes:      jsii.Number(props.Rollout.FinalBakeTime.Minutes()),
		ReplicateTo:                 jsii.String(string(replicateTo)),
	})

	return &deploymentStrategy{
		id:   res.Ref(),
		arn:  deploymentStrategyArn(scope, res.Ref()),
		name: name,
	}
}

// DeploymentStrategyFromID references an existing strategy, either a predefined one
// or the id of a custom strategy.
func DeploymentStrategyFromID(scope constructs.Construct, strategyID PredefinedStrategy) DeploymentStrategy {
	if strategyID == "" {
		panic(errors.New("deployment strategy id must not be empty"))
	}
	id := jsii.String(string(strategyID))
	return &deploymentStrategy{id: id, arn: deploymentStrategyArn(scope, id)}
}

func (d *deploymentStrategy) DeploymentStrategyID() *string  { return d.id }
func (d *deploymentStrategy) DeploymentStrategyArn() *string { return d.arn }
func (d *deploymentStrategy) Name() *string                  { return d.name }
