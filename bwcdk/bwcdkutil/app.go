package bwcdkutil

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/jsii-runtime-go"
)

// SharedConstructor creates shared infrastructure in a given stack.
// It returns the shared construct that will be passed to deployment constructors.
type SharedConstructor[S any] func(stack awscdk.Stack) S

// DeploymentConstructor creates deployment-specific infrastructure in a given stack.
// It receives the shared construct from the same region and the deployment identifier.
type DeploymentConstructor[S any] func(stack awscdk.Stack, shared S, deploymentIdent string)

// AppConfig configures the CDK app setup.
type AppConfig struct {
	// Prefix for context keys (e.g., "bwappcfg-" for "bwappcfg-qualifier").
	Prefix string
	// DeployersGroup is the IAM group that can deploy to all deployments.
	DeployersGroup string
	// RestrictedDeployments are deployment identifiers that require DeployersGroup membership.
	RestrictedDeployments []string
}

// Stacks are the stacks SetupApp created, keyed by region and, for
// deployment stacks, by deployment identifier first.
type Stacks struct {
	Shared      map[string]awscdk.Stack
	Deployments map[string]map[string]awscdk.Stack
}

// Tag keys applied to every stack SetupApp creates.
const (
	TagQualifier  = "bwappcfg:qualifier"
	TagDeployment = "bwappcfg:deployment"
)

// SetupApp configures a CDK app with multi-region, multi-deployment stacks.
//
// Context values are validated before any stack is created; SetupApp panics with
// the collected validation errors if anything is missing. Secondary regions
// depend on the primary so values published there can be looked up.
func SetupApp[S any](
	app awscdk.App,
	cfg AppConfig,
	newShared SharedConstructor[S],
	newDeployment DeploymentConstructor[S],
) *Stacks {
	config, err := NewConfig(app, cfg)
	if err != nil {
		panic(err)
	}
	StoreConfig(app, config)

	stacks := &Stacks{
		Shared:      make(map[string]awscdk.Stack, len(config.AllRegions())),
		Deployments: map[string]map[string]awscdk.Stack{},
	}
	shared := make(map[string]S, len(config.AllRegions()))

	for _, region := range config.AllRegions() {
		stack := NewStackFromConfig(app, config, region)
		tagStack(stack, config.Qualifier, "")
		shared[region] = newShared(stack)
		stacks.Shared[region] = stack

		if !config.IsPrimaryRegion(region) {
			stack.AddDependency(stacks.Shared[config.PrimaryRegion],
				jsii.String("Primary region must deploy first"))
		}
	}

	for _, ident := range config.AllowedDeployments() {
		byRegion := make(map[string]awscdk.Stack, len(config.AllRegions()))
		for _, region := range config.AllRegions() {
			stack := NewStackFromConfig(app, config, region, ident)
			tagStack(stack, config.Qualifier, ident)
			newDeployment(stack, shared[region], ident)
			byRegion[region] = stack

			if config.IsPrimaryRegion(region) {
				stack.AddDependency(stacks.Shared[region],
					jsii.String("Primary shared stack must deploy first"))
			} else {
				stack.AddDependency(byRegion[config.PrimaryRegion],
					jsii.String("Primary region deployment must deploy first"))
			}
		}
		stacks.Deployments[ident] = byRegion
	}

	return stacks
}

func tagStack(stack awscdk.Stack, qualifier, deploymentIdent string) {
	tags := awscdk.Tags_Of(stack)
	tags.Add(jsii.String(TagQualifier), jsii.String(qualifier), nil)
	if deploymentIdent != "" {
		tags.Add(jsii.String(TagDeployment), jsii.String(deploymentIdent), nil)
	}
}
