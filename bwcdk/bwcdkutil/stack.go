package bwcdkutil

import (
	"fmt"
	"os"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
	"github.com/iancoleman/strcase"
)

// SharedStackName returns the CloudFormation stack name for a shared stack.
func SharedStackName(qualifier, regionIdent string) string {
	return strcase.ToLowerCamel(qualifier+"-"+regionIdent) + "Shared"
}

// DeploymentStackName returns the CloudFormation stack name for a deployment stack.
func DeploymentStackName(qualifier, regionIdent, deploymentIdent string) string {
	return strcase.ToLowerCamel(qualifier+"-"+regionIdent) + deploymentIdent
}

// NewStackFromConfig creates a shared stack, or a deployment stack when a deployment
// identifier is given. Deployment stacks carry the identifier in their context.
func NewStackFromConfig(
	scope constructs.Construct, cfg *Config, region string, deploymentIdent ...string,
) awscdk.Stack {
	regionIdent := RegionIdentFor(region)
	base := strcase.ToLowerCamel(cfg.Qualifier + "-" + regionIdent)

	stackName := SharedStackName(cfg.Qualifier, regionIdent)
	description := fmt.Sprintf("%s AppConfig shared (region: %s)", base, region)

	var ident string
	if len(deploymentIdent) > 0 {
		ident = deploymentIdent[0]
		if ident == "" {
			panic("deployment identifier must not be empty")
		}
		stackName = DeploymentStackName(cfg.Qualifier, regionIdent, ident)
		description = fmt.Sprintf("%s AppConfig (region: %s, deployment: %s)", base, region, ident)
	}

	stack := awscdk.NewStack(scope, jsii.String(stackName), &awscdk.StackProps{
		Env: &awscdk.Environment{
			Account: jsii.String(os.Getenv("CDK_DEFAULT_ACCOUNT")),
			Region:  jsii.String(region),
		},
		Description: jsii.String(description),
		Synthesizer: awscdk.NewDefaultStackSynthesizer(&awscdk.DefaultStackSynthesizerProps{
			Qualifier: jsii.String(cfg.Qualifier),
		}),
	})

	if ident != "" {
		StoreDeploymentIdent(stack, ident)
	}

	awscdk.Annotations_Of(stack).AcknowledgeWarning(
		jsii.String("@aws-cdk/aws-lambda-go-alpha:goBuildFlagsSecurityWarning"),
		jsii.String("Build flags are controlled by bwcdkutil.ReproducibleGoBundling and are safe"),
	)

	return stack
}
