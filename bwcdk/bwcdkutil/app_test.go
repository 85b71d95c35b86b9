//nolint:paralleltest // jsii runtime doesn't support parallel tests
package bwcdkutil_test

import (
	"testing"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/assertions"
	"github.com/aws/aws-cdk-go/awscdk/v2/awssns"
	"github.com/aws/jsii-runtime-go"
	"github.com/basewarphq/bwappcfg/bwcdk/bwcdkutil"
)

type call struct{ Region, Deployment string }

func TestSetupApp_CreatesStacksInOrder(t *testing.T) {
	defer jsii.Close()

	ctx := validContext()
	app := awscdk.NewApp(&awscdk.AppProps{Context: &ctx})

	var sharedCalls []string
	var deploymentCalls []call

	stacks := bwcdkutil.SetupApp(app, bwcdkutil.AppConfig{
		Prefix:                "myapp-",
		DeployersGroup:        "myapp-deployers",
		RestrictedDeployments: []string{"Prod"},
	},
		func(stack awscdk.Stack) string {
			sharedCalls = append(sharedCalls, *stack.Region())
			return *stack.Region()
		},
		func(stack awscdk.Stack, shared string, deploymentIdent string) {
			if shared != *stack.Region() {
				t.Errorf("deployment in %s received shared from %s", *stack.Region(), shared)
			}
			if got := bwcdkutil.DeploymentIdent(stack); got != deploymentIdent {
				t.Errorf("DeploymentIdent() = %q, want %q", got, deploymentIdent)
			}
			deploymentCalls = append(deploymentCalls, call{*stack.Region(), deploymentIdent})
			awssns.NewTopic(stack, jsii.String("Topic"), nil)
		},
	)

	if len(sharedCalls) != 2 || sharedCalls[0] != "eu-central-1" || sharedCalls[1] != "eu-west-1" {
		t.Fatalf("shared calls = %v, want [eu-central-1 eu-west-1]", sharedCalls)
	}

	want := []call{
		{"eu-central-1", "Beta"},
		{"eu-west-1", "Beta"},
		{"eu-central-1", "Prod"},
		{"eu-west-1", "Prod"},
	}
	if len(deploymentCalls) != len(want) {
		t.Fatalf("deployment calls = %v, want %v", deploymentCalls, want)
	}
	for i := range want {
		if deploymentCalls[i] != want[i] {
			t.Errorf("deployment call %d = %+v, want %+v", i, deploymentCalls[i], want[i])
		}
	}

	stack := app.Node().TryFindChild(jsii.String("myappEuc1Prod"))
	if stack == nil {
		t.Error("expected stack myappEuc1Prod to exist")
	}

	if len(stacks.Shared) != 2 || len(stacks.Deployments) != 2 {
		t.Fatalf("stacks = %d shared, %d deployments; want 2, 2", len(stacks.Shared), len(stacks.Deployments))
	}
	prod := stacks.Deployments["Prod"]["eu-west-1"]
	if prod == nil || *prod.StackName() != "myappEuw1Prod" {
		t.Fatalf("unexpected Prod stack in eu-west-1: %v", prod)
	}

	assertions.Template_FromStack(prod, nil).HasResourceProperties(jsii.String("AWS::SNS::Topic"), map[string]any{
		"Tags": assertions.Match_ArrayWith(&[]any{
			map[string]any{"Key": bwcdkutil.TagDeployment, "Value": "Prod"},
		}),
	})
}
