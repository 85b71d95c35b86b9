package bwcdkparams_test

import (
	"testing"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/assertions"
	"github.com/aws/jsii-runtime-go"
	"github.com/basewarphq/bwappcfg/bwcdk/bwcdkparams"
	"github.com/basewarphq/bwappcfg/bwcdk/bwcdkutil"
)

func newStack(t *testing.T) awscdk.Stack {
	t.Helper()

	app := awscdk.NewApp(nil)
	bwcdkutil.StoreConfig(app, &bwcdkutil.Config{
		Qualifier:     "myapp",
		PrimaryRegion: "us-east-1",
		Deployments:   []string{"Dev"},
	})
	stack := awscdk.NewStack(app, jsii.String("Stack"), &awscdk.StackProps{
		Env: &awscdk.Environment{Region: jsii.String("us-east-1")},
	})
	bwcdkutil.StoreDeploymentIdent(stack, "Dev")
	return stack
}

//nolint:paralleltest // jsii runtime doesn't support parallel tests
func TestStoreAppConfig(t *testing.T) {
	defer jsii.Close()

	stack := newStack(t)
	bwcdkparams.StoreAppConfig(stack, bwcdkparams.AppConfigIDs{
		ApplicationID: jsii.String("app123"),
		ProfileIDs: map[string]*string{
			"Flags":  jsii.String("prof123"),
			"Limits": jsii.String("prof456"),
		},
		EnvironmentIDs: map[string]*string{
			"Beta": jsii.String("env1"),
			"Prod": jsii.String("env2"),
		},
	}, "Beta", "Prod", "Missing")

	template := assertions.Template_FromStack(stack, nil)
	template.ResourceCountIs(jsii.String("AWS::SSM::Parameter"), jsii.Number(5))

	for name, value := range map[string]string{
		"/myapp/appconfig/dev/application-id":    "app123",
		"/myapp/appconfig/dev/profiles/flags":    "prof123",
		"/myapp/appconfig/dev/profiles/limits":   "prof456",
		"/myapp/appconfig/dev/environments/beta": "env1",
		"/myapp/appconfig/dev/environments/prod": "env2",
	} {
		template.HasResourceProperties(jsii.String("AWS::SSM::Parameter"), map[string]any{
			"Name":  name,
			"Value": value,
		})
	}
}

//nolint:paralleltest // jsii runtime doesn't support parallel tests
func TestStoreAppConfig_WithoutProfile(t *testing.T) {
	defer jsii.Close()

	stack := newStack(t)
	bwcdkparams.StoreAppConfig(stack, bwcdkparams.AppConfigIDs{
		ApplicationID: jsii.String("app123"),
	})

	template := assertions.Template_FromStack(stack, nil)
	template.ResourceCountIs(jsii.String("AWS::SSM::Parameter"), jsii.Number(1))
}

//nolint:paralleltest // jsii runtime doesn't support parallel tests
func TestAppConfigParamName(t *testing.T) {
	defer jsii.Close()

	stack := newStack(t)
	got := bwcdkparams.AppConfigParamName(stack, "Environments", "Prod")
	if got != "dev/environments/prod" {
		t.Errorf("got %q", got)
	}
}
