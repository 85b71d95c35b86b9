//nolint:paralleltest // jsii runtime doesn't support parallel tests
package bwcdkappconfig_test

import (
	"testing"

	"github.com/aws/aws-cdk-go/awscdk/v2/awslambda"
	"github.com/aws/jsii-runtime-go"
	"github.com/basewarphq/bwappcfg/bwcdk/bwcdkappconfig"
)

func TestLambdaValidator_GrantsInvoke(t *testing.T) {
	defer jsii.Close()

	app, stack := newTestStack()
	application := bwcdkappconfig.NewApplication(stack, "App", bwcdkappconfig.ApplicationProps{})
	fn := awslambda.NewFunction(stack, jsii.String("Check"), &awslambda.FunctionProps{
		Runtime: awslambda.Runtime_PROVIDED_AL2023(),
		Handler: jsii.String("bootstrap"),
		Code:    awslambda.Code_FromInline(jsii.String("noop")),
	})

	for _, id := range []string{"First", "Second"} {
		opts := hosted(`{}`)
		opts.Validators = []bwcdkappconfig.Validator{bwcdkappconfig.LambdaValidator(fn)}
		application.AddHostedConfiguration(id, opts)
	}

	perms := resources(t, app, "AWS::Lambda::Permission")
	if len(perms) != 1 {
		t.Fatalf("expected 1 invoke permission, got %d", len(perms))
	}
	for _, perm := range perms {
		props := properties(perm)
		if props["Principal"] != "appconfig.amazonaws.com" || props["Action"] != "lambda:InvokeFunction" {
			t.Errorf("unexpected permission: %v", props)
		}
	}

	for _, profile := range resources(t, app, "AWS::AppConfig::ConfigurationProfile") {
		validators, _ := properties(profile)["Validators"].([]any)
		if len(validators) != 1 {
			t.Fatalf("Validators = %v, want one", validators)
		}
		v, _ := validators[0].(map[string]any)
		if v["Type"] != "LAMBDA" {
			t.Errorf("validator type = %v, want LAMBDA", v["Type"])
		}
		content, _ := v["Content"].(map[string]any)
		if _, ok := content["Fn::GetAtt"]; !ok {
			t.Errorf("validator content should reference the function ARN, got %v", v["Content"])
		}
	}
}

func TestLambdaValidator_RequiresFunction(t *testing.T) {
	defer jsii.Close()

	_, stack := newTestStack()
	application := bwcdkappconfig.NewApplication(stack, "App", bwcdkappconfig.ApplicationProps{})

	mustPanic(t, func() {
		opts := hosted(`{}`)
		opts.Validators = []bwcdkappconfig.Validator{bwcdkappconfig.LambdaValidator(nil)}
		application.AddHostedConfiguration("Config", opts)
	})
}
