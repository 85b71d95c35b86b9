//nolint:paralleltest // jsii runtime doesn't support parallel tests
package bwcdkappconfig_test

import (
	"encoding/json"
	"testing"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/jsii-runtime-go"
	"github.com/basewarphq/bwappcfg/bwcdk/bwcdkutil"
)

func testConfig() *bwcdkutil.Config {
	return &bwcdkutil.Config{
		Prefix:           "bwappcfg-",
		Qualifier:        "testqual",
		PrimaryRegion:    "eu-central-1",
		SecondaryRegions: []string{"eu-west-1"},
		Deployments:      []string{"Dev", "Prod"},
	}
}

func newTestStack() (awscdk.App, awscdk.Stack) {
	app := awscdk.NewApp(nil)
	bwcdkutil.StoreConfig(app, testConfig())
	stack := awscdk.NewStack(app, jsii.String("TestStack"), &awscdk.StackProps{
		Env: &awscdk.Environment{
			Account: jsii.String("123456789012"),
			Region:  jsii.String("eu-central-1"),
		},
	})
	bwcdkutil.StoreDeploymentIdent(stack, "Dev")
	return app, stack
}

// resources returns the synthesized resources of the given type keyed by logical id.
func resources(t *testing.T, app awscdk.App, typ string) map[string]map[string]any {
	t.Helper()

	template := app.Synth(nil).GetStackByName(jsii.String("TestStack")).Template()
	raw, err := json.Marshal(template)
	if err != nil {
		t.Fatalf("failed to marshal template: %v", err)
	}

	var tmpl struct {
		Resources map[string]map[string]any
	}
	if err := json.Unmarshal(raw, &tmpl); err != nil {
		t.Fatalf("failed to unmarshal template: %v", err)
	}

	out := map[string]map[string]any{}
	for id, res := range tmpl.Resources {
		if res["Type"] == typ {
			out[id] = res
		}
	}
	return out
}

func properties(res map[string]any) map[string]any {
	props, _ := res["Properties"].(map[string]any)
	return props
}

func dependsOn(res map[string]any) []string {
	raw, _ := res["DependsOn"].([]any)
	out := make([]string, 0, len(raw))
	for _, d := range raw {
		if s, ok := d.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func mustPanic(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic, got none")
		}
	}()
	fn()
}

const flagsJSON = `{"version":"1","flags":{"beta":{"name":"Beta"}},"values":{"beta":{"enabled":true}}}`
