//nolint:paralleltest // jsii runtime doesn't support parallel tests
package bwcdkutil_test

import (
	"testing"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/jsii-runtime-go"
	"github.com/basewarphq/bwappcfg/bwcdk/bwcdkutil"
)

func TestResourceName(t *testing.T) {
	defer jsii.Close()

	tests := []struct {
		name       string
		deployment string
		label      string
		casing     bwcdkutil.Casing
		want       string
	}{
		{"camel", "Prod", "FeatureFlags", bwcdkutil.CasingCamel, "TestqualProdFeatureFlags"},
		{"lower camel", "Prod", "FeatureFlags", bwcdkutil.CasingLowerCamel, "testqualProdFeatureFlags"},
		{"snake", "Prod", "FeatureFlags", bwcdkutil.CasingSnake, "testqual_prod_feature_flags"},
		{"screaming snake", "Prod", "FeatureFlags", bwcdkutil.CasingScreamingSnake, "TESTQUAL_PROD_FEATURE_FLAGS"},
		{"kebab", "Prod", "FeatureFlags", bwcdkutil.CasingKebab, "testqual-prod-feature-flags"},
		{"kebab label to camel", "Beta", "rollout-history", bwcdkutil.CasingCamel, "TestqualBetaRolloutHistory"},
		{"shared stack", "", "alerts", bwcdkutil.CasingKebab, "testqual-alerts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := awscdk.NewApp(nil)
			bwcdkutil.StoreConfig(app, &bwcdkutil.Config{
				Qualifier:     "testqual",
				PrimaryRegion: "eu-central-1",
				Deployments:   []string{"Beta", "Prod"},
			})
			stack := awscdk.NewStack(app, jsii.String("TestStack"), nil)
			if tt.deployment != "" {
				bwcdkutil.StoreDeploymentIdent(stack, tt.deployment)
			}

			if got := bwcdkutil.ResourceName(stack, tt.label, tt.casing); got != tt.want {
				t.Errorf("ResourceName() = %q, want %q", got, tt.want)
			}
		})
	}
}
