//nolint:paralleltest // jsii runtime doesn't support parallel tests
package bwcdkutil_test

import (
	"slices"
	"strings"
	"testing"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/jsii-runtime-go"
	"github.com/basewarphq/bwappcfg/bwcdk/bwcdkutil"
)

func validContext() map[string]any {
	return map[string]any{
		"myapp-qualifier":         "myapp",
		"myapp-primary-region":    "eu-central-1",
		"myapp-secondary-regions": []any{"eu-west-1"},
		"myapp-deployments":       []any{"Beta", "Prod"},
		"myapp-deployer-groups":   "myapp-deployers other",
	}
}

func TestNewConfig(t *testing.T) {
	defer jsii.Close()

	tests := []struct {
		name        string
		mutate      func(ctx map[string]any)
		wantErr     bool
		errContains []string
	}{
		{
			name:   "valid config",
			mutate: func(map[string]any) {},
		},
		{
			name: "no secondary regions",
			mutate: func(ctx map[string]any) {
				ctx["myapp-secondary-regions"] = []any{}
			},
		},
		{
			name: "missing qualifier",
			mutate: func(ctx map[string]any) {
				delete(ctx, "myapp-qualifier")
			},
			wantErr:     true,
			errContains: []string{"myapp-qualifier", "is not set"},
		},
		{
			name: "qualifier too long",
			mutate: func(ctx map[string]any) {
				ctx["myapp-qualifier"] = "thisqualifieristoolong"
			},
			wantErr:     true,
			errContains: []string{"Qualifier", "exceeds maximum"},
		},
		{
			name: "deployments not an array",
			mutate: func(ctx map[string]any) {
				ctx["myapp-deployments"] = "Prod"
			},
			wantErr:     true,
			errContains: []string{"must be an array"},
		},
		{
			name: "lower-case deployment",
			mutate: func(ctx map[string]any) {
				ctx["myapp-deployments"] = []any{"prod"}
			},
			wantErr:     true,
			errContains: []string{"upper-case"},
		},
		{
			name: "unknown secondary region",
			mutate: func(ctx map[string]any) {
				ctx["myapp-secondary-regions"] = []any{"mars-north-1"}
			},
			wantErr:     true,
			errContains: []string{"unknown region", "mars-north-1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := validContext()
			tt.mutate(ctx)
			app := awscdk.NewApp(&awscdk.AppProps{Context: &ctx})

			cfg, err := bwcdkutil.NewConfig(app, bwcdkutil.AppConfig{Prefix: "myapp-"})
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error but got nil")
				}
				for _, want := range tt.errContains {
					if !strings.Contains(err.Error(), want) {
						t.Errorf("error %q does not contain %q", err.Error(), want)
					}
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.Qualifier != "myapp" {
				t.Errorf("Qualifier = %q, want %q", cfg.Qualifier, "myapp")
			}
		})
	}
}

func TestConfig_AllowedDeployments(t *testing.T) {
	cfg := &bwcdkutil.Config{
		Deployments:           []string{"Beta", "Stag", "Prod"},
		DeployersGroup:        "deployers",
		RestrictedDeployments: []string{"Prod"},
	}

	if got := cfg.AllowedDeployments(); got != nil {
		t.Errorf("bootstrap mode: AllowedDeployments() = %v, want nil", got)
	}

	cfg.DeployerGroups = []string{"developers"}
	if got, want := cfg.AllowedDeployments(), []string{"Beta", "Stag"}; !slices.Equal(got, want) {
		t.Errorf("AllowedDeployments() = %v, want %v", got, want)
	}
	if len(cfg.Deployments) != 3 {
		t.Errorf("Deployments was modified: %v", cfg.Deployments)
	}

	cfg.DeployerGroups = []string{"developers", "deployers"}
	if got := cfg.AllowedDeployments(); !slices.Equal(got, cfg.Deployments) {
		t.Errorf("AllowedDeployments() = %v, want all deployments", got)
	}
}

func TestConfigFromScope_PanicsWithoutConfig(t *testing.T) {
	defer jsii.Close()

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic when config is missing")
		}
	}()

	app := awscdk.NewApp(nil)
	bwcdkutil.ConfigFromScope(app)
}
