package appcfgdeploy_test

import (
	"context"
	"strings"
	"testing"

	"github.com/basewarphq/bwappcfg/appcfgdeploy"
)

const planYAML = `
application: app1
region: eu-central-1
environments:
  - id: beta
    deployments:
      - profile: flags
        version: "1"
        strategy: AppConfig.AllAtOnce
  - id: prod
    deployments:
      - profile: flags
        version: "1"
        strategy: AppConfig.Canary10Percent20Minutes
        description: promote flags
        parameters:
          ticket: OPS-1
`

func TestParsePlan(t *testing.T) {
	t.Parallel()

	p, err := appcfgdeploy.ParsePlan([]byte(planYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Application != "app1" || len(p.Environments) != 2 {
		t.Fatalf("unexpected plan: %+v", p)
	}
	prod := p.Environments[1].Deployments[0]
	if prod.Parameters["ticket"] != "OPS-1" || prod.Description != "promote flags" {
		t.Errorf("unexpected prod deployment: %+v", prod)
	}
}

func TestParsePlan_Invalid(t *testing.T) {
	t.Parallel()

	for name, tc := range map[string]struct {
		yaml string
		want string
	}{
		"missing application": {
			yaml: "environments:\n  - id: beta\n    deployments:\n      - {profile: p, version: '1', strategy: s}\n",
			want: "Application is required",
		},
		"missing version": {
			yaml: "application: a\nenvironments:\n  - id: beta\n    deployments:\n      - {profile: p, strategy: s}\n",
			want: "Version is required",
		},
		"duplicate environment": {
			yaml: "application: a\nenvironments:\n" +
				"  - id: beta\n    deployments:\n      - {profile: p, version: '1', strategy: s}\n" +
				"  - id: beta\n    deployments:\n      - {profile: p, version: '2', strategy: s}\n",
			want: "listed more than once",
		},
		"not yaml": {
			yaml: "application: [",
			want: "failed to decode plan",
		},
	} {
		_, err := appcfgdeploy.ParsePlan([]byte(tc.yaml))
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Errorf("%s: expected error containing %q, got %v", name, tc.want, err)
		}
	}
}

func TestPlan_RunIsPerEnvironment(t *testing.T) {
	t.Parallel()

	p, err := appcfgdeploy.ParsePlan([]byte(planYAML))
	if err != nil {
		t.Fatal(err)
	}

	api := newFake()
	results, err := p.Run(context.Background(), api, fastPoll())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[1].Request.DeploymentStrategyID != "AppConfig.Canary10Percent20Minutes" {
		t.Errorf("unexpected second request: %+v", results[1].Request)
	}
}
