package appcfgdeploy

import (
	"context"
	"os"
	"strings"

	"github.com/basewarphq/bwappcfg/bwcdk/bwcdkutil"
	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
)

// Plan is a rollout plan: deployments to run per environment, environments
// in the order listed.
//
//	application: abc1234
//	environments:
//	  - id: env1234
//	    deployments:
//	      - profile: prof123
//	        version: "3"
//	        strategy: AppConfig.AllAtOnce
type Plan struct {
	Application  string            `yaml:"application" validate:"required"`
	Region       string            `yaml:"region"`
	Environments []PlanEnvironment `yaml:"environments" validate:"required,min=1,dive"`
}

// PlanEnvironment lists the deployments for one environment.
type PlanEnvironment struct {
	ID          string           `yaml:"id" validate:"required"`
	Deployments []PlanDeployment `yaml:"deployments" validate:"required,min=1,dive"`
}

// PlanDeployment is one requested deployment.
type PlanDeployment struct {
	Profile     string            `yaml:"profile" validate:"required"`
	Version     string            `yaml:"version" validate:"required"`
	Strategy    string            `yaml:"strategy" validate:"required"`
	Description string            `yaml:"description"`
	KMSKey      string            `yaml:"kmsKey"`
	Parameters  map[string]string `yaml:"parameters"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ParsePlan decodes and validates a YAML plan.
func ParsePlan(data []byte) (*Plan, error) {
	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, errors.Wrap(err, "failed to decode plan")
	}
	if err := validate.Struct(&p); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return nil, errors.Wrap(err, "plan validation failed")
		}
		msgs := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			msgs = append(msgs, bwcdkutil.FormatFieldError(fe))
		}
		return nil, errors.Newf("plan validation errors:\n  - %s", strings.Join(msgs, "\n  - "))
	}

	seen := map[string]bool{}
	for _, env := range p.Environments {
		if seen[env.ID] {
			return nil, errors.Newf("environment %s is listed more than once", env.ID)
		}
		seen[env.ID] = true
	}
	return &p, nil
}

// ReadPlan reads and parses a plan file.
func ReadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read plan %s", path)
	}
	return ParsePlan(data)
}

// Queues builds one queue per environment, loaded with its deployments.
func (p *Plan) Queues(api API, opts ...Option) []*Queue {
	queues := make([]*Queue, 0, len(p.Environments))
	for _, env := range p.Environments {
		q := NewQueue(api, p.Application, env.ID, opts...)
		for _, d := range env.Deployments {
			q.Enqueue(Request{
				ConfigurationProfileID: d.Profile,
				ConfigurationVersion:   d.Version,
				DeploymentStrategyID:   d.Strategy,
				Description:            d.Description,
				KMSKeyIdentifier:       d.KMSKey,
				DynamicParameters:      d.Parameters,
			})
		}
		queues = append(queues, q)
	}
	return queues
}

// Run runs the queues of every environment in plan order and stops at the
// first failure.
func (p *Plan) Run(ctx context.Context, api API, opts ...Option) ([]Result, error) {
	var all []Result
	for _, q := range p.Queues(api, opts...) {
		res, err := q.Run(ctx)
		all = append(all, res...)
		if err != nil {
			return all, errors.Wrapf(err, "environment %s", q.EnvironmentID())
		}
	}
	return all, nil
}
