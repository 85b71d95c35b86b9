// Package rollout processes the events AppConfig extensions publish to
// EventBridge while a configuration is deployed. It keeps a per-environment
// deployment history, tracks the deployment in flight, archives what was
// deployed and raises an alert when a deployment rolls back.
package rollout

import (
	"encoding/json"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/cockroachdb/errors"
	"github.com/iancoleman/strcase"
)

// Source is the EventBridge source of AppConfig extension events.
const Source = "aws.appconfig"

// ErrInvalidEvent marks events that can never be processed. Retrying them is pointless.
var ErrInvalidEvent = errors.New("invalid rollout event")

// Stage is the deployment action point an event was emitted at.
type Stage string

const (
	StageStart      Stage = "ON_DEPLOYMENT_START"
	StageStep       Stage = "ON_DEPLOYMENT_STEP"
	StageBaking     Stage = "ON_DEPLOYMENT_BAKING"
	StageComplete   Stage = "ON_DEPLOYMENT_COMPLETE"
	StageRolledBack Stage = "ON_DEPLOYMENT_ROLLED_BACK"
)

// ParseStage normalizes "OnDeploymentComplete", "On Deployment Complete" and
// "ON_DEPLOYMENT_COMPLETE" to the same stage.
func ParseStage(s string) (Stage, bool) {
	st := Stage(strcase.ToScreamingSnake(strings.TrimSpace(s)))
	switch st {
	case StageStart, StageStep, StageBaking, StageComplete, StageRolledBack:
		return st, true
	default:
		return "", false
	}
}

// Terminal reports whether the deployment is over once this stage is reached.
func (s Stage) Terminal() bool {
	return s == StageComplete || s == StageRolledBack
}

// Ref identifies an AppConfig resource in an extension payload.
type Ref struct {
	ID   string `json:"Id"`
	Name string `json:"Name,omitempty"`
}

// Event is the extension payload AppConfig places in the event detail.
type Event struct {
	InvocationID         string            `json:"InvocationId"`
	Parameters           map[string]string `json:"Parameters,omitempty"`
	Type                 string            `json:"Type"`
	Application          Ref               `json:"Application"`
	Environment          Ref               `json:"Environment"`
	ConfigurationProfile Ref               `json:"ConfigurationProfile"`
	DeploymentNumber     int               `json:"DeploymentNumber"`
	Description          string            `json:"Description,omitempty"`
	ConfigurationVersion string            `json:"ConfigurationVersion,omitempty"`

	// Stage is derived from Type, falling back to the EventBridge detail type.
	Stage Stage `json:"-"`
}

// DecodeEvent extracts the extension payload from an EventBridge event.
func DecodeEvent(ev events.CloudWatchEvent) (Event, error) {
	var out Event
	if ev.Source != Source {
		return out, errors.Mark(errors.Newf("unexpected event source %q", ev.Source), ErrInvalidEvent)
	}
	if err := json.Unmarshal(ev.Detail, &out); err != nil {
		return out, errors.Mark(errors.Wrap(err, "failed to decode event detail"), ErrInvalidEvent)
	}

	stage, ok := ParseStage(out.Type)
	if !ok {
		stage, ok = ParseStage(ev.DetailType)
	}
	if !ok {
		return out, errors.Mark(errors.Newf("unsupported action point %q (%s)", out.Type, ev.DetailType), ErrInvalidEvent)
	}
	out.Stage = stage

	switch {
	case out.Application.ID == "":
		return out, errors.Mark(errors.New("event has no application id"), ErrInvalidEvent)
	case out.Environment.ID == "":
		return out, errors.Mark(errors.New("event has no environment id"), ErrInvalidEvent)
	case out.DeploymentNumber <= 0:
		return out, errors.Mark(errors.Newf("invalid deployment number %d", out.DeploymentNumber), ErrInvalidEvent)
	}
	return out, nil
}
