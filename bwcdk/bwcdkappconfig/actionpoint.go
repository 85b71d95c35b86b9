package bwcdkappconfig

import (
	"slices"
	"strings"

	"github.com/iancoleman/strcase"
)

// ActionPoint is a point in the AppConfig workflow at which an extension action runs.
type ActionPoint string

const (
	ActionPointPreCreateHostedConfigurationVersion ActionPoint = "PRE_CREATE_HOSTED_CONFIGURATION_VERSION"
	ActionPointPreStartDeployment                  ActionPoint = "PRE_START_DEPLOYMENT"
	ActionPointOnDeploymentStart                   ActionPoint = "ON_DEPLOYMENT_START"
	ActionPointOnDeploymentStep                    ActionPoint = "ON_DEPLOYMENT_STEP"
	ActionPointOnDeploymentBaking                  ActionPoint = "ON_DEPLOYMENT_BAKING"
	ActionPointOnDeploymentComplete                ActionPoint = "ON_DEPLOYMENT_COMPLETE"
	ActionPointOnDeploymentRolledBack              ActionPoint = "ON_DEPLOYMENT_ROLLED_BACK"
	ActionPointAtDeploymentTick                    ActionPoint = "AT_DEPLOYMENT_TICK"
)

// ActionPoints returns every action point in workflow order.
func ActionPoints() []ActionPoint {
	return []ActionPoint{
		ActionPointPreCreateHostedConfigurationVersion,
		ActionPointPreStartDeployment,
		ActionPointOnDeploymentStart,
		ActionPointOnDeploymentStep,
		ActionPointOnDeploymentBaking,
		ActionPointOnDeploymentComplete,
		ActionPointOnDeploymentRolledBack,
		ActionPointAtDeploymentTick,
	}
}

// ParseActionPoint normalizes any spelling of an action point ("OnDeploymentComplete",
// "On Deployment Complete", "on_deployment_complete") and reports whether it is known.
func ParseActionPoint(s string) (ActionPoint, bool) {
	ap := ActionPoint(strcase.ToScreamingSnake(strings.TrimSpace(s)))
	return ap, ap.Valid()
}

// Valid reports whether ap is a known action point.
func (ap ActionPoint) Valid() bool {
	return slices.Contains(ActionPoints(), ap)
}

// Synchronous reports whether AppConfig waits for the action before continuing.
// Only Lambda destinations can serve synchronous action points.
func (ap ActionPoint) Synchronous() bool {
	switch ap {
	case ActionPointPreCreateHostedConfigurationVersion,
		ActionPointPreStartDeployment,
		ActionPointAtDeploymentTick:
		return true
	default:
		return false
	}
}

// DetailType is the EventBridge detail-type AppConfig uses for the action point,
// e.g. "On Deployment Complete".
func (ap ActionPoint) DetailType() string {
	words := strings.Split(strings.ToLower(string(ap)), "_")
	for i, w := range words {
		words[i] = strcase.ToCamel(w)
	}
	return strings.Join(words, " ")
}

func (ap ActionPoint) camel() string {
	return strcase.ToCamel(strings.ToLower(string(ap)))
}
