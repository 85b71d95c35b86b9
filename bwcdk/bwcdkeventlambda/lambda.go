// Package bwcdkeventlambda provides a Go Lambda construct that is triggered by
// the EventBridge events AppConfig extensions emit during deployments.
//
// The construct bundles the function reproducibly for arm64, sends JSON logs
// to a managed log group, can attach the AppConfig Lambda extension layer and
// creates the EventBridge rule that targets the function.
package bwcdkeventlambda

import (
	"maps"
	"path/filepath"
	"strings"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsevents"
	"github.com/aws/aws-cdk-go/awscdk/v2/awseventstargets"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslambda"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslogs"
	"github.com/aws/aws-cdk-go/awscdklambdagoalpha/v2"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
	"github.com/basewarphq/bwappcfg/bwcdk/bwcdkappconfig"
	"github.com/basewarphq/bwappcfg/bwcdk/bwcdkloggroup"
	"github.com/basewarphq/bwappcfg/bwcdk/bwcdkutil"
	"github.com/cockroachdb/errors"
	"github.com/iancoleman/strcase"
)

// EventSource is the EventBridge source of AppConfig extension events.
const EventSource = "aws.appconfig"

// DefaultActionPoints are the asynchronous deployment action points the rule
// matches when Props.ActionPoints is empty.
var DefaultActionPoints = []bwcdkappconfig.ActionPoint{
	bwcdkappconfig.ActionPointOnDeploymentStart,
	bwcdkappconfig.ActionPointOnDeploymentStep,
	bwcdkappconfig.ActionPointOnDeploymentBaking,
	bwcdkappconfig.ActionPointOnDeploymentComplete,
	bwcdkappconfig.ActionPointOnDeploymentRolledBack,
}

// Lambda provides access to an EventBridge-triggered Go function.
type Lambda interface {
	// Function returns the underlying Lambda function.
	Function() awscdklambdagoalpha.GoFunction
	// LogGroup returns the CloudWatch Log Group for the function.
	LogGroup() awslogs.ILogGroup
	// Rule returns the EventBridge rule that invokes the function.
	Rule() awsevents.Rule
	// Name returns the construct name derived from the entry path.
	Name() string
}

// Props configures the Lambda construct.
type Props struct {
	// Entry is the path to the Go command directory, matching
	// "<component>/cmd/<command>" (e.g., "backend/cmd/rolloutwatch"). Required.
	Entry *string
	// Environment variables to pass to the function.
	Environment *map[string]*string
	// ActionPoints selects the detail types the rule matches. Defaults to
	// DefaultActionPoints.
	ActionPoints []bwcdkappconfig.ActionPoint
	// EventBus the rule listens on. Defaults to the account's default bus.
	EventBus awsevents.IEventBus
	// AppConfigLayer attaches the AppConfig Lambda extension layer so the
	// function can read configuration from localhost:2772.
	AppConfigLayer bool
	// AppConfigLayerVersion overrides bwcdkappconfig.DefaultLayerVersion.
	AppConfigLayerVersion int
	// RetryAttempts bounds EventBridge retries of failed invocations. Defaults to 2.
	RetryAttempts *float64
	// ApplicationIDs restricts the rule to events of these applications. All
	// applications in the account match when empty.
	ApplicationIDs []*string
}

// ParseEntry extracts component and command from entry path.
// Validates pattern "<component>/cmd/<command>".
func ParseEntry(entry string) (component, command string, err error) {
	parts := strings.Split(filepath.ToSlash(entry), "/")

	for i := len(parts) - 2; i >= 1; i-- {
		if parts[i] == "cmd" {
			component = parts[i-1]
			command = parts[i+1]
			if component == "" || command == "" {
				break
			}
			return component, command, nil
		}
	}

	return "", "", errors.Newf("entry must match pattern <component>/cmd/<command>, got %q", entry)
}

// DetailTypes maps action points to EventBridge detail types, rejecting
// synchronous points which cannot be delivered through EventBridge.
func DetailTypes(points []bwcdkappconfig.ActionPoint) ([]*string, error) {
	if len(points) == 0 {
		points = DefaultActionPoints
	}
	out := make([]*string, 0, len(points))
	for _, ap := range points {
		if !ap.Valid() {
			return nil, errors.Newf("unknown action point %q", ap)
		}
		if ap.Synchronous() {
			return nil, errors.Newf("action point %s is synchronous and cannot be delivered through EventBridge", ap)
		}
		out = append(out, jsii.String(ap.DetailType()))
	}
	return out, nil
}

type lambda struct {
	function awscdklambdagoalpha.GoFunction
	logGroup awslogs.ILogGroup
	rule     awsevents.Rule
	name     string
}

// New creates the function and its rule. Invalid props panic.
func New(scope constructs.Construct, props Props) Lambda {
	if props.Entry == nil {
		panic(errors.New("bwcdkeventlambda: Entry is required"))
	}
	component, command, err := ParseEntry(*props.Entry)
	if err != nil {
		panic(err)
	}
	detailTypes, err := DetailTypes(props.ActionPoints)
	if err != nil {
		panic(err)
	}

	scopeName := strcase.ToCamel(component) + strcase.ToCamel(command)
	scope = constructs.NewConstruct(scope, jsii.String(scopeName))
	con := &lambda{name: scopeName}

	region := *awscdk.Stack_Of(scope).Region()
	functionName := bwcdkutil.ResourceName(scope, scopeName, bwcdkutil.CasingKebab)

	env := make(map[string]*string)
	if props.Environment != nil {
		maps.Copy(env, *props.Environment)
	}
	env["BW_SERVICE_NAME"] = jsii.String(functionName)
	env["BW_OTEL_EXPORTER"] = jsii.String("xrayudp")
	env["BW_PRIMARY_REGION"] = jsii.String(bwcdkutil.PrimaryRegion(scope))

	var layers []awslambda.ILayerVersion
	if props.AppConfigLayer {
		arn, err := bwcdkappconfig.LambdaLayerArn(region, bwcdkappconfig.LayerArm64, props.AppConfigLayerVersion)
		if err != nil {
			panic(err)
		}
		layers = append(layers, awslambda.LayerVersion_FromLayerVersionArn(scope,
			jsii.String("AppConfigLayer"), jsii.String(arn)))
	}

	con.logGroup = bwcdkloggroup.New(scope, scopeName+"Logs", bwcdkloggroup.Props{
		Purpose: jsii.String("Lambda function " + scopeName),
	}).LogGroup()

	con.function = awscdklambdagoalpha.NewGoFunction(scope, jsii.String("Function"),
		&awscdklambdagoalpha.GoFunctionProps{
			FunctionName:  jsii.String(functionName),
			Entry:         props.Entry,
			Architecture:  awslambda.Architecture_ARM_64(),
			Runtime:       awslambda.Runtime_PROVIDED_AL2023(),
			MemorySize:    jsii.Number(128),
			Timeout:       awscdk.Duration_Seconds(jsii.Number(30)),
			Environment:   &env,
			Bundling:      bwcdkutil.ReproducibleGoBundling(),
			Tracing:       awslambda.Tracing_ACTIVE,
			Layers:        &layers,
			LogGroup:      con.logGroup,
			LoggingFormat: awslambda.LoggingFormat_JSON,
		})

	retries := props.RetryAttempts
	if retries == nil {
		retries = jsii.Number(2)
	}

	con.rule = awsevents.NewRule(scope, jsii.String("Rule"), &awsevents.RuleProps{
		EventBus:     props.EventBus,
		Description:  jsii.String("AppConfig deployment events for " + functionName),
		EventPattern: eventPattern(detailTypes, props.ApplicationIDs),
		Targets: &[]awsevents.IRuleTarget{
			awseventstargets.NewLambdaFunction(con.function, &awseventstargets.LambdaFunctionProps{
				RetryAttempts: retries,
			}),
		},
	})

	return con
}

func eventPattern(detailTypes []*string, appIDs []*string) *awsevents.EventPattern {
	pattern := &awsevents.EventPattern{
		Source:     jsii.Strings(EventSource),
		DetailType: &detailTypes,
	}
	if len(appIDs) > 0 {
		pattern.Detail = &map[string]any{
			"Application": map[string]any{"Id": appIDs},
		}
	}
	return pattern
}

func (l *lambda) Function() awscdklambdagoalpha.GoFunction {
	return l.function
}

func (l *lambda) LogGroup() awslogs.ILogGroup {
	return l.logGroup
}

func (l *lambda) Rule() awsevents.Rule {
	return l.rule
}

func (l *lambda) Name() string {
	return l.name
}
