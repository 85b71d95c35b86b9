// Package bwcdkloggroup provides a CloudWatch Log Group construct with a
// retention default, a destroy removal policy and a stack output carrying the
// group name, so logs of any function can be found with a single CLI query.
package bwcdkloggroup

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslogs"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
	"github.com/cockroachdb/errors"
)

// DefaultRetention applies when Props.Retention is empty.
const DefaultRetention = awslogs.RetentionDays_ONE_WEEK

// LogGroup provides access to a CloudWatch Log Group with standardized configuration.
type LogGroup interface {
	// LogGroup returns the underlying CDK log group.
	LogGroup() awslogs.ILogGroup
	// OutputKey returns the key of the stack output holding the group name.
	OutputKey() string
}

// Props configures the LogGroup construct.
type Props struct {
	// Purpose describes what this log group is for (e.g., "rollout events").
	// Used in the CfnOutput description. Required.
	Purpose *string
	// Retention overrides DefaultRetention.
	Retention awslogs.RetentionDays
}

type logGroup struct {
	lg        awslogs.ILogGroup
	outputKey string
}

// New creates a LogGroup construct. The output key is "{id}LogGroup" and the
// output description "CloudWatch Log Group for {Purpose}".
func New(scope constructs.Construct, id string, props Props) LogGroup {
	if props.Purpose == nil || *props.Purpose == "" {
		panic(errors.Newf("bwcdkloggroup: Purpose is required for %q", id))
	}

	scope = constructs.NewConstruct(scope, jsii.String(id))
	con := &logGroup{outputKey: id + "LogGroup"}

	retention := props.Retention
	if retention == "" {
		retention = DefaultRetention
	}

	con.lg = awslogs.NewLogGroup(scope, jsii.String("LogGroup"), &awslogs.LogGroupProps{
		Retention:     retention,
		RemovalPolicy: awscdk.RemovalPolicy_DESTROY,
	})

	awscdk.NewCfnOutput(scope, jsii.String("LogGroupOutput"), &awscdk.CfnOutputProps{
		Key:         jsii.String(con.outputKey),
		Description: jsii.String("CloudWatch Log Group for " + *props.Purpose),
		Value:       con.lg.LogGroupName(),
	})

	return con
}

func (l *logGroup) LogGroup() awslogs.ILogGroup {
	return l.lg
}

func (l *logGroup) OutputKey() string {
	return l.outputKey
}
