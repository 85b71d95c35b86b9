package bwcdkappconfig

import (
	"github.com/aws/aws-cdk-go/awscdk/v2/awsevents"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsiam"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslambda"
	"github.com/aws/aws-cdk-go/awscdk/v2/awssns"
	"github.com/aws/aws-cdk-go/awscdk/v2/awssqs"
	"github.com/aws/jsii-runtime-go"
	"github.com/cockroachdb/errors"
)

// SourceType identifies the kind of resource an extension action targets.
type SourceType string

const (
	SourceTypeLambda SourceType = "lambda"
	SourceTypeSQS    SourceType = "sqs"
	SourceTypeSNS    SourceType = "sns"
	SourceTypeEvents SourceType = "events"
)

// EventDestination is where AppConfig sends extension events.
type EventDestination interface {
	// ExtensionURI is the ARN the action invokes.
	ExtensionURI() *string
	SourceType() SourceType
	// PolicyStatement is what an execution role needs to deliver to the destination.
	PolicyStatement() awsiam.PolicyStatement
}

type lambdaDestination struct{ fn awslambda.IFunction }

// LambdaDestination sends events to a Lambda function. AppConfig is granted
// permission to invoke the function when the extension is created.
func LambdaDestination(fn awslambda.IFunction) EventDestination {
	return &lambdaDestination{fn: fn}
}

func (d *lambdaDestination) ExtensionURI() *string  { return d.fn.FunctionArn() }
func (d *lambdaDestination) SourceType() SourceType { return SourceTypeLambda }
func (d *lambdaDestination) PolicyStatement() awsiam.PolicyStatement {
	return sendStatement("lambda:InvokeFunction", d.fn.FunctionArn())
}

type sqsDestination struct{ queue awssqs.IQueue }

// SqsDestination sends events to an SQS queue.
func SqsDestination(queue awssqs.IQueue) EventDestination {
	return &sqsDestination{queue: queue}
}

func (d *sqsDestination) ExtensionURI() *string  { return d.queue.QueueArn() }
func (d *sqsDestination) SourceType() SourceType { return SourceTypeSQS }
func (d *sqsDestination) PolicyStatement() awsiam.PolicyStatement {
	return sendStatement("sqs:SendMessage", d.queue.QueueArn())
}

type snsDestination struct{ topic awssns.ITopic }

// SnsDestination sends events to an SNS topic.
func SnsDestination(topic awssns.ITopic) EventDestination {
	return &snsDestination{topic: topic}
}

func (d *snsDestination) ExtensionURI() *string  { return d.topic.TopicArn() }
func (d *snsDestination) SourceType() SourceType { return SourceTypeSNS }
func (d *snsDestination) PolicyStatement() awsiam.PolicyStatement {
	return sendStatement("sns:Publish", d.topic.TopicArn())
}

type eventBridgeDestination struct{ bus awsevents.IEventBus }

// EventBridgeDestination sends events to an EventBridge bus. AppConfig only delivers
// to the default bus of the account.
func EventBridgeDestination(bus awsevents.IEventBus) EventDestination {
	return &eventBridgeDestination{bus: bus}
}

func (d *eventBridgeDestination) ExtensionURI() *string  { return d.bus.EventBusArn() }
func (d *eventBridgeDestination) SourceType() SourceType { return SourceTypeEvents }
func (d *eventBridgeDestination) PolicyStatement() awsiam.PolicyStatement {
	return sendStatement("events:PutEvents", d.bus.EventBusArn())
}

func sendStatement(action string, resource *string) awsiam.PolicyStatement {
	return awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
		Effect:    awsiam.Effect_ALLOW,
		Actions:   jsii.Strings(action),
		Resources: &[]*string{resource},
	})
}

// checkDestination verifies that dest can serve the action point.
func checkDestination(point ActionPoint, dest EventDestination) error {
	if dest == nil {
		return errors.Newf("action point %s has no destination", point)
	}
	if point.Synchronous() && dest.SourceType() != SourceTypeLambda {
		return errors.Newf("action point %s only supports Lambda destinations, got %s",
			point, dest.SourceType())
	}
	if eb, ok := dest.(*eventBridgeDestination); ok {
		if name := literal(eb.bus.EventBusName()); name != "" && name != "default" {
			return errors.Newf("EventBridge destinations must use the default event bus, got %q", name)
		}
	}
	return nil
}
