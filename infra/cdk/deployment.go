package cdk

import (
	"time"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscloudwatch"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsevents"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsiam"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsssm"
	"github.com/aws/jsii-runtime-go"
	"github.com/basewarphq/bwappcfg/bwcdk/bwcdkappconfig"
	"github.com/basewarphq/bwappcfg/bwcdk/bwcdkdynamo"
	"github.com/basewarphq/bwappcfg/bwcdk/bwcdkeventlambda"
	"github.com/basewarphq/bwappcfg/bwcdk/bwcdkparams"
	"github.com/basewarphq/bwappcfg/bwcdk/bwcdkutil"
)

// RolloutWatchEntry is the rollout watcher command, relative to infra/cdk/cdk.
var RolloutWatchEntry = "../../../backend/cmd/rolloutwatch"

const featureFlags = `{
  "version": "1",
  "flags": {
    "newCheckout": {"name": "New checkout"},
    "searchBoost": {
      "name": "Search boost",
      "attributes": {"weight": {"constraints": {"type": "number", "minimum": 0, "maximum": 10}}}
    }
  },
  "values": {
    "newCheckout": {"enabled": false},
    "searchBoost": {"enabled": true, "weight": 2}
  }
}`

const defaultLimits = `{"maxItems": 50, "requestsPerMinute": 600}`

// environmentOrder is the order deployments roll through the environments.
var environmentOrder = []string{"Beta", "Prod"}

func NewDeployment(stack awscdk.Stack, shared *Shared, deploymentIdent string) {
	app := bwcdkappconfig.NewApplication(stack, "Storefront", bwcdkappconfig.ApplicationProps{
		Description: jsii.String("Storefront runtime configuration (" + deploymentIdent + ")"),
	})

	beta := app.AddEnvironment("Beta", bwcdkappconfig.EnvironmentOptions{
		Description: jsii.String("Receives every configuration change first"),
	})
	prod := app.AddEnvironment("Prod", bwcdkappconfig.EnvironmentOptions{
		Description: jsii.String("Serves customers; rolls back when the error alarm fires"),
		Monitors: []bwcdkappconfig.Monitor{
			bwcdkappconfig.MonitorFromCloudWatchAlarm(newErrorAlarm(stack), nil),
		},
		DeletionProtectionCheck: bwcdkappconfig.DeletionProtectionApply,
	})

	strategy := bwcdkappconfig.NewDeploymentStrategy(stack, "Steady", bwcdkappconfig.DeploymentStrategyProps{
		Rollout: bwcdkappconfig.RolloutLinear(25, 8*time.Minute, 4*time.Minute),
	})

	flags := app.AddHostedConfiguration("Flags", bwcdkappconfig.HostedConfigurationOptions{
		ConfigurationOptions: bwcdkappconfig.ConfigurationOptions{
			Type:               bwcdkappconfig.ConfigurationTypeFeatureFlags,
			DeploymentStrategy: strategy,
			DeployTo:           []bwcdkappconfig.Environment{beta, prod},
		},
		Content: bwcdkappconfig.ContentFromInlineJSON(featureFlags),
	})

	// Versions of the parameter are rolled out with "bwappcfg deploy".
	limits := awsssm.NewStringParameter(stack, jsii.String("LimitsParam"), &awsssm.StringParameterProps{
		ParameterName: bwcdkparams.ParameterName(stack, "storefront",
			bwcdkparams.AppConfigParamName(stack, "limits")),
		StringValue: jsii.String(defaultLimits),
	})
	limitsProfile := app.AddSourcedConfiguration("Limits", bwcdkappconfig.SourcedConfigurationOptions{
		ConfigurationOptions: bwcdkappconfig.ConfigurationOptions{
			DeploymentStrategy: strategy,
			Validators: []bwcdkappconfig.Validator{
				bwcdkappconfig.JSONSchemaValidator(limitsSchema),
			},
		},
		Location: bwcdkappconfig.SourceFromParameter(limits, nil),
	})

	bus := awsevents.EventBus_FromEventBusName(stack, jsii.String("DefaultBus"), jsii.String("default"))
	app.AddExtension(bwcdkappconfig.NewExtension(stack, "RolloutEvents", bwcdkappconfig.ExtensionProps{
		Description: jsii.String("Publishes deployment progress to the default event bus"),
		Actions: []bwcdkappconfig.Action{{
			ActionPoints: bwcdkeventlambda.DefaultActionPoints,
			Destination:  bwcdkappconfig.EventBridgeDestination(bus),
		}},
	}))

	history := bwcdkdynamo.LookupDynamo(stack, nil)
	watch := bwcdkeventlambda.New(stack, bwcdkeventlambda.Props{
		Entry: jsii.String(RolloutWatchEntry),
		Environment: &map[string]*string{
			"HISTORY_TABLE_NAME":  history.TableName(),
			"ARCHIVE_BUCKET_NAME": shared.Archive.BucketName(),
			"ALERT_QUEUE_URL":     shared.AlertQueue.QueueUrl(),
		},
		ApplicationIDs: []*string{app.ApplicationID()},
	})

	fn := watch.Function()
	history.GrantReadWriteData(fn)
	shared.Archive.GrantPut(fn, jsii.String("*"))
	shared.AlertQueue.GrantSendMessages(fn)
	fn.AddToRolePolicy(awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
		Actions: jsii.Strings(
			"appconfig:StartConfigurationSession",
			"appconfig:GetLatestConfiguration",
		),
		Resources: &[]*string{jsii.Sprintf("%s/*", *app.ApplicationArn())},
	}))

	bwcdkparams.StoreAppConfig(stack, bwcdkparams.AppConfigIDs{
		ApplicationID: app.ApplicationID(),
		ProfileIDs: map[string]*string{
			"Flags":  flags.ConfigurationProfileID(),
			"Limits": limitsProfile.ConfigurationProfileID(),
		},
		EnvironmentIDs: map[string]*string{
			"Beta": beta.EnvironmentID(),
			"Prod": prod.EnvironmentID(),
		},
	}, environmentOrder...)
}

const limitsSchema = `{
  "$schema": "http://json-schema.org/draft-04/schema#",
  "type": "object",
  "required": ["maxItems"],
  "properties": {
    "maxItems": {"type": "integer", "minimum": 1},
    "requestsPerMinute": {"type": "integer", "minimum": 1}
  }
}`

// newErrorAlarm watches the storefront's configuration error metric.
func newErrorAlarm(stack awscdk.Stack) awscloudwatch.IAlarm {
	metric := awscloudwatch.NewMetric(&awscloudwatch.MetricProps{
		Namespace:  jsii.String(bwcdkutil.ResourceName(stack, "storefront", bwcdkutil.CasingKebab)),
		MetricName: jsii.String("ConfigErrors"),
		Statistic:  jsii.String("Sum"),
		Period:     awscdk.Duration_Minutes(jsii.Number(1)),
	})
	return awscloudwatch.NewAlarm(stack, jsii.String("ConfigErrorAlarm"), &awscloudwatch.AlarmProps{
		Metric:             metric,
		Threshold:          jsii.Number(5),
		EvaluationPeriods:  jsii.Number(2),
		ComparisonOperator: awscloudwatch.ComparisonOperator_GREATER_THAN_OR_EQUAL_TO_THRESHOLD,
		TreatMissingData:   awscloudwatch.TreatMissingData_NOT_BREACHING,
		AlarmDescription:   jsii.String("Storefront fails to apply its configuration"),
	})
}
