//nolint:paralleltest // jsii runtime doesn't support parallel tests
package cdk_test

import (
	"testing"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/assertions"
	"github.com/aws/jsii-runtime-go"
	"github.com/basewarphq/bwappcfg/bwcdk/bwcdkutil"
	"github.com/basewarphq/bwappcfg/infra/cdk"
)

func init() {
	cdk.RolloutWatchEntry = "../../backend/cmd/rolloutwatch"
}

func newApp() (awscdk.App, *bwcdkutil.Config) {
	app := awscdk.NewApp(nil)
	cfg := &bwcdkutil.Config{
		Prefix:           "bwappcfg-",
		Qualifier:        "bwappcfg",
		PrimaryRegion:    "eu-central-1",
		SecondaryRegions: []string{"eu-west-1"},
		Deployments:      []string{"Dev"},
	}
	bwcdkutil.StoreConfig(app, cfg)
	return app, cfg
}

func TestNewShared_Primary(t *testing.T) {
	defer jsii.Close()

	app, cfg := newApp()
	stack := bwcdkutil.NewStackFromConfig(app, cfg, cfg.PrimaryRegion)
	cdk.NewShared(stack)

	template := assertions.Template_FromStack(stack, nil)
	template.ResourceCountIs(jsii.String("AWS::DynamoDB::GlobalTable"), jsii.Number(1))
	template.ResourceCountIs(jsii.String("AWS::S3::Bucket"), jsii.Number(1))
	template.HasResourceProperties(jsii.String("AWS::SQS::Queue"), map[string]any{
		"QueueName": "bwappcfg-alerts.fifo",
		"FifoQueue": true,
	})
	template.HasResourceProperties(jsii.String("AWS::SSM::Parameter"), map[string]any{
		"Name": "/bwappcfg/alerts/queue-url",
	})
}

func TestNewShared_Secondary(t *testing.T) {
	defer jsii.Close()

	app, cfg := newApp()
	stack := bwcdkutil.NewStackFromConfig(app, cfg, "eu-west-1")
	cdk.NewShared(stack)

	template := assertions.Template_FromStack(stack, nil)
	template.ResourceCountIs(jsii.String("AWS::DynamoDB::GlobalTable"), jsii.Number(0))
	template.ResourceCountIs(jsii.String("AWS::SQS::Queue"), jsii.Number(0))
	// Table name and queue URL are both read from the primary region.
	template.ResourceCountIs(jsii.String("Custom::AWS"), jsii.Number(2))
	template.HasResourceProperties(jsii.String("AWS::SSM::Parameter"), map[string]any{
		"Name": "/bwappcfg/dynamo/history/table-name",
	})
}

func TestNewDeployment(t *testing.T) {
	defer jsii.Close()

	app, cfg := newApp()
	sharedStack := bwcdkutil.NewStackFromConfig(app, cfg, cfg.PrimaryRegion)
	shared := cdk.NewShared(sharedStack)
	stack := bwcdkutil.NewStackFromConfig(app, cfg, cfg.PrimaryRegion, "Dev")
	cdk.NewDeployment(stack, shared, "Dev")

	template := assertions.Template_FromStack(stack, nil)
	template.HasResourceProperties(jsii.String("AWS::AppConfig::Application"), map[string]any{
		"Name": "bwappcfg-dev-storefront",
	})
	template.ResourceCountIs(jsii.String("AWS::AppConfig::Environment"), jsii.Number(2))
	template.HasResourceProperties(jsii.String("AWS::AppConfig::Environment"), map[string]any{
		"Name": "bwappcfg-dev-prod",
		"Monitors": assertions.Match_ArrayWith(&[]any{
			assertions.Match_ObjectLike(&map[string]any{
				"AlarmArn": assertions.Match_AnyValue(),
			}),
		}),
	})
	template.ResourceCountIs(jsii.String("AWS::AppConfig::ConfigurationProfile"), jsii.Number(2))
	template.HasResourceProperties(jsii.String("AWS::AppConfig::ConfigurationProfile"), map[string]any{
		"Type": "AWS.AppConfig.FeatureFlags",
	})
	// The flags version rolls through Beta and Prod; the parameter-backed
	// profile is deployed out of band.
	template.ResourceCountIs(jsii.String("AWS::AppConfig::Deployment"), jsii.Number(2))
	template.ResourceCountIs(jsii.String("AWS::AppConfig::Extension"), jsii.Number(1))
	template.ResourceCountIs(jsii.String("AWS::AppConfig::ExtensionAssociation"), jsii.Number(1))

	template.HasResourceProperties(jsii.String("AWS::Lambda::Function"), map[string]any{
		"FunctionName": "bwappcfg-dev-backend-rolloutwatch",
		"Environment": map[string]any{
			"Variables": assertions.Match_ObjectLike(&map[string]any{
				"HISTORY_TABLE_NAME": map[string]any{"Ref": assertions.Match_AnyValue()},
				"BW_PRIMARY_REGION":  "eu-central-1",
			}),
		},
	})
	// The history table is resolved from the shared stack's parameter.
	template.HasParameter(jsii.String("*"), map[string]any{
		"Type":    "AWS::SSM::Parameter::Value<String>",
		"Default": "/bwappcfg/dynamo/history/table-name",
	})
	template.ResourceCountIs(jsii.String("AWS::Events::Rule"), jsii.Number(1))
	for _, name := range []string{
		"/bwappcfg/appconfig/dev/environments/prod",
		"/bwappcfg/appconfig/dev/profiles/flags",
		"/bwappcfg/appconfig/dev/profiles/limits",
		"/bwappcfg/storefront/dev/limits",
	} {
		template.HasResourceProperties(jsii.String("AWS::SSM::Parameter"), map[string]any{
			"Name": name,
		})
	}
}
