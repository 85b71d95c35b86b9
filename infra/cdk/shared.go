package cdk

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awss3"
	"github.com/aws/aws-cdk-go/awscdk/v2/awssqs"
	"github.com/aws/jsii-runtime-go"
	"github.com/basewarphq/bwappcfg/bwcdk/bwcdkdynamo"
	"github.com/basewarphq/bwappcfg/bwcdk/bwcdkparams"
	"github.com/basewarphq/bwappcfg/bwcdk/bwcdkutil"
)

const (
	alertsNamespace = "alerts"
	alertsParam     = "queue-url"
)

// Shared holds the per-region resources every deployment's rollout watcher
// uses. The history table is not carried here: deployments resolve it with
// bwcdkdynamo.LookupDynamo.
type Shared struct {
	Archive    awss3.IBucket
	AlertQueue awssqs.IQueue
}

func NewShared(stack awscdk.Stack) *Shared {
	shared := &Shared{}
	bwcdkdynamo.New(stack, bwcdkdynamo.Props{})

	shared.Archive = awss3.NewBucket(stack, jsii.String("Archive"), &awss3.BucketProps{
		Encryption:        awss3.BucketEncryption_S3_MANAGED,
		BlockPublicAccess: awss3.BlockPublicAccess_BLOCK_ALL(),
		EnforceSSL:        jsii.Bool(true),
		RemovalPolicy:     awscdk.RemovalPolicy_DESTROY,
		AutoDeleteObjects: jsii.Bool(true),
		LifecycleRules: &[]*awss3.LifecycleRule{
			{Expiration: awscdk.Duration_Days(jsii.Number(90))},
		},
	})

	shared.AlertQueue = newAlertQueue(stack)

	return shared
}

// newAlertQueue creates the rollback alert queue in the primary region and
// publishes its URL. Secondary regions reference the primary queue.
func newAlertQueue(stack awscdk.Stack) awssqs.IQueue {
	name := bwcdkutil.ResourceName(stack, "alerts", bwcdkutil.CasingKebab) + ".fifo"

	if bwcdkutil.IsPrimaryRegionStack(stack) {
		queue := awssqs.NewQueue(stack, jsii.String("AlertQueue"), &awssqs.QueueProps{
			QueueName:       jsii.String(name),
			Fifo:            jsii.Bool(true),
			Encryption:      awssqs.QueueEncryption_SQS_MANAGED,
			EnforceSSL:      jsii.Bool(true),
			RetentionPeriod: awscdk.Duration_Days(jsii.Number(14)),
		})
		bwcdkparams.Store(stack, "AlertQueueURLParam", alertsNamespace, alertsParam, queue.QueueUrl())
		return queue
	}

	url := bwcdkparams.Lookup(stack, "LookupAlertQueueURL",
		alertsNamespace, alertsParam, "alert-queue-url-lookup")
	arn := stack.FormatArn(&awscdk.ArnComponents{
		Service:  jsii.String("sqs"),
		Region:   jsii.String(bwcdkutil.PrimaryRegion(stack)),
		Resource: jsii.String(name),
	})
	return awssqs.Queue_FromQueueAttributes(stack, jsii.String("AlertQueue"), &awssqs.QueueAttributes{
		QueueArn: arn,
		QueueUrl: url,
		Fifo:     jsii.Bool(true),
	})
}
