package bwcdkappconfig

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsiam"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
)

func formatArn(scope constructs.Construct, resource, resourceName string) *string {
	return awscdk.Stack_Of(scope).FormatArn(&awscdk.ArnComponents{
		Service:      jsii.String("appconfig"),
		Resource:     jsii.String(resource),
		ResourceName: jsii.String(resourceName),
	})
}

func applicationArn(scope constructs.Construct, appID *string) *string {
	return formatArn(scope, "application", *appID)
}

func environmentArn(scope constructs.Construct, appID, envID *string) *string {
	return formatArn(scope, "application", *appID+"/environment/"+*envID)
}

func configurationProfileArn(scope constructs.Construct, appID, profileID *string) *string {
	return formatArn(scope, "application", *appID+"/configurationprofile/"+*profileID)
}

func deploymentStrategyArn(scope constructs.Construct, strategyID *string) *string {
	return formatArn(scope, "deploymentstrategy", *strategyID)
}

// grantConfigurationRead lets grantee retrieve configurations through AppConfig Data.
func grantConfigurationRead(grantee awsiam.IGrantable, resourceArn *string) awsiam.Grant {
	return awsiam.Grant_AddToPrincipal(&awsiam.GrantOnPrincipalOptions{
		Grantee: grantee,
		Actions: jsii.Strings(
			"appconfig:StartConfigurationSession",
			"appconfig:GetLatestConfiguration",
		),
		ResourceArns: &[]*string{resourceArn},
	})
}
