// Package bwcdkparams stores and retrieves CDK construct values through AWS
// Systems Manager Parameter Store so that stacks in other regions, and
// functions at runtime, can discover them without cross-stack references.
//
// Parameters live under /{qualifier}/{namespace}/{name}. The primary region
// stores values; secondary regions read them back with [Lookup].
package bwcdkparams

import (
	"maps"
	"slices"
	"strings"

	"github.com/aws/aws-cdk-go/awscdk/v2/awsssm"
	"github.com/aws/aws-cdk-go/awscdk/v2/customresources"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
	"github.com/basewarphq/bwappcfg/bwcdk/bwcdkutil"
)

// AppConfigNamespace groups the identifiers of a deployment's AppConfig resources.
const AppConfigNamespace = "appconfig"

// LookupLocal retrieves a parameter from SSM Parameter Store within the same region.
// Use this for same-region cross-stack references. For cross-region lookups, use Lookup.
func LookupLocal(scope constructs.Construct, namespace string, name string) *string {
	return awsssm.StringParameter_ValueForStringParameter(scope,
		ParameterName(scope, namespace, name), nil)
}

// ParameterName generates a hierarchical SSM parameter path.
// Returns a path like /{qualifier}/{namespace}/{name}.
func ParameterName(scope constructs.Construct, namespace string, name string) *string {
	qual := bwcdkutil.Qualifier(scope)
	return jsii.Sprintf("/%s/%s/%s", qual, namespace, name)
}

// Store creates a String parameter holding value.
func Store(scope constructs.Construct, id string, namespace string, name string, value *string) awsssm.StringParameter {
	return awsssm.NewStringParameter(scope, jsii.String(id),
		&awsssm.StringParameterProps{
			ParameterName: ParameterName(scope, namespace, name),
			StringValue:   value,
		})
}

// Lookup retrieves a parameter stored in the primary region using a custom resource.
// The physicalID should be a stable identifier for the custom resource (e.g., "alert-queue-url-lookup").
func Lookup(scope constructs.Construct, id string, namespace string, name string, physicalID string) *string {
	sdkCall := &customresources.AwsSdkCall{
		Service: jsii.String("SSM"),
		Action:  jsii.String("getParameter"),
		Parameters: map[string]any{
			"Name": ParameterName(scope, namespace, name),
		},
		Region:             jsii.String(bwcdkutil.PrimaryRegion(scope)),
		PhysicalResourceId: customresources.PhysicalResourceId_Of(jsii.String(physicalID)),
	}
	// OnUpdate re-reads the parameter when its path changes; without it the
	// response is empty on update.
	lookup := customresources.NewAwsCustomResource(scope, jsii.String(id),
		&customresources.AwsCustomResourceProps{
			OnCreate: sdkCall,
			OnUpdate: sdkCall,
			Policy: customresources.AwsCustomResourcePolicy_FromSdkCalls(&customresources.SdkCallsPolicyOptions{
				Resources: customresources.AwsCustomResourcePolicy_ANY_RESOURCE(),
			}),
		})
	return lookup.GetResponseField(jsii.String("Parameter.Value"))
}

// AppConfigIDs are the identifiers a function needs to open a configuration
// session. ProfileIDs and EnvironmentIDs are keyed by name.
type AppConfigIDs struct {
	ApplicationID  *string
	ProfileIDs     map[string]*string
	EnvironmentIDs map[string]*string
}

// AppConfigParamName returns the parameter name, relative to the AppConfig
// namespace, under which a deployment's identifier is stored. Parts are
// lower-cased and joined with "/"; shared stacks omit the deployment.
func AppConfigParamName(scope constructs.Construct, parts ...string) string {
	elems := make([]string, 0, len(parts)+1)
	if ident := bwcdkutil.DeploymentIdent(scope); ident != "" {
		elems = append(elems, ident)
	}
	for _, p := range parts {
		elems = append(elems, strings.ToLower(p))
	}
	return strings.ToLower(strings.Join(elems, "/"))
}

// StoreAppConfig publishes the identifiers of an application, its
// configuration profiles and its environments under the AppConfig namespace.
// Environment names are visited in the order given by envOrder.
func StoreAppConfig(scope constructs.Construct, ids AppConfigIDs, envOrder ...string) {
	scope = constructs.NewConstruct(scope, jsii.String("AppConfigParams"))

	Store(scope, "ApplicationID", AppConfigNamespace,
		AppConfigParamName(scope, "application-id"), ids.ApplicationID)
	for _, name := range slices.Sorted(maps.Keys(ids.ProfileIDs)) {
		Store(scope, "Profile"+name, AppConfigNamespace,
			AppConfigParamName(scope, "profiles", name), ids.ProfileIDs[name])
	}
	for _, name := range envOrder {
		id, ok := ids.EnvironmentIDs[name]
		if !ok {
			continue
		}
		Store(scope, "Environment"+name, AppConfigNamespace,
			AppConfigParamName(scope, "environments", name), id)
	}
}
