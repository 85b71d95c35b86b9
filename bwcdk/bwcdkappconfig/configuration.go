package bwcdkappconfig

import (
	"github.com/aws/aws-cdk-go/awscdk/v2/awsappconfig"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsiam"
	"github.com/aws/aws-cdk-go/awscdk/v2/awskms"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
	"github.com/basewarphq/bwappcfg/bwcdk/bwcdkutil"
	"github.com/cockroachdb/errors"
)

// ConfigurationType is the type of a configuration profile.
type ConfigurationType string

const (
	ConfigurationTypeFreeform     ConfigurationType = "AWS.Freeform"
	ConfigurationTypeFeatureFlags ConfigurationType = "AWS.AppConfig.FeatureFlags"
)

// Configuration is a configuration profile with, when known, the version to deploy.
type Configuration interface {
	Extensible
	Application() Application
	ConfigurationProfileID() *string
	ConfigurationProfileArn() *string
	Name() *string
	Type() ConfigurationType
	// VersionNumber is the version deployments use. Nil means nothing is deployed.
	VersionNumber() *string
	DeploymentStrategy() DeploymentStrategy
	// DeploymentKey encrypts the deployed configuration data. May be nil.
	DeploymentKey() awskms.IKey
	// GrantRead lets grantee retrieve the configuration from any environment.
	GrantRead(grantee awsiam.IGrantable) awsiam.Grant

	construct() constructs.Construct
}

// ConfigurationOptions are shared by hosted and sourced configurations.
type ConfigurationOptions struct {
	// Name defaults to "{qualifier}-{deployment}-{id}".
	Name        *string
	Description *string
	// Type defaults to ConfigurationTypeFreeform.
	Type       ConfigurationType
	Validators []Validator
	// DeploymentStrategy defaults to the predefined AppConfig.Canary10Percent20Minutes.
	DeploymentStrategy DeploymentStrategy
	DeploymentKey      awskms.IKey
	// DeployTo restricts deployments to these environments. When nil, the
	// configuration deploys to every environment of the application.
	DeployTo                []Environment
	DeletionProtectionCheck DeletionProtectionCheck
}

type configuration struct {
	extensible
	scope     constructs.Construct
	app       Application
	profile   awsappconfig.CfnConfigurationProfile
	profileID *string
	arn       *string
	name      *string
	typ       ConfigurationType
	version   *string
	strategy  DeploymentStrategy
	key       awskms.IKey
}

func (c *configuration) Application() Application               { return c.app }
func (c *configuration) ConfigurationProfileID() *string        { return c.profileID }
func (c *configuration) ConfigurationProfileArn() *string       { return c.arn }
func (c *configuration) Name() *string                          { return c.name }
func (c *configuration) Type() ConfigurationType                { return c.typ }
func (c *configuration) VersionNumber() *string                 { return c.version }
func (c *configuration) DeploymentStrategy() DeploymentStrategy { return c.strategy }
func (c *configuration) DeploymentKey() awskms.IKey             { return c.key }
func (c *configuration) construct() constructs.Construct        { return c.scope }

func (c *configuration) GrantRead(grantee awsiam.IGrantable) awsiam.Grant {
	return grantConfigurationRead(grantee,
		formatArn(c.scope, "application",
			*c.app.ApplicationID()+"/environment/*/configuration/"+*c.profileID))
}

func checkConfigurationOptions(kind string, app Application, opts ConfigurationOptions) error {
	if app == nil {
		return errors.Newf("%s requires an application", kind)
	}
	if err := checkResource(kind, opts.Name, opts.Description, resourceFields{
		Type:                    string(opts.Type),
		DeletionProtectionCheck: string(opts.DeletionProtectionCheck),
	}); err != nil {
		return err
	}
	if err := checkValidators(opts.Validators); err != nil {
		return errors.Wrap(err, kind)
	}
	for _, env := range opts.DeployTo {
		if *env.Application().ApplicationID() != *app.ApplicationID() {
			return errors.Newf("%s deploys to environment %s of a different application",
				kind, literal(env.Name()))
		}
	}
	return nil
}

// newConfiguration creates the configuration profile shared by hosted and sourced
// configurations. kmsKeyArn encrypts hosted content and is nil for sourced ones.
func newConfiguration(
	scope constructs.Construct, id string, app Application, opts ConfigurationOptions,
	locationURI, retrievalRoleArn, kmsKeyArn *string,
) *configuration {
	name := opts.Name
	if name == nil {
		name = jsii.String(bwcdkutil.ResourceName(scope, id, bwcdkutil.CasingKebab))
	}
	typ := opts.Type
	if typ == "" {
		typ = ConfigurationTypeFreeform
	}

	validators := make([]*awsappconfig.CfnConfigurationProfile_ValidatorsProperty, 0, len(opts.Validators))
	for _, v := range opts.Validators {
		validators = append(validators, v.property())
	}

	props := &awsappconfig.CfnConfigurationProfileProps{
		ApplicationId:    app.ApplicationID(),
		Name:             name,
		Description:      opts.Description,
		LocationUri:      locationURI,
		RetrievalRoleArn: retrievalRoleArn,
		KmsKeyIdentifier: kmsKeyArn,
		Type:             jsii.String(string(typ)),
	}
	if len(validators) > 0 {
		props.Validators = validators
	}
	if opts.DeletionProtectionCheck != "" {
		props.DeletionProtectionCheck = jsii.String(string(opts.DeletionProtectionCheck))
	}
	profile := awsappconfig.NewCfnConfigurationProfile(scope, jsii.String("ConfigurationProfile"), props)

	strategy := opts.DeploymentStrategy
	if strategy == nil {
		strategy = DeploymentStrategyFromID(scope, PredefinedCanary10Percent20Minutes)
	}

	con := &configuration{
		scope:     scope,
		app:       app,
		profile:   profile,
		profileID: profile.Ref(),
		name:      name,
		typ:       typ,
		strategy:  strategy,
		key:       opts.DeploymentKey,
	}
	con.arn = configurationProfileArn(scope, app.ApplicationID(), con.profileID)
	con.extensible = extensible{scope: scope, resourceArn: con.arn}
	return con
}

// deploy queues a deployment of the configuration on every target environment.
// Nothing is queued when the version is unknown.
func (c *configuration) deploy(deployTo []Environment) {
	if c.version == nil {
		return
	}
	targets := deployTo
	if targets == nil {
		targets = c.app.Environments()
	}
	for _, env := range targets {
		env.AddDeployment(c)
	}
}
