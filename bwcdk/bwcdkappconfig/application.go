package bwcdkappconfig

import (
	"slices"

	"github.com/aws/aws-cdk-go/awscdk/v2/awsappconfig"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
	"github.com/basewarphq/bwappcfg/bwcdk/bwcdkutil"
	"github.com/cockroachdb/errors"
)

// Application is an AppConfig application: the container of environments and
// configuration profiles.
type Application interface {
	Extensible
	ApplicationID() *string
	ApplicationArn() *string
	// Name is nil for imported applications.
	Name() *string
	AddEnvironment(id string, opts EnvironmentOptions) Environment
	AddHostedConfiguration(id string, opts HostedConfigurationOptions) HostedConfiguration
	AddSourcedConfiguration(id string, opts SourcedConfigurationOptions) SourcedConfiguration
	// AddExistingEnvironment registers an environment created elsewhere, so that
	// configurations created afterwards deploy to it.
	AddExistingEnvironment(env Environment)
	// Environments returns the environments in the order they were added.
	Environments() []Environment

	construct() constructs.Construct
}

// ApplicationProps configures NewApplication.
type ApplicationProps struct {
	// Name defaults to "{qualifier}-{deployment}-{id}".
	Name        *string
	Description *string
}

type application struct {
	extensible
	scope        constructs.Construct
	id           *string
	arn          *string
	name         *string
	environments []Environment
}

// NewApplication creates an AppConfig application.
func NewApplication(scope constructs.Construct, id string, props ApplicationProps) Application {
	if err := checkNameAndDescription("application", props.Name, props.Description); err != nil {
		panic(err)
	}
	scope = constructs.NewConstruct(scope, jsii.String(id))

	name := props.Name
	if name == nil {
		name = jsii.String(bwcdkutil.ResourceName(scope, id, bwcdkutil.CasingKebab))
	}

	res := awsappconfig.NewCfnApplication(scope, jsii.String("Resource"), &awsappconfig.CfnApplicationProps{
		Name:        name,
		Description: props.Description,
	})

	con := &application{scope: scope, id: res.Ref(), name: name}
	con.arn = applicationArn(scope, con.id)
	con.extensible = extensible{scope: scope, resourceArn: con.arn}
	return con
}

// ApplicationFromID references an existing application. No resources are created
// for the application itself.
func ApplicationFromID(scope constructs.Construct, id string, applicationID string) Application {
	if applicationID == "" {
		panic(errors.New("application id must not be empty"))
	}
	scope = constructs.NewConstruct(scope, jsii.String(id))

	con := &application{scope: scope, id: jsii.String(applicationID)}
	con.arn = applicationArn(scope, con.id)
	con.extensible = extensible{scope: scope, resourceArn: con.arn}
	return con
}

func (a *application) ApplicationID() *string          { return a.id }
func (a *application) ApplicationArn() *string         { return a.arn }
func (a *application) Name() *string                   { return a.name }
func (a *application) Environments() []Environment     { return slices.Clone(a.environments) }
func (a *application) construct() constructs.Construct { return a.scope }

func (a *application) AddEnvironment(id string, opts EnvironmentOptions) Environment {
	return NewEnvironment(a.scope, id, EnvironmentProps{EnvironmentOptions: opts, Application: a})
}

func (a *application) AddHostedConfiguration(id string, opts HostedConfigurationOptions) HostedConfiguration {
	return NewHostedConfiguration(a.scope, id, HostedConfigurationProps{HostedConfigurationOptions: opts, Application: a})
}

func (a *application) AddSourcedConfiguration(id string, opts SourcedConfigurationOptions) SourcedConfiguration {
	return NewSourcedConfiguration(a.scope, id, SourcedConfigurationProps{SourcedConfigurationOptions: opts, Application: a})
}

func (a *application) AddExistingEnvironment(env Environment) {
	if *env.Application().ApplicationID() != *a.id {
		panic(errors.Newf("environment %s belongs to a different application", literal(env.Name())))
	}
	if slices.Contains(a.environments, env) {
		return
	}
	a.environments = append(a.environments, env)
}
