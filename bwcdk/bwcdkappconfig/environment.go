package bwcdkappconfig

import (
	"slices"

	"github.com/aws/aws-cdk-go/awscdk/v2/awsappconfig"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsiam"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
	"github.com/basewarphq/bwappcfg/bwcdk/bwcdkutil"
	"github.com/cockroachdb/errors"
)

// DeletionProtectionCheck controls whether AppConfig refuses to delete a resource
// that was recently used.
type DeletionProtectionCheck string

const (
	DeletionProtectionAccountDefault DeletionProtectionCheck = "ACCOUNT_DEFAULT"
	DeletionProtectionApply          DeletionProtectionCheck = "APPLY"
	DeletionProtectionBypass         DeletionProtectionCheck = "BYPASS"
)

// Environment is a deployment target of an application, such as Beta or Prod.
type Environment interface {
	Extensible
	Application() Application
	EnvironmentID() *string
	EnvironmentArn() *string
	Name() *string
	// AddDeployment queues a deployment of the configuration's version. Deployments
	// to one environment run one at a time, in the order they were added.
	AddDeployment(cfg Configuration)
	AddDeployments(cfgs ...Configuration)
	// Deployments returns the queued deployments in order.
	Deployments() []awsappconfig.CfnDeployment
	// GrantReadConfig lets grantee retrieve any configuration deployed to the environment.
	GrantReadConfig(grantee awsiam.IGrantable) awsiam.Grant
}

// EnvironmentOptions configures an environment created through Application.AddEnvironment.
type EnvironmentOptions struct {
	// Name defaults to "{qualifier}-{deployment}-{id}".
	Name        *string
	Description *string
	Monitors    []Monitor
	// DeletionProtectionCheck is left to the account default when empty.
	DeletionProtectionCheck DeletionProtectionCheck
}

// EnvironmentProps configures NewEnvironment.
type EnvironmentProps struct {
	EnvironmentOptions
	// Application owning the environment. Required.
	Application Application
}

// EnvironmentAttributes reference an existing environment.
type EnvironmentAttributes struct {
	Application   Application
	EnvironmentID string
	// Name is required to queue deployments.
	Name string
}

type environment struct {
	extensible
	app   Application
	id    *string
	arn   *string
	name  *string
	queue deploymentQueue
}

// NewEnvironment creates an environment and registers it with its application.
func NewEnvironment(scope constructs.Construct, id string, props EnvironmentProps) Environment {
	if props.Application == nil {
		panic(errors.New("environment requires an application"))
	}
	if err := checkResource("environment", props.Name, props.Description, resourceFields{
		DeletionProtectionCheck: string(props.DeletionProtectionCheck),
	}); err != nil {
		panic(err)
	}
	scope = constructs.NewConstruct(scope, jsii.String(id))

	name := props.Name
	if name == nil {
		name = jsii.String(bwcdkutil.ResourceName(scope, id, bwcdkutil.CasingKebab))
	}

	cfnProps := &awsappconfig.CfnEnvironmentProps{
		ApplicationId: props.Application.ApplicationID(),
		Name:          name,
		Description:   props.Description,
	}
	if len(props.Monitors) > 0 {
		cfnProps.Monitors = monitorProperties(scope, props.Monitors)
	}
	if props.DeletionProtectionCheck != "" {
		cfnProps.DeletionProtectionCheck = jsii.String(string(props.DeletionProtectionCheck))
	}
	res := awsappconfig.NewCfnEnvironment(scope, jsii.String("Resource"), cfnProps)

	con := &environment{app: props.Application, id: res.Ref(), name: name}
	con.init(scope)
	props.Application.AddExistingEnvironment(con)
	return con
}

// EnvironmentFromAttributes references an existing environment and registers it with
// the application.
func EnvironmentFromAttributes(scope constructs.Construct, id string, attrs EnvironmentAttributes) Environment {
	if attrs.Application == nil || attrs.EnvironmentID == "" {
		panic(errors.New("environment attributes require an application and an environment id"))
	}
	scope = constructs.NewConstruct(scope, jsii.String(id))

	con := &environment{app: attrs.Application, id: jsii.String(attrs.EnvironmentID)}
	if attrs.Name != "" {
		con.name = jsii.String(attrs.Name)
	}
	con.init(scope)
	attrs.Application.AddExistingEnvironment(con)
	return con
}

func (e *environment) init(scope constructs.Construct) {
	e.arn = environmentArn(scope, e.app.ApplicationID(), e.id)
	e.extensible = extensible{scope: scope, resourceArn: e.arn}
}

func (e *environment) Application() Application { return e.app }
func (e *environment) EnvironmentID() *string   { return e.id }
func (e *environment) EnvironmentArn() *string  { return e.arn }
func (e *environment) Name() *string            { return e.name }

func (e *environment) Deployments() []awsappconfig.CfnDeployment {
	return slices.Clone(e.queue.items)
}

func (e *environment) AddDeployments(cfgs ...Configuration) {
	for _, cfg := range cfgs {
		e.AddDeployment(cfg)
	}
}

func (e *environment) AddDeployment(cfg Configuration) {
	dep, err := e.newDeployment(cfg)
	if err != nil {
		panic(err)
	}
	e.queue.push(dep)
}

func (e *environment) newDeployment(cfg Configuration) (awsappconfig.CfnDeployment, error) {
	envName := literal(e.name)
	if envName == "" {
		return nil, errors.New("environment name must be known at synthesis time to queue deployments")
	}
	if *cfg.Application().ApplicationID() != *e.app.ApplicationID() {
		return nil, errors.Newf("configuration %s belongs to a different application than environment %s",
			literal(cfg.Name()), envName)
	}
	version := cfg.VersionNumber()
	if version == nil {
		return nil, errors.Newf("configuration %s has no version to deploy", literal(cfg.Name()))
	}

	depID := "Deployment" + shortHash(envName)
	if cfg.construct().Node().TryFindChild(jsii.String(depID)) != nil {
		return nil, errors.Newf("configuration %s is already queued for environment %s",
			literal(cfg.Name()), envName)
	}

	props := &awsappconfig.CfnDeploymentProps{
		ApplicationId:          e.app.ApplicationID(),
		EnvironmentId:          e.id,
		ConfigurationProfileId: cfg.ConfigurationProfileID(),
		ConfigurationVersion:   version,
		DeploymentStrategyId:   cfg.DeploymentStrategy().DeploymentStrategyID(),
	}
	if key := cfg.DeploymentKey(); key != nil {
		props.KmsKeyIdentifier = key.KeyArn()
	}
	return awsappconfig.NewCfnDeployment(cfg.construct(), jsii.String(depID), props), nil
}

func (e *environment) GrantReadConfig(grantee awsiam.IGrantable) awsiam.Grant {
	return grantConfigurationRead(grantee, jsii.String(*e.arn+"/configuration/*"))
}

// deploymentQueue orders the deployments of one environment. Each deployment depends
// on its predecessor so that at most one is in flight.
type deploymentQueue struct {
	items []awsappconfig.CfnDeployment
}

func (q *deploymentQueue) push(dep awsappconfig.CfnDeployment) {
	if n := len(q.items); n > 0 {
		dep.AddDependency(q.items[n-1])
	}
	q.items = append(q.items, dep)
}
