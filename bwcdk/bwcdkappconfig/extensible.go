package bwcdkappconfig

import (
	"fmt"

	"github.com/aws/aws-cdk-go/awscdk/v2/awsappconfig"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
)

// Extensible resources accept extension associations: applications, environments and
// configuration profiles.
type Extensible interface {
	// On creates an extension with a single action at point and associates it.
	On(point ActionPoint, dest EventDestination, opts *ExtensionOptions)
	PreCreateHostedConfigurationVersion(dest EventDestination, opts *ExtensionOptions)
	PreStartDeployment(dest EventDestination, opts *ExtensionOptions)
	OnDeploymentStart(dest EventDestination, opts *ExtensionOptions)
	OnDeploymentStep(dest EventDestination, opts *ExtensionOptions)
	OnDeploymentBaking(dest EventDestination, opts *ExtensionOptions)
	OnDeploymentComplete(dest EventDestination, opts *ExtensionOptions)
	OnDeploymentRolledBack(dest EventDestination, opts *ExtensionOptions)
	AtDeploymentTick(dest EventDestination, opts *ExtensionOptions)
	// AddExtension associates an existing extension, passing its parameter values.
	AddExtension(ext Extension)
}

// ExtensionOptions configures the extension created by the On helpers.
type ExtensionOptions struct {
	ExtensionName       *string
	Description         *string
	Parameters          []Parameter
	LatestVersionNumber *float64
}

type extensible struct {
	scope        constructs.Construct
	resourceArn  *string
	extensions   int
	associations int
}

func (e *extensible) On(point ActionPoint, dest EventDestination, opts *ExtensionOptions) {
	if opts == nil {
		opts = &ExtensionOptions{}
	}
	e.extensions++

	ext := NewExtension(e.scope, fmt.Sprintf("%sExtension%d", point.camel(), e.extensions), ExtensionProps{
		Name:        opts.ExtensionName,
		Description: opts.Description,
		Actions: []Action{{
			ActionPoints: []ActionPoint{point},
			Destination:  dest,
		}},
		Parameters:          opts.Parameters,
		LatestVersionNumber: opts.LatestVersionNumber,
	})
	e.AddExtension(ext)
}

func (e *extensible) AddExtension(ext Extension) {
	values, err := associationParameters(ext)
	if err != nil {
		panic(err)
	}
	e.associations++

	awsappconfig.NewCfnExtensionAssociation(e.scope,
		jsii.String(fmt.Sprintf("ExtensionAssociation%d", e.associations)),
		&awsappconfig.CfnExtensionAssociationProps{
			ExtensionIdentifier:    ext.ExtensionArn(),
			ExtensionVersionNumber: ext.ExtensionVersionNumber(),
			ResourceIdentifier:     e.resourceArn,
			Parameters:             &values,
		})
}

func (e *extensible) PreCreateHostedConfigurationVersion(dest EventDestination, opts *ExtensionOptions) {
	e.On(ActionPointPreCreateHostedConfigurationVersion, dest, opts)
}

func (e *extensible) PreStartDeployment(dest EventDestination, opts *ExtensionOptions) {
	e.On(ActionPointPreStartDeployment, dest, opts)
}

func (e *extensible) OnDeploymentStart(dest EventDestination, opts *ExtensionOptions) {
	e.On(ActionPointOnDeploymentStart, dest, opts)
}

func (e *extensible) OnDeploymentStep(dest EventDestination, opts *ExtensionOptions) {
	e.On(ActionPointOnDeploymentStep, dest, opts)
}

func (e *extensible) OnDeploymentBaking(dest EventDestination, opts *ExtensionOptions) {
	e.On(ActionPointOnDeploymentBaking, dest, opts)
}

func (e *extensible) OnDeploymentComplete(dest EventDestination, opts *ExtensionOptions) {
	e.On(ActionPointOnDeploymentComplete, dest, opts)
}

func (e *extensible) OnDeploymentRolledBack(dest EventDestination, opts *ExtensionOptions) {
	e.On(ActionPointOnDeploymentRolledBack, dest, opts)
}

func (e *extensible) AtDeploymentTick(dest EventDestination, opts *ExtensionOptions) {
	e.On(ActionPointAtDeploymentTick, dest, opts)
}
