package bwcdkappconfig

import (
	"github.com/aws/aws-cdk-go/awscdk/v2/awsappconfig"
	"github.com/aws/aws-cdk-go/awscdk/v2/awskms"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
	"github.com/cockroachdb/errors"
)

// HostedConfiguration is a configuration stored in the AppConfig hosted store.
type HostedConfiguration interface {
	Configuration
	Content() ConfigurationContent
	// Version returns the underlying hosted configuration version resource.
	Version() awsappconfig.CfnHostedConfigurationVersion
}

// HostedConfigurationOptions configures a hosted configuration created through
// Application.AddHostedConfiguration.
type HostedConfigurationOptions struct {
	ConfigurationOptions
	// Content of the version. Required.
	Content ConfigurationContent
	// KMSKey encrypts the hosted content at rest.
	KMSKey awskms.IKey
	// LatestVersionNumber guards against concurrent version creation.
	LatestVersionNumber *float64
	VersionLabel        *string
}

// HostedConfigurationProps configures NewHostedConfiguration.
type HostedConfigurationProps struct {
	HostedConfigurationOptions
	// Application owning the configuration. Required.
	Application Application
}

type hostedConfiguration struct {
	*configuration
	content ConfigurationContent
	version awsappconfig.CfnHostedConfigurationVersion
}

// NewHostedConfiguration creates a hosted configuration profile and a version holding
// the content, then queues deployments of that version.
func NewHostedConfiguration(scope constructs.Construct, id string, props HostedConfigurationProps) HostedConfiguration {
	if err := checkHostedProps(props); err != nil {
		panic(err)
	}
	scope = constructs.NewConstruct(scope, jsii.String(id))

	var keyArn *string
	if props.KMSKey != nil {
		keyArn = props.KMSKey.KeyArn()
	}
	base := newConfiguration(scope, id, props.Application, props.ConfigurationOptions,
		jsii.String("hosted"), nil, keyArn)

	version := awsappconfig.NewCfnHostedConfigurationVersion(scope, jsii.String("Resource"),
		&awsappconfig.CfnHostedConfigurationVersionProps{
			ApplicationId:          props.Application.ApplicationID(),
			ConfigurationProfileId: base.profileID,
			Content:                jsii.String(props.Content.Content),
			ContentType:            jsii.String(props.Content.ContentType),
			Description:            props.Description,
			LatestVersionNumber:    props.LatestVersionNumber,
			VersionLabel:           props.VersionLabel,
		})
	base.version = version.Ref()

	con := &hostedConfiguration{configuration: base, content: props.Content, version: version}
	con.deploy(props.DeployTo)
	return con
}

func (h *hostedConfiguration) Content() ConfigurationContent { return h.content }

func (h *hostedConfiguration) Version() awsappconfig.CfnHostedConfigurationVersion {
	return h.version
}

func checkHostedProps(props HostedConfigurationProps) error {
	if err := checkConfigurationOptions("hosted configuration", props.Application, props.ConfigurationOptions); err != nil {
		return err
	}
	if err := validateStruct("hosted configuration", resourceFields{
		VersionLabel: literal(props.VersionLabel),
	}); err != nil {
		return err
	}
	if props.Content.ContentType == "" {
		return errors.New("hosted configuration requires content; use one of the ContentFrom functions")
	}
	typ := props.Type
	if typ == "" {
		typ = ConfigurationTypeFreeform
	}
	return errors.Wrap(checkContent(typ, props.Content), "hosted configuration")
}
