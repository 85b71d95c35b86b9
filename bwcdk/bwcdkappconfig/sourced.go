package bwcdkappconfig

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscodepipeline"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsiam"
	"github.com/aws/aws-cdk-go/awscdk/v2/awskms"
	"github.com/aws/aws-cdk-go/awscdk/v2/awss3"
	"github.com/aws/aws-cdk-go/awscdk/v2/awssecretsmanager"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsssm"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
	"github.com/cockroachdb/errors"
)

// SourceKind is the kind of external store a sourced configuration reads from.
type SourceKind string

const (
	SourceKindS3             SourceKind = "S3"
	SourceKindSSMParameter   SourceKind = "SSM_PARAMETER"
	SourceKindSSMDocument    SourceKind = "SSM_DOCUMENT"
	SourceKindSecretsManager SourceKind = "SECRETS_MANAGER"
	SourceKindCodePipeline   SourceKind = "CODE_PIPELINE"
)

// ConfigurationSource is the location of a sourced configuration.
type ConfigurationSource struct {
	kind       SourceKind
	uri        *string
	statements func(stack awscdk.Stack) []awsiam.PolicyStatement
	key        awskms.IKey
}

// Kind returns the kind of store.
func (s ConfigurationSource) Kind() SourceKind { return s.kind }

// LocationURI returns the AppConfig location URI, e.g. "s3://bucket/key".
func (s ConfigurationSource) LocationURI() *string { return s.uri }

// SourceFromBucket reads the configuration from an S3 object. Key decrypts the object
// when it is encrypted with a customer managed key.
func SourceFromBucket(bucket awss3.IBucket, objectKey string, key awskms.IKey) ConfigurationSource {
	return ConfigurationSource{
		kind: SourceKindS3,
		uri:  jsii.String("s3://" + *bucket.BucketName() + "/" + objectKey),
		key:  key,
		statements: func(awscdk.Stack) []awsiam.PolicyStatement {
			return []awsiam.PolicyStatement{
				allow([]string{"s3:GetObject", "s3:GetObjectMetadata", "s3:GetObjectVersion"},
					bucket.ArnForObjects(jsii.String(objectKey))),
				allow([]string{"s3:ListBucket", "s3:GetBucketLocation", "s3:GetBucketVersioning", "s3:ListBucketVersions"},
					bucket.BucketArn()),
			}
		},
	}
}

// SourceFromParameter reads the configuration from an SSM parameter.
func SourceFromParameter(param awsssm.IParameter, key awskms.IKey) ConfigurationSource {
	return ConfigurationSource{
		kind: SourceKindSSMParameter,
		uri:  jsii.String("ssm-parameter://" + *param.ParameterName()),
		key:  key,
		statements: func(awscdk.Stack) []awsiam.PolicyStatement {
			return []awsiam.PolicyStatement{allow([]string{"ssm:GetParameter"}, param.ParameterArn())}
		},
	}
}

// SourceFromDocument reads the configuration from an SSM document.
func SourceFromDocument(document awsssm.CfnDocument) ConfigurationSource {
	name := document.Ref()
	return ConfigurationSource{
		kind: SourceKindSSMDocument,
		uri:  jsii.String("ssm-document://" + *name),
		statements: func(stack awscdk.Stack) []awsiam.PolicyStatement {
			arn := stack.FormatArn(&awscdk.ArnComponents{
				Service:      jsii.String("ssm"),
				Resource:     jsii.String("document"),
				ResourceName: name,
			})
			return []awsiam.PolicyStatement{allow([]string{"ssm:GetDocument"}, arn)}
		},
	}
}

// SourceFromSecret reads the configuration from a Secrets Manager secret.
func SourceFromSecret(secret awssecretsmanager.ISecret) ConfigurationSource {
	return ConfigurationSource{
		kind: SourceKindSecretsManager,
		uri:  jsii.String("secretsmanager://" + *secret.SecretName()),
		key:  secret.EncryptionKey(),
		statements: func(awscdk.Stack) []awsiam.PolicyStatement {
			return []awsiam.PolicyStatement{allow([]string{"secretsmanager:GetSecretValue"}, secret.SecretArn())}
		},
	}
}

// SourceFromPipeline reads the configuration from a CodePipeline deploy action. No
// retrieval role is needed.
func SourceFromPipeline(pipeline awscodepipeline.IPipeline) ConfigurationSource {
	return ConfigurationSource{
		kind: SourceKindCodePipeline,
		uri:  jsii.String("codepipeline://" + *pipeline.PipelineName()),
	}
}

func allow(actions []string, resource *string) awsiam.PolicyStatement {
	return awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
		Effect:    awsiam.Effect_ALLOW,
		Actions:   jsii.Strings(actions...),
		Resources: &[]*string{resource},
	})
}

// SourcedConfiguration is a configuration AppConfig reads from an external store.
type SourcedConfiguration interface {
	Configuration
	Location() ConfigurationSource
	// RetrievalRole is nil for sources that need none.
	RetrievalRole() awsiam.IRole
}

// SourcedConfigurationOptions configures a sourced configuration created through
// Application.AddSourcedConfiguration.
type SourcedConfigurationOptions struct {
	ConfigurationOptions
	// Location of the configuration. Required.
	Location ConfigurationSource
	// VersionNumber to deploy, such as an S3 object version or SSM parameter version.
	// Nothing is deployed when nil.
	VersionNumber *string
	// RetrievalRole AppConfig assumes to read the source. Created when nil.
	RetrievalRole awsiam.IRole
}

// SourcedConfigurationProps configures NewSourcedConfiguration.
type SourcedConfigurationProps struct {
	SourcedConfigurationOptions
	// Application owning the configuration. Required.
	Application Application
}

type sourcedConfiguration struct {
	*configuration
	location ConfigurationSource
	role     awsiam.IRole
}

// NewSourcedConfiguration creates a configuration profile for an external source. When
// the source needs one, a retrieval role trusted by AppConfig with read access to the
// source is created.
func NewSourcedConfiguration(
	scope constructs.Construct, id string, props SourcedConfigurationProps,
) SourcedConfiguration {
	if err := checkConfigurationOptions("sourced configuration", props.Application, props.ConfigurationOptions); err != nil {
		panic(err)
	}
	if props.Location.uri == nil {
		panic(errors.New("sourced configuration requires a location; use one of the SourceFrom functions"))
	}
	scope = constructs.NewConstruct(scope, jsii.String(id))

	role := props.RetrievalRole
	if role == nil && props.Location.statements != nil {
		role = newRetrievalRole(scope, props.Location)
	}

	var roleArn *string
	if role != nil {
		roleArn = role.RoleArn()
	}

	base := newConfiguration(scope, id, props.Application, props.ConfigurationOptions,
		props.Location.uri, roleArn, nil)
	base.version = props.VersionNumber

	con := &sourcedConfiguration{configuration: base, location: props.Location, role: role}
	con.deploy(props.DeployTo)
	return con
}

func (s *sourcedConfiguration) Location() ConfigurationSource { return s.location }
func (s *sourcedConfiguration) RetrievalRole() awsiam.IRole   { return s.role }

func newRetrievalRole(scope constructs.Construct, src ConfigurationSource) awsiam.IRole {
	statements := src.statements(awscdk.Stack_Of(scope))
	if src.key != nil {
		statements = append(statements, allow([]string{"kms:Decrypt"}, src.key.KeyArn()))
	}
	return awsiam.NewRole(scope, jsii.String("RetrievalRole"), &awsiam.RoleProps{
		AssumedBy: awsiam.NewServicePrincipal(jsii.String(appConfigPrincipal), nil),
		InlinePolicies: &map[string]awsiam.PolicyDocument{
			"AllowAppConfigReadFromSource": awsiam.NewPolicyDocument(&awsiam.PolicyDocumentProps{
				Statements: &statements,
			}),
		},
	})
}
