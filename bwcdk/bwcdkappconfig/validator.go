package bwcdkappconfig

import (
	"encoding/json"
	"os"

	"github.com/aws/aws-cdk-go/awscdk/v2/awsappconfig"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslambda"
	"github.com/aws/jsii-runtime-go"
	"github.com/cockroachdb/errors"
)

const (
	validatorTypeJSONSchema = "JSON_SCHEMA"
	validatorTypeLambda     = "LAMBDA"
)

// Validator checks configuration content before AppConfig accepts or deploys it.
type Validator struct {
	typ    string
	schema string
	fn     awslambda.IFunction
}

// JSONSchemaValidator validates content against an inline JSON schema.
func JSONSchemaValidator(schema string) Validator {
	return Validator{typ: validatorTypeJSONSchema, schema: schema}
}

// JSONSchemaValidatorFromFile validates content against the JSON schema in path.
func JSONSchemaValidatorFromFile(path string) (Validator, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Validator{}, errors.Wrapf(err, "reading JSON schema %s", path)
	}
	v := JSONSchemaValidator(string(data))
	if err := v.check(); err != nil {
		return Validator{}, errors.Wrapf(err, "JSON schema %s", path)
	}
	return v, nil
}

// LambdaValidator validates content with a Lambda function. AppConfig is allowed to
// invoke the function.
func LambdaValidator(fn awslambda.IFunction) Validator {
	return Validator{typ: validatorTypeLambda, fn: fn}
}

func (v Validator) check() error {
	switch v.typ {
	case validatorTypeJSONSchema:
		if len(v.schema) > maxSchemaLength {
			return errors.Newf("JSON schema exceeds %d characters", maxSchemaLength)
		}
		if !json.Valid([]byte(v.schema)) {
			return errors.New("JSON schema is not valid JSON")
		}
	case validatorTypeLambda:
		if v.fn == nil {
			return errors.New("Lambda validator has no function")
		}
	default:
		return errors.New("validator must be created with JSONSchemaValidator or LambdaValidator")
	}
	return nil
}

func (v Validator) property() *awsappconfig.CfnConfigurationProfile_ValidatorsProperty {
	if v.typ == validatorTypeLambda {
		grantAppConfigInvoke(v.fn)
		return &awsappconfig.CfnConfigurationProfile_ValidatorsProperty{
			Type:    jsii.String(validatorTypeLambda),
			Content: v.fn.FunctionArn(),
		}
	}
	return &awsappconfig.CfnConfigurationProfile_ValidatorsProperty{
		Type:    jsii.String(validatorTypeJSONSchema),
		Content: jsii.String(v.schema),
	}
}

func checkValidators(validators []Validator) error {
	for i, v := range validators {
		if err := v.check(); err != nil {
			return errors.Wrapf(err, "validator %d", i)
		}
	}
	return nil
}
