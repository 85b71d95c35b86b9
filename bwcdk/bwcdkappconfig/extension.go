package bwcdkappconfig

import (
	"fmt"
	"slices"
	"strings"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsappconfig"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsiam"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslambda"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
	"github.com/cockroachdb/errors"
)

const appConfigPrincipal = "appconfig.amazonaws.com"

// Extension is an AppConfig extension: a set of actions run at workflow action points.
type Extension interface {
	ExtensionID() *string
	ExtensionArn() *string
	// ExtensionVersionNumber is nil for imported extensions.
	ExtensionVersionNumber() *float64
	Name() *string
	Parameters() []Parameter
}

// Action runs at one or more action points and delivers the event to a destination.
type Action struct {
	// ActionPoints the action runs at. Required.
	ActionPoints []ActionPoint
	// Destination receives the event. Required.
	Destination EventDestination
	// Name defaults to "{extension}-{index}".
	Name *string
	// Description of the action.
	Description *string
	// ExecutionRole AppConfig assumes to deliver the event. Created when nil.
	ExecutionRole awsiam.IRole
	// InvokeWithoutExecutionRole skips the execution role entirely.
	InvokeWithoutExecutionRole bool
}

// Parameter is an extension parameter. Values are passed on the association.
type Parameter struct {
	Name        string `validate:"required,max=64,excludesall=/#:"`
	Value       *string
	Description string `validate:"max=1024"`
	Required    bool
	// Dynamic parameters are resolved by AppConfig per invocation.
	Dynamic bool
}

// ParameterRequired declares a parameter that must be given a value.
func ParameterRequired(name, value string) Parameter {
	return Parameter{Name: name, Value: jsii.String(value), Required: true}
}

// ParameterNotRequired declares an optional parameter. Value may be nil.
func ParameterNotRequired(name string, value *string) Parameter {
	return Parameter{Name: name, Value: value}
}

// ExtensionProps configures NewExtension.
type ExtensionProps struct {
	// Name defaults to a unique name derived from the construct path.
	Name        *string
	Description *string
	// Actions of the extension. At least one is required.
	Actions    []Action
	Parameters []Parameter
	// LatestVersionNumber guards against concurrent updates of the extension.
	LatestVersionNumber *float64
}

type extension struct {
	id         *string
	arn        *string
	version    *float64
	name       *string
	parameters []Parameter
}

// NewExtension creates an AppConfig extension. An execution role trusted by AppConfig
// and allowed to deliver to the destination is created for every action that does not
// bring its own role or opt out of one.
func NewExtension(scope constructs.Construct, id string, props ExtensionProps) Extension {
	if err := checkExtensionProps(props); err != nil {
		panic(err)
	}
	scope = constructs.NewConstruct(scope, jsii.String(id))

	name := props.Name
	if name == nil {
		name = awscdk.Names_UniqueResourceName(scope, &awscdk.UniqueResourceNameOptions{
			MaxLength: jsii.Number(maxNameLength),
			Separator: jsii.String("-"),
		})
	}

	actions := map[string][]*awsappconfig.CfnExtension_ActionProperty{}
	for i, act := range props.Actions {
		actionName := act.Name
		if actionName == nil {
			actionName = jsii.Sprintf("%s-%d", *name, i)
		}

		var roleArn *string
		if !act.InvokeWithoutExecutionRole {
			role := act.ExecutionRole
			if role == nil {
				role = newExecutionRole(scope, fmt.Sprintf("Role%d", i), act.Destination.PolicyStatement())
			}
			roleArn = role.RoleArn()
		}

		if lam, ok := act.Destination.(*lambdaDestination); ok {
			grantAppConfigInvoke(lam.fn)
		}

		for _, point := range act.ActionPoints {
			actions[string(point)] = append(actions[string(point)], &awsappconfig.CfnExtension_ActionProperty{
				Name:        actionName,
				Uri:         act.Destination.ExtensionURI(),
				RoleArn:     roleArn,
				Description: act.Description,
			})
		}
	}

	params := map[string]*awsappconfig.CfnExtension_ParameterProperty{}
	for _, p := range props.Parameters {
		param := &awsappconfig.CfnExtension_ParameterProperty{Required: jsii.Bool(p.Required)}
		if p.Description != "" {
			param.Description = jsii.String(p.Description)
		}
		if p.Dynamic {
			param.Dynamic = jsii.Bool(true)
		}
		params[p.Name] = param
	}

	res := awsappconfig.NewCfnExtension(scope, jsii.String("Resource"), &awsappconfig.CfnExtensionProps{
		Name:                name,
		Description:         props.Description,
		Actions:             actions,
		Parameters:          params,
		LatestVersionNumber: props.LatestVersionNumber,
	})

	return &extension{
		id:         res.AttrId(),
		arn:        res.AttrArn(),
		version:    res.AttrVersionNumber(),
		name:       name,
		parameters: slices.Clone(props.Parameters),
	}
}

// ExtensionFromArn references an existing extension, such as one of the AWS authored
// extensions. Parameters carry the values passed on association.
func ExtensionFromArn(arn string, params ...Parameter) Extension {
	extID, err := extensionIDFromArn(arn)
	if err != nil {
		panic(err)
	}
	return &extension{
		id:         jsii.String(extID),
		arn:        jsii.String(arn),
		name:       jsii.String(extID),
		parameters: slices.Clone(params),
	}
}

// extensionIDFromArn extracts the id from "arn:...:extension/{id}[/{version}]".
func extensionIDFromArn(arn string) (string, error) {
	_, rest, ok := strings.Cut(arn, ":extension/")
	if !ok || !strings.HasPrefix(arn, "arn:") {
		return "", errors.Newf("not an AppConfig extension ARN: %q", arn)
	}
	extID, _, _ := strings.Cut(rest, "/")
	if extID == "" {
		return "", errors.Newf("AppConfig extension ARN has no id: %q", arn)
	}
	return extID, nil
}

func (e *extension) ExtensionID() *string             { return e.id }
func (e *extension) ExtensionArn() *string            { return e.arn }
func (e *extension) ExtensionVersionNumber() *float64 { return e.version }
func (e *extension) Name() *string                    { return e.name }
func (e *extension) Parameters() []Parameter          { return e.parameters }

func checkExtensionProps(props ExtensionProps) error {
	if err := checkNameAndDescription("extension", props.Name, props.Description); err != nil {
		return err
	}
	if len(props.Actions) == 0 {
		return errors.New("extension requires at least one action")
	}
	for i, act := range props.Actions {
		if len(act.ActionPoints) == 0 {
			return errors.Newf("action %d has no action points", i)
		}
		if act.ExecutionRole != nil && act.InvokeWithoutExecutionRole {
			return errors.Newf("action %d sets both ExecutionRole and InvokeWithoutExecutionRole", i)
		}
		for _, point := range act.ActionPoints {
			if !point.Valid() {
				return errors.Newf("action %d has unknown action point %q", i, point)
			}
			if err := checkDestination(point, act.Destination); err != nil {
				return errors.Wrapf(err, "action %d", i)
			}
		}
	}

	seen := map[string]bool{}
	for _, p := range props.Parameters {
		if err := validateStruct("extension parameter", p); err != nil {
			return err
		}
		if seen[p.Name] {
			return errors.Newf("duplicate extension parameter %q", p.Name)
		}
		seen[p.Name] = true
	}
	return nil
}

// associationParameters returns the parameter values passed when associating ext,
// failing when a required parameter has none.
func associationParameters(ext Extension) (map[string]*string, error) {
	values := map[string]*string{}
	for _, p := range ext.Parameters() {
		if p.Value == nil {
			if p.Required {
				return nil, errors.Newf("extension parameter %q is required but has no value", p.Name)
			}
			continue
		}
		values[p.Name] = p.Value
	}
	return values, nil
}

func newExecutionRole(scope constructs.Construct, id string, stmt awsiam.PolicyStatement) awsiam.IRole {
	return awsiam.NewRole(scope, jsii.String(id), &awsiam.RoleProps{
		AssumedBy: awsiam.NewServicePrincipal(jsii.String(appConfigPrincipal), nil),
		InlinePolicies: &map[string]awsiam.PolicyDocument{
			"AllowAppConfigDelivery": awsiam.NewPolicyDocument(&awsiam.PolicyDocumentProps{
				Statements: &[]awsiam.PolicyStatement{stmt},
			}),
		},
	})
}

const appConfigInvokePermission = "AppConfigInvokePermission"

// grantAppConfigInvoke allows AppConfig to invoke fn. Repeated grants are no-ops.
func grantAppConfigInvoke(fn awslambda.IFunction) {
	if fn.Node().TryFindChild(jsii.String(appConfigInvokePermission)) != nil {
		return
	}
	fn.AddPermission(jsii.String(appConfigInvokePermission), &awslambda.Permission{
		Principal: awsiam.NewServicePrincipal(jsii.String(appConfigPrincipal), nil),
	})
}
