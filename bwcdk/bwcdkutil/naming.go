package bwcdkutil

import (
	"fmt"

	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
	"github.com/iancoleman/strcase"
)

// Casing specifies how to format the identifier string.
type Casing int

const (
	// CasingCamel formats as CamelCase (e.g., "BwappcfgProdFeatureFlags").
	CasingCamel Casing = iota
	// CasingLowerCamel formats as lowerCamelCase (e.g., "bwappcfgProdFeatureFlags").
	CasingLowerCamel
	// CasingSnake formats as snake_case (e.g., "bwappcfg_prod_feature_flags").
	CasingSnake
	// CasingScreamingSnake formats as SCREAMING_SNAKE_CASE (e.g., "BWAPPCFG_PROD_FEATURE_FLAGS").
	CasingScreamingSnake
	// CasingKebab formats as kebab-case (e.g., "bwappcfg-prod-feature-flags").
	CasingKebab
)

const deploymentIdentContextKey = "__bwcdkutil_deployment_ident"

// StoreDeploymentIdent records the deployment identifier on a stack so constructs
// below it can retrieve it with DeploymentIdent.
func StoreDeploymentIdent(scope constructs.Construct, deploymentIdent string) {
	scope.Node().SetContext(jsii.String(deploymentIdentContextKey), deploymentIdent)
}

// DeploymentIdent returns the deployment identifier of the enclosing deployment stack,
// or an empty string for shared stacks.
func DeploymentIdent(scope constructs.Construct) string {
	s, _ := scope.Node().TryGetContext(jsii.String(deploymentIdentContextKey)).(string)
	return s
}

// ResourceName generates a resource identifier prefixed with the qualifier and, in
// deployment stacks, the deployment identifier: "{qualifier}-{deployment}-{label}"
// converted to the requested casing. Shared stacks produce "{qualifier}-{label}".
func ResourceName(scope constructs.Construct, label string, casing Casing) string {
	base := fmt.Sprintf("%s-%s", Qualifier(scope), label)
	if ident := DeploymentIdent(scope); ident != "" {
		base = fmt.Sprintf("%s-%s-%s", Qualifier(scope), ident, label)
	}

	switch casing {
	case CasingLowerCamel:
		return strcase.ToLowerCamel(base)
	case CasingSnake:
		return strcase.ToSnake(base)
	case CasingScreamingSnake:
		return strcase.ToScreamingSnake(base)
	case CasingKebab:
		return strcase.ToKebab(base)
	default:
		return strcase.ToCamel(base)
	}
}
