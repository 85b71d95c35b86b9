package bwcdkappconfig

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/basewarphq/bwappcfg/bwcdk/bwcdkutil"
	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
)

const (
	maxNameLength   = 64
	maxSchemaLength = 32768
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateStruct runs the validator on v and renders every field error into a single
// multi-line error.
func validateStruct(kind string, v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errors.Wrapf(err, "%s validation failed", kind)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, bwcdkutil.FormatFieldError(fe))
	}
	return errors.Errorf("%s validation errors:\n  - %s", kind, strings.Join(msgs, "\n  - "))
}

// literal returns the value of s, or "" when s is nil or an unresolved token.
func literal(s *string) string {
	if s == nil || isToken(s) {
		return ""
	}
	return *s
}

func isToken(s *string) bool {
	return s != nil && *awscdk.Token_IsUnresolved(s)
}

// resourceFields holds the plain values checked for every AppConfig resource. Fields
// that do not apply to a resource are left empty.
type resourceFields struct {
	Name                    string `validate:"omitempty,max=64"`
	Description             string `validate:"omitempty,max=1024"`
	Type                    string `validate:"omitempty,oneof=AWS.Freeform AWS.AppConfig.FeatureFlags"`
	DeletionProtectionCheck string `validate:"omitempty,oneof=ACCOUNT_DEFAULT APPLY BYPASS"`
	VersionLabel            string `validate:"omitempty,max=64"`
}

func checkResource(kind string, name, description *string, fields resourceFields) error {
	if name != nil && !isToken(name) && *name == "" {
		return errors.Newf("%s validation errors:\n  - Name must not be empty", kind)
	}
	fields.Name = literal(name)
	fields.Description = literal(description)
	return validateStruct(kind, fields)
}

func checkNameAndDescription(kind string, name, description *string) error {
	return checkResource(kind, name, description, resourceFields{})
}

// shortHash returns a stable 8 character hex digest of s, for use in logical ids.
func shortHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return strings.ToUpper(hex.EncodeToString(sum[:4]))
}
