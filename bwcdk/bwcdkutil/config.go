package bwcdkutil

import (
	"fmt"
	"slices"
	"strings"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
)

// Config holds all CDK context values, validated before any stack is created.
type Config struct {
	Prefix           string   `validate:"required"`
	Qualifier        string   `validate:"required,max=10"`
	PrimaryRegion    string   `validate:"required"`
	SecondaryRegions []string `validate:"dive,required"`
	Deployments      []string `validate:"required,dive,required"`
	// DeployerGroups is nil during bootstrap.
	DeployerGroups []string

	DeployersGroup        string
	RestrictedDeployments []string `validate:"dive,required"`
}

// NewConfig reads and validates all CDK context values.
func NewConfig(scope constructs.Construct, acfg AppConfig) (*Config, error) {
	rdr := &contextReader{scope: scope, prefix: acfg.Prefix}

	cfg := &Config{
		Prefix:                acfg.Prefix,
		DeployersGroup:        acfg.DeployersGroup,
		RestrictedDeployments: acfg.RestrictedDeployments,
		Qualifier:             rdr.str("qualifier"),
		PrimaryRegion:         rdr.str("primary-region"),
		SecondaryRegions:      rdr.strs("secondary-regions"),
		Deployments:           rdr.strs("deployments"),
		DeployerGroups:        rdr.fields("deployer-groups"),
	}

	for _, region := range cfg.AllRegions() {
		if region != "" && !IsKnownRegion(region) {
			rdr.fail("unknown region %q - add it to bwcdkutil.RegionIdents", region)
		}
	}
	for _, d := range cfg.Deployments {
		if d == "" || strings.ToUpper(d[:1]) != d[:1] {
			rdr.fail("deployment %q must start with an upper-case letter", d)
		}
	}

	if len(rdr.errs) > 0 {
		return nil, errors.Errorf("CDK context read errors:\n  - %s", strings.Join(rdr.errs, "\n  - "))
	}

	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return nil, errors.Wrap(err, "CDK context validation failed")
		}
		msgs := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			msgs = append(msgs, FormatFieldError(fe))
		}
		return nil, errors.Errorf("CDK context validation errors:\n  - %s", strings.Join(msgs, "\n  - "))
	}

	return cfg, nil
}

// AllRegions returns the primary region followed by all secondary regions.
func (c *Config) AllRegions() []string {
	return append([]string{c.PrimaryRegion}, c.SecondaryRegions...)
}

// IsPrimaryRegion checks if the given region is the primary region.
func (c *Config) IsPrimaryRegion(region string) bool {
	return region == c.PrimaryRegion
}

// AllowedDeployments returns deployments the current deployer can access.
// Returns nil if DeployerGroups is nil (bootstrap mode).
func (c *Config) AllowedDeployments() []string {
	if c.DeployerGroups == nil {
		return nil
	}
	if c.DeployersGroup != "" && slices.Contains(c.DeployerGroups, c.DeployersGroup) {
		return c.Deployments
	}

	return slices.DeleteFunc(slices.Clone(c.Deployments), func(d string) bool {
		return slices.Contains(c.RestrictedDeployments, d)
	})
}

const configContextKey = "__bwcdkutil_config"

// StoreConfig stores a validated Config in the app's context so it can be retrieved
// anywhere in the construct tree via ConfigFromScope.
func StoreConfig(app awscdk.App, cfg *Config) {
	app.Node().SetContext(jsii.String(configContextKey), cfg)
}

// ConfigFromScope retrieves the validated Config from the construct tree.
// It panics if SetupApp or StoreConfig was not called.
func ConfigFromScope(scope constructs.Construct) *Config {
	val := scope.Node().TryGetContext(jsii.String(configContextKey))
	if val == nil {
		panic("bwcdkutil.Config not found in construct tree - was SetupApp or StoreConfig called?")
	}
	cfg, ok := val.(*Config)
	if !ok {
		panic(fmt.Sprintf("bwcdkutil.Config has unexpected type %T", val))
	}
	return cfg
}

// IsPrimaryRegion checks if the given region is the primary region.
func IsPrimaryRegion(scope constructs.Construct, region string) bool {
	return ConfigFromScope(scope).IsPrimaryRegion(region)
}

// IsPrimaryRegionStack checks if the stack that holds scope is in the primary region.
func IsPrimaryRegionStack(scope constructs.Construct) bool {
	return IsPrimaryRegion(scope, *awscdk.Stack_Of(scope).Region())
}

// Qualifier returns the CDK qualifier.
func Qualifier(scope constructs.Construct) string {
	return ConfigFromScope(scope).Qualifier
}

// PrimaryRegion returns the primary region.
func PrimaryRegion(scope constructs.Construct) string {
	return ConfigFromScope(scope).PrimaryRegion
}

// FormatFieldError renders a validator field error as a single human readable line.
func FormatFieldError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", e.Field())
	case "max":
		return fmt.Sprintf("%s exceeds maximum of %s (got %v)", e.Field(), e.Param(), e.Value())
	case "min":
		return fmt.Sprintf("%s is below minimum of %s (got %v)", e.Field(), e.Param(), e.Value())
	case "gte", "lte":
		return fmt.Sprintf("%s must be %s %s (got %v)", e.Field(), e.Tag(), e.Param(), e.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s] (got %v)", e.Field(), e.Param(), e.Value())
	default:
		return fmt.Sprintf("%s failed validation %q", e.Field(), e.Tag())
	}
}

// contextReader reads typed values from CDK context, collecting errors instead of
// failing on the first one.
type contextReader struct {
	scope  constructs.Construct
	prefix string
	errs   []string
}

func (r *contextReader) fail(format string, args ...any) {
	r.errs = append(r.errs, fmt.Sprintf(format, args...))
}

func (r *contextReader) raw(key string) (any, string) {
	full := r.prefix + key
	return r.scope.Node().TryGetContext(jsii.String(full)), full
}

func (r *contextReader) str(key string) string {
	val, full := r.raw(key)
	if val == nil {
		r.fail("context key %q is not set", full)
		return ""
	}
	s, ok := val.(string)
	if !ok {
		r.fail("context key %q must be a string, got %T", full, val)
	}
	return s
}

func (r *contextReader) strs(key string) []string {
	val, full := r.raw(key)
	if val == nil {
		r.fail("context key %q is not set", full)
		return nil
	}
	items, ok := val.([]any)
	if !ok {
		r.fail("context key %q must be an array, got %T", full, val)
		return nil
	}

	out := make([]string, 0, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			r.fail("context key %q[%d] must be a string, got %T", full, i, item)
			return nil
		}
		out = append(out, s)
	}
	return out
}

// fields reads an optional whitespace separated list. Absent keys yield nil.
func (r *contextReader) fields(key string) []string {
	val, _ := r.raw(key)
	s, ok := val.(string)
	if !ok || s == "" {
		return nil
	}
	return strings.Fields(s)
}
