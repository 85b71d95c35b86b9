package appcfgcontent

import (
	"encoding/json"
	"regexp"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
)

// FeatureFlagsVersion is the only schema version of AWS.AppConfig.FeatureFlags documents.
const FeatureFlagsVersion = "1"

// ErrFeatureFlags is returned (wrapped) for every feature flag document problem.
var ErrFeatureFlags = errors.New("invalid feature flags document")

var flagNamePattern = regexp.MustCompile(`^[a-z][a-zA-Z\d_-]{0,63}$`)

// FeatureFlags is the AWS.AppConfig.FeatureFlags document layout.
type FeatureFlags struct {
	Version string                    `json:"version"`
	Flags   map[string]FlagDefinition `json:"flags"`
	Values  map[string]map[string]any `json:"values"`
}

// FlagDefinition declares a flag and its attributes.
type FlagDefinition struct {
	Name        string                         `json:"name"`
	Description string                         `json:"description,omitempty"`
	Attributes  map[string]AttributeDefinition `json:"attributes,omitempty"`
}

// AttributeDefinition constrains a flag attribute value.
type AttributeDefinition struct {
	Constraints *AttributeConstraints `json:"constraints,omitempty"`
}

// AttributeConstraints are the value constraints AppConfig enforces for attributes.
type AttributeConstraints struct {
	Type     string `json:"type"`
	Required bool   `json:"required,omitempty"`
}

var attributeTypes = []string{"string", "number", "boolean", "string[]", "number[]"}

// ParseFeatureFlags decodes and checks a feature flags document.
func ParseFeatureFlags(data []byte) (*FeatureFlags, error) {
	var doc FeatureFlags
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "decoding feature flags"), ErrFeatureFlags)
	}

	var problems []string
	if doc.Version != FeatureFlagsVersion {
		problems = append(problems, "version must be \""+FeatureFlagsVersion+"\", got \""+doc.Version+"\"")
	}
	if doc.Flags == nil {
		problems = append(problems, "flags is required")
	}

	for _, key := range sortedKeys(doc.Flags) {
		if !flagNamePattern.MatchString(key) {
			problems = append(problems, "flag key \""+key+"\" is not a valid identifier")
		}
		if doc.Flags[key].Name == "" {
			problems = append(problems, "flag \""+key+"\" has no name")
		}
		attrs := doc.Flags[key].Attributes
		for _, attr := range sortedKeys(attrs) {
			def := attrs[attr]
			if def.Constraints != nil && !slices.Contains(attributeTypes, def.Constraints.Type) {
				problems = append(problems, "attribute \""+key+"."+attr+"\" has unsupported type \""+def.Constraints.Type+"\"")
			}
		}
	}

	for _, key := range sortedKeys(doc.Values) {
		flag, ok := doc.Flags[key]
		if !ok {
			problems = append(problems, "value for undeclared flag \""+key+"\"")
			continue
		}
		if enabled, ok := doc.Values[key]["enabled"]; ok {
			if _, isBool := enabled.(bool); !isBool {
				problems = append(problems, "value \""+key+".enabled\" must be a boolean")
			}
		}
		for _, attr := range sortedKeys(flag.Attributes) {
			def := flag.Attributes[attr]
			if def.Constraints == nil || !def.Constraints.Required {
				continue
			}
			if _, ok := doc.Values[key][attr]; !ok {
				problems = append(problems, "value \""+key+"\" is missing required attribute \""+attr+"\"")
			}
		}
	}

	if len(problems) > 0 {
		return nil, errors.Mark(errors.Newf("%s", strings.Join(problems, "; ")), ErrFeatureFlags)
	}
	return &doc, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
