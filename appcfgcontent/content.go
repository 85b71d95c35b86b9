// Package appcfgcontent detects and checks the content of AppConfig configuration
// documents. It has no CDK dependency so it can be shared between synthesis code,
// the CLI and Lambda handlers.
package appcfgcontent

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gabriel-vasile/mimetype"
	"github.com/goccy/go-yaml"
)

// Content types AppConfig understands natively.
const (
	ContentTypeJSON        = "application/json"
	ContentTypeYAML        = "application/x-yaml"
	ContentTypeText        = "text/plain"
	ContentTypeOctetStream = "application/octet-stream"
)

// MaxHostedBytes is the default AppConfig quota for hosted configuration content.
const MaxHostedBytes = 2 * 1024 * 1024

var extensionTypes = map[string]string{
	".json": ContentTypeJSON,
	".yaml": ContentTypeYAML,
	".yml":  ContentTypeYAML,
	".txt":  ContentTypeText,
}

// DetectContentType picks a content type for a configuration file. Well known
// extensions win; otherwise the data is sniffed. Anything unrecognised is treated
// as JSON, which is what AppConfig assumes for hosted documents.
func DetectContentType(path string, data []byte) string {
	if ct, ok := extensionTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return ct
	}

	mt := mimetype.Detect(data)
	base, _, _ := strings.Cut(mt.String(), ";")
	switch {
	case base == "" || base == ContentTypeOctetStream:
		return ContentTypeJSON
	case mt.Is(ContentTypeJSON):
		return ContentTypeJSON
	default:
		return strings.TrimSpace(base)
	}
}

// IsJSON reports whether the content type denotes JSON.
func IsJSON(contentType string) bool {
	base, _, _ := strings.Cut(contentType, ";")
	base = strings.TrimSpace(base)
	return base == ContentTypeJSON || strings.HasSuffix(base, "+json")
}

// IsYAML reports whether the content type denotes YAML.
func IsYAML(contentType string) bool {
	base, _, _ := strings.Cut(contentType, ";")
	switch strings.TrimSpace(base) {
	case ContentTypeYAML, "application/yaml", "text/yaml", "text/x-yaml":
		return true
	}
	return false
}

// Check verifies that data parses as the given content type. Types other than JSON
// and YAML are accepted as-is.
func Check(contentType string, data []byte) error {
	switch {
	case IsJSON(contentType):
		if !json.Valid(data) {
			return errors.Newf("content is not valid JSON")
		}
	case IsYAML(contentType):
		var v any
		if err := yaml.Unmarshal(data, &v); err != nil {
			return errors.Wrap(err, "content is not valid YAML")
		}
	}
	return nil
}
