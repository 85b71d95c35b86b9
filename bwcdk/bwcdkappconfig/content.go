package bwcdkappconfig

import (
	"os"

	"github.com/basewarphq/bwappcfg/appcfgcontent"
	"github.com/cockroachdb/errors"
)

// ConfigurationContent is the content of a hosted configuration version.
type ConfigurationContent struct {
	Content     string
	ContentType string
}

// ContentFromFile reads content from path. Without an explicit content type it is
// derived from the file extension, or sniffed from the data.
func ContentFromFile(path string, contentType ...string) (ConfigurationContent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ConfigurationContent{}, errors.Wrapf(err, "reading configuration content %s", path)
	}
	ct := firstOr(contentType, "")
	if ct == "" {
		ct = appcfgcontent.DetectContentType(path, data)
	}
	return ConfigurationContent{Content: string(data), ContentType: ct}, nil
}

// ContentFromInline uses content as-is. The content type defaults to
// application/octet-stream.
func ContentFromInline(content string, contentType ...string) ConfigurationContent {
	return ConfigurationContent{
		Content:     content,
		ContentType: firstOr(contentType, appcfgcontent.ContentTypeOctetStream),
	}
}

// ContentFromInlineJSON uses content as application/json.
func ContentFromInlineJSON(content string) ConfigurationContent {
	return ConfigurationContent{Content: content, ContentType: appcfgcontent.ContentTypeJSON}
}

// ContentFromInlineYAML uses content as application/x-yaml.
func ContentFromInlineYAML(content string) ConfigurationContent {
	return ConfigurationContent{Content: content, ContentType: appcfgcontent.ContentTypeYAML}
}

// ContentFromInlineText uses content as text/plain.
func ContentFromInlineText(content string) ConfigurationContent {
	return ConfigurationContent{Content: content, ContentType: appcfgcontent.ContentTypeText}
}

func firstOr(vals []string, def string) string {
	if len(vals) > 0 && vals[0] != "" {
		return vals[0]
	}
	return def
}

// checkContent verifies size and, for feature flags, shape. Content that is a CDK
// token is not inspected.
func checkContent(typ ConfigurationType, c ConfigurationContent) error {
	if isToken(&c.Content) {
		return nil
	}
	if len(c.Content) > appcfgcontent.MaxHostedBytes {
		return errors.Newf("hosted content is %d bytes, exceeds maximum of %d",
			len(c.Content), appcfgcontent.MaxHostedBytes)
	}
	if typ == ConfigurationTypeFeatureFlags {
		if !appcfgcontent.IsJSON(c.ContentType) {
			return errors.Newf("feature flags content must be %s, got %q",
				appcfgcontent.ContentTypeJSON, c.ContentType)
		}
		if _, err := appcfgcontent.ParseFeatureFlags([]byte(c.Content)); err != nil {
			return err
		}
		return nil
	}
	return appcfgcontent.Check(c.ContentType, []byte(c.Content))
}
