//nolint:paralleltest // jsii runtime doesn't support parallel tests
package bwcdkappconfig_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-cdk-go/awscdk/v2/assertions"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsiam"
	"github.com/aws/aws-cdk-go/awscdk/v2/awss3"
	"github.com/aws/aws-cdk-go/awscdk/v2/awssecretsmanager"
	"github.com/aws/jsii-runtime-go"
	"github.com/basewarphq/bwappcfg/bwcdk/bwcdkappconfig"
)

func TestContentFromFile_ContentType(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		file     string
		data     string
		explicit string
		want     string
	}{
		{"config.json", `{"a":1}`, "", "application/json"},
		{"config.yaml", "a: 1\n", "", "application/x-yaml"},
		{"config.yml", "a: 1\n", "", "application/x-yaml"},
		{"notes.txt", "hello", "", "text/plain"},
		{"config.conf", `{"a":1}`, "", "application/json"},
		{"readme.conf", "just some words\n", "", "text/plain"},
		{"config.json", `{"a":1}`, "application/vnd.custom+json", "application/vnd.custom+json"},
	}
	for _, tt := range tests {
		t.Run(tt.file+"/"+tt.explicit, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			if err := os.WriteFile(path, []byte(tt.data), 0o600); err != nil {
				t.Fatal(err)
			}

			var got bwcdkappconfig.ConfigurationContent
			var err error
			if tt.explicit != "" {
				got, err = bwcdkappconfig.ContentFromFile(path, tt.explicit)
			} else {
				got, err = bwcdkappconfig.ContentFromFile(path)
			}
			if err != nil {
				t.Fatalf("ContentFromFile() error = %v", err)
			}
			if got.ContentType != tt.want {
				t.Errorf("ContentType = %q, want %q", got.ContentType, tt.want)
			}
			if got.Content != tt.data {
				t.Errorf("Content = %q, want %q", got.Content, tt.data)
			}
		})
	}
}

func TestContentFromFile_Missing(t *testing.T) {
	if _, err := bwcdkappconfig.ContentFromFile(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestContentFromInline_ContentType(t *testing.T) {
	tests := []struct {
		name    string
		content bwcdkappconfig.ConfigurationContent
		want    string
	}{
		{"default", bwcdkappconfig.ContentFromInline("x"), "application/octet-stream"},
		{"explicit", bwcdkappconfig.ContentFromInline("x", "text/csv"), "text/csv"},
		{"json", bwcdkappconfig.ContentFromInlineJSON("{}"), "application/json"},
		{"yaml", bwcdkappconfig.ContentFromInlineYAML("a: 1"), "application/x-yaml"},
		{"text", bwcdkappconfig.ContentFromInlineText("x"), "text/plain"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.content.ContentType != tt.want {
				t.Errorf("ContentType = %q, want %q", tt.content.ContentType, tt.want)
			}
		})
	}
}

func TestHostedConfiguration_Resources(t *testing.T) {
	defer jsii.Close()

	_, stack := newTestStack()
	application := bwcdkappconfig.NewApplication(stack, "App", bwcdkappconfig.ApplicationProps{})
	cfg := application.AddHostedConfiguration("Settings", bwcdkappconfig.HostedConfigurationOptions{
		Content:      bwcdkappconfig.ContentFromInlineYAML("retries: 3\n"),
		VersionLabel: jsii.String("v1"),
	})

	if cfg.Type() != bwcdkappconfig.ConfigurationTypeFreeform {
		t.Errorf("Type() = %q, want freeform", cfg.Type())
	}

	template := assertions.Template_FromStack(stack, nil)
	template.HasResourceProperties(jsii.String("AWS::AppConfig::ConfigurationProfile"), map[string]any{
		"Name":        "testqual-dev-settings",
		"LocationUri": "hosted",
		"Type":        "AWS.Freeform",
	})
	template.HasResourceProperties(jsii.String("AWS::AppConfig::HostedConfigurationVersion"), map[string]any{
		"Content":      "retries: 3\n",
		"ContentType":  "application/x-yaml",
		"VersionLabel": "v1",
	})
}

func TestHostedConfiguration_FeatureFlags(t *testing.T) {
	defer jsii.Close()

	_, stack := newTestStack()
	application := bwcdkappconfig.NewApplication(stack, "App", bwcdkappconfig.ApplicationProps{})

	application.AddHostedConfiguration("Flags", bwcdkappconfig.HostedConfigurationOptions{
		ConfigurationOptions: bwcdkappconfig.ConfigurationOptions{Type: bwcdkappconfig.ConfigurationTypeFeatureFlags},
		Content:              bwcdkappconfig.ContentFromInlineJSON(flagsJSON),
	})

	template := assertions.Template_FromStack(stack, nil)
	template.HasResourceProperties(jsii.String("AWS::AppConfig::ConfigurationProfile"), map[string]any{
		"Type": "AWS.AppConfig.FeatureFlags",
	})
}

func TestHostedConfiguration_InvalidContent(t *testing.T) {
	defer jsii.Close()

	_, stack := newTestStack()
	application := bwcdkappconfig.NewApplication(stack, "App", bwcdkappconfig.ApplicationProps{})
	flags := bwcdkappconfig.ConfigurationOptions{Type: bwcdkappconfig.ConfigurationTypeFeatureFlags}

	tests := []struct {
		name string
		opts bwcdkappconfig.HostedConfigurationOptions
	}{
		{"feature flags as yaml", bwcdkappconfig.HostedConfigurationOptions{
			ConfigurationOptions: flags,
			Content:              bwcdkappconfig.ContentFromInlineYAML("flags: {}"),
		}},
		{"feature flags wrong version", bwcdkappconfig.HostedConfigurationOptions{
			ConfigurationOptions: flags,
			Content:              bwcdkappconfig.ContentFromInlineJSON(`{"version":"2","flags":{}}`),
		}},
		{"invalid json", bwcdkappconfig.HostedConfigurationOptions{
			Content: bwcdkappconfig.ContentFromInlineJSON(`{"a":`),
		}},
		{"too large", bwcdkappconfig.HostedConfigurationOptions{
			Content: bwcdkappconfig.ContentFromInlineText(strings.Repeat("x", 2*1024*1024+1)),
		}},
		{"no content", bwcdkappconfig.HostedConfigurationOptions{}},
		{"unknown type", bwcdkappconfig.HostedConfigurationOptions{
			ConfigurationOptions: bwcdkappconfig.ConfigurationOptions{Type: "AWS.Other"},
			Content:              bwcdkappconfig.ContentFromInlineJSON(`{}`),
		}},
		{"bad schema", bwcdkappconfig.HostedConfigurationOptions{
			ConfigurationOptions: bwcdkappconfig.ConfigurationOptions{
				Validators: []bwcdkappconfig.Validator{bwcdkappconfig.JSONSchemaValidator("{not json")},
			},
			Content: bwcdkappconfig.ContentFromInlineJSON(`{}`),
		}},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mustPanic(t, func() {
				application.AddHostedConfiguration("Bad"+string(rune('A'+i)), tt.opts)
			})
		})
	}
}

func TestHostedConfiguration_JSONSchemaValidator(t *testing.T) {
	defer jsii.Close()

	_, stack := newTestStack()
	application := bwcdkappconfig.NewApplication(stack, "App", bwcdkappconfig.ApplicationProps{})
	schema := `{"type":"object"}`

	application.AddHostedConfiguration("Validated", bwcdkappconfig.HostedConfigurationOptions{
		ConfigurationOptions: bwcdkappconfig.ConfigurationOptions{
			Validators: []bwcdkappconfig.Validator{bwcdkappconfig.JSONSchemaValidator(schema)},
		},
		Content: bwcdkappconfig.ContentFromInlineJSON(`{}`),
	})

	template := assertions.Template_FromStack(stack, nil)
	template.HasResourceProperties(jsii.String("AWS::AppConfig::ConfigurationProfile"), map[string]any{
		"Validators": []any{map[string]any{"Type": "JSON_SCHEMA", "Content": schema}},
	})
}

func TestJSONSchemaValidatorFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.json")
	if err := os.WriteFile(path, []byte(`{"type":"object"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := bwcdkappconfig.JSONSchemaValidatorFromFile(path); err != nil {
		t.Errorf("JSONSchemaValidatorFromFile() error = %v", err)
	}

	bad := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(bad, []byte(`{`), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := bwcdkappconfig.JSONSchemaValidatorFromFile(bad); err == nil {
		t.Error("expected error for invalid schema")
	}
}

func TestSourcedConfiguration_S3RetrievalRole(t *testing.T) {
	defer jsii.Close()

	_, stack := newTestStack()
	application := bwcdkappconfig.NewApplication(stack, "App", bwcdkappconfig.ApplicationProps{})
	bucket := awss3.Bucket_FromBucketName(stack, jsii.String("Bucket"), jsii.String("config-bucket"))

	cfg := application.AddSourcedConfiguration("FromS3", bwcdkappconfig.SourcedConfigurationOptions{
		Location: bwcdkappconfig.SourceFromBucket(bucket, "app/config.json", nil),
	})

	if cfg.RetrievalRole() == nil {
		t.Fatal("RetrievalRole() should not be nil")
	}
	if cfg.Location().Kind() != bwcdkappconfig.SourceKindS3 {
		t.Errorf("Kind() = %q, want S3", cfg.Location().Kind())
	}

	template := assertions.Template_FromStack(stack, nil)
	template.HasResourceProperties(jsii.String("AWS::AppConfig::ConfigurationProfile"), map[string]any{
		"LocationUri": "s3://config-bucket/app/config.json",
	})
	template.HasResourceProperties(jsii.String("AWS::IAM::Role"), map[string]any{
		"AssumeRolePolicyDocument": assertions.Match_ObjectLike(&map[string]any{
			"Statement": []any{assertions.Match_ObjectLike(&map[string]any{
				"Principal": map[string]any{"Service": "appconfig.amazonaws.com"},
			})},
		}),
		"Policies": assertions.Match_ArrayWith(&[]any{assertions.Match_ObjectLike(&map[string]any{
			"PolicyName": "AllowAppConfigReadFromSource",
			"PolicyDocument": assertions.Match_ObjectLike(&map[string]any{
				"Statement": assertions.Match_ArrayWith(&[]any{assertions.Match_ObjectLike(&map[string]any{
					"Action": []any{"s3:GetObject", "s3:GetObjectMetadata", "s3:GetObjectVersion"},
				})}),
			}),
		})}),
	})
}

func TestSourcedConfiguration_SecretRetrievalRole(t *testing.T) {
	defer jsii.Close()

	_, stack := newTestStack()
	application := bwcdkappconfig.NewApplication(stack, "App", bwcdkappconfig.ApplicationProps{})
	secret := awssecretsmanager.Secret_FromSecretNameV2(stack, jsii.String("Secret"), jsii.String("app-config"))

	application.AddSourcedConfiguration("FromSecret", bwcdkappconfig.SourcedConfigurationOptions{
		Location: bwcdkappconfig.SourceFromSecret(secret),
	})

	template := assertions.Template_FromStack(stack, nil)
	template.HasResourceProperties(jsii.String("AWS::AppConfig::ConfigurationProfile"), map[string]any{
		"LocationUri": "secretsmanager://app-config",
	})
	template.HasResourceProperties(jsii.String("AWS::IAM::Role"), map[string]any{
		"Policies": assertions.Match_ArrayWith(&[]any{assertions.Match_ObjectLike(&map[string]any{
			"PolicyDocument": assertions.Match_ObjectLike(&map[string]any{
				"Statement": assertions.Match_ArrayWith(&[]any{assertions.Match_ObjectLike(&map[string]any{
					"Action": "secretsmanager:GetSecretValue",
				})}),
			}),
		})}),
	})
}

func TestSourcedConfiguration_ExistingRole(t *testing.T) {
	defer jsii.Close()

	app, stack := newTestStack()
	application := bwcdkappconfig.NewApplication(stack, "App", bwcdkappconfig.ApplicationProps{})
	bucket := awss3.Bucket_FromBucketName(stack, jsii.String("Bucket"), jsii.String("existing"))
	role := awsiam.Role_FromRoleArn(stack, jsii.String("Role"),
		jsii.String("arn:aws:iam::123456789012:role/appconfig-reader"), nil)

	application.AddSourcedConfiguration("FromS3", bwcdkappconfig.SourcedConfigurationOptions{
		Location:      bwcdkappconfig.SourceFromBucket(bucket, "config.json", nil),
		RetrievalRole: role,
	})

	if got := len(resources(t, app, "AWS::IAM::Role")); got != 0 {
		t.Errorf("expected no roles to be created, got %d", got)
	}
	for _, profile := range resources(t, app, "AWS::AppConfig::ConfigurationProfile") {
		if got := properties(profile)["RetrievalRoleArn"]; got != "arn:aws:iam::123456789012:role/appconfig-reader" {
			t.Errorf("RetrievalRoleArn = %v", got)
		}
	}
}

func TestConfiguration_GrantRead(t *testing.T) {
	defer jsii.Close()

	app, stack := newTestStack()
	application := bwcdkappconfig.NewApplication(stack, "App", bwcdkappconfig.ApplicationProps{})
	cfg := application.AddHostedConfiguration("Config", hosted(`{}`))
	role := awsiam.NewRole(stack, jsii.String("Reader"), &awsiam.RoleProps{
		AssumedBy: awsiam.NewServicePrincipal(jsii.String("lambda.amazonaws.com"), nil),
	})

	cfg.GrantRead(role)

	policies := resources(t, app, "AWS::IAM::Policy")
	if len(policies) != 1 {
		t.Fatalf("expected 1 policy, got %d", len(policies))
	}
	for _, policy := range policies {
		raw, _ := json.Marshal(properties(policy))
		for _, action := range []string{"appconfig:StartConfigurationSession", "appconfig:GetLatestConfiguration"} {
			if !strings.Contains(string(raw), action) {
				t.Errorf("policy %s does not contain %s", raw, action)
			}
		}
		if !strings.Contains(string(raw), "/environment/*/configuration/") {
			t.Errorf("policy %s is not scoped to the configuration profile", raw)
		}
	}
}
