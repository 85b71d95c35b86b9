package appcfgcontent_test

import (
	"testing"

	"github.com/basewarphq/bwappcfg/appcfgcontent"
	"github.com/cockroachdb/errors"
)

func TestParseFeatureFlags(t *testing.T) {
	t.Parallel()

	doc, err := appcfgcontent.ParseFeatureFlags([]byte(`{
		"version": "1",
		"flags": {
			"newCheckout": {
				"name": "New checkout",
				"attributes": {"limit": {"constraints": {"type": "number", "required": true}}}
			},
			"darkMode": {"name": "Dark mode"}
		},
		"values": {
			"newCheckout": {"enabled": true, "limit": 10},
			"darkMode": {"enabled": false}
		}
	}`))
	if err != nil {
		t.Fatalf("ParseFeatureFlags() error = %v", err)
	}
	if len(doc.Flags) != 2 {
		t.Errorf("Flags = %d, want 2", len(doc.Flags))
	}
	if doc.Values["newCheckout"]["enabled"] != true {
		t.Errorf("newCheckout.enabled = %v, want true", doc.Values["newCheckout"]["enabled"])
	}
}

func TestParseFeatureFlags_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
	}{
		{"not json", `flags: {}`},
		{"wrong version", `{"version":"2","flags":{}}`},
		{"missing flags", `{"version":"1"}`},
		{"bad flag key", `{"version":"1","flags":{"Bad Key":{"name":"x"}}}`},
		{"flag without name", `{"version":"1","flags":{"a":{}}}`},
		{"undeclared value", `{"version":"1","flags":{"a":{"name":"A"}},"values":{"b":{"enabled":true}}}`},
		{"enabled not bool", `{"version":"1","flags":{"a":{"name":"A"}},"values":{"a":{"enabled":"yes"}}}`},
		{"unsupported attribute type", `{"version":"1","flags":{"a":{"name":"A","attributes":{"x":{"constraints":{"type":"object"}}}}}}`},
		{"missing required attribute", `{"version":"1","flags":{"a":{"name":"A","attributes":{"x":{"constraints":{"type":"string","required":true}}}}},"values":{"a":{"enabled":true}}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := appcfgcontent.ParseFeatureFlags([]byte(tt.data))
			if !errors.Is(err, appcfgcontent.ErrFeatureFlags) {
				t.Errorf("ParseFeatureFlags() error = %v, want ErrFeatureFlags", err)
			}
		})
	}
}

func TestParseFeatureFlags_ProblemsAreOrdered(t *testing.T) {
	t.Parallel()

	data := `{"version":"1","flags":{"a":{"name":"A","attributes":{
		"zeta":{"constraints":{"type":"string","required":true}},
		"beta":{"constraints":{"type":"object"}},
		"alpha":{"constraints":{"type":"string","required":true}},
		"gamma":{"constraints":{"type":"list"}}
	}}},"values":{"a":{"enabled":true}}}`

	want := `attribute "a.beta" has unsupported type "object"; ` +
		`attribute "a.gamma" has unsupported type "list"; ` +
		`value "a" is missing required attribute "alpha"; ` +
		`value "a" is missing required attribute "zeta"`
	for range 10 {
		_, err := appcfgcontent.ParseFeatureFlags([]byte(data))
		if err == nil || err.Error() != want {
			t.Fatalf("ParseFeatureFlags() error = %v, want %q", err, want)
		}
	}
}
