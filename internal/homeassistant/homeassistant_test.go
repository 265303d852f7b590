package homeassistant

import (
	"strings"
	"testing"
)

func TestGenerateYAMLConfig(t *testing.T) {
	out, err := GenerateYAMLConfig("deskbox", "worktracker")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	for _, want := range []string{
		`state_topic: "worktracker/deskbox/status"`,
		`unique_id: "worktracker_deskbox_daily_time"`,
		`name: "WorkTracker - deskbox"`,
		// The Jinja templating must survive rendering untouched.
		`{% set total_seconds = value_json.total_time | int %}`,
		`{{ hours }}h`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestGenerateYAMLConfigCustomPrefix(t *testing.T) {
	out, err := GenerateYAMLConfig("deskbox", "office")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.Contains(out, `state_topic: "office/deskbox/status"`) {
		t.Fatalf("custom prefix not applied:\n%s", out)
	}
}

func TestGenerateYAMLConfigDefaultsHostname(t *testing.T) {
	out, err := GenerateYAMLConfig("", "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if strings.Contains(out, `state_topic: "worktracker//status"`) {
		t.Fatalf("hostname was not defaulted:\n%s", out)
	}
}
