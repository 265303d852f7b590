// Package homeassistant generates ready-to-paste Home Assistant MQTT
// sensor configuration for a worktracker host.
package homeassistant

import (
	"fmt"
	"os"
	"strings"
	"text/template"
)

// The rendered output embeds Jinja templating ({{ }}/{% %}) consumed
// by Home Assistant itself, so the Go template uses [[ ]] delimiters.
const sensorTemplate = `mqtt:
  sensor:
    # Daily Total Active Time (formatted as hours:minutes)
    - name: "WorkTracker Daily Time"
      unique_id: "worktracker_[[ .Hostname ]]_daily_time"
      state_topic: "[[ .TopicPrefix ]]/[[ .Hostname ]]/status"
      value_template: >
        {% set total_seconds = value_json.total_time | int %}
        {% set hours = (total_seconds / 3600) | int %}
        {% set minutes = ((total_seconds % 3600) / 60) | int %}
        {% if hours > 0 %}{{ hours }}h {% if minutes > 0 %}{{ minutes }}m{% endif %}{% else %}{{ minutes }}m{% endif %}
      icon: "mdi:clock-outline"
      device:
        identifiers:
          - "worktracker_[[ .Hostname ]]"
        name: "WorkTracker - [[ .Hostname ]]"
        manufacturer: "WorkTracker"
        model: "WorkTracker"
`

// GenerateYAMLConfig renders the sensor configuration for the given
// hostname and topic prefix. An empty hostname falls back to the
// machine's hostname.
func GenerateYAMLConfig(hostname, topicPrefix string) (string, error) {
	if hostname == "" {
		var err error
		hostname, err = os.Hostname()
		if err != nil {
			return "", fmt.Errorf("resolve hostname: %w", err)
		}
	}
	if topicPrefix == "" {
		topicPrefix = "worktracker"
	}

	tmpl, err := template.New("sensor").Delims("[[", "]]").Parse(sensorTemplate)
	if err != nil {
		return "", fmt.Errorf("parse sensor template: %w", err)
	}

	var out strings.Builder
	err = tmpl.Execute(&out, struct {
		Hostname    string
		TopicPrefix string
	}{hostname, topicPrefix})
	if err != nil {
		return "", fmt.Errorf("render sensor template: %w", err)
	}
	return out.String(), nil
}
