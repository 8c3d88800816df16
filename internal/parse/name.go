package parse

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxNameLength matches the size of the devices.name column.
const MaxNameLength = 128

var (
	spaceRe = regexp.MustCompile(`\s+`)
	// '/', '+' and '#' would break MQTT topic routing for the appliance.
	forbiddenRe = regexp.MustCompile(`[/+#\x00-\x1f]`)
)

// DeviceName normalizes a human-assigned device label: surrounding space is
// trimmed and inner runs of whitespace collapse to one space.
func DeviceName(raw string) (string, error) {
	s := strings.TrimSpace(spaceRe.ReplaceAllString(raw, " "))
	if s == "" {
		return "", fmt.Errorf("device name is empty")
	}
	if utf8.RuneCountInString(s) > MaxNameLength {
		return "", fmt.Errorf("device name %q exceeds %d characters", s, MaxNameLength)
	}
	if forbiddenRe.MatchString(s) {
		return "", fmt.Errorf("device name %q contains a reserved character", s)
	}
	return s, nil
}

// TopicAppliance extracts the appliance name from topic at the position of
// the single-level wildcard '+' in pattern, e.g. pattern
// "appliances/+/measurements" and topic "appliances/fridge-1/measurements"
// yield "fridge-1".
func TopicAppliance(pattern, topic string) (string, error) {
	pp := strings.Split(pattern, "/")
	tp := strings.Split(topic, "/")

	idx := -1
	for i, seg := range pp {
		if seg == "+" {
			idx = i
			break
		}
	}
	if idx < 0 {
		return "", fmt.Errorf("pattern %q has no '+' segment", pattern)
	}
	if len(tp) != len(pp) {
		return "", fmt.Errorf("topic %q does not match pattern %q", topic, pattern)
	}
	for i, seg := range pp {
		if seg != "+" && seg != tp[i] {
			return "", fmt.Errorf("topic %q does not match pattern %q", topic, pattern)
		}
	}

	return DeviceName(tp[idx])
}
