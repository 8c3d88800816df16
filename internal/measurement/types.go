package measurement

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"appliance-alarm-backend/internal/model"
)

// Measurement is one appliance report. A report carries either a single
// typed value or a map of values keyed by type, or both.
type Measurement struct {
	Name      string             `json:"name"`
	Type      string             `json:"type,omitempty"`
	Value     *float64           `json:"value,omitempty"`
	Values    map[string]float64 `json:"values,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}

// Samples flattens the report into typed samples sorted by type. The single
// value wins over a map entry of the same type.
func (m Measurement) Samples() []model.Sample {
	merged := make(map[string]float64, len(m.Values)+1)
	for k, v := range m.Values {
		if k != "" {
			merged[k] = v
		}
	}
	if m.Type != "" && m.Value != nil {
		merged[m.Type] = *m.Value
	}

	samples := make([]model.Sample, 0, len(merged))
	for k, v := range merged {
		samples = append(samples, model.Sample{Type: k, Value: v, Timestamp: m.Timestamp})
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i].Type < samples[j].Type })
	return samples
}

// IsEmpty reports whether a raw payload carries no content: nothing, null,
// an empty object or an empty array.
func IsEmpty(raw []byte) bool {
	trimmed := bytes.TrimSpace(raw)
	switch string(trimmed) {
	case "", "null", "{}", "[]", `""`:
		return true
	}
	compact := new(bytes.Buffer)
	if err := json.Compact(compact, trimmed); err == nil {
		switch compact.String() {
		case "{}", "[]":
			return true
		}
	}
	return false
}

// Decode reads a payload holding a single measurement object or an array of them.
func Decode(raw []byte) ([]Measurement, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty measurement payload")
	}
	if trimmed[0] == '[' {
		var list []Measurement
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("failed to decode measurements: %w", err)
		}
		return list, nil
	}
	var one Measurement
	if err := json.Unmarshal(trimmed, &one); err != nil {
		return nil, fmt.Errorf("failed to decode measurement: %w", err)
	}
	return []Measurement{one}, nil
}
