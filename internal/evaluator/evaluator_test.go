package evaluator

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"appliance-alarm-backend/internal/model"
)

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func TestEvaluate_Boundary(t *testing.T) {
	at := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	e := New(fixedClock(at))
	thresholds := model.Thresholds{"temperature": 30}

	testCases := []struct {
		name    string
		value   float64
		trigger bool
	}{
		{"above", 32, true},
		{"equal", 30, false},
		{"below", 28, false},
		{"just above", 30.0001, true},
		{"nan", math.NaN(), false},
		{"inf", math.Inf(1), false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			alarms := e.Evaluate(thresholds, "fridge-1", model.Sample{Type: "temperature", Value: tc.value})
			if !tc.trigger {
				assert.Empty(t, alarms)
				return
			}
			require.Len(t, alarms, 1)
			assert.Equal(t, model.Alarm{
				CreatedAt: at,
				Device:    "fridge-1",
				Type:      "temperature",
				Threshold: 30,
				Value:     tc.value,
				Read:      false,
			}, alarms[0])
		})
	}
}

func TestEvaluate_MissingConfiguration(t *testing.T) {
	e := New(nil)
	sample := model.Sample{Type: "temperature", Value: 99}

	assert.Empty(t, e.Evaluate(nil, "fridge-1", sample))
	assert.Empty(t, e.Evaluate(model.Thresholds{}, "fridge-1", sample))
	assert.Empty(t, e.Evaluate(model.Thresholds{"humidity": 50}, "fridge-1", sample))
	assert.Empty(t, e.Evaluate(model.Thresholds{"temperature": 30}, "fridge-1"))
}

func TestEvaluate_MultipleSamples(t *testing.T) {
	e := New(nil)
	thresholds := model.Thresholds{"humidity": 70, "temperature": 30}

	alarms := e.Evaluate(thresholds, "fridge-1",
		model.Sample{Type: "humidity", Value: 75},
		model.Sample{Type: "power", Value: 1e6},
		model.Sample{Type: "temperature", Value: 31},
	)

	require.Len(t, alarms, 2)
	assert.Equal(t, "humidity", alarms[0].Type)
	assert.Equal(t, "temperature", alarms[1].Type)
	assert.Equal(t, alarms[0].CreatedAt, alarms[1].CreatedAt)
}
