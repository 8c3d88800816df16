package measurement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"appliance-alarm-backend/internal/model"
)

func TestMeasurement_Samples(t *testing.T) {
	ts := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	v := 32.0
	m := Measurement{
		Name:      "fridge-1",
		Type:      "temperature",
		Value:     &v,
		Values:    map[string]float64{"temperature": 10, "humidity": 55, "": 1},
		Timestamp: ts,
	}

	assert.Equal(t, []model.Sample{
		{Type: "humidity", Value: 55, Timestamp: ts},
		{Type: "temperature", Value: 32, Timestamp: ts},
	}, m.Samples())

	assert.Empty(t, Measurement{Name: "fridge-1", Type: "temperature"}.Samples())
}

func TestDecode(t *testing.T) {
	one, err := Decode([]byte(`{"name":"fridge-1","values":{"temperature":31}}`))
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, 31.0, one[0].Values["temperature"])

	many, err := Decode([]byte(` [{"name":"a"},{"name":"b"}]`))
	require.NoError(t, err)
	assert.Len(t, many, 2)

	_, err = Decode([]byte(`{"name":`))
	assert.Error(t, err)
	_, err = Decode(nil)
	assert.Error(t, err)
}

func TestIsEmpty(t *testing.T) {
	for _, raw := range []string{"", "  ", "null", "{}", "[]", `""`, "{\n}"} {
		assert.True(t, IsEmpty([]byte(raw)), raw)
	}
	for _, raw := range []string{`{"name":"x"}`, `[1]`, `0`} {
		assert.False(t, IsEmpty([]byte(raw)), raw)
	}
}
