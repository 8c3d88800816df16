package measurement

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"appliance-alarm-backend/config"
	"appliance-alarm-backend/internal/apperr"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(config.SourceConfig{
		BaseURL: server.URL,
		Timeout: 2 * time.Second,
		Headers: map[string]string{"X-Api-Key": "secret"},
	}, zap.NewNop())
}

func TestClient_GetMeasurements(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/measurements", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"name":"fridge-1","type":"temperature","value":32,"timestamp":"2024-06-01T10:00:00Z"}]`))
	})

	got, err := client.GetMeasurements(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "fridge-1", got[0].Name)
	require.NotNil(t, got[0].Value)
	assert.Equal(t, 32.0, *got[0].Value)
}

func TestClient_GetApplianceMeasurements_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/measurements/unknown-device", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"appliance unknown-device not found"}`))
	})

	_, err := client.GetApplianceMeasurements(context.Background(), "unknown-device")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrApplianceNotFound)

	var srcErr *SourceError
	require.True(t, errors.As(err, &srcErr))
	assert.Equal(t, http.StatusNotFound, srcErr.Status)
	assert.Equal(t, "appliance unknown-device not found", srcErr.Message)
}

func TestClient_GetApplianceMeasurements_GenericFailure(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := client.GetApplianceMeasurements(context.Background(), "fridge-1")
	require.Error(t, err)
	assert.False(t, errors.Is(err, apperr.ErrApplianceNotFound))
	assert.ErrorIs(t, err, apperr.ErrSourceFetch)
	assert.Equal(t, int32(1), calls.Load())

	var srcErr *SourceError
	require.True(t, errors.As(err, &srcErr))
	assert.Equal(t, "Service Unavailable", srcErr.Message)
}

func TestClient_CreateMeasurement(t *testing.T) {
	var received []byte
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		received, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
	})

	payload := json.RawMessage(`{"name":"fridge-1","type":"temperature","value":32}`)
	require.NoError(t, client.CreateMeasurement(context.Background(), payload))
	assert.JSONEq(t, string(payload), string(received))
}

func TestClient_CreateMeasurement_EmptyPayload(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("empty payload must not reach the upstream")
	})

	for _, raw := range []string{"", "null", "{}", "[]", " { } "} {
		err := client.CreateMeasurement(context.Background(), json.RawMessage(raw))
		assert.ErrorIs(t, err, apperr.ErrInvalidArguments, raw)
	}
}
