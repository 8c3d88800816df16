// Package measurement is the client of the upstream measurement service.
package measurement

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"appliance-alarm-backend/config"
	"appliance-alarm-backend/internal/apperr"
)

// Source provides appliance measurements keyed by appliance name.
type Source interface {
	GetMeasurements(ctx context.Context) ([]Measurement, error)
	GetApplianceMeasurements(ctx context.Context, name string) ([]Measurement, error)
	CreateMeasurement(ctx context.Context, content json.RawMessage) error
}

// SourceError keeps the upstream status and message so a not-found answer
// can be passed on to clients unchanged.
type SourceError struct {
	Status  int
	Message string
	Err     error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("measurement source returned %d: %s", e.Status, e.Message)
}

func (e *SourceError) Unwrap() error { return e.Err }

// upstreamError is the error body shape of the measurement service.
type upstreamError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Client talks to the measurement service over HTTP. Failed calls are not retried.
type Client struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewClient creates a measurement service client.
func NewClient(cfg config.SourceConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	for k, v := range cfg.Headers {
		client.SetHeader(k, v)
	}

	return &Client{httpClient: client, logger: logger.Named("measurement")}
}

// GetMeasurements returns the full current measurement set.
func (c *Client) GetMeasurements(ctx context.Context) ([]Measurement, error) {
	var out []Measurement
	var upErr upstreamError
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&out).
		SetError(&upErr).
		Get("/measurements")
	if err != nil {
		c.logger.Error("could not list measurements", zap.Error(err))
		return nil, apperr.Upstream("GetMeasurements", err)
	}
	if resp.IsError() {
		c.logger.Error("measurement service error", zap.Int("status_code", resp.StatusCode()))
		return nil, apperr.Upstream("GetMeasurements", newSourceError(resp, &upErr, nil))
	}
	return out, nil
}

// GetApplianceMeasurements returns the current measurements of one
// appliance. An unknown appliance yields a *SourceError wrapping
// apperr.ErrApplianceNotFound.
func (c *Client) GetApplianceMeasurements(ctx context.Context, name string) ([]Measurement, error) {
	var out []Measurement
	var upErr upstreamError
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&out).
		SetError(&upErr).
		Get("/measurements/" + url.PathEscape(name))
	if err != nil {
		c.logger.Error("could not fetch appliance measurement", zap.String("name", name), zap.Error(err))
		return nil, apperr.Upstream("GetApplianceMeasurements", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, newSourceError(resp, &upErr,
			apperr.Wrap(apperr.ErrApplianceNotFound, "GetApplianceMeasurements", "appliance", name))
	}
	if resp.IsError() {
		c.logger.Error("measurement service error", zap.String("name", name), zap.Int("status_code", resp.StatusCode()))
		return nil, apperr.Upstream("GetApplianceMeasurements", newSourceError(resp, &upErr, nil))
	}
	return out, nil
}

// CreateMeasurement forwards a measurement payload. Empty payloads are
// rejected with apperr.ErrInvalidArguments before any request is made.
func (c *Client) CreateMeasurement(ctx context.Context, content json.RawMessage) error {
	if IsEmpty(content) {
		return apperr.Wrap(apperr.ErrInvalidArguments, "CreateMeasurement", "", "")
	}

	var upErr upstreamError
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody([]byte(content)).
		SetError(&upErr).
		Post("/measurements")
	if err != nil {
		c.logger.Error("could not create measurement", zap.Error(err))
		return apperr.Upstream("CreateMeasurement", err)
	}
	if resp.IsError() {
		c.logger.Error("measurement service rejected payload", zap.Int("status_code", resp.StatusCode()))
		return apperr.Upstream("CreateMeasurement", newSourceError(resp, &upErr, nil))
	}
	return nil
}

func newSourceError(resp *resty.Response, body *upstreamError, cause error) *SourceError {
	msg := body.Error
	if msg == "" {
		msg = body.Message
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode())
	}
	return &SourceError{Status: resp.StatusCode(), Message: msg, Err: cause}
}
