package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"appliance-alarm-backend/internal/apperr"
	"appliance-alarm-backend/internal/measurement"
	"appliance-alarm-backend/internal/metrics"
)

// GetMeasurements handles GET /api/measurements.
func (h *Handler) GetMeasurements(c *gin.Context) {
	list, err := h.source.GetMeasurements(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orEmpty(list))
}

// GetApplianceMeasurements handles GET /api/measurements/{name}.
func (h *Handler) GetApplianceMeasurements(c *gin.Context) {
	list, err := h.source.GetApplianceMeasurements(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orEmpty(list))
}

// CreateMeasurement handles POST /api/measurements. The payload is stored
// upstream, each report is correlated, and the full measurement set is
// returned. Reports from unregistered devices or orphaned devices are
// skipped; storage failures fail the request.
//
// Reports are claimed in the watermarks before they reach the service, so
// the poller never correlates them a second time.
func (h *Handler) CreateMeasurement(c *gin.Context) {
	ctx := c.Request.Context()

	raw, err := c.GetRawData()
	if err != nil || measurement.IsEmpty(raw) {
		h.logger.Warn("unable to create measurement due to bad request")
		h.respondError(c, apperr.ErrInvalidArguments)
		return
	}
	reports, err := measurement.Decode(raw)
	if err != nil {
		h.respondError(c, apperr.Validation("CreateMeasurement", err.Error()))
		return
	}

	payload, err := h.claimReports(reports, raw)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if err := h.source.CreateMeasurement(ctx, payload); err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.cache.DeletePrefix(ctx, measurementCachePrefix); err != nil {
		h.logger.Warn("measurement cache invalidation failed", zap.Error(err))
	}

	for _, m := range reports {
		samples := m.Samples()
		if len(samples) == 0 {
			continue
		}
		for range samples {
			metrics.IncMeasurement(metrics.SourceAPI)
		}
		if _, err := h.alarms.OnMeasurement(ctx, m.Name, samples...); err != nil {
			if apperr.KindOf(err) == apperr.KindNotFound {
				h.logger.Warn("measurement not attributed", zap.String("name", m.Name), zap.Error(err))
				continue
			}
			h.respondError(c, err)
			return
		}
	}

	list, err := h.source.GetMeasurements(ctx)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orEmpty(list))
}

// claimReports advances the watermark of every report. Reports without a
// timestamp are stamped with the handler clock and the payload is
// re-encoded; otherwise the raw payload is forwarded unchanged.
func (h *Handler) claimReports(reports []measurement.Measurement, raw []byte) (json.RawMessage, error) {
	if h.marks == nil {
		return json.RawMessage(raw), nil
	}

	stamped := false
	for i := range reports {
		if reports[i].Timestamp.IsZero() {
			reports[i].Timestamp = h.now().UTC()
			stamped = true
		}
		h.marks.Advance(reports[i].Name, reports[i].Timestamp)
	}
	if !stamped {
		return json.RawMessage(raw), nil
	}

	var (
		encoded []byte
		err     error
	)
	if len(reports) == 1 && bytes.TrimSpace(raw)[0] != '[' {
		encoded, err = json.Marshal(reports[0])
	} else {
		encoded, err = json.Marshal(reports)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode measurements: %w", err)
	}
	return encoded, nil
}

func orEmpty(list []measurement.Measurement) []measurement.Measurement {
	if list == nil {
		return []measurement.Measurement{}
	}
	return list
}
