package api

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"appliance-alarm-backend/internal/apperr"
	"appliance-alarm-backend/internal/correlation"
	"appliance-alarm-backend/internal/kv"
	"appliance-alarm-backend/internal/measurement"
	"appliance-alarm-backend/internal/model"
	"appliance-alarm-backend/internal/store"
)

// measurementCachePrefix namespaces cached measurement responses so a new
// measurement can invalidate them together.
const measurementCachePrefix = "alarmd:http:measurements:"

// DeviceRegistry is the device registry as seen by the handlers.
type DeviceRegistry interface {
	Create(ctx context.Context, device model.Device) (*model.Device, error)
	Update(ctx context.Context, id string, device model.Device) (*model.Device, store.Outcome, error)
	Delete(ctx context.Context, id string) (*model.Device, error)
	List(ctx context.Context) ([]model.Device, error)
	GetByID(ctx context.Context, id string) (*model.Device, error)
	GetByUserID(ctx context.Context, userID string) ([]model.Device, error)
}

// AlarmService is the correlation pipeline as seen by the handlers.
type AlarmService interface {
	OnMeasurement(ctx context.Context, deviceName string, samples ...model.Sample) (*correlation.Result, error)
	OnUserAlarmQuery(ctx context.Context, userID string) ([]store.AlarmView, error)
	OnUserAlarmAcknowledge(ctx context.Context, userID string) ([]store.AlarmView, error)
}

// Watermarker records reports correlated here so the poller skips them.
type Watermarker interface {
	Advance(name string, at time.Time) bool
}

// Pinger reports backing store health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators of Handler.
type Deps struct {
	Registry DeviceRegistry
	Users    store.UserStore
	Alarms   AlarmService
	Source   measurement.Source
	Cache    kv.Store
	Health   Pinger
	Marks    Watermarker
	Logger   *zap.Logger
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	registry DeviceRegistry
	users    store.UserStore
	alarms   AlarmService
	source   measurement.Source
	cache    kv.Store
	health   Pinger
	marks    Watermarker
	logger   *zap.Logger
	now      func() time.Time
}

// NewHandler creates a new API handler.
func NewHandler(d Deps) *Handler {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cache := d.Cache
	if cache == nil {
		cache = kv.NewMemory(time.Minute)
	}
	return &Handler{
		registry: d.Registry,
		users:    d.Users,
		alarms:   d.Alarms,
		source:   d.Source,
		cache:    cache,
		health:   d.Health,
		marks:    d.Marks,
		logger:   logger.Named("api"),
		now:      time.Now,
	}
}

// respondError maps an error to its status and a client-safe message. An
// unknown appliance keeps the measurement service's own status and message.
func (h *Handler) respondError(c *gin.Context, err error) {
	var srcErr *measurement.SourceError
	if errors.Is(err, apperr.ErrApplianceNotFound) && errors.As(err, &srcErr) {
		c.AbortWithStatusJSON(srcErr.Status, gin.H{"error": srcErr.Message})
		return
	}

	status := apperr.HTTPStatus(err)
	if status >= 500 {
		h.logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": apperr.PublicMessage(err)})
}
