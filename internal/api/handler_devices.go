package api

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"appliance-alarm-backend/internal/apperr"
	"appliance-alarm-backend/internal/model"
	"appliance-alarm-backend/internal/store"
)

type deviceRequest struct {
	Name     string          `json:"name" binding:"required"`
	UserID   string          `json:"userId" binding:"required"`
	Metadata json.RawMessage `json:"metadata"`
}

func (r deviceRequest) toModel() model.Device {
	d := model.Device{Name: r.Name, UserID: r.UserID}
	if len(r.Metadata) > 0 && string(r.Metadata) != "null" {
		d.Metadata = datatypes.JSON(r.Metadata)
	}
	return d
}

// ListDevices handles GET /api/devices.
func (h *Handler) ListDevices(c *gin.Context) {
	devices, err := h.registry.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	if devices == nil {
		devices = []model.Device{}
	}
	c.JSON(http.StatusOK, devices)
}

// GetDevice handles GET /api/devices/{id}.
func (h *Handler) GetDevice(c *gin.Context) {
	id := c.Param("id")
	device, err := h.registry.GetByID(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if device == nil {
		h.respondError(c, apperr.Wrap(apperr.ErrDeviceNotFound, "GetDevice", "device", id))
		return
	}
	c.JSON(http.StatusOK, device)
}

// CreateDevice handles POST /api/devices.
func (h *Handler) CreateDevice(c *gin.Context) {
	var req deviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	device, err := h.registry.Create(c.Request.Context(), req.toModel())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, device)
}

// UpdateDevice handles PUT /api/devices/{id}. An id that matches nothing is
// answered with 404.
func (h *Handler) UpdateDevice(c *gin.Context) {
	var req deviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id := c.Param("id")
	device, outcome, err := h.registry.Update(c.Request.Context(), id, req.toModel())
	if err != nil {
		h.respondError(c, err)
		return
	}
	if outcome == store.NoMatch {
		h.respondError(c, apperr.Wrap(apperr.ErrDeviceNotFound, "UpdateDevice", "device", id))
		return
	}
	c.JSON(http.StatusOK, device)
}

// DeleteDevice handles DELETE /api/devices/{id}. Deleting an absent device
// succeeds with no content.
func (h *Handler) DeleteDevice(c *gin.Context) {
	device, err := h.registry.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if device == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, device)
}

// GetUserDevices handles GET /api/users/{user_id}/devices.
func (h *Handler) GetUserDevices(c *gin.Context) {
	devices, err := h.registry.GetByUserID(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if devices == nil {
		devices = []model.Device{}
	}
	c.JSON(http.StatusOK, devices)
}
