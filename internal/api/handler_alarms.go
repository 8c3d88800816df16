package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"appliance-alarm-backend/internal/report"
	"appliance-alarm-backend/internal/store"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// GetAlarms handles GET /api/users/{user_id}/alarms.
func (h *Handler) GetAlarms(c *gin.Context) {
	views, err := h.alarms.OnUserAlarmQuery(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orEmptyViews(views))
}

// ReadAlarms handles POST /api/users/{user_id}/alarms/read.
func (h *Handler) ReadAlarms(c *gin.Context) {
	views, err := h.alarms.OnUserAlarmAcknowledge(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orEmptyViews(views))
}

// ExportAlarms handles GET /api/users/{user_id}/alarms/export.
func (h *Handler) ExportAlarms(c *gin.Context) {
	userID := c.Param("user_id")
	views, err := h.alarms.OnUserAlarmQuery(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	data, err := report.BuildAlarmsXLSX(userID, views, h.now())
	if err != nil {
		h.respondError(c, fmt.Errorf("failed to render alarm export: %w", err))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="alarms-%s.xlsx"`, userID))
	c.Data(http.StatusOK, xlsxContentType, data)
}

func orEmptyViews(views []store.AlarmView) []store.AlarmView {
	if views == nil {
		return []store.AlarmView{}
	}
	return views
}
