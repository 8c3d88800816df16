package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"appliance-alarm-backend/internal/apperr"
	"appliance-alarm-backend/internal/model"
	"appliance-alarm-backend/internal/store"
)

type createUserRequest struct {
	Name       string           `json:"name"`
	Email      string           `json:"email"`
	Thresholds model.Thresholds `json:"thresholds"`
}

// CreateUser handles POST /api/users.
func (h *Handler) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user := &model.User{
		Name:       req.Name,
		Email:      req.Email,
		Thresholds: datatypes.NewJSONType(req.Thresholds),
	}
	if err := h.users.CreateUser(c.Request.Context(), user); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// GetUser handles GET /api/users/{user_id}.
func (h *Handler) GetUser(c *gin.Context) {
	id := c.Param("user_id")
	user, err := h.users.FindUser(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if user == nil {
		h.respondError(c, apperr.Wrap(apperr.ErrUserNotFound, "GetUser", "user", id))
		return
	}
	c.JSON(http.StatusOK, user)
}

// PutThresholds handles PUT /api/users/{user_id}/thresholds.
func (h *Handler) PutThresholds(c *gin.Context) {
	var thresholds model.Thresholds
	if err := c.ShouldBindJSON(&thresholds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id := c.Param("user_id")
	outcome, err := h.users.UpdateThresholds(c.Request.Context(), id, thresholds)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if outcome == store.NoMatch {
		h.respondError(c, apperr.Wrap(apperr.ErrUserNotFound, "PutThresholds", "user", id))
		return
	}
	c.JSON(http.StatusOK, thresholds)
}
