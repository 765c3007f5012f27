package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rickgao/gift-heatmap/internal/delivery"
)

// SendImage relays {id, image} to the Telegram user id.
func (h *Handler) SendImage(c *gin.Context) {
	if h.relay == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "relay is not configured"})
		return
	}

	var req delivery.SendRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ID == "" || req.Image == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing image or user_id"})
		return
	}

	if err := h.relay.Relay(c.Request.Context(), req); err != nil {
		h.logger.Error("send image failed", "user_id", req.ID, "error", err)
		status := http.StatusInternalServerError
		if errors.Is(err, delivery.ErrMissingField) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": "Failed to send image"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"done": true})
}
