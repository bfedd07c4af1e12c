package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storydive/internal/service"
)

// AdventureHandler serves the ongoing-adventure list endpoints.
type AdventureHandler struct {
	service service.AdventureService
	logger  *zap.Logger
}

// NewAdventureHandler creates an AdventureHandler.
func NewAdventureHandler(s service.AdventureService, logger *zap.Logger) *AdventureHandler {
	return &AdventureHandler{service: s, logger: logger.Named("AdventureHandler")}
}

// RegisterRoutes mounts the adventure routes on an authenticated group.
func (h *AdventureHandler) RegisterRoutes(g *gin.RouterGroup) {
	adventures := g.Group("/adventures")
	{
		adventures.GET("/ongoing", h.listOngoing)
		adventures.DELETE("/:session_id", h.deleteAdventure)
	}
}

func (h *AdventureHandler) listOngoing(c *gin.Context) {
	userID, ok := userIDFromRequest(c)
	if !ok {
		return
	}

	adventures, err := h.service.List(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, gin.H{"adventures": adventures})
}

func (h *AdventureHandler) deleteAdventure(c *gin.Context) {
	userID, ok := userIDFromRequest(c)
	if !ok {
		return
	}

	sessionID := c.Param("session_id")
	if sessionID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, APIError{Message: "session_id is required"})
		return
	}

	if err := h.service.Delete(c.Request.Context(), userID, sessionID); err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	c.Status(http.StatusNoContent)
}
