package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storydive/internal/service"
)

// StoryHandler serves the player action endpoint.
type StoryHandler struct {
	service service.StoryService
	logger  *zap.Logger
}

// NewStoryHandler creates a StoryHandler.
func NewStoryHandler(s service.StoryService, logger *zap.Logger) *StoryHandler {
	return &StoryHandler{service: s, logger: logger.Named("StoryHandler")}
}

// RegisterRoutes mounts the story routes on an authenticated group.
func (h *StoryHandler) RegisterRoutes(g *gin.RouterGroup) {
	g.POST("/action", h.handleAction)
}

func (h *StoryHandler) handleAction(c *gin.Context) {
	userID, ok := userIDFromRequest(c)
	if !ok {
		return
	}

	var req service.ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid action request body", zap.Stringer("userID", userID), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusBadRequest, APIError{Message: "invalid request body"})
		return
	}

	resp, err := h.service.HandleAction(c.Request.Context(), userID, req)
	if err != nil {
		h.logger.Warn("Action failed",
			zap.Stringer("userID", userID),
			zap.String("actionType", req.ActionType),
			zap.String("sessionID", req.SessionID),
			zap.Error(err))
		handleServiceError(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, resp)
}
