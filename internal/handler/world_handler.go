package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"storydive/internal/service"
)

// WorldHandler serves world CRUD endpoints.
type WorldHandler struct {
	service service.WorldService
	logger  *zap.Logger
}

// NewWorldHandler creates a WorldHandler.
func NewWorldHandler(s service.WorldService, logger *zap.Logger) *WorldHandler {
	return &WorldHandler{service: s, logger: logger.Named("WorldHandler")}
}

// RegisterRoutes mounts the world routes on an authenticated group.
func (h *WorldHandler) RegisterRoutes(g *gin.RouterGroup) {
	worlds := g.Group("/worlds")
	{
		worlds.POST("", h.createWorld)
		worlds.GET("", h.listPublicWorlds)
		worlds.GET("/my", h.listMyWorlds)
		worlds.GET("/:id", h.getWorld)
		worlds.PUT("/:id", h.updateWorld)
		worlds.DELETE("/:id", h.deleteWorld)
	}
}

func (h *WorldHandler) createWorld(c *gin.Context) {
	userID, ok := userIDFromRequest(c)
	if !ok {
		return
	}

	var input service.WorldInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.logger.Warn("Invalid world body", zap.Stringer("userID", userID), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusBadRequest, APIError{Message: "invalid request body"})
		return
	}

	world, err := h.service.Create(c.Request.Context(), userID, input)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusCreated, world)
}

func (h *WorldHandler) listPublicWorlds(c *gin.Context) {
	if _, ok := userIDFromRequest(c); !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	worlds, err := h.service.ListPublic(c.Request.Context(), limit, offset)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, worlds)
}

func (h *WorldHandler) listMyWorlds(c *gin.Context) {
	userID, ok := userIDFromRequest(c)
	if !ok {
		return
	}

	worlds, err := h.service.ListMine(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, worlds)
}

func (h *WorldHandler) getWorld(c *gin.Context) {
	userID, ok := userIDFromRequest(c)
	if !ok {
		return
	}
	worldID, ok := parseWorldID(c)
	if !ok {
		return
	}

	world, err := h.service.Get(c.Request.Context(), userID, worldID)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, world)
}

func (h *WorldHandler) updateWorld(c *gin.Context) {
	userID, ok := userIDFromRequest(c)
	if !ok {
		return
	}
	worldID, ok := parseWorldID(c)
	if !ok {
		return
	}

	var input service.WorldInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.logger.Warn("Invalid world body", zap.Stringer("worldID", worldID), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusBadRequest, APIError{Message: "invalid request body"})
		return
	}

	world, err := h.service.Update(c.Request.Context(), userID, worldID, input)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, world)
}

func (h *WorldHandler) deleteWorld(c *gin.Context) {
	userID, ok := userIDFromRequest(c)
	if !ok {
		return
	}
	worldID, ok := parseWorldID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), userID, worldID); err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	c.Status(http.StatusNoContent)
}

func parseWorldID(c *gin.Context) (uuid.UUID, bool) {
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, APIError{Message: "invalid world ID format"})
		return uuid.Nil, false
	}
	return id, true
}
