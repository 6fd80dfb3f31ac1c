package auditlog

import (
	"net/http"
	"strconv"

	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/models"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/roles"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/security"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	Repository Repository
	policy     *roles.Policy
	logger     *zap.Logger
}

func NewHandler(r Repository, policy *roles.Policy, logger *zap.Logger) *Handler {
	return &Handler{Repository: r, policy: policy, logger: logger}
}

func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/history/:resource/:id", security.Authorize(h.policy, roles.ReportsRead), h.GetResourceHistory)
}

func (h *Handler) GetResourceHistory(c *gin.Context) {
	resource := c.Param("resource")
	if !models.IsAuditedResource(resource) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown resource type", "details": resource})
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Resource ID is required"})
		return
	}

	logs, err := h.Repository.GetResourceLog(c.Request.Context(), id, resource)
	if err != nil {
		h.logger.Error("Unable to load history", zap.String("resource", resource), zap.Int("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not load history", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, logs)
}
