package tools

import (
	"net/http"
	"strconv"

	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/auditlog"
	custom_error "github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/errors"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/metadata"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/models"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/roles"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/security"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ToolHandler struct {
	Service  *Service
	AuditLog *auditlog.Auditlog
	policy   *roles.Policy
	logger   *zap.Logger
}

func NewHandler(s *Service, a *auditlog.Auditlog, policy *roles.Policy, logger *zap.Logger) *ToolHandler {
	return &ToolHandler{
		Service:  s,
		AuditLog: a,
		policy:   policy,
		logger:   logger,
	}
}

func (h *ToolHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/tools", security.Authorize(h.policy, roles.ToolsRead), h.ListTools)
	router.GET("/tools/next-number", security.Authorize(h.policy, roles.ToolsRead), h.NextToolNumber)
	router.GET("/tools/:id", security.Authorize(h.policy, roles.ToolsRead), h.GetTool)
	router.POST("/tools", security.Authorize(h.policy, roles.ToolsManage), h.CreateTool)
	router.PATCH("/tools/:id", security.Authorize(h.policy, roles.ToolsManage), h.UpdateTool)
	router.DELETE("/tools/:id", security.Authorize(h.policy, roles.ToolsManage), h.DeleteTool)
	router.POST("/tools/:id/signout", security.Authorize(h.policy, roles.ToolsSignout), h.SignOutTool)
	router.PATCH("/signouts/:id/return", security.Authorize(h.policy, roles.ToolsSignout), h.ReturnTool)
	router.GET("/signouts", security.Authorize(h.policy, roles.ToolsRead), h.ListSignouts)
}

func (h *ToolHandler) ListTools(c *gin.Context) {
	tools, err := h.Service.ListTools(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tools)
}

func (h *ToolHandler) NextToolNumber(c *gin.Context) {
	number, err := h.Service.NextToolNumber(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tool_number": number})
}

func (h *ToolHandler) GetTool(c *gin.Context) {
	id, ok := parseID(c, "Tool ID is required")
	if !ok {
		return
	}

	tool, err := h.Service.GetTool(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tool)
}

func (h *ToolHandler) CreateTool(c *gin.Context) {
	var req CreateToolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
		return
	}

	tool, err := h.Service.CreateTool(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	go h.AuditLog.Log("create", req, tool, security.CurrentUserID(c))

	c.JSON(http.StatusCreated, tool)
}

func (h *ToolHandler) UpdateTool(c *gin.Context) {
	id, ok := parseID(c, "Tool ID is required")
	if !ok {
		return
	}

	var req UpdateToolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
		return
	}

	tool, err := h.Service.UpdateTool(c.Request.Context(), id, req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	go h.AuditLog.Log("update", req, tool, security.CurrentUserID(c))

	c.JSON(http.StatusOK, tool)
}

func (h *ToolHandler) DeleteTool(c *gin.Context) {
	id, ok := parseID(c, "Tool ID is required")
	if !ok {
		return
	}

	deleted, err := h.Service.DeleteTool(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "Tool not found"})
		return
	}

	go h.AuditLog.Log("delete", nil, &models.Tool{ID: id}, security.CurrentUserID(c))

	c.Status(http.StatusNoContent)
}

func (h *ToolHandler) SignOutTool(c *gin.Context) {
	id, ok := parseID(c, "Tool ID is required")
	if !ok {
		return
	}

	var req SignOutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
		return
	}

	signout, err := h.Service.SignOut(c.Request.Context(), id, req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	go h.AuditLog.Log("signout", req, signout, security.CurrentUserID(c))

	c.JSON(http.StatusCreated, signout)
}

func (h *ToolHandler) ReturnTool(c *gin.Context) {
	id, ok := parseID(c, "Signout ID is required")
	if !ok {
		return
	}

	var req ReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
		return
	}

	signout, err := h.Service.Return(c.Request.Context(), id, req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	go h.AuditLog.Log("return", req, signout, security.CurrentUserID(c))

	c.JSON(http.StatusOK, signout)
}

func (h *ToolHandler) ListSignouts(c *gin.Context) {
	var filter models.SignoutFilter
	if v := c.Query("tool_id"); v != "" {
		toolID, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tool_id"})
			return
		}
		filter.ToolID = &toolID
	}
	if v := c.Query("technician_id"); v != "" {
		technicianID, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid technician_id"})
			return
		}
		filter.TechnicianID = &technicianID
	}
	if v := c.Query("status"); v != "" {
		status, err := metadata.NewSignoutStatus(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status", "details": err.Error()})
			return
		}
		filter.Status = &status
	}

	signouts, err := h.Service.ListSignouts(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, signouts)
}

func parseID(c *gin.Context, message string) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": message})
		return 0, false
	}
	return id, true
}

func (h *ToolHandler) respondError(c *gin.Context, err error) {
	status := custom_error.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("Unable to process tool request", zap.String("path", c.FullPath()), zap.Error(err))
		c.AbortWithStatusJSON(status, gin.H{"error": "transaction failure", "details": err.Error()})
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error(), "details": custom_error.Details(err)})
}
