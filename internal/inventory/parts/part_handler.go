package parts

import (
	"net/http"
	"strconv"

	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/auditlog"
	custom_error "github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/errors"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/models"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/roles"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/security"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type PartHandler struct {
	Service  *Service
	AuditLog *auditlog.Auditlog
	policy   *roles.Policy
	logger   *zap.Logger
}

func NewHandler(s *Service, a *auditlog.Auditlog, policy *roles.Policy, logger *zap.Logger) *PartHandler {
	return &PartHandler{Service: s, AuditLog: a, policy: policy, logger: logger}
}

func (h *PartHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/parts", security.Authorize(h.policy, roles.PartsRead), h.ListParts)
	router.GET("/parts/low-stock", security.Authorize(h.policy, roles.PartsRead), h.LowStock)
	router.GET("/parts/lookup/:code", security.Authorize(h.policy, roles.PartsRead), h.LookupPart)
	router.GET("/parts/:id", security.Authorize(h.policy, roles.PartsRead), h.GetPart)
	router.POST("/parts", security.Authorize(h.policy, roles.PartsManage), h.CreatePart)
	router.POST("/parts/ad-hoc", security.Authorize(h.policy, roles.DeliveryCreate), h.RegisterAdHocPart)
	router.POST("/parts/:id/restock", security.Authorize(h.policy, roles.PartsManage), h.RestockPart)
	router.PATCH("/parts/:id", security.Authorize(h.policy, roles.PartsManage), h.UpdatePart)
	router.DELETE("/parts/:id", security.Authorize(h.policy, roles.PartsManage), h.DeletePart)
}

func (h *PartHandler) ListParts(c *gin.Context) {
	filter := models.PartFilter{
		Search:          c.Query("search"),
		Category:        c.Query("category"),
		LowStockOnly:    c.Query("low_stock") == "true",
		IncludeArchived: c.Query("include_archived") == "true",
	}
	if v := c.Query("location_id"); v != "" {
		locationID, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid location_id"})
			return
		}
		filter.LocationID = &locationID
	}

	parts, err := h.Service.ListParts(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, parts)
}

func (h *PartHandler) LowStock(c *gin.Context) {
	parts, err := h.Service.LowStock(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, parts)
}

func (h *PartHandler) GetPart(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	part, err := h.Service.GetPart(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, part)
}

func (h *PartHandler) LookupPart(c *gin.Context) {
	part, err := h.Service.FindByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, part)
}

func (h *PartHandler) CreatePart(c *gin.Context) {
	var req CreatePartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
		return
	}

	part, err := h.Service.CreatePart(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	go h.AuditLog.Log("create", req, part, security.CurrentUserID(c))

	c.JSON(http.StatusCreated, part)
}

func (h *PartHandler) UpdatePart(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req UpdatePartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
		return
	}

	part, err := h.Service.UpdatePart(c.Request.Context(), id, req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	go h.AuditLog.Log("update", req, part, security.CurrentUserID(c))

	c.JSON(http.StatusOK, part)
}

func (h *PartHandler) RestockPart(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req RestockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
		return
	}

	part, err := h.Service.Restock(c.Request.Context(), id, req.Quantity)
	if err != nil {
		h.respondError(c, err)
		return
	}

	go h.AuditLog.Log("restock", req, part, security.CurrentUserID(c))

	c.JSON(http.StatusOK, part)
}

func (h *PartHandler) RegisterAdHocPart(c *gin.Context) {
	var req AdHocPartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
		return
	}

	part, created, err := h.Service.RegisterAdHocPart(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	action, status := "restock", http.StatusOK
	if created {
		action, status = "create", http.StatusCreated
	}
	go h.AuditLog.Log(action, req, part, security.CurrentUserID(c))

	c.JSON(status, part)
}

func (h *PartHandler) DeletePart(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	archived, err := h.Service.DeletePart(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	action := "delete"
	if archived {
		action = "archive"
	}
	go h.AuditLog.Log(action, nil, &models.Part{ID: id}, security.CurrentUserID(c))

	c.JSON(http.StatusOK, gin.H{"id": id, "archived": archived})
}

func parseID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Part ID is required"})
		return 0, false
	}
	return id, true
}

func (h *PartHandler) respondError(c *gin.Context, err error) {
	status := custom_error.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("Unable to process part request", zap.String("path", c.FullPath()), zap.Error(err))
		c.AbortWithStatusJSON(status, gin.H{"error": "transaction failure", "details": err.Error()})
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error(), "details": custom_error.Details(err)})
}
