package deliveries

import (
	"net/http"
	"strconv"
	"time"

	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/auditlog"
	custom_error "github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/errors"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/metadata"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/models"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/roles"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/security"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type DeliveryHandler struct {
	Service  *Service
	AuditLog *auditlog.Auditlog
	policy   *roles.Policy
	logger   *zap.Logger
	location *time.Location
}

func NewHandler(s *Service, a *auditlog.Auditlog, policy *roles.Policy, logger *zap.Logger, location *time.Location) *DeliveryHandler {
	return &DeliveryHandler{
		Service:  s,
		AuditLog: a,
		policy:   policy,
		logger:   logger,
		location: location,
	}
}

func (h *DeliveryHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/deliveries", security.Authorize(h.policy, roles.PartsRead), h.ListDeliveries)
	router.GET("/deliveries/:id", security.Authorize(h.policy, roles.PartsRead), h.GetDelivery)
	router.POST("/deliveries", security.Authorize(h.policy, roles.DeliveryCreate), h.CreateDelivery)
	router.POST("/deliveries/batch", security.Authorize(h.policy, roles.DeliveryCreate), h.CreateDeliveryBatch)
	router.PATCH("/deliveries/:id/confirm", security.Authorize(h.policy, roles.DeliveryConfirm), h.ConfirmDelivery)
	router.PATCH("/deliveries/:id/cancel", security.Authorize(h.policy, roles.DeliveryManage), h.CancelDelivery)
	router.PATCH("/deliveries/:id", security.Authorize(h.policy, roles.DeliveryManage), h.UpdateDelivery)
	router.DELETE("/deliveries/:id", security.Authorize(h.policy, roles.DeliveryManage), h.DeleteDelivery)
}

func (h *DeliveryHandler) CreateDelivery(c *gin.Context) {
	var req CreateDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
		return
	}

	userID := security.CurrentUserID(c)
	delivery, err := h.Service.Create(c.Request.Context(), req, userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	go h.AuditLog.Log("create", req, delivery, userID)

	c.JSON(http.StatusCreated, delivery)
}

func (h *DeliveryHandler) CreateDeliveryBatch(c *gin.Context) {
	var req BatchDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
		return
	}

	userID := security.CurrentUserID(c)
	created, err := h.Service.CreateBatch(c.Request.Context(), req, userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	for i := range created {
		go h.AuditLog.Log("create_batch", req.Lines[i], &created[i], userID)
	}

	c.JSON(http.StatusCreated, created)
}

func (h *DeliveryHandler) GetDelivery(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	detail, err := h.Service.GetWithDetails(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

func (h *DeliveryHandler) ListDeliveries(c *gin.Context) {
	dateRange, err := models.ParseDateRange(c.Query("from"), c.Query("to"), h.location)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date range", "details": err.Error()})
		return
	}

	filter := models.DeliveryFilter{DateRange: dateRange}
	if v := c.Query("staff_member_id"); v != "" {
		staffID, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid staff_member_id"})
			return
		}
		filter.StaffMemberID = &staffID
	}
	if v := c.Query("part_id"); v != "" {
		partID, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid part_id"})
			return
		}
		filter.PartID = &partID
	}
	if v := c.Query("status"); v != "" {
		status, err := metadata.NewDeliveryStatus(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status", "details": err.Error()})
			return
		}
		filter.Status = &status
	}

	details, err := h.Service.ListWithDetails(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, details)
}

func (h *DeliveryHandler) ConfirmDelivery(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req ConfirmDeliveryRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
			return
		}
	}

	delivery, err := h.Service.Confirm(c.Request.Context(), id, req.Signature)
	if err != nil {
		h.respondError(c, err)
		return
	}

	go h.AuditLog.Log("confirm", req, delivery, security.CurrentUserID(c))

	c.JSON(http.StatusOK, delivery)
}

func (h *DeliveryHandler) CancelDelivery(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	delivery, err := h.Service.Cancel(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	go h.AuditLog.Log("cancel", nil, delivery, security.CurrentUserID(c))

	c.JSON(http.StatusOK, delivery)
}

func (h *DeliveryHandler) UpdateDelivery(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req UpdateDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
		return
	}

	delivery, err := h.Service.Update(c.Request.Context(), id, req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	go h.AuditLog.Log("update", req, delivery, security.CurrentUserID(c))

	c.JSON(http.StatusOK, delivery)
}

func (h *DeliveryHandler) DeleteDelivery(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	deleted, err := h.Service.Delete(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "Delivery not found"})
		return
	}

	go h.AuditLog.Log("delete", nil, &models.Delivery{ID: id}, security.CurrentUserID(c))

	c.Status(http.StatusNoContent)
}

func (h *DeliveryHandler) parseID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Delivery ID is required"})
		return 0, false
	}
	return id, true
}

func (h *DeliveryHandler) respondError(c *gin.Context, err error) {
	status := custom_error.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("Unable to process delivery request", zap.String("path", c.FullPath()), zap.Error(err))
		c.AbortWithStatusJSON(status, gin.H{"error": "transaction failure", "details": err.Error()})
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error(), "details": custom_error.Details(err)})
}
