package issuance

import (
	"net/http"
	"strconv"
	"time"

	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/auditlog"
	custom_error "github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/errors"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/models"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/roles"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/security"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type IssuanceHandler struct {
	Service  *Service
	AuditLog *auditlog.Auditlog
	policy   *roles.Policy
	logger   *zap.Logger
	location *time.Location
}

func NewHandler(s *Service, a *auditlog.Auditlog, policy *roles.Policy, logger *zap.Logger, location *time.Location) *IssuanceHandler {
	return &IssuanceHandler{
		Service:  s,
		AuditLog: a,
		policy:   policy,
		logger:   logger,
		location: location,
	}
}

func (h *IssuanceHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/issuances", security.Authorize(h.policy, roles.PartsRead), h.ListIssuances)
	router.GET("/issuances/:id", security.Authorize(h.policy, roles.PartsRead), h.GetIssuance)
	router.POST("/issuances", security.Authorize(h.policy, roles.IssuanceCreate), h.CreateIssuance)
	router.POST("/issuances/bulk", security.Authorize(h.policy, roles.IssuanceCreate), h.CreateBulkIssuance)
	router.PATCH("/issuances/:id", security.Authorize(h.policy, roles.IssuanceManage), h.UpdateIssuance)
	router.DELETE("/issuances/:id", security.Authorize(h.policy, roles.IssuanceManage), h.DeleteIssuance)
}

func (h *IssuanceHandler) CreateIssuance(c *gin.Context) {
	var req CreateIssuanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
		return
	}

	userID := security.CurrentUserID(c)
	issuance, err := h.Service.Create(c.Request.Context(), req, userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	go h.AuditLog.Log("create", req, issuance, userID)

	c.JSON(http.StatusCreated, issuance)
}

func (h *IssuanceHandler) CreateBulkIssuance(c *gin.Context) {
	var req BulkIssuanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
		return
	}

	userID := security.CurrentUserID(c)
	created, err := h.Service.CreateBulk(c.Request.Context(), req, userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	for i := range created {
		go h.AuditLog.Log("create_bulk", req.Lines[i], &created[i], userID)
	}

	c.JSON(http.StatusCreated, created)
}

func (h *IssuanceHandler) GetIssuance(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	issuance, err := h.Service.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, issuance)
}

func (h *IssuanceHandler) ListIssuances(c *gin.Context) {
	dateRange, err := models.ParseDateRange(c.Query("from"), c.Query("to"), h.location)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date range", "details": err.Error()})
		return
	}

	filter := models.IssuanceFilter{
		IssuedTo:  c.Query("issued_to"),
		DateRange: dateRange,
	}
	if v := c.Query("part_id"); v != "" {
		partID, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid part_id"})
			return
		}
		filter.PartID = &partID
	}
	if v := c.Query("building_id"); v != "" {
		buildingID, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid building_id"})
			return
		}
		filter.BuildingID = &buildingID
	}

	issuances, err := h.Service.List(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, issuances)
}

func (h *IssuanceHandler) UpdateIssuance(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req UpdateIssuanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
		return
	}

	issuance, err := h.Service.Update(c.Request.Context(), id, req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	go h.AuditLog.Log("update", req, issuance, security.CurrentUserID(c))

	c.JSON(http.StatusOK, issuance)
}

func (h *IssuanceHandler) DeleteIssuance(c *gin.Context) {
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
		c.JSON(http.StatusNotFound, gin.H{"error": "Issuance not found"})
		return
	}

	go h.AuditLog.Log("delete", nil, &models.Issuance{ID: id}, security.CurrentUserID(c))

	c.Status(http.StatusNoContent)
}

func (h *IssuanceHandler) parseID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Issuance ID is required"})
		return 0, false
	}
	return id, true
}

func (h *IssuanceHandler) respondError(c *gin.Context, err error) {
	status := custom_error.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("Unable to process issuance request", zap.String("path", c.FullPath()), zap.Error(err))
		c.AbortWithStatusJSON(status, gin.H{"error": "transaction failure", "details": err.Error()})
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error(), "details": custom_error.Details(err)})
}
