package directory

import (
	"net/http"
	"strconv"

	custom_error "github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/errors"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/roles"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/security"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type DirectoryHandler struct {
	Repository Repository
	policy     *roles.Policy
	logger     *zap.Logger
}

func NewHandler(r Repository, policy *roles.Policy, logger *zap.Logger) *DirectoryHandler {
	return &DirectoryHandler{Repository: r, policy: policy, logger: logger}
}

func (h *DirectoryHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/staff", security.Authorize(h.policy, roles.PartsRead), h.GetStaffMembers)
	router.GET("/staff/:id", security.Authorize(h.policy, roles.PartsRead), h.GetStaffMember)
	router.GET("/buildings", security.Authorize(h.policy, roles.PartsRead), h.GetBuildings)
	router.GET("/cost-centers", security.Authorize(h.policy, roles.PartsRead), h.GetCostCenters)
}

func (h *DirectoryHandler) GetStaffMembers(c *gin.Context) {
	members, err := h.Repository.ListStaffMembers(c.Request.Context())
	if err != nil {
		h.internalError(c, "Could not list staff members", err)
		return
	}
	c.JSON(http.StatusOK, members)
}

func (h *DirectoryHandler) GetStaffMember(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid staff member ID"})
		return
	}

	member, err := h.Repository.GetStaffMember(c.Request.Context(), id)
	if custom_error.IsNotFound(err) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Staff member not found"})
		return
	} else if err != nil {
		h.internalError(c, "Could not get staff member", err)
		return
	}
	c.JSON(http.StatusOK, member)
}

func (h *DirectoryHandler) GetBuildings(c *gin.Context) {
	buildings, err := h.Repository.ListBuildings(c.Request.Context())
	if err != nil {
		h.internalError(c, "Could not list buildings", err)
		return
	}
	c.JSON(http.StatusOK, buildings)
}

func (h *DirectoryHandler) GetCostCenters(c *gin.Context) {
	centers, err := h.Repository.ListCostCenters(c.Request.Context())
	if err != nil {
		h.internalError(c, "Could not list cost centers", err)
		return
	}
	c.JSON(http.StatusOK, centers)
}

func (h *DirectoryHandler) internalError(c *gin.Context, message string, err error) {
	h.logger.Error(message, zap.Error(err))
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": message, "details": err.Error()})
}
