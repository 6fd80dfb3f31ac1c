package locations

import (
	"net/http"
	"strconv"

	custom_error "github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/errors"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/roles"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/security"
	"github.com/gin-gonic/gin"
)

type LocationHandler struct {
	Repository Repository
	policy     *roles.Policy
}

func NewLocationHandler(r Repository, policy *roles.Policy) *LocationHandler {
	return &LocationHandler{Repository: r, policy: policy}
}

func (h *LocationHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/locations", security.Authorize(h.policy, roles.PartsRead), h.GetLocations)
	router.GET("/locations/:id/shelves", security.Authorize(h.policy, roles.PartsRead), h.GetShelves)
}

func (h *LocationHandler) GetLocations(c *gin.Context) {
	locations, err := h.Repository.ListLocations(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Could not list locations", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, locations)
}

func (h *LocationHandler) GetShelves(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid location ID"})
		return
	}

	if _, err := h.Repository.GetLocation(c.Request.Context(), id); err != nil {
		if custom_error.IsNotFound(err) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Location not found"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Could not get location", "details": err.Error()})
		return
	}

	shelves, err := h.Repository.ListShelves(c.Request.Context(), id)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Could not list shelves", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, shelves)
}
