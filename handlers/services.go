package handlers

import (
	"net/http"

	"meridian/apperrors"
	"meridian/models"
	"meridian/services/catalog"
	"meridian/utils"

	"github.com/gin-gonic/gin"
)

type CatalogHandler struct {
	Catalog catalog.Service
}

func NewCatalogHandler(svc catalog.Service) *CatalogHandler {
	return &CatalogHandler{Catalog: svc}
}

// GetAvailableServices handles GET /api/services.
func (h *CatalogHandler) GetAvailableServices(c *gin.Context) {
	services, err := h.Catalog.ListPublished(c.Request.Context())
	if err != nil {
		utils.WriteError(c, getLogger(c), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"services": services})
}

// GetServiceByID hides unpublished services from non-admins.
func (h *CatalogHandler) GetServiceByID(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	id := c.Param("id")
	svc, err := h.Catalog.Get(c.Request.Context(), id)
	if err == nil && !svc.Published && !caller.IsAdmin() {
		err = apperrors.NotFound("service", id)
	}
	if err != nil {
		utils.WriteError(c, getLogger(c), err)
		return
	}
	c.JSON(http.StatusOK, svc)
}

// UpsertService handles PUT /api/admin/services/:id.
func (h *CatalogHandler) UpsertService(c *gin.Context) {
	var svc models.Service
	if !bindJSON(c, &svc) {
		return
	}
	svc.ID = c.Param("id")
	if err := h.Catalog.Upsert(c.Request.Context(), &svc); err != nil {
		utils.WriteError(c, getLogger(c), err)
		return
	}
	c.JSON(http.StatusOK, svc)
}
