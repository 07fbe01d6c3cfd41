package handlers

import (
	"net/http"

	"meridian/models"
	"meridian/services/registry"
	"meridian/utils"

	"github.com/gin-gonic/gin"
)

// RegistryHandler serves provider, patient and package administration.
type RegistryHandler struct {
	Registry registry.Service
}

func NewRegistryHandler(svc registry.Service) *RegistryHandler {
	return &RegistryHandler{Registry: svc}
}

// providerInput is what an admin may set when registering a provider.
type providerInput struct {
	Name            string             `json:"name" binding:"required"`
	Phone           string             `json:"phone" binding:"required"`
	ServiceArea     models.ServiceArea `json:"serviceArea" binding:"required"`
	OfferedServices []string           `json:"offeredServices" binding:"required"`
	Rating          float64            `json:"rating"`
	CompletionRate  float64            `json:"completionRate"`
	Territory       string             `json:"territory"`
	ExperienceYears int                `json:"experienceYears"`
	FCMToken        string             `json:"fcmToken"`
}

func (h *RegistryHandler) RegisterProvider(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	var in providerInput
	if !bindJSON(c, &in) {
		return
	}
	p, err := h.Registry.RegisterProvider(c.Request.Context(), caller, &models.Provider{
		Name:            in.Name,
		Phone:           in.Phone,
		ServiceArea:     in.ServiceArea,
		OfferedServices: in.OfferedServices,
		Rating:          in.Rating,
		CompletionRate:  in.CompletionRate,
		Territory:       in.Territory,
		ExperienceYears: in.ExperienceYears,
		FCMToken:        in.FCMToken,
	})
	if err != nil {
		utils.WriteError(c, getLogger(c), err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *RegistryHandler) ListProviders(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	filter := models.ProviderFilter{
		ServiceArea: models.ServiceArea(c.Query("serviceArea")),
		Status:      models.ProviderStatus(c.Query("status")),
	}
	providers, err := h.Registry.ListProviders(c.Request.Context(), caller, filter)
	if err != nil {
		utils.WriteError(c, getLogger(c), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"providers": providers, "count": len(providers)})
}

func (h *RegistryHandler) GetProvider(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	p, err := h.Registry.GetProvider(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		utils.WriteError(c, getLogger(c), err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// SetProviderStatus handles PATCH /api/admin/providers/:id/status.
func (h *RegistryHandler) SetProviderStatus(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	var in struct {
		Status models.ProviderStatus `json:"status" binding:"required"`
	}
	if !bindJSON(c, &in) {
		return
	}
	p, err := h.Registry.SetProviderStatus(c.Request.Context(), caller, c.Param("id"), in.Status)
	if err != nil {
		utils.WriteError(c, getLogger(c), err)
		return
	}
	c.JSON(http.StatusOK, p)
}

type patientInput struct {
	Name             string             `json:"name" binding:"required"`
	Phone            string             `json:"phone" binding:"required"`
	Condition        string             `json:"condition"`
	ServiceArea      models.ServiceArea `json:"serviceArea" binding:"required"`
	Address          string             `json:"address"`
	InitialPainScore int                `json:"initialPainScore"`
	FCMToken         string             `json:"fcmToken"`
}

func (h *RegistryHandler) CreatePatient(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	var in patientInput
	if !bindJSON(c, &in) {
		return
	}
	p, err := h.Registry.CreatePatient(c.Request.Context(), caller, &models.Patient{
		Name:             in.Name,
		Phone:            in.Phone,
		Condition:        in.Condition,
		ServiceArea:      in.ServiceArea,
		Address:          in.Address,
		InitialPainScore: in.InitialPainScore,
		FCMToken:         in.FCMToken,
	})
	if err != nil {
		utils.WriteError(c, getLogger(c), err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *RegistryHandler) GetPatient(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	p, err := h.Registry.GetPatient(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		utils.WriteError(c, getLogger(c), err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// PurchasePackage handles POST /api/patients/:id/packages.
func (h *RegistryHandler) PurchasePackage(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	var in struct {
		Type models.PackageType `json:"type" binding:"required"`
	}
	if !bindJSON(c, &in) {
		return
	}
	pkg, err := h.Registry.PurchasePackage(c.Request.Context(), caller, c.Param("id"), in.Type)
	if err != nil {
		utils.WriteError(c, getLogger(c), err)
		return
	}
	c.JSON(http.StatusCreated, pkg)
}

func (h *RegistryHandler) GetPackage(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	pkg, err := h.Registry.GetPackage(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		utils.WriteError(c, getLogger(c), err)
		return
	}
	c.JSON(http.StatusOK, pkg)
}

// GetProgress handles GET /api/patients/:id/progress.
func (h *RegistryHandler) GetProgress(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	report, err := h.Registry.Progress(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		utils.WriteError(c, getLogger(c), err)
		return
	}
	c.JSON(http.StatusOK, report)
}
