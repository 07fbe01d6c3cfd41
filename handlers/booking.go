package handlers

import (
	"net/http"
	"strconv"

	"meridian/apperrors"
	"meridian/models"
	"meridian/services/booking"
	"meridian/services/dispatch"
	"meridian/utils"

	"github.com/gin-gonic/gin"
)

// BookingHandler serves the booking lifecycle and dispatch endpoints.
type BookingHandler struct {
	Bookings booking.Service
	Dispatch dispatch.Matcher
}

func NewBookingHandler(bookings booking.Service, matcher dispatch.Matcher) *BookingHandler {
	return &BookingHandler{Bookings: bookings, Dispatch: matcher}
}

// CreateBooking handles POST /api/bookings.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	var input booking.CreateInput
	if !bindJSON(c, &input) {
		return
	}
	b, err := h.Bookings.Create(c.Request.Context(), caller, input)
	if err != nil {
		utils.WriteError(c, getLogger(c), err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

// ListBookings handles GET /api/bookings?status=&limit=.
func (h *BookingHandler) ListBookings(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	q := booking.ListQuery{Status: models.BookingStatus(c.Query("status"))}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			utils.WriteError(c, getLogger(c), apperrors.Validation("limit must be a number"))
			return
		}
		q.Limit = limit
	}
	bookings, err := h.Bookings.List(c.Request.Context(), caller, q)
	if err != nil {
		utils.WriteError(c, getLogger(c), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings, "count": len(bookings)})
}

func (h *BookingHandler) GetBooking(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	b, err := h.Bookings.Get(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		utils.WriteError(c, getLogger(c), err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// GetCandidates handles GET /api/bookings/:id/candidates.
func (h *BookingHandler) GetCandidates(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	providers, err := h.Dispatch.Candidates(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		utils.WriteError(c, getLogger(c), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"providers": providers})
}

// AssignProvider handles POST /api/bookings/:id/assign.
func (h *BookingHandler) AssignProvider(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	var input struct {
		ProviderID string `json:"providerId" binding:"required"`
	}
	if !bindJSON(c, &input) {
		return
	}
	b, err := h.Dispatch.Assign(c.Request.Context(), caller, c.Param("id"), input.ProviderID)
	if err != nil {
		utils.WriteError(c, getLogger(c), err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) ConfirmBooking(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	b, err := h.Bookings.Confirm(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		utils.WriteError(c, getLogger(c), err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) StartSession(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	b, err := h.Bookings.Start(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		utils.WriteError(c, getLogger(c), err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// CompleteSession handles POST /api/bookings/:id/complete with the session log.
func (h *BookingHandler) CompleteSession(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	var input booking.CompleteInput
	if !bindJSON(c, &input) {
		return
	}
	b, err := h.Bookings.Complete(c.Request.Context(), caller, c.Param("id"), input)
	if err != nil {
		utils.WriteError(c, getLogger(c), err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) CancelBooking(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	var input struct {
		Reason string `json:"reason"`
	}
	// The reason is optional, so is the body.
	if c.Request.ContentLength > 0 && !bindJSON(c, &input) {
		return
	}
	b, err := h.Bookings.Cancel(c.Request.Context(), caller, c.Param("id"), input.Reason)
	if err != nil {
		utils.WriteError(c, getLogger(c), err)
		return
	}
	c.JSON(http.StatusOK, b)
}
