package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/artistapp-backend/internal/dto"
	"github.com/ignatzorin/artistapp-backend/internal/http/handlers/common"
	"github.com/ignatzorin/artistapp-backend/internal/service"
)

// BookingHandler обслуживает маршруты переговоров по бронированию.
type BookingHandler struct {
	bookings      *service.BookingService
	cancellations *service.CancellationService
}

// NewBookingHandler создаёт хэндлер.
func NewBookingHandler(bookings *service.BookingService, cancellations *service.CancellationService) *BookingHandler {
	return &BookingHandler{bookings: bookings, cancellations: cancellations}
}

// Create обрабатывает POST /bookings (только заказчик).
func (h *BookingHandler) Create(c *gin.Context) {
	principal, err := common.CurrentPrincipal(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	artistID, err := uuid.Parse(req.ArtistID)
	if err != nil {
		common.RespondBadRequest(c, "Invalid artistId")
		return
	}

	eventDate, err := time.Parse("2006-01-02", req.EventDate)
	if err != nil {
		common.RespondBadRequest(c, "eventDate must be in YYYY-MM-DD format")
		return
	}

	booking, err := h.bookings.Create(c.Request.Context(), principal.ID, service.CreateBookingInput{
		ArtistID:       artistID,
		EventDate:      eventDate,
		EventTime:      req.EventTime,
		DurationHours:  req.DurationHours,
		Location:       req.Location,
		ProposedBudget: req.ProposedBudget,
		Description:    req.Description,
	})
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, booking)
}

// Respond обрабатывает POST /bookings/:id/respond (только артист).
func (h *BookingHandler) Respond(c *gin.Context) {
	principal, err := common.CurrentPrincipal(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	bookingID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, "Invalid booking id")
		return
	}

	var req dto.RespondBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	booking, err := h.bookings.Respond(c.Request.Context(), principal.ID, bookingID, service.RespondInput{
		Status:             req.Status,
		ArtistMessage:      req.ArtistMessage,
		CounterOfferAmount: req.CounterOfferAmount,
	})
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, booking)
}

// Confirm обрабатывает POST /bookings/:id/confirm — принятие встречного предложения.
func (h *BookingHandler) Confirm(c *gin.Context) {
	principal, err := common.CurrentPrincipal(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	bookingID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, "Invalid booking id")
		return
	}

	booking, err := h.bookings.Confirm(c.Request.Context(), principal.ID, bookingID)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, booking)
}

// Reject обрабатывает POST /bookings/:id/reject — отклонение встречного предложения.
func (h *BookingHandler) Reject(c *gin.Context) {
	principal, err := common.CurrentPrincipal(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	bookingID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, "Invalid booking id")
		return
	}

	booking, err := h.bookings.RejectCounterOffer(c.Request.Context(), principal.ID, bookingID)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, booking)
}

// Cancel обрабатывает POST /bookings/:id/cancel (только артист).
func (h *BookingHandler) Cancel(c *gin.Context) {
	principal, err := common.CurrentPrincipal(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	bookingID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, "Invalid booking id")
		return
	}

	var req dto.CancelBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "Cancellation reason is required")
		return
	}

	result, err := h.cancellations.CancelBooking(c.Request.Context(), principal.ID, bookingID, req.Reason)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.CancelBookingResponse{Message: result.Message, Booking: result.Booking})
}

// Get обрабатывает GET /bookings/:id.
func (h *BookingHandler) Get(c *gin.Context) {
	principal, err := common.CurrentPrincipal(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	bookingID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, "Invalid booking id")
		return
	}

	booking, err := h.bookings.GetByID(c.Request.Context(), principal, bookingID)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, booking)
}

// ListMy обрабатывает GET /bookings/my — список броней текущего принципала.
func (h *BookingHandler) ListMy(c *gin.Context) {
	principal, err := common.CurrentPrincipal(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var bookings interface{}
	if principal.IsArtist() {
		bookings, err = h.bookings.ListForArtist(c.Request.Context(), principal.ID)
	} else {
		bookings, err = h.bookings.ListForUser(c.Request.Context(), principal.ID)
	}
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

// CancellationHistory обрабатывает GET /artists/me/cancellations.
func (h *BookingHandler) CancellationHistory(c *gin.Context) {
	principal, err := common.CurrentPrincipal(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	limit := common.ParseIntQuery(c, "limit", 20)
	history, err := h.cancellations.History(c.Request.Context(), principal.ID, limit)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"cancellations": history})
}
