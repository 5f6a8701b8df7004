package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/artistapp-backend/internal/dto"
	"github.com/ignatzorin/artistapp-backend/internal/http/handlers/common"
	"github.com/ignatzorin/artistapp-backend/internal/service"
)

// PaymentHandler обслуживает двухэтапную оплату бронирования и возвраты.
type PaymentHandler struct {
	payments *service.PaymentService
}

// NewPaymentHandler создаёт хэндлер.
func NewPaymentHandler(payments *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// CreateAdvanceOrder обрабатывает POST /bookings/:id/payments/advance.
func (h *PaymentHandler) CreateAdvanceOrder(c *gin.Context) {
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

	order, err := h.payments.CreateAdvanceOrder(c.Request.Context(), principal.ID, bookingID)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// VerifyAdvance обрабатывает POST /bookings/:id/payments/advance/verify.
func (h *PaymentHandler) VerifyAdvance(c *gin.Context) {
	if _, err := common.CurrentPrincipal(c); err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	bookingID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, "Invalid booking id")
		return
	}

	var req dto.VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	booking, payment, err := h.payments.VerifyAdvancePayment(c.Request.Context(), service.VerifyInput{
		BookingID: bookingID,
		OrderID:   req.OrderID,
		PaymentID: req.PaymentID,
		Signature: req.Signature,
	})
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.BookingResponse{Booking: booking, Payment: payment})
}

// CreateRemainingOrder обрабатывает POST /bookings/:id/payments/remaining.
func (h *PaymentHandler) CreateRemainingOrder(c *gin.Context) {
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

	order, err := h.payments.CreateRemainingOrder(c.Request.Context(), principal, bookingID)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// VerifyRemaining обрабатывает POST /bookings/:id/payments/remaining/verify.
func (h *PaymentHandler) VerifyRemaining(c *gin.Context) {
	if _, err := common.CurrentPrincipal(c); err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	bookingID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, "Invalid booking id")
		return
	}

	var req dto.VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	booking, payment, err := h.payments.VerifyRemainingPayment(c.Request.Context(), service.VerifyInput{
		BookingID: bookingID,
		OrderID:   req.OrderID,
		PaymentID: req.PaymentID,
		Signature: req.Signature,
	})
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.BookingResponse{Booking: booking, Payment: payment})
}

// RequestRefund обрабатывает POST /bookings/:id/refund (только заказчик).
func (h *PaymentHandler) RequestRefund(c *gin.Context) {
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

	var req dto.RefundRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			common.RespondBadRequest(c, err.Error())
			return
		}
	}

	result, err := h.payments.RequestRefund(c.Request.Context(), principal.ID, bookingID, req.Reason)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetPayment обрабатывает GET /bookings/:id/payments.
func (h *PaymentHandler) GetPayment(c *gin.Context) {
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

	payment, err := h.payments.GetByBooking(c.Request.Context(), principal, bookingID)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, payment)
}
