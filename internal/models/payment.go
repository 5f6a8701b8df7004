package models

import (
	"time"

	"github.com/google/uuid"
)

// Payment хранит расчёт по бронированию: один Payment на один Booking.
// Сумма фиксируется в момент создания заказа на аванс и далее не меняется.
type Payment struct {
	ID              uuid.UUID `db:"id" json:"id"`
	BookingID       uuid.UUID `db:"booking_id" json:"booking_id"`
	UserID          uuid.UUID `db:"user_id" json:"user_id"`
	ArtistID        uuid.UUID `db:"artist_id" json:"artist_id"`
	TotalAmount     float64   `db:"total_amount" json:"total_amount"`
	AdvanceAmount   float64   `db:"advance_amount" json:"advance_amount"`
	RemainingAmount float64   `db:"remaining_amount" json:"remaining_amount"`

	AdvanceStatus      string     `db:"advance_status" json:"advance_payment_status"`
	AdvanceOrderID     *string    `db:"advance_order_id" json:"advance_order_id,omitempty"`
	AdvancePaymentID   *string    `db:"advance_payment_id" json:"advance_payment_id,omitempty"`
	AdvanceSignature   *string    `db:"advance_signature" json:"-"`
	AdvancePaidAt      *time.Time `db:"advance_paid_at" json:"advance_paid_at,omitempty"`
	RemainingStatus    string     `db:"remaining_status" json:"remaining_payment_status"`
	RemainingOrderID   *string    `db:"remaining_order_id" json:"remaining_order_id,omitempty"`
	RemainingPaymentID *string    `db:"remaining_payment_id" json:"remaining_payment_id,omitempty"`
	RemainingSignature *string    `db:"remaining_signature" json:"-"`
	RemainingPaidAt    *time.Time `db:"remaining_paid_at" json:"remaining_paid_at,omitempty"`

	RefundRequested   bool       `db:"refund_requested" json:"-"`
	RefundReason      *string    `db:"refund_reason" json:"-"`
	RefundDaysBefore  *int       `db:"refund_days_before" json:"-"`
	RefundPercentage  *int       `db:"refund_percentage" json:"-"`
	RefundAmount      *float64   `db:"refund_amount" json:"-"`
	RefundGatewayID   *string    `db:"refund_gateway_id" json:"-"`
	RefundStatus      *string    `db:"refund_status" json:"-"`
	RefundInitiatedAt *time.Time `db:"refund_initiated_at" json:"-"`
	RefundCompletedAt *time.Time `db:"refund_completed_at" json:"-"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Refund подзапись возврата; появляется не более одного раза за жизнь платежа.
type Refund struct {
	Requested       bool       `json:"requested"`
	Reason          string     `json:"reason,omitempty"`
	DaysBeforeEvent int        `json:"days_before_event"`
	Percentage      int        `json:"refund_percentage"`
	Amount          float64    `json:"refund_amount"`
	GatewayRefundID *string    `json:"gateway_refund_id,omitempty"`
	Status          string     `json:"status"`
	InitiatedAt     *time.Time `json:"initiated_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

// Refund собирает подзапись возврата из плоских колонок; nil, если возврат не запрашивался.
func (p *Payment) Refund() *Refund {
	if !p.RefundRequested {
		return nil
	}

	r := &Refund{
		Requested:       true,
		GatewayRefundID: p.RefundGatewayID,
		InitiatedAt:     p.RefundInitiatedAt,
		CompletedAt:     p.RefundCompletedAt,
		Status:          RefundStatusNotInitiated,
	}
	if p.RefundReason != nil {
		r.Reason = *p.RefundReason
	}
	if p.RefundDaysBefore != nil {
		r.DaysBeforeEvent = *p.RefundDaysBefore
	}
	if p.RefundPercentage != nil {
		r.Percentage = *p.RefundPercentage
	}
	if p.RefundAmount != nil {
		r.Amount = *p.RefundAmount
	}
	if p.RefundStatus != nil {
		r.Status = *p.RefundStatus
	}
	return r
}

// MarshalRefund возвращает подзапись для сериализации в ответах.
func (p *Payment) MarshalRefund() interface{} {
	if r := p.Refund(); r != nil {
		return r
	}
	return nil
}
