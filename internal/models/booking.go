package models

import (
	"time"

	"github.com/google/uuid"
)

// Booking описывает переговоры по одному заказу между заказчиком и артистом.
// Факты события (дата, время, место) фиксируются при создании и далее не меняются.
type Booking struct {
	ID                 uuid.UUID  `db:"id" json:"id"`
	UserID             uuid.UUID  `db:"user_id" json:"user_id"`
	ArtistID           uuid.UUID  `db:"artist_id" json:"artist_id"`
	EventDate          time.Time  `db:"event_date" json:"event_date"`
	EventTime          string     `db:"event_time" json:"event_time"`
	DurationHours      float64    `db:"duration_hours" json:"duration_hours"`
	Location           string     `db:"location" json:"location"`
	Description        *string    `db:"description" json:"description,omitempty"`
	ProposedBudget     float64    `db:"proposed_budget" json:"proposed_budget"`
	CounterOfferAmount *float64   `db:"counter_offer_amount" json:"counter_offer_amount,omitempty"`
	FinalAmount        *float64   `db:"final_amount" json:"final_amount,omitempty"`
	Status             string     `db:"status" json:"status"`
	ArtistMessage      *string    `db:"artist_message" json:"artist_message,omitempty"`
	AdvancePaid        bool       `db:"advance_paid" json:"-"`
	RemainingPaid      bool       `db:"remaining_paid" json:"-"`
	ArtistCancelledAt  *time.Time `db:"artist_cancelled_at" json:"artist_cancelled_at,omitempty"`
	ArtistCancelReason *string    `db:"artist_cancel_reason" json:"artist_cancel_reason,omitempty"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`

	PaymentStatus BookingPaymentStatus `db:"-" json:"payment_status"`
}

// BookingPaymentStatus проекция статуса оплат. Источник истины — запись
// Payment: репозиторий выводит проекцию из её статусов при каждом чтении.
type BookingPaymentStatus struct {
	AdvancePaid   bool `json:"advance_paid"`
	RemainingPaid bool `json:"remaining_paid"`
}

// DerivePaymentStatus выводит проекцию из статусов платежа. Пока платежа
// нет (nil-статусы), остаются денормализованные колонки бронирования.
// Возврат аванса не отменяет факта его оплаты, поэтому REFUNDED тоже
// считается оплаченным авансом.
func (b *Booking) DerivePaymentStatus(advanceStatus, remainingStatus *string) {
	b.PaymentStatus = BookingPaymentStatus{
		AdvancePaid:   b.AdvancePaid,
		RemainingPaid: b.RemainingPaid,
	}
	if advanceStatus != nil {
		b.PaymentStatus.AdvancePaid = *advanceStatus == PaymentLegCompleted || *advanceStatus == PaymentLegRefunded
	}
	if remainingStatus != nil {
		b.PaymentStatus.RemainingPaid = *remainingStatus == PaymentLegCompleted
	}
}

// IsTerminal сообщает, достигло ли бронирование конечного статуса.
func (b *Booking) IsTerminal() bool {
	_, ok := TerminalBookingStatuses[b.Status]
	return ok
}
