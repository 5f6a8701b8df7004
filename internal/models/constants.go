package models

// Роли принципалов
const (
	RoleUser   = "user"
	RoleArtist = "artist"
)

// BookingStatus константы статусов бронирования
const (
	BookingStatusRequested    = "REQUESTED"
	BookingStatusCounterOffer = "COUNTER_OFFER"
	BookingStatusAccepted     = "ACCEPTED"
	BookingStatusConfirmed    = "CONFIRMED"
	BookingStatusActive       = "ACTIVE"
	BookingStatusCompleted    = "COMPLETED"
	BookingStatusRejected     = "REJECTED"
	BookingStatusUserRejected = "USER_REJECTED"
	BookingStatusCancelled    = "CANCELLED"
)

// PaymentLegStatus константы статусов авансового и остаточного платежа
const (
	PaymentLegPending   = "PENDING"
	PaymentLegCompleted = "COMPLETED"
	PaymentLegFailed    = "FAILED"
	PaymentLegRefunded  = "REFUNDED"
)

// RefundStatus константы статусов возврата
const (
	RefundStatusNotInitiated = "NOT_INITIATED"
	RefundStatusProcessing   = "PROCESSING"
	RefundStatusCompleted    = "COMPLETED"
	RefundStatusFailed       = "FAILED"
)

// PaymentKind метки назначения платежа для квитанций шлюза
const (
	PaymentKindAdvance   = "ADVANCE"
	PaymentKindRemaining = "REMAINING"
)

// ValidBookingStatuses список валидных статусов бронирования
var ValidBookingStatuses = map[string]struct{}{
	BookingStatusRequested:    {},
	BookingStatusCounterOffer: {},
	BookingStatusAccepted:     {},
	BookingStatusConfirmed:    {},
	BookingStatusActive:       {},
	BookingStatusCompleted:    {},
	BookingStatusRejected:     {},
	BookingStatusUserRejected: {},
	BookingStatusCancelled:    {},
}

// TerminalBookingStatuses статусы, из которых переходы запрещены
var TerminalBookingStatuses = map[string]struct{}{
	BookingStatusRejected:     {},
	BookingStatusUserRejected: {},
	BookingStatusCancelled:    {},
	BookingStatusCompleted:    {},
}

// ValidArtistResponses статусы, которые артист может выставить на запрос
var ValidArtistResponses = map[string]struct{}{
	BookingStatusAccepted:     {},
	BookingStatusRejected:     {},
	BookingStatusCounterOffer: {},
}
