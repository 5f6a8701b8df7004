package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/artistapp-backend/internal/gateway"
	"github.com/ignatzorin/artistapp-backend/internal/goroutine"
	"github.com/ignatzorin/artistapp-backend/internal/logger"
	"github.com/ignatzorin/artistapp-backend/internal/mail"
	"github.com/ignatzorin/artistapp-backend/internal/models"
	"github.com/ignatzorin/artistapp-backend/internal/pkg/apperror"
	"github.com/ignatzorin/artistapp-backend/internal/repository"
	"github.com/ignatzorin/artistapp-backend/internal/repository/common"
)

// Доля аванса в полной сумме сделки. Константа дизайна, не настраивается.
const advanceShare = 0.15

// PaymentBookingRepository часть хранилища бронирований, нужная расчётам.
type PaymentBookingRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	UpdateStatusIf(ctx context.Context, id uuid.UUID, expected, next string) error
	SetFinalAmount(ctx context.Context, id uuid.UUID, amount float64) error
	MarkAdvancePaid(ctx context.Context, id uuid.UUID, expected string) error
	MarkRemainingPaid(ctx context.Context, id uuid.UUID) error
}

// PaymentsRepository описывает зависимости PaymentService от хранилища расчётов.
type PaymentsRepository interface {
	UpsertAdvanceOrder(ctx context.Context, payment *models.Payment) error
	SetRemainingOrder(ctx context.Context, bookingID uuid.UUID, orderID string) error
	GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*models.Payment, error)
	MarkAdvanceCompleted(ctx context.Context, bookingID uuid.UUID, paymentID, signature string, paidAt time.Time) error
	MarkRemainingCompleted(ctx context.Context, bookingID uuid.UUID, paymentID, signature string, paidAt time.Time) error
	InitiateRefund(ctx context.Context, bookingID uuid.UUID, refund models.Refund) error
	SetRefundOutcome(ctx context.Context, bookingID uuid.UUID, status string, gatewayRefundID *string, completedAt *time.Time) error
}

// PaymentService реализует двухфазный расчёт: аванс 15% при подтверждении
// и остаток 85% после мероприятия, плюс возвраты при отмене заказчиком.
type PaymentService struct {
	payments PaymentsRepository
	bookings PaymentBookingRepository
	artists  BookingArtistRepository
	users    BookingUserRepository
	gateway  gateway.Gateway
	notifier Notifier
	mailer   mail.Mailer
	currency string
	now      func() time.Time
}

// OrderResult ответ на создание заказа в шлюзе.
type OrderResult struct {
	OrderID   string    `json:"orderId"`
	Amount    float64   `json:"amount"`
	Currency  string    `json:"currency"`
	BookingID uuid.UUID `json:"bookingId"`
	PaymentID uuid.UUID `json:"paymentId"`
}

// VerifyInput данные подтверждения оплаты от клиента.
type VerifyInput struct {
	BookingID uuid.UUID
	OrderID   string
	PaymentID string
	Signature string
}

// RefundResult итог запроса возврата.
type RefundResult struct {
	Message string         `json:"message"`
	Refund  *models.Refund `json:"refund"`
}

// NewPaymentService создаёт расчётный сервис.
func NewPaymentService(payments PaymentsRepository, bookings PaymentBookingRepository, artists BookingArtistRepository, users BookingUserRepository, gw gateway.Gateway, notifier Notifier, mailer mail.Mailer, currency string) *PaymentService {
	return &PaymentService{
		payments: payments,
		bookings: bookings,
		artists:  artists,
		users:    users,
		gateway:  gw,
		notifier: notifier,
		mailer:   mailer,
		currency: currency,
		now:      time.Now,
	}
}

// SplitAmounts делит полную сумму на аванс и остаток.
// Округление через round, чтобы advance + remaining всегда давало total.
func SplitAmounts(total float64) (advance, remaining float64) {
	advance = math.Round(total * advanceShare)
	remaining = total - advance
	return advance, remaining
}

// RefundPercentage возвращает процент возврата аванса по числу дней до мероприятия.
func RefundPercentage(daysBeforeEvent int) int {
	switch {
	case daysBeforeEvent > 3:
		return 100
	case daysBeforeEvent >= 1:
		return 50
	default:
		return 0
	}
}

// DaysBeforeEvent считает дни до мероприятия с округлением вверх:
// неполные сутки считаются полными.
func DaysBeforeEvent(eventDate, now time.Time) int {
	return int(math.Ceil(eventDate.Sub(now).Seconds() / 86400))
}

// CreateAdvanceOrder создаёт заказ шлюза на аванс по подтверждённому бронированию.
func (s *PaymentService) CreateAdvanceOrder(ctx context.Context, userID, bookingID uuid.UUID) (*OrderResult, error) {
	booking, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != userID {
		return nil, apperror.ErrForbidden
	}
	if booking.Status != models.BookingStatusConfirmed && booking.Status != models.BookingStatusAccepted {
		return nil, apperror.New(apperror.ErrCodeConflict, "Booking is not ready for payment")
	}

	// Итоговая сумма: контрпредложение, если торг дошёл до CONFIRMED, иначе бюджет заказчика.
	total := booking.ProposedBudget
	if booking.Status == models.BookingStatusConfirmed && booking.CounterOfferAmount != nil {
		total = *booking.CounterOfferAmount
	}

	if existing, err := s.payments.GetByBookingID(ctx, bookingID); err == nil {
		if existing.AdvanceStatus == models.PaymentLegCompleted {
			return nil, apperror.New(apperror.ErrCodeConflict, "Advance payment already completed")
		}
	} else if !errors.Is(err, repository.ErrPaymentNotFound) {
		return nil, err
	}

	advance, remaining := SplitAmounts(total)

	order, err := s.gateway.CreateOrder(ctx, gateway.ToMinorUnits(advance), s.currency,
		fmt.Sprintf("bk_%s_adv", bookingID), map[string]interface{}{
			"booking_id": bookingID.String(),
			"kind":       models.PaymentKindAdvance,
		})
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeUpstream, "Payment gateway is unavailable")
	}

	payment := &models.Payment{
		BookingID:       bookingID,
		UserID:          booking.UserID,
		ArtistID:        booking.ArtistID,
		TotalAmount:     total,
		AdvanceAmount:   advance,
		RemainingAmount: remaining,
		AdvanceOrderID:  &order.ID,
	}
	if err := s.payments.UpsertAdvanceOrder(ctx, payment); err != nil {
		if errors.Is(err, common.ErrStaleState) {
			return nil, apperror.New(apperror.ErrCodeConflict, "Advance payment already completed")
		}
		return nil, err
	}

	if err := s.bookings.SetFinalAmount(ctx, bookingID, payment.TotalAmount); err != nil {
		return nil, err
	}

	return &OrderResult{
		OrderID:   order.ID,
		Amount:    payment.AdvanceAmount,
		Currency:  s.currency,
		BookingID: bookingID,
		PaymentID: payment.ID,
	}, nil
}

// VerifyAdvancePayment проверяет подпись аванса и переводит бронирование в ACTIVE.
// Повторная верификация уже завершённого аванса — no-op.
func (s *PaymentService) VerifyAdvancePayment(ctx context.Context, in VerifyInput) (*models.Booking, *models.Payment, error) {
	payment, err := s.getPayment(ctx, in.BookingID)
	if err != nil {
		return nil, nil, err
	}

	if payment.AdvanceStatus == models.PaymentLegCompleted {
		booking, err := s.getBooking(ctx, in.BookingID)
		if err != nil {
			return nil, nil, err
		}
		return booking, payment, nil
	}

	if payment.AdvanceOrderID == nil || *payment.AdvanceOrderID != in.OrderID {
		return nil, nil, apperror.ErrInvalidSignature
	}
	if !s.gateway.VerifySignature(in.OrderID, in.PaymentID, in.Signature) {
		return nil, nil, apperror.ErrInvalidSignature
	}

	now := s.now()
	if err := s.payments.MarkAdvanceCompleted(ctx, in.BookingID, in.PaymentID, in.Signature, now); err != nil {
		// Гонка двух verify: проигравший видит уже завершённый аванс, это тоже no-op.
		if !errors.Is(err, common.ErrStaleState) {
			return nil, nil, err
		}
	}

	booking, err := s.getBooking(ctx, in.BookingID)
	if err != nil {
		return nil, nil, err
	}
	if booking.Status == models.BookingStatusConfirmed || booking.Status == models.BookingStatusAccepted {
		if err := s.bookings.MarkAdvancePaid(ctx, in.BookingID, booking.Status); err != nil &&
			!errors.Is(err, repository.ErrStaleStatus) {
			return nil, nil, err
		}
	}
	if err := s.bookings.SetFinalAmount(ctx, in.BookingID, payment.TotalAmount); err != nil {
		return nil, nil, err
	}

	booking, err = s.getBooking(ctx, in.BookingID)
	if err != nil {
		return nil, nil, err
	}
	payment, err = s.getPayment(ctx, in.BookingID)
	if err != nil {
		return nil, nil, err
	}

	s.notifyPaid(ctx, booking, EventAdvancePaid, payment.AdvanceAmount, mail.AdvanceReceived)
	return booking, payment, nil
}

// CreateRemainingOrder создаёт заказ шлюза на остаток. Доступно обеим сторонам сделки.
func (s *PaymentService) CreateRemainingOrder(ctx context.Context, principal models.Principal, bookingID uuid.UUID) (*OrderResult, error) {
	booking, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	isParty := (principal.IsUser() && booking.UserID == principal.ID) ||
		(principal.IsArtist() && booking.ArtistID == principal.ID)
	if !isParty {
		return nil, apperror.ErrForbidden
	}
	if booking.Status != models.BookingStatusActive && booking.Status != models.BookingStatusCompleted {
		return nil, apperror.New(apperror.ErrCodeConflict, "Booking is not ready for the remaining payment")
	}

	payment, err := s.getPayment(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if payment.AdvanceStatus != models.PaymentLegCompleted {
		return nil, apperror.New(apperror.ErrCodeConflict, "Advance payment is not completed")
	}
	if payment.RemainingStatus == models.PaymentLegCompleted {
		return nil, apperror.New(apperror.ErrCodeConflict, "Remaining payment already completed")
	}

	order, err := s.gateway.CreateOrder(ctx, gateway.ToMinorUnits(payment.RemainingAmount), s.currency,
		fmt.Sprintf("bk_%s_rem", bookingID), map[string]interface{}{
			"booking_id": bookingID.String(),
			"kind":       models.PaymentKindRemaining,
		})
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeUpstream, "Payment gateway is unavailable")
	}

	if err := s.payments.SetRemainingOrder(ctx, bookingID, order.ID); err != nil {
		if errors.Is(err, common.ErrStaleState) {
			return nil, apperror.New(apperror.ErrCodeConflict, "Remaining payment already completed")
		}
		return nil, err
	}

	return &OrderResult{
		OrderID:   order.ID,
		Amount:    payment.RemainingAmount,
		Currency:  s.currency,
		BookingID: bookingID,
		PaymentID: payment.ID,
	}, nil
}

// VerifyRemainingPayment проверяет подпись остатка и завершает бронирование.
func (s *PaymentService) VerifyRemainingPayment(ctx context.Context, in VerifyInput) (*models.Booking, *models.Payment, error) {
	payment, err := s.getPayment(ctx, in.BookingID)
	if err != nil {
		return nil, nil, err
	}

	if payment.RemainingStatus == models.PaymentLegCompleted {
		booking, err := s.getBooking(ctx, in.BookingID)
		if err != nil {
			return nil, nil, err
		}
		return booking, payment, nil
	}

	if payment.RemainingOrderID == nil || *payment.RemainingOrderID != in.OrderID {
		return nil, nil, apperror.ErrInvalidSignature
	}
	if !s.gateway.VerifySignature(in.OrderID, in.PaymentID, in.Signature) {
		return nil, nil, apperror.ErrInvalidSignature
	}

	now := s.now()
	if err := s.payments.MarkRemainingCompleted(ctx, in.BookingID, in.PaymentID, in.Signature, now); err != nil {
		if !errors.Is(err, common.ErrStaleState) {
			return nil, nil, err
		}
	}
	if err := s.bookings.MarkRemainingPaid(ctx, in.BookingID); err != nil &&
		!errors.Is(err, repository.ErrStaleStatus) {
		return nil, nil, err
	}

	booking, err := s.getBooking(ctx, in.BookingID)
	if err != nil {
		return nil, nil, err
	}
	payment, err = s.getPayment(ctx, in.BookingID)
	if err != nil {
		return nil, nil, err
	}

	s.notifyPaid(ctx, booking, EventBookingCompleted, payment.RemainingAmount, mail.BookingCompleted)
	return booking, payment, nil
}

// RequestRefund отменяет бронирование по инициативе заказчика с возвратом аванса
// по тарифной сетке. Сбой шлюза не блокирует отмену: возврат помечается FAILED.
func (s *PaymentService) RequestRefund(ctx context.Context, userID, bookingID uuid.UUID, reason string) (*RefundResult, error) {
	booking, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != userID {
		return nil, apperror.ErrForbidden
	}
	if booking.IsTerminal() {
		return nil, apperror.New(apperror.ErrCodeConflict, "Booking is already closed")
	}

	payment, err := s.getPayment(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if payment.AdvanceStatus != models.PaymentLegCompleted {
		return nil, apperror.New(apperror.ErrCodeConflict, "No completed advance payment to refund")
	}
	if payment.RefundRequested {
		return nil, apperror.New(apperror.ErrCodeConflict, "Refund already requested")
	}

	now := s.now()
	days := DaysBeforeEvent(booking.EventDate, now)
	percentage := RefundPercentage(days)
	amount := math.Round(payment.AdvanceAmount*float64(percentage)) / 100

	refund := models.Refund{
		Requested:       true,
		Reason:          reason,
		DaysBeforeEvent: days,
		Percentage:      percentage,
		Amount:          amount,
		Status:          models.RefundStatusNotInitiated,
		InitiatedAt:     &now,
	}
	if amount == 0 {
		// Возвращать нечего: возврат закрыт сразу.
		refund.Status = models.RefundStatusCompleted
		refund.CompletedAt = &now
	}

	if err := s.payments.InitiateRefund(ctx, bookingID, refund); err != nil {
		if errors.Is(err, common.ErrStaleState) {
			return nil, apperror.New(apperror.ErrCodeConflict, "Refund already requested")
		}
		return nil, err
	}

	if amount > 0 && payment.AdvancePaymentID != nil {
		gatewayRefundID, gwErr := s.gateway.CreateRefund(ctx, *payment.AdvancePaymentID,
			gateway.ToMinorUnits(amount), map[string]interface{}{
				"booking_id": bookingID.String(),
				"reason":     reason,
			})
		if gwErr != nil {
			// Отмена важнее возврата: фиксируем FAILED и продолжаем.
			logger.Log.WithError(gwErr).WithField("booking_id", bookingID).Error("шлюз отклонил возврат")
			refund.Status = models.RefundStatusFailed
			if err := s.payments.SetRefundOutcome(ctx, bookingID, models.RefundStatusFailed, nil, nil); err != nil {
				return nil, err
			}
		} else {
			refund.Status = models.RefundStatusProcessing
			refund.GatewayRefundID = &gatewayRefundID
			if err := s.payments.SetRefundOutcome(ctx, bookingID, models.RefundStatusProcessing, &gatewayRefundID, nil); err != nil {
				return nil, err
			}
		}
	}

	// Бронирование закрывается безусловно, как только возврат учтён.
	if err := s.bookings.UpdateStatusIf(ctx, bookingID, booking.Status, models.BookingStatusCancelled); err != nil &&
		!errors.Is(err, repository.ErrStaleStatus) {
		return nil, err
	}

	s.notify(models.Principal{ID: booking.ArtistID, Role: models.RoleArtist}, EventBookingCancelled, booking)

	return &RefundResult{
		Message: fmt.Sprintf("Booking cancelled, refund %d%% of the advance", percentage),
		Refund:  &refund,
	}, nil
}

// GetByBooking возвращает расчётную запись стороне сделки.
func (s *PaymentService) GetByBooking(ctx context.Context, principal models.Principal, bookingID uuid.UUID) (*models.Payment, error) {
	payment, err := s.getPayment(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	isParty := (principal.IsUser() && payment.UserID == principal.ID) ||
		(principal.IsArtist() && payment.ArtistID == principal.ID)
	if !isParty {
		return nil, apperror.ErrForbidden
	}
	return payment, nil
}

func (s *PaymentService) getBooking(ctx context.Context, bookingID uuid.UUID) (*models.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return nil, apperror.ErrBookingNotFound
		}
		return nil, err
	}
	return booking, nil
}

func (s *PaymentService) getPayment(ctx context.Context, bookingID uuid.UUID) (*models.Payment, error) {
	payment, err := s.payments.GetByBookingID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrPaymentNotFound) {
			return nil, apperror.ErrPaymentNotFound
		}
		return nil, err
	}
	return payment, nil
}

func (s *PaymentService) notify(principal models.Principal, event string, data any) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.BroadcastToPrincipal(principal, event, data); err != nil {
		logger.Log.WithError(err).WithField("event", event).Warn("не удалось отправить уведомление")
	}
}

// notifyPaid уведомляет артиста об оплате и шлёт письма обеим сторонам best-effort.
func (s *PaymentService) notifyPaid(ctx context.Context, booking *models.Booking, event string, amount float64, tpl func(string, float64) (string, string)) {
	s.notify(models.Principal{ID: booking.ArtistID, Role: models.RoleArtist}, event, booking)

	if s.mailer == nil {
		return
	}
	user, uErr := s.users.GetByID(ctx, booking.UserID)
	artist, aErr := s.artists.GetByID(ctx, booking.ArtistID)
	if uErr != nil || aErr != nil {
		logger.Log.Warn("не удалось загрузить стороны сделки для письма")
		return
	}

	userSubject, userBody := tpl(user.Username, amount)
	artistSubject, artistBody := tpl(artist.FullName, amount)
	userTo, artistTo := user.Email, artist.Email
	goroutine.SafeGo(func() {
		if err := s.mailer.Send(userTo, userSubject, userBody); err != nil {
			logger.Log.WithError(err).Warn("не удалось отправить письмо заказчику")
		}
		if err := s.mailer.Send(artistTo, artistSubject, artistBody); err != nil {
			logger.Log.WithError(err).Warn("не удалось отправить письмо артисту")
		}
	})
}
