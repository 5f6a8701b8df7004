package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/artistapp-backend/internal/goroutine"
	"github.com/ignatzorin/artistapp-backend/internal/logger"
	"github.com/ignatzorin/artistapp-backend/internal/mail"
	"github.com/ignatzorin/artistapp-backend/internal/models"
	"github.com/ignatzorin/artistapp-backend/internal/pkg/apperror"
	"github.com/ignatzorin/artistapp-backend/internal/repository"
	"github.com/ignatzorin/artistapp-backend/internal/validation"
)

// Notifier доставляет событие принципалу: WebSocket плюс запись в хранилище уведомлений.
type Notifier interface {
	BroadcastToPrincipal(principal models.Principal, event string, data any) error
}

// События, рассылаемые по ходу переговоров и расчётов.
const (
	EventBookingRequested = "booking_requested"
	EventBookingResponse  = "booking_response"
	EventBookingConfirmed = "booking_confirmed"
	EventBookingRejected  = "booking_rejected"
	EventAdvancePaid      = "advance_paid"
	EventBookingCompleted = "booking_completed"
	EventBookingCancelled = "booking_cancelled"
)

// BookingRepository описывает зависимости BookingService от слоя хранилища.
type BookingRepository interface {
	Create(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Booking, error)
	ListByArtist(ctx context.Context, artistID uuid.UUID) ([]models.Booking, error)
	UpdateStatusIf(ctx context.Context, id uuid.UUID, expected, next string) error
	SetArtistResponse(ctx context.Context, id uuid.UUID, status string, message *string, counterOffer *float64) error
}

// BookingArtistRepository часть хранилища артистов, нужная переговорам.
type BookingArtistRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Artist, error)
}

// BookingUserRepository часть хранилища заказчиков, нужная переговорам.
type BookingUserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// BookingService реализует переговоры по бронированию: от запроса заказчика
// до подтверждения или отказа. Денежные переходы живут в PaymentService.
type BookingService struct {
	bookings BookingRepository
	artists  BookingArtistRepository
	users    BookingUserRepository
	notifier Notifier
	mailer   mail.Mailer
}

// CreateBookingInput данные запроса на бронирование.
type CreateBookingInput struct {
	ArtistID       uuid.UUID
	EventDate      time.Time
	EventTime      string
	DurationHours  float64
	Location       string
	ProposedBudget float64
	Description    *string
}

// RespondInput ответ артиста на запрос.
type RespondInput struct {
	Status             string
	ArtistMessage      *string
	CounterOfferAmount *float64
}

// NewBookingService создаёт сервис переговоров.
func NewBookingService(bookings BookingRepository, artists BookingArtistRepository, users BookingUserRepository, notifier Notifier, mailer mail.Mailer) *BookingService {
	return &BookingService{
		bookings: bookings,
		artists:  artists,
		users:    users,
		notifier: notifier,
		mailer:   mailer,
	}
}

// Create сохраняет запрос на бронирование в статусе REQUESTED и уведомляет артиста.
func (s *BookingService) Create(ctx context.Context, userID uuid.UUID, in CreateBookingInput) (*models.Booking, error) {
	if err := validation.ValidateEventDate(in.EventDate); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateEventTime(in.EventTime); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateDuration(in.DurationHours); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateNonEmpty("location", in.Location); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateBudget(in.ProposedBudget); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	artist, err := s.artists.GetByID(ctx, in.ArtistID)
	if err != nil {
		if errors.Is(err, repository.ErrArtistNotFound) {
			return nil, apperror.ErrArtistNotFound
		}
		return nil, err
	}

	booking := &models.Booking{
		UserID:         userID,
		ArtistID:       artist.ID,
		EventDate:      in.EventDate,
		EventTime:      in.EventTime,
		DurationHours:  in.DurationHours,
		Location:       in.Location,
		Description:    in.Description,
		ProposedBudget: in.ProposedBudget,
	}
	if err := s.bookings.Create(ctx, booking); err != nil {
		return nil, err
	}
	booking.DerivePaymentStatus(nil, nil)

	s.notifyBookingRequested(ctx, booking, artist)
	return booking, nil
}

// Respond фиксирует ответ артиста: ACCEPTED, REJECTED или COUNTER_OFFER.
func (s *BookingService) Respond(ctx context.Context, artistID, bookingID uuid.UUID, in RespondInput) (*models.Booking, error) {
	if _, ok := models.ValidArtistResponses[in.Status]; !ok {
		return nil, apperror.New(apperror.ErrCodeValidation, "Invalid response status")
	}
	if in.Status == models.BookingStatusCounterOffer {
		if in.CounterOfferAmount == nil {
			return nil, apperror.New(apperror.ErrCodeValidation, "Counter offer amount is required")
		}
		if err := validation.ValidateBudget(*in.CounterOfferAmount); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
	}

	booking, err := s.getOwnedByArtist(ctx, artistID, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != models.BookingStatusRequested {
		return nil, apperror.New(apperror.ErrCodeConflict, "Booking is not awaiting a response")
	}

	counterOffer := in.CounterOfferAmount
	if in.Status != models.BookingStatusCounterOffer {
		counterOffer = nil
	}
	if err := s.bookings.SetArtistResponse(ctx, bookingID, in.Status, in.ArtistMessage, counterOffer); err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return nil, apperror.New(apperror.ErrCodeConflict, "Booking is not awaiting a response")
		}
		return nil, err
	}

	booking, err = s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	s.notifyBookingResponse(ctx, booking)
	return booking, nil
}

// Confirm принимает контрпредложение артиста: COUNTER_OFFER -> CONFIRMED.
func (s *BookingService) Confirm(ctx context.Context, userID, bookingID uuid.UUID) (*models.Booking, error) {
	return s.resolveCounterOffer(ctx, userID, bookingID, models.BookingStatusConfirmed, EventBookingConfirmed)
}

// RejectCounterOffer отклоняет контрпредложение: COUNTER_OFFER -> USER_REJECTED.
func (s *BookingService) RejectCounterOffer(ctx context.Context, userID, bookingID uuid.UUID) (*models.Booking, error) {
	return s.resolveCounterOffer(ctx, userID, bookingID, models.BookingStatusUserRejected, EventBookingRejected)
}

// GetByID возвращает бронирование, доступное только его сторонам.
func (s *BookingService) GetByID(ctx context.Context, principal models.Principal, bookingID uuid.UUID) (*models.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return nil, apperror.ErrBookingNotFound
		}
		return nil, err
	}

	isParty := (principal.IsUser() && booking.UserID == principal.ID) ||
		(principal.IsArtist() && booking.ArtistID == principal.ID)
	if !isParty {
		return nil, apperror.ErrForbidden
	}
	return booking, nil
}

// ListForUser возвращает бронирования заказчика.
func (s *BookingService) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Booking, error) {
	return s.bookings.ListByUser(ctx, userID)
}

// ListForArtist возвращает бронирования артиста.
func (s *BookingService) ListForArtist(ctx context.Context, artistID uuid.UUID) ([]models.Booking, error) {
	return s.bookings.ListByArtist(ctx, artistID)
}

// resolveCounterOffer единая механика ответа заказчика на контрпредложение.
func (s *BookingService) resolveCounterOffer(ctx context.Context, userID, bookingID uuid.UUID, next, event string) (*models.Booking, error) {
	booking, err := s.getOwnedByUser(ctx, userID, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != models.BookingStatusCounterOffer {
		return nil, apperror.New(apperror.ErrCodeConflict, "Booking has no pending counter offer")
	}

	if err := s.bookings.UpdateStatusIf(ctx, bookingID, models.BookingStatusCounterOffer, next); err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return nil, apperror.New(apperror.ErrCodeConflict, "Booking has no pending counter offer")
		}
		return nil, err
	}

	booking, err = s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	s.notify(models.Principal{ID: booking.ArtistID, Role: models.RoleArtist}, event, booking)
	return booking, nil
}

func (s *BookingService) getOwnedByUser(ctx context.Context, userID, bookingID uuid.UUID) (*models.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return nil, apperror.ErrBookingNotFound
		}
		return nil, err
	}
	if booking.UserID != userID {
		return nil, apperror.ErrForbidden
	}
	return booking, nil
}

func (s *BookingService) getOwnedByArtist(ctx context.Context, artistID, bookingID uuid.UUID) (*models.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return nil, apperror.ErrBookingNotFound
		}
		return nil, err
	}
	if booking.ArtistID != artistID {
		return nil, apperror.ErrForbidden
	}
	return booking, nil
}

// notify отправляет событие best-effort: сбой доставки логируется и не влияет на ответ.
func (s *BookingService) notify(principal models.Principal, event string, data any) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.BroadcastToPrincipal(principal, event, data); err != nil {
		logger.Log.WithError(err).WithField("event", event).Warn("не удалось отправить уведомление")
	}
}

func (s *BookingService) notifyBookingRequested(ctx context.Context, booking *models.Booking, artist *models.Artist) {
	s.notify(models.Principal{ID: booking.ArtistID, Role: models.RoleArtist}, EventBookingRequested, booking)

	if s.mailer == nil {
		return
	}
	user, err := s.users.GetByID(ctx, booking.UserID)
	if err != nil {
		logger.Log.WithError(err).Warn("не удалось загрузить заказчика для письма")
		return
	}
	subject, body := mail.BookingRequested(artist.FullName, user.Username, booking.EventDate.Format("2006-01-02"))
	to := artist.Email
	goroutine.SafeGo(func() {
		if err := s.mailer.Send(to, subject, body); err != nil {
			logger.Log.WithError(err).Warn("не удалось отправить письмо артисту")
		}
	})
}

func (s *BookingService) notifyBookingResponse(ctx context.Context, booking *models.Booking) {
	s.notify(models.Principal{ID: booking.UserID, Role: models.RoleUser}, EventBookingResponse, booking)

	if s.mailer == nil {
		return
	}
	user, err := s.users.GetByID(ctx, booking.UserID)
	if err != nil {
		logger.Log.WithError(err).Warn("не удалось загрузить заказчика для письма")
		return
	}
	artist, err := s.artists.GetByID(ctx, booking.ArtistID)
	if err != nil {
		logger.Log.WithError(err).Warn("не удалось загрузить артиста для письма")
		return
	}
	subject, body := mail.BookingResponded(user.Username, artist.FullName, booking.Status)
	to := user.Email
	goroutine.SafeGo(func() {
		if err := s.mailer.Send(to, subject, body); err != nil {
			logger.Log.WithError(err).Warn("не удалось отправить письмо заказчику")
		}
	})
}
