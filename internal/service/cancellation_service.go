package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/artistapp-backend/internal/goroutine"
	"github.com/ignatzorin/artistapp-backend/internal/logger"
	"github.com/ignatzorin/artistapp-backend/internal/mail"
	"github.com/ignatzorin/artistapp-backend/internal/models"
	"github.com/ignatzorin/artistapp-backend/internal/pkg/apperror"
	"github.com/ignatzorin/artistapp-backend/internal/repository"
)

// Политика теневого бана: третья отмена за скользящие 7 дней банит артиста на 30 дней.
const (
	cancellationWindow = 7 * 24 * time.Hour
	shadowBanDuration  = 30 * 24 * time.Hour
	cancellationLimit  = 3
	shadowBanReason    = "3 cancellations within 7 days"
)

// CancellationBookingRepository часть хранилища бронирований, нужная политике отмен.
type CancellationBookingRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	SetCancelledByArtist(ctx context.Context, id uuid.UUID, reason string, cancelledAt time.Time, allowedFrom []string) error
}

// CancellationsRepository журнал отмен.
type CancellationsRepository interface {
	Create(ctx context.Context, c *models.Cancellation) error
	CountForArtistSince(ctx context.Context, artistID uuid.UUID, since time.Time) (int, error)
	ListForArtist(ctx context.Context, artistID uuid.UUID, limit int) ([]models.Cancellation, error)
}

// CancellationArtistRepository часть хранилища артистов, нужная политике отмен.
type CancellationArtistRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Artist, error)
	SetShadowBan(ctx context.Context, id uuid.UUID, until time.Time, reason string) error
}

// CancellationService реализует отмену бронирования артистом и учёт репутации.
type CancellationService struct {
	bookings      CancellationBookingRepository
	cancellations CancellationsRepository
	artists       CancellationArtistRepository
	users         BookingUserRepository
	notifier      Notifier
	mailer        mail.Mailer
	now           func() time.Time
}

// CancelResult итог отмены: обновлённое бронирование и вердикт политики.
type CancelResult struct {
	Message   string            `json:"message"`
	Booking   *models.Booking   `json:"booking"`
	ShadowBan *models.ShadowBan `json:"shadow_ban,omitempty"`
}

// NewCancellationService создаёт сервис политики отмен.
func NewCancellationService(bookings CancellationBookingRepository, cancellations CancellationsRepository, artists CancellationArtistRepository, users BookingUserRepository, notifier Notifier, mailer mail.Mailer) *CancellationService {
	return &CancellationService{
		bookings:      bookings,
		cancellations: cancellations,
		artists:       artists,
		users:         users,
		notifier:      notifier,
		mailer:        mailer,
		now:           time.Now,
	}
}

// CancelBooking отменяет бронирование по инициативе артиста, пишет аудит-запись
// и применяет теневой бан, если артист превысил лимит отмен.
func (s *CancellationService) CancelBooking(ctx context.Context, artistID, bookingID uuid.UUID, reason string) (*CancelResult, error) {
	if reason == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "Cancellation reason is required")
	}

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
	if booking.IsTerminal() {
		return nil, apperror.New(apperror.ErrCodeConflict, "Booking is already closed")
	}

	now := s.now()

	allowedFrom := make([]string, 0, len(models.ValidBookingStatuses))
	for status := range models.ValidBookingStatuses {
		if _, terminal := models.TerminalBookingStatuses[status]; !terminal {
			allowedFrom = append(allowedFrom, status)
		}
	}
	if err := s.bookings.SetCancelledByArtist(ctx, bookingID, reason, now, allowedFrom); err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return nil, apperror.New(apperror.ErrCodeConflict, "Booking is already closed")
		}
		return nil, err
	}

	// Окно считается до записи текущей отмены: текущая учитывается как +1.
	priorCount, err := s.cancellations.CountForArtistSince(ctx, artistID, now.Add(-cancellationWindow))
	if err != nil {
		return nil, err
	}

	record := &models.Cancellation{
		ArtistID:  artistID,
		BookingID: bookingID,
		UserID:    booking.UserID,
		Reason:    reason,
	}
	if err := s.cancellations.Create(ctx, record); err != nil {
		return nil, err
	}

	result := &CancelResult{}

	if priorCount+1 >= cancellationLimit {
		until := now.Add(shadowBanDuration)
		if err := s.artists.SetShadowBan(ctx, artistID, until, shadowBanReason); err != nil {
			return nil, err
		}
		reasonCopy := shadowBanReason
		result.Message = "Booking cancelled. You have been temporarily suspended: " + shadowBanReason
		result.ShadowBan = &models.ShadowBan{
			IsShadowBanned: true,
			BannedUntil:    &until,
			Reason:         &reasonCopy,
		}
	} else {
		result.Message = fmt.Sprintf("Booking cancelled. %d cancellations left", cancellationLimit-priorCount)
	}

	booking, err = s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	result.Booking = booking

	s.notifyCancelled(ctx, booking, reason)
	return result, nil
}

// History возвращает журнал отмен артиста.
func (s *CancellationService) History(ctx context.Context, artistID uuid.UUID, limit int) ([]models.Cancellation, error) {
	return s.cancellations.ListForArtist(ctx, artistID, limit)
}

func (s *CancellationService) notifyCancelled(ctx context.Context, booking *models.Booking, reason string) {
	if s.notifier != nil {
		if err := s.notifier.BroadcastToPrincipal(
			models.Principal{ID: booking.UserID, Role: models.RoleUser},
			EventBookingCancelled, booking,
		); err != nil {
			logger.Log.WithError(err).Warn("не удалось отправить уведомление об отмене")
		}
	}

	if s.mailer == nil {
		return
	}
	user, uErr := s.users.GetByID(ctx, booking.UserID)
	artist, aErr := s.artists.GetByID(ctx, booking.ArtistID)
	if uErr != nil || aErr != nil {
		logger.Log.Warn("не удалось загрузить стороны сделки для письма об отмене")
		return
	}
	subject, body := mail.BookingCancelledByArtist(user.Username, artist.FullName, reason)
	to := user.Email
	goroutine.SafeGo(func() {
		if err := s.mailer.Send(to, subject, body); err != nil {
			logger.Log.WithError(err).Warn("не удалось отправить письмо об отмене")
		}
	})
}
