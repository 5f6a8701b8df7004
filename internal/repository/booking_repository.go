package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/artistapp-backend/internal/models"
)

// BookingRepository отвечает за работу с бронированиями.
type BookingRepository struct {
	db *sqlx.DB
}

var (
	ErrBookingNotFound = errors.New("booking not found")
	// ErrStaleStatus возвращается, когда условное обновление не прошло:
	// статус в базе уже не тот, от которого пытались перейти.
	ErrStaleStatus = errors.New("booking status changed concurrently")
)

// NewBookingRepository создаёт новый экземпляр.
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// Create сохраняет новый запрос на бронирование в статусе REQUESTED.
func (r *BookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	query := `
		INSERT INTO bookings (user_id, artist_id, event_date, event_time, duration_hours, location, description, proposed_budget, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		booking.UserID, booking.ArtistID, booking.EventDate, booking.EventTime,
		booking.DurationHours, booking.Location, booking.Description,
		booking.ProposedBudget, models.BookingStatusRequested,
	).Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)
	if err != nil {
		return fmt.Errorf("booking repository: create %w", err)
	}
	booking.Status = models.BookingStatusRequested
	return nil
}

// Чтения тянут статусы платежа вместе с бронированием: проекция оплат
// выводится из записи payments и не зависит от того, успело ли условное
// обновление поднять флаги в самой таблице bookings.
const bookingSelect = `
	SELECT b.*, p.advance_status AS pay_advance_status, p.remaining_status AS pay_remaining_status
	FROM bookings b
	LEFT JOIN payments p ON p.booking_id = b.id
`

type bookingRow struct {
	models.Booking
	PayAdvanceStatus   *string `db:"pay_advance_status"`
	PayRemainingStatus *string `db:"pay_remaining_status"`
}

func (row *bookingRow) booking() models.Booking {
	b := row.Booking
	b.DerivePaymentStatus(row.PayAdvanceStatus, row.PayRemainingStatus)
	return b
}

// GetByID возвращает бронирование по идентификатору.
func (r *BookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var row bookingRow
	query := bookingSelect + `WHERE b.id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("booking repository: get by id %w", err)
	}
	booking := row.booking()
	return &booking, nil
}

// ListByUser возвращает бронирования заказчика, новые первыми.
func (r *BookingRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Booking, error) {
	rows := []bookingRow{}
	query := bookingSelect + `WHERE b.user_id = $1 ORDER BY b.created_at DESC`
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("booking repository: list by user %w", err)
	}
	bookings := make([]models.Booking, 0, len(rows))
	for i := range rows {
		bookings = append(bookings, rows[i].booking())
	}
	return bookings, nil
}

// ListByArtist возвращает бронирования артиста, новые первыми.
func (r *BookingRepository) ListByArtist(ctx context.Context, artistID uuid.UUID) ([]models.Booking, error) {
	rows := []bookingRow{}
	query := bookingSelect + `WHERE b.artist_id = $1 ORDER BY b.created_at DESC`
	if err := r.db.SelectContext(ctx, &rows, query, artistID); err != nil {
		return nil, fmt.Errorf("booking repository: list by artist %w", err)
	}
	bookings := make([]models.Booking, 0, len(rows))
	for i := range rows {
		bookings = append(bookings, rows[i].booking())
	}
	return bookings, nil
}

// UpdateStatusIf переводит бронирование из ожидаемого статуса в новый.
// Переход атомарен: при гонке проигравший запрос получает ErrStaleStatus.
func (r *BookingRepository) UpdateStatusIf(ctx context.Context, id uuid.UUID, expected, next string) error {
	query := `
		UPDATE bookings
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`
	res, err := r.db.ExecContext(ctx, query, id, expected, next)
	if err != nil {
		return fmt.Errorf("booking repository: update status %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrStaleStatus
	}
	return nil
}

// SetArtistResponse фиксирует ответ артиста на запрос: статус, сообщение и контрпредложение.
// Переход разрешён только из REQUESTED.
func (r *BookingRepository) SetArtistResponse(ctx context.Context, id uuid.UUID, status string, message *string, counterOffer *float64) error {
	query := `
		UPDATE bookings
		SET status = $2, artist_message = $3, counter_offer_amount = $4, updated_at = NOW()
		WHERE id = $1 AND status = $5
	`
	res, err := r.db.ExecContext(ctx, query, id, status, message, counterOffer, models.BookingStatusRequested)
	if err != nil {
		return fmt.Errorf("booking repository: set artist response %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrStaleStatus
	}
	return nil
}

// SetFinalAmount фиксирует согласованную сумму сделки.
func (r *BookingRepository) SetFinalAmount(ctx context.Context, id uuid.UUID, amount float64) error {
	query := `UPDATE bookings SET final_amount = $2, updated_at = NOW() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, amount); err != nil {
		return fmt.Errorf("booking repository: set final amount %w", err)
	}
	return nil
}

// MarkAdvancePaid переводит бронирование из expected в ACTIVE и поднимает флаг аванса.
func (r *BookingRepository) MarkAdvancePaid(ctx context.Context, id uuid.UUID, expected string) error {
	query := `
		UPDATE bookings
		SET status = $3, advance_paid = TRUE, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`
	res, err := r.db.ExecContext(ctx, query, id, expected, models.BookingStatusActive)
	if err != nil {
		return fmt.Errorf("booking repository: mark advance paid %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrStaleStatus
	}
	return nil
}

// MarkRemainingPaid переводит бронирование ACTIVE -> COMPLETED и поднимает флаг остатка.
func (r *BookingRepository) MarkRemainingPaid(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE bookings
		SET status = $2, remaining_paid = TRUE, updated_at = NOW()
		WHERE id = $1 AND status = $3
	`
	res, err := r.db.ExecContext(ctx, query, id, models.BookingStatusCompleted, models.BookingStatusActive)
	if err != nil {
		return fmt.Errorf("booking repository: mark remaining paid %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrStaleStatus
	}
	return nil
}

// SetCancelledByArtist переводит бронирование в CANCELLED и фиксирует причину отмены.
// Разрешено только из статусов, перечисленных в allowedFrom.
func (r *BookingRepository) SetCancelledByArtist(ctx context.Context, id uuid.UUID, reason string, cancelledAt time.Time, allowedFrom []string) error {
	query, args, err := sqlx.In(`
		UPDATE bookings
		SET status = ?, artist_cancelled_at = ?, artist_cancel_reason = ?, updated_at = NOW()
		WHERE id = ? AND status IN (?)
	`, models.BookingStatusCancelled, cancelledAt, reason, id, allowedFrom)
	if err != nil {
		return fmt.Errorf("booking repository: build cancel query %w", err)
	}
	res, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("booking repository: set cancelled %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrStaleStatus
	}
	return nil
}
