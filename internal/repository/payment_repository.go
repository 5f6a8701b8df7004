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
	"github.com/ignatzorin/artistapp-backend/internal/repository/common"
)

// PaymentRepository отвечает за расчётные записи: один Payment на одно бронирование.
type PaymentRepository struct {
	db *sqlx.DB
}

var ErrPaymentNotFound = errors.New("payment not found")

// NewPaymentRepository создаёт новый экземпляр.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// UpsertAdvanceOrder создаёт расчётную запись с заказом на аванс либо, если запись
// уже есть и аванс ещё PENDING, обновляет order_id. Суммы фиксируются при первой
// вставке и при повторных вызовах не перетираются.
func (r *PaymentRepository) UpsertAdvanceOrder(ctx context.Context, payment *models.Payment) error {
	query := `
		INSERT INTO payments (booking_id, user_id, artist_id, total_amount, advance_amount, remaining_amount,
		                      advance_status, advance_order_id, remaining_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (booking_id) DO UPDATE
		SET advance_order_id = EXCLUDED.advance_order_id, updated_at = NOW()
		WHERE payments.advance_status = 'PENDING'
		RETURNING id, total_amount, advance_amount, remaining_amount, advance_status, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		payment.BookingID, payment.UserID, payment.ArtistID,
		payment.TotalAmount, payment.AdvanceAmount, payment.RemainingAmount,
		models.PaymentLegPending, payment.AdvanceOrderID, models.PaymentLegPending,
	).Scan(&payment.ID, &payment.TotalAmount, &payment.AdvanceAmount, &payment.RemainingAmount,
		&payment.AdvanceStatus, &payment.CreatedAt, &payment.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			// запись есть, но аванс уже не PENDING
			return common.ErrStaleState
		}
		return fmt.Errorf("payment repository: upsert advance order %w", err)
	}
	return nil
}

// SetRemainingOrder сохраняет заказ шлюза на остаток.
func (r *PaymentRepository) SetRemainingOrder(ctx context.Context, bookingID uuid.UUID, orderID string) error {
	query := `
		UPDATE payments
		SET remaining_order_id = $2, updated_at = NOW()
		WHERE booking_id = $1 AND remaining_status = $3
	`
	res, err := r.db.ExecContext(ctx, query, bookingID, orderID, models.PaymentLegPending)
	if err != nil {
		return fmt.Errorf("payment repository: set remaining order %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrStaleState
	}
	return nil
}

// GetByID возвращает расчётную запись по идентификатору.
func (r *PaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	return common.GetByID[models.Payment](ctx, r.db, "payments", id, ErrPaymentNotFound)
}

// GetByBookingID возвращает расчётную запись бронирования.
func (r *PaymentRepository) GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*models.Payment, error) {
	return common.GetByField[models.Payment](ctx, r.db, "payments", "booking_id", bookingID, ErrPaymentNotFound)
}

// MarkAdvanceCompleted фиксирует подтверждённый аванс. Повторный вызов для уже
// завершённого аванса не меняет запись (идемпотентность верификации).
func (r *PaymentRepository) MarkAdvanceCompleted(ctx context.Context, bookingID uuid.UUID, paymentID, signature string, paidAt time.Time) error {
	query := `
		UPDATE payments
		SET advance_status = $2, advance_payment_id = $3, advance_signature = $4, advance_paid_at = $5, updated_at = NOW()
		WHERE booking_id = $1 AND advance_status = $6
	`
	res, err := r.db.ExecContext(ctx, query, bookingID,
		models.PaymentLegCompleted, paymentID, signature, paidAt, models.PaymentLegPending)
	if err != nil {
		return fmt.Errorf("payment repository: mark advance completed %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrStaleState
	}
	return nil
}

// MarkRemainingCompleted фиксирует подтверждённый остаток.
func (r *PaymentRepository) MarkRemainingCompleted(ctx context.Context, bookingID uuid.UUID, paymentID, signature string, paidAt time.Time) error {
	query := `
		UPDATE payments
		SET remaining_status = $2, remaining_payment_id = $3, remaining_signature = $4, remaining_paid_at = $5, updated_at = NOW()
		WHERE booking_id = $1 AND remaining_status = $6
	`
	res, err := r.db.ExecContext(ctx, query, bookingID,
		models.PaymentLegCompleted, paymentID, signature, paidAt, models.PaymentLegPending)
	if err != nil {
		return fmt.Errorf("payment repository: mark remaining completed %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrStaleState
	}
	return nil
}

// InitiateRefund записывает рассчитанный возврат и метит аванс как REFUNDED.
// Запись возврата создаётся один раз; повторная инициация не проходит.
func (r *PaymentRepository) InitiateRefund(ctx context.Context, bookingID uuid.UUID, refund models.Refund) error {
	query := `
		UPDATE payments
		SET refund_requested = TRUE,
		    refund_reason = $2,
		    refund_days_before = $3,
		    refund_percentage = $4,
		    refund_amount = $5,
		    refund_status = $6,
		    refund_initiated_at = $7,
		    advance_status = $8,
		    updated_at = NOW()
		WHERE booking_id = $1 AND refund_requested = FALSE
	`
	res, err := r.db.ExecContext(ctx, query, bookingID,
		refund.Reason, refund.DaysBeforeEvent, refund.Percentage, refund.Amount,
		refund.Status, refund.InitiatedAt, models.PaymentLegRefunded)
	if err != nil {
		return fmt.Errorf("payment repository: initiate refund %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrStaleState
	}
	return nil
}

// SetRefundOutcome фиксирует итог обращения к шлюзу за возвратом.
func (r *PaymentRepository) SetRefundOutcome(ctx context.Context, bookingID uuid.UUID, status string, gatewayRefundID *string, completedAt *time.Time) error {
	query := `
		UPDATE payments
		SET refund_status = $2, refund_gateway_id = $3, refund_completed_at = $4, updated_at = NOW()
		WHERE booking_id = $1 AND refund_requested = TRUE
	`
	res, err := r.db.ExecContext(ctx, query, bookingID, status, gatewayRefundID, completedAt)
	if err != nil {
		return fmt.Errorf("payment repository: set refund outcome %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPaymentNotFound
	}
	return nil
}
