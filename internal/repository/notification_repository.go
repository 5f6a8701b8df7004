package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/artistapp-backend/internal/models"
)

// NotificationRepository отвечает за внутриплатформенные уведомления.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository создаёт новый экземпляр.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create сохраняет уведомление.
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	query := `
		INSERT INTO notifications (principal_id, role, payload)
		VALUES ($1, $2, $3)
		RETURNING id, is_read, created_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		n.PrincipalID, n.Role, n.Payload,
	).Scan(&n.ID, &n.IsRead, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("notification repository: create %w", err)
	}
	return nil
}

// ListForPrincipal возвращает уведомления принципала, новые первыми.
func (r *NotificationRepository) ListForPrincipal(ctx context.Context, principal models.Principal, limit, offset int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	items := []models.Notification{}
	query := `
		SELECT * FROM notifications
		WHERE principal_id = $1 AND role = $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	if err := r.db.SelectContext(ctx, &items, query, principal.ID, principal.Role, limit, offset); err != nil {
		return nil, fmt.Errorf("notification repository: list %w", err)
	}
	return items, nil
}

// CountUnread возвращает число непрочитанных уведомлений.
func (r *NotificationRepository) CountUnread(ctx context.Context, principal models.Principal) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM notifications WHERE principal_id = $1 AND role = $2 AND is_read = FALSE`
	if err := r.db.GetContext(ctx, &count, query, principal.ID, principal.Role); err != nil {
		return 0, fmt.Errorf("notification repository: count unread %w", err)
	}
	return count, nil
}

// MarkRead помечает уведомление прочитанным; чужие уведомления не трогает.
func (r *NotificationRepository) MarkRead(ctx context.Context, principal models.Principal, id uuid.UUID) error {
	query := `
		UPDATE notifications SET is_read = TRUE
		WHERE id = $1 AND principal_id = $2 AND role = $3
	`
	if _, err := r.db.ExecContext(ctx, query, id, principal.ID, principal.Role); err != nil {
		return fmt.Errorf("notification repository: mark read %w", err)
	}
	return nil
}

// MarkAllRead помечает все уведомления принципала прочитанными.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, principal models.Principal) error {
	query := `UPDATE notifications SET is_read = TRUE WHERE principal_id = $1 AND role = $2 AND is_read = FALSE`
	if _, err := r.db.ExecContext(ctx, query, principal.ID, principal.Role); err != nil {
		return fmt.Errorf("notification repository: mark all read %w", err)
	}
	return nil
}
