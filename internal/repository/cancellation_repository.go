package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/artistapp-backend/internal/models"
)

// CancellationRepository ведёт append-only журнал отмен артистов.
// По нему считается скользящее окно для теневого бана.
type CancellationRepository struct {
	db *sqlx.DB
}

// NewCancellationRepository создаёт новый экземпляр.
func NewCancellationRepository(db *sqlx.DB) *CancellationRepository {
	return &CancellationRepository{db: db}
}

// Create добавляет запись об отмене. Записи никогда не обновляются и не удаляются.
func (r *CancellationRepository) Create(ctx context.Context, c *models.Cancellation) error {
	query := `
		INSERT INTO cancellations (artist_id, booking_id, user_id, reason)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		c.ArtistID, c.BookingID, c.UserID, c.Reason,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("cancellation repository: create %w", err)
	}
	return nil
}

// CountForArtistSince считает отмены артиста начиная с указанного момента.
func (r *CancellationRepository) CountForArtistSince(ctx context.Context, artistID uuid.UUID, since time.Time) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM cancellations WHERE artist_id = $1 AND created_at >= $2`
	if err := r.db.GetContext(ctx, &count, query, artistID, since); err != nil {
		return 0, fmt.Errorf("cancellation repository: count for artist %w", err)
	}
	return count, nil
}

// ListForArtist возвращает историю отмен артиста, новые первыми.
func (r *CancellationRepository) ListForArtist(ctx context.Context, artistID uuid.UUID, limit int) ([]models.Cancellation, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	items := []models.Cancellation{}
	query := `SELECT * FROM cancellations WHERE artist_id = $1 ORDER BY created_at DESC LIMIT $2`
	if err := r.db.SelectContext(ctx, &items, query, artistID, limit); err != nil {
		return nil, fmt.Errorf("cancellation repository: list for artist %w", err)
	}
	return items, nil
}
