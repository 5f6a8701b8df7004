package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/artistapp-backend/internal/models"
	"github.com/ignatzorin/artistapp-backend/internal/repository/common"
)

// PortfolioRepository отвечает за портфолио артистов и подписки на них.
type PortfolioRepository struct {
	db *sqlx.DB
}

var ErrPortfolioItemNotFound = errors.New("portfolio item not found")

// NewPortfolioRepository создаёт новый экземпляр.
func NewPortfolioRepository(db *sqlx.DB) *PortfolioRepository {
	return &PortfolioRepository{db: db}
}

// CreateItem добавляет работу в портфолио.
func (r *PortfolioRepository) CreateItem(ctx context.Context, item *models.PortfolioItem) error {
	query := `
		INSERT INTO portfolio_items (artist_id, title, description, media_path, external_link)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		item.ArtistID, item.Title, item.Description, item.MediaPath, item.ExternalLink,
	).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("portfolio repository: create item %w", err)
	}
	return nil
}

// GetItem возвращает работу по идентификатору.
func (r *PortfolioRepository) GetItem(ctx context.Context, id uuid.UUID) (*models.PortfolioItem, error) {
	return common.GetByID[models.PortfolioItem](ctx, r.db, "portfolio_items", id, ErrPortfolioItemNotFound)
}

// ListForArtist возвращает портфолио артиста, новые работы первыми.
func (r *PortfolioRepository) ListForArtist(ctx context.Context, artistID uuid.UUID) ([]models.PortfolioItem, error) {
	items := []models.PortfolioItem{}
	query := `SELECT * FROM portfolio_items WHERE artist_id = $1 ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &items, query, artistID); err != nil {
		return nil, fmt.Errorf("portfolio repository: list for artist %w", err)
	}
	return items, nil
}

// UpdateItem обновляет работу; чужие работы не трогает.
func (r *PortfolioRepository) UpdateItem(ctx context.Context, item *models.PortfolioItem) error {
	query := `
		UPDATE portfolio_items
		SET title = $3, description = $4, media_path = $5, external_link = $6, updated_at = NOW()
		WHERE id = $1 AND artist_id = $2
		RETURNING updated_at
	`
	if err := r.db.QueryRowxContext(ctx, query,
		item.ID, item.ArtistID, item.Title, item.Description, item.MediaPath, item.ExternalLink,
	).Scan(&item.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return ErrPortfolioItemNotFound
		}
		return fmt.Errorf("portfolio repository: update item %w", err)
	}
	return nil
}

// DeleteItem удаляет работу; чужие работы не трогает.
func (r *PortfolioRepository) DeleteItem(ctx context.Context, artistID, id uuid.UUID) error {
	query := `DELETE FROM portfolio_items WHERE id = $1 AND artist_id = $2`
	res, err := r.db.ExecContext(ctx, query, id, artistID)
	if err != nil {
		return fmt.Errorf("portfolio repository: delete item %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPortfolioItemNotFound
	}
	return nil
}

// Follow подписывает пользователя на артиста. Повторная подписка — ErrAlreadyExists.
func (r *PortfolioRepository) Follow(ctx context.Context, userID, artistID uuid.UUID) error {
	query := `INSERT INTO follows (user_id, artist_id) VALUES ($1, $2)`
	if _, err := r.db.ExecContext(ctx, query, userID, artistID); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return common.ErrAlreadyExists
		}
		return fmt.Errorf("portfolio repository: follow %w", err)
	}
	return nil
}

// Unfollow отписывает пользователя от артиста.
func (r *PortfolioRepository) Unfollow(ctx context.Context, userID, artistID uuid.UUID) error {
	query := `DELETE FROM follows WHERE user_id = $1 AND artist_id = $2`
	res, err := r.db.ExecContext(ctx, query, userID, artistID)
	if err != nil {
		return fmt.Errorf("portfolio repository: unfollow %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

// IsFollowing проверяет подписку пользователя на артиста.
func (r *PortfolioRepository) IsFollowing(ctx context.Context, userID, artistID uuid.UUID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM follows WHERE user_id = $1 AND artist_id = $2)`
	if err := r.db.GetContext(ctx, &exists, query, userID, artistID); err != nil {
		return false, fmt.Errorf("portfolio repository: is following %w", err)
	}
	return exists, nil
}

// FollowerCount возвращает число подписчиков артиста.
func (r *PortfolioRepository) FollowerCount(ctx context.Context, artistID uuid.UUID) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM follows WHERE artist_id = $1`
	if err := r.db.GetContext(ctx, &count, query, artistID); err != nil {
		return 0, fmt.Errorf("portfolio repository: follower count %w", err)
	}
	return count, nil
}

// ListFollowedArtists возвращает артистов, на которых подписан пользователь.
func (r *PortfolioRepository) ListFollowedArtists(ctx context.Context, userID uuid.UUID) ([]models.ArtistSearchResult, error) {
	results := []models.ArtistSearchResult{}
	query := `
		SELECT a.id, a.username, a.full_name, a.category, a.city, a.profile_image, a.price_per_hour,
		       (SELECT COUNT(*) FROM follows ff WHERE ff.artist_id = a.id) AS followers
		FROM follows f
		JOIN artists a ON a.id = f.artist_id
		WHERE f.user_id = $1
		ORDER BY f.created_at DESC
	`
	if err := r.db.SelectContext(ctx, &results, query, userID); err != nil {
		return nil, fmt.Errorf("portfolio repository: list followed %w", err)
	}
	return results, nil
}
