package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/artistapp-backend/internal/models"
)

// ArtistRepository отвечает за работу с артистами и их бан-записями.
type ArtistRepository struct {
	db *sqlx.DB
}

var ErrArtistNotFound = errors.New("artist not found")

// NewArtistRepository создаёт новый экземпляр.
func NewArtistRepository(db *sqlx.DB) *ArtistRepository {
	return &ArtistRepository{db: db}
}

// Create сохраняет нового артиста.
func (r *ArtistRepository) Create(ctx context.Context, artist *models.Artist) error {
	query := `
		INSERT INTO artists (email, username, full_name, password_hash, category, skills, city, bio, price_per_hour)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, is_active, is_shadow_banned, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		artist.Email, artist.Username, artist.FullName, artist.PasswordHash,
		artist.Category, artist.Skills, artist.City, artist.Bio, artist.PricePerHour,
	).Scan(&artist.ID, &artist.IsActive, &artist.IsShadowBanned, &artist.CreatedAt, &artist.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("artist repository: create %w", err)
	}
	return nil
}

// GetByID возвращает артиста по идентификатору.
func (r *ArtistRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Artist, error) {
	var artist models.Artist
	query := `SELECT * FROM artists WHERE id = $1`
	if err := r.db.GetContext(ctx, &artist, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrArtistNotFound
		}
		return nil, fmt.Errorf("artist repository: get by id %w", err)
	}
	return &artist, nil
}

// GetByEmail возвращает артиста по email.
func (r *ArtistRepository) GetByEmail(ctx context.Context, email string) (*models.Artist, error) {
	var artist models.Artist
	query := `SELECT * FROM artists WHERE email = $1`
	if err := r.db.GetContext(ctx, &artist, query, email); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrArtistNotFound
		}
		return nil, fmt.Errorf("artist repository: get by email %w", err)
	}
	return &artist, nil
}

// UpdateProfile обновляет редактируемые поля профиля артиста.
func (r *ArtistRepository) UpdateProfile(ctx context.Context, artist *models.Artist) error {
	query := `
		UPDATE artists
		SET full_name = $2, category = $3, skills = $4, city = $5, bio = $6, price_per_hour = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	if err := r.db.QueryRowxContext(ctx, query,
		artist.ID, artist.FullName, artist.Category, artist.Skills,
		artist.City, artist.Bio, artist.PricePerHour,
	).Scan(&artist.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return ErrArtistNotFound
		}
		return fmt.Errorf("artist repository: update profile %w", err)
	}
	return nil
}

// SetProfileImage сохраняет путь к загруженному фото профиля.
func (r *ArtistRepository) SetProfileImage(ctx context.Context, id uuid.UUID, path string) error {
	query := `UPDATE artists SET profile_image = $2, updated_at = NOW() WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, path)
	if err != nil {
		return fmt.Errorf("artist repository: set profile image %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrArtistNotFound
	}
	return nil
}

// TouchLastLogin фиксирует момент успешного входа.
func (r *ArtistRepository) TouchLastLogin(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE artists SET last_login_at = NOW() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("artist repository: touch last login %w", err)
	}
	return nil
}

// SetShadowBan выставляет теневой бан артисту до указанного срока.
func (r *ArtistRepository) SetShadowBan(ctx context.Context, id uuid.UUID, until time.Time, reason string) error {
	query := `
		UPDATE artists
		SET is_shadow_banned = TRUE, banned_until = $2, ban_reason = $3, updated_at = NOW()
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, id, until, reason)
	if err != nil {
		return fmt.Errorf("artist repository: set shadow ban %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrArtistNotFound
	}
	return nil
}

// ClearShadowBan снимает теневой бан.
func (r *ArtistRepository) ClearShadowBan(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE artists
		SET is_shadow_banned = FALSE, banned_until = NULL, ban_reason = NULL, updated_at = NOW()
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("artist repository: clear shadow ban %w", err)
	}
	return nil
}

// ClearExpiredShadowBans снимает баны, срок которых истёк; вызывается фоновой задачей.
func (r *ArtistRepository) ClearExpiredShadowBans(ctx context.Context) (int64, error) {
	query := `
		UPDATE artists
		SET is_shadow_banned = FALSE, banned_until = NULL, ban_reason = NULL, updated_at = NOW()
		WHERE is_shadow_banned = TRUE AND banned_until IS NOT NULL AND banned_until < NOW()
	`
	res, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("artist repository: clear expired shadow bans %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// SearchFilter параметры поиска артистов для каталога.
type SearchFilter struct {
	Query    string
	Category string
	City     string
	MaxPrice *float64
	Limit    int
	Offset   int
}

// Search возвращает артистов каталога. Забаненные артисты исключаются из выдачи,
// но их профили остаются доступными по прямой ссылке.
func (r *ArtistRepository) Search(ctx context.Context, filter SearchFilter) ([]models.ArtistSearchResult, error) {
	conditions := []string{"a.is_active = TRUE", "a.is_shadow_banned = FALSE"}
	args := []interface{}{}
	argn := 0

	next := func(v interface{}) string {
		argn++
		args = append(args, v)
		return fmt.Sprintf("$%d", argn)
	}

	if filter.Query != "" {
		p := next("%" + filter.Query + "%")
		conditions = append(conditions, fmt.Sprintf("(a.full_name ILIKE %s OR a.username ILIKE %s)", p, p))
	}
	if filter.Category != "" {
		conditions = append(conditions, "a.category = "+next(filter.Category))
	}
	if filter.City != "" {
		conditions = append(conditions, "a.city = "+next(filter.City))
	}
	if filter.MaxPrice != nil {
		conditions = append(conditions, "a.price_per_hour <= "+next(*filter.MaxPrice))
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	query := fmt.Sprintf(`
		SELECT a.id, a.username, a.full_name, a.category, a.city, a.profile_image, a.price_per_hour,
		       COUNT(f.id) AS followers
		FROM artists a
		LEFT JOIN follows f ON f.artist_id = a.id
		WHERE %s
		GROUP BY a.id
		ORDER BY followers DESC, a.created_at DESC
		LIMIT %s OFFSET %s
	`, strings.Join(conditions, " AND "), next(limit), next(filter.Offset))

	results := []models.ArtistSearchResult{}
	if err := r.db.SelectContext(ctx, &results, query, args...); err != nil {
		return nil, fmt.Errorf("artist repository: search %w", err)
	}
	return results, nil
}
