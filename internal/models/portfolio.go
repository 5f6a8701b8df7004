package models

import (
	"time"

	"github.com/google/uuid"
)

// PortfolioItem описывает работу в портфолио артиста.
type PortfolioItem struct {
	ID           uuid.UUID `db:"id" json:"id"`
	ArtistID     uuid.UUID `db:"artist_id" json:"artist_id"`
	Title        string    `db:"title" json:"title"`
	Description  *string   `db:"description" json:"description,omitempty"`
	MediaPath    *string   `db:"media_path" json:"media_path,omitempty"`
	ExternalLink *string   `db:"external_link" json:"external_link,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Follow связь "пользователь подписан на артиста".
type Follow struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	ArtistID  uuid.UUID `db:"artist_id" json:"artist_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ArtistSearchResult результат поиска артистов для каталога.
type ArtistSearchResult struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	FullName     string    `db:"full_name" json:"full_name"`
	Category     *string   `db:"category" json:"category,omitempty"`
	City         *string   `db:"city" json:"city,omitempty"`
	ProfileImage *string   `db:"profile_image" json:"profile_image,omitempty"`
	PricePerHour *float64  `db:"price_per_hour" json:"price_per_hour,omitempty"`
	Followers    int       `db:"followers" json:"followers"`
}
