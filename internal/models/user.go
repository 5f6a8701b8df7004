package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// User описывает заказчика мероприятий.
type User struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	Username     string     `db:"username" json:"username"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Phone        *string    `db:"phone" json:"phone,omitempty"`
	City         *string    `db:"city" json:"city,omitempty"`
	IsActive     bool       `db:"is_active" json:"is_active"`
	LastLoginAt  *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Artist описывает исполнителя, принимающего заказы на выступления.
type Artist struct {
	ID             uuid.UUID      `db:"id" json:"id"`
	Email          string         `db:"email" json:"email"`
	Username       string         `db:"username" json:"username"`
	FullName       string         `db:"full_name" json:"full_name"`
	PasswordHash   string         `db:"password_hash" json:"-"`
	Category       *string        `db:"category" json:"category,omitempty"`
	Skills         pq.StringArray `db:"skills" json:"skills"`
	City           *string        `db:"city" json:"city,omitempty"`
	Bio            *string        `db:"bio" json:"bio,omitempty"`
	ProfileImage   *string        `db:"profile_image" json:"profile_image,omitempty"`
	PricePerHour   *float64       `db:"price_per_hour" json:"price_per_hour,omitempty"`
	IsActive       bool           `db:"is_active" json:"is_active"`
	IsShadowBanned bool           `db:"is_shadow_banned" json:"is_shadow_banned"`
	BannedUntil    *time.Time     `db:"banned_until" json:"banned_until,omitempty"`
	BanReason      *string        `db:"ban_reason" json:"ban_reason,omitempty"`
	LastLoginAt    *time.Time     `db:"last_login_at" json:"last_login_at,omitempty"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

// ShadowBan проекция бан-флага артиста.
type ShadowBan struct {
	IsShadowBanned bool       `json:"is_shadow_banned"`
	BannedUntil    *time.Time `json:"banned_until,omitempty"`
	Reason         *string    `json:"reason,omitempty"`
}

// ShadowBan возвращает проекцию бан-записи артиста.
func (a *Artist) ShadowBan() ShadowBan {
	return ShadowBan{
		IsShadowBanned: a.IsShadowBanned,
		BannedUntil:    a.BannedUntil,
		Reason:         a.BanReason,
	}
}

// Session представляет сохранённую сессию входа (user или artist).
type Session struct {
	ID           uuid.UUID `db:"id" json:"id"`
	PrincipalID  uuid.UUID `db:"principal_id" json:"principal_id"`
	Role         string    `db:"role" json:"role"`
	RefreshToken string    `db:"refresh_token" json:"refresh_token"`
	UserAgent    *string   `db:"user_agent" json:"user_agent,omitempty"`
	IPAddress    *string   `db:"ip_address" json:"ip_address,omitempty"`
	ExpiresAt    time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Principal однозначно называет действующее лицо запроса: кто и в какой роли.
type Principal struct {
	ID   uuid.UUID `json:"id"`
	Role string    `json:"role"`
}

// IsUser сообщает, что принципал — заказчик.
func (p Principal) IsUser() bool { return p.Role == RoleUser }

// IsArtist сообщает, что принципал — артист.
func (p Principal) IsArtist() bool { return p.Role == RoleArtist }
