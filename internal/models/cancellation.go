package models

import (
	"time"

	"github.com/google/uuid"
)

// Cancellation аудит-запись отмены бронирования артистом.
// Записи не обновляются и не удаляются: по ним считается скользящее окно отмен.
type Cancellation struct {
	ID        uuid.UUID `db:"id" json:"id"`
	ArtistID  uuid.UUID `db:"artist_id" json:"artist_id"`
	BookingID uuid.UUID `db:"booking_id" json:"booking_id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Reason    string    `db:"reason" json:"reason"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
