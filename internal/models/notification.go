package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Notification внутриплатформенное уведомление для user или artist.
type Notification struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	PrincipalID uuid.UUID       `db:"principal_id" json:"principal_id"`
	Role        string          `db:"role" json:"role"`
	Payload     json.RawMessage `db:"payload" json:"payload"`
	IsRead      bool            `db:"is_read" json:"is_read"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}
