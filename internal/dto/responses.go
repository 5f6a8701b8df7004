package dto

import (
	"github.com/ignatzorin/artistapp-backend/internal/models"
	"github.com/ignatzorin/artistapp-backend/internal/service"
)

// ErrorResponse стандартный формат ошибки API.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse стандартный формат успешного ответа с сообщением.
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// AuthResponse ответ регистрации и логина.
type AuthResponse struct {
	User   *models.User       `json:"user,omitempty"`
	Artist *models.Artist     `json:"artist,omitempty"`
	Tokens *service.TokenPair `json:"tokens"`
}

// BookingResponse бронирование вместе со сведениями о платеже.
type BookingResponse struct {
	*models.Booking
	Payment *models.Payment `json:"payment,omitempty"`
}

// CancelBookingResponse итог отмены бронирования артистом.
type CancelBookingResponse struct {
	Message string          `json:"message"`
	Booking *models.Booking `json:"booking"`
}

// FollowStateResponse состояние подписки на артиста.
type FollowStateResponse struct {
	Following     bool `json:"following"`
	FollowerCount int  `json:"followerCount"`
}

// UnreadCountResponse количество непрочитанных уведомлений.
type UnreadCountResponse struct {
	Count int `json:"count"`
}
