package dto

// RegisterUserRequest тело POST /auth/user/register.
type RegisterUserRequest struct {
	Email    string  `json:"email" binding:"required,email"`
	Username string  `json:"username" binding:"required"`
	Password string  `json:"password" binding:"required"`
	Phone    *string `json:"phone"`
	City     *string `json:"city"`
}

// RegisterArtistRequest тело POST /auth/artist/register.
type RegisterArtistRequest struct {
	Email        string   `json:"email" binding:"required,email"`
	Username     string   `json:"username" binding:"required"`
	FullName     string   `json:"fullName" binding:"required"`
	Password     string   `json:"password" binding:"required"`
	Category     *string  `json:"category"`
	Skills       []string `json:"skills"`
	City         *string  `json:"city"`
	Bio          *string  `json:"bio"`
	PricePerHour *float64 `json:"pricePerHour"`
}

// LoginRequest тело POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role" binding:"required"`
}

// RefreshRequest тело POST /auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// CreateBookingRequest тело POST /bookings.
type CreateBookingRequest struct {
	ArtistID       string  `json:"artistId" binding:"required"`
	EventDate      string  `json:"eventDate" binding:"required"`
	EventTime      string  `json:"eventTime" binding:"required"`
	DurationHours  float64 `json:"durationHours" binding:"required"`
	Location       string  `json:"location" binding:"required"`
	ProposedBudget float64 `json:"proposedBudget" binding:"required"`
	Description    *string `json:"description"`
}

// RespondBookingRequest ответ артиста на запрос бронирования.
type RespondBookingRequest struct {
	Status             string   `json:"status" binding:"required"`
	ArtistMessage      *string  `json:"artistMessage"`
	CounterOfferAmount *float64 `json:"counterOfferAmount"`
}

// VerifyPaymentRequest подтверждение платежа после чекаута.
type VerifyPaymentRequest struct {
	OrderID   string `json:"orderId" binding:"required"`
	PaymentID string `json:"paymentId" binding:"required"`
	Signature string `json:"signature" binding:"required"`
}

// RefundRequest тело POST /bookings/:id/refund.
type RefundRequest struct {
	Reason string `json:"reason"`
}

// CancelBookingRequest отмена бронирования артистом.
type CancelBookingRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// UpdateUserProfileRequest редактирование профиля заказчика.
type UpdateUserProfileRequest struct {
	Username string  `json:"username" binding:"required"`
	Phone    *string `json:"phone"`
	City     *string `json:"city"`
}

// UpdateArtistProfileRequest редактирование профиля артиста.
type UpdateArtistProfileRequest struct {
	FullName     string   `json:"fullName" binding:"required"`
	Category     *string  `json:"category"`
	Skills       []string `json:"skills"`
	City         *string  `json:"city"`
	Bio          *string  `json:"bio"`
	PricePerHour *float64 `json:"pricePerHour"`
}

// PortfolioItemRequest создание или обновление работы в портфолио.
type PortfolioItemRequest struct {
	Title        string  `json:"title" binding:"required"`
	Description  *string `json:"description"`
	ExternalLink *string `json:"externalLink"`
}
