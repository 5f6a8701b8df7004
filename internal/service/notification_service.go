package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/ignatzorin/artistapp-backend/internal/models"
)

// NotificationsRepository описывает зависимости NotificationService от хранилища.
type NotificationsRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	ListForPrincipal(ctx context.Context, principal models.Principal, limit, offset int) ([]models.Notification, error)
	CountUnread(ctx context.Context, principal models.Principal) (int, error)
	MarkRead(ctx context.Context, principal models.Principal, id uuid.UUID) error
	MarkAllRead(ctx context.Context, principal models.Principal) error
}

// NotificationService хранит и отдаёт внутриплатформенные уведомления.
type NotificationService struct {
	repo NotificationsRepository
}

// NewNotificationService создаёт сервис уведомлений.
func NewNotificationService(repo NotificationsRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

// CreateNotificationForWS сохраняет событие хаба. Payload повторяет контракт
// WebSocket-сообщения: {"type": event, "data": data}.
func (s *NotificationService) CreateNotificationForWS(ctx context.Context, principal models.Principal, event string, data interface{}) error {
	payload, err := json.Marshal(map[string]interface{}{
		"type": event,
		"data": data,
	})
	if err != nil {
		return fmt.Errorf("notification service: marshal payload: %w", err)
	}

	n := &models.Notification{
		PrincipalID: principal.ID,
		Role:        principal.Role,
		Payload:     payload,
	}
	return s.repo.Create(ctx, n)
}

// List возвращает уведомления принципала.
func (s *NotificationService) List(ctx context.Context, principal models.Principal, limit, offset int) ([]models.Notification, error) {
	return s.repo.ListForPrincipal(ctx, principal, limit, offset)
}

// UnreadCount возвращает число непрочитанных уведомлений.
func (s *NotificationService) UnreadCount(ctx context.Context, principal models.Principal) (int, error) {
	return s.repo.CountUnread(ctx, principal)
}

// MarkRead помечает уведомление прочитанным.
func (s *NotificationService) MarkRead(ctx context.Context, principal models.Principal, id uuid.UUID) error {
	return s.repo.MarkRead(ctx, principal, id)
}

// MarkAllRead помечает все уведомления принципала прочитанными.
func (s *NotificationService) MarkAllRead(ctx context.Context, principal models.Principal) error {
	return s.repo.MarkAllRead(ctx, principal)
}
