package ws

import (
	"context"

	"github.com/ignatzorin/artistapp-backend/internal/models"
)

// NotificationServiceAdapter адаптирует NotificationService для использования в Hub.
type NotificationServiceAdapter struct {
	service interface {
		CreateNotificationForWS(ctx context.Context, principal models.Principal, event string, data interface{}) error
	}
}

// NewNotificationServiceAdapter создаёт новый адаптер.
func NewNotificationServiceAdapter(service interface {
	CreateNotificationForWS(ctx context.Context, principal models.Principal, event string, data interface{}) error
}) *NotificationServiceAdapter {
	return &NotificationServiceAdapter{service: service}
}

// CreateNotification реализует интерфейс NotificationSaver.
func (a *NotificationServiceAdapter) CreateNotification(ctx context.Context, principal models.Principal, event string, data interface{}) error {
	return a.service.CreateNotificationForWS(ctx, principal, event, data)
}
