package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ignatzorin/artistapp-backend/internal/goroutine"
	"github.com/ignatzorin/artistapp-backend/internal/logger"
	"github.com/ignatzorin/artistapp-backend/internal/models"
)

// NotificationSaver интерфейс для сохранения уведомлений в БД.
type NotificationSaver interface {
	CreateNotification(ctx context.Context, principal models.Principal, event string, data interface{}) error
}

// Hub управляет всеми WebSocket клиентами. Клиенты ключуются принципалом:
// один и тот же UUID в ролях user и artist — разные адресаты.
type Hub struct {
	mu                sync.RWMutex
	clients           map[models.Principal]map[*Client]struct{}
	register          chan *Client
	unregister        chan *Client
	broadcast         chan message
	notificationSaver NotificationSaver
	ctx               context.Context
}

type message struct {
	principal models.Principal
	payload   []byte
}

// NewHub создаёт новый хаб.
func NewHub(ctx context.Context) *Hub {
	return &Hub{
		clients:    make(map[models.Principal]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan message, 32),
		ctx:        ctx,
	}
}

// SetNotificationSaver устанавливает сервис для сохранения уведомлений.
func (h *Hub) SetNotificationSaver(saver NotificationSaver) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.notificationSaver = saver
}

// Run запускает главный цикл хаба.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case msg := <-h.broadcast:
			h.send(msg.principal, msg.payload)
		}
	}
}

// Register добавляет клиента.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister удаляет клиента.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// BroadcastToPrincipal отправляет сообщение принципалу и сохраняет уведомление в БД.
func (h *Hub) BroadcastToPrincipal(principal models.Principal, event string, data any) error {
	// Контракт WebSocket API: "type" содержит имя события, "data" — полезную нагрузку.
	payload := map[string]any{
		"type": event,
		"data": data,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("ws: не удалось сериализовать сообщение: %w", err)
	}

	h.mu.RLock()
	saver := h.notificationSaver
	ctx := h.ctx
	h.mu.RUnlock()

	if saver != nil {
		// Сохраняем асинхронно, чтобы не блокировать отправку
		goroutine.SafeGo(func() {
			if err := saver.CreateNotification(ctx, principal, event, data); err != nil {
				logger.Log.WithError(err).Warn("ws: не удалось сохранить уведомление")
			}
		})
	}

	h.broadcast <- message{principal: principal, payload: raw}
	return nil
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.principal]; !ok {
		h.clients[client.principal] = make(map[*Client]struct{})
	}
	h.clients[client.principal][client] = struct{}{}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.clients[client.principal]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.clients, client.principal)
		}
	}
}

func (h *Hub) send(principal models.Principal, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[principal] {
		select {
		case client.send <- payload:
		default:
			// Медленного клиента закрываем, не блокируя рассылку
			goroutine.SafeGo(client.Close)
		}
	}
}
