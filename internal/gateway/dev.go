package gateway

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ignatzorin/artistapp-backend/internal/logger"
)

// DevGateway локальная замена платёжного шлюза для окружений без ключей
// Razorpay. Заказы и возвраты создаются в памяти, подписи проверяются тем же
// HMAC правилом, что и у боевого шлюза.
type DevGateway struct {
	secret string
}

// NewDevGateway создаёт шлюз-заглушку.
func NewDevGateway(secret string) *DevGateway {
	return &DevGateway{secret: secret}
}

func (g *DevGateway) CreateOrder(_ context.Context, amount int64, currency, receipt string, _ map[string]interface{}) (*Order, error) {
	order := &Order{
		ID:       fmt.Sprintf("order_dev_%s", uuid.NewString()),
		Amount:   amount,
		Currency: currency,
		Receipt:  receipt,
	}
	logger.Log.WithField("order_id", order.ID).Debug("Dev gateway: order created")
	return order, nil
}

func (g *DevGateway) CreateRefund(_ context.Context, paymentID string, amount int64, _ map[string]interface{}) (string, error) {
	refundID := fmt.Sprintf("rfnd_dev_%s", uuid.NewString())
	logger.Log.WithField("payment_id", paymentID).WithField("refund_id", refundID).Debug("Dev gateway: refund created")
	return refundID, nil
}

func (g *DevGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return VerifyPaymentSignature(orderID, paymentID, signature, g.secret)
}
