package gateway

import (
	"context"
	"fmt"
	"math"

	razorpay "github.com/razorpay/razorpay-go"
)

// Order заказ платёжного шлюза на одну оплату (аванс или остаток).
type Order struct {
	ID       string
	Amount   int64 // в минимальных единицах валюты (пайсы/копейки)
	Currency string
	Receipt  string
}

// Gateway абстракция платёжного шлюза. Боевой реализацией служит Razorpay;
// тесты подставляют заглушку.
type Gateway interface {
	CreateOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]interface{}) (*Order, error)
	CreateRefund(ctx context.Context, paymentID string, amount int64, notes map[string]interface{}) (string, error)
	VerifySignature(orderID, paymentID, signature string) bool
}

// RazorpayGateway обёртка над официальным SDK Razorpay.
type RazorpayGateway struct {
	client *razorpay.Client
	secret string
}

// NewRazorpayGateway создаёт шлюз с ключами из конфигурации.
func NewRazorpayGateway(keyID, keySecret string) *RazorpayGateway {
	return &RazorpayGateway{
		client: razorpay.NewClient(keyID, keySecret),
		secret: keySecret,
	}
}

// CreateOrder создаёт заказ в Razorpay. Сумма передаётся в минимальных единицах.
func (g *RazorpayGateway) CreateOrder(_ context.Context, amount int64, currency, receipt string, notes map[string]interface{}) (*Order, error) {
	data := map[string]interface{}{
		"amount":   amount,
		"currency": currency,
		"receipt":  receipt,
	}
	if len(notes) > 0 {
		data["notes"] = notes
	}

	body, err := g.client.Order.Create(data, nil)
	if err != nil {
		return nil, fmt.Errorf("razorpay: create order %w", err)
	}

	id, ok := body["id"].(string)
	if !ok || id == "" {
		return nil, fmt.Errorf("razorpay: create order: ответ без id")
	}
	return &Order{ID: id, Amount: amount, Currency: currency, Receipt: receipt}, nil
}

// CreateRefund инициирует возврат по платежу. Возвращает идентификатор возврата в шлюзе.
func (g *RazorpayGateway) CreateRefund(_ context.Context, paymentID string, amount int64, notes map[string]interface{}) (string, error) {
	data := map[string]interface{}{}
	if len(notes) > 0 {
		data["notes"] = notes
	}

	body, err := g.client.Payment.Refund(paymentID, int(amount), data, nil)
	if err != nil {
		return "", fmt.Errorf("razorpay: create refund %w", err)
	}

	id, ok := body["id"].(string)
	if !ok || id == "" {
		return "", fmt.Errorf("razorpay: create refund: ответ без id")
	}
	return id, nil
}

// VerifySignature проверяет подпись оплаты по схеме Razorpay:
// hex(HMAC-SHA256("orderId|paymentId", key_secret)).
func (g *RazorpayGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return VerifyPaymentSignature(orderID, paymentID, signature, g.secret)
}

// ToMinorUnits переводит сумму в рублях/рупиях в минимальные единицы шлюза.
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
