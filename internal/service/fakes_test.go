package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/artistapp-backend/internal/gateway"
	"github.com/ignatzorin/artistapp-backend/internal/models"
	"github.com/ignatzorin/artistapp-backend/internal/repository"
	"github.com/ignatzorin/artistapp-backend/internal/repository/common"
)

// Фейки хранилищ повторяют семантику SQL-репозиториев, включая условные
// обновления статусов, чтобы сервисные тесты гоняли реальные переходы.

type fakeBookingRepo struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*models.Booking
	// payments задаётся там, где тесты гоняют расчёты: чтения выводят
	// проекцию оплат из записи платежа, как LEFT JOIN в SQL-репозитории.
	payments *fakePaymentRepo
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: make(map[uuid.UUID]*models.Booking)}
}

func (r *fakeBookingRepo) derivePaymentStatus(b *models.Booking) {
	var adv, rem *string
	if r.payments != nil {
		if p, err := r.payments.GetByBookingID(context.Background(), b.ID); err == nil {
			adv, rem = &p.AdvanceStatus, &p.RemainingStatus
		}
	}
	b.DerivePaymentStatus(adv, rem)
}

func (r *fakeBookingRepo) Create(_ context.Context, b *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b.ID = uuid.New()
	b.Status = models.BookingStatusRequested
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	clone := *b
	r.bookings[b.ID] = &clone
	return nil
}

func (r *fakeBookingRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, repository.ErrBookingNotFound
	}
	clone := *b
	r.derivePaymentStatus(&clone)
	return &clone, nil
}

func (r *fakeBookingRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Booking
	for _, b := range r.bookings {
		if b.UserID == userID {
			clone := *b
			r.derivePaymentStatus(&clone)
			out = append(out, clone)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) ListByArtist(_ context.Context, artistID uuid.UUID) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Booking
	for _, b := range r.bookings {
		if b.ArtistID == artistID {
			clone := *b
			r.derivePaymentStatus(&clone)
			out = append(out, clone)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) UpdateStatusIf(_ context.Context, id uuid.UUID, expected, next string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok || b.Status != expected {
		return repository.ErrStaleStatus
	}
	b.Status = next
	return nil
}

func (r *fakeBookingRepo) SetArtistResponse(_ context.Context, id uuid.UUID, status string, message *string, counterOffer *float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok || b.Status != models.BookingStatusRequested {
		return repository.ErrStaleStatus
	}
	b.Status = status
	b.ArtistMessage = message
	b.CounterOfferAmount = counterOffer
	return nil
}

func (r *fakeBookingRepo) SetFinalAmount(_ context.Context, id uuid.UUID, amount float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return repository.ErrBookingNotFound
	}
	b.FinalAmount = &amount
	return nil
}

func (r *fakeBookingRepo) MarkAdvancePaid(_ context.Context, id uuid.UUID, expected string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok || b.Status != expected {
		return repository.ErrStaleStatus
	}
	b.Status = models.BookingStatusActive
	b.AdvancePaid = true
	return nil
}

func (r *fakeBookingRepo) MarkRemainingPaid(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok || b.Status != models.BookingStatusActive {
		return repository.ErrStaleStatus
	}
	b.Status = models.BookingStatusCompleted
	b.RemainingPaid = true
	return nil
}

func (r *fakeBookingRepo) SetCancelledByArtist(_ context.Context, id uuid.UUID, reason string, cancelledAt time.Time, allowedFrom []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return repository.ErrStaleStatus
	}
	allowed := false
	for _, s := range allowedFrom {
		if b.Status == s {
			allowed = true
			break
		}
	}
	if !allowed {
		return repository.ErrStaleStatus
	}
	b.Status = models.BookingStatusCancelled
	b.ArtistCancelledAt = &cancelledAt
	b.ArtistCancelReason = &reason
	return nil
}

type fakeArtistRepo struct {
	mu      sync.Mutex
	artists map[uuid.UUID]*models.Artist
}

func newFakeArtistRepo() *fakeArtistRepo {
	return &fakeArtistRepo{artists: make(map[uuid.UUID]*models.Artist)}
}

func (r *fakeArtistRepo) add(a *models.Artist) *models.Artist {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	clone := *a
	r.artists[a.ID] = &clone
	return a
}

func (r *fakeArtistRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Artist, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.artists[id]
	if !ok {
		return nil, repository.ErrArtistNotFound
	}
	clone := *a
	return &clone, nil
}

func (r *fakeArtistRepo) SetShadowBan(_ context.Context, id uuid.UUID, until time.Time, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.artists[id]
	if !ok {
		return repository.ErrArtistNotFound
	}
	a.IsShadowBanned = true
	a.BannedUntil = &until
	a.BanReason = &reason
	return nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*models.User)}
}

func (r *fakeUserRepo) add(u *models.User) *models.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	clone := *u
	r.users[u.ID] = &clone
	return u
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

type fakePaymentRepo struct {
	mu       sync.Mutex
	payments map[uuid.UUID]*models.Payment // ключ — booking_id
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{payments: make(map[uuid.UUID]*models.Payment)}
}

func (r *fakePaymentRepo) UpsertAdvanceOrder(_ context.Context, p *models.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.payments[p.BookingID]; ok {
		if existing.AdvanceStatus != models.PaymentLegPending {
			return common.ErrStaleState
		}
		existing.AdvanceOrderID = p.AdvanceOrderID
		*p = *existing
		return nil
	}
	p.ID = uuid.New()
	p.AdvanceStatus = models.PaymentLegPending
	p.RemainingStatus = models.PaymentLegPending
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	clone := *p
	r.payments[p.BookingID] = &clone
	return nil
}

func (r *fakePaymentRepo) SetRemainingOrder(_ context.Context, bookingID uuid.UUID, orderID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[bookingID]
	if !ok || p.RemainingStatus != models.PaymentLegPending {
		return common.ErrStaleState
	}
	p.RemainingOrderID = &orderID
	return nil
}

func (r *fakePaymentRepo) GetByBookingID(_ context.Context, bookingID uuid.UUID) (*models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[bookingID]
	if !ok {
		return nil, repository.ErrPaymentNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *fakePaymentRepo) MarkAdvanceCompleted(_ context.Context, bookingID uuid.UUID, paymentID, signature string, paidAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[bookingID]
	if !ok || p.AdvanceStatus != models.PaymentLegPending {
		return common.ErrStaleState
	}
	p.AdvanceStatus = models.PaymentLegCompleted
	p.AdvancePaymentID = &paymentID
	p.AdvanceSignature = &signature
	p.AdvancePaidAt = &paidAt
	return nil
}

func (r *fakePaymentRepo) MarkRemainingCompleted(_ context.Context, bookingID uuid.UUID, paymentID, signature string, paidAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[bookingID]
	if !ok || p.RemainingStatus != models.PaymentLegPending {
		return common.ErrStaleState
	}
	p.RemainingStatus = models.PaymentLegCompleted
	p.RemainingPaymentID = &paymentID
	p.RemainingSignature = &signature
	p.RemainingPaidAt = &paidAt
	return nil
}

func (r *fakePaymentRepo) InitiateRefund(_ context.Context, bookingID uuid.UUID, refund models.Refund) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[bookingID]
	if !ok || p.RefundRequested {
		return common.ErrStaleState
	}
	p.RefundRequested = true
	p.RefundReason = &refund.Reason
	days := refund.DaysBeforeEvent
	p.RefundDaysBefore = &days
	pct := refund.Percentage
	p.RefundPercentage = &pct
	amount := refund.Amount
	p.RefundAmount = &amount
	status := refund.Status
	p.RefundStatus = &status
	p.RefundInitiatedAt = refund.InitiatedAt
	p.RefundCompletedAt = refund.CompletedAt
	p.AdvanceStatus = models.PaymentLegRefunded
	return nil
}

func (r *fakePaymentRepo) SetRefundOutcome(_ context.Context, bookingID uuid.UUID, status string, gatewayRefundID *string, completedAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[bookingID]
	if !ok || !p.RefundRequested {
		return repository.ErrPaymentNotFound
	}
	p.RefundStatus = &status
	p.RefundGatewayID = gatewayRefundID
	p.RefundCompletedAt = completedAt
	return nil
}

type fakeCancellationRepo struct {
	mu      sync.Mutex
	records []models.Cancellation
}

func newFakeCancellationRepo() *fakeCancellationRepo {
	return &fakeCancellationRepo{}
}

func (r *fakeCancellationRepo) Create(_ context.Context, c *models.Cancellation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.ID = uuid.New()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	r.records = append(r.records, *c)
	return nil
}

func (r *fakeCancellationRepo) CountForArtistSince(_ context.Context, artistID uuid.UUID, since time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, c := range r.records {
		if c.ArtistID == artistID && !c.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (r *fakeCancellationRepo) ListForArtist(_ context.Context, artistID uuid.UUID, _ int) ([]models.Cancellation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Cancellation
	for _, c := range r.records {
		if c.ArtistID == artistID {
			out = append(out, c)
		}
	}
	return out, nil
}

const testGatewaySecret = "s3cret"

// fakeGateway выдаёт детерминированные заказы и подписывает их тем же
// правилом, что и боевой шлюз.
type fakeGateway struct {
	mu          sync.Mutex
	orderSeq    int
	refundSeq   int
	failRefunds bool
	orders      []gateway.Order
	refunds     []string
}

func (g *fakeGateway) CreateOrder(_ context.Context, amount int64, currency, receipt string, _ map[string]interface{}) (*gateway.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.orderSeq++
	order := gateway.Order{
		ID:       fmt.Sprintf("order_%d", g.orderSeq),
		Amount:   amount,
		Currency: currency,
		Receipt:  receipt,
	}
	g.orders = append(g.orders, order)
	return &order, nil
}

func (g *fakeGateway) CreateRefund(_ context.Context, paymentID string, _ int64, _ map[string]interface{}) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failRefunds {
		return "", fmt.Errorf("gateway unavailable")
	}
	g.refundSeq++
	id := fmt.Sprintf("rfnd_%d", g.refundSeq)
	g.refunds = append(g.refunds, paymentID)
	return id, nil
}

func (g *fakeGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return gateway.VerifyPaymentSignature(orderID, paymentID, signature, testGatewaySecret)
}

// signFor считает валидную подпись для фейкового шлюза.
func signFor(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(testGatewaySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *fakeNotifier) BroadcastToPrincipal(_ models.Principal, event string, _ any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

func (n *fakeNotifier) count(event string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, e := range n.events {
		if e == event {
			c++
		}
	}
	return c
}
