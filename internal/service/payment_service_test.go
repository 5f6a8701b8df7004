package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/artistapp-backend/internal/logger"
	"github.com/ignatzorin/artistapp-backend/internal/models"
	"github.com/ignatzorin/artistapp-backend/internal/pkg/apperror"
)

type payEnv struct {
	svc      *PaymentService
	bookings *fakeBookingRepo
	payments *fakePaymentRepo
	gateway  *fakeGateway
	notifier *fakeNotifier
	userID   uuid.UUID
	artistID uuid.UUID
}

func newPayEnv(t *testing.T) *payEnv {
	t.Helper()
	logger.Init("error")

	bookings := newFakeBookingRepo()
	payments := newFakePaymentRepo()
	bookings.payments = payments
	artists := newFakeArtistRepo()
	users := newFakeUserRepo()
	gw := &fakeGateway{}
	notifier := &fakeNotifier{}

	artist := artists.add(&models.Artist{Email: "artist@example.com", Username: "dj", FullName: "DJ Example", IsActive: true})
	user := users.add(&models.User{Email: "user@example.com", Username: "client", IsActive: true})

	return &payEnv{
		svc:      NewPaymentService(payments, bookings, artists, users, gw, notifier, nil, "INR"),
		bookings: bookings,
		payments: payments,
		gateway:  gw,
		notifier: notifier,
		userID:   user.ID,
		artistID: artist.ID,
	}
}

// seedBooking кладёт бронирование сразу в нужном статусе, минуя переговоры.
func (e *payEnv) seedBooking(t *testing.T, status string, budget float64, counter *float64, eventDate time.Time) *models.Booking {
	t.Helper()

	b := &models.Booking{
		UserID:         e.userID,
		ArtistID:       e.artistID,
		EventDate:      eventDate,
		EventTime:      "19:00",
		DurationHours:  2,
		Location:       "Moscow",
		ProposedBudget: budget,
	}
	require.NoError(t, e.bookings.Create(context.Background(), b))

	e.bookings.mu.Lock()
	stored := e.bookings.bookings[b.ID]
	stored.Status = status
	stored.CounterOfferAmount = counter
	e.bookings.mu.Unlock()

	b.Status = status
	b.CounterOfferAmount = counter
	return b
}

// payAdvance прогоняет создание заказа и верификацию аванса.
func (e *payEnv) payAdvance(t *testing.T, bookingID uuid.UUID) *OrderResult {
	t.Helper()

	order, err := e.svc.CreateAdvanceOrder(context.Background(), e.userID, bookingID)
	require.NoError(t, err)

	_, _, err = e.svc.VerifyAdvancePayment(context.Background(), VerifyInput{
		BookingID: bookingID,
		OrderID:   order.OrderID,
		PaymentID: "pay_adv",
		Signature: signFor(order.OrderID, "pay_adv"),
	})
	require.NoError(t, err)
	return order
}

func TestSplitAmounts(t *testing.T) {
	cases := []struct {
		total, advance, remaining float64
	}{
		{1000, 150, 850},
		{2000, 300, 1700},
		{999, 150, 849},
		{1, 0, 1},
		{10, 2, 8},
	}
	for _, c := range cases {
		advance, remaining := SplitAmounts(c.total)
		assert.Equal(t, c.advance, advance, "total=%v", c.total)
		assert.Equal(t, c.remaining, remaining, "total=%v", c.total)
		assert.Equal(t, c.total, advance+remaining, "total=%v", c.total)
	}
}

func TestRefundPercentage(t *testing.T) {
	assert.Equal(t, 100, RefundPercentage(4))
	assert.Equal(t, 50, RefundPercentage(3))
	assert.Equal(t, 50, RefundPercentage(2))
	assert.Equal(t, 50, RefundPercentage(1))
	assert.Equal(t, 0, RefundPercentage(0))
	assert.Equal(t, 0, RefundPercentage(-1))
}

func TestDaysBeforeEvent(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	// неполные сутки округляются вверх
	assert.Equal(t, 1, DaysBeforeEvent(now.Add(12*time.Hour), now))
	assert.Equal(t, 2, DaysBeforeEvent(now.Add(36*time.Hour), now))
	assert.Equal(t, 4, DaysBeforeEvent(now.Add(4*24*time.Hour), now))
	assert.Equal(t, 0, DaysBeforeEvent(now, now))
}

func TestCreateAdvanceOrderUsesCounterOfferWhenConfirmed(t *testing.T) {
	env := newPayEnv(t)
	counter := float64(2000)
	booking := env.seedBooking(t, models.BookingStatusConfirmed, 1000, &counter, time.Now().Add(10*24*time.Hour))

	order, err := env.svc.CreateAdvanceOrder(context.Background(), env.userID, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(300), order.Amount)
	assert.Equal(t, "INR", order.Currency)
	assert.Equal(t, booking.ID, order.BookingID)

	payment, err := env.payments.GetByBookingID(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(2000), payment.TotalAmount)
	assert.Equal(t, float64(300), payment.AdvanceAmount)
	assert.Equal(t, float64(1700), payment.RemainingAmount)

	updated, err := env.bookings.GetByID(context.Background(), booking.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.FinalAmount)
	assert.Equal(t, float64(2000), *updated.FinalAmount)
}

func TestCreateAdvanceOrderAcceptedUsesProposedBudget(t *testing.T) {
	env := newPayEnv(t)
	booking := env.seedBooking(t, models.BookingStatusAccepted, 1000, nil, time.Now().Add(10*24*time.Hour))

	order, err := env.svc.CreateAdvanceOrder(context.Background(), env.userID, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(150), order.Amount)
}

func TestCreateAdvanceOrderWrongState(t *testing.T) {
	env := newPayEnv(t)
	booking := env.seedBooking(t, models.BookingStatusRequested, 1000, nil, time.Now().Add(10*24*time.Hour))

	_, err := env.svc.CreateAdvanceOrder(context.Background(), env.userID, booking.ID)
	assert.True(t, apperror.IsConflict(err))
}

func TestCreateAdvanceOrderNotOwner(t *testing.T) {
	env := newPayEnv(t)
	booking := env.seedBooking(t, models.BookingStatusConfirmed, 1000, nil, time.Now().Add(10*24*time.Hour))

	_, err := env.svc.CreateAdvanceOrder(context.Background(), uuid.New(), booking.ID)
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestCreateAdvanceOrderAlreadyPaid(t *testing.T) {
	env := newPayEnv(t)
	booking := env.seedBooking(t, models.BookingStatusAccepted, 1000, nil, time.Now().Add(10*24*time.Hour))
	env.payAdvance(t, booking.ID)

	// бронирование уже ACTIVE, повторный заказ аванса невозможен
	_, err := env.svc.CreateAdvanceOrder(context.Background(), env.userID, booking.ID)
	assert.True(t, apperror.IsConflict(err))
}

func TestVerifyAdvancePayment(t *testing.T) {
	env := newPayEnv(t)
	counter := float64(2000)
	booking := env.seedBooking(t, models.BookingStatusConfirmed, 1000, &counter, time.Now().Add(10*24*time.Hour))

	order, err := env.svc.CreateAdvanceOrder(context.Background(), env.userID, booking.ID)
	require.NoError(t, err)

	updatedBooking, payment, err := env.svc.VerifyAdvancePayment(context.Background(), VerifyInput{
		BookingID: booking.ID,
		OrderID:   order.OrderID,
		PaymentID: "pay_adv",
		Signature: signFor(order.OrderID, "pay_adv"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusActive, updatedBooking.Status)
	assert.True(t, updatedBooking.PaymentStatus.AdvancePaid)
	assert.False(t, updatedBooking.PaymentStatus.RemainingPaid)
	assert.Equal(t, models.PaymentLegCompleted, payment.AdvanceStatus)
	require.NotNil(t, updatedBooking.FinalAmount)
	assert.Equal(t, float64(2000), *updatedBooking.FinalAmount)
	assert.Equal(t, 1, env.notifier.count(EventAdvancePaid))
}

func TestVerifyAdvancePaymentInvalidSignature(t *testing.T) {
	env := newPayEnv(t)
	booking := env.seedBooking(t, models.BookingStatusAccepted, 1000, nil, time.Now().Add(10*24*time.Hour))

	order, err := env.svc.CreateAdvanceOrder(context.Background(), env.userID, booking.ID)
	require.NoError(t, err)

	_, _, err = env.svc.VerifyAdvancePayment(context.Background(), VerifyInput{
		BookingID: booking.ID,
		OrderID:   order.OrderID,
		PaymentID: "pay_adv",
		Signature: "deadbeef",
	})
	assert.ErrorIs(t, err, apperror.ErrInvalidSignature)

	// состояние не изменилось
	current, err := env.bookings.GetByID(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusAccepted, current.Status)

	payment, err := env.payments.GetByBookingID(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentLegPending, payment.AdvanceStatus)
}

// Повторная верификация с той же валидной подписью не применяет эффекты дважды.
func TestVerifyAdvancePaymentIdempotent(t *testing.T) {
	env := newPayEnv(t)
	booking := env.seedBooking(t, models.BookingStatusAccepted, 1000, nil, time.Now().Add(10*24*time.Hour))

	order, err := env.svc.CreateAdvanceOrder(context.Background(), env.userID, booking.ID)
	require.NoError(t, err)

	in := VerifyInput{
		BookingID: booking.ID,
		OrderID:   order.OrderID,
		PaymentID: "pay_adv",
		Signature: signFor(order.OrderID, "pay_adv"),
	}

	first, _, err := env.svc.VerifyAdvancePayment(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusActive, first.Status)

	second, _, err := env.svc.VerifyAdvancePayment(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusActive, second.Status)
	assert.Equal(t, 1, env.notifier.count(EventAdvancePaid))
}

func TestRemainingFlow(t *testing.T) {
	env := newPayEnv(t)
	booking := env.seedBooking(t, models.BookingStatusAccepted, 1000, nil, time.Now().Add(10*24*time.Hour))
	env.payAdvance(t, booking.ID)

	order, err := env.svc.CreateRemainingOrder(context.Background(),
		models.Principal{ID: env.artistID, Role: models.RoleArtist}, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(850), order.Amount)

	updatedBooking, payment, err := env.svc.VerifyRemainingPayment(context.Background(), VerifyInput{
		BookingID: booking.ID,
		OrderID:   order.OrderID,
		PaymentID: "pay_rem",
		Signature: signFor(order.OrderID, "pay_rem"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCompleted, updatedBooking.Status)
	assert.True(t, updatedBooking.PaymentStatus.RemainingPaid)
	assert.Equal(t, models.PaymentLegCompleted, payment.RemainingStatus)
	assert.Equal(t, 1, env.notifier.count(EventBookingCompleted))
}

// Гонка: бронирование стало COMPLETED между созданием заказа на остаток
// и его верификацией. Условный переход статуса проигрывает, но проекция
// оплат при чтении выводится из записи платежа и показывает остаток
// оплаченным.
func TestVerifyRemainingWhenBookingAlreadyCompleted(t *testing.T) {
	env := newPayEnv(t)
	booking := env.seedBooking(t, models.BookingStatusAccepted, 1000, nil, time.Now().Add(10*24*time.Hour))
	env.payAdvance(t, booking.ID)

	order, err := env.svc.CreateRemainingOrder(context.Background(),
		models.Principal{ID: env.userID, Role: models.RoleUser}, booking.ID)
	require.NoError(t, err)

	env.bookings.mu.Lock()
	env.bookings.bookings[booking.ID].Status = models.BookingStatusCompleted
	env.bookings.mu.Unlock()

	updated, payment, err := env.svc.VerifyRemainingPayment(context.Background(), VerifyInput{
		BookingID: booking.ID,
		OrderID:   order.OrderID,
		PaymentID: "pay_rem",
		Signature: signFor(order.OrderID, "pay_rem"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentLegCompleted, payment.RemainingStatus)
	assert.True(t, updated.PaymentStatus.RemainingPaid)

	// И последующие чтения видят то же самое.
	reread, err := env.bookings.GetByID(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.True(t, reread.PaymentStatus.AdvancePaid)
	assert.True(t, reread.PaymentStatus.RemainingPaid)

	list, err := env.bookings.ListByUser(context.Background(), env.userID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].PaymentStatus.RemainingPaid)
}

func TestCreateRemainingOrderRequiresCompletedAdvance(t *testing.T) {
	env := newPayEnv(t)
	booking := env.seedBooking(t, models.BookingStatusAccepted, 1000, nil, time.Now().Add(10*24*time.Hour))

	_, err := env.svc.CreateAdvanceOrder(context.Background(), env.userID, booking.ID)
	require.NoError(t, err)

	_, err = env.svc.CreateRemainingOrder(context.Background(),
		models.Principal{ID: env.userID, Role: models.RoleUser}, booking.ID)
	assert.True(t, apperror.IsConflict(err))
}

func TestCreateRemainingOrderStranger(t *testing.T) {
	env := newPayEnv(t)
	booking := env.seedBooking(t, models.BookingStatusAccepted, 1000, nil, time.Now().Add(10*24*time.Hour))
	env.payAdvance(t, booking.ID)

	_, err := env.svc.CreateRemainingOrder(context.Background(),
		models.Principal{ID: uuid.New(), Role: models.RoleArtist}, booking.ID)
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

// Тарифная сетка возвратов: 4 дня — 100%, 2 дня — 50%, 12 часов — 0%.
func TestRequestRefundTiers(t *testing.T) {
	cases := []struct {
		name       string
		until      time.Duration
		percentage int
		amount     float64
		status     string
	}{
		{"four days out", 4 * 24 * time.Hour, 100, 150, models.RefundStatusProcessing},
		{"two days out", 2 * 24 * time.Hour, 50, 75, models.RefundStatusProcessing},
		{"twelve hours out", 12 * time.Hour, 0, 0, models.RefundStatusCompleted},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			env := newPayEnv(t)
			booking := env.seedBooking(t, models.BookingStatusAccepted, 1000, nil, time.Now().Add(c.until))
			env.payAdvance(t, booking.ID)

			result, err := env.svc.RequestRefund(context.Background(), env.userID, booking.ID, "plans changed")
			require.NoError(t, err)
			require.NotNil(t, result.Refund)
			assert.Equal(t, c.percentage, result.Refund.Percentage)
			assert.Equal(t, c.amount, result.Refund.Amount)
			assert.Equal(t, c.status, result.Refund.Status)

			updated, err := env.bookings.GetByID(context.Background(), booking.ID)
			require.NoError(t, err)
			assert.Equal(t, models.BookingStatusCancelled, updated.Status)
		})
	}
}

func TestRequestRefundWithoutCompletedAdvance(t *testing.T) {
	env := newPayEnv(t)
	booking := env.seedBooking(t, models.BookingStatusAccepted, 1000, nil, time.Now().Add(4*24*time.Hour))

	_, err := env.svc.CreateAdvanceOrder(context.Background(), env.userID, booking.ID)
	require.NoError(t, err)

	_, err = env.svc.RequestRefund(context.Background(), env.userID, booking.ID, "plans changed")
	assert.True(t, apperror.IsConflict(err))
}

// Сбой шлюза при возврате: refund помечается FAILED, бронирование всё равно CANCELLED.
func TestRequestRefundGatewayFailureStillCancels(t *testing.T) {
	env := newPayEnv(t)
	booking := env.seedBooking(t, models.BookingStatusAccepted, 1000, nil, time.Now().Add(4*24*time.Hour))
	env.payAdvance(t, booking.ID)
	env.gateway.failRefunds = true

	result, err := env.svc.RequestRefund(context.Background(), env.userID, booking.ID, "plans changed")
	require.NoError(t, err)
	assert.Equal(t, models.RefundStatusFailed, result.Refund.Status)

	updated, err := env.bookings.GetByID(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, updated.Status)

	payment, err := env.payments.GetByBookingID(context.Background(), booking.ID)
	require.NoError(t, err)
	require.NotNil(t, payment.RefundStatus)
	assert.Equal(t, models.RefundStatusFailed, *payment.RefundStatus)
}

func TestRequestRefundTwice(t *testing.T) {
	env := newPayEnv(t)
	booking := env.seedBooking(t, models.BookingStatusAccepted, 1000, nil, time.Now().Add(4*24*time.Hour))
	env.payAdvance(t, booking.ID)

	_, err := env.svc.RequestRefund(context.Background(), env.userID, booking.ID, "plans changed")
	require.NoError(t, err)

	_, err = env.svc.RequestRefund(context.Background(), env.userID, booking.ID, "plans changed")
	assert.True(t, apperror.IsConflict(err))
}

// Полный сценарий: запрос 1000 -> контрпредложение 2000 -> подтверждение ->
// аванс 300 -> ACTIVE -> остаток 1700 -> COMPLETED.
func TestEndToEndSettlementScenario(t *testing.T) {
	bookings := newFakeBookingRepo()
	payments := newFakePaymentRepo()
	bookings.payments = payments
	artists := newFakeArtistRepo()
	users := newFakeUserRepo()
	gw := &fakeGateway{}
	notifier := &fakeNotifier{}

	artist := artists.add(&models.Artist{Email: "artist@example.com", Username: "dj", FullName: "DJ Example", IsActive: true})
	user := users.add(&models.User{Email: "user@example.com", Username: "client", IsActive: true})

	bookingSvc := NewBookingService(bookings, artists, users, notifier, nil)
	paymentSvc := NewPaymentService(payments, bookings, artists, users, gw, notifier, nil, "INR")

	ctx := context.Background()

	booking, err := bookingSvc.Create(ctx, user.ID, CreateBookingInput{
		ArtistID:       artist.ID,
		EventDate:      time.Now().Add(14 * 24 * time.Hour),
		EventTime:      "20:00",
		DurationHours:  4,
		Location:       "Moscow",
		ProposedBudget: 1000,
	})
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusRequested, booking.Status)

	counter := float64(2000)
	booking, err = bookingSvc.Respond(ctx, artist.ID, booking.ID, RespondInput{
		Status:             models.BookingStatusCounterOffer,
		CounterOfferAmount: &counter,
	})
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCounterOffer, booking.Status)

	booking, err = bookingSvc.Confirm(ctx, user.ID, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusConfirmed, booking.Status)
	assert.Nil(t, booking.FinalAmount)

	advOrder, err := paymentSvc.CreateAdvanceOrder(ctx, user.ID, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(300), advOrder.Amount)

	booking, payment, err := paymentSvc.VerifyAdvancePayment(ctx, VerifyInput{
		BookingID: booking.ID,
		OrderID:   advOrder.OrderID,
		PaymentID: "pay_adv",
		Signature: signFor(advOrder.OrderID, "pay_adv"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusActive, booking.Status)
	assert.True(t, booking.PaymentStatus.AdvancePaid)
	assert.Equal(t, float64(300), payment.AdvanceAmount)
	assert.Equal(t, float64(1700), payment.RemainingAmount)

	remOrder, err := paymentSvc.CreateRemainingOrder(ctx,
		models.Principal{ID: user.ID, Role: models.RoleUser}, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(1700), remOrder.Amount)

	booking, payment, err = paymentSvc.VerifyRemainingPayment(ctx, VerifyInput{
		BookingID: booking.ID,
		OrderID:   remOrder.OrderID,
		PaymentID: "pay_rem",
		Signature: signFor(remOrder.OrderID, "pay_rem"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCompleted, booking.Status)
	assert.True(t, booking.PaymentStatus.RemainingPaid)
	assert.Equal(t, payment.TotalAmount, payment.AdvanceAmount+payment.RemainingAmount)
}
