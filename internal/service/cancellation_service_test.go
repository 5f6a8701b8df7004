package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/artistapp-backend/internal/models"
	"github.com/ignatzorin/artistapp-backend/internal/pkg/apperror"
)

type cancelEnv struct {
	svc           *CancellationService
	bookings      *fakeBookingRepo
	cancellations *fakeCancellationRepo
	artists       *fakeArtistRepo
	notifier      *fakeNotifier
	userID        uuid.UUID
	artistID      uuid.UUID
}

func newCancelEnv(t *testing.T) *cancelEnv {
	t.Helper()

	bookings := newFakeBookingRepo()
	cancellations := newFakeCancellationRepo()
	artists := newFakeArtistRepo()
	users := newFakeUserRepo()
	notifier := &fakeNotifier{}

	artist := artists.add(&models.Artist{Email: "artist@example.com", Username: "dj", FullName: "DJ Example", IsActive: true})
	user := users.add(&models.User{Email: "user@example.com", Username: "client", IsActive: true})

	return &cancelEnv{
		svc:           NewCancellationService(bookings, cancellations, artists, users, notifier, nil),
		bookings:      bookings,
		cancellations: cancellations,
		artists:       artists,
		notifier:      notifier,
		userID:        user.ID,
		artistID:      artist.ID,
	}
}

func (e *cancelEnv) seedBooking(t *testing.T, status string) *models.Booking {
	t.Helper()

	b := &models.Booking{
		UserID:         e.userID,
		ArtistID:       e.artistID,
		EventDate:      time.Now().Add(10 * 24 * time.Hour),
		EventTime:      "19:00",
		DurationHours:  2,
		Location:       "Moscow",
		ProposedBudget: 1000,
	}
	require.NoError(t, e.bookings.Create(context.Background(), b))

	e.bookings.mu.Lock()
	e.bookings.bookings[b.ID].Status = status
	e.bookings.mu.Unlock()
	b.Status = status
	return b
}

// seedCancellation добавляет историческую запись отмены с заданной давностью.
func (e *cancelEnv) seedCancellation(t *testing.T, age time.Duration) {
	t.Helper()

	c := &models.Cancellation{
		ArtistID:  e.artistID,
		BookingID: uuid.New(),
		UserID:    e.userID,
		Reason:    "sick",
		CreatedAt: time.Now().Add(-age),
	}
	require.NoError(t, e.cancellations.Create(context.Background(), c))
}

func TestCancelBooking(t *testing.T) {
	env := newCancelEnv(t)
	booking := env.seedBooking(t, models.BookingStatusAccepted)

	result, err := env.svc.CancelBooking(context.Background(), env.artistID, booking.ID, "family emergency")
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, result.Booking.Status)
	require.NotNil(t, result.Booking.ArtistCancelReason)
	assert.Equal(t, "family emergency", *result.Booking.ArtistCancelReason)
	assert.NotNil(t, result.Booking.ArtistCancelledAt)
	assert.Nil(t, result.ShadowBan)
	assert.Equal(t, "Booking cancelled. 3 cancellations left", result.Message)
	assert.Equal(t, 1, env.notifier.count(EventBookingCancelled))
}

func TestCancelBookingNotOwner(t *testing.T) {
	env := newCancelEnv(t)
	booking := env.seedBooking(t, models.BookingStatusAccepted)

	_, err := env.svc.CancelBooking(context.Background(), uuid.New(), booking.ID, "reason")
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestCancelBookingAlreadyClosed(t *testing.T) {
	env := newCancelEnv(t)
	booking := env.seedBooking(t, models.BookingStatusCancelled)

	_, err := env.svc.CancelBooking(context.Background(), env.artistID, booking.ID, "reason")
	assert.True(t, apperror.IsConflict(err))
}

func TestCancelBookingRequiresReason(t *testing.T) {
	env := newCancelEnv(t)
	booking := env.seedBooking(t, models.BookingStatusAccepted)

	_, err := env.svc.CancelBooking(context.Background(), env.artistID, booking.ID, "")
	assert.True(t, apperror.IsValidation(err))
}

// Третья отмена за 7 дней включает теневой бан на 30 дней.
func TestCancelBookingShadowBanOnThird(t *testing.T) {
	env := newCancelEnv(t)
	env.seedCancellation(t, 2*24*time.Hour)
	env.seedCancellation(t, 5*24*time.Hour)
	booking := env.seedBooking(t, models.BookingStatusAccepted)

	before := time.Now()
	result, err := env.svc.CancelBooking(context.Background(), env.artistID, booking.ID, "third strike")
	require.NoError(t, err)

	require.NotNil(t, result.ShadowBan)
	assert.True(t, result.ShadowBan.IsShadowBanned)
	require.NotNil(t, result.ShadowBan.Reason)
	assert.Equal(t, "3 cancellations within 7 days", *result.ShadowBan.Reason)
	require.NotNil(t, result.ShadowBan.BannedUntil)
	expected := before.Add(30 * 24 * time.Hour)
	assert.WithinDuration(t, expected, *result.ShadowBan.BannedUntil, time.Minute)

	artist, err := env.artists.GetByID(context.Background(), env.artistID)
	require.NoError(t, err)
	assert.True(t, artist.IsShadowBanned)
}

// Отмены старше 7 дней в окно не попадают.
func TestCancelBookingOldCancellationsIgnored(t *testing.T) {
	env := newCancelEnv(t)
	env.seedCancellation(t, 8*24*time.Hour)
	env.seedCancellation(t, 30*24*time.Hour)
	env.seedCancellation(t, 2*24*time.Hour)
	booking := env.seedBooking(t, models.BookingStatusAccepted)

	result, err := env.svc.CancelBooking(context.Background(), env.artistID, booking.ID, "reason")
	require.NoError(t, err)
	assert.Nil(t, result.ShadowBan)
	assert.Equal(t, "Booking cancelled. 2 cancellations left", result.Message)

	artist, err := env.artists.GetByID(context.Background(), env.artistID)
	require.NoError(t, err)
	assert.False(t, artist.IsShadowBanned)
}

func TestCancelBookingAppendsAuditRecord(t *testing.T) {
	env := newCancelEnv(t)
	booking := env.seedBooking(t, models.BookingStatusActive)

	_, err := env.svc.CancelBooking(context.Background(), env.artistID, booking.ID, "reason")
	require.NoError(t, err)

	records, err := env.svc.History(context.Background(), env.artistID, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, booking.ID, records[0].BookingID)
	assert.Equal(t, "reason", records[0].Reason)
}
