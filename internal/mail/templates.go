package mail

import "fmt"

// Шаблоны писем держим в коде: их мало и они короткие.

// BookingRequested письмо артисту о новом запросе.
func BookingRequested(artistName, userName, eventDate string) (subject, body string) {
	subject = "New booking request"
	body = fmt.Sprintf(
		"<p>Hi %s,</p><p>%s sent you a booking request for %s. Log in to respond.</p>",
		artistName, userName, eventDate,
	)
	return subject, body
}

// BookingResponded письмо заказчику об ответе артиста.
func BookingResponded(userName, artistName, status string) (subject, body string) {
	subject = "Booking update"
	body = fmt.Sprintf(
		"<p>Hi %s,</p><p>%s responded to your booking request: %s.</p>",
		userName, artistName, status,
	)
	return subject, body
}

// AdvanceReceived письмо обеим сторонам об оплаченном авансе.
func AdvanceReceived(name string, amount float64) (subject, body string) {
	subject = "Advance payment received"
	body = fmt.Sprintf(
		"<p>Hi %s,</p><p>The advance payment of %.2f has been received. The booking is now active.</p>",
		name, amount,
	)
	return subject, body
}

// BookingCompleted письмо о полном расчёте.
func BookingCompleted(name string, amount float64) (subject, body string) {
	subject = "Booking completed"
	body = fmt.Sprintf(
		"<p>Hi %s,</p><p>The remaining payment of %.2f has been received. The booking is completed.</p>",
		name, amount,
	)
	return subject, body
}

// BookingCancelledByArtist письмо заказчику об отмене артистом.
func BookingCancelledByArtist(userName, artistName, reason string) (subject, body string) {
	subject = "Booking cancelled"
	body = fmt.Sprintf(
		"<p>Hi %s,</p><p>%s cancelled your booking. Reason: %s. If you paid an advance, request a refund from your bookings page.</p>",
		userName, artistName, reason,
	)
	return subject, body
}
