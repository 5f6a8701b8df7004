package mail

import (
	"fmt"

	gomail "gopkg.in/gomail.v2"

	"github.com/ignatzorin/artistapp-backend/internal/logger"
)

// Mailer отправляет транзакционные письма. Письма отправляются best-effort:
// ошибка отправки логируется и никогда не валит бизнес-операцию.
type Mailer interface {
	Send(to, subject, htmlBody string) error
}

// SMTPMailer рабочая реализация поверх SMTP.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPMailer создаёт почтовик с настройками из конфигурации.
func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

// Send отправляет одно письмо.
func (m *SMTPMailer) Send(to, subject, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("mailer: send to %s: %w", to, err)
	}
	return nil
}

// NoopMailer заглушка для окружений без SMTP (разработка, тесты).
type NoopMailer struct{}

// Send логирует письмо вместо отправки.
func (NoopMailer) Send(to, subject, _ string) error {
	logger.Log.WithField("to", to).WithField("subject", subject).Debug("SMTP не настроен, письмо пропущено")
	return nil
}
