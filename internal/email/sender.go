package email

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"vieclam_backend/internal/config"
	"vieclam_backend/internal/logger"
)

// Sender - почтовые уведомления. Отправка best-effort: сбой
// логируется и не влияет на исход операции.
type Sender interface {
	Send(to, subject, body string) error
	SendActivationNotice(to, planName string)
}

type SMTPSender struct {
	cfg *config.Config
}

func NewSMTPSender(cfg *config.Config) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

func (e *SMTPSender) Send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(e.cfg.Email.FromEmail, e.cfg.Email.FromName))
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	d := gomail.NewDialer(
		e.cfg.Email.SMTPHost,
		e.cfg.Email.SMTPPort,
		e.cfg.Email.SMTPUsername,
		e.cfg.Email.SMTPPassword,
	)

	return d.DialAndSend(m)
}

// SendActivationNotice отправляет письмо о подтвержденной покупке
// в отдельной горутине.
func (e *SMTPSender) SendActivationNotice(to, planName string) {
	if e.cfg.Email.SMTPHost == "" || to == "" {
		return
	}
	go func() {
		subject := "Gói dịch vụ đã được kích hoạt"
		body := fmt.Sprintf(
			"<p>Gói <b>%s</b> của bạn đã được kích hoạt thành công.</p>"+
				"<p>Cảm ơn bạn đã sử dụng dịch vụ.</p>",
			planName,
		)
		if err := e.Send(to, subject, body); err != nil {
			logger.Warn("failed to send activation email", "to", to, "error", err.Error())
		}
	}()
}
