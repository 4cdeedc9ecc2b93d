package notify

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"

	"github.com/domodwyer/mailyak/v3"

	"github.com/dmitrijs2005/gophevents/internal/common"
)

type SMTPConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	FromName    string
	FromAddress string
}

// SMTPSender delivers messages through an SMTP relay using mailyak.
type SMTPSender struct {
	cfg SMTPConfig
}

func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

// Send builds and sends msg. mailyak has no context support, so the
// exchange runs in a goroutine and Send returns early when ctx is done.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	mail := mailyak.New(net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port)), auth)
	mail.To(msg.To)
	mail.From(s.cfg.FromAddress)
	mail.FromName(s.cfg.FromName)
	mail.Subject(msg.Subject)
	mail.Plain().Set(msg.Body)

	done := make(chan error, 1)
	go func() {
		done <- mail.Send()
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", common.ErrDelivery, ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("%w: %v", common.ErrDelivery, err)
		}
	}
	return nil
}
