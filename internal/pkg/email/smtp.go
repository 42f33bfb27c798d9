package email

import (
	"context"
	"fmt"
	"net/smtp"
	"time"

	"github.com/google/uuid"

	"github.com/selah-im/intake_server/config"
)

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPSender delivers through an authenticated SMTP relay.
type SMTPSender struct {
	addr     string
	auth     smtp.Auth
	sendMail sendMailFunc
}

func NewSMTPSender(cfg *config.EmailConfig) *SMTPSender {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.SMTPHost)
	}
	return &SMTPSender{
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		auth:     auth,
		sendMail: smtp.SendMail,
	}
}

// Send returns the generated Message-ID. net/smtp has no context support, so
// ctx is only checked before the dial.
func (s *SMTPSender) Send(ctx context.Context, msg *Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	messageID := fmt.Sprintf("<%s@%s>", uuid.NewString(), domainOf(msg.From))
	raw, err := buildMIME(msg, messageID, time.Now())
	if err != nil {
		return "", fmt.Errorf("build message: %w", err)
	}

	if err := s.sendMail(s.addr, s.auth, msg.From, []string{msg.To}, raw); err != nil {
		return "", fmt.Errorf("smtp send: %w", err)
	}
	return messageID, nil
}
