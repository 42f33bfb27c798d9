package email

import (
	"context"
	"fmt"

	"github.com/selah-im/intake_server/config"
)

// NewSender picks the delivery transport named in config.
func NewSender(ctx context.Context, cfg *config.EmailConfig) (Sender, error) {
	switch cfg.Provider {
	case "", "smtp":
		return NewSMTPSender(cfg), nil
	case "ses":
		sender, err := NewSESSender(ctx, cfg.SESRegion)
		if err != nil {
			return nil, err
		}
		return sender, nil
	default:
		return nil, fmt.Errorf("unsupported email provider %q", cfg.Provider)
	}
}
