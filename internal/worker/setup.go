package worker

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/selah-im/intake_server/config"
	"github.com/selah-im/intake_server/internal/analysis"
	"github.com/selah-im/intake_server/internal/pkg/email"
)

// NewProcessorFromConfig builds the Anthropic-backed analyzer and the
// configured email transport around store. publisher may be nil.
func NewProcessorFromConfig(ctx context.Context, cfg *config.Config, store RecordStore, publisher ProgressPublisher, log *zap.Logger) (*Processor, error) {
	if cfg.Analysis.APIKey == "" {
		log.Warn("analysis api key is empty, every run will abort at the analyze step")
	}
	completer := analysis.NewAnthropicClient(cfg.Analysis.APIKey, cfg.Analysis.Model)
	provider := analysis.NewProvider(completer, cfg.Analysis, log.Named("analysis"))

	sender, err := email.NewSender(ctx, &cfg.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to init email sender: %w", err)
	}
	notifier := email.NewService(sender, &cfg.Email, cfg.Site.BaseURL, log.Named("email"))

	return NewProcessor(store, provider, notifier, publisher, log.Named("processor")), nil
}
