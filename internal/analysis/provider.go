package analysis

import (
	"context"

	"go.uber.org/zap"

	"github.com/selah-im/intake_server/config"
	"github.com/selah-im/intake_server/internal/model"
	"github.com/selah-im/intake_server/internal/pkg/metrics"
)

// Pipeline step names used in logs and metrics
const (
	StepAnalyze = "analyze"
	StepCompose = "compose"
)

// Provider produces the readiness analysis and the welcome copy for an
// intake. Malformed model output degrades to fixed defaults; only transport
// failures are returned as errors.
type Provider struct {
	completer Completer
	cfg       config.AnalysisConfig
	log       *zap.Logger
}

func NewProvider(completer Completer, cfg config.AnalysisConfig, log *zap.Logger) *Provider {
	return &Provider{completer: completer, cfg: cfg, log: log}
}

// Analyze returns the structured analysis, or the fallback when the answer
// cannot be parsed. Transport failures return *AnalysisError.
func (p *Provider) Analyze(ctx context.Context, in *model.Intake) (*model.AnalysisResult, error) {
	text, err := p.completer.Complete(ctx, CompletionRequest{
		Prompt:      buildAnalysisPrompt(in),
		Temperature: p.cfg.AnalysisTemperature,
		MaxTokens:   p.cfg.AnalysisMaxTokens,
	})
	if err != nil {
		metrics.PipelineSteps.WithLabelValues(StepAnalyze, metrics.OutcomeFailed).Inc()
		return nil, &AnalysisError{Op: StepAnalyze, Err: err}
	}

	result, err := ParseAnalysis(text)
	if err != nil {
		metrics.PipelineSteps.WithLabelValues(StepAnalyze, metrics.OutcomeFallback).Inc()
		p.log.Warn("analysis output unusable, using fallback", zap.Error(err))
	} else {
		metrics.PipelineSteps.WithLabelValues(StepAnalyze, metrics.OutcomeOK).Inc()
	}
	return AnalysisOrFallback(result, err, in), nil
}

// GenerateEmail returns the personalized welcome, or the generic one when the
// answer cannot be parsed. Transport failures return *AnalysisError.
func (p *Provider) GenerateEmail(ctx context.Context, in *model.Intake, result *model.AnalysisResult) (*model.PersonalizedEmail, error) {
	text, err := p.completer.Complete(ctx, CompletionRequest{
		Prompt:      buildEmailPrompt(in, result),
		Temperature: p.cfg.EmailTemperature,
		MaxTokens:   p.cfg.EmailMaxTokens,
	})
	if err != nil {
		metrics.PipelineSteps.WithLabelValues(StepCompose, metrics.OutcomeFailed).Inc()
		return nil, &AnalysisError{Op: StepCompose, Err: err}
	}

	email, err := ParseEmail(text)
	if err != nil {
		metrics.PipelineSteps.WithLabelValues(StepCompose, metrics.OutcomeFallback).Inc()
		p.log.Warn("email output unusable, using fallback", zap.Error(err))
	} else {
		metrics.PipelineSteps.WithLabelValues(StepCompose, metrics.OutcomeOK).Inc()
	}
	return EmailOrFallback(email, err), nil
}
