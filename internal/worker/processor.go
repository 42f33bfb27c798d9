package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/selah-im/intake_server/internal/model"
	"github.com/selah-im/intake_server/internal/pkg/email"
	"github.com/selah-im/intake_server/internal/pkg/metrics"
	"github.com/selah-im/intake_server/internal/pkg/pubsub"
	"github.com/selah-im/intake_server/internal/pkg/queue"
)

// Step names for the notification fan-out
const (
	StepNotify = "notify"
	StepUpdate = "update"
	StepAlert  = "alert"
)

type RecordStore interface {
	GetByID(ctx context.Context, id string) (*model.Application, error)
	UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error
}

type Analyzer interface {
	Analyze(ctx context.Context, in *model.Intake) (*model.AnalysisResult, error)
	GenerateEmail(ctx context.Context, in *model.Intake, result *model.AnalysisResult) (*model.PersonalizedEmail, error)
}

type Notifier interface {
	SendWelcome(ctx context.Context, to, subject, body string, meta email.Metadata) email.SendResult
	SendAdminAlert(ctx context.Context, app *model.Application) email.SendResult
}

type ProgressPublisher interface {
	PublishProgress(ctx context.Context, msg *pubsub.ProgressMessage) error
}

// Processor runs the post-acknowledgment phase for one stored application:
// analyze, compose, send the welcome, write the results, alert the admin.
type Processor struct {
	store     RecordStore
	analyzer  Analyzer
	notifier  Notifier
	publisher ProgressPublisher
	log       *zap.Logger
}

// NewProcessor accepts a nil publisher when nobody listens for progress.
func NewProcessor(
	store RecordStore,
	analyzer Analyzer,
	notifier Notifier,
	publisher ProgressPublisher,
	log *zap.Logger,
) *Processor {
	return &Processor{
		store:     store,
		analyzer:  analyzer,
		notifier:  notifier,
		publisher: publisher,
		log:       log,
	}
}

// Process returns an error only when the phase was aborted before any
// notification went out. Failures after that point are logged and swallowed.
func (p *Processor) Process(ctx context.Context, msg *queue.IntakeMessage) error {
	start := time.Now()
	log := p.log.With(zap.String("application_id", msg.ApplicationID))

	publishProgress := func(step, errMsg string) {
		if p.publisher == nil {
			return
		}
		err := p.publisher.PublishProgress(ctx, &pubsub.ProgressMessage{
			ApplicationID: msg.ApplicationID,
			Step:          step,
			Error:         errMsg,
		})
		if err != nil {
			log.Debug("failed to publish progress", zap.String("step", step), zap.Error(err))
		}
	}

	abort := func(step string, err error) error {
		log.Error("async phase aborted, record left for manual follow-up",
			zap.String("step", step), zap.Error(err))
		publishProgress(pubsub.StepAborted, err.Error())
		return err
	}

	app, err := p.store.GetByID(ctx, msg.ApplicationID)
	if err != nil {
		return abort("load", fmt.Errorf("failed to load application: %w", err))
	}
	in := app.Intake()

	// Step 4: analysis
	publishProgress(pubsub.StepAnalyzing, "")
	result, err := p.analyzer.Analyze(ctx, in)
	if err != nil {
		return abort("analyze", err)
	}

	// Step 5: welcome copy
	publishProgress(pubsub.StepComposing, "")
	welcome, err := p.analyzer.GenerateEmail(ctx, in, result)
	if err != nil {
		return abort("compose", err)
	}

	// Step 6: fan-out, each sub-step independent
	publishProgress(pubsub.StepNotifying, "")

	sent := p.notifier.SendWelcome(ctx, app.Email, welcome.SubjectLine, welcome.EmailContent, email.Metadata{
		TemplateType:  email.TemplateWelcome,
		ApplicationID: app.ID,
	})
	if sent.Success {
		metrics.PipelineSteps.WithLabelValues(StepNotify, metrics.OutcomeOK).Inc()
	} else {
		metrics.PipelineSteps.WithLabelValues(StepNotify, metrics.OutcomeFailed).Inc()
		log.Error("welcome email failed", zap.String("step", StepNotify), zap.String("error", sent.Error))
	}

	fields, err := derivedFields(result, welcome, sent.Success, time.Now().UTC())
	if err != nil {
		metrics.PipelineSteps.WithLabelValues(StepUpdate, metrics.OutcomeFailed).Inc()
		log.Error("failed to encode analysis", zap.String("step", StepUpdate), zap.Error(err))
	} else if err := p.store.UpdateFields(ctx, app.ID, fields); err != nil {
		metrics.PipelineSteps.WithLabelValues(StepUpdate, metrics.OutcomeFailed).Inc()
		log.Error("failed to store analysis results", zap.String("step", StepUpdate), zap.Error(err))
	} else {
		metrics.PipelineSteps.WithLabelValues(StepUpdate, metrics.OutcomeOK).Inc()
	}

	// the alert reflects what this run produced even if the write failed
	applyFields(app, result, welcome, fields)

	alert := p.notifier.SendAdminAlert(ctx, app)
	if alert.Success {
		metrics.PipelineSteps.WithLabelValues(StepAlert, metrics.OutcomeOK).Inc()
	} else {
		metrics.PipelineSteps.WithLabelValues(StepAlert, metrics.OutcomeFailed).Inc()
		log.Error("admin alert failed", zap.String("step", StepAlert), zap.String("error", alert.Error))
	}

	publishProgress(pubsub.StepDone, "")

	elapsed := time.Since(start)
	metrics.PipelineDuration.Observe(elapsed.Seconds())
	log.Info("async phase completed",
		zap.Duration("elapsed", elapsed),
		zap.Float64("readiness_score", result.ContemplativeReadinessScore),
		zap.Bool("welcome_email_sent", sent.Success))

	return nil
}

// derivedFields builds the column update written after the welcome send.
func derivedFields(result *model.AnalysisResult, welcome *model.PersonalizedEmail, sent bool, now time.Time) (map[string]interface{}, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}

	var sentAt *time.Time
	if sent {
		sentAt = &now
	}

	return map[string]interface{}{
		"claude_analysis":               datatypes.JSON(raw),
		"contemplative_readiness_score": result.ContemplativeReadinessScore,
		"welcome_email_sent":            sent,
		"welcome_email_sent_at":         sentAt,
		"email_subject_line":            welcome.SubjectLine,
		"email_content":                 welcome.EmailContent,
	}, nil
}

func applyFields(app *model.Application, result *model.AnalysisResult, welcome *model.PersonalizedEmail, fields map[string]interface{}) {
	score := result.ContemplativeReadinessScore
	app.ContemplativeReadinessScore = &score
	app.EmailSubjectLine = welcome.SubjectLine
	app.EmailContent = welcome.EmailContent

	if fields == nil {
		return
	}
	if raw, ok := fields["claude_analysis"].(datatypes.JSON); ok {
		app.ClaudeAnalysis = raw
	}
	if sent, ok := fields["welcome_email_sent"].(bool); ok {
		app.WelcomeEmailSent = sent
	}
	if sentAt, ok := fields["welcome_email_sent_at"].(*time.Time); ok {
		app.WelcomeEmailSentAt = sentAt
	}
}
