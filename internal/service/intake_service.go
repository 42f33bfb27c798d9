package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/selah-im/intake_server/internal/model"
	"github.com/selah-im/intake_server/internal/model/dto"
	"github.com/selah-im/intake_server/internal/pkg/metrics"
)

const (
	SubmitSuccessMessage = "Your contemplative application has been received"
	submissionFlow       = "complete"
)

var ErrStoreFailed = errors.New("failed to store application")

// RecordStore persists new intake records.
type RecordStore interface {
	Create(ctx context.Context, app *model.Application) error
}

// EventRecorder stores analytics events.
type EventRecorder interface {
	Record(ctx context.Context, event *model.AnalyticsEvent) error
}

// Dispatcher schedules the async phase for a stored record. It must not
// wait for the phase to finish.
type Dispatcher interface {
	Dispatch(ctx context.Context, applicationID string) error
}

// IntakeService runs the synchronous part of a submission: validate, store,
// acknowledge. Everything after the acknowledgement is handed to the
// Dispatcher.
type IntakeService struct {
	validator  *Validator
	store      RecordStore
	events     EventRecorder
	dispatcher Dispatcher
	sourceTag  string
	log        *zap.Logger
}

func NewIntakeService(store RecordStore, events EventRecorder, dispatcher Dispatcher, sourceTag string, log *zap.Logger) *IntakeService {
	return &IntakeService{
		validator:  NewValidator(),
		store:      store,
		events:     events,
		dispatcher: dispatcher,
		sourceTag:  sourceTag,
		log:        log,
	}
}

// Submit validates and stores one intake. It returns a *ValidationError for
// bad input and an error wrapping ErrStoreFailed when the record could not be
// written. Failures after the write are logged only.
func (s *IntakeService) Submit(ctx context.Context, req *dto.SubmitApplicationRequest, userAgent string) (*dto.SubmitApplicationResponse, error) {
	intake, err := s.validator.Validate(req)
	if err != nil {
		metrics.IntakeSubmissions.WithLabelValues(metrics.ResultInvalid).Inc()
		return nil, err
	}

	app := &model.Application{
		PreferredName:    intake.PreferredName,
		Email:            intake.Email,
		DiscoveryStory:   intake.DiscoveryStory,
		TechRelationship: intake.TechRelationship,
		BetaStatus:       model.StatusPending,
		ContemplativeContext: map[string]interface{}{
			"submitted_at": time.Now().UTC().Format(time.RFC3339),
			"user_agent":   userAgent,
			"source":       s.sourceTag,
		},
	}
	if err := s.store.Create(ctx, app); err != nil {
		metrics.IntakeSubmissions.WithLabelValues(metrics.ResultStoreFailed).Inc()
		s.log.Error("store application failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrStoreFailed, err)
	}

	log := s.log.With(zap.String("application_id", app.ID))

	if s.events != nil {
		event := &model.AnalyticsEvent{
			EventType: model.EventApplicationSubmitted,
			UserID:    app.ID,
			ContemplativeContext: map[string]interface{}{
				"discovery_length":         utf8.RuneCountInString(intake.DiscoveryStory),
				"tech_relationship_length": utf8.RuneCountInString(intake.TechRelationship),
				"submission_flow":          submissionFlow,
			},
		}
		if err := s.events.Record(ctx, event); err != nil {
			log.Warn("record analytics event failed", zap.Error(err))
		}
	}

	// the record exists, so the applicant is acknowledged even if scheduling fails
	result := metrics.ResultAccepted
	if err := s.dispatcher.Dispatch(ctx, app.ID); err != nil {
		result = metrics.ResultDispatchFailed
		log.Error("dispatch async phase failed, manual follow-up needed", zap.Error(err))
	}
	metrics.IntakeSubmissions.WithLabelValues(result).Inc()

	log.Info("application received")

	return &dto.SubmitApplicationResponse{
		Success:       true,
		Message:       SubmitSuccessMessage,
		ApplicationID: app.ID,
	}, nil
}
