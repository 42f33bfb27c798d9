package testutil

import (
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/selah-im/intake_server/internal/model"
)

// TestIntake returns a submission that passes validation.
func TestIntake() *model.Intake {
	return &model.Intake{
		PreferredName:    "Ana",
		Email:            "ana@example.com",
		DiscoveryStory:   "A friend mentioned it over tea after a long retreat.",
		TechRelationship: "My phone feels like a leash more days than not.",
	}
}

// TestApplication inserts a pending record.
func TestApplication(t *testing.T, db *gorm.DB, opts ...func(*model.Application)) *model.Application {
	t.Helper()

	in := TestIntake()
	app := &model.Application{
		PreferredName:    in.PreferredName,
		Email:            fmt.Sprintf("test_%d@example.com", time.Now().UnixNano()),
		DiscoveryStory:   in.DiscoveryStory,
		TechRelationship: in.TechRelationship,
		BetaStatus:       model.StatusPending,
		ContemplativeContext: map[string]interface{}{
			"submitted_at": time.Now().UTC().Format(time.RFC3339),
			"user_agent":   "go-test",
			"source":       "selah-im-v2",
		},
	}

	for _, opt := range opts {
		opt(app)
	}

	if err := db.Create(app).Error; err != nil {
		t.Fatalf("Failed to create test application: %v", err)
	}

	return app
}

func WithName(name string) func(*model.Application) {
	return func(a *model.Application) {
		a.PreferredName = name
	}
}

func WithStatus(status string) func(*model.Application) {
	return func(a *model.Application) {
		a.BetaStatus = status
	}
}

func WithScore(score float64) func(*model.Application) {
	return func(a *model.Application) {
		a.ContemplativeReadinessScore = &score
		a.ClaudeAnalysis = []byte(fmt.Sprintf(`{"contemplative_readiness_score":%v}`, score))
	}
}

func WithEmailSent() func(*model.Application) {
	return func(a *model.Application) {
		now := time.Now()
		a.WelcomeEmailSent = true
		a.WelcomeEmailSentAt = &now
	}
}

func WithCreatedAt(at time.Time) func(*model.Application) {
	return func(a *model.Application) {
		a.CreatedAt = at
	}
}
