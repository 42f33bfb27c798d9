package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Review status values
const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusWaitlist = "waitlist"
	StatusDeclined = "declined"
)

// statusTransitions lists the forward moves an admin review may make.
var statusTransitions = map[string][]string{
	StatusPending:  {StatusAccepted, StatusWaitlist, StatusDeclined},
	StatusWaitlist: {StatusAccepted, StatusDeclined},
}

// ValidStatus reports whether s is a known review status.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusAccepted, StatusWaitlist, StatusDeclined:
		return true
	}
	return false
}

// CanTransition reports whether a record may move from one status to another.
func CanTransition(from, to string) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// TransitionSources returns every status that may move to the given one.
func TransitionSources(to string) []string {
	var sources []string
	for from, targets := range statusTransitions {
		for _, t := range targets {
			if t == to {
				sources = append(sources, from)
			}
		}
	}
	return sources
}

// Intake is the four-field applicant submission.
type Intake struct {
	PreferredName    string `json:"preferred_name"`
	Email            string `json:"email"`
	DiscoveryStory   string `json:"discovery_story"`
	TechRelationship string `json:"tech_relationship"`
}

// Application is one intake record and everything the async phase adds to it.
type Application struct {
	ID               string `gorm:"primaryKey;size:36" json:"id"`
	PreferredName    string `gorm:"size:100;not null" json:"preferred_name"`
	Email            string `gorm:"size:320;not null;index" json:"email"`
	DiscoveryStory   string `gorm:"type:text;not null" json:"discovery_story"`
	TechRelationship string `gorm:"type:text;not null" json:"tech_relationship"`

	BetaStatus           string            `gorm:"size:20;not null;default:pending;index" json:"beta_status"`
	ContemplativeContext datatypes.JSONMap `gorm:"type:json" json:"contemplative_context,omitempty"`

	// Filled in by the async phase
	ClaudeAnalysis              datatypes.JSON `gorm:"type:json" json:"claude_analysis,omitempty"`
	ContemplativeReadinessScore *float64       `json:"contemplative_readiness_score,omitempty"`
	WelcomeEmailSent            bool           `gorm:"default:false" json:"welcome_email_sent"`
	WelcomeEmailSentAt          *time.Time     `json:"welcome_email_sent_at,omitempty"`
	EmailSubjectLine            string         `gorm:"size:300" json:"email_subject_line,omitempty"`
	EmailContent                string         `gorm:"type:text" json:"email_content,omitempty"`

	// Admin review
	AdminNotes string     `gorm:"type:text" json:"admin_notes,omitempty"`
	ReviewedAt *time.Time `json:"reviewed_at,omitempty"`
	ReviewedBy string     `gorm:"size:100" json:"reviewed_by,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Application) TableName() string {
	return "user_applications"
}

// BeforeCreate assigns the opaque record id.
func (a *Application) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// Intake returns the core fields as submitted.
func (a *Application) Intake() *Intake {
	return &Intake{
		PreferredName:    a.PreferredName,
		Email:            a.Email,
		DiscoveryStory:   a.DiscoveryStory,
		TechRelationship: a.TechRelationship,
	}
}

// Analysis decodes the stored analysis. It returns nil when the async phase
// never wrote one.
func (a *Application) Analysis() (*AnalysisResult, error) {
	if len(a.ClaudeAnalysis) == 0 {
		return nil, nil
	}
	var result AnalysisResult
	if err := json.Unmarshal(a.ClaudeAnalysis, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
