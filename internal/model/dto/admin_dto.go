package dto

import "github.com/selah-im/intake_server/internal/model"

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=accepted waitlist declined"`
	Notes  string `json:"admin_notes,omitempty" binding:"omitempty,max=2000"`
}

// ApplicationListItem is the admin table row.
type ApplicationListItem struct {
	ID                          string   `json:"id"`
	PreferredName               string   `json:"preferred_name"`
	Email                       string   `json:"email"`
	BetaStatus                  string   `json:"beta_status"`
	ContemplativeReadinessScore *float64 `json:"contemplative_readiness_score,omitempty"`
	WelcomeEmailSent            bool     `json:"welcome_email_sent"`
	Recommendation              string   `json:"recommendation,omitempty"`
	CreatedAt                   string   `json:"created_at"`
}

// ApplicationDetail is the full record plus its decoded analysis.
type ApplicationDetail struct {
	*model.Application
	Analysis *model.AnalysisResult `json:"analysis,omitempty"`
}

type StatsResponse struct {
	Total          int64            `json:"total"`
	ByStatus       map[string]int64 `json:"by_status"`
	AverageScore   *float64         `json:"average_score,omitempty"`
	EmailsSent     int64            `json:"emails_sent"`
	AwaitingReview int64            `json:"awaiting_review"`
}
