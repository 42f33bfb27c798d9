package dto

// SubmitApplicationRequest is the public intake form body. Rules are checked
// by service.Validator so that failures report per-field details.
type SubmitApplicationRequest struct {
	PreferredName    string `json:"preferred_name" validate:"required,min=1,max=100"`
	Email            string `json:"email" validate:"required,email"`
	DiscoveryStory   string `json:"discovery_story" validate:"required,min=10,max=2000"`
	TechRelationship string `json:"tech_relationship" validate:"required,min=10,max=2000"`
}

type SubmitApplicationResponse struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	ApplicationID string `json:"application_id"`
}

type HealthResponse struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}
