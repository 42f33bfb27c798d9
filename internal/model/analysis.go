package model

// Admin recommendation decisions
const (
	DecisionStrongAccept = "strong_accept"
	DecisionAccept       = "accept"
	DecisionWaitlist     = "waitlist"
	DecisionDecline      = "decline"
)

// AnalysisResult is the structured readiness analysis of one intake.
type AnalysisResult struct {
	ContemplativeReadinessScore float64                  `json:"contemplative_readiness_score"`
	KeyThemes                   []string                 `json:"key_themes"`
	PersonalizationInsights     []PersonalizationInsight `json:"personalization_insights"`
	CommunicationApproach       CommunicationApproach    `json:"communication_approach"`
	DiscoveryAnalysis           DiscoveryAnalysis        `json:"discovery_analysis"`
	TechRelationshipAnalysis    TechRelationshipAnalysis `json:"tech_relationship_analysis"`
	AdminRecommendation         AdminRecommendation      `json:"admin_recommendation"`
	EmailPersonalization        EmailPersonalization     `json:"email_personalization"`
}

type PersonalizationInsight struct {
	Category         string   `json:"category"`
	Insight          string   `json:"insight"`
	Confidence       float64  `json:"confidence"`
	ApplicationAreas []string `json:"application_areas"`
}

type CommunicationApproach struct {
	Tone              string   `json:"tone"` // contemplative, warm, professional, deep
	LanguageStyle     []string `json:"language_style"`
	TopicsToEmphasize []string `json:"topics_to_emphasize"`
	TopicsToAvoid     []string `json:"topics_to_avoid"`
}

type DiscoveryAnalysis struct {
	DiscoveryCategory string   `json:"discovery_category"`
	AuthenticityScore float64  `json:"authenticity_score"`
	DepthIndicators   []string `json:"depth_indicators"`
	CommunityFitScore float64  `json:"community_fit_score"`
}

type TechRelationshipAnalysis struct {
	AwarenessLevel                     string   `json:"awareness_level"` // surface, developing, deep, profound
	PainPoints                         []string `json:"pain_points"`
	ReadinessIndicators                []string `json:"readiness_indicators"`
	OptimizationVsServingUnderstanding float64  `json:"optimization_vs_serving_understanding"`
}

type AdminRecommendation struct {
	Decision                       string  `json:"decision"`
	Confidence                     float64 `json:"confidence"`
	Reasoning                      string  `json:"reasoning"`
	SuggestedFollowUp              string  `json:"suggested_follow_up"`
	CommunityContributionPotential float64 `json:"community_contribution_potential"`
}

type EmailPersonalization struct {
	SubjectLine              string   `json:"subject_line"`
	OpeningApproach          string   `json:"opening_approach"`
	PersonalReflectionPoints []string `json:"personal_reflection_points"`
	NextSteps                []string `json:"next_steps"`
	ToneAdjustments          []string `json:"tone_adjustments"`
}

// PersonalizedEmail is the generated welcome copy.
type PersonalizedEmail struct {
	SubjectLine              string   `json:"subject_line"`
	EmailContent             string   `json:"email_content"`
	PersonalizationPoints    []string `json:"personalization_points"`
	SendTimingRecommendation string   `json:"send_timing_recommendation"`
}
