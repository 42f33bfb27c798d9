package analysis

import (
	"encoding/json"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/selah-im/intake_server/internal/model"
)

const analysisSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["contemplative_readiness_score", "admin_recommendation"],
  "properties": {
    "contemplative_readiness_score": {"type": "number", "minimum": 1, "maximum": 10},
    "key_themes": {"type": "array", "items": {"type": "string"}},
    "personalization_insights": {"type": "array", "items": {"type": "object"}},
    "communication_approach": {"type": "object"},
    "discovery_analysis": {"type": "object"},
    "tech_relationship_analysis": {"type": "object"},
    "admin_recommendation": {
      "type": "object",
      "required": ["decision"],
      "properties": {
        "decision": {"type": "string", "enum": ["strong_accept", "accept", "waitlist", "decline"]},
        "confidence": {"type": "number"},
        "reasoning": {"type": "string"}
      }
    },
    "email_personalization": {"type": "object"}
  }
}`

const emailSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["subject_line", "email_content"],
  "properties": {
    "subject_line": {"type": "string", "minLength": 1},
    "email_content": {"type": "string", "minLength": 1},
    "personalization_points": {"type": "array", "items": {"type": "string"}},
    "send_timing_recommendation": {"type": "string"}
  }
}`

var (
	analysisSchemaLoader = gojsonschema.NewStringLoader(analysisSchema)
	emailSchemaLoader    = gojsonschema.NewStringLoader(emailSchema)
)

// extractJSON returns the text between the first '{' and the last '}', which
// strips markdown fences and any prose around the object.
func extractJSON(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

// decode runs the shared extract, validate, unmarshal steps.
func decode(text string, schema gojsonschema.JSONLoader, out interface{}) error {
	raw, ok := extractJSON(text)
	if !ok {
		return &ParseError{Kind: ParseNoJSON}
	}
	if !json.Valid([]byte(raw)) {
		return &ParseError{Kind: ParseInvalidJSON}
	}

	result, err := gojsonschema.Validate(schema, gojsonschema.NewStringLoader(raw))
	if err != nil {
		return &ParseError{Kind: ParseSchema, Err: err}
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return &ParseError{Kind: ParseSchema, Detail: strings.Join(msgs, "; ")}
	}

	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return &ParseError{Kind: ParseDecode, Err: err}
	}
	return nil
}

// ParseAnalysis reads a model answer as an AnalysisResult. Any failure is a
// *ParseError.
func ParseAnalysis(text string) (*model.AnalysisResult, error) {
	var result model.AnalysisResult
	if err := decode(text, analysisSchemaLoader, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ParseEmail reads a model answer as a PersonalizedEmail. Any failure is a
// *ParseError.
func ParseEmail(text string) (*model.PersonalizedEmail, error) {
	var email model.PersonalizedEmail
	if err := decode(text, emailSchemaLoader, &email); err != nil {
		return nil, err
	}
	return &email, nil
}

// AnalysisOrFallback maps a parse failure to the default analysis.
func AnalysisOrFallback(result *model.AnalysisResult, err error, in *model.Intake) *model.AnalysisResult {
	if err != nil || result == nil {
		return FallbackAnalysis(in)
	}
	return result
}

// EmailOrFallback maps a parse failure to the generic welcome.
func EmailOrFallback(email *model.PersonalizedEmail, err error) *model.PersonalizedEmail {
	if err != nil || email == nil {
		return FallbackEmail()
	}
	return email
}

// FallbackAnalysis is a neutral result that routes the applicant to manual
// review.
func FallbackAnalysis(in *model.Intake) *model.AnalysisResult {
	name := "friend"
	if in != nil && strings.TrimSpace(in.PreferredName) != "" {
		name = in.PreferredName
	}

	return &model.AnalysisResult{
		ContemplativeReadinessScore: 5,
		KeyThemes:                   []string{"general contemplative interest"},
		PersonalizationInsights:     []model.PersonalizationInsight{},
		CommunicationApproach: model.CommunicationApproach{
			Tone:              "contemplative",
			LanguageStyle:     []string{"warm", "thoughtful"},
			TopicsToEmphasize: []string{"presence", "awareness"},
			TopicsToAvoid:     []string{"optimization", "productivity"},
		},
		DiscoveryAnalysis: model.DiscoveryAnalysis{
			DiscoveryCategory: "general",
			AuthenticityScore: 5,
			DepthIndicators:   []string{},
			CommunityFitScore: 5,
		},
		TechRelationshipAnalysis: model.TechRelationshipAnalysis{
			AwarenessLevel:                     "developing",
			PainPoints:                         []string{"digital overwhelm"},
			ReadinessIndicators:                []string{},
			OptimizationVsServingUnderstanding: 5,
		},
		AdminRecommendation: model.AdminRecommendation{
			Decision:                       model.DecisionWaitlist,
			Confidence:                     5,
			Reasoning:                      "Analysis parsing failed, manual review needed",
			SuggestedFollowUp:              "Manual review required",
			CommunityContributionPotential: 5,
		},
		EmailPersonalization: model.EmailPersonalization{
			SubjectLine:              "Welcome to Selah, " + name,
			OpeningApproach:          "warm and contemplative",
			PersonalReflectionPoints: []string{},
			NextSteps:                []string{"Manual follow-up"},
			ToneAdjustments:          []string{},
		},
	}
}

func FallbackEmail() *model.PersonalizedEmail {
	return &model.PersonalizedEmail{
		SubjectLine:              "Welcome to Selah - Your contemplative journey begins",
		EmailContent:             "Thank you for your interest in contemplative technology. We will be in touch soon.",
		PersonalizationPoints:    []string{},
		SendTimingRecommendation: "immediate",
	}
}
