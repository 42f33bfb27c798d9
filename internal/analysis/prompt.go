package analysis

import (
	"encoding/json"
	"fmt"

	"github.com/selah-im/intake_server/internal/model"
)

func buildAnalysisPrompt(in *model.Intake) string {
	return fmt.Sprintf(`You are reading an application to Selah, a contemplative technology platform built to serve attention rather than consume it.

The applicant shared how they found Selah and how they relate to technology. Assess how ready they are for technology that serves consciousness.

Applicant:
- Name: %s
- Discovery story: %s
- Relationship with technology: %s

Assess:
1. Readiness for consciousness-serving technology, scored 1 to 10
2. Themes in their own words that show contemplative openness
3. Insights that should shape how we write to them
4. The tone and language to use with them, and topics to lean into or avoid
5. How authentic and deep their discovery story is
6. How aware they are of their relationship with technology
7. A beta access recommendation for the admin
8. Suggestions for personalizing their welcome email

Reply with ONLY a JSON object of this shape, no markdown and no commentary:
{
  "contemplative_readiness_score": <1-10>,
  "key_themes": ["..."],
  "personalization_insights": [
    {"category": "...", "insight": "...", "confidence": <1-10>, "application_areas": ["..."]}
  ],
  "communication_approach": {
    "tone": "contemplative|warm|professional|deep",
    "language_style": ["..."],
    "topics_to_emphasize": ["..."],
    "topics_to_avoid": ["..."]
  },
  "discovery_analysis": {
    "discovery_category": "...",
    "authenticity_score": <1-10>,
    "depth_indicators": ["..."],
    "community_fit_score": <1-10>
  },
  "tech_relationship_analysis": {
    "awareness_level": "surface|developing|deep|profound",
    "pain_points": ["..."],
    "readiness_indicators": ["..."],
    "optimization_vs_serving_understanding": <1-10>
  },
  "admin_recommendation": {
    "decision": "strong_accept|accept|waitlist|decline",
    "confidence": <1-10>,
    "reasoning": "...",
    "suggested_follow_up": "...",
    "community_contribution_potential": <1-10>
  },
  "email_personalization": {
    "subject_line": "...",
    "opening_approach": "...",
    "personal_reflection_points": ["..."],
    "next_steps": ["..."],
    "tone_adjustments": ["..."]
  }
}

Look for recognition rather than optimization, and presence rather than productivity.`,
		in.PreferredName, in.DiscoveryStory, in.TechRelationship)
}

func buildEmailPrompt(in *model.Intake, result *model.AnalysisResult) string {
	insights, err := json.Marshal(result)
	if err != nil {
		insights = []byte("{}")
	}

	return fmt.Sprintf(`Write a personal welcome email to %s, who applied to the Selah contemplative technology beta.

What they told us:
- Discovery: %s
- Relationship with technology: %s

What we noticed: %s

The email should:
1. Open with a subject line drawn from their own discovery story
2. Reflect their exact words back to them
3. Recognize where they are on their contemplative path
4. Offer next steps that fit their situation

Tone: one person recognizing another, never corporate outreach.
Length: 200 to 300 words that read as written by hand.
Style: warm and contemplative, professional without being formal.

Reply with ONLY a JSON object of this shape, no markdown and no commentary:
{
  "subject_line": "...",
  "email_content": "...",
  "personalization_points": ["..."],
  "send_timing_recommendation": "immediate|24_hours|48_hours"
}`,
		in.PreferredName, in.DiscoveryStory, in.TechRelationship, insights)
}
