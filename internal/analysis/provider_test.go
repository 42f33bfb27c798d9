package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/selah-im/intake_server/config"
	"github.com/selah-im/intake_server/internal/model"
)

type fakeCompleter struct {
	responses []string
	err       error
	requests  []CompletionRequest
}

func (f *fakeCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return "", f.err
	}
	if len(f.responses) == 0 {
		return "", nil
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return resp, nil
}

func testAnalysisConfig() config.AnalysisConfig {
	return config.AnalysisConfig{
		Model:               "claude-3-sonnet-20240229",
		AnalysisTemperature: 0.3,
		AnalysisMaxTokens:   1500,
		EmailTemperature:    0.4,
		EmailMaxTokens:      1000,
	}
}

func testIntake() *model.Intake {
	return &model.Intake{
		PreferredName:    "Dana",
		Email:            "dana@example.com",
		DiscoveryStory:   "Ten characters min story here.",
		TechRelationship: "Ten characters min relation here.",
	}
}

func TestProvider_Analyze(t *testing.T) {
	completer := &fakeCompleter{responses: []string{validAnalysisJSON}}
	p := NewProvider(completer, testAnalysisConfig(), zap.NewNop())

	result, err := p.Analyze(context.Background(), testIntake())
	require.NoError(t, err)
	assert.Equal(t, 8.0, result.ContemplativeReadinessScore)

	require.Len(t, completer.requests, 1)
	req := completer.requests[0]
	assert.Equal(t, 0.3, req.Temperature)
	assert.Equal(t, int64(1500), req.MaxTokens)
	assert.Contains(t, req.Prompt, "Dana")
	assert.Contains(t, req.Prompt, "Ten characters min story here.")
	assert.Contains(t, req.Prompt, "Ten characters min relation here.")
}

func TestProvider_Analyze_NonJSONFallsBack(t *testing.T) {
	completer := &fakeCompleter{responses: []string{"I think this person is wonderful."}}
	p := NewProvider(completer, testAnalysisConfig(), zap.NewNop())

	result, err := p.Analyze(context.Background(), testIntake())
	require.NoError(t, err)
	assert.Equal(t, 5.0, result.ContemplativeReadinessScore)
	assert.Equal(t, model.DecisionWaitlist, result.AdminRecommendation.Decision)
}

func TestProvider_Analyze_TransportError(t *testing.T) {
	cause := errors.New("connection reset")
	p := NewProvider(&fakeCompleter{err: cause}, testAnalysisConfig(), zap.NewNop())

	result, err := p.Analyze(context.Background(), testIntake())
	assert.Nil(t, result)

	var aerr *AnalysisError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, StepAnalyze, aerr.Op)
	assert.ErrorIs(t, err, cause)
}

func TestProvider_GenerateEmail(t *testing.T) {
	completer := &fakeCompleter{responses: []string{`{"subject_line":"Dana, tea and quiet","email_content":"Dear Dana, ..."}`}}
	p := NewProvider(completer, testAnalysisConfig(), zap.NewNop())

	analysis := FallbackAnalysis(testIntake())
	email, err := p.GenerateEmail(context.Background(), testIntake(), analysis)
	require.NoError(t, err)
	assert.Equal(t, "Dana, tea and quiet", email.SubjectLine)

	req := completer.requests[0]
	assert.Equal(t, 0.4, req.Temperature)
	assert.Equal(t, int64(1000), req.MaxTokens)
	assert.Contains(t, req.Prompt, "general contemplative interest", "analysis is embedded in the prompt")
}

func TestProvider_GenerateEmail_Fallback(t *testing.T) {
	p := NewProvider(&fakeCompleter{responses: []string{"Subject: hi"}}, testAnalysisConfig(), zap.NewNop())

	email, err := p.GenerateEmail(context.Background(), testIntake(), FallbackAnalysis(testIntake()))
	require.NoError(t, err)
	assert.Equal(t, FallbackEmail(), email)
}

func TestProvider_GenerateEmail_TransportError(t *testing.T) {
	p := NewProvider(&fakeCompleter{err: errors.New("timeout")}, testAnalysisConfig(), zap.NewNop())

	_, err := p.GenerateEmail(context.Background(), testIntake(), FallbackAnalysis(testIntake()))

	var aerr *AnalysisError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, StepCompose, aerr.Op)
}
