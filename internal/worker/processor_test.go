package worker

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/selah-im/intake_server/config"
	"github.com/selah-im/intake_server/internal/analysis"
	"github.com/selah-im/intake_server/internal/model"
	"github.com/selah-im/intake_server/internal/pkg/email"
	"github.com/selah-im/intake_server/internal/pkg/pubsub"
	"github.com/selah-im/intake_server/internal/pkg/queue"
	"github.com/selah-im/intake_server/internal/repository"
	"github.com/selah-im/intake_server/internal/testutil"
)

type fakeAnalyzer struct {
	mu           sync.Mutex
	analyzeErr   error
	composeErr   error
	analyzeCalls int
	composeCalls int
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, in *model.Intake) (*model.AnalysisResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.analyzeCalls++
	if f.analyzeErr != nil {
		return nil, f.analyzeErr
	}
	result := analysis.FallbackAnalysis(in)
	result.ContemplativeReadinessScore = 8
	result.AdminRecommendation.Decision = model.DecisionAccept
	return result, nil
}

func (f *fakeAnalyzer) GenerateEmail(ctx context.Context, in *model.Intake, result *model.AnalysisResult) (*model.PersonalizedEmail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.composeCalls++
	if f.composeErr != nil {
		return nil, f.composeErr
	}
	return &model.PersonalizedEmail{
		SubjectLine:  "Welcome, " + in.PreferredName,
		EmailContent: "We read your story.",
	}, nil
}

type welcomeCall struct {
	to, subject, body string
	meta              email.Metadata
}

type fakeNotifier struct {
	mu          sync.Mutex
	welcomeFail bool
	alertFail   bool
	welcomes    []welcomeCall
	alerts      []model.Application
}

func (f *fakeNotifier) SendWelcome(ctx context.Context, to, subject, body string, meta email.Metadata) email.SendResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.welcomes = append(f.welcomes, welcomeCall{to: to, subject: subject, body: body, meta: meta})
	if f.welcomeFail {
		return email.SendResult{Success: false, Error: "timeout"}
	}
	return email.SendResult{Success: true, MessageID: "msg-1"}
}

func (f *fakeNotifier) SendAdminAlert(ctx context.Context, app *model.Application) email.SendResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, *app)
	if f.alertFail {
		return email.SendResult{Success: false, Error: "relay refused"}
	}
	return email.SendResult{Success: true, MessageID: "msg-2"}
}

type fakePublisher struct {
	mu    sync.Mutex
	steps []string
}

func (f *fakePublisher) PublishProgress(ctx context.Context, msg *pubsub.ProgressMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.steps = append(f.steps, msg.Step)
	return nil
}

// failingUpdates wraps a real store and rejects every update.
type failingUpdates struct {
	RecordStore
	updates int
}

func (f *failingUpdates) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	f.updates++
	return errors.New("database is locked")
}

type scriptedCompleter struct {
	responses []string
}

func (s *scriptedCompleter) Complete(ctx context.Context, req analysis.CompletionRequest) (string, error) {
	resp := s.responses[0]
	s.responses = s.responses[1:]
	return resp, nil
}

func setupProcessor(t *testing.T) (*repository.ApplicationRepository, *model.Application) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })
	return repository.NewApplicationRepository(db), testutil.TestApplication(t, db, testutil.WithName("Dana"))
}

func TestProcessor_Process_Success(t *testing.T) {
	repo, app := setupProcessor(t)
	analyzer := &fakeAnalyzer{}
	notifier := &fakeNotifier{}
	publisher := &fakePublisher{}

	p := NewProcessor(repo, analyzer, notifier, publisher, zap.NewNop())
	err := p.Process(context.Background(), &queue.IntakeMessage{ApplicationID: app.ID})
	require.NoError(t, err)

	require.Len(t, notifier.welcomes, 1)
	assert.Equal(t, app.Email, notifier.welcomes[0].to)
	assert.Equal(t, "Welcome, Dana", notifier.welcomes[0].subject)
	assert.Equal(t, "We read your story.", notifier.welcomes[0].body)
	assert.Equal(t, app.ID, notifier.welcomes[0].meta.ApplicationID)
	assert.Equal(t, email.TemplateWelcome, notifier.welcomes[0].meta.TemplateType)

	stored, err := repo.GetByID(context.Background(), app.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, stored.BetaStatus)
	assert.True(t, stored.WelcomeEmailSent)
	assert.NotNil(t, stored.WelcomeEmailSentAt)
	require.NotNil(t, stored.ContemplativeReadinessScore)
	assert.Equal(t, 8.0, *stored.ContemplativeReadinessScore)
	assert.Equal(t, "Welcome, Dana", stored.EmailSubjectLine)
	assert.Equal(t, "We read your story.", stored.EmailContent)

	result, err := stored.Analysis()
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, model.DecisionAccept, result.AdminRecommendation.Decision)

	require.Len(t, notifier.alerts, 1)
	assert.True(t, notifier.alerts[0].WelcomeEmailSent)
	assert.Equal(t, "Welcome, Dana", notifier.alerts[0].EmailSubjectLine)

	assert.Equal(t, []string{
		pubsub.StepAnalyzing, pubsub.StepComposing, pubsub.StepNotifying, pubsub.StepDone,
	}, publisher.steps)
}

func TestProcessor_Process_WelcomeFailureStillAlerts(t *testing.T) {
	repo, app := setupProcessor(t)
	notifier := &fakeNotifier{welcomeFail: true}

	p := NewProcessor(repo, &fakeAnalyzer{}, notifier, nil, zap.NewNop())
	require.NoError(t, p.Process(context.Background(), &queue.IntakeMessage{ApplicationID: app.ID}))

	stored, err := repo.GetByID(context.Background(), app.ID)
	require.NoError(t, err)
	assert.False(t, stored.WelcomeEmailSent)
	assert.Nil(t, stored.WelcomeEmailSentAt)
	assert.NotEmpty(t, stored.ClaudeAnalysis)
	assert.Equal(t, "Welcome, Dana", stored.EmailSubjectLine)

	require.Len(t, notifier.alerts, 1)
	assert.False(t, notifier.alerts[0].WelcomeEmailSent)
}

func TestProcessor_Process_AnalyzeTransportFailureAborts(t *testing.T) {
	repo, app := setupProcessor(t)
	analyzer := &fakeAnalyzer{
		analyzeErr: &analysis.AnalysisError{Op: analysis.StepAnalyze, Err: errors.New("connection reset")},
	}
	notifier := &fakeNotifier{}
	publisher := &fakePublisher{}

	p := NewProcessor(repo, analyzer, notifier, publisher, zap.NewNop())
	err := p.Process(context.Background(), &queue.IntakeMessage{ApplicationID: app.ID})

	var analysisErr *analysis.AnalysisError
	require.ErrorAs(t, err, &analysisErr)
	assert.Equal(t, 0, analyzer.composeCalls)
	assert.Empty(t, notifier.welcomes)
	assert.Empty(t, notifier.alerts)

	stored, err := repo.GetByID(context.Background(), app.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, stored.BetaStatus)
	assert.Empty(t, stored.ClaudeAnalysis)
	assert.Nil(t, stored.ContemplativeReadinessScore)
	assert.False(t, stored.WelcomeEmailSent)

	assert.Equal(t, []string{pubsub.StepAnalyzing, pubsub.StepAborted}, publisher.steps)
}

func TestProcessor_Process_ComposeTransportFailureAborts(t *testing.T) {
	repo, app := setupProcessor(t)
	analyzer := &fakeAnalyzer{composeErr: errors.New("upstream 529")}
	notifier := &fakeNotifier{}

	p := NewProcessor(repo, analyzer, notifier, nil, zap.NewNop())
	err := p.Process(context.Background(), &queue.IntakeMessage{ApplicationID: app.ID})
	require.Error(t, err)

	assert.Empty(t, notifier.welcomes)
	assert.Empty(t, notifier.alerts)

	stored, err := repo.GetByID(context.Background(), app.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.ClaudeAnalysis)
}

func TestProcessor_Process_UpdateFailureStillAlerts(t *testing.T) {
	repo, app := setupProcessor(t)
	store := &failingUpdates{RecordStore: repo}
	notifier := &fakeNotifier{}

	p := NewProcessor(store, &fakeAnalyzer{}, notifier, nil, zap.NewNop())
	require.NoError(t, p.Process(context.Background(), &queue.IntakeMessage{ApplicationID: app.ID}))

	assert.Equal(t, 1, store.updates)
	require.Len(t, notifier.welcomes, 1)
	require.Len(t, notifier.alerts, 1)
	assert.Equal(t, "Welcome, Dana", notifier.alerts[0].EmailSubjectLine)
	require.NotNil(t, notifier.alerts[0].ContemplativeReadinessScore)
	assert.Equal(t, 8.0, *notifier.alerts[0].ContemplativeReadinessScore)
}

func TestProcessor_Process_AlertFailureIsSwallowed(t *testing.T) {
	repo, app := setupProcessor(t)
	notifier := &fakeNotifier{alertFail: true}
	publisher := &fakePublisher{}

	p := NewProcessor(repo, &fakeAnalyzer{}, notifier, publisher, zap.NewNop())
	require.NoError(t, p.Process(context.Background(), &queue.IntakeMessage{ApplicationID: app.ID}))

	stored, err := repo.GetByID(context.Background(), app.ID)
	require.NoError(t, err)
	assert.True(t, stored.WelcomeEmailSent)
	assert.Equal(t, pubsub.StepDone, publisher.steps[len(publisher.steps)-1])
}

func TestProcessor_Process_UnknownApplication(t *testing.T) {
	repo, _ := setupProcessor(t)
	analyzer := &fakeAnalyzer{}

	p := NewProcessor(repo, analyzer, &fakeNotifier{}, nil, zap.NewNop())
	err := p.Process(context.Background(), &queue.IntakeMessage{ApplicationID: "missing"})

	assert.ErrorIs(t, err, repository.ErrApplicationNotFound)
	assert.Equal(t, 0, analyzer.analyzeCalls)
}

func TestProcessor_Process_UnparseableOutputUsesFallbacks(t *testing.T) {
	repo, app := setupProcessor(t)
	completer := &scriptedCompleter{responses: []string{
		"I'd rather not answer in JSON today.",
		"```json\n{\"subject_line\": \"\"}\n```",
	}}
	provider := analysis.NewProvider(completer, config.AnalysisConfig{}, zap.NewNop())
	notifier := &fakeNotifier{}

	p := NewProcessor(repo, provider, notifier, nil, zap.NewNop())
	require.NoError(t, p.Process(context.Background(), &queue.IntakeMessage{ApplicationID: app.ID}))

	fallbackEmail := analysis.FallbackEmail()
	require.Len(t, notifier.welcomes, 1)
	assert.Equal(t, fallbackEmail.SubjectLine, notifier.welcomes[0].subject)
	assert.Equal(t, fallbackEmail.EmailContent, notifier.welcomes[0].body)

	stored, err := repo.GetByID(context.Background(), app.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ContemplativeReadinessScore)
	assert.Equal(t, 5.0, *stored.ContemplativeReadinessScore)

	result, err := stored.Analysis()
	require.NoError(t, err)
	assert.Equal(t, model.DecisionWaitlist, result.AdminRecommendation.Decision)
}

func TestInlineDispatcher_Dispatch(t *testing.T) {
	repo, app := setupProcessor(t)
	notifier := &fakeNotifier{}
	p := NewProcessor(repo, &fakeAnalyzer{}, notifier, nil, zap.NewNop())

	d := NewInlineDispatcher(p, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, d.Dispatch(ctx, app.ID))
	// the run must not depend on the request context
	cancel()
	d.Wait()

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	assert.Len(t, notifier.welcomes, 1)
	assert.Len(t, notifier.alerts, 1)
}
