package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"cuerpofit_backend/internal/config"
	"cuerpofit_backend/internal/model"
	"cuerpofit_backend/internal/repository"
	"cuerpofit_backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	logger.Log = zap.NewNop()
}

func testQuestions() []model.Question {
	return []model.Question{
		{
			ID:       "a",
			Title:    "A",
			Required: true,
			Type:     model.QuestionSingleChoice,
			Answers: []model.AnswerOption{
				{ID: "yes", Text: "Yes"},
				{ID: "no", Text: "No", BlocksProgress: true},
			},
		},
		{
			ID:    "b",
			Title: "B",
			Type:  model.QuestionText,
			DependsOn: []model.DependencyRule{
				{QuestionID: "a", AllowedAnswerIDs: []string{"yes"}},
			},
		},
	}
}

func newTestEngine(t *testing.T, questions []model.Question) *QuestionnaireService {
	t.Helper()
	store := repository.NewSessionRepository(nil, questions)
	verifier := NewRecaptchaService(config.RecaptchaConfig{}, nil)
	return NewQuestionnaireService(questions, store, verifier)
}

func TestVisibleQuestionsNoDependencyAlwaysVisible(t *testing.T) {
	questions := testQuestions()
	visible := VisibleQuestions(questions, map[string]*model.StoredAnswer{})
	require.Len(t, visible, 1)
	assert.Equal(t, "a", visible[0].ID)
}

func TestVisibleQuestionsAllowList(t *testing.T) {
	questions := testQuestions()

	answers := map[string]*model.StoredAnswer{"a": {ID: "no", Text: "No"}}
	visible := VisibleQuestions(questions, answers)
	require.Len(t, visible, 1)

	answers["a"] = &model.StoredAnswer{ID: "yes", Text: "Yes"}
	visible = VisibleQuestions(questions, answers)
	require.Len(t, visible, 2)
	assert.Equal(t, "b", visible[1].ID)
}

func TestVisibleQuestionsEmptyAllowListPresence(t *testing.T) {
	questions := []model.Question{
		{ID: "a", Type: model.QuestionText},
		{ID: "b", Type: model.QuestionText, DependsOn: []model.DependencyRule{{QuestionID: "a"}}},
	}
	assert.Len(t, VisibleQuestions(questions, nil), 1)
	assert.Len(t, VisibleQuestions(questions, map[string]*model.StoredAnswer{
		"a": {ID: "a", Text: "anything"},
	}), 2)
}

func TestVisibleQuestionsRequiresText(t *testing.T) {
	questions := []model.Question{
		{ID: "a", Type: model.QuestionTextarea},
		{ID: "b", Type: model.QuestionText, DependsOn: []model.DependencyRule{{QuestionID: "a", RequiresText: true}}},
	}
	assert.Len(t, VisibleQuestions(questions, map[string]*model.StoredAnswer{
		"a": {ID: "a", Text: "   "},
	}), 1)
	assert.Len(t, VisibleQuestions(questions, map[string]*model.StoredAnswer{
		"a": {ID: "a", Text: "creatina"},
	}), 2)
}

func TestNextRequiredQuestionBlocksAdvance(t *testing.T) {
	engine := newTestEngine(t, testQuestions())
	ctx := context.Background()
	view := engine.CreateSession(ctx, "")

	after, err := engine.Next(ctx, view.SessionID, "")
	require.NoError(t, err)
	assert.Equal(t, msgRequired, after.Error)
	assert.Equal(t, 0, after.Index)
}

func TestNextBlockingAnswerNeverAdvances(t *testing.T) {
	engine := newTestEngine(t, testQuestions())
	ctx := context.Background()
	view := engine.CreateSession(ctx, "")

	_, err := engine.SelectOption(ctx, view.SessionID, "a", "no")
	require.NoError(t, err)

	after, err := engine.Next(ctx, view.SessionID, "")
	require.NoError(t, err)
	assert.Equal(t, msgBlocked, after.Error)
	assert.Equal(t, 0, after.Index)
	assert.True(t, after.Blocked)
}

func TestNextAdvancesAfterValidAnswer(t *testing.T) {
	engine := newTestEngine(t, testQuestions())
	ctx := context.Background()
	view := engine.CreateSession(ctx, "")

	_, err := engine.SelectOption(ctx, view.SessionID, "a", "yes")
	require.NoError(t, err)

	after, err := engine.Next(ctx, view.SessionID, "")
	require.NoError(t, err)
	assert.Empty(t, after.Error)
	assert.Equal(t, 1, after.Index)
	assert.Equal(t, "b", after.Question.ID)
}

func TestNextPartialOptionalAnswerBlocksAdvance(t *testing.T) {
	questions := []model.Question{
		{
			ID:   "phone",
			Type: model.QuestionPhone,
			SubFields: []model.SubField{
				{ID: "code", Label: "Código"},
				{ID: "number", Label: "Número"},
			},
		},
		{ID: "after", Type: model.QuestionText},
	}
	engine := newTestEngine(t, questions)
	ctx := context.Background()
	view := engine.CreateSession(ctx, "")

	// The question is optional, but once a sub-field has content the
	// answer must be structurally complete before advancing.
	_, err := engine.EditText(ctx, view.SessionID, "phone", "code", "54")
	require.NoError(t, err)

	after, err := engine.Next(ctx, view.SessionID, "")
	require.NoError(t, err)
	assert.Equal(t, msgRequired, after.Error)
	assert.Equal(t, 0, after.Index)

	_, err = engine.EditText(ctx, view.SessionID, "phone", "number", "1155873035")
	require.NoError(t, err)

	after, err = engine.Next(ctx, view.SessionID, "")
	require.NoError(t, err)
	assert.Empty(t, after.Error)
	assert.Equal(t, 1, after.Index)
}

func TestAllowSkipPassesUnansweredRequiredQuestion(t *testing.T) {
	questions := []model.Question{
		{
			ID:       "goal",
			Required: true,
			Type:     model.QuestionSingleChoice,
			Answers:  []model.AnswerOption{{ID: "lose", Text: "Bajar"}},
		},
		{ID: "after", Type: model.QuestionText},
	}
	engine := newTestEngine(t, questions)
	engine.SetAllowSkip(true)
	ctx := context.Background()
	view := engine.CreateSession(ctx, "")

	after, err := engine.Next(ctx, view.SessionID, "")
	require.NoError(t, err)
	assert.Empty(t, after.Error)
	assert.Equal(t, 1, after.Index)
}

func TestToggleRoundTrip(t *testing.T) {
	questions := []model.Question{
		{
			ID:   "multi",
			Type: model.QuestionMultiChoice,
			Answers: []model.AnswerOption{
				{ID: "x", Text: "X"},
				{ID: "y", Text: "Y"},
			},
		},
	}
	engine := newTestEngine(t, questions)
	ctx := context.Background()
	view := engine.CreateSession(ctx, "")

	_, err := engine.ToggleOption(ctx, view.SessionID, "multi", "x")
	require.NoError(t, err)
	after, err := engine.ToggleOption(ctx, view.SessionID, "multi", "y")
	require.NoError(t, err)
	require.NotNil(t, after.Answer)
	assert.Equal(t, "X, Y", after.Answer.Text)
	assert.Equal(t, []string{"x", "y"}, after.Answer.SelectedIDs())

	// Toggling twice restores the prior selection set and derived text.
	_, err = engine.ToggleOption(ctx, view.SessionID, "multi", "y")
	require.NoError(t, err)
	after, err = engine.ToggleOption(ctx, view.SessionID, "multi", "y")
	require.NoError(t, err)
	assert.Equal(t, "X, Y", after.Answer.Text)

	// Removing every selection deletes the answer.
	_, err = engine.ToggleOption(ctx, view.SessionID, "multi", "x")
	require.NoError(t, err)
	after, err = engine.ToggleOption(ctx, view.SessionID, "multi", "y")
	require.NoError(t, err)
	assert.Nil(t, after.Answer)
}

func TestEditTextEmptyDeletesAnswer(t *testing.T) {
	questions := []model.Question{{ID: "q", Type: model.QuestionText}}
	engine := newTestEngine(t, questions)
	ctx := context.Background()
	view := engine.CreateSession(ctx, "")

	after, err := engine.EditText(ctx, view.SessionID, "q", "", "hola")
	require.NoError(t, err)
	require.NotNil(t, after.Answer)

	after, err = engine.EditText(ctx, view.SessionID, "q", "", "   ")
	require.NoError(t, err)
	assert.Nil(t, after.Answer)
}

func TestEditTextSubFields(t *testing.T) {
	questions := []model.Question{{
		ID:   "phone",
		Type: model.QuestionPhone,
		SubFields: []model.SubField{
			{ID: "country_code", Pattern: `^\d{1,3}$`},
			{ID: "number", Pattern: `^\d{6,12}$`},
		},
	}}
	engine := newTestEngine(t, questions)
	ctx := context.Background()
	view := engine.CreateSession(ctx, "")

	after, err := engine.EditText(ctx, view.SessionID, "phone", "country_code", "54")
	require.NoError(t, err)
	require.NotNil(t, after.Answer)
	assert.Equal(t, "54", after.Answer.FieldValues["country_code"])

	// Clearing the only populated sub-field removes the whole answer.
	after, err = engine.EditText(ctx, view.SessionID, "phone", "country_code", "")
	require.NoError(t, err)
	assert.Nil(t, after.Answer)
}

func TestIndexClampsWhenUpstreamAnswerHidesQuestions(t *testing.T) {
	engine := newTestEngine(t, testQuestions())
	ctx := context.Background()
	view := engine.CreateSession(ctx, "")

	_, err := engine.SelectOption(ctx, view.SessionID, "a", "yes")
	require.NoError(t, err)
	after, err := engine.Next(ctx, view.SessionID, "")
	require.NoError(t, err)
	require.Equal(t, 1, after.Index)

	// Changing the upstream answer hides "b"; the index clamps back.
	after, err = engine.SelectOption(ctx, view.SessionID, "a", "no")
	require.NoError(t, err)
	assert.Equal(t, 0, after.Index)
	assert.Equal(t, 1, after.Total)
}

func TestEndToEndBlockingThenDependentFlow(t *testing.T) {
	engine := newTestEngine(t, testQuestions())
	ctx := context.Background()
	view := engine.CreateSession(ctx, "")
	sid := view.SessionID

	_, err := engine.SelectOption(ctx, sid, "a", "no")
	require.NoError(t, err)
	after, err := engine.Next(ctx, sid, "")
	require.NoError(t, err)
	assert.Equal(t, msgBlocked, after.Error)
	assert.Equal(t, 0, after.Index)

	_, err = engine.SelectOption(ctx, sid, "a", "yes")
	require.NoError(t, err)
	after, err = engine.Next(ctx, sid, "")
	require.NoError(t, err)
	assert.Empty(t, after.Error)
	assert.Equal(t, "b", after.Question.ID)
}

func TestMutationClearsLastError(t *testing.T) {
	engine := newTestEngine(t, testQuestions())
	ctx := context.Background()
	view := engine.CreateSession(ctx, "")

	after, err := engine.Next(ctx, view.SessionID, "")
	require.NoError(t, err)
	require.Equal(t, msgRequired, after.Error)

	after, err = engine.SelectOption(ctx, view.SessionID, "a", "yes")
	require.NoError(t, err)
	assert.Empty(t, after.Error)
}

func TestSubmitOnLastQuestion(t *testing.T) {
	verifierSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"isHuman":true,"score":0.9,"key":"vk-123"}`))
	}))
	defer verifierSrv.Close()

	questions := []model.Question{{
		ID:       "a",
		Required: true,
		Type:     model.QuestionSingleChoice,
		Answers:  []model.AnswerOption{{ID: "yes", Text: "Yes"}},
	}}
	store := repository.NewSessionRepository(nil, questions)
	verifier := NewRecaptchaService(config.RecaptchaConfig{VerifyURL: verifierSrv.URL, Action: "submit"}, nil)
	engine := NewQuestionnaireService(questions, store, verifier)

	var got *model.Result
	engine.SetCompletionFunc(func(ctx context.Context, sessionID string, result *model.Result) (string, error) {
		got = result
		return "5491100000000", nil
	})

	ctx := context.Background()
	view := engine.CreateSession(ctx, "")
	_, err := engine.SelectOption(ctx, view.SessionID, "a", "yes")
	require.NoError(t, err)

	after, err := engine.Next(ctx, view.SessionID, "browser-token")
	require.NoError(t, err)
	assert.True(t, after.Completed)
	assert.Equal(t, "5491100000000", after.Whatsapp)

	require.NotNil(t, got)
	assert.Equal(t, "vk-123", got.VerificationKey)
	require.Len(t, got.Answers["a"], 1)
	assert.Equal(t, "yes", got.Answers["a"][0].ID)

	// A completed session rejects further mutation.
	_, err = engine.SelectOption(ctx, view.SessionID, "a", "yes")
	assert.Error(t, err)
}

func TestSubmitFailureStaysRetryable(t *testing.T) {
	verifierSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"isHuman":true,"score":0.9,"key":"vk-retry"}`))
	}))
	defer verifierSrv.Close()

	questions := []model.Question{{
		ID:       "a",
		Required: true,
		Type:     model.QuestionSingleChoice,
		Answers:  []model.AnswerOption{{ID: "yes", Text: "Yes"}},
	}}
	store := repository.NewSessionRepository(nil, questions)
	verifier := NewRecaptchaService(config.RecaptchaConfig{VerifyURL: verifierSrv.URL}, nil)
	engine := NewQuestionnaireService(questions, store, verifier)

	calls := 0
	engine.SetCompletionFunc(func(ctx context.Context, sessionID string, result *model.Result) (string, error) {
		calls++
		if calls == 1 {
			return "", assert.AnError
		}
		return "5491100000000", nil
	})

	ctx := context.Background()
	view := engine.CreateSession(ctx, "")
	_, err := engine.SelectOption(ctx, view.SessionID, "a", "yes")
	require.NoError(t, err)

	after, err := engine.Next(ctx, view.SessionID, "browser-token")
	require.NoError(t, err)
	assert.False(t, after.Completed)
	assert.NotEmpty(t, after.Error)

	// Second advance resubmits without a fresh verification.
	after, err = engine.Next(ctx, view.SessionID, "")
	require.NoError(t, err)
	assert.True(t, after.Completed)
	assert.Equal(t, 2, calls)
}

func TestNextWithoutTokenOnLastQuestion(t *testing.T) {
	questions := []model.Question{{
		ID:       "a",
		Required: true,
		Type:     model.QuestionSingleChoice,
		Answers:  []model.AnswerOption{{ID: "yes", Text: "Yes"}},
	}}
	engine := newTestEngine(t, questions)
	ctx := context.Background()
	view := engine.CreateSession(ctx, "")
	_, err := engine.SelectOption(ctx, view.SessionID, "a", "yes")
	require.NoError(t, err)

	after, err := engine.Next(ctx, view.SessionID, "")
	require.NoError(t, err)
	assert.Equal(t, msgVerification, after.Error)
	assert.False(t, after.Completed)
}

func TestDefaultQuestionsMappingsComplete(t *testing.T) {
	require.NoError(t, ValidateMappings(DefaultQuestions()))
}

func TestAutofillJumpsToLastVisible(t *testing.T) {
	engine := newTestEngine(t, DefaultQuestions())
	ctx := context.Background()
	view := engine.CreateSession(ctx, "")

	after, err := engine.Autofill(ctx, view.SessionID)
	require.NoError(t, err)
	assert.Equal(t, after.Total-1, after.Index)
	assert.True(t, after.IsLast)
	assert.False(t, after.ShowClarification)
}
