package repository

import (
	"context"
	"testing"

	"cuerpofit_backend/internal/model"
	"cuerpofit_backend/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	logger.Log = zap.NewNop()
}

func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func sampleQuestions() []model.Question {
	return []model.Question{
		{ID: "a", Type: model.QuestionText},
		{ID: "b", Type: model.QuestionText},
	}
}

func TestSessionRepositorySaveLoadClear(t *testing.T) {
	repo := NewSessionRepository(testRedis(t), sampleQuestions())
	ctx := context.Background()

	state := &PersistedState{
		Answers: map[string]PersistedAnswer{
			"a": {ID: "yes", Text: "Yes"},
		},
		CurrentQuestionIndex: 1,
		ShowClarification:    false,
	}
	repo.Save(ctx, "s1", state)

	loaded, ok := repo.Load(ctx, "s1")
	require.True(t, ok)
	assert.Equal(t, 1, loaded.CurrentQuestionIndex)
	require.Contains(t, loaded.Answers, "a")
	assert.Equal(t, "Yes", loaded.Answers["a"].Text)

	repo.Clear(ctx, "s1")
	_, ok = repo.Load(ctx, "s1")
	assert.False(t, ok)
}

func TestSessionRepositoryMissingSession(t *testing.T) {
	repo := NewSessionRepository(testRedis(t), sampleQuestions())
	_, ok := repo.Load(context.Background(), "unknown")
	assert.False(t, ok)
}

func TestSessionRepositoryNilClientIsSilent(t *testing.T) {
	repo := NewSessionRepository(nil, sampleQuestions())
	ctx := context.Background()

	repo.Save(ctx, "s1", &PersistedState{})
	_, ok := repo.Load(ctx, "s1")
	assert.False(t, ok)
	repo.Clear(ctx, "s1")
}

func TestSessionRepositoryKeyChangesWithCatalog(t *testing.T) {
	rdb := testRedis(t)
	ctx := context.Background()

	repo := NewSessionRepository(rdb, sampleQuestions())
	repo.Save(ctx, "s1", &PersistedState{CurrentQuestionIndex: 1})

	// A reordered or renamed catalog must not resume old snapshots.
	changed := NewSessionRepository(rdb, []model.Question{
		{ID: "b", Type: model.QuestionText},
		{ID: "a", Type: model.QuestionText},
	})
	_, ok := changed.Load(ctx, "s1")
	assert.False(t, ok)

	_, ok = repo.Load(ctx, "s1")
	assert.True(t, ok)
}

func TestSessionRepositoryNegativeIndexClamped(t *testing.T) {
	rdb := testRedis(t)
	repo := NewSessionRepository(rdb, sampleQuestions())
	ctx := context.Background()

	repo.Save(ctx, "s1", &PersistedState{CurrentQuestionIndex: -3})
	loaded, ok := repo.Load(ctx, "s1")
	require.True(t, ok)
	assert.Equal(t, 0, loaded.CurrentQuestionIndex)
}
