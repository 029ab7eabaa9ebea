package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"cuerpofit_backend/internal/model"
	"cuerpofit_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// PersistedAnswer is the storable shape of a StoredAnswer. File-bearing
// answers are never persisted; multi-choice selections collapse to ids.
type PersistedAnswer struct {
	ID             string            `json:"id"`
	Text           string            `json:"text,omitempty"`
	Value          *float64          `json:"value,omitempty"`
	Selections     []string          `json:"selections,omitempty"`
	FieldValues    map[string]string `json:"fieldValues,omitempty"`
	BlocksProgress bool              `json:"blocksProgress,omitempty"`
}

// PersistedState is the durable progress snapshot of one session.
type PersistedState struct {
	Answers              map[string]PersistedAnswer `json:"answers"`
	CurrentQuestionIndex int                        `json:"currentQuestionIndex"`
	ShowClarification    bool                       `json:"showClarification"`
}

// SessionRepository keeps resumable questionnaire progress in Redis.
// Every failure is swallowed: the questionnaire keeps working from
// in-memory state when the store is unavailable.
type SessionRepository struct {
	rdb       *redis.Client
	keySuffix string
	ttl       time.Duration
}

const progressKeyPrefix = "intake:progress"

// NewSessionRepository derives the storage key suffix from the full
// ordered question id list, so a changed questionnaire never resumes
// from an incompatible snapshot.
func NewSessionRepository(rdb *redis.Client, questions []model.Question) *SessionRepository {
	ids := make([]string, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
	}
	sum := sha256.Sum256([]byte(strings.Join(ids, "|")))
	return &SessionRepository{
		rdb:       rdb,
		keySuffix: hex.EncodeToString(sum[:8]),
		ttl:       7 * 24 * time.Hour,
	}
}

func (r *SessionRepository) key(sessionID string) string {
	return progressKeyPrefix + ":" + r.keySuffix + ":" + sessionID
}

func (r *SessionRepository) Save(ctx context.Context, sessionID string, state *PersistedState) {
	if r.rdb == nil {
		return
	}
	raw, err := json.Marshal(state)
	if err != nil {
		return
	}
	if err := r.rdb.Set(ctx, r.key(sessionID), raw, r.ttl).Err(); err != nil {
		logger.Log.Debug("session snapshot write failed", zap.String("session", sessionID), zap.Error(err))
	}
}

func (r *SessionRepository) Load(ctx context.Context, sessionID string) (*PersistedState, bool) {
	if r.rdb == nil {
		return nil, false
	}
	raw, err := r.rdb.Get(ctx, r.key(sessionID)).Result()
	if err != nil {
		return nil, false
	}
	var state PersistedState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, false
	}
	if state.CurrentQuestionIndex < 0 {
		state.CurrentQuestionIndex = 0
	}
	return &state, true
}

func (r *SessionRepository) Clear(ctx context.Context, sessionID string) {
	if r.rdb == nil {
		return
	}
	if err := r.rdb.Del(ctx, r.key(sessionID)).Err(); err != nil {
		logger.Log.Debug("session snapshot delete failed", zap.String("session", sessionID), zap.Error(err))
	}
}
