package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cuerpofit_backend/internal/config"
	"cuerpofit_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RecaptchaService verifies browser tokens against the upstream
// verification endpoint and caches the resulting key per session, so a
// failed submission can be retried without a fresh challenge.
type RecaptchaService struct {
	cfg    config.RecaptchaConfig
	client *http.Client
	rdb    *redis.Client
}

func NewRecaptchaService(cfg config.RecaptchaConfig, rdb *redis.Client) *RecaptchaService {
	return &RecaptchaService{
		cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
		rdb:    rdb,
	}
}

type recaptchaRequest struct {
	Token  string `json:"token"`
	Action string `json:"action"`
}

type recaptchaResponse struct {
	IsHuman bool    `json:"isHuman"`
	Score   float64 `json:"score"`
	Key     string  `json:"key"`
	Message string  `json:"message"`
}

// Verify exchanges a browser token for a verification key. A response
// claiming a human without carrying a key is treated as a failure.
func (s *RecaptchaService) Verify(ctx context.Context, sessionID, token string) (string, error) {
	body, err := json.Marshal(recaptchaRequest{Token: token, Action: s.cfg.Action})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.VerifyURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		logger.Log.Warn("recaptcha verification request failed", zap.Error(err))
		return "", errors.New(msgVerification)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Log.Warn("recaptcha verification rejected", zap.Int("status", resp.StatusCode))
		return "", errors.New(msgVerification)
	}

	var parsed recaptchaResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", errors.New(msgVerification)
	}

	if !parsed.IsHuman || parsed.Key == "" {
		if parsed.Message != "" {
			logger.Log.Info("recaptcha denied", zap.String("message", parsed.Message), zap.Float64("score", parsed.Score))
		}
		return "", errors.New(msgVerification)
	}

	s.cache(ctx, sessionID, parsed.Key)
	return parsed.Key, nil
}

// Cached returns the still-valid verification key for the session, or "".
func (s *RecaptchaService) Cached(ctx context.Context, sessionID string) string {
	if s.rdb == nil {
		return ""
	}
	key, err := s.rdb.Get(ctx, s.redisKey(sessionID)).Result()
	if err != nil {
		return ""
	}
	return key
}

// Clear drops the cached key after a completed submission.
func (s *RecaptchaService) Clear(ctx context.Context, sessionID string) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, s.redisKey(sessionID)).Err(); err != nil {
		logger.Log.Debug("could not clear cached recaptcha key", zap.Error(err))
	}
}

func (s *RecaptchaService) cache(ctx context.Context, sessionID, key string) {
	if s.rdb == nil {
		return
	}
	ttl := s.cfg.TokenTTL
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	if err := s.rdb.Set(ctx, s.redisKey(sessionID), key, ttl).Err(); err != nil {
		logger.Log.Debug("could not cache recaptcha key", zap.Error(err))
	}
}

func (s *RecaptchaService) redisKey(sessionID string) string {
	return fmt.Sprintf("recaptcha:%s", sessionID)
}
