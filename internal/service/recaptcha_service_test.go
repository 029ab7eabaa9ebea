package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cuerpofit_backend/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecaptchaVerifySuccess(t *testing.T) {
	var gotBody recaptchaRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"isHuman":true,"score":0.9,"key":"vk-1"}`))
	}))
	defer srv.Close()

	svc := NewRecaptchaService(config.RecaptchaConfig{VerifyURL: srv.URL, Action: "submit_questionnaire"}, nil)
	key, err := svc.Verify(context.Background(), "s1", "browser-token")
	require.NoError(t, err)
	assert.Equal(t, "vk-1", key)
	assert.Equal(t, "browser-token", gotBody.Token)
	assert.Equal(t, "submit_questionnaire", gotBody.Action)
}

func TestRecaptchaVerifyDenied(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"isHuman":false,"score":0.1,"message":"low score"}`))
	}))
	defer srv.Close()

	svc := NewRecaptchaService(config.RecaptchaConfig{VerifyURL: srv.URL}, nil)
	_, err := svc.Verify(context.Background(), "s1", "tok")
	require.Error(t, err)
	assert.Equal(t, msgVerification, err.Error())
}

func TestRecaptchaVerifyHumanWithoutKeyFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"isHuman":true,"score":0.9}`))
	}))
	defer srv.Close()

	svc := NewRecaptchaService(config.RecaptchaConfig{VerifyURL: srv.URL}, nil)
	_, err := svc.Verify(context.Background(), "s1", "tok")
	assert.Error(t, err)
}

func TestRecaptchaVerifyUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	svc := NewRecaptchaService(config.RecaptchaConfig{VerifyURL: srv.URL}, nil)
	_, err := svc.Verify(context.Background(), "s1", "tok")
	require.Error(t, err)
	assert.Equal(t, msgVerification, err.Error())
}

func TestRecaptchaCachedKeyRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"isHuman":true,"score":0.9,"key":"vk-cache"}`))
	}))
	defer srv.Close()

	svc := NewRecaptchaService(config.RecaptchaConfig{VerifyURL: srv.URL}, rdb)
	ctx := context.Background()

	_, err := svc.Verify(ctx, "s1", "tok")
	require.NoError(t, err)
	assert.Equal(t, "vk-cache", svc.Cached(ctx, "s1"))
	assert.Empty(t, svc.Cached(ctx, "other-session"))

	svc.Clear(ctx, "s1")
	assert.Empty(t, svc.Cached(ctx, "s1"))
}

func TestRecaptchaCachedKeyExpires(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"isHuman":true,"score":0.9,"key":"vk-ttl"}`))
	}))
	defer srv.Close()

	svc := NewRecaptchaService(config.RecaptchaConfig{VerifyURL: srv.URL}, rdb)
	ctx := context.Background()
	_, err := svc.Verify(ctx, "s1", "tok")
	require.NoError(t, err)

	// Default TTL is two minutes.
	mr.FastForward(3 * time.Minute)
	assert.Empty(t, svc.Cached(ctx, "s1"))
}

func TestRecaptchaNilRedisIsSafe(t *testing.T) {
	svc := NewRecaptchaService(config.RecaptchaConfig{}, nil)
	ctx := context.Background()
	assert.Empty(t, svc.Cached(ctx, "s1"))
	svc.Clear(ctx, "s1")
}
