package app

import (
	"net/http"
	"testing"

	"cuerpofit_backend/internal/config"
	"cuerpofit_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.Log = zap.NewNop()
}

func TestApplyConfigNotifiesSubscribers(t *testing.T) {
	initial := &config.Config{}
	initial.Intake.SubmitURL = "http://old.example/submit"
	application := &App{Config: initial}

	var seen *config.Config
	application.RegisterConfigCallback(func(updated *config.Config) {
		seen = updated
	})

	reloaded := &config.Config{}
	reloaded.Intake.SubmitURL = "http://new.example/submit"
	application.ApplyConfig(reloaded)

	assert.Same(t, reloaded, application.Config)
	assert.NotNil(t, seen)
	assert.Equal(t, "http://new.example/submit", seen.Intake.SubmitURL)
}

func TestApplyConfigWithoutSubscribers(t *testing.T) {
	application := &App{Config: &config.Config{}}
	reloaded := &config.Config{}

	application.ApplyConfig(reloaded)

	assert.Same(t, reloaded, application.Config)
}

func TestHealthMountedAtRoot(t *testing.T) {
	router := gin.New()
	application := &App{}
	cfg := &config.Config{}
	cfg.Server.Mode = "release"

	application.registerRoutes(router, &controllers{}, cfg)

	getPaths := make(map[string]bool)
	for _, route := range router.Routes() {
		if route.Method == http.MethodGet {
			getPaths[route.Path] = true
		}
	}
	assert.True(t, getPaths["/health"])
	assert.False(t, getPaths["/api/health"])
}
