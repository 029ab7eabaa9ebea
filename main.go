// @title Cuerpo-Fit Intake API
// @version 1.0
// @description Lead-qualification questionnaire and video intake backend.

// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization

package main

import (
	"log"

	"cuerpofit_backend/internal/app"
	"cuerpofit_backend/internal/config"
	"cuerpofit_backend/pkg/configwatcher"
	"cuerpofit_backend/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	// The watcher blocks on its event loop, the server blocks in Run.
	go configwatcher.WatchConfig("configs", application.ApplyConfig)

	application.Run()
}
