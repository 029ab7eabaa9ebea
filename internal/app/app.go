package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cuerpofit_backend/internal/config"
	"cuerpofit_backend/internal/controller"
	"cuerpofit_backend/internal/repository"
	"cuerpofit_backend/internal/service"
	"cuerpofit_backend/pkg/database"
	"cuerpofit_backend/pkg/logger"
	"cuerpofit_backend/pkg/monitoring"
	"cuerpofit_backend/pkg/security"
	"cuerpofit_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	configCallbacks []func(*config.Config)
}

type repositories struct {
	session     *repository.SessionRepository
	application *repository.ApplicationRepository
	admin       *repository.AdminRepository
}

type services struct {
	storage       *service.StorageService
	recaptcha     *service.RecaptchaService
	country       *service.CountryService
	questionnaire *service.QuestionnaireService
	intake        *service.IntakeService
	transcode     *service.TranscodeService
	auth          *service.AuthService
}

type controllers struct {
	intake  *controller.IntakeController
	video   *controller.VideoController
	country *controller.CountryController
	admin   *controller.AdminController
	health  *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// ApplyConfig swaps the live configuration and notifies registered
// subscribers. The config watcher calls this on every hot reload.
func (a *App) ApplyConfig(updated *config.Config) {
	a.Config = updated
	for _, callback := range a.configCallbacks {
		callback(updated)
	}
	logger.Log.Info("configuration reloaded")
}

func (a *App) initServices(cfg *config.Config, db *gorm.DB, rdb *redis.Client) (*services, *repositories, error) {
	questions := service.DefaultQuestions()
	if err := service.ValidateMappings(questions); err != nil {
		return nil, nil, err
	}

	repos := &repositories{
		session:     repository.NewSessionRepository(rdb, questions),
		application: repository.NewApplicationRepository(db),
		admin:       repository.NewAdminRepository(db),
	}

	s := &services{}
	s.storage = service.NewStorageService(cfg)
	s.recaptcha = service.NewRecaptchaService(cfg.Recaptcha, rdb)
	s.country = service.NewCountryService(cfg.Countries, rdb)
	s.questionnaire = service.NewQuestionnaireService(questions, repos.session, s.recaptcha)
	s.questionnaire.SetAllowSkip(cfg.Server.Mode != "release")
	s.intake = service.NewIntakeService(cfg.Intake, repos.application, s.storage)
	s.questionnaire.SetCompletionFunc(s.intake.Complete)
	s.transcode = service.NewTranscodeService(cfg.Transcode, nil, repos.application, s.questionnaire)
	s.auth = service.NewAuthService(cfg, repos.admin)
	return s, repos, nil
}

func (a *App) initControllers(s *services, repos *repositories, db *gorm.DB, rdb *redis.Client, cfg *config.Config) *controllers {
	return &controllers{
		intake:  controller.NewIntakeController(s.questionnaire, cfg.Server.Mode != "release"),
		video:   controller.NewVideoController(s.questionnaire, s.transcode, s.storage),
		country: controller.NewCountryController(s.country),
		admin:   controller.NewAdminController(s.auth, repos.application),
		health:  controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 1000
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(maxRequests, window))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	gin.SetMode(cfg.Server.Mode)

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		// Sessions and caches degrade gracefully without Redis; only log.
		logger.Log.Warn("Redis unavailable, continuing without durable sessions", zap.Error(err))
		rdb = nil
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	services, repos, err := app.initServices(cfg, db, rdb)
	if err != nil {
		logger.Log.Fatal("Invalid question/mapper configuration", zap.Error(err))
	}
	app.services = services
	controllers := app.initControllers(services, repos, db, rdb, cfg)

	// Endpoint settings may change between restarts of the upstream CRM;
	// pick them up on hot reload without bouncing the server.
	app.RegisterConfigCallback(func(updated *config.Config) {
		services.intake.UpdateConfig(updated.Intake)
	})

	monitoring.Init()

	router := gin.New()
	router.Use(gin.Recovery())
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("cuerpofit-intake", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, cfg)

	if cfg.Storage.Type == "local" || cfg.Storage.Type == "" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Stop in-flight compressions before the HTTP listener goes away.
	if a.services != nil && a.services.transcode != nil {
		a.services.transcode.Shutdown()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
