package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/oksasatya/scent-recommender/config"
	"github.com/oksasatya/scent-recommender/internal/container"
	"github.com/oksasatya/scent-recommender/internal/infrastructure/kvdriver"
	"github.com/oksasatya/scent-recommender/internal/infrastructure/llm"
	"github.com/oksasatya/scent-recommender/internal/infrastructure/search"
	"github.com/oksasatya/scent-recommender/internal/interface/middleware"
	"github.com/oksasatya/scent-recommender/internal/router"
	"github.com/oksasatya/scent-recommender/pkg/helpers"
	"github.com/oksasatya/scent-recommender/pkg/validation"
)

func main() {
	_ = godotenv.Load() // load .env if present

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	logger := helpers.NewLogger(cfg.AppName, cfg.Env, cfg.LogLevel)
	gin.SetMode(cfg.GinMode)
	validation.Init()

	ctx := context.Background()

	// Preference storage (+ Redis for sessions and rate limits)
	handles, err := kvdriver.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("failed to open kv store: %v", err)
	}
	defer handles.Close()

	// JWT
	jwtManager := helpers.NewJWTManager(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.AccessTTL, cfg.RefreshTTL)

	// Generative model
	model := llm.NewOpenAIInvoker(llm.Config{
		BaseURL:         cfg.LLMBaseURL,
		APIKey:          cfg.LLMAPIKey,
		Model:           cfg.LLMModel,
		Temperature:     float32(cfg.LLMTemperature),
		Timeout:         cfg.LLMTimeout,
		MaxRetries:      cfg.LLMMaxRetries,
		BreakerFailures: uint32(cfg.LLMBreakerFailures),
		BreakerCooldown: cfg.LLMBreakerCooldown,
	}, logger)

	// Preference events (optional)
	if cfg.EventsEnabled {
		pub, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQEventsQueue)
		if err != nil {
			logger.WithError(err).Warn("rabbitmq unavailable; preference events disabled")
		} else {
			defer pub.Close()
			container.SetPublisher(pub)
		}
	}

	// Elasticsearch (optional, backs /api/preferences/search)
	if es, err := helpers.NewESClient(cfg.ESAddrs(), cfg.ElasticsearchUser, cfg.ElasticsearchPass); err != nil {
		logger.WithError(err).Warn("elasticsearch client init failed; search disabled")
	} else {
		ensureCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := search.NewPreferenceIndex(es, cfg.ESPreferencesIndex, logger).Ensure(ensureCtx); err != nil {
			logger.WithError(err).Warn("elasticsearch unavailable; search disabled")
		} else {
			container.SetES(es)
		}
		cancel()
	}

	// Provide infra singletons to container for registry auto-wiring
	container.SetConfig(cfg)
	container.SetLogger(logger)
	container.SetKV(handles.KV)
	container.SetRedis(handles.Redis)
	container.SetJWT(jwtManager)
	container.SetModel(model)

	// Gin engine and global middleware
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.RealIP())
	corsCfg := cors.Config{
		AllowOrigins:     cfg.CORSOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Accept-Language", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(corsCfg.AllowOrigins) == 0 {
		corsCfg.AllowOrigins = []string{"http://localhost:3000"}
	}
	r.Use(cors.New(corsCfg))
	if cfg.HTTPLogEnabled {
		r.Use(gin.Logger())
	}

	// Registry: auto-register modules using container
	reg := router.NewRegistry(r)
	router.InitModules(reg)
	reg.RegisterAll()

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.Infof("server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Errorf("server forced to shutdown: %v", err)
	}
	logger.Info("server exited properly")
}
