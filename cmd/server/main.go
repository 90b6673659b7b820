package main

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/tadeyemo32/lead-scraper/api"
	"github.com/tadeyemo32/lead-scraper/config"
	"github.com/tadeyemo32/lead-scraper/db"
	"github.com/tadeyemo32/lead-scraper/logging"
	"github.com/tadeyemo32/lead-scraper/services"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load("../.env", ".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(logging.Options{
		File:        cfg.LogFile,
		Level:       cfg.LogLevel,
		Development: cfg.Env == "local",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if missing := cfg.Missing(); len(missing) > 0 {
		logger.Warn("[Server] missing configuration, searches will fail", zap.Strings("vars", missing))
	}

	database, err := db.InitDB(cfg.DatabasePath)
	if err != nil {
		logger.Fatal("[Server] failed to open database", zap.String("path", cfg.DatabasePath), zap.Error(err))
	}
	defer database.Close()

	searcher := services.NewSearchClient(cfg.GoogleAPIKey, cfg.SearchEngineID, logger)
	searcher.Timeout = cfg.UpstreamTimeout
	searcher.MaxRetries = cfg.UpstreamRetries

	limits := services.RateLimits{PerMinute: cfg.RateLimitPerMinute, PerDay: cfg.RateLimitPerDay}
	handler := &api.Handler{
		Engine: &services.Engine{
			Policy:    services.NewAccessPolicy(cfg.ClientKey, services.NewRateLimiter(limits)),
			Searcher:  searcher,
			Runs:      services.NewRunStore(database),
			ResultCap: cfg.ResultCap,
			Logger:    logger,
		},
		Downloads: services.NewRateLimiter(limits),
		Logger:    logger,
	}

	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(api.Recovery(logger), api.RequestLogger(logger), api.CORS())

	api.SetupRoutes(r, handler)

	logger.Info("[Server] starting lead search backend", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Fatal("[Server] error starting server", zap.Error(err))
	}
}
