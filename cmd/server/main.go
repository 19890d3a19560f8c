package main

import (
	"context"
	"log"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/parishfund/grantmatch/internal/ai"
	"github.com/parishfund/grantmatch/internal/api"
	"github.com/parishfund/grantmatch/internal/auth"
	"github.com/parishfund/grantmatch/internal/config"
	"github.com/parishfund/grantmatch/internal/db"
	"github.com/parishfund/grantmatch/internal/logger"
	"github.com/parishfund/grantmatch/internal/match"
)

func main() {
	cfgPath := os.Getenv("CONFIG_FILE")
	if cfgPath == "" {
		cfgPath = "grantmatch.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.Logging.JSON, cfg.Logging.Debug)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zl.Sync()

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.Database.URL)
	if err != nil {
		zl.Fatal("database connection failed", zap.Error(err))
	}
	defer pool.Close()

	if err := db.ApplyMigrations(ctx, pool, zl); err != nil {
		zl.Fatal("migration failed", zap.Error(err))
	}

	var generator ai.ContentGenerator
	var embedder ai.Embedder

	ollama := ai.NewOllamaClient(cfg.AI.OllamaBaseURL, cfg.AI.OllamaEmbedModel, cfg.AI.OllamaGenModel)
	embedder = ollama

	switch cfg.AI.Provider {
	case "gemini":
		gem, err := ai.NewGeminiGenerator(ctx, cfg.AI.GeminiAPIKey, cfg.AI.GeminiModel)
		if err != nil {
			zl.Fatal("gemini client failed", zap.Error(err))
		}
		generator = gem
		zl.Info("scoring backend ready", zap.String("provider", "gemini"), zap.String("model", gem.Model()))
	default:
		generator = ollama
		zl.Info("scoring backend ready", zap.String("provider", "ollama"))
	}

	scorer := ai.NewScorer(generator, zl)
	matcher := match.NewMatcher(scorer, zl)

	srv := api.NewServer(api.Deps{
		Store:       db.NewStore(pool),
		AuthService: auth.NewService(pool),
		Matcher:     matcher,
		Generator:   generator,
		Embedder:    embedder,
		Logger:      zl,
		CORSOrigins: corsOrigins(),
	})

	zl.Info("server starting", zap.String("port", cfg.Server.Port))
	if err := srv.Start(cfg.Server.Port); err != nil {
		zl.Fatal("server stopped", zap.Error(err))
	}
}

func corsOrigins() []string {
	var origins []string
	for _, o := range strings.Split(os.Getenv("CORS_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
