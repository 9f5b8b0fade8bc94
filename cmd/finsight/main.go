// Command finsight runs the advisor chat server.
package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"github.com/benchwise/finsight/advisor"
	"github.com/benchwise/finsight/config"
	"github.com/benchwise/finsight/engine"
	"github.com/benchwise/finsight/logger"
	"github.com/benchwise/finsight/server"
	"github.com/benchwise/finsight/snapshot"
	"github.com/benchwise/finsight/store"
)

func main() {
	godotenv.Load()

	log := logger.New()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()

	var ledger snapshot.Ledger
	switch cfg.DataBackend {
	case "mongo":
		mongo, err := store.NewMongo(ctx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to MongoDB")
		}
		defer mongo.Close(ctx)
		ledger = mongo
	default:
		log.Warn().Msg("using in-memory backend, data will not persist")
		ledger = store.NewMemory()
	}

	builder, err := snapshot.NewBuilder(ledger, snapshot.WithTTL(cfg.SnapshotTTL))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create snapshot builder")
	}
	defer builder.Close()

	var model engine.ModelClient
	if cfg.AnthropicAPIKey != "" {
		model = engine.NewAnthropicClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
	} else {
		log.Warn().Msg("ANTHROPIC_API_KEY not set, advisor will return canned answers")
	}

	adv := advisor.New(model, builder,
		advisor.WithMaxIterations(cfg.MaxIterations),
		advisor.WithPeriodDays(cfg.PeriodDays),
	)

	srv := server.New(server.Config{
		Advisor: adv,
		Logger:  &log,
	})

	log.Info().Str("port", cfg.Port).Str("backend", cfg.DataBackend).Msg("finsight starting")
	if err := srv.Run(":" + cfg.Port); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
