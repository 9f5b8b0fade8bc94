// Command insightgen runs one batch of insight generation for every
// user with a connected bank account and exits.
package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"github.com/benchwise/finsight/config"
	"github.com/benchwise/finsight/engine"
	"github.com/benchwise/finsight/insight"
	"github.com/benchwise/finsight/logger"
	"github.com/benchwise/finsight/snapshot"
	"github.com/benchwise/finsight/store"
)

// backend is what a batch run needs from the data layer.
type backend interface {
	snapshot.Ledger
	insight.Store
}

func main() {
	godotenv.Load()

	log := logger.New()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := logger.WithContext(context.Background(), log)

	var data backend
	switch cfg.DataBackend {
	case "mongo":
		mongo, err := store.NewMongo(ctx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to MongoDB")
		}
		defer mongo.Close(ctx)
		data = mongo
	default:
		log.Warn().Msg("using in-memory backend, generated insights will not persist")
		data = store.NewMemory()
	}

	builder, err := snapshot.NewBuilder(data, snapshot.WithTTL(cfg.SnapshotTTL))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create snapshot builder")
	}
	defer builder.Close()

	var model engine.ModelClient
	if cfg.AnthropicAPIKey != "" {
		model = engine.NewAnthropicClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
	} else {
		log.Warn().Msg("ANTHROPIC_API_KEY not set, insights will be heuristic only")
	}

	gen := insight.New(model, builder, data)

	results, err := gen.GenerateForAll(ctx, data, cfg.PeriodDays)
	if err != nil {
		log.Error().Err(err).Msg("insight batch failed")
		os.Exit(1)
	}

	tiers := map[insight.Tier]int{}
	for _, r := range results {
		tiers[r.Tier]++
	}
	log.Info().
		Int("generated", len(results)).
		Int("placeholder", tiers[insight.TierPlaceholder]).
		Int("heuristic", tiers[insight.TierHeuristic]).
		Int("agent", tiers[insight.TierAgent]).
		Msg("insight batch complete")
}
