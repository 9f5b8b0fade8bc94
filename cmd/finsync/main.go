// Command finsync pulls one user's accounts and transactions from the
// banking provider and writes them into the store.
package main

import (
	"context"
	"flag"

	"github.com/joho/godotenv"

	"github.com/benchwise/finsight/config"
	"github.com/benchwise/finsight/logger"
	"github.com/benchwise/finsight/provider"
	"github.com/benchwise/finsight/store"
)

func main() {
	userID := flag.String("user", "", "user id to sync")
	accessToken := flag.String("token", "", "provider access token for the user")
	windowDays := flag.Int("days", 90, "how many days of transactions to pull")
	flag.Parse()

	godotenv.Load()

	log := logger.New()

	if *userID == "" || *accessToken == "" {
		log.Fatal().Msg("both -user and -token are required")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if cfg.ProviderBaseURL == "" {
		log.Fatal().Msg("PROVIDER_BASE_URL is required")
	}

	ctx := logger.WithContext(context.Background(), log)

	var writer provider.Writer
	switch cfg.DataBackend {
	case "mongo":
		mongo, err := store.NewMongo(ctx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to MongoDB")
		}
		defer mongo.Close(ctx)
		writer = mongo
	default:
		log.Warn().Msg("using in-memory backend, synced data will not persist")
		writer = store.NewMemory()
	}

	client := provider.NewClient(provider.Config{
		BaseURL: cfg.ProviderBaseURL,
		APIKey:  cfg.ProviderAPIKey,
	})
	syncer := provider.NewSyncer(client, writer, provider.WithSyncWindow(*windowDays))

	summary, err := syncer.SyncUser(ctx, *userID, *accessToken)
	if err != nil {
		log.Fatal().Err(err).Str("user_id", *userID).Msg("sync failed")
	}

	log.Info().
		Str("user_id", summary.UserID).
		Int("connections", summary.Connections).
		Int("accounts", summary.Accounts).
		Int("transactions", summary.Transactions).
		Msg("sync finished")
}
