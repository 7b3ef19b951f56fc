package main

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/kelseyhightower/envconfig"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/mediconsult/mediconsult-api/internal/repository/localdb"
	"github.com/mediconsult/mediconsult-api/internal/syncer"
)

type syncerConfig struct {
	LocalDatabaseURL string        `envconfig:"LOCAL_DATABASE_URL" required:"true"`
	ServerURL        string        `envconfig:"SERVER_URL" required:"true"`
	Token            string        `envconfig:"TOKEN" required:"true"`
	RequestTimeout   time.Duration `envconfig:"REQUEST_TIMEOUT" default:"15s"`
	Deadline         time.Duration `envconfig:"DEADLINE" default:"2m"`
}

// One-shot sync run: push pending local mutations, pull server changes, exit.
func main() {
	var cfg syncerConfig
	if err := envconfig.Process("SYNCER", &cfg); err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := sqlx.Connect("postgres", cfg.LocalDatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open local store")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Deadline)
	defer cancel()

	store := localdb.NewStore(db)
	if err := store.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate local store")
	}

	remote := syncer.NewHTTPRemote(cfg.ServerURL, cfg.Token, cfg.RequestTimeout)
	reconciler := syncer.NewReconciler(store, remote)

	summary, err := reconciler.Sync(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("sync run failed")
	}

	log.Info().
		Interface("pushed", summary.Pushed).
		Interface("push_failed", summary.PushFailed).
		Int("push_skipped", summary.PushSkipped).
		Int("pulled", summary.Pulled).
		Int64("checkpoint", summary.Checkpoint).
		Msg("sync run complete")
}
