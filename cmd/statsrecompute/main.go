package main

import (
	"context"
	"database/sql"
	"flag"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/vncsmyrnk/surveybot/internal/adapters/repository/guarded"
	"github.com/vncsmyrnk/surveybot/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/surveybot/internal/adapters/repository/sheets"
	"github.com/vncsmyrnk/surveybot/internal/adapters/repository/table"
	"github.com/vncsmyrnk/surveybot/internal/config"
	"github.com/vncsmyrnk/surveybot/internal/core/domain"
	"github.com/vncsmyrnk/surveybot/internal/core/ports"
	"github.com/vncsmyrnk/surveybot/internal/core/services"
	"github.com/vncsmyrnk/surveybot/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	var timeout time.Duration
	flag.StringVar(&cfg.Backend, "store", cfg.Backend, "Table store backend: sheets or postgres")
	flag.DurationVar(&timeout, "timeout", 5*time.Minute, "Maximum job duration")
	flag.Parse()

	closer, err := logger.Init(cfg.LogLevel, cfg.LogPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise logging")
	}
	defer closer.Close()

	// Use a timeout for the job execution to prevent it from hanging indefinitely
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var store ports.TableStore
	switch cfg.Backend {
	case config.BackendSheets:
		store, err = sheets.NewTableStore(ctx, cfg.Sheets.SpreadsheetID, cfg.Sheets.CredentialsPath)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open spreadsheet")
		}
	case config.BackendPostgres:
		db, err := sql.Open("postgres", cfg.Database.ConnString())
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open database")
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to reach database")
		}
		store = postgres.NewTableStore(db)
	default:
		log.Fatal().Str("backend", cfg.Backend).Msg("statistics can only be recomputed on a persistent store")
	}
	store = guarded.NewTableStore(store, guarded.DefaultConfig())

	responseRepo := table.NewResponseRepository(store, cfg.Tables.Answers)
	questionRepo := table.NewQuestionRepository(store, cfg.Tables.Questions, domain.CodecOptions{PromptHeuristic: cfg.LegacyPromptHeuristic})
	statsService := services.NewStatisticsService(
		services.NewQuestionService(questionRepo, responseRepo),
		responseRepo,
		table.NewStatisticsRepository(store, cfg.Tables.Statistics),
	)

	log.Info().Msg("starting statistics recompute job")

	rows, err := statsService.Recompute(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to recompute statistics")
	}

	log.Info().Int("rows", len(rows)).Msg("statistics recompute completed successfully")
}
