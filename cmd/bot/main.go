package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	stdhttp "net/http"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/vncsmyrnk/surveybot/internal/adapters/handler/http"
	"github.com/vncsmyrnk/surveybot/internal/adapters/messenger/telegram"
	"github.com/vncsmyrnk/surveybot/internal/adapters/repository/guarded"
	"github.com/vncsmyrnk/surveybot/internal/adapters/repository/memory"
	"github.com/vncsmyrnk/surveybot/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/surveybot/internal/adapters/repository/sheets"
	"github.com/vncsmyrnk/surveybot/internal/adapters/repository/table"
	"github.com/vncsmyrnk/surveybot/internal/config"
	"github.com/vncsmyrnk/surveybot/internal/core/dialog"
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

	flag.StringVar(&cfg.Mode, "mode", cfg.Mode, "Update delivery: polling or webhook")
	flag.StringVar(&cfg.Backend, "store", cfg.Backend, "Table store backend: sheets, postgres or memory")
	flag.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "Address of the health and webhook server")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	closer, err := logger.Init(cfg.LogLevel, cfg.LogPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise logging")
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, cleanup, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.Backend).Msg("failed to open table store")
	}
	defer cleanup()

	// Health checks skip the limiter so polling cannot spend the store quota.
	raw := store
	store = guarded.NewTableStore(store, guarded.Config{
		RatePerSecond: cfg.StoreRatePerSec,
		Burst:         cfg.StoreBurst,
		MaxRetries:    guarded.DefaultConfig().MaxRetries,
		InitialDelay:  guarded.DefaultConfig().InitialDelay,
	})

	if err := table.Bootstrap(ctx, store, cfg.Tables, nil); err != nil {
		log.Fatal().Err(err).Msg("failed to prepare tables")
	}

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to telegram")
	}
	messenger := telegram.NewMessenger(bot)

	// Initialize Repositories
	questionRepo := table.NewQuestionRepository(store, cfg.Tables.Questions, domain.CodecOptions{PromptHeuristic: cfg.LegacyPromptHeuristic})
	responseRepo := table.NewResponseRepository(store, cfg.Tables.Answers)
	statsRepo := table.NewStatisticsRepository(store, cfg.Tables.Statistics)
	adminRepo := table.NewAdminRepository(store, cfg.Tables.Admins)
	userRepo := table.NewUserRepository(store, cfg.Tables.Users)
	messageRepo := table.NewMessageRepository(store, cfg.Tables.Messages)
	postRepo := table.NewPostRepository(store, cfg.Tables.Posts)

	// Initialize Services
	questionService := services.NewQuestionService(questionRepo, responseRepo)
	statsService := services.NewStatisticsService(questionService, responseRepo, statsRepo)
	broadcastService := services.NewBroadcastService(userRepo, messenger, cfg.BroadcastProgress)

	set, err := questionService.Reload(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load questions")
	}
	if err := responseRepo.SyncHeader(ctx, set.Texts()); err != nil {
		log.Fatal().Err(err).Msg("failed to sync answers header")
	}
	log.Info().Int("questions", set.Len()).Msg("question model loaded")

	dispatcher := dialog.NewDispatcher(dialog.Deps{
		Messenger: messenger,
		Questions: questionService,
		Survey:    services.NewSurveyService(questionService, responseRepo, statsService, statsRepo),
		Stats:     statsService,
		Users:     services.NewUserService(userRepo),
		Admins:    services.NewAdminService(adminRepo, cfg.AdminIDs),
		Posts:     services.NewPostService(postRepo),
		Broadcast: broadcastService,
		Messages:  services.NewMessageService(messageRepo),
	})

	var webhook *telegram.WebhookHandler
	if cfg.Mode == config.ModeWebhook {
		webhook = telegram.NewWebhookHandler(ctx, dispatcher.Handle)
		if err := telegram.SetWebhook(bot, cfg.Webhook); err != nil {
			log.Fatal().Err(err).Msg("failed to register webhook")
		}
	}

	server := &stdhttp.Server{Addr: cfg.HTTPAddr, Handler: newHandler(raw, cfg.Tables, webhook)}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()
	log.Info().Str("addr", cfg.HTTPAddr).Str("mode", cfg.Mode).Msg("bot started")

	if webhook == nil {
		if err := telegram.NewPoller(bot, dispatcher.Handle).Run(ctx); err != nil {
			log.Error().Err(err).Msg("polling stopped")
		}
	} else {
		<-ctx.Done()
	}
	log.Info().Msg("gracefully shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown failed")
	}
	if webhook != nil {
		webhook.Wait()
	}
	broadcastService.Wait()
	statsService.Wait()
}

// openStore builds the configured backend. The returned cleanup releases its resources.
func openStore(ctx context.Context, cfg *config.Config) (ports.TableStore, func(), error) {
	switch cfg.Backend {
	case config.BackendSheets:
		store, err := sheets.NewTableStore(ctx, cfg.Sheets.SpreadsheetID, cfg.Sheets.CredentialsPath)
		return store, func() {}, err
	case config.BackendPostgres:
		db, err := sql.Open("postgres", cfg.Database.ConnString())
		if err != nil {
			return nil, nil, err
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to reach postgres: %w", err)
		}
		return postgres.NewTableStore(db), func() { db.Close() }, nil
	case config.BackendMemory:
		log.Warn().Msg("using the in-memory table store, data is lost on exit")
		return memory.NewTableStore(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

const healthCacheTTL = 10 * time.Second

func newHandler(store ports.TableStore, tables ports.Tables, webhook *telegram.WebhookHandler) stdhttp.Handler {
	health := http.CachedHealth(func(r *stdhttp.Request) error {
		_, err := store.Rows(r.Context(), tables.Questions)
		return err
	}, healthCacheTTL)
	if webhook == nil {
		return http.NewHandler(health, nil)
	}
	return http.NewHandler(health, webhook)
}
