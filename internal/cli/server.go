package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"quizhost-service/internal/app"
	"quizhost-service/internal/config"
	"quizhost-service/internal/domain"
	"quizhost-service/internal/identity"
	"quizhost-service/internal/infra/ledger"
	"quizhost-service/internal/infra/memory"
	"quizhost-service/internal/infra/postgres"
	redisinfra "quizhost-service/internal/infra/redis"
	transport "quizhost-service/internal/transport/http"
)

// NewServeCmd builds the CLI subcommand to start the server.
func NewServeCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the quiz hosting server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg := config.LoadOrDefault(configPath)

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *goredis.Client
	if cfg.Redis.Addr != "" {
		redisClient = goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	hasher := identity.NewHasher(cfg.Identity.DevicePepper, cfg.Identity.EmailPepper)

	// Persistence: Postgres when configured, seeded memory otherwise.
	var (
		authoringStore app.AuthoringStore
		attemptStore   app.AttemptStore
		userStore      app.UserStore
		analyticsRead  app.AnalyticsReader
	)
	if cfg.Postgres.URL != "" {
		store, db := postgres.Open(cfg.Postgres.URL)
		defer db.Close()

		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()

		authoringStore = store
		attemptStore = store
		userStore = store
		analyticsRead = postgres.NewAnalyticsReader(pool)
	} else {
		store := memory.NewStore()
		store.Seed(sampleQuiz())
		log.Printf("no postgres url configured, using in-memory store with a sample quiz")
		authoringStore = store
		attemptStore = store
		userStore = store
		analyticsRead = store
	}

	// Central ledger: accounts, auth proxy and reward delivery.
	var (
		ledgerClient *ledger.Client
		accountSvc   *app.AccountService
		resolver     app.AccountResolver
	)
	if cfg.Ledger.URL != "" {
		ledgerClient = ledger.NewClient(ledger.Config{
			BaseURL:      cfg.Ledger.URL,
			AdminEmail:   cfg.Ledger.AdminEmail,
			PlatformCode: cfg.Ledger.PlatformCode,
			PlatformKey:  cfg.Ledger.PlatformKey,
			Timeout:      config.Duration(cfg.Ledger.Timeout, 10*time.Second),
		})
		accountSvc = app.NewAccountService(userStore, ledgerClient)
		resolver = accountSvc
	}

	var rewardQueue app.RewardQueue
	if redisClient != nil {
		rewardQueue = redisinfra.NewRewardQueue(redisClient)
	} else {
		rewardQueue = memory.NewRewardQueue(64)
	}

	policy := app.RewardPolicy{
		Coins:        cfg.Rewards.Coins,
		XP:           cfg.Rewards.XP,
		PerfectBonus: cfg.Rewards.PerfectBonus,
	}

	attempts := app.NewAttemptService(attemptStore, hasher, resolver, rewardQueue, policy)
	authoring := app.NewAuthoringService(authoringStore)
	analytics := app.NewAnalyticsService(analyticsRead)

	feed := transport.NewScoreFeed()
	attempts.SetScoreListener(feed)

	// Public reads go through the redis cache when available.
	var publicReader app.PublishedQuizReader = attemptStore
	var quizCache *redisinfra.QuizCache
	if redisClient != nil {
		quizCache = redisinfra.NewQuizCache(redisClient, attemptStore, config.Duration(cfg.Quiz.CacheTTL, 10*time.Minute))
		publicReader = quizCache
	}

	api := transport.NewAPI(authoring, attempts, analytics, publicReader).WithScoreFeed(feed)
	if accountSvc != nil {
		api = api.WithAccounts(accountSvc)
	}
	if ledgerClient != nil {
		api = api.WithAuth(ledgerClient)
	}
	if quizCache != nil {
		api = api.WithCacheInvalidator(quizCache)
	}

	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()
	if ledgerClient != nil {
		worker := app.NewRewardWorker(rewardQueue, ledgerClient, cfg.Rewards.MaxRetries, config.Duration(cfg.Rewards.RetryBackoff, 2*time.Second))
		go worker.Run(workerCtx)
	} else {
		log.Printf("no central api url configured, rewards will not be delivered")
	}

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      transport.NewRouter(api),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz hosting service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	stopWorker()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuiz seeds local development so the public routes work without
// any authoring step.
func sampleQuiz() domain.QuizPost {
	now := time.Now()
	return domain.QuizPost{
		ID:          "c-sample",
		Title:       "Capitals of Europe",
		Description: "Three quick capital questions.",
		Status:      domain.StatusPublished,
		Slug:        "capitals-of-europe",
		IsActive:    true,
		Theme:       map[string]string{"accent": "#4f46e5"},
		CreatedAt:   now,
		UpdatedAt:   now,
		PublishedAt: &now,
		Questions: []domain.Question{
			{
				ID: "q-sample-1", QuizPostID: "c-sample", Text: "What is the capital of France?",
				Order: 0, Points: 1, Type: domain.TypeSingleChoice,
				Choices: []domain.Choice{
					{ID: "ch-sample-1", QuestionID: "q-sample-1", Text: "Paris", Order: 0, IsCorrect: true},
					{ID: "ch-sample-2", QuestionID: "q-sample-1", Text: "Lyon", Order: 1},
					{ID: "ch-sample-3", QuestionID: "q-sample-1", Text: "Marseille", Order: 2},
				},
			},
			{
				ID: "q-sample-2", QuizPostID: "c-sample", Text: "What is the capital of Spain?",
				Order: 1, Points: 1, Type: domain.TypeSingleChoice,
				Choices: []domain.Choice{
					{ID: "ch-sample-4", QuestionID: "q-sample-2", Text: "Barcelona", Order: 0},
					{ID: "ch-sample-5", QuestionID: "q-sample-2", Text: "Madrid", Order: 1, IsCorrect: true},
				},
			},
			{
				ID: "q-sample-3", QuizPostID: "c-sample", Text: "What is the capital of Italy?",
				Order: 2, Points: 2, Type: domain.TypeSingleChoice,
				Choices: []domain.Choice{
					{ID: "ch-sample-6", QuestionID: "q-sample-3", Text: "Milan", Order: 0},
					{ID: "ch-sample-7", QuestionID: "q-sample-3", Text: "Rome", Order: 1, IsCorrect: true},
				},
			},
		},
	}
}
