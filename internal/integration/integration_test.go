package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"quizhost-service/internal/app"
	"quizhost-service/internal/domain"
	"quizhost-service/internal/identity"
	"quizhost-service/internal/infra/postgres"
	pgmigrations "quizhost-service/internal/infra/postgres/migrations"
	infraredis "quizhost-service/internal/infra/redis"
)

func TestAttemptLifecycleEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	migrateDB(t, ctx, pgURL)

	store, db := postgres.Open(pgURL)
	defer db.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	cache := infraredis.NewQuizCache(redisClient, store, 5*time.Minute)

	hasher := identity.NewHasher("it-device-pepper", "it-email-pepper")
	queue := infraredis.NewRewardQueue(redisClient)
	authoring := app.NewAuthoringService(store)
	attempts := app.NewAttemptService(store, hasher, nil, queue, app.DefaultRewardPolicy())
	analytics := app.NewAnalyticsService(pgAnalytics(t, ctx, pgURL))

	// Author and publish a quiz through the real store.
	quiz, err := authoring.CreateQuiz(ctx, "Integration Capitals", "admin@example.com")
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	question, err := authoring.AddQuestion(ctx, quiz.ID, "Capital of France?")
	if err != nil {
		t.Fatalf("add question: %v", err)
	}
	paris, err := authoring.AddChoice(ctx, question.ID, "Paris")
	if err != nil {
		t.Fatalf("add choice: %v", err)
	}
	if _, err := authoring.AddChoice(ctx, question.ID, "London"); err != nil {
		t.Fatalf("add choice: %v", err)
	}
	isCorrect := true
	if _, err := authoring.UpdateChoice(ctx, paris.ID, app.ChoiceUpdate{IsCorrect: &isCorrect}); err != nil {
		t.Fatalf("mark correct: %v", err)
	}
	slug, verrs, err := authoring.Publish(ctx, quiz.ID)
	if err != nil || len(verrs) > 0 {
		t.Fatalf("publish: err=%v verrs=%v", err, verrs)
	}
	if slug != "integration-capitals" {
		t.Fatalf("slug = %q", slug)
	}

	// Cached read path returns the published quiz.
	cached, err := cache.PublishedQuizBySlug(ctx, slug)
	if err != nil {
		t.Fatalf("cached read: %v", err)
	}
	if cached.ID != quiz.ID || len(cached.Questions) != 1 {
		t.Fatalf("unexpected cached quiz: %+v", cached)
	}

	// Play through: start, submit, save score.
	attempt, err := attempts.Start(ctx, app.StartParams{Slug: slug, PlayerName: "Dana", DeviceID: "device-1"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	result, err := attempts.Submit(ctx, attempt.ID, slug, []domain.SubmittedAnswer{
		{QuestionID: question.ID, ChoiceID: paris.ID},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Score != 1 || result.MaxScore != 1 || result.Correct != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}

	// The conditional transition holds in real SQL too.
	if _, err := attempts.Submit(ctx, attempt.ID, slug, nil); err != domain.ErrAttemptFinished {
		t.Fatalf("resubmit: got %v, want ErrAttemptFinished", err)
	}

	entry, err := attempts.SaveScore(ctx, attempt.ID, "Dana", "dana@example.com")
	if err != nil {
		t.Fatalf("save score: %v", err)
	}
	if entry.Score != 1 || entry.EmailHash == "" {
		t.Fatalf("unexpected entry: %+v", entry)
	}

	// The attempt_id unique constraint surfaces as the domain sentinel,
	// covering saves that race past the existence check.
	dup := entry
	dup.ID = domain.NewID(domain.PrefixScore)
	if err := store.CreateScoreEntry(ctx, dup); err != domain.ErrScoreAlreadySaved {
		t.Fatalf("duplicate entry: got %v, want ErrScoreAlreadySaved", err)
	}

	// Analytics off the pgx read path.
	report, err := analytics.Report(ctx, quiz.ID)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if report.TotalAttempts != 1 || report.SavedScores != 1 || report.DistinctDevices != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if report.CompletionRate != 100 {
		t.Fatalf("completion rate = %v", report.CompletionRate)
	}
}

func pgAnalytics(t *testing.T, ctx context.Context, dsn string) *postgres.AnalyticsReader {
	t.Helper()
	pool, err := pgxpool.Connect(ctx, dsn)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	t.Cleanup(pool.Close)
	return postgres.NewAnalyticsReader(pool)
}

func migrateDB(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
