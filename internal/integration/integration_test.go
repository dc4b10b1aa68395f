package integration

import (
	"context"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"career-quiz/internal/api"
	"career-quiz/internal/app"
	"career-quiz/internal/devapi"
	"career-quiz/internal/domain"
	"career-quiz/internal/infra/postgres"
	"career-quiz/internal/infra/postgres/migrations"
	infraredis "career-quiz/internal/infra/redis"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestQuizRunEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	if _, err := migrations.Apply(ctx, pgURL); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	service := devapi.NewService(postgres.NewQuizStore(pool, devapi.SampleQuiz()), postgres.NewAttemptStore(pool))
	backend := httptest.NewServer(devapi.NewRouter(devapi.NewHandler(service, zerolog.Nop())))
	defer backend.Close()
	client := api.New(backend.URL)

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()
	quizzes := infraredis.NewQuizRepository(redisClient, client, 5*time.Minute, zerolog.Nop())

	// first session: answer step 0 and leave
	ctrl := app.NewController(client, quizzes, "u1", zerolog.Nop())
	if state := ctrl.Bootstrap(ctx); state != app.StateReady {
		t.Fatalf("bootstrap: %s %s", state, ctrl.Err())
	}
	landing := app.NewLanding(ctrl)
	if landing.Action() != app.ActionStart {
		t.Fatalf("expected start, got %s", landing.Action())
	}
	run, err := landing.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	run.SetAnswer("work-setting", "Outdoors")
	if out, err := run.Submit(ctx); err != nil || out.Next != 1 {
		t.Fatalf("submit step 0: %+v %v", out, err)
	}

	n, err := redisClient.Exists(ctx, "quiz:"+devapi.SampleQuizID+":definition").Result()
	if err != nil || n != 1 {
		t.Fatalf("expected cached definition, got n=%d err=%v", n, err)
	}

	// second session resumes at step 1 and finishes
	ctrl = app.NewController(client, quizzes, "u1", zerolog.Nop())
	ctrl.Bootstrap(ctx)
	landing = app.NewLanding(ctrl)
	if landing.Action() != app.ActionResume || ctrl.Attempt().CurrentStepIndex != 1 {
		t.Fatalf("expected resume at step 1, got %s %+v", landing.Action(), ctrl.Attempt())
	}
	run, err = landing.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	var out app.Outcome
	for !run.Finished() {
		if out, err = run.Submit(ctx); err != nil {
			t.Fatalf("submit step %d: %v", run.StepIndex(), err)
		}
	}
	if out.Attempt.Status != domain.AttemptCompleted {
		t.Fatalf("expected completed attempt, got %+v", out.Attempt)
	}

	rec, err := postgres.NewAttemptStore(pool).Get(ctx, out.Attempt.ID)
	if err != nil {
		t.Fatalf("load attempt: %v", err)
	}
	if len(rec.Steps) != len(devapi.SampleQuiz().Steps) || rec.FinishedAt == nil {
		t.Fatalf("unexpected stored attempt %+v", rec)
	}
	if v := rec.Steps[0].Responses[0].Value; v != "Outdoors" {
		t.Fatalf("expected stored answer, got %v", v)
	}
}

func TestRunLocksAcrossInstances(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	a, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer a.Close()
	b, _ := redisClientFromURL(redisURL)
	defer b.Close()

	first := infraredis.NewRunLocks(a, time.Minute)
	second := infraredis.NewRunLocks(b, time.Minute)

	token, ok, err := first.Acquire(ctx, "u1")
	if err != nil || !ok {
		t.Fatalf("acquire: ok=%v err=%v", ok, err)
	}
	if _, ok, _ := second.Acquire(ctx, "u1"); ok {
		t.Fatalf("expected lock to be visible to another instance")
	}
	if err := first.Release(ctx, "u1", token); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, ok, _ := second.Acquire(ctx, "u1"); !ok {
		t.Fatalf("expected lock free after release")
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
