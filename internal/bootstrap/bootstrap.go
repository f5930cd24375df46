package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/nattawat-k/fracture-triage/internal/config"
	"github.com/nattawat-k/fracture-triage/internal/core/ports"
	"github.com/nattawat-k/fracture-triage/internal/core/usecase"
	"github.com/nattawat-k/fracture-triage/internal/guest"
	"github.com/nattawat-k/fracture-triage/internal/infrastructure/clientstore"
	"github.com/nattawat-k/fracture-triage/internal/infrastructure/inference"
	"github.com/nattawat-k/fracture-triage/internal/infrastructure/inference/localmodel"
	"github.com/nattawat-k/fracture-triage/internal/infrastructure/inference/remote"
	"github.com/nattawat-k/fracture-triage/internal/infrastructure/inference/simulated"
	"github.com/nattawat-k/fracture-triage/internal/infrastructure/llm/gemini"
	"github.com/nattawat-k/fracture-triage/internal/infrastructure/queue/nats"
	"github.com/nattawat-k/fracture-triage/internal/infrastructure/repository/postgres"
	"github.com/nattawat-k/fracture-triage/internal/infrastructure/resilience"
	"github.com/nattawat-k/fracture-triage/internal/infrastructure/storage/localfs"
	"github.com/nattawat-k/fracture-triage/internal/observability/metrics"
)

type App struct {
	Config config.Config

	Queue      ports.MessageQueue
	Cases      ports.CaseRepository
	Identities ports.IdentityRepository
	Guests     *guest.Resolver
	Metrics    *metrics.HTTPServerMetrics

	SubmitUC  ports.CaseSubmitter
	ReviewUC  ports.CaseReviewer
	DeleteUC  ports.CaseDeleter
	NarrateUC ports.CaseNarrator

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	cases := postgres.NewCaseRepository(db)
	if err := cases.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	identities := postgres.NewIdentityRepository(db)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init image storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	httpMetrics := metrics.NewHTTPServerMetrics("api")

	var remoteAnalyzer ports.FractureAnalyzer
	if cfg.InferenceURL != "" {
		remoteAnalyzer = remote.New(
			cfg.InferenceURL,
			time.Duration(cfg.InferenceTimeoutSeconds)*time.Second,
			executor,
		)
	}
	analyzer := inference.NewChain(
		remoteAnalyzer,
		localmodel.NewAnalyzer(cfg.ModelArtifactPath),
		simulated.New(),
		httpMetrics,
	)

	generator := gemini.New(cfg.GeminiBaseURL, cfg.GeminiModel, cfg.GeminiAPIKey, 60*time.Second, executor)

	var clients guest.ClientStore
	var closeClients func()
	if cfg.RedisAddr != "" {
		redisStore, err := clientstore.NewRedisStore(cfg.RedisAddr)
		if err != nil {
			return nil, fmt.Errorf("init client store: %w", err)
		}
		clients = redisStore
		closeClients = func() { _ = redisStore.Close() }
	} else {
		clients = clientstore.NewMemoryStore()
	}

	return &App{
		Config: cfg,

		Queue:      queue,
		Cases:      cases,
		Identities: identities,
		Guests:     guest.NewResolver(clients),
		Metrics:    httpMetrics,

		SubmitUC:  usecase.NewSubmitCaseUseCase(cases, storage, analyzer, queue),
		ReviewUC:  usecase.NewReviewCaseUseCase(cases),
		DeleteUC:  usecase.NewDeleteCasesUseCase(cases, storage),
		NarrateUC: usecase.NewNarrateCaseUseCase(cases, generator),

		closeFn: func() {
			queue.Close()
			if closeClients != nil {
				closeClients()
			}
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
