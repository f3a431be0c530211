package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/kirillkom/pdf-qa-service/internal/config"
	"github.com/kirillkom/pdf-qa-service/internal/core/domain"
	"github.com/kirillkom/pdf-qa-service/internal/core/ports"
	"github.com/kirillkom/pdf-qa-service/internal/core/usecase"
	"github.com/kirillkom/pdf-qa-service/internal/infrastructure/chunking"
	"github.com/kirillkom/pdf-qa-service/internal/infrastructure/extractor/pdfpage"
	"github.com/kirillkom/pdf-qa-service/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/pdf-qa-service/internal/infrastructure/llm/openaigen"
	"github.com/kirillkom/pdf-qa-service/internal/infrastructure/queue/nats"
	"github.com/kirillkom/pdf-qa-service/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/pdf-qa-service/internal/infrastructure/resilience"
	"github.com/kirillkom/pdf-qa-service/internal/infrastructure/search/lexical"
	"github.com/kirillkom/pdf-qa-service/internal/infrastructure/storage/localfs"
)

// App holds the wired dependency graph shared by the api and worker
// binaries.
type App struct {
	Config config.Config

	Queue     ports.MessageQueue
	Repo      ports.DocumentRepository
	IngestUC  ports.DocumentIngestor
	ProcessUC ports.DocumentProcessor
	AskUC     ports.DocumentAnswerer

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewDocumentRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure documents schema: %w", err)
	}
	chunks := postgres.NewChunkRepository(db)
	if err := chunks.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure chunks schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	generator, err := newGenerator(cfg, executor)
	if err != nil {
		return nil, err
	}

	chunker := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	extractor := pdfpage.NewExtractor(storage)
	searcher := lexical.NewSearcher(chunks, cfg.Retrieval.StopWords)

	ingestUC := usecase.NewIngestDocumentUseCase(repo, storage, queue)
	processUC := usecase.NewProcessDocumentUseCase(repo, extractor, chunker, chunks)
	askUC := usecase.NewAskUseCase(chunks, searcher, generator, askConfig(cfg))

	return &App{
		Config: cfg,
		Queue:  queue,
		Repo:   repo,

		IngestUC:  ingestUC,
		ProcessUC: processUC,
		AskUC:     askUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

func newGenerator(cfg config.Config, executor *resilience.Executor) (ports.Generator, error) {
	switch cfg.GeneratorBackend {
	case "", "ollama":
		return ollama.New(cfg.OllamaURL, cfg.OllamaModel, executor), nil
	case "openai":
		return openaigen.New(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel), nil
	default:
		return nil, fmt.Errorf("unknown generator backend %q", cfg.GeneratorBackend)
	}
}

func askConfig(cfg config.Config) usecase.AskConfig {
	r := cfg.Retrieval

	expansions := make([]usecase.ExpansionRule, 0, len(r.Expansions))
	for _, rule := range r.Expansions {
		expansions = append(expansions, usecase.ExpansionRule{
			Match:  rule.Match,
			Append: rule.Append,
		})
	}

	return usecase.AskConfig{
		TopK:                r.TopK,
		SimilarTake:         r.SimilarTake,
		SelectLimit:         r.SelectLimit,
		KeywordTokenLimit:   r.KeywordTokenLimit,
		QAContextChars:      r.QAContextChars,
		SummaryContextChars: r.SummaryContextChars,
		SummaryPool:         r.SummaryPool,
		StopWords:           r.StopWords,
		Expansions:          expansions,
		QAOptions: domain.GenerationOptions{
			MaxTokens:     r.QAMaxTokens,
			Temperature:   r.Temperature,
			ContextWindow: r.ContextWindow,
		},
		SummaryOptions: domain.GenerationOptions{
			MaxTokens:     r.SummaryMaxTokens,
			Temperature:   r.Temperature,
			ContextWindow: r.ContextWindow,
		},
		GenerateTimeout: time.Duration(cfg.GenerateTimeoutSeconds) * time.Second,
	}
}
