package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kirillkom/pdf-qa-service/internal/core/domain"
	"github.com/kirillkom/pdf-qa-service/internal/core/ports"
)

// unrankedDistance marks candidates that did not come out of the ranker
// (summary pool taken in document order).
const unrankedDistance = 1e6

// AskConfig carries the retrieval and assembly constants. Zero values
// are replaced with the canonical defaults by NewAskUseCase.
type AskConfig struct {
	TopK                int
	SimilarTake         int
	SelectLimit         int
	KeywordTokenLimit   int
	QAContextChars      int
	SummaryContextChars int
	SummaryPool         int
	StopWords           []string
	Expansions          []ExpansionRule
	QAOptions           domain.GenerationOptions
	SummaryOptions      domain.GenerationOptions
	GenerateTimeout     time.Duration
}

type AskUseCase struct {
	store     ports.ChunkStore
	searcher  ports.ChunkSearcher
	generator ports.Generator
	cfg       AskConfig
	stopWords map[string]struct{}
}

func NewAskUseCase(
	store ports.ChunkStore,
	searcher ports.ChunkSearcher,
	generator ports.Generator,
	cfg AskConfig,
) *AskUseCase {
	if cfg.TopK <= 0 {
		cfg.TopK = 25
	}
	if cfg.SimilarTake <= 0 {
		cfg.SimilarTake = 4
	}
	if cfg.SelectLimit <= 0 {
		cfg.SelectLimit = 7
	}
	if cfg.KeywordTokenLimit <= 0 {
		cfg.KeywordTokenLimit = 12
	}
	if cfg.QAContextChars <= 0 {
		cfg.QAContextChars = 1400
	}
	if cfg.SummaryContextChars <= 0 {
		cfg.SummaryContextChars = 900
	}
	if cfg.SummaryPool <= 0 {
		cfg.SummaryPool = 5
	}
	if cfg.GenerateTimeout <= 0 {
		cfg.GenerateTimeout = 2 * time.Minute
	}
	stopWords := make(map[string]struct{}, len(cfg.StopWords))
	for _, w := range cfg.StopWords {
		stopWords[strings.ToLower(w)] = struct{}{}
	}
	return &AskUseCase{
		store:     store,
		searcher:  searcher,
		generator: generator,
		cfg:       cfg,
		stopWords: stopWords,
	}
}

// Ask answers one question against one document. Input errors and
// storage failures surface as errors; everything downstream of a
// successful retrieval degrades to the fallback sentence instead.
func (uc *AskUseCase) Ask(ctx context.Context, documentID, question string, topK int) (*domain.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "ask", errors.New("question is required"))
	}
	if documentID == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "ask", errors.New("document id is required"))
	}
	if topK <= 0 {
		topK = uc.cfg.TopK
	}

	candidates, err := uc.searcher.Search(ctx, documentID, expandQuestion(question, uc.cfg.Expansions), topK)
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}

	mode := detectAnswerMode(question)
	pool, err := uc.contextPool(ctx, documentID, mode, candidates)
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return uc.fallback(mode, nil, 0, "no_candidates"), nil
	}

	sources := buildCitations(pool, sourceLimit)

	budget := uc.cfg.QAContextChars
	opts := uc.cfg.QAOptions
	if mode == domain.AnswerModeSummary {
		budget = uc.cfg.SummaryContextChars
		opts = uc.cfg.SummaryOptions
	}

	contextText := assembleContext(pool, question, budget, uc.cfg.SimilarTake, uc.cfg.SelectLimit, uc.cfg.KeywordTokenLimit, uc.stopWords)
	if contextText == "" {
		return uc.fallback(mode, sources, len(pool), "empty_context"), nil
	}

	system, prompt := buildPrompt(mode, question, contextText)

	genCtx, cancel := context.WithTimeout(ctx, uc.cfg.GenerateTimeout)
	defer cancel()

	text, err := uc.generator.Generate(genCtx, system, prompt, opts)
	if err != nil {
		// The contract absorbs generator failures; this is the only
		// place the underlying error is still visible.
		slog.Warn("ask_degraded",
			"document_id", documentID,
			"mode", string(mode),
			"reason", "generation_failed",
			"error", err.Error(),
		)
		return uc.fallback(mode, sources, len(pool), "generation_failed"), nil
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return uc.fallback(mode, sources, len(pool), "empty_answer"), nil
	}

	return &domain.Answer{
		Text:      text,
		Mode:      mode,
		Sources:   sources,
		Retrieved: len(pool),
	}, nil
}

// contextPool picks the candidates eligible for context assembly. Q&A
// uses the ranked candidates as-is. Summaries use the first SummaryPool
// ranked candidates, and when ranking found nothing (summary questions
// are often all stop words) fall back to the document's leading chunks:
// summarizing a document with content must not dead-end.
func (uc *AskUseCase) contextPool(ctx context.Context, documentID string, mode domain.AnswerMode, candidates []domain.Candidate) ([]domain.Candidate, error) {
	if mode != domain.AnswerModeSummary {
		return candidates, nil
	}
	if len(candidates) > uc.cfg.SummaryPool {
		candidates = candidates[:uc.cfg.SummaryPool]
	}
	if len(candidates) > 0 {
		return candidates, nil
	}

	chunks, err := uc.store.GetChunks(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("get chunks for summary pool: %w", err)
	}
	if len(chunks) > uc.cfg.SummaryPool {
		chunks = chunks[:uc.cfg.SummaryPool]
	}
	pool := make([]domain.Candidate, 0, len(chunks))
	for _, ch := range chunks {
		pool = append(pool, domain.Candidate{Text: ch.Text, Page: ch.Page, Distance: unrankedDistance})
	}
	return pool, nil
}

func (uc *AskUseCase) fallback(mode domain.AnswerMode, sources []domain.SourceCitation, retrieved int, reason string) *domain.Answer {
	if sources == nil {
		sources = []domain.SourceCitation{}
	}
	return &domain.Answer{
		Text:           domain.FallbackAnswer,
		Mode:           mode,
		Sources:        sources,
		Retrieved:      retrieved,
		Fallback:       true,
		FallbackReason: reason,
	}
}
