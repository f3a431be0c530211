package usecase

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/kirillkom/pdf-qa-service/internal/config"
	"github.com/kirillkom/pdf-qa-service/internal/core/domain"
	"github.com/kirillkom/pdf-qa-service/internal/infrastructure/chunking"
	"github.com/kirillkom/pdf-qa-service/internal/infrastructure/search/lexical"
)

// memoryChunkStore backs the end-to-end tests with a real store
// contract: ReplaceChunks swaps the whole set, GetChunks returns it in
// stored order.
type memoryChunkStore struct {
	mu     sync.RWMutex
	chunks map[string][]domain.Chunk
}

func newMemoryChunkStore() *memoryChunkStore {
	return &memoryChunkStore{chunks: make(map[string][]domain.Chunk)}
}

func (s *memoryChunkStore) ReplaceChunks(_ context.Context, documentID string, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]domain.Chunk, len(chunks))
	copy(stored, chunks)
	s.chunks[documentID] = stored
	return nil
}

func (s *memoryChunkStore) GetChunks(_ context.Context, documentID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.chunks[documentID]
	out := make([]domain.Chunk, len(stored))
	copy(out, stored)
	return out, nil
}

func newPipeline(t *testing.T, gen *generatorFake, pages []domain.Page) *AskUseCase {
	t.Helper()

	store := newMemoryChunkStore()
	repo := &processRepoFake{doc: &domain.Document{ID: "doc-1", Status: domain.StatusUploaded}}
	proc := NewProcessDocumentUseCase(repo, &pageExtractorFake{pages: pages}, chunking.NewSplitter(1200, 200), store)
	if err := proc.ProcessByID(context.Background(), "doc-1"); err != nil {
		t.Fatalf("ProcessByID() error = %v", err)
	}

	stopWords := config.DefaultStopWords()
	rules := make([]ExpansionRule, 0, len(config.DefaultExpansions()))
	for _, r := range config.DefaultExpansions() {
		rules = append(rules, ExpansionRule(r))
	}

	return NewAskUseCase(store, lexical.NewSearcher(store, stopWords), gen, AskConfig{
		StopWords:  stopWords,
		Expansions: rules,
	})
}

func TestPipelineAnswersSchedulerQuestion(t *testing.T) {
	gen := &generatorFake{text: "It runs every 30 seconds, scheduled through plugin.xml."}
	uc := newPipeline(t, gen, []domain.Page{
		{Number: 1, Text: "The scheduler runs every 30 seconds via plugin.xml"},
	})

	ans, err := uc.Ask(context.Background(), "doc-1", "what controls scheduling", 0)
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if ans.Fallback {
		t.Fatalf("expected retrieval hit despite zero verbatim token overlap, got fallback")
	}
	if ans.Text != gen.text {
		t.Fatalf("unexpected answer text %q", ans.Text)
	}
	if !strings.Contains(gen.gotPrompt, "[Page 1]") || !strings.Contains(gen.gotPrompt, "plugin.xml") {
		t.Fatalf("expected page-tagged chunk in prompt, got %q", gen.gotPrompt)
	}
	if len(ans.Sources) != 1 || ans.Sources[0].Page != 1 {
		t.Fatalf("expected one page-1 citation, got %+v", ans.Sources)
	}
	if !strings.Contains(ans.Sources[0].Snippet, "every 30 seconds") {
		t.Fatalf("expected snippet from the matched chunk, got %q", ans.Sources[0].Snippet)
	}
}

func TestPipelineAllStopWordQuestionFallsBack(t *testing.T) {
	gen := &generatorFake{text: "should not run"}
	uc := newPipeline(t, gen, []domain.Page{
		{Number: 1, Text: "The scheduler runs every 30 seconds via plugin.xml"},
	})

	ans, err := uc.Ask(context.Background(), "doc-1", "What is this about", 0)
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if ans.Text != domain.FallbackAnswer || !ans.Fallback {
		t.Fatalf("expected fallback for a question with no content words, got %+v", ans)
	}
	if len(ans.Sources) != 0 {
		t.Fatalf("expected no citations, got %+v", ans.Sources)
	}
	if gen.called {
		t.Fatalf("generator must not run on a retrieval miss")
	}
}

func TestPipelineSummaryOfProcessedDocument(t *testing.T) {
	gen := &generatorFake{text: "The document describes the scheduler configuration."}
	uc := newPipeline(t, gen, []domain.Page{
		{Number: 1, Text: "The scheduler runs every 30 seconds via plugin.xml"},
		{Number: 2, Text: "DT_Databases in notes.ini lists the monitored databases, separated by semicolons."},
	})

	ans, err := uc.Ask(context.Background(), "doc-1", "What is this PDF about?", 0)
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if ans.Mode != domain.AnswerModeSummary {
		t.Fatalf("expected summary mode, got %s", ans.Mode)
	}
	if ans.Fallback {
		t.Fatalf("expected summary of a processed document, got fallback")
	}
	if !strings.Contains(gen.gotPrompt, "Task: Summarize") {
		t.Fatalf("expected summary task prompt, got %q", gen.gotPrompt)
	}
	if len(ans.Sources) == 0 {
		t.Fatalf("expected citations from the leading chunks")
	}
}
