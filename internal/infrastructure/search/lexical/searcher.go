package lexical

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/kirillkom/pdf-qa-service/internal/core/domain"
	"github.com/kirillkom/pdf-qa-service/internal/core/ports"
)

// distanceEpsilon keeps distances finite for arbitrarily high scores.
const distanceEpsilon = 1e-6

// Searcher ranks a document's stored chunks against a question by token
// overlap. Relevance is the number of distinct question tokens present
// in a chunk's token set, damped by log chunk length; no embeddings are
// involved, so ranking is fully deterministic.
type Searcher struct {
	store     ports.ChunkStore
	stopWords map[string]struct{}
}

func NewSearcher(store ports.ChunkStore, stopWords []string) *Searcher {
	set := make(map[string]struct{}, len(stopWords))
	for _, w := range stopWords {
		set[strings.ToLower(w)] = struct{}{}
	}
	return &Searcher{store: store, stopWords: set}
}

func (s *Searcher) Search(ctx context.Context, documentID, question string, topK int) ([]domain.Candidate, error) {
	chunks, err := s.store.GetChunks(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("get chunks: %w", err)
	}
	return s.rank(chunks, question, topK), nil
}

func (s *Searcher) rank(chunks []domain.Chunk, question string, topK int) []domain.Candidate {
	qTokens := s.questionTokens(question)
	if len(qTokens) == 0 || len(chunks) == 0 {
		return nil
	}

	type scoredChunk struct {
		chunk domain.Chunk
		score float64
	}
	scored := make([]scoredChunk, 0, len(chunks))
	for _, ch := range chunks {
		if strings.TrimSpace(ch.Text) == "" {
			continue
		}
		tokens := tokenize(ch.Text)
		if len(tokens) == 0 {
			continue
		}
		seen := make(map[string]struct{}, len(tokens))
		for _, tok := range tokens {
			seen[tok] = struct{}{}
		}
		overlap := 0
		for tok := range qTokens {
			if _, ok := seen[tok]; ok {
				overlap++
			}
		}
		if overlap == 0 {
			continue
		}
		// Longer chunks match more tokens by accident; damp by length.
		score := float64(overlap) / math.Log(float64(len(tokens))+2)
		scored = append(scored, scoredChunk{chunk: ch, score: score})
	}

	// Stable: equal scores keep stored chunk order.
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].score > scored[j].score })
	if topK > 0 && len(scored) > topK {
		scored = scored[:topK]
	}

	out := make([]domain.Candidate, 0, len(scored))
	for _, sc := range scored {
		out = append(out, domain.Candidate{
			Text:     sc.chunk.Text,
			Page:     sc.chunk.Page,
			Distance: 1.0 / (sc.score + distanceEpsilon),
		})
	}
	return out
}

// questionTokens returns the distinct, stop-word-filtered question
// tokens. Questions made of nothing but stop words ("what is this
// about") produce an empty set and therefore an empty ranking.
func (s *Searcher) questionTokens(question string) map[string]struct{} {
	tokens := tokenize(question)
	if len(tokens) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		if _, stop := s.stopWords[tok]; stop {
			continue
		}
		out[tok] = struct{}{}
	}
	return out
}
