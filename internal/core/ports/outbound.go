package ports

import (
	"context"
	"io"

	"github.com/kirillkom/pdf-qa-service/internal/core/domain"
)

// DocumentRepository persists and reads document state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	SaveExtraction(ctx context.Context, id string, pageCount, chunkCount int) error
}

// ObjectStorage stores source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes ingestion events.
type MessageQueue interface {
	PublishDocumentIngested(ctx context.Context, documentID string) error
	SubscribeDocumentIngested(ctx context.Context, handler func(context.Context, string) error) error
}

// PageExtractor extracts per-page plain text from a stored document.
// Pages that contain no text after trimming are omitted.
type PageExtractor interface {
	ExtractPages(ctx context.Context, doc *domain.Document) ([]domain.Page, error)
}

// Chunker splits page text into retrieval-sized chunks.
type Chunker interface {
	Split(text string) []string
}

// ChunkStore persists the chunk set of a document. ReplaceChunks swaps the
// whole set atomically: concurrent readers observe either the previous set
// or the new one, never a mix. GetChunks on an unknown document returns an
// empty slice and no error.
type ChunkStore interface {
	ReplaceChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)
}

// ChunkSearcher ranks a document's chunks against a question.
type ChunkSearcher interface {
	Search(ctx context.Context, documentID, question string, topK int) ([]domain.Candidate, error)
}

// Generator produces answer text from a system prompt and a user prompt.
type Generator interface {
	Generate(ctx context.Context, system, prompt string, opts domain.GenerationOptions) (string, error)
}
