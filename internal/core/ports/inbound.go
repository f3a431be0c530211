package ports

import (
	"context"
	"io"

	"github.com/kirillkom/pdf-qa-service/internal/core/domain"
)

// DocumentIngestor is the inbound contract for PDF upload orchestration.
type DocumentIngestor interface {
	Upload(ctx context.Context, filename, mimeType string, body io.Reader) (*domain.Document, error)
}

// DocumentAnswerer answers a single question against one document.
// topK <= 0 means "use the configured default".
type DocumentAnswerer interface {
	Ask(ctx context.Context, documentID, question string, topK int) (*domain.Answer, error)
}

// DocumentReader is the inbound read model for document metadata/state.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
}

// DocumentProcessor is the inbound contract for asynchronous document processing.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID string) error
}
