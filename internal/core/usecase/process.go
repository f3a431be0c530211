package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/kirillkom/pdf-qa-service/internal/core/domain"
	"github.com/kirillkom/pdf-qa-service/internal/core/ports"
)

type ProcessDocumentUseCase struct {
	repo      ports.DocumentRepository
	extractor ports.PageExtractor
	chunker   ports.Chunker
	chunks    ports.ChunkStore
}

func NewProcessDocumentUseCase(
	repo ports.DocumentRepository,
	extractor ports.PageExtractor,
	chunker ports.Chunker,
	chunks ports.ChunkStore,
) *ProcessDocumentUseCase {
	return &ProcessDocumentUseCase{
		repo:      repo,
		extractor: extractor,
		chunker:   chunker,
		chunks:    chunks,
	}
}

func (uc *ProcessDocumentUseCase) ProcessByID(ctx context.Context, documentID string) error {
	if err := uc.markStatus(ctx, documentID, domain.StatusProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	pageCount, chunkCount, err := uc.processPipeline(ctx, documentID)
	if err != nil {
		if failErr := uc.markFailed(ctx, documentID, err); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.repo.SaveExtraction(ctx, documentID, pageCount, chunkCount); err != nil {
		err = fmt.Errorf("save extraction counts: %w", err)
		if failErr := uc.markFailed(ctx, documentID, err); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.markStatus(ctx, documentID, domain.StatusReady, ""); err != nil {
		return fmt.Errorf("set status=ready: %w", err)
	}

	return nil
}

func (uc *ProcessDocumentUseCase) processPipeline(ctx context.Context, documentID string) (int, int, error) {
	doc, err := uc.loadDocument(ctx, documentID)
	if err != nil {
		return 0, 0, err
	}

	pages, err := uc.extractPages(ctx, doc)
	if err != nil {
		return 0, 0, err
	}

	chunks, err := uc.chunkPages(pages)
	if err != nil {
		return 0, 0, err
	}

	if err := uc.chunks.ReplaceChunks(ctx, doc.ID, chunks); err != nil {
		return 0, 0, fmt.Errorf("replace chunk set: %w", err)
	}

	return len(pages), len(chunks), nil
}

func (uc *ProcessDocumentUseCase) loadDocument(ctx context.Context, documentID string) (*domain.Document, error) {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("fetch document by id: %w", err)
	}
	return doc, nil
}

func (uc *ProcessDocumentUseCase) extractPages(ctx context.Context, doc *domain.Document) ([]domain.Page, error) {
	pages, err := uc.extractor.ExtractPages(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("extract pages: %w", err)
	}
	if len(pages) == 0 {
		return nil, domain.WrapError(domain.ErrUnreadableDocument, "extract pages",
			errors.New("no extractable text; the PDF may be scanned (image-only) or protected"))
	}
	return pages, nil
}

// chunkPages windows every page independently so each chunk keeps its
// page provenance. Page order, then window order, determines chunk order.
func (uc *ProcessDocumentUseCase) chunkPages(pages []domain.Page) ([]domain.Chunk, error) {
	out := make([]domain.Chunk, 0, len(pages))
	for _, page := range pages {
		for _, text := range uc.chunker.Split(page.Text) {
			out = append(out, domain.Chunk{Text: text, Page: page.Number})
		}
	}
	if len(out) == 0 {
		return nil, domain.WrapError(domain.ErrUnreadableDocument, "chunk document",
			errors.New("chunking produced zero chunks"))
	}
	return out, nil
}

func (uc *ProcessDocumentUseCase) markStatus(ctx context.Context, documentID string, status domain.DocumentStatus, errMessage string) error {
	return uc.repo.UpdateStatus(ctx, documentID, status, errMessage)
}

func (uc *ProcessDocumentUseCase) markFailed(ctx context.Context, documentID string, processErr error) error {
	if processErr == nil {
		return nil
	}
	return uc.markStatus(ctx, documentID, domain.StatusFailed, processErr.Error())
}
