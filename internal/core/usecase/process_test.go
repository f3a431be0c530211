package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kirillkom/pdf-qa-service/internal/core/domain"
)

type statusCall struct {
	status domain.DocumentStatus
	errMsg string
}

type processRepoFake struct {
	doc         *domain.Document
	getErr      error
	saveErr     error
	statusCalls []statusCall
	savedPages  int
	savedChunks int
}

func (f *processRepoFake) Create(context.Context, *domain.Document) error { return nil }

func (f *processRepoFake) GetByID(context.Context, string) (*domain.Document, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	copyDoc := *f.doc
	return &copyDoc, nil
}

func (f *processRepoFake) UpdateStatus(_ context.Context, _ string, status domain.DocumentStatus, errMessage string) error {
	f.statusCalls = append(f.statusCalls, statusCall{status: status, errMsg: errMessage})
	return nil
}

func (f *processRepoFake) SaveExtraction(_ context.Context, _ string, pageCount, chunkCount int) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.savedPages = pageCount
	f.savedChunks = chunkCount
	return nil
}

type pageExtractorFake struct {
	pages []domain.Page
	err   error
}

func (f *pageExtractorFake) ExtractPages(context.Context, *domain.Document) ([]domain.Page, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.pages, nil
}

type chunkerFake struct {
	byText map[string][]string
}

func (f *chunkerFake) Split(text string) []string { return f.byText[text] }

type chunkStoreFake struct {
	replaced   []domain.Chunk
	replaceErr error
	chunks     map[string][]domain.Chunk
	getErr     error
}

func (f *chunkStoreFake) ReplaceChunks(_ context.Context, _ string, chunks []domain.Chunk) error {
	if f.replaceErr != nil {
		return f.replaceErr
	}
	f.replaced = chunks
	return nil
}

func (f *chunkStoreFake) GetChunks(_ context.Context, documentID string) ([]domain.Chunk, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.chunks[documentID], nil
}

func TestProcessByIDSuccess(t *testing.T) {
	repo := &processRepoFake{doc: &domain.Document{ID: "doc-1"}}
	store := &chunkStoreFake{}
	uc := NewProcessDocumentUseCase(
		repo,
		&pageExtractorFake{pages: []domain.Page{
			{Number: 1, Text: "first page"},
			{Number: 3, Text: "third page"},
		}},
		&chunkerFake{byText: map[string][]string{
			"first page": {"first", "page"},
			"third page": {"third page"},
		}},
		store,
	)

	if err := uc.ProcessByID(context.Background(), "doc-1"); err != nil {
		t.Fatalf("ProcessByID() error = %v", err)
	}
	if len(repo.statusCalls) != 2 {
		t.Fatalf("expected 2 status calls, got %d", len(repo.statusCalls))
	}
	if repo.statusCalls[0].status != domain.StatusProcessing || repo.statusCalls[1].status != domain.StatusReady {
		t.Fatalf("unexpected status sequence: %+v", repo.statusCalls)
	}
	if repo.savedPages != 2 || repo.savedChunks != 3 {
		t.Fatalf("expected counts 2/3, got %d/%d", repo.savedPages, repo.savedChunks)
	}
	if len(store.replaced) != 3 {
		t.Fatalf("expected 3 stored chunks, got %d", len(store.replaced))
	}
	if store.replaced[0].Page != 1 || store.replaced[2].Page != 3 {
		t.Fatalf("expected page provenance preserved, got %+v", store.replaced)
	}
	if store.replaced[2].Text != "third page" {
		t.Fatalf("expected page order then window order, got %+v", store.replaced)
	}
}

func TestProcessByIDMarksFailedOnExtractError(t *testing.T) {
	repo := &processRepoFake{doc: &domain.Document{ID: "doc-1"}}
	uc := NewProcessDocumentUseCase(
		repo,
		&pageExtractorFake{err: errors.New("extract fail")},
		&chunkerFake{},
		&chunkStoreFake{},
	)

	err := uc.ProcessByID(context.Background(), "doc-1")
	if err == nil {
		t.Fatalf("expected error")
	}
	if len(repo.statusCalls) != 2 || repo.statusCalls[1].status != domain.StatusFailed {
		t.Fatalf("expected processing + failed status updates, got %+v", repo.statusCalls)
	}
	if repo.statusCalls[1].errMsg == "" {
		t.Fatalf("expected failure message recorded")
	}
}

func TestProcessByIDMarksFailedOnNoPages(t *testing.T) {
	repo := &processRepoFake{doc: &domain.Document{ID: "doc-1"}}
	uc := NewProcessDocumentUseCase(
		repo,
		&pageExtractorFake{pages: nil},
		&chunkerFake{},
		&chunkStoreFake{},
	)

	err := uc.ProcessByID(context.Background(), "doc-1")
	if !domain.IsKind(err, domain.ErrUnreadableDocument) {
		t.Fatalf("expected unreadable document error, got %v", err)
	}
	if !strings.Contains(err.Error(), "scanned") {
		t.Fatalf("expected scanned/protected hint, got %v", err)
	}
	if repo.statusCalls[len(repo.statusCalls)-1].status != domain.StatusFailed {
		t.Fatalf("expected final failed status, got %+v", repo.statusCalls)
	}
}

func TestProcessByIDMarksFailedOnZeroChunks(t *testing.T) {
	repo := &processRepoFake{doc: &domain.Document{ID: "doc-1"}}
	uc := NewProcessDocumentUseCase(
		repo,
		&pageExtractorFake{pages: []domain.Page{{Number: 1, Text: "page"}}},
		&chunkerFake{byText: map[string][]string{}},
		&chunkStoreFake{},
	)

	err := uc.ProcessByID(context.Background(), "doc-1")
	if !domain.IsKind(err, domain.ErrUnreadableDocument) {
		t.Fatalf("expected unreadable document error, got %v", err)
	}
}

func TestProcessByIDMarksFailedOnReplaceError(t *testing.T) {
	repo := &processRepoFake{doc: &domain.Document{ID: "doc-1"}}
	uc := NewProcessDocumentUseCase(
		repo,
		&pageExtractorFake{pages: []domain.Page{{Number: 1, Text: "page"}}},
		&chunkerFake{byText: map[string][]string{"page": {"page"}}},
		&chunkStoreFake{replaceErr: errors.New("db down")},
	)

	err := uc.ProcessByID(context.Background(), "doc-1")
	if err == nil || !strings.Contains(err.Error(), "replace chunk set") {
		t.Fatalf("expected replace error, got %v", err)
	}
	if repo.statusCalls[len(repo.statusCalls)-1].status != domain.StatusFailed {
		t.Fatalf("expected final failed status, got %+v", repo.statusCalls)
	}
}
