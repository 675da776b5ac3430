package service

import (
	"context"
	"docbase-go/internal/config"
	"docbase-go/internal/model"
	"docbase-go/pkg/tasks"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPagination = config.PaginationConfig{DocumentTableSize: 5, DocumentCardSize: 6, TagSize: 10, MaxSize: 100}

func seedDocuments(t *testing.T, svc DocumentService, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := svc.Create(context.Background(), &model.User{ID: 1}, model.DocumentInput{Title: fmt.Sprintf("Doc %02d", i)})
		require.NoError(t, err)
	}
}

func TestDocumentService_ListPaginates(t *testing.T) {
	repo := newMemDocumentRepo()
	svc := NewDocumentService(repo, nil, testPagination)
	seedDocuments(t, svc, 12)

	page, err := svc.List(context.Background(), model.DocumentQuery{Page: 1})
	require.NoError(t, err)
	assert.Equal(t, 5, page.Size)
	assert.Equal(t, int64(12), page.TotalElements)
	assert.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Content, 5)
	assert.Equal(t, "Doc 11", page.Content[0].Title)

	last, err := svc.List(context.Background(), model.DocumentQuery{Page: 3})
	require.NoError(t, err)
	assert.Len(t, last.Content, 2)
	assert.Equal(t, 3, last.Number)
}

func TestDocumentService_ListClampsPageBeyondEnd(t *testing.T) {
	repo := newMemDocumentRepo()
	svc := NewDocumentService(repo, nil, testPagination)
	seedDocuments(t, svc, 12)

	page, err := svc.List(context.Background(), model.DocumentQuery{Page: 4})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Number)
	assert.Len(t, page.Content, 2)
	require.Len(t, repo.lists, 2)
	assert.Equal(t, 3, repo.lists[1].Page)
}

func TestDocumentService_ListEmpty(t *testing.T) {
	svc := NewDocumentService(newMemDocumentRepo(), nil, testPagination)

	page, err := svc.List(context.Background(), model.DocumentQuery{Title: "nothing", Page: 0, Size: 500})
	require.NoError(t, err)
	assert.Equal(t, 0, page.TotalPages)
	assert.Equal(t, 1, page.Number)
	assert.Equal(t, 100, page.Size)
	assert.Empty(t, page.Content)
}

func TestDocumentService_SoftDeleteHidesFromListButNotFromStore(t *testing.T) {
	repo := newMemDocumentRepo()
	pub := &recordingPublisher{}
	svc := NewDocumentService(repo, pub, testPagination)

	doc, err := svc.Create(context.Background(), &model.User{ID: 1}, model.DocumentInput{Title: "Secret plan"})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(context.Background(), doc.ID))

	page, err := svc.List(context.Background(), model.DocumentQuery{Title: "secret", Page: 1})
	require.NoError(t, err)
	assert.Empty(t, page.Content)

	_, err = svc.Get(context.Background(), doc.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)

	stored, err := repo.FindByID(context.Background(), doc.ID, true)
	require.NoError(t, err)
	assert.True(t, stored.Deleted)

	require.Len(t, pub.events, 2)
	assert.Equal(t, tasks.DocumentDeleted, pub.events[1].Type)
	assert.ErrorIs(t, svc.Delete(context.Background(), doc.ID), model.ErrNotFound)
}

func TestDocumentService_CreateValidatesTitle(t *testing.T) {
	repo := newMemDocumentRepo()
	pub := &recordingPublisher{}
	svc := NewDocumentService(repo, pub, testPagination)

	_, err := svc.Create(context.Background(), nil, model.DocumentInput{Title: "   "})
	assert.ErrorIs(t, err, model.ErrValidation)
	assert.Zero(t, repo.creates)
	assert.Empty(t, pub.events)
}

func TestDocumentService_CreateDefaultsContentAndTags(t *testing.T) {
	repo := newMemDocumentRepo()
	svc := NewDocumentService(repo, nil, testPagination)

	doc, err := svc.Create(context.Background(), &model.User{ID: 9}, model.DocumentInput{Title: " Notes "})
	require.NoError(t, err)
	assert.Equal(t, "Notes", doc.Title)
	assert.Equal(t, model.EmptyContent, doc.Content)
	assert.NotNil(t, doc.Tags)
	assert.Equal(t, uint(9), doc.OwnerID)
}

func TestDocumentService_UpdateInPlace(t *testing.T) {
	repo := newMemDocumentRepo()
	pub := &recordingPublisher{}
	svc := NewDocumentService(repo, pub, testPagination)

	doc, err := svc.Create(context.Background(), &model.User{ID: 1}, model.DocumentInput{Title: "Draft"})
	require.NoError(t, err)

	summary := "short"
	updated, err := svc.Update(context.Background(), doc.ID, model.DocumentInput{
		Title:   "Final",
		Summary: &summary,
		Content: `[{"type":"paragraph"}]`,
		Tags:    []model.TagRef{{ID: "a", TagName: "ops"}},
	})
	require.NoError(t, err)
	assert.Equal(t, doc.ID, updated.ID)
	assert.Equal(t, 1, repo.creates)
	assert.Equal(t, 1, repo.updates)

	got, err := svc.Get(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Final", got.Title)
	assert.Equal(t, `[{"type":"paragraph"}]`, got.Content)
	assert.Equal(t, "ops", got.Tags[0].TagName)
	require.Len(t, pub.events, 2)
	assert.Equal(t, tasks.DocumentUpserted, pub.events[1].Type)
}

func TestDocumentService_UpdateMissingOrDeleted(t *testing.T) {
	repo := newMemDocumentRepo()
	svc := NewDocumentService(repo, nil, testPagination)

	_, err := svc.Update(context.Background(), 42, model.DocumentInput{Title: "x"})
	assert.ErrorIs(t, err, model.ErrNotFound)

	doc, err := svc.Create(context.Background(), nil, model.DocumentInput{Title: "x"})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(context.Background(), doc.ID))
	_, err = svc.Update(context.Background(), doc.ID, model.DocumentInput{Title: "y"})
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.Zero(t, repo.updates)
}

func TestDocumentService_PublishFailureDoesNotFailSave(t *testing.T) {
	repo := newMemDocumentRepo()
	pub := &recordingPublisher{err: errors.New("kafka down")}
	svc := NewDocumentService(repo, pub, testPagination)

	doc, err := svc.Create(context.Background(), nil, model.DocumentInput{Title: "Still saved"})
	require.NoError(t, err)
	assert.NotZero(t, doc.ID)
	assert.Len(t, pub.events, 1)
}

func TestNormalizeSize(t *testing.T) {
	assert.Equal(t, 5, normalizeSize(0, 5, 100))
	assert.Equal(t, 7, normalizeSize(7, 5, 100))
	assert.Equal(t, 100, normalizeSize(1000, 5, 100))
	assert.Equal(t, 10, normalizeSize(-1, 0, 0))
}
