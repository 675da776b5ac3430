package view

import (
	"context"
	"docbase-go/internal/model"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// memStore 是内存中的 DocumentStore/EditorStore/TagStore，记录每次调用。
type memStore struct {
	mu     sync.Mutex
	docs   []model.Document
	tags   []model.Tag
	nextID uint

	calls []string

	listErr   error
	deleteErr error
	getErr    error
	saveErr   error
	tagErr    error

	docQueries []model.DocumentQuery
	tagQueries []model.TagQuery
	inputs     []model.DocumentInput
}

func newMemStore() *memStore { return &memStore{nextID: 1} }

func (s *memStore) record(call string) {
	s.calls = append(s.calls, call)
}

func (s *memStore) callsOf(prefix string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func (s *memStore) seedDocs(n int) {
	for i := 0; i < n; i++ {
		s.docs = append(s.docs, model.Document{ID: s.nextID, Title: fmt.Sprintf("Doc %02d", i+1), Content: "[]"})
		s.nextID++
	}
}

func paginate[T any](items []T, page, size int) model.Page[T] {
	total := len(items)
	tp := model.TotalPages(int64(total), size)
	page = model.ClampPage(page, tp)
	start := (page - 1) * size
	end := start + size
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}
	return model.Page[T]{
		Content:       append([]T{}, items[start:end]...),
		TotalElements: int64(total),
		TotalPages:    tp,
		Size:          size,
		Number:        page,
	}
}

func (s *memStore) ListDocuments(_ context.Context, q model.DocumentQuery) (*model.Page[model.Document], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("list")
	s.docQueries = append(s.docQueries, q)
	if s.listErr != nil {
		return nil, s.listErr
	}
	var visible []model.Document
	for i := len(s.docs) - 1; i >= 0; i-- {
		d := s.docs[i]
		if d.Deleted || !strings.Contains(strings.ToLower(d.Title), strings.ToLower(q.Title)) {
			continue
		}
		visible = append(visible, d)
	}
	page := paginate(visible, q.Page, q.Size)
	return &page, nil
}

func (s *memStore) DeleteDocument(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("delete")
	if s.deleteErr != nil {
		return s.deleteErr
	}
	for i := range s.docs {
		if s.docs[i].ID == id {
			s.docs[i].Deleted = true
			return nil
		}
	}
	return model.ErrNotFound
}

// findIncludingDeleted 模拟按 id 直接读取存储，不过滤软删除。
func (s *memStore) findIncludingDeleted(id uint) (model.Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.docs {
		if d.ID == id {
			return d, true
		}
	}
	return model.Document{}, false
}

func (s *memStore) GetDocument(_ context.Context, id uint) (*model.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("get")
	if s.getErr != nil {
		return nil, s.getErr
	}
	for _, d := range s.docs {
		if d.ID == id && !d.Deleted {
			d := d
			return &d, nil
		}
	}
	return nil, model.ErrNotFound
}

func (s *memStore) CreateDocument(_ context.Context, in model.DocumentInput) (*model.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("insert")
	s.inputs = append(s.inputs, in)
	if s.saveErr != nil {
		return nil, s.saveErr
	}
	doc := model.Document{ID: s.nextID, Title: in.Title, Summary: in.Summary, Content: in.Content, Tags: in.Tags}
	s.nextID++
	s.docs = append(s.docs, doc)
	return &doc, nil
}

func (s *memStore) UpdateDocument(_ context.Context, id uint, in model.DocumentInput) (*model.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("update")
	s.inputs = append(s.inputs, in)
	if s.saveErr != nil {
		return nil, s.saveErr
	}
	for i := range s.docs {
		if s.docs[i].ID == id && !s.docs[i].Deleted {
			s.docs[i].Title = in.Title
			s.docs[i].Summary = in.Summary
			s.docs[i].Content = in.Content
			s.docs[i].Tags = in.Tags
			d := s.docs[i]
			return &d, nil
		}
	}
	return nil, model.ErrNotFound
}

func (s *memStore) AllTags(_ context.Context) ([]model.Tag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("alltags")
	out := append([]model.Tag{}, s.tags...)
	sort.Slice(out, func(i, j int) bool { return out[i].TagName < out[j].TagName })
	return out, nil
}

func (s *memStore) ListTags(_ context.Context, q model.TagQuery) (*model.Page[model.Tag], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("listtags")
	s.tagQueries = append(s.tagQueries, q)
	if s.listErr != nil {
		return nil, s.listErr
	}
	var visible []model.Tag
	for i := len(s.tags) - 1; i >= 0; i-- {
		if strings.Contains(strings.ToLower(s.tags[i].TagName), strings.ToLower(q.Name)) {
			visible = append(visible, s.tags[i])
		}
	}
	page := paginate(visible, q.Page, q.Size)
	return &page, nil
}

func (s *memStore) CreateTag(_ context.Context, name string) (*model.Tag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("inserttag")
	if s.tagErr != nil {
		return nil, s.tagErr
	}
	tag := model.Tag{ID: fmt.Sprintf("tag-%d", len(s.tags)+1), TagName: name}
	s.tags = append(s.tags, tag)
	return &tag, nil
}

func (s *memStore) DeleteTag(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("deletetag")
	if s.tagErr != nil {
		return s.tagErr
	}
	for i := range s.tags {
		if s.tags[i].ID == id {
			s.tags = append(s.tags[:i], s.tags[i+1:]...)
			return nil
		}
	}
	return model.ErrNotFound
}
