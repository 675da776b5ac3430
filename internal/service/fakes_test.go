package service

import (
	"context"
	"docbase-go/internal/model"
	"docbase-go/pkg/tasks"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

type memDocumentRepo struct {
	mu      sync.Mutex
	docs    map[uint]*model.Document
	nextID  uint
	creates int
	updates int
	lists   []model.DocumentQuery
	failOn  string
}

func newMemDocumentRepo() *memDocumentRepo {
	return &memDocumentRepo{docs: map[uint]*model.Document{}}
}

func (r *memDocumentRepo) Create(_ context.Context, doc *model.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failOn == "create" {
		return errors.New("insert failed")
	}
	r.creates++
	r.nextID++
	doc.ID = r.nextID
	doc.CreatedAt = time.Unix(int64(r.nextID), 0)
	cp := *doc
	r.docs[doc.ID] = &cp
	return nil
}

func (r *memDocumentRepo) FindByID(_ context.Context, id uint, includeDeleted bool) (*model.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok || (doc.Deleted && !includeDeleted) {
		return nil, model.ErrNotFound
	}
	cp := *doc
	return &cp, nil
}

func (r *memDocumentRepo) List(_ context.Context, q model.DocumentQuery) ([]model.Document, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lists = append(r.lists, q)
	matched := make([]model.Document, 0)
	for _, d := range r.docs {
		if d.Deleted || !strings.Contains(strings.ToLower(d.Title), strings.ToLower(q.Title)) {
			continue
		}
		matched = append(matched, *d)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	start := (q.Page - 1) * q.Size
	if start > len(matched) {
		start = len(matched)
	}
	end := start + q.Size
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], int64(len(matched)), nil
}

func (r *memDocumentRepo) Update(_ context.Context, doc *model.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failOn == "update" {
		return errors.New("update failed")
	}
	r.updates++
	cp := *doc
	r.docs[doc.ID] = &cp
	return nil
}

func (r *memDocumentRepo) SoftDelete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok || doc.Deleted {
		return model.ErrNotFound
	}
	doc.Deleted = true
	return nil
}

type recordingPublisher struct {
	events []tasks.DocumentEvent
	err    error
}

func (p *recordingPublisher) PublishDocumentEvent(_ context.Context, event tasks.DocumentEvent) error {
	p.events = append(p.events, event)
	return p.err
}

type memTagRepo struct {
	tags    []model.Tag
	creates int
	lists   []model.TagQuery
}

func (r *memTagRepo) Create(_ context.Context, tag *model.Tag) error {
	r.creates++
	if tag.ID == "" {
		tag.ID = strings.Repeat("t", r.creates)
	}
	tag.CreatedAt = time.Unix(int64(len(r.tags)+1), 0)
	r.tags = append(r.tags, *tag)
	return nil
}

func (r *memTagRepo) FindByID(_ context.Context, id string) (*model.Tag, error) {
	for _, t := range r.tags {
		if t.ID == id {
			cp := t
			return &cp, nil
		}
	}
	return nil, model.ErrNotFound
}

func (r *memTagRepo) List(_ context.Context, q model.TagQuery) ([]model.Tag, int64, error) {
	r.lists = append(r.lists, q)
	matched := make([]model.Tag, 0)
	for i := len(r.tags) - 1; i >= 0; i-- {
		if strings.Contains(strings.ToLower(r.tags[i].TagName), strings.ToLower(q.Name)) {
			matched = append(matched, r.tags[i])
		}
	}
	start := (q.Page - 1) * q.Size
	if start > len(matched) {
		start = len(matched)
	}
	end := start + q.Size
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], int64(len(matched)), nil
}

func (r *memTagRepo) FindAll(_ context.Context) ([]model.Tag, error) {
	out := append([]model.Tag(nil), r.tags...)
	sort.Slice(out, func(i, j int) bool { return out[i].TagName < out[j].TagName })
	return out, nil
}

func (r *memTagRepo) Delete(_ context.Context, id string) error {
	for i, t := range r.tags {
		if t.ID == id {
			r.tags = append(r.tags[:i], r.tags[i+1:]...)
			return nil
		}
	}
	return model.ErrNotFound
}

type memUserRepo struct {
	users  map[uint]*model.User
	nextID uint
}

func newMemUserRepo(users ...model.User) *memUserRepo {
	r := &memUserRepo{users: map[uint]*model.User{}}
	for _, u := range users {
		u := u
		r.users[u.ID] = &u
		if u.ID > r.nextID {
			r.nextID = u.ID
		}
	}
	return r
}

func (r *memUserRepo) Create(_ context.Context, user *model.User) error {
	r.nextID++
	user.ID = r.nextID
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *memUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, model.ErrNotFound
}

func (r *memUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range r.users {
		if u.Email != "" && strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, model.ErrNotFound
}

func (r *memUserRepo) FindByID(_ context.Context, id uint) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) Update(_ context.Context, user *model.User) error {
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *memUserRepo) ListExcept(_ context.Context, excludeID uint, search string) ([]model.User, error) {
	out := make([]model.User, 0)
	for _, u := range r.users {
		if u.ID == excludeID {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(u.Username), strings.ToLower(search)) {
			continue
		}
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

type memTokenRepo struct {
	blacklisted map[string]time.Duration
}

func newMemTokenRepo() *memTokenRepo {
	return &memTokenRepo{blacklisted: map[string]time.Duration{}}
}

func (r *memTokenRepo) Blacklist(_ context.Context, token string, ttl time.Duration) error {
	r.blacklisted[token] = ttl
	return nil
}

func (r *memTokenRepo) IsBlacklisted(_ context.Context, token string) (bool, error) {
	_, ok := r.blacklisted[token]
	return ok, nil
}

type memObjectStore struct {
	objects map[string][]byte
	types   map[string]string
	err     error
}

func newMemObjectStore() *memObjectStore {
	return &memObjectStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (s *memObjectStore) Put(_ context.Context, objectName string, r io.Reader, _ int64, contentType string) error {
	if s.err != nil {
		return s.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.objects[objectName] = data
	s.types[objectName] = contentType
	return nil
}

func (s *memObjectStore) PresignedURL(_ context.Context, objectName string, _ time.Duration) (string, error) {
	return "http://minio.local/bucket/" + objectName + "?sig=1", nil
}
