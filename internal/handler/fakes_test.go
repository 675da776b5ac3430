package handler

import (
	"context"
	"docbase-go/internal/model"
	"docbase-go/pkg/token"
	"strings"
	"sync"
	"time"
)

type fakeUserService struct {
	mu      sync.Mutex
	users   map[uint]*model.User
	revoked map[string]bool
	jwt     *token.JWTManager
}

func newFakeUserService(jwt *token.JWTManager, users ...model.User) *fakeUserService {
	s := &fakeUserService{users: map[uint]*model.User{}, revoked: map[string]bool{}, jwt: jwt}
	for _, u := range users {
		u := u
		s.users[u.ID] = &u
	}
	return s
}

func (s *fakeUserService) Register(_ context.Context, username, email, _ string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if username == "" {
		return nil, model.NewValidationError("username", "Username is required")
	}
	for _, u := range s.users {
		if u.Username == username {
			return nil, model.ErrConflict
		}
	}
	u := &model.User{ID: uint(len(s.users) + 1), Username: username, Email: email, Role: "USER"}
	s.users[u.ID] = u
	return u, nil
}

func (s *fakeUserService) Login(_ context.Context, username, password string) (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username && password == "secret" {
			access, _ := s.jwt.GenerateToken(u.ID, u.Username, u.Role)
			refresh, _ := s.jwt.GenerateRefreshToken(u.ID, u.Username, u.Role)
			return access, refresh, nil
		}
	}
	return "", "", model.ErrUnauthorized
}

func (s *fakeUserService) RefreshToken(_ context.Context, refresh string) (string, string, error) {
	claims, err := s.jwt.VerifyKind(refresh, token.KindRefresh)
	if err != nil {
		return "", "", model.ErrUnauthorized
	}
	access, _ := s.jwt.GenerateToken(claims.UserID, claims.Username, claims.Role)
	newRefresh, _ := s.jwt.GenerateRefreshToken(claims.UserID, claims.Username, claims.Role)
	return access, newRefresh, nil
}

func (s *fakeUserService) GetProfile(_ context.Context, username string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, model.ErrNotFound
}

func (s *fakeUserService) FindByID(_ context.Context, id uint) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *fakeUserService) UpdateEmail(_ context.Context, userID uint, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !strings.Contains(email, "@") {
		return nil, model.NewValidationError("email", "A valid email address is required")
	}
	for _, u := range s.users {
		if u.ID != userID && u.Email == email {
			return nil, model.ErrConflict
		}
	}
	u := s.users[userID]
	u.Email = email
	return u, nil
}

func (s *fakeUserService) Logout(_ context.Context, tokenString string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[tokenString] = true
	return nil
}

func (s *fakeUserService) IsRevoked(_ context.Context, tokenString string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revoked[tokenString], nil
}

func (s *fakeUserService) ListCounterparts(_ context.Context, self uint, search string) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.User, 0)
	for _, u := range s.users {
		if u.ID != self && strings.Contains(strings.ToLower(u.Username), strings.ToLower(search)) {
			out = append(out, *u)
		}
	}
	return out, nil
}

type fakeDocumentService struct {
	docs   map[uint]*model.Document
	nextID uint
	lastQ  model.DocumentQuery
}

func newFakeDocumentService() *fakeDocumentService {
	return &fakeDocumentService{docs: map[uint]*model.Document{}}
}

func (s *fakeDocumentService) List(_ context.Context, q model.DocumentQuery) (*model.Page[model.Document], error) {
	s.lastQ = q
	content := make([]model.Document, 0)
	for _, d := range s.docs {
		if !d.Deleted {
			content = append(content, *d)
		}
	}
	size := q.Size
	if size == 0 {
		size = 5
	}
	return &model.Page[model.Document]{
		Content:       content,
		TotalElements: int64(len(content)),
		TotalPages:    model.TotalPages(int64(len(content)), size),
		Size:          size,
		Number:        q.Page,
	}, nil
}

func (s *fakeDocumentService) Get(_ context.Context, id uint) (*model.Document, error) {
	d, ok := s.docs[id]
	if !ok || d.Deleted {
		return nil, model.ErrNotFound
	}
	return d, nil
}

func (s *fakeDocumentService) Create(_ context.Context, owner *model.User, in model.DocumentInput) (*model.Document, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	s.nextID++
	d := &model.Document{ID: s.nextID, Title: in.Title, Summary: in.Summary, Content: in.Content, Tags: in.Tags, OwnerID: owner.ID, CreatedAt: time.Now()}
	s.docs[d.ID] = d
	return d, nil
}

func (s *fakeDocumentService) Update(ctx context.Context, id uint, in model.DocumentInput) (*model.Document, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	d.Title, d.Summary, d.Content, d.Tags = in.Title, in.Summary, in.Content, in.Tags
	return d, nil
}

func (s *fakeDocumentService) Delete(_ context.Context, id uint) error {
	d, ok := s.docs[id]
	if !ok || d.Deleted {
		return model.ErrNotFound
	}
	d.Deleted = true
	return nil
}

type fakeTagService struct {
	tags []model.Tag
}

func (s *fakeTagService) List(_ context.Context, q model.TagQuery) (*model.Page[model.Tag], error) {
	return &model.Page[model.Tag]{Content: s.tags, TotalElements: int64(len(s.tags)), TotalPages: model.TotalPages(int64(len(s.tags)), 10), Size: 10, Number: q.Page}, nil
}

func (s *fakeTagService) All(_ context.Context) ([]model.Tag, error) {
	return s.tags, nil
}

func (s *fakeTagService) Create(_ context.Context, name string) (*model.Tag, error) {
	if err := model.ValidateTagName(name); err != nil {
		return nil, err
	}
	t := model.Tag{ID: name + "-id", TagName: name}
	s.tags = append(s.tags, t)
	return &t, nil
}

func (s *fakeTagService) Delete(_ context.Context, id string) error {
	for i, t := range s.tags {
		if t.ID == id {
			s.tags = append(s.tags[:i], s.tags[i+1:]...)
			return nil
		}
	}
	return model.ErrNotFound
}

// chatUsers 为真实的聊天服务提供用户查询。
type chatUsers struct {
	*fakeUserService
}

func (c chatUsers) Create(context.Context, *model.User) error { return nil }
func (c chatUsers) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return c.GetProfile(ctx, username)
}
func (c chatUsers) FindByEmail(context.Context, string) (*model.User, error) {
	return nil, model.ErrNotFound
}
func (c chatUsers) Update(context.Context, *model.User) error { return nil }
func (c chatUsers) ListExcept(ctx context.Context, excludeID uint, search string) ([]model.User, error) {
	return c.ListCounterparts(ctx, excludeID, search)
}
