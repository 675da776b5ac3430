// Package client 是 docbase 服务端 API 的类型化 HTTP 客户端，供视图控制器和 docctl 使用。
package client

import (
	"bytes"
	"context"
	"docbase-go/internal/model"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// DefaultTimeout 是单次请求的默认超时时间。
const DefaultTimeout = 15 * time.Second

// APIError 是服务端返回的非 2xx 响应。
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// Unwrap 把状态码映射回 model 中的哨兵错误，调用方可以直接用 errors.Is 判断。
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusBadRequest:
		return model.ErrValidation
	case http.StatusUnauthorized:
		return model.ErrUnauthorized
	case http.StatusForbidden:
		return model.ErrForbidden
	case http.StatusNotFound:
		return model.ErrNotFound
	case http.StatusConflict:
		return model.ErrConflict
	}
	return nil
}

// Tokens 是登录或刷新后得到的一对令牌。
type Tokens struct {
	AccessToken  string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

// DocumentPage 和 TagPage 是列表接口的分页结果。
type (
	DocumentPage = model.Page[model.Document]
	TagPage      = model.Page[model.Tag]
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Option 配置 Client。
type Option func(*Client)

// WithHTTPClient 替换底层的 http.Client。
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithToken 设置初始访问令牌。
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// Client 调用服务端 REST 和 websocket 接口。并发安全。
type Client struct {
	baseURL *url.URL
	http    *http.Client

	mu    sync.RWMutex
	token string
}

// New 创建一个指向 baseURL（例如 http://localhost:8080）的客户端。
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base url scheme %q", u.Scheme)
	}
	c := &Client{baseURL: u, http: &http.Client{Timeout: DefaultTimeout}}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Token 返回当前的访问令牌。
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetToken 设置访问令牌。
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body interface{}, out interface{}) error {
	var reader io.Reader
	contentType := ""
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
		contentType = "application/json"
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), reader)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out interface{}) error {
	req.Header.Set("Accept", "application/json")
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := env.Message
		if decodeErr != nil || msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return fmt.Errorf("decode response: %w", decodeErr)
	}
	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}

// Login 登录并保存返回的访问令牌。
func (c *Client) Login(ctx context.Context, username, password string) (Tokens, error) {
	var t Tokens
	err := c.do(ctx, http.MethodPost, "/api/v1/users/login", nil,
		map[string]string{"username": username, "password": password}, &t)
	if err != nil {
		return Tokens{}, err
	}
	c.SetToken(t.AccessToken)
	return t, nil
}

// Register 注册新用户。
func (c *Client) Register(ctx context.Context, username, email, password string) (*model.User, error) {
	var u model.User
	err := c.do(ctx, http.MethodPost, "/api/v1/users/register", nil,
		map[string]string{"username": username, "email": email, "password": password}, &u)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Refresh 用刷新令牌换一对新令牌，旧的刷新令牌随即失效。
func (c *Client) Refresh(ctx context.Context, refreshToken string) (Tokens, error) {
	var t Tokens
	err := c.do(ctx, http.MethodPost, "/api/v1/auth/refreshToken", nil,
		map[string]string{"refreshToken": refreshToken}, &t)
	if err != nil {
		return Tokens{}, err
	}
	c.SetToken(t.AccessToken)
	return t, nil
}

// Logout 使当前访问令牌失效。
func (c *Client) Logout(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, "/api/v1/users/logout", nil, nil, nil); err != nil {
		return err
	}
	c.SetToken("")
	return nil
}

// Me 返回当前登录的用户。未登录时返回的错误满足 errors.Is(err, model.ErrUnauthorized)。
func (c *Client) Me(ctx context.Context) (*model.User, error) {
	if c.Token() == "" {
		return nil, &APIError{Status: http.StatusUnauthorized, Message: "not logged in"}
	}
	var u model.User
	if err := c.do(ctx, http.MethodGet, "/api/v1/users/me", nil, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateEmail 修改当前用户的邮箱。
func (c *Client) UpdateEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	if err := c.do(ctx, http.MethodPut, "/api/v1/users/me/email", nil, map[string]string{"email": email}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// ListUsers 返回除自己以外的用户，search 为用户名子串过滤。
func (c *Client) ListUsers(ctx context.Context, search string) ([]model.User, error) {
	q := url.Values{}
	if search != "" {
		q.Set("search", search)
	}
	var users []model.User
	if err := c.do(ctx, http.MethodGet, "/api/v1/users", q, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func pageQuery(filterKey, filter string, page, size int) url.Values {
	q := url.Values{}
	if filter != "" {
		q.Set(filterKey, filter)
	}
	if page > 0 {
		q.Set("page", fmt.Sprint(page))
	}
	if size > 0 {
		q.Set("size", fmt.Sprint(size))
	}
	return q
}

// ListDocuments 分页查询未删除的文档。
func (c *Client) ListDocuments(ctx context.Context, q model.DocumentQuery) (*DocumentPage, error) {
	var page DocumentPage
	if err := c.do(ctx, http.MethodGet, "/api/v1/documents", pageQuery("title", q.Title, q.Page, q.Size), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetDocument 获取单个未删除的文档。
func (c *Client) GetDocument(ctx context.Context, id uint) (*model.Document, error) {
	var doc model.Document
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/v1/documents/%d", id), nil, nil, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// CreateDocument 插入新文档。
func (c *Client) CreateDocument(ctx context.Context, in model.DocumentInput) (*model.Document, error) {
	var doc model.Document
	if err := c.do(ctx, http.MethodPost, "/api/v1/documents", nil, in, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// UpdateDocument 原地更新文档。
func (c *Client) UpdateDocument(ctx context.Context, id uint, in model.DocumentInput) (*model.Document, error) {
	var doc model.Document
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/v1/documents/%d", id), nil, in, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// DeleteDocument 软删除文档。
func (c *Client) DeleteDocument(ctx context.Context, id uint) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/v1/documents/%d", id), nil, nil, nil)
}

// SearchDocuments 全文检索文档元数据。
func (c *Client) SearchDocuments(ctx context.Context, query string, size int) ([]model.DocumentHit, error) {
	q := url.Values{"q": {query}}
	if size > 0 {
		q.Set("size", fmt.Sprint(size))
	}
	var hits []model.DocumentHit
	if err := c.do(ctx, http.MethodGet, "/api/v1/documents/search", q, nil, &hits); err != nil {
		return nil, err
	}
	return hits, nil
}

// ListTags 分页查询标签。
func (c *Client) ListTags(ctx context.Context, q model.TagQuery) (*TagPage, error) {
	var page TagPage
	if err := c.do(ctx, http.MethodGet, "/api/v1/tags", pageQuery("name", q.Name, q.Page, q.Size), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// AllTags 返回按名称排序的全部标签。
func (c *Client) AllTags(ctx context.Context) ([]model.Tag, error) {
	var tags []model.Tag
	if err := c.do(ctx, http.MethodGet, "/api/v1/tags/all", nil, nil, &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

// CreateTag 创建标签。
func (c *Client) CreateTag(ctx context.Context, name string) (*model.Tag, error) {
	var tag model.Tag
	if err := c.do(ctx, http.MethodPost, "/api/v1/tags", nil, map[string]string{"tagName": name}, &tag); err != nil {
		return nil, err
	}
	return &tag, nil
}

// DeleteTag 硬删除标签。
func (c *Client) DeleteTag(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/tags/"+url.PathEscape(id), nil, nil, nil)
}

// ChatHistory 返回与对方的聊天记录，按时间正序。
func (c *Client) ChatHistory(ctx context.Context, counterpartID uint) ([]model.ChatMessage, error) {
	var msgs []model.ChatMessage
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/v1/chat/%d/messages", counterpartID), nil, nil, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// SendChat 发送一条消息。
func (c *Client) SendChat(ctx context.Context, counterpartID uint, content string) (*model.ChatMessage, error) {
	var msg model.ChatMessage
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/v1/chat/%d/messages", counterpartID), nil,
		map[string]string{"content": content}, &msg)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// ErrNoToken 表示需要登录后才能建立实时连接。
var ErrNoToken = errors.New("client: no access token")
