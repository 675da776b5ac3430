package handler

import (
	"bytes"
	"docbase-go/internal/model"
	"docbase-go/internal/repository"
	"docbase-go/internal/service"
	"docbase-go/pkg/token"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	router *gin.Engine
	jwt    *token.JWTManager
	users  *fakeUserService
	docs   *fakeDocumentService
	tags   *fakeTagService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jwt := token.NewJWTManager("handler-secret", 1, 1)
	users := newFakeUserService(jwt,
		model.User{ID: 1, Username: "alice", Email: "alice@example.com", Role: "USER"},
		model.User{ID: 2, Username: "bob", Email: "bob@example.com", Role: "USER"},
	)
	docs := newFakeDocumentService()
	tags := &fakeTagService{}

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	chat := service.NewChatService(repository.NewChatRepository(rdb, 100, time.Hour), chatUsers{users})

	r := gin.New()
	RegisterRoutes(r, Services{Users: users, Documents: docs, Tags: tags, Chat: chat}, jwt)
	return &testServer{router: r, jwt: jwt, users: users, docs: docs, tags: tags}
}

func (s *testServer) tokenFor(t *testing.T, id uint, username string) string {
	t.Helper()
	tok, err := s.jwt.GenerateToken(id, username, "USER")
	require.NoError(t, err)
	return tok
}

func (s *testServer) do(t *testing.T, method, path, tok string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func TestAuth_RejectsMissingAndInvalidTokens(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(t, http.MethodGet, "/api/v1/documents", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.do(t, http.MethodGet, "/api/v1/documents", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	refresh, err := s.jwt.GenerateRefreshToken(1, "alice", "USER")
	require.NoError(t, err)
	w, _ = s.do(t, http.MethodGet, "/api/v1/documents", refresh, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "refresh token must not authenticate API calls")

	ghost := s.tokenFor(t, 99, "ghost")
	w, _ = s.do(t, http.MethodGet, "/api/v1/documents", ghost, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUsers_LoginProfileLogout(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(t, http.MethodPost, "/api/v1/users/login", "", gin.H{"username": "alice", "password": "secret"})
	require.Equal(t, http.StatusOK, w.Code)
	var tokens struct {
		Token        string `json:"token"`
		RefreshToken string `json:"refreshToken"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &tokens))

	w, env = s.do(t, http.MethodGet, "/api/v1/users/me", tokens.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me model.User
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, "alice", me.Username)

	w, _ = s.do(t, http.MethodPost, "/api/v1/users/logout", tokens.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(t, http.MethodGet, "/api/v1/users/me", tokens.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, env = s.do(t, http.MethodPost, "/api/v1/auth/refreshToken", "", gin.H{"refreshToken": tokens.RefreshToken})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), "refreshToken")
}

func TestUsers_LoginFailures(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(t, http.MethodPost, "/api/v1/users/login", "", gin.H{"username": "alice", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/v1/users/login", "", gin.H{"username": "alice"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/v1/users/register", "", gin.H{"username": "alice", "password": "secret"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestUsers_UpdateEmailAndList(t *testing.T) {
	s := newTestServer(t)
	tok := s.tokenFor(t, 1, "alice")

	w, env := s.do(t, http.MethodPut, "/api/v1/users/me/email", tok, gin.H{"email": "new@example.com"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), "new@example.com")

	w, _ = s.do(t, http.MethodPut, "/api/v1/users/me/email", tok, gin.H{"email": "bob@example.com"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, env = s.do(t, http.MethodPut, "/api/v1/users/me/email", tok, gin.H{"email": "broken"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "A valid email address is required", env.Message)

	w, env = s.do(t, http.MethodGet, "/api/v1/users?search=bo", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var users []model.User
	require.NoError(t, json.Unmarshal(env.Data, &users))
	require.Len(t, users, 1)
	assert.Equal(t, "bob", users[0].Username)
}

func TestDocuments_CRUD(t *testing.T) {
	s := newTestServer(t)
	tok := s.tokenFor(t, 1, "alice")

	w, env := s.do(t, http.MethodPost, "/api/v1/documents", tok, model.DocumentInput{Title: ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Title is required", env.Message)

	w, env = s.do(t, http.MethodPost, "/api/v1/documents", tok, model.DocumentInput{Title: "Runbook", Content: "[]"})
	require.Equal(t, http.StatusOK, w.Code)
	var created model.Document
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, uint(1), created.OwnerID)

	w, _ = s.do(t, http.MethodPut, "/api/v1/documents/1", tok, model.DocumentInput{Title: "Runbook v2"})
	require.Equal(t, http.StatusOK, w.Code)

	w, env = s.do(t, http.MethodGet, "/api/v1/documents/1", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), "Runbook v2")

	w, env = s.do(t, http.MethodGet, "/api/v1/documents?title=run&page=2&size=5", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.DocumentQuery{Title: "run", Page: 2, Size: 5}, s.docs.lastQ)
	var page model.Page[model.Document]
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, int64(1), page.TotalElements)

	w, _ = s.do(t, http.MethodDelete, "/api/v1/documents/1", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, s.docs.docs[1].Deleted)

	w, _ = s.do(t, http.MethodGet, "/api/v1/documents/1", tok, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, _ = s.do(t, http.MethodDelete, "/api/v1/documents/1", tok, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, _ = s.do(t, http.MethodGet, "/api/v1/documents/abc", tok, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTags_CreateListDelete(t *testing.T) {
	s := newTestServer(t)
	tok := s.tokenFor(t, 1, "alice")

	w, _ := s.do(t, http.MethodPost, "/api/v1/tags", tok, gin.H{"tagName": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, s.tags.tags)

	w, _ = s.do(t, http.MethodPost, "/api/v1/tags", tok, gin.H{"tagName": "urgent"})
	require.Equal(t, http.StatusOK, w.Code)

	w, env := s.do(t, http.MethodGet, "/api/v1/tags/all", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), "urgent")

	w, _ = s.do(t, http.MethodDelete, "/api/v1/tags/urgent-id", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(t, http.MethodDelete, "/api/v1/tags/urgent-id", tok, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestChat_HTTPSendAndHistory(t *testing.T) {
	s := newTestServer(t)
	alice := s.tokenFor(t, 1, "alice")
	bob := s.tokenFor(t, 2, "bob")

	w, _ := s.do(t, http.MethodPost, "/api/v1/chat/2/messages", alice, gin.H{"content": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/v1/chat/2/messages", alice, gin.H{"content": "hi bob"})
	require.Equal(t, http.StatusOK, w.Code)

	w, env := s.do(t, http.MethodGet, "/api/v1/chat/1/messages", bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history []model.ChatMessage
	require.NoError(t, json.Unmarshal(env.Data, &history))
	require.Len(t, history, 1)
	assert.Equal(t, "hi bob", history[0].Content)

	w, _ = s.do(t, http.MethodGet, "/api/v1/chat/42/messages", bob, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestChat_WebsocketRelaysMessages(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.router)
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	bobConn, _, err := websocket.DefaultDialer.Dial(wsURL+"/chat/ws/"+s.tokenFor(t, 2, "bob")+"?receiverId=1", nil)
	require.NoError(t, err)
	defer bobConn.Close()

	aliceConn, _, err := websocket.DefaultDialer.Dial(wsURL+"/chat/ws/"+s.tokenFor(t, 1, "alice")+"?receiverId=2", nil)
	require.NoError(t, err)
	defer aliceConn.Close()

	require.NoError(t, aliceConn.WriteJSON(ChatFrame{Type: "message", Content: "over the wire"}))

	require.NoError(t, bobConn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var frame ChatFrame
	require.NoError(t, bobConn.ReadJSON(&frame))
	assert.Equal(t, "message", frame.Type)
	require.NotNil(t, frame.Message)
	assert.Equal(t, "over the wire", frame.Message.Content)
	assert.Equal(t, uint(1), frame.Message.SenderID)
}

func TestChat_WebsocketRejectsBadToken(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.router)
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	_, resp, err := websocket.DefaultDialer.Dial(wsURL+"/chat/ws/bad-token?receiverId=2", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(model.NewValidationError("x", "y")))
	assert.Equal(t, http.StatusNotFound, statusFor(model.ErrNotFound))
	assert.Equal(t, http.StatusConflict, statusFor(model.ErrConflict))
	assert.Equal(t, http.StatusForbidden, statusFor(model.ErrForbidden))
	assert.Equal(t, http.StatusUnauthorized, statusFor(model.ErrUnauthorized))
	assert.Equal(t, http.StatusInternalServerError, statusFor(io.EOF))
}
