package handler

import (
	"context"
	"docbase-go/internal/middleware"
	"docbase-go/internal/model"
	"docbase-go/internal/service"
	"docbase-go/pkg/log"
	"docbase-go/pkg/token"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var (
	upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true // 允许所有来源
		},
	}
)

const wsWriteTimeout = 10 * time.Second

// ChatFrame 是 websocket 上双向传输的消息帧。
type ChatFrame struct {
	Type    string             `json:"type"`
	Content string             `json:"content,omitempty"`
	Message *model.ChatMessage `json:"message,omitempty"`
	Error   string             `json:"error,omitempty"`
}

// ChatHandler 负责处理用户之间的聊天请求，包括 WebSocket 实时连接。
type ChatHandler struct {
	chatService service.ChatService
	userService service.UserService
	jwtManager  *token.JWTManager
}

// NewChatHandler 创建一个新的 ChatHandler。
func NewChatHandler(chatService service.ChatService, userService service.UserService, jwtManager *token.JWTManager) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		userService: userService,
		jwtManager:  jwtManager,
	}
}

// History 返回与对方的聊天记录。
func (h *ChatHandler) History(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		respondError(c, "ChatHistory", model.ErrUnauthorized)
		return
	}
	receiverID, ok := uintParam(c, "receiverId")
	if !ok {
		badRequest(c, "无效的聊天对象 ID")
		return
	}
	messages, err := h.chatService.History(c.Request.Context(), user.ID, receiverID)
	if err != nil {
		respondError(c, "ChatHistory", err)
		return
	}
	respondOK(c, "获取聊天记录成功", messages)
}

// SendRequest 定义了发送聊天消息 API 的请求体结构。
type SendRequest struct {
	Content string `json:"content"`
}

// Send 通过 HTTP 发送一条消息。
func (h *ChatHandler) Send(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		respondError(c, "ChatSend", model.ErrUnauthorized)
		return
	}
	receiverID, ok := uintParam(c, "receiverId")
	if !ok {
		badRequest(c, "无效的聊天对象 ID")
		return
	}
	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "无效的请求负载")
		return
	}
	msg, err := h.chatService.Send(c.Request.Context(), user.ID, receiverID, req.Content)
	if err != nil {
		respondError(c, "ChatSend", err)
		return
	}
	respondOK(c, "发送成功", msg)
}

// wsConn 串行化对同一连接的写操作。
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (w *wsConn) writeFrame(frame ChatFrame) error {
	b, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return w.conn.WriteMessage(websocket.TextMessage, b)
}

// Handle 处理一个传入的 WebSocket 连接。
// 连接建立后转发线程中的新消息，并把客户端发来的帧作为新消息保存。
func (h *ChatHandler) Handle(c *gin.Context) {
	user, _, err := middleware.Authenticate(c.Request.Context(), h.jwtManager, h.userService, c.Param("token"))
	if err != nil {
		respondError(c, "ChatWebsocket", err)
		return
	}
	receiverID, err := strconv.ParseUint(c.Query("receiverId"), 10, 64)
	if err != nil || receiverID == 0 {
		badRequest(c, "无效的聊天对象 ID")
		return
	}
	counterpart := uint(receiverID)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	messages, closeSub, err := h.chatService.Subscribe(ctx, user.ID, counterpart)
	if err != nil {
		respondError(c, "ChatWebsocket", err)
		return
	}
	defer closeSub()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WebSocket 升级失败", err)
		return
	}
	defer conn.Close()
	ws := &wsConn{conn: conn}
	log.Infof("WebSocket 连接已建立，用户: %s, 对方: %d", user.Username, counterpart)

	go func() {
		for msg := range messages {
			msg := msg
			if err := ws.writeFrame(ChatFrame{Type: "message", Message: &msg}); err != nil {
				log.Warnf("向 WebSocket 写入消息失败: %v", err)
				cancel()
				return
			}
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warnf("从 WebSocket 读取消息失败: %v", err)
			}
			return
		}
		var frame ChatFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			_ = ws.writeFrame(ChatFrame{Type: "error", Error: "无法解析消息"})
			continue
		}
		if _, err := h.chatService.Send(ctx, user.ID, counterpart, frame.Content); err != nil {
			msg := "发送失败"
			var ve *model.ValidationError
			if errors.As(err, &ve) {
				msg = ve.Message
			} else {
				log.Errorf("WebSocket 发送消息失败: %v", err)
			}
			_ = ws.writeFrame(ChatFrame{Type: "error", Error: msg})
		}
	}
}
