package client

import (
	"bytes"
	"context"
	"docbase-go/internal/model"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"
)

// Frame 是聊天 websocket 上传输的消息帧。
type Frame struct {
	Type    string             `json:"type"`
	Content string             `json:"content,omitempty"`
	Message *model.ChatMessage `json:"message,omitempty"`
	Error   string             `json:"error,omitempty"`
}

// ChatStream 是一条已建立的聊天实时连接。
type ChatStream struct {
	conn *websocket.Conn
	wmu  sync.Mutex
}

// DialChat 建立与 counterpartID 之间线程的实时连接。
func (c *Client) DialChat(ctx context.Context, counterpartID uint) (*ChatStream, error) {
	token := c.Token()
	if token == "" {
		return nil, ErrNoToken
	}
	u := *c.baseURL
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = c.baseURL.Path + "/chat/ws/" + url.PathEscape(token)
	u.RawQuery = url.Values{"receiverId": {fmt.Sprint(counterpartID)}}.Encode()

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			defer resp.Body.Close()
			raw, _ := io.ReadAll(resp.Body)
			var env envelope
			msg := string(raw)
			if json.Unmarshal(raw, &env) == nil && env.Message != "" {
				msg = env.Message
			}
			return nil, &APIError{Status: resp.StatusCode, Message: msg}
		}
		return nil, err
	}
	return &ChatStream{conn: conn}, nil
}

// Send 通过连接发送一条消息，持久化由服务端完成。
func (s *ChatStream) Send(content string) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	return s.conn.WriteJSON(Frame{Type: "message", Content: content})
}

// Recv 阻塞读取下一帧。服务端返回 error 帧时以错误形式返回。
func (s *ChatStream) Recv() (*model.ChatMessage, error) {
	for {
		var f Frame
		if err := s.conn.ReadJSON(&f); err != nil {
			return nil, err
		}
		switch f.Type {
		case "message":
			if f.Message != nil {
				return f.Message, nil
			}
		case "error":
			return nil, errors.New(f.Error)
		}
	}
}

// Close 正常关闭连接。
func (s *ChatStream) Close() error {
	s.wmu.Lock()
	_ = s.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	s.wmu.Unlock()
	return s.conn.Close()
}

// UploadAttachment 以 multipart 表单上传附件，返回可嵌入文档内容的地址。
func (c *Client) UploadAttachment(ctx context.Context, name string, r io.Reader) (*model.Attachment, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/api/v1/attachments", nil), &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	var att model.Attachment
	if err := c.send(req, &att); err != nil {
		return nil, err
	}
	return &att, nil
}
