package model

import (
	"fmt"
	"strings"
	"time"
)

// ChatMessage 代表两位用户之间线程中的单条消息，存储在 Redis 中。
type ChatMessage struct {
	ID         string    `json:"id"`
	SenderID   uint      `json:"senderId"`
	ReceiverID uint      `json:"receiverId"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ThreadKey 返回参与者对的线程标识，与发送方向无关。
func ThreadKey(a, b uint) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}

// ValidateChatContent 校验消息内容非空。
func ValidateChatContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return NewValidationError("content", "Message is required")
	}
	return nil
}
