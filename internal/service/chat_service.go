package service

import (
	"context"
	"docbase-go/internal/model"
	"docbase-go/internal/repository"
	"docbase-go/pkg/log"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ChatService 定义了用户之间聊天的接口。
type ChatService interface {
	History(ctx context.Context, caller, counterpart uint) ([]model.ChatMessage, error)
	Send(ctx context.Context, sender, receiver uint, content string) (*model.ChatMessage, error)
	// Subscribe 订阅两人线程中的新消息，返回的关闭函数必须被调用。
	Subscribe(ctx context.Context, caller, counterpart uint) (<-chan model.ChatMessage, func() error, error)
}

type chatService struct {
	chatRepo repository.ChatRepository
	userRepo repository.UserRepository
	now      func() time.Time
}

// NewChatService 创建一个新的 ChatService 实例。
func NewChatService(chatRepo repository.ChatRepository, userRepo repository.UserRepository) ChatService {
	return &chatService{chatRepo: chatRepo, userRepo: userRepo, now: time.Now}
}

// checkCounterpart 确认聊天对象存在且不是自己。
func (s *chatService) checkCounterpart(ctx context.Context, caller, counterpart uint) error {
	if counterpart == 0 || counterpart == caller {
		return model.NewValidationError("receiverId", "Invalid chat counterpart")
	}
	if _, err := s.userRepo.FindByID(ctx, counterpart); err != nil {
		return err
	}
	return nil
}

// History 返回两人线程的历史消息，按时间正序。
func (s *chatService) History(ctx context.Context, caller, counterpart uint) ([]model.ChatMessage, error) {
	if err := s.checkCounterpart(ctx, caller, counterpart); err != nil {
		return nil, err
	}
	return s.chatRepo.History(ctx, caller, counterpart)
}

// Send 保存消息并广播给订阅者。
func (s *chatService) Send(ctx context.Context, sender, receiver uint, content string) (*model.ChatMessage, error) {
	if err := model.ValidateChatContent(content); err != nil {
		return nil, err
	}
	if err := s.checkCounterpart(ctx, sender, receiver); err != nil {
		return nil, err
	}

	msg := model.ChatMessage{
		ID:         uuid.NewString(),
		SenderID:   sender,
		ReceiverID: receiver,
		Content:    content,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.chatRepo.Append(ctx, msg); err != nil {
		return nil, fmt.Errorf("保存聊天消息失败: %w", err)
	}
	if err := s.chatRepo.Publish(ctx, msg); err != nil {
		// 消息已持久化，对方刷新后仍能看到
		log.Errorf("[ChatService] 广播聊天消息失败, thread: %s, error: %v", model.ThreadKey(sender, receiver), err)
	}
	return &msg, nil
}

// Subscribe 订阅线程。
func (s *chatService) Subscribe(ctx context.Context, caller, counterpart uint) (<-chan model.ChatMessage, func() error, error) {
	if err := s.checkCounterpart(ctx, caller, counterpart); err != nil {
		return nil, nil, err
	}
	return s.chatRepo.Subscribe(ctx, caller, counterpart)
}
