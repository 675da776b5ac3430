package repository

import (
	"context"
	"docbase-go/internal/model"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// ChatRepository 定义了聊天线程的存储与实时分发操作。
type ChatRepository interface {
	// Append 追加一条消息到线程末尾，只保留最近 limit 条。
	Append(ctx context.Context, msg model.ChatMessage) error
	// History 返回线程中的消息，按时间正序。
	History(ctx context.Context, a, b uint) ([]model.ChatMessage, error)
	Publish(ctx context.Context, msg model.ChatMessage) error
	// Subscribe 订阅线程的实时消息，调用方负责 Close。
	Subscribe(ctx context.Context, a, b uint) (<-chan model.ChatMessage, func() error, error)
}

type redisChatRepository struct {
	redisClient *redis.Client
	limit       int64
	ttl         time.Duration
}

// NewChatRepository 创建一个新的 ChatRepository 实例。
func NewChatRepository(redisClient *redis.Client, limit int, ttl time.Duration) ChatRepository {
	if limit <= 0 {
		limit = 200
	}
	return &redisChatRepository{redisClient: redisClient, limit: int64(limit), ttl: ttl}
}

func historyKey(a, b uint) string {
	return fmt.Sprintf("chat:thread:%s", model.ThreadKey(a, b))
}

func channelKey(a, b uint) string {
	return fmt.Sprintf("chat:channel:%s", model.ThreadKey(a, b))
}

// Append 以 RPUSH + LTRIM 维护线程历史。
func (r *redisChatRepository) Append(ctx context.Context, msg model.ChatMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal chat message: %w", err)
	}
	key := historyKey(msg.SenderID, msg.ReceiverID)
	pipe := r.redisClient.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.LTrim(ctx, key, -r.limit, -1)
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append chat message: %w", err)
	}
	return nil
}

// History 从 Redis 获取线程历史记录。
func (r *redisChatRepository) History(ctx context.Context, a, b uint) ([]model.ChatMessage, error) {
	raw, err := r.redisClient.LRange(ctx, historyKey(a, b), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get chat history: %w", err)
	}
	messages := make([]model.ChatMessage, 0, len(raw))
	for _, item := range raw {
		var msg model.ChatMessage
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal chat message: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// Publish 将消息广播到线程频道。
func (r *redisChatRepository) Publish(ctx context.Context, msg model.ChatMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal chat message: %w", err)
	}
	return r.redisClient.Publish(ctx, channelKey(msg.SenderID, msg.ReceiverID), data).Err()
}

// Subscribe 订阅线程频道，返回解码后的消息通道。
func (r *redisChatRepository) Subscribe(ctx context.Context, a, b uint) (<-chan model.ChatMessage, func() error, error) {
	sub := r.redisClient.Subscribe(ctx, channelKey(a, b))
	// 等待订阅确认，确保之后发布的消息不会丢失
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, fmt.Errorf("failed to subscribe chat channel: %w", err)
	}

	out := make(chan model.ChatMessage)
	go func() {
		defer close(out)
		for m := range sub.Channel() {
			var msg model.ChatMessage
			if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
				continue
			}
			select {
			case out <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, sub.Close, nil
}
