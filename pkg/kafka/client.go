// Package kafka 提供了与 Kafka 消息队列交互的功能。
package kafka

import (
	"context"
	"docbase-go/internal/config"
	"docbase-go/pkg/log"
	"docbase-go/pkg/tasks"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/segmentio/kafka-go"
)

// maxAttempts 是单条事件处理失败后的最大重试次数，超过后提交 offset 放弃。
const maxAttempts = 3

// EventProcessor 处理一条文档事件，使消费者与具体的索引实现解耦。
type EventProcessor interface {
	Process(ctx context.Context, event tasks.DocumentEvent) error
}

func brokers(cfg config.KafkaConfig) []string {
	out := make([]string, 0)
	for _, b := range strings.Split(cfg.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// Producer 将文档事件写入 Kafka。
type Producer struct {
	writer *kafka.Writer
}

// NewProducer 初始化 Kafka 生产者。
func NewProducer(cfg config.KafkaConfig) *Producer {
	w := &kafka.Writer{
		Addr:     kafka.TCP(brokers(cfg)...),
		Topic:    cfg.Topic,
		Balancer: &kafka.Hash{},
	}
	log.Info("Kafka 生产者初始化成功")
	return &Producer{writer: w}
}

// PublishDocumentEvent 发送一个文档事件到 Kafka，以文档 ID 作为 key 保证同一文档的事件有序。
func (p *Producer) PublishDocumentEvent(ctx context.Context, event tasks.DocumentEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatUint(uint64(event.DocumentID), 10)),
		Value: data,
	})
}

// Close 关闭生产者。
func (p *Producer) Close() error {
	return p.writer.Close()
}

// messageReader 是 kafka.Reader 中消费者用到的部分。
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer 从 Kafka 读取文档事件并交给处理器，失败次数记录在 Redis 中。
type Consumer struct {
	reader    messageReader
	processor EventProcessor
	rdb       *redis.Client
	topic     string
	backoff   time.Duration
}

// NewConsumer 创建一个文档事件消费者。
func NewConsumer(cfg config.KafkaConfig, processor EventProcessor, rdb *redis.Client) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers(cfg),
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
		MaxWait:  time.Second,
	})
	return &Consumer{reader: r, processor: processor, rdb: rdb, topic: cfg.Topic, backoff: time.Second}
}

func attemptsKey(m kafka.Message) string {
	return fmt.Sprintf("kafka:attempts:%d:%d", m.Partition, m.Offset)
}

// Run 阻塞消费直到 ctx 被取消。
func (c *Consumer) Run(ctx context.Context) {
	log.Infof("Kafka 消费者已启动，正在监听主题 '%s'", c.topic)
	defer func() {
		if err := c.reader.Close(); err != nil {
			log.Errorf("关闭 Kafka 消费者失败: %v", err)
		}
	}()

	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				log.Info("Kafka 消费者已停止")
				return
			}
			log.Error("从 Kafka 读取消息失败", err)
			return
		}
		c.handle(ctx, m)
	}
}

// handle 处理单条消息并决定是否提交 offset。
func (c *Consumer) handle(ctx context.Context, m kafka.Message) {
	var event tasks.DocumentEvent
	if err := json.Unmarshal(m.Value, &event); err != nil {
		log.Errorf("无法解析 Kafka 消息: %v, value: %s", err, string(m.Value))
		// 消息格式错误，直接提交，避免阻塞队列
		c.commit(ctx, m)
		return
	}

	key := attemptsKey(m)
	var local int64
	for {
		err := c.processor.Process(ctx, event)
		if err == nil {
			log.Infof("文档事件处理成功: id=%d, type=%s", event.DocumentID, event.Type)
			_ = c.rdb.Del(ctx, key).Err()
			c.commit(ctx, m)
			return
		}
		log.Errorf("处理文档事件失败: id=%d, type=%s, error: %v", event.DocumentID, event.Type, err)

		local++
		attempts, incErr := c.rdb.Incr(ctx, key).Result()
		if incErr != nil {
			// Redis 不可用时退回进程内计数，继续在本轮重试
			log.Errorf("记录失败次数失败: %v", incErr)
		} else {
			_ = c.rdb.Expire(ctx, key, 24*time.Hour).Err()
		}
		if attempts < local {
			attempts = local
		}
		if attempts >= maxAttempts {
			log.Errorf("文档事件多次失败(>=%d)，提交 offset 终止重试: id=%d", maxAttempts, event.DocumentID)
			_ = c.rdb.Del(ctx, key).Err()
			c.commit(ctx, m)
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(c.backoff * time.Duration(attempts)):
		}
	}
}

func (c *Consumer) commit(ctx context.Context, m kafka.Message) {
	if err := c.reader.CommitMessages(ctx, m); err != nil {
		log.Errorf("提交 Kafka 消息 offset 失败: %v", err)
	}
}
