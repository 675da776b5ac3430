// Package tasks defines the messages that are sent to Kafka.
package tasks

import "time"

// DocumentEventType 描述文档变更的类型。
type DocumentEventType string

const (
	// DocumentUpserted 表示文档被新建或更新，需要（重新）索引。
	DocumentUpserted DocumentEventType = "upserted"
	// DocumentDeleted 表示文档被软删除，需要从索引中移除。
	DocumentDeleted DocumentEventType = "deleted"
)

// DocumentEvent represents a document change that the search indexer consumes.
type DocumentEvent struct {
	Type       DocumentEventType `json:"type"`
	DocumentID uint              `json:"document_id"`
	OccurredAt time.Time         `json:"occurred_at"`
}
