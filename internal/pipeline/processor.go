// Package pipeline 定义了文档索引的核心流程。
package pipeline

import (
	"context"
	"docbase-go/internal/model"
	"docbase-go/pkg/log"
	"docbase-go/pkg/tasks"
	"errors"
	"fmt"
)

// DocumentLoader 按 ID 加载文档，包括已软删除的文档。
type DocumentLoader interface {
	FindByID(ctx context.Context, id uint, includeDeleted bool) (*model.Document, error)
}

// SearchIndex 是索引器写入的搜索索引。
type SearchIndex interface {
	IndexDocument(ctx context.Context, doc model.EsDocument) error
	DeleteDocument(ctx context.Context, id uint) error
}

// Indexer 消费文档事件，使搜索索引与数据库保持一致。
type Indexer struct {
	docs  DocumentLoader
	index SearchIndex
}

// NewIndexer 创建一个新的 Indexer 实例。
func NewIndexer(docs DocumentLoader, index SearchIndex) *Indexer {
	return &Indexer{docs: docs, index: index}
}

// Process 处理一条文档事件。
// 总是以数据库中的当前状态为准，因此重复或乱序的事件不会留下过期的索引。
func (p *Indexer) Process(ctx context.Context, event tasks.DocumentEvent) error {
	log.Infof("[Indexer] 开始处理文档事件, id: %d, type: %s", event.DocumentID, event.Type)

	doc, err := p.docs.FindByID(ctx, event.DocumentID, true)
	if errors.Is(err, model.ErrNotFound) {
		log.Warnf("[Indexer] 文档不存在, 从索引中移除, id: %d", event.DocumentID)
		return p.index.DeleteDocument(ctx, event.DocumentID)
	}
	if err != nil {
		return fmt.Errorf("加载文档失败: %w", err)
	}

	if doc.Deleted || event.Type == tasks.DocumentDeleted {
		if err := p.index.DeleteDocument(ctx, doc.ID); err != nil {
			return fmt.Errorf("从索引删除文档失败: %w", err)
		}
		log.Infof("[Indexer] 文档已从索引移除, id: %d", doc.ID)
		return nil
	}

	if err := p.index.IndexDocument(ctx, model.NewEsDocument(doc)); err != nil {
		return fmt.Errorf("索引文档失败: %w", err)
	}
	log.Infof("[Indexer] 文档索引成功, id: %d, title: %s", doc.ID, doc.Title)
	return nil
}
