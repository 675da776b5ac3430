// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"docbase-go/internal/config"
	"docbase-go/internal/model"
	"docbase-go/internal/repository"
	"docbase-go/pkg/log"
	"docbase-go/pkg/tasks"
	"fmt"
	"strings"
	"time"
)

// EventPublisher 将文档变更事件投递到消息队列，由搜索索引器消费。
type EventPublisher interface {
	PublishDocumentEvent(ctx context.Context, event tasks.DocumentEvent) error
}

// DocumentService 接口定义了文档管理相关的业务操作。
type DocumentService interface {
	List(ctx context.Context, q model.DocumentQuery) (*model.Page[model.Document], error)
	Get(ctx context.Context, id uint) (*model.Document, error)
	Create(ctx context.Context, owner *model.User, in model.DocumentInput) (*model.Document, error)
	Update(ctx context.Context, id uint, in model.DocumentInput) (*model.Document, error)
	Delete(ctx context.Context, id uint) error
}

type documentService struct {
	docRepo   repository.DocumentRepository
	publisher EventPublisher
	pageCfg   config.PaginationConfig
	now       func() time.Time
}

// NewDocumentService 创建一个新的 DocumentService 实例。publisher 可以为 nil。
func NewDocumentService(docRepo repository.DocumentRepository, publisher EventPublisher, pageCfg config.PaginationConfig) DocumentService {
	return &documentService{
		docRepo:   docRepo,
		publisher: publisher,
		pageCfg:   pageCfg,
		now:       time.Now,
	}
}

// List 分页查询未删除的文档。页码超出范围时被限制到最后一页。
func (s *documentService) List(ctx context.Context, q model.DocumentQuery) (*model.Page[model.Document], error) {
	q.Size = normalizeSize(q.Size, s.pageCfg.DocumentTableSize, s.pageCfg.MaxSize)
	if q.Page < 1 {
		q.Page = 1
	}

	docs, total, err := s.docRepo.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("查询文档列表失败: %w", err)
	}
	totalPages := model.TotalPages(total, q.Size)
	if clamped := model.ClampPage(q.Page, totalPages); clamped != q.Page {
		q.Page = clamped
		docs, total, err = s.docRepo.List(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("查询文档列表失败: %w", err)
		}
		totalPages = model.TotalPages(total, q.Size)
	}

	return &model.Page[model.Document]{
		Content:       docs,
		TotalElements: total,
		TotalPages:    totalPages,
		Size:          q.Size,
		Number:        q.Page,
	}, nil
}

// Get 获取单个未删除的文档。
func (s *documentService) Get(ctx context.Context, id uint) (*model.Document, error) {
	return s.docRepo.FindByID(ctx, id, false)
}

// Create 校验并插入新文档。
func (s *documentService) Create(ctx context.Context, owner *model.User, in model.DocumentInput) (*model.Document, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	doc := &model.Document{}
	applyInput(doc, in)
	if owner != nil {
		doc.OwnerID = owner.ID
	}
	if err := s.docRepo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("保存文档失败: %w", err)
	}
	s.publish(ctx, tasks.DocumentUpserted, doc.ID)
	return doc, nil
}

// Update 原地更新已存在且未删除的文档。
func (s *documentService) Update(ctx context.Context, id uint, in model.DocumentInput) (*model.Document, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	doc, err := s.docRepo.FindByID(ctx, id, false)
	if err != nil {
		return nil, err
	}
	applyInput(doc, in)
	if err := s.docRepo.Update(ctx, doc); err != nil {
		return nil, fmt.Errorf("更新文档失败: %w", err)
	}
	s.publish(ctx, tasks.DocumentUpserted, doc.ID)
	return doc, nil
}

// Delete 软删除文档。
func (s *documentService) Delete(ctx context.Context, id uint) error {
	if err := s.docRepo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, tasks.DocumentDeleted, id)
	return nil
}

func (s *documentService) publish(ctx context.Context, typ tasks.DocumentEventType, id uint) {
	if s.publisher == nil {
		return
	}
	event := tasks.DocumentEvent{Type: typ, DocumentID: id, OccurredAt: s.now()}
	if err := s.publisher.PublishDocumentEvent(ctx, event); err != nil {
		// 索引是次要路径，发送失败不影响保存结果
		log.Errorf("[DocumentService] 发送文档事件到Kafka失败, id: %d, type: %s, error: %v", id, typ, err)
	}
}

func applyInput(doc *model.Document, in model.DocumentInput) {
	doc.Title = strings.TrimSpace(in.Title)
	doc.Summary = in.Summary
	doc.Content = in.Content
	if doc.Content == "" {
		doc.Content = model.EmptyContent
	}
	doc.Tags = in.Tags
	if doc.Tags == nil {
		doc.Tags = []model.TagRef{}
	}
}

// normalizeSize 返回合法的分页大小：非正数使用默认值，超过上限时截断。
func normalizeSize(size, def, max int) int {
	if size <= 0 {
		size = def
	}
	if size <= 0 {
		size = 10
	}
	if max > 0 && size > max {
		size = max
	}
	return size
}
