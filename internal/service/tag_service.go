package service

import (
	"context"
	"docbase-go/internal/config"
	"docbase-go/internal/model"
	"docbase-go/internal/repository"
	"docbase-go/pkg/log"
	"fmt"
	"strings"
)

// TagService 接口定义了标签管理相关的业务操作。
type TagService interface {
	List(ctx context.Context, q model.TagQuery) (*model.Page[model.Tag], error)
	All(ctx context.Context) ([]model.Tag, error)
	Create(ctx context.Context, name string) (*model.Tag, error)
	Delete(ctx context.Context, id string) error
}

type tagService struct {
	tagRepo repository.TagRepository
	pageCfg config.PaginationConfig
}

// NewTagService 创建一个新的 TagService 实例。
func NewTagService(tagRepo repository.TagRepository, pageCfg config.PaginationConfig) TagService {
	return &tagService{tagRepo: tagRepo, pageCfg: pageCfg}
}

// List 分页查询标签，按创建时间倒序。
func (s *tagService) List(ctx context.Context, q model.TagQuery) (*model.Page[model.Tag], error) {
	q.Size = normalizeSize(q.Size, s.pageCfg.TagSize, s.pageCfg.MaxSize)
	if q.Page < 1 {
		q.Page = 1
	}

	tags, total, err := s.tagRepo.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("查询标签列表失败: %w", err)
	}
	totalPages := model.TotalPages(total, q.Size)
	if clamped := model.ClampPage(q.Page, totalPages); clamped != q.Page {
		q.Page = clamped
		if tags, total, err = s.tagRepo.List(ctx, q); err != nil {
			return nil, fmt.Errorf("查询标签列表失败: %w", err)
		}
		totalPages = model.TotalPages(total, q.Size)
	}

	return &model.Page[model.Tag]{
		Content:       tags,
		TotalElements: total,
		TotalPages:    totalPages,
		Size:          q.Size,
		Number:        q.Page,
	}, nil
}

// All 返回按名称排序的全部标签。
func (s *tagService) All(ctx context.Context) ([]model.Tag, error) {
	tags, err := s.tagRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("查询全部标签失败: %w", err)
	}
	if tags == nil {
		tags = []model.Tag{}
	}
	return tags, nil
}

// Create 校验标签名并插入新标签。
func (s *tagService) Create(ctx context.Context, name string) (*model.Tag, error) {
	if err := model.ValidateTagName(name); err != nil {
		return nil, err
	}
	tag := &model.Tag{TagName: strings.TrimSpace(name)}
	if err := s.tagRepo.Create(ctx, tag); err != nil {
		return nil, fmt.Errorf("创建标签失败: %w", err)
	}
	log.Infof("[TagService] 标签创建成功, id: %s, name: %s", tag.ID, tag.TagName)
	return tag, nil
}

// Delete 物理删除标签，不会级联修改已引用该标签的文档。
func (s *tagService) Delete(ctx context.Context, id string) error {
	if err := s.tagRepo.Delete(ctx, id); err != nil {
		return err
	}
	log.Infof("[TagService] 标签已删除, id: %s", id)
	return nil
}
