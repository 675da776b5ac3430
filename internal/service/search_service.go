package service

import (
	"context"
	"docbase-go/internal/model"
	"docbase-go/pkg/log"
	"strings"
)

// DocumentSearcher 是搜索服务依赖的全文索引。
type DocumentSearcher interface {
	Search(ctx context.Context, query string, size int) ([]model.DocumentHit, error)
}

// SearchService 接口定义了搜索操作。
type SearchService interface {
	Search(ctx context.Context, query string, size int) ([]model.DocumentHit, error)
}

type searchService struct {
	searcher DocumentSearcher
	maxSize  int
}

// NewSearchService 创建一个新的 SearchService 实例。
func NewSearchService(searcher DocumentSearcher, maxSize int) SearchService {
	return &searchService{searcher: searcher, maxSize: maxSize}
}

// Search 在标题、摘要和标签中检索文档。空查询直接返回空结果。
func (s *searchService) Search(ctx context.Context, query string, size int) ([]model.DocumentHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []model.DocumentHit{}, nil
	}
	size = normalizeSize(size, 10, s.maxSize)

	log.Infof("[SearchService] 开始搜索, query: '%s', size: %d", query, size)
	hits, err := s.searcher.Search(ctx, query, size)
	if err != nil {
		log.Errorf("[SearchService] 搜索失败: %v", err)
		return nil, err
	}
	log.Infof("[SearchService] 搜索完成, 命中 %d 条", len(hits))
	return hits, nil
}
