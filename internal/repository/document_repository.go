package repository

import (
	"context"
	"docbase-go/internal/model"
	"strings"

	"gorm.io/gorm"
)

// DocumentRepository 接口定义了文档的数据操作方法。
type DocumentRepository interface {
	Create(ctx context.Context, doc *model.Document) error
	// FindByID 查找文档；includeDeleted 为 false 时软删除的文档视为不存在。
	FindByID(ctx context.Context, id uint, includeDeleted bool) (*model.Document, error)
	// List 返回未删除、标题包含 q.Title（不区分大小写）的文档，按创建时间倒序，以及总匹配数。
	List(ctx context.Context, q model.DocumentQuery) ([]model.Document, int64, error)
	Update(ctx context.Context, doc *model.Document) error
	SoftDelete(ctx context.Context, id uint) error
}

type documentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository 创建一个新的 DocumentRepository 实例。
func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

// Create 插入一条新文档记录。
func (r *documentRepository) Create(ctx context.Context, doc *model.Document) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

// FindByID 根据 ID 查找文档。
func (r *documentRepository) FindByID(ctx context.Context, id uint, includeDeleted bool) (*model.Document, error) {
	var doc model.Document
	db := r.db.WithContext(ctx).Where("id = ?", id)
	if !includeDeleted {
		db = db.Where("deleted = ?", false)
	}
	if err := db.First(&doc).Error; err != nil {
		return nil, translate(err)
	}
	return &doc, nil
}

func (r *documentRepository) listScope(title string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Model(&model.Document{}).Where("deleted = ?", false)
		if strings.TrimSpace(title) != "" {
			db = db.Where(likeClause("title"), containsPattern(title))
		}
		return db
	}
}

// List 分页查询文档列表。列表不返回正文内容。
func (r *documentRepository) List(ctx context.Context, q model.DocumentQuery) ([]model.Document, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Scopes(r.listScope(q.Title)).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	docs := make([]model.Document, 0, q.Size)
	err := r.db.WithContext(ctx).
		Scopes(r.listScope(q.Title), paginate(q.Page, q.Size)).
		Omit("content").
		Order("created_at DESC").
		Order("id DESC").
		Find(&docs).Error
	if err != nil {
		return nil, 0, err
	}
	return docs, total, nil
}

// Update 原地更新文档的标题、摘要、正文与标签。
func (r *documentRepository) Update(ctx context.Context, doc *model.Document) error {
	res := r.db.WithContext(ctx).Model(&model.Document{}).
		Where("id = ? AND deleted = ?", doc.ID, false).
		Select("title", "summary", "content", "tags").
		Updates(doc)
	if res.Error != nil {
		return res.Error
	}
	return nil
}

// SoftDelete 将文档标记为已删除，行本身保留。
func (r *documentRepository) SoftDelete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&model.Document{}).
		Where("id = ? AND deleted = ?", id, false).
		Update("deleted", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}
