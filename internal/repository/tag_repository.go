package repository

import (
	"context"
	"docbase-go/internal/model"
	"strings"

	"gorm.io/gorm"
)

// TagRepository 接口定义了标签的数据操作方法。
type TagRepository interface {
	Create(ctx context.Context, tag *model.Tag) error
	FindByID(ctx context.Context, id string) (*model.Tag, error)
	List(ctx context.Context, q model.TagQuery) ([]model.Tag, int64, error)
	// FindAll 返回全部标签，按名称排序，供编辑器的标签面板使用。
	FindAll(ctx context.Context) ([]model.Tag, error)
	Delete(ctx context.Context, id string) error
}

type tagRepository struct {
	db *gorm.DB
}

// NewTagRepository 创建一个新的 TagRepository 实例。
func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db}
}

// Create 在数据库中插入一个新的标签记录。
func (r *tagRepository) Create(ctx context.Context, tag *model.Tag) error {
	return r.db.WithContext(ctx).Create(tag).Error
}

// FindByID 根据 ID 查找标签。
func (r *tagRepository) FindByID(ctx context.Context, id string) (*model.Tag, error) {
	var tag model.Tag
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&tag).Error; err != nil {
		return nil, translate(err)
	}
	return &tag, nil
}

func (r *tagRepository) listScope(name string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Model(&model.Tag{})
		if strings.TrimSpace(name) != "" {
			db = db.Where(likeClause("tag_name"), containsPattern(name))
		}
		return db
	}
}

// List 分页查询标签，按创建时间倒序。
func (r *tagRepository) List(ctx context.Context, q model.TagQuery) ([]model.Tag, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Scopes(r.listScope(q.Name)).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	tags := make([]model.Tag, 0, q.Size)
	err := r.db.WithContext(ctx).
		Scopes(r.listScope(q.Name), paginate(q.Page, q.Size)).
		Order("created_at DESC").
		Order("id DESC").
		Find(&tags).Error
	if err != nil {
		return nil, 0, err
	}
	return tags, total, nil
}

// FindAll 从数据库中检索所有的标签记录。
func (r *tagRepository) FindAll(ctx context.Context) ([]model.Tag, error) {
	var tags []model.Tag
	err := r.db.WithContext(ctx).Order("tag_name").Find(&tags).Error
	return tags, err
}

// Delete 物理删除标签。引用它的文档中的快照不会被修改。
func (r *tagRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&model.Tag{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}
