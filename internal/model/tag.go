package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tag 对应于数据库中的 tags 表，是一个扁平的标签实体。
type Tag struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	TagName   string    `gorm:"type:varchar(100);not null" json:"tag_name"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Tag) TableName() string {
	return "tags"
}

// BeforeCreate 在插入前生成 UUID 主键。
func (t *Tag) BeforeCreate(*gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// Ref 返回嵌入文档时使用的快照。
func (t Tag) Ref() TagRef {
	return TagRef{ID: t.ID, TagName: t.TagName}
}

// ValidateTagName 校验标签名非空。
func ValidateTagName(name string) error {
	if strings.TrimSpace(name) == "" {
		return NewValidationError("tag_name", "Tag name is required")
	}
	return nil
}

// TagQuery 描述标签管理页的查询条件。
type TagQuery struct {
	Name string
	Page int
	Size int
}
