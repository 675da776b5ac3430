// Package model 定义了与数据库表对应的 Go 结构体以及共享的错误类型。
package model

import (
	"strings"
	"time"
)

// EmptyContent 是空文档的序列化块数组。
const EmptyContent = "[]"

// TagRef 是嵌入在文档中的标签快照（反规范化，不是关联表）。
// 标签被删除后快照不会级联更新。
type TagRef struct {
	ID      string `json:"id"`
	TagName string `json:"tag_name"`
}

// Document 对应于数据库中的 documents 表。
// Content 是富文本编辑器序列化后的块数组，本服务只原样存取，不做解析。
type Document struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"type:varchar(255);not null" json:"title"`
	Summary   *string   `gorm:"type:text" json:"summary"`
	Content   string    `gorm:"type:longtext;not null" json:"content"`
	Tags      []TagRef  `gorm:"type:json;serializer:json" json:"tags"`
	OwnerID   uint      `gorm:"index" json:"ownerId"`
	Deleted   bool      `gorm:"not null;default:false;index" json:"deleted"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Document) TableName() string {
	return "documents"
}

// DocumentInput 是新建或更新文档时提交的负载。
type DocumentInput struct {
	Title   string   `json:"title"`
	Summary *string  `json:"summary"`
	Content string   `json:"content"`
	Tags    []TagRef `json:"tags"`
}

// Validate 校验标题非空。
func (in DocumentInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return NewValidationError("title", "Title is required")
	}
	return nil
}

// DocumentQuery 描述列表视图的查询条件。
type DocumentQuery struct {
	Title string
	Page  int
	Size  int
}
