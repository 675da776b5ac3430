package model

// EsDocument 定义了存储在 Elasticsearch 中的文档结构。
// 富文本内容不进入索引，只索引元数据。
type EsDocument struct {
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary"`
	Tags      []string  `json:"tags"`
	CreatedAt LocalTime `json:"created_at"`
}

// NewEsDocument 从数据库记录构造索引文档。
func NewEsDocument(doc *Document) EsDocument {
	tags := make([]string, 0, len(doc.Tags))
	for _, t := range doc.Tags {
		tags = append(tags, t.TagName)
	}
	summary := ""
	if doc.Summary != nil {
		summary = *doc.Summary
	}
	return EsDocument{
		ID:        doc.ID,
		Title:     doc.Title,
		Summary:   summary,
		Tags:      tags,
		CreatedAt: LocalTime(doc.CreatedAt),
	}
}

// DocumentHit 定义了返回给前端的搜索结果结构。
type DocumentHit struct {
	EsDocument
	Score float64 `json:"score"`
}

// Attachment 描述上传到对象存储的编辑器附件。
type Attachment struct {
	Name       string `json:"name"`
	ObjectName string `json:"objectName"`
	URL        string `json:"url"`
	Size       int64  `json:"size"`
}
