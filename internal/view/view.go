// Package view 保存各个页面的显式状态。
//
// 每个页面由一个纯函数 Reduce(state, event) -> state 驱动，
// 控制器负责发起 I/O 并把结果作为事件送回 reducer。
// 列表和详情的加载都带有递增的 Gen，携带旧 Gen 的响应会被丢弃。
package view

import (
	"context"
	"docbase-go/internal/model"
	"errors"
)

// NoticeLevel 是提示的级别。
type NoticeLevel int

const (
	NoticeInfo NoticeLevel = iota
	NoticeWarning
	NoticeError
)

func (l NoticeLevel) String() string {
	switch l {
	case NoticeWarning:
		return "warning"
	case NoticeError:
		return "error"
	default:
		return "info"
	}
}

// Notice 是一条临时提示，下一次成功操作或手动关闭时清除。
type Notice struct {
	Level NoticeLevel
	Text  string
}

func infoNotice(text string) *Notice    { return &Notice{Level: NoticeInfo, Text: text} }
func warningNotice(text string) *Notice { return &Notice{Level: NoticeWarning, Text: text} }

func errorNotice(err error) *Notice {
	return &Notice{Level: NoticeError, Text: errorText(err)}
}

// errorText 优先使用字段级校验信息，其次是远端返回的消息。
func errorText(err error) string {
	var ve *model.ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	return err.Error()
}

// Pager 描述分页控件。
type Pager struct {
	Page       int
	TotalPages int
}

// CanPrev 在第 1 页时为 false。
func (p Pager) CanPrev() bool { return p.Page > 1 }

// CanNext 在最后一页（或没有数据）时为 false。
func (p Pager) CanNext() bool { return p.Page < p.TotalPages }

// DocumentStore 是列表页使用的存储操作。*client.Client 实现了它。
type DocumentStore interface {
	ListDocuments(ctx context.Context, q model.DocumentQuery) (*model.Page[model.Document], error)
	DeleteDocument(ctx context.Context, id uint) error
}

// EditorStore 是编辑器使用的存储操作。
type EditorStore interface {
	GetDocument(ctx context.Context, id uint) (*model.Document, error)
	CreateDocument(ctx context.Context, in model.DocumentInput) (*model.Document, error)
	UpdateDocument(ctx context.Context, id uint, in model.DocumentInput) (*model.Document, error)
	AllTags(ctx context.Context) ([]model.Tag, error)
}

// TagStore 是标签管理页使用的存储操作。
type TagStore interface {
	ListTags(ctx context.Context, q model.TagQuery) (*model.Page[model.Tag], error)
	CreateTag(ctx context.Context, name string) (*model.Tag, error)
	DeleteTag(ctx context.Context, id string) error
}

// IdentityStore 返回当前登录用户，未登录时返回 model.ErrUnauthorized。
type IdentityStore interface {
	Me(ctx context.Context) (*model.User, error)
}
