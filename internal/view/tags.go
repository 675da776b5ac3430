package view

import (
	"context"
	"docbase-go/internal/model"
	"docbase-go/pkg/log"
	"strings"
	"sync"
)

// TagPageSize 是标签管理页的每页条数。
const TagPageSize = 10

// TagsState 是标签管理页的状态。
type TagsState struct {
	Filter        string
	Page          int
	TotalPages    int
	Total         int64
	Rows          []model.Tag
	Loading       bool
	Gen           uint64
	DialogOpen    bool
	FormName      string
	Creating      bool
	PendingDelete *model.Tag
	Notice        *Notice
}

// NewTagsState 返回第 1 页的初始状态。
func NewTagsState() TagsState {
	return TagsState{Page: 1}
}

// Pager 返回分页控件状态。
func (s TagsState) Pager() Pager {
	return Pager{Page: s.Page, TotalPages: s.TotalPages}
}

// ConfirmText 返回删除确认框上的提示，没有待删除标签时为空。
func (s TagsState) ConfirmText() string {
	if s.PendingDelete == nil {
		return ""
	}
	return "Delete tag \"" + s.PendingDelete.TagName + "\"? This cannot be undone."
}

// TagsEvent 是标签管理页的事件。
type TagsEvent interface{ tagsEvent() }

type (
	TagFilterChanged struct{ Filter string }

	// TagPageRequested 跳转到指定页，页码被限制在有效范围内。
	TagPageRequested struct{ Page int }

	TagFetchStarted struct{}

	TagFetchSucceeded struct {
		Gen    uint64
		Result *model.Page[model.Tag]
	}

	TagFetchFailed struct {
		Gen uint64
		Err error
	}

	CreateDialogOpened  struct{}
	CreateDialogClosed  struct{}
	TagFormChanged      struct{ Name string }
	TagCreateBlocked    struct{ Err error }
	TagCreateStarted    struct{}
	TagCreateSucceeded  struct{ Tag *model.Tag }
	TagCreateFailed     struct{ Err error }
	TagDeleteRequested  struct{ Tag model.Tag }
	TagDeleteCancelled  struct{}
	TagDeleteSucceeded  struct{}
	TagDeleteFailed     struct{ Err error }
	TagsNoticeDismissed struct{}
)

func (TagFilterChanged) tagsEvent()    {}
func (TagPageRequested) tagsEvent()    {}
func (TagFetchStarted) tagsEvent()     {}
func (TagFetchSucceeded) tagsEvent()   {}
func (TagFetchFailed) tagsEvent()      {}
func (CreateDialogOpened) tagsEvent()  {}
func (CreateDialogClosed) tagsEvent()  {}
func (TagFormChanged) tagsEvent()      {}
func (TagCreateBlocked) tagsEvent()    {}
func (TagCreateStarted) tagsEvent()    {}
func (TagCreateSucceeded) tagsEvent()  {}
func (TagCreateFailed) tagsEvent()     {}
func (TagDeleteRequested) tagsEvent()  {}
func (TagDeleteCancelled) tagsEvent()  {}
func (TagDeleteSucceeded) tagsEvent()  {}
func (TagDeleteFailed) tagsEvent()     {}
func (TagsNoticeDismissed) tagsEvent() {}

// ReduceTags 是标签管理页的状态转换函数。
func ReduceTags(s TagsState, e TagsEvent) TagsState {
	switch ev := e.(type) {
	case TagFilterChanged:
		s.Filter = ev.Filter
		s.Page = 1
	case TagPageRequested:
		s.Page = model.ClampPage(ev.Page, s.TotalPages)
	case TagFetchStarted:
		s.Gen++
		s.Loading = true
	case TagFetchSucceeded:
		if ev.Gen != s.Gen || ev.Result == nil {
			return s
		}
		s.Loading = false
		s.Rows = ev.Result.Content
		s.Total = ev.Result.TotalElements
		s.TotalPages = ev.Result.TotalPages
		s.Page = model.ClampPage(ev.Result.Number, s.TotalPages)
	case TagFetchFailed:
		if ev.Gen != s.Gen {
			return s
		}
		s.Loading = false
		s.Notice = errorNotice(ev.Err)
	case CreateDialogOpened:
		s.DialogOpen = true
	case CreateDialogClosed:
		s.DialogOpen = false
		s.FormName = ""
	case TagFormChanged:
		s.FormName = ev.Name
	case TagCreateBlocked:
		s.Notice = &Notice{Level: NoticeWarning, Text: errorText(ev.Err)}
	case TagCreateStarted:
		s.Creating = true
	case TagCreateSucceeded:
		s.Creating = false
		s.DialogOpen = false
		s.FormName = ""
		name := ""
		if ev.Tag != nil {
			name = ev.Tag.TagName
		}
		s.Notice = infoNotice("Tag \"" + name + "\" created")
	case TagCreateFailed:
		s.Creating = false
		s.Notice = errorNotice(ev.Err)
	case TagDeleteRequested:
		tag := ev.Tag
		s.PendingDelete = &tag
	case TagDeleteCancelled:
		s.PendingDelete = nil
	case TagDeleteSucceeded:
		s.PendingDelete = nil
		s.Notice = infoNotice("Tag deleted")
	case TagDeleteFailed:
		s.PendingDelete = nil
		s.Notice = errorNotice(ev.Err)
	case TagsNoticeDismissed:
		s.Notice = nil
	}
	return s
}

// TagManager 是标签管理页的控制器，并发安全。
type TagManager struct {
	store TagStore

	mu    sync.Mutex
	state TagsState
}

// NewTagManager 创建标签管理控制器。
func NewTagManager(store TagStore) *TagManager {
	return &TagManager{store: store, state: NewTagsState()}
}

// State 返回当前状态的快照。
func (m *TagManager) State() TagsState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *TagManager) dispatch(e TagsEvent) (before, after TagsState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	before = m.state
	m.state = ReduceTags(m.state, e)
	return before, m.state
}

// Refresh 按当前过滤条件和页码重新加载。
func (m *TagManager) Refresh(ctx context.Context) error {
	_, s := m.dispatch(TagFetchStarted{})
	page, err := m.store.ListTags(ctx, model.TagQuery{Name: s.Filter, Page: s.Page, Size: TagPageSize})
	if err != nil {
		log.Warnf("加载标签列表失败: %v", err)
		m.dispatch(TagFetchFailed{Gen: s.Gen, Err: err})
		return err
	}
	m.dispatch(TagFetchSucceeded{Gen: s.Gen, Result: page})
	return nil
}

// SetFilter 修改过滤条件并从第 1 页重新加载。
func (m *TagManager) SetFilter(ctx context.Context, filter string) error {
	m.dispatch(TagFilterChanged{Filter: filter})
	return m.Refresh(ctx)
}

// GoTo 跳转到指定页。页码不变时不发起请求。
func (m *TagManager) GoTo(ctx context.Context, page int) error {
	before, after := m.dispatch(TagPageRequested{Page: page})
	if before.Page == after.Page {
		return nil
	}
	return m.Refresh(ctx)
}

// Next 翻到下一页。
func (m *TagManager) Next(ctx context.Context) error {
	p := m.State().Pager()
	if !p.CanNext() {
		return nil
	}
	return m.GoTo(ctx, p.Page+1)
}

// Prev 翻到上一页。
func (m *TagManager) Prev(ctx context.Context) error {
	p := m.State().Pager()
	if !p.CanPrev() {
		return nil
	}
	return m.GoTo(ctx, p.Page-1)
}

// OpenCreateDialog 打开创建对话框。
func (m *TagManager) OpenCreateDialog() { m.dispatch(CreateDialogOpened{}) }

// CloseCreateDialog 关闭创建对话框并重置表单。
func (m *TagManager) CloseCreateDialog() { m.dispatch(CreateDialogClosed{}) }

// SetFormName 修改对话框中的标签名。
func (m *TagManager) SetFormName(name string) { m.dispatch(TagFormChanged{Name: name}) }

// Create 创建标签。名称为空时不发起任何请求；成功后重新加载当前页。
func (m *TagManager) Create(ctx context.Context, name string) error {
	if err := model.ValidateTagName(name); err != nil {
		m.dispatch(TagCreateBlocked{Err: err})
		return err
	}
	m.dispatch(TagCreateStarted{})
	tag, err := m.store.CreateTag(ctx, strings.TrimSpace(name))
	if err != nil {
		log.Warnf("创建标签失败: %v", err)
		m.dispatch(TagCreateFailed{Err: err})
		return err
	}
	m.dispatch(TagCreateSucceeded{Tag: tag})
	return m.Refresh(ctx)
}

// SubmitCreateDialog 用对话框中的名称创建标签。
func (m *TagManager) SubmitCreateDialog(ctx context.Context) error {
	return m.Create(ctx, m.State().FormName)
}

// RequestDelete 打开确认框。
func (m *TagManager) RequestDelete(tag model.Tag) { m.dispatch(TagDeleteRequested{Tag: tag}) }

// CancelDelete 关闭确认框。
func (m *TagManager) CancelDelete() { m.dispatch(TagDeleteCancelled{}) }

// ConfirmDelete 删除待确认的标签并重新加载，无法撤销。
func (m *TagManager) ConfirmDelete(ctx context.Context) error {
	pending := m.State().PendingDelete
	if pending == nil {
		return nil
	}
	if err := m.store.DeleteTag(ctx, pending.ID); err != nil {
		log.Warnf("删除标签 %s 失败: %v", pending.ID, err)
		m.dispatch(TagDeleteFailed{Err: err})
		return err
	}
	m.dispatch(TagDeleteSucceeded{})
	return m.Refresh(ctx)
}
