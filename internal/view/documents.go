package view

import (
	"context"
	"docbase-go/internal/model"
	"docbase-go/pkg/log"
	"sync"
)

// Variant 是文档列表的两种展示方式。
type Variant int

const (
	// TableVariant 每页 5 行，显示标签，支持行删除。
	TableVariant Variant = iota
	// CardVariant 每页 6 张卡片，只读。
	CardVariant
)

// PageSize 返回该展示方式的每页条数。
func (v Variant) PageSize() int {
	if v == CardVariant {
		return 6
	}
	return 5
}

// AllowsDelete 表示是否显示行删除按钮。
func (v Variant) AllowsDelete() bool { return v == TableVariant }

// ShowsTags 表示是否显示标签列。
func (v Variant) ShowsTags() bool { return v == TableVariant }

// Row 是列表中的一行，加载中时为骨架占位。
type Row struct {
	Skeleton bool
	Document model.Document
}

// ListState 是文档列表页的状态。
type ListState struct {
	Variant       Variant
	Filter        string
	Page          int
	TotalPages    int
	Total         int64
	Rows          []model.Document
	Loading       bool
	Gen           uint64
	PendingDelete *model.Document
	Notice        *Notice
}

// NewListState 返回第 1 页、无过滤条件的初始状态。
func NewListState(v Variant) ListState {
	return ListState{Variant: v, Page: 1}
}

// Pager 返回分页控件状态。
func (s ListState) Pager() Pager {
	return Pager{Page: s.Page, TotalPages: s.TotalPages}
}

// VisibleRows 返回应渲染的行。加载中时返回 PageSize 个骨架，不显示旧数据。
func (s ListState) VisibleRows() []Row {
	if s.Loading {
		rows := make([]Row, s.Variant.PageSize())
		for i := range rows {
			rows[i].Skeleton = true
		}
		return rows
	}
	rows := make([]Row, 0, len(s.Rows))
	for _, d := range s.Rows {
		rows = append(rows, Row{Document: d})
	}
	return rows
}

// ListEvent 是文档列表页的事件。
type ListEvent interface{ listEvent() }

type (
	// FilterChanged 修改标题过滤条件，页码回到 1。
	FilterChanged struct{ Filter string }

	// NextPage 和 PrevPage 在对应按钮禁用时被忽略。
	NextPage struct{}
	PrevPage struct{}

	// PageRequested 跳转到指定页，页码被限制在 [1, max(1, TotalPages)]。
	PageRequested struct{ Page int }

	// ListFetchStarted 开始一次新的加载并递增 Gen。
	ListFetchStarted struct{}

	ListFetchSucceeded struct {
		Gen    uint64
		Result *model.Page[model.Document]
	}

	ListFetchFailed struct {
		Gen uint64
		Err error
	}

	// DocumentDeleteRequested 打开删除确认框。
	DocumentDeleteRequested struct{ Document model.Document }
	DocumentDeleteCancelled struct{}
	DocumentDeleteSucceeded struct{}
	DocumentDeleteFailed    struct{ Err error }
	NoticeDismissed         struct{}
)

func (FilterChanged) listEvent()           {}
func (NextPage) listEvent()                {}
func (PrevPage) listEvent()                {}
func (PageRequested) listEvent()           {}
func (ListFetchStarted) listEvent()        {}
func (ListFetchSucceeded) listEvent()      {}
func (ListFetchFailed) listEvent()         {}
func (DocumentDeleteRequested) listEvent() {}
func (DocumentDeleteCancelled) listEvent() {}
func (DocumentDeleteSucceeded) listEvent() {}
func (DocumentDeleteFailed) listEvent()    {}
func (NoticeDismissed) listEvent()         {}

// ReduceList 是文档列表页的状态转换函数。
func ReduceList(s ListState, e ListEvent) ListState {
	switch ev := e.(type) {
	case FilterChanged:
		s.Filter = ev.Filter
		s.Page = 1
	case NextPage:
		if s.Pager().CanNext() {
			s.Page++
		}
	case PrevPage:
		if s.Pager().CanPrev() {
			s.Page--
		}
	case PageRequested:
		s.Page = model.ClampPage(ev.Page, s.TotalPages)
	case ListFetchStarted:
		s.Gen++
		s.Loading = true
	case ListFetchSucceeded:
		if ev.Gen != s.Gen || ev.Result == nil {
			return s
		}
		s.Loading = false
		s.Rows = ev.Result.Content
		s.Total = ev.Result.TotalElements
		s.TotalPages = ev.Result.TotalPages
		s.Page = model.ClampPage(ev.Result.Number, s.TotalPages)
	case ListFetchFailed:
		if ev.Gen != s.Gen {
			return s
		}
		s.Loading = false
		s.Notice = errorNotice(ev.Err)
	case DocumentDeleteRequested:
		if s.Variant.AllowsDelete() {
			doc := ev.Document
			s.PendingDelete = &doc
		}
	case DocumentDeleteCancelled:
		s.PendingDelete = nil
	case DocumentDeleteSucceeded:
		s.PendingDelete = nil
		s.Notice = infoNotice("Document deleted")
	case DocumentDeleteFailed:
		s.PendingDelete = nil
		s.Notice = errorNotice(ev.Err)
	case NoticeDismissed:
		s.Notice = nil
	}
	return s
}

// DocumentList 是文档列表页的控制器，并发安全。
type DocumentList struct {
	store DocumentStore

	mu    sync.Mutex
	state ListState
}

// NewDocumentList 创建列表控制器，调用方随后调用 Refresh 发起首次加载。
func NewDocumentList(store DocumentStore, v Variant) *DocumentList {
	return &DocumentList{store: store, state: NewListState(v)}
}

// State 返回当前状态的快照。
func (l *DocumentList) State() ListState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func (l *DocumentList) dispatch(e ListEvent) (before, after ListState) {
	l.mu.Lock()
	defer l.mu.Unlock()
	before = l.state
	l.state = ReduceList(l.state, e)
	return before, l.state
}

// Refresh 按当前过滤条件和页码重新加载。
func (l *DocumentList) Refresh(ctx context.Context) error {
	_, s := l.dispatch(ListFetchStarted{})
	page, err := l.store.ListDocuments(ctx, model.DocumentQuery{
		Title: s.Filter,
		Page:  s.Page,
		Size:  s.Variant.PageSize(),
	})
	if err != nil {
		log.Warnf("加载文档列表失败: %v", err)
		l.dispatch(ListFetchFailed{Gen: s.Gen, Err: err})
		return err
	}
	l.dispatch(ListFetchSucceeded{Gen: s.Gen, Result: page})
	return nil
}

// SetFilter 修改过滤条件并从第 1 页重新加载。
func (l *DocumentList) SetFilter(ctx context.Context, filter string) error {
	l.dispatch(FilterChanged{Filter: filter})
	return l.Refresh(ctx)
}

// Next 翻到下一页，已是最后一页时不发起请求。
func (l *DocumentList) Next(ctx context.Context) error {
	return l.turn(ctx, NextPage{})
}

// Prev 翻到上一页，已是第一页时不发起请求。
func (l *DocumentList) Prev(ctx context.Context) error {
	return l.turn(ctx, PrevPage{})
}

// GoTo 跳转到指定页。页码不变时不发起请求。
func (l *DocumentList) GoTo(ctx context.Context, page int) error {
	return l.turn(ctx, PageRequested{Page: page})
}

func (l *DocumentList) turn(ctx context.Context, e ListEvent) error {
	before, after := l.dispatch(e)
	if before.Page == after.Page {
		return nil
	}
	return l.Refresh(ctx)
}

// RequestDelete 打开删除确认框。
func (l *DocumentList) RequestDelete(doc model.Document) {
	l.dispatch(DocumentDeleteRequested{Document: doc})
}

// CancelDelete 关闭删除确认框。
func (l *DocumentList) CancelDelete() {
	l.dispatch(DocumentDeleteCancelled{})
}

// ConfirmDelete 软删除待确认的文档，成功后整页重新加载。失败时列表保持不变。
func (l *DocumentList) ConfirmDelete(ctx context.Context) error {
	pending := l.State().PendingDelete
	if pending == nil {
		return nil
	}
	if err := l.store.DeleteDocument(ctx, pending.ID); err != nil {
		log.Warnf("删除文档 %d 失败: %v", pending.ID, err)
		l.dispatch(DocumentDeleteFailed{Err: err})
		return err
	}
	l.dispatch(DocumentDeleteSucceeded{})
	return l.Refresh(ctx)
}

// DismissNotice 清除提示。
func (l *DocumentList) DismissNotice() {
	l.dispatch(NoticeDismissed{})
}
