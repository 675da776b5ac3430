package view

import (
	"context"
	"docbase-go/internal/model"
	"docbase-go/pkg/log"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// BlockEditor 是富文本编辑器的内容模型。序列化格式对本包不透明。
type BlockEditor interface {
	Replace(serialized string) error
	Serialize() (string, error)
	Clear()
}

// JSONBlocks 原样保存一个 JSON 块数组，只校验它是数组。
type JSONBlocks struct {
	mu     sync.Mutex
	blocks []json.RawMessage
}

// NewJSONBlocks 返回空内容。
func NewJSONBlocks() *JSONBlocks {
	return &JSONBlocks{blocks: []json.RawMessage{}}
}

// Replace 用序列化的块数组替换全部内容，空串视为空数组。
func (b *JSONBlocks) Replace(serialized string) error {
	serialized = strings.TrimSpace(serialized)
	if serialized == "" {
		serialized = model.EmptyContent
	}
	var blocks []json.RawMessage
	if err := json.Unmarshal([]byte(serialized), &blocks); err != nil {
		return fmt.Errorf("content is not a block array: %w", err)
	}
	if blocks == nil {
		blocks = []json.RawMessage{}
	}
	b.mu.Lock()
	b.blocks = blocks
	b.mu.Unlock()
	return nil
}

// Serialize 返回当前内容的块数组。
func (b *JSONBlocks) Serialize() (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out, err := json.Marshal(b.blocks)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Clear 清空内容。
func (b *JSONBlocks) Clear() {
	b.mu.Lock()
	b.blocks = []json.RawMessage{}
	b.mu.Unlock()
}

// Append 追加一个块。
func (b *JSONBlocks) Append(block json.RawMessage) error {
	if !json.Valid(block) {
		return errors.New("block is not valid JSON")
	}
	b.mu.Lock()
	b.blocks = append(b.blocks, block)
	b.mu.Unlock()
	return nil
}

// Len 返回块的数量。
func (b *JSONBlocks) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.blocks)
}

// Mode 是编辑器的只读/编辑模式。
type Mode int

const (
	ViewMode Mode = iota
	EditMode
)

func (m Mode) String() string {
	if m == EditMode {
		return "edit"
	}
	return "view"
}

// EditorState 是文档编辑页的状态。块内容由 BlockEditor 单独持有。
// SavedID 记录最近一次保存返回的文档 ID；新建后 DocumentID 仍为 nil。
type EditorState struct {
	DocumentID *uint
	SavedID    *uint
	Mode       Mode
	Title      string
	Summary    string
	Selected   []model.TagRef
	Available  []model.Tag
	Loading    bool
	Saving     bool
	PanelOpen  bool
	Gen        uint64
	Notice     *Notice
	LoadError  string
}

// NewEditorState 返回新建文档的初始状态：编辑模式，内容为空。
func NewEditorState() EditorState {
	return EditorState{Mode: EditMode}
}

// IsNew 表示保存时是插入而不是更新。
func (s EditorState) IsNew() bool { return s.DocumentID == nil }

// CanSave 在保存进行中时为 false。
func (s EditorState) CanSave() bool { return !s.Saving && s.Mode == EditMode }

// Palette 返回可选标签，已选中的标签不出现。
func (s EditorState) Palette() []model.Tag {
	selected := make(map[string]struct{}, len(s.Selected))
	for _, t := range s.Selected {
		selected[t.ID] = struct{}{}
	}
	out := make([]model.Tag, 0, len(s.Available))
	for _, t := range s.Available {
		if _, ok := selected[t.ID]; !ok {
			out = append(out, t)
		}
	}
	return out
}

func (s EditorState) input(content string) model.DocumentInput {
	in := model.DocumentInput{
		Title:   s.Title,
		Content: content,
		Tags:    append([]model.TagRef{}, s.Selected...),
	}
	if summary := strings.TrimSpace(s.Summary); summary != "" {
		in.Summary = &summary
	}
	return in
}

// EditorEvent 是编辑页的事件。
type EditorEvent interface{ editorEvent() }

type (
	// EditorOpened 切换到已有文档，进入只读模式。
	EditorOpened      struct{ ID uint }
	EditorLoadStarted struct{}

	EditorLoaded struct {
		Gen      uint64
		Document *model.Document
	}

	EditorLoadFailed struct {
		Gen uint64
		Err error
	}

	PaletteLoaded  struct{ Tags []model.Tag }
	ModeToggled    struct{}
	TitleChanged   struct{ Title string }
	SummaryChanged struct{ Summary string }
	PanelToggled   struct{}
	TagSelected    struct{ Tag model.TagRef }
	TagRemoved     struct{ ID string }

	// SaveBlocked 在标题为空时产生，不会发起请求。
	SaveBlocked struct{}
	SaveStarted struct{}

	SaveSucceeded struct {
		Document *model.Document
		Created  bool
	}

	SaveFailed          struct{ Err error }
	EditorNoticeCleared struct{}
)

func (EditorOpened) editorEvent()        {}
func (EditorLoadStarted) editorEvent()   {}
func (EditorLoaded) editorEvent()        {}
func (EditorLoadFailed) editorEvent()    {}
func (PaletteLoaded) editorEvent()       {}
func (ModeToggled) editorEvent()         {}
func (TitleChanged) editorEvent()        {}
func (SummaryChanged) editorEvent()      {}
func (PanelToggled) editorEvent()        {}
func (TagSelected) editorEvent()         {}
func (TagRemoved) editorEvent()          {}
func (SaveBlocked) editorEvent()         {}
func (SaveStarted) editorEvent()         {}
func (SaveSucceeded) editorEvent()       {}
func (SaveFailed) editorEvent()          {}
func (EditorNoticeCleared) editorEvent() {}

// ReduceEditor 是编辑页的状态转换函数。
func ReduceEditor(s EditorState, e EditorEvent) EditorState {
	switch ev := e.(type) {
	case EditorOpened:
		id := ev.ID
		s = EditorState{DocumentID: &id, Mode: ViewMode, Available: s.Available, Gen: s.Gen}
	case EditorLoadStarted:
		s.Gen++
		s.Loading = true
		s.LoadError = ""
	case EditorLoaded:
		if ev.Gen != s.Gen || ev.Document == nil {
			return s
		}
		doc := ev.Document
		id := doc.ID
		s.DocumentID = &id
		s.Loading = false
		s.Title = doc.Title
		s.Summary = ""
		if doc.Summary != nil {
			s.Summary = *doc.Summary
		}
		s.Selected = append([]model.TagRef{}, doc.Tags...)
	case EditorLoadFailed:
		if ev.Gen != s.Gen {
			return s
		}
		s.Loading = false
		if errors.Is(ev.Err, model.ErrNotFound) {
			s.LoadError = "Document not found"
		} else {
			s.Notice = errorNotice(ev.Err)
		}
	case PaletteLoaded:
		s.Available = ev.Tags
	case ModeToggled:
		if s.Mode == EditMode {
			s.Mode = ViewMode
		} else {
			s.Mode = EditMode
		}
	case TitleChanged:
		s.Title = ev.Title
	case SummaryChanged:
		s.Summary = ev.Summary
	case PanelToggled:
		s.PanelOpen = !s.PanelOpen
	case TagSelected:
		for _, t := range s.Selected {
			if t.ID == ev.Tag.ID {
				return s
			}
		}
		s.Selected = append(append([]model.TagRef{}, s.Selected...), ev.Tag)
	case TagRemoved:
		out := make([]model.TagRef, 0, len(s.Selected))
		for _, t := range s.Selected {
			if t.ID != ev.ID {
				out = append(out, t)
			}
		}
		if len(out) != len(s.Selected) {
			s.Selected = out
		}
	case SaveBlocked:
		s.PanelOpen = true
		s.Notice = warningNotice("Title is required")
	case SaveStarted:
		s.Saving = true
		s.Notice = nil
	case SaveSucceeded:
		s.Saving = false
		if ev.Document != nil {
			id := ev.Document.ID
			s.SavedID = &id
		}
		s.Mode = ViewMode
		s.Notice = infoNotice("Document saved")
		if ev.Created {
			// 新建成功后表单回到空白，编辑器仍是新建文档编辑器
			s.Title = ""
			s.Summary = ""
			s.Selected = nil
		}
	case SaveFailed:
		s.Saving = false
		s.Notice = errorNotice(ev.Err)
	case EditorNoticeCleared:
		s.Notice = nil
	}
	return s
}

var (
	// ErrSaveInProgress 表示上一次保存尚未完成。
	ErrSaveInProgress = errors.New("save already in progress")
	// ErrNotEditing 表示编辑器处于只读模式，保存被忽略。
	ErrNotEditing     = errors.New("editor is not in edit mode")
)

// Editor 是文档编辑页的控制器，并发安全。
type Editor struct {
	store   EditorStore
	content BlockEditor

	mu    sync.Mutex
	state EditorState
}

// NewEditor 创建一个新建文档编辑器。content 为 nil 时使用 JSONBlocks。
func NewEditor(store EditorStore, content BlockEditor) *Editor {
	if content == nil {
		content = NewJSONBlocks()
	}
	content.Clear()
	return &Editor{store: store, content: content, state: NewEditorState()}
}

// State 返回当前状态的快照。
func (e *Editor) State() EditorState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Content 返回块内容。
func (e *Editor) Content() BlockEditor { return e.content }

func (e *Editor) dispatch(ev EditorEvent) EditorState {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = ReduceEditor(e.state, ev)
	return e.state
}

// Open 加载已有文档并进入只读模式。
func (e *Editor) Open(ctx context.Context, id uint) error {
	e.dispatch(EditorOpened{ID: id})
	return e.Reload(ctx)
}

// Reload 重新获取当前文档。新建文档时什么也不做。
func (e *Editor) Reload(ctx context.Context) error {
	if e.State().DocumentID == nil {
		return nil
	}
	s := e.dispatch(EditorLoadStarted{})
	doc, err := e.store.GetDocument(ctx, *s.DocumentID)
	if err != nil {
		log.Warnf("加载文档 %d 失败: %v", *s.DocumentID, err)
		e.dispatch(EditorLoadFailed{Gen: s.Gen, Err: err})
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if s.Gen != e.state.Gen {
		return nil
	}
	if err := e.content.Replace(doc.Content); err != nil {
		e.state = ReduceEditor(e.state, EditorLoadFailed{Gen: s.Gen, Err: err})
		return err
	}
	e.state = ReduceEditor(e.state, EditorLoaded{Gen: s.Gen, Document: doc})
	return nil
}

// LoadPalette 获取全部标签作为可选项。
func (e *Editor) LoadPalette(ctx context.Context) error {
	tags, err := e.store.AllTags(ctx)
	if err != nil {
		log.Warnf("加载标签失败: %v", err)
		return err
	}
	e.dispatch(PaletteLoaded{Tags: tags})
	return nil
}

// Toggle 在只读与编辑模式之间切换，不重新获取数据。
func (e *Editor) Toggle() { e.dispatch(ModeToggled{}) }

// SetTitle 修改标题。
func (e *Editor) SetTitle(title string) { e.dispatch(TitleChanged{Title: title}) }

// SetSummary 修改摘要。
func (e *Editor) SetSummary(summary string) { e.dispatch(SummaryChanged{Summary: summary}) }

// TogglePanel 打开或关闭元数据侧栏。
func (e *Editor) TogglePanel() { e.dispatch(PanelToggled{}) }

// SelectTag 把标签加入选择，已选中时无操作。
func (e *Editor) SelectTag(tag model.Tag) { e.dispatch(TagSelected{Tag: tag.Ref()}) }

// RemoveTag 把标签移出选择，未选中时无操作。
func (e *Editor) RemoveTag(id string) { e.dispatch(TagRemoved{ID: id}) }

// Save 保存文档。标题为空时不发起任何请求，打开侧栏并返回校验错误。
// 新建文档执行一次插入，已有文档执行一次更新。只读模式下返回 ErrNotEditing。
func (e *Editor) Save(ctx context.Context) error {
	e.mu.Lock()
	if e.state.Saving {
		e.mu.Unlock()
		return ErrSaveInProgress
	}
	if e.state.Mode != EditMode {
		e.mu.Unlock()
		return ErrNotEditing
	}
	if err := (model.DocumentInput{Title: e.state.Title}).Validate(); err != nil {
		e.state = ReduceEditor(e.state, SaveBlocked{})
		e.mu.Unlock()
		return err
	}
	content, err := e.content.Serialize()
	if err != nil {
		e.state = ReduceEditor(e.state, SaveFailed{Err: err})
		e.mu.Unlock()
		return err
	}
	e.state = ReduceEditor(e.state, SaveStarted{})
	s := e.state
	e.mu.Unlock()

	in := s.input(content)
	var doc *model.Document
	if s.IsNew() {
		doc, err = e.store.CreateDocument(ctx, in)
	} else {
		doc, err = e.store.UpdateDocument(ctx, *s.DocumentID, in)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		log.Warnf("保存文档失败: %v", err)
		e.state = ReduceEditor(e.state, SaveFailed{Err: err})
		return err
	}
	e.state = ReduceEditor(e.state, SaveSucceeded{Document: doc, Created: s.IsNew()})
	if s.IsNew() {
		e.content.Clear()
	}
	return nil
}
