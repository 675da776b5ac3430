package view

import (
	"context"
	"docbase-go/internal/model"
	"docbase-go/pkg/log"
	"errors"
	"strconv"
	"strings"
	"sync"
)

// ChatPhase 是聊天页所处的阶段。
type ChatPhase int

const (
	// ChatLoading 表示身份或聊天对象尚未确定，此时不渲染任何内容。
	ChatLoading ChatPhase = iota
	// ChatRedirectLogin 表示未登录，应跳转到登录入口。
	ChatRedirectLogin
	// ChatReady 表示可以交给 ThreadRenderer 渲染。
	ChatReady
)

func (p ChatPhase) String() string {
	switch p {
	case ChatRedirectLogin:
		return "redirect-login"
	case ChatReady:
		return "ready"
	default:
		return "loading"
	}
}

// ThreadRenderer 渲染 (caller, counterpart) 之间的消息线程。
type ThreadRenderer interface {
	RenderThread(ctx context.Context, caller model.User, counterpartID uint) error
}

// ChatState 是聊天页的状态。
type ChatState struct {
	Phase         ChatPhase
	Caller        *model.User
	CounterpartID uint
	RouteError    string
	Notice        *Notice
}

// ChatEvent 是聊天页的事件。
type ChatEvent interface{ chatEvent() }

type (
	IdentityResolved    struct{ User *model.User }
	IdentityMissing     struct{}
	IdentityFailed      struct{ Err error }
	CounterpartResolved struct{ ID uint }
	CounterpartInvalid  struct{ Raw string }
)

func (IdentityResolved) chatEvent()    {}
func (IdentityMissing) chatEvent()     {}
func (IdentityFailed) chatEvent()      {}
func (CounterpartResolved) chatEvent() {}
func (CounterpartInvalid) chatEvent()  {}

// ReduceChat 是聊天页的状态转换函数。
func ReduceChat(s ChatState, e ChatEvent) ChatState {
	switch ev := e.(type) {
	case IdentityResolved:
		s.Caller = ev.User
	case IdentityMissing:
		s.Caller = nil
		s.Phase = ChatRedirectLogin
		return s
	case IdentityFailed:
		s.Notice = errorNotice(ev.Err)
	case CounterpartResolved:
		s.CounterpartID = ev.ID
		s.RouteError = ""
	case CounterpartInvalid:
		s.CounterpartID = 0
		s.RouteError = "Invalid chat counterpart: " + ev.Raw
	}
	if s.Phase == ChatRedirectLogin {
		return s
	}
	if s.Caller != nil && s.CounterpartID != 0 {
		s.Phase = ChatReady
	} else {
		s.Phase = ChatLoading
	}
	return s
}

// ParseCounterpart 解析路由中的聊天对象标识。
func ParseCounterpart(raw string) (uint, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || id == 0 {
		return 0, model.NewValidationError("receiverId", "Invalid chat counterpart")
	}
	return uint(id), nil
}

// ChatView 是聊天页的控制器。
type ChatView struct {
	identity IdentityStore
	renderer ThreadRenderer

	mu    sync.Mutex
	state ChatState
}

// NewChatView 创建聊天页控制器。
func NewChatView(identity IdentityStore, renderer ThreadRenderer) *ChatView {
	return &ChatView{identity: identity, renderer: renderer}
}

// State 返回当前状态的快照。
func (v *ChatView) State() ChatState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

func (v *ChatView) dispatch(e ChatEvent) ChatState {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state = ReduceChat(v.state, e)
	return v.state
}

// Open 解析路由参数并确认身份。两者都就绪后调用 ThreadRenderer，
// 未登录时进入 ChatRedirectLogin 并返回 model.ErrUnauthorized。
func (v *ChatView) Open(ctx context.Context, route string) error {
	id, err := ParseCounterpart(route)
	if err != nil {
		v.dispatch(CounterpartInvalid{Raw: route})
	} else {
		v.dispatch(CounterpartResolved{ID: id})
	}

	user, meErr := v.identity.Me(ctx)
	switch {
	case errors.Is(meErr, model.ErrUnauthorized):
		v.dispatch(IdentityMissing{})
		return model.ErrUnauthorized
	case meErr != nil:
		log.Warnf("获取当前用户失败: %v", meErr)
		v.dispatch(IdentityFailed{Err: meErr})
		return meErr
	case user == nil:
		v.dispatch(IdentityMissing{})
		return model.ErrUnauthorized
	}

	s := v.dispatch(IdentityResolved{User: user})
	if err != nil {
		return err
	}
	if s.Phase != ChatReady {
		return nil
	}
	return v.renderer.RenderThread(ctx, *s.Caller, s.CounterpartID)
}
