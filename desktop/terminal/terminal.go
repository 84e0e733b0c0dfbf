// Package terminal 基于 tcell 的终端 UI 框架绑定
package terminal

import (
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/gocrud/uihost/desktop"
)

// Application 终端窗口；Esc 或 Ctrl-C 视为用户关闭窗口
type Application struct {
	screen  tcell.Screen
	factory func() (tcell.Screen, error)
	title   string
	render  func(s tcell.Screen)
	onKey   func(ev *tcell.EventKey) bool

	mu        sync.Mutex
	finalized bool
	exiting   bool
}

var _ desktop.Framework = (*Application)(nil)

// Option Application 选项
type Option func(*Application)

// WithScreen 使用现成的屏幕（测试中传入 SimulationScreen）
func WithScreen(s tcell.Screen) Option {
	return func(a *Application) {
		a.screen = s
	}
}

// WithTitle 默认渲染器显示的标题
func WithTitle(title string) Option {
	return func(a *Application) {
		a.title = title
	}
}

// WithRenderer 替换默认渲染器，在 UI 线程上调用
func WithRenderer(render func(s tcell.Screen)) Option {
	return func(a *Application) {
		a.render = render
	}
}

// WithKeyHandler 按键回调，返回 true 表示已处理，不再做默认处理
func WithKeyHandler(fn func(ev *tcell.EventKey) bool) Option {
	return func(a *Application) {
		a.onKey = fn
	}
}

// New 创建终端应用
func New(opts ...Option) *Application {
	a := &Application{
		factory: tcell.NewScreen,
		title:   "uihost",
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.render == nil {
		a.render = a.drawTitle
	}
	return a
}

// BeforeStart 初始化屏幕，失败时 panic
func (a *Application) BeforeStart() {
	if a.screen == nil {
		s, err := a.factory()
		if err != nil {
			panic(fmt.Errorf("terminal: create screen: %w", err))
		}
		a.screen = s
	}
	if err := a.screen.Init(); err != nil {
		panic(fmt.Errorf("terminal: init screen: %w", err))
	}
}

// Run 处理屏幕事件直到窗口关闭或 Exit
func (a *Application) Run() {
	defer a.finalize()

	a.draw()
	for {
		switch ev := a.screen.PollEvent().(type) {
		case nil:
			// 屏幕已关闭
			return
		case *tcell.EventInterrupt:
			if fn, ok := ev.Data().(func()); ok {
				fn()
			}
			if a.isExiting() {
				return
			}
		case *tcell.EventResize:
			a.screen.Sync()
			a.draw()
		case *tcell.EventKey:
			if a.onKey != nil && a.onKey(ev) {
				a.draw()
				continue
			}
			if ev.Key() == tcell.KeyEsc || ev.Key() == tcell.KeyCtrlC {
				return
			}
		}
	}
}

// Post 通过 EventInterrupt 把 fn 送到事件循环
func (a *Application) Post(fn func()) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.finalized || a.screen == nil {
		return desktop.ErrLoopClosed
	}
	if err := a.screen.PostEvent(tcell.NewEventInterrupt(fn)); err != nil {
		return fmt.Errorf("terminal: post event: %w", err)
	}
	return nil
}

// Exit 关闭屏幕，PollEvent 随后返回 nil
func (a *Application) Exit() {
	a.mu.Lock()
	a.exiting = true
	a.mu.Unlock()
	a.finalize()
}

// Redraw 重新渲染，只能在 UI 线程上调用（例如通过 Thread.Dispatch）
func (a *Application) Redraw() {
	if a.screen == nil {
		return
	}
	a.draw()
}

// Screen 返回底层屏幕，BeforeStart 之前可能为 nil
func (a *Application) Screen() tcell.Screen {
	return a.screen
}

func (a *Application) isExiting() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.exiting
}

func (a *Application) finalize() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.finalized || a.screen == nil {
		return
	}
	a.finalized = true
	a.screen.Fini()
}

func (a *Application) draw() {
	a.render(a.screen)
	a.screen.Show()
}

func (a *Application) drawTitle(s tcell.Screen) {
	s.Clear()
	style := tcell.StyleDefault.Bold(true)
	for i, r := range []rune(a.title) {
		s.SetContent(i, 0, r, nil, style)
	}
	hint := "Esc: quit"
	for i, r := range []rune(hint) {
		s.SetContent(i, 1, r, nil, tcell.StyleDefault)
	}
}
