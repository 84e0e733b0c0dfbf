package desktop

import (
	"errors"
	"sync"
)

// ErrLoopClosed UI 循环已经退出，无法再投递回调
var ErrLoopClosed = errors.New("desktop: ui loop closed")

// Framework 具体 UI 框架需要提供的能力
type Framework interface {
	// BeforeStart 在 UI 线程上、闸门打开前调用一次
	BeforeStart()
	// Run 运行 UI 循环，窗口关闭或 Exit 后返回
	Run()
	// Post 把 fn 投递到 UI 线程执行，不等待执行完成
	// 循环已退出时返回 ErrLoopClosed
	Post(fn func()) error
	// Exit 在 UI 线程上调用，使 Run 返回
	Exit()
}

// UserInterface 托管服务对 UI 线程的依赖
type UserInterface interface {
	StartUserInterface()
	StopUserInterface() <-chan error
}

// Loop 无界面的消息循环，按投递顺序在 UI 线程上执行回调
type Loop struct {
	queue    chan func()
	quit     chan struct{}
	quitOnce sync.Once

	// OnBeforeStart 可选，BeforeStart 时在 UI 线程上调用
	OnBeforeStart func()
}

var _ Framework = (*Loop)(nil)

// NewLoop 创建消息循环
func NewLoop() *Loop {
	return &Loop{
		queue: make(chan func(), 64),
		quit:  make(chan struct{}),
	}
}

func (l *Loop) BeforeStart() {
	if l.OnBeforeStart != nil {
		l.OnBeforeStart()
	}
}

func (l *Loop) Run() {
	for {
		// quit 优先，退出后不再执行排队的回调
		select {
		case <-l.quit:
			return
		default:
		}

		select {
		case fn := <-l.queue:
			fn()
		case <-l.quit:
			return
		}
	}
}

func (l *Loop) Post(fn func()) error {
	select {
	case <-l.quit:
		return ErrLoopClosed
	default:
	}

	select {
	case l.queue <- fn:
		return nil
	case <-l.quit:
		return ErrLoopClosed
	}
}

func (l *Loop) Exit() {
	l.quitOnce.Do(func() { close(l.quit) })
}

// Close 模拟用户关闭窗口，可在任意 goroutine 调用
func (l *Loop) Close() {
	l.Exit()
}

// Closed 循环退出后关闭
func (l *Loop) Closed() <-chan struct{} {
	return l.quit
}
