package desktop

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/gocrud/uihost/hosting"
	"github.com/gocrud/uihost/logging"
)

// ErrNotRunning UI 循环未运行
var ErrNotRunning = errors.New("desktop: user interface is not running")

// Thread 专用 UI 线程
//
// 创建后 goroutine 立即锁定到一个 OS 线程，执行 BeforeStart 后停在闸门处；
// StartUserInterface 放行后运行 UI 循环，循环返回后置完成信号。
// 状态：CREATED -> WAITING_FOR_GATE -> RUNNING -> COMPLETED，不可重启。
type Thread struct {
	hctx     *HostingContext
	lifetime hosting.ApplicationLifetime
	fw       Framework
	logger   logging.Logger

	gate      chan struct{}
	gateOnce  sync.Once
	opened    atomic.Bool
	closed    chan struct{}
	closeOnce sync.Once
	done      chan struct{}

	mu       sync.Mutex
	stop     *stopFuture
	finished bool
}

var _ UserInterface = (*Thread)(nil)

// NewThread 创建 UI 线程；goroutine 立即启动并停在闸门处
func NewThread(lifetime hosting.ApplicationLifetime, hctx *HostingContext, fw Framework, lf logging.LoggerFactory) *Thread {
	if lifetime == nil || hctx == nil || fw == nil {
		panic("desktop: NewThread requires a lifetime, a hosting context and a framework")
	}

	t := &Thread{
		hctx:     hctx,
		lifetime: lifetime,
		fw:       fw,
		logger:   logging.CreateLogger(lf, "UserInterfaceThread"),
		gate:     make(chan struct{}),
		closed:   make(chan struct{}),
		done:     make(chan struct{}),
	}
	go t.run()
	return t
}

// HostingContext 返回共享状态
func (t *Thread) HostingContext() *HostingContext {
	return t.hctx
}

// StartUserInterface 打开闸门，立即返回；重复调用无效果
func (t *Thread) StartUserInterface() {
	t.gateOnce.Do(func() {
		t.opened.Store(true)
		close(t.gate)
	})
}

// StopUserInterface 请求 UI 循环退出
//
// UI 未运行时返回已完成的结果。否则把一次 Exit 投递到 UI 线程，
// 回调执行后结果完成；回调 panic 或投递失败时结果为错误。
// 无论调用多少次只投递一次，之后的调用得到同一结果。
func (t *Thread) StopUserInterface() <-chan error {
	if !t.hctx.IsRunning() {
		return completed(nil)
	}

	fw := t.hctx.Application()
	if fw == nil {
		panic("desktop: user interface is running but no framework is attached")
	}

	t.mu.Lock()
	if t.finished {
		t.mu.Unlock()
		return completed(nil)
	}
	if t.stop != nil {
		stop := t.stop
		t.mu.Unlock()
		return stop.result()
	}
	stop := newStopFuture()
	t.stop = stop
	t.mu.Unlock()

	err := fw.Post(func() {
		defer func() {
			if r := recover(); r != nil {
				stop.complete(fmt.Errorf("desktop: exit callback panicked: %v", r))
			}
		}()
		fw.Exit()
		stop.complete(nil)
	})
	// 循环已在退出，结果由完成处理设置
	if err != nil && !errors.Is(err, ErrLoopClosed) {
		stop.complete(fmt.Errorf("desktop: post exit callback: %w", err))
	}

	return stop.result()
}

// Dispatch 在 UI 运行时把 fn 投递到 UI 线程
func (t *Thread) Dispatch(fn func()) error {
	if !t.hctx.IsRunning() {
		return ErrNotRunning
	}
	fw := t.hctx.Application()
	if fw == nil {
		return ErrNotRunning
	}
	return fw.Post(fn)
}

// AwaitCompletion 阻塞到 UI 线程结束；结束后调用立即返回
func (t *Thread) AwaitCompletion() {
	<-t.done
}

// AwaitCompletionContext 同 AwaitCompletion，ctx 结束时返回 ctx.Err()
func (t *Thread) AwaitCompletionContext(ctx context.Context) error {
	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done UI 线程结束后关闭
func (t *Thread) Done() <-chan struct{} {
	return t.done
}

// Close 释放闸门。闸门从未打开时 UI 线程直接退出，不运行 UI 也不请求宿主退出；
// 闸门已打开但循环尚未开始时跳过循环，随后照常执行完成处理；
// UI 正在运行时不做任何事。
func (t *Thread) Close() error {
	t.closeOnce.Do(func() { close(t.closed) })
	return nil
}

func (t *Thread) run() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	prepared := t.beforeStart()

	select {
	case <-t.gate:
	case <-t.closed:
		// 闸门已打开时交给下面的检查
		if !t.opened.Load() {
			t.logger.Debug("User interface thread released without starting.")
			close(t.done)
			return
		}
	}

	// 闸门已打开但宿主在循环开始前已经 Close，不再进入循环
	select {
	case <-t.closed:
		if prepared {
			t.logger.Debug("User interface thread closed before the loop started.")
		}
		prepared = false
	default:
	}

	if prepared {
		t.hctx.setRunning(true)
		t.logger.Debug("User interface thread started.")
		t.runLoop()
	}
	t.complete()
}

func (t *Thread) beforeStart() (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("User interface initialization failed.", logging.Field{Key: "panic", Value: fmt.Sprint(r)})
			ok = false
		}
	}()
	t.fw.BeforeStart()
	t.hctx.attach(t.fw)
	return true
}

func (t *Thread) runLoop() {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("User interface loop panicked.", logging.Field{Key: "panic", Value: fmt.Sprint(r)})
		}
	}()
	t.fw.Run()
}

// complete 在 UI 线程上执行，且只执行一次
func (t *Thread) complete() {
	t.hctx.setRunning(false)

	t.mu.Lock()
	t.finished = true
	stop := t.stop
	t.mu.Unlock()

	if t.hctx.IsLifetimeLinked() {
		t.logger.Debug("Stopping host application due to user interface thread exit.")
		if !t.lifetime.IsStopping() && !t.lifetime.IsStopped() {
			t.lifetime.StopApplication()
		}
	}

	// 退出回调未执行循环就结束了
	if stop != nil {
		stop.complete(nil)
	}
	close(t.done)
}

// stopFuture 一次性结果，可被多次读取
type stopFuture struct {
	once sync.Once
	done chan struct{}
	err  error
}

func newStopFuture() *stopFuture {
	return &stopFuture{done: make(chan struct{})}
}

func (f *stopFuture) complete(err error) {
	f.once.Do(func() {
		f.err = err
		close(f.done)
	})
}

func (f *stopFuture) result() <-chan error {
	select {
	case <-f.done:
		return completed(f.err)
	default:
	}

	ch := make(chan error, 1)
	go func() {
		<-f.done
		ch <- f.err
	}()
	return ch
}

func completed(err error) <-chan error {
	ch := make(chan error, 1)
	ch <- err
	return ch
}
