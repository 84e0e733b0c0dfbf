// Package desktop 把单线程 UI 循环作为托管服务运行在宿主中
//
// UI 线程在容器构建时创建并停在启动闸门处，由 HostedService.Start 放行；
// UI 循环结束与宿主关闭双向联动，且各自只发生一次。
package desktop

import (
	"sync"
	"sync/atomic"
)

// HostingContext UI 线程与托管服务共享的状态
type HostingContext struct {
	lifetimeLinked bool
	running        atomic.Bool

	mu  sync.RWMutex
	app Framework
}

// NewHostingContext 创建上下文；lifetimeLinked 之后不可修改
func NewHostingContext(lifetimeLinked bool) *HostingContext {
	return &HostingContext{lifetimeLinked: lifetimeLinked}
}

// IsLifetimeLinked UI 循环结束时是否请求宿主退出
func (c *HostingContext) IsLifetimeLinked() bool {
	return c.lifetimeLinked
}

// IsRunning UI 线程已通过闸门且 UI 循环尚未返回
func (c *HostingContext) IsRunning() bool {
	return c.running.Load()
}

// Application 返回 UI 线程挂载的框架，BeforeStart 完成前为 nil
func (c *HostingContext) Application() Framework {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.app
}

// 以下只由 UI 线程调用

func (c *HostingContext) setRunning(running bool) {
	c.running.Store(running)
}

func (c *HostingContext) attach(app Framework) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.app = app
}
