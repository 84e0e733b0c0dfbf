package hosting

import "sync"

// ApplicationLifetime 宿主生命周期
//
// StopApplication 只是请求退出，真正的关闭由运行器完成；
// 运行器关闭完成后调用 NotifyStopped。
type ApplicationLifetime interface {
	// StopApplication 请求宿主退出，可重复调用
	StopApplication()
	// IsStopping 是否已经请求退出
	IsStopping() bool
	// IsStopped 宿主是否已经完全停止
	IsStopped() bool
	// Stopping 请求退出时关闭
	Stopping() <-chan struct{}
	// Stopped 完全停止后关闭
	Stopped() <-chan struct{}
}

// Lifetime ApplicationLifetime 的默认实现
type Lifetime struct {
	stopping     chan struct{}
	stopped      chan struct{}
	stoppingOnce sync.Once
	stoppedOnce  sync.Once
}

var _ ApplicationLifetime = (*Lifetime)(nil)

// NewLifetime 创建宿主生命周期
func NewLifetime() *Lifetime {
	return &Lifetime{
		stopping: make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

func (l *Lifetime) StopApplication() {
	l.stoppingOnce.Do(func() { close(l.stopping) })
}

func (l *Lifetime) IsStopping() bool {
	return closed(l.stopping)
}

func (l *Lifetime) IsStopped() bool {
	return closed(l.stopped)
}

func (l *Lifetime) Stopping() <-chan struct{} {
	return l.stopping
}

func (l *Lifetime) Stopped() <-chan struct{} {
	return l.stopped
}

// NotifyStopped 标记宿主已经停止；隐含 StopApplication
func (l *Lifetime) NotifyStopped() {
	l.StopApplication()
	l.stoppedOnce.Do(func() { close(l.stopped) })
}

func closed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}
