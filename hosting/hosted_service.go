package hosting

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gocrud/uihost/logging"
)

// HostedService 托管服务接口（类似于 .NET Core IHostedService）
// 框架会在独立的 goroutine 中调用 Start，用户无需自己启动 goroutine
type HostedService interface {
	// Start 启动服务，允许阻塞直到 ctx 被取消。
	// 返回非取消类错误时宿主会被要求退出。
	Start(ctx context.Context) error

	// Stop 执行优雅关闭逻辑，应遵守 ctx 的超时。
	Stop(ctx context.Context) error
}

type hostedEntry struct {
	name    string
	service HostedService
	cancel  context.CancelFunc
}

// HostedServiceManager 托管服务管理器
// 每个服务有自己的运行上下文，Stop 时先取消上下文再调用服务的 Stop
type HostedServiceManager struct {
	entries map[string]*hostedEntry
	logger  logging.Logger
	onError func(name string, err error)
	mu      sync.Mutex
	wg      sync.WaitGroup
}

// NewHostedServiceManager 创建托管服务管理器；onError 在 Start 返回错误时调用
func NewHostedServiceManager(logger logging.Logger, onError func(name string, err error)) *HostedServiceManager {
	if logger == nil {
		logger = logging.NopLogger
	}
	return &HostedServiceManager{
		entries: make(map[string]*hostedEntry),
		logger:  logger,
		onError: onError,
	}
}

// Start 在新 goroutine 中启动服务，立即返回
// ctx 已取消时不启动服务；服务的运行上下文继承 ctx 的值但不继承其取消
func (m *HostedServiceManager) Start(ctx context.Context, name string, service HostedService) error {
	if ctx.Err() != nil {
		m.logger.Debug("Start cancelled, hosted service skipped", logging.Field{Key: "service", Value: name})
		return nil
	}

	m.mu.Lock()
	if _, exists := m.entries[name]; exists {
		m.mu.Unlock()
		return fmt.Errorf("hosted service %s already started", name)
	}
	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	m.entries[name] = &hostedEntry{name: name, service: service, cancel: cancel}
	m.mu.Unlock()

	m.logger.Debug("Starting hosted service", logging.Field{Key: "service", Value: name})

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		err := service.Start(ctx)
		switch {
		case err == nil:
			m.logger.Debug("Hosted service start returned", logging.Field{Key: "service", Value: name})
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			m.logger.Debug("Hosted service stopped (context done)", logging.Field{Key: "service", Value: name})
		default:
			m.logger.Error("Hosted service error",
				logging.Field{Key: "service", Value: name},
				logging.Field{Key: "error", Value: err.Error()})
			if m.onError != nil {
				m.onError(name, err)
			}
		}
	}()
	return nil
}

// Stop 取消服务上下文并调用其 Stop；未启动的服务直接返回 nil
func (m *HostedServiceManager) Stop(ctx context.Context, name string) error {
	m.mu.Lock()
	entry, ok := m.entries[name]
	delete(m.entries, name)
	m.mu.Unlock()

	if !ok {
		return nil
	}

	m.logger.Debug("Stopping hosted service", logging.Field{Key: "service", Value: name})
	entry.cancel()

	if err := entry.service.Stop(ctx); err != nil {
		m.logger.Error("Failed to stop hosted service",
			logging.Field{Key: "service", Value: name},
			logging.Field{Key: "error", Value: err.Error()})
		return fmt.Errorf("stop hosted service %s: %w", name, err)
	}

	m.logger.Info("Hosted service stopped successfully", logging.Field{Key: "service", Value: name})
	return nil
}

// Running 返回仍在管理中的服务数量
func (m *HostedServiceManager) Running() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Wait 等待所有 Start 调用返回
func (m *HostedServiceManager) Wait() {
	m.wg.Wait()
}
