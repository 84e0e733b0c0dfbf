package core

import (
	"context"

	"github.com/gocrud/uihost/di"
	"github.com/gocrud/uihost/logging"
)

// Option 定义了修改 Runtime 状态的函数签名
// 这是框架唯一的扩展点
type Option func(rt *Runtime) error

// WithLogging 配置日志构建器
func WithLogging(configure func(b *logging.LoggingBuilder)) Option {
	return func(rt *Runtime) error {
		configure(rt.Logging)
		return nil
	}
}

// WithProvider 注册服务，参数同 Runtime.Provide
func WithProvider(target any, opts ...di.Option) Option {
	return func(rt *Runtime) error {
		return rt.Provide(target, opts...)
	}
}

// WithStopHook 注册停止钩子，先注册的后执行
func WithStopHook(fn func(context.Context) error) Option {
	return func(rt *Runtime) error {
		rt.Lifecycle.OnStop(fn)
		return nil
	}
}
