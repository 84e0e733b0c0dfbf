package cron

import (
	"github.com/gocrud/uihost/core"
	"github.com/gocrud/uihost/logging"
)

// BuilderOption 用于配置 Cron Builder
type BuilderOption func(*Builder)

// WithSeconds 启用秒级精度
func WithSeconds() BuilderOption {
	return func(b *Builder) {
		b.WithSeconds()
	}
}

// WithLocation 设置时区
func WithLocation(location string) BuilderOption {
	return func(b *Builder) {
		b.WithLocation(location)
	}
}

// EnableCronLogger 启用 cron 库的内部调度日志
func EnableCronLogger() BuilderOption {
	return func(b *Builder) {
		b.EnableCronLogger()
	}
}

// WithDispatcher 指定 UI 任务的投递目标
func WithDispatcher(d Dispatcher) BuilderOption {
	return func(b *Builder) {
		b.WithDispatcher(d)
	}
}

// AddJob 添加后台任务
func AddJob(spec, name string, handler any) BuilderOption {
	return func(b *Builder) {
		b.AddJob(spec, name, handler)
	}
}

// AddUIJob 添加在 UI 线程上执行的任务
func AddUIJob(spec, name string, handler any) BuilderOption {
	return func(b *Builder) {
		b.AddUIJob(spec, name, handler)
	}
}

// New 启用 Cron 能力，调度器作为托管服务随宿主启停
func New(opts ...BuilderOption) core.Option {
	return func(rt *core.Runtime) error {
		builder := NewBuilder()
		for _, opt := range opts {
			opt(builder)
		}

		return core.WithHostedService(func(lf logging.LoggerFactory) (*Scheduler, error) {
			return builder.build(rt.Container, logging.CreateLogger(lf, "Cron"))
		})(rt)
	}
}
