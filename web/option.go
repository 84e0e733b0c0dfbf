package web

import (
	"fmt"

	"github.com/gocrud/uihost/core"
	"github.com/gocrud/uihost/logging"
)

// BuilderOption 用于配置 Web Builder
type BuilderOption func(*Builder)

// WithHost 设置监听地址
func WithHost(host string) BuilderOption {
	return func(b *Builder) {
		b.UseHost(host)
	}
}

// WithPort 设置端口
func WithPort(port int) BuilderOption {
	return func(b *Builder) {
		b.UsePort(port)
	}
}

// WithControllers 添加控制器
func WithControllers(controllers ...any) BuilderOption {
	return func(b *Builder) {
		b.AddControllers(controllers...)
	}
}

// WithStatusRoutes 挂载 UI 线程状态接口，需要先注册 desktop.WithUserInterface
func WithStatusRoutes() BuilderOption {
	return WithControllers(NewStatusController)
}

// Configure 直接定制 Builder，例如添加路由或中间件
func Configure(fn func(*Builder)) BuilderOption {
	return fn
}

// New 启用 Web 能力
func New(opts ...BuilderOption) core.Option {
	return func(rt *core.Runtime) error {
		builder := NewBuilder()
		for _, opt := range opts {
			opt(builder)
		}

		rt.Features.Set(builder)

		// 容器在 Build 时构造单例，控制器必须在此之前注册
		if err := builder.RegisterServices(rt.Container); err != nil {
			return fmt.Errorf("web: failed to register services: %w", err)
		}

		hostFactory := func(lf logging.LoggerFactory) *Host {
			builder.UseLogger(logging.CreateLogger(lf, "Web"))
			host := builder.Build(rt.Container)
			rt.Features.Set(host)
			return host
		}

		return core.WithHostedService(hostFactory)(rt)
	}
}
