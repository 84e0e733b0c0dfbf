package core

import (
	"fmt"
	"os"

	"github.com/gocrud/uihost/di"
	"github.com/gocrud/uihost/hosting"
	"github.com/gocrud/uihost/logging"
)

// Runtime 是框架的上帝对象，作为状态容器
type Runtime struct {
	// Features 存放构建时特性 (配置、HostingContext 等)
	Features FeatureCollection

	// Container 核心依赖注入容器
	Container di.Container

	// Lifecycle 生命周期管理
	Lifecycle *LifecycleEvents

	// Lifetime 宿主生命周期，在容器中注册为 hosting.ApplicationLifetime
	Lifetime *hosting.Lifetime

	// Logging 日志构建器，Build 时生成 LoggerFactory
	Logging *logging.LoggingBuilder

	// ErrorHandler 用于记录运行时产生的严重错误
	// 外部可以通过设置此字段来接管错误日志
	ErrorHandler func(err error)

	hosted        *hosting.HostedServiceManager
	loggerFactory logging.LoggerFactory
	logger        logging.Logger
	hostedCount   int
	built         bool
}

// NewRuntime 创建一个新的运行时实例
func NewRuntime() *Runtime {
	rt := &Runtime{
		Container: di.NewContainer(),
		Lifecycle: NewLifecycle(),
		Lifetime:  hosting.NewLifetime(),
		Logging:   logging.NewLoggingBuilder(),
		logger:    logging.NopLogger,
	}
	rt.ErrorHandler = func(err error) {
		if rt.loggerFactory == nil {
			fmt.Fprintf(os.Stderr, "[Runtime Error] %v\n", err)
			return
		}
		rt.logger.Error("Runtime error", logging.Field{Key: "error", Value: err.Error()})
	}
	di.Register[hosting.ApplicationLifetime](rt.Container, di.WithValue(rt.Lifetime))
	di.Register[*hosting.Lifetime](rt.Container, di.WithValue(rt.Lifetime))
	di.Register[*Runtime](rt.Container, di.WithValue(rt))
	return rt
}

// Build 生成日志工厂并构建容器，只执行一次
func (rt *Runtime) Build() error {
	if rt.built {
		return nil
	}

	if !di.Has[logging.LoggerFactory](rt.Container) {
		rt.loggerFactory = rt.Logging.Build()
		di.Register[logging.LoggerFactory](rt.Container, di.WithValue(rt.loggerFactory))
	}
	if !di.Has[logging.Logger](rt.Container) {
		di.Register[logging.Logger](rt.Container, di.WithFactory(func(f logging.LoggerFactory) logging.Logger {
			return logging.CreateLogger(f, "App")
		}))
	}

	if err := rt.Container.Build(); err != nil {
		return fmt.Errorf("build container: %w", err)
	}

	if rt.loggerFactory == nil {
		f, err := di.Resolve[logging.LoggerFactory](rt.Container)
		if err != nil {
			return err
		}
		rt.loggerFactory = f
	}
	rt.logger = logging.CreateLogger(rt.loggerFactory, "Runtime")
	rt.hosted = hosting.NewHostedServiceManager(
		logging.CreateLogger(rt.loggerFactory, "HostedServices"),
		func(name string, err error) {
			rt.ErrorHandler(fmt.Errorf("hosted service %s exited with error: %w", name, err))
			// Fail Fast
			rt.Shutdown()
		},
	)
	rt.built = true
	return nil
}

// LoggerFactory Build 之后可用；之前返回 nil
func (rt *Runtime) LoggerFactory() logging.LoggerFactory {
	return rt.loggerFactory
}

// Logger 运行时自身的日志
func (rt *Runtime) Logger() logging.Logger {
	return rt.logger
}

// Shutdown 请求应用退出
// 调用此方法会触发应用关闭流程
func (rt *Runtime) Shutdown() {
	rt.Lifetime.StopApplication()
}

// Done 返回一个通道，当应用需要退出时该通道会关闭
func (rt *Runtime) Done() <-chan struct{} {
	return rt.Lifetime.Stopping()
}

// Provide 注册服务提供者 (语法糖)
// 支持构造函数或结构体指针
func (rt *Runtime) Provide(target any, opts ...di.Option) error {
	_, err := di.RegisterAuto(rt.Container, target, opts...)
	return err
}

// Apply 应用多个 Option
func (rt *Runtime) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(rt); err != nil {
			return err
		}
	}
	return nil
}

// As 是一个辅助函数，用于生成 di.Option，将实现绑定到接口
// 这是一个转发，为了让 core 包的使用者不需要直接引入 di 包
func As[T any]() di.Option {
	return di.Use[T]()
}
