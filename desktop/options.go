package desktop

import (
	"context"
	"errors"
	"fmt"

	"github.com/gocrud/uihost/config"
	"github.com/gocrud/uihost/core"
	"github.com/gocrud/uihost/di"
)

// ConfigSection 配置节名称
const ConfigSection = "ui"

// Options 配置节 "ui"
type Options struct {
	// LifetimeLinked 为空时默认 true
	LifetimeLinked *config.Bool `json:"lifetimeLinked"`
}

// WithHostingContext 预先指定 HostingContext，优先于配置
func WithHostingContext(hctx *HostingContext) core.Option {
	return func(rt *core.Runtime) error {
		if hctx == nil {
			return errors.New("desktop: hosting context is nil")
		}
		core.SetFeature(rt, hctx)
		return nil
	}
}

// WithUserInterface 注册 UI 框架、HostingContext、UI 线程和托管服务
//
// constructor 是返回 T 的构造函数（参数由容器注入）或 T 的现成实例。
// T 不是 Framework 本身时，同一个实例也以 Framework 注册。
func WithUserInterface[T Framework](constructor any) core.Option {
	return func(rt *core.Runtime) error {
		if di.Has[*Thread](rt.Container) {
			return errors.New("desktop: user interface already registered")
		}

		hctx, err := hostingContext(rt)
		if err != nil {
			return err
		}
		di.Register[*HostingContext](rt.Container, di.WithValue(hctx))

		fwType, err := di.RegisterAuto(rt.Container, constructor)
		if err != nil {
			return fmt.Errorf("desktop: register framework: %w", err)
		}
		if fwType != di.TypeOf[T]() {
			return fmt.Errorf("desktop: constructor provides %v, expected %v", fwType, di.TypeOf[T]())
		}
		if di.TypeOf[T]() != di.TypeOf[Framework]() {
			di.Register[Framework](rt.Container, di.WithFactory(func(fw T) Framework { return fw }))
		}

		di.Register[*Thread](rt.Container, di.WithFactory(NewThread))
		di.Register[UserInterface](rt.Container, di.WithFactory(func(t *Thread) UserInterface { return t }))

		// 停止钩子倒序执行，先注册的 Close 在托管服务停止之后运行
		rt.Lifecycle.OnStop(func(context.Context) error {
			t, err := di.Resolve[*Thread](rt.Container)
			if err != nil {
				return nil
			}
			return t.Close()
		})

		return core.WithHostedService(NewHostedService)(rt)
	}
}

// hostingContext 预置特性 > 配置 ui.lifetimeLinked > 默认 linked
func hostingContext(rt *core.Runtime) (*HostingContext, error) {
	if hctx, ok := core.LookupFeature[*HostingContext](rt); ok && hctx != nil {
		return hctx, nil
	}

	linked := true
	if cfg := config.FromRuntime(rt); cfg != nil {
		var opts Options
		if err := cfg.Bind(ConfigSection, &opts); err != nil && !errors.Is(err, config.ErrKeyNotFound) {
			return nil, fmt.Errorf("desktop: bind %q options: %w", ConfigSection, err)
		}
		if opts.LifetimeLinked != nil {
			linked = bool(*opts.LifetimeLinked)
		}
	}

	hctx := NewHostingContext(linked)
	core.SetFeature(rt, hctx)
	return hctx, nil
}
