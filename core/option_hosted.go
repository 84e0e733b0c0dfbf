package core

import (
	"context"
	"fmt"
	"reflect"

	"github.com/gocrud/uihost/di"
)

var hostedServiceType = reflect.TypeOf((*HostedService)(nil)).Elem()

// WithHostedService 注册一个托管服务
// 服务必须实现 HostedService 接口。
// 框架会在 OnStart 时启动 Goroutine 调用 Start，在 OnStop 时调用 Stop。
func WithHostedService(constructor any) Option {
	return func(rt *Runtime) error {
		serviceType, err := di.RegisterAuto(rt.Container, constructor)
		if err != nil {
			return fmt.Errorf("WithHostedService: failed to provide service: %w", err)
		}

		if !serviceType.Implements(hostedServiceType) {
			return fmt.Errorf("WithHostedService: service %v does not implement core.HostedService", serviceType)
		}

		return addHosted(rt, serviceType.String(), func() (HostedService, error) {
			val, err := rt.Container.Get(serviceType)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve hosted service %v: %w", serviceType, err)
			}
			return val.(HostedService), nil
		})
	}
}

// WorkerFunc 定义简单的后台任务函数
// 这是一个阻塞函数，通过 ctx.Done() 判断退出。
type WorkerFunc func(ctx context.Context) error

// WithWorker 将一个阻塞的函数注册为后台服务
// 框架会自动将其适配为 HostedService (异步启动，Cancel停止)
func WithWorker(fn WorkerFunc) Option {
	return func(rt *Runtime) error {
		worker := workerService(fn)
		return addHosted(rt, "worker", func() (HostedService, error) {
			return worker, nil
		})
	}
}

type workerService WorkerFunc

func (w workerService) Start(ctx context.Context) error { return w(ctx) }
func (w workerService) Stop(context.Context) error      { return nil }

// addHosted 注册一对生命周期钩子，服务交给 HostedServiceManager 管理
func addHosted(rt *Runtime, kind string, resolve func() (HostedService, error)) error {
	rt.hostedCount++
	name := fmt.Sprintf("%s#%d", kind, rt.hostedCount)

	rt.Lifecycle.OnStart(func(ctx context.Context) error {
		if rt.hosted == nil {
			return fmt.Errorf("runtime not built")
		}
		svc, err := resolve()
		if err != nil {
			return err
		}
		return rt.hosted.Start(ctx, name, svc)
	})

	rt.Lifecycle.OnStop(func(ctx context.Context) error {
		if rt.hosted == nil {
			return nil
		}
		return rt.hosted.Stop(ctx, name)
	})

	return nil
}
