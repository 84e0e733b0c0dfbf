package cron

import (
	"fmt"
	"reflect"
	"time"

	"github.com/gocrud/uihost/di"
	"github.com/gocrud/uihost/logging"
	"github.com/robfig/cron/v3"
)

// Builder Cron 配置构建器
type Builder struct {
	enableSeconds    bool
	enableCronLogger bool
	location         string
	dispatcher       Dispatcher
	jobs             []jobDefinition
}

// NewBuilder 创建 Cron 构建器
func NewBuilder() *Builder {
	return &Builder{
		location: "UTC",
		jobs:     make([]jobDefinition, 0),
	}
}

// WithSeconds 启用秒级精度
func (b *Builder) WithSeconds() *Builder {
	b.enableSeconds = true
	return b
}

// WithLocation 设置时区
func (b *Builder) WithLocation(location string) *Builder {
	b.location = location
	return b
}

// EnableCronLogger 启用 cron 库的内部调度日志
func (b *Builder) EnableCronLogger() *Builder {
	b.enableCronLogger = true
	return b
}

// WithDispatcher 指定 UI 任务的投递目标，未指定时从容器解析 UI 线程
func (b *Builder) WithDispatcher(d Dispatcher) *Builder {
	b.dispatcher = d
	return b
}

// AddJob 添加后台任务；handler 为 func() 或参数由容器注入的函数
//
// 示例：
//
//	builder.AddJob("*/5 * * * *", "sync", func(hctx *desktop.HostingContext, logger logging.Logger) {
//	    logger.Info("tick", logging.Field{Key: "running", Value: hctx.IsRunning()})
//	})
func (b *Builder) AddJob(spec, name string, handler any) *Builder {
	b.jobs = append(b.jobs, jobDefinition{spec: spec, name: name, handler: handler})
	return b
}

// AddUIJob 添加在 UI 线程上执行的任务；UI 未运行时本次触发被跳过
func (b *Builder) AddUIJob(spec, name string, handler any) *Builder {
	b.jobs = append(b.jobs, jobDefinition{spec: spec, name: name, handler: handler, onUI: true})
	return b
}

func (b *Builder) build(container di.Container, logger logging.Logger) (*Scheduler, error) {
	loc, err := time.LoadLocation(b.location)
	if err != nil {
		return nil, fmt.Errorf("cron: invalid location %q: %w", b.location, err)
	}

	cronOpts := []cron.Option{cron.WithLocation(loc)}
	if b.enableCronLogger {
		cronOpts = append(cronOpts, cron.WithLogger(newCronLogger(logger)))
	}
	cronOpts = append(cronOpts, cron.WithChain(cron.Recover(newCronLogger(logger))))
	if b.enableSeconds {
		cronOpts = append(cronOpts, cron.WithSeconds())
	}

	defs := make([]jobDefinition, len(b.jobs))
	copy(defs, b.jobs)

	return &Scheduler{
		cron:       cron.New(cronOpts...),
		logger:     logger,
		container:  container,
		dispatcher: b.dispatcher,
		jobDefs:    defs,
		jobs:       make(map[string]scheduledJob),
	}, nil
}

// wrapHandlerWithDI 每次执行时从容器解析 handler 的参数
func wrapHandlerWithDI(container di.Container, logger logging.Logger, handler any) (func(), error) {
	handlerValue := reflect.ValueOf(handler)
	handlerType := handlerValue.Type()

	if handlerType.Kind() != reflect.Func {
		return nil, fmt.Errorf("handler must be a function, got %v", handlerType.Kind())
	}
	if container == nil && handlerType.NumIn() > 0 {
		return nil, fmt.Errorf("handler %v needs a container", handlerType)
	}

	return func() {
		args := make([]reflect.Value, handlerType.NumIn())
		for i := range args {
			paramType := handlerType.In(i)
			instance, err := container.Get(paramType)
			if err != nil {
				logger.Error(fmt.Sprintf("Failed to resolve parameter %d (%v) for cron job", i, paramType),
					logging.Field{Key: "error", Value: err.Error()})
				return
			}
			if instance == nil {
				args[i] = reflect.Zero(paramType)
				continue
			}
			args[i] = reflect.ValueOf(instance)
		}

		defer func() {
			if r := recover(); r != nil {
				logger.Error("Cron job panicked", logging.Field{Key: "panic", Value: r})
			}
		}()
		handlerValue.Call(args)
	}, nil
}
