package cron

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/gocrud/uihost/desktop"
	"github.com/gocrud/uihost/di"
	"github.com/gocrud/uihost/logging"
	"github.com/robfig/cron/v3"
)

// Dispatcher 把回调投递到 UI 线程，desktop.Thread 实现了它
type Dispatcher interface {
	Dispatch(fn func()) error
}

type jobDefinition struct {
	spec    string
	name    string
	handler any
	onUI    bool
}

type scheduledJob struct {
	id  cron.EntryID
	run func()
}

// Scheduler Cron 定时任务托管服务
type Scheduler struct {
	cron       *cron.Cron
	logger     logging.Logger
	container  di.Container
	dispatcher Dispatcher
	mu         sync.RWMutex
	jobs       map[string]scheduledJob
	jobDefs    []jobDefinition
}

// Start 注册所有任务并启动调度，立即返回
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info(fmt.Sprintf("CronService starting with %d pending jobs", len(s.jobDefs)))

	if s.dispatcher == nil && s.container != nil {
		if th, err := di.Resolve[*desktop.Thread](s.container); err == nil {
			s.dispatcher = th
		}
	}

	for _, job := range s.jobDefs {
		var handlerFunc func()
		if h, ok := job.handler.(func()); ok {
			handlerFunc = h
		} else {
			wrapped, err := wrapHandlerWithDI(s.container, s.logger, job.handler)
			if err != nil {
				return fmt.Errorf("cron: failed to wrap job '%s': %w", job.name, err)
			}
			handlerFunc = wrapped
		}

		if job.onUI {
			handlerFunc = s.onUIThread(job.name, handlerFunc)
		}

		if err := s.addJob(job.spec, job.name, handlerFunc); err != nil {
			return err
		}
	}
	s.jobDefs = nil

	s.cron.Start()
	return nil
}

// Stop 停止调度并等待正在执行的任务结束或 ctx 超时
func (s *Scheduler) Stop(ctx context.Context) error {
	s.logger.Info("CronService stopping")

	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Jobs 已注册的任务名称
func (s *Scheduler) Jobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Trigger 立即执行一次任务，不影响调度
func (s *Scheduler) Trigger(name string) error {
	s.mu.RLock()
	job, ok := s.jobs[name]
	s.mu.RUnlock()

	if !ok {
		return fmt.Errorf("cron: job '%s' not found", name)
	}
	job.run()
	return nil
}

// Remove 移除定时任务
func (s *Scheduler) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if job, exists := s.jobs[name]; exists {
		s.cron.Remove(job.id)
		delete(s.jobs, name)
		s.logger.Info(fmt.Sprintf("Cron job '%s' removed", name))
	}
}

func (s *Scheduler) addJob(spec, name string, job func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("cron: job '%s' already registered", name)
	}

	run := func() {
		s.logger.Debug(fmt.Sprintf("Cron job '%s' started", name))
		defer s.logger.Debug(fmt.Sprintf("Cron job '%s' completed", name))
		job()
	}

	entryID, err := s.cron.AddFunc(spec, run)
	if err != nil {
		return fmt.Errorf("failed to add cron job '%s': %w", name, err)
	}

	s.jobs[name] = scheduledJob{id: entryID, run: run}
	s.logger.Info(fmt.Sprintf("Cron job '%s' registered with spec '%s'", name, spec))
	return nil
}

// onUIThread 把任务投递到 UI 线程；UI 未运行时跳过
func (s *Scheduler) onUIThread(name string, fn func()) func() {
	return func() {
		if s.dispatcher == nil {
			s.logger.Warn(fmt.Sprintf("Cron job '%s' skipped: no user interface registered", name))
			return
		}
		err := s.dispatcher.Dispatch(fn)
		switch {
		case err == nil:
		case errors.Is(err, desktop.ErrNotRunning), errors.Is(err, desktop.ErrLoopClosed):
			s.logger.Debug(fmt.Sprintf("Cron job '%s' skipped: user interface not running", name))
		default:
			s.logger.Warn(fmt.Sprintf("Cron job '%s' dispatch failed", name),
				logging.Field{Key: "error", Value: err.Error()})
		}
	}
}

// cronLogger 适配器：将框架日志接口适配到 cron 的日志接口
type cronLogger struct {
	logger logging.Logger
}

func newCronLogger(logger logging.Logger) cron.Logger {
	return &cronLogger{logger: logger}
}

func (l *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, convertToFields(keysAndValues)...)
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	fields := convertToFields(keysAndValues)
	fields = append(fields, logging.Field{Key: "error", Value: err.Error()})
	l.logger.Error(msg, fields...)
}

func convertToFields(keysAndValues []interface{}) []logging.Field {
	fields := make([]logging.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields = append(fields, logging.Field{Key: fmt.Sprintf("%v", keysAndValues[i]), Value: keysAndValues[i+1]})
	}
	return fields
}
