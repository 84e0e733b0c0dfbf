package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gocrud/uihost/core"
	"github.com/gocrud/uihost/logging"
)

// ShutdownTimeout 优雅关闭的超时时间
var ShutdownTimeout = 5 * time.Second

// Run 启动应用程序
// 这是基于微内核架构的唯一入口
func Run(opts ...core.Option) error {
	return RunContext(context.Background(), opts...)
}

// RunContext 同 Run；ctx 取消时同样触发关闭
func RunContext(ctx context.Context, opts ...core.Option) error {
	rt, err := NewRuntime(opts...)
	if err != nil {
		return err
	}

	return Serve(ctx, rt)
}

// Serve 启动已构建的 rt，阻塞直到收到退出信号、ctx 取消或 rt.Shutdown
func Serve(ctx context.Context, rt *core.Runtime) error {
	logger := rt.Logger()
	defer rt.Lifetime.NotifyStopped()

	if err := rt.Lifecycle.Start(ctx); err != nil {
		logger.Error("Application failed to start", logging.Field{Key: "error", Value: err.Error()})
		stopCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		rt.Shutdown()
		rt.Lifecycle.Stop(stopCtx)
		return err
	}
	logger.Info("Application started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		logger.Info("Received signal", logging.Field{Key: "signal", Value: sig.String()})
	case <-ctx.Done():
	case <-rt.Done():
		// 运行时内部请求退出 (例如 UI 线程结束)
	}
	rt.Shutdown()

	// 3. Graceful Shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	logger.Info("Application stopping")
	err := rt.Lifecycle.Stop(shutdownCtx)
	if err != nil {
		logger.Error("Application stopped with errors", logging.Field{Key: "error", Value: err.Error()})
	} else {
		logger.Info("Application stopped")
	}
	return err
}
