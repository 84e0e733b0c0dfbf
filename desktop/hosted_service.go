package desktop

import (
	"context"

	"github.com/gocrud/uihost/hosting"
	"github.com/gocrud/uihost/logging"
)

// HostedService 把宿主的 Start/Stop 转成 UI 线程的闸门与退出请求
type HostedService struct {
	ui     UserInterface
	hctx   *HostingContext
	logger logging.Logger
}

var _ hosting.HostedService = (*HostedService)(nil)

// NewHostedService lf 为 nil 时不输出日志
func NewHostedService(ui UserInterface, hctx *HostingContext, lf logging.LoggerFactory) *HostedService {
	return &HostedService{
		ui:     ui,
		hctx:   hctx,
		logger: logging.CreateLogger(lf, "UserInterfaceHostedService"),
	}
}

// Start 打开闸门后立即返回，不等待 UI 循环开始
func (s *HostedService) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return nil
	}
	s.ui.StartUserInterface()
	return nil
}

// Stop 请求 UI 循环退出并等待退出回调完成
// 进入后不再检查 ctx。
//
// 闸门刚打开、UI 线程还没把 IsRunning 置为 true 时 Stop 直接返回；
// 随后的停止钩子 Thread.Close 使尚未进入的循环不再开始。
func (s *HostedService) Stop(ctx context.Context) error {
	if ctx.Err() != nil || !s.hctx.IsRunning() {
		return nil
	}

	s.logger.Debug("Stopping user interface thread due to application exiting.")
	return <-s.ui.StopUserInterface()
}
