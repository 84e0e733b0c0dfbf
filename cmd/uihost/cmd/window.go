package cmd

import (
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/gocrud/uihost/config"
	"github.com/gocrud/uihost/desktop/terminal"
	"github.com/gocrud/uihost/hosting"
	"github.com/gocrud/uihost/logging"
)

const windowSection = "window"

// windowSettings 配置节 "window"，配置重新加载后窗口随之刷新
type windowSettings struct {
	Title     string      `json:"title"`
	Message   string      `json:"message"`
	HideClock config.Bool `json:"hideClock"`
}

// window 演示窗口：q 请求宿主退出，l 写一条日志，Esc 关闭窗口
type window struct {
	app      *terminal.Application
	lifetime hosting.ApplicationLifetime
	logger   logging.Logger

	// 构造后只在 UI 线程上读写
	settings windowSettings
}

func newWindow(monitor config.OptionMonitor[windowSettings], lifetime hosting.ApplicationLifetime, lf logging.LoggerFactory) *window {
	return buildWindow(monitor, lifetime, logging.CreateLogger(lf, "Window"))
}

func buildWindow(monitor config.OptionMonitor[windowSettings], lifetime hosting.ApplicationLifetime, logger logging.Logger, opts ...terminal.Option) *window {
	w := &window{
		lifetime: lifetime,
		logger:   logger,
		settings: monitor.Value(),
	}
	opts = append(opts, terminal.WithRenderer(w.render), terminal.WithKeyHandler(w.handleKey))
	w.app = terminal.New(opts...)
	monitor.OnChange(w.apply)
	return w
}

func (w *window) apply(s windowSettings) {
	err := w.app.Post(func() {
		w.settings = s
		w.app.Redraw()
	})
	if err != nil {
		w.logger.Debug("Window settings changed while the window is closed.")
	}
}

func (w *window) handleKey(ev *tcell.EventKey) bool {
	if ev.Key() != tcell.KeyRune {
		return false
	}
	switch ev.Rune() {
	case 'q':
		w.logger.Info("Stopping host application from the window.")
		w.lifetime.StopApplication()
		return true
	case 'l':
		w.logger.Info("Log something from the window.", logging.Field{Key: "title", Value: w.title()})
		return true
	}
	return false
}

func (w *window) title() string {
	if w.settings.Title == "" {
		return "uihost"
	}
	return w.settings.Title
}

func (w *window) render(s tcell.Screen) {
	s.Clear()
	lines := []string{w.title()}
	if w.settings.Message != "" {
		lines = append(lines, w.settings.Message)
	}
	if !w.settings.HideClock {
		lines = append(lines, time.Now().Format("15:04:05"))
	}
	lines = append(lines, "q: stop host  l: log  Esc: close window")

	for y, line := range lines {
		style := tcell.StyleDefault
		if y == 0 {
			style = style.Bold(true)
		}
		for x, r := range []rune(line) {
			s.SetContent(x, y, r, nil, style)
		}
	}
}
