package cmd

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/gocrud/uihost/config"
	"github.com/gocrud/uihost/desktop"
	"github.com/gocrud/uihost/desktop/terminal"
	"github.com/gocrud/uihost/hosting"
	"github.com/gocrud/uihost/logging"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func screenText(s tcell.SimulationScreen) string {
	w, h := s.Size()
	var b strings.Builder
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, _, _, _ := s.GetContent(x, y)
			b.WriteRune(r)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func rowText(s tcell.SimulationScreen, y int) string {
	w, _ := s.Size()
	var b strings.Builder
	for x := 0; x < w; x++ {
		r, _, _, _ := s.GetContent(x, y)
		b.WriteRune(r)
	}
	return b.String()
}

type windowFixture struct {
	screen   tcell.SimulationScreen
	window   *window
	thread   *desktop.Thread
	lifetime *hosting.Lifetime
	data     map[string]any
	cfg      config.ReloadableConfiguration
	hook     *logtest.Hook
}

func startWindow(t *testing.T, settings map[string]any) *windowFixture {
	t.Helper()
	f := &windowFixture{
		screen:   tcell.NewSimulationScreen("UTF-8"),
		lifetime: hosting.NewLifetime(),
		data:     map[string]any{windowSection: settings},
	}

	var err error
	f.cfg, err = config.NewConfigurationBuilder().Add(&config.InMemorySource{Data: f.data}).Build()
	require.NoError(t, err)
	monitor := config.NewOptionMonitor(config.NewOptionsCache[windowSettings](f.cfg, windowSection))

	var logger *logrus.Logger
	logger, f.hook = logtest.NewNullLogger()
	f.window = buildWindow(monitor, f.lifetime,
		logging.NewLogrusLoggerProvider(logger).CreateLogger("Window"),
		terminal.WithScreen(f.screen))

	hctx := desktop.NewHostingContext(true)
	f.thread = desktop.NewThread(f.lifetime, hctx, f.window.app, nil)
	f.thread.StartUserInterface()
	require.Eventually(t, hctx.IsRunning, 2*time.Second, time.Millisecond)

	t.Cleanup(func() {
		<-f.thread.StopUserInterface()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		assert.NoError(t, f.thread.AwaitCompletionContext(ctx))
	})
	return f
}

func (f *windowFixture) press(r rune) {
	f.screen.PostEvent(tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone))
}

func (f *windowFixture) hasLog(msg string) bool {
	for _, e := range f.hook.AllEntries() {
		if e.Message == msg {
			return true
		}
	}
	return false
}

func TestWindowRendersSettings(t *testing.T) {
	f := startWindow(t, map[string]any{"title": "demo", "message": "hello", "hideClock": 1})

	require.Eventually(t, func() bool {
		text := screenText(f.screen)
		return strings.Contains(text, "demo") && strings.Contains(text, "hello")
	}, 2*time.Second, time.Millisecond)
	// 时钟隐藏时第三行就是按键提示
	assert.True(t, strings.HasPrefix(rowText(f.screen, 2), "q: stop host"))
}

func TestWindowFollowsReload(t *testing.T) {
	f := startWindow(t, map[string]any{"title": "before"})
	require.Eventually(t, func() bool { return strings.Contains(screenText(f.screen), "before") },
		2*time.Second, time.Millisecond)

	f.data[windowSection] = map[string]any{"title": "after", "message": "reloaded"}
	require.NoError(t, f.cfg.Reload())

	require.Eventually(t, func() bool {
		text := screenText(f.screen)
		return strings.Contains(text, "after") && strings.Contains(text, "reloaded")
	}, 2*time.Second, time.Millisecond)
}

func TestWindowKeys(t *testing.T) {
	f := startWindow(t, nil)

	f.press('l')
	require.Eventually(t, func() bool { return f.hasLog("Log something from the window.") },
		2*time.Second, time.Millisecond)
	assert.False(t, f.lifetime.IsStopping())

	// q 从窗口内请求宿主退出，窗口本身仍在运行，由宿主停止流程关闭
	f.press('q')
	require.Eventually(t, f.lifetime.IsStopping, 2*time.Second, time.Millisecond)
	assert.True(t, f.hasLog("Stopping host application from the window."))
}
