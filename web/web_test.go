package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocrud/uihost/core"
	"github.com/gocrud/uihost/desktop"
	"github.com/gocrud/uihost/di"
	"github.com/gocrud/uihost/hosting"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUserInterface struct {
	hctx   *desktop.HostingContext
	starts int
	err    error
}

func (s *stubUserInterface) StartUserInterface() { s.starts++ }

func (s *stubUserInterface) StopUserInterface() <-chan error {
	ch := make(chan error, 1)
	ch <- s.err
	return ch
}

func decode(t *testing.T, w *httptest.ResponseRecorder) StatusResponse {
	t.Helper()
	var resp StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func newRouter(c *StatusController) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	c.MountRoutes(r)
	return r
}

func TestStatusController(t *testing.T) {
	hctx := desktop.NewHostingContext(true)
	ui := &stubUserInterface{hctx: hctx}
	lifetime := hosting.NewLifetime()
	r := newRouter(NewStatusController(hctx, ui, lifetime))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ui/status", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, StatusResponse{LifetimeLinked: true}, decode(t, w))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/ui/start", nil))
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, 1, ui.starts)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/ui/stop", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	ui.err = errors.New("exit failed")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/ui/stop", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "exit failed")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/host/stop", nil))
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.True(t, decode(t, w).HostStopping)
	assert.True(t, lifetime.IsStopping())
}

func TestHostServesStatusRoutes(t *testing.T) {
	rt := core.NewRuntime()
	require.NoError(t, rt.Apply(
		desktop.WithHostingContext(desktop.NewHostingContext(false)),
		desktop.WithUserInterface[*desktop.Loop](desktop.NewLoop),
		New(WithPort(0), WithStatusRoutes()),
	))
	require.NoError(t, rt.Build())

	ctx := context.Background()
	require.NoError(t, rt.Lifecycle.Start(ctx))
	defer func() {
		stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		assert.NoError(t, rt.Lifecycle.Stop(stopCtx))
	}()

	host := di.MustResolve[*Host](rt.Container)
	select {
	case <-host.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("web host did not start listening")
	}
	base := fmt.Sprintf("http://%s", host.Addr())

	hctx := di.MustResolve[*desktop.HostingContext](rt.Container)
	require.Eventually(t, hctx.IsRunning, 5*time.Second, time.Millisecond)

	resp, err := http.Get(base + "/ui/status")
	require.NoError(t, err)
	var status StatusResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	resp.Body.Close()
	assert.True(t, status.Running)
	assert.False(t, status.LifetimeLinked)

	resp, err = http.Post(base+"/ui/stop", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Eventually(t, func() bool { return !hctx.IsRunning() }, 5*time.Second, time.Millisecond)

	// 未关联生命周期，关闭窗口不会结束宿主
	lifetime := di.MustResolve[hosting.ApplicationLifetime](rt.Container)
	assert.False(t, lifetime.IsStopping())
}

func TestHandlerMapsControllersOnce(t *testing.T) {
	hctx := desktop.NewHostingContext(true)
	c := di.NewContainer()
	di.Register[*desktop.HostingContext](c, di.WithValue(hctx))
	di.Register[desktop.UserInterface](c, di.WithValue(desktop.UserInterface(&stubUserInterface{hctx: hctx})))
	di.Register[hosting.ApplicationLifetime](c, di.WithValue(hosting.ApplicationLifetime(hosting.NewLifetime())))

	b := NewBuilder().AddControllers(NewStatusController)
	require.NoError(t, b.RegisterServices(c))
	require.NoError(t, c.Build())

	host := b.Build(c)
	h, err := host.Handler()
	require.NoError(t, err)
	_, err = host.Handler()
	require.NoError(t, err)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ui/status", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestControllerMustImplementInterface(t *testing.T) {
	c := di.NewContainer()
	b := NewBuilder().AddControllers(func() *struct{ Name string } { return &struct{ Name string }{} })
	require.NoError(t, b.RegisterServices(c))
	require.NoError(t, c.Build())

	_, err := b.Build(c).Handler()
	assert.Error(t, err)
}
