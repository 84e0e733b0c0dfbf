package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gocrud/uihost/desktop"
	"github.com/gocrud/uihost/hosting"
)

// StatusResponse UI 线程状态
type StatusResponse struct {
	Running        bool `json:"running"`
	LifetimeLinked bool `json:"lifetimeLinked"`
	HostStopping   bool `json:"hostStopping"`
}

// StatusController 暴露 UI 线程的状态与启停操作
type StatusController struct {
	hctx     *desktop.HostingContext
	ui       desktop.UserInterface
	lifetime hosting.ApplicationLifetime
}

// NewStatusController 创建状态控制器
func NewStatusController(hctx *desktop.HostingContext, ui desktop.UserInterface, lifetime hosting.ApplicationLifetime) *StatusController {
	return &StatusController{hctx: hctx, ui: ui, lifetime: lifetime}
}

// MountRoutes 注册 /ui 与 /host 路由
func (c *StatusController) MountRoutes(router gin.IRouter) {
	ui := router.Group("/ui")
	ui.GET("/status", c.status)
	ui.POST("/start", c.start)
	ui.POST("/stop", c.stop)

	router.POST("/host/stop", c.stopHost)
}

func (c *StatusController) snapshot() StatusResponse {
	return StatusResponse{
		Running:        c.hctx.IsRunning(),
		LifetimeLinked: c.hctx.IsLifetimeLinked(),
		HostStopping:   c.lifetime.IsStopping(),
	}
}

func (c *StatusController) status(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, c.snapshot())
}

// start 只打开闸门，UI 是否运行以状态接口为准
func (c *StatusController) start(ctx *gin.Context) {
	c.ui.StartUserInterface()
	ctx.JSON(http.StatusAccepted, c.snapshot())
}

func (c *StatusController) stop(ctx *gin.Context) {
	select {
	case err := <-c.ui.StopUserInterface():
		if err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(http.StatusOK, c.snapshot())
	case <-ctx.Request.Context().Done():
		ctx.AbortWithStatus(http.StatusRequestTimeout)
	}
}

func (c *StatusController) stopHost(ctx *gin.Context) {
	c.lifetime.StopApplication()
	ctx.JSON(http.StatusAccepted, c.snapshot())
}
