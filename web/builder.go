package web

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"reflect"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocrud/uihost/di"
	"github.com/gocrud/uihost/logging"
)

// Builder Web 主机构建器（基于 Gin）
type Builder struct {
	logger          logging.Logger
	host            string
	port            int
	engine          *gin.Engine
	controllerCtors []any
	registeredTypes []reflect.Type
}

// NewBuilder 创建 Web 构建器
func NewBuilder() *Builder {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(gin.Recovery())

	return &Builder{
		logger: logging.NopLogger,
		host:   "127.0.0.1",
		port:   8080,
		engine: engine,
	}
}

// UseLogger 设置日志记录器，同时记录每个请求
func (b *Builder) UseLogger(logger logging.Logger) *Builder {
	if logger == nil {
		return b
	}
	b.logger = logger
	b.engine.Use(requestLogger(logger))
	return b
}

// UseHost 设置监听地址，默认只监听本机
func (b *Builder) UseHost(host string) *Builder {
	b.host = host
	return b
}

// UsePort 设置端口，0 表示随机端口
func (b *Builder) UsePort(port int) *Builder {
	b.port = port
	return b
}

// Use 使用全局中间件
func (b *Builder) Use(middleware ...gin.HandlerFunc) *Builder {
	b.engine.Use(middleware...)
	return b
}

// Controller 控制器接口
type Controller interface {
	// MountRoutes 注册路由
	MountRoutes(router gin.IRouter)
}

// AddControllers 注册控制器
// 传入构造函数（参数由容器注入）或带 di tag 的实例指针，
// 在主机启动时从容器解析并挂载路由
func (b *Builder) AddControllers(controllers ...any) *Builder {
	b.controllerCtors = append(b.controllerCtors, controllers...)
	return b
}

// Get 注册 GET 路由
func (b *Builder) Get(path string, handlers ...gin.HandlerFunc) *Builder {
	b.engine.GET(path, handlers...)
	return b
}

// Post 注册 POST 路由
func (b *Builder) Post(path string, handlers ...gin.HandlerFunc) *Builder {
	b.engine.POST(path, handlers...)
	return b
}

// Group 创建路由组
func (b *Builder) Group(relativePath string, handlers ...gin.HandlerFunc) *gin.RouterGroup {
	return b.engine.Group(relativePath, handlers...)
}

// NoRoute 处理 404
func (b *Builder) NoRoute(handlers ...gin.HandlerFunc) *Builder {
	b.engine.NoRoute(handlers...)
	return b
}

// Engine 获取 Gin 引擎
func (b *Builder) Engine() *gin.Engine {
	return b.engine
}

// RegisterServices 注册控制器到 DI 容器，必须在容器 Build 之前调用
func (b *Builder) RegisterServices(container di.Container) error {
	for _, item := range b.controllerCtors {
		serviceType, err := di.RegisterAuto(container, item)
		if err != nil {
			return fmt.Errorf("web: register controller %T: %w", item, err)
		}
		b.registeredTypes = append(b.registeredTypes, serviceType)
	}
	return nil
}

// Build 构建 Web 主机；container 用于启动时解析控制器
func (b *Builder) Build(container di.Container) *Host {
	return &Host{
		address:         net.JoinHostPort(b.host, fmt.Sprint(b.port)),
		engine:          b.engine,
		container:       container,
		controllerTypes: b.registeredTypes,
		server:          &http.Server{Handler: b.engine, ReadHeaderTimeout: 10 * time.Second},
		logger:          b.logger,
		ready:           make(chan struct{}),
	}
}

// Host Web 主机
type Host struct {
	address         string
	engine          *gin.Engine
	server          *http.Server
	logger          logging.Logger
	container       di.Container
	controllerTypes []reflect.Type

	mapOnce sync.Once
	mapErr  error

	mu    sync.RWMutex
	addr  net.Addr
	ready chan struct{}
}

// Addr 实际监听地址；开始监听前为 nil
func (h *Host) Addr() net.Addr {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.addr
}

// Ready 开始监听后关闭
func (h *Host) Ready() <-chan struct{} {
	return h.ready
}

// Handler 挂载控制器后的 http.Handler
func (h *Host) Handler() (http.Handler, error) {
	if err := h.mapControllers(); err != nil {
		return nil, err
	}
	return h.engine, nil
}

// Start 启动 Web 主机，阻塞直到服务退出。
// 托管服务管理器在独立的 goroutine 中调用它。
func (h *Host) Start(ctx context.Context) error {
	if err := h.mapControllers(); err != nil {
		return fmt.Errorf("web: failed to map controllers: %w", err)
	}

	ln, err := net.Listen("tcp", h.address)
	if err != nil {
		return fmt.Errorf("web: failed to listen on %s: %w", h.address, err)
	}

	h.mu.Lock()
	h.addr = ln.Addr()
	h.mu.Unlock()
	close(h.ready)

	h.logger.Info("Web host started", logging.Field{Key: "address", Value: ln.Addr().String()})

	if err := h.server.Serve(ln); err != nil && err != http.ErrServerClosed {
		h.logger.Error("Web host error", logging.Field{Key: "error", Value: err.Error()})
		return err
	}
	return nil
}

// Stop 停止 Web 主机
func (h *Host) Stop(ctx context.Context) error {
	h.logger.Info("Stopping web host")

	if err := h.server.Shutdown(ctx); err != nil {
		h.logger.Error("Failed to shutdown web host gracefully",
			logging.Field{Key: "error", Value: err.Error()})
		return err
	}

	h.logger.Info("Web host stopped")
	return nil
}

func (h *Host) mapControllers() error {
	h.mapOnce.Do(func() {
		for _, typ := range h.controllerTypes {
			instance, err := h.container.Get(typ)
			if err != nil {
				h.mapErr = fmt.Errorf("failed to resolve controller %v: %w", typ, err)
				return
			}

			ctrl, ok := instance.(Controller)
			if !ok {
				h.mapErr = fmt.Errorf("instance %v does not implement web.Controller interface", typ)
				return
			}

			ctrl.MountRoutes(h.engine)
			h.logger.Debug("Mapped controller routes", logging.Field{Key: "controller", Value: typ.String()})
		}
	})
	return h.mapErr
}

func requestLogger(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("Request handled",
			logging.Field{Key: "method", Value: c.Request.Method},
			logging.Field{Key: "path", Value: c.FullPath()},
			logging.Field{Key: "status", Value: c.Writer.Status()},
			logging.Field{Key: "elapsed", Value: time.Since(start).String()})
	}
}
