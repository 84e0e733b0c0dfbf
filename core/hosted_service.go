package core

import "github.com/gocrud/uihost/hosting"

// HostedService 定义了一个具有启动和停止生命周期的托管服务
// Start 在独立的 Goroutine 中调用，允许阻塞；返回 error 时触发优雅关闭。
// Stop 在应用关闭时调用，必须支持通过 ctx 进行超时控制。
type HostedService = hosting.HostedService
