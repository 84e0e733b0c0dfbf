// Package app 是 uihost 的入口：组合 core.Option 并运行宿主
package app

import "github.com/gocrud/uihost/core"

// NewRuntime 创建运行时，供需要在 Serve 之前访问容器的调用方使用
func NewRuntime(opts ...core.Option) (*core.Runtime, error) {
	rt := core.NewRuntime()
	if err := rt.Apply(opts...); err != nil {
		return nil, err
	}
	if err := rt.Build(); err != nil {
		return nil, err
	}
	return rt, nil
}
