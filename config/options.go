package config

import (
	"errors"
	"fmt"
	"sync"
)

// Option 静态配置选项，启动时绑定一次
type Option[T any] interface {
	Value() T
}

// OptionMonitor 总是返回最新的配置值，配置重新加载后自动更新
type OptionMonitor[T any] interface {
	Value() T
	// OnChange 注册变更回调，参数为新值
	OnChange(fn func(T))
}

// OptionsCache 绑定某个配置节并在重新加载时刷新
type OptionsCache[T any] struct {
	config    Configuration
	section   string
	current   T
	listeners []func(T)
	mu        sync.RWMutex
}

// NewOptionsCache 创建配置缓存；节不存在时使用零值
func NewOptionsCache[T any](config Configuration, section string) *OptionsCache[T] {
	cache := &OptionsCache[T]{
		config:  config,
		section: section,
	}
	cache.reload()

	if rc, ok := config.(interface{ OnReload(func()) }); ok {
		rc.OnReload(func() {
			cache.reload()
		})
	}

	return cache
}

func (c *OptionsCache[T]) reload() error {
	var newValue T
	if err := c.config.Bind(c.section, &newValue); err != nil && !errors.Is(err, ErrKeyNotFound) {
		return fmt.Errorf("failed to bind config section %s: %w", c.section, err)
	}

	c.mu.Lock()
	c.current = newValue
	listeners := append([]func(T){}, c.listeners...)
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(newValue)
	}
	return nil
}

// Get 获取当前配置值
func (c *OptionsCache[T]) Get() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

type option[T any] struct {
	value T
}

func (o *option[T]) Value() T {
	return o.value
}

// NewOption 创建静态配置选项
func NewOption[T any](value T) Option[T] {
	return &option[T]{value: value}
}

type optionMonitor[T any] struct {
	cache *OptionsCache[T]
}

func (o *optionMonitor[T]) Value() T {
	return o.cache.Get()
}

func (o *optionMonitor[T]) OnChange(fn func(T)) {
	o.cache.mu.Lock()
	defer o.cache.mu.Unlock()
	o.cache.listeners = append(o.cache.listeners, fn)
}

// NewOptionMonitor 创建监听配置选项
func NewOptionMonitor[T any](cache *OptionsCache[T]) OptionMonitor[T] {
	return &optionMonitor[T]{cache: cache}
}
