package config

import (
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
)

// snapshot 一次加载的合并结果
type snapshot struct {
	data     map[string]any
	revision uint64
}

// ValueStore 原子保存配置快照，读取无锁
type ValueStore struct {
	current atomic.Pointer[snapshot]
}

// NewValueStore 创建空的 ValueStore
func NewValueStore() *ValueStore {
	s := &ValueStore{}
	s.current.Store(&snapshot{data: map[string]any{}})
	return s
}

// Load 当前快照，调用方不得修改
func (s *ValueStore) Load() map[string]any {
	return s.current.Load().data
}

// Revision 每次内容变化加一
func (s *ValueStore) Revision() uint64 {
	return s.current.Load().revision
}

// Store 替换快照；内容与当前相同时不替换，返回 false
// 只由 Reload 调用，写入方是串行的
func (s *ValueStore) Store(data map[string]any) bool {
	old := s.current.Load()
	if old.revision > 0 && reflect.DeepEqual(old.data, data) {
		return false
	}
	s.current.Store(&snapshot{data: data, revision: old.revision + 1})
	return true
}

// PathCache 缓存键到路径片段的解析结果
type PathCache struct {
	cache sync.Map
}

// GetPathSegments "ui:lifetimeLinked" 与 "ui.lifetimeLinked" 都解析为 [ui lifetimeLinked]，忽略空片段
func (c *PathCache) GetPathSegments(path string) []string {
	if v, ok := c.cache.Load(path); ok {
		return v.([]string)
	}

	parts := strings.FieldsFunc(path, func(r rune) bool { return r == ':' || r == '.' })
	c.cache.Store(path, parts)
	return parts
}

var globalPathCache = &PathCache{}
