package core

import (
	"reflect"
	"sync"
)

// FeatureCollection 是一个类型安全的特性集合
// 用于存放配置、HostingContext 等构建时特性
type FeatureCollection struct {
	features sync.Map
}

// Set 以特性的动态类型注册
func (fc *FeatureCollection) Set(feature any) {
	fc.features.Store(reflect.TypeOf(feature), feature)
}

// SetAs 以指定类型注册，typ 可以是接口
func (fc *FeatureCollection) SetAs(typ reflect.Type, feature any) {
	fc.features.Store(typ, feature)
}

// Get 获取一个特性
func (fc *FeatureCollection) Get(typ reflect.Type) (any, bool) {
	return fc.features.Load(typ)
}

// SetFeature 以 T 为键注册特性，读取时用同一个 T
func SetFeature[T any](rt *Runtime, feature T) {
	rt.Features.SetAs(reflect.TypeOf((*T)(nil)).Elem(), feature)
}

// GetFeature 泛型辅助函数，从 Runtime 获取特性
func GetFeature[T any](rt *Runtime) T {
	v, _ := LookupFeature[T](rt)
	return v
}

// LookupFeature 同 GetFeature，额外返回是否存在
func LookupFeature[T any](rt *Runtime) (T, bool) {
	var zero T
	// T 为接口时 reflect.TypeOf(zero) 为 nil，所以取指针的 Elem
	targetType := reflect.TypeOf((*T)(nil)).Elem()

	if val, ok := rt.Features.Get(targetType); ok {
		if v, ok := val.(T); ok {
			return v, true
		}
	}
	return zero, false
}
