package di

import (
	"reflect"
	"sync"
)

// ScopeType 服务的生命周期
type ScopeType int

const (
	// ScopeSingleton 每个容器一个实例，Build 时按依赖顺序急切创建
	ScopeSingleton ScopeType = iota
	// ScopeTransient 每次解析都创建新实例
	ScopeTransient
	// ScopeScoped 每个作用域一个实例
	ScopeScoped
)

// String 返回生命周期名称，用于错误信息
func (s ScopeType) String() string {
	switch s {
	case ScopeSingleton:
		return "singleton"
	case ScopeTransient:
		return "transient"
	case ScopeScoped:
		return "scoped"
	default:
		return "unknown"
	}
}

// ServiceKey 服务表中的唯一键（类型 + 名称）
type ServiceKey struct {
	Type reflect.Type
	Name string
}

// FieldInjection 需要注入的结构体字段
type FieldInjection struct {
	Index       int
	Name        string
	Type        reflect.Type
	Optional    bool
	ServiceName string
}

// InjectionSchema Build 阶段预先计算好的注入信息
type InjectionSchema struct {
	Fields []FieldInjection // 结构体字段注入
	Args   []reflect.Type   // 工厂/构造函数参数
}

// ServiceDefinition 一条服务注册记录
type ServiceDefinition struct {
	ID           int
	Type         reflect.Type
	Name         string
	Scope        ScopeType
	ImplType     reflect.Type // 结构体注入时实例化的类型
	Impl         any          // 工厂函数或现成实例
	IsFactory    bool
	IsValue      bool
	InjectFields bool // 对现成实例执行字段注入

	Schema *InjectionSchema

	singletonInst any
	singletonErr  error
	singletonOnce sync.Once
}

func (d *ServiceDefinition) key() ServiceKey {
	return ServiceKey{Type: d.Type, Name: d.Name}
}
