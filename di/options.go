package di

import "reflect"

// Option 修改一条服务注册
type Option func(*ServiceDefinition)

// WithScope 设置生命周期
func WithScope(scope ScopeType) Option {
	return func(s *ServiceDefinition) {
		s.Scope = scope
	}
}

// WithSingleton 单例（默认）
func WithSingleton() Option {
	return WithScope(ScopeSingleton)
}

// WithTransient 瞬态
func WithTransient() Option {
	return WithScope(ScopeTransient)
}

// WithScoped 作用域
func WithScoped() Option {
	return WithScope(ScopeScoped)
}

// WithValue 注册一个已经创建好的实例，始终是单例
func WithValue(v any) Option {
	return func(s *ServiceDefinition) {
		s.Impl = v
		s.IsValue = true
		s.Scope = ScopeSingleton
	}
}

// WithFactory 使用工厂函数创建实例，函数参数由容器注入
func WithFactory(fn any) Option {
	return func(s *ServiceDefinition) {
		s.Impl = fn
		s.IsFactory = true
	}
}

// WithName 命名注册，配合 `di:"name"` 标签或 ResolveNamed 使用
func WithName(name string) Option {
	return func(s *ServiceDefinition) {
		s.Name = name
	}
}

// WithFields 对 WithValue 注册的实例执行 `di` 标签字段注入
func WithFields() Option {
	return func(s *ServiceDefinition) {
		s.InjectFields = true
	}
}

// Use 指定接口的实现类型
func Use[T any]() Option {
	return func(s *ServiceDefinition) {
		s.ImplType = reflect.TypeOf((*T)(nil)).Elem()
	}
}
