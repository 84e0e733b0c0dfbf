package di

import (
	"fmt"
	"reflect"
)

// RegisterAuto 根据 target 推断服务类型并注册
//
// 支持的 target:
//  1. func(...) (Service, error?) 工厂，服务类型为第一个返回值
//  2. *Struct 现成实例；结构体字段带 `di` 标签时自动开启字段注入
//  3. reflect.Type 按类型做结构体注入
func RegisterAuto(c Container, target any, opts ...Option) (reflect.Type, error) {
	var def *ServiceDefinition

	if typ, ok := target.(reflect.Type); ok {
		def = &ServiceDefinition{Type: typ, Scope: ScopeSingleton, ImplType: typ}
	} else {
		val := reflect.ValueOf(target)
		switch val.Kind() {
		case reflect.Func:
			if val.Type().NumOut() == 0 {
				return nil, fmt.Errorf("di: constructor %v must return at least one value", val.Type())
			}
			def = &ServiceDefinition{
				Type:      val.Type().Out(0),
				Scope:     ScopeSingleton,
				Impl:      target,
				IsFactory: true,
			}

		case reflect.Ptr:
			def = &ServiceDefinition{
				Type:         val.Type(),
				Scope:        ScopeSingleton,
				Impl:         target,
				IsValue:      true,
				InjectFields: hasInjectTags(val.Type()),
			}

		default:
			return nil, fmt.Errorf("di: unsupported registration target %T", target)
		}
	}

	for _, opt := range opts {
		opt(def)
	}

	if err := c.Add(def); err != nil {
		return nil, err
	}
	return def.Type, nil
}

// Register 注册类型 T；T 为接口时需要 Use[Impl]()、WithValue 或 WithFactory
// 重复注册属于编程错误，直接 panic
func Register[T any](c Container, opts ...Option) {
	typ := TypeOf[T]()

	def := &ServiceDefinition{
		Type:     typ,
		Scope:    ScopeSingleton,
		ImplType: typ,
	}
	for _, opt := range opts {
		opt(def)
	}

	if err := c.Add(def); err != nil {
		panic(fmt.Sprintf("di: failed to register %v: %v", typ, err))
	}
}

// Resolve 解析 T
func Resolve[T any](c Container) (T, error) {
	return ResolveNamed[T](c, "")
}

// ResolveNamed 解析指定名称的 T
func ResolveNamed[T any](c Container, name string) (T, error) {
	var zero T
	typ := TypeOf[T]()

	val, err := c.GetNamed(typ, name)
	if err != nil {
		return zero, err
	}
	if val == nil {
		return zero, nil
	}

	v, ok := val.(T)
	if !ok {
		return zero, fmt.Errorf("di: resolved value is %T, expected %v", val, typ)
	}
	return v, nil
}

// MustResolve 解析失败时 panic，只用于组装阶段
func MustResolve[T any](c Container) T {
	v, err := Resolve[T](c)
	if err != nil {
		panic(err)
	}
	return v
}

// Has 判断 T 是否已注册
func Has[T any](c Container) bool {
	return c.Has(TypeOf[T](), "")
}

// TypeOf 返回 T 的 reflect.Type，T 可以是接口
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func hasInjectTags(typ reflect.Type) bool {
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return false
	}
	for i := 0; i < typ.NumField(); i++ {
		if _, ok := typ.Field(i).Tag.Lookup("di"); ok {
			return true
		}
	}
	return false
}
