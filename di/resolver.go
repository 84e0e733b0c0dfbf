package di

import (
	"fmt"
	"reflect"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

type resolver struct{}

// createInstance 按 def 创建实例，依赖从 c 递归解析
func (r *resolver) createInstance(c Container, def *ServiceDefinition) (any, error) {
	switch {
	case def.IsValue:
		if def.InjectFields && len(def.Schema.Fields) > 0 {
			val := reflect.ValueOf(def.Impl)
			if val.Kind() == reflect.Ptr && val.Elem().Kind() == reflect.Struct {
				if err := r.injectFields(c, val.Elem(), def.Schema); err != nil {
					return nil, err
				}
			}
		}
		return def.Impl, nil

	case def.IsFactory:
		return r.invokeFunction(c, def.Impl, def.Schema)

	case def.Impl != nil && reflect.TypeOf(def.Impl).Kind() == reflect.Func:
		return r.invokeFunction(c, def.Impl, def.Schema)
	}

	return r.createStruct(c, def)
}

func (r *resolver) invokeFunction(c Container, fn any, schema *InjectionSchema) (any, error) {
	args := make([]reflect.Value, len(schema.Args))
	for i, argType := range schema.Args {
		argVal, err := c.Get(argType)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		if argVal == nil {
			args[i] = reflect.Zero(argType)
			continue
		}
		args[i] = reflect.ValueOf(argVal)
	}

	results := reflect.ValueOf(fn).Call(args)
	if len(results) == 0 {
		return nil, fmt.Errorf("factory returned no values")
	}

	if last := results[len(results)-1]; len(results) > 1 && last.Type().Implements(errorType) && !last.IsNil() {
		return nil, last.Interface().(error)
	}

	return results[0].Interface(), nil
}

// createStruct 实例化 ImplType 并注入带 `di` 标签的字段
func (r *resolver) createStruct(c Container, def *ServiceDefinition) (any, error) {
	implType := def.ImplType
	if implType.Kind() == reflect.Interface {
		return nil, fmt.Errorf("di: %v is an interface, register it with di.Use or a factory", implType)
	}

	var val reflect.Value
	if implType.Kind() == reflect.Ptr {
		val = reflect.New(implType.Elem())
	} else {
		val = reflect.New(implType)
	}

	if val.Elem().Kind() == reflect.Struct {
		if err := r.injectFields(c, val.Elem(), def.Schema); err != nil {
			return nil, err
		}
	}

	if implType.Kind() == reflect.Ptr {
		return val.Interface(), nil
	}
	return val.Elem().Interface(), nil
}

func (r *resolver) injectFields(c Container, structVal reflect.Value, schema *InjectionSchema) error {
	for _, field := range schema.Fields {
		dep, err := c.GetNamed(field.Type, field.ServiceName)
		if err != nil {
			if field.Optional {
				continue
			}
			return fmt.Errorf("field %s: %w", field.Name, err)
		}
		if dep == nil {
			continue
		}
		structVal.Field(field.Index).Set(reflect.ValueOf(dep))
	}
	return nil
}
