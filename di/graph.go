package di

import (
	"fmt"
	"reflect"
	"strings"
)

// graphBuilder 构建依赖图：填充 Schema、检测循环依赖、给出单例创建顺序
type graphBuilder struct {
	definitions map[ServiceKey]*ServiceDefinition
}

func newGraphBuilder(defs map[ServiceKey]*ServiceDefinition) *graphBuilder {
	return &graphBuilder{definitions: defs}
}

func (g *graphBuilder) buildOrder() ([]ServiceKey, error) {
	dependencies := make(map[ServiceKey][]ServiceKey, len(g.definitions))
	for key, def := range g.definitions {
		deps, err := g.inspectDependencies(def)
		if err != nil {
			return nil, fmt.Errorf("di: inspecting dependencies of %v (name=%s): %w", key.Type, key.Name, err)
		}
		dependencies[key] = deps
	}

	visited := make(map[ServiceKey]bool)
	onStack := make(map[ServiceKey]bool)
	order := make([]ServiceKey, 0, len(g.definitions))

	var visit func(ServiceKey) error
	visit = func(u ServiceKey) error {
		visited[u] = true
		onStack[u] = true

		for _, v := range dependencies[u] {
			// 未注册的依赖留给解析时报错
			if _, exists := g.definitions[v]; !exists {
				continue
			}
			if !visited[v] {
				if err := visit(v); err != nil {
					return err
				}
			} else if onStack[v] {
				return fmt.Errorf("di: circular dependency %v(name=%s) -> %v(name=%s)", u.Type, u.Name, v.Type, v.Name)
			}
		}

		onStack[u] = false
		order = append(order, u)
		return nil
	}

	for key := range g.definitions {
		if visited[key] {
			continue
		}
		if err := visit(key); err != nil {
			return nil, err
		}
	}

	return order, nil
}

// inspectDependencies 返回 def 依赖的服务，同时写入 def.Schema
func (g *graphBuilder) inspectDependencies(def *ServiceDefinition) ([]ServiceKey, error) {
	def.Schema = &InjectionSchema{}

	switch {
	case def.IsValue:
		if !def.InjectFields || def.Impl == nil {
			return nil, nil
		}
		return g.analyzeStruct(reflect.TypeOf(def.Impl), def.Schema)

	case def.IsFactory:
		return g.analyzeFunction(def.Impl, def.Schema)

	case def.Impl != nil && reflect.TypeOf(def.Impl).Kind() == reflect.Func:
		return g.analyzeFunction(def.Impl, def.Schema)
	}

	return g.analyzeStruct(def.ImplType, def.Schema)
}

func (g *graphBuilder) analyzeFunction(fn any, schema *InjectionSchema) ([]ServiceKey, error) {
	fnType := reflect.TypeOf(fn)
	if fnType == nil || fnType.Kind() != reflect.Func {
		return nil, fmt.Errorf("expected a function, got %v", fnType)
	}

	deps := make([]ServiceKey, 0, fnType.NumIn())
	for i := 0; i < fnType.NumIn(); i++ {
		argType := fnType.In(i)
		deps = append(deps, ServiceKey{Type: argType})
		schema.Args = append(schema.Args, argType)
	}
	return deps, nil
}

func (g *graphBuilder) analyzeStruct(typ reflect.Type, schema *InjectionSchema) ([]ServiceKey, error) {
	if typ == nil {
		return nil, nil
	}
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return nil, nil
	}

	var deps []ServiceKey
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		tag, ok := field.Tag.Lookup("di")
		if !ok {
			continue
		}

		name, optional := parseTag(tag)
		schema.Fields = append(schema.Fields, FieldInjection{
			Index:       i,
			Name:        field.Name,
			Type:        field.Type,
			Optional:    optional,
			ServiceName: name,
		})

		if optional {
			continue
		}
		deps = append(deps, ServiceKey{Type: field.Type, Name: name})
	}
	return deps, nil
}

// parseTag 解析 `di:"name,?"`；"?" 与 "optional" 表示可选
func parseTag(tag string) (name string, optional bool) {
	parts := strings.Split(tag, ",")
	name = strings.TrimSpace(parts[0])
	if name == "?" || name == "optional" {
		return "", true
	}

	for _, part := range parts[1:] {
		switch strings.TrimSpace(part) {
		case "?", "optional":
			optional = true
		}
	}
	return name, optional
}
