package di

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
)

// Container 依赖注入容器
type Container interface {
	// Add 注册服务定义，Build 之后调用会失败
	Add(def *ServiceDefinition) error

	// Build 校验依赖图并按拓扑顺序创建所有单例
	Build() error

	// Get 解析默认名称的服务
	Get(typ reflect.Type) (any, error)

	// GetNamed 解析指定名称的服务
	GetNamed(typ reflect.Type, name string) (any, error)

	// Has 判断服务是否已注册
	Has(typ reflect.Type, name string) bool

	// CreateScope 创建新的作用域
	CreateScope() Scope
}

type container struct {
	mu          sync.RWMutex
	definitions map[ServiceKey]*ServiceDefinition
	built       atomic.Bool
	count       int
	resolver    *resolver
}

// NewContainer 创建空容器
func NewContainer() Container {
	return &container{
		definitions: make(map[ServiceKey]*ServiceDefinition),
		resolver:    &resolver{},
	}
}

func (c *container) Add(def *ServiceDefinition) error {
	if c.built.Load() {
		return fmt.Errorf("di: cannot register %v after build", def.Type)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	key := def.key()
	if _, exists := c.definitions[key]; exists {
		if def.Name == "" {
			return fmt.Errorf("di: service %v already registered", def.Type)
		}
		return fmt.Errorf("di: service %v (name=%s) already registered", def.Type, def.Name)
	}

	c.definitions[key] = def
	return nil
}

func (c *container) Build() error {
	c.mu.Lock()
	if c.built.Load() {
		c.mu.Unlock()
		return nil
	}

	// 作用域通过 ID 做数组下标
	c.count = 0
	for _, def := range c.definitions {
		def.ID = c.count
		c.count++
	}

	order, err := newGraphBuilder(c.definitions).buildOrder()
	if err != nil {
		c.mu.Unlock()
		return err
	}

	// 之后 definitions 只读，Get 可以无锁访问
	c.built.Store(true)
	c.mu.Unlock()

	// 锁外创建单例，单例构造时会回调 Get
	for _, key := range order {
		if c.definitions[key].Scope != ScopeSingleton {
			continue
		}
		if _, err := c.GetNamed(key.Type, key.Name); err != nil {
			return fmt.Errorf("di: failed to build singleton %v (name=%s): %w", key.Type, key.Name, err)
		}
	}

	return nil
}

func (c *container) Get(typ reflect.Type) (any, error) {
	return c.GetNamed(typ, "")
}

func (c *container) GetNamed(typ reflect.Type, name string) (any, error) {
	def, err := c.lookup(typ, name)
	if err != nil {
		return nil, err
	}

	switch def.Scope {
	case ScopeSingleton:
		return c.singleton(def)
	case ScopeTransient:
		return c.resolver.createInstance(c, def)
	case ScopeScoped:
		return nil, fmt.Errorf("di: scoped service %v cannot be resolved from the root container, use CreateScope()", typ)
	}

	return nil, fmt.Errorf("di: unknown scope %v", def.Scope)
}

func (c *container) Has(typ reflect.Type, name string) bool {
	if !c.built.Load() {
		c.mu.RLock()
		defer c.mu.RUnlock()
	}
	_, ok := c.definitions[ServiceKey{Type: typ, Name: name}]
	return ok
}

func (c *container) CreateScope() Scope {
	return newScope(c)
}

func (c *container) lookup(typ reflect.Type, name string) (*ServiceDefinition, error) {
	if !c.built.Load() {
		return nil, fmt.Errorf("di: container not built")
	}

	def, ok := c.definitions[ServiceKey{Type: typ, Name: name}]
	if !ok {
		if name == "" {
			return nil, fmt.Errorf("di: service %v not found", typ)
		}
		return nil, fmt.Errorf("di: service %v (name=%s) not found", typ, name)
	}
	return def, nil
}

// singleton 单例只创建一次，依赖总是从根容器解析
func (c *container) singleton(def *ServiceDefinition) (any, error) {
	def.singletonOnce.Do(func() {
		def.singletonInst, def.singletonErr = c.resolver.createInstance(c, def)
	})
	return def.singletonInst, def.singletonErr
}
