package di_test

import (
	"reflect"
	"testing"

	"github.com/gocrud/uihost/di"
)

type ServiceA struct {
	Val int
}

type ServiceB struct {
	A *ServiceA `di:""`
}

type InterfaceC interface {
	Do() string
}

type ServiceC struct{}

func (s *ServiceC) Do() string { return "C" }

// ---------------- 测试 RegisterAuto 相关结构 ----------------

// AutoServiceA 用于测试构造函数注册
type AutoServiceA struct {
	Val string
}

func NewAutoServiceA() *AutoServiceA {
	return &AutoServiceA{Val: "auto-A"}
}

// AutoServiceB 用于测试带依赖的构造函数
type AutoServiceB struct {
	A *AutoServiceA
}

func NewAutoServiceB(a *AutoServiceA) *AutoServiceB {
	return &AutoServiceB{A: a}
}

// AutoServiceWithTag 用于测试实例注入 (Struct Pointer + Tag)
type AutoServiceWithTag struct {
	B    *AutoServiceB `di:""`
	Data string
}

func TestDI(t *testing.T) {
	c := di.NewContainer()

	// Register Value
	di.Register[int](c, di.WithValue(100))

	// Register Singleton
	di.Register[*ServiceA](c, di.WithFactory(func(val int) *ServiceA {
		return &ServiceA{Val: val}
	}))

	// Register Transient struct with field injection
	di.Register[*ServiceB](c, di.WithTransient())

	// Register Interface
	di.Register[InterfaceC](c, di.Use[*ServiceC]())

	err := c.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	// Resolve
	b, err := di.Resolve[*ServiceB](c)
	if err != nil {
		t.Fatalf("Resolve ServiceB failed: %v", err)
	}
	if b == nil {
		t.Fatal("Resolved nil ServiceB")
	}
	if b.A == nil {
		t.Fatal("Field injection failed: b.A is nil")
	}
	if b.A.Val != 100 {
		t.Errorf("Expected 100, got %d", b.A.Val)
	}

	// Resolve Interface
	iface, err := di.Resolve[InterfaceC](c)
	if err != nil {
		t.Fatalf("Resolve InterfaceC failed: %v", err)
	}
	if iface.Do() != "C" {
		t.Errorf("Expected 'C', got '%s'", iface.Do())
	}
}

func TestScope(t *testing.T) {
	c := di.NewContainer()

	type ScopedService struct {
		ID int
	}

	counter := 0
	di.Register[*ScopedService](c, di.WithScoped(), di.WithFactory(func() *ScopedService {
		counter++
		return &ScopedService{ID: counter}
	}))

	c.Build()

	scope1 := c.CreateScope()
	s1a, _ := di.Resolve[*ScopedService](scope1)
	s1b, _ := di.Resolve[*ScopedService](scope1)

	if s1a.ID != s1b.ID {
		t.Errorf("Expected same instance in scope 1, got IDs %d and %d", s1a.ID, s1b.ID)
	}
	if s1a.ID != 1 {
		t.Errorf("Expected ID 1, got %d", s1a.ID)
	}

	scope2 := c.CreateScope()
	s2a, _ := di.Resolve[*ScopedService](scope2)
	if s2a.ID != 2 {
		t.Errorf("Expected ID 2, got %d", s2a.ID)
	}
	if s1a.ID == s2a.ID {
		t.Error("Expected different instances across scopes")
	}
}

func TestRegisterAuto(t *testing.T) {
	c := di.NewContainer()

	// 1. 注册构造函数 (无依赖)
	typA, err := di.RegisterAuto(c, NewAutoServiceA)
	if err != nil {
		t.Fatalf("Failed to auto register A: %v", err)
	}
	if typA != reflect.TypeOf(&AutoServiceA{}) {
		t.Errorf("Unexpected return type for A: %v", typA)
	}

	// 2. 注册构造函数 (有依赖)
	typB, err := di.RegisterAuto(c, NewAutoServiceB)
	if err != nil {
		t.Fatalf("Failed to auto register B: %v", err)
	}
	if typB != reflect.TypeOf(&AutoServiceB{}) {
		t.Errorf("Unexpected return type for B: %v", typB)
	}

	// 3. 注册实例指针 (带 Tag，智能检测应自动开启注入)
	// 手动创建一个部分初始化的对象
	instanceWithTag := &AutoServiceWithTag{Data: "manual-data"}
	typTag, err := di.RegisterAuto(c, instanceWithTag)
	if err != nil {
		t.Fatalf("Failed to auto register Tag Instance: %v", err)
	}
	if typTag != reflect.TypeOf(&AutoServiceWithTag{}) {
		t.Errorf("Unexpected return type for Tag: %v", typTag)
	}

	// 4. 注册 reflect.Type (纯类型注册)
	// 这里我们注册一个新类型 AutoServiceC，假设它不需要外部依赖或者依赖已满足
	type AutoServiceC struct {
		Val string
	}
	typC, err := di.RegisterAuto(c, reflect.TypeOf(&AutoServiceC{})) // 注册 *AutoServiceC
	if err != nil {
		t.Fatalf("Failed to auto register Type: %v", err)
	}
	if typC != reflect.TypeOf(&AutoServiceC{}) {
		t.Errorf("Unexpected return type for C: %v", typC)
	}

	// 构建容器
	if err := c.Build(); err != nil {
		t.Fatalf("Container build failed: %v", err)
	}

	// --- 验证 ---

	// 验证构造函数注入
	svcB, err := di.Resolve[*AutoServiceB](c)
	if err != nil {
		t.Fatalf("Resolve B failed: %v", err)
	}
	if svcB.A == nil || svcB.A.Val != "auto-A" {
		t.Error("Dependency injection for B (constructor) failed")
	}

	// 验证实例字段注入 (智能检测)
	svcTag, err := di.Resolve[*AutoServiceWithTag](c)
	if err != nil {
		t.Fatalf("Resolve Tag Instance failed: %v", err)
	}
	if svcTag.Data != "manual-data" {
		t.Error("Instance value preserved failed")
	}
	if svcTag.B == nil {
		t.Error("Field injection for Tag Instance failed (should have been auto-enabled)")
	} else if svcTag.B.A.Val != "auto-A" {
		t.Error("Deep dependency resolution via field injection failed")
	}
}

func TestWithFieldsOption(t *testing.T) {
	c := di.NewContainer()

	di.RegisterAuto(c, NewAutoServiceA)
	di.RegisterAuto(c, NewAutoServiceB)

	// 没有标签检测时显式开启字段注入
	type ManualService struct {
		B *AutoServiceB `di:""`
	}
	instance := &ManualService{}
	if _, err := di.RegisterAuto(c, instance, di.WithFields()); err != nil {
		t.Fatalf("RegisterAuto failed: %v", err)
	}

	if err := c.Build(); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	svc, err := di.Resolve[*ManualService](c)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if svc != instance {
		t.Error("Expected the registered instance")
	}
	if svc.B == nil || svc.B.A == nil {
		t.Error("Explicit WithFields failed to inject")
	}
}

func TestFactoryAlias(t *testing.T) {
	c := di.NewContainer()

	di.Register[*ServiceC](c, di.WithValue(&ServiceC{}))
	di.Register[InterfaceC](c, di.WithFactory(func(s *ServiceC) InterfaceC { return s }))

	if err := c.Build(); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	concrete, _ := di.Resolve[*ServiceC](c)
	iface, _ := di.Resolve[InterfaceC](c)
	if iface != InterfaceC(concrete) {
		t.Error("Expected alias to resolve the same singleton")
	}
	if !di.Has[InterfaceC](c) || di.Has[*ServiceB](c) {
		t.Error("Has reported wrong registrations")
	}
}

func TestRegisterAfterBuild(t *testing.T) {
	c := di.NewContainer()
	if err := c.Build(); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if _, err := di.RegisterAuto(c, NewAutoServiceA); err == nil {
		t.Error("Expected error when registering after build")
	}
}

func TestCircularDependency(t *testing.T) {
	type Left struct{ V int }
	type Right struct{ V int }

	c := di.NewContainer()
	di.Register[*Left](c, di.WithFactory(func(*Right) *Left { return &Left{} }))
	di.Register[*Right](c, di.WithFactory(func(*Left) *Right { return &Right{} }))

	if err := c.Build(); err == nil {
		t.Error("Expected circular dependency error")
	}
}

func TestRegisterAutoDuplicates(t *testing.T) {
	c := di.NewContainer()
	di.RegisterAuto(c, NewAutoServiceA)

	// 尝试重复注册
	_, err := di.RegisterAuto(c, &AutoServiceA{})
	if err == nil {
		t.Error("Expected error when registering duplicate service, got nil")
	}
}
