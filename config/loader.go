package config

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gocrud/uihost/core"
	"github.com/gocrud/uihost/di"
	"github.com/gocrud/uihost/logging"
)

// DefaultEnvPrefix 默认读取的环境变量前缀
const DefaultEnvPrefix = "UIHOST_"

// LoadOptions 配置加载选项
type LoadOptions struct {
	Paths     []string
	Optional  bool
	EnvPrefix string
	Etcd      *EtcdOptions
	HotReload bool
}

// LoadOption 配置加载选项函数
type LoadOption func(*LoadOptions)

// WithOptionalFiles 文件不存在时不报错
func WithOptionalFiles() LoadOption {
	return func(o *LoadOptions) {
		o.Optional = true
	}
}

// WithEnvPrefix 修改环境变量前缀，空字符串表示不读取环境变量
func WithEnvPrefix(prefix string) LoadOption {
	return func(o *LoadOptions) {
		o.EnvPrefix = prefix
	}
}

// WithEtcd 追加 etcd 配置源，优先级最高
func WithEtcd(opts EtcdOptions) LoadOption {
	return func(o *LoadOptions) {
		o.Etcd = &opts
	}
}

// WithHotReload 监听 etcd 变更并重新加载配置
func WithHotReload() LoadOption {
	return func(o *LoadOptions) {
		o.HotReload = true
	}
}

// Load 加载配置文件、环境变量和可选的 etcd
// .json 按 JSON 解析，其余按 YAML；path 为空时只读环境变量
func Load(path string, opts ...LoadOption) core.Option {
	return func(rt *core.Runtime) error {
		options := &LoadOptions{EnvPrefix: DefaultEnvPrefix}
		if path != "" {
			options.Paths = []string{path}
		}
		for _, opt := range opts {
			opt(options)
		}

		builder := NewConfigurationBuilder()
		for _, p := range options.Paths {
			if strings.EqualFold(filepath.Ext(p), ".json") {
				builder.AddJsonFile(p, options.Optional)
			} else {
				builder.AddYamlFile(p, options.Optional)
			}
		}
		if options.EnvPrefix != "" {
			builder.AddEnvironmentVariables(options.EnvPrefix)
		}

		var etcd *EtcdSource
		if options.Etcd != nil {
			etcd = NewEtcdSource(*options.Etcd)
			builder.Add(etcd)
		}

		cfg, err := builder.Build()
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}

		if err := Use(cfg)(rt); err != nil {
			return err
		}

		if options.HotReload && etcd != nil {
			return core.WithWorker(func(ctx context.Context) error {
				logger := logging.CreateLogger(rt.LoggerFactory(), "Configuration")
				return etcd.Watch(ctx, func() {
					if err := cfg.Reload(); err != nil {
						logger.Warn("Failed to reload configuration", logging.Field{Key: "error", Value: err.Error()})
						return
					}
					logger.Info("Configuration reloaded")
				})
			})(rt)
		}
		return nil
	}
}

// Use 安装一个现成的配置：注册为 Runtime Feature 并放入 DI 容器
func Use(cfg Configuration) core.Option {
	return func(rt *core.Runtime) error {
		if _, exists := core.LookupFeature[Configuration](rt); exists {
			return errors.New("config: configuration already loaded")
		}
		core.SetFeature[Configuration](rt, cfg)
		di.Register[Configuration](rt.Container, di.WithValue(cfg))
		if rc, ok := cfg.(ReloadableConfiguration); ok {
			di.Register[ReloadableConfiguration](rt.Container, di.WithValue(rc))
		}
		return nil
	}
}

// FromRuntime 返回已加载的配置，没有时返回 nil
func FromRuntime(rt *core.Runtime) Configuration {
	return core.GetFeature[Configuration](rt)
}

// Bind 将配置节绑定到 T 并注册到 DI 容器
// 未加载配置或节不存在时注册 T 的零值
func Bind[T any](rt *core.Runtime, section string) (*T, error) {
	settings := new(T)
	if cfg := FromRuntime(rt); cfg != nil {
		if err := cfg.Bind(section, settings); err != nil && !errors.Is(err, ErrKeyNotFound) {
			return nil, fmt.Errorf("config: failed to bind section '%s': %w", section, err)
		}
	}

	if err := rt.Provide(settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// WithOptions 绑定配置节，同时注册 Option[T] 与 OptionMonitor[T]
// 配置重新加载后 OptionMonitor 返回新值
func WithOptions[T any](section string) core.Option {
	return func(rt *core.Runtime) error {
		settings, err := Bind[T](rt, section)
		if err != nil {
			return err
		}
		di.Register[Option[T]](rt.Container, di.WithValue(NewOption(*settings)))

		cfg := FromRuntime(rt)
		if cfg == nil {
			cfg = newStaticConfiguration(make(map[string]any))
		}
		di.Register[OptionMonitor[T]](rt.Container, di.WithValue(NewOptionMonitor(NewOptionsCache[T](cfg, section))))
		return nil
	}
}
