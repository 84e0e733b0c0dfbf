package config

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
	"gopkg.in/yaml.v3"
)

// EtcdOptions etcd 配置选项
type EtcdOptions struct {
	Endpoints   []string      // etcd 服务器地址列表
	Username    string        // 用户名（可选）
	Password    string        // 密码（可选）
	Prefix      string        // 键前缀（可选）
	Timeout     time.Duration // 读取超时时间（默认 5 秒）
	DialTimeout time.Duration // 拨号超时时间（默认 5 秒）
}

// AddEtcd 添加 etcd 配置源
func (b *ConfigurationBuilder) AddEtcd(opts EtcdOptions) *ConfigurationBuilder {
	return b.Add(NewEtcdSource(opts))
}

// EtcdSource etcd 配置源
// 键 <prefix>/ui/lifetimeLinked 映射为 ui:lifetimeLinked
type EtcdSource struct {
	Options EtcdOptions
}

// NewEtcdSource 创建 etcd 配置源并补全默认超时
func NewEtcdSource(opts EtcdOptions) *EtcdSource {
	if opts.Timeout == 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = 5 * time.Second
	}
	return &EtcdSource{Options: opts}
}

func (s *EtcdSource) Name() string {
	return fmt.Sprintf("Etcd(%v)", s.Options.Endpoints)
}

func (s *EtcdSource) client() (*clientv3.Client, error) {
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   s.Options.Endpoints,
		Username:    s.Options.Username,
		Password:    s.Options.Password,
		DialTimeout: s.Options.DialTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create etcd client: %w", err)
	}
	return cli, nil
}

func (s *EtcdSource) prefix() string {
	if s.Options.Prefix == "" {
		return "/"
	}
	return s.Options.Prefix
}

func (s *EtcdSource) Load() (map[string]any, error) {
	cli, err := s.client()
	if err != nil {
		return nil, err
	}
	defer cli.Close()

	ctx, cancel := context.WithTimeout(context.Background(), s.Options.Timeout)
	defer cancel()

	resp, err := cli.Get(ctx, s.prefix(), clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("failed to get config from etcd: %w", err)
	}

	result := make(map[string]any)
	for _, kv := range resp.Kvs {
		s.apply(result, string(kv.Key), string(kv.Value))
	}
	return result, nil
}

// apply 把一个 etcd 键值写入 result；值依次尝试 JSON、YAML，都失败则按字符串处理
func (s *EtcdSource) apply(result map[string]any, key, value string) {
	if s.Options.Prefix != "" {
		key = strings.TrimPrefix(key, s.Options.Prefix)
	}
	key = strings.TrimPrefix(key, "/")
	if key == "" {
		return
	}
	key = strings.ReplaceAll(key, "/", ":")

	var jsonValue any
	if err := json.Unmarshal([]byte(value), &jsonValue); err == nil {
		setNestedValue(result, key, jsonValue)
		return
	}

	var yamlValue any
	if err := yaml.Unmarshal([]byte(value), &yamlValue); err == nil {
		setNestedValue(result, key, yamlValue)
		return
	}

	setNestedValue(result, key, value)
}

// Watch 监听前缀下的变更，每批事件调用一次 onChange，直到 ctx 取消
func (s *EtcdSource) Watch(ctx context.Context, onChange func()) error {
	cli, err := s.client()
	if err != nil {
		return err
	}
	defer cli.Close()

	for resp := range cli.Watch(ctx, s.prefix(), clientv3.WithPrefix()) {
		if err := resp.Err(); err != nil {
			return fmt.Errorf("etcd watch: %w", err)
		}
		if len(resp.Events) > 0 {
			onChange()
		}
	}
	return ctx.Err()
}
