package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gocrud/uihost/core"
	"github.com/gocrud/uihost/di"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueStore(t *testing.T) {
	store := NewValueStore()

	assert.True(t, store.Store(map[string]any{"key": "value"}))
	assert.Equal(t, "value", store.Load()["key"])
	assert.Equal(t, uint64(1), store.Revision())

	assert.False(t, store.Store(map[string]any{"key": "value"}))
	assert.Equal(t, uint64(1), store.Revision())

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.Load()
		}()
	}
	wg.Wait()
}

func TestPathCache(t *testing.T) {
	cache := &PathCache{}

	parts := cache.GetPathSegments("a:b.c")
	assert.Equal(t, []string{"a", "b", "c"}, parts)
	assert.Equal(t, parts, cache.GetPathSegments("a:b.c"))
	assert.Equal(t, []string{"ui"}, cache.GetPathSegments("ui:"))
}

func TestBuilderMergesSourcesInOrder(t *testing.T) {
	cfg, err := NewConfigurationBuilder().
		AddInMemory(map[string]any{"ui": map[string]any{"lifetimeLinked": true, "title": "a"}}).
		AddInMemory(map[string]any{"ui": map[string]any{"title": "b"}}).
		Build()
	require.NoError(t, err)

	assert.Equal(t, "b", cfg.Get("ui:title"))
	linked, err := cfg.GetBool("ui.lifetimeLinked")
	require.NoError(t, err)
	assert.True(t, linked)
	assert.Equal(t, "b", cfg.GetSection("ui").Get("title"))
	assert.Equal(t, "x", cfg.GetWithDefault("ui:missing", "x"))
}

func TestBindMissingKey(t *testing.T) {
	cfg, err := NewConfigurationBuilder().Build()
	require.NoError(t, err)

	var target struct{ A int }
	assert.ErrorIs(t, cfg.Bind("nope", &target), ErrKeyNotFound)
}

func TestEnvironmentVariables(t *testing.T) {
	t.Setenv("UIHOSTTEST_UI_LIFETIMELINKED", "false")
	t.Setenv("UIHOSTTEST_STATUS_PORT", "8081")

	cfg, err := NewConfigurationBuilder().AddEnvironmentVariables("UIHOSTTEST_").Build()
	require.NoError(t, err)

	linked, err := cfg.GetBool("ui:lifetimelinked")
	require.NoError(t, err)
	assert.False(t, linked)

	port, err := cfg.GetInt("status:port")
	require.NoError(t, err)
	assert.Equal(t, 8081, port)
}

type uiSettings struct {
	LifetimeLinked *bool  `json:"lifetimeLinked"`
	Title          string `json:"title"`
}

func TestBoolAcceptsNumbers(t *testing.T) {
	t.Setenv("UIHOSTTEST_FLAGS_ON", "1")
	t.Setenv("UIHOSTTEST_FLAGS_OFF", "0")
	t.Setenv("UIHOSTTEST_FLAGS_WORD", "true")
	t.Setenv("UIHOSTTEST_FLAGS_BAD", "7")
	cfg, err := NewConfigurationBuilder().AddEnvironmentVariables("UIHOSTTEST_").Build()
	require.NoError(t, err)

	var flags struct {
		On   Bool `json:"on"`
		Off  Bool `json:"off"`
		Word Bool `json:"word"`
	}
	require.NoError(t, cfg.Bind("flags", &flags))
	assert.True(t, bool(flags.On))
	assert.False(t, bool(flags.Off))
	assert.True(t, bool(flags.Word))

	on, err := cfg.GetBool("flags:on")
	require.NoError(t, err)
	assert.True(t, on)

	_, err = cfg.GetBool("flags:bad")
	assert.Error(t, err)

	_, err = cfg.GetBool("flags:missing")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	var bad struct {
		Bad Bool `json:"bad"`
	}
	assert.Error(t, cfg.Bind("flags", &bad))
}

func TestLoadYamlFileAndBind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ui:\n  lifetimeLinked: false\n  title: demo\n"), 0o644))

	rt := core.NewRuntime()
	require.NoError(t, rt.Apply(Load(path, WithEnvPrefix(""))))

	settings, err := Bind[uiSettings](rt, "ui")
	require.NoError(t, err)
	require.NotNil(t, settings.LifetimeLinked)
	assert.False(t, *settings.LifetimeLinked)
	assert.Equal(t, "demo", settings.Title)

	require.NoError(t, rt.Build())
	resolved := di.MustResolve[*uiSettings](rt.Container)
	assert.Same(t, settings, resolved)
	assert.NotNil(t, di.MustResolve[Configuration](rt.Container))
}

func TestLoadMissingFile(t *testing.T) {
	rt := core.NewRuntime()
	assert.Error(t, rt.Apply(Load(filepath.Join(t.TempDir(), "missing.yaml"))))

	rt = core.NewRuntime()
	assert.NoError(t, rt.Apply(Load(filepath.Join(t.TempDir(), "missing.json"), WithOptionalFiles())))
}

func TestLoadTwice(t *testing.T) {
	rt := core.NewRuntime()
	require.NoError(t, rt.Apply(Load("", WithEnvPrefix(""))))
	assert.Error(t, rt.Apply(Load("", WithEnvPrefix(""))))
}

func TestBindWithoutConfiguration(t *testing.T) {
	rt := core.NewRuntime()
	settings, err := Bind[uiSettings](rt, "ui")
	require.NoError(t, err)
	assert.Nil(t, settings.LifetimeLinked)
}

func TestOptionMonitorFollowsReload(t *testing.T) {
	data := map[string]any{"ui": map[string]any{"title": "one"}}
	source := &InMemorySource{Data: data}
	cfg, err := NewConfigurationBuilder().Add(source).Build()
	require.NoError(t, err)

	monitor := NewOptionMonitor(NewOptionsCache[uiSettings](cfg, "ui"))
	assert.Equal(t, "one", monitor.Value().Title)

	changed := make(chan string, 1)
	monitor.OnChange(func(v uiSettings) { changed <- v.Title })

	// 内容未变化时不通知
	require.NoError(t, cfg.Reload())
	assert.Empty(t, changed)

	data["ui"] = map[string]any{"title": "two"}
	require.NoError(t, cfg.Reload())
	assert.Equal(t, "two", monitor.Value().Title)
	assert.Equal(t, "two", <-changed)
}

func TestWithOptions(t *testing.T) {
	cfg, err := NewConfigurationBuilder().AddInMemory(map[string]any{"ui": map[string]any{"title": "t"}}).Build()
	require.NoError(t, err)

	rt := core.NewRuntime()
	require.NoError(t, rt.Apply(Use(cfg), WithOptions[uiSettings]("ui")))
	require.NoError(t, rt.Build())

	opt := di.MustResolve[Option[uiSettings]](rt.Container)
	assert.Equal(t, "t", opt.Value().Title)
	monitor := di.MustResolve[OptionMonitor[uiSettings]](rt.Container)
	assert.Equal(t, "t", monitor.Value().Title)
}

func TestEtcdApply(t *testing.T) {
	src := NewEtcdSource(EtcdOptions{Prefix: "/uihost"})
	result := make(map[string]any)

	src.apply(result, "/uihost/ui/lifetimeLinked", "false")
	src.apply(result, "/uihost/ui/window", `{"title":"demo"}`)
	src.apply(result, "/uihost/status", "port: 9090")
	src.apply(result, "/uihost/", "ignored")

	cfg := newStaticConfiguration(result)
	linked, err := cfg.GetBool("ui:lifetimeLinked")
	require.NoError(t, err)
	assert.False(t, linked)
	assert.Equal(t, "demo", cfg.Get("ui:window:title"))
	port, err := cfg.GetInt("status:port")
	require.NoError(t, err)
	assert.Equal(t, 9090, port)
}

func BenchmarkConfigGet(b *testing.B) {
	config, _ := NewConfigurationBuilder().AddInMemory(map[string]any{
		"server": map[string]any{
			"host": "localhost",
			"port": 8080,
		},
	}).Build()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		config.Get("server:host")
	}
}
