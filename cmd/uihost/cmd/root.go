package cmd

import (
	"fmt"
	"os"

	app "github.com/gocrud/uihost"
	"github.com/gocrud/uihost/config"
	"github.com/gocrud/uihost/core"
	"github.com/gocrud/uihost/cron"
	"github.com/gocrud/uihost/desktop"
	"github.com/gocrud/uihost/desktop/terminal"
	"github.com/gocrud/uihost/logging"
	"github.com/gocrud/uihost/web"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	cfgFile       string
	etcdEndpoints []string
	etcdPrefix    string
	unlinked      bool
	headless      bool
	logLevel      string
	logFile       string
	statusPort    int
)

var rootCmd = &cobra.Command{
	Use:   "uihost",
	Short: "Run a terminal user interface inside an application host",
	Long: `uihost runs a terminal window on a dedicated UI thread next to the host's
background services. Closing the window stops the host unless --unlinked is set.`,
	SilenceUsage: true,
	RunE:         run,
}

// Execute 执行根命令
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&cfgFile, "config", "", "config file (yaml or json)")
	flags.StringSliceVar(&etcdEndpoints, "etcd", nil, "etcd endpoints for remote configuration")
	flags.StringVar(&etcdPrefix, "etcd-prefix", "/uihost", "etcd key prefix")
	flags.BoolVar(&unlinked, "unlinked", false, "keep the host running after the window closes")
	flags.BoolVar(&headless, "headless", false, "run without a terminal window")
	flags.StringVar(&logLevel, "log-level", "info", "minimum log level")
	flags.StringVar(&logFile, "log-file", "uihost.log", "log file used while the terminal window is open")
	flags.IntVar(&statusPort, "status-port", 0, "serve UI status on this port (0 disables)")
}

func run(cmd *cobra.Command, _ []string) error {
	level, err := logging.ParseLevel(logLevel)
	if err != nil {
		return err
	}

	logOption, closeLog, err := loggingOption(level)
	if err != nil {
		return err
	}
	defer closeLog()

	opts := []core.Option{logOption}

	// 没有配置文件时仍读取 UIHOST_ 环境变量
	var loadOpts []config.LoadOption
	if len(etcdEndpoints) > 0 {
		loadOpts = append(loadOpts,
			config.WithEtcd(config.EtcdOptions{Endpoints: etcdEndpoints, Prefix: etcdPrefix}),
			config.WithHotReload())
	}
	opts = append(opts, config.Load(cfgFile, loadOpts...))

	// 命令行显式指定时优先于配置
	if cmd.Flags().Changed("unlinked") {
		opts = append(opts, desktop.WithHostingContext(desktop.NewHostingContext(!unlinked)))
	}

	if headless {
		opts = append(opts, desktop.WithUserInterface[*desktop.Loop](desktop.NewLoop))
	} else {
		opts = append(opts,
			config.WithOptions[windowSettings](windowSection),
			core.WithProvider(newWindow),
			desktop.WithUserInterface[*terminal.Application](func(w *window) *terminal.Application { return w.app }),
			cron.New(cron.AddUIJob("@every 1s", "clock", func(app *terminal.Application) { app.Redraw() })),
		)
	}

	if statusPort > 0 {
		opts = append(opts, web.New(web.WithPort(statusPort), web.WithStatusRoutes()))
	}

	return app.RunContext(cmd.Context(), opts...)
}

// loggingOption 终端窗口占用屏幕时日志写入文件，否则写到控制台
func loggingOption(level logging.LogLevel) (core.Option, func(), error) {
	if headless {
		return core.WithLogging(func(b *logging.LoggingBuilder) {
			b.SetMinimumLevel(level).AddConsole(logging.ConsoleLoggerOptions{
				IncludeTimestamp: true,
				ColorOutput:      true,
				Output:           os.Stderr,
			})
		}), func() {}, nil
	}

	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	logger := logrus.New()
	logger.SetOutput(f)
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.TraceLevel)

	return core.WithLogging(func(b *logging.LoggingBuilder) {
		b.SetMinimumLevel(level).AddLogrus(logger)
	}), func() { f.Close() }, nil
}
