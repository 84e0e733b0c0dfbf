package logging

import (
	"io"

	"github.com/sirupsen/logrus"
)

// LogrusLoggerProvider 把日志转发给 logrus，类别写入 "category" 字段
type LogrusLoggerProvider struct {
	logger *logrus.Logger
}

// NewLogrusLoggerProvider 包装现有的 logrus.Logger；传 nil 时新建一个 JSON 输出的实例
func NewLogrusLoggerProvider(logger *logrus.Logger) *LogrusLoggerProvider {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return &LogrusLoggerProvider{logger: logger}
}

// NewLogrusLoggerProviderWithOutput 输出到 w
func NewLogrusLoggerProviderWithOutput(w io.Writer) *LogrusLoggerProvider {
	p := NewLogrusLoggerProvider(nil)
	p.logger.SetOutput(w)
	return p
}

func (p *LogrusLoggerProvider) CreateLogger(category string) Logger {
	entry := logrus.NewEntry(p.logger)
	if category != "" {
		entry = entry.WithField("category", category)
	}
	return &logrusLogger{entry: entry}
}

func (p *LogrusLoggerProvider) SetMinimumLevel(level LogLevel) {
	p.logger.SetLevel(toLogrusLevel(level))
}

func toLogrusLevel(level LogLevel) logrus.Level {
	switch level {
	case LogLevelTrace:
		return logrus.TraceLevel
	case LogLevelDebug:
		return logrus.DebugLevel
	case LogLevelInfo:
		return logrus.InfoLevel
	case LogLevelWarn:
		return logrus.WarnLevel
	case LogLevelError:
		return logrus.ErrorLevel
	default:
		return logrus.FatalLevel
	}
}

type logrusLogger struct {
	entry *logrus.Entry
}

func (l *logrusLogger) Trace(msg string, fields ...Field) { l.Log(LogLevelTrace, msg, fields...) }
func (l *logrusLogger) Debug(msg string, fields ...Field) { l.Log(LogLevelDebug, msg, fields...) }
func (l *logrusLogger) Info(msg string, fields ...Field)  { l.Log(LogLevelInfo, msg, fields...) }
func (l *logrusLogger) Warn(msg string, fields ...Field)  { l.Log(LogLevelWarn, msg, fields...) }
func (l *logrusLogger) Error(msg string, fields ...Field) { l.Log(LogLevelError, msg, fields...) }

// Fatal 由 logrus 负责退出进程
func (l *logrusLogger) Fatal(msg string, fields ...Field) {
	l.withFields(fields).Fatal(msg)
}

func (l *logrusLogger) Log(level LogLevel, msg string, fields ...Field) {
	if level >= LogLevelFatal {
		l.Fatal(msg, fields...)
		return
	}
	l.withFields(fields).Log(toLogrusLevel(level), msg)
}

func (l *logrusLogger) WithFields(fields ...Field) Logger {
	return &logrusLogger{entry: l.withFields(fields)}
}

func (l *logrusLogger) WithCategory(category string) Logger {
	return &logrusLogger{entry: l.entry.WithField("category", category)}
}

func (l *logrusLogger) withFields(fields []Field) *logrus.Entry {
	if len(fields) == 0 {
		return l.entry
	}
	data := make(logrus.Fields, len(fields))
	for _, f := range fields {
		data[f.Key] = f.Value
	}
	return l.entry.WithFields(data)
}
