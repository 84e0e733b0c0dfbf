package logging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Formatter 把一条日志格式化为一行输出
type Formatter interface {
	Format(entry *LogEntry) ([]byte, error)
}

// LogEntry 日志条目
type LogEntry struct {
	Time     time.Time
	Level    LogLevel
	Category string
	Message  string
	Fields   []Field
}

// BufferPool 复用格式化用的 buffer
type BufferPool struct {
	pool sync.Pool
}

// NewBufferPool 创建缓冲池
func NewBufferPool() *BufferPool {
	return &BufferPool{
		pool: sync.Pool{
			New: func() any { return new(bytes.Buffer) },
		},
	}
}

func (p *BufferPool) Get() *bytes.Buffer {
	return p.pool.Get().(*bytes.Buffer)
}

// Put 超过 64KB 的 buffer 直接丢弃
func (p *BufferPool) Put(b *bytes.Buffer) {
	if b.Cap() > 64<<10 {
		return
	}
	b.Reset()
	p.pool.Put(b)
}

// GlobalBufferPool 格式化器共用的缓冲池
var GlobalBufferPool = NewBufferPool()

// JsonFormatter 每条日志一个 JSON 对象
type JsonFormatter struct {
	TimestampFormat string
}

// NewJsonFormatter 创建 JSON 格式化器
func NewJsonFormatter() *JsonFormatter {
	return &JsonFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	}
}

type jsonEntry struct {
	Time     string         `json:"time"`
	Level    string         `json:"level"`
	Category string         `json:"category,omitempty"`
	Message  string         `json:"msg"`
	Fields   map[string]any `json:"fields,omitempty"`
}

// Format 输出以换行结尾
func (f *JsonFormatter) Format(entry *LogEntry) ([]byte, error) {
	e := jsonEntry{
		Time:     entry.Time.Format(f.TimestampFormat),
		Level:    entry.Level.String(),
		Category: entry.Category,
		Message:  entry.Message,
	}
	if len(entry.Fields) > 0 {
		e.Fields = make(map[string]any, len(entry.Fields))
		for _, field := range entry.Fields {
			e.Fields[field.Key] = jsonValue(field.Value)
		}
	}

	buffer := GlobalBufferPool.Get()
	defer GlobalBufferPool.Put(buffer)

	if err := json.NewEncoder(buffer).Encode(e); err != nil {
		return nil, err
	}
	result := make([]byte, buffer.Len())
	copy(result, buffer.Bytes())
	return result, nil
}

// error 和 Stringer 按文本输出，否则 error 会被编码成 {}
func jsonValue(v any) any {
	switch x := v.(type) {
	case error:
		return x.Error()
	case fmt.Stringer:
		return x.String()
	default:
		return v
	}
}
