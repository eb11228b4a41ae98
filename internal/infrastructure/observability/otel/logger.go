package otel

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// LogLevel ログレベル
type LogLevel string

const (
	LogLevelDebug LogLevel = "DEBUG"
	LogLevelInfo  LogLevel = "INFO"
	LogLevelWarn  LogLevel = "WARN"
	LogLevelError LogLevel = "ERROR"
)

// severity レベルの大小比較用
func (l LogLevel) severity() int {
	switch l {
	case LogLevelDebug:
		return 0
	case LogLevelInfo:
		return 1
	case LogLevelWarn:
		return 2
	case LogLevelError:
		return 3
	default:
		return 1
	}
}

// ParseLogLevel 文字列からログレベルを解釈する（大文字小文字は区別しない）
func ParseLogLevel(s string) (LogLevel, error) {
	switch LogLevel(strings.ToUpper(strings.TrimSpace(s))) {
	case LogLevelDebug:
		return LogLevelDebug, nil
	case LogLevelInfo, "":
		return LogLevelInfo, nil
	case LogLevelWarn, "WARNING":
		return LogLevelWarn, nil
	case LogLevelError:
		return LogLevelError, nil
	}
	return LogLevelInfo, fmt.Errorf("unknown log level: %q", s)
}

// Logger 構造化ロガー
//
// 1行1JSONで出力し、スパンが有効ならtrace_id/span_idを付与する。
type Logger struct {
	tracer   trace.Tracer
	service  string
	minLevel LogLevel

	mu  *sync.Mutex
	out io.Writer
	now func() time.Time
}

// NewLogger 新しいLoggerを作成
func NewLogger(tracer trace.Tracer) *Logger {
	return &Logger{
		tracer:   tracer,
		minLevel: LogLevelDebug,
		mu:       &sync.Mutex{},
		out:      os.Stderr,
		now:      time.Now,
	}
}

// WithService サービス名を付与したLoggerを返す
func (l *Logger) WithService(service string) *Logger {
	c := *l
	c.service = service
	return &c
}

// WithMinLevel 指定レベル未満を捨てるLoggerを返す
func (l *Logger) WithMinLevel(level LogLevel) *Logger {
	c := *l
	c.minLevel = level
	return &c
}

// WithOutput 出力先を差し替えたLoggerを返す
func (l *Logger) WithOutput(w io.Writer) *Logger {
	c := *l
	c.out = w
	c.mu = &sync.Mutex{}
	return &c
}

// Enabled 指定レベルが出力対象かどうか
func (l *Logger) Enabled(level LogLevel) bool {
	return level.severity() >= l.minLevel.severity()
}

// LogEntry ログエントリ
type LogEntry struct {
	Level     string                 `json:"level"`
	Service   string                 `json:"service,omitempty"`
	Message   string                 `json:"message"`
	TraceID   string                 `json:"trace_id,omitempty"`
	SpanID    string                 `json:"span_id,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	Timestamp string                 `json:"timestamp"`
}

// Log ログを出力
func (l *Logger) Log(ctx context.Context, level LogLevel, message string, fields map[string]interface{}) {
	if !l.Enabled(level) {
		return
	}

	entry := LogEntry{
		Level:     string(level),
		Service:   l.service,
		Message:   message,
		Fields:    fields,
		Timestamp: l.now().UTC().Format(time.RFC3339Nano),
	}

	if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
		entry.TraceID = sc.TraceID().String()
		entry.SpanID = sc.SpanID().String()
	}

	line, err := json.Marshal(entry)
	if err != nil {
		// 値がJSON化できない場合もメッセージだけは残す
		entry.Fields = map[string]interface{}{"marshal_error": err.Error()}
		line, _ = json.Marshal(entry)
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.out.Write(line)
}

// Debug Debugレベルのログを出力
func (l *Logger) Debug(ctx context.Context, message string, fields map[string]interface{}) {
	l.Log(ctx, LogLevelDebug, message, fields)
}

// Info Infoレベルのログを出力
func (l *Logger) Info(ctx context.Context, message string, fields map[string]interface{}) {
	l.Log(ctx, LogLevelInfo, message, fields)
}

// Warn Warnレベルのログを出力
func (l *Logger) Warn(ctx context.Context, message string, fields map[string]interface{}) {
	l.Log(ctx, LogLevelWarn, message, fields)
}

// Error Errorレベルのログを出力
//
// 呼び出し側のfieldsは変更しない。
func (l *Logger) Error(ctx context.Context, message string, err error, fields map[string]interface{}) {
	merged := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		merged[k] = v
	}
	if err != nil {
		merged["error"] = err.Error()
	}
	l.Log(ctx, LogLevelError, message, merged)
}
