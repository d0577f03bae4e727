package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger/LogEntry/Fields 暴露底层类型，避免调用方直接依赖 logrus 包。
type Logger = logrus.Logger
type LogEntry = logrus.Entry
type Fields = logrus.Fields

// DefaultLogPath 默认日志文件路径。
const DefaultLogPath = "logs/agentchat.log"

// 提升到消息前缀的字段，便于按事件类型或会话 grep。
const (
	ComponentField = "component"
	EventField     = "event"
	SessionField   = "session"
)

// 前缀中的会话 id 只保留前几位。
const shortSessionLen = 8

var rootLogger = logrus.StandardLogger()

// Configure 设置全局日志格式、级别与 caller 输出。
// level 为空或无法解析时使用 info。
func Configure(level string) {
	configure(root(), ParseLevel(level))
}

func configure(l *logrus.Logger, level logrus.Level) {
	l.SetReportCaller(true)
	l.SetFormatter(PlainFormatter{})
	l.SetLevel(level)
}

// ParseLevel 解析日志级别字符串，失败时回退为 info。
func ParseLevel(level string) logrus.Level {
	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

// SetupFile 将全局日志输出重定向到 logPath（为空时 logs/agentchat.log）。
// TUI 占用终端，日志只能写文件。
func SetupFile(logPath string) (io.Closer, string, error) {
	f, resolved, err := openLogFile(logPath)
	if err != nil {
		return nil, "", err
	}
	root().SetOutput(f)
	return f, resolved, nil
}

// SetupComponentFile 为某个组件创建独立文件的 logger，级别跟随全局 logger。
func SetupComponentFile(component, logPath string) (*LogEntry, io.Closer, string, error) {
	f, resolved, err := openLogFile(logPath)
	if err != nil {
		return nil, nil, "", err
	}
	l := logrus.New()
	configure(l, root().GetLevel())
	l.SetOutput(f)
	return withComponent(logrus.NewEntry(l), component), f, resolved, nil
}

// Discard 丢弃全局输出，测试中使用。
func Discard() {
	root().SetOutput(io.Discard)
}

// Named 返回带 component 字段的全局入口。
func Named(component string) *LogEntry {
	return withComponent(logrus.NewEntry(root()), component)
}

func withComponent(entry *LogEntry, component string) *LogEntry {
	if component == "" {
		return entry
	}
	return entry.WithField(ComponentField, component)
}

func root() *logrus.Logger {
	if rootLogger == nil {
		rootLogger = logrus.StandardLogger()
	}
	return rootLogger
}

// PlainFormatter 输出单行文本：
// caller [timestamp] [LEVEL] [component] [event=x session=y] message k=v...
type PlainFormatter struct{}

// Format 实现 logrus Formatter。
func (PlainFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	if entry == nil {
		return []byte{}, nil
	}
	var b strings.Builder
	if caller := formatCaller(entry); caller != "" {
		b.WriteString(caller)
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, "[%s] [%s]", entry.Time.UTC().Format(time.RFC3339Nano), strings.ToUpper(entry.Level.String()))
	if c, ok := entry.Data[ComponentField].(string); ok && c != "" {
		fmt.Fprintf(&b, " [%s]", c)
	}
	if tag := formatTag(entry.Data); tag != "" {
		fmt.Fprintf(&b, " [%s]", tag)
	}
	b.WriteByte(' ')
	b.WriteString(entry.Message)
	if fields := formatFields(entry.Data); fields != "" {
		b.WriteByte(' ')
		b.WriteString(fields)
	}
	b.WriteByte('\n')
	return []byte(b.String()), nil
}

func formatTag(data logrus.Fields) string {
	parts := make([]string, 0, 2)
	if evt, ok := data[EventField]; ok {
		parts = append(parts, fmt.Sprintf("%s=%v", EventField, evt))
	}
	if sid, ok := data[SessionField].(string); ok && sid != "" {
		if len(sid) > shortSessionLen {
			sid = sid[:shortSessionLen]
		}
		parts = append(parts, SessionField+"="+sid)
	}
	return strings.Join(parts, " ")
}

func formatCaller(entry *logrus.Entry) string {
	if entry.HasCaller() && entry.Caller != nil {
		return fmt.Sprintf("%s:%d", shortenFilePath(entry.Caller.File), entry.Caller.Line)
	}
	if caller, ok := entry.Data["caller"].(string); ok && caller != "" {
		return caller
	}
	return ""
}

func formatFields(fields logrus.Fields) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		switch k {
		case ComponentField, EventField, SessionField, "caller":
			continue
		}
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return ""
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+formatValue(fields[k]))
	}
	return strings.Join(parts, " ")
}

// formatValue 对含空白或引号的单行值加引号；JSON 与多行内容原样输出。
func formatValue(v any) string {
	s := fmt.Sprint(v)
	if err, ok := v.(error); ok {
		s = err.Error()
	}
	switch {
	case s == "":
		return `""`
	case strings.ContainsRune(s, '\n'), strings.HasPrefix(s, "{"), strings.HasPrefix(s, "["):
		return s
	case strings.ContainsAny(s, " \t\"="):
		return strconv.Quote(s)
	}
	return s
}

func shortenFilePath(file string) string {
	file = filepath.ToSlash(file)
	for _, marker := range []string{"/internal/", "/cmd/"} {
		if idx := strings.Index(file, marker); idx != -1 {
			return file[idx+1:]
		}
	}
	return filepath.Base(file)
}

func openLogFile(logPath string) (*os.File, string, error) {
	if logPath == "" {
		logPath = DefaultLogPath
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return nil, "", err
	}
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, "", err
	}
	return f, logPath, nil
}
