package events

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"

	"agentchat/internal/logger"
)

// 默认的 SQ/EQ 日志文件路径。
const (
	DefaultSQLogPath = "logs/sq.log"
	DefaultEQLogPath = "logs/eq.log"
)

// log 复用全局 logger，标记事件组件。
var log = logger.Named("events")

// NewQueueLogger 为 SQ/EQ 创建独立文件的 logger；path 为空时只使用组件名。
func NewQueueLogger(component, path string) (*logger.LogEntry, io.Closer) {
	if path == "" {
		return logger.Named(component), nil
	}
	entry, closer, _, err := logger.SetupComponentFile(component, path)
	if err != nil {
		log.Warnf("failed to set up %s log file (%s): %v", component, path, err)
		return logger.Named(component), nil
	}
	return entry, closer
}

// encodePayload 把载荷转换为便于阅读的日志字段：字符串原样保留，
// 对象输出缩进 JSON；包含转义换行的 JSON 字符串会先还原再缩进。
func encodePayload(v any) string {
	switch p := v.(type) {
	case nil:
		return ""
	case string:
		trimmed := strings.TrimSpace(p)
		if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
			unescaped := strings.ReplaceAll(trimmed, `\n`, "\n")
			if json.Valid([]byte(unescaped)) {
				var out bytes.Buffer
				if err := json.Indent(&out, []byte(unescaped), "", "  "); err == nil {
					return out.String()
				}
			}
		}
		return p
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return ""
	}
	return string(data)
}
