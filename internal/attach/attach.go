// Package attach 过滤并描述待上传的本地文件。
package attach

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"agentchat/internal/logger"
	"agentchat/internal/message"
)

var log = logger.Named("attach")

// 后端接受的扩展名及其 MIME 类型。
var supported = map[string]string{
	".c":    "text/x-c",
	".cs":   "text/x-csharp",
	".cpp":  "text/x-c++",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".html": "text/html",
	".java": "text/x-java",
	".json": "application/json",
	".md":   "text/markdown",
	".pdf":  "application/pdf",
	".php":  "text/x-php",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".py":   "text/x-python",
	".rb":   "text/x-ruby",
	".tex":  "text/x-tex",
	".txt":  "text/plain",
	".css":  "text/css",
	".js":   "text/javascript",
	".sh":   "application/x-sh",
	".ts":   "application/typescript",
}

// Extensions 返回排序后的受支持扩展名。
func Extensions() []string {
	out := make([]string, 0, len(supported))
	for ext := range supported {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// Supported 按扩展名（不区分大小写）判断文件是否可上传。
func Supported(name string) bool {
	_, ok := supported[strings.ToLower(filepath.Ext(name))]
	return ok
}

// MimeType 返回文件的 MIME 类型。
func MimeType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if t, ok := supported[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}

// FileInfo 是一个通过过滤的本地文件。
type FileInfo struct {
	Path     string
	Name     string
	MimeType string
	Size     int64
}

// File 转换为消息附件元数据。
func (f FileInfo) File() message.File {
	return message.File{Name: f.Name, MimeType: f.MimeType, Size: f.Size}
}

// Files 转换一批文件。
func Files(infos []FileInfo) []message.File {
	out := make([]message.File, 0, len(infos))
	for _, f := range infos {
		out = append(out, f.File())
	}
	return out
}

// Rejection 描述一个被拒绝的文件。
type Rejection struct {
	Path   string
	Reason string
}

func (r Rejection) String() string {
	return fmt.Sprintf("%s: %s", r.Path, r.Reason)
}

// Filter 逐个检查文件；被拒绝的文件不影响同批其他文件。
func Filter(paths []string) (accepted []FileInfo, rejected []Rejection) {
	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !Supported(p) {
			rejected = append(rejected, Rejection{Path: p, Reason: "unsupported file type"})
			continue
		}
		st, err := os.Stat(p)
		if err != nil {
			rejected = append(rejected, Rejection{Path: p, Reason: err.Error()})
			continue
		}
		if st.IsDir() {
			rejected = append(rejected, Rejection{Path: p, Reason: "is a directory"})
			continue
		}
		accepted = append(accepted, FileInfo{
			Path:     p,
			Name:     filepath.Base(p),
			MimeType: MimeType(p),
			Size:     st.Size(),
		})
	}
	for _, r := range rejected {
		log.WithField("path", r.Path).Warn("attachment rejected: " + r.Reason)
	}
	return accepted, rejected
}
