package tui

import "strings"

// maxPromptHistory 限制保留的输入条数。
const maxPromptHistory = 200

// promptHistory 负责输入框历史浏览状态（上下箭头）。
// cursor == len(entries) 表示当前在“最新输入”（非浏览历史）位置。
type promptHistory struct {
	entries []string
	cursor  int
	draft   string
}

// Seed 用会话中已有的用户消息初始化历史。
func (h *promptHistory) Seed(entries []string) {
	h.entries = h.entries[:0]
	for _, e := range entries {
		h.push(e)
	}
	h.ResetBrowsing()
}

// Add 记录一次提交，连续重复的输入只保留一条。
func (h *promptHistory) Add(text string) {
	h.push(text)
	h.ResetBrowsing()
}

func (h *promptHistory) push(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if n := len(h.entries); n > 0 && h.entries[n-1] == text {
		return
	}
	h.entries = append(h.entries, text)
	if over := len(h.entries) - maxPromptHistory; over > 0 {
		h.entries = append([]string(nil), h.entries[over:]...)
	}
}

func (h *promptHistory) Browsing() bool {
	return h.cursor < len(h.entries)
}

func (h *promptHistory) ResetBrowsing() {
	h.cursor = len(h.entries)
	h.draft = ""
}

// Prev 向更早的输入移动，首次进入浏览时保存当前草稿。
func (h *promptHistory) Prev(current string) (string, bool) {
	if len(h.entries) == 0 {
		return "", false
	}
	if h.cursor == len(h.entries) {
		h.draft = current
	}
	if h.cursor > 0 {
		h.cursor--
	}
	return h.entries[h.cursor], true
}

// Next 向更新的输入移动，越过最新一条时恢复草稿。
func (h *promptHistory) Next() (string, bool) {
	if !h.Browsing() {
		return "", false
	}
	if h.cursor < len(h.entries)-1 {
		h.cursor++
		return h.entries[h.cursor], true
	}
	h.cursor = len(h.entries)
	return h.draft, true
}
