package slash

import "strings"

// Command 表示内置斜杠命令的标识符。
type Command string

const (
	CommandCopy             Command = "copy"
	CommandAttach           Command = "attach"
	CommandClearAttachments Command = "clear-attachments"
	CommandHelp             Command = "help"
	CommandQuit             Command = "quit"
)

// Item 代表弹窗中的一行条目。
type Item struct {
	Command     Command
	Usage       string
	Description string
	// TakesArgs 为 true 时 Tab 补全后保留光标等待参数。
	TakesArgs bool
}

// Token 返回无前导斜杠的匹配键。
func (i Item) Token() string {
	return string(i.Command)
}

// DisplayName 返回带前缀斜杠的展示名称。
func (i Item) DisplayName() string {
	token := i.Token()
	if token == "" {
		return ""
	}
	if strings.HasPrefix(token, "/") {
		return token
	}
	return "/" + token
}

// Items 返回内置命令，顺序即弹窗展示顺序。
func Items() []Item {
	return []Item{
		{Command: CommandCopy, Description: "copy the last assistant reply"},
		{Command: CommandAttach, Usage: "<path>...", Description: "attach files to the next message", TakesArgs: true},
		{Command: CommandClearAttachments, Description: "drop pending attachments"},
		{Command: CommandHelp, Description: "show commands"},
		{Command: CommandQuit, Description: "exit agentchat"},
	}
}

// Help 返回 /help 的文本。
func Help() string {
	var b strings.Builder
	for _, item := range Items() {
		b.WriteString(item.DisplayName())
		if item.Usage != "" {
			b.WriteString(" " + item.Usage)
		}
		b.WriteString("  " + item.Description + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
