package slash

import (
	"sort"
	"strings"
	"unicode"

	"github.com/sahilm/fuzzy"
)

// Options 控制 Slash 弹窗的展示。
type Options struct {
	MaxLines int
}

// Input 表示当前文本与光标状态。
type Input struct {
	Value        string
	CursorLine   int
	CursorColumn int
}

// ActionKind 描述按键触发后的处理类型。
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionClose
	ActionInsert
	ActionSubmitCommand
	ActionError
)

// Action 汇总 Slash 处理结果。
type Action struct {
	Kind         ActionKind
	Command      Command
	NewValue     string
	CursorColumn int
	Args         string
	Message      string
}

const unknownCommand = "unknown command, type / to list commands"

// State 维护 slash 弹窗的匹配与选择状态。
type State struct {
	items    []Item
	matches  []match
	selected int
	open     bool
	input    parsedInput
	maxLines int
}

type match struct {
	item       Item
	highlights []int
	score      int
}

type parsedInput struct {
	rest   string
	token  tokenInfo
	cursor int
}

type tokenInfo struct {
	found  bool
	active bool
	value  string
	end    int
	args   string
}

// NewState 构造 slash 状态机。
func NewState(opts Options) *State {
	maxLines := opts.MaxLines
	if maxLines <= 0 {
		maxLines = 8
	}
	return &State{items: Items(), maxLines: maxLines}
}

// Open 返回弹窗是否展示。
func (s *State) Open() bool {
	return s != nil && s.open
}

// Selected 返回当前选中的条目。
func (s *State) Selected() (Item, bool) {
	if s == nil || !s.open || len(s.matches) == 0 {
		return Item{}, false
	}
	return s.matches[s.selected].item, true
}

// SyncInput 根据最新文本同步过滤列表与选中项。
func (s *State) SyncInput(in Input) {
	if s == nil {
		return
	}
	s.input = parseInput(in)
	s.open = s.input.token.found && s.input.token.active && in.CursorLine == 0
	if !s.open {
		s.matches = nil
		return
	}
	s.matches = filterMatches(s.items, s.input.token.value)
	if s.selected >= len(s.matches) {
		s.selected = 0
	}
}

// ResolveSubmit 按 Enter 行为解析当前输入，不依赖弹窗是否打开。
// 非斜杠开头的输入返回 ActionNone，由调用方作为普通消息发送。
func (s *State) ResolveSubmit(value string) Action {
	p := parseInput(Input{Value: value, CursorColumn: runeLen(firstLine(value))})
	if !p.token.found || p.token.value == "" {
		return Action{Kind: ActionNone}
	}
	item, ok := s.findExactItem(p.token.value)
	if !ok {
		return Action{Kind: ActionError, Message: unknownCommand}
	}
	return actionForItem(item, TriggerEnter, p)
}

// HandleKey 处理键盘事件，返回对应动作。
func (s *State) HandleKey(msg string) (Action, bool) {
	if s == nil || !s.open {
		return Action{}, false
	}
	switch msg {
	case "up", "ctrl+p":
		if len(s.matches) == 0 {
			return Action{Kind: ActionClose}, true
		}
		s.selected--
		if s.selected < 0 {
			s.selected = len(s.matches) - 1
		}
		return Action{Kind: ActionNone}, true
	case "down", "ctrl+n":
		if len(s.matches) == 0 {
			return Action{Kind: ActionClose}, true
		}
		s.selected++
		if s.selected >= len(s.matches) {
			s.selected = 0
		}
		return Action{Kind: ActionNone}, true
	case "esc":
		s.open = false
		return Action{Kind: ActionClose}, true
	case "tab", "enter":
		if len(s.matches) == 0 {
			return Action{Kind: ActionError, Message: unknownCommand}, true
		}
		trigger := TriggerTab
		if msg == "enter" {
			trigger = TriggerEnter
		}
		act := actionForItem(s.matches[s.selected].item, trigger, s.input)
		if act.Kind == ActionSubmitCommand {
			s.open = false
		}
		return act, true
	default:
		return Action{}, false
	}
}

type Trigger int

const (
	TriggerTab Trigger = iota + 1
	TriggerEnter
)

func actionForItem(item Item, trigger Trigger, input parsedInput) Action {
	switch trigger {
	case TriggerTab:
		return Action{
			Kind:         ActionInsert,
			NewValue:     buildCommandValue(item.Command, input),
			CursorColumn: runeLen(item.DisplayName()) + 1,
		}
	case TriggerEnter:
		// 需要参数但还没有参数时先补全，等待用户输入路径。
		if item.TakesArgs && strings.TrimSpace(input.token.args) == "" {
			return Action{
				Kind:         ActionInsert,
				NewValue:     buildCommandValue(item.Command, input),
				CursorColumn: runeLen(item.DisplayName()) + 1,
			}
		}
		return Action{Kind: ActionSubmitCommand, Command: item.Command, Args: strings.TrimSpace(input.token.args)}
	default:
		return Action{Kind: ActionNone}
	}
}

func (s *State) findExactItem(token string) (Item, bool) {
	for _, item := range s.items {
		if strings.EqualFold(item.Token(), token) {
			return item, true
		}
	}
	return Item{}, false
}

func filterMatches(items []Item, query string) []match {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		matches := make([]match, 0, len(items))
		for _, item := range items {
			matches = append(matches, match{item: item})
		}
		return matches
	}

	keys := make([]string, len(items))
	for i, item := range items {
		keys[i] = strings.ToLower(item.Token())
	}
	results := fuzzy.Find(strings.ToLower(trimmed), keys)
	matches := make([]match, 0, len(results))
	for _, res := range results {
		matches = append(matches, match{
			item:       items[res.Index],
			highlights: shiftHighlights(res.MatchedIndexes),
			score:      res.Score,
		})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].score == matches[j].score {
			return matches[i].item.Token() < matches[j].item.Token()
		}
		return matches[i].score > matches[j].score
	})
	return matches
}

// shiftHighlights 把 token 上的下标换算到带斜杠的展示名上。
func shiftHighlights(indexes []int) []int {
	out := make([]int, len(indexes))
	for i, idx := range indexes {
		out[i] = idx + 1
	}
	return out
}

func buildCommandValue(cmd Command, input parsedInput) string {
	token := "/" + string(cmd)
	args := strings.TrimSpace(input.token.args)
	if args != "" {
		return token + " " + args + input.rest
	}
	return token + " " + input.rest
}

func parseInput(in Input) parsedInput {
	first, rest := splitFirstLine(in.Value)
	return parsedInput{
		rest:   rest,
		token:  locateToken([]rune(first), in.CursorColumn),
		cursor: in.CursorColumn,
	}
}

func splitFirstLine(value string) (string, string) {
	if idx := strings.IndexByte(value, '\n'); idx >= 0 {
		return value[:idx], value[idx:]
	}
	return value, ""
}

func firstLine(value string) string {
	line, _ := splitFirstLine(value)
	return line
}

// locateToken 识别首行开头的 /command；路径形式（/tmp/x）不算命令。
func locateToken(runes []rune, cursor int) tokenInfo {
	if len(runes) == 0 || runes[0] != '/' {
		return tokenInfo{}
	}
	token := tokenInfo{found: true, end: len(runes)}
	for i := 1; i < len(runes); i++ {
		if unicode.IsSpace(runes[i]) {
			token.end = i
			break
		}
		if runes[i] == '/' {
			return tokenInfo{}
		}
	}
	token.value = string(runes[1:token.end])
	token.args = strings.TrimLeftFunc(string(runes[token.end:]), unicode.IsSpace)
	token.active = cursor <= token.end
	return token
}

func runeLen(text string) int {
	return len([]rune(text))
}
