package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"agentchat/internal/attach"
	"agentchat/internal/events"
	"agentchat/internal/logger"
	"agentchat/internal/message"
	"agentchat/internal/render"
	"agentchat/internal/session"
	"agentchat/internal/tui/slash"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var log = logger.Named("tui")

const welcomeText = "Welcome to agentchat. Type a message to start, / for commands."

// Controller 是 TUI 依赖的会话能力，session.Controller 满足该接口。
type Controller interface {
	Submit(ctx context.Context, text string, files []message.File) error
	Snapshot() session.Snapshot
}

type Options struct {
	Controller Controller
	// Events 是控制器事件的订阅通道。
	Events   <-chan events.Event
	Renderer *render.Renderer
	Title    string
	// Clipboard 为空时使用系统剪贴板。
	Clipboard func(string) error
	// Upload 在发送前上传附件；为空时只发送附件元数据。
	Upload        func(ctx context.Context, file attach.FileInfo) error
	InitialPrompt string
}

type eventMsg struct {
	Event events.Event
	OK    bool
}

type submitResultMsg struct {
	Err error
	// Skipped 是上传失败而未随消息发送的附件。
	Skipped []attach.Rejection
}

type startPromptMsg struct {
	Text string
}

type Model struct {
	textarea  textarea.Model
	viewport  viewport.Model
	spin      spinner.Model
	slash     *slash.State
	history   promptHistory
	ctrl      Controller
	eventsSub <-chan events.Event
	renderer  *render.Renderer
	clipboard func(string) error
	upload    func(context.Context, attach.FileInfo) error
	title     string
	initSend  string

	snap    session.Snapshot
	files   []attach.FileInfo
	pending bool
	notice  string
	err     error
	reauth  bool

	width           int
	height          int
	transcriptDirty bool
}

func New(opts Options) *Model {
	ti := textarea.New()
	ti.Placeholder = "Ask anything…"
	ti.Prompt = "› "
	ti.CharLimit = 0
	ti.SetWidth(80)
	ti.SetHeight(1)
	ti.ShowLineNumbers = false
	ti.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = lipgloss.NewStyle().Foreground(accentColor)

	renderer := opts.Renderer
	if renderer == nil {
		renderer = render.New(render.Options{})
	}
	copyFn := opts.Clipboard
	if copyFn == nil {
		copyFn = clipboard.WriteAll
	}

	m := &Model{
		textarea:        ti,
		viewport:        viewport.New(80, 12),
		spin:            spin,
		slash:           slash.NewState(slash.Options{}),
		ctrl:            opts.Controller,
		eventsSub:       opts.Events,
		renderer:        renderer,
		clipboard:       copyFn,
		upload:          opts.Upload,
		title:           opts.Title,
		initSend:        strings.TrimSpace(opts.InitialPrompt),
		width:           80,
		height:          24,
		transcriptDirty: true,
	}
	if m.ctrl != nil {
		m.snap = m.ctrl.Snapshot()
		m.history.Seed(userInputs(m.snap))
		m.pending = !m.snap.Complete
	}
	return m
}

func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spin.Tick}
	if cmd := m.listenEvents(); cmd != nil {
		cmds = append(cmds, cmd)
	}
	if m.initSend != "" {
		text := m.initSend
		cmds = append(cmds, func() tea.Msg { return startPromptMsg{Text: text} })
	}
	return tea.Batch(cmds...)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m.finish(cmds...)
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		cmds = append(cmds, cmd)
		return m.finish(cmds...)
	case eventMsg:
		if !msg.OK {
			m.eventsSub = nil
			return m.finish(cmds...)
		}
		if cmd := m.handleEvent(msg.Event); cmd != nil {
			cmds = append(cmds, cmd)
		}
		if cmd := m.listenEvents(); cmd != nil {
			cmds = append(cmds, cmd)
		}
		return m.finish(cmds...)
	case submitResultMsg:
		if len(msg.Skipped) > 0 {
			notes := make([]string, 0, len(msg.Skipped))
			for _, r := range msg.Skipped {
				notes = append(notes, r.String())
			}
			m.notice = "not attached: " + strings.Join(notes, "; ")
		}
		if msg.Err != nil {
			m.pending = false
			m.err = msg.Err
		}
		return m.finish(cmds...)
	case startPromptMsg:
		cmds = append(cmds, m.submit(msg.Text))
		return m.finish(cmds...)
	case tea.KeyMsg:
		if act, handled := m.slash.HandleKey(msg.String()); handled {
			cmds = append(cmds, m.applySlash(act))
			return m.finish(cmds...)
		}
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyPgUp:
			m.viewport.ViewUp()
			return m.finish(cmds...)
		case tea.KeyPgDown:
			m.viewport.ViewDown()
			return m.finish(cmds...)
		case tea.KeyUp, tea.KeyDown:
			if m.textarea.LineCount() <= 1 {
				m.browseHistory(msg.Type == tea.KeyUp)
				return m.finish(cmds...)
			}
		case tea.KeyEnter:
			if msg.Alt {
				break
			}
			cmds = append(cmds, m.handleEnter())
			return m.finish(cmds...)
		}
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	cmds = append(cmds, cmd)
	m.syncSlash()
	m.setComposerHeight()
	return m.finish(cmds...)
}

func (m *Model) finish(cmds ...tea.Cmd) (tea.Model, tea.Cmd) {
	if m.transcriptDirty {
		m.flushTranscript()
	}
	return m, tea.Batch(cmds...)
}

// Snapshot 返回最近一次收到的会话快照。
func (m *Model) Snapshot() session.Snapshot { return m.snap }

// ReauthRequired 报告会话是否因凭据失效而结束。
func (m *Model) ReauthRequired() bool { return m.reauth }

func (m *Model) listenEvents() tea.Cmd {
	sub := m.eventsSub
	if sub == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-sub
		return eventMsg{Event: ev, OK: ok}
	}
}

func (m *Model) handleEvent(ev events.Event) tea.Cmd {
	switch ev.Type {
	case events.EventViewUpdated:
		snap, ok := ev.Payload.(session.Snapshot)
		if !ok {
			return nil
		}
		m.snap = snap
		m.pending = !snap.Complete
		m.refreshTranscript()
	case events.EventTurnCompleted:
		m.pending = false
	case events.EventTurnFailed:
		m.pending = false
		if p, ok := ev.Payload.(events.TurnFailed); ok {
			m.notice = "turn interrupted: " + p.Reason
		}
	case events.EventTransportError:
		m.pending = false
		if p, ok := ev.Payload.(events.TransportError); ok {
			m.err = errors.New(p.Error)
		}
	case events.EventReauthRequired:
		m.reauth = true
		m.notice = "credentials rejected, run `agentchat ping` after updating api_key"
		return tea.Quit
	}
	return nil
}

func (m *Model) handleEnter() tea.Cmd {
	input := strings.TrimSpace(m.textarea.Value())
	act := m.slash.ResolveSubmit(input)
	if act.Kind != slash.ActionNone {
		m.textarea.Reset()
		m.setComposerHeight()
		return m.applySlash(act)
	}
	if input == "" && len(m.files) == 0 {
		return nil
	}
	if m.pending && input == "" {
		return nil
	}
	m.textarea.Reset()
	m.setComposerHeight()
	return m.submit(input)
}

func (m *Model) submit(text string) tea.Cmd {
	if m.ctrl == nil {
		m.err = errors.New("session is not connected")
		return nil
	}
	infos := m.files
	m.files = nil
	m.history.Add(text)
	m.pending = true
	m.err = nil
	m.notice = ""
	ctrl, upload := m.ctrl, m.upload
	return func() tea.Msg {
		ctx := context.Background()
		var res submitResultMsg
		sent := infos
		if upload != nil && len(infos) > 0 {
			sent = make([]attach.FileInfo, 0, len(infos))
			for _, info := range infos {
				if err := upload(ctx, info); err != nil {
					log.WithError(err).WithField("file", info.Name).Warn("upload attachment failed")
					res.Skipped = append(res.Skipped, attach.Rejection{Path: info.Path, Reason: err.Error()})
					continue
				}
				sent = append(sent, info)
			}
			if text == "" && len(sent) == 0 {
				res.Err = errors.New("no attachment could be uploaded")
				return res
			}
		}
		res.Err = ctrl.Submit(ctx, text, attach.Files(sent))
		return res
	}
}

func (m *Model) applySlash(act slash.Action) tea.Cmd {
	switch act.Kind {
	case slash.ActionClose, slash.ActionNone:
		return nil
	case slash.ActionError:
		m.notice = act.Message
		return nil
	case slash.ActionInsert:
		m.textarea.SetValue(act.NewValue)
		m.textarea.CursorEnd()
		m.syncSlash()
		return nil
	}

	m.textarea.Reset()
	m.syncSlash()
	switch act.Command {
	case slash.CommandCopy:
		text, ok := m.snap.LastAssistantText()
		if !ok {
			m.notice = "nothing to copy yet"
			return nil
		}
		if err := m.clipboard(text); err != nil {
			log.WithError(err).Warn("copy to clipboard failed")
			m.notice = fmt.Sprintf("copy failed: %v", err)
			return nil
		}
		m.notice = "copied last reply to clipboard"
	case slash.CommandAttach:
		accepted, rejected := attach.Filter(strings.Fields(act.Args))
		m.files = append(m.files, accepted...)
		notes := make([]string, 0, len(rejected)+1)
		if len(accepted) > 0 {
			notes = append(notes, fmt.Sprintf("attached %d file(s)", len(accepted)))
		}
		for _, r := range rejected {
			notes = append(notes, r.String())
		}
		m.notice = strings.Join(notes, "; ")
	case slash.CommandClearAttachments:
		m.files = nil
		m.notice = "attachments cleared"
	case slash.CommandHelp:
		m.notice = slash.Help()
	case slash.CommandQuit:
		return tea.Quit
	}
	return nil
}

func (m *Model) syncSlash() {
	info := m.textarea.LineInfo()
	m.slash.SyncInput(slash.Input{
		Value:        m.textarea.Value(),
		CursorLine:   m.textarea.Line(),
		CursorColumn: info.StartColumn + info.ColumnOffset,
	})
}

func (m *Model) browseHistory(up bool) {
	var (
		text string
		ok   bool
	)
	if up {
		text, ok = m.history.Prev(m.textarea.Value())
	} else {
		text, ok = m.history.Next()
	}
	if !ok {
		return
	}
	m.textarea.SetValue(text)
	m.textarea.CursorEnd()
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.textarea.SetWidth(maxInt(20, width-4))
	m.layout()
	m.refreshTranscript()
}

// layout 按当前各区块高度分配 viewport。
func (m *Model) layout() {
	reserved := 1 + // header
		m.textarea.Height() + 2 + // composer + border
		1 + // status
		lipgloss.Height(m.footerView())
	vh := m.height - reserved
	if vh < 3 {
		vh = 3
	}
	m.viewport.Width = maxInt(20, m.width)
	m.viewport.Height = vh
}

func (m *Model) setComposerHeight() {
	lines := strings.Count(m.textarea.Value(), "\n") + 1
	if lines > 6 {
		lines = 6
	}
	if m.textarea.Height() != lines {
		m.textarea.SetHeight(lines)
		m.layout()
	}
}

func (m *Model) refreshTranscript() {
	m.transcriptDirty = true
}

func (m *Model) flushTranscript() {
	m.transcriptDirty = false
	follow := m.viewport.AtBottom() || m.viewport.TotalLineCount() == 0
	m.viewport.SetContent(strings.Join(m.transcriptLines(), "\n"))
	if follow {
		m.viewport.GotoBottom()
	}
}

func (m *Model) transcriptLines() []string {
	tree := m.snap.Tree()
	if len(tree.Items) == 0 {
		return []string{welcomeText}
	}
	out, err := m.renderer.WithWidth(maxInt(20, m.viewport.Width-2)).Render(tree)
	if err != nil {
		log.WithError(err).Error("render transcript failed")
		return []string{fmt.Sprintf("render error: %v", err)}
	}
	return out.Strings()
}

func userInputs(snap session.Snapshot) []string {
	var out []string
	for _, rec := range snap.History {
		if body, ok := rec.Body.(message.UserBody); ok {
			out = append(out, body.Content)
		}
	}
	return out
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
