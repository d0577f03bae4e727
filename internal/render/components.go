package render

import (
	"agentchat/internal/view"

	"github.com/dustin/go-humanize"
)

const (
	userLabel      = "You"
	assistantLabel = "Assistant"
	streamingMark  = " ▍"
)

func renderContainer(ctx BuildContext, _ view.Node, children []Renderable) Renderable {
	col := WithColumnChildren(children...)
	col.Gap = 1
	return col
}

func renderChatBubble(ctx BuildContext, node view.Node, _ []Renderable) Renderable {
	n := node.(view.ChatBubble)
	header := Line{Spans: []Span{{Text: assistantLabel, Style: ctx.Theme.AssistantHeader}}}
	if n.IsUser {
		header = Line{Spans: []Span{{Text: userLabel, Style: ctx.Theme.UserHeader}}}
	}
	if n.IsStreaming {
		header.Spans = append(header.Spans, Span{Text: streamingMark, Style: ctx.Theme.Dim})
	}

	col := WithColumnChildren(StaticLines{header})
	var body Renderable = TextRenderable{Text: n.Content, Style: ctx.Theme.Body.Body}
	if !n.IsUser && ctx.Markdown && !n.IsStreaming {
		body = markdownRenderable{text: n.Content, md: ctx.md, style: ctx.Theme.Body}
	}
	if n.Content != "" {
		col.Push(NewInset(body, TLBR(0, 2, 0, 0)))
	}
	if len(n.Attachments) > 0 {
		lines := make(StaticLines, 0, len(n.Attachments))
		for _, a := range n.Attachments {
			lines = append(lines, Line{Spans: []Span{
				{Text: "📎 ", Style: ctx.Theme.Dim},
				{Text: a.Name},
				{Text: " (" + humanSize(a.Size) + ")", Style: ctx.Theme.Dim},
			}})
		}
		col.Push(NewInset(lines, TLBR(0, 2, 0, 0)))
	}
	return col
}

func renderChatLoading(ctx BuildContext, _ view.Node, _ []Renderable) Renderable {
	return StaticLines{{Spans: []Span{{Text: "… thinking", Style: ctx.Theme.Dim}}}}
}

func renderBadge(ctx BuildContext, node view.Node, _ []Renderable) Renderable {
	n := node.(view.ToolCallIndicatorBadge)
	text := n.Text
	if n.Icon != "" {
		text = n.Icon + " " + text
	}
	return TextRenderable{Text: text, Style: ctx.Theme.Badge}
}

func renderAccordion(ctx BuildContext, node view.Node, children []Renderable) Renderable {
	n := node.(view.FunctionToolCallAccordion)
	col := WithColumnChildren(TextRenderable{Text: "▾ " + n.Title, Style: ctx.Theme.AccordionTitle})
	for _, child := range children {
		col.Push(NewInset(child, TLBR(0, 2, 0, 0)))
	}
	return col
}

func renderParagraph(ctx BuildContext, node view.Node, _ []Renderable) Renderable {
	return TextRenderable{Text: node.(view.Paragraph).Text, Style: ctx.Theme.Body.Body}
}

func renderButton(ctx BuildContext, node view.Node, _ []Renderable) Renderable {
	n := node.(view.Button)
	style := ctx.Theme.ButtonDefault
	if n.Variant == "primary" {
		style = ctx.Theme.ButtonPrimary
	}
	return StaticLines{{Spans: []Span{{Text: "[ " + n.Label + " ]", Style: style}}}}
}

// humanSize 以二进制单位显示附件大小，负数按 0 处理。
func humanSize(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}
