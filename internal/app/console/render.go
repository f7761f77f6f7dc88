package console

import (
	"EnergyAssistant/internal/conversation"
	"EnergyAssistant/internal/service/session"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// Renderer — поверхность отображения: лента сессии и ещё не отправленный ввод.
type Renderer interface {
	Render(entries []session.Entry, pending string)
}

var (
	userStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	assistantStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	errorStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	pendingStyle   = lipgloss.NewStyle().Faint(true)
)

// TerminalRenderer печатает ленту в терминал, ответы ассистента — как markdown.
// Уже напечатанные записи повторно не выводятся.
type TerminalRenderer struct {
	out     io.Writer
	md      *glamour.TermRenderer
	printed int
}

// NewTerminalRenderer создаёт рендерер. markdown=false — вывод как есть (например, в pipe).
func NewTerminalRenderer(out io.Writer, markdown bool) *TerminalRenderer {
	r := &TerminalRenderer{out: out}
	if markdown {
		md, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(80),
		)
		if err == nil {
			r.md = md
		}
	}
	return r
}

func (r *TerminalRenderer) Render(entries []session.Entry, pending string) {
	if r.printed > len(entries) {
		r.printed = 0
	}
	for _, e := range entries[r.printed:] {
		switch {
		case e.Err != "":
			fmt.Fprintf(r.out, "%s %s\n", errorStyle.Render("[Error]"), e.Err)
		case e.Role == conversation.RoleUser:
			fmt.Fprintf(r.out, "%s %s\n", userStyle.Render("you>"), e.Content)
		default:
			fmt.Fprintf(r.out, "%s\n%s\n", assistantStyle.Render("assistant>"), r.markdown(e.Content))
		}
	}
	r.printed = len(entries)
	if pending != "" {
		fmt.Fprintln(r.out, pendingStyle.Render(pending))
	}
}

func (r *TerminalRenderer) markdown(content string) string {
	if r.md == nil {
		return content
	}
	out, err := r.md.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(out, "\n")
}
