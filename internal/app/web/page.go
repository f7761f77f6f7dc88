package web

import (
	"EnergyAssistant/internal/conversation"
	"EnergyAssistant/internal/service/session"
	"bytes"
	"embed"
	"html/template"
	"io"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

//go:embed templates/index.html
var templatesFS embed.FS

var (
	pageTemplate = template.Must(template.ParseFS(templatesFS, "templates/index.html"))
	sanitizer    = bluemonday.UGCPolicy()
	markdown     = goldmark.New()
)

// Темы боковой панели «About».
var aboutTopics = []string{
	"Building insulation",
	"Energy-efficient lighting",
	"HVAC systems",
	"Renewable energy",
	"Smart home technology",
	"Energy-efficient appliances",
}

type entryView struct {
	User bool
	Body template.HTML
	Err  string
}

type pageData struct {
	Title       string
	Topics      []string
	Model       string
	Entries     []entryView
	Placeholder string
}

func renderPage(w io.Writer, sess *session.Session) error {
	entries := sess.Transcript()
	views := make([]entryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, entryView{
			User: e.Role == conversation.RoleUser,
			Body: renderMarkdown(e.Content),
			Err:  e.Err,
		})
	}
	return pageTemplate.Execute(w, pageData{
		Title:       "Energy Efficiency Building Assistant",
		Topics:      aboutTopics,
		Model:       sess.Model(),
		Entries:     views,
		Placeholder: "Ask about energy efficiency...",
	})
}

// renderMarkdown переводит ответ модели в безопасный HTML.
// При ошибке разбора текст выводится экранированным.
func renderMarkdown(src string) template.HTML {
	if src == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(sanitizer.SanitizeBytes(buf.Bytes()))
}
