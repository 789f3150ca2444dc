// Package web embeds the viewer and admin pages.
package web

import (
	"embed"
	"html/template"
	"io"
)

//go:embed templates/*.html
var templatesFS embed.FS

var templates = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

// LanguageOption is one entry in the viewer language selector.
type LanguageOption struct {
	Code     string
	Name     string
	Selected bool
}

// PageData is what the page templates interpolate. The settings maps
// are injected as JSON so a freshly loaded page starts from the saved
// display state instead of waiting for the next settings broadcast.
type PageData struct {
	WebsocketToken  string
	PrimaryLanguage string
	Provider        string
	Languages       []LanguageOption
	DisplaySettings map[string]any
	UserSettings    map[string]any
}

// Render writes the named page. Page names map to template files, so
// "user" renders templates/user.html.
func Render(w io.Writer, page string, data PageData) error {
	return templates.ExecuteTemplate(w, page+".html", data)
}
