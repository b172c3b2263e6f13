// Package web holds the server-rendered screens.
package web

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

// Template names
const (
	HomeTemplate      = "home.html"
	VisualizeTemplate = "visualize.html"
)

// Templates parses the embedded screen templates
func Templates() (*template.Template, error) {
	return template.ParseFS(templateFS, "templates/*.html")
}
