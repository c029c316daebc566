// Package assets builds the minified index page served by the API server.
package assets

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
)

//go:embed web
var files embed.FS

// PageData is rendered into the index template.
type PageData struct {
	Title   string
	Version string
	CSS     template.CSS
	JS      template.JS
}

// BuildIndex renders the index page with inlined, minified CSS and JS.
func BuildIndex(title, version string) ([]byte, error) {
	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.AddFunc("text/html", html.Minify)
	m.AddFunc("text/javascript", js.Minify)

	cssRaw, err := files.ReadFile("web/style.css")
	if err != nil {
		return nil, fmt.Errorf("read CSS: %w", err)
	}
	cssMin, err := m.String("text/css", string(cssRaw))
	if err != nil {
		return nil, fmt.Errorf("minify CSS: %w", err)
	}

	jsRaw, err := files.ReadFile("web/script.js")
	if err != nil {
		return nil, fmt.Errorf("read JS: %w", err)
	}
	jsMin, err := m.String("text/javascript", string(jsRaw))
	if err != nil {
		return nil, fmt.Errorf("minify JS: %w", err)
	}

	tmpl, err := template.ParseFS(files, "web/index.html.tpl")
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, PageData{
		Title:   title,
		Version: version,
		CSS:     template.CSS(cssMin),
		JS:      template.JS(jsMin),
	})
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}

	out, err := m.Bytes("text/html", buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("minify HTML: %w", err)
	}

	return out, nil
}
