package server

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"msgboard/pkg/domain"
)

const textHTML = "text/html"

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<title>microservice</title>
<style>body {font-family:monospace}</style>
</head>
<body>
<ul>
{{- range .}}
<li>{{.Username}} ({{.Timestamp}}): {{.Message}}</li>
{{- end}}
</ul>
</body>
</html>
`))

// pageRenderer turns stored messages into the list page.
type pageRenderer struct {
	minify *minify.M
}

func newPageRenderer() *pageRenderer {
	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.Add(textHTML, &html.Minifier{
		KeepDocumentTags: true,
		KeepEndTags:      true,
	})
	return &pageRenderer{minify: m}
}

// Render lists one entry per message in the given order.
func (p *pageRenderer) Render(messages []domain.Message) ([]byte, error) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, messages); err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}
	out, err := p.minify.Bytes(textHTML, buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("minify page: %w", err)
	}
	return out, nil
}
