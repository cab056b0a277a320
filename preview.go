package main

import (
	"bytes"
	"fmt"
	"html"
	"io"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	goldhtml "github.com/yuin/goldmark/renderer/html"
)

var previewMarkdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM, extension.Footnote),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	goldmark.WithRendererOptions(goldhtml.WithUnsafe()),
)

// RenderPreview writes the post body as an HTML fragment headed by its title.
// It is a quick look at an imported post, not what the theme will produce.
func RenderPreview(w io.Writer, post *Post) error {
	var buf bytes.Buffer
	if post.Meta.Title != "" {
		fmt.Fprintf(&buf, "<h1>%s</h1>\n", html.EscapeString(post.Meta.Title))
	}
	if err := previewMarkdown.Convert(post.Body, &buf); err != nil {
		return fmt.Errorf("rendering markdown: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}
