// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package markdown renders article bodies to HTML and derives plain-text
// excerpts from them. Markdown goes through goldmark with GFM and chroma
// highlighting; bodies stored as HTML pass through unchanged.
package markdown

import (
	"bytes"
	"strings"
	"unicode/utf8"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	xhtml "golang.org/x/net/html"

	"tourcms/internal/models"
)

// md is the configured goldmark instance, reused across calls.
var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Typographer,
		highlighting.NewHighlighting(
			highlighting.WithStyle("monokai"),
			highlighting.WithFormatOptions(chromahtml.WithLineNumbers(false)),
		),
	),
	goldmark.WithParserOptions(
		parser.WithAutoHeadingID(),
	),
	goldmark.WithRendererOptions(
		// Editors may embed raw HTML (video iframes, figures) in Markdown.
		html.WithUnsafe(),
	),
)

// ToHTML converts Markdown source into HTML.
func ToHTML(source string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Render returns the HTML body of an article in the given format.
func Render(content string, format models.ContentFormat) (string, error) {
	if format == models.FormatHTML {
		return content, nil
	}
	return ToHTML(content)
}

// PlainText strips tags from an HTML fragment and collapses whitespace.
// Script and style contents are dropped.
func PlainText(fragment string) string {
	z := xhtml.NewTokenizer(strings.NewReader(fragment))
	var b strings.Builder
	skip := 0
	for {
		switch z.Next() {
		case xhtml.ErrorToken:
			// io.EOF or malformed input; return what was read.
			return strings.Join(strings.Fields(b.String()), " ")
		case xhtml.StartTagToken:
			if name, _ := z.TagName(); isRawTag(name) {
				skip++
			}
			b.WriteByte(' ')
		case xhtml.EndTagToken:
			if name, _ := z.TagName(); isRawTag(name) && skip > 0 {
				skip--
			}
			b.WriteByte(' ')
		case xhtml.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}

func isRawTag(name []byte) bool {
	s := string(name)
	return s == "script" || s == "style"
}

// Excerpt renders content, strips markup and cuts it to at most n runes,
// appending "..." when truncated.
func Excerpt(content string, format models.ContentFormat, n int) string {
	body, err := Render(content, format)
	if err != nil {
		body = content
	}
	return Truncate(PlainText(body), n)
}

// Truncate cuts s to n runes, appending "..." when it was longer.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimRight(string(r[:n]), " ") + "..."
}
