// internal/lease/document/html.go
package document

import (
	"bytes"
	"fmt"
	"html"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// ToHTML converts a rendered document to an HTML fragment.
func ToHTML(doc string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(doc), &buf); err != nil {
		return "", fmt.Errorf("markdown convert: %w", err)
	}
	return buf.String(), nil
}

// ToHTMLPage wraps ToHTML output in a standalone page.
func ToHTMLPage(title, doc string) (string, error) {
	body, err := ToHTML(doc)
	if err != nil {
		return "", err
	}
	return "<!doctype html><html><head><meta charset='utf-8'><title>" + html.EscapeString(title) + "</title>" +
		"<style>body{font-family:sans-serif;max-width:860px;margin:2rem auto;padding:0 1rem;color:#1f2937}" +
		"table{border-collapse:collapse;width:100%}th,td{border:1px solid #e5e7eb;padding:.35rem .5rem;text-align:left}" +
		"h1{color:#2563eb}h2{border-bottom:2px solid #7c3aed;padding-bottom:.2rem}</style></head><body>" +
		body + "</body></html>", nil
}
