package extract

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"

	"github.com/dgallion1/docsite/internal/frontmatter"
	"github.com/dgallion1/docsite/internal/render"
)

// Section is an in-document heading usable as a deep link.
type Section struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Level int    `json:"level"`
}

// Extracted is the structured result of processing one source document.
type Extracted struct {
	Title     string
	Sections  []Section
	PlainText string
	HTML      []byte
	Proposal  *frontmatter.ProposalMeta

	// Degraded marks a document whose structural parse failed; it
	// carries raw text and a filename title instead.
	Degraded bool
}

// Document processes one raw source document into its metadata and
// extracted structure. A structural parse failure never returns an
// error: the result degrades to raw text with a filename-derived title
// and is logged.
func Document(log *slog.Logger, sourcePath string, raw []byte) (frontmatter.Meta, Extracted) {
	meta, body, err := frontmatter.Split(raw)
	if err != nil {
		log.Warn("invalid front matter, ignoring", "path", sourcePath, "error", err)
		err = nil
	}

	ext := Extracted{Proposal: frontmatter.Classify(meta, sourcePath)}

	var rendered []byte
	switch strings.ToLower(filepath.Ext(sourcePath)) {
	case ".html", ".htm":
		rendered = body
	default:
		rendered, err = render.HTML(body)
	}
	if err == nil {
		var doc *html.Node
		doc, err = html.Parse(bytes.NewReader(rendered))
		if err == nil {
			ext.HTML = rendered
			walkRendered(doc, &ext)
		}
	}
	if err != nil {
		log.Warn("extraction degraded to raw text", "path", sourcePath, "error", err)
		ext = Extracted{
			PlainText: string(body),
			Proposal:  ext.Proposal,
			Degraded:  true,
		}
	}

	// Title resolution: explicit metadata, then first h1, then filename.
	if meta.Title != "" {
		ext.Title = meta.Title
	} else if ext.Title == "" {
		ext.Title = TitleFromFilename(sourcePath)
	}
	return meta, ext
}

// walkRendered collects the first top-level heading, the section list
// and the plain-text content from a rendered document. Playground
// blocks are dropped before any text is taken, so their content never
// reaches the index.
func walkRendered(doc *html.Node, ext *Extracted) {
	var text strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if isPlayground(n) {
				return
			}
			switch n.Data {
			case "script", "style":
				return
			}
			if level := headingLevel(n.Data); level > 0 {
				t := collapseWhitespace(textContent(n))
				if level == 1 {
					if ext.Title == "" && t != "" {
						ext.Title = t
					}
				} else if id := attr(n, "id"); id != "" && t != "" {
					ext.Sections = append(ext.Sections, Section{ID: id, Text: t, Level: level})
				}
				if t != "" {
					text.WriteString(t)
					text.WriteString("\n")
				}
				return
			}
		}
		if n.Type == html.TextNode {
			text.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && isBlock(n.Data) {
			text.WriteString("\n")
		}
	}
	walk(doc)

	ext.PlainText = collapseBlankLines(text.String())
}

// isPlayground recognizes embedded interactive example blocks.
func isPlayground(n *html.Node) bool {
	if n.Data == "playground" {
		return true
	}
	for _, a := range n.Attr {
		if a.Key == "data-playground" {
			return true
		}
		if a.Key == "class" {
			for _, c := range strings.Fields(a.Val) {
				if c == "playground" {
					return true
				}
			}
		}
	}
	return false
}

func headingLevel(tag string) int {
	if len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6' {
		return int(tag[1] - '0')
	}
	return 0
}

func isBlock(tag string) bool {
	switch tag {
	case "p", "li", "td", "th", "blockquote", "pre", "div", "ul", "ol", "table", "tr":
		return true
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(buf.String())
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// collapseBlankLines trims every line and squeezes runs of blank lines,
// keeping plain text compact for indexing and snippets.
func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = collapseWhitespace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// TitleFromFilename derives a display title from a source path:
// punctuation becomes spaces and each word is title-cased.
func TitleFromFilename(sourcePath string) string {
	base := filepath.Base(sourcePath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	words := strings.FieldsFunc(base, func(r rune) bool {
		return r == '-' || r == '_' || r == '.' || r == ' '
	})
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = strings.ToUpper(string(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
