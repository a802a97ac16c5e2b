package frontmatter

import (
	"bytes"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Meta is the recognized front-matter metadata of a source document.
// All fields are optional.
type Meta struct {
	ID       string   `yaml:"id"`
	Parent   string   `yaml:"parent"`
	Title    string   `yaml:"title"`
	NavLabel string   `yaml:"nav_label"`
	NavOrder *float64 `yaml:"nav_order"`
	Status   string   `yaml:"status"`
	Proposal string   `yaml:"proposal"`
	Obsolete bool     `yaml:"obsolete"`
}

var delimiter = []byte("---")

// Split separates a leading YAML front-matter block from the document
// body. Documents without a front-matter block come back unchanged with
// a zero Meta. A malformed block is reported as an error, but the body
// (everything after the closing delimiter) is still returned so callers
// can degrade instead of dropping the document.
func Split(src []byte) (Meta, []byte, error) {
	var meta Meta

	trimmed := bytes.TrimPrefix(src, []byte("\ufeff"))
	if !bytes.HasPrefix(trimmed, delimiter) {
		return meta, src, nil
	}
	rest := trimmed[len(delimiter):]
	if len(rest) > 0 && rest[0] != '\n' && rest[0] != '\r' {
		// "---something" is a thematic break or content, not front matter.
		return meta, src, nil
	}

	end := bytes.Index(rest, []byte("\n---"))
	if end < 0 {
		return meta, src, fmt.Errorf("front matter: unterminated block")
	}
	block := rest[:end]
	body := rest[end+len("\n---"):]
	if i := bytes.IndexByte(body, '\n'); i >= 0 {
		body = body[i+1:]
	} else {
		body = nil
	}

	if err := yaml.Unmarshal(block, &meta); err != nil {
		return Meta{}, body, fmt.Errorf("front matter: %w", err)
	}
	return meta, body, nil
}

// ProposalMeta is the normalized proposal-class metadata of a document.
type ProposalMeta struct {
	Number string `json:"number"` // zero-padded, e.g. "0012" or "0012a"
	Status string `json:"status"`
}

const (
	// proposalPadWidth is the width the numeric part of a proposal
	// number is zero-padded to.
	proposalPadWidth = 4

	// StatusDraft is the status assumed for proposals that declare none.
	StatusDraft = "draft"
)

// proposalFilePattern recognizes proposal-class documents by filename,
// e.g. "pp-0042-streaming.md" or "PP12a.html".
var proposalFilePattern = regexp.MustCompile(`(?i)^pp-?(\d+[a-z]?)\b`)

// numberPattern splits a proposal number into numeric part and variant
// suffix ("12a" -> "12", "a").
var numberPattern = regexp.MustCompile(`^(\d+)([a-z]*)$`)

// Classify decides whether a document belongs to the proposal class and
// returns its normalized metadata. Membership comes from either the
// front-matter proposal field or the filename prefix; the filename-
// derived number is used only when the metadata does not carry one.
func Classify(meta Meta, sourcePath string) *ProposalMeta {
	number := strings.TrimSpace(meta.Proposal)
	if number == "" {
		m := proposalFilePattern.FindStringSubmatch(filepath.Base(sourcePath))
		if m == nil {
			return nil
		}
		number = m[1]
	}

	status := strings.ToLower(strings.TrimSpace(meta.Status))
	if status == "" {
		status = StatusDraft
	}
	return &ProposalMeta{
		Number: NormalizeNumber(number),
		Status: status,
	}
}

// NormalizeNumber zero-pads the numeric part of a proposal number to a
// fixed width, preserving any variant suffix. Inputs that do not look
// like a proposal number are returned lowercased but otherwise as-is.
func NormalizeNumber(raw string) string {
	raw = strings.ToLower(strings.TrimSpace(raw))
	m := numberPattern.FindStringSubmatch(raw)
	if m == nil {
		return raw
	}
	digits := strings.TrimLeft(m[1], "0")
	if digits == "" {
		digits = "0"
	}
	for len(digits) < proposalPadWidth {
		digits = "0" + digits
	}
	return digits + m[2]
}

// NumberKey returns the sort key of a normalized proposal number:
// numeric value first, full string as tiebreak for variants.
func NumberKey(number string) (int, string) {
	m := numberPattern.FindStringSubmatch(number)
	if m == nil {
		return 0, number
	}
	n := 0
	for _, c := range m[1] {
		n = n*10 + int(c-'0')
	}
	return n, number
}
