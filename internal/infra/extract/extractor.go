// Package extract turns uploaded documents into plain text for analysis.
package extract

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bryanwahyu/upstarter/internal/domain/documents"
)

// Extractor dispatches on the file extension.
type Extractor struct{}

func New() *Extractor { return &Extractor{} }

// Supported lists the accepted extensions.
var Supported = []string{".txt", ".md", ".docx", ".html", ".htm", ".xlsx"}

// Extract returns the normalized text of data. A .pdf is always rejected
// with documents.ErrPDFNotSupported.
func (e *Extractor) Extract(ctx context.Context, fileName string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var (
		text string
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(fileName)); ext {
	case ".pdf":
		return "", documents.ErrPDFNotSupported
	case ".txt", ".md":
		text = string(data)
	case ".docx":
		text, err = docxText(data)
	case ".html", ".htm":
		text, err = htmlText(data)
	case ".xlsx":
		text, err = xlsxText(data)
	default:
		return "", fmt.Errorf("%w: %q", documents.ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", fileName, err)
	}
	return Normalize(text), nil
}

// ContentType maps a supported extension to its MIME type.
func ContentType(fileName string) string {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".txt":
		return "text/plain; charset=utf-8"
	case ".md":
		return "text/markdown; charset=utf-8"
	case ".html", ".htm":
		return "text/html; charset=utf-8"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "application/octet-stream"
}

var blankRuns = regexp.MustCompile(`\n{3,}`)

// Normalize fixes line endings, drops a BOM and invalid UTF-8, trims
// trailing spaces and collapses runs of blank lines.
func Normalize(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	s = strings.ToValidUTF8(s, "")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t\u00a0")
	}
	s = strings.Join(lines, "\n")
	s = blankRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
