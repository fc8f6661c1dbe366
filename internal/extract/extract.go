// Package extract pulls per-page text out of uploaded source files.
package extract

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/cloo-solutions/docchat/internal/domain"
)

// Extractor turns a raw source file into an ordered sequence of pages.
// Page text may be empty; empty pages are the segmenter's problem, not ours.
type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

// SupportedTypes lists the file extensions Extract accepts.
func SupportedTypes() []string {
	return []string{".pdf", ".txt"}
}

// Supported reports whether the filename has an extractable extension.
func Supported(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, s := range SupportedTypes() {
		if ext == s {
			return true
		}
	}
	return false
}

// Extract reads the file and returns its pages in order. Plain text counts
// as a single page. Unsupported extensions return a validation error.
func (e *Extractor) Extract(data io.ReaderAt, size int64, filename string) ([]domain.Page, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return extractPDF(data, size)
	case ".txt":
		return extractTXT(data, size)
	default:
		return nil, domain.ErrUnsupportedFile
	}
}

func extractPDF(data io.ReaderAt, size int64) ([]domain.Page, error) {
	reader, err := pdf.NewReader(data, size)
	if err != nil {
		return nil, fmt.Errorf("open PDF: %w", err)
	}

	numPages := reader.NumPage()
	pages := make([]domain.Page, 0, numPages)

	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)

		text := ""
		if !page.V.IsNull() {
			// Extraction failures on individual pages degrade to an
			// empty page rather than failing the whole document.
			if t, err := page.GetPlainText(nil); err == nil {
				text = t
			}
		}

		pages = append(pages, domain.Page{Number: i, Text: text})
	}

	return pages, nil
}

func extractTXT(data io.ReaderAt, size int64) ([]domain.Page, error) {
	buf := make([]byte, size)
	if _, err := data.ReadAt(buf, 0); err != nil && err != io.EOF {
		return nil, fmt.Errorf("read text file: %w", err)
	}

	return []domain.Page{{Number: 1, Text: string(buf)}}, nil
}
