// Package pdfextract extracts page-ordered plain text from clinical note
// PDFs using the ledongthuc/pdf library. Encrypted, corrupt, and image-only
// files surface as ErrUnreadable so the pipeline can mark them Failed
// without aborting the batch.
package pdfextract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrUnreadable is returned when a PDF cannot be opened or yields no
// extractable text on any page (encrypted, corrupt, or image-only scans).
var ErrUnreadable = errors.New("pdf is unreadable")

// ErrEmptyPath is returned when an empty file path is provided.
var ErrEmptyPath = errors.New("empty pdf path provided")

// Result contains the extraction output for one file.
type Result struct {
	// Pages holds the per-page text in page order (1-indexed pages,
	// 0-indexed slice). Empty pages keep their slot so ordering is stable.
	Pages []string

	// Text is the full text, pages joined by the separator.
	Text string

	// TotalPages is the page count of the document.
	TotalPages int

	// ExtractedPages is the number of pages that yielded text.
	ExtractedPages int
}

// Config holds extraction settings.
type Config struct {
	// MaxPages limits extraction to the first N pages (0 for all pages).
	// The classifier uses a two-page pre-pass; full extraction uses 0.
	MaxPages int

	// PageSeparator joins page texts in Result.Text. Defaults to "\n\n".
	PageSeparator string
}

// DefaultConfig returns the default extraction settings.
func DefaultConfig() Config {
	return Config{MaxPages: 0, PageSeparator: "\n\n"}
}

// Extractor extracts text from PDF files.
type Extractor struct {
	config Config
}

// NewExtractor creates an Extractor with the given configuration.
func NewExtractor(config Config) *Extractor {
	if config.PageSeparator == "" {
		config.PageSeparator = "\n\n"
	}
	return &Extractor{config: config}
}

// Extract extracts text from the PDF at path.
//
// A file that opens but yields no text on any processed page is reported as
// ErrUnreadable: scanned image-only documents are out of scope (no OCR).
func (e *Extractor) Extract(path string) (*Result, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	defer f.Close()

	totalPages := r.NumPage()
	result := &Result{
		TotalPages: totalPages,
		Pages:      make([]string, 0, totalPages),
	}

	pagesToProcess := totalPages
	if e.config.MaxPages > 0 && e.config.MaxPages < totalPages {
		pagesToProcess = e.config.MaxPages
	}

	var textBuilder strings.Builder

	// Pages are 1-indexed in ledongthuc/pdf.
	for pageIndex := 1; pageIndex <= pagesToProcess; pageIndex++ {
		text := e.extractPage(r, pageIndex)
		result.Pages = append(result.Pages, text)
		if text == "" {
			continue
		}

		result.ExtractedPages++
		if textBuilder.Len() > 0 {
			textBuilder.WriteString(e.config.PageSeparator)
		}
		textBuilder.WriteString(text)
	}

	result.Text = textBuilder.String()
	if result.Text == "" {
		return result, fmt.Errorf("%w: no text content on %d pages", ErrUnreadable, totalPages)
	}

	return result, nil
}

// extractPage extracts text from a single page. Extraction errors on a
// page are treated as an empty page; the document fails only when every
// page comes back empty.
func (e *Extractor) extractPage(r *pdf.Reader, pageIndex int) string {
	p := r.Page(pageIndex)
	if p.V.IsNull() {
		return ""
	}

	text, err := p.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

// ExtractFirstPages is a convenience helper that extracts only the first n
// pages, used by the classification pre-pass.
func ExtractFirstPages(path string, n int) (*Result, error) {
	e := NewExtractor(Config{MaxPages: n, PageSeparator: "\n\n"})
	return e.Extract(path)
}
