package pdfextract

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestExtractEmptyPath(t *testing.T) {
	e := NewExtractor(DefaultConfig())
	if _, err := e.Extract(""); !errors.Is(err, ErrEmptyPath) {
		t.Errorf("Extract(\"\") error = %v, want ErrEmptyPath", err)
	}
}

func TestExtractMissingFile(t *testing.T) {
	e := NewExtractor(DefaultConfig())
	_, err := e.Extract(filepath.Join(t.TempDir(), "absent.pdf"))
	if !errors.Is(err, ErrUnreadable) {
		t.Errorf("Extract() error = %v, want ErrUnreadable", err)
	}
}

func TestExtractCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.pdf")
	if err := os.WriteFile(path, []byte("this is not a pdf"), 0644); err != nil {
		t.Fatal(err)
	}

	e := NewExtractor(DefaultConfig())
	if _, err := e.Extract(path); !errors.Is(err, ErrUnreadable) {
		t.Errorf("Extract() error = %v, want ErrUnreadable", err)
	}
}

func TestNewExtractorDefaultsSeparator(t *testing.T) {
	e := NewExtractor(Config{MaxPages: 2})
	if e.config.PageSeparator != "\n\n" {
		t.Errorf("PageSeparator = %q, want default", e.config.PageSeparator)
	}
}
