package naming

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"noteaudit/core"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name       string
		filename   string
		wantTarget string
		wantKind   Kind
	}{
		{
			name:       "dotted with suffix",
			filename:   "SMITH.JOHN.01.15.2024_TH.pdf",
			wantTarget: "SMITH_JOHN_01152024_TH.pdf",
			wantKind:   KindNormalized,
		},
		{
			name:       "dotted without suffix",
			filename:   "DOE.JANE.12.01.2023.pdf",
			wantTarget: "DOE_JANE_12012023.pdf",
			wantKind:   KindNormalized,
		},
		{
			name:       "hyphenated name segment",
			filename:   "SMITH-JONES.MARY.03.09.2025_MED.pdf",
			wantTarget: "SMITH-JONES_MARY_03092025_MED.pdf",
			wantKind:   KindNormalized,
		},
		{
			name:     "already in target form",
			filename: "SMITH_JOHN_01152024_TH.pdf",
			wantKind: KindAlreadyCorrect,
		},
		{
			name:     "target form without suffix",
			filename: "DOE_JANE_12012023.pdf",
			wantKind: KindAlreadyCorrect,
		},
		{
			name:     "corrected output excluded",
			filename: "SMITH_JOHN_01152024_TH_CORRECTED.pdf",
			wantKind: KindExcluded,
		},
		{
			name:     "dotted corrected output excluded",
			filename: "SMITH.JOHN.01.15.2024_CORRECTED.pdf",
			wantKind: KindExcluded,
		},
		{
			name:     "lowercase name unmatched",
			filename: "smith.john.01.15.2024.pdf",
			wantKind: KindUnmatched,
		},
		{
			name:     "wrong date width unmatched",
			filename: "SMITH.JOHN.1.15.2024.pdf",
			wantKind: KindUnmatched,
		},
		{
			name:     "arbitrary name unmatched",
			filename: "scan0001.pdf",
			wantKind: KindUnmatched,
		},
		{
			name:     "not a pdf unmatched",
			filename: "SMITH.JOHN.01.15.2024.txt",
			wantKind: KindUnmatched,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, kind := Normalize(tt.filename)
			if kind != tt.wantKind {
				t.Fatalf("Normalize(%q) kind = %v, want %v", tt.filename, kind, tt.wantKind)
			}
			if target != tt.wantTarget {
				t.Errorf("Normalize(%q) target = %q, want %q", tt.filename, target, tt.wantTarget)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	// Running the normalizer over its own output must be a no-op.
	target, kind := Normalize("SMITH.JOHN.01.15.2024_TH.pdf")
	if kind != KindNormalized {
		t.Fatalf("first pass kind = %v", kind)
	}

	second, kind := Normalize(target)
	if kind != KindAlreadyCorrect || second != "" {
		t.Errorf("second pass = (%q, %v), want already correct", second, kind)
	}
}

func TestRename(t *testing.T) {
	t.Run("renames dotted file", func(t *testing.T) {
		dir := t.TempDir()
		src := filepath.Join(dir, "SMITH.JOHN.01.15.2024_TH.pdf")
		if err := os.WriteFile(src, []byte("pdf"), 0644); err != nil {
			t.Fatal(err)
		}

		got, kind, err := Rename(src)
		if err != nil {
			t.Fatalf("Rename() error = %v", err)
		}
		if kind != KindNormalized {
			t.Errorf("kind = %v, want normalized", kind)
		}
		want := filepath.Join(dir, "SMITH_JOHN_01152024_TH.pdf")
		if got != want {
			t.Errorf("Rename() = %q, want %q", got, want)
		}
		if _, err := os.Stat(src); !os.IsNotExist(err) {
			t.Error("source file still exists after rename")
		}
		if _, err := os.Stat(want); err != nil {
			t.Error("target file missing after rename")
		}
	})

	t.Run("conflict leaves both files intact", func(t *testing.T) {
		dir := t.TempDir()
		src := filepath.Join(dir, "SMITH.JOHN.01.15.2024_TH.pdf")
		existing := filepath.Join(dir, "SMITH_JOHN_01152024_TH.pdf")
		if err := os.WriteFile(src, []byte("new"), 0644); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(existing, []byte("old"), 0644); err != nil {
			t.Fatal(err)
		}

		got, _, err := Rename(src)
		if !errors.Is(err, core.ErrNamingConflict) {
			t.Fatalf("Rename() error = %v, want naming conflict", err)
		}
		if got != src {
			t.Errorf("Rename() = %q, want source path back", got)
		}

		for _, path := range []string{src, existing} {
			if _, err := os.Stat(path); err != nil {
				t.Errorf("%s missing after conflict", filepath.Base(path))
			}
		}
		data, err := os.ReadFile(existing)
		if err != nil || string(data) != "old" {
			t.Error("existing file was overwritten")
		}
	})

	t.Run("already correct is a no-op", func(t *testing.T) {
		dir := t.TempDir()
		src := filepath.Join(dir, "SMITH_JOHN_01152024_TH.pdf")
		if err := os.WriteFile(src, []byte("pdf"), 0644); err != nil {
			t.Fatal(err)
		}

		got, kind, err := Rename(src)
		if err != nil {
			t.Fatalf("Rename() error = %v", err)
		}
		if kind != KindAlreadyCorrect || got != src {
			t.Errorf("Rename() = (%q, %v), want untouched", got, kind)
		}
	})
}

func TestNormalizeDir(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		"SMITH.JOHN.01.15.2024_TH.pdf",
		"DOE.JANE.12.01.2023.pdf",
		"JONES_ALEX_03092025.pdf",
		"scan0001.pdf",
		"SMITH_JOHN_01152024_CORRECTED.pdf",
		"notes.txt",
	}
	for _, name := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(name), 0644); err != nil {
			t.Fatal(err)
		}
	}

	stats, err := NormalizeDir(dir)
	if err != nil {
		t.Fatalf("NormalizeDir() error = %v", err)
	}

	want := Stats{Renamed: 2, AlreadyCorrect: 1, Unmatched: 1, Excluded: 1}
	if stats != want {
		t.Errorf("NormalizeDir() = %+v, want %+v", stats, want)
	}

	for _, name := range []string{"SMITH_JOHN_01152024_TH.pdf", "DOE_JANE_12012023.pdf"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected %s after normalization", name)
		}
	}
}
