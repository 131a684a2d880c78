// Package naming canonicalizes clinical note file names from the legacy
// dotted convention to the clinic's underscore convention:
//
//	SMITH.JOHN.01.15.2024_TH.pdf -> SMITH_JOHN_01152024_TH.pdf
//
// Matching is strict on format, not content: name segments must be
// uppercase alphanumeric (hyphens allowed), date segments fixed-width
// numeric. Files already in target form, files matching neither pattern,
// and _CORRECTED pipeline outputs are each tagged distinctly so every
// branch is independently countable.
package naming

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"noteaudit/core"
)

// Kind tags the outcome of normalizing one file name.
type Kind int

const (
	// KindNormalized means the name matched the legacy dotted pattern and
	// a target name was computed.
	KindNormalized Kind = iota

	// KindAlreadyCorrect means the name is already in target form.
	KindAlreadyCorrect

	// KindUnmatched means the name matches neither pattern; the file is
	// left untouched.
	KindUnmatched

	// KindExcluded marks _CORRECTED pipeline outputs, which are never
	// normalized to keep the normalizer off its own prior output.
	KindExcluded
)

func (k Kind) String() string {
	switch k {
	case KindNormalized:
		return "normalized"
	case KindAlreadyCorrect:
		return "already_correct"
	case KindUnmatched:
		return "unmatched"
	case KindExcluded:
		return "excluded"
	default:
		return "unknown"
	}
}

var (
	// LASTNAME.FIRSTNAME.MM.DD.YYYY[_SUFFIX].pdf
	dottedPattern = regexp.MustCompile(
		`^([A-Z0-9-]+)\.([A-Z0-9-]+)\.(\d{2})\.(\d{2})\.(\d{4})(_[A-Z]+)?\.pdf$`)

	// LASTNAME_FIRSTNAME_MMDDYYYY[_SUFFIX].pdf
	targetPattern = regexp.MustCompile(
		`^([A-Z0-9-]+)_([A-Z0-9-]+)_(\d{8})(_[A-Z]+)?\.pdf$`)
)

// CorrectedSuffix marks pipeline output files.
const CorrectedSuffix = "_CORRECTED"

// Normalize computes the canonical form of a file name (base name, not a
// path). The returned target is non-empty only for KindNormalized.
func Normalize(filename string) (target string, kind Kind) {
	if strings.Contains(filename, CorrectedSuffix) {
		return "", KindExcluded
	}

	if targetPattern.MatchString(filename) {
		return "", KindAlreadyCorrect
	}

	m := dottedPattern.FindStringSubmatch(filename)
	if m == nil {
		return "", KindUnmatched
	}

	last, first, month, day, year, suffix := m[1], m[2], m[3], m[4], m[5], m[6]
	return fmt.Sprintf("%s_%s_%s%s%s%s.pdf", last, first, month, day, year, suffix), KindNormalized
}

// Stats counts normalization outcomes across a run.
type Stats struct {
	Renamed        int
	AlreadyCorrect int
	Conflicts      int
	Unmatched      int
	Excluded       int
}

// Rename normalizes the file at path on disk, returning the resulting path.
// A computed target that already exists and differs from the source is a
// conflict: the rename is skipped, both files stay intact, and
// core.ErrNamingConflict is returned for the report.
func Rename(path string) (string, Kind, error) {
	dir := filepath.Dir(path)
	base := filepath.Base(path)

	target, kind := Normalize(base)
	if kind != KindNormalized {
		return path, kind, nil
	}

	targetPath := filepath.Join(dir, target)
	if _, err := os.Stat(targetPath); err == nil {
		return path, kind, fmt.Errorf("%w: %s", core.ErrNamingConflict, target)
	}

	if err := os.Rename(path, targetPath); err != nil {
		return path, kind, fmt.Errorf("failed to rename %s: %w", base, err)
	}
	return targetPath, kind, nil
}

// NormalizeDir normalizes every .pdf file directly inside dir, standalone
// mode for cleaning up a drop folder before processing.
func NormalizeDir(dir string) (Stats, error) {
	var stats Stats

	entries, err := os.ReadDir(dir)
	if err != nil {
		return stats, fmt.Errorf("failed to read directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			continue
		}

		_, kind, err := Rename(filepath.Join(dir, entry.Name()))
		switch {
		case err != nil:
			stats.Conflicts++
		case kind == KindNormalized:
			stats.Renamed++
		case kind == KindAlreadyCorrect:
			stats.AlreadyCorrect++
		case kind == KindExcluded:
			stats.Excluded++
		default:
			stats.Unmatched++
		}
	}

	return stats, nil
}
