// Package organize owns the output folder layout and file moves. Folder
// names are fixed and case-sensitive; moves never overwrite an existing
// destination.
package organize

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"noteaudit/core"
	"noteaudit/naming"
)

// Fixed output folder names under the input directory.
const (
	MedicalDir   = "medical_notes"
	TherapyDir   = "therapy_notes"
	ProcessedDir = "processed"
	ReportsDir   = "compliance_reports"
)

// Folders holds the resolved output folder paths for one run.
type Folders struct {
	Medical   string
	Therapy   string
	Processed string
	Reports   string
}

// Setup creates the output folder structure under base.
func Setup(base string) (Folders, error) {
	folders := Folders{
		Medical:   filepath.Join(base, MedicalDir),
		Therapy:   filepath.Join(base, TherapyDir),
		Processed: filepath.Join(base, ProcessedDir),
		Reports:   filepath.Join(base, ReportsDir),
	}

	for _, dir := range []string{folders.Medical, folders.Therapy, folders.Processed, folders.Reports} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return Folders{}, core.ErrFolderSetup(base, err)
		}
	}
	return folders, nil
}

// IsOutputDir reports whether a directory name is one of the fixed output
// folders, so the input scan skips already-processed subfolders.
func IsOutputDir(name string) bool {
	switch name {
	case MedicalDir, TherapyDir, ProcessedDir, ReportsDir:
		return true
	default:
		return false
	}
}

// ListPDFs returns the .pdf files directly inside dir, excluding
// _CORRECTED pipeline outputs and the output subfolders. Paths come back
// sorted by os.ReadDir's lexical order, which keeps runs deterministic.
func ListPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read input directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.EqualFold(filepath.Ext(name), ".pdf") {
			continue
		}
		if strings.Contains(name, naming.CorrectedSuffix) {
			continue
		}
		paths = append(paths, filepath.Join(dir, name))
	}
	return paths, nil
}

// Move relocates src into destDir under destName. An existing destination
// is a conflict: the source stays in place and core.ErrNamingConflict is
// returned.
func Move(src, destDir, destName string) (string, error) {
	dest := filepath.Join(destDir, destName)
	if _, err := os.Stat(dest); err == nil {
		return "", fmt.Errorf("%w: %s", core.ErrNamingConflict, dest)
	}

	if err := os.Rename(src, dest); err != nil {
		return "", fmt.Errorf("failed to move %s: %w", filepath.Base(src), err)
	}
	return dest, nil
}

// CopyCorrected writes a copy of src into the processed folder under the
// _CORRECTED name. The source bytes are copied, not moved: the original
// stays in therapy_notes/ for audit, and the corrected field values travel
// in the report for downstream rendering.
func CopyCorrected(src, processedDir, baseName string) (string, error) {
	corrected := strings.TrimSuffix(baseName, filepath.Ext(baseName)) +
		naming.CorrectedSuffix + filepath.Ext(baseName)
	dest := filepath.Join(processedDir, corrected)

	if _, err := os.Stat(dest); err == nil {
		return "", fmt.Errorf("%w: %s", core.ErrNamingConflict, dest)
	}

	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dest, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("failed to copy to %s: %w", dest, err)
	}
	return dest, nil
}
