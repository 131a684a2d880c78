// Package report collects per-file outcomes into the run-level compliance
// report and renders it as one HTML and one JSON artifact with identical
// content. The aggregator is the only shared mutable state in the run:
// appends are serialized behind a mutex, and the final ordering is a
// stable sort by source path so the report is deterministic regardless of
// worker scheduling.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"noteaudit/core"
)

// timestampLayout names report artifacts: compliance_report_20250131_143000.html
const timestampLayout = "20060102_150405"

// Counts aggregates outcomes by category. Timestamps are excluded so two
// runs over identical input compare equal.
type Counts struct {
	Total       int `json:"total"`
	Therapy     int `json:"therapy"`
	Medical     int `json:"medical"`
	Compliant   int `json:"compliant"`
	Corrected   int `json:"corrected"`
	NeedsReview int `json:"needs_review"`
	Skipped     int `json:"skipped"`
	Failed      int `json:"failed"`
	BelowMDM    int `json:"below_mdm"`
}

// RunReport is the finalized run-level report. It is immutable after
// Finalize and both artifacts are rendered from this one value, so the
// HTML and JSON forms are structurally equivalent by construction.
type RunReport struct {
	GeneratedAt time.Time          `json:"generated_at"`
	Notes       []core.NoteOutcome `json:"notes"`
	Counts      Counts             `json:"counts_by_category"`
}

// Aggregator accumulates NoteOutcomes during a run. Create one per run;
// it is not reusable after Finalize.
type Aggregator struct {
	mu        sync.Mutex
	outcomes  []core.NoteOutcome
	finalized bool
}

// NewAggregator creates an empty aggregator for a new run.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Add appends one outcome. Safe for concurrent use by pipeline workers.
func (a *Aggregator) Add(outcome core.NoteOutcome) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.outcomes = append(a.outcomes, outcome)
}

// Len returns the number of collected outcomes.
func (a *Aggregator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.outcomes)
}

// Finalize freezes the report: outcomes sorted by source path, counts
// computed, timestamp assigned. Calling it twice returns
// core.ErrAlreadyFinalized.
func (a *Aggregator) Finalize() (*RunReport, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.finalized {
		return nil, core.ErrAlreadyFinalized
	}
	a.finalized = true

	notes := make([]core.NoteOutcome, len(a.outcomes))
	copy(notes, a.outcomes)
	sort.SliceStable(notes, func(i, j int) bool {
		return notes[i].Path < notes[j].Path
	})

	report := &RunReport{
		GeneratedAt: time.Now(),
		Notes:       notes,
	}
	report.Counts = countOutcomes(notes)
	return report, nil
}

func countOutcomes(notes []core.NoteOutcome) Counts {
	counts := Counts{Total: len(notes)}
	for _, n := range notes {
		switch n.Classification {
		case core.ClassTherapy:
			counts.Therapy++
		case core.ClassMedical:
			counts.Medical++
		}

		switch n.Status {
		case core.StatusCompliant:
			counts.Compliant++
		case core.StatusCorrected:
			counts.Corrected++
		case core.StatusNeedsReview:
			counts.NeedsReview++
		case core.StatusSkipped:
			counts.Skipped++
		case core.StatusFailed:
			counts.Failed++
		}

		if n.MDM != nil && !n.MDM.MeetsModerate {
			counts.BelowMDM++
		}
	}
	return counts
}

// WriteArtifacts renders the report into dir as one HTML and one JSON
// file named with the run timestamp. A write failure here is the one hard
// failure in the system: a run with no report is a run with no record.
func (r *RunReport) WriteArtifacts(dir string) (htmlPath, jsonPath string, err error) {
	stamp := r.GeneratedAt.Format(timestampLayout)
	htmlPath = filepath.Join(dir, fmt.Sprintf("compliance_report_%s.html", stamp))
	jsonPath = filepath.Join(dir, fmt.Sprintf("compliance_report_%s.json", stamp))

	html, err := renderHTML(r)
	if err != nil {
		return "", "", core.ErrReportWrite(htmlPath, err)
	}
	if err := os.WriteFile(htmlPath, html, 0644); err != nil {
		return "", "", core.ErrReportWrite(htmlPath, err)
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", "", core.ErrReportWrite(jsonPath, err)
	}
	if err := os.WriteFile(jsonPath, append(data, '\n'), 0644); err != nil {
		return "", "", core.ErrReportWrite(jsonPath, err)
	}

	return htmlPath, jsonPath, nil
}
