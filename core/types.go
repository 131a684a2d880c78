package core

import (
	"time"

	"github.com/google/uuid"
)

// Classification labels a note as therapy, medical, or unknown.
type Classification string

const (
	// ClassTherapy indicates a psychotherapy note signed by a therapy provider.
	ClassTherapy Classification = "therapy"

	// ClassMedical indicates a medical note (E&M / MDM-style documentation).
	ClassMedical Classification = "medical"

	// ClassUnknown indicates the classifier found conflicting or no signal.
	// Unknown notes are routed to manual review and never auto-corrected.
	ClassUnknown Classification = "unknown"
)

// VisitType distinguishes initial evaluations from follow-up sessions.
// Initial visits carry CPT 90791 regardless of duration; follow-ups must not.
type VisitType string

const (
	VisitInitial  VisitType = "initial"
	VisitFollowUp VisitType = "follow_up"
	VisitUnknown  VisitType = "unknown"
)

// Note is the unit of work for a single PDF file. RawText is immutable once
// extracted; Classification is set exactly once by the classifier. Notes are
// held for the lifetime of the run so the report can reference them.
type Note struct {
	// ID uniquely identifies this note within the run.
	ID uuid.UUID `json:"id"`

	// SourcePath is the original path of the PDF file.
	SourcePath string `json:"source_path"`

	// RawText is the full extracted text, pages joined in order.
	RawText string `json:"-"`

	// Classification is the classifier's label for this note.
	Classification Classification `json:"classification"`

	// Credential is the provider credential detected during classification
	// (e.g. "LCSW"), empty when none was found.
	Credential string `json:"credential,omitempty"`

	// Fields holds the structured fields parsed from RawText.
	// Nil for notes that never reached field extraction.
	Fields *ExtractedFields `json:"fields,omitempty"`
}

// NewNote creates a Note for the given source path with a fresh ID.
func NewNote(sourcePath string) *Note {
	return &Note{
		ID:             uuid.New(),
		SourcePath:     sourcePath,
		Classification: ClassUnknown,
	}
}

// Goal is a single treatment goal. A goal is well-formed iff all four
// sub-fields are non-empty.
type Goal struct {
	// Statement is the goal in the client's voice ("I want to ...").
	Statement string `json:"statement"`

	// Objective is the measurable action with frequency.
	Objective string `json:"objective"`

	// Modality is the treatment modality (e.g. "CBT, DBT").
	Modality string `json:"modality"`

	// Progress is the current progress note for this goal.
	Progress string `json:"progress"`
}

// WellFormed reports whether all four goal sub-fields are present.
func (g Goal) WellFormed() bool {
	return g.Statement != "" && g.Objective != "" && g.Modality != "" && g.Progress != ""
}

// ExtractedFields holds the structured fields parsed from a therapy note.
// Every field is optional; absence is a compliance signal, not an error.
type ExtractedFields struct {
	// ServiceDate is the date of service from the encounter header.
	ServiceDate *time.Time `json:"service_date,omitempty"`

	// SignedDate is the electronic signing date.
	SignedDate *time.Time `json:"signed_date,omitempty"`

	// SessionMinutes is the session duration computed from start/end times.
	SessionMinutes *int `json:"session_duration_minutes,omitempty"`

	// CPTCode is the billing code found on the note (e.g. "90834").
	CPTCode string `json:"cpt_code,omitempty"`

	// VisitType indicates initial visit vs follow-up.
	VisitType VisitType `json:"visit_type,omitempty"`

	// RenderedBy is the "Rendered by:" line content.
	RenderedBy string `json:"rendered_by,omitempty"`

	// Signer is the name from the "Electronically signed by" line.
	Signer string `json:"signer,omitempty"`

	// SignerCredential is the credential attached to the signer.
	SignerCredential string `json:"signer_credential,omitempty"`

	// Supervisor is the qualifying "Supervised by:" line content, when present.
	Supervisor string `json:"supervisor,omitempty"`

	// Diagnoses lists diagnosis lines found on the note, used as context
	// when drafting replacement goals.
	Diagnoses []string `json:"diagnoses,omitempty"`

	// Goals is the ordered sequence of treatment goals found on the note.
	Goals []Goal `json:"goals,omitempty"`
}

// Clone returns a deep copy of the fields. Corrections are applied to a
// clone so the original stays untouched for audit purposes.
func (f *ExtractedFields) Clone() *ExtractedFields {
	if f == nil {
		return nil
	}
	clone := *f
	if f.ServiceDate != nil {
		d := *f.ServiceDate
		clone.ServiceDate = &d
	}
	if f.SignedDate != nil {
		d := *f.SignedDate
		clone.SignedDate = &d
	}
	if f.SessionMinutes != nil {
		m := *f.SessionMinutes
		clone.SessionMinutes = &m
	}
	clone.Diagnoses = append([]string(nil), f.Diagnoses...)
	clone.Goals = append([]Goal(nil), f.Goals...)
	return &clone
}

// Severity classifies how serious a finding is.
type Severity string

const (
	SeverityInfo      Severity = "info"
	SeverityWarning   Severity = "warning"
	SeverityViolation Severity = "violation"
)

// Finding is a single rule evaluation result. Findings are append-only:
// the rule engine produces them once and nothing mutates them afterwards.
type Finding struct {
	// RuleID identifies the rule that produced this finding
	// (e.g. "therapy.date_window").
	RuleID string `json:"rule_id"`

	// Severity is the finding severity.
	Severity Severity `json:"severity"`

	// Description is a human-readable explanation of the finding.
	Description string `json:"description"`

	// AutoCorrectable reports whether the correction engine can fix
	// this finding without human judgment.
	AutoCorrectable bool `json:"auto_correctable"`
}

// CorrectionMethod records how a correction value was produced.
type CorrectionMethod string

const (
	// MethodDeterministic marks corrections computed from fixed rules.
	MethodDeterministic CorrectionMethod = "deterministic"

	// MethodAIGenerated marks corrections drafted by the AI collaborator.
	MethodAIGenerated CorrectionMethod = "ai_generated"
)

// Correction records one applied fix. Corrections reference the finding
// they resolve via RuleID and are applied to a copy of the note's fields,
// never the original.
type Correction struct {
	RuleID   string           `json:"rule_id"`
	Field    string           `json:"field"`
	OldValue string           `json:"old_value"`
	NewValue string           `json:"new_value"`
	Method   CorrectionMethod `json:"method"`
}

// CorrectionFailure records a finding that could not be corrected
// (AI timeout, malformed response, empty roster). The finding remains
// in place and the note is reported as needing review.
type CorrectionFailure struct {
	RuleID string `json:"rule_id"`
	Reason string `json:"reason"`
}

// NoteStatus is the final per-file outcome status.
type NoteStatus string

const (
	// StatusCompliant means the note produced zero findings.
	StatusCompliant NoteStatus = "compliant"

	// StatusCorrected means every auto-correctable violation was corrected
	// and no non-correctable violations remain.
	StatusCorrected NoteStatus = "corrected"

	// StatusNeedsReview means at least one violation remains uncorrected,
	// or a correction failed.
	StatusNeedsReview NoteStatus = "needs_review"

	// StatusSkipped marks unknown-classified files routed to manual review.
	StatusSkipped NoteStatus = "skipped"

	// StatusFailed marks files whose text could not be extracted.
	StatusFailed NoteStatus = "failed"
)

// MDMAssessment summarizes the medical-decision-making check for a medical
// note. Medical notes receive recommendations only, never corrections.
type MDMAssessment struct {
	// CriteriaMet lists which of the three MDM elements were evidenced
	// ("problem_complexity", "data_complexity", "risk_level").
	CriteriaMet []string `json:"criteria_met"`

	// MeetsModerate is true when at least two of the three elements are met.
	MeetsModerate bool `json:"meets_moderate"`

	// Recommendations are documentation improvements for notes below
	// moderate MDM.
	Recommendations []string `json:"recommendations,omitempty"`
}

// NoteOutcome is the per-file record collected by the report aggregator.
type NoteOutcome struct {
	// Path is the original source path of the file.
	Path string `json:"path"`

	// FileName is the (possibly normalized) output file name.
	FileName string `json:"file_name"`

	// Classification is the classifier's label.
	Classification Classification `json:"classification"`

	// Credential is the detected provider credential, if any.
	Credential string `json:"credential,omitempty"`

	// Findings are the rule evaluation results, in rule declaration order.
	Findings []Finding `json:"findings,omitempty"`

	// Corrections are the applied fixes, in finding order.
	Corrections []Correction `json:"corrections,omitempty"`

	// CorrectionFailures are findings whose correction was attempted
	// but failed.
	CorrectionFailures []CorrectionFailure `json:"correction_failures,omitempty"`

	// CorrectedFields holds the post-correction field copy for corrected
	// notes, so a corrected document can be rendered downstream.
	CorrectedFields *ExtractedFields `json:"corrected_fields,omitempty"`

	// MDM is the medical-decision-making assessment for medical notes.
	MDM *MDMAssessment `json:"mdm,omitempty"`

	// Status is the derived final status.
	Status NoteStatus `json:"status"`

	// FailureReason explains Failed/Skipped statuses and naming conflicts.
	FailureReason string `json:"failure_reason,omitempty"`
}

// DeriveStatus computes the final status for a processed note:
//
//   - Compliant when there are zero findings
//   - NeedsReview when any non-correctable violation remains or any
//     correction failed
//   - Corrected when every auto-correctable violation has a matching
//     correction and nothing else blocks
//   - NeedsReview otherwise (warning/info findings that require a human)
//
// Skipped and Failed are assigned by the pipeline before rule evaluation
// and never pass through here.
func DeriveStatus(findings []Finding, corrections []Correction, failures []CorrectionFailure) NoteStatus {
	if len(findings) == 0 {
		return StatusCompliant
	}

	if len(failures) > 0 {
		return StatusNeedsReview
	}

	autoCorrectable := 0
	for _, f := range findings {
		if f.Severity != SeverityViolation {
			continue
		}
		if !f.AutoCorrectable {
			return StatusNeedsReview
		}
		autoCorrectable++
	}

	if autoCorrectable > 0 && len(corrections) >= autoCorrectable {
		return StatusCorrected
	}

	return StatusNeedsReview
}
