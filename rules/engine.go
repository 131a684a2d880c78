// Package rules evaluates classified notes against the compliance rule set.
//
// Therapy notes run through four rules (date window, CPT/duration, goal
// completeness, supervision hierarchy); medical notes run through the
// smaller MDM set in mdm.go. Rules are pure predicates over the extracted
// fields and the injected reference tables, and findings come back in rule
// declaration order so report assertions stay deterministic.
package rules

import (
	"fmt"
	"strings"

	"noteaudit/core"
)

// Rule IDs, in declaration order. Findings are emitted in this order
// regardless of which field was parsed first.
const (
	RuleDateWindow  = "therapy.date_window"
	RuleCPTDuration = "therapy.cpt_duration"
	RuleGoalCount   = "therapy.goal_count"
	RuleGoalForm    = "therapy.goal_form"
	RuleRenderedBy  = "therapy.rendered_by"
	RuleSupervision = "therapy.supervision"
)

// Signing window bounds, in days after the service date.
const (
	MinSigningDays = 4
	MaxSigningDays = 6
)

// MinGoals is the required number of documented treatment goals.
const MinGoals = 2

// Engine evaluates therapy notes against the compliance rules.
type Engine struct {
	ref core.ReferenceTables
}

// NewEngine creates a rule engine backed by the given reference tables.
func NewEngine(ref core.ReferenceTables) *Engine {
	return &Engine{ref: ref}
}

// Evaluate runs every therapy rule against the fields, once per note.
// Rules are independent; each contributes zero or more findings.
func (e *Engine) Evaluate(fields *core.ExtractedFields) []core.Finding {
	var findings []core.Finding
	findings = append(findings, e.checkDateWindow(fields)...)
	findings = append(findings, e.checkCPTDuration(fields)...)
	findings = append(findings, e.checkGoals(fields)...)
	findings = append(findings, e.checkSupervision(fields)...)
	return findings
}

// checkDateWindow verifies the note was signed 4-6 days after the service
// date. Anything outside the band, including signing before service, is a
// correctable violation (corrected to service + 5 days).
func (e *Engine) checkDateWindow(fields *core.ExtractedFields) []core.Finding {
	if fields.ServiceDate == nil {
		return []core.Finding{{
			RuleID:      RuleDateWindow,
			Severity:    core.SeverityWarning,
			Description: "service date not found on note; signing window cannot be verified",
		}}
	}

	if fields.SignedDate == nil {
		return []core.Finding{{
			RuleID:          RuleDateWindow,
			Severity:        core.SeverityViolation,
			Description:     "signing date not found on note",
			AutoCorrectable: true,
		}}
	}

	days := int(fields.SignedDate.Sub(*fields.ServiceDate).Hours() / 24)
	if days >= MinSigningDays && days <= MaxSigningDays {
		return nil
	}

	return []core.Finding{{
		RuleID:   RuleDateWindow,
		Severity: core.SeverityViolation,
		Description: fmt.Sprintf(
			"note signed %d days after service; must be within %d-%d days",
			days, MinSigningDays, MaxSigningDays),
		AutoCorrectable: true,
	}}
}

// checkCPTDuration verifies the CPT code matches the session duration per
// the band table. Exempt codes (intake, family, group) skip the duration
// match, except that a follow-up visit must never carry the intake code.
func (e *Engine) checkCPTDuration(fields *core.ExtractedFields) []core.Finding {
	code := fields.CPTCode

	if code == "" {
		correctable := fields.SessionMinutes != nil && e.bandExists(*fields.SessionMinutes)
		return []core.Finding{{
			RuleID:          RuleCPTDuration,
			Severity:        core.SeverityViolation,
			Description:     "no CPT code found on note",
			AutoCorrectable: correctable,
		}}
	}

	if !e.ref.IsKnownCode(code) {
		return []core.Finding{{
			RuleID:      RuleCPTDuration,
			Severity:    core.SeverityWarning,
			Description: fmt.Sprintf("unrecognized CPT code %s", code),
		}}
	}

	if e.ref.IsExemptCode(code) {
		// 90791 is intake-only. A follow-up carrying it is miscoded; the
		// duration decides whether the fix is mechanical.
		if code == "90791" && fields.VisitType == core.VisitFollowUp {
			correctable := fields.SessionMinutes != nil && e.bandExists(*fields.SessionMinutes)
			return []core.Finding{{
				RuleID:          RuleCPTDuration,
				Severity:        core.SeverityViolation,
				Description:     "follow-up visit billed with intake code 90791",
				AutoCorrectable: correctable,
			}}
		}
		return nil
	}

	band, _ := e.ref.BandForCode(code)

	if fields.SessionMinutes == nil {
		return []core.Finding{{
			RuleID:      RuleCPTDuration,
			Severity:    core.SeverityWarning,
			Description: fmt.Sprintf("session times not found; cannot verify CPT %s", code),
		}}
	}

	minutes := *fields.SessionMinutes
	if band.Contains(minutes) {
		return nil
	}

	// Correctable only when the duration lands in some declared band;
	// otherwise intent cannot be guessed.
	return []core.Finding{{
		RuleID:   RuleCPTDuration,
		Severity: core.SeverityViolation,
		Description: fmt.Sprintf(
			"CPT %s does not match %d-minute session", code, minutes),
		AutoCorrectable: e.bandExists(minutes),
	}}
}

func (e *Engine) bandExists(minutes int) bool {
	_, ok := e.ref.CodeForDuration(minutes)
	return ok
}

// checkGoals requires at least MinGoals documented goals, each with all
// four sub-fields. A short goal count is correctable (AI drafts the
// missing goals); malformed goals that are present require a human and
// are never rewritten.
func (e *Engine) checkGoals(fields *core.ExtractedFields) []core.Finding {
	var findings []core.Finding

	if len(fields.Goals) < MinGoals {
		findings = append(findings, core.Finding{
			RuleID:   RuleGoalCount,
			Severity: core.SeverityViolation,
			Description: fmt.Sprintf(
				"%d treatment goals documented; %d required", len(fields.Goals), MinGoals),
			AutoCorrectable: true,
		})
	}

	for i, g := range fields.Goals {
		if g.WellFormed() {
			continue
		}
		findings = append(findings, core.Finding{
			RuleID:   RuleGoalForm,
			Severity: core.SeverityViolation,
			Description: fmt.Sprintf(
				"goal %d is missing one or more of statement, objective, modality, progress", i+1),
		})
	}

	return findings
}

// checkSupervision verifies the rendered-by line matches the signer and
// that associate-level providers carry a qualifying supervisor. A signer
// credential outside the therapy credential set gets an info-level
// licensure flag instead of the supervision checks. A missing
// supervisor is correctable when the roster can supply one; with an empty
// roster it degrades to an info-level manual flag.
func (e *Engine) checkSupervision(fields *core.ExtractedFields) []core.Finding {
	var findings []core.Finding

	if fields.Signer != "" && fields.RenderedBy != "" && !renderedByMatchesSigner(fields) {
		findings = append(findings, core.Finding{
			RuleID:   RuleRenderedBy,
			Severity: core.SeverityViolation,
			Description: fmt.Sprintf(
				"rendered-by line %q does not match signer %s, %s",
				fields.RenderedBy, fields.Signer, fields.SignerCredential),
			AutoCorrectable: true,
		})
	}

	credential := fields.SignerCredential
	if credential == "" {
		return findings
	}

	if !e.ref.IsTherapyCredential(credential) {
		findings = append(findings, core.Finding{
			RuleID:   RuleSupervision,
			Severity: core.SeverityInfo,
			Description: fmt.Sprintf(
				"signer credential %s is not a recognized therapy credential; verify licensure", credential),
		})
		return findings
	}

	if !e.ref.IsAssociateCredential(credential) {
		return findings
	}

	if fields.Supervisor != "" && qualifiesAsSupervisorLine(fields.Supervisor, e.ref) {
		return findings
	}

	if _, ok := e.ref.InferSupervisor(); ok {
		findings = append(findings, core.Finding{
			RuleID:   RuleSupervision,
			Severity: core.SeverityViolation,
			Description: fmt.Sprintf(
				"associate-level credential %s requires a qualifying supervisor", credential),
			AutoCorrectable: true,
		})
	} else {
		findings = append(findings, core.Finding{
			RuleID:   RuleSupervision,
			Severity: core.SeverityInfo,
			Description: fmt.Sprintf(
				"associate-level credential %s has no qualifying supervisor and the roster has no candidate; flag for manual assignment",
				credential),
		})
	}

	return findings
}

// renderedByMatchesSigner reports whether the rendered-by line names the
// signer. The clinic writes "Name, CRED" so a substring match on the name
// is sufficient.
func renderedByMatchesSigner(fields *core.ExtractedFields) bool {
	return containsFold(fields.RenderedBy, fields.Signer)
}

// qualifiesAsSupervisorLine reports whether a supervised-by line names an
// MD or a roster clinician with supervisory privileges.
func qualifiesAsSupervisorLine(line string, ref core.ReferenceTables) bool {
	if containsFold(line, ", MD") || hasSuffixFold(line, " MD") {
		return true
	}
	for _, c := range ref.Roster {
		if c.QualifiesAsSupervisor() && containsFold(line, c.Name) {
			return true
		}
	}
	return false
}

func containsFold(haystack, needle string) bool {
	if needle == "" {
		return false
	}
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func hasSuffixFold(s, suffix string) bool {
	return strings.HasSuffix(strings.ToLower(s), strings.ToLower(suffix))
}
