// Package noteparse extracts structured fields from raw therapy note text.
//
// The clinic's EHR emits notes in a fixed layout, so every field is parsed
// with anchored patterns rather than heuristics: encounter date, signature
// line, START/END times, CPT code, visit type, treatment goals, and the
// rendered-by/supervised-by block. Every field is optional; a miss is a
// compliance signal for the rule engine, never a parse error.
package noteparse

import (
	"regexp"
	"strings"
	"time"

	"noteaudit/core"
)

var (
	// "Electronically signed by Michelle Craig, LCSW at 07/08/2025 11:10 am"
	signaturePattern = regexp.MustCompile(
		`(?i)electronically signed by\s+([A-Za-z .'-]+?),?\s+([A-Z]{2,7})\s+(?:at|on)\s+(\d{2}/\d{2}/\d{4})`)

	// "DATE: 07/02/2025" in the encounter header, or "Service Date: ..."
	serviceDatePattern = regexp.MustCompile(
		`(?i)\b(?:service\s+date|date)\s*:?\s*(\d{2}/\d{2}/\d{4})`)

	startTimePattern = regexp.MustCompile(`(?i)START TIME\s*:?\s*(\d{1,2}):(\d{2})\s*([ap]m)`)
	endTimePattern   = regexp.MustCompile(`(?i)END TIME\s*:?\s*(\d{1,2}):(\d{2})\s*([ap]m)`)

	cptPattern = regexp.MustCompile(`(?i)CPT(?:\s+Code)?\s*:?\s*(9\d{4})`)

	renderedByPattern   = regexp.MustCompile(`(?i)rendered by\s*:\s*(.+)`)
	supervisedByPattern = regexp.MustCompile(`(?i)supervised by\s*:\s*(.+)`)

	// Goal headers: "Goal #1:", "Goal 1:", or a bare "Goal:", with an
	// optional quote-wrapped statement on the same line. The colon is
	// mandatory so a "GOALS:" section header or prose starting with "Goal"
	// never opens a block.
	goalHeaderPattern = regexp.MustCompile(`(?i)^\s*goal\s*(?:#?\s*\d+)?\s*:\s*(.*)$`)

	objectivePattern = regexp.MustCompile(`(?i)^\s*objective\s*:\s*(.*)$`)
	modalityPattern  = regexp.MustCompile(`(?i)^\s*tx modality\s*:\s*(.*)$`)
	progressPattern  = regexp.MustCompile(`(?i)^\s*progress\s*:\s*(.*)$`)

	// ICD-10 mental/behavioral codes with optional description on the line.
	diagnosisPattern = regexp.MustCompile(`(?m)^\s*(F\d{2}(?:\.\d{1,2})?\b.*)$`)
)

const dateLayout = "01/02/2006"

// Parse extracts all recognizable fields from raw note text.
func Parse(text string) *core.ExtractedFields {
	fields := &core.ExtractedFields{
		VisitType: detectVisitType(text),
	}

	if m := serviceDatePattern.FindStringSubmatch(text); m != nil {
		if d, err := time.Parse(dateLayout, m[1]); err == nil {
			fields.ServiceDate = &d
		}
	}

	if m := signaturePattern.FindStringSubmatch(text); m != nil {
		fields.Signer = strings.TrimSpace(m[1])
		fields.SignerCredential = m[2]
		if d, err := time.Parse(dateLayout, m[3]); err == nil {
			fields.SignedDate = &d
		}
	}

	if minutes, ok := sessionMinutes(text); ok {
		fields.SessionMinutes = &minutes
	}

	if m := cptPattern.FindStringSubmatch(text); m != nil {
		fields.CPTCode = m[1]
	}

	if m := renderedByPattern.FindStringSubmatch(text); m != nil {
		fields.RenderedBy = trimLine(m[1])
	}

	fields.Supervisor = pickSupervisor(text)
	fields.Goals = parseGoals(text)
	fields.Diagnoses = parseDiagnoses(text)

	return fields
}

// sessionMinutes computes the session duration from START TIME / END TIME.
// Sessions crossing midnight are not a thing in outpatient notes, but an
// end time earlier than the start (12-hour clock ambiguity) rolls forward
// by 12 hours once before giving up.
func sessionMinutes(text string) (int, bool) {
	sm := startTimePattern.FindStringSubmatch(text)
	em := endTimePattern.FindStringSubmatch(text)
	if sm == nil || em == nil {
		return 0, false
	}

	start := clockMinutes(sm[1], sm[2], sm[3])
	end := clockMinutes(em[1], em[2], em[3])
	if start < 0 || end < 0 {
		return 0, false
	}

	diff := end - start
	if diff < 0 {
		diff += 12 * 60
	}
	if diff <= 0 || diff > 12*60 {
		return 0, false
	}
	return diff, true
}

// clockMinutes converts a 12-hour clock reading to minutes since midnight.
// Returns -1 for out-of-range values.
func clockMinutes(hourStr, minStr, meridiem string) int {
	hour := atoi(hourStr)
	min := atoi(minStr)
	if hour < 1 || hour > 12 || min < 0 || min > 59 {
		return -1
	}
	hour = hour % 12
	if strings.EqualFold(meridiem, "pm") {
		hour += 12
	}
	return hour*60 + min
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return -1
		}
		n = n*10 + int(r-'0')
	}
	return n
}

func detectVisitType(text string) core.VisitType {
	upper := strings.ToUpper(text)
	switch {
	case strings.Contains(upper, "INITIAL VISIT"),
		strings.Contains(upper, "INITIAL EVALUATION"),
		strings.Contains(upper, "NEW PATIENT"):
		return core.VisitInitial
	case strings.Contains(upper, "FOLLOW-UP"), strings.Contains(upper, "FOLLOW UP"):
		return core.VisitFollowUp
	default:
		return core.VisitUnknown
	}
}

// pickSupervisor returns the qualifying "Supervised by:" line. When the
// note carries several supervision lines, the MD line wins; otherwise the
// last line is taken (the clinic places the final supervisor last).
func pickSupervisor(text string) string {
	matches := supervisedByPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return ""
	}

	for _, m := range matches {
		line := trimLine(m[1])
		if strings.HasSuffix(line, "MD") || strings.Contains(line, ", MD") {
			return line
		}
	}
	return trimLine(matches[len(matches)-1][1])
}

// parseGoals splits the goals section into Goal values. A goal block starts
// at a "Goal #N:" header and collects Objective / Tx Modality / Progress
// lines until the next header or a non-goal section.
func parseGoals(text string) []core.Goal {
	var goals []core.Goal
	var current *core.Goal

	flush := func() {
		if current != nil {
			goals = append(goals, *current)
			current = nil
		}
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		lower := strings.ToLower(trimmed)
		if strings.HasPrefix(lower, "goal") {
			if m := goalHeaderPattern.FindStringSubmatch(trimmed); m != nil {
				flush()
				current = &core.Goal{Statement: strings.Trim(trimLine(m[1]), `"`)}
				continue
			}
		}

		if current == nil {
			continue
		}

		switch {
		case objectivePattern.MatchString(trimmed):
			current.Objective = trimLine(objectivePattern.FindStringSubmatch(trimmed)[1])
		case modalityPattern.MatchString(trimmed):
			current.Modality = trimLine(modalityPattern.FindStringSubmatch(trimmed)[1])
		case progressPattern.MatchString(trimmed):
			current.Progress = trimLine(progressPattern.FindStringSubmatch(trimmed)[1])
		case isSectionBoundary(lower):
			flush()
		case current.Statement == "":
			// Statement continued on the line after the header.
			current.Statement = strings.Trim(trimmed, `"`)
		}
	}
	flush()

	return goals
}

// isSectionBoundary reports whether a line ends the goals section.
func isSectionBoundary(lower string) bool {
	for _, marker := range []string{
		"overall prognosis", "overall progress", "plan:", "diagnoses",
		"rendered by", "supervised by", "electronically signed",
	} {
		if strings.HasPrefix(lower, marker) {
			return true
		}
	}
	return false
}

// parseDiagnoses collects ICD-10 F-code lines as goal-drafting context.
func parseDiagnoses(text string) []string {
	matches := diagnosisPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	var out []string
	for _, m := range matches {
		line := trimLine(m[1])
		if _, dup := seen[line]; dup {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	return out
}

func trimLine(s string) string {
	return strings.TrimSpace(strings.TrimRight(s, "\r"))
}
