// Package classify labels extracted note text as therapy, medical, or
// unknown. Classification is a pure function of the text and the reference
// credential set: no I/O, no errors, absence of signal yields unknown.
package classify

import (
	"strings"

	"noteaudit/core"
)

// medicalHeaders are section headers that mark E&M-style medical notes.
var medicalHeaders = []string{
	"assessment and plan",
	"assessment/plan",
	"review of systems",
	"physical exam",
	"medical decision making",
	"hpi",
}

// therapyIndicators are phrases characteristic of psychotherapy notes.
// Three or more of these is a therapy signal even without a credential
// near the signature line.
var therapyIndicators = []string{
	"therapy type:",
	"tx modality:",
	"goal #",
	"psychotherapy",
	"mental status exam",
	"treatment goals",
}

// psychotherapyCPTCodes corroborate a credential match.
var psychotherapyCPTCodes = []string{
	"90791", "90832", "90834", "90837", "90847", "90853",
}

// Classifier labels note text using the reference credential set.
type Classifier struct {
	ref core.ReferenceTables
}

// New creates a Classifier backed by the given reference tables.
func New(ref core.ReferenceTables) *Classifier {
	return &Classifier{ref: ref}
}

// Classify labels the text and returns the detected provider credential,
// when one was found.
//
// Decision policy: a therapy credential near the signature area (or three
// or more therapy indicator phrases) with no dominating medical header
// yields therapy; a medical header with no credential yields medical; both
// or neither yields unknown, which routes the note to manual review.
func (c *Classifier) Classify(text string) (core.Classification, string) {
	lower := strings.ToLower(text)

	credential, hasCredential := c.detectCredential(text, lower)
	therapySignal := hasCredential && c.corroborated(text)
	if !therapySignal {
		therapySignal = c.indicatorScore(lower) >= 3
		if therapySignal && credential == "" {
			// Indicator-only match: pick up a credential anywhere in the text.
			credential, _ = c.credentialAnywhere(text)
		}
	}

	medicalSignal := hasMedicalHeader(lower)

	switch {
	case therapySignal && !medicalSignal:
		return core.ClassTherapy, credential
	case medicalSignal && !hasCredential:
		return core.ClassMedical, ""
	default:
		return core.ClassUnknown, credential
	}
}

// detectCredential looks for a therapy credential within two lines of a
// "signed by" marker, the strongest placement signal. Falls back to an
// anywhere-in-text scan when no signature marker exists.
func (c *Classifier) detectCredential(text, lower string) (string, bool) {
	idx := strings.Index(lower, "signed by")
	if idx < 0 {
		return c.credentialAnywhere(text)
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if !strings.Contains(strings.ToLower(line), "signed by") {
			continue
		}
		end := i + 3
		if end > len(lines) {
			end = len(lines)
		}
		area := strings.Join(lines[i:end], " ")
		for _, cred := range c.ref.TherapyCredentials {
			if containsToken(area, cred) {
				return cred, true
			}
		}
	}
	return "", false
}

// credentialAnywhere scans the whole text for a therapy credential token.
func (c *Classifier) credentialAnywhere(text string) (string, bool) {
	for _, cred := range c.ref.TherapyCredentials {
		if containsToken(text, cred) {
			return cred, true
		}
	}
	return "", false
}

// corroborated reports whether the text carries a psychotherapy CPT code
// or a START/END time pair, backing up a credential match.
func (c *Classifier) corroborated(text string) bool {
	for _, code := range psychotherapyCPTCodes {
		if strings.Contains(text, code) {
			return true
		}
	}
	return strings.Contains(text, "START TIME:") && strings.Contains(text, "END TIME:")
}

// indicatorScore counts distinct therapy indicator phrases in the text.
func (c *Classifier) indicatorScore(lower string) int {
	score := 0
	for _, ind := range therapyIndicators {
		if strings.Contains(lower, ind) {
			score++
		}
	}
	return score
}

func hasMedicalHeader(lower string) bool {
	for _, h := range medicalHeaders {
		if h == "hpi" {
			// HPI is short enough to collide inside words; require it as
			// a standalone header token.
			if containsToken(lower, "hpi:") || containsToken(lower, "hpi") {
				return true
			}
			continue
		}
		if strings.Contains(lower, h) {
			return true
		}
	}
	return false
}

// containsToken reports whether token appears in text bounded by
// non-alphanumeric characters, so "LPC" does not match inside "LPCC".
func containsToken(text, token string) bool {
	for start := 0; ; {
		idx := strings.Index(text[start:], token)
		if idx < 0 {
			return false
		}
		idx += start
		before := idx - 1
		after := idx + len(token)
		leftOK := before < 0 || !isWordChar(text[before])
		rightOK := after >= len(text) || !isWordChar(text[after])
		if leftOK && rightOK {
			return true
		}
		start = idx + 1
	}
}

func isWordChar(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}
