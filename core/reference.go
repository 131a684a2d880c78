package core

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// CPTBand maps a psychotherapy CPT code to its session duration band.
// MaxMinutes of 0 means open-ended (53+ minutes for 90837).
type CPTBand struct {
	Code       string `yaml:"code"`
	MinMinutes int    `yaml:"min_minutes"`
	MaxMinutes int    `yaml:"max_minutes"`
}

// Contains reports whether the duration falls inside this band.
func (b CPTBand) Contains(minutes int) bool {
	if minutes < b.MinMinutes {
		return false
	}
	return b.MaxMinutes == 0 || minutes <= b.MaxMinutes
}

// Clinician is one entry in the clinic roster.
type Clinician struct {
	Name       string `yaml:"name"`
	Credential string `yaml:"credential"`

	// Supervises marks clinicians qualified to supervise associate-level
	// providers. MDs always qualify regardless of this flag.
	Supervises bool `yaml:"supervises"`
}

// QualifiesAsSupervisor reports whether this clinician can supervise an
// associate-level provider.
func (c Clinician) QualifiesAsSupervisor() bool {
	return c.Supervises || strings.EqualFold(c.Credential, "MD")
}

// ReferenceTables is the immutable read-only reference data shared across
// the run: the CPT duration band table, the credential sets, and the clinic
// roster. It is constructed once at startup and passed explicitly into the
// rule and correction engines, never held as ambient global state.
type ReferenceTables struct {
	// CPTBands is the duration band table for duration-dependent codes.
	CPTBands []CPTBand `yaml:"cpt_bands"`

	// ExemptCPTCodes are duration-independent codes (intake, family, group).
	ExemptCPTCodes []string `yaml:"exempt_cpt_codes"`

	// TherapyCredentials are licensure abbreviations identifying therapy
	// providers.
	TherapyCredentials []string `yaml:"therapy_credentials"`

	// AssociateCredentials are supervised/associate-level credentials that
	// require a qualifying supervisor on the note.
	AssociateCredentials []string `yaml:"associate_credentials"`

	// Roster is the clinic roster used to infer missing supervisors.
	Roster []Clinician `yaml:"roster"`
}

// DefaultReferenceTables returns the built-in reference data.
func DefaultReferenceTables() ReferenceTables {
	return ReferenceTables{
		CPTBands: []CPTBand{
			{Code: "90832", MinMinutes: 16, MaxMinutes: 37},
			{Code: "90834", MinMinutes: 38, MaxMinutes: 52},
			{Code: "90837", MinMinutes: 53, MaxMinutes: 0},
		},
		ExemptCPTCodes: []string{"90791", "90847", "90853"},
		TherapyCredentials: []string{
			"LCSW", "LPCC", "LPCA", "LPC", "LCADC", "LCADCA", "LMFT", "LMHC",
		},
		AssociateCredentials: []string{"LPCA", "LCADCA"},
		Roster:               nil,
	}
}

// LoadReferenceTables loads reference data from a YAML file, falling back to
// the built-in tables for any section the file omits. An empty path returns
// the defaults unchanged.
func LoadReferenceTables(path string) (ReferenceTables, error) {
	tables := DefaultReferenceTables()
	if path == "" {
		return tables, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return tables, fmt.Errorf("failed to read reference file: %w", err)
	}

	var override ReferenceTables
	if err := yaml.Unmarshal(data, &override); err != nil {
		return tables, fmt.Errorf("failed to parse reference file: %w", err)
	}

	if len(override.CPTBands) > 0 {
		tables.CPTBands = override.CPTBands
	}
	if len(override.ExemptCPTCodes) > 0 {
		tables.ExemptCPTCodes = override.ExemptCPTCodes
	}
	if len(override.TherapyCredentials) > 0 {
		tables.TherapyCredentials = override.TherapyCredentials
	}
	if len(override.AssociateCredentials) > 0 {
		tables.AssociateCredentials = override.AssociateCredentials
	}
	if len(override.Roster) > 0 {
		tables.Roster = override.Roster
	}

	return tables, nil
}

// BandForCode returns the duration band declared for a CPT code.
func (t ReferenceTables) BandForCode(code string) (CPTBand, bool) {
	for _, b := range t.CPTBands {
		if b.Code == code {
			return b, true
		}
	}
	return CPTBand{}, false
}

// CodeForDuration returns the CPT code whose band contains the duration.
// Returns false when the duration falls outside every declared band.
func (t ReferenceTables) CodeForDuration(minutes int) (string, bool) {
	for _, b := range t.CPTBands {
		if b.Contains(minutes) {
			return b.Code, true
		}
	}
	return "", false
}

// IsExemptCode reports whether a CPT code is duration-independent.
func (t ReferenceTables) IsExemptCode(code string) bool {
	for _, c := range t.ExemptCPTCodes {
		if c == code {
			return true
		}
	}
	return false
}

// IsKnownCode reports whether a CPT code appears in the band table or the
// exempt set.
func (t ReferenceTables) IsKnownCode(code string) bool {
	if t.IsExemptCode(code) {
		return true
	}
	_, ok := t.BandForCode(code)
	return ok
}

// IsTherapyCredential reports whether the credential identifies a therapy
// provider.
func (t ReferenceTables) IsTherapyCredential(credential string) bool {
	for _, c := range t.TherapyCredentials {
		if strings.EqualFold(c, credential) {
			return true
		}
	}
	return false
}

// IsAssociateCredential reports whether the credential is a supervised
// associate-level credential.
func (t ReferenceTables) IsAssociateCredential(credential string) bool {
	for _, c := range t.AssociateCredentials {
		if strings.EqualFold(c, credential) {
			return true
		}
	}
	return false
}

// InferSupervisor returns the first roster clinician qualified to supervise
// associate-level providers. Returns false when the roster has none, in
// which case the supervision gap becomes a manual flag.
func (t ReferenceTables) InferSupervisor() (Clinician, bool) {
	for _, c := range t.Roster {
		if c.QualifiesAsSupervisor() {
			return c, true
		}
	}
	return Clinician{}, false
}
