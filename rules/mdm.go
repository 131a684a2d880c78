package rules

import (
	"fmt"
	"strings"

	"noteaudit/core"
)

// MDM rule ID. Medical notes receive findings and recommendations only;
// the correction engine never touches medical documentation.
const RuleMDMModerate = "medical.mdm_moderate"

// The three MDM elements. Moderate MDM requires evidence of at least two.
const (
	mdmProblems = "problem_complexity"
	mdmData     = "data_complexity"
	mdmRisk     = "risk_level"
)

// mdmMarkers maps each MDM element to the documentation phrases that
// evidence it, per the E&M moderate-complexity rubric.
var mdmMarkers = map[string][]string{
	mdmProblems: {
		"chronic illness", "chronic illnesses", "chronic condition",
		"exacerbation", "progression", "uncertain prognosis",
		"acute illness", "systemic symptoms", "complicated injury",
		"new problem",
	},
	mdmData: {
		"reviewed prior", "review of prior", "external notes", "ordered labs",
		"lab results", "imaging", "independent historian",
		"independent interpretation", "discussed with", "test results",
	},
	mdmRisk: {
		"prescription", "medication management", "drug management",
		"risk factors", "elective major surgery", "minor surgery",
		"social determinants",
	},
}

// mdmRecommendations are documentation improvements suggested per missing
// element, matching the auditor guidance the clinic uses.
var mdmRecommendations = map[string]string{
	mdmProblems: "Document the number and complexity of problems addressed (chronic illness progression, new problems with uncertain prognosis, or acute systemic illness).",
	mdmData:     "Document data reviewed or ordered: prior external notes, lab or imaging orders, independent interpretation, or discussion with an external provider.",
	mdmRisk:     "Document the risk of complications: prescription drug management, surgical decisions, or social determinants limiting treatment.",
}

// EvaluateMDM checks a medical note's text against the moderate MDM
// criteria and returns findings plus the assessment for the report. The
// returned findings never mark anything auto-correctable.
func (e *Engine) EvaluateMDM(text string) ([]core.Finding, *core.MDMAssessment) {
	lower := strings.ToLower(text)

	assessment := &core.MDMAssessment{}
	for _, element := range []string{mdmProblems, mdmData, mdmRisk} {
		if anyMarker(lower, mdmMarkers[element]) {
			assessment.CriteriaMet = append(assessment.CriteriaMet, element)
		} else {
			assessment.Recommendations = append(assessment.Recommendations, mdmRecommendations[element])
		}
	}

	assessment.MeetsModerate = len(assessment.CriteriaMet) >= 2
	if assessment.MeetsModerate {
		return nil, assessment
	}

	finding := core.Finding{
		RuleID:   RuleMDMModerate,
		Severity: core.SeverityViolation,
		Description: fmt.Sprintf(
			"documentation evidences %d of 3 MDM elements; moderate MDM requires 2",
			len(assessment.CriteriaMet)),
	}
	return []core.Finding{finding}, assessment
}

func anyMarker(lower string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}
