// Package correct applies deterministic and AI-drafted corrections to
// therapy note findings. Corrections always go to a copy of the extracted
// fields; the original fields and the source PDF bytes are never touched.
// Rendering a corrected document from the corrected fields is the caller's
// concern.
package correct

import (
	"context"
	"errors"
	"fmt"
	"time"

	"noteaudit/core"
	"noteaudit/rules"
)

// GoalGenerator is the capability interface for the AI text-generation
// collaborator that drafts missing treatment goals. Implementations must
// honor the context deadline.
type GoalGenerator interface {
	// GenerateGoals drafts req.Needed well-formed goals from the session
	// context. It returns core.ErrGenerationTimeout when the deadline is
	// exceeded and core.ErrGenerationFailed for malformed responses.
	GenerateGoals(ctx context.Context, req GoalRequest) ([]core.Goal, error)
}

// GoalRequest carries the bounded session context for goal drafting.
type GoalRequest struct {
	// Needed is the number of additional goals to draft.
	Needed int

	// Diagnoses are the diagnosis lines from the note.
	Diagnoses []string

	// ExistingGoals are the goals already on the note; drafted goals must
	// address different issues.
	ExistingGoals []core.Goal

	// NoteExcerpt is a truncated slice of the note body for context.
	NoteExcerpt string
}

// signingOffsetDays is where a corrected signing date lands inside the
// 4-6 day window.
const signingOffsetDays = 5

// maxExcerptChars bounds the note text forwarded to the goal generator.
const maxExcerptChars = 2000

// Result is the outcome of one correction pass.
type Result struct {
	// Fields is the corrected copy. The input fields are never mutated.
	Fields *core.ExtractedFields

	// Corrections are the applied fixes, in finding order.
	Corrections []core.Correction

	// Failures are findings whose correction was attempted but failed.
	Failures []core.CorrectionFailure
}

// Engine applies corrections to findings marked auto-correctable.
type Engine struct {
	ref     core.ReferenceTables
	gen     GoalGenerator
	timeout time.Duration
}

// NewEngine creates a correction engine. gen may be nil, in which case
// goal-count corrections are reported as failures instead of drafted.
func NewEngine(ref core.ReferenceTables, gen GoalGenerator, timeout time.Duration) *Engine {
	return &Engine{ref: ref, gen: gen, timeout: timeout}
}

// Correct applies a fix for every auto-correctable finding, in finding
// order. Evaluation and correction happen in one pass: corrections are not
// retroactively invalidated by anything discovered later. noteText is the
// raw note body, forwarded (truncated) to the goal generator as context.
func (e *Engine) Correct(ctx context.Context, fields *core.ExtractedFields, findings []core.Finding, noteText string) Result {
	result := Result{Fields: fields.Clone()}

	for _, finding := range findings {
		if !finding.AutoCorrectable {
			continue
		}

		var (
			correction core.Correction
			err        error
		)

		switch finding.RuleID {
		case rules.RuleDateWindow:
			correction, err = e.correctSigningDate(result.Fields)
		case rules.RuleCPTDuration:
			correction, err = e.correctCPTCode(result.Fields)
		case rules.RuleGoalCount:
			correction, err = e.correctGoalCount(ctx, result.Fields, noteText)
		case rules.RuleRenderedBy:
			correction, err = e.correctRenderedBy(result.Fields)
		case rules.RuleSupervision:
			correction, err = e.correctSupervisor(result.Fields)
		default:
			err = fmt.Errorf("no correction handler for rule %s", finding.RuleID)
		}

		if err != nil {
			result.Failures = append(result.Failures, core.CorrectionFailure{
				RuleID: finding.RuleID,
				Reason: err.Error(),
			})
			continue
		}

		correction.RuleID = finding.RuleID
		result.Corrections = append(result.Corrections, correction)
	}

	return result
}

// correctSigningDate resets the signing date to service + 5 days, the
// midpoint of the accepted window. Negative deltas (signed before service)
// get the same treatment.
func (e *Engine) correctSigningDate(fields *core.ExtractedFields) (core.Correction, error) {
	if fields.ServiceDate == nil {
		return core.Correction{}, errors.New("service date unavailable; cannot compute signing date")
	}

	oldValue := ""
	if fields.SignedDate != nil {
		oldValue = fields.SignedDate.Format("01/02/2006")
	}

	corrected := fields.ServiceDate.AddDate(0, 0, signingOffsetDays)
	fields.SignedDate = &corrected

	return core.Correction{
		Field:    "signed_date",
		OldValue: oldValue,
		NewValue: corrected.Format("01/02/2006"),
		Method:   core.MethodDeterministic,
	}, nil
}

// correctCPTCode replaces the code with the one whose band contains the
// session duration.
func (e *Engine) correctCPTCode(fields *core.ExtractedFields) (core.Correction, error) {
	if fields.SessionMinutes == nil {
		return core.Correction{}, errors.New("session duration unavailable; cannot select CPT code")
	}

	code, ok := e.ref.CodeForDuration(*fields.SessionMinutes)
	if !ok {
		return core.Correction{}, fmt.Errorf("%d-minute session falls outside every CPT band", *fields.SessionMinutes)
	}

	oldValue := fields.CPTCode
	fields.CPTCode = code

	return core.Correction{
		Field:    "cpt_code",
		OldValue: oldValue,
		NewValue: code,
		Method:   core.MethodDeterministic,
	}, nil
}

// correctGoalCount asks the AI collaborator to draft the missing goals.
// The call is bounded by the engine timeout; a timeout or malformed
// response leaves the finding uncorrected and reported as a failure.
func (e *Engine) correctGoalCount(ctx context.Context, fields *core.ExtractedFields, noteText string) (core.Correction, error) {
	needed := rules.MinGoals - len(fields.Goals)
	if needed <= 0 {
		return core.Correction{}, errors.New("goal count already satisfied")
	}
	if e.gen == nil {
		return core.Correction{}, core.ErrGenerationFailed
	}

	genCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	goals, err := e.gen.GenerateGoals(genCtx, GoalRequest{
		Needed:        needed,
		Diagnoses:     fields.Diagnoses,
		ExistingGoals: fields.Goals,
		NoteExcerpt:   excerptOf(noteText),
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return core.Correction{}, core.ErrGenerationTimeout
		}
		return core.Correction{}, err
	}

	if len(goals) < needed {
		return core.Correction{}, fmt.Errorf("%w: drafted %d goals, needed %d",
			core.ErrGenerationFailed, len(goals), needed)
	}
	for _, g := range goals {
		if !g.WellFormed() {
			return core.Correction{}, fmt.Errorf("%w: drafted goal is not well-formed",
				core.ErrGenerationFailed)
		}
	}

	oldCount := len(fields.Goals)
	fields.Goals = append(fields.Goals, goals[:needed]...)

	return core.Correction{
		Field:    "goals",
		OldValue: fmt.Sprintf("%d goals", oldCount),
		NewValue: fmt.Sprintf("%d goals", len(fields.Goals)),
		Method:   core.MethodAIGenerated,
	}, nil
}

// excerptOf truncates the note body to the prompt context budget.
func excerptOf(text string) string {
	if len(text) <= maxExcerptChars {
		return text
	}
	return text[:maxExcerptChars]
}

// correctRenderedBy rewrites the rendered-by line to the signer's name and
// credentials.
func (e *Engine) correctRenderedBy(fields *core.ExtractedFields) (core.Correction, error) {
	if fields.Signer == "" {
		return core.Correction{}, errors.New("signer unavailable; cannot rewrite rendered-by line")
	}

	oldValue := fields.RenderedBy
	newValue := fields.Signer
	if fields.SignerCredential != "" {
		newValue = fmt.Sprintf("%s, %s", fields.Signer, fields.SignerCredential)
	}
	fields.RenderedBy = newValue

	return core.Correction{
		Field:    "rendered_by",
		OldValue: oldValue,
		NewValue: newValue,
		Method:   core.MethodDeterministic,
	}, nil
}

// correctSupervisor fills the supervisor from the clinic roster.
func (e *Engine) correctSupervisor(fields *core.ExtractedFields) (core.Correction, error) {
	supervisor, ok := e.ref.InferSupervisor()
	if !ok {
		return core.Correction{}, errors.New("clinic roster has no qualifying supervisor")
	}

	oldValue := fields.Supervisor
	newValue := fmt.Sprintf("%s, %s", supervisor.Name, supervisor.Credential)
	fields.Supervisor = newValue

	return core.Correction{
		Field:    "supervisor",
		OldValue: oldValue,
		NewValue: newValue,
		Method:   core.MethodDeterministic,
	}, nil
}
