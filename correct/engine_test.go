package correct

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"noteaudit/core"
	"noteaudit/rules"
)

// stubGenerator is a canned GoalGenerator for tests.
type stubGenerator struct {
	goals []core.Goal
	err   error

	// block makes GenerateGoals wait for the context, simulating a slow
	// collaborator.
	block bool

	gotRequest GoalRequest
}

func (s *stubGenerator) GenerateGoals(ctx context.Context, req GoalRequest) ([]core.Goal, error) {
	s.gotRequest = req
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.goals, nil
}

func wellFormedGoal(statement string) core.Goal {
	return core.Goal{
		Statement: statement,
		Objective: "Practice the skill 3x weekly",
		Modality:  "CBT",
		Progress:  "Not yet started",
	}
}

func date(y, m, d int) *time.Time {
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	return &t
}

func minutes(m int) *int { return &m }

func baseFields() *core.ExtractedFields {
	return &core.ExtractedFields{
		ServiceDate:      date(2025, 7, 2),
		SignedDate:       date(2025, 7, 10),
		SessionMinutes:   minutes(45),
		CPTCode:          "90837",
		Signer:           "Michelle Craig",
		SignerCredential: "LCSW",
		RenderedBy:       "Someone Else, LPCC",
		Diagnoses:        []string{"F41.1 Generalized anxiety disorder"},
		Goals:            []core.Goal{wellFormedGoal("I want to reduce my anxiety")},
	}
}

func finding(ruleID string) core.Finding {
	return core.Finding{RuleID: ruleID, Severity: core.SeverityViolation, AutoCorrectable: true}
}

func TestCorrectSigningDate(t *testing.T) {
	engine := NewEngine(core.DefaultReferenceTables(), nil, time.Second)
	fields := baseFields()

	result := engine.Correct(context.Background(), fields, []core.Finding{finding(rules.RuleDateWindow)}, "")

	if len(result.Failures) != 0 {
		t.Fatalf("Failures = %+v, want none", result.Failures)
	}
	if len(result.Corrections) != 1 {
		t.Fatalf("Corrections = %d, want 1", len(result.Corrections))
	}

	c := result.Corrections[0]
	if c.Field != "signed_date" || c.Method != core.MethodDeterministic {
		t.Errorf("correction = %+v", c)
	}
	if c.NewValue != "07/07/2025" {
		t.Errorf("NewValue = %q, want 07/07/2025", c.NewValue)
	}

	want := time.Date(2025, 7, 7, 0, 0, 0, 0, time.UTC)
	if !result.Fields.SignedDate.Equal(want) {
		t.Errorf("corrected SignedDate = %v, want %v", result.Fields.SignedDate, want)
	}
	// Input fields stay untouched.
	if !fields.SignedDate.Equal(time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("input SignedDate mutated: %v", fields.SignedDate)
	}
}

func TestCorrectSigningDateWithoutServiceDate(t *testing.T) {
	engine := NewEngine(core.DefaultReferenceTables(), nil, time.Second)
	fields := baseFields()
	fields.ServiceDate = nil

	result := engine.Correct(context.Background(), fields, []core.Finding{finding(rules.RuleDateWindow)}, "")
	if len(result.Failures) != 1 || result.Failures[0].RuleID != rules.RuleDateWindow {
		t.Errorf("Failures = %+v, want one date window failure", result.Failures)
	}
}

func TestCorrectCPTCode(t *testing.T) {
	engine := NewEngine(core.DefaultReferenceTables(), nil, time.Second)
	fields := baseFields() // 90837 on a 45-minute session

	result := engine.Correct(context.Background(), fields, []core.Finding{finding(rules.RuleCPTDuration)}, "")

	if len(result.Corrections) != 1 {
		t.Fatalf("Corrections = %+v, want 1", result.Corrections)
	}
	c := result.Corrections[0]
	if c.OldValue != "90837" || c.NewValue != "90834" {
		t.Errorf("correction = %+v, want 90837 -> 90834", c)
	}
	if result.Fields.CPTCode != "90834" {
		t.Errorf("corrected CPTCode = %q", result.Fields.CPTCode)
	}
	if fields.CPTCode != "90837" {
		t.Errorf("input CPTCode mutated: %q", fields.CPTCode)
	}
}

func TestCorrectCPTCodeOutsideBands(t *testing.T) {
	engine := NewEngine(core.DefaultReferenceTables(), nil, time.Second)
	fields := baseFields()
	fields.SessionMinutes = minutes(10)

	result := engine.Correct(context.Background(), fields, []core.Finding{finding(rules.RuleCPTDuration)}, "")
	if len(result.Failures) != 1 {
		t.Errorf("Failures = %+v, want 1", result.Failures)
	}
}

func TestCorrectGoalCount(t *testing.T) {
	gen := &stubGenerator{goals: []core.Goal{wellFormedGoal("I want to sleep through the night")}}
	engine := NewEngine(core.DefaultReferenceTables(), gen, time.Second)
	fields := baseFields()

	noteText := "Client presented with ongoing worry about work and sleep."
	result := engine.Correct(context.Background(), fields, []core.Finding{finding(rules.RuleGoalCount)}, noteText)

	if len(result.Failures) != 0 {
		t.Fatalf("Failures = %+v, want none", result.Failures)
	}
	if len(result.Corrections) != 1 {
		t.Fatalf("Corrections = %d, want 1", len(result.Corrections))
	}
	if result.Corrections[0].Method != core.MethodAIGenerated {
		t.Errorf("Method = %v, want ai_generated", result.Corrections[0].Method)
	}
	if len(result.Fields.Goals) != 2 {
		t.Errorf("corrected Goals = %d, want 2", len(result.Fields.Goals))
	}
	if len(fields.Goals) != 1 {
		t.Errorf("input Goals mutated: %d", len(fields.Goals))
	}

	if gen.gotRequest.Needed != 1 {
		t.Errorf("request Needed = %d, want 1", gen.gotRequest.Needed)
	}
	if len(gen.gotRequest.Diagnoses) != 1 || len(gen.gotRequest.ExistingGoals) != 1 {
		t.Errorf("request context = %+v", gen.gotRequest)
	}
	if gen.gotRequest.NoteExcerpt != noteText {
		t.Errorf("request NoteExcerpt = %q, want note body", gen.gotRequest.NoteExcerpt)
	}
}

func TestCorrectGoalCountTruncatesExcerpt(t *testing.T) {
	gen := &stubGenerator{goals: []core.Goal{wellFormedGoal("I want to manage stress at work")}}
	engine := NewEngine(core.DefaultReferenceTables(), gen, time.Second)

	long := strings.Repeat("Client discussed coping strategies. ", 200)
	engine.Correct(context.Background(), baseFields(), []core.Finding{finding(rules.RuleGoalCount)}, long)

	got := gen.gotRequest.NoteExcerpt
	if len(got) != maxExcerptChars {
		t.Errorf("NoteExcerpt length = %d, want %d", len(got), maxExcerptChars)
	}
	if got != long[:maxExcerptChars] {
		t.Error("NoteExcerpt is not a prefix of the note body")
	}
}

func TestCorrectGoalCountTimeout(t *testing.T) {
	gen := &stubGenerator{block: true}
	engine := NewEngine(core.DefaultReferenceTables(), gen, 10*time.Millisecond)
	fields := baseFields()

	result := engine.Correct(context.Background(), fields, []core.Finding{finding(rules.RuleGoalCount)}, "")

	if len(result.Failures) != 1 {
		t.Fatalf("Failures = %+v, want 1", result.Failures)
	}
	if result.Failures[0].Reason != core.ErrGenerationTimeout.Error() {
		t.Errorf("Reason = %q, want timeout", result.Failures[0].Reason)
	}
	if len(result.Fields.Goals) != 1 {
		t.Errorf("goals changed after timeout: %d", len(result.Fields.Goals))
	}
}

func TestCorrectGoalCountMalformedResponse(t *testing.T) {
	tests := []struct {
		name string
		gen  *stubGenerator
	}{
		{"too few goals", &stubGenerator{goals: nil}},
		{"not well-formed", &stubGenerator{goals: []core.Goal{{Statement: "only a statement"}}}},
		{"generator error", &stubGenerator{err: errors.New("upstream unavailable")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := NewEngine(core.DefaultReferenceTables(), tt.gen, time.Second)
			result := engine.Correct(context.Background(), baseFields(), []core.Finding{finding(rules.RuleGoalCount)}, "")

			if len(result.Failures) != 1 {
				t.Fatalf("Failures = %+v, want 1", result.Failures)
			}
			if len(result.Corrections) != 0 {
				t.Errorf("Corrections = %+v, want none", result.Corrections)
			}
		})
	}
}

func TestCorrectGoalCountWithoutGenerator(t *testing.T) {
	engine := NewEngine(core.DefaultReferenceTables(), nil, time.Second)
	result := engine.Correct(context.Background(), baseFields(), []core.Finding{finding(rules.RuleGoalCount)}, "")

	if len(result.Failures) != 1 {
		t.Fatalf("Failures = %+v, want 1", result.Failures)
	}
	if result.Failures[0].Reason != core.ErrGenerationFailed.Error() {
		t.Errorf("Reason = %q", result.Failures[0].Reason)
	}
}

func TestCorrectRenderedBy(t *testing.T) {
	engine := NewEngine(core.DefaultReferenceTables(), nil, time.Second)
	fields := baseFields()

	result := engine.Correct(context.Background(), fields, []core.Finding{finding(rules.RuleRenderedBy)}, "")

	if len(result.Corrections) != 1 {
		t.Fatalf("Corrections = %+v, want 1", result.Corrections)
	}
	if result.Fields.RenderedBy != "Michelle Craig, LCSW" {
		t.Errorf("corrected RenderedBy = %q", result.Fields.RenderedBy)
	}
	if fields.RenderedBy != "Someone Else, LPCC" {
		t.Errorf("input RenderedBy mutated: %q", fields.RenderedBy)
	}
}

func TestCorrectSupervisor(t *testing.T) {
	ref := core.DefaultReferenceTables()
	ref.Roster = []core.Clinician{
		{Name: "Pat Jones", Credential: "LPCA"},
		{Name: "Robert Chen", Credential: "MD"},
	}
	engine := NewEngine(ref, nil, time.Second)
	fields := baseFields()

	result := engine.Correct(context.Background(), fields, []core.Finding{finding(rules.RuleSupervision)}, "")

	if len(result.Corrections) != 1 {
		t.Fatalf("Corrections = %+v, want 1", result.Corrections)
	}
	if result.Fields.Supervisor != "Robert Chen, MD" {
		t.Errorf("corrected Supervisor = %q", result.Fields.Supervisor)
	}
}

func TestCorrectSupervisorEmptyRoster(t *testing.T) {
	engine := NewEngine(core.DefaultReferenceTables(), nil, time.Second)
	result := engine.Correct(context.Background(), baseFields(), []core.Finding{finding(rules.RuleSupervision)}, "")

	if len(result.Failures) != 1 {
		t.Errorf("Failures = %+v, want 1", result.Failures)
	}
}

func TestCorrectSkipsNonCorrectableFindings(t *testing.T) {
	engine := NewEngine(core.DefaultReferenceTables(), nil, time.Second)
	findings := []core.Finding{
		{RuleID: rules.RuleGoalForm, Severity: core.SeverityViolation},
		{RuleID: rules.RuleCPTDuration, Severity: core.SeverityWarning},
	}

	result := engine.Correct(context.Background(), baseFields(), findings, "")
	if len(result.Corrections) != 0 || len(result.Failures) != 0 {
		t.Errorf("result = %+v, want untouched", result)
	}
}

func TestCorrectMultipleFindingsInOrder(t *testing.T) {
	gen := &stubGenerator{goals: []core.Goal{wellFormedGoal("I want to manage stress at work")}}
	engine := NewEngine(core.DefaultReferenceTables(), gen, time.Second)
	fields := baseFields()

	findings := []core.Finding{
		finding(rules.RuleDateWindow),
		finding(rules.RuleCPTDuration),
		finding(rules.RuleGoalCount),
		finding(rules.RuleRenderedBy),
	}

	result := engine.Correct(context.Background(), fields, findings, "")

	if len(result.Failures) != 0 {
		t.Fatalf("Failures = %+v, want none", result.Failures)
	}
	wantOrder := []string{rules.RuleDateWindow, rules.RuleCPTDuration, rules.RuleGoalCount, rules.RuleRenderedBy}
	if len(result.Corrections) != len(wantOrder) {
		t.Fatalf("Corrections = %d, want %d", len(result.Corrections), len(wantOrder))
	}
	for i, want := range wantOrder {
		if result.Corrections[i].RuleID != want {
			t.Errorf("Corrections[%d].RuleID = %s, want %s", i, result.Corrections[i].RuleID, want)
		}
	}
}
