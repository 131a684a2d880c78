package classify

import (
	"testing"

	"noteaudit/core"
)

const therapyNote = `COMPREHENSIVE PSYCHIATRIC EVALUATION
DATE: 07/02/2025
START TIME: 10:00 am  END TIME: 10:45 am
CPT Code: 90834

Goal #1: "I want to reduce my anxiety"
Objective: Practice grounding techniques 3x weekly
Tx Modality: CBT

Electronically signed by Michelle Craig, LCSW at 07/08/2025 11:10 am`

const medicalNote = `OFFICE VISIT NOTE
HPI: 52-year-old presents with worsening hypertension.
Review of Systems: negative except as noted.
Physical Exam: BP 152/94.
Assessment and Plan: increase lisinopril, order labs.`

func TestClassify(t *testing.T) {
	classifier := New(core.DefaultReferenceTables())

	tests := []struct {
		name           string
		text           string
		wantClass      core.Classification
		wantCredential string
	}{
		{
			name:           "credential near signature with cpt corroboration",
			text:           therapyNote,
			wantClass:      core.ClassTherapy,
			wantCredential: "LCSW",
		},
		{
			name:      "medical headers without credential",
			text:      medicalNote,
			wantClass: core.ClassMedical,
		},
		{
			name:      "empty text is unknown",
			text:      "",
			wantClass: core.ClassUnknown,
		},
		{
			name: "credential without corroboration is unknown",
			text: "Letter of recommendation drafted by Jane Smith, LCSW.",
			// A stray credential with no session evidence is not a note.
			wantClass:      core.ClassUnknown,
			wantCredential: "LCSW",
		},
		{
			name:           "both signals is unknown",
			text:           therapyNote + "\nAssessment and Plan: continue current medications.",
			wantClass:      core.ClassUnknown,
			wantCredential: "LCSW",
		},
		{
			name: "indicator phrases alone reach therapy",
			text: `Psychotherapy progress note.
Therapy Type: Individual
Goal #1: "I want to sleep through the night"
Tx Modality: CBT
Provider: Dana Lee, LPCA`,
			wantClass:      core.ClassTherapy,
			wantCredential: "LPCA",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotClass, gotCred := classifier.Classify(tt.text)
			if gotClass != tt.wantClass {
				t.Errorf("Classify() class = %v, want %v", gotClass, tt.wantClass)
			}
			if gotCred != tt.wantCredential {
				t.Errorf("Classify() credential = %q, want %q", gotCred, tt.wantCredential)
			}
		})
	}
}

func TestClassifyCredentialTokenBoundaries(t *testing.T) {
	classifier := New(core.DefaultReferenceTables())

	// LPCC must win over its LPC prefix; LPC inside a longer token must not match.
	text := `START TIME: 9:00 am  END TIME: 9:50 am
Electronically signed by Jordan Reyes, LPCC at 03/10/2025 4:00 pm`

	class, cred := classifier.Classify(text)
	if class != core.ClassTherapy {
		t.Fatalf("Classify() class = %v, want therapy", class)
	}
	if cred != "LPCC" {
		t.Errorf("Classify() credential = %q, want LPCC", cred)
	}
}

func TestContainsToken(t *testing.T) {
	tests := []struct {
		text  string
		token string
		want  bool
	}{
		{"Jane Smith, LCSW", "LCSW", true},
		{"Jane Smith, LPCC", "LPC", false},
		{"LPC", "LPC", true},
		{"XLPCX", "LPC", false},
		{"first LPCC then LPC done", "LPC", true},
		{"", "LPC", false},
	}

	for _, tt := range tests {
		if got := containsToken(tt.text, tt.token); got != tt.want {
			t.Errorf("containsToken(%q, %q) = %v, want %v", tt.text, tt.token, got, tt.want)
		}
	}
}
