package core

import (
	"strings"
	"testing"
)

func TestProcessingErrorFormat(t *testing.T) {
	err := &ProcessingError{
		Code:    "TEST_CODE",
		Message: "Something broke",
		Action:  "Try turning it off and on again",
	}
	want := "Something broke. Try turning it off and on again"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	bare := &ProcessingError{Code: "TEST_CODE", Message: "Something broke"}
	if bare.Error() != "Something broke" {
		t.Errorf("Error() = %q, want message only", bare.Error())
	}
}

func TestProcessingErrorConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *ProcessingError
		wantCode string
	}{
		{"no input", ErrNoInputFiles("/notes"), ErrCodeNoInput},
		{"missing key", ErrMissingAPIKey(), ErrCodeMissingAPIKey},
		{"bad reference", ErrBadReferenceFile("ref.yaml", ErrGenerationFailed), ErrCodeBadReference},
		{"report write", ErrReportWrite("out.html", ErrGenerationFailed), ErrCodeReportWrite},
		{"folder setup", ErrFolderSetup("/notes", ErrGenerationFailed), ErrCodeFolderSetup},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", tt.err.Code, tt.wantCode)
			}
			if tt.err.Message == "" || tt.err.Action == "" {
				t.Errorf("constructor left fields empty: %+v", tt.err)
			}
			if !strings.Contains(tt.err.Error(), tt.err.Message) {
				t.Errorf("Error() %q does not contain message", tt.err.Error())
			}
		})
	}
}
