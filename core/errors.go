package core

import (
	"errors"
	"fmt"
)

// Sentinel errors for expected per-file failure conditions. These are all
// local to a single file; none of them aborts the batch.
var (
	// ErrGenerationTimeout is returned when the AI goal-drafting call
	// exceeds its deadline.
	ErrGenerationTimeout = errors.New("goal generation timed out")

	// ErrGenerationFailed is returned when the AI collaborator returns a
	// malformed or empty response.
	ErrGenerationFailed = errors.New("goal generation failed")

	// ErrNamingConflict is returned when a normalized target file name
	// already exists and differs from the source. The source file is left
	// in place, never overwritten.
	ErrNamingConflict = errors.New("target file name already exists")

	// ErrAlreadyFinalized is returned when a run report is finalized twice.
	ErrAlreadyFinalized = errors.New("run report already finalized")
)

// ProcessingError is an operator-facing error with an actionable instruction.
type ProcessingError struct {
	Code    string // Error code for programmatic handling
	Message string // Human-readable error message
	Action  string // Actionable instruction for resolution
}

func (e *ProcessingError) Error() string {
	if e.Action != "" {
		return fmt.Sprintf("%s. %s", e.Message, e.Action)
	}
	return e.Message
}

// Error codes for processing errors
const (
	ErrCodeNoInput       = "NO_INPUT_FILES"
	ErrCodeMissingAPIKey = "MISSING_API_KEY"
	ErrCodeBadReference  = "INVALID_REFERENCE_FILE"
	ErrCodeReportWrite   = "REPORT_WRITE_FAILED"
	ErrCodeFolderSetup   = "FOLDER_SETUP_FAILED"
)

// ErrNoInputFiles returns an error for a folder with no processable PDFs.
func ErrNoInputFiles(dir string) *ProcessingError {
	return &ProcessingError{
		Code:    ErrCodeNoInput,
		Message: fmt.Sprintf("No PDF files found in %s", dir),
		Action:  "Point the processor at a folder containing .pdf clinical notes",
	}
}

// ErrMissingAPIKey returns an error for a missing OpenAI credential.
func ErrMissingAPIKey() *ProcessingError {
	return &ProcessingError{
		Code:    ErrCodeMissingAPIKey,
		Message: "OpenAI API key not configured",
		Action:  "Set OPENAI_API_KEY in your environment or .env file",
	}
}

// ErrBadReferenceFile returns an error for an unreadable reference table file.
func ErrBadReferenceFile(path string, reason error) *ProcessingError {
	return &ProcessingError{
		Code:    ErrCodeBadReference,
		Message: fmt.Sprintf("Cannot load reference tables from %s: %v", path, reason),
		Action:  "Fix the YAML file or unset REFERENCE_FILE to use built-in tables",
	}
}

// ErrReportWrite returns an error for a failed report artifact write.
// A run with no report is a run with no record, so this is fatal.
func ErrReportWrite(path string, reason error) *ProcessingError {
	return &ProcessingError{
		Code:    ErrCodeReportWrite,
		Message: fmt.Sprintf("Cannot write compliance report to %s: %v", path, reason),
		Action:  "Check disk space and write permissions on the reports folder",
	}
}

// ErrFolderSetup returns an error for a failed output folder creation.
func ErrFolderSetup(dir string, reason error) *ProcessingError {
	return &ProcessingError{
		Code:    ErrCodeFolderSetup,
		Message: fmt.Sprintf("Cannot create output folders under %s: %v", dir, reason),
		Action:  "Check write permissions on the target folder",
	}
}
