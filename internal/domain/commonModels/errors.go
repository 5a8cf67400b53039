package commonModels

import (
	"errors"
	"fmt"
)

var (
	// ErrDocumentUnreadable: the file is missing, not a readable document, or empty after extraction.
	ErrDocumentUnreadable = errors.New("document unreadable")

	// ErrBackendUnavailable: the generation provider errored or timed out.
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrExtractionFailed: the reply did not contain a well ordered start_json_/_end_json pair.
	ErrExtractionFailed = errors.New("extraction failed")

	// ErrPayloadInvalid: the extracted text is not valid JSON for the task schema.
	ErrPayloadInvalid = errors.New("payload invalid")

	ErrInvalidRequest = errors.New("invalid request")
)

type Stage string

const (
	StageValidate Stage = "validate"
	StageLoad     Stage = "load"
	StageIndex    Stage = "index"
	StageRetrieve Stage = "retrieve"
	StageAssemble Stage = "assemble"
	StageGenerate Stage = "generate"
	StageExtract  Stage = "extract"
	StageDecode   Stage = "decode"
)

// StageError tags a pipeline failure with the step that produced it.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func NewStageError(stage Stage, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Err: err}
}

// StageOf returns the failing stage of err, or "" when err is not a StageError.
func StageOf(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}
