package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
var (
	// ErrNotFound indicates that a requested entity was not found.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that the input data is invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates that the request lacks valid authentication.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrUpstream indicates that an external provider failed or answered with a non-success status.
	ErrUpstream = errors.New("upstream error")

	// ErrParse indicates that an external provider answered with a body that could not be decoded.
	ErrParse = errors.New("parse error")

	// ErrEmptyCompletion indicates a successful completion response without usable text.
	ErrEmptyCompletion = errors.New("empty completion")

	// ErrPersistence indicates that the store rejected or could not perform a write or read.
	ErrPersistence = errors.New("persistence error")
)

// Pipeline stage sentinels. A StageError unwraps to exactly one of these.
var (
	// ErrSearchFailed indicates that the paper search step failed.
	ErrSearchFailed = errors.New("search failed")

	// ErrAnalysisFailed indicates that at least one per-paper completion failed.
	ErrAnalysisFailed = errors.New("analysis failed")

	// ErrReportGenerationFailed indicates that synthesis produced no usable report.
	ErrReportGenerationFailed = errors.New("report generation failed")

	// ErrSaveFailed indicates that a finished result could not be persisted.
	ErrSaveFailed = errors.New("save failed")

	// ErrMalformedSuggestion indicates that a refinement suggestion failed parsing or schema checks.
	ErrMalformedSuggestion = errors.New("malformed suggestion")
)

// Provider names used in upstream and parse errors.
const (
	ProviderSearch     = "search"
	ProviderCompletion = "completion"
	ProviderIdentity   = "identity"
)

// ValidationError represents a validation error for a specific field.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// NotFoundError provides details about a not found entity.
type NotFoundError struct {
	Entity string
	ID     string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// UpstreamError describes a failed call to an external provider.
type UpstreamError struct {
	Provider   string
	StatusCode int
	Detail     string
	Cause      error
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s provider error (status %d): %s", e.Provider, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("%s provider error: %s", e.Provider, e.Detail)
}

// Unwrap exposes both ErrUpstream and the cause.
func (e *UpstreamError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrUpstream}
	}
	return []error{ErrUpstream, e.Cause}
}

// ParseError describes a provider response that could not be decoded.
type ParseError struct {
	Provider string
	Cause    error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("%s response could not be parsed: %v", e.Provider, e.Cause)
}

// Unwrap exposes both ErrParse and the cause.
func (e *ParseError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrParse}
	}
	return []error{ErrParse, e.Cause}
}

// PersistenceError describes a rejected store operation.
type PersistenceError struct {
	Op           string
	MissingOwner bool
	Cause        error
}

// Error implements the error interface.
func (e *PersistenceError) Error() string {
	if e.MissingOwner {
		return fmt.Sprintf("%s: record owner is required", e.Op)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Cause)
}

// Unwrap exposes both ErrPersistence and the cause.
func (e *PersistenceError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrPersistence}
	}
	return []error{ErrPersistence, e.Cause}
}

// Stage identifies the pipeline step that produced a StageError.
type Stage string

const (
	StageSearch      Stage = "search"
	StageAnalysis    Stage = "analysis"
	StageSynthesis   Stage = "synthesis"
	StagePersistence Stage = "persistence"
	StageRefinement  Stage = "refinement"
)

// StageError wraps a pipeline failure with the stage it happened in.
type StageError struct {
	Stage Stage
	Kind  error
	Err   error
}

// Error implements the error interface.
func (e *StageError) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

// Unwrap exposes the stage sentinel and the cause.
func (e *StageError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{
		Entity: entity,
		ID:     id,
	}
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// NewUpstreamError creates a new UpstreamError.
func NewUpstreamError(provider string, statusCode int, detail string, cause error) *UpstreamError {
	return &UpstreamError{
		Provider:   provider,
		StatusCode: statusCode,
		Detail:     detail,
		Cause:      cause,
	}
}

// NewParseError creates a new ParseError.
func NewParseError(provider string, cause error) *ParseError {
	return &ParseError{Provider: provider, Cause: cause}
}

// NewPersistenceError creates a new PersistenceError wrapping cause.
func NewPersistenceError(op string, cause error) *PersistenceError {
	return &PersistenceError{Op: op, Cause: cause}
}

// NewMissingOwnerError creates a PersistenceError for a write without an owner.
func NewMissingOwnerError(op string) *PersistenceError {
	return &PersistenceError{Op: op, MissingOwner: true}
}

// NewStageError creates a StageError. The stage determines the sentinel it unwraps to.
func NewStageError(stage Stage, err error) *StageError {
	return &StageError{Stage: stage, Kind: stageKind(stage), Err: err}
}

func stageKind(stage Stage) error {
	switch stage {
	case StageSearch:
		return ErrSearchFailed
	case StageAnalysis:
		return ErrAnalysisFailed
	case StageSynthesis:
		return ErrReportGenerationFailed
	case StagePersistence:
		return ErrSaveFailed
	case StageRefinement:
		return ErrMalformedSuggestion
	default:
		return errors.New(string(stage) + " failed")
	}
}
