// Package ingesterror defines the typed errors raised while discovering,
// extracting and submitting transaction files. Only a missing root directory
// is fatal to a run; every other error aborts a file, a row or a folder batch.
package ingesterror

import (
	"fmt"
	"strings"
)

// FileUnreadableError reports a file that could not be read as a table.
type FileUnreadableError struct {
	FilePath string
	Reason   string
	Err      error
}

func (e *FileUnreadableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot read '%s': %s: %v", e.FilePath, e.Reason, e.Err)
	}
	return fmt.Sprintf("cannot read '%s': %s", e.FilePath, e.Reason)
}

func (e *FileUnreadableError) Unwrap() error {
	return e.Err
}

// MissingColumnsError lists the semantic fields with no matching header.
type MissingColumnsError struct {
	FilePath string
	Fields   []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing required columns in '%s': %s",
		e.FilePath, strings.Join(e.Fields, ", "))
}

// SkipReason classifies why a single row produced no record.
type SkipReason string

const (
	ReasonEmptyCard          SkipReason = "empty-card"
	ReasonMalformedCard      SkipReason = "malformed-card"
	ReasonNonNumericPrice    SkipReason = "non-numeric-price"
	ReasonNonNumericDiscount SkipReason = "non-numeric-discount"
	ReasonFailedValidation   SkipReason = "failed-validation"
)

// RowSkipError aborts one row only.
type RowSkipError struct {
	Row    int
	Reason SkipReason
	Value  string
}

func (e *RowSkipError) Error() string {
	return fmt.Sprintf("row %d skipped (%s): '%s'", e.Row, e.Reason, e.Value)
}

// OrganizationUnresolvedError reports a folder without a usable identity.
type OrganizationUnresolvedError struct {
	Folder string
}

func (e *OrganizationUnresolvedError) Error() string {
	return fmt.Sprintf("no organization identity for folder '%s'", e.Folder)
}

// SubmissionTransportError reports a network or HTTP-level failure.
type SubmissionTransportError struct {
	Endpoint   string
	HTTPStatus int
	Body       string
	Err        error
}

func (e *SubmissionTransportError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("submission to %s failed: %v", e.Endpoint, e.Err)
	case e.Body != "":
		return fmt.Sprintf("submission to %s failed with HTTP %d: %s", e.Endpoint, e.HTTPStatus, e.Body)
	default:
		return fmt.Sprintf("submission to %s failed with HTTP %d", e.Endpoint, e.HTTPStatus)
	}
}

func (e *SubmissionTransportError) Unwrap() error {
	return e.Err
}

// SubmissionProtocolError reports a response with an unexpected status or shape.
type SubmissionProtocolError struct {
	Status *int
	Msg    string
}

func (e *SubmissionProtocolError) Error() string {
	if e.Status != nil {
		return fmt.Sprintf("unexpected submission response (status %d): %s", *e.Status, e.Msg)
	}
	return fmt.Sprintf("unexpected submission response: %s", e.Msg)
}

// MappingPersistError reports a failure writing the organization mapping file.
type MappingPersistError struct {
	Path string
	Err  error
}

func (e *MappingPersistError) Error() string {
	return fmt.Sprintf("failed to persist organization mapping to '%s': %v", e.Path, e.Err)
}

func (e *MappingPersistError) Unwrap() error {
	return e.Err
}
