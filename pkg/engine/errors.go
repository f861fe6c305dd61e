package engine

import (
	"fmt"
)

// Pass identifies which phase of a run an error belongs to.
type Pass string

const (
	// PassOrdering covers section order computation before any run starts.
	PassOrdering Pass = "ordering"

	// PassParse covers option resolution and attribute publication.
	PassParse Pass = "parse"

	// PassValidate covers cross-option and cross-section checks.
	PassValidate Pass = "validate"

	// PassRender covers artifact production.
	PassRender Pass = "render"
)

// RunError is a classified run failure with the section context attached.
type RunError struct {
	// Pass is the phase the failure occurred in.
	Pass Pass `json:"pass"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// Section is the section being processed, if applicable.
	Section string `json:"section,omitempty"`

	// Err is the underlying error.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *RunError) Error() string {
	if e.Section != "" {
		return fmt.Sprintf("[%s] %s (section=%s): %s", e.Pass, e.Message, e.Section, e.unwrapMessage())
	}
	return fmt.Sprintf("[%s] %s: %s", e.Pass, e.Message, e.unwrapMessage())
}

// Unwrap returns the underlying error for error chain inspection.
func (e *RunError) Unwrap() error {
	return e.Err
}

func (e *RunError) unwrapMessage() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return ""
}

// NewOrderingError reports an unsatisfiable section order. It is fatal at
// engine construction and no run starts.
func NewOrderingError(message string, err error) *RunError {
	return &RunError{Pass: PassOrdering, Message: message, Err: err}
}

// NewParseError reports a fatal section parse failure.
func NewParseError(section string, err error) *RunError {
	return &RunError{Pass: PassParse, Message: "section parse failed", Section: section, Err: err}
}

// NewValidateError reports a logic invariant violated during
// cross-validation. Ordinary failed checks are diagnostics, not errors.
func NewValidateError(section string, err error) *RunError {
	return &RunError{Pass: PassValidate, Message: "cross-validation fault", Section: section, Err: err}
}

// NewRenderError reports a failed artifact production for a section.
func NewRenderError(section string, err error) *RunError {
	return &RunError{Pass: PassRender, Message: "render failed", Section: section, Err: err}
}
