package telemetry

import "sync"

// Severity classifies a diagnostic message.
type Severity string

const (
	// SeverityInfo marks informational diagnostics.
	SeverityInfo Severity = "info"

	// SeverityWarning marks recoverable problems worth the operator's eye.
	SeverityWarning Severity = "warning"

	// SeverityError marks failed checks. Errors do not themselves abort a
	// run; only raised failures do.
	SeverityError Severity = "error"
)

// Diagnostic is one collected message, optionally tied to a section and
// option.
type Diagnostic struct {
	// Message is the human-readable text.
	Message string

	// Section is the owning section name, empty for run-level messages.
	Section string

	// Option is the owning option name, empty when not option-specific.
	Option string

	// Severity classifies the message.
	Severity Severity
}

// Sink receives diagnostics from the engine and its sections.
type Sink interface {
	// Report records one diagnostic.
	Report(d Diagnostic)
}

// Diagnostics is a Sink that both logs through a Logger and collects every
// diagnostic for the aggregate run result.
type Diagnostics struct {
	logger *Logger

	mu      sync.Mutex
	entries []Diagnostic
}

// NewDiagnostics creates a collecting sink that mirrors to logger.
func NewDiagnostics(logger *Logger) *Diagnostics {
	return &Diagnostics{logger: logger}
}

// Report records the diagnostic and logs it at the matching level.
func (d *Diagnostics) Report(diag Diagnostic) {
	d.mu.Lock()
	d.entries = append(d.entries, diag)
	d.mu.Unlock()

	l := d.logger
	if diag.Section != "" {
		l = l.WithSection(diag.Section)
	}
	if diag.Option != "" {
		l = l.WithOption(diag.Option)
	}
	switch diag.Severity {
	case SeverityWarning:
		l.Warn(diag.Message)
	case SeverityError:
		l.Error(diag.Message)
	default:
		l.Info(diag.Message)
	}
}

// Entries returns a copy of everything collected so far.
func (d *Diagnostics) Entries() []Diagnostic {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Diagnostic, len(d.entries))
	copy(out, d.entries)
	return out
}

// ForSection returns the collected diagnostics belonging to one section.
func (d *Diagnostics) ForSection(section string) []Diagnostic {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []Diagnostic
	for _, e := range d.entries {
		if e.Section == section {
			out = append(out, e)
		}
	}
	return out
}

// ErrorCount returns the number of error-severity diagnostics collected.
func (d *Diagnostics) ErrorCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, e := range d.entries {
		if e.Severity == SeverityError {
			n++
		}
	}
	return n
}
