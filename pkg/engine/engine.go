package engine

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/edquist/osg-configure/pkg/artifact"
	"github.com/edquist/osg-configure/pkg/attributes"
	"github.com/edquist/osg-configure/pkg/config"
	"github.com/edquist/osg-configure/pkg/sections"
	"github.com/edquist/osg-configure/pkg/system"
	"github.com/edquist/osg-configure/pkg/telemetry"
)

// attributesFilePath receives the aggregate attribute file at the end of a
// successful render pass.
const attributesFilePath = "/var/lib/osg/osg-attributes.conf"

// envNamePattern matches attribute names exportable as environment
// variables. Internal dotted flags fail the match and stay out of the file.
var envNamePattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)

// ExportableName reports whether an attribute name belongs in the aggregate
// attribute file.
func ExportableName(name string) bool {
	return envNamePattern.MatchString(name)
}

// RenderPolicy decides what happens to sections that failed
// cross-validation when the render pass runs.
type RenderPolicy string

const (
	// RenderSkipInvalid renders only sections that passed
	// cross-validation. The run is still reported as failed.
	RenderSkipInvalid RenderPolicy = "skip-invalid"

	// RenderNothingOnFailure skips the whole render pass when any section
	// failed cross-validation.
	RenderNothingOnFailure RenderPolicy = "nothing-on-failure"
)

// Options configures an Engine. Zero-value fields get working defaults.
type Options struct {
	// Facts answers system questions during cross-validation.
	Facts system.Facts

	// Writer persists rendered artifacts.
	Writer sections.ArtifactWriter

	// Paths locates the render surface and template directory.
	Paths sections.Paths

	// Logger is the engine logger.
	Logger *telemetry.Logger

	// Metrics receives run and failure counters. May be nil.
	Metrics *telemetry.Metrics

	// RenderPolicy defaults to RenderSkipInvalid.
	RenderPolicy RenderPolicy
}

// SectionStatus is the per-section outcome of one run.
type SectionStatus struct {
	// Name is the section name.
	Name string `json:"name"`

	// State is the lifecycle state the parse pass settled on.
	State sections.LifecycleState `json:"state"`

	// ParseOK, ValidateOK and RenderOK report the pass outcomes. A pass
	// that never ran for this section counts as ok.
	ParseOK    bool `json:"parse_ok"`
	ValidateOK bool `json:"validate_ok"`
	RenderOK   bool `json:"render_ok"`

	// Err is the first fatal error hit for this section, if any.
	Err error `json:"-"`
}

// RunResult aggregates one full run.
type RunResult struct {
	// RunID uniquely identifies this run in logs and metrics.
	RunID string `json:"run_id"`

	// ParseOK, ValidateOK and RenderOK report whether every section passed
	// the corresponding pass.
	ParseOK    bool `json:"parse_ok"`
	ValidateOK bool `json:"validate_ok"`
	RenderOK   bool `json:"render_ok"`

	// Sections holds per-section outcomes in execution order.
	Sections []SectionStatus `json:"sections"`
}

// OK reports whether every pass of every section succeeded.
func (r *RunResult) OK() bool {
	return r.ParseOK && r.ValidateOK && r.RenderOK
}

// Engine drives the three passes over an ordered section catalog. An Engine
// is single-threaded; one run at a time.
type Engine struct {
	ordered []*sections.Section
	opts    Options
	log     *telemetry.Logger

	// last run's collaborators, kept for post-run inspection
	store *attributes.Store
	diag  *telemetry.Diagnostics
}

// New validates the catalog's dependency graph and returns an engine with a
// fixed total section order. A cyclic or dangling dependency is fatal here,
// before any configuration is read.
func New(catalog []*sections.Section, opts Options) (*Engine, error) {
	if opts.Logger == nil {
		opts.Logger = telemetry.Nop()
	}
	if opts.Facts == nil {
		opts.Facts = system.NewLocalFacts()
	}
	if opts.Writer == nil {
		opts.Writer = artifact.NewDiskWriter(opts.Logger)
	}
	if opts.RenderPolicy == "" {
		opts.RenderPolicy = RenderSkipInvalid
	}

	ordered, err := computeOrder(catalog)
	if err != nil {
		return nil, err
	}

	return &Engine{
		ordered: ordered,
		opts:    opts,
		log:     opts.Logger.NewComponentLogger("engine"),
	}, nil
}

// Order returns the section names in execution order.
func (e *Engine) Order() []string {
	names := make([]string, len(e.ordered))
	for i, s := range e.ordered {
		names[i] = s.Name
	}
	return names
}

// RunAll performs a full run: parse, cross-validate, render, then the
// aggregate attribute file. The returned result reports every failure; the
// error return is reserved for faults that prevented the run from
// completing its passes.
func (e *Engine) RunAll(src config.Source) (*RunResult, error) {
	return e.run(src, true)
}

// Verify performs the parse and cross-validation passes without producing
// any artifact.
func (e *Engine) Verify(src config.Source) (*RunResult, error) {
	return e.run(src, false)
}

func (e *Engine) run(src config.Source, render bool) (*RunResult, error) {
	runID := uuid.NewString()
	log := e.log.WithRunID(runID)
	log.Infof("starting configuration run over %d sections", len(e.ordered))

	if e.opts.Metrics != nil {
		e.opts.Metrics.RecordRunStarted()
	}

	e.store = attributes.NewStore(log)
	e.diag = telemetry.NewDiagnostics(log)
	ctx := &sections.Context{
		Source: src,
		Store:  e.store,
		Facts:  e.opts.Facts,
		Writer: e.opts.Writer,
		Diag:   e.diag,
		Log:    log,
		Paths:  e.opts.Paths,
	}

	result := &RunResult{RunID: runID, ParseOK: true, ValidateOK: true, RenderOK: true}
	statuses := make([]*SectionStatus, len(e.ordered))
	for i, s := range e.ordered {
		statuses[i] = &SectionStatus{Name: s.Name, ParseOK: true, ValidateOK: true, RenderOK: true}
	}

	e.parsePass(ctx, statuses, result)
	e.validatePass(ctx, statuses, result)
	if render {
		e.renderPass(ctx, statuses, result)
	}

	for _, st := range statuses {
		result.Sections = append(result.Sections, *st)
	}
	if e.opts.Metrics != nil {
		e.opts.Metrics.RecordRunCompleted(result.OK())
	}
	log.Infof("run finished: parse=%v validate=%v render=%v", result.ParseOK, result.ValidateOK, result.RenderOK)
	return result, nil
}

// parsePass resolves every section in order. A failed parse marks the
// section and the run, but later sections still parse so the operator sees
// every problem at once.
func (e *Engine) parsePass(ctx *sections.Context, statuses []*SectionStatus, result *RunResult) {
	for i, s := range e.ordered {
		if err := s.Parse(ctx); err != nil {
			statuses[i].ParseOK = false
			statuses[i].Err = NewParseError(s.Name, err)
			result.ParseOK = false
			e.recordFailure(s.Name, PassParse)
			ctx.Log.WithSection(s.Name).WithError(err).Error("section parse failed")
		}
		statuses[i].State = s.State()
	}
}

// validatePass cross-validates every section whose parse succeeded. Failed
// checks are recorded diagnostics; only a logic fault is an error. An
// ignored section's failures are reported but never mark the run.
func (e *Engine) validatePass(ctx *sections.Context, statuses []*SectionStatus, result *RunResult) {
	for i, s := range e.ordered {
		if !statuses[i].ParseOK {
			statuses[i].ValidateOK = false
			result.ValidateOK = false
			continue
		}
		ok, err := s.CrossValidate(ctx)
		if err != nil {
			statuses[i].ValidateOK = false
			statuses[i].Err = NewValidateError(s.Name, err)
			result.ValidateOK = false
			e.recordFailure(s.Name, PassValidate)
			continue
		}
		if !ok && s.State() != sections.StateIgnored {
			statuses[i].ValidateOK = false
			result.ValidateOK = false
			e.recordFailure(s.Name, PassValidate)
		}
	}
}

// renderPass produces artifacts for sections that parsed and validated,
// then writes the aggregate attribute file.
func (e *Engine) renderPass(ctx *sections.Context, statuses []*SectionStatus, result *RunResult) {
	if !result.ValidateOK && e.opts.RenderPolicy == RenderNothingOnFailure {
		result.RenderOK = false
		ctx.Log.Warn("skipping render pass, cross-validation failed")
		return
	}

	for i, s := range e.ordered {
		if !statuses[i].ParseOK || !statuses[i].ValidateOK {
			statuses[i].RenderOK = false
			result.RenderOK = false
			continue
		}
		if err := s.Render(ctx); err != nil {
			statuses[i].RenderOK = false
			statuses[i].Err = NewRenderError(s.Name, err)
			result.RenderOK = false
			e.recordFailure(s.Name, PassRender)
			ctx.Log.WithSection(s.Name).WithError(err).Error("section render failed")
			continue
		}
		if e.opts.Metrics != nil && s.State() == sections.StateEnabled {
			e.opts.Metrics.RecordArtifactWritten()
		}
	}

	if result.ParseOK && result.ValidateOK {
		if err := e.writeAttributesFile(ctx); err != nil {
			result.RenderOK = false
			e.recordFailure("attributes", PassRender)
			ctx.Log.WithError(err).Error("failed to write the attribute file")
		}
	}
}

// writeAttributesFile renders the aggregate attribute file: one sorted
// KEY="value" line per exportable attribute plus a trailing export line.
func (e *Engine) writeAttributesFile(ctx *sections.Context) error {
	var names []string
	values := make(map[string]string)
	for _, attr := range e.store.All() {
		if !envNamePattern.MatchString(attr.Name) {
			continue
		}
		names = append(names, attr.Name)
		values[attr.Name] = formatAttributeValue(attr.Value)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(artifact.Header("#"))
	for _, name := range names {
		fmt.Fprintf(&b, "%s=%q\n", name, values[name])
	}
	if len(names) > 0 {
		b.WriteString("export " + strings.Join(names, " ") + "\n")
	}

	return ctx.Writer.Write(artifact.Artifact{
		Path:     e.opts.Paths.Resolve(attributesFilePath),
		Contents: []byte(b.String()),
		Mode:     0o644,
	})
}

// formatAttributeValue renders a published value the way enabled options
// print: booleans as Y/N, integers in decimal.
func formatAttributeValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		if val {
			return "Y"
		}
		return "N"
	case int:
		return strconv.Itoa(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

func (e *Engine) recordFailure(section string, pass Pass) {
	if e.opts.Metrics != nil {
		e.opts.Metrics.RecordSectionFailure(section, string(pass))
	}
}

// Attribute returns a published attribute from the most recent run.
func (e *Engine) Attribute(key string) (any, bool) {
	if e.store == nil {
		return nil, false
	}
	return e.store.Lookup(key)
}

// Attributes returns every attribute published by the most recent run,
// sorted by name.
func (e *Engine) Attributes() []attributes.Attribute {
	if e.store == nil {
		return nil
	}
	return e.store.All()
}

// Diagnostics returns the diagnostics collected by the most recent run.
func (e *Engine) Diagnostics() []telemetry.Diagnostic {
	if e.diag == nil {
		return nil
	}
	return e.diag.Entries()
}
