package sections

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/edquist/osg-configure/pkg/artifact"
	"github.com/edquist/osg-configure/pkg/attributes"
	"github.com/edquist/osg-configure/pkg/config"
	"github.com/edquist/osg-configure/pkg/options"
	"github.com/edquist/osg-configure/pkg/system"
	"github.com/edquist/osg-configure/pkg/telemetry"
)

// LifecycleState classifies a section for one run.
type LifecycleState string

const (
	// StateUnseen means no matching block was found in the input.
	StateUnseen LifecycleState = "unseen"

	// StateDisabled means the block was present but explicitly turned off.
	StateDisabled LifecycleState = "disabled"

	// StateIgnored means the block is present and validated, but its side
	// effects are skipped.
	StateIgnored LifecycleState = "ignored"

	// StateEnabled is normal operation.
	StateEnabled LifecycleState = "enabled"
)

// enabledKey is the marker option selecting the lifecycle state inside a
// block. It accepts the boolean vocabulary plus the literal "ignore".
const enabledKey = "enabled"

// Paths locates the filesystem surface render writes to. Root is prepended
// to every artifact path so tests and dry runs can redirect the whole tree.
type Paths struct {
	// Root is the prefix for all artifact paths ("" or "/" for the real
	// system).
	Root string

	// TemplateDir holds the external templates some artifacts are
	// rendered from.
	TemplateDir string
}

// Resolve turns an absolute artifact path into its on-disk location under
// Root.
func (p Paths) Resolve(path string) string {
	if p.Root == "" || p.Root == "/" {
		return path
	}
	return filepath.Join(p.Root, path)
}

// Template returns the on-disk location of a named template file.
func (p Paths) Template(name string) string {
	return filepath.Join(p.TemplateDir, name)
}

// ArtifactWriter persists rendered artifacts. Satisfied by
// artifact.DiskWriter; declared here so sections depend only on the
// behavior they use.
type ArtifactWriter interface {
	Write(a artifact.Artifact) error
}

// Context carries the collaborators a section works against during a run.
// One Context is threaded through all three passes.
type Context struct {
	// Source is the raw key/value configuration being resolved.
	Source config.Source

	// Store is the shared attribute store for cross-section reads/writes.
	Store *attributes.Store

	// Facts answers system questions during cross-validation and render.
	Facts system.Facts

	// Writer persists artifacts during render.
	Writer ArtifactWriter

	// Diag receives every diagnostic raised by sections.
	Diag telemetry.Sink

	// Log is the run logger.
	Log *telemetry.Logger

	// Paths locates the render surface.
	Paths Paths
}

// Info reports an informational diagnostic for section/option.
func (c *Context) Info(section, option, message string) {
	c.Diag.Report(telemetry.Diagnostic{Message: message, Section: section, Option: option, Severity: telemetry.SeverityInfo})
}

// Warn reports a warning diagnostic for section/option.
func (c *Context) Warn(section, option, message string) {
	c.Diag.Report(telemetry.Diagnostic{Message: message, Section: section, Option: option, Severity: telemetry.SeverityWarning})
}

// Error reports an error diagnostic for section/option. Reported errors do
// not abort the run by themselves.
func (c *Context) Error(section, option, message string) {
	c.Diag.Report(telemetry.Diagnostic{Message: message, Section: section, Option: option, Severity: telemetry.SeverityError})
}

// Behavior is the injected per-section logic. Any field may be nil.
type Behavior struct {
	// AdjustDefaults runs at the start of an enabled or ignored section's
	// parse, before option resolution. It may read attributes published by
	// earlier sections to adjust declared defaults.
	AdjustDefaults func(s *Section, ctx *Context)

	// PostParse runs after option resolution and attribute publication.
	// It publishes derived attributes and caches cascade reads.
	PostParse func(s *Section, ctx *Context) error

	// CrossValidate checks domain rules across the section's resolved
	// options and the attribute store. It reports failures through ctx
	// and returns false when any check fails.
	CrossValidate func(s *Section, ctx *Context) bool

	// Render produces the section's artifacts. Only called for enabled
	// sections.
	Render func(s *Section, ctx *Context) error
}

// Section is one named, independently enable/disable-able configuration
// unit. All concrete sections are instances of this one type.
type Section struct {
	// Name is the block name in the raw configuration.
	Name string

	// After lists section names whose parse pass must precede this
	// section's, because this section reads attributes they publish.
	After []string

	// AlwaysEnabled sections resolve and publish their defaults even when
	// no block is present in the input.
	AlwaysEnabled bool

	// DynamicKeys sections accept every raw key in their block and publish
	// each verbatim as a string attribute. Unknown-key warnings are
	// suppressed.
	DynamicKeys bool

	behavior Behavior

	opts  map[string]*options.Option
	order []string

	state     LifecycleState
	validated bool
}

// New creates a section with its declared option table. Option declaration
// order is preserved for diagnostics and publication.
func New(name string, opts []*options.Option, behavior Behavior) *Section {
	s := &Section{
		Name:     name,
		behavior: behavior,
		opts:     make(map[string]*options.Option, len(opts)),
		state:    StateUnseen,
	}
	for _, o := range opts {
		s.opts[o.Name] = o
		s.order = append(s.order, o.Name)
	}
	return s
}

// Option returns the declared option by name. It panics on an undeclared
// name, which is a programming error in the section catalog.
func (s *Section) Option(name string) *options.Option {
	o, ok := s.opts[name]
	if !ok {
		panic(fmt.Sprintf("section %s: undeclared option %s", s.Name, name))
	}
	return o
}

// Options returns every declared option in declaration order.
func (s *Section) Options() []*options.Option {
	out := make([]*options.Option, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.opts[name])
	}
	return out
}

// State returns the section's lifecycle state for this run.
func (s *Section) State() LifecycleState {
	return s.state
}

// Validated reports the last cross-validation result. Only meaningful once
// the state is enabled or ignored.
func (s *Section) Validated() bool {
	return s.validated
}

// Parse determines the section's lifecycle state from the raw input and
// resolves every declared option. Parse is all it takes for the section's
// mapped attributes to appear in the store; unseen and disabled sections
// resolve nothing and publish nothing. A coercion or requiredness failure
// aborts this section's parse and is returned to the orchestrator.
func (s *Section) Parse(ctx *Context) error {
	if !ctx.Source.HasSection(s.Name) {
		if s.AlwaysEnabled {
			s.state = StateEnabled
		} else {
			s.state = StateUnseen
			ctx.Log.WithSection(s.Name).Debug("section not present in configuration")
			return nil
		}
	} else {
		state, err := s.readStatus(ctx)
		if err != nil {
			return err
		}
		s.state = state
	}

	if s.state == StateDisabled {
		ctx.Log.WithSection(s.Name).Debug("section disabled")
		return nil
	}

	if s.behavior.AdjustDefaults != nil {
		s.behavior.AdjustDefaults(s, ctx)
	}

	if err := s.resolveOptions(ctx); err != nil {
		return err
	}
	s.warnUnknownKeys(ctx)

	// Publication is a side effect on other sections, so ignored sections
	// stay out of the store.
	if s.state == StateEnabled {
		s.publish(ctx)
		if s.behavior.PostParse != nil {
			if err := s.behavior.PostParse(s, ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

// readStatus interprets the enabled marker of a present block.
// Absent marker means enabled; "ignore" selects the ignored state; anything
// else must coerce as a boolean.
func (s *Section) readStatus(ctx *Context) (LifecycleState, error) {
	if !ctx.Source.HasOption(s.Name, enabledKey) {
		return StateEnabled, nil
	}
	raw := ctx.Source.GetRaw(s.Name, enabledKey)
	if options.Blank(raw) {
		return StateEnabled, nil
	}
	if equalsIgnore(raw) {
		return StateIgnored, nil
	}
	v, err := options.Coerce(raw, options.KindBoolean)
	if err != nil {
		ctx.Error(s.Name, enabledKey, fmt.Sprintf("cannot interpret %q as a section status", raw))
		return StateUnseen, &options.CoercionError{Option: enabledKey, RawValue: raw, Kind: options.KindBoolean}
	}
	if v.(bool) {
		return StateEnabled, nil
	}
	return StateDisabled, nil
}

// resolveOptions resolves every declared option in declaration order.
func (s *Section) resolveOptions(ctx *Context) error {
	for _, name := range s.order {
		opt := s.opts[name]
		raw, present := s.lookupRaw(ctx, opt)
		if err := opt.Resolve(raw, present); err != nil {
			ctx.Error(s.Name, opt.Name, err.Error())
			return err
		}
	}
	return nil
}

// lookupRaw finds the raw value for an option, falling back to deprecated
// alias keys with a warning.
func (s *Section) lookupRaw(ctx *Context, opt *options.Option) (string, bool) {
	if ctx.Source.HasOption(s.Name, opt.Name) {
		return ctx.Source.GetRaw(s.Name, opt.Name), true
	}
	for _, alias := range opt.DeprecatedKeys {
		if ctx.Source.HasOption(s.Name, alias) {
			ctx.Warn(s.Name, alias,
				fmt.Sprintf("option %s is deprecated, use %s", alias, opt.Name))
			return ctx.Source.GetRaw(s.Name, alias), true
		}
	}
	return "", false
}

// warnUnknownKeys reports raw keys that match no declared option. Unknown
// keys are never fatal.
func (s *Section) warnUnknownKeys(ctx *Context) {
	if s.DynamicKeys {
		return
	}
	for _, key := range ctx.Source.ListOptions(s.Name) {
		if key == enabledKey {
			continue
		}
		if _, ok := s.opts[key]; ok {
			continue
		}
		if s.isAlias(key) {
			continue
		}
		ctx.Warn(s.Name, key, fmt.Sprintf("unknown option %s in section %s", key, s.Name))
	}
}

func (s *Section) isAlias(key string) bool {
	for _, name := range s.order {
		for _, alias := range s.opts[name].DeprecatedKeys {
			if alias == key {
				return true
			}
		}
	}
	return false
}

// publish writes every mapped, resolved option into the attribute store,
// plus every raw key verbatim for dynamic sections.
func (s *Section) publish(ctx *Context) {
	for _, name := range s.order {
		opt := s.opts[name]
		if opt.MappedAttribute == "" || !opt.Resolved() {
			continue
		}
		ctx.Store.Publish(s.Name, opt.MappedAttribute, opt.Value)
	}
	if s.DynamicKeys {
		for _, key := range ctx.Source.ListOptions(s.Name) {
			if key == enabledKey {
				continue
			}
			ctx.Store.Publish(s.Name, key, ctx.Source.GetRaw(s.Name, key))
		}
	}
}

// CrossValidate checks domain rules over the fully-resolved options plus
// attributes from the store. Unseen and disabled sections trivially pass.
// Ignored sections are checked for their diagnostics, but the orchestrator
// does not let their result block anything. The returned error marks a
// violated logic invariant, not a failed check.
func (s *Section) CrossValidate(ctx *Context) (bool, error) {
	if s.state == StateUnseen || s.state == StateDisabled {
		s.validated = true
		return true, nil
	}

	// Parse must have resolved every option; an enabled section with an
	// unresolved mandatory option here means the orchestrator skipped a
	// failed parse.
	for _, name := range s.order {
		opt := s.opts[name]
		if opt.Required == options.Mandatory && !opt.Resolved() {
			return false, fmt.Errorf("section %s: option %s unresolved at cross-validation", s.Name, name)
		}
	}

	ok := true
	if s.behavior.CrossValidate != nil {
		ok = s.behavior.CrossValidate(s, ctx)
	}
	s.validated = ok
	return ok, nil
}

// Render produces the section's artifacts. Only enabled sections do work;
// ignored and disabled sections short-circuit to success with no side
// effects.
func (s *Section) Render(ctx *Context) error {
	if s.state != StateEnabled {
		return nil
	}
	if s.behavior.Render == nil {
		return nil
	}
	return s.behavior.Render(s, ctx)
}

func equalsIgnore(raw string) bool {
	return strings.EqualFold(raw, "ignore")
}
