package sections

import (
	"errors"
	"strings"
	"testing"

	"github.com/edquist/osg-configure/pkg/artifact"
	"github.com/edquist/osg-configure/pkg/attributes"
	"github.com/edquist/osg-configure/pkg/config"
	"github.com/edquist/osg-configure/pkg/options"
	"github.com/edquist/osg-configure/pkg/system"
	"github.com/edquist/osg-configure/pkg/telemetry"
)

// memWriter collects artifacts in memory for tests.
type memWriter struct {
	artifacts map[string][]byte
}

func newMemWriter() *memWriter {
	return &memWriter{artifacts: make(map[string][]byte)}
}

func (w *memWriter) Write(a artifact.Artifact) error {
	w.artifacts[a.Path] = a.Contents
	return nil
}

func newTestContext(t *testing.T, raw string) (*Context, *telemetry.Diagnostics, *memWriter) {
	t.Helper()
	src, err := config.Parse([]byte(raw))
	if err != nil {
		t.Fatalf("Failed to parse test configuration: %v", err)
	}
	log := telemetry.Nop()
	diag := telemetry.NewDiagnostics(log)
	writer := newMemWriter()
	return &Context{
		Source: src,
		Store:  attributes.NewStore(log),
		Facts:  &system.Static{ResolveAll: true},
		Writer: writer,
		Diag:   diag,
		Log:    log,
	}, diag, writer
}

func testSection() *Section {
	return New("Example",
		[]*options.Option{
			options.MandatoryString("host").Mapped("EXAMPLE_HOST"),
			options.Integer("port", 8080).Mapped("EXAMPLE_PORT"),
			options.Boolean("verbose", false),
			options.String("cache_dir", "/var/cache/example").Aliases("cachedir"),
		},
		Behavior{})
}

func TestParseStateAbsentBlock(t *testing.T) {
	s := testSection()
	ctx, _, _ := newTestContext(t, "[Other]\nhost = a.example.net\n")

	if err := s.Parse(ctx); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if s.State() != StateUnseen {
		t.Errorf("Expected state %s, got %s", StateUnseen, s.State())
	}
	if ctx.Store.Len() != 0 {
		t.Errorf("Expected no published attributes, got %d", ctx.Store.Len())
	}
}

func TestParseStateMarkers(t *testing.T) {
	tests := []struct {
		name   string
		marker string
		want   LifecycleState
	}{
		{"no marker", "", StateEnabled},
		{"enabled true", "enabled = True\n", StateEnabled},
		{"enabled yes", "enabled = yes\n", StateEnabled},
		{"disabled", "enabled = False\n", StateDisabled},
		{"disabled zero", "enabled = 0\n", StateDisabled},
		{"ignored", "enabled = ignore\n", StateIgnored},
		{"ignored capitalized", "enabled = Ignore\n", StateIgnored},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testSection()
			ctx, _, _ := newTestContext(t, "[Example]\n"+tt.marker+"host = a.example.net\n")
			if err := s.Parse(ctx); err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if s.State() != tt.want {
				t.Errorf("Expected state %s, got %s", tt.want, s.State())
			}
		})
	}
}

func TestParseMalformedMarkerIsFatal(t *testing.T) {
	s := testSection()
	ctx, diag, _ := newTestContext(t, "[Example]\nenabled = maybe\nhost = a.example.net\n")

	if err := s.Parse(ctx); err == nil {
		t.Fatal("Expected an error for an uninterpretable enabled marker")
	}
	if diag.ErrorCount() != 1 {
		t.Errorf("Expected 1 error diagnostic, got %d", diag.ErrorCount())
	}
}

func TestParsePublishesMappedAttributes(t *testing.T) {
	s := testSection()
	ctx, _, _ := newTestContext(t, "[Example]\nhost = a.example.net\nport = 9000\n")

	if err := s.Parse(ctx); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	host, ok := ctx.Store.String("EXAMPLE_HOST")
	if !ok || host != "a.example.net" {
		t.Errorf("Expected EXAMPLE_HOST=a.example.net, got %q (present=%v)", host, ok)
	}
	port, ok := ctx.Store.Lookup("EXAMPLE_PORT")
	if !ok || port != 9000 {
		t.Errorf("Expected EXAMPLE_PORT=9000, got %v (present=%v)", port, ok)
	}
	// verbose has no mapped attribute and must stay private.
	if _, ok := ctx.Store.Lookup("verbose"); ok {
		t.Error("Unmapped option should not be published")
	}
}

func TestParseIgnoredValidatesButDoesNotPublish(t *testing.T) {
	s := testSection()
	ctx, _, _ := newTestContext(t, "[Example]\nenabled = ignore\nhost = a.example.net\n")

	if err := s.Parse(ctx); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !s.Option("host").Resolved() {
		t.Error("Ignored section should still resolve its options")
	}
	if ctx.Store.Len() != 0 {
		t.Errorf("Ignored section must not publish, store has %d attributes", ctx.Store.Len())
	}
}

func TestParseDisabledResolvesNothing(t *testing.T) {
	s := testSection()
	ctx, _, _ := newTestContext(t, "[Example]\nenabled = False\nport = notanumber\n")

	if err := s.Parse(ctx); err != nil {
		t.Fatalf("Disabled section parse should not fail on malformed values: %v", err)
	}
	if s.Option("port").Resolved() {
		t.Error("Disabled section should not resolve options")
	}
}

func TestParseMissingMandatoryIsFatal(t *testing.T) {
	s := testSection()
	ctx, diag, _ := newTestContext(t, "[Example]\nport = 9000\n")

	err := s.Parse(ctx)
	if err == nil {
		t.Fatal("Expected a requiredness error for missing mandatory option")
	}
	var reqErr *options.RequirednessError
	if !errors.As(err, &reqErr) {
		t.Errorf("Expected RequirednessError, got %T: %v", err, err)
	}
	if diag.ErrorCount() == 0 {
		t.Error("Expected an error diagnostic for the missing option")
	}
}

func TestParseMalformedValueNeverFallsBackToDefault(t *testing.T) {
	s := testSection()
	ctx, _, _ := newTestContext(t, "[Example]\nhost = a.example.net\nport = notanumber\n")

	err := s.Parse(ctx)
	if err == nil {
		t.Fatal("Expected a coercion error for port = notanumber")
	}
	if s.Option("port").Resolved() {
		t.Error("Malformed option must not resolve to its default")
	}
	if _, ok := ctx.Store.Lookup("EXAMPLE_PORT"); ok {
		t.Error("Malformed option must not be published")
	}
}

func TestParseDeprecatedAliasWarns(t *testing.T) {
	s := testSection()
	ctx, diag, _ := newTestContext(t, "[Example]\nhost = a.example.net\ncachedir = /tmp/cache\n")

	if err := s.Parse(ctx); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got := s.Option("cache_dir").StringValue(); got != "/tmp/cache" {
		t.Errorf("Expected alias value /tmp/cache, got %q", got)
	}
	if !hasWarningContaining(diag, "deprecated") {
		t.Error("Expected a deprecation warning for the alias key")
	}
}

func TestParseUnknownKeyWarns(t *testing.T) {
	s := testSection()
	ctx, diag, _ := newTestContext(t, "[Example]\nhost = a.example.net\nbogus = value\n")

	if err := s.Parse(ctx); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !hasWarningContaining(diag, "unknown option bogus") {
		t.Error("Expected a warning for the unknown key")
	}
	if diag.ErrorCount() != 0 {
		t.Errorf("Unknown keys must not be errors, got %d errors", diag.ErrorCount())
	}
}

func TestCrossValidateSkipsUnseenAndDisabled(t *testing.T) {
	called := false
	s := New("Example", []*options.Option{options.String("x", "")},
		Behavior{CrossValidate: func(s *Section, ctx *Context) bool {
			called = true
			return false
		}})
	ctx, _, _ := newTestContext(t, "[Other]\n")

	if err := s.Parse(ctx); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	ok, err := s.CrossValidate(ctx)
	if err != nil {
		t.Fatalf("CrossValidate failed: %v", err)
	}
	if !ok {
		t.Error("Unseen section must trivially pass cross-validation")
	}
	if called {
		t.Error("Behavior cross-validation must not run for unseen sections")
	}
}

func TestRenderOnlyRunsWhenEnabled(t *testing.T) {
	for _, marker := range []string{"enabled = False\n", "enabled = ignore\n"} {
		rendered := false
		s := New("Example", []*options.Option{options.String("x", "")},
			Behavior{Render: func(s *Section, ctx *Context) error {
				rendered = true
				return nil
			}})
		ctx, _, _ := newTestContext(t, "[Example]\n"+marker)

		if err := s.Parse(ctx); err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		if err := s.Render(ctx); err != nil {
			t.Fatalf("Render failed: %v", err)
		}
		if rendered {
			t.Errorf("Render ran for a section with %q", strings.TrimSpace(marker))
		}
	}
}

func hasWarningContaining(diag *telemetry.Diagnostics, substr string) bool {
	for _, d := range diag.Entries() {
		if d.Severity == telemetry.SeverityWarning && strings.Contains(d.Message, substr) {
			return true
		}
	}
	return false
}
