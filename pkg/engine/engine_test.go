package engine

import (
	"errors"
	"strings"
	"testing"

	"github.com/edquist/osg-configure/pkg/artifact"
	"github.com/edquist/osg-configure/pkg/config"
	"github.com/edquist/osg-configure/pkg/options"
	"github.com/edquist/osg-configure/pkg/sections"
	"github.com/edquist/osg-configure/pkg/system"
	"github.com/edquist/osg-configure/pkg/telemetry"
)

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

const fullConfig = `[Site Information]
host_name = ce.example.edu
site_name = EXAMPLE_CE
sponsor = osg
contact = Site Admin
email = admin@example.edu

[Gateway]

[Squid]
location = squid.example.edu:3128

[Local Settings]
MY_LOCAL_VAR = some value
`

func newTestEngine(t *testing.T, catalog []*sections.Section) (*Engine, *memWriter) {
	t.Helper()
	writer := newMemWriter()
	eng, err := New(catalog, Options{
		Facts:  &system.Static{ResolveAll: true},
		Writer: writer,
		Logger: telemetry.Nop(),
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return eng, writer
}

func parseSource(t *testing.T, raw string) config.Source {
	t.Helper()
	src, err := config.Parse([]byte(raw))
	if err != nil {
		t.Fatalf("Failed to parse test configuration: %v", err)
	}
	return src
}

func TestRunAllSucceeds(t *testing.T) {
	eng, writer := newTestEngine(t, sections.Catalog())

	result, err := eng.RunAll(parseSource(t, fullConfig))
	if err != nil {
		t.Fatalf("RunAll failed: %v", err)
	}
	if !result.OK() {
		t.Fatalf("Expected a clean run, got parse=%v validate=%v render=%v",
			result.ParseOK, result.ValidateOK, result.RenderOK)
	}
	if result.RunID == "" {
		t.Error("Expected a non-empty run ID")
	}
	if len(result.Sections) != len(sections.Catalog()) {
		t.Errorf("Expected %d section statuses, got %d", len(sections.Catalog()), len(result.Sections))
	}

	contents, ok := writer.artifacts[attributesFilePath]
	if !ok {
		t.Fatal("Expected the aggregate attribute file to be written")
	}
	text := string(contents)
	for _, want := range []string{
		`OSG_HOSTNAME="ce.example.edu"`,
		`OSG_SITE_NAME="EXAMPLE_CE"`,
		`OSG_SQUID_LOCATION="squid.example.edu:3128"`,
		`MY_LOCAL_VAR="some value"`,
		"export ",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("Attribute file missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "gateway.htcondor_enabled") {
		t.Error("Internal dotted flags must not appear in the attribute file")
	}
}

func TestRunAllAttributeFileExcludesUnseenSections(t *testing.T) {
	eng, writer := newTestEngine(t, sections.Catalog())

	if _, err := eng.RunAll(parseSource(t, fullConfig)); err != nil {
		t.Fatalf("RunAll failed: %v", err)
	}
	text := string(writer.artifacts[attributesFilePath])
	if strings.Contains(text, "OSG_JOB_MANAGER") {
		t.Error("No job manager section is enabled, OSG_JOB_MANAGER must not be published")
	}
}

func TestVerifyWritesNothing(t *testing.T) {
	eng, writer := newTestEngine(t, sections.Catalog())

	result, err := eng.Verify(parseSource(t, fullConfig))
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if !result.ParseOK || !result.ValidateOK {
		t.Error("Expected verify to pass for a valid configuration")
	}
	if len(writer.artifacts) != 0 {
		t.Errorf("Verify must not write artifacts, wrote %d", len(writer.artifacts))
	}
}

func TestRunAllRecordsParseFailure(t *testing.T) {
	// Missing mandatory site_name plus a malformed integer in Squid.
	raw := `[Site Information]
host_name = ce.example.edu
sponsor = osg
contact = Site Admin
email = admin@example.edu

[Squid]
location = squid.example.edu:3128
cache_size = huge
`
	eng, writer := newTestEngine(t, sections.Catalog())

	result, err := eng.RunAll(parseSource(t, raw))
	if err != nil {
		t.Fatalf("RunAll failed: %v", err)
	}
	if result.ParseOK {
		t.Error("Expected the parse pass to fail")
	}
	if result.OK() {
		t.Error("Expected the run to be reported as failed")
	}

	failed := make(map[string]SectionStatus)
	for _, st := range result.Sections {
		if !st.ParseOK {
			failed[st.Name] = st
		}
	}
	// Both broken sections are reported, not just the first.
	if _, ok := failed[sections.SiteInformationSection]; !ok {
		t.Error("Expected Site Information to be reported as failed")
	}
	if _, ok := failed[sections.SquidSection]; !ok {
		t.Error("Expected Squid to be reported as failed")
	}

	if _, ok := writer.artifacts[attributesFilePath]; ok {
		t.Error("Attribute file must not be written after a failed run")
	}
}

func TestRunAllValidationFailureSkipsRenderOfThatSection(t *testing.T) {
	rendered := false
	bad := sections.New("Bad", []*options.Option{options.String("x", "")},
		sections.Behavior{
			CrossValidate: func(s *sections.Section, ctx *sections.Context) bool {
				ctx.Error(s.Name, "x", "x is never acceptable")
				return false
			},
			Render: func(s *sections.Section, ctx *sections.Context) error {
				rendered = true
				return nil
			},
		})
	good := sections.New("Good", []*options.Option{options.String("y", "").Mapped("GOOD_Y")}, sections.Behavior{})

	eng, _ := newTestEngine(t, []*sections.Section{bad, good})
	result, err := eng.RunAll(parseSource(t, "[Bad]\n[Good]\ny = val\n"))
	if err != nil {
		t.Fatalf("RunAll failed: %v", err)
	}
	if result.ValidateOK {
		t.Error("Expected the validate pass to fail")
	}
	if rendered {
		t.Error("A section that failed cross-validation must not render")
	}
}

func TestRunAllIgnoredSectionFailuresDoNotBlock(t *testing.T) {
	ignored := sections.New("Flaky", []*options.Option{options.String("x", "")},
		sections.Behavior{
			CrossValidate: func(s *sections.Section, ctx *sections.Context) bool {
				ctx.Error(s.Name, "x", "would fail if enabled")
				return false
			},
		})

	eng, _ := newTestEngine(t, []*sections.Section{ignored})
	result, err := eng.RunAll(parseSource(t, "[Flaky]\nenabled = ignore\n"))
	if err != nil {
		t.Fatalf("RunAll failed: %v", err)
	}
	if !result.OK() {
		t.Error("An ignored section's validation failures must not fail the run")
	}

	found := false
	for _, d := range eng.Diagnostics() {
		if d.Section == "Flaky" && d.Severity == telemetry.SeverityError {
			found = true
		}
	}
	if !found {
		t.Error("The ignored section's diagnostics must still be recorded")
	}
}

func TestRunAllRenderFailureIsRecorded(t *testing.T) {
	boom := sections.New("Boom", []*options.Option{},
		sections.Behavior{
			Render: func(s *sections.Section, ctx *sections.Context) error {
				return errors.New("disk full")
			},
		})

	eng, _ := newTestEngine(t, []*sections.Section{boom})
	result, err := eng.RunAll(parseSource(t, "[Boom]\n"))
	if err != nil {
		t.Fatalf("RunAll failed: %v", err)
	}
	if result.RenderOK {
		t.Error("Expected the render pass to fail")
	}

	var runErr *RunError
	if !errors.As(result.Sections[0].Err, &runErr) {
		t.Fatalf("Expected *RunError, got %T", result.Sections[0].Err)
	}
	if runErr.Pass != PassRender {
		t.Errorf("Expected pass %s, got %s", PassRender, runErr.Pass)
	}
}

func TestNewRejectsCyclicCatalog(t *testing.T) {
	catalog := []*sections.Section{
		namedSection("A", "B"),
		namedSection("B", "A"),
	}
	if _, err := New(catalog, Options{Logger: telemetry.Nop()}); err == nil {
		t.Fatal("Expected engine construction to fail on a cyclic catalog")
	}
}

func TestEngineAttributeAccessors(t *testing.T) {
	eng, _ := newTestEngine(t, sections.Catalog())
	if _, ok := eng.Attribute("OSG_HOSTNAME"); ok {
		t.Error("No attribute should be visible before the first run")
	}

	if _, err := eng.RunAll(parseSource(t, fullConfig)); err != nil {
		t.Fatalf("RunAll failed: %v", err)
	}
	v, ok := eng.Attribute("OSG_HOSTNAME")
	if !ok || v != "ce.example.edu" {
		t.Errorf("Expected OSG_HOSTNAME=ce.example.edu, got %v (present=%v)", v, ok)
	}
	if len(eng.Attributes()) == 0 {
		t.Error("Expected the published attribute set to be non-empty")
	}
}
