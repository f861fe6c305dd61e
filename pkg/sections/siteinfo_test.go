package sections

import (
	"testing"

	"github.com/edquist/osg-configure/pkg/system"
)

func TestSiteInformationCrossValidate(t *testing.T) {
	tests := []struct {
		name  string
		block string
		valid bool
	}{
		{
			name:  "complete and valid",
			block: siteInfoBlock,
			valid: true,
		},
		{
			name:  "bad group",
			block: siteInfoBlock + "group = OSG-STAGING\n",
			valid: false,
		},
		{
			name:  "itb group",
			block: siteInfoBlock + "group = OSG-ITB\n",
			valid: true,
		},
		{
			name: "bad email",
			block: `[Site Information]
host_name = ce.example.edu
site_name = EXAMPLE_CE
sponsor = osg
contact = Site Admin
email = not-an-address
`,
			valid: false,
		},
		{
			name:  "out of range latitude",
			block: siteInfoBlock + "latitude = 123.4\n",
			valid: false,
		},
		{
			name:  "valid coordinates",
			block: siteInfoBlock + "latitude = 43.07\nlongitude = -89.40\n",
			valid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, _, _ := newTestContext(t, tt.block)
			s := NewSiteInformation()
			if err := s.Parse(ctx); err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			ok, err := s.CrossValidate(ctx)
			if err != nil {
				t.Fatalf("CrossValidate failed: %v", err)
			}
			if ok != tt.valid {
				t.Errorf("Expected valid=%v, got %v", tt.valid, ok)
			}
		})
	}
}

func TestSiteInformationUnresolvableHost(t *testing.T) {
	ctx, _, _ := newTestContext(t, siteInfoBlock)
	ctx.Facts = &system.Static{} // nothing resolves
	s := NewSiteInformation()
	if err := s.Parse(ctx); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	ok, err := s.CrossValidate(ctx)
	if err != nil {
		t.Fatalf("CrossValidate failed: %v", err)
	}
	if ok {
		t.Error("Expected cross-validation to fail for an unresolvable host")
	}
}

func TestSiteInformationResourceAlias(t *testing.T) {
	raw := `[Site Information]
host_name = ce.example.edu
resource = EXAMPLE_CE
sponsor = osg
contact = Site Admin
email = admin@example.edu
`
	ctx, diag, _ := newTestContext(t, raw)
	s := NewSiteInformation()
	if err := s.Parse(ctx); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got := s.Option("site_name").StringValue(); got != "EXAMPLE_CE" {
		t.Errorf("Expected the resource alias to feed site_name, got %q", got)
	}
	if !hasWarningContaining(diag, "deprecated") {
		t.Error("Expected a deprecation warning for the resource key")
	}
}
