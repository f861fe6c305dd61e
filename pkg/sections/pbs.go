package sections

import (
	"fmt"
	"path/filepath"

	"github.com/edquist/osg-configure/pkg/options"
	"github.com/edquist/osg-configure/pkg/validation"
)

// PBSSection is the block name for the PBS batch system.
const PBSSection = "PBS"

// NewPBS declares the PBS job manager section.
func NewPBS() *Section {
	return New(PBSSection,
		[]*options.Option{
			options.String("pbs_location", "/usr").Mapped("OSG_PBS_LOCATION"),
			options.MandatoryString("job_contact").Mapped("OSG_JOB_CONTACT"),
			options.MandatoryString("util_contact").Mapped("OSG_UTIL_CONTACT"),
			options.Boolean("seg_enabled", false),
			options.String("log_directory", ""),
			options.String("accounting_log_directory", ""),
			options.Boolean("accept_limited", false),
		},
		Behavior{
			PostParse:     pbsPostParse,
			CrossValidate: pbsCrossValidate,
			Render:        pbsRender,
		})
}

func pbsPostParse(s *Section, ctx *Context) error {
	publishJobManager(s, ctx, "PBS", s.Option("pbs_location").StringValue())
	return nil
}

func pbsCrossValidate(s *Section, ctx *Context) bool {
	ok := validateJobContact(s, ctx, "job_contact", "pbs")
	ok = validateJobContact(s, ctx, "util_contact", "pbs") && ok

	if location := s.Option("pbs_location").StringValue(); !validation.ValidDirectory(location) {
		ctx.Error(s.Name, "pbs_location",
			fmt.Sprintf("pbs_location directory %s does not exist", location))
		ok = false
	}

	if s.Option("seg_enabled").BoolValue() {
		logDir := s.Option("log_directory").StringValue()
		if options.Blank(logDir) || !validation.ValidDirectory(logDir) {
			ctx.Error(s.Name, "log_directory",
				fmt.Sprintf("log_directory must point at the PBS server logs when seg_enabled is true, got %q", logDir))
			ok = false
		}
	}

	return ok
}

func pbsRender(s *Section, ctx *Context) error {
	binpath := filepath.Join(s.Option("pbs_location").StringValue(), "bin")
	err := writeBlahSettings(ctx,
		[]string{"pbs_binpath", "pbs_nochecksubmission", "pbs_nologaccess"},
		map[string]string{
			"pbs_binpath":           binpath,
			"pbs_nochecksubmission": "yes",
			"pbs_nologaccess":       "yes",
		})
	if err != nil {
		return err
	}
	return announceBatchSystem(ctx, "pbs")
}
