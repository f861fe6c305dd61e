package sections

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/edquist/osg-configure/pkg/options"
	"github.com/edquist/osg-configure/pkg/validation"
)

// SGESection is the block name for the Grid Engine batch system.
const SGESection = "SGE"

// NewSGE declares the Grid Engine job manager section.
func NewSGE() *Section {
	return New(SGESection,
		[]*options.Option{
			options.MandatoryString("sge_root").Mapped("OSG_SGE_ROOT"),
			options.MandatoryString("job_contact").Mapped("OSG_JOB_CONTACT"),
			options.MandatoryString("util_contact").Mapped("OSG_UTIL_CONTACT"),
			options.Boolean("accept_limited", false),
			options.String("sge_cell", "default").Mapped("OSG_SGE_CELL"),
			options.String("sge_config", "/etc/sysconfig/gridengine"),
			options.String("sge_bin_location", ""),
			options.Boolean("seg_enabled", false),
			options.String("default_queue", ""),
			options.Boolean("validate_queues", false),
			options.String("available_queues", ""),
			options.String("log_directory", ""),
		},
		Behavior{
			AdjustDefaults: sgeAdjustDefaults,
			PostParse:      sgePostParse,
			CrossValidate:  sgeCrossValidate,
			Render:         sgeRender,
		})
}

// sgeAdjustDefaults derives the binary location from sge_root when the
// operator did not give one.
func sgeAdjustDefaults(s *Section, ctx *Context) {
	if !ctx.Source.HasOption(s.Name, "sge_root") {
		return
	}
	if root := ctx.Source.GetRaw(s.Name, "sge_root"); root != "" {
		s.Option("sge_bin_location").Default = filepath.Join(root, "bin")
	}
}

func sgePostParse(s *Section, ctx *Context) error {
	publishJobManager(s, ctx, "SGE", s.Option("sge_root").StringValue())
	return nil
}

func sgeCrossValidate(s *Section, ctx *Context) bool {
	ok := validateJobContact(s, ctx, "job_contact", "sge")
	ok = validateJobContact(s, ctx, "util_contact", "sge") && ok

	root := s.Option("sge_root").StringValue()
	if !validation.ValidDirectory(root) {
		ctx.Error(s.Name, "sge_root", fmt.Sprintf("sge_root directory %s does not exist", root))
		ok = false
	} else {
		cell := s.Option("sge_cell").StringValue()
		settings := filepath.Join(root, cell, "common", "settings.sh")
		if !validation.ValidFile(settings) {
			ctx.Error(s.Name, "sge_cell",
				fmt.Sprintf("%s not found, check sge_root and sge_cell", settings))
			ok = false
		}
	}

	if s.Option("validate_queues").BoolValue() {
		defaultQueue := s.Option("default_queue").StringValue()
		available := splitQueues(s.Option("available_queues").StringValue())
		if defaultQueue != "" && len(available) > 0 && !validation.ValidEnum(defaultQueue, available) {
			ctx.Error(s.Name, "default_queue",
				fmt.Sprintf("default_queue %s is not in available_queues", defaultQueue))
			ok = false
		}
	}

	if s.Option("seg_enabled").BoolValue() {
		logDir := s.Option("log_directory").StringValue()
		if options.Blank(logDir) || !validation.ValidDirectory(logDir) {
			ctx.Error(s.Name, "log_directory",
				fmt.Sprintf("log_directory must point at the Grid Engine reporting logs when seg_enabled is true, got %q", logDir))
			ok = false
		}
	}

	return ok
}

func sgeRender(s *Section, ctx *Context) error {
	root := s.Option("sge_root").StringValue()
	cell := s.Option("sge_cell").StringValue()
	err := writeBlahSettings(ctx,
		[]string{"sge_root", "sge_cellname", "sge_binpath"},
		map[string]string{
			"sge_root":     root,
			"sge_cellname": cell,
			"sge_binpath":  s.Option("sge_bin_location").StringValue(),
		})
	if err != nil {
		return err
	}
	return announceBatchSystem(ctx, "sge")
}

func splitQueues(raw string) []string {
	var queues []string
	for _, q := range strings.Split(raw, ",") {
		if q = strings.TrimSpace(q); q != "" {
			queues = append(queues, q)
		}
	}
	return queues
}
