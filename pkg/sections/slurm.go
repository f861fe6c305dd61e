package sections

import (
	"fmt"
	"path/filepath"

	"github.com/edquist/osg-configure/pkg/options"
	"github.com/edquist/osg-configure/pkg/validation"
)

// SLURMSection is the block name for the SLURM batch system.
const SLURMSection = "SLURM"

// NewSLURM declares the SLURM job manager section. The db_* options point
// at the slurmdbd accounting database used to discover cluster state.
func NewSLURM() *Section {
	return New(SLURMSection,
		[]*options.Option{
			// SLURM is submitted through the PBS emulation layer, so the
			// location publishes under the PBS attribute name.
			options.String("slurm_location", "/usr").Mapped("OSG_PBS_LOCATION"),
			options.MandatoryString("job_contact").Mapped("OSG_JOB_CONTACT"),
			options.MandatoryString("util_contact").Mapped("OSG_UTIL_CONTACT"),
			options.Boolean("accept_limited", false),
			options.String("db_host", ""),
			options.Integer("db_port", 3306),
			options.String("db_user", "slurm"),
			options.String("db_pass", ""),
			options.String("db_name", "slurm_acct_db"),
			options.String("slurm_cluster", ""),
		},
		Behavior{
			PostParse:     slurmPostParse,
			CrossValidate: slurmCrossValidate,
			Render:        slurmRender,
		})
}

func slurmPostParse(s *Section, ctx *Context) error {
	publishJobManager(s, ctx, "SLURM", s.Option("slurm_location").StringValue())
	return nil
}

func slurmCrossValidate(s *Section, ctx *Context) bool {
	// SLURM submits through the PBS emulation, so contacts use the pbs
	// jobmanager name.
	ok := validateJobContact(s, ctx, "job_contact", "pbs")
	ok = validateJobContact(s, ctx, "util_contact", "pbs") && ok

	if location := s.Option("slurm_location").StringValue(); !validation.ValidDirectory(location) {
		ctx.Error(s.Name, "slurm_location",
			fmt.Sprintf("slurm_location directory %s does not exist", location))
		ok = false
	}

	dbHost := s.Option("db_host").StringValue()
	if !options.Blank(dbHost) {
		if !validation.ValidDomain(dbHost) || !ctx.Facts.ResolvesAsNetworkHost(dbHost) {
			ctx.Error(s.Name, "db_host",
				fmt.Sprintf("%s is not a valid domain name or does not resolve", dbHost))
			ok = false
		}
		port := s.Option("db_port").IntValue()
		if port < 1 || port > 65535 {
			ctx.Error(s.Name, "db_port", fmt.Sprintf("db_port must be between 1 and 65535, got %d", port))
			ok = false
		}
		pass := s.Option("db_pass").StringValue()
		if !options.Blank(pass) && !validation.ValidFile(pass) {
			ctx.Error(s.Name, "db_pass",
				fmt.Sprintf("db_pass must point at a file containing the database password, %s does not exist", pass))
			ok = false
		}
	}

	return ok
}

func slurmRender(s *Section, ctx *Context) error {
	binpath := filepath.Join(s.Option("slurm_location").StringValue(), "bin")
	err := writeBlahSettings(ctx,
		[]string{"slurm_binpath"},
		map[string]string{"slurm_binpath": binpath})
	if err != nil {
		return err
	}
	return announceBatchSystem(ctx, "slurm")
}
