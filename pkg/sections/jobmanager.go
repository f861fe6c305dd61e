package sections

import (
	"fmt"
	"strings"

	"github.com/edquist/osg-configure/pkg/artifact"
	"github.com/edquist/osg-configure/pkg/options"
	"github.com/edquist/osg-configure/pkg/validation"
)

// blahConfigPath is the BLAHP configuration file shared by every batch
// system section.
const blahConfigPath = "/etc/blah.config"

// ceBatchSystemPath announces the enabled batch system to the HTCondor-CE
// job router.
const ceBatchSystemPath = "/etc/condor-ce/config.d/30-osg-batch-systems.conf"

// publishJobManager records which batch system is in use. Only one job
// manager section is normally enabled; when several are, the last one to
// parse wins and the store logs the overwrite.
func publishJobManager(s *Section, ctx *Context, kind, home string) {
	ctx.Store.Publish(s.Name, "OSG_JOB_MANAGER", kind)
	ctx.Store.Publish(s.Name, "OSG_JOB_MANAGER_HOME", home)
	ctx.Store.Publish(s.Name, JobManagerFlag(kind), true)
}

// validateJobContact checks that a jobmanager contact option looks like
// host[:port][/jobmanager-<kind>].
func validateJobContact(s *Section, ctx *Context, optName, kind string) bool {
	contact := s.Option(optName).StringValue()
	if options.Blank(contact) {
		ctx.Error(s.Name, optName, fmt.Sprintf("%s must be given", optName))
		return false
	}
	if !validation.ValidContact(contact, kind) {
		ctx.Error(s.Name, optName,
			fmt.Sprintf("%s is not a valid %s job contact: %s", optName, kind, contact))
		return false
	}
	return true
}

// announceBatchSystem records the enabled batch system in the HTCondor-CE
// configuration. Skipped when the gateway is disabled.
func announceBatchSystem(ctx *Context, kind string) error {
	if !ctx.Store.BoolWithDefault(FlagHTCondorGateway, true) {
		return nil
	}
	path := ctx.Paths.Resolve(ceBatchSystemPath)
	contents, err := readFileWithDefault(path, artifact.Header("#"))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	contents = addOrReplaceSetting(contents, "BATCH_SYSTEMS", strings.ToLower(kind), false)
	return ctx.Writer.Write(artifact.Artifact{
		Path:     path,
		Contents: []byte(contents),
		Mode:     0o644,
	})
}

// writeBlahSettings rewrites the named keys in blah.config, preserving any
// hand-maintained settings around them.
func writeBlahSettings(ctx *Context, keys []string, values map[string]string) error {
	path := ctx.Paths.Resolve(blahConfigPath)
	contents, err := readFileWithDefault(path, artifact.Header("#"))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	for _, key := range keys {
		contents = addOrReplaceSetting(contents, key, values[key], true)
	}
	return ctx.Writer.Write(artifact.Artifact{
		Path:     path,
		Contents: []byte(contents),
		Mode:     0o644,
	})
}
