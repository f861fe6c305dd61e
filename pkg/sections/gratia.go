package sections

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/edquist/osg-configure/pkg/artifact"
	"github.com/edquist/osg-configure/pkg/options"
	"github.com/edquist/osg-configure/pkg/validation"
)

// GratiaSection is the block name for accounting probe reporting.
const GratiaSection = "Gratia"

// gratiaProbeConfigs maps each batch system to the probe configuration
// file its accounting probe reads. PBS reports through the pbs-lsf
// urCollector rather than a ProbeConfig.
var gratiaProbeConfigs = map[string]string{
	"pbs":   "/etc/gratia/pbs-lsf/urCollector.conf",
	"slurm": "/etc/gratia/slurm/ProbeConfig",
	"sge":   "/etc/gratia/sge/ProbeConfig",
}

// Default accounting collectors per resource group.
const (
	productionAccounting = "jobmanager:gratia-osg-prod.opensciencegrid.org:80"
	itbAccounting        = "jobmanager:gratia-osg-itb.opensciencegrid.org:80"
)

// NewGratia declares the accounting probe section. The probes default
// cascades from the resource group, and a blank resource falls back to the
// site name published by the site information section.
func NewGratia() *Section {
	return New(GratiaSection,
		[]*options.Option{
			options.String("probes", ""),
			options.String("resource", ""),
		},
		Behavior{
			AdjustDefaults: gratiaAdjustDefaults,
			PostParse:      gratiaPostParse,
			CrossValidate:  gratiaCrossValidate,
			Render:         gratiaRender,
		})
}

func gratiaAdjustDefaults(s *Section, ctx *Context) {
	if ctx.Store.StringWithDefault(FlagSiteGroup, "OSG") == "OSG-ITB" {
		s.Option("probes").Default = itbAccounting
	} else {
		s.Option("probes").Default = productionAccounting
	}
}

func gratiaPostParse(s *Section, ctx *Context) error {
	targets := parseProbeTargets(s.Option("probes").StringValue())
	if _, found := targets["metric"]; found {
		ctx.Warn(s.Name, "probes",
			"the metric probe is no longer configured here, remove it from the probes option")
	}

	if options.Blank(s.Option("resource").StringValue()) {
		if site := ctx.Store.StringWithDefault("OSG_SITE_NAME", ""); site != "" {
			s.Option("resource").Value = site
		}
	}
	return nil
}

func gratiaCrossValidate(s *Section, ctx *Context) bool {
	ok := true

	if options.Blank(s.Option("resource").StringValue()) {
		ctx.Error(s.Name, "resource",
			"no resource name for accounting records, set resource here or site_name in Site Information")
		ok = false
	}
	if _, found := ctx.Store.Lookup("OSG_HOSTNAME"); !found {
		ctx.Error(s.Name, "",
			"host_name must be set in Site Information so probes can identify this host")
		ok = false
	}

	for probe, target := range parseProbeTargets(s.Option("probes").StringValue()) {
		if !validation.ValidHostPort(target) && !validation.ValidDomain(target) {
			ctx.Error(s.Name, "probes",
				fmt.Sprintf("the collector for probe %s is not a valid host[:port]: %s", probe, target))
			ok = false
			continue
		}
		server, _, _ := strings.Cut(target, ":")
		if !ctx.Facts.ResolvesAsNetworkHost(server) {
			ctx.Warn(s.Name, "probes",
				fmt.Sprintf("the collector for probe %s does not resolve: %s", probe, server))
		}
	}

	return ok
}

// gratiaRender points the probe of every enabled batch system at the
// jobmanager collector. Probes whose batch system is not enabled are left
// alone.
func gratiaRender(s *Section, ctx *Context) error {
	collector, found := parseProbeTargets(s.Option("probes").StringValue())["jobmanager"]
	if !found {
		ctx.Info(s.Name, "probes", "no jobmanager collector configured, skipping accounting probes")
		return nil
	}

	for _, kind := range batchKinds {
		if !ctx.Store.BoolWithDefault(JobManagerFlag(kind), false) {
			continue
		}
		if err := writeGratiaProbe(s, ctx, kind, collector); err != nil {
			return err
		}
	}
	return nil
}

func writeGratiaProbe(s *Section, ctx *Context, kind, collector string) error {
	path := ctx.Paths.Resolve(gratiaProbeConfigs[kind])
	contents, err := readFileWithDefault(path, artifact.Header("#"))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	hostname := ctx.Store.StringWithDefault("OSG_HOSTNAME", "")
	contents = addOrReplaceSetting(contents, "ProbeName", kind+":"+hostname, true)
	contents = addOrReplaceSetting(contents, "SiteName", s.Option("resource").StringValue(), true)
	contents = addOrReplaceSetting(contents, "Grid", ctx.Store.StringWithDefault(FlagSiteGroup, "OSG"), true)
	contents = addOrReplaceSetting(contents, "EnableProbe", "1", true)
	contents = addOrReplaceSetting(contents, "CollectorHost", collector, true)
	contents = addOrReplaceSetting(contents, "SOAPHost", collector, true)

	switch kind {
	case "pbs":
		contents = addOrReplaceSetting(contents, "lrmsType", "pbs", true)
		if dir := rawOptionOrDefault(ctx, PBSSection, "accounting_log_directory", ""); dir != "" {
			contents = addOrReplaceSetting(contents, "pbsAcctLogDir", dir, true)
		}
	case "slurm":
		contents = addOrReplaceSetting(contents, "SlurmDbHost",
			rawOptionOrDefault(ctx, SLURMSection, "db_host", ""), true)
		contents = addOrReplaceSetting(contents, "SlurmDbPort",
			rawOptionOrDefault(ctx, SLURMSection, "db_port", "3306"), true)
		contents = addOrReplaceSetting(contents, "SlurmDbUser",
			rawOptionOrDefault(ctx, SLURMSection, "db_user", "slurm"), true)
		contents = addOrReplaceSetting(contents, "SlurmDbName",
			rawOptionOrDefault(ctx, SLURMSection, "db_name", "slurm_acct_db"), true)
		contents = addOrReplaceSetting(contents, "SlurmCluster",
			rawOptionOrDefault(ctx, SLURMSection, "slurm_cluster", ""), true)
		contents = addOrReplaceSetting(contents, "SlurmLocation",
			rawOptionOrDefault(ctx, SLURMSection, "slurm_location", "/usr"), true)
		if pass := rawOptionOrDefault(ctx, SLURMSection, "db_pass", ""); pass != "" {
			contents = addOrReplaceSetting(contents, "SlurmDbPasswordFile", pass, true)
		}
	case "sge":
		root := rawOptionOrDefault(ctx, SGESection, "sge_root", "")
		cell := rawOptionOrDefault(ctx, SGESection, "sge_cell", "default")
		if root != "" {
			accounting := filepath.Join(root, cell, "common", "accounting")
			contents = addOrReplaceSetting(contents, "SGEAccountingFile", accounting, true)
		}
	}

	return ctx.Writer.Write(artifact.Artifact{
		Path:     path,
		Contents: []byte(contents),
		Mode:     0o644,
	})
}

// parseProbeTargets splits a probes value of the form
// name:host[:port][,name:host[:port]] into a collector per probe name.
func parseProbeTargets(probes string) map[string]string {
	targets := make(map[string]string)
	for _, entry := range strings.Split(probes, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, target, found := strings.Cut(entry, ":")
		if !found {
			continue
		}
		targets[strings.TrimSpace(name)] = strings.TrimSpace(target)
	}
	return targets
}

// rawOptionOrDefault reads a raw value from another section's block,
// falling back when the block or the key is missing.
func rawOptionOrDefault(ctx *Context, section, key, fallback string) string {
	if !ctx.Source.HasOption(section, key) {
		return fallback
	}
	if v := strings.TrimSpace(ctx.Source.GetRaw(section, key)); v != "" {
		return v
	}
	return fallback
}
