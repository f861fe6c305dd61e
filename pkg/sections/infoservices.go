package sections

import (
	"fmt"
	"strings"

	"github.com/edquist/osg-configure/pkg/artifact"
	"github.com/edquist/osg-configure/pkg/options"
	"github.com/edquist/osg-configure/pkg/validation"
)

// InfoServicesSection is the block name for central collector reporting.
const InfoServicesSection = "Info Services"

// ceCollectorsPath receives the collector list consumed by the HTCondor-CE.
const ceCollectorsPath = "/etc/condor-ce/config.d/10-osg-collectors.conf"

// Default collector endpoints per resource group. The operator can also
// write the literals PRODUCTION or ITB to pick a set explicitly.
const (
	productionCollectors = "collector1.opensciencegrid.org:9619,collector2.opensciencegrid.org:9619"
	itbCollectors        = "collector-itb.opensciencegrid.org:9619"
)

// batchKinds are the job manager kinds whose sections may enable the CE.
var batchKinds = []string{"pbs", "slurm", "sge"}

// NewInfoServices declares the info services section. Its collector default
// cascades from the resource group published by the site information
// section, which is why that section must parse first.
func NewInfoServices() *Section {
	return New(InfoServicesSection,
		[]*options.Option{
			options.String("ce_collectors", ""),
			options.String("bdii_servers", ""),
		},
		Behavior{
			AdjustDefaults: infoServicesAdjustDefaults,
			PostParse:      infoServicesPostParse,
			CrossValidate:  infoServicesCrossValidate,
			Render:         infoServicesRender,
		})
}

// infoServicesAdjustDefaults picks the collector default for the site's
// resource group before option resolution, so an explicit ce_collectors
// value still wins.
func infoServicesAdjustDefaults(s *Section, ctx *Context) {
	group := ctx.Store.StringWithDefault(FlagSiteGroup, "OSG")
	if group == "OSG-ITB" {
		s.Option("ce_collectors").Default = itbCollectors
	} else {
		s.Option("ce_collectors").Default = productionCollectors
	}
}

func infoServicesPostParse(s *Section, ctx *Context) error {
	if bdii := s.Option("bdii_servers").StringValue(); !options.Blank(bdii) {
		ctx.Warn(s.Name, "bdii_servers", "BDII reporting is retired, bdii_servers is ignored")
	}

	// Expand the PRODUCTION and ITB shorthands into concrete endpoints.
	switch strings.TrimSpace(s.Option("ce_collectors").StringValue()) {
	case "PRODUCTION":
		s.Option("ce_collectors").Value = productionCollectors
	case "ITB":
		s.Option("ce_collectors").Value = itbCollectors
	}
	return nil
}

func infoServicesCrossValidate(s *Section, ctx *Context) bool {
	ok := true
	for _, endpoint := range splitQueues(s.Option("ce_collectors").StringValue()) {
		if !validation.ValidHostPort(endpoint) && !validation.ValidDomain(endpoint) {
			ctx.Error(s.Name, "ce_collectors",
				fmt.Sprintf("%s is not a valid collector endpoint", endpoint))
			ok = false
		}
	}
	return ok
}

func infoServicesRender(s *Section, ctx *Context) error {
	if !ctx.Store.BoolWithDefault(FlagHTCondorGateway, true) {
		ctx.Info(s.Name, "", "not configuring CE collectors because the HTCondor-CE gateway is disabled")
		return nil
	}
	if !anyJobManagerEnabled(ctx) {
		ctx.Info(s.Name, "", "not configuring CE collectors because no job manager section is enabled")
		return nil
	}

	collectors := s.Option("ce_collectors").StringValue()
	contents := artifact.Header("#") +
		fmt.Sprintf("CONDOR_VIEW_HOST = %s\n", collectors) +
		"CCB_ADDRESS = $(CONDOR_VIEW_HOST)\n"
	return ctx.Writer.Write(artifact.Artifact{
		Path:     ctx.Paths.Resolve(ceCollectorsPath),
		Contents: []byte(contents),
		Mode:     0o644,
	})
}

func anyJobManagerEnabled(ctx *Context) bool {
	for _, kind := range batchKinds {
		if ctx.Store.BoolWithDefault(JobManagerFlag(kind), false) {
			return true
		}
	}
	return false
}
