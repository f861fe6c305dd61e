package sections

// Catalog returns every known section with its ordering constraints
// declared. Declaration order is the tie break the engine uses for
// unrelated sections, so the batch systems keep a stable relative order.
func Catalog() []*Section {
	siteInfo := NewSiteInformation()

	gateway := NewGateway()
	gateway.After = []string{SiteInformationSection}

	misc := NewMiscServices()
	misc.After = []string{GatewaySection}

	squid := NewSquid()
	squid.After = []string{MiscServicesSection}

	pbs := NewPBS()
	pbs.After = []string{GatewaySection}

	slurm := NewSLURM()
	slurm.After = []string{GatewaySection}

	sge := NewSGE()
	sge.After = []string{GatewaySection}

	infoServices := NewInfoServices()
	infoServices.After = []string{
		SiteInformationSection, GatewaySection, PBSSection, SLURMSection, SGESection,
	}

	gratia := NewGratia()
	gratia.After = []string{
		SiteInformationSection, PBSSection, SLURMSection, SGESection,
	}

	localSettings := NewLocalSettings()
	localSettings.After = []string{
		SiteInformationSection, GatewaySection, MiscServicesSection, SquidSection,
		PBSSection, SLURMSection, SGESection, InfoServicesSection, GratiaSection,
	}

	return []*Section{
		siteInfo, gateway, misc, squid, pbs, slurm, sge, infoServices, gratia, localSettings,
	}
}
