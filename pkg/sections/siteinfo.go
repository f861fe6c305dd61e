package sections

import (
	"fmt"

	"github.com/edquist/osg-configure/pkg/options"
	"github.com/edquist/osg-configure/pkg/validation"
)

// SiteInformationSection is the block name for site identity settings.
const SiteInformationSection = "Site Information"

// siteGroups are the accepted grid groups; the group picks production vs
// ITB defaults in dependent sections.
var siteGroups = []string{"OSG", "OSG-ITB"}

// NewSiteInformation declares the site identity section. Every mapped value
// ends up in the attributes file; the group additionally cascades to the
// info services defaults.
func NewSiteInformation() *Section {
	return New(SiteInformationSection,
		[]*options.Option{
			options.MandatoryString("host_name").Mapped("OSG_HOSTNAME"),
			options.MandatoryString("site_name").Mapped("OSG_SITE_NAME").Aliases("resource"),
			options.String("group", "OSG").Mapped("OSG_GROUP"),
			options.MandatoryString("sponsor").Mapped("OSG_SPONSOR"),
			options.String("site_policy", "").Mapped("OSG_SITE_INFO"),
			options.MandatoryString("contact").Mapped("OSG_CONTACT_NAME"),
			options.MandatoryString("email").Mapped("OSG_CONTACT_EMAIL"),
			options.String("city", "").Mapped("OSG_SITE_CITY"),
			options.String("country", "").Mapped("OSG_SITE_COUNTRY"),
			options.String("longitude", "").Mapped("OSG_SITE_LONGITUDE"),
			options.String("latitude", "").Mapped("OSG_SITE_LATITUDE"),
		},
		Behavior{
			PostParse:     siteInfoPostParse,
			CrossValidate: siteInfoCrossValidate,
		})
}

func siteInfoPostParse(s *Section, ctx *Context) error {
	ctx.Store.Publish(s.Name, FlagSiteGroup, s.Option("group").StringValue())
	return nil
}

func siteInfoCrossValidate(s *Section, ctx *Context) bool {
	ok := true

	group := s.Option("group").StringValue()
	if !validation.ValidEnum(group, siteGroups) {
		ctx.Error(s.Name, "group",
			fmt.Sprintf("group must be one of: %s, got %s", enumList(siteGroups), group))
		ok = false
	}

	host := s.Option("host_name").StringValue()
	if !validation.ValidDomain(host) {
		ctx.Error(s.Name, "host_name", fmt.Sprintf("%s is not a valid host name", host))
		ok = false
	} else if !ctx.Facts.ResolvesAsNetworkHost(host) {
		ctx.Error(s.Name, "host_name", fmt.Sprintf("%s does not resolve", host))
		ok = false
	}

	if email := s.Option("email").StringValue(); !validation.ValidEmail(email) {
		ctx.Error(s.Name, "email", fmt.Sprintf("%s is not a valid email address", email))
		ok = false
	}

	if lon := s.Option("longitude").StringValue(); !options.Blank(lon) && !validation.ValidLongitude(lon) {
		ctx.Error(s.Name, "longitude", fmt.Sprintf("%s is not a valid longitude", lon))
		ok = false
	}
	if lat := s.Option("latitude").StringValue(); !options.Blank(lat) && !validation.ValidLatitude(lat) {
		ctx.Error(s.Name, "latitude", fmt.Sprintf("%s is not a valid latitude", lat))
		ok = false
	}

	if sponsor := s.Option("sponsor").StringValue(); options.Blank(sponsor) {
		ctx.Error(s.Name, "sponsor", "sponsor must be given")
		ok = false
	}

	return ok
}
