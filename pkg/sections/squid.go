package sections

import (
	"fmt"

	"github.com/edquist/osg-configure/pkg/options"
	"github.com/edquist/osg-configure/pkg/validation"
)

// SquidSection is the block name for the frontier squid proxy settings.
const SquidSection = "Squid"

// NewSquid declares the squid proxy section. The section only publishes
// attributes for other services to consume; the proxy itself is managed by
// its own package.
func NewSquid() *Section {
	return New(SquidSection,
		[]*options.Option{
			options.String("location", "UNAVAILABLE").Mapped("OSG_SQUID_LOCATION"),
			options.String("policy", "").Mapped("OSG_SQUID_POLICY"),
			options.Integer("cache_size", 0).Mapped("OSG_SQUID_CACHE_SIZE"),
			options.Integer("memory_size", 0).Mapped("OSG_SQUID_MEM_CACHE"),
		},
		Behavior{
			CrossValidate: squidCrossValidate,
		})
}

func squidCrossValidate(s *Section, ctx *Context) bool {
	location := s.Option("location").StringValue()
	if options.Blank(location) {
		return true
	}
	if !validation.ValidHostPort(location) {
		ctx.Error(s.Name, "location",
			fmt.Sprintf("location must be a host:port pair or UNAVAILABLE, got %q", location))
		return false
	}
	return true
}
