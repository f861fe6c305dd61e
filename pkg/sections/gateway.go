package sections

import (
	"fmt"

	"github.com/edquist/osg-configure/pkg/options"
)

// GatewaySection is the block name for job gateway settings.
const GatewaySection = "Gateway"

// NewGateway declares the job gateway section. It is always enabled so its
// gateway flags publish even when no block appears in the input; dependent
// sections gate their HTCondor-CE artifacts on the published flag.
func NewGateway() *Section {
	s := New(GatewaySection,
		[]*options.Option{
			options.Boolean("htcondor_gateway_enabled", true),
			options.Boolean("gram_gateway_enabled", false),
			options.String("job_envvar_path", "/bin:/usr/bin:/sbin:/usr/sbin").Mapped("PATH"),
		},
		Behavior{
			PostParse: gatewayPostParse,
		})
	s.AlwaysEnabled = true
	return s
}

func gatewayPostParse(s *Section, ctx *Context) error {
	// GRAM was retired; a configuration that still asks for it is stale
	// enough to stop this section's parse rather than quietly ignore.
	if s.Option("gram_gateway_enabled").BoolValue() {
		ctx.Error(s.Name, "gram_gateway_enabled", "the GRAM gateway is no longer supported")
		return fmt.Errorf("section %s: the GRAM gateway is no longer supported", s.Name)
	}
	ctx.Store.Publish(s.Name, FlagHTCondorGateway, s.Option("htcondor_gateway_enabled").BoolValue())
	return nil
}
