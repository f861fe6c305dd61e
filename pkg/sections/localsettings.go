package sections

import "github.com/edquist/osg-configure/pkg/options"

// LocalSettingsSection is the passthrough block for site-local attributes.
const LocalSettingsSection = "Local Settings"

// NewLocalSettings declares the local settings section. It declares no
// options of its own; every key in the block is published verbatim, after
// all other sections so local values win any attribute collision.
func NewLocalSettings() *Section {
	s := New(LocalSettingsSection, []*options.Option{}, Behavior{})
	s.DynamicKeys = true
	return s
}
