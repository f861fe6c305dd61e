package config

// Source is the read-only view of the raw configuration the engine resolves
// against. Implementations must preserve file order for ListOptions and
// ListSections so diagnostics are stable across runs.
type Source interface {
	// HasSection reports whether a block with the given name exists.
	HasSection(name string) bool

	// HasOption reports whether the given key exists inside section.
	HasOption(section, key string) bool

	// GetRaw returns the unparsed string value for section/key.
	// The empty string is returned when the key is absent.
	GetRaw(section, key string) string

	// ListOptions returns the keys of a section in declaration order.
	ListOptions(section string) []string

	// ListSections returns all section names in declaration order.
	ListSections() []string
}
