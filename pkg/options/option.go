package options

import (
	"strconv"
	"strings"
)

// Kind is the primitive type of an option value.
type Kind string

const (
	// KindString accepts any raw value unchanged.
	KindString Kind = "string"

	// KindBoolean accepts a fixed case-insensitive vocabulary:
	// true/false, yes/no, 1/0.
	KindBoolean Kind = "boolean"

	// KindInteger requires a full-string base-10 parse.
	KindInteger Kind = "integer"
)

// Requiredness says whether a missing raw value is an error.
type Requiredness int

const (
	// Mandatory options with no raw value and no default fail resolution.
	Mandatory Requiredness = iota

	// Optional options fall back to their declared default when absent.
	Optional
)

// Option is one declared, typed setting owned by a section.
type Option struct {
	// Name is the option's key, unique within its owning section.
	Name string

	// Kind is the primitive type the raw value must coerce to.
	Kind Kind

	// Required controls the missing-value behavior.
	Required Requiredness

	// Default is the typed value used when the raw value is absent and the
	// option is Optional.
	Default any

	// MappedAttribute is the external name under which the resolved value
	// is published to the attribute store. Empty means section-local.
	MappedAttribute string

	// DeprecatedKeys are alternate raw keys accepted with a warning when
	// Name itself is absent from the raw block.
	DeprecatedKeys []string

	// RawValue is the as-read string, set during resolution when present.
	RawValue string

	// Value is the coerced typed value after a successful Resolve.
	Value any

	// resolved tracks whether Resolve has run for this option.
	resolved bool
}

// String declares an optional string option with a default.
func String(name, defaultValue string) *Option {
	return &Option{Name: name, Kind: KindString, Required: Optional, Default: defaultValue}
}

// MandatoryString declares a required string option.
func MandatoryString(name string) *Option {
	return &Option{Name: name, Kind: KindString, Required: Mandatory}
}

// Boolean declares an optional boolean option with a default.
func Boolean(name string, defaultValue bool) *Option {
	return &Option{Name: name, Kind: KindBoolean, Required: Optional, Default: defaultValue}
}

// Integer declares an optional integer option with a default.
func Integer(name string, defaultValue int) *Option {
	return &Option{Name: name, Kind: KindInteger, Required: Optional, Default: defaultValue}
}

// Mapped sets the published attribute name and returns the option.
func (o *Option) Mapped(attribute string) *Option {
	o.MappedAttribute = attribute
	return o
}

// Aliases registers deprecated raw keys and returns the option.
func (o *Option) Aliases(keys ...string) *Option {
	o.DeprecatedKeys = append(o.DeprecatedKeys, keys...)
	return o
}

// Coerce converts a raw string into the typed value for kind.
// It never substitutes a default for a malformed value.
func Coerce(raw string, kind Kind) (any, error) {
	switch kind {
	case KindString:
		return raw, nil
	case KindBoolean:
		switch strings.ToLower(strings.TrimSpace(raw)) {
		case "true", "yes", "1":
			return true, nil
		case "false", "no", "0":
			return false, nil
		}
		return nil, &CoercionError{Option: "", RawValue: raw, Kind: kind}
	case KindInteger:
		v, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return nil, &CoercionError{Option: "", RawValue: raw, Kind: kind}
		}
		return v, nil
	}
	return nil, &CoercionError{Option: "", RawValue: raw, Kind: kind}
}

// Resolve sets the option's typed value from the raw string, or from the
// declared default when the raw value is absent. A mandatory option with no
// raw value and no default yields a RequirednessError; a malformed raw value
// yields a CoercionError and the option acquires no value.
func (o *Option) Resolve(raw string, present bool) error {
	if !present {
		if o.Required == Mandatory && o.Default == nil {
			return &RequirednessError{Option: o.Name}
		}
		o.Value = o.Default
		o.resolved = true
		return nil
	}
	o.RawValue = raw
	v, err := Coerce(raw, o.Kind)
	if err != nil {
		var cerr *CoercionError
		if AsCoercionError(err, &cerr) {
			cerr.Option = o.Name
			return cerr
		}
		return err
	}
	o.Value = v
	o.resolved = true
	return nil
}

// Resolved reports whether the option has a resolved value.
func (o *Option) Resolved() bool {
	return o.resolved
}

// StringValue returns the resolved value as a string.
// Non-string kinds are formatted the way the attributes file expects.
func (o *Option) StringValue() string {
	switch v := o.Value.(type) {
	case string:
		return v
	case bool:
		if v {
			return "Y"
		}
		return "N"
	case int:
		return strconv.Itoa(v)
	}
	return ""
}

// BoolValue returns the resolved value as a bool, false when unresolved.
func (o *Option) BoolValue() bool {
	v, _ := o.Value.(bool)
	return v
}

// IntValue returns the resolved value as an int, zero when unresolved.
func (o *Option) IntValue() int {
	v, _ := o.Value.(int)
	return v
}

// Blank reports whether a string value counts as unset. The configuration
// format uses the literals UNAVAILABLE and DEFAULT as explicit "no value"
// markers in addition to the empty string.
func Blank(value string) bool {
	upper := strings.ToUpper(strings.TrimSpace(value))
	return upper == "" || upper == "DEFAULT" || strings.HasPrefix(upper, "UNAVAILABLE")
}
