// Package config provides the raw configuration source the resolution engine
// reads from: an ordered key/value view over one or more INI files. The
// engine only depends on the Source interface; the INI implementation is a
// collaborator detail.
package config
