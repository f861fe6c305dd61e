package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/ini.v1"
)

// IniSource is a Source backed by one or more INI files.
type IniSource struct {
	file *ini.File
}

// loadOptions returns the parsing options shared by all loaders.
// Booleans and comments follow the classic key = value dialect; values may
// contain unquoted shell-style strings (cron expressions, PATH lists).
func loadOptions() ini.LoadOptions {
	return ini.LoadOptions{
		IgnoreInlineComment:         true,
		AllowPythonMultilineValues:  true,
		SpaceBeforeInlineComment:    true,
		PreserveSurroundedQuote:     true,
		UnescapeValueDoubleQuotes:   false,
		UnescapeValueCommentSymbols: false,
	}
}

// Load reads a single INI file.
func Load(path string) (*IniSource, error) {
	f, err := ini.LoadSources(loadOptions(), path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration %s: %w", path, err)
	}
	return &IniSource{file: f}, nil
}

// LoadDir reads every *.ini file under dir, merged in lexical order so later
// files override keys set by earlier ones.
func LoadDir(dir string) (*IniSource, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.ini"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan configuration directory %s: %w", dir, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no configuration files found in %s", dir)
	}
	sort.Strings(matches)

	first := matches[0]
	rest := make([]any, 0, len(matches)-1)
	for _, m := range matches[1:] {
		rest = append(rest, m)
	}
	f, err := ini.LoadSources(loadOptions(), first, rest...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from %s: %w", dir, err)
	}
	return &IniSource{file: f}, nil
}

// Parse reads INI content from a byte slice. Used by tests and by callers
// that assemble configuration in memory.
func Parse(data []byte) (*IniSource, error) {
	f, err := ini.LoadSources(loadOptions(), data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}
	return &IniSource{file: f}, nil
}

// HasSection reports whether a block with the given name exists.
func (s *IniSource) HasSection(name string) bool {
	if name == ini.DefaultSection {
		return false
	}
	_, err := s.file.GetSection(name)
	return err == nil
}

// HasOption reports whether the given key exists inside section.
// Keys inherited from the DEFAULT block do not count as section keys.
func (s *IniSource) HasOption(section, key string) bool {
	sec, err := s.file.GetSection(section)
	if err != nil {
		return false
	}
	return sec.HasKey(key)
}

// GetRaw returns the unparsed string value for section/key.
func (s *IniSource) GetRaw(section, key string) string {
	sec, err := s.file.GetSection(section)
	if err != nil {
		return ""
	}
	if !sec.HasKey(key) {
		return ""
	}
	return sec.Key(key).String()
}

// ListOptions returns the keys of a section in declaration order.
func (s *IniSource) ListOptions(section string) []string {
	sec, err := s.file.GetSection(section)
	if err != nil {
		return nil
	}
	return sec.KeyStrings()
}

// ListSections returns all section names in declaration order, excluding the
// synthetic DEFAULT block.
func (s *IniSource) ListSections() []string {
	names := s.file.SectionStrings()
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n == ini.DefaultSection {
			continue
		}
		out = append(out, n)
	}
	return out
}

// WriteExample writes a starter configuration file when none exists, so the
// init command has something to hand the operator. Refuses to overwrite.
func WriteExample(path string, contents string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("refusing to overwrite existing %s", path)
	}
	return os.WriteFile(path, []byte(contents), 0o644)
}
