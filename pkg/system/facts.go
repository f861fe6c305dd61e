// Package system provides the facts collaborators the resolution engine
// queries about the machine it is configuring: installed packages, enabled
// services, and host name resolution.
package system

import (
	"net"
	"os/exec"
	"strings"
)

// Facts answers questions about the local system. The engine only consumes
// this interface; tests substitute Static.
type Facts interface {
	// IsPackageInstalled reports whether the named package is installed.
	IsPackageInstalled(name string) bool

	// IsServiceEnabled reports whether the named service is enabled.
	IsServiceEnabled(name string) bool

	// ResolvesAsNetworkHost reports whether name resolves in DNS or hosts.
	ResolvesAsNetworkHost(name string) bool
}

// LocalFacts queries the running system through rpm, systemctl and the
// resolver. Queries are synchronous, blocking calls; timeout policy belongs
// to the caller's process, not here.
type LocalFacts struct{}

// NewLocalFacts creates a provider for the local machine.
func NewLocalFacts() *LocalFacts {
	return &LocalFacts{}
}

// IsPackageInstalled implements Facts via the rpm database.
func (f *LocalFacts) IsPackageInstalled(name string) bool {
	if name == "" {
		return false
	}
	return exec.Command("rpm", "-q", name).Run() == nil
}

// IsServiceEnabled implements Facts via systemctl.
func (f *LocalFacts) IsServiceEnabled(name string) bool {
	if name == "" {
		return false
	}
	out, err := exec.Command("systemctl", "is-enabled", name).Output()
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(out)) == "enabled"
}

// ResolvesAsNetworkHost implements Facts via the system resolver.
func (f *LocalFacts) ResolvesAsNetworkHost(name string) bool {
	if name == "" {
		return false
	}
	addrs, err := net.LookupHost(name)
	return err == nil && len(addrs) > 0
}

// Static is a deterministic Facts implementation for tests and dry runs.
type Static struct {
	// Packages lists installed package names.
	Packages []string

	// Services lists enabled service names.
	Services []string

	// Hosts lists names that resolve.
	Hosts []string

	// ResolveAll makes every non-empty name resolve, so verification runs
	// can be made independent of the local resolver.
	ResolveAll bool
}

// IsPackageInstalled implements Facts.
func (s *Static) IsPackageInstalled(name string) bool {
	return contains(s.Packages, name)
}

// IsServiceEnabled implements Facts.
func (s *Static) IsServiceEnabled(name string) bool {
	return contains(s.Services, name)
}

// ResolvesAsNetworkHost implements Facts.
func (s *Static) ResolvesAsNetworkHost(name string) bool {
	if s.ResolveAll {
		return name != ""
	}
	return contains(s.Hosts, name)
}

func contains(list []string, name string) bool {
	for _, v := range list {
		if v == name {
			return true
		}
	}
	return false
}
