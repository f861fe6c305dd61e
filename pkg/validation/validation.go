// Package validation provides the domain checks cross-validation is built
// from: filesystem locations, network contact strings, host names, and the
// handful of field formats sections care about.
package validation

import (
	"os"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidLocation reports whether path names an existing file or directory.
func ValidLocation(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// ValidFile reports whether path names an existing regular file.
func ValidFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// ValidDirectory reports whether path names an existing directory.
func ValidDirectory(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// ValidDomain reports whether host is a syntactically valid fully qualified
// domain name. Resolution is checked separately through the facts provider.
func ValidDomain(host string) bool {
	return validate.Var(host, "required,fqdn") == nil
}

// ValidHostPort reports whether s is host:port with a valid host and a
// numeric port.
func ValidHostPort(s string) bool {
	return validate.Var(s, "required,hostname_port") == nil
}

// ValidEmail reports whether s is a syntactically valid email address.
func ValidEmail(s string) bool {
	return validate.Var(s, "required,email") == nil
}

// ValidLatitude reports whether s parses as a latitude in [-90, 90].
func ValidLatitude(s string) bool {
	return validate.Var(s, "required,latitude") == nil
}

// ValidLongitude reports whether s parses as a longitude in [-180, 180].
func ValidLongitude(s string) bool {
	return validate.Var(s, "required,longitude") == nil
}

// ValidContact reports whether contact is a valid job-manager contact string
// of the form host[:port]/jobmanager-<kind> for the given kind.
func ValidContact(contact, kind string) bool {
	parts := strings.SplitN(contact, "/", 2)
	if len(parts) != 2 {
		return false
	}
	host := parts[0]
	if !ValidDomain(host) && !ValidHostPort(host) {
		return false
	}
	return parts[1] == "jobmanager-"+kind
}

var cronFieldRe = regexp.MustCompile(`^[0-9*,/-]+$`)

// ValidCronTime reports whether s is a 5-field cron time specification.
// Only the field count and character set are checked; full cron semantics
// belong to cron itself.
func ValidCronTime(s string) bool {
	fields := strings.Fields(s)
	if len(fields) != 5 {
		return false
	}
	for _, f := range fields {
		if !cronFieldRe.MatchString(f) {
			return false
		}
	}
	return true
}

// ValidEnum reports whether value is one of the allowed values.
func ValidEnum(value string, allowed []string) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}
