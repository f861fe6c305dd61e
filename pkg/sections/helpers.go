package sections

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// Cross-cutting flag attributes. They use dotted lower-case names so the
// attributes file, which only exports environment-style names, skips them.
const (
	// FlagHTCondorGateway is published by the Gateway section and gates
	// HTCondor-CE related artifacts in dependent sections.
	FlagHTCondorGateway = "gateway.htcondor_enabled"

	// FlagAuthorizationMethod is published by Misc Services.
	FlagAuthorizationMethod = "misc.authorization_method"

	// FlagSiteGroup is published by Site Information (OSG or OSG-ITB) and
	// selects production vs ITB defaults downstream.
	FlagSiteGroup = "site.group"
)

// JobManagerFlag names the per-backend enablement flag a job-manager
// section publishes during parse.
func JobManagerFlag(kind string) string {
	return "jobmanager." + strings.ToLower(kind) + ".enabled"
}

// readFileWithDefault returns the contents of path, or fallback when the
// file does not exist.
func readFileWithDefault(path, fallback string) (string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return fallback, nil
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// addOrReplaceSetting rewrites a key=value line in a config file body,
// appending the line when the key is absent. The value is quoted unless
// quote is false.
func addOrReplaceSetting(contents, key, value string, quote bool) string {
	line := key + "=" + value
	if quote {
		line = key + "=\"" + value + "\""
	}
	re := regexp.MustCompile(`(?m)^\s*` + regexp.QuoteMeta(key) + `\s*=.*$`)
	if re.MatchString(contents) {
		return re.ReplaceAllString(contents, line)
	}
	if contents != "" && !strings.HasSuffix(contents, "\n") {
		contents += "\n"
	}
	return contents + line + "\n"
}

// removeSetting deletes any key=value line for key from a config file body.
func removeSetting(contents, key string) string {
	re := regexp.MustCompile(`(?m)^\s*` + regexp.QuoteMeta(key) + `\s*=.*$\n?`)
	return re.ReplaceAllString(contents, "")
}

// enumList formats an allowed-value list for diagnostics.
func enumList(values []string) string {
	return strings.Join(values, ", ")
}

// conflictMessage names both fields of a mutual-exclusivity failure.
func conflictMessage(sectionA, optionA, valueA, sectionB, optionB, valueB string) string {
	return fmt.Sprintf("%s.%s=%s cannot be combined with %s.%s=%s",
		sectionA, optionA, valueA, sectionB, optionB, valueB)
}
