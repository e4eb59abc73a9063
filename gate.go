package wisefetch

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hashicorp/go-version"
)

// MinimumRequiredNPMVersion is the oldest npm release wise-fetch supports
// when it runs inside an npm lifecycle script. Older releases ship proxy
// handling the fallback rules in this package cannot paper over.
const MinimumRequiredNPMVersion = "6.4.0"

var npmUserAgent = regexp.MustCompile(`(?:^|\s)npm/([0-9][^\s]*)`)

// VersionGate verifies the host environment before the engine initializes.
// It runs once, inside the memoized engine initialization, with the
// environment snapshot of the first request.
type VersionGate func(Env) error

// npmVersionGate is the default gate. Processes not launched by npm pass
// unconditionally; an npm-launched process with an outdated npm fails the
// whole initialization.
func npmVersionGate(env Env) error {
	userAgent := env["NPM_CONFIG_USER_AGENT"]
	execpath := env["NPM_EXECPATH"]
	if userAgent == "" && execpath == "" {
		return nil
	}

	match := npmUserAgent.FindStringSubmatch(userAgent)
	if match == nil {
		return nil
	}
	running, err := version.NewVersion(match[1])
	if err != nil {
		return nil
	}

	minimum := version.Must(version.NewVersion(MinimumRequiredNPMVersion))
	if running.LessThan(minimum) {
		detail := ""
		if execpath != "" {
			detail = fmt.Sprintf(" (%s)", execpath)
		}
		return fmt.Errorf(
			"wisefetch: requires npm >= v%s, but the currently running npm%s is v%s; update npm and retry",
			MinimumRequiredNPMVersion, detail, strings.TrimSpace(match[1]))
	}
	return nil
}
