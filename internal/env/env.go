// Package env classifies the process deployment environment.
//
// The classifier fails open: anything that is not explicitly "staging" or
// "production" is treated as development, the most verbose state.
package env

import (
	"strings"

	"github.com/caarlos0/env/v11"
)

// Environment is the deployment environment of the running process.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

type processEnv struct {
	AppEnv string `env:"APP_ENV"`
}

// Classify resolves the deployment environment. A non-empty override wins;
// otherwise the APP_ENV process variable is consulted. Resolve once at
// logger construction rather than re-reading process state per call.
func Classify(override string) Environment {
	raw := override
	if raw == "" {
		var pe processEnv
		if err := env.Parse(&pe); err == nil {
			raw = pe.AppEnv
		}
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(Staging):
		return Staging
	case string(Production):
		return Production
	default:
		return Development
	}
}

// DestinationPrefix returns the display prefix applied to configured
// destination names: empty in production, "{env}-" otherwise.
func DestinationPrefix(e Environment) string {
	if e == Production {
		return ""
	}
	return string(e) + "-"
}
