// Package config handles YAML config file loading for the handseal CLI.
package config

import (
	"os"
	"regexp"
)

// placeholder matches ${VAR} and ${VAR:-default}. VAR follows shell
// identifier rules; the default may be any text up to the closing brace.
var placeholder = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// ExpandEnv substitutes ${VAR} and ${VAR:-default} placeholders with
// environment variable values before the YAML is parsed.
//
// A variable that is unset, or set to the empty string, falls back to
// its default when one is given and to "" otherwise. Missing required
// values are not an error here; they surface when the resulting config
// is validated (an empty authority endpoint, for instance).
func ExpandEnv(input string) string {
	return placeholder.ReplaceAllStringFunc(input, func(match string) string {
		groups := placeholder.FindStringSubmatch(match)
		if groups == nil {
			return match
		}
		if v := os.Getenv(groups[1]); v != "" {
			return v
		}
		return groups[2]
	})
}
