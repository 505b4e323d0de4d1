package featureflags

import (
	"os"
	"strings"
)

// Known flags
const (
	// DemoSeed loads the demo admins, flats and tenants into an empty store at startup
	DemoSeed = "demo_seed"
	// WSNotifications enables the /ws/notifications stream
	WSNotifications = "ws_notifications"
)

// Lookup reads an environment variable; swapped in tests
var Lookup = os.Getenv

// Enabled returns true if a flag is enabled via environment variable.
// Flags are read from env as FLAG_<NAME>=true/1/yes (case-insensitive)
func Enabled(name string) bool {
	return parse(Lookup("FLAG_"+strings.ToUpper(name)), false)
}

// EnabledOr is Enabled with a default for an unset flag
func EnabledOr(name string, def bool) bool {
	return parse(Lookup("FLAG_"+strings.ToUpper(name)), def)
}

func parse(v string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}
