package manifest

import (
	"github.com/gravitational/installdriver/lib/constants"

	"github.com/gravitational/trace"
	"github.com/hashicorp/go-version"
)

// EcoDefaults maps add-on components to their default version
type EcoDefaults map[string]string

var (
	legacyHiveCutoff = version.Must(version.NewVersion("5.0.0"))
	streamsCutoff    = version.Must(version.NewVersion("5.1.0"))
)

// DefaultsFor returns the add-on versions installed by default
// on the given platform version.
// Platforms before 5.0.0 get older hive and pig, platforms since 5.1.0
// also get kafka
func DefaultsFor(platformVersion string) (EcoDefaults, error) {
	v, err := version.NewVersion(platformVersion)
	if err != nil {
		return nil, trace.BadParameter("invalid platform version %q: %v", platformVersion, err)
	}
	defaults := EcoDefaults{
		constants.ComponentDrill: "1.4",
		constants.ComponentHBase: "0.98",
		constants.ComponentHive:  "1.2",
		constants.ComponentPig:   "0.15",
	}
	if v.LessThan(legacyHiveCutoff) {
		defaults[constants.ComponentHive] = "0.13"
		defaults[constants.ComponentPig] = "0.14"
	}
	if !v.LessThan(streamsCutoff) {
		defaults[constants.ComponentKafka] = "0.9.0"
	}
	return defaults, nil
}

// fallbackVersions are used for components without a computed default
var fallbackVersions = EcoDefaults{
	constants.ComponentHBase: "0.98",
	constants.ComponentHive:  "1.0",
	constants.ComponentSpark: "1.4.1",
}

// Default returns the default version of component, or an empty
// string if there is none
func (r EcoDefaults) Default(component string) string {
	if v, ok := r[component]; ok && v != "" {
		return v
	}
	return fallbackVersions[component]
}

// applyOrder is the order in which default add-ons are added
var applyOrder = []string{
	constants.ComponentHBase,
	constants.ComponentKafka,
	constants.ComponentHive,
	constants.ComponentSpark,
	constants.ComponentPig,
	constants.ComponentDrill,
}
