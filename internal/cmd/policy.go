package cmd

import (
	"fmt"
	"os"

	"github.com/zonedns/zoned/internal/semcheck"
	"gopkg.in/yaml.v2"
)

// checkPolicy is the on-disk check-policy configuration.
type checkPolicy struct {
	// Zones lists the zones to check.
	Zones []*zonePolicy `yaml:"zones"`
}

// zonePolicy describes one zone to check.
type zonePolicy struct {
	// File is the path of the textual zone file.
	File string `yaml:"file"`

	// Origin is the zone name.
	Origin string `yaml:"origin"`

	// Mode is one of "mandatory", "full", "dnssec", and "auto".
	Mode string `yaml:"mode"`
}

// readPolicy reads and validates the check-policy file at path.
func readPolicy(path string) (policy *checkPolicy, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		// Don't wrap the error, because it's informative enough as is.
		return nil, err
	}

	policy = &checkPolicy{}
	err = yaml.Unmarshal(data, policy)
	if err != nil {
		return nil, fmt.Errorf("parsing check policy %q: %w", path, err)
	}

	for i, z := range policy.Zones {
		if z.File == "" || z.Origin == "" {
			return nil, fmt.Errorf("check policy %q: zone at index %d: no file or origin", path, i)
		}

		_, err = parseMode(z.Mode)
		if err != nil {
			return nil, fmt.Errorf("check policy %q: zone %q: %w", path, z.Origin, err)
		}
	}

	return policy, nil
}

// parseMode converts the string form of a check mode into the checker
// option.  The empty string means the automatic mode.
func parseMode(mode string) (opt semcheck.Option, err error) {
	switch mode {
	case "mandatory":
		return semcheck.OptionMandatoryOnly, nil
	case "full":
		return semcheck.OptionFull, nil
	case "dnssec":
		return semcheck.OptionDNSSEC, nil
	case "auto", "":
		return semcheck.OptionAutoDNSSEC, nil
	default:
		return 0, fmt.Errorf("unknown check mode %q", mode)
	}
}
