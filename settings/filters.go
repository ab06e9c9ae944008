package settings

import (
	"fmt"
	"os"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// FilterRules decide which captured frames are admitted for fingerprinting.
type FilterRules struct {
	// hex ethertypes, e.g 0x0800
	EtherTypes []string `yaml:"ethertypes"`
	// IPv4 addresses or CIDR ranges
	Exclude []string `yaml:"exclude"`
	// exclude the capture interface's own addresses
	ExcludeLocal *bool `yaml:"exclude_local"`
}

// DefaultFilterRules derives rules from capture settings.
func DefaultFilterRules(c *DWCapture) FilterRules {
	excludeLocal := c.ExcludeLocal
	return FilterRules{
		EtherTypes:   append([]string{}, c.EtherTypes...),
		Exclude:      append([]string{}, c.ExcludeAddrs...),
		ExcludeLocal: &excludeLocal,
	}
}

// parseFilterRules merges yaml rules over base.
// Ethertypes in the file replace the base list, exclusions are added to it.
func parseFilterRules(raw []byte, base FilterRules) (FilterRules, error) {
	var fromFile FilterRules
	if err := yaml.Unmarshal(raw, &fromFile); err != nil {
		return FilterRules{}, fmt.Errorf("filter rules are not valid yaml: %w", err)
	}
	merged := base
	merged.Exclude = append([]string{}, base.Exclude...)
	merged.EtherTypes = append([]string{}, base.EtherTypes...)
	// a false exclude_local is an empty value to mergo so it is applied separately
	excludeLocal := fromFile.ExcludeLocal
	fromFile.ExcludeLocal = nil
	etherTypes := fromFile.EtherTypes
	fromFile.EtherTypes = nil
	if err := mergo.Merge(&merged, fromFile, mergo.WithAppendSlice); err != nil {
		return FilterRules{}, fmt.Errorf("could not merge filter rules: %w", err)
	}
	if len(etherTypes) > 0 {
		merged.EtherTypes = etherTypes
	}
	if excludeLocal != nil {
		merged.ExcludeLocal = excludeLocal
	}
	return merged, nil
}

// LoadFilterRules reads the rules file if one is configured.
func LoadFilterRules(c *DWCapture) (FilterRules, error) {
	base := DefaultFilterRules(c)
	if c.FilterFile == "" {
		return base, nil
	}
	raw, err := os.ReadFile(c.FilterFile)
	if err != nil {
		return FilterRules{}, fmt.Errorf("could not read filter rules %s: %w", c.FilterFile, err)
	}
	return parseFilterRules(raw, base)
}
