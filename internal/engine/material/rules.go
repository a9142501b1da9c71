package material

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ErrInvalidRule is returned for rules with an empty or malformed pattern.
var ErrInvalidRule = errors.New("invalid legacy lightmap rule")

// Rule maps mesh node names to a replacement for a baked lightmap group.
//
// Pattern is an unanchored regular expression tested against the node name
// and against the node name with a "_<groupIndex>" suffix. An empty Material
// keeps the group's own material name.
type Rule struct {
	Pattern  string `yaml:"pattern"`
	Material string `yaml:"material,omitempty"`
	Skip     bool   `yaml:"skip,omitempty"`
}

type compiledRule struct {
	Rule
	re *regexp.Regexp
}

// RuleTable is an ordered list of legacy lightmap rules. The first
// matching rule wins. A nil table matches nothing.
type RuleTable struct {
	rules []compiledRule
}

// CompileRules validates and compiles rules, preserving order.
func CompileRules(rules []Rule) (*RuleTable, error) {
	t := &RuleTable{rules: make([]compiledRule, 0, len(rules))}
	for i, r := range rules {
		if r.Pattern == "" {
			return nil, fmt.Errorf("%w: rule %d has no pattern", ErrInvalidRule, i)
		}
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: rule %d: %w", ErrInvalidRule, i, err)
		}
		t.rules = append(t.rules, compiledRule{Rule: r, re: re})
	}
	return t, nil
}

// ParseRules decodes a YAML list of rules.
func ParseRules(data []byte) (*RuleTable, error) {
	var rules []Rule
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("parsing rules: %w", err)
	}
	return CompileRules(rules)
}

// LoadRules reads a YAML rule file.
func LoadRules(path string) (*RuleTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules: %w", err)
	}
	return ParseRules(data)
}

// Len returns the number of rules.
func (t *RuleTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rules)
}

// Rules returns a copy of the rules in match order.
func (t *RuleTable) Rules() []Rule {
	if t == nil {
		return nil
	}
	out := make([]Rule, len(t.rules))
	for i := range t.rules {
		out[i] = t.rules[i].Rule
	}
	return out
}

// LightmapMatch is the outcome of matching a baked lightmap group.
type LightmapMatch struct {
	Material string
	Skip     bool
	Pattern  string
}

// MatchLegacyLightmap finds the replacement for group groupIndex of node
// nodeName whose document material is groupMaterial. ok is false when no
// rule matches.
func (t *RuleTable) MatchLegacyLightmap(nodeName string, groupIndex int, groupMaterial string) (m LightmapMatch, ok bool) {
	if t == nil {
		return LightmapMatch{}, false
	}
	suffixed := nodeName + "_" + strconv.Itoa(groupIndex)
	for i := range t.rules {
		r := &t.rules[i]
		if !r.re.MatchString(nodeName) && !r.re.MatchString(suffixed) {
			continue
		}
		name := groupMaterial
		if r.Material != "" {
			name = r.Material
		}
		// The renderer's lightmap material is registered as "lmap".
		if name == "lightmap" {
			name = "lmap"
		}
		return LightmapMatch{Material: name, Skip: r.Skip, Pattern: r.Pattern}, true
	}
	return LightmapMatch{}, false
}
