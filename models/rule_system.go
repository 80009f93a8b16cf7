package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// RuleSystem identifies one ruleset/edition. Numeric values match the
// client-side enum.
type RuleSystem int

const (
	DnD2024 RuleSystem = iota
	DnD5
	Daggerheart
	IronKingdoms
)

// Unknown marks a document whose filename matched no rule.
const Unknown RuleSystem = -1

var ruleSystemNames = map[RuleSystem]string{
	DnD2024:      "DnD2024",
	DnD5:         "DnD5",
	Daggerheart:  "Daggerheart",
	IronKingdoms: "IronKingdoms",
}

// AllRuleSystems lists the known systems in enum order.
func AllRuleSystems() []RuleSystem {
	return []RuleSystem{DnD2024, DnD5, Daggerheart, IronKingdoms}
}

func (s RuleSystem) String() string {
	if name, ok := ruleSystemNames[s]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether s is one of the known systems.
func (s RuleSystem) Valid() bool {
	_, ok := ruleSystemNames[s]
	return ok
}

// ParseRuleSystem accepts a numeric value or a case-insensitive name.
// "ReinosDeFerro" is accepted as an alias of IronKingdoms.
func ParseRuleSystem(v string) (RuleSystem, error) {
	v = strings.TrimSpace(v)
	if n, err := strconv.Atoi(v); err == nil {
		s := RuleSystem(n)
		if !s.Valid() {
			return Unknown, fmt.Errorf("unknown rule system: %d", n)
		}
		return s, nil
	}

	for s, name := range ruleSystemNames {
		if strings.EqualFold(v, name) {
			return s, nil
		}
	}
	if strings.EqualFold(v, "ReinosDeFerro") {
		return IronKingdoms, nil
	}
	return Unknown, fmt.Errorf("unknown rule system: %q", v)
}

func (s RuleSystem) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *RuleSystem) UnmarshalJSON(data []byte) error {
	var raw string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	} else {
		raw = string(data)
	}

	parsed, err := ParseRuleSystem(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
