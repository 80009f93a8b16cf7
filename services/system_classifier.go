package services

import (
	"path/filepath"
	"strings"

	"volos-codex/models"
)

type matchKind int

const (
	matchContains matchKind = iota
	matchPrefix
)

type classifierRule struct {
	kind    matchKind
	pattern string
	system  models.RuleSystem
}

// Checked in order against the lower-cased base name; the first match wins.
// "dnd2024" must come before the "dnd5" family.
var classifierRules = []classifierRule{
	{matchContains, "dnd2024", models.DnD2024},
	{matchContains, "dnd5e", models.DnD5},
	{matchContains, "dnd5", models.DnD5},
	{matchContains, "daggerheart", models.Daggerheart},
	{matchPrefix, "dh", models.Daggerheart},
	{matchContains, "reinos", models.IronKingdoms},
	{matchContains, "ironkingdoms", models.IronKingdoms},
	{matchPrefix, "ik", models.IronKingdoms},
}

// ClassifySystem maps a book's filename to its rule system, or
// models.Unknown when no rule matches.
func ClassifySystem(filename string) models.RuleSystem {
	name := strings.ToLower(filepath.Base(filename))
	for _, rule := range classifierRules {
		switch rule.kind {
		case matchContains:
			if strings.Contains(name, rule.pattern) {
				return rule.system
			}
		case matchPrefix:
			if strings.HasPrefix(name, rule.pattern) {
				return rule.system
			}
		}
	}
	return models.Unknown
}
