package tokens

import (
	"fmt"
	"maps"
	"strings"
)

// generatorPrefixes are stripped once before alias lookup: Tailwind v4 uses
// "--color-*", some generators use "--theme-*" or "--tw-*".
var generatorPrefixes = []string{"colors-", "color-", "theme-", "tw-"}

// aliases maps non canonical names (without leading "--") to canonical keys.
// Every canonical key maps to itself implicitly. Only systematic shorthands
// of canonical names live here: "bg"/"fg" abbreviations and the pre sidebar
// rename "sidebar-background". Project specific names come from
// configuration.
var aliases = map[string]Key{
	"bg":                 Background,
	"fg":                 Foreground,
	"card-bg":            Card,
	"card-fg":            CardForeground,
	"popover-bg":         Popover,
	"popover-fg":         PopoverForeground,
	"primary-fg":         PrimaryForeground,
	"secondary-fg":       SecondaryForeground,
	"muted-fg":           MutedForeground,
	"accent-fg":          AccentForeground,
	"destructive-fg":     DestructiveForeground,
	"sidebar-background": Sidebar,
	"sidebar-bg":         Sidebar,
	"sidebar-fg":         SidebarForeground,
	"sidebar-primary-fg": SidebarPrimaryForeground,
	"sidebar-accent-fg":  SidebarAccentForeground,
}

// Normalizer maps custom property names to canonical keys.
type Normalizer struct {
	table map[string]Key
}

// DefaultNormalizer uses built-in alias table only.
var DefaultNormalizer = mustNormalizer(nil)

func mustNormalizer(extra map[string]string) *Normalizer {
	n, err := NewNormalizer(extra)
	if err != nil {
		panic(err)
	}
	return n
}

// NewNormalizer builds normalizer from built-in alias table extended (or
// overridden) by extra, which maps alias to canonical key name. An alias
// pointing outside of vocabulary is an error.
func NewNormalizer(extra map[string]string) (*Normalizer, error) {
	table := make(map[string]Key, len(keys)+len(aliases)+len(extra))
	for _, k := range keys {
		table[string(k)] = k
	}
	maps.Copy(table, aliases)

	for alias, target := range extra {
		k, err := ParseKey(target)
		if err != nil {
			return nil, fmt.Errorf("alias %q: %w", alias, err)
		}
		name := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(alias), "--"))
		if name == "" {
			return nil, fmt.Errorf("empty alias for token %q", target)
		}
		table[name] = k
	}
	return &Normalizer{table: table}, nil
}

// Lookup returns canonical key for custom property name, or false when the
// name is not recognized.
func (n *Normalizer) Lookup(property string) (Key, bool) {
	name := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(property), "--"))
	if name == "" {
		return "", false
	}
	if k, ok := n.table[name]; ok {
		return k, true
	}
	for _, p := range generatorPrefixes {
		if rest, found := strings.CutPrefix(name, p); found {
			k, ok := n.table[rest]
			return k, ok
		}
	}
	return "", false
}

// Len returns number of names recognized.
func (n *Normalizer) Len() int {
	return len(n.table)
}
