// Package tokens defines the closed vocabulary of theme tokens and maps CSS
// custom property names used by various theme generators onto it.
package tokens

import (
	"fmt"
	"slices"
	"strings"
)

// Key is a canonical theme token name.
type Key string

const (
	Background               Key = "background"
	Foreground               Key = "foreground"
	Card                     Key = "card"
	CardForeground           Key = "card-foreground"
	Popover                  Key = "popover"
	PopoverForeground        Key = "popover-foreground"
	Primary                  Key = "primary"
	PrimaryForeground        Key = "primary-foreground"
	Secondary                Key = "secondary"
	SecondaryForeground      Key = "secondary-foreground"
	Muted                    Key = "muted"
	MutedForeground          Key = "muted-foreground"
	Accent                   Key = "accent"
	AccentForeground         Key = "accent-foreground"
	Destructive              Key = "destructive"
	DestructiveForeground    Key = "destructive-foreground"
	Border                   Key = "border"
	Input                    Key = "input"
	Ring                     Key = "ring"
	ShadowFocus              Key = "shadow-focus"
	Chart1                   Key = "chart-1"
	Chart2                   Key = "chart-2"
	Chart3                   Key = "chart-3"
	Chart4                   Key = "chart-4"
	Chart5                   Key = "chart-5"
	Sidebar                  Key = "sidebar"
	SidebarForeground        Key = "sidebar-foreground"
	SidebarPrimary           Key = "sidebar-primary"
	SidebarPrimaryForeground Key = "sidebar-primary-foreground"
	SidebarAccent            Key = "sidebar-accent"
	SidebarAccentForeground  Key = "sidebar-accent-foreground"
	SidebarBorder            Key = "sidebar-border"
	SidebarRing              Key = "sidebar-ring"
)

// keys in canonical order, this order is used whenever tokens are enumerated.
var keys = []Key{
	Background, Foreground,
	Card, CardForeground,
	Popover, PopoverForeground,
	Primary, PrimaryForeground,
	Secondary, SecondaryForeground,
	Muted, MutedForeground,
	Accent, AccentForeground,
	Destructive, DestructiveForeground,
	Border, Input, Ring, ShadowFocus,
	Chart1, Chart2, Chart3, Chart4, Chart5,
	Sidebar, SidebarForeground,
	SidebarPrimary, SidebarPrimaryForeground,
	SidebarAccent, SidebarAccentForeground,
	SidebarBorder, SidebarRing,
}

var keyIndex = func() map[Key]int {
	m := make(map[Key]int, len(keys))
	for i, k := range keys {
		m[k] = i
	}
	return m
}()

// Keys returns all canonical keys in canonical order.
func Keys() []Key {
	return slices.Clone(keys)
}

// Valid reports whether k belongs to the vocabulary.
func (k Key) Valid() bool {
	_, ok := keyIndex[k]
	return ok
}

// Index returns position of k in canonical order, -1 for unknown keys.
func (k Key) Index() int {
	if i, ok := keyIndex[k]; ok {
		return i
	}
	return -1
}

// IsColor reports whether the token is expected to hold a color. Everything
// except focus shadow does.
func (k Key) IsColor() bool {
	return k != ShadowFocus
}

func (k Key) String() string {
	return string(k)
}

// CustomProperty returns CSS custom property name for the token.
func (k Key) CustomProperty() string {
	return "--" + string(k)
}

// ParseKey converts canonical name to Key.
func ParseKey(name string) (Key, error) {
	k := Key(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "--")))
	if !k.Valid() {
		return "", fmt.Errorf("unknown theme token %q", name)
	}
	return k, nil
}

// Compare orders keys canonically, unknown keys go last in lexical order.
func Compare(a, b Key) int {
	ia, ib := a.Index(), b.Index()
	switch {
	case ia >= 0 && ib >= 0:
		return ia - ib
	case ia >= 0:
		return -1
	case ib >= 0:
		return 1
	default:
		return strings.Compare(string(a), string(b))
	}
}
