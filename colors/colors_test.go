package colors_test

import (
	"errors"
	"math"
	"strconv"
	"testing"

	"themeport/colors"
)

func TestParse_Variants(t *testing.T) {
	tests := []struct {
		raw  string
		want colors.Color
	}{
		{"#fff", colors.Hex{R: 255, G: 255, B: 255, A: 1}},
		{"#FF0000", colors.Hex{R: 255, A: 1}},
		{"rgb(255, 0, 0)", colors.RGB{R: 255, A: 1}},
		{"rgb(255 0 0 / 50%)", colors.RGB{R: 255, A: 0.5}},
		{"rgba(17,34,51,0.5)", colors.RGB{R: 17, G: 34, B: 51, A: 0.5}},
		{"rgb(100% 0% 0%)", colors.RGB{R: 255, A: 1}},
		{"hsl(120, 100%, 50%)", colors.HSL{H: 120, S: 1, L: 0.5, A: 1}},
		{"hsl(0.5turn 50% 50%)", colors.HSL{H: 180, S: 0.5, L: 0.5, A: 1}},
		{"hsla(-90deg, 10%, 20%, 0.25)", colors.HSL{H: 270, S: 0.1, L: 0.2, A: 0.25}},
		{"220 14% 96%", colors.HSL{H: 220, S: 0.14, L: 0.96, A: 1}},
		{"oklch(1 0 0)", colors.OKLCH{L: 1, A: 1}},
		{"oklch(62% 0.2 30 / 0.8)", colors.OKLCH{L: 0.62, C: 0.2, H: 30, A: 0.8}},
		{"oklch(0.5 50% none)", colors.OKLCH{L: 0.5, C: 0.2, A: 1}},
		{"0 0 0 3px rgba(0,0,0,.1)", colors.Opaque("0 0 0 3px rgba(0,0,0,.1)")},
		{"hsl(var(--primary))", colors.Opaque("hsl(var(--primary))")},
		{"transparent", colors.Opaque("transparent")},
	}

	for _, tt := range tests {
		got, err := colors.Parse(tt.raw)
		if err != nil {
			t.Errorf("Parse(%q) unexpected error: %v", tt.raw, err)
			continue
		}
		if !same(got, tt.want) {
			t.Errorf("Parse(%q) = %#v, want %#v", tt.raw, got, tt.want)
		}
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []string{
		"",
		"   ",
		"#12",
		"#ggg",
		"#1234567",
		"rgb(1, 2)",
		"rgb(1 2 3 4)",
		"rgb(1, 2 3)",
		"hsl(10foo 50% 50%)",
		"oklch(0.5, 0.1, 20)",
		"rgb(255, 0, 0",
		"red; color: blue",
	}

	for _, raw := range tests {
		if c, err := colors.Parse(raw); err == nil {
			t.Errorf("Parse(%q) expected error, got %#v", raw, c)
		} else if !errors.Is(err, colors.ErrMalformed) {
			t.Errorf("Parse(%q) error %v does not wrap ErrMalformed", raw, err)
		}
	}
}

func TestToHex(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"#ABC", "#aabbcc"},
		{"#11223380", "#11223380"},
		{"rgba(17,34,51,0.5)", "#11223380"},
		{"rgb(17 34 51 / 1)", "#112233"},
		{"hsl(0, 100%, 50%)", "#ff0000"},
		{"hsl(120 100% 50%)", "#00ff00"},
		{"hsl(240deg 100% 50%)", "#0000ff"},
		{"0 0% 100%", "#ffffff"},
		{"oklch(1 0 0)", "#ffffff"},
		{"oklch(0 0 0)", "#000000"},
		{"oklch(0 0 0 / 0)", "#00000000"},
	}

	for _, tt := range tests {
		c, err := colors.Parse(tt.raw)
		if err != nil {
			t.Fatalf("Parse(%q) error = %v", tt.raw, err)
		}
		got, ok := colors.ToHex(c)
		if !ok || got != tt.want {
			t.Errorf("ToHex(%q) = %q, %v; want %q", tt.raw, got, ok, tt.want)
		}
	}
}

func TestToHex_OKLCHPrimaries(t *testing.T) {
	tests := []struct {
		raw     string
		r, g, b uint8
	}{
		{"oklch(0.627955 0.257683 29.2339)", 255, 0, 0},
		{"oklch(0.86644 0.294827 142.4953)", 0, 255, 0},
		{"oklch(0.452014 0.313214 264.052)", 0, 0, 255},
		{"oklch(0.5999 0 0)", 128, 128, 128},
	}

	for _, tt := range tests {
		c, err := colors.Parse(tt.raw)
		if err != nil {
			t.Fatalf("Parse(%q) error = %v", tt.raw, err)
		}
		r, g, b, _, ok := colors.RGBA(c)
		if !ok {
			t.Fatalf("RGBA(%q) not convertible", tt.raw)
		}
		if near(r, tt.r) && near(g, tt.g) && near(b, tt.b) {
			continue
		}
		t.Errorf("%s -> (%d,%d,%d), want about (%d,%d,%d)", tt.raw, r, g, b, tt.r, tt.g, tt.b)
	}
}

func TestToHex_OutOfGamutClamped(t *testing.T) {
	c, err := colors.Parse("oklch(0.7 0.4 150)")
	if err != nil {
		t.Fatal(err)
	}
	hex, ok := colors.ToHex(c)
	if !ok || len(hex) != 7 {
		t.Fatalf("expected #rrggbb, got %q", hex)
	}
	if _, err := strconv.ParseUint(hex[1:], 16, 32); err != nil {
		t.Errorf("invalid hex %q: %v", hex, err)
	}
}

func TestToHex_Opaque(t *testing.T) {
	c, err := colors.Parse("0 0 0 3px rgba(0, 0, 0, 0.1)")
	if err != nil {
		t.Fatal(err)
	}
	if colors.IsColor(c) {
		t.Error("shadow value must be opaque")
	}
	if hex, ok := colors.ToHex(c); ok {
		t.Errorf("expected opaque value to be non convertible, got %q", hex)
	}
	if c.String() != "0 0 0 3px rgba(0, 0, 0, 0.1)" {
		t.Errorf("opaque value changed: %q", c.String())
	}
}

func TestToHex6(t *testing.T) {
	c, _ := colors.Parse("#11223380")
	if hex, ok := colors.ToHex6(c); !ok || hex != "#112233" {
		t.Errorf("ToHex6() = %q, %v", hex, ok)
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"#AbC", "#aabbcc"},
		{"rgba(1, 2, 3, .5)", "rgb(1 2 3 / 0.5)"},
		{"hsl(210deg, 40%, 96.1%)", "hsl(210 40% 96.1%)"},
		{"oklch(0.5 0.1 20)", "oklch(0.5 0.1 20)"},
	}
	for _, tt := range tests {
		c, err := colors.Parse(tt.raw)
		if err != nil {
			t.Fatal(err)
		}
		if c.String() != tt.want {
			t.Errorf("String(%q) = %q, want %q", tt.raw, c.String(), tt.want)
		}
	}
}

func same(a, b colors.Color) bool {
	const eps = 1e-6
	eq := func(x, y float64) bool { return math.Abs(x-y) < eps }

	switch x := a.(type) {
	case colors.Hex:
		y, ok := b.(colors.Hex)
		return ok && x.R == y.R && x.G == y.G && x.B == y.B && eq(x.A, y.A)
	case colors.RGB:
		y, ok := b.(colors.RGB)
		return ok && eq(x.R, y.R) && eq(x.G, y.G) && eq(x.B, y.B) && eq(x.A, y.A)
	case colors.HSL:
		y, ok := b.(colors.HSL)
		return ok && eq(x.H, y.H) && eq(x.S, y.S) && eq(x.L, y.L) && eq(x.A, y.A)
	case colors.OKLCH:
		y, ok := b.(colors.OKLCH)
		return ok && eq(x.L, y.L) && eq(x.C, y.C) && eq(x.H, y.H) && eq(x.A, y.A)
	case colors.Opaque:
		y, ok := b.(colors.Opaque)
		return ok && x == y
	}
	return false
}

func near(a, b uint8) bool {
	d := int(a) - int(b)
	return d >= -1 && d <= 1
}
