package colors

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

type token struct {
	tt   css.TokenType
	data string
}

func (t token) is(tt css.TokenType, data string) bool {
	return t.tt == tt && t.data == data
}

// Parse classifies raw CSS value. Recognized color syntaxes are parsed into
// their variant, any other lexically valid value becomes Opaque. Error is
// returned for empty or lexically broken values and for recognized color
// syntax with unparsable channels.
func Parse(raw string) (Color, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty value", ErrMalformed)
	}

	toks, err := tokenize(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrMalformed, raw, err)
	}
	if len(toks) == 0 {
		return nil, fmt.Errorf("%w: %q has no value", ErrMalformed, raw)
	}

	first := toks[0]
	switch {
	case len(toks) == 1 && first.tt == css.HashToken:
		return parseHex(first.data)

	case first.tt == css.FunctionToken && closesAt(toks) == len(toks)-1:
		args := toks[1 : len(toks)-1]
		if hasNested(args) {
			// var(), calc() and such cannot be resolved here
			return Opaque(raw), nil
		}
		switch strings.ToLower(strings.TrimSuffix(first.data, "(")) {
		case "rgb", "rgba":
			return parseRGB(args)
		case "hsl", "hsla":
			return parseHSL(args)
		case "oklch":
			return parseOKLCH(args)
		}

	case isBareHSL(toks):
		// Tailwind v3 channel triplet "220 14% 96%", used as hsl(var(--x))
		return parseHSL(toks)
	}
	return Opaque(raw), nil
}

// IsBareHSL reports whether raw is a Tailwind v3 style "H S% L%" triplet
// without hsl() wrapper.
func IsBareHSL(raw string) bool {
	toks, err := tokenize(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return isBareHSL(toks)
}

// tokenize returns tokens of raw value without whitespace and comments.
func tokenize(raw string) ([]token, error) {
	var (
		toks  []token
		depth int
	)
	l := css.NewLexer(parse.NewInputString(raw))
	for {
		tt, data := l.Next()
		switch tt {
		case css.ErrorToken:
			if err := l.Err(); err != nil && err != io.EOF {
				return nil, err
			}
			if depth != 0 {
				return nil, fmt.Errorf("unbalanced parentheses")
			}
			return toks, nil
		case css.WhitespaceToken, css.CommentToken:
			continue
		case css.BadStringToken, css.BadURLToken:
			return nil, fmt.Errorf("bad token %q", string(data))
		case css.LeftBraceToken, css.RightBraceToken, css.SemicolonToken:
			return nil, fmt.Errorf("unexpected %q in value", string(data))
		case css.FunctionToken, css.LeftParenthesisToken:
			depth++
		case css.RightParenthesisToken:
			if depth--; depth < 0 {
				return nil, fmt.Errorf("unbalanced parentheses")
			}
		}
		toks = append(toks, token{tt: tt, data: string(data)})
	}
}

// closesAt returns index of the token which closes function opened by the
// first token.
func closesAt(toks []token) int {
	depth := 0
	for i, t := range toks {
		switch t.tt {
		case css.FunctionToken, css.LeftParenthesisToken:
			depth++
		case css.RightParenthesisToken:
			if depth--; depth == 0 {
				return i
			}
		}
	}
	return -1
}

func hasNested(args []token) bool {
	for _, t := range args {
		if t.tt == css.FunctionToken || t.tt == css.LeftParenthesisToken {
			return true
		}
	}
	return false
}

func isBareHSL(toks []token) bool {
	if len(toks) != 3 && len(toks) != 5 {
		return false
	}
	if toks[0].tt != css.NumberToken && toks[0].tt != css.DimensionToken {
		return false
	}
	if toks[1].tt != css.PercentageToken || toks[2].tt != css.PercentageToken {
		return false
	}
	if len(toks) == 5 {
		return toks[3].is(css.DelimToken, "/") && (toks[4].tt == css.NumberToken || toks[4].tt == css.PercentageToken)
	}
	return true
}

// splitArgs recognizes "a, b, c[, d]" and "a b c[ / d]" argument shapes.
// Missing alpha is returned as zero token.
func splitArgs(args []token) (ch [3]token, alpha token, err error) {
	commas := 0
	for _, t := range args {
		if t.tt == css.CommaToken {
			commas++
		}
	}

	switch {
	case commas > 0:
		// legacy syntax: value, value, value[, alpha]
		if len(args) != 2*commas+1 || (commas != 2 && commas != 3) {
			return ch, alpha, fmt.Errorf("%w: unexpected argument list", ErrMalformed)
		}
		for i := 0; i < len(args); i++ {
			if (i%2 == 1) != (args[i].tt == css.CommaToken) {
				return ch, alpha, fmt.Errorf("%w: unexpected argument list", ErrMalformed)
			}
		}
		ch = [3]token{args[0], args[2], args[4]}
		if commas == 3 {
			alpha = args[6]
		}
	case len(args) == 3:
		ch = [3]token{args[0], args[1], args[2]}
	case len(args) == 5 && args[3].is(css.DelimToken, "/"):
		ch = [3]token{args[0], args[1], args[2]}
		alpha = args[4]
	default:
		return ch, alpha, fmt.Errorf("%w: expected 3 channels with optional alpha, got %d arguments", ErrMalformed, len(args))
	}
	return ch, alpha, nil
}

func parseHex(data string) (Color, error) {
	digits := strings.TrimPrefix(data, "#")

	var v [8]uint8
	for i := 0; i < len(digits); i++ {
		d, ok := hexDigit(digits[i])
		if !ok {
			return nil, fmt.Errorf("%w: invalid hex digit in %q", ErrMalformed, data)
		}
		if i < len(v) {
			v[i] = d
		}
	}

	c := Hex{A: 1}
	switch len(digits) {
	case 3, 4:
		// short forms duplicate every digit
		c.R, c.G, c.B = v[0]*17, v[1]*17, v[2]*17
		if len(digits) == 4 {
			c.A = float64(v[3]*17) / 255
		}
	case 6, 8:
		c.R, c.G, c.B = v[0]<<4|v[1], v[2]<<4|v[3], v[4]<<4|v[5]
		if len(digits) == 8 {
			c.A = float64(v[6]<<4|v[7]) / 255
		}
	default:
		return nil, fmt.Errorf("%w: hex color %q must have 3, 4, 6 or 8 digits", ErrMalformed, data)
	}
	return c, nil
}

func hexDigit(c byte) (uint8, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

func parseRGB(args []token) (Color, error) {
	ch, at, err := splitArgs(args)
	if err != nil {
		return nil, err
	}
	var c RGB
	vals := [3]*float64{&c.R, &c.G, &c.B}
	for i, t := range ch {
		v, err := rgbChannel(t)
		if err != nil {
			return nil, err
		}
		*vals[i] = v
	}
	if c.A, err = alphaValue(at); err != nil {
		return nil, err
	}
	return c, nil
}

func parseHSL(args []token) (Color, error) {
	ch, at, err := splitArgs(args)
	if err != nil {
		return nil, err
	}
	var c HSL
	if c.H, err = hueValue(ch[0]); err != nil {
		return nil, err
	}
	if c.S, err = fractionValue(ch[1]); err != nil {
		return nil, err
	}
	if c.L, err = fractionValue(ch[2]); err != nil {
		return nil, err
	}
	if c.A, err = alphaValue(at); err != nil {
		return nil, err
	}
	return c, nil
}

func parseOKLCH(args []token) (Color, error) {
	for _, t := range args {
		if t.tt == css.CommaToken {
			return nil, fmt.Errorf("%w: oklch() does not accept commas", ErrMalformed)
		}
	}
	ch, at, err := splitArgs(args)
	if err != nil {
		return nil, err
	}
	var c OKLCH
	if c.L, err = fractionValue(ch[0]); err != nil {
		return nil, err
	}
	if c.C, err = chromaValue(ch[1]); err != nil {
		return nil, err
	}
	if c.H, err = hueValue(ch[2]); err != nil {
		return nil, err
	}
	if c.A, err = alphaValue(at); err != nil {
		return nil, err
	}
	return c, nil
}

// rgbChannel reads 0..255 number or percentage of 255.
func rgbChannel(t token) (float64, error) {
	switch t.tt {
	case css.NumberToken:
		v, err := number(t.data)
		return clamp(v, 0, 255), err
	case css.PercentageToken:
		v, err := number(strings.TrimSuffix(t.data, "%"))
		return clamp(v*255/100, 0, 255), err
	case css.IdentToken:
		if isNone(t) {
			return 0, nil
		}
	}
	return 0, fmt.Errorf("%w: unexpected channel value %q", ErrMalformed, t.data)
}

// alphaValue reads 0..1 number or percentage, absent alpha is opaque.
func alphaValue(t token) (float64, error) {
	switch t.tt {
	case css.ErrorToken:
		if t.data == "" {
			return 1, nil
		}
	case css.NumberToken:
		v, err := number(t.data)
		return clamp(v, 0, 1), err
	case css.PercentageToken:
		v, err := number(strings.TrimSuffix(t.data, "%"))
		return clamp(v/100, 0, 1), err
	case css.IdentToken:
		if isNone(t) {
			return 0, nil
		}
	}
	return 0, fmt.Errorf("%w: unexpected alpha value %q", ErrMalformed, t.data)
}

// hueValue reads angle (bare number means degrees) and normalizes it to
// [0,360).
func hueValue(t token) (float64, error) {
	var deg float64
	switch t.tt {
	case css.NumberToken:
		v, err := number(t.data)
		if err != nil {
			return 0, err
		}
		deg = v
	case css.DimensionToken:
		v, unit := splitDimension(t.data)
		n, err := number(v)
		if err != nil {
			return 0, err
		}
		switch strings.ToLower(unit) {
		case "deg":
			deg = n
		case "grad":
			deg = n * 360 / 400
		case "rad":
			deg = n * 180 / math.Pi
		case "turn":
			deg = n * 360
		default:
			return 0, fmt.Errorf("%w: unknown angle unit %q", ErrMalformed, unit)
		}
	case css.IdentToken:
		if isNone(t) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: unexpected hue value %q", ErrMalformed, t.data)
	default:
		return 0, fmt.Errorf("%w: unexpected hue value %q", ErrMalformed, t.data)
	}
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg, nil
}

// fractionValue reads percentage or bare number as 0..1 fraction. Bare
// numbers above 1 are taken as percentages without the sign.
func fractionValue(t token) (float64, error) {
	switch t.tt {
	case css.PercentageToken:
		v, err := number(strings.TrimSuffix(t.data, "%"))
		return clamp(v/100, 0, 1), err
	case css.NumberToken:
		v, err := number(t.data)
		if v > 1 {
			v /= 100
		}
		return clamp(v, 0, 1), err
	case css.IdentToken:
		if isNone(t) {
			return 0, nil
		}
	}
	return 0, fmt.Errorf("%w: unexpected percentage value %q", ErrMalformed, t.data)
}

// chromaValue reads oklch chroma: bare number, or percentage where 100% is
// 0.4. Negative chroma is clamped to zero.
func chromaValue(t token) (float64, error) {
	switch t.tt {
	case css.NumberToken:
		v, err := number(t.data)
		return math.Max(v, 0), err
	case css.PercentageToken:
		v, err := number(strings.TrimSuffix(t.data, "%"))
		return math.Max(v*0.4/100, 0), err
	case css.IdentToken:
		if isNone(t) {
			return 0, nil
		}
	}
	return 0, fmt.Errorf("%w: unexpected chroma value %q", ErrMalformed, t.data)
}

func isNone(t token) bool {
	return t.tt == css.IdentToken && strings.EqualFold(t.data, "none")
}

func number(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: bad number %q", ErrMalformed, s)
	}
	return v, nil
}

// splitDimension separates numeric part and unit of dimension token.
func splitDimension(s string) (string, string) {
	end := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= '0' && c <= '9') || c == '.' || ((c == '-' || c == '+') && (i == 0 || s[i-1] == 'e' || s[i-1] == 'E')) {
			end = i + 1
			continue
		}
		if (c == 'e' || c == 'E') && i+1 < len(s) && (s[i+1] >= '0' && s[i+1] <= '9' || s[i+1] == '-' || s[i+1] == '+') && i > 0 {
			end = i + 1
			continue
		}
		break
	}
	return s[:end], s[end:]
}
