// Package theme assembles light and dark token maps from pasted CSS theme
// text.
package theme

import (
	"errors"

	"go.uber.org/zap"

	"themeport/colors"
	"themeport/css"
	"themeport/tokens"
)

// ErrNoRecognizedBlock is returned when text has neither light nor dark
// scope block. Its message is suitable for showing to the user as is.
var ErrNoRecognizedBlock = errors.New("Failed to parse CSS. Check the format and try again.")

// Importer parses CSS theme text into token maps. It holds no mutable state
// and is safe for concurrent use.
type Importer struct {
	log       *zap.Logger
	names     *tokens.Normalizer
	extractor *css.Extractor
}

var defaultImporter = NewImporter(nil, nil, nil, nil)

// Parse imports text using default selectors and alias table.
func Parse(text string) (*Result, error) {
	return defaultImporter.Parse(text)
}

// NewImporter creates importer. Empty selector lists and nil normalizer fall
// back to defaults.
func NewImporter(light, dark []string, names *tokens.Normalizer, log *zap.Logger) *Importer {
	if log == nil {
		log = zap.NewNop()
	}
	if names == nil {
		names = tokens.DefaultNormalizer
	}
	return &Importer{
		log:       log.Named("theme-import"),
		names:     names,
		extractor: css.NewExtractor(light, dark, log),
	}
}

// Parse extracts light and dark blocks from text and builds partial token
// maps holding raw values. Declarations with unknown names or malformed
// values are dropped and listed in Result.Skipped. The only failure is
// ErrNoRecognizedBlock.
func (im *Importer) Parse(text string) (*Result, error) {
	blocks := im.extractor.Extract(text)
	if !blocks.Any() {
		return nil, ErrNoRecognizedBlock
	}

	res := &Result{Light: Tokens{}, Dark: Tokens{}}
	for _, v := range Variants() {
		b := blocks.Get(v.scope())
		if !b.Found {
			continue
		}
		im.assemble(v, b, res)
	}

	im.log.Debug("Theme parsed",
		zap.Int("light", len(res.Light)),
		zap.Int("dark", len(res.Dark)),
		zap.Int("skipped", len(res.Skipped)))
	return res, nil
}

func (im *Importer) assemble(v Variant, b css.Block, res *Result) {
	out := res.Get(v)
	for _, d := range css.Declarations(b.Body) {
		skip := func(reason string, err error) {
			res.Skipped = append(res.Skipped, Skipped{
				Variant: v,
				Name:    d.Name,
				Value:   d.Value,
				Offset:  b.Offset + d.Offset,
				Reason:  reason,
			})
			im.log.Debug("Declaration dropped",
				zap.Stringer("variant", v),
				zap.String("name", d.Name),
				zap.String("value", d.Value),
				zap.String("reason", reason),
				zap.Error(err))
		}

		key, ok := im.names.Lookup(d.Name)
		if !ok {
			skip("unknown token", nil)
			continue
		}
		value, err := tokenValue(d.Value)
		if err != nil {
			skip("malformed value", err)
			continue
		}
		if prev, ok := out[key]; ok {
			im.log.Debug("Token redeclared", zap.Stringer("variant", v), zap.Stringer("key", key), zap.String("previous", prev))
		}
		out[key] = value
	}
}

// tokenValue validates raw declaration value and returns the string to be
// stored. Bare HSL channel triplets are wrapped into hsl() so the value is
// directly usable as a color.
func tokenValue(raw string) (string, error) {
	if _, err := colors.Parse(raw); err != nil {
		return "", err
	}
	if colors.IsBareHSL(raw) {
		return "hsl(" + raw + ")", nil
	}
	return raw, nil
}

// PickerHex converts raw token value into hex for color picker widgets.
// Values which are not colors report false.
func PickerHex(raw string) (string, bool) {
	c, err := colors.Parse(raw)
	if err != nil {
		return "", false
	}
	return colors.ToHex(c)
}
