// Package css isolates theme selector blocks from free-form CSS text and
// splits their bodies into custom property declarations. It is not a CSS
// parser: at-rules, nesting and cascade are not interpreted, braces are only
// counted.
package css

import (
	"go.uber.org/zap"
)

// Default selectors recognized as light and dark scope.
var (
	DefaultLightSelectors = []string{":root", ".light", `[data-theme="light"]`}
	DefaultDarkSelectors  = []string{".dark", `[data-theme="dark"]`, `:root.dark`, `:root[data-theme="dark"]`}
)

// scanner states
type scanState int

const (
	stateOutside  scanState = iota // between rules, prelude is empty
	stateSelector                  // collecting prelude text
	stateBlock                     // inside a block, prelude is empty
	stateString                    // inside quoted string
	stateComment                   // inside /* */
)

// frame is an open block on the brace stack.
type frame struct {
	scopes   []Scope
	selector string
	start    int
}

// Extractor finds light and dark scope blocks in CSS text.
type Extractor struct {
	log   *zap.Logger
	light map[string]struct{}
	dark  map[string]struct{}
}

// NewExtractor creates extractor for the given selector sets. Empty sets
// fall back to defaults.
func NewExtractor(light, dark []string, log *zap.Logger) *Extractor {
	if log == nil {
		log = zap.NewNop()
	}
	if len(light) == 0 {
		light = DefaultLightSelectors
	}
	if len(dark) == 0 {
		dark = DefaultDarkSelectors
	}
	return &Extractor{
		log:   log.Named("css-extract"),
		light: selectorSet(light),
		dark:  selectorSet(dark),
	}
}

func selectorSet(list []string) map[string]struct{} {
	set := make(map[string]struct{}, len(list))
	for _, s := range list {
		if n := NormalizeSelector(s); n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}

// ExtractBlocks is a convenience wrapper using a throwaway extractor.
func ExtractBlocks(text string, light, dark []string) Blocks {
	return NewExtractor(light, dark, nil).Extract(text)
}

// Extract scans text once and returns the first block for every scope. It
// never fails: missing scope leaves corresponding Block not Found.
func (e *Extractor) Extract(text string) Blocks {
	var (
		res          Blocks
		stack        []frame
		state        = stateOutside
		resume       = stateOutside
		quote        byte
		preludeStart int
	)

	store := func(f frame, end int) {
		for _, s := range f.scopes {
			b := Block{Selector: f.selector, Body: text[f.start:end], Offset: f.start, Found: true}
			if s == ScopeDark {
				res.Dark = b
			} else {
				res.Light = b
			}
			e.log.Debug("Found scope block", zap.Stringer("scope", s), zap.String("selector", f.selector), zap.Int("offset", f.start))
		}
	}

	// first opening brace claims the scope, later blocks are ignored
	claimed := [2]bool{}

	for i := 0; i < len(text); i++ {
		c := text[i]

		switch state {
		case stateComment:
			if c == '*' && i+1 < len(text) && text[i+1] == '/' {
				i++
				state = resume
			}
			continue
		case stateString:
			if c == '\\' {
				i++
			} else if c == quote || c == '\n' {
				state = resume
			}
			continue
		}

		switch c {
		case '/':
			if i+1 < len(text) && text[i+1] == '*' {
				i++
				resume, state = state, stateComment
			}
		case '"', '\'':
			quote = c
			if state == stateOutside {
				state = stateSelector
			}
			resume, state = state, stateString
		case '{':
			f := frame{start: i + 1}
			for _, sel := range SplitSelectorList(text[preludeStart:i]) {
				sel = NormalizeSelector(sel)
				if _, ok := e.light[sel]; ok && !claimed[ScopeLight] {
					claimed[ScopeLight] = true
					f.scopes = append(f.scopes, ScopeLight)
					f.selector = sel
				}
				if _, ok := e.dark[sel]; ok && !claimed[ScopeDark] {
					claimed[ScopeDark] = true
					f.scopes = append(f.scopes, ScopeDark)
					f.selector = sel
				}
			}
			stack = append(stack, f)
			preludeStart = i + 1
			state = stateBlock
		case '}':
			if n := len(stack); n > 0 {
				f := stack[n-1]
				stack = stack[:n-1]
				store(f, i)
			}
			preludeStart = i + 1
			if len(stack) > 0 {
				state = stateBlock
			} else {
				state = stateOutside
			}
		case ';':
			preludeStart = i + 1
			if state == stateSelector {
				// stray at-rule like @import, prelude starts over
				state = stateOutside
			}
		default:
			if state == stateOutside && !isSpace(c) {
				state = stateSelector
			}
		}
	}

	// unterminated blocks extend to the end of input
	for n := len(stack) - 1; n >= 0; n-- {
		if len(stack[n].scopes) > 0 {
			e.log.Debug("Unterminated scope block", zap.String("selector", stack[n].selector))
			store(stack[n], len(text))
		}
	}
	return res
}
