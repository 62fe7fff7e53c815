package config

import (
	"errors"
	"fmt"
	"strings"
)

// OutputFmt is requested token file type.
// ENUM(css, yaml)
type OutputFmt int

const (
	OutputFmtCss OutputFmt = iota
	OutputFmtYaml
)

// PreviewFmt is requested preview image type.
// ENUM(png, svg)
type PreviewFmt int

const (
	PreviewFmtPng PreviewFmt = iota
	PreviewFmtSvg
)

var ErrInvalidEnum = errors.New("not a valid enum value")

var outputFmtNames = []string{"css", "yaml"}

// OutputFmtNames returns list of possible string values of OutputFmt.
func OutputFmtNames() []string {
	return append([]string(nil), outputFmtNames...)
}

func (o OutputFmt) String() string {
	if o.IsValid() {
		return outputFmtNames[o]
	}
	return fmt.Sprintf("OutputFmt(%d)", int(o))
}

func (o OutputFmt) IsValid() bool {
	return o >= 0 && int(o) < len(outputFmtNames)
}

// Ext returns file extension for output format.
func (o OutputFmt) Ext() string {
	switch o {
	case OutputFmtCss:
		return ".css"
	case OutputFmtYaml:
		return ".yaml"
	default:
		// this should never happen
		panic("unsupported format requested")
	}
}

// ParseOutputFmt attempts to convert a string to OutputFmt.
func ParseOutputFmt(name string) (OutputFmt, error) {
	if i := indexOf(outputFmtNames, name); i >= 0 {
		return OutputFmt(i), nil
	}
	return OutputFmt(0), fmt.Errorf("%s is %w, try [%s]", name, ErrInvalidEnum, strings.Join(outputFmtNames, ", "))
}

func (o OutputFmt) MarshalText() ([]byte, error) {
	if !o.IsValid() {
		return nil, fmt.Errorf("%d is %w", int(o), ErrInvalidEnum)
	}
	return []byte(o.String()), nil
}

func (o *OutputFmt) UnmarshalText(text []byte) error {
	v, err := ParseOutputFmt(string(text))
	if err != nil {
		return err
	}
	*o = v
	return nil
}

var previewFmtNames = []string{"png", "svg"}

// PreviewFmtNames returns list of possible string values of PreviewFmt.
func PreviewFmtNames() []string {
	return append([]string(nil), previewFmtNames...)
}

func (p PreviewFmt) String() string {
	if p.IsValid() {
		return previewFmtNames[p]
	}
	return fmt.Sprintf("PreviewFmt(%d)", int(p))
}

func (p PreviewFmt) IsValid() bool {
	return p >= 0 && int(p) < len(previewFmtNames)
}

// Ext returns file extension for preview format.
func (p PreviewFmt) Ext() string {
	if p == PreviewFmtSvg {
		return ".svg"
	}
	return ".png"
}

// ParsePreviewFmt attempts to convert a string to PreviewFmt.
func ParsePreviewFmt(name string) (PreviewFmt, error) {
	if i := indexOf(previewFmtNames, name); i >= 0 {
		return PreviewFmt(i), nil
	}
	return PreviewFmt(0), fmt.Errorf("%s is %w, try [%s]", name, ErrInvalidEnum, strings.Join(previewFmtNames, ", "))
}

func (p PreviewFmt) MarshalText() ([]byte, error) {
	if !p.IsValid() {
		return nil, fmt.Errorf("%d is %w", int(p), ErrInvalidEnum)
	}
	return []byte(p.String()), nil
}

func (p *PreviewFmt) UnmarshalText(text []byte) error {
	v, err := ParsePreviewFmt(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// indexOf matches names case insensitively.
func indexOf(names []string, name string) int {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}
