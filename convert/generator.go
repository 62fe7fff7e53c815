package convert

import (
	"bytes"
	"fmt"
	"io"

	yaml "gopkg.in/yaml.v3"

	"themeport/config"
	"themeport/theme"
	"themeport/tokens"
)

// writeTheme renders result in the requested format.
func writeTheme(w io.Writer, res *theme.Result, format config.OutputFmt) error {
	switch format {
	case config.OutputFmtCss:
		_, err := res.WriteTo(w)
		return err
	case config.OutputFmtYaml:
		return writeYAML(w, res)
	default:
		// this should never happen
		panic(fmt.Sprintf("unsupported output format %d", format))
	}
}

// writeYAML outputs variants as mappings, keys in canonical order so output is
// stable and diffable.
func writeYAML(w io.Writer, res *theme.Result) error {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, v := range theme.Variants() {
		t := res.Get(v)
		m := &yaml.Node{Kind: yaml.MappingNode}
		for _, k := range t.Keys() {
			m.Content = append(m.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Value: k.String()},
				&yaml.Node{Kind: yaml.ScalarNode, Value: t[k], Style: yaml.DoubleQuotedStyle},
			)
		}
		if len(m.Content) == 0 {
			m.Style = yaml.FlowStyle
		}
		root.Content = append(root.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: v.String()}, m)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}}); err != nil {
		return fmt.Errorf("unable to encode theme: %w", err)
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}

// readYAML loads theme previously written by writeYAML.
func readYAML(r io.Reader) (*theme.Result, error) {
	var doc map[string]map[string]string
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("unable to decode theme: %w", err)
	}
	res := &theme.Result{Light: theme.Tokens{}, Dark: theme.Tokens{}}
	for name, values := range doc {
		v, err := theme.ParseVariant(name)
		if err != nil {
			return nil, err
		}
		t := res.Get(v)
		for key, value := range values {
			k, err := tokens.ParseKey(key)
			if err != nil {
				return nil, err
			}
			t[k] = value
		}
	}
	return res, nil
}
