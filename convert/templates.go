package convert

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"
	"github.com/gosimple/slug"

	"themeport/config"
	"themeport/theme"
	"themeport/tokens"
)

// Values is a struct that holds variables we make available for template expansion
type Values struct {
	Context    string
	SourceFile string // base name without extension
	SourcePath string // path relative to processed directory or archive
	Slug       string
	Format     string
	Light      map[string]string
	Dark       map[string]string
	Skipped    int
}

func tokenValues(t theme.Tokens) map[string]string {
	out := make(map[string]string, len(t))
	for k, v := range t {
		out[k.String()] = v
	}
	return out
}

func buildValues(name config.TemplateFieldName, res *theme.Result, src string, format config.OutputFmt) Values {
	base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	return Values{
		Context:    string(name),
		SourceFile: base,
		SourcePath: filepath.ToSlash(src),
		Slug:       slug.Make(base),
		Format:     format.String(),
		Light:      tokenValues(res.Light),
		Dark:       tokenValues(res.Dark),
		Skipped:    len(res.Skipped),
	}
}

// templateFuncs extends sprig with theme helpers: "hex" converts token value
// to picker hex (empty when impossible).
func templateFuncs() template.FuncMap {
	funcMap := sprig.FuncMap()
	funcMap["hex"] = func(value string) string {
		hex, _ := theme.PickerHex(value)
		return hex
	}
	funcMap["tokens"] = func() []string {
		keys := tokens.Keys()
		out := make([]string, len(keys))
		for i, k := range keys {
			out[i] = k.String()
		}
		return out
	}
	return funcMap
}

func expandTemplate(name config.TemplateFieldName, field string, values Values) (string, error) {
	tmpl, err := template.New(string(name)).Funcs(templateFuncs()).Parse(field)
	if err != nil {
		return "", fmt.Errorf("unable to parse template field %s: %w", name, err)
	}

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, values); err != nil {
		return "", err
	}
	return buf.String(), nil
}
