package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"
	"go.uber.org/zap"

	"themeport/theme"
	"themeport/tokens"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	TemplateFieldName string

	ImportConfig struct {
		LightSelectors []string          `yaml:"light_selectors" validate:"dive,required"`
		DarkSelectors  []string          `yaml:"dark_selectors" validate:"dive,required"`
		Aliases        map[string]string `yaml:"aliases" validate:"dive,keys,required,endkeys,required"`
		MaxInputSize   int64             `yaml:"max_input_size" validate:"gte=0"`
		Pattern        string            `yaml:"pattern" validate:"required"`
	}

	OutputConfig struct {
		Format        OutputFmt `yaml:"format" validate:"gte=0"`
		NameTemplate  string    `yaml:"name_template"`
		Transliterate bool      `yaml:"transliterate"`
		DefaultsPath  string    `yaml:"defaults_path" sanitize:"assure_file_access"`
	}

	PreviewConfig struct {
		Format     PreviewFmt `yaml:"format" validate:"gte=0"`
		SwatchSize int        `yaml:"swatch_size" validate:"min=16,max=512"`
		Columns    int        `yaml:"columns" validate:"min=1,max=16"`
		Labels     bool       `yaml:"labels"`
	}

	LibraryConfig struct {
		Path string `yaml:"path" sanitize:"path_clean,assure_dir_exists_for_file" validate:"required,filepath"`
	}

	LiveConfig struct {
		FrameMS int `yaml:"frame_ms" validate:"min=1,max=1000"`
		PollMS  int `yaml:"poll_ms" validate:"min=10"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Import    ImportConfig   `yaml:"import"`
		Output    OutputConfig   `yaml:"output"`
		Preview   PreviewConfig  `yaml:"preview"`
		Library   LibraryConfig  `yaml:"library"`
		Live      LiveConfig     `yaml:"live"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

const (
	// NOTE: must match yaml field name above, alternative is to use struct
	// field name and reflection which I want to avoid for now
	NameTemplateFieldName TemplateFieldName = "name_template"
)

var requiredOptions = append([]func(*gencfg.ProcessingOptions){},
	gencfg.WithDoNotExpandField(string(NameTemplateFieldName)),
)

// Importer builds theme importer using configured selectors and aliases.
func (conf *ImportConfig) Importer(log *zap.Logger) (*theme.Importer, error) {
	names, err := tokens.NewNormalizer(conf.Aliases)
	if err != nil {
		return nil, fmt.Errorf("bad token aliases: %w", err)
	}
	return theme.NewImporter(conf.LightSelectors, conf.DarkSelectors, names, log), nil
}

// Frame returns live update frame duration.
func (conf *LiveConfig) Frame() time.Duration {
	return time.Duration(conf.FrameMS) * time.Millisecond
}

// Poll returns interval of input file checks when watching.
func (conf *LiveConfig) Poll() time.Duration {
	return time.Duration(conf.PollMS) * time.Millisecond
}

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		// sanitize and validate what has been loaded
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, fmt.Errorf("configuration sanitization failed: %w", err)
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, fmt.Errorf("configuration validation failed: %w", err)
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration template to provide
// sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, append(requiredOptions, options...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	// overwrite cfg values with values from the file
	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl, requiredOptions...)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %w", err)
	}
	return data, nil
}
