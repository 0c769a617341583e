package pkg

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/theflyingzamboni/lodscript/pkg/common"
)

// Structural layouts understood by the extractor. The exact byte layout of
// each game file kind is external knowledge supplied by configuration, not
// hard-coded per file.
const (
	LayoutPointerTable = "pointer_table"
	LayoutStride       = "stride"
	LayoutSentinel     = "sentinel"
)

// Length policy names as they appear in the kind config.
const (
	PolicyExtensible = "extensible"
	PolicyFixedMax   = "fixed_max"
)

// WidthContext is a named set of display limits for one text usage (field,
// battle/cutscene, menu). Supplied by configuration; the layout calculator
// never hard-codes limits.
type WidthContext struct {
	Name     string `yaml:"-"`
	MaxWidth int    `yaml:"width"`
	MaxLines int    `yaml:"lines"`
}

// PointerTableDesc describes one table of relative word-aligned pointers.
// When Dual is set, the table is immediately followed by an equally sized
// table of box-dimension pointers.
type PointerTableDesc struct {
	Start int  `yaml:"start"`
	End   int  `yaml:"end"`
	Dual  bool `yaml:"dual"`
}

// StrideDesc describes a block of fixed-size records, each holding one text
// span plus positional metadata at fixed offsets within the record. Meta
// offsets below zero mean the field is absent.
type StrideDesc struct {
	Start      int `yaml:"start"`
	Count      int `yaml:"count"`
	Size       int `yaml:"size"`
	TextOffset int `yaml:"text_offset"`
	TextSize   int `yaml:"text_size"`
	BoxOffset  int `yaml:"box_offset"`

	AreaOffset     int `yaml:"area_offset"`
	EventOffset    int `yaml:"event_offset"`
	FlagOffset     int `yaml:"flag_offset"`
	DialogueOffset int `yaml:"dialogue_offset"`
}

// RegionDesc bounds a byte range within the file.
type RegionDesc struct {
	Start int `yaml:"start"`
	End   int `yaml:"end"`
}

// FileKind is the structural descriptor for one category of script file:
// how to locate its entries, its length policy, and which width context its
// text is laid out against.
type FileKind struct {
	Name    string   `yaml:"name"`
	Match   []string `yaml:"match"`
	Policy  string   `yaml:"policy"`
	Layout  string   `yaml:"layout"`
	Context string   `yaml:"context"`

	// Size in bytes of the box-dimension slot following each entry
	// (8 for field files, 4 for overlay-style files, 0 for none).
	BoxSlot int `yaml:"box_slot"`

	Tables []PointerTableDesc `yaml:"tables"`
	Stride *StrideDesc        `yaml:"stride"`
	Region *RegionDesc        `yaml:"region"`
}

// LengthPolicy returns the typed policy for the kind.
func (k *FileKind) LengthPolicy() LengthPolicy {
	if k.Policy == PolicyFixedMax {
		return FixedMax
	}
	return Extensible
}

// Config is the full per-run configuration: the closed set of file kind
// descriptors plus the named width contexts they reference.
type Config struct {
	Contexts map[string]WidthContext `yaml:"contexts"`
	Kinds    []FileKind              `yaml:"kinds"`
}

// LoadConfig reads and validates a kind config YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, common.FormatError(common.ErrFailedToLoadKinds, err)
	}
	return ParseConfig(data)
}

// ParseConfig parses and validates kind config YAML.
func ParseConfig(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, common.FormatError(common.ErrFailedToParseYAML, err)
	}
	for name, ctx := range cfg.Contexts {
		ctx.Name = name
		cfg.Contexts[name] = ctx
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	for i := range c.Kinds {
		k := &c.Kinds[i]
		switch k.Layout {
		case LayoutPointerTable:
			if len(k.Tables) == 0 {
				return common.FormatErrorString(common.ErrFailedToLoadKinds,
					"kind %q has pointer_table layout but no tables", k.Name)
			}
		case LayoutStride:
			if k.Stride == nil || k.Stride.Count <= 0 || k.Stride.Size <= 0 {
				return common.FormatErrorString(common.ErrFailedToLoadKinds,
					"kind %q has stride layout but no usable stride block", k.Name)
			}
		case LayoutSentinel:
			if k.Region == nil || k.Region.End <= k.Region.Start {
				return common.FormatErrorString(common.ErrFailedToLoadKinds,
					"kind %q has sentinel layout but no usable region", k.Name)
			}
		default:
			return common.FormatErrorString(common.ErrUnknownLayout,
				"kind %q declares layout %q", k.Name, k.Layout)
		}
		if k.Policy != PolicyExtensible && k.Policy != PolicyFixedMax {
			return common.FormatErrorString(common.ErrFailedToLoadKinds,
				"kind %q declares policy %q", k.Name, k.Policy)
		}
		if _, ok := c.Contexts[k.Context]; !ok {
			return common.FormatErrorString(common.ErrUnknownWidthContext,
				"kind %q references context %q", k.Name, k.Context)
		}
	}
	return nil
}

// KindFor returns the first kind whose filename globs match the base name
// of the given path, or nil when none does.
func (c *Config) KindFor(path string) *FileKind {
	base := filepath.Base(path)
	for i := range c.Kinds {
		for _, pattern := range c.Kinds[i].Match {
			if ok, err := filepath.Match(pattern, base); err == nil && ok {
				return &c.Kinds[i]
			}
		}
	}
	return nil
}

// ContextFor returns the width context a kind's text is laid out against.
func (c *Config) ContextFor(kind *FileKind) WidthContext {
	return c.Contexts[kind.Context]
}
