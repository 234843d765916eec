package config

import (
	"fmt"
	"os"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/a3tai/formharvest/internal/extract"
	"github.com/a3tai/formharvest/internal/glyph"
)

// symbolFile mirrors the symbol section of the config file. Glyph tables are
// kept as raw nodes so their key order and exact spelling survive decoding.
type symbolFile struct {
	SymbolMaps struct {
		Wingdings  yaml.Node `yaml:"wingdings"`
		Wingdings2 yaml.Node `yaml:"wingdings2"`
		Wingdings3 yaml.Node `yaml:"wingdings3"`
	} `yaml:"symbol_maps"`
	TickSymbols []string `yaml:"tick_symbols"`
	EmptyBox    *string  `yaml:"empty_box"`
}

// LoadSymbolConfig reads glyph tables and choice markers from a JSON or YAML
// config file. Missing tick symbols or empty box fall back to the defaults.
func LoadSymbolConfig(path string) (SymbolConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SymbolConfig{}, fmt.Errorf("cannot read %s: %w", path, err)
	}
	return ParseSymbolConfig(data)
}

// ParseSymbolConfig decodes the symbol section of config file content
func ParseSymbolConfig(data []byte) (SymbolConfig, error) {
	var raw symbolFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return SymbolConfig{}, fmt.Errorf("cannot decode symbol configuration: %w", err)
	}

	cfg := SymbolConfig{Markers: extract.DefaultMarkers()}

	var err error
	if cfg.Tables.Wingdings, err = decodeTable("wingdings", &raw.SymbolMaps.Wingdings); err != nil {
		return SymbolConfig{}, err
	}
	if cfg.Tables.Wingdings2, err = decodeTable("wingdings2", &raw.SymbolMaps.Wingdings2); err != nil {
		return SymbolConfig{}, err
	}
	if cfg.Tables.Wingdings3, err = decodeTable("wingdings3", &raw.SymbolMaps.Wingdings3); err != nil {
		return SymbolConfig{}, err
	}

	if raw.TickSymbols != nil {
		ticks := make([]rune, 0, len(raw.TickSymbols))
		for _, s := range raw.TickSymbols {
			r, err := singleRune(s)
			if err != nil {
				return SymbolConfig{}, fmt.Errorf("tick_symbols: %w", err)
			}
			ticks = append(ticks, r)
		}
		cfg.Markers.Ticks = ticks
	}

	if raw.EmptyBox != nil {
		r, err := singleRune(*raw.EmptyBox)
		if err != nil {
			return SymbolConfig{}, fmt.Errorf("empty_box: %w", err)
		}
		cfg.Markers.EmptyBox = r
	}

	return cfg, nil
}

func decodeTable(name string, node *yaml.Node) (glyph.Table, error) {
	if node.Kind == 0 {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("symbol_maps.%s must be a mapping (line %d)", name, node.Line)
	}
	table := make(glyph.Table, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		if key.Kind != yaml.ScalarNode || value.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("symbol_maps.%s: entries must map a string to a string (line %d)", name, key.Line)
		}
		table = append(table, glyph.Substitution{From: key.Value, To: value.Value})
	}
	return table, nil
}

func singleRune(s string) (rune, error) {
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("marker %q must be exactly one character", s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, nil
}
