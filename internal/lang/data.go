package lang

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"langsync/internal/domain"
)

//go:embed languages.yaml
var builtinData []byte

// Data is the parsed language definition file: the catalog entries plus
// the tables the code style resolver works from.
type Data struct {
	Languages      []*domain.Language
	Aliases        map[string]string
	DefaultRegions map[string]string
	LegacyCodes    map[string]string
}

type dataFile struct {
	Languages []struct {
		Code      string `yaml:"code"`
		Name      string `yaml:"name"`
		Plural    string `yaml:"plural"`
		Direction string `yaml:"direction"`
	} `yaml:"languages"`
	Aliases        map[string]string `yaml:"aliases"`
	DefaultRegions map[string]string `yaml:"default_regions"`
	LegacyCodes    map[string]string `yaml:"legacy_codes"`
}

// Builtin returns the embedded language definitions.
func Builtin() (*Data, error) {
	return parseData(builtinData)
}

// LoadFile reads language definitions from an operator supplied file.
func LoadFile(path string) (*Data, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read language file: %w", err)
	}
	return parseData(raw)
}

func parseData(raw []byte) (*Data, error) {
	var f dataFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse language file: %w", err)
	}
	d := &Data{
		Aliases:        f.Aliases,
		DefaultRegions: f.DefaultRegions,
		LegacyCodes:    f.LegacyCodes,
	}
	if d.Aliases == nil {
		d.Aliases = map[string]string{}
	}
	if d.DefaultRegions == nil {
		d.DefaultRegions = map[string]string{}
	}
	if d.LegacyCodes == nil {
		d.LegacyCodes = map[string]string{}
	}
	for _, e := range f.Languages {
		if e.Code == "" {
			return nil, fmt.Errorf("language entry without code")
		}
		dir := e.Direction
		if dir == "" {
			dir = "ltr"
		}
		d.Languages = append(d.Languages, &domain.Language{
			Code:      e.Code,
			Name:      e.Name,
			Plural:    e.Plural,
			Direction: dir,
		})
	}
	return d, nil
}

// Tables returns the resolver tables carried by the definition file.
func (d *Data) Tables() Tables {
	return Tables{DefaultRegions: d.DefaultRegions, LegacyCodes: d.LegacyCodes}
}
