// Package jsonflat implements the flat JSON translation file driver: a
// single object of string values, the layout used by paraglide and most
// web i18n toolkits.
package jsonflat

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"langsync/internal/domain"
	"langsync/internal/ports"
)

type Driver struct{}

var _ ports.FormatDriver = (*Driver)(nil)

func New() *Driver { return &Driver{} }

func (d *Driver) Format() string { return "json" }

func (d *Driver) DefaultCodeStyle() domain.CodeStyle { return domain.StyleDefault }

func (d *Driver) Load(path string) ([]domain.Unit, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open json file: %w", err)
	}
	m, err := parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	units := make([]domain.Unit, 0, len(keys))
	for _, k := range keys {
		v := m[k]
		units = append(units, domain.Unit{Key: k, Target: v, Translated: v != ""})
	}
	return units, nil
}

// Init writes an empty object. Keys appear as they get translated.
func (d *Driver) Init(basePath, path, langCode string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create translation dir: %w", err)
	}
	if err := os.WriteFile(path, []byte("{}\n"), 0o644); err != nil {
		return fmt.Errorf("write translation file: %w", err)
	}
	return nil
}

func parse(data []byte) (map[string]string, error) {
	data = stripBOM(data)
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("invalid json: %w", err)
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		// Ignore metadata fields like $schema.
		if len(k) > 0 && k[0] == '$' {
			continue
		}
		s, ok := v.(string)
		if !ok {
			continue
		}
		out[k] = s
	}
	return out, nil
}

func stripBOM(b []byte) []byte {
	bom := []byte{0xEF, 0xBB, 0xBF}
	if len(b) >= 3 && bytes.Equal(b[:3], bom) {
		return b[3:]
	}
	return b
}
