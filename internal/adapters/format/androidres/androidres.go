// Package androidres implements the Android string resource driver.
package androidres

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"langsync/internal/domain"
	"langsync/internal/ports"
)

type Driver struct{}

var _ ports.FormatDriver = (*Driver)(nil)

func New() *Driver { return &Driver{} }

func (d *Driver) Format() string { return "aresource" }

// DefaultCodeStyle is android: resource directories spell regions with the
// r marker, values-pt-rBR.
func (d *Driver) DefaultCodeStyle() domain.CodeStyle { return domain.StyleAndroid }

type resourcesFile struct {
	XMLName xml.Name      `xml:"resources"`
	Strings []stringEntry `xml:"string"`
	Plurals []pluralEntry `xml:"plurals"`
}

type stringEntry struct {
	Name         string `xml:"name,attr"`
	Translatable string `xml:"translatable,attr"`
	Value        string `xml:",chardata"`
}

type pluralEntry struct {
	Name  string       `xml:"name,attr"`
	Items []pluralItem `xml:"item"`
}

type pluralItem struct {
	Quantity string `xml:"quantity,attr"`
	Value    string `xml:",chardata"`
}

func (d *Driver) Load(path string) ([]domain.Unit, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open resource file: %w", err)
	}
	var res resourcesFile
	if err := xml.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	units := make([]domain.Unit, 0, len(res.Strings)+len(res.Plurals))
	for _, s := range res.Strings {
		if s.Translatable == "false" {
			continue
		}
		v := unescape(s.Value)
		units = append(units, domain.Unit{Key: s.Name, Target: v, Translated: v != ""})
	}
	for _, p := range res.Plurals {
		target := ""
		translated := len(p.Items) > 0
		for i, it := range p.Items {
			v := unescape(it.Value)
			if i == 0 {
				target = v
			}
			if v == "" {
				translated = false
			}
		}
		units = append(units, domain.Unit{Key: p.Name, Target: target, Translated: translated})
	}
	return units, nil
}

// Init writes an empty resource file. Android translations carry only the
// strings that are actually translated, so a new language starts blank.
func (d *Driver) Init(basePath, path, langCode string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create resource dir: %w", err)
	}
	content := xml.Header + "<resources>\n</resources>\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write resource file: %w", err)
	}
	return nil
}

// unescape undoes the android resource escaping rules that matter for
// comparing text: surrounding quotes and backslash escapes.
func unescape(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case '\'', '"', '@', '?', '\\':
			b.WriteByte(s[i])
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
