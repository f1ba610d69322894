// Package gettext implements the PO file format driver.
package gettext

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"langsync/internal/domain"
	"langsync/internal/ports"
)

type Driver struct{}

var _ ports.FormatDriver = (*Driver)(nil)

func New() *Driver { return &Driver{} }

func (d *Driver) Format() string { return "po" }

func (d *Driver) DefaultCodeStyle() domain.CodeStyle { return domain.StyleDefault }

func (d *Driver) Load(path string) ([]domain.Unit, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open po file: %w", err)
	}
	defer f.Close()
	entries, err := parsePO(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	units := make([]domain.Unit, 0, len(entries))
	for _, e := range entries {
		if e.isHeader() {
			continue
		}
		target := ""
		if len(e.msgstrs) > 0 {
			target = e.msgstrs[0]
		}
		units = append(units, domain.Unit{
			Key:        e.key(),
			Source:     e.msgid,
			Target:     target,
			Translated: e.translated(),
		})
	}
	return units, nil
}

// Init derives a fresh PO file from the base catalog: translations are
// cleared, fuzzy marks dropped and the header rewritten for langCode.
func (d *Driver) Init(basePath, path, langCode string) error {
	f, err := os.Open(basePath)
	if err != nil {
		return fmt.Errorf("open base catalog: %w", err)
	}
	defer f.Close()
	entries, err := parsePO(f)
	if err != nil {
		return fmt.Errorf("parse base catalog %s: %w", basePath, err)
	}

	out := make([]*poEntry, 0, len(entries)+1)
	hdr := parseHeader("")
	rest := entries
	if len(entries) > 0 && entries[0].isHeader() {
		if len(entries[0].msgstrs) > 0 {
			hdr = parseHeader(entries[0].msgstrs[0])
		}
		rest = entries[1:]
	}
	hdr.setDefault("Project-Id-Version", "PACKAGE VERSION")
	hdr.set("PO-Revision-Date", time.Now().Format("2006-01-02 15:04-0700"))
	hdr.set("Language", langCode)
	hdr.setDefault("MIME-Version", "1.0")
	hdr.set("Content-Type", "text/plain; charset=UTF-8")
	hdr.setDefault("Content-Transfer-Encoding", "8bit")
	out = append(out, &poEntry{msgstrs: []string{hdr.String()}})

	for _, e := range rest {
		n := len(e.msgstrs)
		if n == 0 {
			n = 1
		}
		out = append(out, &poEntry{
			comments:    stripFuzzy(e.comments),
			msgctxt:     e.msgctxt,
			hasCtxt:     e.hasCtxt,
			msgid:       e.msgid,
			msgidPlural: e.msgidPlural,
			hasPlural:   e.hasPlural,
			msgstrs:     make([]string, n),
		})
	}

	var buf bytes.Buffer
	if err := writePO(&buf, out); err != nil {
		return fmt.Errorf("render po file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create translation dir: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write translation file: %w", err)
	}
	return nil
}

// stripFuzzy removes the fuzzy mark from flag comments, dropping the flag
// line entirely when fuzzy was its only flag.
func stripFuzzy(comments []string) []string {
	out := make([]string, 0, len(comments))
	for _, c := range comments {
		if strings.HasPrefix(c, "#,") {
			var kept []string
			for _, flag := range strings.Split(c[2:], ",") {
				if f := strings.TrimSpace(flag); f != "" && f != "fuzzy" {
					kept = append(kept, f)
				}
			}
			if len(kept) == 0 {
				continue
			}
			c = "#, " + strings.Join(kept, ", ")
		}
		out = append(out, c)
	}
	return out
}
