package androidres

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleXML = `<?xml version="1.0" encoding="utf-8"?>
<resources>
    <string name="app_name" translatable="false">Demo</string>
    <string name="hello">Ahoj</string>
    <string name="quoted">"  padded  "</string>
    <string name="escaped">Don\'t</string>
    <string name="empty"></string>
    <plurals name="files">
        <item quantity="one">Jeden soubor</item>
        <item quantity="other">%d souborů</item>
    </plurals>
</resources>
`

func TestDriverLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "strings.xml")
	if err := os.WriteFile(path, []byte(sampleXML), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	units, err := New().Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	byKey := map[string]struct {
		target     string
		translated bool
	}{}
	for _, u := range units {
		byKey[u.Key] = struct {
			target     string
			translated bool
		}{u.Target, u.Translated}
	}

	if _, ok := byKey["app_name"]; ok {
		t.Error("translatable=false entry loaded")
	}
	if got := byKey["hello"]; got.target != "Ahoj" || !got.translated {
		t.Errorf("hello = %+v", got)
	}
	if got := byKey["quoted"]; got.target != "  padded  " {
		t.Errorf("quoted = %q, want padding kept", got.target)
	}
	if got := byKey["escaped"]; got.target != "Don't" {
		t.Errorf("escaped = %q", got.target)
	}
	if got := byKey["empty"]; got.translated {
		t.Error("empty entry counted as translated")
	}
	if got := byKey["files"]; got.target != "Jeden soubor" || !got.translated {
		t.Errorf("plurals = %+v", got)
	}
}

func TestDriverInit(t *testing.T) {
	d := New()
	path := filepath.Join(t.TempDir(), "values-cs", "strings.xml")

	if err := d.Init("", path, "cs"); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read generated file: %v", err)
	}
	if !strings.Contains(string(raw), "<resources>") {
		t.Errorf("generated file missing resources element:\n%s", raw)
	}

	units, err := d.Load(path)
	if err != nil {
		t.Fatalf("Load(generated) error = %v", err)
	}
	if len(units) != 0 {
		t.Errorf("new translation has %d units, want 0", len(units))
	}
}
