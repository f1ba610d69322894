package gettext

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const samplePO = `# Translator note.
msgid ""
msgstr ""
"Project-Id-Version: demo 1.0\n"
"Content-Type: text/plain; charset=UTF-8\n"
"Language: cs\n"

#: src/main.c:12
msgid "Hello"
msgstr "Ahoj"

#, fuzzy, c-format
msgid "Bye %s"
msgstr "Nashle %s"

msgctxt "menu"
msgid "Open"
msgstr ""

msgid "One file"
msgid_plural "%d files"
msgstr[0] "Jeden soubor"
msgstr[1] "%d souborů"
msgstr[2] "%d souborů"

msgid "Long"
msgstr ""
"first line\n"
"second line"
`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestDriverLoad(t *testing.T) {
	d := New()
	units, err := d.Load(writeTemp(t, "cs.po", samplePO))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(units) != 5 {
		t.Fatalf("Load() returned %d units, want 5", len(units))
	}

	byKey := map[string]int{}
	for i, u := range units {
		byKey[u.Key] = i
	}

	hello := units[byKey["Hello"]]
	if hello.Target != "Ahoj" || !hello.Translated {
		t.Errorf("Hello unit = %+v, want translated Ahoj", hello)
	}

	fuzzy := units[byKey["Bye %s"]]
	if fuzzy.Translated {
		t.Error("fuzzy unit counted as translated")
	}

	if _, ok := byKey["menu\x04Open"]; !ok {
		t.Error("context entry missing EOT separated key")
	}

	plural := units[byKey["One file"]]
	if plural.Target != "Jeden soubor" || !plural.Translated {
		t.Errorf("plural unit = %+v, want translated first form", plural)
	}

	long := units[byKey["Long"]]
	if long.Target != "first line\nsecond line" {
		t.Errorf("multiline target = %q", long.Target)
	}
}

func TestDriverInit(t *testing.T) {
	d := New()
	base := writeTemp(t, "messages.pot", samplePO)
	path := filepath.Join(t.TempDir(), "locale", "de.po")

	if err := d.Init(base, path, "de"); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read generated file: %v", err)
	}
	content := string(raw)
	if !strings.Contains(content, `"Language: de\n"`) {
		t.Errorf("generated header lacks language:\n%s", content)
	}
	if !strings.Contains(content, `"Project-Id-Version: demo 1.0\n"`) {
		t.Error("base header fields not preserved")
	}
	if strings.Contains(content, "fuzzy") {
		t.Error("fuzzy mark survived Init")
	}
	if !strings.Contains(content, "#, c-format") {
		t.Error("non fuzzy flags dropped by Init")
	}

	units, err := d.Load(path)
	if err != nil {
		t.Fatalf("Load(generated) error = %v", err)
	}
	if len(units) != 5 {
		t.Fatalf("generated file has %d units, want 5", len(units))
	}
	for _, u := range units {
		if u.Target != "" || u.Translated {
			t.Errorf("unit %q not cleared: %+v", u.Key, u)
		}
	}

	// Plural slot count from the base must survive.
	if !strings.Contains(content, "msgstr[2] \"\"") {
		t.Error("plural slots not preserved")
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		po   string
	}{
		{"stray continuation", "\"floating\"\n"},
		{"stray msgstr", "msgstr \"x\"\n"},
		{"unterminated string", "msgid \"oops\nmsgstr \"\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parsePO(strings.NewReader(tt.po)); err == nil {
				t.Error("parsePO() succeeded, want error")
			}
		})
	}
}
