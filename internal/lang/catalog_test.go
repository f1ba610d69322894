package lang

import "testing"

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	data, err := Builtin()
	if err != nil {
		t.Fatalf("Builtin() error = %v", err)
	}
	return NewCatalog(data.Languages, data.Aliases, data.DefaultRegions)
}

func TestCatalogNormalize(t *testing.T) {
	c := testCatalog(t)

	tests := []struct {
		name string
		code string
		want string
	}{
		{"exact", "cs", "cs"},
		{"case folded", "CS", "cs"},
		{"separator folded", "pt-br", "pt_BR"},
		{"name alias", "czech", "cs"},
		{"deprecated hebrew", "iw", "he"},
		{"deprecated indonesian", "in", "id"},
		{"modifier stripped", "cs@hardspace", "cs"},
		{"modifier alias", "sr@latin", "sr_Latn"},
		{"default region folds to base", "cs_CZ", "cs"},
		{"default region bcp", "de-DE", "de"},
		{"android marker", "pt-rBR", "pt_BR"},
		{"android default region", "cs-rCZ", "cs"},
		{"script", "zh-Hans", "zh_Hans"},
		{"script alias", "zh_CN", "zh_Hans"},
		{"norwegian legacy", "no", "nb_NO"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := c.Normalize(tt.code)
			if !ok {
				t.Fatalf("Normalize(%q) not found, want %q", tt.code, tt.want)
			}
			if got.Code != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.code, got.Code, tt.want)
			}
		})
	}
}

func TestCatalogNormalizeUnknown(t *testing.T) {
	c := testCatalog(t)

	for _, code := range []string{"", "cs-DE", "xx", "x", "this-is-not-a-language"} {
		if got, ok := c.Normalize(code); ok {
			t.Errorf("Normalize(%q) = %q, want unknown", code, got.Code)
		}
	}
}

func TestCatalogGet(t *testing.T) {
	c := testCatalog(t)

	if l, ok := c.Get("PT_br"); !ok || l.Code != "pt_BR" {
		t.Errorf("Get(PT_br) = %v, %v, want pt_BR", l, ok)
	}
	// Get does not apply aliases.
	if _, ok := c.Get("czech"); ok {
		t.Error("Get(czech) found a language, want miss")
	}
}

func TestBuiltinData(t *testing.T) {
	data, err := Builtin()
	if err != nil {
		t.Fatalf("Builtin() error = %v", err)
	}
	if len(data.Languages) == 0 {
		t.Fatal("Builtin() returned no languages")
	}
	for _, l := range data.Languages {
		if l.Code == "" || l.Name == "" {
			t.Errorf("incomplete language entry %+v", l)
		}
		if l.Direction != "ltr" && l.Direction != "rtl" {
			t.Errorf("language %s has direction %q", l.Code, l.Direction)
		}
	}
	if data.DefaultRegions["ms"] != "MY" {
		t.Errorf("default region for ms = %q, want MY", data.DefaultRegions["ms"])
	}
}
