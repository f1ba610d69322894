package lang

import (
	"sort"
	"strings"

	"golang.org/x/text/language"

	"langsync/internal/domain"
)

// Catalog indexes known languages for lookup by code. Lookup is tolerant
// about spelling (case, separators, aliases, deprecated tags, android
// region markers) but never invents languages: a code that cannot be
// matched stays unknown.
type Catalog struct {
	list    []*domain.Language
	byNorm  map[string]*domain.Language
	alias   map[string]string
	regions map[string]string
}

func NewCatalog(langs []*domain.Language, aliases, defaultRegions map[string]string) *Catalog {
	c := &Catalog{
		byNorm:  make(map[string]*domain.Language, len(langs)),
		alias:   make(map[string]string, len(aliases)),
		regions: make(map[string]string, len(defaultRegions)),
	}
	for _, l := range langs {
		c.list = append(c.list, l)
		c.byNorm[normKey(l.Code)] = l
	}
	for from, to := range aliases {
		c.alias[normKey(from)] = to
	}
	for base, region := range defaultRegions {
		c.regions[normKey(base)] = strings.ToUpper(region)
	}
	sort.Slice(c.list, func(i, j int) bool { return c.list[i].Code < c.list[j].Code })
	return c
}

// Languages returns all known languages sorted by code.
func (c *Catalog) Languages() []*domain.Language { return c.list }

// Get looks up a language by code, folding only case and separators.
func (c *Catalog) Get(code string) (*domain.Language, bool) {
	l, ok := c.byNorm[normKey(code)]
	return l, ok
}

// Normalize resolves an on-disk or user supplied code to a known language.
// It tries direct and alias lookup for the code itself, with any
// @modifier stripped, and with an android region marker unfolded, then
// falls back to a BCP 47 parse that canonicalizes deprecated tags. A code
// qualified with its language's default region folds to the bare base, so
// files written by the long and android styles resolve back to the
// language they were created for. Any other unknown region combination
// stays unknown.
func (c *Catalog) Normalize(code string) (*domain.Language, bool) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, false
	}
	cands := candidates(code)
	for _, cand := range cands {
		if l, ok := c.lookup(cand); ok {
			return l, true
		}
	}
	for _, cand := range cands {
		if l, ok := c.parseLookup(cand); ok {
			return l, true
		}
	}
	return nil, false
}

func candidates(code string) []string {
	out := []string{code}
	if base, _, found := strings.Cut(code, "@"); found {
		out = append(out, base)
	}
	if folded, ok := androidFold(code); ok {
		out = append(out, folded)
	}
	return out
}

func (c *Catalog) lookup(code string) (*domain.Language, bool) {
	k := normKey(code)
	if l, ok := c.byNorm[k]; ok {
		return l, true
	}
	if target, ok := c.alias[k]; ok {
		if l, ok := c.byNorm[normKey(target)]; ok {
			return l, true
		}
	}
	return nil, false
}

func (c *Catalog) parseLookup(code string) (*domain.Language, bool) {
	t, err := language.Parse(bcp(code))
	if err != nil {
		return nil, false
	}
	b, bc := t.Base()
	if bc < language.High {
		return nil, false
	}
	base := b.String()
	if reg, rc := t.Region(); rc == language.Exact {
		if l, ok := c.byNorm[normKey(base+"_"+reg.String())]; ok {
			return l, true
		}
		if c.regions[normKey(base)] == reg.String() {
			l, ok := c.byNorm[normKey(base)]
			return l, ok
		}
		return nil, false
	}
	if scr, sc := t.Script(); sc == language.Exact {
		if l, ok := c.byNorm[normKey(base+"_"+scr.String())]; ok {
			return l, true
		}
	}
	l, ok := c.byNorm[normKey(base)]
	return l, ok
}

// androidFold turns an android resource code like pt-rBR into pt_BR.
func androidFold(code string) (string, bool) {
	base, rest, ok := splitOnce(code)
	if !ok || len(rest) < 3 || (rest[0] != 'r' && rest[0] != 'R') {
		return "", false
	}
	region := rest[1:]
	if !isRegionPart(region) {
		return "", false
	}
	return base + "_" + strings.ToUpper(region), true
}

func normKey(code string) string {
	return strings.ToLower(strings.ReplaceAll(code, "-", "_"))
}
