// Package lang holds the language catalog and the code style resolver that
// turns internal language codes into the spellings used on disk.
package lang

import (
	"strings"

	"langsync/internal/domain"
)

// Tables are the data the resolver consults: default regions for the long
// styles and historical spellings for the default style.
type Tables struct {
	DefaultRegions map[string]string
	LegacyCodes    map[string]string
}

// Resolver maps internal language codes to file codes for a given style.
// Resolution is pure: the same code and style always produce the same
// result, and an unknown code is returned unexpanded rather than failing.
type Resolver struct {
	tables Tables
}

func NewResolver(t Tables) *Resolver {
	if t.DefaultRegions == nil {
		t.DefaultRegions = map[string]string{}
	}
	if t.LegacyCodes == nil {
		t.LegacyCodes = map[string]string{}
	}
	return &Resolver{tables: t}
}

// Resolve returns the on-disk spelling of code under style.
func (r *Resolver) Resolve(code string, style domain.CodeStyle) string {
	switch style {
	case domain.StylePosix:
		return posix(code)
	case domain.StylePosixLong:
		return r.withRegion(posix(code), "_")
	case domain.StyleBCP:
		return bcp(code)
	case domain.StyleBCPLong:
		return r.withRegion(bcp(code), "-")
	case domain.StyleAndroid:
		return android(code)
	default:
		if legacy, ok := r.tables.LegacyCodes[code]; ok {
			return legacy
		}
		return code
	}
}

func posix(code string) string { return strings.ReplaceAll(code, "-", "_") }

func bcp(code string) string { return strings.ReplaceAll(code, "_", "-") }

// android keeps the BCP base and prefixes the region with r, the form
// Android resource directories expect. Codes without a region qualifier
// pass through unchanged.
func android(code string) string {
	base, rest, ok := splitOnce(code)
	if !ok || !isRegionPart(rest) {
		return code
	}
	return base + "-r" + strings.ToUpper(rest)
}

// withRegion appends the default region when code carries none. Codes
// without a known default region stay unexpanded.
func (r *Resolver) withRegion(code, sep string) string {
	if hasRegion(code) {
		return code
	}
	region, ok := r.tables.DefaultRegions[strings.ReplaceAll(code, "-", "_")]
	if !ok {
		return code
	}
	return code + sep + region
}

func splitOnce(code string) (base, rest string, ok bool) {
	i := strings.IndexAny(code, "-_")
	if i < 0 {
		return code, "", false
	}
	return code[:i], code[i+1:], true
}

func hasRegion(code string) bool {
	parts := strings.FieldsFunc(code, func(r rune) bool { return r == '-' || r == '_' })
	for _, p := range parts[1:] {
		if isRegionPart(p) {
			return true
		}
	}
	return false
}

// isRegionPart reports whether a subtag looks like a region: two letters
// or three digits.
func isRegionPart(p string) bool {
	switch len(p) {
	case 2:
		return isAlpha(p)
	case 3:
		return isDigits(p)
	}
	return false
}

func isAlpha(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
