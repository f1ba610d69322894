package ports

import "langsync/internal/domain"

// FormatDriver handles one translation file format. Drivers are stateless;
// the registry hands out a shared instance per format name.
type FormatDriver interface {
	// Format returns the identifier stored in Component.Format.
	Format() string
	// DefaultCodeStyle is the code style used when the component leaves
	// the style unset.
	DefaultCodeStyle() domain.CodeStyle
	// Load parses the file into units.
	Load(path string) ([]domain.Unit, error)
	// Init writes a fresh translation file for langCode at path, derived
	// from the base file. Targets start empty.
	Init(basePath, path, langCode string) error
}
