package domain

import "time"

// NewLangMode controls how new languages may be started on a component.
type NewLangMode string

const (
	NewLangAdd     NewLangMode = "add"     // anyone with the add capability may start a translation
	NewLangContact NewLangMode = "contact" // requests are routed to project admins instead
	NewLangURL     NewLangMode = "url"     // requester is pointed at external instructions
	NewLangNone    NewLangMode = "none"    // adding languages is disabled
)

func ParseNewLangMode(s string) (NewLangMode, bool) {
	switch NewLangMode(s) {
	case NewLangAdd, NewLangContact, NewLangURL, NewLangNone:
		return NewLangMode(s), true
	}
	return "", false
}

// CodeStyle names the convention used to derive an on-disk file code
// from an internal language code.
type CodeStyle string

const (
	StyleDefault   CodeStyle = ""
	StylePosix     CodeStyle = "posix"
	StylePosixLong CodeStyle = "posix_long"
	StyleBCP       CodeStyle = "bcp"
	StyleBCPLong   CodeStyle = "bcp_long"
	StyleAndroid   CodeStyle = "android"
)

func ParseCodeStyle(s string) (CodeStyle, bool) {
	switch CodeStyle(s) {
	case StyleDefault, StylePosix, StylePosixLong, StyleBCP, StyleBCPLong, StyleAndroid:
		return CodeStyle(s), true
	}
	return "", false
}

type Component struct {
	ID            int64       `json:"id"`
	ProjectID     int64       `json:"project_id"`
	Slug          string      `json:"slug"`
	Name          string      `json:"name"`
	RepoPath      string      `json:"repo_path"` // working tree location, relative to the repos root
	FileMask      string      `json:"file_mask"` // glob with exactly one *, standing for the file code
	Template      string      `json:"template"`  // base file within the tree; empty for formats that generate natively
	NewBase       string      `json:"new_base"`  // template override used only when instantiating new translations
	Format        string      `json:"format"`
	NewLang       NewLangMode `json:"new_lang"`
	CodeStyle     CodeStyle   `json:"code_style"`
	LanguageRegex string      `json:"language_regex"` // when set, only matching codes may be added
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// NewTranslationBase returns the file new translations are instantiated
// from: new_base when set, the template otherwise.
func (c *Component) NewTranslationBase() string {
	if c.NewBase != "" {
		return c.NewBase
	}
	return c.Template
}
