package domain

import "time"

type Translation struct {
	ID          int64     `json:"id"`
	ComponentID int64     `json:"component_id"`
	LanguageID  int64     `json:"language_id"`
	// LanguageCode is the concrete on-disk code. It is written once when
	// the translation is created and stays authoritative afterwards, so
	// changing the component's code style never renames existing files.
	LanguageCode string    `json:"language_code"`
	Filename     string    `json:"filename"` // relative to the component's working tree
	Revision     string    `json:"revision"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
