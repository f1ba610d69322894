package domain

// Unit is a single translatable entry of a translation file. Key is the
// format specific identifier: msgid for gettext, resource name for android
// resources, flattened path for json.
type Unit struct {
	Key        string `json:"key"`
	Source     string `json:"source"`
	Target     string `json:"target"`
	Translated bool   `json:"translated"`
}
