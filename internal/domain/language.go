package domain

type Language struct {
	ID        int64  `json:"id"`
	Code      string `json:"code"` // internal code, underscore separated: cs, pt_BR, zh_Hant
	Name      string `json:"name"`
	Plural    string `json:"plural"`
	Direction string `json:"direction"` // ltr, rtl
}

type User struct {
	Name      string `json:"name"`
	Superuser bool   `json:"superuser"`
}
