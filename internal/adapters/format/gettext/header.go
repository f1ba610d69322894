package gettext

import "strings"

// header is the ordered key/value list stored in the msgstr of the header
// entry.
type header struct {
	keys []string
	vals map[string]string
}

func parseHeader(s string) *header {
	h := &header{vals: map[string]string{}}
	for _, line := range strings.Split(s, "\n") {
		if line == "" {
			continue
		}
		k, v, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		h.set(strings.TrimSpace(k), strings.TrimSpace(v))
	}
	return h
}

func (h *header) set(k, v string) {
	if _, ok := h.vals[k]; !ok {
		h.keys = append(h.keys, k)
	}
	h.vals[k] = v
}

func (h *header) setDefault(k, v string) {
	if _, ok := h.vals[k]; !ok {
		h.set(k, v)
	}
}

func (h *header) String() string {
	var b strings.Builder
	for _, k := range h.keys {
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(h.vals[k])
		b.WriteString("\n")
	}
	return b.String()
}
