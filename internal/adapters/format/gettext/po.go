package gettext

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// poEntry is one message of a PO file. The entry with an empty msgid and
// no context is the header.
type poEntry struct {
	comments    []string
	msgctxt     string
	hasCtxt     bool
	msgid       string
	msgidPlural string
	hasPlural   bool
	msgstrs     []string
}

func (e *poEntry) isHeader() bool { return e.msgid == "" && !e.hasCtxt && !e.hasPlural }

// key is the unit identifier, with the context joined by the EOT byte the
// gettext runtime uses.
func (e *poEntry) key() string {
	if e.hasCtxt {
		return e.msgctxt + "\x04" + e.msgid
	}
	return e.msgid
}

func (e *poEntry) fuzzy() bool {
	for _, c := range e.comments {
		if strings.HasPrefix(c, "#,") && strings.Contains(c, "fuzzy") {
			return true
		}
	}
	return false
}

func (e *poEntry) translated() bool {
	if e.fuzzy() || len(e.msgstrs) == 0 {
		return false
	}
	for _, s := range e.msgstrs {
		if s == "" {
			return false
		}
	}
	return true
}

const (
	fieldNone = iota
	fieldCtxt
	fieldID
	fieldPlural
	fieldStr
)

func parsePO(r io.Reader) ([]*poEntry, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		entries  []*poEntry
		cur      *poEntry
		comments []string
		field    = fieldNone
		strIdx   int
		lineNo   int
	)
	flush := func() {
		if cur != nil {
			entries = append(entries, cur)
			cur = nil
		}
		field = fieldNone
	}
	appendTo := func(s string) {
		switch field {
		case fieldCtxt:
			cur.msgctxt += s
		case fieldID:
			cur.msgid += s
		case fieldPlural:
			cur.msgidPlural += s
		case fieldStr:
			cur.msgstrs[strIdx] += s
		}
	}

	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "":
			flush()
		case strings.HasPrefix(line, "#~"):
			// Obsolete entries are not part of the catalog.
		case strings.HasPrefix(line, "#"):
			if cur != nil {
				flush()
			}
			comments = append(comments, line)
		case strings.HasPrefix(line, "msgctxt "):
			if cur != nil {
				flush()
			}
			cur = &poEntry{comments: comments, hasCtxt: true}
			comments = nil
			s, err := unquotePO(line[len("msgctxt "):])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			cur.msgctxt = s
			field = fieldCtxt
		case strings.HasPrefix(line, "msgid_plural "):
			if cur == nil {
				return nil, fmt.Errorf("line %d: msgid_plural without msgid", lineNo)
			}
			s, err := unquotePO(line[len("msgid_plural "):])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			cur.hasPlural = true
			cur.msgidPlural = s
			field = fieldPlural
		case strings.HasPrefix(line, "msgid "):
			if cur != nil && len(cur.msgstrs) > 0 {
				flush()
			}
			if cur == nil {
				cur = &poEntry{comments: comments}
				comments = nil
			}
			s, err := unquotePO(line[len("msgid "):])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			cur.msgid = s
			field = fieldID
		case strings.HasPrefix(line, "msgstr"):
			if cur == nil {
				return nil, fmt.Errorf("line %d: msgstr without msgid", lineNo)
			}
			rest := line[len("msgstr"):]
			idx := 0
			if strings.HasPrefix(rest, "[") {
				end := strings.Index(rest, "]")
				if end < 0 {
					return nil, fmt.Errorf("line %d: malformed msgstr index", lineNo)
				}
				n, err := strconv.Atoi(rest[1:end])
				if err != nil || n < 0 {
					return nil, fmt.Errorf("line %d: malformed msgstr index", lineNo)
				}
				idx = n
				rest = rest[end+1:]
			}
			s, err := unquotePO(rest)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			for len(cur.msgstrs) <= idx {
				cur.msgstrs = append(cur.msgstrs, "")
			}
			cur.msgstrs[idx] += s
			field = fieldStr
			strIdx = idx
		case strings.HasPrefix(line, "\""):
			if cur == nil || field == fieldNone {
				return nil, fmt.Errorf("line %d: stray continuation string", lineNo)
			}
			s, err := unquotePO(line)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			appendTo(s)
		default:
			return nil, fmt.Errorf("line %d: unexpected %q", lineNo, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	flush()
	return entries, nil
}

func writePO(w io.Writer, entries []*poEntry) error {
	bw := bufio.NewWriter(w)
	for i, e := range entries {
		if i > 0 {
			fmt.Fprintln(bw)
		}
		for _, c := range e.comments {
			fmt.Fprintln(bw, c)
		}
		if e.hasCtxt {
			writePOString(bw, "msgctxt", e.msgctxt)
		}
		writePOString(bw, "msgid", e.msgid)
		if e.hasPlural {
			writePOString(bw, "msgid_plural", e.msgidPlural)
			for n, s := range e.msgstrs {
				writePOString(bw, fmt.Sprintf("msgstr[%d]", n), s)
			}
			continue
		}
		s := ""
		if len(e.msgstrs) > 0 {
			s = e.msgstrs[0]
		}
		writePOString(bw, "msgstr", s)
	}
	return bw.Flush()
}

// writePOString emits keyword "value", splitting multi line values the way
// msgcat does: an empty first string, then one quoted string per line.
func writePOString(w io.Writer, keyword, s string) {
	segs := splitAfterNewlines(s)
	if len(segs) <= 1 {
		fmt.Fprintf(w, "%s \"%s\"\n", keyword, escapePO(s))
		return
	}
	fmt.Fprintf(w, "%s \"\"\n", keyword)
	for _, seg := range segs {
		fmt.Fprintf(w, "\"%s\"\n", escapePO(seg))
	}
}

func splitAfterNewlines(s string) []string {
	segs := strings.SplitAfter(s, "\n")
	if n := len(segs); n > 0 && segs[n-1] == "" {
		segs = segs[:n-1]
	}
	return segs
}

func unquotePO(s string) (string, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return "", fmt.Errorf("expected quoted string, got %q", s)
	}
	body := s[1 : len(s)-1]
	var b strings.Builder
	for i := 0; i < len(body); i++ {
		ch := body[i]
		if ch != '\\' {
			b.WriteByte(ch)
			continue
		}
		i++
		if i >= len(body) {
			return "", fmt.Errorf("trailing backslash in %q", s)
		}
		switch body[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '"':
			b.WriteByte('"')
		case '\\':
			b.WriteByte('\\')
		default:
			b.WriteByte('\\')
			b.WriteByte(body[i])
		}
	}
	return b.String(), nil
}

func escapePO(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
