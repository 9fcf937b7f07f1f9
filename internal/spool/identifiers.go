// Package spool handles the spool identifier list typed into the job form.
package spool

import "strings"

func isSeparator(r rune) bool {
	switch r {
	case '\n', '\r', ',', ';':
		return true
	}
	return false
}

// ParseList splits free text on newlines, commas and semicolons and returns the
// trimmed identifiers in input order. Identifiers that differ only in case are
// the same spool, so later spellings are dropped. The result is never nil.
func ParseList(text string) []string {
	fields := strings.FieldsFunc(text, isSeparator)
	out := make([]string, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		id := strings.TrimSpace(f)
		if id == "" {
			continue
		}
		key := strings.ToUpper(id)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Join renders ids back into the textarea form, one per line.
func Join(ids []string) string {
	return strings.Join(ids, "\n")
}
