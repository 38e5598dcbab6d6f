package registry

import (
	"regexp"
	"strings"
)

var (
	separatorRe  = regexp.MustCompile(`[/&]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// synonyms maps tracker spellings of a service to its canonical identifier.
var synonyms = map[string]string{
	"google calendar":   "calendar",
	"calender":          "calendar",
	"google mail":       "gmail",
	"email":             "gmail",
	"e-mail":            "gmail",
	"media control":     "media_control",
	"device settings":   "device_settings",
	"whatsapp message":  "whatsapp",
	"whatsapp messages": "whatsapp",
	"message":           "whatsapp",
	"messages":          "whatsapp",
	"reminder":          "reminders",
	"generic reminders": "reminders",
	"notes and lists":   "notes",
	"notes_and_lists":   "notes",
	"device actions":    "device_actions",
}

// NormalizeToken canonicalizes one service token from a task row or source
// table: trims, lowercases, collapses separators, and applies the synonym
// table.
func NormalizeToken(tok string) string {
	t := strings.ToLower(strings.TrimSpace(tok))
	t = separatorRe.ReplaceAllString(t, " ")
	t = strings.TrimSpace(whitespaceRe.ReplaceAllString(t, " "))
	if canonical, ok := synonyms[t]; ok {
		return canonical
	}
	return t
}

// SplitServices parses a requested-services cell ("whatsapp | calendar,
// email") into normalized identifiers, deduplicated by first occurrence.
func SplitServices(cell string) []string {
	if strings.TrimSpace(cell) == "" {
		return nil
	}

	var out []string
	seen := make(map[string]bool)
	for _, tok := range strings.FieldsFunc(cell, func(r rune) bool {
		return r == '|' || r == ','
	}) {
		name := NormalizeToken(tok)
		if name != "" && !seen[name] {
			out = append(out, name)
			seen[name] = true
		}
	}
	return out
}
