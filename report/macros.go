package report

import (
	"fmt"
	"regexp"
	"strings"
)

// WysiwygKey counts the editor's placeholder for a macro it couldn't render.
const WysiwygKey = "wysiwyg-unknown-macro"

const unknownMacroPrefix = "unknown-macro?name="

// \w in the sense of "letters, digits, underscore", Unicode included.
var unknownMacroPattern = regexp.MustCompile(`unknown-macro\?name=([\p{L}\p{N}_]+)`)

// MacroCount is one entry of MacroCounts.
type MacroCount struct {
	Key   string
	Count int
}

// MacroCounts maps macro keys to occurrence counts, in the order keys were first seen.  The
// wysiwyg key is always last.
type MacroCounts []MacroCount

// CountMacros scans rendered page HTML for unknown-macro placeholders.  Every distinct
// unknown-macro?name=<name> gets its own key; wysiwyg-unknown-macro is counted on its own,
// over the same text, and is always present.
func CountMacros(body string) MacroCounts {
	counts := MacroCounts{}
	index := map[string]int{}

	for _, match := range unknownMacroPattern.FindAllStringSubmatch(body, -1) {
		key := unknownMacroPrefix + match[1]
		if i, ok := index[key]; ok {
			counts[i].Count++
			continue
		}
		index[key] = len(counts)
		counts = append(counts, MacroCount{Key: key, Count: 1})
	}

	counts = append(counts, MacroCount{
		Key:   WysiwygKey,
		Count: strings.Count(body, WysiwygKey),
	})

	return counts
}

// Get returns the count for key, zero if absent.
func (c MacroCounts) Get(key string) int {
	for _, mc := range c {
		if mc.Key == key {
			return mc.Count
		}
	}
	return 0
}

// Any reports whether at least one count is non-zero.
func (c MacroCounts) Any() bool {
	for _, mc := range c {
		if mc.Count > 0 {
			return true
		}
	}
	return false
}

// Map is handy for comparisons; it loses the ordering.
func (c MacroCounts) Map() map[string]int {
	m := make(map[string]int, len(c))
	for _, mc := range c {
		m[mc.Key] = mc.Count
	}
	return m
}

// String renders the counts the way the report's counts column wants them:
// "key: value, key: value".
func (c MacroCounts) String() string {
	parts := make([]string, 0, len(c))
	for _, mc := range c {
		parts = append(parts, fmt.Sprintf("%s: %d", mc.Key, mc.Count))
	}
	return strings.Join(parts, ", ")
}
