// Package label holds the rules for user-editable entity labels.
package label

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalize trims surrounding whitespace and converts s to Unicode NFC so that
// visually identical labels compare equal. ok is false when nothing remains.
func Normalize(s string) (string, bool) {
	out := strings.TrimSpace(norm.NFC.String(s))
	return out, out != ""
}

// Default is the label given to a new entity of the named kind, e.g. "Timer 3".
func Default(kind string, id int) string {
	return fmt.Sprintf("%s %d", kind, id)
}

// OrDefault normalizes s and falls back to Default when it is blank.
func OrDefault(s, kind string, id int) string {
	if out, ok := Normalize(s); ok {
		return out
	}
	return Default(kind, id)
}
