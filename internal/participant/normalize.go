package participant

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeName trims surrounding whitespace and applies NFC so that the
// same name typed on different keyboards is stored byte-identically.
// A name made only of whitespace normalizes to "".
func NormalizeName(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
