package study

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// NormalizeTitle is the cross-reference key between stored problems and
// curriculum entries: NFKC, case folded, inner whitespace collapsed.
func NormalizeTitle(s string) string {
	s = norm.NFKC.String(s)
	s = cases.Fold().String(s)
	return strings.Join(strings.Fields(s), " ")
}
