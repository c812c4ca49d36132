package parser

import (
	"fmt"
	"strings"
)

var monthAbbrevs = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

// FormatDate converts an abbreviated date token like "11-Apr-23" to
// ISO-8601 ("2023-04-11"). Tokens that do not match the expected shape pass
// through untouched; some terms contain already-formatted or malformed date
// cells.
//
// The century of the two-digit year is taken from the term being parsed:
// terms up to 1999 map to 19xx, everything later to 20xx. The source system
// has no data before 1999, so this is safe for the range it covers.
func FormatDate(date string, year int) string {
	if len(date) != 9 {
		return date
	}
	parts := strings.Split(date, "-")
	if len(parts) != 3 || isDigits(parts[1]) {
		return date
	}

	month, ok := monthAbbrevs[strings.ToLower(parts[1])]
	if !ok {
		return date
	}

	century := "20"
	if year <= 1999 {
		century = "19"
	}
	return fmt.Sprintf("%s%s-%02d-%s", century, parts[2], month, parts[0])
}
