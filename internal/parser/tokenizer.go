package parser

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/unicode/norm"
)

// The yellow column-header banner repeats before every course group and is
// always this many cells, ending with the "Instructor(s)" cell.
const headerBannerWidth = 18

// parseTermTitle reads the document's only h2, e.g.
// "Course Search For Spring 2023", and returns (year, term).
func parseTermTitle(doc *goquery.Document) (int, int, error) {
	title := strings.Fields(doc.Find("h2").First().Text())
	if len(title) == 0 {
		return 0, 0, &StructuralError{Reason: "term title heading missing"}
	}

	year, err := strconv.Atoi(title[len(title)-1])
	if err != nil {
		return 0, 0, &StructuralError{Reason: "term title has no year: " + strings.Join(title, " ")}
	}

	term := 0
	for _, word := range title {
		switch word {
		case "Spring":
			term = 10
		case "Summer":
			term = 20
		case "Fall":
			term = 30
		}
	}
	if term == 0 {
		return 0, 0, &StructuralError{Reason: "term title has no season: " + strings.Join(title, " ")}
	}
	return year, term, nil
}

// tokenize flattens the sections table into cleaned cell tokens in reading
// order, dropping layout noise: separator cells, full-width filler under
// long notes, the recurring header banner, per-course heading cells and
// "new course" markers.
func tokenize(doc *goquery.Document) ([]string, error) {
	table := doc.Find("table.dataentrytable").First()
	if table.Length() == 0 {
		return nil, &StructuralError{Reason: "dataentrytable missing"}
	}

	var tokens []string
	table.Find("td").Each(func(_ int, cell *goquery.Selection) {
		if cell.HasClass("deseparator") {
			return
		}
		// Comments longer than two lines get a full-width spacer row
		// underneath.
		if colspan, ok := cell.Attr("colspan"); ok && colspan == "22" {
			return
		}

		txt := norm.NFKD.String(cell.Text())

		// The banner's cells have already been collected by the time its
		// final cell shows up, so drop them retroactively.
		if txt == "Instructor(s)" {
			keep := len(tokens) - headerBannerWidth
			if keep < 0 {
				keep = 0
			}
			tokens = tokens[:keep]
			return
		}
		if isCourseHeader(txt) {
			return
		}
		// Non-standard heading, e.g. "BINF 4225 ***NEW COURSE***".
		if strings.HasSuffix(txt, "***") {
			return
		}

		tokens = append(tokens, txt)
	})

	if len(tokens) == 0 {
		return nil, &StructuralError{Reason: "sections table has no data cells"}
	}
	return tokens, nil
}

// isCourseHeader recognizes the per-course boundary cell, e.g. "CPSC 1150".
// It carries no schedule data.
func isCourseHeader(txt string) bool {
	if len(txt) != 9 {
		return false
	}
	for _, r := range txt[0:4] {
		if !isAlpha(r) {
			return false
		}
	}
	for _, r := range txt[5:9] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isAlpha(r rune) bool {
	return (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z')
}

// isDigits reports whether s is non-empty and entirely ASCII digits.
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// isBlank reports whether a token is layout padding.
func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
