package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/coursewatch/coursewatch/internal/model"
)

// Each attribute row is the course key cell followed by seven flag cells.
const attributeStride = 8

// ParseAttributes parses the per-term course attributes table. The first
// table on the page is the filter form; the data lives in the second.
func ParseAttributes(r io.Reader, year, term int) ([]*model.CourseAttribute, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("reading attributes document: %w", err)
	}

	tables := doc.Find("table")
	if tables.Length() < 2 {
		return nil, &StructuralError{Year: year, Term: term, Reason: "attributes table missing"}
	}

	var cells []string
	tables.Eq(1).Find("td").Each(func(_ int, cell *goquery.Selection) {
		cells = append(cells, cell.Text())
	})

	var attributes []*model.CourseAttribute
	for i := 0; i+attributeStride <= len(cells); i += attributeStride {
		key := strings.Fields(cells[i])
		if len(key) < 2 {
			return nil, &StructuralError{Year: year, Term: term, Reason: fmt.Sprintf("bad attribute course cell %q", cells[i])}
		}
		subject, courseCode := key[0], key[1]

		attributes = append(attributes, &model.CourseAttribute{
			ID:         model.AttributeID(subject, courseCode, year, term),
			Subject:    subject,
			CourseCode: courseCode,
			Year:       year,
			Term:       term,
			AttrAR:     attrFlag(cells[i+1]),
			AttrSC:     attrFlag(cells[i+2]),
			AttrHUM:    attrFlag(cells[i+3]),
			AttrLSC:    attrFlag(cells[i+4]),
			AttrSCI:    attrFlag(cells[i+5]),
			AttrSOC:    attrFlag(cells[i+6]),
			AttrUT:     attrFlag(cells[i+7]),
		})
	}
	return attributes, nil
}

// attrFlag decodes a flag cell: "Y" is set, blank (or the literal entity)
// is not.
func attrFlag(cell string) bool {
	return strings.TrimSpace(cell) == "Y"
}
