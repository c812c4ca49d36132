package parser

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/coursewatch/coursewatch/internal/model"
)

// ParseCatalogue parses the per-term course catalogue into CourseSummary
// rows. Catalogues before 2012 use a layout this parser cannot read; those
// return an error wrapping ErrCatalogueFormat, which callers treat as
// recoverable (the term proceeds with no summaries).
func ParseCatalogue(r io.Reader, year, term int) ([]*model.CourseSummary, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("reading catalogue document: %w", err)
	}

	var summaries []*model.CourseSummary
	var parseErr error

	doc.Find("div.course").EachWithBreak(func(_ int, div *goquery.Selection) bool {
		summary, err := parseCourseDiv(div, year, term)
		if err != nil {
			parseErr = err
			return false
		}
		summaries = append(summaries, summary)
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return summaries, nil
}

func parseCourseDiv(div *goquery.Selection, year, term int) (*model.CourseSummary, error) {
	// The heading looks like "ABST 1100 (3 credits) (3:0:0)".
	heading := strings.Fields(div.Find("h2").First().Text())
	if len(heading) < 5 {
		return nil, fmt.Errorf("%w: short course heading %q", ErrCatalogueFormat, strings.Join(heading, " "))
	}
	subject := heading[0]
	courseCode := heading[1]

	credits, err := strconv.ParseFloat(strings.TrimPrefix(heading[2], "("), 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad credits in heading for %s %s", ErrCatalogueFormat, subject, courseCode)
	}

	hours := strings.Split(strings.Trim(heading[4], "()"), ":")
	if len(hours) != 3 {
		return nil, fmt.Errorf("%w: bad hours in heading for %s %s", ErrCatalogueFormat, subject, courseCode)
	}
	var lecture, seminar, lab float64
	for i, dst := range []*float64{&lecture, &seminar, &lab} {
		v, err := strconv.ParseFloat(hours[i], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad hours in heading for %s %s", ErrCatalogueFormat, subject, courseCode)
		}
		*dst = v
	}

	title := div.Find("b").First().Text()

	// The description is the first untagged text node in the block.
	var description *string
	div.Contents().EachWithBreak(func(_ int, node *goquery.Selection) bool {
		if goquery.NodeName(node) != "#text" {
			return true
		}
		text := strings.TrimSpace(node.Text())
		if text == "" {
			return true
		}
		description = &text
		return false
	})

	return &model.CourseSummary{
		ID:           model.SummaryID(subject, courseCode, year, term),
		Subject:      subject,
		CourseCode:   courseCode,
		Year:         year,
		Term:         term,
		Title:        title,
		Description:  description,
		Credits:      credits,
		HoursLecture: &lecture,
		HoursSeminar: &seminar,
		HoursLab:     &lab,
	}, nil
}
