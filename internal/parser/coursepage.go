package parser

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/coursewatch/coursewatch/internal/model"
)

// ParseCoursePage parses one course description page from the institution
// website into a CoursePage row. The online and preparatory glyphs live on
// the subject index page, not here, so those flags stay nil.
func ParseCoursePage(r io.Reader) (*model.CoursePage, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("reading course page document: %w", err)
	}

	// The course content is the section-inner div that wraps another one.
	var section *goquery.Selection
	doc.Find("div.section-inner").EachWithBreak(func(_ int, div *goquery.Selection) bool {
		if div.Find("div.section-inner").Length() > 0 {
			section = div
			return false
		}
		return true
	})
	if section == nil {
		return nil, &StructuralError{Reason: "course page has no content section"}
	}

	// The heading looks like "CPSC 1150: Program Design".
	heading := strings.TrimSpace(section.Find("h2").First().Text())
	code, title, ok := strings.Cut(heading, ": ")
	if !ok {
		return nil, &StructuralError{Reason: "course page heading not recognized: " + heading}
	}
	key := strings.Fields(code)
	if len(key) != 2 {
		return nil, &StructuralError{Reason: "course page heading not recognized: " + heading}
	}
	subject, courseCode := key[0], key[1]

	page := &model.CoursePage{
		ID:         model.PageID(subject, courseCode),
		Subject:    subject,
		CourseCode: courseCode,
		Title:      title,
	}

	section.Find("table.table-course-detail tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		value := strings.TrimSpace(cells.Eq(1).Text())
		switch strings.TrimSpace(cells.Eq(0).Text()) {
		case "Course Format":
			page.HoursLecture = hoursAfter(value, "Lecture ")
			page.HoursSeminar = hoursAfter(value, "Seminar ")
			page.HoursLab = hoursAfter(value, "Lab. ")
		case "Credits":
			if v, err := strconv.ParseFloat(value, 64); err == nil {
				page.Credits = &v
			}
		}
	})

	applyPageDescription(page, section)
	return page, nil
}

// applyPageDescription classifies the text runs of the paragraph following
// the "Course Description" heading. Requisite, restriction, duplicate-credit
// and replacement sentences are pulled into their own fields; everything
// else is the description.
func applyPageDescription(page *model.CoursePage, section *goquery.Selection) {
	var para *goquery.Selection
	section.Find("h3").EachWithBreak(func(_ int, h *goquery.Selection) bool {
		if strings.TrimSpace(h.Text()) == "Course Description" {
			para = h.NextAllFiltered("p").First()
			return false
		}
		return true
	})
	if para == nil {
		return
	}

	var lines []string
	para.Contents().Each(func(_ int, node *goquery.Selection) {
		if goquery.NodeName(node) != "#text" {
			return
		}
		text := strings.TrimSpace(node.Text())
		if text == "" {
			return
		}
		switch {
		case strings.Contains(text, "Formerly") || strings.HasPrefix(text, "Discontinued "):
			page.DescReplacementCourse = &text
		case strings.Contains(text, "registration in this course"):
			page.DescRegistrationRestriction = &text
		case strings.Contains(text, "receive credit"):
			page.DescDuplicateCredit = &text
		case strings.Contains(text, "Prerequisite(s)"):
			page.DescPrerequisite = &text
		default:
			lines = append(lines, text)
		}
	})
	if len(lines) > 0 {
		desc := strings.Join(lines, "\n")
		page.Description = &desc
	}
}

// hoursAfter pulls the number following a marker out of the course format
// cell, e.g. "Lecture 4.0 h + Seminar 0.0 h + Lab. 2.0 h".
func hoursAfter(value, marker string) *float64 {
	_, rest, ok := strings.Cut(value, marker)
	if !ok {
		return nil
	}
	num, _, _ := strings.Cut(rest, " h")
	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return nil
	}
	return &v
}
