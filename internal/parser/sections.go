package parser

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/coursewatch/coursewatch/internal/model"
)

// Fixed record widths of the tabular dump. Record boundaries are not
// delimited; they are inferred from token content and from the run length
// of blank tokens between records.
const (
	sectionWidth  = 12
	scheduleWidth = 7
)

// TermData is the result of parsing one term's sections dump.
type TermData struct {
	Year      int
	Term      int
	Sections  []*model.Section
	Schedules []*model.ScheduleEntry
}

// ParseSections parses the raw sections table for one term. The term's year
// and season are read from the document heading. Failures are structural
// and fatal for the term; no partial batch is returned.
func ParseSections(r io.Reader) (*TermData, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("reading sections document: %w", err)
	}

	year, term, err := parseTermTitle(doc)
	if err != nil {
		return nil, err
	}

	tokens, err := tokenize(doc)
	if err != nil {
		if serr, ok := err.(*StructuralError); ok {
			serr.Year, serr.Term = year, term
		}
		return nil, err
	}

	p := &termParse{year: year, term: term, tokens: tokens}
	if err := p.run(); err != nil {
		return nil, err
	}
	return &TermData{Year: year, Term: term, Sections: p.sections, Schedules: p.schedules}, nil
}

// courseNote is a course-wide note that precedes a group of sections. It
// applies to every following section with the same (subject, course_code)
// and is cleared permanently on the first mismatch.
type courseNote struct {
	key  string // "SUBJ ####"
	text string
}

// termParse is a single forward cursor over the token stream.
type termParse struct {
	year, term int
	tokens     []string
	pos        int

	pending   *courseNote
	sections  []*model.Section
	schedules []*model.ScheduleEntry
}

func (p *termParse) run() error {
	for p.pos < len(p.tokens)-1 {
		p.captureCourseNote()
		p.fixSectionOffset()

		sec, err := p.readSection()
		if err != nil {
			return err
		}
		p.sections = append(p.sections, sec)

		if err := p.readScheduleBlock(sec); err != nil {
			return err
		}
	}
	return nil
}

// captureCourseNote handles free-text notes that span multiple physical
// columns in front of a course group. Any token longer than the widest
// section-status cell at a record boundary is such a note: its first nine
// characters carry the course key, the rest is the note body.
func (p *termParse) captureCourseNote() {
	tok := p.tokens[p.pos]
	if len(tok) <= 2 {
		return
	}
	key, text := tok, ""
	if len(tok) >= 9 {
		key = tok[:9]
	}
	if len(tok) > 10 {
		text = strings.TrimSpace(tok[10:])
	}
	p.pending = &courseNote{key: key, text: text}
	p.pos++
}

// fixSectionOffset backs the cursor up one token when the expected start of
// a section record is purely numeric. A handful of historical terms emit
// one row misaligned this way (see 30566 in 201530); the fixtures are the
// ground truth for this branch.
func (p *termParse) fixSectionOffset() {
	if isDigits(p.tokens[p.pos]) {
		p.pos--
	}
}

// readSection decodes the fixed 12-token section record at the cursor.
func (p *termParse) readSection() (*model.Section, error) {
	if p.pos < 0 || p.pos+sectionWidth > len(p.tokens) {
		return nil, p.structural("truncated section record")
	}
	w := p.tokens[p.pos : p.pos+sectionWidth]

	subject := strings.TrimSpace(w[5])
	courseCode := strings.TrimSpace(w[6])

	crn, err := strconv.Atoi(strings.TrimSpace(w[4]))
	if err != nil {
		return nil, p.structural(fmt.Sprintf("bad crn token %q for %s %s", w[4], subject, courseCode))
	}

	rp, err := parseRP(w[0])
	if err != nil {
		return nil, p.structural(fmt.Sprintf("%v in section %d", err, crn))
	}

	credits := 0.0
	if c := strings.TrimSpace(w[8]); c != "" {
		credits, err = strconv.ParseFloat(c, 64)
		if err != nil {
			return nil, p.structural(fmt.Sprintf("bad credits token %q in section %d", w[8], crn))
		}
	}

	fee, err := parseFee(w[10])
	if err != nil {
		return nil, p.structural(fmt.Sprintf("bad fee token %q in section %d", w[10], crn))
	}

	rpt, err := parseRptLimit(w[11])
	if err != nil {
		return nil, p.structural(fmt.Sprintf("bad repeat limit token %q in section %d", w[11], crn))
	}

	sec := &model.Section{
		ID:               model.SectionID(subject, courseCode, p.year, p.term, crn),
		CRN:              crn,
		RP:               rp,
		Seats:            strings.TrimSpace(w[1]),
		Waitlist:         optString(w[2]),
		Label:            optString(w[7]),
		Credits:          credits,
		AbbreviatedTitle: optString(w[9]),
		AddFees:          fee,
		RptLimit:         rpt,
		Subject:          subject,
		CourseCode:       courseCode,
		Year:             p.year,
		Term:             p.term,
	}
	// w[3] is the registration-form select column; it carries no data.

	if p.pending != nil {
		if p.pending.key == subject+" "+courseCode {
			note := p.pending.text
			sec.Notes = &note
		} else {
			p.pending = nil
		}
	}

	p.pos += sectionWidth
	return sec, nil
}

// readScheduleBlock consumes 7-token schedule records for sec until the
// boundary heuristic says the section is over.
func (p *termParse) readScheduleBlock(sec *model.Section) error {
	ordinal := 0
	for {
		if p.pos+scheduleWidth > len(p.tokens) {
			return p.structural(fmt.Sprintf("truncated schedule record in section %d", sec.CRN))
		}
		w := p.tokens[p.pos : p.pos+scheduleWidth]

		mt := model.MeetingType(w[0])
		if !mt.Valid() {
			return p.structural(fmt.Sprintf("unexpected meeting type %q in section %d", w[0], sec.CRN))
		}

		p.schedules = append(p.schedules, &model.ScheduleEntry{
			ID:         model.ScheduleID(sec.Subject, sec.CourseCode, p.year, p.term, sec.CRN, ordinal),
			CRN:        sec.CRN,
			Subject:    sec.Subject,
			CourseCode: sec.CourseCode,
			Year:       p.year,
			Term:       p.term,
			Type:       mt,
			Days:       w[1],
			Time:       w[2],
			Start:      optDate(w[3], p.year),
			End:        optDate(w[4], p.year),
			Room:       w[5],
			Instructor: w[6],
		})
		ordinal++
		p.pos += scheduleWidth

		if p.pos > len(p.tokens)-1 {
			return nil
		}

		gap := 0
		for isBlank(p.tokens[p.pos]) {
			p.pos++
			gap++
			if p.pos >= len(p.tokens) {
				return nil
			}
		}

		switch boundaryAction(gap) {
		case actionNewSection:
			// The blank run is the next section's leading status cells;
			// rewind so they are read as part of its record.
			p.pos -= gap
			return nil
		case actionSectionNote:
			p.attachSectionNote(sec)
			return nil
		case actionContinueSchedule:
			continue
		default:
			return nil
		}
	}
}

type action int

const (
	actionStop action = iota
	actionNewSection
	actionSectionNote
	actionContinueSchedule
)

// boundaryAction is the gap-length heuristic that disambiguates what
// follows a schedule record. The thresholds are reverse-engineered from
// decades of inconsistent dumps; the fixture tests are their ground truth.
//
//	gap <= 5: the blank run is the next section's leading cells
//	gap == 9: a section-level note for the current section
//	gap == 12: more meeting patterns for the same section
//	anything else: re-evaluate at the outer level
func boundaryAction(gap int) action {
	switch {
	case gap <= 5:
		return actionNewSection
	case gap == 9:
		return actionSectionNote
	case gap == 12:
		return actionContinueSchedule
	default:
		return actionStop
	}
}

// attachSectionNote prepends the note at the cursor to the section's notes;
// an existing note (including a course-wide one) is kept after it. The note
// cell spans several physical columns, so the cursor skips five tokens.
func (p *termParse) attachSectionNote(sec *model.Section) {
	note := strings.NewReplacer("\n", "", "\r", "").Replace(p.tokens[p.pos])
	if sec.Notes == nil {
		sec.Notes = &note
	} else {
		combined := note + "\n" + *sec.Notes
		sec.Notes = &combined
	}
	p.pos += 5
}

func (p *termParse) structural(reason string) error {
	return &StructuralError{Year: p.year, Term: p.term, Reason: reason}
}

// parseRP decodes the registration status cell, compacting interior
// whitespace ("R P" occurs in old terms).
func parseRP(tok string) (*string, error) {
	rp := strings.Join(strings.Fields(tok), "")
	if rp == "" {
		return nil, nil
	}
	if !model.ValidRP(rp) {
		return nil, fmt.Errorf("unknown registration status %q", tok)
	}
	return &rp, nil
}

// parseFee decodes the additional-fee cell, e.g. "$5,933.55" -> 5933.55.
func parseFee(tok string) (*float64, error) {
	s := strings.TrimSpace(tok)
	if s == "" {
		return nil, nil
	}
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	fee, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &fee, nil
}

// parseRptLimit decodes the repeat-limit cell; the "-" sentinel means no
// limit is advertised.
func parseRptLimit(tok string) (*int, error) {
	s := strings.TrimSpace(tok)
	if s == "" || s == "-" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func optString(tok string) *string {
	s := strings.TrimSpace(tok)
	if s == "" {
		return nil
	}
	return &s
}

// optDate normalizes a date cell, mapping blanks to nil.
func optDate(tok string, year int) *string {
	if strings.TrimSpace(tok) == "" {
		return nil
	}
	d := FormatDate(tok, year)
	return &d
}
