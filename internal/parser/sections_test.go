package parser

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/coursewatch/coursewatch/internal/model"
)

func openFixture(t *testing.T, name string) *os.File {
	t.Helper()
	f, err := os.Open(filepath.Join("testdata", "fixtures", name))
	if err != nil {
		t.Fatalf("opening fixture: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func TestParseSectionsFixture(t *testing.T) {
	data, err := ParseSections(openFixture(t, "sections_spring2023.html"))
	if err != nil {
		t.Fatalf("ParseSections: %v", err)
	}

	if data.Year != 2023 || data.Term != 10 {
		t.Fatalf("term = %d/%d, expected 2023/10", data.Year, data.Term)
	}
	if len(data.Sections) != 3 {
		t.Fatalf("got %d sections, expected 3", len(data.Sections))
	}
	if len(data.Schedules) != 4 {
		t.Fatalf("got %d schedules, expected 4", len(data.Schedules))
	}

	first := data.Sections[0]
	if first.CRN != 30101 || first.Subject != "CPSC" || first.CourseCode != "1150" {
		t.Errorf("first section = %d %s %s", first.CRN, first.Subject, first.CourseCode)
	}
	if first.Seats != "10" {
		t.Errorf("first section seats = %q", first.Seats)
	}
	if first.Waitlist == nil || *first.Waitlist != "0" {
		t.Errorf("first section waitlist = %v", first.Waitlist)
	}
	if first.Label == nil || *first.Label != "001" {
		t.Errorf("first section label = %v", first.Label)
	}
	if first.Credits != 3.0 {
		t.Errorf("first section credits = %v", first.Credits)
	}
	if first.AddFees == nil || *first.AddFees != 25.50 {
		t.Errorf("first section fee = %v", first.AddFees)
	}
	if first.RptLimit != nil {
		t.Errorf("first section repeat limit = %v, expected nil", *first.RptLimit)
	}
	if first.Notes == nil || *first.Notes != "This section has a lab component" {
		t.Errorf("first section notes = %v", first.Notes)
	}

	second := data.Sections[1]
	if second.CRN != 30102 {
		t.Fatalf("second section crn = %d", second.CRN)
	}
	if second.Notes == nil || *second.Notes != "Students must also register in a lab section." {
		t.Errorf("second section notes = %v", second.Notes)
	}
	if second.AbbreviatedTitle == nil || *second.AbbreviatedTitle != "Algrthms & Data Strctrs" {
		t.Errorf("second section title = %v", second.AbbreviatedTitle)
	}
	if second.RptLimit == nil || *second.RptLimit != 2 {
		t.Errorf("second section repeat limit = %v", second.RptLimit)
	}

	// The course-wide note for CPSC 1160 must not leak onto MATH 1171.
	third := data.Sections[2]
	if third.CRN != 30103 || third.Subject != "MATH" {
		t.Fatalf("third section = %d %s", third.CRN, third.Subject)
	}
	if third.Notes != nil {
		t.Errorf("third section notes = %q, expected none", *third.Notes)
	}

	// First section meets twice: a lecture with dates, then a lab without.
	lecture := data.Schedules[0]
	if lecture.CRN != 30101 || lecture.Type != "Lecture" || lecture.Days != "M-W----" {
		t.Errorf("first schedule = %+v", lecture)
	}
	if lecture.Start == nil || *lecture.Start != "2023-04-11" {
		t.Errorf("first schedule start = %v", lecture.Start)
	}
	if lecture.End == nil || *lecture.End != "2023-07-25" {
		t.Errorf("first schedule end = %v", lecture.End)
	}
	lab := data.Schedules[1]
	if lab.CRN != 30101 || lab.Type != "Lab" || lab.Room != "B012" {
		t.Errorf("second schedule = %+v", lab)
	}
	if lab.Start != nil || lab.End != nil {
		t.Errorf("lab dates = %v/%v, expected none", lab.Start, lab.End)
	}
	if data.Schedules[2].CRN != 30102 || data.Schedules[2].Type != "WWW" {
		t.Errorf("third schedule = %+v", data.Schedules[2])
	}
	if data.Schedules[3].CRN != 30103 || data.Schedules[3].Room != "A305" {
		t.Errorf("fourth schedule = %+v", data.Schedules[3])
	}

	wantID := model.SectionID("CPSC", "1150", 2023, 10, 30101)
	if first.ID != wantID {
		t.Errorf("first section id = %q, expected %q", first.ID, wantID)
	}
}

func TestParseSectionsDeterministic(t *testing.T) {
	a, err := ParseSections(openFixture(t, "sections_spring2023.html"))
	if err != nil {
		t.Fatalf("first parse: %v", err)
	}
	b, err := ParseSections(openFixture(t, "sections_spring2023.html"))
	if err != nil {
		t.Fatalf("second parse: %v", err)
	}
	for i := range a.Sections {
		if a.Sections[i].ID != b.Sections[i].ID {
			t.Errorf("section %d id differs between parses: %q vs %q", i, a.Sections[i].ID, b.Sections[i].ID)
		}
	}
	for i := range a.Schedules {
		if a.Schedules[i].ID != b.Schedules[i].ID {
			t.Errorf("schedule %d id differs between parses: %q vs %q", i, a.Schedules[i].ID, b.Schedules[i].ID)
		}
	}
}

func sectionTokens(crn, label, seats string) []string {
	return []string{" ", seats, "0", " ", crn, "CPSC", "1150", label, "3.0", "Program Design", " ", "-"}
}

func scheduleTokens(days string) []string {
	return []string{"Lecture", days, "1030-1220", " ", " ", "A136", "Bob Ross"}
}

func blanks(n int) []string {
	b := make([]string, n)
	for i := range b {
		b[i] = " "
	}
	return b
}

func flatten(groups ...[]string) []string {
	var out []string
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

func TestBoundaryAction(t *testing.T) {
	tests := []struct {
		gap      int
		expected action
	}{
		{0, actionNewSection},
		{1, actionNewSection},
		{5, actionNewSection},
		{6, actionStop},
		{9, actionSectionNote},
		{10, actionStop},
		{12, actionContinueSchedule},
		{13, actionStop},
	}
	for _, tt := range tests {
		if got := boundaryAction(tt.gap); got != tt.expected {
			t.Errorf("boundaryAction(%d) = %v, expected %v", tt.gap, got, tt.expected)
		}
	}
}

func TestScheduleContinuation(t *testing.T) {
	p := &termParse{
		year: 2023, term: 10,
		tokens: flatten(
			sectionTokens("30101", "001", "10"),
			scheduleTokens("M-W----"),
			blanks(12),
			scheduleTokens("-T-----"),
		),
	}
	if err := p.run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(p.sections) != 1 || len(p.schedules) != 2 {
		t.Fatalf("got %d sections, %d schedules; expected 1 and 2", len(p.sections), len(p.schedules))
	}
	if p.schedules[1].Days != "-T-----" {
		t.Errorf("continuation days = %q", p.schedules[1].Days)
	}
	if p.schedules[0].ID == p.schedules[1].ID {
		t.Errorf("continuation reused schedule id %q", p.schedules[0].ID)
	}
}

func TestSectionNotePrepended(t *testing.T) {
	existing := "Register in both."
	p := &termParse{
		year: 2023, term: 10,
		tokens: flatten(
			[]string{"CPSC 1150 Register in both."},
			sectionTokens("30101", "001", "10"),
			scheduleTokens("M-W----"),
			blanks(9),
			[]string{"Seniors only"},
			blanks(4),
		),
	}
	if err := p.run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(p.sections) != 1 {
		t.Fatalf("got %d sections, expected 1", len(p.sections))
	}
	notes := p.sections[0].Notes
	if notes == nil || *notes != "Seniors only\n"+existing {
		t.Errorf("notes = %v, expected note prepended to %q", notes, existing)
	}
}

func TestCourseNoteAppliesWhileKeyMatches(t *testing.T) {
	// The course-wide note covers every consecutive section of the same
	// course and is cleared for good at the first different course.
	p := &termParse{
		year: 2023, term: 10,
		tokens: flatten(
			[]string{"CPSC 1150 Register in both."},
			sectionTokens("30101", "001", "10"),
			scheduleTokens("M-W----"),
			sectionTokens("30102", "002", "12"),
			scheduleTokens("--T-R--"),
			[]string{" ", "8", "1", " ", "30103", "MATH", "1171", "001", "3.0", "Calculus I", " ", "-"},
			scheduleTokens("M-W-F--"),
		),
	}
	if err := p.run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(p.sections) != 3 {
		t.Fatalf("got %d sections, expected 3", len(p.sections))
	}
	for i, sec := range p.sections[:2] {
		if sec.Notes == nil || *sec.Notes != "Register in both." {
			t.Errorf("section %d notes = %v, expected the course note", i, sec.Notes)
		}
	}
	if p.sections[2].Notes != nil {
		t.Errorf("third section notes = %q, expected none", *p.sections[2].Notes)
	}
}

func TestShortGapStartsNewSection(t *testing.T) {
	p := &termParse{
		year: 2023, term: 10,
		tokens: flatten(
			sectionTokens("30101", "001", "10"),
			scheduleTokens("M-W----"),
			// The single blank is the next record's empty RP cell.
			sectionTokens("30102", "002", "5"),
			scheduleTokens("--T-R--"),
		),
	}
	if err := p.run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(p.sections) != 2 {
		t.Fatalf("got %d sections, expected 2", len(p.sections))
	}
	if p.sections[1].CRN != 30102 {
		t.Errorf("second section crn = %d", p.sections[1].CRN)
	}
}

func TestMisalignedSectionStart(t *testing.T) {
	// A short note row leaves the cursor one token past the next section's
	// start, directly on its numeric seats cell. The cursor must back up.
	p := &termParse{
		year: 2023, term: 10,
		tokens: flatten(
			sectionTokens("30565", "001", "10"),
			scheduleTokens("M-W----"),
			blanks(9),
			[]string{"Seniors only"},
			blanks(3),
			sectionTokens("30566", "003", "12"),
			scheduleTokens("--T-R--"),
		),
	}
	if err := p.run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(p.sections) != 2 {
		t.Fatalf("got %d sections, expected 2", len(p.sections))
	}
	if p.sections[1].CRN != 30566 {
		t.Errorf("recovered section crn = %d, expected 30566", p.sections[1].CRN)
	}
	if p.sections[1].Seats != "12" {
		t.Errorf("recovered section seats = %q", p.sections[1].Seats)
	}
}

func TestUnknownMeetingTypeIsStructural(t *testing.T) {
	p := &termParse{
		year: 2023, term: 10,
		tokens: flatten(
			sectionTokens("30101", "001", "10"),
			[]string{"Recitation", "M------", "1030-1220", " ", " ", "A136", "Bob Ross"},
		),
	}
	err := p.run()
	var serr *StructuralError
	if !errors.As(err, &serr) {
		t.Fatalf("run returned %v, expected a structural error", err)
	}
	if serr.Year != 2023 || serr.Term != 10 {
		t.Errorf("structural error term = %d/%d", serr.Year, serr.Term)
	}
}

func TestBadSectionTokensAreStructural(t *testing.T) {
	tests := []struct {
		name   string
		mutate func([]string)
	}{
		{"crn not numeric", func(w []string) { w[4] = "ABCDE" }},
		{"unknown registration status", func(w []string) { w[0] = "Q" }},
		{"credits not numeric", func(w []string) { w[8] = "three" }},
		{"fee not numeric", func(w []string) { w[10] = "$lots" }},
		{"repeat limit not numeric", func(w []string) { w[11] = "x" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := flatten(sectionTokens("30101", "001", "10"), scheduleTokens("M-W----"))
			tt.mutate(tokens)
			p := &termParse{year: 2023, term: 10, tokens: tokens}
			err := p.run()
			var serr *StructuralError
			if !errors.As(err, &serr) {
				t.Fatalf("run returned %v, expected a structural error", err)
			}
		})
	}
}

func TestParseRP(t *testing.T) {
	tests := []struct {
		tok      string
		expected string
		ok       bool
	}{
		{" ", "", true},
		{"R", "R", true},
		{"P", "P", true},
		{"RP", "RP", true},
		{"R P", "RP", true},
		{"Z", "", false},
	}
	for _, tt := range tests {
		got, err := parseRP(tt.tok)
		if tt.ok != (err == nil) {
			t.Errorf("parseRP(%q) error = %v", tt.tok, err)
			continue
		}
		if !tt.ok {
			continue
		}
		if tt.expected == "" {
			if got != nil {
				t.Errorf("parseRP(%q) = %q, expected nil", tt.tok, *got)
			}
		} else if got == nil || *got != tt.expected {
			t.Errorf("parseRP(%q) = %v, expected %q", tt.tok, got, tt.expected)
		}
	}
}

func TestParseFee(t *testing.T) {
	fee, err := parseFee("$5,933.55")
	if err != nil {
		t.Fatalf("parseFee: %v", err)
	}
	if fee == nil || *fee != 5933.55 {
		t.Errorf("fee = %v, expected 5933.55", fee)
	}
	fee, err = parseFee("  ")
	if err != nil || fee != nil {
		t.Errorf("blank fee = %v, %v; expected nil, nil", fee, err)
	}
}
