package aggregate

import (
	"strings"
	"testing"

	"github.com/coursewatch/coursewatch/internal/model"
)

func strp(s string) *string { return &s }

func f64p(f float64) *float64 { return &f }

func intp(n int) *int { return &n }

func boolp(b bool) *bool { return &b }

func summary(year, term int, desc *string) *model.CourseSummary {
	return &model.CourseSummary{
		ID:          model.SummaryID("CPSC", "1150", year, term),
		Subject:     "CPSC",
		CourseCode:  "1150",
		Year:        year,
		Term:        term,
		Title:       "Program Design",
		Description: desc,
		Credits:     3,
	}
}

func section(year, term, crn int) *model.Section {
	return &model.Section{
		ID:         model.SectionID("CPSC", "1150", year, term, crn),
		CRN:        crn,
		Subject:    "CPSC",
		CourseCode: "1150",
		Year:       year,
		Term:       term,
	}
}

func TestBuildEmptySources(t *testing.T) {
	snap, err := Build(Sources{Subject: "CPSC", CourseCode: "1150"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if snap.ID != model.SnapshotID("CPSC", "1150") {
		t.Errorf("snapshot id = %q", snap.ID)
	}
	if snap.Title != nil || snap.Credits != nil || snap.Description != nil {
		t.Errorf("empty sources produced values: %+v", snap)
	}
	if snap.Active {
		t.Errorf("course with no page is active")
	}
	if snap.TransferDestinations != nil {
		t.Errorf("empty sources produced destinations %q", *snap.TransferDestinations)
	}
}

func TestBuildSeedsFromNewestSummary(t *testing.T) {
	snap, err := Build(Sources{
		Subject:    "CPSC",
		CourseCode: "1150",
		Summaries: []*model.CourseSummary{
			summary(2023, 10, strp("Current description.")),
			summary(2022, 30, strp("Stale description.")),
		},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if snap.Title == nil || *snap.Title != "Program Design" {
		t.Errorf("title = %v", snap.Title)
	}
	if snap.Credits == nil || *snap.Credits != 3 {
		t.Errorf("credits = %v", snap.Credits)
	}
	if snap.Description == nil || *snap.Description != "Current description." {
		t.Errorf("description = %v", snap.Description)
	}
}

func TestBuildDiscontinuedWalkBack(t *testing.T) {
	snap, err := Build(Sources{
		Subject:    "CPSC",
		CourseCode: "1150",
		Summaries: []*model.CourseSummary{
			summary(2023, 10, strp("Discontinued as of Fall 2023.")),
			summary(2022, 30, strp("Covers program design and implementation.")),
		},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	want := "Discontinued as of Fall 2023.\n\nCovers program design and implementation."
	if snap.Description == nil || *snap.Description != want {
		t.Errorf("description = %v, expected %q", snap.Description, want)
	}
}

func TestBuildDiscontinuedWalkBackBounded(t *testing.T) {
	// Every summary within the lookback window says discontinued; the
	// newest stands alone.
	discontinued := strp("This course has been discontinued.")
	summaries := make([]*model.CourseSummary, 0, 8)
	year := 2023
	for i := 0; i < 8; i++ {
		summaries = append(summaries, summary(year-i, 10, discontinued))
	}
	snap, err := Build(Sources{Subject: "CPSC", CourseCode: "1150", Summaries: summaries})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if snap.Description == nil || *snap.Description != *discontinued {
		t.Errorf("description = %v", snap.Description)
	}
}

func TestBuildAppendsLastUpdatedNote(t *testing.T) {
	s := summary(2023, 10, strp("Covers program design."))
	s.DescLastUpdated = strp("Last updated June 2009")
	snap, err := Build(Sources{Subject: "CPSC", CourseCode: "1150", Summaries: []*model.CourseSummary{s}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	want := "Covers program design.\n\nLast updated June 2009"
	if snap.Description == nil || *snap.Description != want {
		t.Errorf("description = %v, expected %q", snap.Description, want)
	}
}

func TestBuildPageOverridesSummary(t *testing.T) {
	snap, err := Build(Sources{
		Subject:    "CPSC",
		CourseCode: "1150",
		Summaries:  []*model.CourseSummary{summary(2023, 10, strp("Catalogue wording."))},
		Page: &model.CoursePage{
			ID:            model.PageID("CPSC", "1150"),
			Subject:       "CPSC",
			CourseCode:    "1150",
			Title:         "Program Design with Java",
			Description:   strp("Website wording."),
			Credits:       f64p(4),
			OfferedOnline: boolp(true),
		},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !snap.Active {
		t.Errorf("course with a live page is not active")
	}
	if snap.Title == nil || *snap.Title != "Program Design with Java" {
		t.Errorf("title = %v", snap.Title)
	}
	if snap.Description == nil || *snap.Description != "Website wording." {
		t.Errorf("description = %v", snap.Description)
	}
	if snap.Credits == nil || *snap.Credits != 4 {
		t.Errorf("credits = %v", snap.Credits)
	}
	if snap.OfferedOnline == nil || !*snap.OfferedOnline {
		t.Errorf("offered online = %v", snap.OfferedOnline)
	}
}

func TestBuildMissingPageKeepsSummaryValues(t *testing.T) {
	snap, err := Build(Sources{
		Subject:    "CPSC",
		CourseCode: "1150",
		Summaries:  []*model.CourseSummary{summary(2023, 10, strp("Catalogue wording."))},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if snap.Active {
		t.Errorf("course without a page is active")
	}
	if snap.Title == nil || snap.Description == nil {
		t.Errorf("summary-derived fields were cleared: %+v", snap)
	}
}

func TestBuildLatestAttributeOnly(t *testing.T) {
	snap, err := Build(Sources{
		Subject:    "CPSC",
		CourseCode: "1150",
		Attribute: &model.CourseAttribute{
			ID:      model.AttributeID("CPSC", "1150", 2023, 10),
			AttrSCI: true,
			AttrUT:  true,
		},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if snap.AttrSCI == nil || !*snap.AttrSCI {
		t.Errorf("science flag = %v", snap.AttrSCI)
	}
	if snap.AttrUT == nil || !*snap.AttrUT {
		t.Errorf("transfer flag = %v", snap.AttrUT)
	}
	if snap.AttrHUM == nil || *snap.AttrHUM {
		t.Errorf("humanities flag = %v, expected set false", snap.AttrHUM)
	}
}

func TestBuildLatestSectionFields(t *testing.T) {
	newest := section(2023, 10, 30101)
	newest.RP = strp("P")
	newest.AbbreviatedTitle = strp("Prgrm Dsgn")
	newest.AddFees = f64p(25.50)
	newest.RptLimit = intp(2)

	snap, err := Build(Sources{
		Subject:       "CPSC",
		CourseCode:    "1150",
		NewestSection: newest,
		OldestSection: section(1999, 20, 10001),
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if snap.RP == nil || *snap.RP != "P" {
		t.Errorf("rp = %v", snap.RP)
	}
	if snap.AbbreviatedTitle == nil || *snap.AbbreviatedTitle != "Prgrm Dsgn" {
		t.Errorf("abbreviated title = %v", snap.AbbreviatedTitle)
	}
	if snap.AddFees == nil || *snap.AddFees != 25.50 {
		t.Errorf("fees = %v", snap.AddFees)
	}
	if snap.RptLimit == nil || *snap.RptLimit != 2 {
		t.Errorf("repeat limit = %v", snap.RptLimit)
	}
	if snap.FirstOfferedYear == nil || *snap.FirstOfferedYear != 1999 || *snap.FirstOfferedTerm != 20 {
		t.Errorf("first offered = %v/%v", snap.FirstOfferedYear, snap.FirstOfferedTerm)
	}
	if snap.LastOfferedYear == nil || *snap.LastOfferedYear != 2023 || *snap.LastOfferedTerm != 10 {
		t.Errorf("last offered = %v/%v", snap.LastOfferedYear, snap.LastOfferedTerm)
	}
}

func TestBuildTransferFallback(t *testing.T) {
	snap, err := Build(Sources{
		Subject:    "CPSC",
		CourseCode: "1150",
		Transfers: []*model.Transfer{
			{Destination: "UBCV", Credit: "UBCV CPSC 1st (3)"},
			{Destination: "SFU", Credit: "SFU CMPT 120 (3)", SourceTitle: strp("Program Design"), SourceCredits: f64p(3)},
		},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if snap.Title == nil || *snap.Title != "Program Design" {
		t.Errorf("fallback title = %v", snap.Title)
	}
	if snap.Credits == nil || *snap.Credits != 3 {
		t.Errorf("fallback credits = %v", snap.Credits)
	}
}

func TestBuildTransferFallbackNotUsedWhenSeeded(t *testing.T) {
	snap, err := Build(Sources{
		Subject:    "CPSC",
		CourseCode: "1150",
		Summaries:  []*model.CourseSummary{summary(2023, 10, nil)},
		Transfers: []*model.Transfer{
			{Destination: "UBCV", Credit: "UBCV CPSC 1st (3)", SourceTitle: strp("Other Title"), SourceCredits: f64p(4)},
		},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if snap.Title == nil || *snap.Title != "Program Design" {
		t.Errorf("title = %v, expected the summary title", snap.Title)
	}
	if snap.Credits == nil || *snap.Credits != 3 {
		t.Errorf("credits = %v, expected the summary credits", snap.Credits)
	}
}

func TestTransferDestinations(t *testing.T) {
	tests := []struct {
		name      string
		transfers []*model.Transfer
		expected  string // "" means nil
	}{
		{"none", nil, ""},
		{
			"distinct in first-seen order",
			[]*model.Transfer{
				{Destination: "UBCV", Credit: "UBCV CPSC 1st (3)"},
				{Destination: "SFU", Credit: "SFU CMPT 120 (3)"},
				{Destination: "UBCV", Credit: "UBCV CPSC 110 (4)"},
			},
			"UBCV,SFU",
		},
		{
			"no-credit agreements excluded",
			[]*model.Transfer{
				{Destination: "UVIC", Credit: "No Credit"},
				{Destination: "SFU", Credit: "SFU CMPT 120 (3)"},
			},
			"SFU",
		},
		{
			"all no-credit yields nil",
			[]*model.Transfer{
				{Destination: "UVIC", Credit: "No credit"},
				{Destination: "TRU", Credit: "NO CREDIT"},
			},
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := transferDestinations(tt.transfers)
			if tt.expected == "" {
				if got != nil {
					t.Errorf("destinations = %q, expected nil", *got)
				}
				return
			}
			if got == nil || *got != tt.expected {
				t.Errorf("destinations = %v, expected %q", got, tt.expected)
			}
		})
	}
}

func TestBuildRejectsMalformedSection(t *testing.T) {
	bad := section(1742, 10, 30101)
	_, err := Build(Sources{Subject: "CPSC", CourseCode: "1150", NewestSection: bad})
	if err == nil {
		t.Fatal("Build accepted a section with an impossible term")
	}
	if !strings.Contains(err.Error(), "impossible term") {
		t.Errorf("error = %v", err)
	}

	bad = section(2023, 40, 30101)
	_, err = Build(Sources{Subject: "CPSC", CourseCode: "1150", OldestSection: bad})
	if err == nil {
		t.Fatal("Build accepted a section with an unknown season code")
	}
}
