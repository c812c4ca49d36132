// Package aggregate reconciles the independently-updated source tables for
// a course into one CourseSnapshot, applying fixed freshness and precedence
// rules where sources disagree or are missing.
package aggregate

import (
	"fmt"
	"strings"

	"github.com/coursewatch/coursewatch/internal/model"
)

// Older summaries consulted when the newest one only says "discontinued".
const discontinuedLookback = 5

// Sources is a consistent per-course read of every table Build consults.
// Callers must snapshot-read all of it before building; interleaving a
// source write with an in-flight build for the same course is not safe.
type Sources struct {
	Subject    string
	CourseCode string

	// Summaries is ordered newest first.
	Summaries []*model.CourseSummary
	Page      *model.CoursePage
	// Attribute is the most recent CourseAttribute row, or nil.
	Attribute *model.CourseAttribute
	// NewestSection and OldestSection bound the offered-term range.
	NewestSection *model.Section
	OldestSection *model.Section
	Transfers     []*model.Transfer
}

// Build derives the snapshot for one course. A missing source degrades to
// nil fields, never an error; a snapshot with nil title and credits is a
// valid terminal state for courses removed before records begin. The only
// error is a malformed stored section, which indicates store corruption.
func Build(src Sources) (*model.CourseSnapshot, error) {
	for _, sec := range []*model.Section{src.NewestSection, src.OldestSection} {
		if sec != nil && !model.ValidTerm(sec.Year, sec.Term) {
			return nil, fmt.Errorf("malformed stored section %s: impossible term %d%d", sec.ID, sec.Year, sec.Term)
		}
	}

	snap := &model.CourseSnapshot{
		ID:         model.SnapshotID(src.Subject, src.CourseCode),
		Subject:    src.Subject,
		CourseCode: src.CourseCode,
	}

	applySummaries(snap, src.Summaries)
	applyPage(snap, src.Page)
	applyAttribute(snap, src.Attribute)
	applyLatestSection(snap, src.NewestSection)
	applyTransferFallback(snap, src.Transfers)
	applyOfferedRange(snap, src.OldestSection, src.NewestSection)
	snap.TransferDestinations = transferDestinations(src.Transfers)

	return snap, nil
}

// applySummaries seeds title, credits, description and hours from the most
// recent catalogue summary. When the newest description only announces the
// course as discontinued, progressively older summaries are walked until a
// real description is found, and that one is appended after the newest so
// the suppressed content is recovered.
func applySummaries(snap *model.CourseSnapshot, summaries []*model.CourseSummary) {
	if len(summaries) == 0 {
		return
	}
	newest := summaries[0]

	var older *model.CourseSummary
	desc := newest.Description
	for j := 1; desc != nil && isDiscontinued(*desc); j++ {
		if j >= len(summaries) || j >= discontinuedLookback {
			older = nil
			break
		}
		older = summaries[j]
		desc = older.Description
	}

	snap.Title = &newest.Title
	credits := newest.Credits
	snap.Credits = &credits
	snap.Description = newest.Description
	snap.HoursLecture = newest.HoursLecture
	snap.HoursSeminar = newest.HoursSeminar
	snap.HoursLab = newest.HoursLab

	if newest.Description != nil && newest.DescLastUpdated != nil {
		joined := *newest.Description + "\n\n" + *newest.DescLastUpdated
		snap.Description = &joined
	}
	if older != nil && older.Description != nil && snap.Description != nil {
		joined := *snap.Description + "\n\n" + *older.Description
		snap.Description = &joined
	}

	snap.DescReplacementCourse = newest.DescReplacementCourse
	snap.DescPrerequisite = newest.DescRequisites
}

func isDiscontinued(desc string) bool {
	return strings.Contains(strings.ToLower(desc), "discontinued")
}

// applyPage overwrites the summary-derived fields with the course page,
// which is authoritative when present. Absence only clears Active, never
// values already set.
func applyPage(snap *model.CourseSnapshot, page *model.CoursePage) {
	if page == nil {
		snap.Active = false
		return
	}
	snap.Active = true
	snap.Title = &page.Title
	snap.Description = page.Description
	snap.Credits = page.Credits
	snap.HoursLecture = page.HoursLecture
	snap.HoursSeminar = page.HoursSeminar
	snap.HoursLab = page.HoursLab
	snap.DescDuplicateCredit = page.DescDuplicateCredit
	snap.DescRegistrationRestriction = page.DescRegistrationRestriction
	snap.DescPrerequisite = page.DescPrerequisite
	snap.DescReplacementCourse = page.DescReplacementCourse
	snap.OfferedOnline = page.OfferedOnline
	snap.PreparatoryCourse = page.PreparatoryCourse
}

// applyAttribute copies the flags from the most recent attribute row only;
// there is no fallback to older terms.
func applyAttribute(snap *model.CourseSnapshot, attr *model.CourseAttribute) {
	if attr == nil {
		return
	}
	snap.AttrAR = &attr.AttrAR
	snap.AttrSC = &attr.AttrSC
	snap.AttrHUM = &attr.AttrHUM
	snap.AttrLSC = &attr.AttrLSC
	snap.AttrSCI = &attr.AttrSCI
	snap.AttrSOC = &attr.AttrSOC
	snap.AttrUT = &attr.AttrUT
}

// applyLatestSection copies the registration-status fields from the most
// recent section only.
func applyLatestSection(snap *model.CourseSnapshot, sec *model.Section) {
	if sec == nil {
		return
	}
	snap.RP = sec.RP
	snap.AbbreviatedTitle = sec.AbbreviatedTitle
	snap.AddFees = sec.AddFees
	snap.RptLimit = sec.RptLimit
}

// applyTransferFallback fills title and credits from articulation records
// when every other source left them empty. First match wins.
func applyTransferFallback(snap *model.CourseSnapshot, transfers []*model.Transfer) {
	if snap.Title != nil && snap.Credits != nil {
		return
	}
	for _, t := range transfers {
		if snap.Title == nil && t.SourceTitle != nil {
			snap.Title = t.SourceTitle
		}
		if snap.Credits == nil && t.SourceCredits != nil {
			snap.Credits = t.SourceCredits
		}
	}
}

func applyOfferedRange(snap *model.CourseSnapshot, oldest, newest *model.Section) {
	if newest != nil {
		year, term := newest.Year, newest.Term
		snap.LastOfferedYear = &year
		snap.LastOfferedTerm = &term
	}
	if oldest != nil {
		year, term := oldest.Year, oldest.Term
		snap.FirstOfferedYear = &year
		snap.FirstOfferedTerm = &term
	}
}

// transferDestinations joins the distinct destinations, in first-seen
// order, excluding agreements that grant no credit. An empty result is nil,
// not an empty string.
func transferDestinations(transfers []*model.Transfer) *string {
	var destinations []string
	seen := make(map[string]struct{})
	for _, t := range transfers {
		if strings.EqualFold(t.Credit, "no credit") {
			continue
		}
		if _, ok := seen[t.Destination]; ok {
			continue
		}
		seen[t.Destination] = struct{}{}
		destinations = append(destinations, t.Destination)
	}
	if len(destinations) == 0 {
		return nil
	}
	joined := strings.Join(destinations, ",")
	return &joined
}
