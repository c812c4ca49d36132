package model

import (
	"crypto/sha1"
	"fmt"
)

// CourseSummary is one per-term catalogue entry for a course.
type CourseSummary struct {
	ID string `gorm:"primaryKey"` // e.g. CSUM-2024-30-ENGL-1123

	Subject    string `gorm:"index"`
	CourseCode string `gorm:"index"`
	Year       int    `gorm:"index"`
	Term       int    `gorm:"index"`

	Title       string
	Description *string
	// DescLastUpdated is a date string carried over from old catalogues.
	// The dates are locked in the past; not trustworthy.
	DescLastUpdated       *string
	DescReplacementCourse *string
	DescRequisites        *string
	Credits               float64
	HoursLecture          *float64
	HoursSeminar          *float64
	HoursLab              *float64
}

func SummaryID(subject, courseCode string, year, term int) string {
	return fmt.Sprintf("CSUM-%d-%d-%s-%s", year, term, subject, courseCode)
}

// CoursePage is the singleton course-description page from the institution
// website. Presence of a row means the course is live on the site.
type CoursePage struct {
	ID string `gorm:"primaryKey"` // e.g. CPGE-ENGL-1123

	Subject    string `gorm:"index"`
	CourseCode string `gorm:"index"`

	Title        string
	Description  *string
	Credits      *float64
	HoursLecture *float64
	HoursSeminar *float64
	HoursLab     *float64

	DescDuplicateCredit         *string
	DescRegistrationRestriction *string
	DescPrerequisite            *string
	DescReplacementCourse       *string

	OfferedOnline     *bool
	PreparatoryCourse *bool
}

func PageID(subject, courseCode string) string {
	return fmt.Sprintf("CPGE-%s-%s", subject, courseCode)
}

// CourseAttribute holds the per-term attribute flags for a course.
type CourseAttribute struct {
	ID string `gorm:"primaryKey"` // e.g. ATR-2024-30-ENGL-1123

	Subject    string `gorm:"index"`
	CourseCode string `gorm:"index"`
	Year       int    `gorm:"index"`
	Term       int    `gorm:"index"`

	AttrAR  bool // second year arts
	AttrSC  bool // second year science
	AttrHUM bool // humanities
	AttrLSC bool // lab science
	AttrSCI bool // science
	AttrSOC bool // social science
	AttrUT  bool // university transferrable
}

func AttributeID(subject, courseCode string, year, term int) string {
	return fmt.Sprintf("ATR-%d-%d-%s-%s", year, term, subject, courseCode)
}

// Transfer is one articulation agreement from this institution to a
// destination institution. Not term-scoped.
type Transfer struct {
	ID string `gorm:"primaryKey"`

	Subject    string `gorm:"index"`
	CourseCode string `gorm:"index"`

	SourceTitle   *string
	SourceCredits *float64
	// Destination is the short code of the receiving institution.
	Destination     string
	DestinationName string
	// Credit is what the destination grants, e.g. "ALEX CPSC 1XX (3)" or
	// "No credit".
	Credit    string
	Condition *string
}

// TransferID derives a deterministic key from the fields that identify an
// agreement, so re-imports overwrite instead of duplicating.
func TransferID(subject, courseCode, destination, credit string) string {
	h := sha1.New()
	fmt.Fprintf(h, "%s|%s|%s|%s", subject, courseCode, destination, credit)
	return fmt.Sprintf("TRNS-%x", h.Sum(nil))
}
