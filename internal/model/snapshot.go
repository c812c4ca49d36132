package model

import "fmt"

// CourseSnapshot is the reconciled "current best known" record for a
// course, one per (subject, course_code). It is never authored directly:
// the aggregation engine recomputes it from scratch whenever any source
// changes. Every field is nil unless some source supplied a value.
type CourseSnapshot struct {
	ID string `gorm:"primaryKey"` // e.g. CMAX-ENGL-1123

	Subject    string `gorm:"index"`
	CourseCode string `gorm:"index"`

	// Seeded from the most recent CourseSummary, then overwritten by the
	// CoursePage when one exists.
	Title        *string
	Credits      *float64
	Description  *string
	HoursLecture *float64
	HoursSeminar *float64
	HoursLab     *float64

	DescReplacementCourse       *string
	DescDuplicateCredit         *string
	DescRegistrationRestriction *string
	DescPrerequisite            *string

	OfferedOnline     *bool
	PreparatoryCourse *bool

	// Active reports whether the course page is live on the institution
	// website. Not a guarantee the course is currently offered.
	Active bool

	// From the most recent Section only.
	RP               *string
	AbbreviatedTitle *string
	AddFees          *float64
	RptLimit         *int

	// From the most recent CourseAttribute only.
	AttrAR  *bool
	AttrSC  *bool
	AttrHUM *bool
	AttrLSC *bool
	AttrSCI *bool
	AttrSOC *bool
	AttrUT  *bool

	// Offered-term range, computed from the oldest and newest sections.
	FirstOfferedYear *int
	FirstOfferedTerm *int
	LastOfferedYear  *int
	LastOfferedTerm  *int

	// Comma-joined distinct transfer destinations, nil when none remain
	// after filtering out no-credit agreements.
	TransferDestinations *string
}

func SnapshotID(subject, courseCode string) string {
	return fmt.Sprintf("CMAX-%s-%s", subject, courseCode)
}
