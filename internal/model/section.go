package model

import "fmt"

// Registration status codes. Absent means no restriction is advertised.
const (
	RPRegistration = "R"
	RPPrerequisite = "P"
	RPBoth         = "RP"
)

// Section is one offering of a course within a term, keyed by
// (subject, course_code, year, term, crn).
type Section struct {
	ID string `gorm:"primaryKey"` // e.g. SECT-ENGL-1123-2024-30-31005

	CRN int `gorm:"index"`
	// RP is the registration status code: R, P or RP. Nil when the cell is
	// blank.
	RP *string
	// Seats is a count, or the sentinels "Inact" (registration not open)
	// and "Cancel" (section cancelled). See SeatStatus.
	Seats string
	// Waitlist is a count or "N/A". Nil means the course has no waitlist
	// column at all.
	Waitlist *string
	// Label is the section label, e.g. 001, W01, M01.
	Label            *string
	Credits          float64
	AbbreviatedTitle *string
	// AddFees is the additional fee in dollars.
	AddFees  *float64
	RptLimit *int
	Notes    *string

	Subject    string `gorm:"index"`
	CourseCode string `gorm:"index"`
	Year       int    `gorm:"index"`
	Term       int    `gorm:"index"`
}

func SectionID(subject, courseCode string, year, term, crn int) string {
	return fmt.Sprintf("SECT-%s-%s-%d-%d-%d", subject, courseCode, year, term, crn)
}

// ValidRP reports whether a registration status code is one of the known
// values.
func ValidRP(rp string) bool {
	return rp == RPRegistration || rp == RPPrerequisite || rp == RPBoth
}

// SeatStatus decodes the Seats field into its closed set of meanings.
func (s *Section) SeatStatus() SeatStatus {
	return ParseSeatStatus(s.Seats)
}

// WaitlistStatus decodes the Waitlist field into its closed set of meanings.
func (s *Section) WaitlistStatus() WaitlistStatus {
	return ParseWaitlistStatus(s.Waitlist)
}
