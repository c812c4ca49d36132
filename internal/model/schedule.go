package model

import "fmt"

// MeetingType is the closed set of meeting patterns the registration system
// emits. Anything outside this set means the column alignment has drifted
// and the whole term parse cannot be trusted.
type MeetingType string

const (
	MeetingLecture   MeetingType = "Lecture"
	MeetingLab       MeetingType = "Lab"
	MeetingSeminar   MeetingType = "Seminar"
	MeetingPracticum MeetingType = "Practicum"
	MeetingTutorial  MeetingType = "Tutorial"
	MeetingWWW       MeetingType = "WWW"
	MeetingExam      MeetingType = "Exam"
	MeetingGIS       MeetingType = "GIS Guided Independent Study"
	MeetingFlexible  MeetingType = "Flexible Assessment"
	MeetingField     MeetingType = "Field School"
	MeetingOnSite    MeetingType = "On Site Work"
	MeetingExchange  MeetingType = "Exchange-International"
	MeetingCoop      MeetingType = "CO-OP(on site work experience)"
)

// Blank meeting cells occur in real data (WWW-only sections) and are valid.
var meetingTypes = map[MeetingType]struct{}{
	" ":              {},
	MeetingLecture:   {},
	MeetingLab:       {},
	MeetingSeminar:   {},
	MeetingPracticum: {},
	MeetingTutorial:  {},
	MeetingWWW:       {},
	MeetingExam:      {},
	MeetingGIS:       {},
	MeetingFlexible:  {},
	MeetingField:     {},
	MeetingOnSite:    {},
	MeetingExchange:  {},
	MeetingCoop:      {},
}

func (t MeetingType) Valid() bool {
	_, ok := meetingTypes[t]
	return ok
}

// ScheduleEntry is one meeting pattern within a Section. It is owned
// exclusively by its section and replaced as a unit on re-merge.
type ScheduleEntry struct {
	ID string `gorm:"primaryKey"` // e.g. SCHD-ENGL-1123-2024-30-31005-0

	CRN        int    `gorm:"index"`
	Subject    string `gorm:"index"`
	CourseCode string `gorm:"index"`
	Year       int    `gorm:"index"`
	Term       int    `gorm:"index"`

	Type MeetingType
	// Days is the day-of-week pattern, e.g. M-W----.
	Days string
	// Time is the start and end time, e.g. 1030-1220.
	Time string
	// Start and End are ISO-8601 dates, nil when the source cell is blank.
	Start      *string
	End        *string
	Room       string
	Instructor string
}

func ScheduleID(subject, courseCode string, year, term, crn, ordinal int) string {
	return fmt.Sprintf("SCHD-%s-%s-%d-%d-%d-%d", subject, courseCode, year, term, crn, ordinal)
}
