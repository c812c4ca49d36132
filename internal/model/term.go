package model

import "fmt"

// Term codes as used by the registration system.
const (
	TermSpring = 10
	TermSummer = 20
	TermFall   = 30
)

// Oldest records available upstream. Anything stored below this is corrupt.
const MinYear = 1999

// Semester is one academic term, e.g. 2024/30.
type Semester struct {
	ID   string `gorm:"primaryKey"`
	Year int    `gorm:"index"`
	Term int    `gorm:"index"`
}

// Course is the registry row every source table hangs off of.
type Course struct {
	ID         string `gorm:"primaryKey"`
	Subject    string `gorm:"index"`
	CourseCode string `gorm:"index"`
}

// NextTerm steps 10 -> 20 -> 30 -> next year's 10.
func NextTerm(year, term int) (int, int) {
	switch term {
	case TermSpring:
		return year, TermSummer
	case TermSummer:
		return year, TermFall
	default:
		return year + 1, TermSpring
	}
}

// ValidTerm reports whether a stored (year, term) pair is possible.
func ValidTerm(year, term int) bool {
	if year < MinYear || year > 2100 {
		return false
	}
	return term == TermSpring || term == TermSummer || term == TermFall
}

func SemesterID(year, term int) string {
	return fmt.Sprintf("SMTR-%d-%d", year, term)
}

func CourseID(subject, courseCode string) string {
	return fmt.Sprintf("CRSE-%s-%s", subject, courseCode)
}
