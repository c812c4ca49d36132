// Package changes diffs a term's stored sections against a fresh parse so
// interesting movements (new sections, seat and waitlist changes,
// cancellations) can be handed to a notifier.
package changes

import (
	"sort"

	"github.com/coursewatch/coursewatch/internal/model"
)

// Kind of change detected for a section.
const (
	KindNew       = "new"
	KindSeats     = "seats"
	KindCancelled = "cancelled"
	KindWaitlist  = "waitlist"
)

type Change struct {
	SectionID  string
	Subject    string
	CourseCode string
	CRN        int
	Kind       string
	Old        string
	New        string
}

// Diff compares the previously stored sections of a term (keyed by ID)
// against a fresh parse and returns the detected changes in section-ID
// order. A nil previous map means everything is new.
func Diff(previous map[string]*model.Section, current []*model.Section) []Change {
	var out []Change
	for _, sec := range current {
		prev, ok := previous[sec.ID]
		if !ok {
			out = append(out, change(sec, KindNew, "", sec.Seats))
			continue
		}
		if prev.Seats != sec.Seats {
			kind := KindSeats
			if sec.SeatStatus().Kind == model.SeatCancelled {
				kind = KindCancelled
			}
			out = append(out, change(sec, kind, prev.Seats, sec.Seats))
		}
		if waitlistMoved(prev, sec) {
			out = append(out, change(sec, KindWaitlist, deref(prev.Waitlist), deref(sec.Waitlist)))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SectionID != out[j].SectionID {
			return out[i].SectionID < out[j].SectionID
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}

func change(sec *model.Section, kind, oldVal, newVal string) Change {
	return Change{
		SectionID:  sec.ID,
		Subject:    sec.Subject,
		CourseCode: sec.CourseCode,
		CRN:        sec.CRN,
		Kind:       kind,
		Old:        oldVal,
		New:        newVal,
	}
}

// waitlistMoved reports whether the waitlist cells differ in a way worth
// reporting. The column flapping between absent and "N/A" carries no
// information; both mean the section runs no waitlist.
func waitlistMoved(prev, cur *model.Section) bool {
	p, c := prev.WaitlistStatus(), cur.WaitlistStatus()
	if p == c {
		return false
	}
	return p.Kind == model.WaitlistNumeric || c.Kind == model.WaitlistNumeric
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
