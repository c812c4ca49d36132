package model

import "strconv"

// SeatKind is the closed set of meanings the seats cell can carry.
type SeatKind int

const (
	SeatUnknown SeatKind = iota
	SeatNumeric
	SeatInactive  // "Inact": registration is not open yet
	SeatCancelled // "Cancel": the section is cancelled
)

type SeatStatus struct {
	Kind  SeatKind
	Count int // valid only when Kind == SeatNumeric
}

func ParseSeatStatus(raw string) SeatStatus {
	switch raw {
	case "Inact":
		return SeatStatus{Kind: SeatInactive}
	case "Cancel":
		return SeatStatus{Kind: SeatCancelled}
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return SeatStatus{Kind: SeatNumeric, Count: n}
	}
	return SeatStatus{Kind: SeatUnknown}
}

// WaitlistKind is the closed set of meanings the waitlist cell can carry.
type WaitlistKind int

const (
	WaitlistUnknown WaitlistKind = iota
	WaitlistNumeric
	WaitlistNotApplicable // "N/A": the section does not run a waitlist
	WaitlistNone          // the course has no waitlist column at all
)

type WaitlistStatus struct {
	Kind  WaitlistKind
	Count int // valid only when Kind == WaitlistNumeric
}

func ParseWaitlistStatus(raw *string) WaitlistStatus {
	if raw == nil {
		return WaitlistStatus{Kind: WaitlistNone}
	}
	if *raw == "N/A" {
		return WaitlistStatus{Kind: WaitlistNotApplicable}
	}
	if n, err := strconv.Atoi(*raw); err == nil {
		return WaitlistStatus{Kind: WaitlistNumeric, Count: n}
	}
	return WaitlistStatus{Kind: WaitlistUnknown}
}
