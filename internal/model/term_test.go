package model

import "testing"

func TestNextTerm(t *testing.T) {
	tests := []struct {
		year, term         int
		wantYear, wantTerm int
	}{
		{2023, TermSpring, 2023, TermSummer},
		{2023, TermSummer, 2023, TermFall},
		{2023, TermFall, 2024, TermSpring},
	}
	for _, tt := range tests {
		y, trm := NextTerm(tt.year, tt.term)
		if y != tt.wantYear || trm != tt.wantTerm {
			t.Errorf("NextTerm(%d, %d) = %d/%d, expected %d/%d", tt.year, tt.term, y, trm, tt.wantYear, tt.wantTerm)
		}
	}
}

func TestValidTerm(t *testing.T) {
	tests := []struct {
		year, term int
		expected   bool
	}{
		{2023, TermSpring, true},
		{1999, TermSummer, true},
		{2100, TermFall, true},
		{1998, TermSpring, false},
		{2101, TermSpring, false},
		{2023, 40, false},
		{2023, 0, false},
	}
	for _, tt := range tests {
		if got := ValidTerm(tt.year, tt.term); got != tt.expected {
			t.Errorf("ValidTerm(%d, %d) = %v, expected %v", tt.year, tt.term, got, tt.expected)
		}
	}
}
