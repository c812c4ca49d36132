package parser

import (
	"errors"
	"fmt"
)

// StructuralError means the raw document no longer matches the positional
// layout the parser depends on. It is fatal for the term: a single
// misalignment invalidates everything after it.
type StructuralError struct {
	Year   int
	Term   int
	Reason string
}

func (e *StructuralError) Error() string {
	if e.Year == 0 {
		return fmt.Sprintf("structural parse failure: %s", e.Reason)
	}
	return fmt.Sprintf("structural parse failure for %d%d: %s", e.Year, e.Term, e.Reason)
}

// ErrCatalogueFormat marks a catalogue layout the parser cannot read.
// Catalogues before 2012 use a different format; callers treat this as
// recoverable and proceed with an empty summary set.
var ErrCatalogueFormat = errors.New("unsupported catalogue layout")
