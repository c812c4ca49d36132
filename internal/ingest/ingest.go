// Package ingest orchestrates one batch run: fetch raw term documents,
// parse them, upsert the results and keep the course registry current.
package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/coursewatch/coursewatch/internal/changes"
	"github.com/coursewatch/coursewatch/internal/fetch"
	"github.com/coursewatch/coursewatch/internal/logger"
	"github.com/coursewatch/coursewatch/internal/model"
	"github.com/coursewatch/coursewatch/internal/notifier"
	"github.com/coursewatch/coursewatch/internal/parser"
	"github.com/coursewatch/coursewatch/internal/store"
)

// TermSource supplies the raw documents for a term. A nil result means the
// registration system has no such term.
type TermSource interface {
	Term(ctx context.Context, year, term int) (*fetch.TermBlobs, error)
}

// TermError records one failed term in a batch; other terms proceed.
type TermError struct {
	Year int
	Term int
	Err  error
}

func (e *TermError) Error() string {
	return fmt.Sprintf("term %d%d: %v", e.Year, e.Term, e.Err)
}

func (e *TermError) Unwrap() error { return e.Err }

// Ingestor drives term updates against the store.
type Ingestor struct {
	store    *store.Store
	source   TermSource
	notifier notifier.Notifier
	log      *logger.Logger

	// Concurrency bounds parallel term refreshes. Zero means sequential.
	Concurrency int
}

func New(st *store.Store, source TermSource, n notifier.Notifier, log *logger.Logger) *Ingestor {
	return &Ingestor{
		store:    st,
		source:   source,
		notifier: n,
		log:      log.With("component", "ingest"),
	}
}

// UpdateTerm fetches, parses and stores one term. It returns false when the
// upstream system has no data for the term. The known-course cache is owned
// by the caller for the duration of one batch run.
func (ing *Ingestor) UpdateTerm(ctx context.Context, year, term int, known *KnownCourses) (bool, error) {
	blobs, err := ing.source.Term(ctx, year, term)
	if err != nil {
		return false, err
	}
	if blobs == nil {
		return false, nil
	}

	data, err := parser.ParseSections(bytes.NewReader(blobs.Sections))
	if err != nil {
		return false, err
	}
	ing.log.Info("parsed sections", "year", data.Year, "term", data.Term, "sections", len(data.Sections))

	summaries, err := parser.ParseCatalogue(bytes.NewReader(blobs.Catalogue), data.Year, data.Term)
	if err != nil {
		// Pre-2012 catalogues use a layout the parser cannot read; the
		// term still proceeds with no summaries.
		if !errors.Is(err, parser.ErrCatalogueFormat) {
			return false, err
		}
		ing.log.Warn("catalogue parsing failed", "year", data.Year, "term", data.Term, "error", err)
		summaries = nil
	} else {
		ing.log.Info("parsed catalogue", "year", data.Year, "term", data.Term, "courses", len(summaries))
	}

	attributes, err := parser.ParseAttributes(bytes.NewReader(blobs.Attributes), data.Year, data.Term)
	if err != nil {
		return false, err
	}

	if err := ing.notifyChanges(ctx, data); err != nil {
		return false, err
	}

	if err := ing.storeTerm(ctx, data, summaries, attributes, known); err != nil {
		return false, err
	}
	return true, nil
}

// notifyChanges diffs the fresh parse against what is already stored and
// hands any movement to the notifier. Best effort: notification failures
// are logged, never fatal.
func (ing *Ingestor) notifyChanges(ctx context.Context, data *parser.TermData) error {
	if ing.notifier == nil {
		return nil
	}
	previous, err := ing.store.SectionsForTerm(ctx, data.Year, data.Term)
	if err != nil {
		return err
	}
	detected := changes.Diff(previous, data.Sections)
	if len(detected) == 0 {
		return nil
	}
	if err := ing.notifier.Notify(detected); err != nil {
		ing.log.Warn("notification failed", "year", data.Year, "term", data.Term, "error", err)
	}
	return nil
}

func (ing *Ingestor) storeTerm(ctx context.Context, data *parser.TermData, summaries []*model.CourseSummary, attributes []*model.CourseAttribute, known *KnownCourses) error {
	if err := ing.store.EnsureSemester(ctx, data.Year, data.Term); err != nil {
		return err
	}

	for _, sec := range data.Sections {
		if err := known.Ensure(ctx, sec.Subject, sec.CourseCode); err != nil {
			return err
		}
	}
	for _, cs := range summaries {
		if err := known.Ensure(ctx, cs.Subject, cs.CourseCode); err != nil {
			return err
		}
	}
	for _, a := range attributes {
		if err := known.Ensure(ctx, a.Subject, a.CourseCode); err != nil {
			return err
		}
	}

	if err := ing.store.UpsertSections(ctx, data.Sections); err != nil {
		return err
	}
	if err := ing.store.UpsertSchedules(ctx, data.Schedules); err != nil {
		return err
	}
	if err := ing.store.UpsertSummaries(ctx, summaries); err != nil {
		return err
	}
	return ing.store.UpsertAttributes(ctx, attributes)
}

// ImportPage parses one saved course description page and stores it. The
// page row is what marks a course as live during aggregation.
func (ing *Ingestor) ImportPage(ctx context.Context, r io.Reader) (*model.CoursePage, error) {
	page, err := parser.ParseCoursePage(r)
	if err != nil {
		return nil, err
	}
	if err := ing.store.EnsureCourse(ctx, page.Subject, page.CourseCode); err != nil {
		return nil, err
	}
	if err := ing.store.UpsertPages(ctx, []*model.CoursePage{page}); err != nil {
		return nil, err
	}
	return page, nil
}

// transferRecord is one row of the articulation export file.
type transferRecord struct {
	Subject         string   `json:"subject"`
	CourseCode      string   `json:"course_code"`
	SourceTitle     *string  `json:"source_title"`
	SourceCredits   *float64 `json:"source_credits"`
	Destination     string   `json:"destination"`
	DestinationName string   `json:"destination_name"`
	Credit          string   `json:"credit"`
	Condition       *string  `json:"condition"`
}

// ImportTransfers loads an articulation export (a JSON array of agreements)
// and upserts the rows. The agreement-derived keys make re-imports replace
// instead of duplicate. Returns the number of rows stored.
func (ing *Ingestor) ImportTransfers(ctx context.Context, r io.Reader) (int, error) {
	var records []transferRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return 0, fmt.Errorf("decoding transfer export: %w", err)
	}

	known := NewKnownCourses(ing.store)
	transfers := make([]*model.Transfer, 0, len(records))
	for _, rec := range records {
		if rec.Subject == "" || rec.CourseCode == "" || rec.Destination == "" {
			return 0, fmt.Errorf("transfer row for %q %q missing subject, course code or destination", rec.Subject, rec.CourseCode)
		}
		if err := known.Ensure(ctx, rec.Subject, rec.CourseCode); err != nil {
			return 0, err
		}
		transfers = append(transfers, &model.Transfer{
			ID:              model.TransferID(rec.Subject, rec.CourseCode, rec.Destination, rec.Credit),
			Subject:         rec.Subject,
			CourseCode:      rec.CourseCode,
			SourceTitle:     rec.SourceTitle,
			SourceCredits:   rec.SourceCredits,
			Destination:     rec.Destination,
			DestinationName: rec.DestinationName,
			Credit:          rec.Credit,
			Condition:       rec.Condition,
		})
	}

	if err := ing.store.UpsertTransfers(ctx, transfers); err != nil {
		return 0, err
	}
	return len(transfers), nil
}

// BuildAll walks every term from the oldest records upstream has (Summer
// 1999) until a term comes back empty, updating each in turn. Failed terms
// are reported individually and do not stop the walk.
func (ing *Ingestor) BuildAll(ctx context.Context) []*TermError {
	known := NewKnownCourses(ing.store)
	var failed []*TermError

	year, term := model.MinYear, model.TermSummer
	for {
		ok, err := ing.UpdateTerm(ctx, year, term, known)
		if err != nil {
			ing.log.Error("term update failed", "year", year, "term", term, "error", err)
			failed = append(failed, &TermError{Year: year, Term: term, Err: err})
			year, term = model.NextTerm(year, term)
			continue
		}
		if !ok {
			break
		}
		year, term = model.NextTerm(year, term)
	}
	return failed
}

// RefreshAll re-fetches and re-parses every semester already in the store,
// in parallel. Terms are independent; the store serializes same-key writes.
func (ing *Ingestor) RefreshAll(ctx context.Context) []*TermError {
	semesters, err := ing.store.Semesters(ctx)
	if err != nil {
		return []*TermError{{Err: err}}
	}

	known := NewKnownCourses(ing.store)

	limit := ing.Concurrency
	if limit <= 0 {
		limit = 1
	}

	var mu sync.Mutex
	var failed []*TermError

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, sem := range semesters {
		sem := sem
		g.Go(func() error {
			if _, err := ing.UpdateTerm(ctx, sem.Year, sem.Term, known); err != nil {
				ing.log.Error("term refresh failed", "year", sem.Year, "term", sem.Term, "error", err)
				mu.Lock()
				failed = append(failed, &TermError{Year: sem.Year, Term: sem.Term, Err: err})
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		failed = append(failed, &TermError{Err: err})
	}
	return failed
}

// UpdateLatest refreshes the newest stored semester and then probes whether
// the following one has appeared upstream.
func (ing *Ingestor) UpdateLatest(ctx context.Context) error {
	year, term, ok, err := ing.store.LatestSemester(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("store is empty; run a full build first")
	}

	known := NewKnownCourses(ing.store)
	if _, err := ing.UpdateTerm(ctx, year, term, known); err != nil {
		return err
	}

	nextYear, nextTerm := model.NextTerm(year, term)
	found, err := ing.UpdateTerm(ctx, nextYear, nextTerm, known)
	if err != nil {
		return err
	}
	if found {
		ing.log.Info("new semester found", "year", nextYear, "term", nextTerm)
	}
	return nil
}
