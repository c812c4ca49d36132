package aggregate

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/coursewatch/coursewatch/internal/logger"
	"github.com/coursewatch/coursewatch/internal/model"
)

// SourceReader is the per-course read surface the engine needs from the
// store. Reads for one course must reflect a consistent state; the engine
// never interleaves them with writes for that course.
type SourceReader interface {
	Courses(ctx context.Context) ([]*model.Course, error)
	SummariesDesc(ctx context.Context, subject, courseCode string, limit int) ([]*model.CourseSummary, error)
	Page(ctx context.Context, subject, courseCode string) (*model.CoursePage, error)
	LatestAttribute(ctx context.Context, subject, courseCode string) (*model.CourseAttribute, error)
	LatestSection(ctx context.Context, subject, courseCode string) (*model.Section, error)
	OldestSection(ctx context.Context, subject, courseCode string) (*model.Section, error)
	Transfers(ctx context.Context, subject, courseCode string) ([]*model.Transfer, error)
}

// SnapshotWriter persists rebuilt snapshots.
type SnapshotWriter interface {
	UpsertSnapshot(ctx context.Context, snap *model.CourseSnapshot) error
}

// Engine recomputes course snapshots from the stored sources. Different
// courses are independent, so AggregateAll fans out; the same course is
// never rebuilt concurrently with itself.
type Engine struct {
	reader SourceReader
	writer SnapshotWriter
	log    *logger.Logger

	// Concurrency bounds the per-course fan-out. Zero means sequential.
	Concurrency int
}

func NewEngine(reader SourceReader, writer SnapshotWriter, log *logger.Logger) *Engine {
	return &Engine{reader: reader, writer: writer, log: log.With("component", "aggregate")}
}

// AggregateCourse snapshot-reads every source for one course, rebuilds its
// snapshot from scratch and stores it.
func (e *Engine) AggregateCourse(ctx context.Context, subject, courseCode string) error {
	src, err := e.readSources(ctx, subject, courseCode)
	if err != nil {
		return fmt.Errorf("reading sources for %s %s: %w", subject, courseCode, err)
	}

	snap, err := Build(src)
	if err != nil {
		return err
	}

	if err := e.writer.UpsertSnapshot(ctx, snap); err != nil {
		return fmt.Errorf("storing snapshot for %s %s: %w", subject, courseCode, err)
	}
	return nil
}

// AggregateAll rebuilds every known course. Failures are collected per
// course; one malformed course does not stop the rest.
func (e *Engine) AggregateAll(ctx context.Context) error {
	courses, err := e.reader.Courses(ctx)
	if err != nil {
		return fmt.Errorf("listing courses: %w", err)
	}
	e.log.Info("rebuilding course snapshots", "courses", len(courses))

	limit := e.Concurrency
	if limit <= 0 {
		limit = 1
	}

	var mu sync.Mutex
	var failures []error

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, c := range courses {
		c := c
		g.Go(func() error {
			if err := e.AggregateCourse(ctx, c.Subject, c.CourseCode); err != nil {
				e.log.Error("snapshot rebuild failed", "subject", c.Subject, "course_code", c.CourseCode, "error", err)
				mu.Lock()
				failures = append(failures, err)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if len(failures) > 0 {
		return fmt.Errorf("%d of %d course snapshots failed; first: %w", len(failures), len(courses), failures[0])
	}
	return nil
}

func (e *Engine) readSources(ctx context.Context, subject, courseCode string) (Sources, error) {
	src := Sources{Subject: subject, CourseCode: courseCode}
	var err error

	if src.Summaries, err = e.reader.SummariesDesc(ctx, subject, courseCode, discontinuedLookback); err != nil {
		return src, err
	}
	if src.Page, err = e.reader.Page(ctx, subject, courseCode); err != nil {
		return src, err
	}
	if src.Attribute, err = e.reader.LatestAttribute(ctx, subject, courseCode); err != nil {
		return src, err
	}
	if src.NewestSection, err = e.reader.LatestSection(ctx, subject, courseCode); err != nil {
		return src, err
	}
	if src.OldestSection, err = e.reader.OldestSection(ctx, subject, courseCode); err != nil {
		return src, err
	}
	if src.Transfers, err = e.reader.Transfers(ctx, subject, courseCode); err != nil {
		return src, err
	}
	return src, nil
}
