// Package store is the key-addressed upsert store behind both the parser
// output and the aggregation output. Records carry deterministic primary
// keys, so an upsert is insert-or-full-replace and is idempotent; sqlite's
// single writer serializes concurrent upserts for the same key.
package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/coursewatch/coursewatch/internal/logger"
	"github.com/coursewatch/coursewatch/internal/model"
)

type Store struct {
	db  *gorm.DB
	log *logger.Logger
}

// Open opens (or creates) the sqlite database at path and migrates the
// schema. Use ":memory:" for an in-memory database.
func Open(path string, log *logger.Logger) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}

	if err := db.AutoMigrate(
		&model.Semester{},
		&model.Course{},
		&model.Section{},
		&model.ScheduleEntry{},
		&model.CourseSummary{},
		&model.CoursePage{},
		&model.CourseAttribute{},
		&model.Transfer{},
		&model.CourseSnapshot{},
	); err != nil {
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	// The build touches hundreds of thousands of rows; these trade
	// durability the batch process doesn't need for write throughput.
	db.Exec("PRAGMA journal_mode = WAL")
	db.Exec("PRAGMA synchronous = NORMAL")

	return &Store{db: db, log: log.With("component", "store")}, nil
}

// upsert inserts values, replacing every field of any row that already
// exists under the same primary key. The parser and aggregator always
// supply fully-populated records, so replace-all is the merge semantics.
func (s *Store) upsert(ctx context.Context, values interface{}) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(values).Error
}

func (s *Store) UpsertSections(ctx context.Context, sections []*model.Section) error {
	if len(sections) == 0 {
		return nil
	}
	return s.upsert(ctx, sections)
}

func (s *Store) UpsertSchedules(ctx context.Context, schedules []*model.ScheduleEntry) error {
	if len(schedules) == 0 {
		return nil
	}
	return s.upsert(ctx, schedules)
}

func (s *Store) UpsertSummaries(ctx context.Context, summaries []*model.CourseSummary) error {
	if len(summaries) == 0 {
		return nil
	}
	return s.upsert(ctx, summaries)
}

func (s *Store) UpsertAttributes(ctx context.Context, attributes []*model.CourseAttribute) error {
	if len(attributes) == 0 {
		return nil
	}
	return s.upsert(ctx, attributes)
}

func (s *Store) UpsertPages(ctx context.Context, pages []*model.CoursePage) error {
	if len(pages) == 0 {
		return nil
	}
	return s.upsert(ctx, pages)
}

func (s *Store) UpsertTransfers(ctx context.Context, transfers []*model.Transfer) error {
	if len(transfers) == 0 {
		return nil
	}
	return s.upsert(ctx, transfers)
}

func (s *Store) UpsertSnapshot(ctx context.Context, snap *model.CourseSnapshot) error {
	return s.upsert(ctx, snap)
}

// EnsureSemester creates the semester registry row if it is missing.
func (s *Store) EnsureSemester(ctx context.Context, year, term int) error {
	sem := &model.Semester{ID: model.SemesterID(year, term), Year: year, Term: term}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(sem).Error
}

// EnsureCourse creates the course registry row if it is missing.
func (s *Store) EnsureCourse(ctx context.Context, subject, courseCode string) error {
	course := &model.Course{ID: model.CourseID(subject, courseCode), Subject: subject, CourseCode: courseCode}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(course).Error
}

// Courses lists every known course.
func (s *Store) Courses(ctx context.Context) ([]*model.Course, error) {
	var courses []*model.Course
	err := s.db.WithContext(ctx).Order("subject, course_code").Find(&courses).Error
	return courses, err
}

// LatestSemester returns the newest (year, term) with any stored section,
// or ok=false on an empty store.
func (s *Store) LatestSemester(ctx context.Context) (year, term int, ok bool, err error) {
	var sec model.Section
	res := s.db.WithContext(ctx).Order("year DESC, term DESC").First(&sec)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return 0, 0, false, nil
	}
	if res.Error != nil {
		return 0, 0, false, res.Error
	}
	return sec.Year, sec.Term, true, nil
}

// Semesters lists every stored semester, oldest first.
func (s *Store) Semesters(ctx context.Context) ([]*model.Semester, error) {
	var semesters []*model.Semester
	err := s.db.WithContext(ctx).Order("year, term").Find(&semesters).Error
	return semesters, err
}

// SectionsForTerm returns the stored sections of one term keyed by ID, for
// diffing against a fresh parse.
func (s *Store) SectionsForTerm(ctx context.Context, year, term int) (map[string]*model.Section, error) {
	var sections []*model.Section
	if err := s.db.WithContext(ctx).
		Where("year = ? AND term = ?", year, term).
		Find(&sections).Error; err != nil {
		return nil, err
	}
	byID := make(map[string]*model.Section, len(sections))
	for _, sec := range sections {
		byID[sec.ID] = sec
	}
	return byID, nil
}

// SummariesDesc returns up to limit catalogue summaries for a course,
// newest term first.
func (s *Store) SummariesDesc(ctx context.Context, subject, courseCode string, limit int) ([]*model.CourseSummary, error) {
	var summaries []*model.CourseSummary
	err := s.db.WithContext(ctx).
		Where("subject = ? AND course_code = ?", subject, courseCode).
		Order("year DESC, term DESC").
		Limit(limit).
		Find(&summaries).Error
	return summaries, err
}

// Page returns the course page row, or nil when the course has none.
func (s *Store) Page(ctx context.Context, subject, courseCode string) (*model.CoursePage, error) {
	var page model.CoursePage
	res := s.db.WithContext(ctx).
		Where("subject = ? AND course_code = ?", subject, courseCode).
		First(&page)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if res.Error != nil {
		return nil, res.Error
	}
	return &page, nil
}

// LatestAttribute returns the most recent attribute row, or nil.
func (s *Store) LatestAttribute(ctx context.Context, subject, courseCode string) (*model.CourseAttribute, error) {
	var attr model.CourseAttribute
	res := s.db.WithContext(ctx).
		Where("subject = ? AND course_code = ?", subject, courseCode).
		Order("year DESC, term DESC").
		First(&attr)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if res.Error != nil {
		return nil, res.Error
	}
	return &attr, nil
}

// LatestSection returns the most recent section of a course, or nil for a
// course never offered.
func (s *Store) LatestSection(ctx context.Context, subject, courseCode string) (*model.Section, error) {
	return s.sectionByTermOrder(ctx, subject, courseCode, "year DESC, term DESC")
}

// OldestSection returns the earliest section of a course, or nil.
func (s *Store) OldestSection(ctx context.Context, subject, courseCode string) (*model.Section, error) {
	return s.sectionByTermOrder(ctx, subject, courseCode, "year ASC, term ASC")
}

func (s *Store) sectionByTermOrder(ctx context.Context, subject, courseCode, order string) (*model.Section, error) {
	var sec model.Section
	res := s.db.WithContext(ctx).
		Where("subject = ? AND course_code = ?", subject, courseCode).
		Order(order).
		First(&sec)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if res.Error != nil {
		return nil, res.Error
	}
	return &sec, nil
}

// Transfers returns every articulation record for a course.
func (s *Store) Transfers(ctx context.Context, subject, courseCode string) ([]*model.Transfer, error) {
	var transfers []*model.Transfer
	err := s.db.WithContext(ctx).
		Where("subject = ? AND course_code = ?", subject, courseCode).
		Find(&transfers).Error
	return transfers, err
}

// Snapshot returns the stored snapshot for a course, or nil.
func (s *Store) Snapshot(ctx context.Context, subject, courseCode string) (*model.CourseSnapshot, error) {
	var snap model.CourseSnapshot
	res := s.db.WithContext(ctx).
		Where("subject = ? AND course_code = ?", subject, courseCode).
		First(&snap)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if res.Error != nil {
		return nil, res.Error
	}
	return &snap, nil
}
