package ingest

import (
	"context"
	"sync"

	"github.com/coursewatch/coursewatch/internal/model"
	"github.com/coursewatch/coursewatch/internal/store"
)

// KnownCourses caches which course registry rows have already been ensured
// during one batch run, so thousands of repeat upserts become map hits. It
// is owned by the caller for the run; never keep one across runs.
type KnownCourses struct {
	store *store.Store

	mu   sync.Mutex
	seen map[string]struct{}
}

func NewKnownCourses(st *store.Store) *KnownCourses {
	return &KnownCourses{store: st, seen: make(map[string]struct{})}
}

// Ensure creates the course row once per run.
func (k *KnownCourses) Ensure(ctx context.Context, subject, courseCode string) error {
	id := model.CourseID(subject, courseCode)

	k.mu.Lock()
	_, ok := k.seen[id]
	k.mu.Unlock()
	if ok {
		return nil
	}

	if err := k.store.EnsureCourse(ctx, subject, courseCode); err != nil {
		return err
	}

	k.mu.Lock()
	k.seen[id] = struct{}{}
	k.mu.Unlock()
	return nil
}
