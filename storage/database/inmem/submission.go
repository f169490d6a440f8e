package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/ptemanager/core"
	"github.com/trezcool/ptemanager/core/files"
	"github.com/trezcool/ptemanager/core/submission"
)

type submissionRepository struct {
	db *submissionTable
}

var _ submission.Repository = (*submissionRepository)(nil) // interface compliance check

func NewSubmissionRepository(db *DB) *submissionRepository {
	return &submissionRepository{db: db.submission}
}

func copySubmission(s submission.Submission) *submission.Submission {
	s.Files = append([]files.Descriptor{}, s.Files...)
	if s.Feedback != nil {
		fb := *s.Feedback
		s.Feedback = &fb
	}
	return &s
}

func (repo *submissionRepository) match(s *submission.Submission, filter submission.QueryFilter) bool {
	if filter.StudentID != "" && s.StudentID != filter.StudentID {
		return false
	}
	if filter.Status != "" && s.Status != filter.Status {
		return false
	}
	return true
}

func (repo *submissionRepository) CreateSubmission(_ context.Context, s submission.Submission) (submission.Submission, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	s.ID = core.NewID()
	repo.db.table[s.ID] = copySubmission(s)
	return s, nil
}

func (repo *submissionRepository) GetSubmission(_ context.Context, id string) (submission.Submission, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if s, ok := repo.db.table[id]; ok {
		return *copySubmission(*s), nil
	}
	return submission.Submission{}, submission.ErrNotFound
}

func (repo *submissionRepository) QuerySubmissions(
	_ context.Context,
	filter submission.QueryFilter,
	page core.Page,
) ([]submission.Submission, int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	subs := make([]submission.Submission, 0)
	for _, s := range repo.db.table {
		if repo.match(s, filter) {
			subs = append(subs, *copySubmission(*s))
		}
	}
	sort.Slice(subs, func(i, j int) bool {
		return newestFirst(subs[i].SubmittedAt, subs[j].SubmittedAt, subs[i].ID, subs[j].ID)
	})

	total := len(subs)
	if page.Size == 0 {
		return subs, total, nil
	}
	start := page.Offset()
	if start >= total {
		return []submission.Submission{}, total, nil
	}
	end := start + page.Size
	if end > total {
		end = total
	}
	return subs[start:end], total, nil
}

func (repo *submissionRepository) CountSubmissions(_ context.Context, filter submission.QueryFilter) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var n int
	for _, s := range repo.db.table {
		if repo.match(s, filter) {
			n++
		}
	}
	return n, nil
}

func (repo *submissionRepository) UpdateSubmission(_ context.Context, s submission.Submission) (submission.Submission, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[s.ID]; !ok {
		return submission.Submission{}, submission.ErrNotFound
	}
	repo.db.table[s.ID] = copySubmission(s)
	return s, nil
}

func (repo *submissionRepository) DeleteSubmissions(_ context.Context, ids ...string) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var n int
	for _, id := range ids {
		if _, ok := repo.db.table[id]; ok {
			delete(repo.db.table, id)
			n++
		}
	}
	return n, nil
}

func (repo *submissionRepository) DeleteSubmissionsByTask(_ context.Context, taskIDs ...string) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	ids := make(map[string]bool, len(taskIDs))
	for _, id := range taskIDs {
		ids[id] = true
	}
	var n int
	for id, s := range repo.db.table {
		if ids[s.TaskID] {
			delete(repo.db.table, id)
			n++
		}
	}
	return n, nil
}
