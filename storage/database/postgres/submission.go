package pgdb

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/ptemanager/core"
	"github.com/trezcool/ptemanager/core/files"
	"github.com/trezcool/ptemanager/core/submission"
)

type submissionRow struct {
	ID                 string      `db:"id"`
	TaskID             string      `db:"task_id"`
	StudentID          string      `db:"student_id"`
	Files              filesColumn `db:"files"`
	Notes              string      `db:"notes"`
	Status             string      `db:"status"`
	FeedbackText       null.String `db:"feedback_text"`
	FeedbackReviewedBy null.String `db:"feedback_reviewed_by"`
	FeedbackReviewedAt null.Time   `db:"feedback_reviewed_at"`
	SubmittedAt        time.Time   `db:"submitted_at"`
}

func toSubmissionRow(s submission.Submission) submissionRow {
	row := submissionRow{
		ID:          s.ID,
		TaskID:      s.TaskID,
		StudentID:   s.StudentID,
		Files:       filesColumn(s.Files),
		Notes:       s.Notes,
		Status:      string(s.Status),
		SubmittedAt: s.SubmittedAt.UTC(),
	}
	if fb := s.Feedback; fb != nil {
		row.FeedbackText = null.StringFrom(fb.Text)
		row.FeedbackReviewedBy = null.NewString(fb.ReviewedBy, fb.ReviewedBy != "")
		row.FeedbackReviewedAt = null.TimeFrom(fb.ReviewedAt.UTC())
	}
	return row
}

func (r submissionRow) toSubmission() submission.Submission {
	s := submission.Submission{
		ID:          r.ID,
		TaskID:      r.TaskID,
		StudentID:   r.StudentID,
		Files:       []files.Descriptor(r.Files),
		Notes:       r.Notes,
		Status:      submission.Status(r.Status),
		SubmittedAt: r.SubmittedAt.UTC(),
	}
	if s.Files == nil {
		s.Files = []files.Descriptor{}
	}
	if r.FeedbackText.Valid {
		s.Feedback = &submission.Feedback{
			Text:       r.FeedbackText.String,
			ReviewedBy: r.FeedbackReviewedBy.String,
			ReviewedAt: r.FeedbackReviewedAt.Time.UTC(),
		}
	}
	return s
}

type submissionRepository struct {
	db *sqlx.DB
}

var _ submission.Repository = (*submissionRepository)(nil) // interface compliance check

func NewSubmissionRepository(db *sqlx.DB) *submissionRepository {
	return &submissionRepository{db: db}
}

func submissionWhere(filter submission.QueryFilter) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		conds = append(conds, "student_id = $"+strconv.Itoa(len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conds = append(conds, "status = $"+strconv.Itoa(len(args)))
	}
	return where(conds), args
}

func (repo *submissionRepository) CreateSubmission(ctx context.Context, s submission.Submission) (submission.Submission, error) {
	s.ID = core.NewID()
	q := `INSERT INTO submissions (id, task_id, student_id, files, notes, status, feedback_text, feedback_reviewed_by,
		feedback_reviewed_at, submitted_at)
		VALUES (:id, :task_id, :student_id, :files, :notes, :status, :feedback_text, :feedback_reviewed_by,
		:feedback_reviewed_at, :submitted_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, toSubmissionRow(s)); err != nil {
		return submission.Submission{}, errors.Wrap(err, "inserting submission")
	}
	return s, nil
}

func (repo *submissionRepository) GetSubmission(ctx context.Context, id string) (submission.Submission, error) {
	var row submissionRow
	if err := repo.db.GetContext(ctx, &row, "SELECT * FROM submissions WHERE id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return submission.Submission{}, submission.ErrNotFound
		}
		return submission.Submission{}, errors.Wrap(err, "selecting submission")
	}
	return row.toSubmission(), nil
}

func (repo *submissionRepository) QuerySubmissions(
	ctx context.Context,
	filter submission.QueryFilter,
	page core.Page,
) ([]submission.Submission, int, error) {
	w, args := submissionWhere(filter)
	var total int
	if err := repo.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM submissions"+w, args...); err != nil {
		return nil, 0, errors.Wrap(err, "counting submissions")
	}

	q := "SELECT * FROM submissions" + w + " ORDER BY submitted_at DESC, id DESC"
	if page.Size > 0 {
		args = append(args, page.Size, page.Offset())
		q += " LIMIT $" + strconv.Itoa(len(args)-1) + " OFFSET $" + strconv.Itoa(len(args))
	}
	var rows []submissionRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, 0, errors.Wrap(err, "selecting submissions")
	}
	subs := make([]submission.Submission, 0, len(rows))
	for _, r := range rows {
		subs = append(subs, r.toSubmission())
	}
	return subs, total, nil
}

func (repo *submissionRepository) CountSubmissions(ctx context.Context, filter submission.QueryFilter) (int, error) {
	w, args := submissionWhere(filter)
	var n int
	err := repo.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM submissions"+w, args...)
	return n, errors.Wrap(err, "counting submissions")
}

func (repo *submissionRepository) UpdateSubmission(ctx context.Context, s submission.Submission) (submission.Submission, error) {
	q := `UPDATE submissions SET files = :files, notes = :notes, status = :status, feedback_text = :feedback_text,
		feedback_reviewed_by = :feedback_reviewed_by, feedback_reviewed_at = :feedback_reviewed_at WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, toSubmissionRow(s))
	if err != nil {
		return submission.Submission{}, errors.Wrap(err, "updating submission")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return submission.Submission{}, submission.ErrNotFound
	}
	return s, nil
}

func (repo *submissionRepository) deleteWhere(ctx context.Context, column string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := repo.db.ExecContext(ctx, "DELETE FROM submissions WHERE "+column+" = ANY($1)", pq.Array(ids))
	if err != nil {
		return 0, errors.Wrap(err, "deleting submissions")
	}
	n, err := res.RowsAffected()
	return int(n), errors.Wrap(err, "deleting submissions")
}

func (repo *submissionRepository) DeleteSubmissions(ctx context.Context, ids ...string) (int, error) {
	return repo.deleteWhere(ctx, "id", ids)
}

func (repo *submissionRepository) DeleteSubmissionsByTask(ctx context.Context, taskIDs ...string) (int, error) {
	return repo.deleteWhere(ctx, "task_id", taskIDs)
}
