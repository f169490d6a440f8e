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
	"github.com/trezcool/ptemanager/core/task"
)

type taskRow struct {
	ID          string         `db:"id"`
	Title       string         `db:"title"`
	Type        string         `db:"type"`
	Description string         `db:"description"`
	Quantity    int            `db:"quantity"`
	Deadline    null.Time      `db:"deadline"`
	AssignKind  string         `db:"assign_kind"`
	AssignedTo  pq.StringArray `db:"assigned_to"`
	CreatedBy   string         `db:"created_by"`
	IsActive    bool           `db:"is_active"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

func toTaskRow(t task.Task) taskRow {
	students := t.Assignment.Students
	if students == nil {
		students = []string{}
	}
	return taskRow{
		ID:          t.ID,
		Title:       t.Title,
		Type:        t.Type,
		Description: t.Description,
		Quantity:    t.Quantity,
		Deadline:    null.TimeFromPtr(t.Deadline),
		AssignKind:  string(t.Assignment.Kind),
		AssignedTo:  pq.StringArray(students),
		CreatedBy:   t.CreatedBy,
		IsActive:    t.IsActive,
		CreatedAt:   t.CreatedAt.UTC(),
		UpdatedAt:   t.UpdatedAt.UTC(),
	}
}

func (r taskRow) toTask() task.Task {
	t := task.Task{
		ID:          r.ID,
		Title:       r.Title,
		Type:        r.Type,
		Description: r.Description,
		Quantity:    r.Quantity,
		CreatedBy:   r.CreatedBy,
		IsActive:    r.IsActive,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
	if r.Deadline.Valid {
		dl := r.Deadline.Time.UTC()
		t.Deadline = &dl
	}
	if task.AssignmentKind(r.AssignKind) == task.KindSpecific {
		t.Assignment = task.Specific(r.AssignedTo...)
	} else {
		t.Assignment = task.Broadcast()
	}
	return t
}

type taskRepository struct {
	db *sqlx.DB
}

var _ task.Repository = (*taskRepository)(nil) // interface compliance check

func NewTaskRepository(db *sqlx.DB) *taskRepository {
	return &taskRepository{db: db}
}

func taskWhere(filter task.QueryFilter) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.IsActive != nil {
		args = append(args, *filter.IsActive)
		conds = append(conds, "is_active = $"+strconv.Itoa(len(args)))
	}
	if filter.VisibleTo != "" {
		args = append(args, string(task.KindSpecific), filter.VisibleTo)
		conds = append(conds, "(assign_kind <> $"+strconv.Itoa(len(args)-1)+" OR $"+strconv.Itoa(len(args))+" = ANY(assigned_to))")
	}
	return where(conds), args
}

func (repo *taskRepository) CreateTask(ctx context.Context, t task.Task) (task.Task, error) {
	t.ID = core.NewID()
	q := `INSERT INTO tasks (id, title, type, description, quantity, deadline, assign_kind, assigned_to, created_by,
		is_active, created_at, updated_at)
		VALUES (:id, :title, :type, :description, :quantity, :deadline, :assign_kind, :assigned_to, :created_by,
		:is_active, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, toTaskRow(t)); err != nil {
		return task.Task{}, errors.Wrap(err, "inserting task")
	}
	return t, nil
}

func (repo *taskRepository) GetTask(ctx context.Context, id string) (task.Task, error) {
	var row taskRow
	if err := repo.db.GetContext(ctx, &row, "SELECT * FROM tasks WHERE id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return task.Task{}, task.ErrNotFound
		}
		return task.Task{}, errors.Wrap(err, "selecting task")
	}
	return row.toTask(), nil
}

func (repo *taskRepository) QueryTasks(ctx context.Context, filter task.QueryFilter) ([]task.Task, error) {
	w, args := taskWhere(filter)
	var rows []taskRow
	if err := repo.db.SelectContext(ctx, &rows, "SELECT * FROM tasks"+w+" ORDER BY created_at DESC, id DESC", args...); err != nil {
		return nil, errors.Wrap(err, "selecting tasks")
	}
	tasks := make([]task.Task, 0, len(rows))
	for _, r := range rows {
		tasks = append(tasks, r.toTask())
	}
	return tasks, nil
}

func (repo *taskRepository) CountTasks(ctx context.Context, filter task.QueryFilter) (int, error) {
	w, args := taskWhere(filter)
	var n int
	err := repo.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM tasks"+w, args...)
	return n, errors.Wrap(err, "counting tasks")
}

func (repo *taskRepository) UpdateTask(ctx context.Context, t task.Task) (task.Task, error) {
	q := `UPDATE tasks SET title = :title, type = :type, description = :description, quantity = :quantity,
		deadline = :deadline, assign_kind = :assign_kind, assigned_to = :assigned_to, is_active = :is_active,
		updated_at = :updated_at WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, toTaskRow(t))
	if err != nil {
		return task.Task{}, errors.Wrap(err, "updating task")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return task.Task{}, task.ErrNotFound
	}
	return t, nil
}

func (repo *taskRepository) DeleteTasks(ctx context.Context, ids ...string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := repo.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ANY($1)", pq.Array(ids))
	if err != nil {
		return 0, errors.Wrap(err, "deleting tasks")
	}
	n, err := res.RowsAffected()
	return int(n), errors.Wrap(err, "deleting tasks")
}
