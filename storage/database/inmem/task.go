package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/ptemanager/core"
	"github.com/trezcool/ptemanager/core/task"
)

type taskRepository struct {
	db *taskTable
}

var _ task.Repository = (*taskRepository)(nil) // interface compliance check

func NewTaskRepository(db *DB) *taskRepository {
	return &taskRepository{db: db.task}
}

func copyTask(t task.Task) *task.Task {
	t.Assignment.Students = append([]string(nil), t.Assignment.Students...)
	return &t
}

func (repo *taskRepository) match(t *task.Task, filter task.QueryFilter) bool {
	if filter.IsActive != nil && t.IsActive != *filter.IsActive {
		return false
	}
	if filter.VisibleTo != "" && !t.Assignment.Includes(filter.VisibleTo) {
		return false
	}
	return true
}

func (repo *taskRepository) CreateTask(_ context.Context, t task.Task) (task.Task, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	t.ID = core.NewID()
	repo.db.table[t.ID] = copyTask(t)
	return t, nil
}

func (repo *taskRepository) GetTask(_ context.Context, id string) (task.Task, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if t, ok := repo.db.table[id]; ok {
		return *copyTask(*t), nil
	}
	return task.Task{}, task.ErrNotFound
}

func (repo *taskRepository) QueryTasks(_ context.Context, filter task.QueryFilter) ([]task.Task, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	tasks := make([]task.Task, 0)
	for _, t := range repo.db.table {
		if repo.match(t, filter) {
			tasks = append(tasks, *copyTask(*t))
		}
	}
	sort.Slice(tasks, func(i, j int) bool {
		return newestFirst(tasks[i].CreatedAt, tasks[j].CreatedAt, tasks[i].ID, tasks[j].ID)
	})
	return tasks, nil
}

func (repo *taskRepository) CountTasks(_ context.Context, filter task.QueryFilter) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var n int
	for _, t := range repo.db.table {
		if repo.match(t, filter) {
			n++
		}
	}
	return n, nil
}

func (repo *taskRepository) UpdateTask(_ context.Context, t task.Task) (task.Task, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[t.ID]; !ok {
		return task.Task{}, task.ErrNotFound
	}
	repo.db.table[t.ID] = copyTask(t)
	return t, nil
}

func (repo *taskRepository) DeleteTasks(_ context.Context, ids ...string) (int, error) {
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
