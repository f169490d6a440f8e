package task

import (
	"context"
	"errors"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/ptemanager/core"
	"github.com/trezcool/ptemanager/core/user"
)

var (
	// errors
	ErrNotFound        = errors.New("task not found")
	ErrUnknownStudents = errors.New("assigned users must be existing students")
)

var NowFunc = func() time.Time { return time.Now().UTC() } // mockable

type (
	Repository interface {
		CreateTask(ctx context.Context, t Task) (Task, error)
		GetTask(ctx context.Context, id string) (Task, error)
		// QueryTasks returns the tasks matching filter, newest first.
		QueryTasks(ctx context.Context, filter QueryFilter) ([]Task, error)
		CountTasks(ctx context.Context, filter QueryFilter) (int, error)
		UpdateTask(ctx context.Context, t Task) (Task, error)
		// DeleteTasks hard deletes the tasks and returns how many existed.
		DeleteTasks(ctx context.Context, ids ...string) (int, error)
	}

	// SubmissionDeleter removes the submissions made against tasks.
	SubmissionDeleter interface {
		DeleteSubmissionsByTask(ctx context.Context, taskIDs ...string) (int, error)
	}

	UserGetter interface {
		GetByID(ctx context.Context, id string) (user.User, error)
	}

	Service struct {
		repo    Repository
		users   UserGetter
		subsDel SubmissionDeleter
	}
)

func NewService(repo Repository, users UserGetter, subsDel SubmissionDeleter) *Service {
	return &Service{repo: repo, users: users, subsDel: subsDel}
}

func active() *bool {
	b := true
	return &b
}

// List returns the active tasks a viewer can see: all of them for admins.
func (svc *Service) List(ctx context.Context, viewerID string, isAdmin bool) ([]Task, error) {
	filter := QueryFilter{IsActive: active()}
	if !isAdmin {
		filter.VisibleTo = viewerID
	}
	return svc.repo.QueryTasks(ctx, filter)
}

func (svc *Service) Count(ctx context.Context, filter QueryFilter) (int, error) {
	return svc.repo.CountTasks(ctx, filter)
}

// Get returns an active Task.
func (svc *Service) Get(ctx context.Context, id string) (Task, error) {
	t, err := svc.repo.GetTask(ctx, id)
	if err != nil {
		return Task{}, err
	}
	if !t.IsActive {
		return Task{}, ErrNotFound
	}
	return t, nil
}

// Lookup returns a Task whatever its state.
func (svc *Service) Lookup(ctx context.Context, id string) (Task, error) {
	return svc.repo.GetTask(ctx, id)
}

// GetVisible returns an active Task the student can see.
func (svc *Service) GetVisible(ctx context.Context, id, studentID string) (Task, error) {
	t, err := svc.Get(ctx, id)
	if err != nil {
		return Task{}, err
	}
	if !t.Assignment.Includes(studentID) {
		return Task{}, ErrNotFound
	}
	return t, nil
}

func (svc *Service) resolveAssignment(ctx context.Context, in Input) (Assignment, error) {
	a := in.Assignment()
	if a.IsBroadcast() {
		return a, nil
	}
	unknown := make([]string, 0)
	for _, id := range a.Students {
		usr, err := svc.users.GetByID(ctx, id)
		if err != nil {
			if err != user.ErrNotFound {
				return Assignment{}, pkgerrors.Wrap(err, "finding assigned user")
			}
			unknown = append(unknown, id)
			continue
		}
		if !usr.IsStudent() {
			unknown = append(unknown, id)
		}
	}
	if len(unknown) > 0 {
		return Assignment{}, core.NewValidationError(
			ErrUnknownStudents,
			core.FieldError{Field: "assignedTo", Error: "unknown students: " + strings.Join(unknown, ", ")},
		)
	}
	return a, nil
}

// Create stores a new active Task created by the given admin. `in` must be validated.
func (svc *Service) Create(ctx context.Context, createdBy string, in Input) (Task, error) {
	assignment, err := svc.resolveAssignment(ctx, in)
	if err != nil {
		return Task{}, err
	}
	now := NowFunc()
	t := Task{
		Title:       in.Title,
		Type:        in.Type,
		Description: in.Description,
		Quantity:    in.Quantity,
		Deadline:    in.Deadline.Time,
		Assignment:  assignment,
		CreatedBy:   createdBy,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateTask(ctx, t)
}

// Update replaces every mutable field of an active Task with `in`. `in` must be validated.
func (svc *Service) Update(ctx context.Context, id string, in Input) (Task, error) {
	t, err := svc.Get(ctx, id)
	if err != nil {
		return Task{}, err
	}
	assignment, err := svc.resolveAssignment(ctx, in)
	if err != nil {
		return Task{}, err
	}
	t.Title = in.Title
	t.Type = in.Type
	t.Description = in.Description
	t.Quantity = in.Quantity
	t.Deadline = in.Deadline.Time
	t.Assignment = assignment
	t.UpdatedAt = NowFunc()
	return svc.repo.UpdateTask(ctx, t)
}

// Delete soft deletes an active Task. Its submissions are kept.
func (svc *Service) Delete(ctx context.Context, id string) error {
	t, err := svc.Get(ctx, id)
	if err != nil {
		return err
	}
	t.IsActive = false
	t.UpdatedAt = NowFunc()
	_, err = svc.repo.UpdateTask(ctx, t)
	return err
}

// BulkDelete hard deletes tasks, and their submissions if asked. It returns the number of tasks removed.
func (svc *Service) BulkDelete(ctx context.Context, ids []string, withSubmissions bool) (int, error) {
	if withSubmissions && svc.subsDel != nil {
		if _, err := svc.subsDel.DeleteSubmissionsByTask(ctx, ids...); err != nil {
			return 0, pkgerrors.Wrap(err, "deleting task submissions")
		}
	}
	n, err := svc.repo.DeleteTasks(ctx, ids...)
	return n, pkgerrors.Wrap(err, "deleting tasks")
}
