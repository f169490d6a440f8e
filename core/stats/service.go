package stats

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/ptemanager/core/submission"
	"github.com/trezcool/ptemanager/core/task"
	"github.com/trezcool/ptemanager/core/user"
)

type (
	AdminStats struct {
		TotalStudents       int `json:"totalStudents"`
		ActiveTasks         int `json:"activeTasks"`
		PendingReviews      int `json:"pendingReviews"`
		TotalSubmissions    int `json:"totalSubmissions"`
		ApprovedSubmissions int `json:"approvedSubmissions"`
		RejectedSubmissions int `json:"rejectedSubmissions"`
	}

	StudentStats struct {
		AssignedTasks  int `json:"assignedTasks"`
		CompletedTasks int `json:"completedTasks"`
		PendingTasks   int `json:"pendingTasks"`
		RejectedTasks  int `json:"rejectedTasks"`
	}

	UserCounter interface {
		Count(ctx context.Context, filter user.QueryFilter) (int, error)
	}
	TaskCounter interface {
		Count(ctx context.Context, filter task.QueryFilter) (int, error)
	}
	SubmissionCounter interface {
		Count(ctx context.Context, filter submission.QueryFilter) (int, error)
	}

	Service struct {
		users       UserCounter
		tasks       TaskCounter
		submissions SubmissionCounter
	}
)

func NewService(users UserCounter, tasks TaskCounter, submissions SubmissionCounter) *Service {
	return &Service{users: users, tasks: tasks, submissions: submissions}
}

func boolPtr(b bool) *bool { return &b }

func (svc *Service) Admin(ctx context.Context) (AdminStats, error) {
	var (
		st  AdminStats
		err error
	)
	if st.TotalStudents, err = svc.users.Count(ctx, user.QueryFilter{Role: user.RoleStudent, IsActive: boolPtr(true)}); err != nil {
		return AdminStats{}, errors.Wrap(err, "counting students")
	}
	if st.ActiveTasks, err = svc.tasks.Count(ctx, task.QueryFilter{IsActive: boolPtr(true)}); err != nil {
		return AdminStats{}, errors.Wrap(err, "counting tasks")
	}
	counts := map[submission.Status]*int{
		"":                        &st.TotalSubmissions,
		submission.StatusPending:  &st.PendingReviews,
		submission.StatusApproved: &st.ApprovedSubmissions,
		submission.StatusRejected: &st.RejectedSubmissions,
	}
	for status, dst := range counts {
		if *dst, err = svc.submissions.Count(ctx, submission.QueryFilter{Status: status}); err != nil {
			return AdminStats{}, errors.Wrap(err, "counting submissions")
		}
	}
	return st, nil
}

func (svc *Service) Student(ctx context.Context, studentID string) (StudentStats, error) {
	var (
		st  StudentStats
		err error
	)
	if st.AssignedTasks, err = svc.tasks.Count(ctx, task.QueryFilter{IsActive: boolPtr(true), VisibleTo: studentID}); err != nil {
		return StudentStats{}, errors.Wrap(err, "counting tasks")
	}
	counts := map[submission.Status]*int{
		submission.StatusApproved: &st.CompletedTasks,
		submission.StatusPending:  &st.PendingTasks,
		submission.StatusRejected: &st.RejectedTasks,
	}
	for status, dst := range counts {
		if *dst, err = svc.submissions.Count(ctx, submission.QueryFilter{StudentID: studentID, Status: status}); err != nil {
			return StudentStats{}, errors.Wrap(err, "counting submissions")
		}
	}
	return st, nil
}
