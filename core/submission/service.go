package submission

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/ptemanager/core"
	"github.com/trezcool/ptemanager/core/task"
	"github.com/trezcool/ptemanager/core/user"
)

var (
	// errors
	ErrNotFound = errors.New("submission not found")
)

var NowFunc = func() time.Time { return time.Now().UTC() } // mockable

type (
	Repository interface {
		CreateSubmission(ctx context.Context, s Submission) (Submission, error)
		GetSubmission(ctx context.Context, id string) (Submission, error)
		// QuerySubmissions returns one page of the matching submissions, newest first, and the total match count.
		// A zero page.Size returns every match.
		QuerySubmissions(ctx context.Context, filter QueryFilter, page core.Page) ([]Submission, int, error)
		CountSubmissions(ctx context.Context, filter QueryFilter) (int, error)
		UpdateSubmission(ctx context.Context, s Submission) (Submission, error)
		// DeleteSubmissions hard deletes submissions and returns how many existed.
		DeleteSubmissions(ctx context.Context, ids ...string) (int, error)
		DeleteSubmissionsByTask(ctx context.Context, taskIDs ...string) (int, error)
	}

	TaskGetter interface {
		GetVisible(ctx context.Context, id, studentID string) (task.Task, error)
		Lookup(ctx context.Context, id string) (task.Task, error)
	}

	UserGetter interface {
		GetByID(ctx context.Context, id string) (user.User, error)
	}

	Service struct {
		repo    Repository
		tasks   TaskGetter
		users   UserGetter
		mailSvc core.EmailService
	}
)

func NewService(repo Repository, tasks TaskGetter, users UserGetter, mailSvc core.EmailService) *Service {
	return &Service{repo: repo, tasks: tasks, users: users, mailSvc: mailSvc}
}

// Create records a student's submission. Submissions made after the task deadline are stored already rejected.
func (svc *Service) Create(ctx context.Context, studentID string, ns NewSubmission) (Submission, error) {
	ns.Clean()
	t, err := svc.tasks.GetVisible(ctx, ns.TaskID, studentID)
	if err != nil {
		return Submission{}, err
	}

	now := NowFunc()
	s := Submission{
		TaskID:      t.ID,
		StudentID:   studentID,
		Files:       ns.Files,
		Notes:       ns.Notes,
		Status:      StatusPending,
		SubmittedAt: now,
	}
	if t.DeadlinePassed(now) {
		s.Notes = lateNotes
		s.Status = StatusRejected
		s.Feedback = &Feedback{Text: lateFeedback, ReviewedAt: now}
	}
	return svc.repo.CreateSubmission(ctx, s)
}

func (svc *Service) Get(ctx context.Context, id string) (Submission, error) {
	return svc.repo.GetSubmission(ctx, id)
}

// List returns a page of submissions: all of them for admins, the viewer's own otherwise.
func (svc *Service) List(ctx context.Context, viewerID string, isAdmin bool, status Status, page core.Page) (Page, error) {
	filter := QueryFilter{Status: status}
	if !isAdmin {
		filter.StudentID = viewerID
	}
	return svc.query(ctx, filter, page)
}

// History returns a page of the student's own submissions.
func (svc *Service) History(ctx context.Context, studentID string, status Status, page core.Page) (Page, error) {
	return svc.query(ctx, QueryFilter{StudentID: studentID, Status: status}, page)
}

// All returns every submission with details, newest first.
func (svc *Service) All(ctx context.Context) ([]Detail, error) {
	subs, _, err := svc.repo.QuerySubmissions(ctx, QueryFilter{}, core.Page{})
	if err != nil {
		return nil, pkgerrors.Wrap(err, "querying submissions")
	}
	return svc.details(ctx, subs)
}

func (svc *Service) query(ctx context.Context, filter QueryFilter, page core.Page) (Page, error) {
	subs, total, err := svc.repo.QuerySubmissions(ctx, filter, page)
	if err != nil {
		return Page{}, pkgerrors.Wrap(err, "querying submissions")
	}
	details, err := svc.details(ctx, subs)
	if err != nil {
		return Page{}, err
	}
	return Page{
		Submissions:      details,
		CurrentPage:      page.Number,
		TotalPages:       core.TotalPages(total, page.Size),
		TotalSubmissions: total,
	}, nil
}

// details attaches task & student summaries. Missing references are left nil.
func (svc *Service) details(ctx context.Context, subs []Submission) ([]Detail, error) {
	tasks := make(map[string]*task.Summary)
	students := make(map[string]*user.Summary)

	out := make([]Detail, 0, len(subs))
	for _, s := range subs {
		d := Detail{Submission: s}

		if ts, ok := tasks[s.TaskID]; ok {
			d.Task = ts
		} else {
			t, err := svc.tasks.Lookup(ctx, s.TaskID)
			if err != nil && err != task.ErrNotFound {
				return nil, pkgerrors.Wrap(err, "finding submission task")
			}
			if err == nil {
				ts := t.Summary()
				d.Task = &ts
			}
			tasks[s.TaskID] = d.Task
		}

		if us, ok := students[s.StudentID]; ok {
			d.Student = us
		} else {
			u, err := svc.users.GetByID(ctx, s.StudentID)
			if err != nil && err != user.ErrNotFound {
				return nil, pkgerrors.Wrap(err, "finding submission student")
			}
			if err == nil {
				us := u.Summary()
				us.Role = ""
				d.Student = &us
			}
			students[s.StudentID] = d.Student
		}

		out = append(out, d)
	}
	return out, nil
}

// Review sets the status and feedback of a submission, replacing any previous review. `r` must be validated.
func (svc *Service) Review(ctx context.Context, reviewerID, id string, r Review) (Submission, error) {
	s, err := svc.repo.GetSubmission(ctx, id)
	if err != nil {
		return Submission{}, err
	}
	s.Status = r.Status
	s.Feedback = &Feedback{
		Text:       r.FeedbackText,
		ReviewedBy: reviewerID,
		ReviewedAt: NowFunc(),
	}
	if s, err = svc.repo.UpdateSubmission(ctx, s); err != nil {
		return Submission{}, pkgerrors.Wrap(err, "updating submission")
	}
	svc.sendReviewMail(ctx, s)
	return s, nil
}

// BulkDelete hard deletes submissions and returns how many existed.
func (svc *Service) BulkDelete(ctx context.Context, ids []string) (int, error) {
	n, err := svc.repo.DeleteSubmissions(ctx, ids...)
	return n, pkgerrors.Wrap(err, "deleting submissions")
}

func (svc *Service) Count(ctx context.Context, filter QueryFilter) (int, error) {
	return svc.repo.CountSubmissions(ctx, filter)
}

type reviewData struct {
	StudentName string
	TaskTitle   string
	Status      string
	Feedback    string
}

func (svc *Service) sendReviewMail(ctx context.Context, s Submission) {
	if svc.mailSvc == nil {
		return
	}
	student, err := svc.users.GetByID(ctx, s.StudentID)
	if err != nil {
		return
	}
	title := "your task"
	if t, err := svc.tasks.Lookup(ctx, s.TaskID); err == nil {
		title = t.Title
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: student.Name, Address: student.Email}},
		Subject:      fmt.Sprintf("Your submission was %s", s.Status),
		TemplateName: "submission_reviewed",
		TemplateData: reviewData{
			StudentName: student.Name,
			TaskTitle:   title,
			Status:      string(s.Status),
			Feedback:    s.Feedback.Text,
		},
	})
}
