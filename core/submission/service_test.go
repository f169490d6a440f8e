package submission_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ptemanager/core"
	"github.com/trezcool/ptemanager/core/submission"
	"github.com/trezcool/ptemanager/core/task"
	"github.com/trezcool/ptemanager/core/user"
	"github.com/trezcool/ptemanager/storage/database"
	inmemdb "github.com/trezcool/ptemanager/storage/database/inmem"
	"github.com/trezcool/ptemanager/tests"
)

type mailRecorder struct {
	mu   sync.Mutex
	sent []*core.EmailMessage
}

func (m *mailRecorder) SendMessages(messages ...*core.EmailMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, messages...)
}

type fixture struct {
	repos   *database.Repositories
	svc     *submission.Service
	mail    *mailRecorder
	admin   user.User
	student user.User
}

func setup(t *testing.T) fixture {
	repos := database.NewInMemory(inmemdb.Open())
	usrSvc := user.NewService(repos.Users, nil, nil)
	taskSvc := task.NewService(repos.Tasks, usrSvc, repos.Submissions)
	mail := new(mailRecorder)
	return fixture{
		repos:   repos,
		svc:     submission.NewService(repos.Submissions, taskSvc, usrSvc, mail),
		mail:    mail,
		admin:   testutil.CreateUser(t, repos.Users, "Teacher", "teacher@test.cd", "", user.RoleAdmin, true),
		student: testutil.CreateUser(t, repos.Users, "Amina", "amina@test.cd", "", user.RoleStudent, true),
	}
}

func TestService_Create(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	submission.NowFunc = func() time.Time { return now }
	defer func() { submission.NowFunc = func() time.Time { return time.Now().UTC() } }()

	past, future := now.Add(-time.Hour), now.Add(time.Hour)
	open := testutil.CreateTask(t, f.repos.Tasks, "Open", f.admin.ID, &future, nil)
	closed := testutil.CreateTask(t, f.repos.Tasks, "Closed", f.admin.ID, &past, nil)
	private := testutil.CreateTask(t, f.repos.Tasks, "Private", f.admin.ID, nil, []string{f.admin.ID})

	t.Run("unknown task", func(t *testing.T) {
		_, err := f.svc.Create(ctx, f.student.ID, submission.NewSubmission{TaskID: "0f8fad5b-d9cb-469f-a165-70867728950e"})
		assert.Equal(t, task.ErrNotFound, err)
	})

	t.Run("task not assigned", func(t *testing.T) {
		_, err := f.svc.Create(ctx, f.student.ID, submission.NewSubmission{TaskID: private.ID})
		assert.Equal(t, task.ErrNotFound, err)
	})

	t.Run("pending", func(t *testing.T) {
		s, err := f.svc.Create(ctx, f.student.ID, submission.NewSubmission{TaskID: " " + open.ID, Notes: " done "})
		require.NoError(t, err)
		assert.Equal(t, submission.StatusPending, s.Status)
		assert.Equal(t, "done", s.Notes)
		assert.Nil(t, s.Feedback)
		assert.NotNil(t, s.Files)
		assert.Equal(t, now, s.SubmittedAt)
	})

	t.Run("late", func(t *testing.T) {
		s, err := f.svc.Create(ctx, f.student.ID, submission.NewSubmission{TaskID: closed.ID, Notes: "sorry"})
		require.NoError(t, err)
		assert.Equal(t, submission.StatusRejected, s.Status)
		assert.Equal(t, "Automatic rejection: Deadline passed", s.Notes)
		require.NotNil(t, s.Feedback)
		assert.Empty(t, s.Feedback.ReviewedBy)
		assert.Equal(t, now, s.Feedback.ReviewedAt)
	})
}

func TestService_Review(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	tsk := testutil.CreateTask(t, f.repos.Tasks, "Describe Image", f.admin.ID, nil, nil)
	s := testutil.CreateSubmission(t, f.repos.Submissions, tsk.ID, f.student.ID, submission.StatusPending)

	_, err := f.svc.Review(ctx, f.admin.ID, "0f8fad5b-d9cb-469f-a165-70867728950e", submission.Review{Status: submission.StatusApproved})
	assert.Equal(t, submission.ErrNotFound, err)

	got, err := f.svc.Review(ctx, f.admin.ID, s.ID, submission.Review{Status: submission.StatusRejected, FeedbackText: "Too short"})
	require.NoError(t, err)
	assert.Equal(t, submission.StatusRejected, got.Status)
	assert.Equal(t, "Too short", got.Feedback.Text)
	assert.Equal(t, f.admin.ID, got.Feedback.ReviewedBy)

	// a second review replaces the first
	got, err = f.svc.Review(ctx, f.admin.ID, s.ID, submission.Review{Status: submission.StatusApproved})
	require.NoError(t, err)
	assert.Equal(t, submission.StatusApproved, got.Status)
	assert.Empty(t, got.Feedback.Text)

	require.Len(t, f.mail.sent, 2)
	msg := f.mail.sent[1]
	assert.Equal(t, "Your submission was approved", msg.Subject)
	assert.Equal(t, "submission_reviewed", msg.TemplateName)
	assert.Equal(t, f.student.Email, msg.To[0].Address)
}

func TestService_List(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	other := testutil.CreateUser(t, f.repos.Users, "Baraka", "baraka@test.cd", "", user.RoleStudent, true)
	tsk := testutil.CreateTask(t, f.repos.Tasks, "Essay", f.admin.ID, nil, nil)
	now := time.Now()
	s1 := testutil.CreateSubmission(t, f.repos.Submissions, tsk.ID, f.student.ID, submission.StatusPending, now.Add(-3*time.Minute))
	s2 := testutil.CreateSubmission(t, f.repos.Submissions, tsk.ID, f.student.ID, submission.StatusApproved, now.Add(-2*time.Minute))
	s3 := testutil.CreateSubmission(t, f.repos.Submissions, tsk.ID, other.ID, submission.StatusPending, now.Add(-time.Minute))
	orphan := testutil.CreateSubmission(t, f.repos.Submissions, "0f8fad5b-d9cb-469f-a165-70867728950e", other.ID, submission.StatusPending, now)

	ids := func(p submission.Page) []string {
		out := make([]string, 0, len(p.Submissions))
		for _, d := range p.Submissions {
			out = append(out, d.ID)
		}
		return out
	}

	t.Run("admin", func(t *testing.T) {
		p, err := f.svc.List(ctx, f.admin.ID, true, "", core.NewPage(1, 2))
		require.NoError(t, err)
		assert.Equal(t, []string{orphan.ID, s3.ID}, ids(p))
		assert.Equal(t, 4, p.TotalSubmissions)
		assert.Equal(t, 2, p.TotalPages)
		assert.Nil(t, p.Submissions[0].Task)
		require.NotNil(t, p.Submissions[1].Task)
		assert.Equal(t, "Essay", p.Submissions[1].Task.Title)
		assert.Equal(t, "Baraka", p.Submissions[1].Student.Name)
		assert.Empty(t, p.Submissions[1].Student.Role)
	})

	t.Run("student", func(t *testing.T) {
		p, err := f.svc.List(ctx, f.student.ID, false, "", core.NewPage(1, 10))
		require.NoError(t, err)
		assert.Equal(t, []string{s2.ID, s1.ID}, ids(p))
	})

	t.Run("history by status", func(t *testing.T) {
		p, err := f.svc.History(ctx, f.student.ID, submission.StatusPending, core.NewPage(1, 10))
		require.NoError(t, err)
		assert.Equal(t, []string{s1.ID}, ids(p))
		assert.Equal(t, 1, p.TotalPages)
	})
}
