package task_test

import (
	"context"
	"encoding/json"
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

func setup(t *testing.T) (*database.Repositories, *task.Service) {
	repos := database.NewInMemory(inmemdb.Open())
	usrSvc := user.NewService(repos.Users, nil, nil)
	return repos, task.NewService(repos.Tasks, usrSvc, repos.Submissions)
}

func TestService_List(t *testing.T) {
	repos, svc := setup(t)
	ctx := context.Background()

	admin := testutil.CreateUser(t, repos.Users, "Teacher", "teacher@test.cd", "", user.RoleAdmin, true)
	amina := testutil.CreateUser(t, repos.Users, "Amina", "amina@test.cd", "", user.RoleStudent, true)
	baraka := testutil.CreateUser(t, repos.Users, "Baraka", "baraka@test.cd", "", user.RoleStudent, true)

	now := time.Now()
	all := testutil.CreateTask(t, repos.Tasks, "For all", admin.ID, nil, nil, now.Add(-3*time.Hour))
	forAmina := testutil.CreateTask(t, repos.Tasks, "For Amina", admin.ID, nil, []string{amina.ID}, now.Add(-2*time.Hour))
	gone := testutil.CreateTask(t, repos.Tasks, "Gone", admin.ID, nil, nil, now.Add(-time.Hour))
	require.NoError(t, svc.Delete(ctx, gone.ID))

	ids := func(tasks []task.Task) []string {
		out := make([]string, 0, len(tasks))
		for _, tsk := range tasks {
			out = append(out, tsk.ID)
		}
		return out
	}

	tests := []struct {
		name    string
		viewer  string
		isAdmin bool
		want    []string
	}{
		{name: "admin sees every active task", viewer: admin.ID, isAdmin: true, want: []string{forAmina.ID, all.ID}},
		{name: "assigned student", viewer: amina.ID, want: []string{forAmina.ID, all.ID}},
		{name: "other student", viewer: baraka.ID, want: []string{all.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.List(ctx, tt.viewer, tt.isAdmin)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}

	t.Run("visibility", func(t *testing.T) {
		_, err := svc.GetVisible(ctx, forAmina.ID, baraka.ID)
		assert.Equal(t, task.ErrNotFound, err)
		_, err = svc.GetVisible(ctx, gone.ID, amina.ID)
		assert.Equal(t, task.ErrNotFound, err)
		got, err := svc.GetVisible(ctx, forAmina.ID, amina.ID)
		require.NoError(t, err)
		assert.Equal(t, forAmina.ID, got.ID)
	})
}

func TestService_Create(t *testing.T) {
	repos, svc := setup(t)
	ctx := context.Background()

	admin := testutil.CreateUser(t, repos.Users, "Teacher", "teacher@test.cd", "", user.RoleAdmin, true)
	amina := testutil.CreateUser(t, repos.Users, "Amina", "amina@test.cd", "", user.RoleStudent, true)
	const unknownID = "0f8fad5b-d9cb-469f-a165-70867728950e"

	t.Run("unknown students", func(t *testing.T) {
		_, err := svc.Create(ctx, admin.ID, task.Input{
			Title: "Essay", Type: "Essay", Description: "Write", Quantity: 1,
			AssignedTo: []string{amina.ID, unknownID, admin.ID},
		})
		verr, ok := err.(*core.ValidationError)
		require.True(t, ok, "want a validation error, got %v", err)
		assert.Equal(t, task.ErrUnknownStudents, verr.Err)
		require.Len(t, verr.Fields, 1)
		assert.Equal(t, "unknown students: "+unknownID+", "+admin.ID, verr.Fields[0].Error)
	})

	t.Run("specific students", func(t *testing.T) {
		tsk, err := svc.Create(ctx, admin.ID, task.Input{
			Title: "Essay", Type: "Essay", Description: "Write", Quantity: 2,
			AssignedTo: []string{amina.ID, amina.ID},
		})
		require.NoError(t, err)
		assert.True(t, tsk.IsActive)
		assert.Equal(t, admin.ID, tsk.CreatedBy)
		assert.Equal(t, task.Specific(amina.ID), tsk.Assignment)
	})

	t.Run("assign to all wins", func(t *testing.T) {
		tsk, err := svc.Create(ctx, admin.ID, task.Input{
			Title: "Read Aloud", Type: "Read Aloud", Description: "Read", Quantity: 1,
			AssignToAll: true, AssignedTo: []string{unknownID},
		})
		require.NoError(t, err)
		assert.True(t, tsk.Assignment.IsBroadcast())
	})
}

func TestService_BulkDelete(t *testing.T) {
	repos, svc := setup(t)
	ctx := context.Background()

	admin := testutil.CreateUser(t, repos.Users, "Teacher", "teacher@test.cd", "", user.RoleAdmin, true)
	amina := testutil.CreateUser(t, repos.Users, "Amina", "amina@test.cd", "", user.RoleStudent, true)
	t1 := testutil.CreateTask(t, repos.Tasks, "T1", admin.ID, nil, nil)
	t2 := testutil.CreateTask(t, repos.Tasks, "T2", admin.ID, nil, nil)
	t3 := testutil.CreateTask(t, repos.Tasks, "T3", admin.ID, nil, nil)
	testutil.CreateSubmission(t, repos.Submissions, t1.ID, amina.ID, submission.StatusPending)
	testutil.CreateSubmission(t, repos.Submissions, t2.ID, amina.ID, submission.StatusApproved)
	testutil.CreateSubmission(t, repos.Submissions, t3.ID, amina.ID, submission.StatusApproved)

	n, err := svc.BulkDelete(ctx, []string{t1.ID, "0f8fad5b-d9cb-469f-a165-70867728950e"}, false)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	count, _ := repos.Submissions.CountSubmissions(ctx, submission.QueryFilter{})
	assert.Equal(t, 3, count, "submissions kept")

	n, err = svc.BulkDelete(ctx, []string{t2.ID}, true)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	count, _ = repos.Submissions.CountSubmissions(ctx, submission.QueryFilter{})
	assert.Equal(t, 2, count)

	_, err = svc.Lookup(ctx, t2.ID)
	assert.Equal(t, task.ErrNotFound, err)
}

func TestDeadline_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    *time.Time
		wantErr bool
	}{
		{name: "null", data: `null`},
		{name: "empty", data: `""`},
		{name: "date", data: `"2026-11-02"`, want: timePtr(time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC))},
		{name: "datetime-local", data: `"2026-11-02T17:30"`, want: timePtr(time.Date(2026, 11, 2, 17, 30, 0, 0, time.UTC))},
		{name: "rfc3339", data: `"2026-11-02T17:30:00+02:00"`, want: timePtr(time.Date(2026, 11, 2, 15, 30, 0, 0, time.UTC))},
		{name: "garbage", data: `"next week"`, wantErr: true},
		{name: "not a string", data: `42`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var in task.Input
			err := json.Unmarshal([]byte(`{"deadline":`+tt.data+`}`), &in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, in.Deadline.Time)
		})
	}
}

func timePtr(t time.Time) *time.Time { return &t }
