package tests

import (
	"net/http"
	"testing"
	"time"

	"github.com/trezcool/ptemanager/core/stats"
	"github.com/trezcool/ptemanager/core/submission"
	"github.com/trezcool/ptemanager/core/user"
	"github.com/trezcool/ptemanager/tests"
)

func Test_dashboardApi_stats(t *testing.T) {
	resetDB(t)

	admin := testutil.CreateUser(t, repos.Users, "Admin", "admin@test.cd", "", user.RoleAdmin, true)
	hero := testutil.CreateUser(t, repos.Users, "Hero", "hero@test.cd", "", user.RoleStudent, true)
	villain := testutil.CreateUser(t, repos.Users, "Villain", "villain@test.cd", "", user.RoleStudent, true)
	testutil.CreateUser(t, repos.Users, "N Dog", "ndog@test.cd", "", user.RoleStudent, false)

	past := time.Now().Add(-time.Hour)
	all := testutil.CreateTask(t, repos.Tasks, "For all", admin.ID, nil, nil)
	forHero := testutil.CreateTask(t, repos.Tasks, "For Hero", admin.ID, &past, []string{hero.ID})
	testutil.CreateTask(t, repos.Tasks, "For Villain", admin.ID, nil, []string{villain.ID})

	testutil.CreateSubmission(t, repos.Submissions, all.ID, hero.ID, submission.StatusApproved)
	testutil.CreateSubmission(t, repos.Submissions, forHero.ID, hero.ID, submission.StatusRejected)
	testutil.CreateSubmission(t, repos.Submissions, all.ID, hero.ID, submission.StatusPending)
	testutil.CreateSubmission(t, repos.Submissions, all.ID, villain.ID, submission.StatusPending)

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errNoToken)},
		{
			name: "admin", token: getToken(t, admin),
			wantData: marchallObj(t, stats.AdminStats{
				TotalStudents:       2,
				ActiveTasks:         3,
				PendingReviews:      2,
				TotalSubmissions:    4,
				ApprovedSubmissions: 1,
				RejectedSubmissions: 1,
			}),
		},
		{
			name: "hero", token: getToken(t, hero),
			wantData: marchallObj(t, stats.StudentStats{AssignedTasks: 2, CompletedTasks: 1, PendingTasks: 1, RejectedTasks: 1}),
		},
		{
			name: "villain", token: getToken(t, villain),
			wantData: marchallObj(t, stats.StudentStats{AssignedTasks: 2, PendingTasks: 1}),
		},
	}
	runTests(t, http.MethodGet, "/api/dashboard/stats", tests)
}
