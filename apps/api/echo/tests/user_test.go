package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/ptemanager/apps/api/echo"
	"github.com/trezcool/ptemanager/core/user"
	"github.com/trezcool/ptemanager/services/email"
	"github.com/trezcool/ptemanager/tests"
)

func Test_userApi_register(t *testing.T) {
	resetDB(t)

	admin := testutil.CreateUser(t, repos.Users, "Admin", "admin@test.cd", "", user.RoleAdmin, true)
	student := testutil.CreateUser(t, repos.Users, "Hero", "hero@test.cd", "", user.RoleStudent, true)
	adminOnly := "Only existing admins can create teacher accounts"

	type extraTest struct {
		role      string
		emailSent bool
	}
	tests := []httpTest{
		{
			name: "required fields", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.NewUser{Email: "amina@test.cd"}),
			wantData: marchallObj(t, httpErr{Message: "Name, email, and password are required"}),
		},
		{
			name: "invalid email", wantCode: http.StatusBadRequest,
			body: marchallObj(t, user.NewUser{Name: "Amina", Email: "amina", Password: "Kilimanjaro-42"}),
			wantData: marchallObj(t, fieldsErr{
				Message: "email must be a valid email address",
				Errors:  map[string]string{"email": "email must be a valid email address"},
			}),
		},
		{
			name: "invalid pwd: min len", wantCode: http.StatusBadRequest,
			body: marchallObj(t, user.NewUser{Name: "Amina", Email: "amina@test.cd", Password: "abc"}),
			wantData: marchallObj(t, fieldsErr{
				Message: "password must contain at least 6 characters",
				Errors:  map[string]string{"password": "password must contain at least 6 characters"},
			}),
		},
		{
			name: "invalid pwd: too similar", wantCode: http.StatusBadRequest,
			body: marchallObj(t, user.NewUser{Name: "Amina", Email: "amina@test.cd", Password: "amina@test"}),
			wantData: marchallObj(t, fieldsErr{
				Message: "password cannot be similar to user attributes",
				Errors:  map[string]string{"password": "password cannot be similar to user attributes"},
			}),
		},
		{
			name: "admin: no token", wantCode: http.StatusUnauthorized,
			body:     marchallObj(t, user.NewUser{Name: "Teacher", Email: "teacher@test.cd", Password: "Kilimanjaro-42", Role: user.RoleAdmin}),
			wantData: marchallObj(t, httpErr{Message: adminOnly}),
		},
		{
			name: "admin: invalid token", wantCode: http.StatusForbidden, token: "lol",
			body:     marchallObj(t, user.NewUser{Name: "Teacher", Email: "teacher@test.cd", Password: "Kilimanjaro-42", Role: user.RoleAdmin}),
			wantData: marchallObj(t, httpErr{Message: adminOnly}),
		},
		{
			name: "admin: student token", wantCode: http.StatusForbidden, token: getToken(t, student),
			body:     marchallObj(t, user.NewUser{Name: "Teacher", Email: "teacher@test.cd", Password: "Kilimanjaro-42", Role: user.RoleAdmin}),
			wantData: marchallObj(t, httpErr{Message: adminOnly}),
		},
		{
			name: "duplicate email", wantCode: http.StatusConflict,
			body:     marchallObj(t, user.NewUser{Name: "Hero 2", Email: " HERO@test.cd", Password: "Kilimanjaro-42"}),
			wantData: marchallObj(t, httpErr{Message: "User already exists with this email"}),
		},
		{
			name: "student registered", wantCode: http.StatusCreated,
			body:  marchallObj(t, user.NewUser{Name: "Amina", Email: "Amina@Test.cd", Password: "Kilimanjaro-42"}),
			extra: extraTest{role: user.RoleStudent},
		},
		{
			name: "admin created", wantCode: http.StatusCreated, token: getToken(t, admin),
			body:  marchallObj(t, user.NewUser{Name: "Teacher", Email: "teacher@test.cd", Password: "Kilimanjaro-42", Role: user.RoleAdmin}),
			extra: extraTest{role: user.RoleAdmin, emailSent: true},
		},
	}

	runTests(t, http.MethodPost, "/api/auth/register", tests, func(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
		extra, ok := tt.extra.(extraTest)
		if !ok {
			return
		}

		var body struct {
			Message string       `json:"message"`
			Token   string       `json:"token"`
			User    user.Summary `json:"user"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, extra.role, body.User.Role)
		assert.NotEmpty(t, body.User.ID)

		usr, err := repos.Users.GetUser(context.Background(), user.GetFilter{ID: body.User.ID})
		require.NoError(t, err)
		assert.Equal(t, body.User.Email, usr.Email)
		assert.NoError(t, usr.CheckPassword("Kilimanjaro-42"))

		if extra.role == user.RoleAdmin {
			assert.Equal(t, "Teacher account created successfully", body.Message)
			assert.Empty(t, body.Token)
		} else {
			assert.Equal(t, "amina@test.cd", body.User.Email)
			claims, err := tokens.Verify(context.Background(), body.Token)
			require.NoError(t, err)
			assert.Equal(t, body.User.ID, claims.UserID)
		}

		msgs := emailsvc.SentMessages()
		if extra.emailSent {
			require.Len(t, msgs, 1)
			assert.Equal(t, "teacher@test.cd", msgs[0].To[0].Address)
			assert.Contains(t, msgs[0].TextContent, "Teacher")
		} else {
			assert.Empty(t, msgs)
		}
	})
}

func Test_userApi_login(t *testing.T) {
	resetDB(t)

	student := testutil.CreateUser(t, repos.Users, "Hero", "hero@test.cd", "Kilimanjaro-42", user.RoleStudent, true)
	testutil.CreateUser(t, repos.Users, "N Dog", "ndog@test.cd", "Kilimanjaro-42", user.RoleStudent, false)

	credentials := func(email, pwd string) []byte {
		return marchallObj(t, user.Credentials{Email: email, Password: pwd})
	}
	badCredentials := marchallObj(t, httpErr{Message: "Invalid credentials"})

	tests := []httpTest{
		{
			name: "required fields", wantCode: http.StatusBadRequest, body: credentials("hero@test.cd", ""),
			wantData: marchallObj(t, httpErr{Message: "Email and password are required"}),
		},
		{name: "unknown email", wantCode: http.StatusUnauthorized, body: credentials("lol@test.cd", "Kilimanjaro-42"), wantData: badCredentials},
		{name: "wrong password", wantCode: http.StatusUnauthorized, body: credentials("hero@test.cd", "lol"), wantData: badCredentials},
		{
			name: "deactivated", wantCode: http.StatusForbidden, body: credentials("ndog@test.cd", "Kilimanjaro-42"),
			wantData: marchallObj(t, httpErr{Message: "Account is deactivated"}),
		},
		{name: "logged in", body: credentials(" HERO@test.cd ", "Kilimanjaro-42")},
	}

	runTests(t, http.MethodPost, "/api/auth/login", tests, func(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
		if rec.Code != http.StatusOK {
			return
		}
		var resp AuthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, student.Summary(), resp.User)

		claims, err := tokens.Verify(context.Background(), resp.Token)
		require.NoError(t, err)
		assert.Equal(t, student.ID, claims.UserID)
		assert.Equal(t, user.RoleStudent, claims.Role)

		usr, err := repos.Users.GetUser(context.Background(), user.GetFilter{ID: student.ID})
		require.NoError(t, err)
		assert.False(t, usr.LastLogin.IsZero(), "lastLogin not set")
	})
}

func Test_userApi_seedAdmin(t *testing.T) {
	resetDB(t)

	tests := []httpTest{
		{name: "created", wantCode: http.StatusCreated},
		{
			name: "already exists", wantCode: http.StatusConflict,
			wantData: marchallObj(t, httpErr{Message: "Default admin already exists"}),
		},
	}

	runTests(t, http.MethodPost, "/api/auth/seed-admin", tests, func(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
		if rec.Code != http.StatusCreated {
			return
		}
		var body struct {
			Message string       `json:"message"`
			Admin   user.Summary `json:"admin"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "Default admin created successfully", body.Message)
		assert.Equal(t, conf.Seed.Email, body.Admin.Email)
		assert.Equal(t, user.RoleAdmin, body.Admin.Role)
	})
}

func Test_userApi_list(t *testing.T) {
	resetDB(t)

	now := time.Now()
	admin := testutil.CreateUser(t, repos.Users, "Admin", "admin@test.cd", "", user.RoleAdmin, true, now)
	teacher := testutil.CreateUser(t, repos.Users, "Teacher", "teacher@test.cd", "", user.RoleAdmin, true, now.Add(time.Hour))
	student := testutil.CreateUser(t, repos.Users, "Hero", "hero@test.cd", "", user.RoleStudent, true, now.Add(2*time.Hour))
	naughty := testutil.CreateUser(t, repos.Users, "N Dog", "ndog@test.cd", "", user.RoleStudent, false, now.Add(3*time.Hour))

	adminToken := getToken(t, admin)

	tests := []httpTest{
		{name: "Auth required", path: "/api/users", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errNoToken)},
		{name: "Valid token required", path: "/api/users", token: "lol", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errInvalidToken)},
		{
			name: "Admin required", path: "/api/users", token: getToken(t, student),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{name: "students", path: "/api/users", token: adminToken, wantData: marchallList(t, naughty, student)},
		{name: "teachers", path: "/api/users/teachers", token: adminToken, wantData: marchallList(t, teacher, admin)},
	}
	runTests(t, http.MethodGet, "", tests)
}

func Test_userApi_setActive(t *testing.T) {
	resetDB(t)

	admin := testutil.CreateUser(t, repos.Users, "Admin", "admin@test.cd", "", user.RoleAdmin, true)
	student := testutil.CreateUser(t, repos.Users, "Hero", "hero@test.cd", "", user.RoleStudent, true)
	naughty := testutil.CreateUser(t, repos.Users, "N Dog", "ndog@test.cd", "", user.RoleStudent, false)

	adminToken := getToken(t, admin)
	studentToken := getToken(t, student)
	path := func(id string) string { return "/api/users/" + id }
	body := func(active bool) []byte { return marchallObj(t, map[string]bool{"isActive": active}) }

	tests := []httpTest{
		{name: "Admin required", path: path(student.ID), token: studentToken, body: body(false), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{
			name: "invalid id", path: path("lol"), token: adminToken, body: body(false),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Message: "Invalid User ID format"}),
		},
		{
			name: "unknown id", path: path("0b6d3bcb-7bbd-4a3e-9fa4-4bb2b1e0d001"), token: adminToken, body: body(false),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Message: "User not found"}),
		},
		{
			name: "isActive required", path: path(student.ID), token: adminToken, body: []byte("{}"),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Message: "isActive is required"}),
		},
		{
			name: "no self deactivation", path: path(admin.ID), token: adminToken, body: body(false),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Message: "You cannot deactivate your own account"}),
		},
		{name: "reactivated", path: path(naughty.ID), token: adminToken, body: body(true), extra: true},
		{name: "deactivated", path: path(student.ID), token: adminToken, body: body(false), extra: false},
	}

	runTests(t, http.MethodPatch, "", tests, func(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
		want, ok := tt.extra.(bool)
		if !ok {
			return
		}
		var usr user.User
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &usr))
		assert.Equal(t, want, usr.IsActive)
	})

	t.Run("deactivation revokes tokens", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/tasks", studentToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errInvalidToken)}, rec)
	})
}
