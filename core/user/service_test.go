package user_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/user"
	testutil "github.com/trezcool/shule/tests"
)

const adminPwd = "Sup3r!Secret"

func TestService_Authenticate(t *testing.T) {
	env := testutil.NewEnv()
	ctx := context.Background()
	admin := testutil.CreateAdmin(t, env, "admin1", adminPwd)
	assert.False(t, admin.LastLogin.Valid)

	tests := []struct {
		name     string
		username string
		pwd      string
		wantErr  error
	}{
		{"valid", "admin1", adminPwd, nil},
		{"username is cleaned", "  ADMIN1 ", adminPwd, nil},
		{"wrong password", "admin1", "Wr0ng!Secret", user.ErrInvalidCredentials},
		{"unknown username", "admin2", adminPwd, user.ErrInvalidCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := env.UserSvc.Authenticate(ctx, tt.username, tt.pwd)
			assert.Equal(t, tt.wantErr, err)
			if tt.wantErr == nil {
				assert.Equal(t, admin.ID, got.ID)
				assert.True(t, got.LastLogin.Valid)
			}
		})
	}
}

func TestService_SaveAdmin(t *testing.T) {
	env := testutil.NewEnv()
	ctx := context.Background()
	admin := testutil.CreateAdmin(t, env, "admin1", adminPwd)

	newPwd := "An0ther!Secret"
	saved, created, err := env.UserSvc.SaveAdmin(ctx, user.NewAdmin{Username: "admin1", Password: newPwd, PasswordConfirm: newPwd})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, admin.ID, saved.ID)

	_, err = env.UserSvc.Authenticate(ctx, "admin1", adminPwd)
	assert.Equal(t, user.ErrInvalidCredentials, err)
	_, err = env.UserSvc.Authenticate(ctx, "admin1", newPwd)
	assert.NoError(t, err)

	require.NoError(t, env.UserSvc.ResetAdminPassword(ctx, "Admin1", adminPwd))
	_, err = env.UserSvc.Authenticate(ctx, "admin1", adminPwd)
	assert.NoError(t, err)

	assert.Equal(t, user.ErrAdminNotFound, env.UserSvc.ResetAdminPassword(ctx, "nobody", adminPwd))
}

func TestService_LoginOrSignup(t *testing.T) {
	env := testutil.NewEnv()
	ctx := context.Background()

	prof := user.Profile{AuthID: "g-1", Email: " Jane@School.test ", Name: "Jane", Picture: "https://img.test/1.png"}
	teacher, err := env.UserSvc.LoginOrSignup(ctx, user.RoleTeacher, prof)
	require.NoError(t, err)
	assert.Equal(t, "jane@school.test", teacher.Email)
	assert.Equal(t, "Jane", teacher.Name)
	assert.Equal(t, "g-1", teacher.AuthID.String)
	assert.Equal(t, user.AuthProviderGoogle, teacher.AuthProvider)
	assert.Equal(t, prof.Picture, teacher.ProfilePicture.String)

	// signing in again finds the account and keeps the picture up to date
	prof.Picture = "https://img.test/2.png"
	again, err := env.UserSvc.LoginOrSignup(ctx, user.RoleTeacher, prof)
	require.NoError(t, err)
	assert.Equal(t, teacher.ID, again.ID)
	assert.Equal(t, prof.Picture, again.ProfilePicture.String)

	student, err := env.UserSvc.LoginOrSignup(ctx, user.RoleStudent, user.Profile{Email: "amani@school.test"})
	require.NoError(t, err)
	assert.Equal(t, "amani@school.test", student.Name)
	assert.False(t, student.ProfilePicture.Valid)

	tests := []struct {
		name    string
		role    user.Role
		email   string
		wantErr error
	}{
		{"teacher as student", user.RoleStudent, "jane@school.test", user.ErrTeacherAccount},
		{"student as teacher", user.RoleTeacher, "AMANI@school.test", user.ErrStudentAccount},
		{"admin", user.RoleAdmin, "root@school.test", user.ErrInvalidRole},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.UserSvc.LoginOrSignup(ctx, tt.role, user.Profile{Email: tt.email})
			assert.Equal(t, tt.wantErr, err)
			assert.True(t, core.IsForbidden(err))
		})
	}

	t.Run("no email", func(t *testing.T) {
		_, err := env.UserSvc.LoginOrSignup(ctx, user.RoleStudent, user.Profile{Name: "Ghost"})
		var verr *core.ValidationError
		assert.True(t, errors.As(err, &verr))
	})

	// the rejected sign-ins created nothing
	page, err := env.UserSvc.QueryPeople(ctx, user.RoleStudent, core.PageQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
}

func TestService_CreatePerson(t *testing.T) {
	env := testutil.NewEnv()
	ctx := context.Background()
	teacher := testutil.CreateTeacher(t, env, "Jane", "jane@school.test")

	tests := []struct {
		name    string
		role    user.Role
		np      user.NewPerson
		wantErr error
	}{
		{"duplicate email", user.RoleTeacher, user.NewPerson{Name: "Jane 2", Email: "jane@school.test"}, user.ErrEmailExists},
		{"teacher email as student", user.RoleStudent, user.NewPerson{Name: "Jane", Email: "jane@school.test"}, user.ErrTeacherAccount},
		{"admin", user.RoleAdmin, user.NewPerson{Name: "Root", Email: "root@school.test"}, user.ErrInvalidRole},
		{"new student", user.RoleStudent, user.NewPerson{Name: "Amani", Email: "amani@school.test"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.UserSvc.CreatePerson(ctx, tt.role, tt.np)
			assert.Equal(t, tt.wantErr, err)
		})
	}

	got, err := env.UserSvc.GetPerson(ctx, user.RoleTeacher, teacher.ID)
	require.NoError(t, err)
	assert.Equal(t, teacher, got)

	_, err = env.UserSvc.GetPerson(ctx, user.RoleStudent, teacher.ID)
	assert.Equal(t, user.ErrNotFound, err)
	_, err = env.UserSvc.GetPerson(ctx, user.RoleTeacher, "not-a-uuid")
	assert.Equal(t, user.ErrNotFound, err)
}

func TestService_QueryPeople(t *testing.T) {
	env := testutil.NewEnv()
	ctx := context.Background()
	testutil.CreateStudent(t, env, "Chausiku", "c@school.test")
	testutil.CreateStudent(t, env, "Amani", "a@school.test")
	testutil.CreateStudent(t, env, "Baraka", "b@other.test")

	tests := []struct {
		name      string
		q         core.PageQuery
		wantNames []string
	}{
		{"by name", core.PageQuery{}, []string{"Amani", "Baraka", "Chausiku"}},
		{"search email", core.PageQuery{Search: "school.test"}, []string{"Amani", "Chausiku"}},
		{"search name", core.PageQuery{Search: "BAR"}, []string{"Baraka"}},
		{"by email desc", core.PageQuery{Orderings: []core.DBOrdering{{Field: "email"}}}, []string{"Chausiku", "Baraka", "Amani"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := env.UserSvc.QueryPeople(ctx, user.RoleStudent, tt.q)
			require.NoError(t, err)
			names := make([]string, 0)
			for _, p := range page.Data.([]user.Person) {
				names = append(names, p.Name)
			}
			assert.Equal(t, tt.wantNames, names)
			assert.Equal(t, len(tt.wantNames), page.Total)
		})
	}
}

func TestService_DeletePerson(t *testing.T) {
	env := testutil.NewEnv()
	ctx := context.Background()
	s := testutil.CreateSchool(t, env, "Amani")

	require.NoError(t, env.UserSvc.DeletePerson(ctx, user.RoleTeacher, s.Teacher.ID))
	assert.Equal(t, user.ErrNotFound, env.UserSvc.DeletePerson(ctx, user.RoleTeacher, s.Teacher.ID))
	assert.Equal(t, user.ErrNotFound, env.UserSvc.DeletePerson(ctx, user.RoleStudent, uuid.NewString()))

	teaching, err := env.EnrollmentSvc.IsTeaching(ctx, s.Teacher.ID, s.Class.ID, s.Course.ID)
	require.NoError(t, err)
	assert.False(t, teaching)
}
