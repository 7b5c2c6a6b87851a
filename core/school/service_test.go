package school_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/enrollment"
	"github.com/trezcool/shule/core/school"
	testutil "github.com/trezcool/shule/tests"
)

func TestService_CreateClass(t *testing.T) {
	env := testutil.NewEnv()
	ctx := context.Background()
	testutil.CreateClass(t, env, "Form 1")

	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"same name", "Form 1", school.ErrClassExists},
		{"other case", "FORM 1", school.ErrClassExists},
		{"padded", "  form 1 ", school.ErrClassExists},
		{"new name", "Form 2", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.SchoolSvc.CreateClass(ctx, school.NameData{Name: tt.input})
			assert.Equal(t, tt.wantErr, err)
		})
	}

	// a course may share a class name
	_, err := env.SchoolSvc.CreateCourse(ctx, school.NameData{Name: "Form 1"})
	assert.NoError(t, err)
}

func TestService_UpdateCourse(t *testing.T) {
	env := testutil.NewEnv()
	ctx := context.Background()
	bio := testutil.CreateCourse(t, env, "Biology")
	testutil.CreateCourse(t, env, "Chemistry")

	tests := []struct {
		name    string
		id      int
		input   string
		wantErr error
	}{
		{"own name", bio.ID, "Biology", nil},
		{"own name other case", bio.ID, "BIOLOGY", nil},
		{"taken", bio.ID, "chemistry", school.ErrCourseExists},
		{"unknown", bio.ID + 100, "Physics", school.ErrCourseNotFound},
		{"renamed", bio.ID, "Life Sciences", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := env.SchoolSvc.UpdateCourse(ctx, tt.id, school.NameData{Name: tt.input})
			assert.Equal(t, tt.wantErr, err)
			if tt.wantErr == nil {
				assert.Equal(t, tt.input, c.Name)
			}
		})
	}
}

func TestService_QueryClasses(t *testing.T) {
	env := testutil.NewEnv()
	ctx := context.Background()
	for _, name := range []string{"Form 3", "Form 1", "Grade 1", "Form 2"} {
		testutil.CreateClass(t, env, name)
	}

	tests := []struct {
		name      string
		q         core.PageQuery
		wantNames []string
		wantTotal int
	}{
		{"defaults", core.PageQuery{}, []string{"Form 1", "Form 2", "Form 3", "Grade 1"}, 4},
		{"paginated", core.PageQuery{Page: 2, Limit: 3}, []string{"Grade 1"}, 4},
		{"search", core.PageQuery{Search: "form"}, []string{"Form 1", "Form 2", "Form 3"}, 3},
		{"descending", core.PageQuery{Orderings: []core.DBOrdering{{Field: "name"}}}, []string{"Grade 1", "Form 3", "Form 2", "Form 1"}, 4},
		{"past the end", core.PageQuery{Page: 5}, []string{}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := env.SchoolSvc.QueryClasses(ctx, tt.q)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, page.Total)
			names := make([]string, 0)
			for _, c := range page.Data.([]school.Class) {
				names = append(names, c.Name)
			}
			assert.Equal(t, tt.wantNames, names)
		})
	}
}

func TestService_DeleteClass(t *testing.T) {
	env := testutil.NewEnv()
	ctx := context.Background()
	s := testutil.CreateSchool(t, env, "Amani")

	require.NoError(t, env.SchoolSvc.DeleteClass(ctx, s.Class.ID))
	assert.Equal(t, school.ErrClassNotFound, env.SchoolSvc.DeleteClass(ctx, s.Class.ID))

	se, err := env.EnrollmentSvc.StudentEnrollment(ctx, s.Students[0].ID)
	require.NoError(t, err)
	assert.Nil(t, se.Class)
	assert.Empty(t, se.Courses)

	links, err := env.EnrollmentSvc.QueryLinks(ctx, enrollment.ClassCourseTeacher, enrollment.LinkData{TeacherID: s.Teacher.ID})
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestNameData_Validate(t *testing.T) {
	validate, _ := testutil.NewValidator()
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", "  Form 1 ", false},
		{"empty", "", true},
		{"blank", "   ", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nd := school.NameData{Name: tt.input}
			err := nd.Validate(validate)
			assert.Equal(t, tt.wantErr, err != nil)
			if !tt.wantErr {
				assert.Equal(t, "Form 1", nd.Name)
			}
		})
	}
}
