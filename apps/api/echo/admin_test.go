package echoapi

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/enrollment"
	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
	testutil "github.com/trezcool/shule/tests"
)

func Test_adminApi_classes(t *testing.T) {
	app := setup(t)
	token := app.adminToken(t)
	form1 := testutil.CreateClass(t, app.Env, "Form 1")
	form2 := testutil.CreateClass(t, app.Env, "Form 2")
	math := testutil.CreateCourse(t, app.Env, "Mathematics")
	testutil.Assign(t, app.Env, enrollment.ClassCourse, classCourse(form1.ID, math.ID))

	q := core.PageQuery{Page: 1, Limit: core.DefaultPageSize}
	tests := []httpTest{
		{
			name:     "query",
			method:   http.MethodGet,
			path:     "/admin/classes",
			token:    token,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, core.NewPage([]school.Class{form1, form2}, 2, q)),
		},
		{
			name:     "query descending",
			method:   http.MethodGet,
			path:     "/admin/classes?ordering=-name&limit=1",
			token:    token,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, core.NewPage([]school.Class{form2}, 2, core.PageQuery{Page: 1, Limit: 1})),
		},
		{
			name:     "retrieve",
			method:   http.MethodGet,
			path:     "/admin/classes/" + itoa(form1.ID),
			token:    token,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, form1),
		},
		{
			name:     "retrieve unknown",
			method:   http.MethodGet,
			path:     "/admin/classes/999",
			token:    token,
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: school.ErrClassNotFound.Error()}),
		},
		{
			name:     "retrieve bad id",
			method:   http.MethodGet,
			path:     "/admin/classes/abc",
			token:    token,
			wantCode: http.StatusNotFound,
		},
		{
			name:     "courses of class",
			method:   http.MethodGet,
			path:     "/admin/classes/" + itoa(form1.ID) + "/courses",
			token:    token,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, []school.Course{math}),
		},
		{
			name:     "create blank",
			method:   http.MethodPost,
			path:     "/admin/classes",
			body:     []byte(`{"name":"   "}`),
			token:    token,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "create duplicate",
			method:   http.MethodPost,
			path:     "/admin/classes",
			body:     []byte(`{"name":"form 1"}`),
			token:    token,
			wantCode: http.StatusConflict,
			wantData: marchallObj(t, httpErr{Error: school.ErrClassExists.Error()}),
		},
		{
			name:     "rename to taken name",
			method:   http.MethodPut,
			path:     "/admin/classes/" + itoa(form2.ID),
			body:     []byte(`{"name":"FORM 1"}`),
			token:    token,
			wantCode: http.StatusConflict,
		},
		{
			name:     "delete unknown",
			method:   http.MethodDelete,
			path:     "/admin/classes/999",
			token:    token,
			wantCode: http.StatusNotFound,
		},
	}
	runHTTPTests(t, app, tests)

	t.Run("create, rename & delete", func(t *testing.T) {
		rec := app.do(newAuthRequest(http.MethodPost, "/admin/classes", token, []byte(`{"name":"  Form 3 "}`)))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var created school.Class
		unmarchallObj(t, rec, &created)
		assert.Equal(t, "Form 3", created.Name)

		rec = app.do(newAuthRequest(http.MethodPut, "/admin/classes/"+itoa(created.ID), token, []byte(`{"name":"Form Three"}`)))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var updated school.Class
		unmarchallObj(t, rec, &updated)
		assert.Equal(t, created.ID, updated.ID)
		assert.Equal(t, "Form Three", updated.Name)

		rec = app.do(newAuthRequest(http.MethodDelete, "/admin/classes/"+itoa(created.ID), token))
		assert.Equal(t, http.StatusNoContent, rec.Code)
		_, err := app.SchoolSvc.GetClass(context.Background(), created.ID)
		assert.Equal(t, school.ErrClassNotFound, err)
	})
}

func Test_adminApi_courses(t *testing.T) {
	app := setup(t)
	token := app.adminToken(t)
	bio := testutil.CreateCourse(t, app.Env, "Biology")
	chem := testutil.CreateCourse(t, app.Env, "Chemistry")

	tests := []httpTest{
		{
			name:     "search",
			method:   http.MethodGet,
			path:     "/admin/courses?search=chem",
			token:    token,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, core.NewPage([]school.Course{chem}, 1, core.PageQuery{Page: 1, Limit: core.DefaultPageSize})),
		},
		{
			name:     "retrieve",
			method:   http.MethodGet,
			path:     "/admin/courses/" + itoa(bio.ID),
			token:    token,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, bio),
		},
		{
			name:     "create duplicate",
			method:   http.MethodPost,
			path:     "/admin/courses",
			body:     []byte(`{"name":" biology"}`),
			token:    token,
			wantCode: http.StatusConflict,
			wantData: marchallObj(t, httpErr{Error: school.ErrCourseExists.Error()}),
		},
		{
			name:     "delete",
			method:   http.MethodDelete,
			path:     "/admin/courses/" + itoa(chem.ID),
			token:    token,
			wantCode: http.StatusNoContent,
		},
		{
			name:     "retrieve deleted",
			method:   http.MethodGet,
			path:     "/admin/courses/" + itoa(chem.ID),
			token:    token,
			wantCode: http.StatusNotFound,
		},
	}
	runHTTPTests(t, app, tests)
}

func Test_peopleApi(t *testing.T) {
	app := setup(t)
	token := app.adminToken(t)
	teacher := testutil.CreateTeacher(t, app.Env, "Jane Teacher", "jane@school.test")
	amani := testutil.CreateStudent(t, app.Env, "Amani", "amani@school.test")
	baraka := testutil.CreateStudent(t, app.Env, "Baraka", "baraka@school.test")

	q := core.PageQuery{Page: 1, Limit: core.DefaultPageSize}
	tests := []httpTest{
		{
			name:     "query students",
			method:   http.MethodGet,
			path:     "/admin/students",
			token:    token,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, core.NewPage([]user.Person{amani, baraka}, 2, q)),
		},
		{
			name:     "search students",
			method:   http.MethodGet,
			path:     "/admin/students?search=BARAKA@",
			token:    token,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, core.NewPage([]user.Person{baraka}, 1, q)),
		},
		{
			name:     "query teachers",
			method:   http.MethodGet,
			path:     "/admin/teachers",
			token:    token,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, core.NewPage([]user.Person{teacher}, 1, q)),
		},
		{
			name:     "retrieve teacher",
			method:   http.MethodGet,
			path:     "/admin/teachers/" + teacher.ID,
			token:    token,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, teacher),
		},
		{
			name:     "teacher is not a student",
			method:   http.MethodGet,
			path:     "/admin/students/" + teacher.ID,
			token:    token,
			wantCode: http.StatusNotFound,
		},
		{
			name:     "malformed id",
			method:   http.MethodGet,
			path:     "/admin/students/not-a-uuid",
			token:    token,
			wantCode: http.StatusNotFound,
		},
		{
			name:     "create invalid",
			method:   http.MethodPost,
			path:     "/admin/teachers",
			body:     []byte(`{"name":"Tom","email":"not-an-email"}`),
			token:    token,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "create teacher with a student email",
			method:   http.MethodPost,
			path:     "/admin/teachers",
			body:     []byte(`{"name":"Amani","email":"AMANI@school.test"}`),
			token:    token,
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: user.ErrStudentAccount.Error()}),
		},
		{
			name:     "create duplicate student",
			method:   http.MethodPost,
			path:     "/admin/students",
			body:     []byte(`{"name":"Amani Two","email":"amani@school.test"}`),
			token:    token,
			wantCode: http.StatusConflict,
		},
		{
			name:     "delete student",
			method:   http.MethodDelete,
			path:     "/admin/students/" + baraka.ID,
			token:    token,
			wantCode: http.StatusNoContent,
		},
		{
			name:     "delete deleted student",
			method:   http.MethodDelete,
			path:     "/admin/students/" + baraka.ID,
			token:    token,
			wantCode: http.StatusNotFound,
		},
	}
	runHTTPTests(t, app, tests)

	t.Run("create", func(t *testing.T) {
		rec := app.do(newAuthRequest(http.MethodPost, "/admin/students", token, []byte(`{"name":" Chausiku ","email":"Chausiku@School.test"}`)))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var created user.Person
		unmarchallObj(t, rec, &created)
		assert.Equal(t, "Chausiku", created.Name)
		assert.Equal(t, "chausiku@school.test", created.Email)
	})
}

func Test_adminApi_studentClass(t *testing.T) {
	app := setup(t)
	token := app.adminToken(t)
	s := testutil.CreateSchool(t, app.Env)
	form2 := testutil.CreateClass(t, app.Env, "Form 2")
	bio := testutil.CreateCourse(t, app.Env, "Biology")
	chem := testutil.CreateCourse(t, app.Env, "Chemistry")
	testutil.Assign(t, app.Env, enrollment.ClassCourse, classCourse(form2.ID, bio.ID))
	testutil.Assign(t, app.Env, enrollment.ClassCourse, classCourse(form2.ID, chem.ID))
	student := testutil.CreateStudent(t, app.Env, "Amani", "amani@school.test")
	path := "/admin/students/" + student.ID + "/class"

	tests := []httpTest{
		{
			name:     "missing class",
			method:   http.MethodPut,
			path:     path,
			body:     []byte(`{}`),
			token:    token,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "unknown class",
			method:   http.MethodPut,
			path:     path,
			body:     []byte(`{"classId":999}`),
			token:    token,
			wantCode: http.StatusNotFound,
		},
		{
			name:     "unknown student",
			method:   http.MethodPut,
			path:     "/admin/students/not-a-uuid/class",
			body:     []byte(`{"classId":` + itoa(form2.ID) + `}`),
			token:    token,
			wantCode: http.StatusNotFound,
		},
		{
			name:     "assign",
			method:   http.MethodPut,
			path:     path,
			body:     []byte(`{"classId":` + itoa(s.Class.ID) + `}`),
			token:    token,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, StudentClassResponse{ClassID: s.Class.ID, CoursesEnrolled: 1}),
		},
		{
			name:     "move",
			method:   http.MethodPut,
			path:     path,
			body:     []byte(`{"classId":` + itoa(form2.ID) + `}`),
			token:    token,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, StudentClassResponse{ClassID: form2.ID, CoursesEnrolled: 2}),
		},
	}
	runHTTPTests(t, app, tests)

	ctx := context.Background()
	se, err := app.EnrollmentSvc.StudentEnrollment(ctx, student.ID)
	require.NoError(t, err)
	require.NotNil(t, se.Class)
	assert.Equal(t, form2.ID, se.Class.ID)
	assert.Equal(t, []school.Course{bio, chem}, se.Courses)

	rec := app.do(newAuthRequest(http.MethodDelete, path, token))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	se, err = app.EnrollmentSvc.StudentEnrollment(ctx, student.ID)
	require.NoError(t, err)
	assert.Nil(t, se.Class)
	assert.Empty(t, se.Courses)
}
