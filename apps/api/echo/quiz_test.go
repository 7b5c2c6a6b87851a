package echoapi

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/shule/core/quiz"
	"github.com/trezcool/shule/core/user"
	testutil "github.com/trezcool/shule/tests"
)

var now = time.Date(2021, 3, 1, 10, 0, 0, 0, time.UTC)

func newQuizBody(t *testing.T, s testutil.School, start time.Time, questions int) []byte {
	nq := quiz.NewQuiz{
		Title:      "Algebra",
		ClassID:    s.Class.ID,
		CourseID:   s.Course.ID,
		StartTime:  start,
		EndTime:    start.Add(30 * time.Minute),
		TotalMarks: 10,
	}
	for i := 0; i < questions; i++ {
		nq.Questions = append(nq.Questions, quiz.NewQuestion{
			Question:      "What is 1+1?",
			OptionA:       "1",
			OptionB:       "2",
			OptionC:       "3",
			OptionD:       "4",
			CorrectOption: "2",
		})
	}
	return marchallObj(t, nq)
}

func Test_teacherApi_quiz(t *testing.T) {
	setNow(t, now)
	app := setup(t)
	s := testutil.CreateSchool(t, app.Env, "Amani", "Baraka")
	other := testutil.CreateClass(t, app.Env, "Form 2")
	token := app.personToken(t, user.RoleTeacher, s.Teacher)
	tom := testutil.CreateTeacher(t, app.Env, "Tom Teacher", "tom@school.test")
	tomToken := app.personToken(t, user.RoleTeacher, tom)

	notAssigned := s
	notAssigned.Class = other

	tests := []httpTest{
		{
			name:     "invalid payload",
			method:   http.MethodPost,
			path:     "/teacher/quiz",
			body:     []byte(`{"title":"","classId":0,"totalMarks":0}`),
			token:    token,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "not assigned",
			method:   http.MethodPost,
			path:     "/teacher/quiz",
			body:     newQuizBody(t, notAssigned, now.Add(time.Hour), 2),
			token:    token,
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: quiz.ErrNotAssigned.Error()}),
		},
		{
			name:     "start in the past",
			method:   http.MethodPost,
			path:     "/teacher/quiz",
			body:     newQuizBody(t, s, now.Add(-time.Minute), 2),
			token:    token,
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: quiz.ErrStartInPast.Error()}),
		},
		{
			name:     "no questions",
			method:   http.MethodPost,
			path:     "/teacher/quiz",
			body:     newQuizBody(t, s, now.Add(time.Hour), 0),
			token:    token,
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: quiz.ErrNoQuestions.Error()}),
		},
		{
			name:     "unknown quiz",
			method:   http.MethodGet,
			path:     "/teacher/quiz/not-a-quiz",
			token:    token,
			wantCode: http.StatusNotFound,
		},
	}
	runHTTPTests(t, app, tests)

	rec := app.do(newAuthRequest(http.MethodPost, "/teacher/quiz", token, newQuizBody(t, s, now.Add(time.Hour), 2)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created quiz.QuizView
	unmarchallObj(t, rec, &created)
	assert.Equal(t, quiz.StatusUpcoming, created.Status)
	assert.Equal(t, "Form 1", created.ClassName)
	assert.Equal(t, "Mathematics", created.CourseName)
	assert.Equal(t, 5, created.MarksPerQuestion)
	require.Len(t, created.Questions, 2)
	assert.Equal(t, 5, created.Questions[0].Marks)
	assert.Len(t, app.Mailer.Sent(), 2)

	t.Run("query", func(t *testing.T) {
		rec := app.do(newAuthRequest(http.MethodGet, "/teacher/quizzes?courseId="+itoa(s.Course.ID), token))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var page struct {
			Data  []quiz.QuizView `json:"data"`
			Total int             `json:"total"`
		}
		unmarchallObj(t, rec, &page)
		assert.Equal(t, 1, page.Total)
		require.Len(t, page.Data, 1)
		assert.Equal(t, created.ID, page.Data[0].ID)

		rec = app.do(newAuthRequest(http.MethodGet, "/teacher/quizzes", tomToken))
		unmarchallObj(t, rec, &page)
		assert.Equal(t, 0, page.Total)
	})

	t.Run("retrieve", func(t *testing.T) {
		rec := app.do(newAuthRequest(http.MethodGet, "/teacher/quiz/"+created.ID, token))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var v quiz.QuizView
		unmarchallObj(t, rec, &v)
		assert.Len(t, v.Questions, 2)
		assert.Equal(t, "2", v.Questions[0].CorrectOption)

		// other teachers cannot see it
		rec = app.do(newAuthRequest(http.MethodGet, "/teacher/quiz/"+created.ID, tomToken))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		rec = app.do(newAuthRequest(http.MethodGet, "/teacher/quiz/"+created.ID+"/details", tomToken))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("assignments", func(t *testing.T) {
		rec := app.do(newAuthRequest(http.MethodGet, "/teacher/assignments", token))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var page struct {
			Data []struct {
				ID            int    `json:"id"`
				ClassName     string `json:"className"`
				TotalStudents int    `json:"totalStudents"`
			} `json:"data"`
		}
		unmarchallObj(t, rec, &page)
		require.Len(t, page.Data, 1)
		assert.Equal(t, "Form 1", page.Data[0].ClassName)
		assert.Equal(t, 2, page.Data[0].TotalStudents)

		rec = app.do(newAuthRequest(http.MethodGet, "/teacher/assignments/"+itoa(page.Data[0].ID), token))
		assert.Equal(t, http.StatusOK, rec.Code)
		rec = app.do(newAuthRequest(http.MethodGet, "/teacher/assignments/"+itoa(page.Data[0].ID), tomToken))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("submissions & leaderboard", func(t *testing.T) {
		amaniToken := app.personToken(t, user.RoleStudent, s.Students[0])
		barakaToken := app.personToken(t, user.RoleStudent, s.Students[1])
		answers := func(opts ...string) []byte {
			var sub quiz.Submission
			for i, opt := range opts {
				sub.Answers = append(sub.Answers, quiz.Answer{QuestionID: created.Questions[i].ID, Option: opt})
			}
			return marchallObj(t, sub)
		}
		submitPath := "/student/quiz/" + created.ID + "/submit"

		// upcoming: no questions, no submissions
		rec := app.do(newAuthRequest(http.MethodGet, "/student/quiz/"+created.ID, amaniToken))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var sv quiz.StudentQuizView
		unmarchallObj(t, rec, &sv)
		assert.Equal(t, quiz.StatusUpcoming, sv.Status)
		assert.Empty(t, sv.Questions)
		rec = app.do(newAuthRequest(http.MethodPost, submitPath, amaniToken, answers("2", "2")))
		assert.Equal(t, http.StatusForbidden, rec.Code)

		setNow(t, now.Add(time.Hour+time.Minute))

		rec = app.do(newAuthRequest(http.MethodGet, "/student/quiz/"+created.ID, amaniToken))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.NotContains(t, rec.Body.String(), "correctOption")
		unmarchallObj(t, rec, &sv)
		assert.Equal(t, quiz.StatusActive, sv.Status)
		assert.Len(t, sv.Questions, 2)

		rec = app.do(newAuthRequest(http.MethodPost, submitPath, amaniToken, answers("2", "1")))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		rec = app.do(newAuthRequest(http.MethodPost, submitPath, amaniToken, answers("2", "2")))
		assert.Equal(t, http.StatusConflict, rec.Code)
		rec = app.do(newAuthRequest(http.MethodPost, submitPath, barakaToken, answers("2", "2")))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		rec = app.do(newAuthRequest(http.MethodPost, submitPath, barakaToken, []byte(`{"answers":[{"questionId":"x","option":"7"}]}`)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = app.do(newAuthRequest(http.MethodGet, "/teacher/quiz/"+created.ID+"/details", token))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var details quiz.QuizDetails
		unmarchallObj(t, rec, &details)
		assert.Equal(t, 2, details.TotalSubmissions)
		assert.Equal(t, 8, details.AverageMarks)
		require.Len(t, details.Leaderboard, 2)
		assert.Equal(t, quiz.LeaderboardEntry{
			StudentID:     s.Students[1].ID,
			StudentName:   "Baraka",
			StudentEmail:  s.Students[1].Email,
			ObtainedMarks: 10,
			TotalMarks:    10,
			Percentage:    100,
			Rank:          1,
		}, details.Leaderboard[0])
		assert.Equal(t, 2, details.Leaderboard[1].Rank)
		assert.Equal(t, 50, details.Leaderboard[1].Percentage)

		rec = app.do(newAuthRequest(http.MethodGet, "/student/quizzes", amaniToken))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var views []quiz.StudentQuizView
		unmarchallObj(t, rec, &views)
		require.Len(t, views, 1)
		assert.True(t, views[0].Submitted)
		require.NotNil(t, views[0].ObtainedMarks)
		assert.Equal(t, 5, *views[0].ObtainedMarks)
	})
}

func Test_studentApi_enrollments(t *testing.T) {
	app := setup(t)
	s := testutil.CreateSchool(t, app.Env, "Amani")
	loner := testutil.CreateStudent(t, app.Env, "Loner", "loner@school.test")

	tests := []httpTest{
		{
			name:     "enrolled",
			method:   http.MethodGet,
			path:     "/student/enrollments",
			token:    app.personToken(t, user.RoleStudent, s.Students[0]),
			wantCode: http.StatusOK,
			wantData: marchallObj(t, map[string]interface{}{"class": s.Class, "courses": []interface{}{s.Course}}),
		},
		{
			name:     "without class",
			method:   http.MethodGet,
			path:     "/student/enrollments",
			token:    app.personToken(t, user.RoleStudent, loner),
			wantCode: http.StatusOK,
			wantData: []byte(`{"class":null,"courses":[]}`),
		},
		{
			name:     "no quizzes",
			method:   http.MethodGet,
			path:     "/student/quizzes",
			token:    app.personToken(t, user.RoleStudent, loner),
			wantCode: http.StatusOK,
			wantData: []byte(`[]`),
		},
		{
			name:     "quiz of another class",
			method:   http.MethodGet,
			path:     "/student/quiz/3d2a4c1e-3b8e-4a0c-9d55-2b1f6c7a8e90",
			token:    app.personToken(t, user.RoleStudent, loner),
			wantCode: http.StatusNotFound,
		},
	}
	runHTTPTests(t, app, tests)
}
