// Package testutil wires the services on the in-memory database and creates fixtures.
package testutil

import (
	"context"
	"io"
	"log"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/enrollment"
	"github.com/trezcool/shule/core/quiz"
	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
	emailsvc "github.com/trezcool/shule/services/email"
	logsvc "github.com/trezcool/shule/services/logger"
	inmemdb "github.com/trezcool/shule/storage/database/inmem"
)

// Env holds the services of one test, backed by a fresh in-memory database.
type Env struct {
	Conf   *core.Config
	Logger core.Logger
	Mailer *emailsvc.ConsoleServiceMock
	DB     *inmemdb.DB

	UserRepo       user.Repository
	SchoolRepo     school.Repository
	EnrollmentRepo enrollment.Repository
	QuizRepo       quiz.Repository

	UserSvc       *user.Service
	SchoolSvc     *school.Service
	EnrollmentSvc *enrollment.Service
	QuizSvc       *quiz.Service
}

// NewLogger returns a logger that reports nowhere.
func NewLogger(conf *core.Config) core.Logger {
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
	logger.Enable(false)
	return logger
}

// NewValidator returns a validator with every custom rule and its english translations.
func NewValidator() (*validator.Validate, ut.Translator) {
	enLocale := en.New()
	translator, _ := ut.New(enLocale, enLocale).GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	return validate, translator
}

func NewEnv() *Env {
	conf := core.NewTestConfig()
	logger := NewLogger(conf)
	db := inmemdb.NewDB()

	env := &Env{
		Conf:           conf,
		Logger:         logger,
		Mailer:         emailsvc.NewConsoleServiceMock(conf, logger),
		DB:             db,
		UserRepo:       inmemdb.NewUserRepository(db),
		SchoolRepo:     inmemdb.NewSchoolRepository(db),
		EnrollmentRepo: inmemdb.NewEnrollmentRepository(db),
		QuizRepo:       inmemdb.NewQuizRepository(db),
	}
	env.UserSvc = user.NewService(env.UserRepo, db)
	env.SchoolSvc = school.NewService(env.SchoolRepo, db)
	env.EnrollmentSvc = enrollment.NewService(env.EnrollmentRepo, env.SchoolRepo, env.UserRepo, db)
	env.QuizSvc = quiz.NewService(env.QuizRepo, env.EnrollmentSvc, env.SchoolRepo, env.UserRepo, env.Mailer, db, logger)
	return env
}

func CreateAdmin(t *testing.T, env *Env, username, pwd string) user.Admin {
	admin, _, err := env.UserSvc.SaveAdmin(context.Background(), user.NewAdmin{
		Username:        username,
		Password:        pwd,
		PasswordConfirm: pwd,
	})
	if err != nil {
		t.Fatalf("CreateAdmin() failed: %v", err)
	}
	return admin
}

func createPerson(t *testing.T, env *Env, role user.Role, name, email string) user.Person {
	p, err := env.UserSvc.CreatePerson(context.Background(), role, user.NewPerson{Name: name, Email: email})
	if err != nil {
		t.Fatalf("create %s failed: %v", role, err)
	}
	return p
}

func CreateTeacher(t *testing.T, env *Env, name, email string) user.Person {
	return createPerson(t, env, user.RoleTeacher, name, email)
}

func CreateStudent(t *testing.T, env *Env, name, email string) user.Person {
	return createPerson(t, env, user.RoleStudent, name, email)
}

func CreateClass(t *testing.T, env *Env, name string) school.Class {
	c, err := env.SchoolSvc.CreateClass(context.Background(), school.NameData{Name: name})
	if err != nil {
		t.Fatalf("CreateClass() failed: %v", err)
	}
	return c
}

func CreateCourse(t *testing.T, env *Env, name string) school.Course {
	c, err := env.SchoolSvc.CreateCourse(context.Background(), school.NameData{Name: name})
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	return c
}

func Assign(t *testing.T, env *Env, rel enrollment.Relation, ld enrollment.LinkData) enrollment.Link {
	l, err := env.EnrollmentSvc.Assign(context.Background(), rel, ld)
	if err != nil {
		t.Fatalf("Assign(%s) failed: %v", rel, err)
	}
	return l
}

// School is a class with one course, a teacher assigned to it and enrolled students.
type School struct {
	Class    school.Class
	Course   school.Course
	Teacher  user.Person
	Students []user.Person
}

// CreateSchool builds a School with the given students, all enrolled through their class.
func CreateSchool(t *testing.T, env *Env, studentNames ...string) School {
	s := School{
		Class:   CreateClass(t, env, "Form 1"),
		Course:  CreateCourse(t, env, "Mathematics"),
		Teacher: CreateTeacher(t, env, "Jane Teacher", "jane@school.test"),
	}
	Assign(t, env, enrollment.ClassCourse, enrollment.LinkData{ClassID: s.Class.ID, CourseID: s.Course.ID})
	Assign(t, env, enrollment.ClassCourseTeacher, enrollment.LinkData{
		ClassID: s.Class.ID, CourseID: s.Course.ID, TeacherID: s.Teacher.ID,
	})
	for i, name := range studentNames {
		st := CreateStudent(t, env, name, emailOf(i))
		if _, err := env.EnrollmentSvc.AssignStudentToClass(context.Background(), st.ID, s.Class.ID); err != nil {
			t.Fatalf("AssignStudentToClass() failed: %v", err)
		}
		s.Students = append(s.Students, st)
	}
	return s
}

func emailOf(i int) string {
	return "student" + string(rune('a'+i)) + "@school.test"
}
