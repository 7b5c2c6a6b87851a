package quiz

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/enrollment"
	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
)

var (
	// errors
	ErrNotFound          = core.NewNotFoundError("quiz not found")
	ErrTeacherNotFound   = core.NewNotFoundError("teacher not found")
	ErrNotAssigned       = core.NewForbiddenError("You are not assigned to this class and course")
	ErrStartInPast       = core.NewForbiddenError("Start time cannot be in the past")
	ErrEndInPast         = core.NewForbiddenError("End time cannot be in the past")
	ErrEndBeforeStart    = core.NewForbiddenError("End time must be after start time")
	ErrTooLong           = core.NewForbiddenError("The gap between start and end time cannot exceed 60 minutes")
	ErrNoQuestions       = core.NewForbiddenError("A quiz must have at least one question")
	ErrTooManyQuestions  = core.NewForbiddenError(fmt.Sprintf("A quiz cannot have more than %d questions", MaxQuestions))
	ErrNotStarted        = core.NewForbiddenError("This quiz has not started yet")
	ErrNotActive         = core.NewForbiddenError("This quiz is not open for submissions")
	ErrAlreadySubmitted  = core.NewConflictError("You have already submitted this quiz")
	errMissingOptionText = "Question %d must have all four options"
)

const quizScheduledTemplate = "quiz_scheduled"

type (
	Repository interface {
		CreateQuiz(ctx context.Context, q Quiz) (Quiz, error)
		CreateQuestions(ctx context.Context, qs []Question) error
		GetQuiz(ctx context.Context, id string) (Quiz, error)
		// QueryQuizzes returns quizzes newest first. A nil PageQuery returns every match.
		QueryQuizzes(ctx context.Context, filter QueryFilter, q *core.PageQuery) ([]Quiz, int, error)
		// QueryQuestions returns the questions of a quiz by position.
		QueryQuestions(ctx context.Context, quizID string) ([]Question, error)
		// CreateMark fails with ErrAlreadySubmitted when the student already has a mark for the quiz.
		CreateMark(ctx context.Context, m Mark) (Mark, error)
		// QueryMarks returns marks joined with their students, in submission order.
		QueryMarks(ctx context.Context, filter MarkFilter) ([]MarkDetail, error)
	}

	Service struct {
		repo       Repository
		enrollSvc  *enrollment.Service
		schoolRepo school.Repository
		userRepo   user.Repository
		mailSvc    core.EmailService
		tx         core.Transactor
		logger     core.Logger
	}
)

func NewService(
	repo Repository,
	enrollSvc *enrollment.Service,
	schoolRepo school.Repository,
	userRepo user.Repository,
	mailSvc core.EmailService,
	tx core.Transactor,
	logger core.Logger,
) *Service {
	return &Service{
		repo:       repo,
		enrollSvc:  enrollSvc,
		schoolRepo: schoolRepo,
		userRepo:   userRepo,
		mailSvc:    mailSvc,
		tx:         tx,
		logger:     logger,
	}
}

// checkRules applies the scheduling and content rules of a new quiz at time now.
func checkRules(nq NewQuiz, now time.Time) error {
	if !nq.StartTime.After(now) {
		return ErrStartInPast
	}
	if !nq.EndTime.After(now) {
		return ErrEndInPast
	}
	if !nq.EndTime.After(nq.StartTime) {
		return ErrEndBeforeStart
	}
	if nq.EndTime.Sub(nq.StartTime) > MaxDuration {
		return ErrTooLong
	}
	if len(nq.Questions) == 0 {
		return ErrNoQuestions
	}
	if len(nq.Questions) > MaxQuestions {
		return ErrTooManyQuestions
	}
	for i, q := range nq.Questions {
		if !q.hasAllOptions() {
			return core.NewForbiddenError(fmt.Sprintf(errMissingOptionText, i+1))
		}
	}
	return nil
}

// Create schedules a quiz for a class+course the teacher is assigned to.
// The quiz and its questions are saved together; enrolled students are then notified by email.
func (svc *Service) Create(ctx context.Context, teacherID string, nq NewQuiz) (QuizView, error) {
	teacher, err := svc.userRepo.GetPerson(ctx, user.RoleTeacher, user.GetFilter{ID: teacherID})
	if err != nil {
		if core.IsNotFound(err) {
			return QuizView{}, ErrTeacherNotFound
		}
		return QuizView{}, err
	}
	teaching, err := svc.enrollSvc.IsTeaching(ctx, teacher.ID, nq.ClassID, nq.CourseID)
	if err != nil {
		return QuizView{}, err
	}
	if !teaching {
		return QuizView{}, ErrNotAssigned
	}
	now := core.Now()
	if err = checkRules(nq, now); err != nil {
		return QuizView{}, err
	}

	qz := Quiz{
		ID:             uuid.NewString(),
		Title:          nq.Title,
		ClassID:        nq.ClassID,
		CourseID:       nq.CourseID,
		TeacherID:      teacher.ID,
		StartTime:      nq.StartTime.Truncate(time.Microsecond),
		EndTime:        nq.EndTime.Truncate(time.Microsecond),
		TotalQuestions: len(nq.Questions),
		TotalMarks:     nq.TotalMarks,
		CreatedAt:      now,
	}
	questions := make([]Question, 0, len(nq.Questions))
	for i, q := range nq.Questions {
		questions = append(questions, Question{
			ID:            uuid.NewString(),
			QuizID:        qz.ID,
			Position:      i + 1,
			Question:      q.Question,
			OptionA:       q.OptionA,
			OptionB:       q.OptionB,
			OptionC:       q.OptionC,
			OptionD:       q.OptionD,
			CorrectOption: q.CorrectOption,
		})
	}

	err = svc.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		if qz, err = svc.repo.CreateQuiz(ctx, qz); err != nil {
			return err
		}
		return svc.repo.CreateQuestions(ctx, questions)
	})
	if err != nil {
		return QuizView{}, err
	}

	view, err := svc.view(ctx, qz, questions, now)
	if err != nil {
		return QuizView{}, err
	}
	svc.notifyStudents(ctx, view)
	return view, nil
}

// names resolves the class and course names of the given quizzes.
func (svc *Service) names(ctx context.Context, quizzes ...Quiz) (map[int]string, map[int]string, error) {
	classIDs := make([]int, 0, len(quizzes))
	courseIDs := make([]int, 0, len(quizzes))
	for _, q := range quizzes {
		classIDs = append(classIDs, q.ClassID)
		courseIDs = append(courseIDs, q.CourseID)
	}

	classes, err := svc.schoolRepo.ClassesByID(ctx, classIDs...)
	if err != nil {
		return nil, nil, err
	}
	courses, err := svc.schoolRepo.CoursesByID(ctx, courseIDs...)
	if err != nil {
		return nil, nil, err
	}

	classNames := make(map[int]string, len(classes))
	for _, c := range classes {
		classNames[c.ID] = c.Name
	}
	courseNames := make(map[int]string, len(courses))
	for _, c := range courses {
		courseNames[c.ID] = c.Name
	}
	return classNames, courseNames, nil
}

func (svc *Service) view(ctx context.Context, qz Quiz, questions []Question, now time.Time) (QuizView, error) {
	classNames, courseNames, err := svc.names(ctx, qz)
	if err != nil {
		return QuizView{}, err
	}
	v := QuizView{
		Quiz:             qz,
		Status:           qz.StatusAt(now),
		ClassName:        classNames[qz.ClassID],
		CourseName:       courseNames[qz.CourseID],
		MarksPerQuestion: qz.MarksPerQuestion(),
	}
	if questions != nil {
		v.Questions = make([]QuestionView, 0, len(questions))
		for _, q := range questions {
			v.Questions = append(v.Questions, QuestionView{Question: q, Marks: v.MarksPerQuestion})
		}
	}
	return v, nil
}

type quizScheduledData struct {
	StudentName string
	QuizTitle   string
	ClassName   string
	CourseName  string
	StartTime   string
	EndTime     string
	TotalMarks  int
}

// notifyStudents emails every student enrolled in the quiz's class+course. Failures are only logged.
func (svc *Service) notifyStudents(ctx context.Context, v QuizView) {
	students, err := svc.enrollSvc.EnrolledStudents(ctx, v.ClassID, v.CourseID)
	if err != nil {
		svc.logger.Error(fmt.Sprintf("listing students to notify of quiz %s: %v", v.ID, err), err)
		return
	}

	msgs := make([]*core.EmailMessage, 0, len(students))
	for _, s := range students {
		msgs = append(msgs, &core.EmailMessage{
			To:           []mail.Address{{Name: s.Name, Address: s.Email}},
			Subject:      fmt.Sprintf("New quiz: %s", v.Title),
			TemplateName: quizScheduledTemplate,
			TemplateData: quizScheduledData{
				StudentName: s.Name,
				QuizTitle:   v.Title,
				ClassName:   v.ClassName,
				CourseName:  v.CourseName,
				StartTime:   v.StartTime.Format(time.RFC1123),
				EndTime:     v.EndTime.Format(time.RFC1123),
				TotalMarks:  v.TotalMarks,
			},
		})
	}
	if len(msgs) > 0 {
		svc.mailSvc.SendMessages(msgs...)
	}
}

// getOwned returns the quiz if it belongs to the teacher; NotFound otherwise.
func (svc *Service) getOwned(ctx context.Context, teacherID, quizID string) (Quiz, error) {
	if _, err := uuid.Parse(quizID); err != nil {
		return Quiz{}, ErrNotFound
	}
	qz, err := svc.repo.GetQuiz(ctx, quizID)
	if err != nil {
		return Quiz{}, err
	}
	if qz.TeacherID != teacherID {
		return Quiz{}, ErrNotFound
	}
	return qz, nil
}

// QueryForTeacher lists the quizzes of a teacher, optionally for one class and/or course.
func (svc *Service) QueryForTeacher(ctx context.Context, teacherID string, filter QueryFilter, q core.PageQuery) (core.Page, error) {
	q.Clean()
	filter.TeacherID = teacherID
	filter.Pairs = nil
	quizzes, total, err := svc.repo.QueryQuizzes(ctx, filter, &q)
	if err != nil {
		return core.Page{}, err
	}

	classNames, courseNames, err := svc.names(ctx, quizzes...)
	if err != nil {
		return core.Page{}, err
	}
	now := core.Now()
	views := make([]QuizView, 0, len(quizzes))
	for _, qz := range quizzes {
		views = append(views, QuizView{
			Quiz:             qz,
			Status:           qz.StatusAt(now),
			ClassName:        classNames[qz.ClassID],
			CourseName:       courseNames[qz.CourseID],
			MarksPerQuestion: qz.MarksPerQuestion(),
		})
	}
	return core.NewPage(views, total, q), nil
}

// GetForTeacher returns a quiz of the teacher with its questions.
func (svc *Service) GetForTeacher(ctx context.Context, teacherID, quizID string) (QuizView, error) {
	qz, err := svc.getOwned(ctx, teacherID, quizID)
	if err != nil {
		return QuizView{}, err
	}
	questions, err := svc.repo.QueryQuestions(ctx, qz.ID)
	if err != nil {
		return QuizView{}, err
	}
	if questions == nil {
		questions = []Question{}
	}
	return svc.view(ctx, qz, questions, core.Now())
}

// DetailsWithLeaderboard returns a quiz of the teacher, its leaderboard and submission statistics.
// found is false when the teacher has no quiz with that id.
func (svc *Service) DetailsWithLeaderboard(ctx context.Context, teacherID, quizID string) (details QuizDetails, found bool, err error) {
	v, err := svc.GetForTeacher(ctx, teacherID, quizID)
	if err != nil {
		if core.IsNotFound(err) {
			return QuizDetails{}, false, nil
		}
		return QuizDetails{}, false, err
	}

	marks, err := svc.repo.QueryMarks(ctx, MarkFilter{QuizID: v.ID})
	if err != nil {
		return QuizDetails{}, false, err
	}
	return QuizDetails{
		Quiz:             v,
		Leaderboard:      Leaderboard(marks),
		TotalSubmissions: len(marks),
		AverageMarks:     AverageMarks(marks),
	}, true, nil
}
