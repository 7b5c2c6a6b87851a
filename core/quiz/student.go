package quiz

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/shule/core"
)

func (svc *Service) studentView(qz Quiz, classNames, courseNames map[int]string, mark *MarkDetail, now time.Time) StudentQuizView {
	v := StudentQuizView{
		Quiz:             qz,
		Status:           qz.StatusAt(now),
		ClassName:        classNames[qz.ClassID],
		CourseName:       courseNames[qz.CourseID],
		MarksPerQuestion: qz.MarksPerQuestion(),
	}
	if mark != nil {
		obtained := mark.ObtainedMarks
		v.Submitted = true
		v.ObtainedMarks = &obtained
	}
	return v
}

// QueryForStudent lists the quizzes of every class+course the student is enrolled in, newest first.
func (svc *Service) QueryForStudent(ctx context.Context, studentID string) ([]StudentQuizView, error) {
	links, err := svc.enrollSvc.StudentCourses(ctx, studentID)
	if err != nil {
		return nil, err
	}
	views := make([]StudentQuizView, 0)
	if len(links) == 0 {
		return views, nil
	}

	pairs := make([]ClassCourse, 0, len(links))
	for _, l := range links {
		pairs = append(pairs, ClassCourse{ClassID: l.ClassID, CourseID: l.CourseID})
	}
	quizzes, _, err := svc.repo.QueryQuizzes(ctx, QueryFilter{Pairs: pairs}, nil)
	if err != nil {
		return nil, err
	}
	classNames, courseNames, err := svc.names(ctx, quizzes...)
	if err != nil {
		return nil, err
	}
	marks, err := svc.repo.QueryMarks(ctx, MarkFilter{StudentID: studentID})
	if err != nil {
		return nil, err
	}
	byQuiz := make(map[string]*MarkDetail, len(marks))
	for i := range marks {
		byQuiz[marks[i].QuizID] = &marks[i]
	}

	now := core.Now()
	for _, qz := range quizzes {
		views = append(views, svc.studentView(qz, classNames, courseNames, byQuiz[qz.ID], now))
	}
	return views, nil
}

// getEnrolled returns the quiz if the student is enrolled in its class+course; NotFound otherwise.
func (svc *Service) getEnrolled(ctx context.Context, studentID, quizID string) (Quiz, error) {
	if _, err := uuid.Parse(quizID); err != nil {
		return Quiz{}, ErrNotFound
	}
	qz, err := svc.repo.GetQuiz(ctx, quizID)
	if err != nil {
		return Quiz{}, err
	}
	enrolled, err := svc.enrollSvc.IsEnrolled(ctx, studentID, qz.ClassID, qz.CourseID)
	if err != nil {
		return Quiz{}, err
	}
	if !enrolled {
		return Quiz{}, ErrNotFound
	}
	return qz, nil
}

// GetForStudent returns a quiz to a student enrolled in its class+course.
// Questions are only shown once the quiz has started, and never with their correct options.
func (svc *Service) GetForStudent(ctx context.Context, studentID, quizID string) (StudentQuizView, error) {
	qz, err := svc.getEnrolled(ctx, studentID, quizID)
	if err != nil {
		return StudentQuizView{}, err
	}
	classNames, courseNames, err := svc.names(ctx, qz)
	if err != nil {
		return StudentQuizView{}, err
	}
	marks, err := svc.repo.QueryMarks(ctx, MarkFilter{QuizID: qz.ID, StudentID: studentID})
	if err != nil {
		return StudentQuizView{}, err
	}
	var mark *MarkDetail
	if len(marks) > 0 {
		mark = &marks[0]
	}

	v := svc.studentView(qz, classNames, courseNames, mark, core.Now())
	if v.Status == StatusUpcoming {
		return v, nil
	}

	questions, err := svc.repo.QueryQuestions(ctx, qz.ID)
	if err != nil {
		return StudentQuizView{}, err
	}
	v.Questions = make([]StudentQuestion, 0, len(questions))
	for _, q := range questions {
		v.Questions = append(v.Questions, StudentQuestion{
			ID:       q.ID,
			Position: q.Position,
			Question: q.Question,
			OptionA:  q.OptionA,
			OptionB:  q.OptionB,
			OptionC:  q.OptionC,
			OptionD:  q.OptionD,
			Marks:    v.MarksPerQuestion,
		})
	}
	return v, nil
}

// Score returns the marks earned by answers: marksPerQuestion for each correctly answered question.
// Only the first answer to a question counts; answers to unknown questions are ignored.
func Score(questions []Question, answers []Answer, marksPerQuestion int) int {
	correct := make(map[string]string, len(questions))
	for _, q := range questions {
		correct[q.ID] = q.CorrectOption
	}

	score := 0
	seen := make(map[string]bool, len(answers))
	for _, a := range answers {
		if seen[a.QuestionID] {
			continue
		}
		seen[a.QuestionID] = true
		if opt, ok := correct[a.QuestionID]; ok && opt == a.Option {
			score += marksPerQuestion
		}
	}
	return score
}

// Submit scores the student's answers while the quiz is active. A student submits a quiz once.
func (svc *Service) Submit(ctx context.Context, studentID, quizID string, sub Submission) (Mark, error) {
	qz, err := svc.getEnrolled(ctx, studentID, quizID)
	if err != nil {
		return Mark{}, err
	}
	now := core.Now()
	switch qz.StatusAt(now) {
	case StatusUpcoming:
		return Mark{}, ErrNotStarted
	case StatusExpired:
		return Mark{}, ErrNotActive
	}

	questions, err := svc.repo.QueryQuestions(ctx, qz.ID)
	if err != nil {
		return Mark{}, err
	}
	return svc.repo.CreateMark(ctx, Mark{
		ID:            uuid.NewString(),
		QuizID:        qz.ID,
		StudentID:     studentID,
		ObtainedMarks: Score(questions, sub.Answers, qz.MarksPerQuestion()),
		TotalMarks:    qz.TotalMarks,
		CreatedAt:     now,
	})
}
