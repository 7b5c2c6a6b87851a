package quiz

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shule/core"
)

const (
	MaxQuestions = 100
	MaxDuration  = 60 * time.Minute
)

// Status is derived from the quiz window and the current time, never stored.
type Status string

const (
	StatusUpcoming Status = "upcoming"
	StatusActive   Status = "active"
	StatusExpired  Status = "expired"
)

type Quiz struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	ClassID        int       `json:"classId"`
	CourseID       int       `json:"courseId"`
	TeacherID      string    `json:"teacherId"`
	StartTime      time.Time `json:"startTime"` // UTC
	EndTime        time.Time `json:"endTime"`   // UTC
	TotalQuestions int       `json:"totalQuestions"`
	TotalMarks     int       `json:"totalMarks"`
	CreatedAt      time.Time `json:"createdAt"` // UTC
}

// StatusAt classifies the quiz: Upcoming before its start, Active within [start, end], Expired after.
func (q Quiz) StatusAt(now time.Time) Status {
	switch {
	case now.Before(q.StartTime):
		return StatusUpcoming
	case now.After(q.EndTime):
		return StatusExpired
	default:
		return StatusActive
	}
}

// MarksPerQuestion splits the total marks evenly; the remainder is dropped.
func (q Quiz) MarksPerQuestion() int {
	return MarksPerQuestion(q.TotalMarks, q.TotalQuestions)
}

func MarksPerQuestion(totalMarks, totalQuestions int) int {
	if totalQuestions <= 0 {
		return 0
	}
	return totalMarks / totalQuestions
}

type Question struct {
	ID            string `json:"id"`
	QuizID        string `json:"quizId"`
	Position      int    `json:"position"`
	Question      string `json:"question"`
	OptionA       string `json:"optionA"`
	OptionB       string `json:"optionB"`
	OptionC       string `json:"optionC"`
	OptionD       string `json:"optionD"`
	CorrectOption string `json:"correctOption"` // "1".."4"
}

type Mark struct {
	ID            string    `json:"id"`
	QuizID        string    `json:"quizId"`
	StudentID     string    `json:"studentId"`
	ObtainedMarks int       `json:"obtainedMarks"`
	TotalMarks    int       `json:"totalMarks"`
	CreatedAt     time.Time `json:"createdAt"` // UTC
}

// MarkDetail is a mark joined with its student.
type MarkDetail struct {
	Mark
	StudentName  string `json:"studentName"`
	StudentEmail string `json:"studentEmail"`
}

// QuizView is a quiz as shown to its teacher.
type QuizView struct {
	Quiz
	Status           Status         `json:"status"`
	ClassName        string         `json:"className"`
	CourseName       string         `json:"courseName"`
	MarksPerQuestion int            `json:"marksPerQuestion"`
	Questions        []QuestionView `json:"questions,omitempty"`
}

type QuestionView struct {
	Question
	Marks int `json:"marks"`
}

// StudentQuizView is a quiz as shown to a student: no correct options.
type StudentQuizView struct {
	Quiz
	Status           Status            `json:"status"`
	ClassName        string            `json:"className"`
	CourseName       string            `json:"courseName"`
	MarksPerQuestion int               `json:"marksPerQuestion"`
	Submitted        bool              `json:"submitted"`
	ObtainedMarks    *int              `json:"obtainedMarks"`
	Questions        []StudentQuestion `json:"questions,omitempty"`
}

type StudentQuestion struct {
	ID       string `json:"id"`
	Position int    `json:"position"`
	Question string `json:"question"`
	OptionA  string `json:"optionA"`
	OptionB  string `json:"optionB"`
	OptionC  string `json:"optionC"`
	OptionD  string `json:"optionD"`
	Marks    int    `json:"marks"`
}

// QuizDetails is a teacher's quiz with its leaderboard and submission statistics.
type QuizDetails struct {
	Quiz             QuizView           `json:"quiz"`
	Leaderboard      []LeaderboardEntry `json:"leaderboard"`
	TotalSubmissions int                `json:"totalSubmissions"`
	AverageMarks     int                `json:"averageMarks"`
}

// NewQuestion is one question of a NewQuiz. Blank options are rejected by the quiz rules.
type NewQuestion struct {
	Question      string `json:"question" validate:"required,notblank"`
	OptionA       string `json:"optionA"`
	OptionB       string `json:"optionB"`
	OptionC       string `json:"optionC"`
	OptionD       string `json:"optionD"`
	CorrectOption string `json:"correctOption" validate:"required,oneof=1 2 3 4"`
}

func (nq NewQuestion) hasAllOptions() bool {
	return nq.OptionA != "" && nq.OptionB != "" && nq.OptionC != "" && nq.OptionD != ""
}

// NewQuiz contains information needed to create a Quiz.
type NewQuiz struct {
	Title      string        `json:"title" validate:"required,notblank,max=200"`
	ClassID    int           `json:"classId" validate:"required,min=1"`
	CourseID   int           `json:"courseId" validate:"required,min=1"`
	StartTime  time.Time     `json:"startTime" validate:"required"`
	EndTime    time.Time     `json:"endTime" validate:"required"`
	TotalMarks int           `json:"totalMarks" validate:"required,min=1"`
	Questions  []NewQuestion `json:"questions" validate:"dive"`
}

func (nq *NewQuiz) Validate(validate *validator.Validate) error {
	nq.Title = core.CleanString(nq.Title)
	nq.StartTime = nq.StartTime.UTC()
	nq.EndTime = nq.EndTime.UTC()
	for i := range nq.Questions {
		q := &nq.Questions[i]
		q.Question = core.CleanString(q.Question)
		q.OptionA = core.CleanString(q.OptionA)
		q.OptionB = core.CleanString(q.OptionB)
		q.OptionC = core.CleanString(q.OptionC)
		q.OptionD = core.CleanString(q.OptionD)
		q.CorrectOption = core.CleanString(q.CorrectOption)
	}
	return validate.Struct(nq)
}

type Answer struct {
	QuestionID string `json:"questionId" validate:"required"`
	Option     string `json:"option" validate:"required,oneof=1 2 3 4"`
}

// Submission holds a student's answers to a quiz. Unanswered questions score nothing.
type Submission struct {
	Answers []Answer `json:"answers" validate:"dive"`
}

func (s *Submission) Validate(validate *validator.Validate) error {
	for i := range s.Answers {
		s.Answers[i].QuestionID = core.CleanString(s.Answers[i].QuestionID, true /* lower */)
		s.Answers[i].Option = core.CleanString(s.Answers[i].Option)
	}
	return validate.Struct(s)
}

// ClassCourse is a class+course pair.
type ClassCourse struct {
	ClassID  int
	CourseID int
}

type QueryFilter struct {
	TeacherID string
	ClassID   int
	CourseID  int
	// Pairs restricts the quizzes to these class+course pairs when not nil.
	Pairs []ClassCourse
}

type MarkFilter struct {
	QuizID    string
	StudentID string
}
