package sqlxrepos

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/quiz"
)

const (
	quizColumns     = "id, title, class_id, course_id, teacher_id, start_time, end_time, total_questions, total_marks, created_at"
	questionColumns = "id, quiz_id, position, question, option_a, option_b, option_c, option_d, correct_option"
)

type quizRow struct {
	ID             string    `db:"id"`
	Title          string    `db:"title"`
	ClassID        int       `db:"class_id"`
	CourseID       int       `db:"course_id"`
	TeacherID      string    `db:"teacher_id"`
	StartTime      time.Time `db:"start_time"`
	EndTime        time.Time `db:"end_time"`
	TotalQuestions int       `db:"total_questions"`
	TotalMarks     int       `db:"total_marks"`
	CreatedAt      time.Time `db:"created_at"`
}

func (r quizRow) unboil() quiz.Quiz {
	qz := quiz.Quiz(r)
	qz.StartTime = qz.StartTime.UTC()
	qz.EndTime = qz.EndTime.UTC()
	qz.CreatedAt = qz.CreatedAt.UTC()
	return qz
}

type questionRow struct {
	ID            string `db:"id"`
	QuizID        string `db:"quiz_id"`
	Position      int    `db:"position"`
	Question      string `db:"question"`
	OptionA       string `db:"option_a"`
	OptionB       string `db:"option_b"`
	OptionC       string `db:"option_c"`
	OptionD       string `db:"option_d"`
	CorrectOption string `db:"correct_option"`
}

type markRow struct {
	ID            string    `db:"id"`
	QuizID        string    `db:"quiz_id"`
	StudentID     string    `db:"student_id"`
	ObtainedMarks int       `db:"obtained_marks"`
	TotalMarks    int       `db:"total_marks"`
	CreatedAt     time.Time `db:"created_at"`
	StudentName   string    `db:"student_name"`
	StudentEmail  string    `db:"student_email"`
}

type quizRepository struct {
	db *sqlx.DB
}

var _ quiz.Repository = (*quizRepository)(nil) // interface compliance check

func NewQuizRepository(db *sqlx.DB) quiz.Repository {
	return &quizRepository{db: db}
}

func (repo *quizRepository) CreateQuiz(ctx context.Context, qz quiz.Quiz) (quiz.Quiz, error) {
	q := "INSERT INTO quizzes (" + quizColumns + ") VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)"
	_, err := execFrom(ctx, repo.db).ExecContext(ctx, q,
		qz.ID, qz.Title, qz.ClassID, qz.CourseID, qz.TeacherID,
		qz.StartTime, qz.EndTime, qz.TotalQuestions, qz.TotalMarks, qz.CreatedAt)
	if err != nil {
		return quiz.Quiz{}, errors.Wrap(err, "inserting quiz")
	}
	return qz, nil
}

func (repo *quizRepository) CreateQuestions(ctx context.Context, qs []quiz.Question) error {
	q := `INSERT INTO questions (` + questionColumns + `)
		VALUES (:id, :quiz_id, :position, :question, :option_a, :option_b, :option_c, :option_d, :correct_option)`
	exec := execFrom(ctx, repo.db)
	for _, question := range qs {
		if _, err := sqlx.NamedExecContext(ctx, exec, q, questionRow(question)); err != nil {
			return errors.Wrapf(err, "inserting question %d", question.Position)
		}
	}
	return nil
}

func (repo *quizRepository) GetQuiz(ctx context.Context, id string) (quiz.Quiz, error) {
	var r quizRow
	if err := sqlx.GetContext(ctx, execFrom(ctx, repo.db), &r, "SELECT "+quizColumns+" FROM quizzes WHERE id = $1", id); err != nil {
		return quiz.Quiz{}, trapNoRowsErr(err, quiz.ErrNotFound, "getting quiz")
	}
	return r.unboil(), nil
}

func (repo *quizRepository) QueryQuizzes(ctx context.Context, filter quiz.QueryFilter, page *core.PageQuery) ([]quiz.Quiz, int, error) {
	if filter.Pairs != nil && len(filter.Pairs) == 0 {
		return []quiz.Quiz{}, 0, nil
	}

	c := &conds{}
	if filter.TeacherID != "" {
		c.add("teacher_id = $%d", filter.TeacherID)
	}
	if filter.ClassID != 0 {
		c.add("class_id = $%d", filter.ClassID)
	}
	if filter.CourseID != 0 {
		c.add("course_id = $%d", filter.CourseID)
	}
	if page != nil && page.Search != "" {
		c.add("title ILIKE $%d", likePattern(page.Search))
	}
	if len(filter.Pairs) > 0 {
		pairs := make([]string, 0, len(filter.Pairs))
		for _, p := range filter.Pairs {
			c.args = append(c.args, p.ClassID, p.CourseID)
			pairs = append(pairs, fmt.Sprintf("($%d, $%d)", len(c.args)-1, len(c.args)))
		}
		c.terms = append(c.terms, "(class_id, course_id) IN ("+strings.Join(pairs, ", ")+")")
	}
	exec := execFrom(ctx, repo.db)

	var total int
	if err := sqlx.GetContext(ctx, exec, &total, "SELECT COUNT(*) FROM quizzes"+c.where(), c.args...); err != nil {
		return nil, 0, errors.Wrap(err, "counting quizzes")
	}

	q := "SELECT " + quizColumns + " FROM quizzes" + c.where() + " ORDER BY created_at DESC, id DESC"
	if page != nil {
		q += c.page(*page)
	}
	var rows []quizRow
	if err := sqlx.SelectContext(ctx, exec, &rows, q, c.args...); err != nil {
		return nil, 0, errors.Wrap(err, "querying quizzes")
	}
	quizzes := make([]quiz.Quiz, 0, len(rows))
	for _, r := range rows {
		quizzes = append(quizzes, r.unboil())
	}
	return quizzes, total, nil
}

func (repo *quizRepository) QueryQuestions(ctx context.Context, quizID string) ([]quiz.Question, error) {
	var rows []questionRow
	q := "SELECT " + questionColumns + " FROM questions WHERE quiz_id = $1 ORDER BY position ASC"
	if err := sqlx.SelectContext(ctx, execFrom(ctx, repo.db), &rows, q, quizID); err != nil {
		return nil, errors.Wrap(err, "querying questions")
	}
	questions := make([]quiz.Question, 0, len(rows))
	for _, r := range rows {
		questions = append(questions, quiz.Question(r))
	}
	return questions, nil
}

func (repo *quizRepository) CreateMark(ctx context.Context, m quiz.Mark) (quiz.Mark, error) {
	q := `INSERT INTO marks (id, quiz_id, student_id, obtained_marks, total_marks, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := execFrom(ctx, repo.db).ExecContext(ctx, q, m.ID, m.QuizID, m.StudentID, m.ObtainedMarks, m.TotalMarks, m.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return quiz.Mark{}, quiz.ErrAlreadySubmitted
		}
		return quiz.Mark{}, errors.Wrap(err, "inserting mark")
	}
	return m, nil
}

func (repo *quizRepository) QueryMarks(ctx context.Context, filter quiz.MarkFilter) ([]quiz.MarkDetail, error) {
	c := &conds{}
	if filter.QuizID != "" {
		c.add("m.quiz_id = $%d", filter.QuizID)
	}
	if filter.StudentID != "" {
		c.add("m.student_id = $%d", filter.StudentID)
	}
	q := `SELECT m.id, m.quiz_id, m.student_id, m.obtained_marks, m.total_marks, m.created_at,
		s.name AS student_name, s.email AS student_email
		FROM marks m JOIN students s ON s.id = m.student_id` + c.where() + `
		ORDER BY m.created_at ASC, m.id ASC`

	var rows []markRow
	if err := sqlx.SelectContext(ctx, execFrom(ctx, repo.db), &rows, q, c.args...); err != nil {
		return nil, errors.Wrap(err, "querying marks")
	}
	marks := make([]quiz.MarkDetail, 0, len(rows))
	for _, r := range rows {
		marks = append(marks, quiz.MarkDetail{
			Mark: quiz.Mark{
				ID:            r.ID,
				QuizID:        r.QuizID,
				StudentID:     r.StudentID,
				ObtainedMarks: r.ObtainedMarks,
				TotalMarks:    r.TotalMarks,
				CreatedAt:     r.CreatedAt.UTC(),
			},
			StudentName:  r.StudentName,
			StudentEmail: r.StudentEmail,
		})
	}
	return marks, nil
}
