package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/quiz"
	"github.com/trezcool/shule/core/user"
)

type quizRepository struct {
	db *DB
}

var _ quiz.Repository = (*quizRepository)(nil)

func NewQuizRepository(db *DB) quiz.Repository {
	return &quizRepository{db: db}
}

func (repo *quizRepository) CreateQuiz(ctx context.Context, qz quiz.Quiz) (quiz.Quiz, error) {
	repo.db.write(ctx, func(t *tables) {
		t.quizzes[qz.ID] = qz
		t.markInserted(qz.ID)
	})
	return qz, nil
}

func (repo *quizRepository) CreateQuestions(ctx context.Context, qs []quiz.Question) error {
	var err error
	repo.db.write(ctx, func(t *tables) {
		for _, q := range qs {
			if _, ok := t.quizzes[q.QuizID]; !ok {
				err = quiz.ErrNotFound
				return
			}
			t.questions[q.ID] = q
		}
	})
	return err
}

func (repo *quizRepository) GetQuiz(_ context.Context, id string) (qz quiz.Quiz, err error) {
	err = quiz.ErrNotFound
	repo.db.read(func(t *tables) {
		if found, ok := t.quizzes[id]; ok {
			qz, err = found, nil
		}
	})
	return qz, err
}

func matchesQuiz(qz quiz.Quiz, filter quiz.QueryFilter) bool {
	if (filter.TeacherID != "" && qz.TeacherID != filter.TeacherID) ||
		(filter.ClassID != 0 && qz.ClassID != filter.ClassID) ||
		(filter.CourseID != 0 && qz.CourseID != filter.CourseID) {
		return false
	}
	if filter.Pairs == nil {
		return true
	}
	for _, p := range filter.Pairs {
		if p.ClassID == qz.ClassID && p.CourseID == qz.CourseID {
			return true
		}
	}
	return false
}

func (repo *quizRepository) QueryQuizzes(_ context.Context, filter quiz.QueryFilter, q *core.PageQuery) ([]quiz.Quiz, int, error) {
	quizzes := make([]quiz.Quiz, 0)
	var order map[string]int
	repo.db.read(func(t *tables) {
		order = make(map[string]int, len(t.quizzes))
		for _, qz := range t.quizzes {
			if !matchesQuiz(qz, filter) {
				continue
			}
			if q != nil && q.Search != "" && !containsFold(qz.Title, q.Search) {
				continue
			}
			quizzes = append(quizzes, qz)
			order[qz.ID] = t.inserted[qz.ID]
		}
	})
	sort.Slice(quizzes, func(i, j int) bool {
		if !quizzes[i].CreatedAt.Equal(quizzes[j].CreatedAt) {
			return quizzes[i].CreatedAt.After(quizzes[j].CreatedAt)
		}
		return order[quizzes[i].ID] > order[quizzes[j].ID]
	})

	total := len(quizzes)
	if q == nil {
		return quizzes, total, nil
	}
	start, end := core.Paginate(total, *q)
	return quizzes[start:end], total, nil
}

func (repo *quizRepository) QueryQuestions(_ context.Context, quizID string) ([]quiz.Question, error) {
	questions := make([]quiz.Question, 0)
	repo.db.read(func(t *tables) {
		for _, q := range t.questions {
			if q.QuizID == quizID {
				questions = append(questions, q)
			}
		}
	})
	sort.Slice(questions, func(i, j int) bool { return questions[i].Position < questions[j].Position })
	return questions, nil
}

func (repo *quizRepository) CreateMark(ctx context.Context, m quiz.Mark) (quiz.Mark, error) {
	var err error
	repo.db.write(ctx, func(t *tables) {
		if _, ok := t.quizzes[m.QuizID]; !ok {
			err = quiz.ErrNotFound
			return
		}
		for _, other := range t.marks {
			if other.QuizID == m.QuizID && other.StudentID == m.StudentID {
				err = quiz.ErrAlreadySubmitted
				return
			}
		}
		t.marks[m.ID] = m
		t.markInserted(m.ID)
	})
	if err != nil {
		return quiz.Mark{}, err
	}
	return m, nil
}

func (repo *quizRepository) QueryMarks(_ context.Context, filter quiz.MarkFilter) ([]quiz.MarkDetail, error) {
	marks := make([]quiz.MarkDetail, 0)
	var order map[string]int
	repo.db.read(func(t *tables) {
		order = make(map[string]int)
		for _, m := range t.marks {
			if (filter.QuizID != "" && m.QuizID != filter.QuizID) || (filter.StudentID != "" && m.StudentID != filter.StudentID) {
				continue
			}
			student := t.people[user.RoleStudent][m.StudentID]
			marks = append(marks, quiz.MarkDetail{Mark: m, StudentName: student.Name, StudentEmail: student.Email})
			order[m.ID] = t.inserted[m.ID]
		}
	})
	sort.Slice(marks, func(i, j int) bool {
		if !marks[i].CreatedAt.Equal(marks[j].CreatedAt) {
			return marks[i].CreatedAt.Before(marks[j].CreatedAt)
		}
		return order[marks[i].ID] < order[marks[j].ID]
	})
	return marks, nil
}
