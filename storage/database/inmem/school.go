package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/enrollment"
	"github.com/trezcool/shule/core/school"
)

type schoolRepository struct {
	db *DB
}

var _ school.Repository = (*schoolRepository)(nil)

func NewSchoolRepository(db *DB) school.Repository {
	return &schoolRepository{db: db}
}

// named is the shape shared by classes and courses.
type named = school.Class

var namedCompare = map[string]func(a, b named) int{
	"id":        func(a, b named) int { return a.ID - b.ID },
	"name":      func(a, b named) int { return strings.Compare(a.Name, b.Name) },
	"createdAt": func(a, b named) int { return compareTime(a.CreatedAt, b.CreatedAt) },
}

func sortNamed(rows []named, orderings []core.DBOrdering) {
	if len(orderings) == 0 {
		orderings = []core.DBOrdering{{Field: "name", Ascending: true}}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, ord := range orderings {
			cmp, ok := namedCompare[ord.Field]
			if !ok {
				continue
			}
			if c := cmp(rows[i], rows[j]); c != 0 {
				return (c < 0) == ord.Ascending
			}
		}
		return rows[i].ID < rows[j].ID
	})
}

func queryNamed(rows []named, q core.PageQuery) ([]named, int) {
	matches := make([]named, 0, len(rows))
	for _, r := range rows {
		if q.Search == "" || containsFold(r.Name, q.Search) {
			matches = append(matches, r)
		}
	}
	sortNamed(matches, q.Orderings)
	start, end := core.Paginate(len(matches), q)
	return matches[start:end], len(matches)
}

func idSet(ids []int) map[int]bool {
	set := make(map[int]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func (t *tables) classRows() []named {
	rows := make([]named, 0, len(t.classes))
	for _, c := range t.classes {
		rows = append(rows, c)
	}
	return rows
}

func (t *tables) courseRows() []named {
	rows := make([]named, 0, len(t.courses))
	for _, c := range t.courses {
		rows = append(rows, named(c))
	}
	return rows
}

func (repo *schoolRepository) NameTaken(_ context.Context, kind school.Kind, name string, excludeID int) (taken bool, err error) {
	repo.db.read(func(t *tables) {
		rows := t.classRows()
		if kind == school.KindCourse {
			rows = t.courseRows()
		}
		for _, r := range rows {
			if r.ID != excludeID && sameName(r.Name, name) {
				taken = true
				return
			}
		}
	})
	return taken, nil
}

// Classes

func (repo *schoolRepository) CreateClass(ctx context.Context, c school.Class) (school.Class, error) {
	var err error
	repo.db.write(ctx, func(t *tables) {
		for _, other := range t.classes {
			if sameName(other.Name, c.Name) {
				err = school.ErrClassExists
				return
			}
		}
		c.ID = t.nextID("classes")
		t.classes[c.ID] = c
	})
	if err != nil {
		return school.Class{}, err
	}
	return c, nil
}

func (repo *schoolRepository) GetClass(_ context.Context, id int) (c school.Class, err error) {
	err = school.ErrClassNotFound
	repo.db.read(func(t *tables) {
		if found, ok := t.classes[id]; ok {
			c, err = found, nil
		}
	})
	return c, err
}

func (repo *schoolRepository) UpdateClass(ctx context.Context, c school.Class) (school.Class, error) {
	var err error
	repo.db.write(ctx, func(t *tables) {
		if _, ok := t.classes[c.ID]; !ok {
			err = school.ErrClassNotFound
			return
		}
		for _, other := range t.classes {
			if other.ID != c.ID && sameName(other.Name, c.Name) {
				err = school.ErrClassExists
				return
			}
		}
		t.classes[c.ID] = c
	})
	if err != nil {
		return school.Class{}, err
	}
	return c, nil
}

// DeleteClass drops the class along with its links and quizzes.
func (repo *schoolRepository) DeleteClass(ctx context.Context, id int) error {
	var err error
	repo.db.write(ctx, func(t *tables) {
		if _, ok := t.classes[id]; !ok {
			err = school.ErrClassNotFound
			return
		}
		delete(t.classes, id)
		t.deleteLinks(func(rel enrollment.Relation, l enrollment.Link) bool {
			return rel.HasClass() && l.ClassID == id
		})
		for qid, qz := range t.quizzes {
			if qz.ClassID == id {
				t.deleteQuiz(qid)
			}
		}
	})
	return err
}

func (repo *schoolRepository) QueryClasses(_ context.Context, q core.PageQuery) (classes []school.Class, total int, err error) {
	repo.db.read(func(t *tables) {
		classes, total = queryNamed(t.classRows(), q)
	})
	return classes, total, nil
}

func (repo *schoolRepository) ClassesByID(_ context.Context, ids ...int) ([]school.Class, error) {
	set := idSet(ids)
	classes := make([]school.Class, 0, len(ids))
	repo.db.read(func(t *tables) {
		for _, c := range t.classes {
			if set[c.ID] {
				classes = append(classes, c)
			}
		}
	})
	sortNamed(classes, nil)
	return classes, nil
}

func (repo *schoolRepository) AllClasses(_ context.Context) (classes []school.Class, err error) {
	repo.db.read(func(t *tables) {
		classes = t.classRows()
	})
	sortNamed(classes, nil)
	return classes, nil
}

// Courses

func (repo *schoolRepository) CreateCourse(ctx context.Context, c school.Course) (school.Course, error) {
	var err error
	repo.db.write(ctx, func(t *tables) {
		for _, other := range t.courses {
			if sameName(other.Name, c.Name) {
				err = school.ErrCourseExists
				return
			}
		}
		c.ID = t.nextID("courses")
		t.courses[c.ID] = c
	})
	if err != nil {
		return school.Course{}, err
	}
	return c, nil
}

func (repo *schoolRepository) GetCourse(_ context.Context, id int) (c school.Course, err error) {
	err = school.ErrCourseNotFound
	repo.db.read(func(t *tables) {
		if found, ok := t.courses[id]; ok {
			c, err = found, nil
		}
	})
	return c, err
}

func (repo *schoolRepository) UpdateCourse(ctx context.Context, c school.Course) (school.Course, error) {
	var err error
	repo.db.write(ctx, func(t *tables) {
		if _, ok := t.courses[c.ID]; !ok {
			err = school.ErrCourseNotFound
			return
		}
		for _, other := range t.courses {
			if other.ID != c.ID && sameName(other.Name, c.Name) {
				err = school.ErrCourseExists
				return
			}
		}
		t.courses[c.ID] = c
	})
	if err != nil {
		return school.Course{}, err
	}
	return c, nil
}

// DeleteCourse drops the course along with its links and quizzes.
func (repo *schoolRepository) DeleteCourse(ctx context.Context, id int) error {
	var err error
	repo.db.write(ctx, func(t *tables) {
		if _, ok := t.courses[id]; !ok {
			err = school.ErrCourseNotFound
			return
		}
		delete(t.courses, id)
		t.deleteLinks(func(rel enrollment.Relation, l enrollment.Link) bool {
			return rel.HasCourse() && l.CourseID == id
		})
		for qid, qz := range t.quizzes {
			if qz.CourseID == id {
				t.deleteQuiz(qid)
			}
		}
	})
	return err
}

func coursesOf(rows []named) []school.Course {
	courses := make([]school.Course, 0, len(rows))
	for _, r := range rows {
		courses = append(courses, school.Course(r))
	}
	return courses
}

func (repo *schoolRepository) QueryCourses(_ context.Context, q core.PageQuery) (courses []school.Course, total int, err error) {
	repo.db.read(func(t *tables) {
		var rows []named
		rows, total = queryNamed(t.courseRows(), q)
		courses = coursesOf(rows)
	})
	return courses, total, nil
}

func (repo *schoolRepository) CoursesByID(_ context.Context, ids ...int) (courses []school.Course, err error) {
	set := idSet(ids)
	rows := make([]named, 0, len(ids))
	repo.db.read(func(t *tables) {
		for _, c := range t.courses {
			if set[c.ID] {
				rows = append(rows, named(c))
			}
		}
	})
	sortNamed(rows, nil)
	return coursesOf(rows), nil
}

func (repo *schoolRepository) AllCourses(_ context.Context) ([]school.Course, error) {
	var rows []named
	repo.db.read(func(t *tables) {
		rows = t.courseRows()
	})
	sortNamed(rows, nil)
	return coursesOf(rows), nil
}
