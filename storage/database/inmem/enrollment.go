package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/enrollment"
	"github.com/trezcool/shule/core/user"
)

type enrollmentRepository struct {
	db *DB
}

var _ enrollment.Repository = (*enrollmentRepository)(nil)

func NewEnrollmentRepository(db *DB) enrollment.Repository {
	return &enrollmentRepository{db: db}
}

func sameTuple(a, b enrollment.Link) bool {
	return a.ClassID == b.ClassID && a.CourseID == b.CourseID && a.TeacherID == b.TeacherID && a.StudentID == b.StudentID
}

func sortLinks(links []enrollment.Link) {
	sort.Slice(links, func(i, j int) bool { return links[i].ID < links[j].ID })
}

func (repo *enrollmentRepository) InsertLink(ctx context.Context, rel enrollment.Relation, l enrollment.Link) (enrollment.Link, error) {
	var err error
	repo.db.write(ctx, func(t *tables) {
		rows, ok := t.links[rel]
		if !ok {
			err = core.NewNotFoundError("unknown relation")
			return
		}
		for _, other := range rows {
			// a student belongs to one class at most
			if sameTuple(other, l) || (rel == enrollment.ClassStudent && other.StudentID == l.StudentID) {
				err = rel.ExistsErr()
				return
			}
		}
		l.ID = t.nextID(rel.Table())
		rows[l.ID] = l
	})
	if err != nil {
		return enrollment.Link{}, err
	}
	return l, nil
}

func (repo *enrollmentRepository) DeleteLinks(ctx context.Context, rel enrollment.Relation, filter enrollment.Link) ([]enrollment.Link, error) {
	deleted := make([]enrollment.Link, 0)
	repo.db.write(ctx, func(t *tables) {
		for id, l := range t.links[rel] {
			if l.Matches(filter) {
				deleted = append(deleted, l)
				delete(t.links[rel], id)
			}
		}
	})
	sortLinks(deleted)
	return deleted, nil
}

func (repo *enrollmentRepository) QueryLinks(_ context.Context, rel enrollment.Relation, filter enrollment.Link) ([]enrollment.Link, error) {
	links := make([]enrollment.Link, 0)
	repo.db.read(func(t *tables) {
		for _, l := range t.links[rel] {
			if l.Matches(filter) {
				links = append(links, l)
			}
		}
	})
	sortLinks(links)
	return links, nil
}

var assignmentCompare = map[string]func(a, b enrollment.TeacherAssignment) int{
	"id":          func(a, b enrollment.TeacherAssignment) int { return a.ID - b.ID },
	"className":   func(a, b enrollment.TeacherAssignment) int { return strings.Compare(a.ClassName, b.ClassName) },
	"courseName":  func(a, b enrollment.TeacherAssignment) int { return strings.Compare(a.CourseName, b.CourseName) },
	"teacherName": func(a, b enrollment.TeacherAssignment) int { return strings.Compare(a.TeacherName, b.TeacherName) },
	"createdAt":   func(a, b enrollment.TeacherAssignment) int { return compareTime(a.CreatedAt, b.CreatedAt) },
}

func (repo *enrollmentRepository) QueryTeacherAssignments(
	_ context.Context,
	filter enrollment.AssignmentFilter,
	q *core.PageQuery,
) ([]enrollment.TeacherAssignment, int, error) {
	search := ""
	if q != nil {
		search = q.Search
	}

	assignments := make([]enrollment.TeacherAssignment, 0)
	repo.db.read(func(t *tables) {
		for _, l := range t.links[enrollment.ClassCourseTeacher] {
			if (filter.ID != 0 && l.ID != filter.ID) || (filter.TeacherID != "" && l.TeacherID != filter.TeacherID) {
				continue
			}
			teacher := t.people[user.RoleTeacher][l.TeacherID]
			ta := enrollment.TeacherAssignment{
				ID:           l.ID,
				ClassID:      l.ClassID,
				CourseID:     l.CourseID,
				TeacherID:    l.TeacherID,
				ClassName:    t.classes[l.ClassID].Name,
				CourseName:   t.courses[l.CourseID].Name,
				TeacherName:  teacher.Name,
				TeacherEmail: teacher.Email,
				CreatedAt:    l.CreatedAt,
			}
			if search != "" && !containsFold(ta.ClassName, search) && !containsFold(ta.CourseName, search) &&
				!containsFold(ta.TeacherName, search) && !containsFold(ta.TeacherEmail, search) {
				continue
			}
			for _, s := range t.links[enrollment.ClassCourseStudent] {
				if s.ClassID == l.ClassID && s.CourseID == l.CourseID {
					ta.TotalStudents++
				}
			}
			assignments = append(assignments, ta)
		}
	})

	var orderings []core.DBOrdering
	if q != nil {
		orderings = q.Orderings
	}
	if len(orderings) == 0 {
		orderings = []core.DBOrdering{{Field: "id"}}
	}
	sort.SliceStable(assignments, func(i, j int) bool {
		for _, ord := range orderings {
			cmp, ok := assignmentCompare[ord.Field]
			if !ok {
				continue
			}
			if c := cmp(assignments[i], assignments[j]); c != 0 {
				return (c < 0) == ord.Ascending
			}
		}
		return assignments[i].ID > assignments[j].ID
	})

	total := len(assignments)
	if q == nil {
		return assignments, total, nil
	}
	start, end := core.Paginate(total, *q)
	return assignments[start:end], total, nil
}

func (repo *enrollmentRepository) QueryEnrolledStudents(_ context.Context, classID, courseID int) ([]user.Person, error) {
	students := make([]user.Person, 0)
	repo.db.read(func(t *tables) {
		for _, l := range t.links[enrollment.ClassCourseStudent] {
			if l.ClassID != classID || l.CourseID != courseID {
				continue
			}
			if p, ok := t.people[user.RoleStudent][l.StudentID]; ok {
				students = append(students, p)
			}
		}
	})
	sort.Slice(students, func(i, j int) bool {
		if students[i].Name != students[j].Name {
			return students[i].Name < students[j].Name
		}
		return students[i].ID < students[j].ID
	})
	return students, nil
}
