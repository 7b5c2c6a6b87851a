package sqlxrepos

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/enrollment"
	"github.com/trezcool/shule/core/user"
)

var assignmentOrderColumns = map[string]string{
	"id":          "cct.id",
	"className":   "c.name",
	"courseName":  "co.name",
	"teacherName": "t.name",
	"createdAt":   "cct.created_at",
}

type linkRow struct {
	ID        int       `db:"id"`
	ClassID   int       `db:"class_id"`
	CourseID  int       `db:"course_id"`
	TeacherID string    `db:"teacher_id"`
	StudentID string    `db:"student_id"`
	CreatedAt time.Time `db:"created_at"`
}

func (r linkRow) unboil() enrollment.Link {
	l := enrollment.Link(r)
	l.CreatedAt = l.CreatedAt.UTC()
	return l
}

type assignmentRow struct {
	ID            int       `db:"id"`
	ClassID       int       `db:"class_id"`
	CourseID      int       `db:"course_id"`
	TeacherID     string    `db:"teacher_id"`
	ClassName     string    `db:"class_name"`
	CourseName    string    `db:"course_name"`
	TeacherName   string    `db:"teacher_name"`
	TeacherEmail  string    `db:"teacher_email"`
	TotalStudents int       `db:"total_students"`
	CreatedAt     time.Time `db:"created_at"`
}

type enrollmentRepository struct {
	db *sqlx.DB
}

var _ enrollment.Repository = (*enrollmentRepository)(nil) // interface compliance check

func NewEnrollmentRepository(db *sqlx.DB) enrollment.Repository {
	return &enrollmentRepository{db: db}
}

// keyColumns returns the key columns of the relation with their values in l.
func keyColumns(rel enrollment.Relation, l enrollment.Link) ([]string, []interface{}) {
	var (
		cols []string
		vals []interface{}
	)
	if rel.HasClass() {
		cols, vals = append(cols, "class_id"), append(vals, l.ClassID)
	}
	if rel.HasCourse() {
		cols, vals = append(cols, "course_id"), append(vals, l.CourseID)
	}
	if rel.HasTeacher() {
		cols, vals = append(cols, "teacher_id"), append(vals, l.TeacherID)
	}
	if rel.HasStudent() {
		cols, vals = append(cols, "student_id"), append(vals, l.StudentID)
	}
	return cols, vals
}

// filterConds matches every non-zero key of filter.
func filterConds(rel enrollment.Relation, filter enrollment.Link) *conds {
	c := &conds{}
	if filter.ID != 0 {
		c.add("id = $%d", filter.ID)
	}
	cols, vals := keyColumns(rel, filter)
	for i, col := range cols {
		switch v := vals[i].(type) {
		case int:
			if v == 0 {
				continue
			}
		case string:
			if v == "" {
				continue
			}
		}
		c.add(col+" = $%d", vals[i])
	}
	return c
}

func selectColumns(rel enrollment.Relation) string {
	cols, _ := keyColumns(rel, enrollment.Link{})
	return "id, " + strings.Join(cols, ", ") + ", created_at"
}

func (repo *enrollmentRepository) InsertLink(ctx context.Context, rel enrollment.Relation, l enrollment.Link) (enrollment.Link, error) {
	cols, vals := keyColumns(rel, l)
	cols, vals = append(cols, "created_at"), append(vals, l.CreatedAt)
	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING id",
		rel.Table(), strings.Join(cols, ", "), strings.Join(placeholders, ", "))
	if err := sqlx.GetContext(ctx, execFrom(ctx, repo.db), &l.ID, q, vals...); err != nil {
		if isUniqueViolation(err) {
			return enrollment.Link{}, rel.ExistsErr()
		}
		return enrollment.Link{}, errors.Wrapf(err, "inserting into %s", rel.Table())
	}
	return l, nil
}

func (repo *enrollmentRepository) selectLinks(ctx context.Context, q string, args ...interface{}) ([]enrollment.Link, error) {
	var rows []linkRow
	if err := sqlx.SelectContext(ctx, execFrom(ctx, repo.db), &rows, q, args...); err != nil {
		return nil, err
	}
	links := make([]enrollment.Link, 0, len(rows))
	for _, r := range rows {
		links = append(links, r.unboil())
	}
	return links, nil
}

func (repo *enrollmentRepository) DeleteLinks(ctx context.Context, rel enrollment.Relation, filter enrollment.Link) ([]enrollment.Link, error) {
	c := filterConds(rel, filter)
	q := fmt.Sprintf("DELETE FROM %s%s RETURNING %s", rel.Table(), c.where(), selectColumns(rel))
	links, err := repo.selectLinks(ctx, q, c.args...)
	if err != nil {
		return nil, errors.Wrapf(err, "deleting from %s", rel.Table())
	}
	return links, nil
}

func (repo *enrollmentRepository) QueryLinks(ctx context.Context, rel enrollment.Relation, filter enrollment.Link) ([]enrollment.Link, error) {
	c := filterConds(rel, filter)
	q := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY id ASC", selectColumns(rel), rel.Table(), c.where())
	links, err := repo.selectLinks(ctx, q, c.args...)
	if err != nil {
		return nil, errors.Wrapf(err, "querying %s", rel.Table())
	}
	return links, nil
}

const assignmentsFrom = `
	FROM class_course_teachers cct
	JOIN classes c ON c.id = cct.class_id
	JOIN courses co ON co.id = cct.course_id
	JOIN teachers t ON t.id = cct.teacher_id`

func (repo *enrollmentRepository) QueryTeacherAssignments(
	ctx context.Context,
	filter enrollment.AssignmentFilter,
	page *core.PageQuery,
) ([]enrollment.TeacherAssignment, int, error) {
	c := &conds{}
	if filter.ID != 0 {
		c.add("cct.id = $%d", filter.ID)
	}
	if filter.TeacherID != "" {
		c.add("cct.teacher_id = $%d", filter.TeacherID)
	}
	if page != nil && page.Search != "" {
		c.add("(c.name ILIKE $%[1]d OR co.name ILIKE $%[1]d OR t.name ILIKE $%[1]d OR t.email ILIKE $%[1]d)", likePattern(page.Search))
	}
	exec := execFrom(ctx, repo.db)

	var total int
	if err := sqlx.GetContext(ctx, exec, &total, "SELECT COUNT(*)"+assignmentsFrom+c.where(), c.args...); err != nil {
		return nil, 0, errors.Wrap(err, "counting teacher assignments")
	}

	q := `SELECT cct.id, cct.class_id, cct.course_id, cct.teacher_id, cct.created_at,
		c.name AS class_name, co.name AS course_name, t.name AS teacher_name, t.email AS teacher_email,
		(SELECT COUNT(*) FROM class_course_students ccs
			WHERE ccs.class_id = cct.class_id AND ccs.course_id = cct.course_id) AS total_students` +
		assignmentsFrom + c.where()
	if page != nil {
		q += orderBy(page.Orderings, assignmentOrderColumns, "cct.id DESC") + c.page(*page)
	} else {
		q += " ORDER BY cct.id DESC"
	}

	var rows []assignmentRow
	if err := sqlx.SelectContext(ctx, exec, &rows, q, c.args...); err != nil {
		return nil, 0, errors.Wrap(err, "querying teacher assignments")
	}
	assignments := make([]enrollment.TeacherAssignment, 0, len(rows))
	for _, r := range rows {
		ta := enrollment.TeacherAssignment(r)
		ta.CreatedAt = ta.CreatedAt.UTC()
		assignments = append(assignments, ta)
	}
	return assignments, total, nil
}

func (repo *enrollmentRepository) QueryEnrolledStudents(ctx context.Context, classID, courseID int) ([]user.Person, error) {
	q := `SELECT s.id, s.name, s.email, s.auth_id, s.auth_provider, s.profile_picture, s.created_at, s.updated_at
		FROM class_course_students ccs
		JOIN students s ON s.id = ccs.student_id
		WHERE ccs.class_id = $1 AND ccs.course_id = $2
		ORDER BY s.name ASC, s.id ASC`
	var rows []personRow
	if err := sqlx.SelectContext(ctx, execFrom(ctx, repo.db), &rows, q, classID, courseID); err != nil {
		return nil, errors.Wrap(err, "querying enrolled students")
	}
	students := make([]user.Person, 0, len(rows))
	for _, r := range rows {
		students = append(students, r.unboil())
	}
	return students, nil
}
