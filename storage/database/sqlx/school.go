package sqlxrepos

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/school"
)

const namedColumns = "id, name, created_at, updated_at"

var namedOrderColumns = map[string]string{
	"id":        "id",
	"name":      "name",
	"createdAt": "created_at",
}

// namedRow is a row of the classes or courses tables.
type namedRow struct {
	ID        int       `db:"id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r namedRow) class() school.Class {
	return school.Class{ID: r.ID, Name: r.Name, CreatedAt: r.CreatedAt.UTC(), UpdatedAt: r.UpdatedAt.UTC()}
}

func (r namedRow) course() school.Course {
	return school.Course(r.class())
}

type schoolRepository struct {
	db *sqlx.DB
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *sqlx.DB) school.Repository {
	return &schoolRepository{db: db}
}

type namedTable struct {
	name               string
	notFound, existErr error
}

var (
	classesTable = namedTable{name: "classes", notFound: school.ErrClassNotFound, existErr: school.ErrClassExists}
	coursesTable = namedTable{name: "courses", notFound: school.ErrCourseNotFound, existErr: school.ErrCourseExists}
)

func tableOf(kind school.Kind) namedTable {
	if kind == school.KindCourse {
		return coursesTable
	}
	return classesTable
}

func (repo *schoolRepository) NameTaken(ctx context.Context, kind school.Kind, name string, excludeID int) (bool, error) {
	q := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE LOWER(TRIM(name)) = LOWER(TRIM($1)) AND id <> $2)", tableOf(kind).name)
	var taken bool
	if err := sqlx.GetContext(ctx, execFrom(ctx, repo.db), &taken, q, name, excludeID); err != nil {
		return false, errors.Wrapf(err, "checking %s name", kind)
	}
	return taken, nil
}

func (repo *schoolRepository) create(ctx context.Context, t namedTable, r namedRow) (namedRow, error) {
	q := fmt.Sprintf("INSERT INTO %s (name, created_at, updated_at) VALUES ($1, $2, $3) RETURNING id", t.name)
	if err := sqlx.GetContext(ctx, execFrom(ctx, repo.db), &r.ID, q, r.Name, r.CreatedAt, r.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return namedRow{}, t.existErr
		}
		return namedRow{}, errors.Wrapf(err, "inserting into %s", t.name)
	}
	return r, nil
}

func (repo *schoolRepository) get(ctx context.Context, t namedTable, id int) (namedRow, error) {
	var r namedRow
	q := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", namedColumns, t.name)
	if err := sqlx.GetContext(ctx, execFrom(ctx, repo.db), &r, q, id); err != nil {
		return namedRow{}, trapNoRowsErr(err, t.notFound, "getting from "+t.name)
	}
	return r, nil
}

func (repo *schoolRepository) update(ctx context.Context, t namedTable, r namedRow) error {
	q := fmt.Sprintf("UPDATE %s SET name = $2, updated_at = $3 WHERE id = $1", t.name)
	res, err := execFrom(ctx, repo.db).ExecContext(ctx, q, r.ID, r.Name, r.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return t.existErr
		}
		return errors.Wrapf(err, "updating %s", t.name)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return t.notFound
	}
	return nil
}

// delete relies on the ON DELETE CASCADE foreign keys to drop links and quizzes.
func (repo *schoolRepository) delete(ctx context.Context, t namedTable, id int) error {
	res, err := execFrom(ctx, repo.db).ExecContext(ctx, "DELETE FROM "+t.name+" WHERE id = $1", id)
	if err != nil {
		return errors.Wrapf(err, "deleting from %s", t.name)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return t.notFound
	}
	return nil
}

func (repo *schoolRepository) query(ctx context.Context, t namedTable, page core.PageQuery) ([]namedRow, int, error) {
	where := ""
	var args []interface{}
	if page.Search != "" {
		where = " WHERE name ILIKE $1"
		args = append(args, likePattern(page.Search))
	}
	exec := execFrom(ctx, repo.db)

	var total int
	if err := sqlx.GetContext(ctx, exec, &total, "SELECT COUNT(*) FROM "+t.name+where, args...); err != nil {
		return nil, 0, errors.Wrapf(err, "counting %s", t.name)
	}

	q := fmt.Sprintf("SELECT %s FROM %s%s%s LIMIT $%d OFFSET $%d",
		namedColumns, t.name, where, orderBy(page.Orderings, namedOrderColumns, "name ASC, id ASC"), len(args)+1, len(args)+2)
	var rows []namedRow
	if err := sqlx.SelectContext(ctx, exec, &rows, q, append(args, page.Limit, page.Offset())...); err != nil {
		return nil, 0, errors.Wrapf(err, "querying %s", t.name)
	}
	return rows, total, nil
}

// byID returns the rows with the given ids ordered by name; all rows when all is set.
func (repo *schoolRepository) byID(ctx context.Context, t namedTable, all bool, ids ...int) ([]namedRow, error) {
	var rows []namedRow
	if !all && len(ids) == 0 {
		return rows, nil
	}

	q := fmt.Sprintf("SELECT %s FROM %s", namedColumns, t.name)
	var args []interface{}
	if !all {
		var err error
		if q, args, err = sqlx.In(q+" WHERE id IN (?)", ids); err != nil {
			return nil, errors.Wrap(err, "binding ids")
		}
		q = repo.db.Rebind(q)
	}
	if err := sqlx.SelectContext(ctx, execFrom(ctx, repo.db), &rows, q+" ORDER BY name ASC, id ASC", args...); err != nil {
		return nil, errors.Wrapf(err, "querying %s", t.name)
	}
	return rows, nil
}

func classes(rows []namedRow) []school.Class {
	cs := make([]school.Class, 0, len(rows))
	for _, r := range rows {
		cs = append(cs, r.class())
	}
	return cs
}

func courses(rows []namedRow) []school.Course {
	cs := make([]school.Course, 0, len(rows))
	for _, r := range rows {
		cs = append(cs, r.course())
	}
	return cs
}

// Classes

func (repo *schoolRepository) CreateClass(ctx context.Context, c school.Class) (school.Class, error) {
	r, err := repo.create(ctx, classesTable, namedRow(c))
	if err != nil {
		return school.Class{}, err
	}
	return r.class(), nil
}

func (repo *schoolRepository) GetClass(ctx context.Context, id int) (school.Class, error) {
	r, err := repo.get(ctx, classesTable, id)
	if err != nil {
		return school.Class{}, err
	}
	return r.class(), nil
}

func (repo *schoolRepository) UpdateClass(ctx context.Context, c school.Class) (school.Class, error) {
	if err := repo.update(ctx, classesTable, namedRow(c)); err != nil {
		return school.Class{}, err
	}
	return c, nil
}

func (repo *schoolRepository) DeleteClass(ctx context.Context, id int) error {
	return repo.delete(ctx, classesTable, id)
}

func (repo *schoolRepository) QueryClasses(ctx context.Context, page core.PageQuery) ([]school.Class, int, error) {
	rows, total, err := repo.query(ctx, classesTable, page)
	if err != nil {
		return nil, 0, err
	}
	return classes(rows), total, nil
}

func (repo *schoolRepository) ClassesByID(ctx context.Context, ids ...int) ([]school.Class, error) {
	rows, err := repo.byID(ctx, classesTable, false, ids...)
	if err != nil {
		return nil, err
	}
	return classes(rows), nil
}

func (repo *schoolRepository) AllClasses(ctx context.Context) ([]school.Class, error) {
	rows, err := repo.byID(ctx, classesTable, true)
	if err != nil {
		return nil, err
	}
	return classes(rows), nil
}

// Courses

func (repo *schoolRepository) CreateCourse(ctx context.Context, c school.Course) (school.Course, error) {
	r, err := repo.create(ctx, coursesTable, namedRow(c))
	if err != nil {
		return school.Course{}, err
	}
	return r.course(), nil
}

func (repo *schoolRepository) GetCourse(ctx context.Context, id int) (school.Course, error) {
	r, err := repo.get(ctx, coursesTable, id)
	if err != nil {
		return school.Course{}, err
	}
	return r.course(), nil
}

func (repo *schoolRepository) UpdateCourse(ctx context.Context, c school.Course) (school.Course, error) {
	if err := repo.update(ctx, coursesTable, namedRow(c)); err != nil {
		return school.Course{}, err
	}
	return c, nil
}

func (repo *schoolRepository) DeleteCourse(ctx context.Context, id int) error {
	return repo.delete(ctx, coursesTable, id)
}

func (repo *schoolRepository) QueryCourses(ctx context.Context, page core.PageQuery) ([]school.Course, int, error) {
	rows, total, err := repo.query(ctx, coursesTable, page)
	if err != nil {
		return nil, 0, err
	}
	return courses(rows), total, nil
}

func (repo *schoolRepository) CoursesByID(ctx context.Context, ids ...int) ([]school.Course, error) {
	rows, err := repo.byID(ctx, coursesTable, false, ids...)
	if err != nil {
		return nil, err
	}
	return courses(rows), nil
}

func (repo *schoolRepository) AllCourses(ctx context.Context) ([]school.Course, error) {
	rows, err := repo.byID(ctx, coursesTable, true)
	if err != nil {
		return nil, err
	}
	return courses(rows), nil
}
