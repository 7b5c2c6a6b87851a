package school

import (
	"context"

	"github.com/trezcool/shule/core"
)

var (
	// errors
	ErrClassNotFound  = core.NewNotFoundError("class not found")
	ErrCourseNotFound = core.NewNotFoundError("course not found")
	ErrClassExists    = core.NewConflictError("a class with this name already exists")
	ErrCourseExists   = core.NewConflictError("a course with this name already exists")
)

type (
	Repository interface {
		// NameTaken does a trimmed, case-insensitive name lookup among the rows of kind, excluding the row excludeID.
		NameTaken(ctx context.Context, kind Kind, name string, excludeID int) (bool, error)

		CreateClass(ctx context.Context, c Class) (Class, error)
		GetClass(ctx context.Context, id int) (Class, error)
		UpdateClass(ctx context.Context, c Class) (Class, error)
		DeleteClass(ctx context.Context, id int) error
		QueryClasses(ctx context.Context, q core.PageQuery) ([]Class, int, error)
		// ClassesByID returns the classes with the given ids ordered by name; none without ids.
		ClassesByID(ctx context.Context, ids ...int) ([]Class, error)
		AllClasses(ctx context.Context) ([]Class, error)

		CreateCourse(ctx context.Context, c Course) (Course, error)
		GetCourse(ctx context.Context, id int) (Course, error)
		UpdateCourse(ctx context.Context, c Course) (Course, error)
		DeleteCourse(ctx context.Context, id int) error
		QueryCourses(ctx context.Context, q core.PageQuery) ([]Course, int, error)
		// CoursesByID returns the courses with the given ids ordered by name; none without ids.
		CoursesByID(ctx context.Context, ids ...int) ([]Course, error)
		AllCourses(ctx context.Context) ([]Course, error)
	}

	Service struct {
		repo Repository
		tx   core.Transactor
	}
)

func NewService(repo Repository, tx core.Transactor) *Service {
	return &Service{repo: repo, tx: tx}
}

// checkName rejects a name already used by another row of the same kind.
func (svc *Service) checkName(ctx context.Context, kind Kind, name string, excludeID int) error {
	taken, err := svc.repo.NameTaken(ctx, kind, name, excludeID)
	if err != nil {
		return err
	}
	if taken {
		if kind == KindClass {
			return ErrClassExists
		}
		return ErrCourseExists
	}
	return nil
}

// Classes

func (svc *Service) CreateClass(ctx context.Context, nd NameData) (Class, error) {
	var c Class
	err := svc.tx.InTx(ctx, func(ctx context.Context) error {
		if err := svc.checkName(ctx, KindClass, nd.Name, 0); err != nil {
			return err
		}
		now := core.Now()
		var err error
		c, err = svc.repo.CreateClass(ctx, Class{Name: nd.Name, CreatedAt: now, UpdatedAt: now})
		return err
	})
	return c, err
}

func (svc *Service) GetClass(ctx context.Context, id int) (Class, error) {
	return svc.repo.GetClass(ctx, id)
}

func (svc *Service) UpdateClass(ctx context.Context, id int, nd NameData) (Class, error) {
	var c Class
	err := svc.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		if c, err = svc.repo.GetClass(ctx, id); err != nil {
			return err
		}
		if err = svc.checkName(ctx, KindClass, nd.Name, id); err != nil {
			return err
		}
		c.Name = nd.Name
		c.UpdatedAt = core.Now()
		c, err = svc.repo.UpdateClass(ctx, c)
		return err
	})
	return c, err
}

func (svc *Service) DeleteClass(ctx context.Context, id int) error {
	return svc.repo.DeleteClass(ctx, id)
}

func (svc *Service) QueryClasses(ctx context.Context, q core.PageQuery) (core.Page, error) {
	q.Clean()
	classes, total, err := svc.repo.QueryClasses(ctx, q)
	if err != nil {
		return core.Page{}, err
	}
	if classes == nil {
		classes = []Class{}
	}
	return core.NewPage(classes, total, q), nil
}

// Courses

func (svc *Service) CreateCourse(ctx context.Context, nd NameData) (Course, error) {
	var c Course
	err := svc.tx.InTx(ctx, func(ctx context.Context) error {
		if err := svc.checkName(ctx, KindCourse, nd.Name, 0); err != nil {
			return err
		}
		now := core.Now()
		var err error
		c, err = svc.repo.CreateCourse(ctx, Course{Name: nd.Name, CreatedAt: now, UpdatedAt: now})
		return err
	})
	return c, err
}

func (svc *Service) GetCourse(ctx context.Context, id int) (Course, error) {
	return svc.repo.GetCourse(ctx, id)
}

func (svc *Service) UpdateCourse(ctx context.Context, id int, nd NameData) (Course, error) {
	var c Course
	err := svc.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		if c, err = svc.repo.GetCourse(ctx, id); err != nil {
			return err
		}
		if err = svc.checkName(ctx, KindCourse, nd.Name, id); err != nil {
			return err
		}
		c.Name = nd.Name
		c.UpdatedAt = core.Now()
		c, err = svc.repo.UpdateCourse(ctx, c)
		return err
	})
	return c, err
}

func (svc *Service) DeleteCourse(ctx context.Context, id int) error {
	return svc.repo.DeleteCourse(ctx, id)
}

func (svc *Service) QueryCourses(ctx context.Context, q core.PageQuery) (core.Page, error) {
	q.Clean()
	courses, total, err := svc.repo.QueryCourses(ctx, q)
	if err != nil {
		return core.Page{}, err
	}
	if courses == nil {
		courses = []Course{}
	}
	return core.NewPage(courses, total, q), nil
}
