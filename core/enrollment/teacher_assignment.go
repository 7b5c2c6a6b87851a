package enrollment

import (
	"context"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/school"
)

// CreateTeacherAssignment assigns a teacher to a class+course.
func (svc *Service) CreateTeacherAssignment(ctx context.Context, data TeacherAssignmentData) (TeacherAssignment, error) {
	link, err := svc.Assign(ctx, ClassCourseTeacher, LinkData{
		ClassID:   data.ClassID,
		CourseID:  data.CourseID,
		TeacherID: data.TeacherID,
	})
	if err != nil {
		return TeacherAssignment{}, err
	}
	return svc.GetTeacherAssignment(ctx, link.ID)
}

func (svc *Service) GetTeacherAssignment(ctx context.Context, id int) (TeacherAssignment, error) {
	tas, _, err := svc.repo.QueryTeacherAssignments(ctx, AssignmentFilter{ID: id}, nil)
	if err != nil {
		return TeacherAssignment{}, err
	}
	if len(tas) == 0 {
		return TeacherAssignment{}, ErrAssignmentNotFound
	}
	return tas[0], nil
}

// QueryTeacherAssignments lists teacher assignments, all of them or those of one teacher.
func (svc *Service) QueryTeacherAssignments(ctx context.Context, teacherID string, q core.PageQuery) (core.Page, error) {
	q.Clean()
	tas, total, err := svc.repo.QueryTeacherAssignments(ctx, AssignmentFilter{TeacherID: teacherID}, &q)
	if err != nil {
		return core.Page{}, err
	}
	if tas == nil {
		tas = []TeacherAssignment{}
	}
	return core.NewPage(tas, total, q), nil
}

// TeacherAssignment returns one assignment of a teacher; NotFound when it belongs to someone else.
func (svc *Service) TeacherAssignment(ctx context.Context, teacherID string, id int) (TeacherAssignment, error) {
	ta, err := svc.GetTeacherAssignment(ctx, id)
	if err != nil {
		return TeacherAssignment{}, err
	}
	if ta.TeacherID != teacherID {
		return TeacherAssignment{}, ErrAssignmentNotFound
	}
	return ta, nil
}

// UpdateTeacherAssignment changes the class, course or teacher of an assignment.
// The row is replaced rather than edited, so the assignment gets a new id.
func (svc *Service) UpdateTeacherAssignment(ctx context.Context, id int, data TeacherAssignmentData) (TeacherAssignment, error) {
	var newID int
	err := svc.tx.InTx(ctx, func(ctx context.Context) error {
		olds, err := svc.repo.QueryLinks(ctx, ClassCourseTeacher, Link{ID: id})
		if err != nil {
			return err
		}
		if len(olds) == 0 {
			return ErrAssignmentNotFound
		}
		old := olds[0]

		ld := LinkData{ClassID: old.ClassID, CourseID: old.CourseID, TeacherID: old.TeacherID}
		if data.ClassID != 0 {
			ld.ClassID = data.ClassID
		}
		if data.CourseID != 0 {
			ld.CourseID = data.CourseID
		}
		if data.TeacherID != "" {
			ld.TeacherID = data.TeacherID
		}
		if err = ld.Validate(ClassCourseTeacher); err != nil {
			return err
		}
		l := ld.link()
		if l.ClassID == old.ClassID && l.CourseID == old.CourseID && l.TeacherID == old.TeacherID {
			newID = old.ID
			return nil
		}

		if err = svc.checkExists(ctx, ClassCourseTeacher, l); err != nil {
			return err
		}
		if err = svc.checkUnique(ctx, ClassCourseTeacher, l, old.ID); err != nil {
			return err
		}
		if _, err = svc.repo.DeleteLinks(ctx, ClassCourseTeacher, Link{ID: old.ID}); err != nil {
			return err
		}
		l.CreatedAt = core.Now()
		created, err := svc.repo.InsertLink(ctx, ClassCourseTeacher, l)
		if err != nil {
			return err
		}
		newID = created.ID
		return nil
	})
	if err != nil {
		return TeacherAssignment{}, err
	}
	return svc.GetTeacherAssignment(ctx, newID)
}

func (svc *Service) DeleteTeacherAssignment(ctx context.Context, id int) error {
	deleted, err := svc.repo.DeleteLinks(ctx, ClassCourseTeacher, Link{ID: id})
	if err != nil {
		return err
	}
	if len(deleted) == 0 {
		return ErrAssignmentNotFound
	}
	return nil
}

// AvailableClasses lists every class a teacher can be assigned to.
func (svc *Service) AvailableClasses(ctx context.Context) ([]school.Class, error) {
	return svc.schoolRepo.AllClasses(ctx)
}

// AvailableCourses lists every course a teacher can be assigned to.
func (svc *Service) AvailableCourses(ctx context.Context) ([]school.Course, error) {
	return svc.schoolRepo.AllCourses(ctx)
}

// CoursesByClass returns the courses offered to a class, or every course when none is assigned yet.
func (svc *Service) CoursesByClass(ctx context.Context, classID int) ([]school.Course, error) {
	courses, err := svc.CoursesOfClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	if len(courses) == 0 {
		return svc.schoolRepo.AllCourses(ctx)
	}
	return courses, nil
}
