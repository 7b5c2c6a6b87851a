package enrollment

import (
	"context"

	"github.com/google/uuid"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
)

var (
	// errors
	ErrAssignmentNotFound = core.NewNotFoundError("teacher assignment not found")
	ErrTeacherAssigned    = core.NewConflictError("This teacher is already assigned to this class and course")
	ErrStudentHasClass    = core.NewConflictError("this student already belongs to a class")
	ErrStudentNotInClass  = core.NewValidationError(nil, core.FieldError{Field: "studentId", Error: "the student does not belong to this class"})
	ErrCourseNotInClass   = core.NewValidationError(nil, core.FieldError{Field: "courseId", Error: "the course is not offered to this class"})
)

type (
	Repository interface {
		// InsertLink fails with rel.ExistsErr() when the tuple already exists.
		InsertLink(ctx context.Context, rel Relation, l Link) (Link, error)
		// DeleteLinks deletes the rows matching every non-zero key of filter and returns them.
		DeleteLinks(ctx context.Context, rel Relation, filter Link) ([]Link, error)
		// QueryLinks returns the rows matching every non-zero key of filter, oldest first.
		QueryLinks(ctx context.Context, rel Relation, filter Link) ([]Link, error)

		// QueryTeacherAssignments returns class+course+teacher rows joined with their parents' names
		// and the number of students enrolled in the class+course. A nil PageQuery returns every row.
		QueryTeacherAssignments(ctx context.Context, filter AssignmentFilter, q *core.PageQuery) ([]TeacherAssignment, int, error)
		// QueryEnrolledStudents returns the students enrolled in a class+course.
		QueryEnrolledStudents(ctx context.Context, classID, courseID int) ([]user.Person, error)
	}

	Service struct {
		repo       Repository
		schoolRepo school.Repository
		userRepo   user.Repository
		tx         core.Transactor
	}
)

func NewService(repo Repository, schoolRepo school.Repository, userRepo user.Repository, tx core.Transactor) *Service {
	return &Service{
		repo:       repo,
		schoolRepo: schoolRepo,
		userRepo:   userRepo,
		tx:         tx,
	}
}

// checkExists fails with NotFound when a parent referenced by the link does not exist.
func (svc *Service) checkExists(ctx context.Context, rel Relation, l Link) error {
	if rel.HasTeacher() {
		if _, err := svc.userRepo.GetPerson(ctx, user.RoleTeacher, user.GetFilter{ID: l.TeacherID}); err != nil {
			return err
		}
	}
	if rel.HasStudent() {
		if _, err := svc.userRepo.GetPerson(ctx, user.RoleStudent, user.GetFilter{ID: l.StudentID}); err != nil {
			return err
		}
	}
	if rel.HasClass() {
		if _, err := svc.schoolRepo.GetClass(ctx, l.ClassID); err != nil {
			return err
		}
	}
	if rel.HasCourse() {
		if _, err := svc.schoolRepo.GetCourse(ctx, l.CourseID); err != nil {
			return err
		}
	}
	return nil
}

// checkUnique fails with the relation's Conflict error when another row holds the same tuple.
func (svc *Service) checkUnique(ctx context.Context, rel Relation, l Link, excludeID int) error {
	existing, err := svc.repo.QueryLinks(ctx, rel, l)
	if err != nil {
		return err
	}
	for _, ex := range existing {
		if ex.ID != excludeID {
			return rel.ExistsErr()
		}
	}
	return nil
}

// Assign links the parents named by ld. Every parent must exist and the tuple must be new.
// A class-to-student link enrolls the student in the courses of the class.
func (svc *Service) Assign(ctx context.Context, rel Relation, ld LinkData) (Link, error) {
	if err := ld.Validate(rel); err != nil {
		return Link{}, err
	}

	var link Link
	err := svc.tx.InTx(ctx, func(ctx context.Context) error {
		l := ld.link()
		if err := svc.checkExists(ctx, rel, l); err != nil {
			return err
		}

		switch rel {
		case ClassStudent:
			classes, err := svc.repo.QueryLinks(ctx, ClassStudent, Link{StudentID: l.StudentID})
			if err != nil {
				return err
			}
			if len(classes) > 0 {
				return ErrStudentHasClass
			}
			link, _, err = svc.enroll(ctx, l.StudentID, l.ClassID)
			return err

		case ClassCourseStudent:
			if err := svc.checkEnrollable(ctx, l); err != nil {
				return err
			}
		}

		if err := svc.checkUnique(ctx, rel, l, 0); err != nil {
			return err
		}
		l.CreatedAt = core.Now()
		var err error
		link, err = svc.repo.InsertLink(ctx, rel, l)
		return err
	})
	if err != nil {
		return Link{}, err
	}
	return link, nil
}

// checkEnrollable requires the student to belong to the class and the course to be offered to it.
func (svc *Service) checkEnrollable(ctx context.Context, l Link) error {
	members, err := svc.repo.QueryLinks(ctx, ClassStudent, Link{ClassID: l.ClassID, StudentID: l.StudentID})
	if err != nil {
		return err
	}
	if len(members) == 0 {
		return ErrStudentNotInClass
	}
	offered, err := svc.repo.QueryLinks(ctx, ClassCourse, Link{ClassID: l.ClassID, CourseID: l.CourseID})
	if err != nil {
		return err
	}
	if len(offered) == 0 {
		return ErrCourseNotInClass
	}
	return nil
}

// Unassign deletes the tuple named by ld. Deleting a missing tuple is a no-op returning no rows.
// Removing a class-to-student link also drops the student's enrollments in that class.
func (svc *Service) Unassign(ctx context.Context, rel Relation, ld LinkData) ([]Link, error) {
	if err := ld.Validate(rel); err != nil {
		return nil, err
	}

	var deleted []Link
	err := svc.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		l := ld.link()
		if deleted, err = svc.repo.DeleteLinks(ctx, rel, l); err != nil {
			return err
		}
		if rel == ClassStudent && len(deleted) > 0 {
			_, err = svc.repo.DeleteLinks(ctx, ClassCourseStudent, Link{ClassID: l.ClassID, StudentID: l.StudentID})
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	if deleted == nil {
		deleted = []Link{}
	}
	return deleted, nil
}

// QueryLinks lists the rows of a relation matching the non-zero keys of ld.
func (svc *Service) QueryLinks(ctx context.Context, rel Relation, ld LinkData) ([]Link, error) {
	links, err := svc.repo.QueryLinks(ctx, rel, ld.link())
	if err != nil {
		return nil, err
	}
	if links == nil {
		links = []Link{}
	}
	return links, nil
}

// enroll makes classID the only class of the student and enrolls them in exactly its courses.
// It must run inside a transaction.
func (svc *Service) enroll(ctx context.Context, studentID string, classID int) (Link, int, error) {
	if _, err := svc.repo.DeleteLinks(ctx, ClassCourseStudent, Link{StudentID: studentID}); err != nil {
		return Link{}, 0, err
	}
	if _, err := svc.repo.DeleteLinks(ctx, ClassStudent, Link{StudentID: studentID}); err != nil {
		return Link{}, 0, err
	}

	now := core.Now()
	link, err := svc.repo.InsertLink(ctx, ClassStudent, Link{ClassID: classID, StudentID: studentID, CreatedAt: now})
	if err != nil {
		return Link{}, 0, err
	}

	courses, err := svc.repo.QueryLinks(ctx, ClassCourse, Link{ClassID: classID})
	if err != nil {
		return Link{}, 0, err
	}
	for _, cc := range courses {
		l := Link{ClassID: classID, CourseID: cc.CourseID, StudentID: studentID, CreatedAt: now}
		if _, err = svc.repo.InsertLink(ctx, ClassCourseStudent, l); err != nil {
			return Link{}, 0, err
		}
	}
	return link, len(courses), nil
}

func (svc *Service) checkStudent(ctx context.Context, studentID string) error {
	if _, err := uuid.Parse(studentID); err != nil {
		return user.ErrNotFound
	}
	_, err := svc.userRepo.GetPerson(ctx, user.RoleStudent, user.GetFilter{ID: studentID})
	return err
}

// AssignStudentToClass moves the student to classID and enrolls them in every course of that class.
// It returns the number of courses the student got enrolled in.
func (svc *Service) AssignStudentToClass(ctx context.Context, studentID string, classID int) (int, error) {
	studentID = core.CleanString(studentID, true /* lower */)
	var count int
	err := svc.tx.InTx(ctx, func(ctx context.Context) error {
		if err := svc.checkStudent(ctx, studentID); err != nil {
			return err
		}
		if _, err := svc.schoolRepo.GetClass(ctx, classID); err != nil {
			return err
		}
		var err error
		_, count, err = svc.enroll(ctx, studentID, classID)
		return err
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// RemoveStudentFromClass drops the class of the student along with all of their course enrollments.
func (svc *Service) RemoveStudentFromClass(ctx context.Context, studentID string) error {
	studentID = core.CleanString(studentID, true /* lower */)
	return svc.tx.InTx(ctx, func(ctx context.Context) error {
		if err := svc.checkStudent(ctx, studentID); err != nil {
			return err
		}
		if _, err := svc.repo.DeleteLinks(ctx, ClassStudent, Link{StudentID: studentID}); err != nil {
			return err
		}
		_, err := svc.repo.DeleteLinks(ctx, ClassCourseStudent, Link{StudentID: studentID})
		return err
	})
}

// CoursesOfClass returns the courses offered to a class.
func (svc *Service) CoursesOfClass(ctx context.Context, classID int) ([]school.Course, error) {
	if _, err := svc.schoolRepo.GetClass(ctx, classID); err != nil {
		return nil, err
	}
	links, err := svc.repo.QueryLinks(ctx, ClassCourse, Link{ClassID: classID})
	if err != nil {
		return nil, err
	}
	ids := make([]int, 0, len(links))
	for _, l := range links {
		ids = append(ids, l.CourseID)
	}
	return svc.schoolRepo.CoursesByID(ctx, ids...)
}

// StudentEnrollment returns the class of a student and the courses they are enrolled in.
func (svc *Service) StudentEnrollment(ctx context.Context, studentID string) (StudentEnrollment, error) {
	se := StudentEnrollment{Courses: []school.Course{}}

	classes, err := svc.repo.QueryLinks(ctx, ClassStudent, Link{StudentID: studentID})
	if err != nil {
		return se, err
	}
	if len(classes) > 0 {
		class, err := svc.schoolRepo.GetClass(ctx, classes[0].ClassID)
		if err != nil {
			return se, err
		}
		se.Class = &class
	}

	links, err := svc.repo.QueryLinks(ctx, ClassCourseStudent, Link{StudentID: studentID})
	if err != nil {
		return se, err
	}
	ids := make([]int, 0, len(links))
	for _, l := range links {
		ids = append(ids, l.CourseID)
	}
	if se.Courses, err = svc.schoolRepo.CoursesByID(ctx, ids...); err != nil {
		return se, err
	}
	return se, nil
}

// IsEnrolled tells whether the student is enrolled in the class+course.
func (svc *Service) IsEnrolled(ctx context.Context, studentID string, classID, courseID int) (bool, error) {
	links, err := svc.repo.QueryLinks(ctx, ClassCourseStudent, Link{ClassID: classID, CourseID: courseID, StudentID: studentID})
	if err != nil {
		return false, err
	}
	return len(links) > 0, nil
}

// IsTeaching tells whether the teacher is assigned to the class+course.
func (svc *Service) IsTeaching(ctx context.Context, teacherID string, classID, courseID int) (bool, error) {
	links, err := svc.repo.QueryLinks(ctx, ClassCourseTeacher, Link{ClassID: classID, CourseID: courseID, TeacherID: teacherID})
	if err != nil {
		return false, err
	}
	return len(links) > 0, nil
}

// EnrolledStudents returns the students enrolled in the class+course.
func (svc *Service) EnrolledStudents(ctx context.Context, classID, courseID int) ([]user.Person, error) {
	return svc.repo.QueryEnrolledStudents(ctx, classID, courseID)
}

// StudentCourses returns the class+course pairs a student is enrolled in.
func (svc *Service) StudentCourses(ctx context.Context, studentID string) ([]Link, error) {
	return svc.repo.QueryLinks(ctx, ClassCourseStudent, Link{StudentID: studentID})
}
