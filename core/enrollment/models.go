package enrollment

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/school"
)

// Relation is one of the junction tables of the assignment graph.
type Relation string

// Relations, named after their URL slugs
const (
	ClassCourse        Relation = "course-to-class"
	ClassTeacher       Relation = "class-to-teacher"
	CourseTeacher      Relation = "course-to-teacher"
	ClassStudent       Relation = "class-to-student"
	ClassCourseTeacher Relation = "class-course-teacher"
	ClassCourseStudent Relation = "class-course-student"
)

type relationInfo struct {
	table                           string
	class, course, teacher, student bool
	existsErr                       error
}

var relations = map[Relation]relationInfo{
	ClassCourse: {
		table: "class_courses", class: true, course: true,
		existsErr: core.NewConflictError("this course is already assigned to this class"),
	},
	ClassTeacher: {
		table: "class_teachers", class: true, teacher: true,
		existsErr: core.NewConflictError("this teacher is already assigned to this class"),
	},
	CourseTeacher: {
		table: "course_teachers", course: true, teacher: true,
		existsErr: core.NewConflictError("this teacher is already assigned to this course"),
	},
	ClassStudent: {
		table: "class_students", class: true, student: true,
		existsErr: ErrStudentHasClass,
	},
	ClassCourseTeacher: {
		table: "class_course_teachers", class: true, course: true, teacher: true,
		existsErr: ErrTeacherAssigned,
	},
	ClassCourseStudent: {
		table: "class_course_students", class: true, course: true, student: true,
		existsErr: core.NewConflictError("this student is already enrolled in this course"),
	},
}

// Relations lists every relation of the assignment graph.
var Relations = []Relation{ClassCourse, ClassTeacher, CourseTeacher, ClassStudent, ClassCourseTeacher, ClassCourseStudent}

func ParseRelation(s string) (Relation, bool) {
	rel := Relation(core.CleanString(s, true /* lower */))
	_, ok := relations[rel]
	return rel, ok
}

// Table returns the name of the junction table backing the relation.
func (r Relation) Table() string { return relations[r].table }

func (r Relation) HasClass() bool   { return relations[r].class }
func (r Relation) HasCourse() bool  { return relations[r].course }
func (r Relation) HasTeacher() bool { return relations[r].teacher }
func (r Relation) HasStudent() bool { return relations[r].student }

// ExistsErr is the Conflict error returned when a tuple of the relation already exists.
func (r Relation) ExistsErr() error { return relations[r].existsErr }

// Link is one row of a junction table. Keys a relation does not carry are zero.
type Link struct {
	ID        int       `json:"id"`
	ClassID   int       `json:"classId,omitempty"`
	CourseID  int       `json:"courseId,omitempty"`
	TeacherID string    `json:"teacherId,omitempty"`
	StudentID string    `json:"studentId,omitempty"`
	CreatedAt time.Time `json:"createdAt"` // UTC
}

// Matches tells whether every non-zero key of filter equals the link's.
func (l Link) Matches(filter Link) bool {
	return (filter.ID == 0 || filter.ID == l.ID) &&
		(filter.ClassID == 0 || filter.ClassID == l.ClassID) &&
		(filter.CourseID == 0 || filter.CourseID == l.CourseID) &&
		(filter.TeacherID == "" || filter.TeacherID == l.TeacherID) &&
		(filter.StudentID == "" || filter.StudentID == l.StudentID)
}

// LinkData is the payload identifying one tuple of a relation.
type LinkData struct {
	ClassID   int    `json:"classId"`
	CourseID  int    `json:"courseId"`
	TeacherID string `json:"teacherId"`
	StudentID string `json:"studentId"`
}

var errInvalidLink = errors.New("invalid assignment")

// Validate checks that every key of the relation is set, and drops the keys it does not carry.
func (ld *LinkData) Validate(rel Relation) error {
	ld.TeacherID = core.CleanString(ld.TeacherID, true /* lower */)
	ld.StudentID = core.CleanString(ld.StudentID, true /* lower */)

	var flds []core.FieldError
	if rel.HasClass() {
		if ld.ClassID <= 0 {
			flds = append(flds, core.FieldError{Field: "classId", Error: "classId is required"})
		}
	} else {
		ld.ClassID = 0
	}
	if rel.HasCourse() {
		if ld.CourseID <= 0 {
			flds = append(flds, core.FieldError{Field: "courseId", Error: "courseId is required"})
		}
	} else {
		ld.CourseID = 0
	}
	if rel.HasTeacher() {
		if _, err := uuid.Parse(ld.TeacherID); err != nil {
			flds = append(flds, core.FieldError{Field: "teacherId", Error: "teacherId must be a valid UUID"})
		}
	} else {
		ld.TeacherID = ""
	}
	if rel.HasStudent() {
		if _, err := uuid.Parse(ld.StudentID); err != nil {
			flds = append(flds, core.FieldError{Field: "studentId", Error: "studentId must be a valid UUID"})
		}
	} else {
		ld.StudentID = ""
	}

	if len(flds) > 0 {
		return core.NewValidationError(errInvalidLink, flds...)
	}
	return nil
}

func (ld LinkData) link() Link {
	return Link{ClassID: ld.ClassID, CourseID: ld.CourseID, TeacherID: ld.TeacherID, StudentID: ld.StudentID}
}

// TeacherAssignment is a class+course+teacher row with the names of its parents.
type TeacherAssignment struct {
	ID            int       `json:"id"`
	ClassID       int       `json:"classId"`
	CourseID      int       `json:"courseId"`
	TeacherID     string    `json:"teacherId"`
	ClassName     string    `json:"className"`
	CourseName    string    `json:"courseName"`
	TeacherName   string    `json:"teacherName"`
	TeacherEmail  string    `json:"teacherEmail"`
	TotalStudents int       `json:"totalStudents"`
	CreatedAt     time.Time `json:"createdAt"` // UTC
}

// TeacherAssignmentData is the payload used to create or change a teacher assignment.
// On update, zero fields keep their current value.
type TeacherAssignmentData struct {
	ClassID   int    `json:"classId"`
	CourseID  int    `json:"courseId"`
	TeacherID string `json:"teacherId"`
}

type AssignmentFilter struct {
	ID        int
	TeacherID string
}

// StudentEnrollment is the class of a student and the courses they are enrolled in.
type StudentEnrollment struct {
	Class   *school.Class   `json:"class"`
	Courses []school.Course `json:"courses"`
}
