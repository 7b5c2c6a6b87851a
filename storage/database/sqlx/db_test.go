package sqlxrepos

import (
	"testing"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/enrollment"
)

func Test_orderBy(t *testing.T) {
	tests := []struct {
		name      string
		orderings []core.DBOrdering
		want      string
	}{
		{name: "fallback only", want: " ORDER BY cct.id DESC"},
		{
			name:      "whitelisted fields",
			orderings: []core.DBOrdering{{Field: "className", Ascending: true}, {Field: "createdAt"}},
			want:      " ORDER BY c.name ASC, cct.created_at DESC, cct.id DESC",
		},
		{
			name:      "unknown fields are ignored",
			orderings: []core.DBOrdering{{Field: "password", Ascending: true}, {Field: "c.name; DROP TABLE classes"}, {Field: "teacherName", Ascending: true}},
			want:      " ORDER BY t.name ASC, cct.id DESC",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, orderBy(tt.orderings, assignmentOrderColumns, "cct.id DESC"))
		})
	}
}

func Test_conds(t *testing.T) {
	c := &conds{}
	assert.Equal(t, "", c.where())

	c.add("class_id = $%d", 3)
	c.add("(name ILIKE $%[1]d OR email ILIKE $%[1]d)", "%ama%")
	assert.Equal(t, " WHERE class_id = $1 AND (name ILIKE $2 OR email ILIKE $2)", c.where())

	q := core.PageQuery{Page: 3, Limit: 20}
	assert.Equal(t, " LIMIT $3 OFFSET $4", c.page(q))
	assert.Equal(t, []interface{}{3, "%ama%", 20, 40}, c.args)
}

func Test_filterConds(t *testing.T) {
	tests := []struct {
		name      string
		rel       enrollment.Relation
		filter    enrollment.Link
		wantWhere string
		wantArgs  []interface{}
	}{
		{name: "no filter", rel: enrollment.ClassCourse, wantWhere: ""},
		{
			name:      "id",
			rel:       enrollment.ClassCourseTeacher,
			filter:    enrollment.Link{ID: 7},
			wantWhere: " WHERE id = $1",
			wantArgs:  []interface{}{7},
		},
		{
			name:      "keys of the relation only",
			rel:       enrollment.ClassStudent,
			filter:    enrollment.Link{ClassID: 2, CourseID: 5, StudentID: "s-1"},
			wantWhere: " WHERE class_id = $1 AND student_id = $2",
			wantArgs:  []interface{}{2, "s-1"},
		},
		{
			name:      "zero keys are skipped",
			rel:       enrollment.ClassCourseTeacher,
			filter:    enrollment.Link{CourseID: 5, TeacherID: "t-1"},
			wantWhere: " WHERE course_id = $1 AND teacher_id = $2",
			wantArgs:  []interface{}{5, "t-1"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := filterConds(tt.rel, tt.filter)
			assert.Equal(t, tt.wantWhere, c.where())
			assert.Equal(t, tt.wantArgs, c.args)
		})
	}
}

func Test_selectColumns(t *testing.T) {
	assert.Equal(t, "id, class_id, course_id, created_at", selectColumns(enrollment.ClassCourse))
	assert.Equal(t, "id, class_id, course_id, student_id, created_at", selectColumns(enrollment.ClassCourseStudent))
}

func Test_likePattern(t *testing.T) {
	assert.Equal(t, "%ama%", likePattern("ama"))
	assert.Equal(t, `%100\%\_a\\b%`, likePattern(`100%_a\b`))
}

func Test_isUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(errors.Wrap(&pq.Error{Code: uniqueViolation}, "inserting")))
	assert.False(t, isUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("boom")))
}
