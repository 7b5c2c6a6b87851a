package school

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shule/core"
)

// Kind tells classes and courses apart where both share the same storage shape.
type Kind string

const (
	KindClass  Kind = "class"
	KindCourse Kind = "course"
)

type Class struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"` // UTC
	UpdatedAt time.Time `json:"updatedAt"` // UTC
}

type Course struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"` // UTC
	UpdatedAt time.Time `json:"updatedAt"` // UTC
}

// NameData is the payload used to create or rename a class or a course.
type NameData struct {
	Name string `json:"name" validate:"required,notblank,max=100"`
}

func (nd *NameData) Validate(validate *validator.Validate) error {
	nd.Name = core.CleanString(nd.Name)
	return validate.Struct(nd)
}
