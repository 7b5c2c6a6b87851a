package user

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/shule/core"
)

type Role string

// Roles
const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

const AuthProviderGoogle = "google"

// IsPerson tells whether the role belongs to a teacher or a student account.
func (r Role) IsPerson() bool {
	return r == RoleTeacher || r == RoleStudent
}

// Other returns the opposite person role: teacher <-> student.
func (r Role) Other() Role {
	if r == RoleTeacher {
		return RoleStudent
	}
	return RoleTeacher
}

func ParseRole(s string) (Role, bool) {
	switch r := Role(core.CleanString(s, true /* lower */)); r {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return r, true
	}
	return "", false
}

type Admin struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"` // UTC
	UpdatedAt    time.Time `json:"updatedAt"` // UTC
	LastLogin    null.Time `json:"lastLogin"` // UTC
}

func (a *Admin) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.PasswordHash = hash
	return nil
}

func (a *Admin) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(a.PasswordHash, []byte(pwd))
}

// Person is a teacher or a student account.
type Person struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Email          string      `json:"email"`
	AuthID         null.String `json:"-"`
	AuthProvider   string      `json:"authProvider"`
	ProfilePicture null.String `json:"profilePicture"`
	CreatedAt      time.Time   `json:"createdAt"` // UTC
	UpdatedAt      time.Time   `json:"updatedAt"` // UTC
}

// Profile is the identity returned by an OAuth provider.
type Profile struct {
	AuthID  string
	Email   string
	Name    string
	Picture string
}

// NewAdmin contains information needed to create or update an Admin.
type NewAdmin struct {
	Username        string `json:"username" validate:"required,min=4,alphanum_"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

func (na *NewAdmin) Validate(validate *validator.Validate) error {
	na.Username = core.CleanString(na.Username, true /* lower */)
	return validate.Struct(na)
}

// NewPerson contains information needed to create a teacher or a student by hand.
type NewPerson struct {
	Name           string `json:"name" validate:"required,notblank,max=200"`
	Email          string `json:"email" validate:"required,email"`
	ProfilePicture string `json:"profilePicture" validate:"omitempty,url"`
}

func (np *NewPerson) Validate(validate *validator.Validate) error {
	np.Name = core.CleanString(np.Name)
	np.Email = core.CleanString(np.Email, true /* lower */)
	np.ProfilePicture = core.CleanString(np.ProfilePicture)
	return validate.Struct(np)
}

type AdminFilter struct {
	ID       int
	Username string
}

type GetFilter struct {
	ID    string
	Email string
}
