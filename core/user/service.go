package user

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core"
)

var (
	// errors
	ErrNotFound           = core.NewNotFoundError("user not found")
	ErrAdminNotFound      = core.NewNotFoundError("admin not found")
	ErrEmailExists        = core.NewConflictError("a user with this email already exists")
	ErrUsernameExists     = core.NewConflictError("an admin with this username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTeacherAccount     = core.NewForbiddenError("You already have a teacher account, cannot login/signup as student")
	ErrStudentAccount     = core.NewForbiddenError("You already have a student account, cannot login/signup as teacher")
	ErrInvalidRole        = core.NewForbiddenError("invalid role")
)

type (
	Repository interface {
		GetAdmin(ctx context.Context, filter AdminFilter) (Admin, error)
		CreateAdmin(ctx context.Context, admin Admin) (Admin, error)
		UpdateAdmin(ctx context.Context, admin Admin) (Admin, error)

		CreatePerson(ctx context.Context, role Role, p Person) (Person, error)
		GetPerson(ctx context.Context, role Role, filter GetFilter) (Person, error)
		UpdatePerson(ctx context.Context, role Role, p Person) (Person, error)
		// QueryPeople returns one page of accounts and the total count.
		// PageQuery.Search does a case-insensitive match on one of Person.Name or Person.Email.
		QueryPeople(ctx context.Context, role Role, q core.PageQuery) ([]Person, int, error)
		DeletePerson(ctx context.Context, role Role, id string) error
	}

	// OAuthProvider is an external identity provider used to sign teachers and students in.
	OAuthProvider interface {
		AuthCodeURL(state string) string
		Profile(ctx context.Context, code string) (Profile, error)
	}

	Service struct {
		repo Repository
		tx   core.Transactor
	}
)

func NewService(repo Repository, tx core.Transactor) *Service {
	return &Service{repo: repo, tx: tx}
}

// Admins

// Authenticate checks an admin's credentials and records the login.
func (svc *Service) Authenticate(ctx context.Context, username, pwd string) (Admin, error) {
	admin, err := svc.repo.GetAdmin(ctx, AdminFilter{Username: core.CleanString(username, true /* lower */)})
	if err != nil {
		if core.IsNotFound(err) {
			return Admin{}, ErrInvalidCredentials
		}
		return Admin{}, err
	}
	if err = admin.CheckPassword(pwd); err != nil {
		return Admin{}, ErrInvalidCredentials
	}

	now := core.Now()
	admin.LastLogin = null.TimeFrom(now)
	admin.UpdatedAt = now
	return svc.repo.UpdateAdmin(ctx, admin)
}

func (svc *Service) GetAdmin(ctx context.Context, id int) (Admin, error) {
	return svc.repo.GetAdmin(ctx, AdminFilter{ID: id})
}

// SaveAdmin creates an admin, or resets the password of the existing one with the same username.
func (svc *Service) SaveAdmin(ctx context.Context, na NewAdmin) (Admin, bool, error) {
	now := core.Now()
	admin, err := svc.repo.GetAdmin(ctx, AdminFilter{Username: na.Username})
	created := false
	if err != nil {
		if !core.IsNotFound(err) {
			return Admin{}, false, err
		}
		admin = Admin{Username: na.Username, CreatedAt: now}
		created = true
	}
	if err = admin.SetPassword(na.Password); err != nil {
		return Admin{}, false, err
	}
	admin.UpdatedAt = now

	if created {
		admin, err = svc.repo.CreateAdmin(ctx, admin)
	} else {
		admin, err = svc.repo.UpdateAdmin(ctx, admin)
	}
	return admin, created, err
}

func (svc *Service) ResetAdminPassword(ctx context.Context, username, pwd string) error {
	admin, err := svc.repo.GetAdmin(ctx, AdminFilter{Username: core.CleanString(username, true /* lower */)})
	if err != nil {
		return err
	}
	if err = admin.SetPassword(pwd); err != nil {
		return err
	}
	admin.UpdatedAt = core.Now()
	_, err = svc.repo.UpdateAdmin(ctx, admin)
	return err
}

// Teachers & Students

func crossRoleErr(role Role) error {
	if role == RoleStudent {
		return ErrTeacherAccount
	}
	return ErrStudentAccount
}

// checkOtherRole rejects an email that is already registered under the other person role.
func (svc *Service) checkOtherRole(ctx context.Context, role Role, email string) error {
	_, err := svc.repo.GetPerson(ctx, role.Other(), GetFilter{Email: email})
	switch {
	case err == nil:
		return crossRoleErr(role)
	case core.IsNotFound(err):
		return nil
	default:
		return err
	}
}

// LoginOrSignup finds the teacher or student with the profile's email, creating it on first sign-in.
// A changed profile picture is saved.
func (svc *Service) LoginOrSignup(ctx context.Context, role Role, prof Profile) (Person, error) {
	if !role.IsPerson() {
		return Person{}, ErrInvalidRole
	}
	email := core.CleanString(prof.Email, true /* lower */)
	if email == "" {
		return Person{}, core.NewValidationError(errors.New("the identity provider did not share an email address"))
	}

	var p Person
	err := svc.tx.InTx(ctx, func(ctx context.Context) error {
		if err := svc.checkOtherRole(ctx, role, email); err != nil {
			return err
		}

		var err error
		p, err = svc.repo.GetPerson(ctx, role, GetFilter{Email: email})
		if err != nil {
			if !core.IsNotFound(err) {
				return err
			}
			now := core.Now()
			p, err = svc.repo.CreatePerson(ctx, role, Person{
				ID:             uuid.NewString(),
				Name:           profileName(prof, email),
				Email:          email,
				AuthID:         null.NewString(prof.AuthID, prof.AuthID != ""),
				AuthProvider:   AuthProviderGoogle,
				ProfilePicture: null.NewString(prof.Picture, prof.Picture != ""),
				CreatedAt:      now,
				UpdatedAt:      now,
			})
			return err
		}

		changed := false
		if prof.Picture != "" && prof.Picture != p.ProfilePicture.String {
			p.ProfilePicture = null.StringFrom(prof.Picture)
			changed = true
		}
		if prof.AuthID != "" && prof.AuthID != p.AuthID.String {
			p.AuthID = null.StringFrom(prof.AuthID)
			changed = true
		}
		if changed {
			p.UpdatedAt = core.Now()
			p, err = svc.repo.UpdatePerson(ctx, role, p)
		}
		return err
	})
	if err != nil {
		return Person{}, err
	}
	return p, nil
}

func profileName(prof Profile, email string) string {
	if name := core.CleanString(prof.Name); name != "" {
		return name
	}
	return email
}

// CreatePerson registers a teacher or a student by hand.
func (svc *Service) CreatePerson(ctx context.Context, role Role, np NewPerson) (Person, error) {
	if !role.IsPerson() {
		return Person{}, ErrInvalidRole
	}

	var p Person
	err := svc.tx.InTx(ctx, func(ctx context.Context) error {
		if err := svc.checkOtherRole(ctx, role, np.Email); err != nil {
			return err
		}
		if _, err := svc.repo.GetPerson(ctx, role, GetFilter{Email: np.Email}); err == nil {
			return ErrEmailExists
		} else if !core.IsNotFound(err) {
			return err
		}

		now := core.Now()
		var err error
		p, err = svc.repo.CreatePerson(ctx, role, Person{
			ID:             uuid.NewString(),
			Name:           np.Name,
			Email:          np.Email,
			AuthProvider:   AuthProviderGoogle,
			ProfilePicture: null.NewString(np.ProfilePicture, np.ProfilePicture != ""),
			CreatedAt:      now,
			UpdatedAt:      now,
		})
		return err
	})
	if err != nil {
		return Person{}, err
	}
	return p, nil
}

func (svc *Service) GetPerson(ctx context.Context, role Role, id string) (Person, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Person{}, ErrNotFound
	}
	return svc.repo.GetPerson(ctx, role, GetFilter{ID: id})
}

func (svc *Service) QueryPeople(ctx context.Context, role Role, q core.PageQuery) (core.Page, error) {
	q.Clean()
	people, total, err := svc.repo.QueryPeople(ctx, role, q)
	if err != nil {
		return core.Page{}, err
	}
	if people == nil {
		people = []Person{}
	}
	return core.NewPage(people, total, q), nil
}

func (svc *Service) DeletePerson(ctx context.Context, role Role, id string) error {
	if _, err := svc.GetPerson(ctx, role, id); err != nil {
		return err
	}
	return svc.repo.DeletePerson(ctx, role, id)
}
