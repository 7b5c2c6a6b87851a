package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/user"
)

const (
	adminColumns  = "id, username, password_hash, created_at, updated_at, last_login"
	personColumns = "id, name, email, auth_id, auth_provider, profile_picture, created_at, updated_at"
)

var personOrderColumns = map[string]string{
	"name":      "name",
	"email":     "email",
	"createdAt": "created_at",
}

type adminRow struct {
	ID           int       `db:"id"`
	Username     string    `db:"username"`
	PasswordHash []byte    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
	LastLogin    null.Time `db:"last_login"`
}

func (r adminRow) unboil() user.Admin {
	return user.Admin{
		ID:           r.ID,
		Username:     r.Username,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
		LastLogin:    null.NewTime(r.LastLogin.Time.UTC(), r.LastLogin.Valid),
	}
}

type personRow struct {
	ID             string      `db:"id"`
	Name           string      `db:"name"`
	Email          string      `db:"email"`
	AuthID         null.String `db:"auth_id"`
	AuthProvider   string      `db:"auth_provider"`
	ProfilePicture null.String `db:"profile_picture"`
	CreatedAt      time.Time   `db:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at"`
}

func (r personRow) unboil() user.Person {
	return user.Person{
		ID:             r.ID,
		Name:           r.Name,
		Email:          r.Email,
		AuthID:         r.AuthID,
		AuthProvider:   r.AuthProvider,
		ProfilePicture: r.ProfilePicture,
		CreatedAt:      r.CreatedAt.UTC(),
		UpdatedAt:      r.UpdatedAt.UTC(),
	}
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

func peopleTable(role user.Role) (string, error) {
	switch role {
	case user.RoleTeacher:
		return "teachers", nil
	case user.RoleStudent:
		return "students", nil
	}
	return "", user.ErrInvalidRole
}

// trapNoRowsErr maps "no rows" to notFound.
func trapNoRowsErr(err error, notFound error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	return errors.Wrap(err, msg)
}

func (repo *userRepository) GetAdmin(ctx context.Context, filter user.AdminFilter) (user.Admin, error) {
	q := "SELECT " + adminColumns + " FROM admins WHERE "
	var arg interface{}
	switch {
	case filter.ID != 0:
		q, arg = q+"id = $1", filter.ID
	case filter.Username != "":
		q, arg = q+"username = $1", filter.Username
	default:
		return user.Admin{}, user.ErrAdminNotFound
	}

	var row adminRow
	if err := sqlx.GetContext(ctx, execFrom(ctx, repo.db), &row, q, arg); err != nil {
		return user.Admin{}, trapNoRowsErr(err, user.ErrAdminNotFound, "getting admin")
	}
	return row.unboil(), nil
}

func (repo *userRepository) CreateAdmin(ctx context.Context, admin user.Admin) (user.Admin, error) {
	q := `INSERT INTO admins (username, password_hash, created_at, updated_at, last_login)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`
	err := sqlx.GetContext(ctx, execFrom(ctx, repo.db), &admin.ID, q,
		admin.Username, admin.PasswordHash, admin.CreatedAt, admin.UpdatedAt, admin.LastLogin)
	if err != nil {
		if isUniqueViolation(err) {
			return user.Admin{}, user.ErrUsernameExists
		}
		return user.Admin{}, errors.Wrap(err, "inserting admin")
	}
	return admin, nil
}

func (repo *userRepository) UpdateAdmin(ctx context.Context, admin user.Admin) (user.Admin, error) {
	q := `UPDATE admins SET username = $2, password_hash = $3, updated_at = $4, last_login = $5 WHERE id = $1`
	res, err := execFrom(ctx, repo.db).ExecContext(ctx, q,
		admin.ID, admin.Username, admin.PasswordHash, admin.UpdatedAt, admin.LastLogin)
	if err != nil {
		if isUniqueViolation(err) {
			return user.Admin{}, user.ErrUsernameExists
		}
		return user.Admin{}, errors.Wrap(err, "updating admin")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return user.Admin{}, user.ErrAdminNotFound
	}
	return admin, nil
}

func (repo *userRepository) CreatePerson(ctx context.Context, role user.Role, p user.Person) (user.Person, error) {
	table, err := peopleTable(role)
	if err != nil {
		return user.Person{}, err
	}
	q := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`, table, personColumns)
	_, err = execFrom(ctx, repo.db).ExecContext(ctx, q,
		p.ID, p.Name, p.Email, p.AuthID, p.AuthProvider, p.ProfilePicture, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return user.Person{}, user.ErrEmailExists
		}
		return user.Person{}, errors.Wrapf(err, "inserting %s", role)
	}
	return p, nil
}

func (repo *userRepository) GetPerson(ctx context.Context, role user.Role, filter user.GetFilter) (user.Person, error) {
	table, err := peopleTable(role)
	if err != nil {
		return user.Person{}, err
	}
	q := fmt.Sprintf("SELECT %s FROM %s WHERE ", personColumns, table)
	var args []interface{}
	switch {
	case filter.ID != "" && filter.Email != "":
		q, args = q+"id = $1 AND email = $2", []interface{}{filter.ID, filter.Email}
	case filter.ID != "":
		q, args = q+"id = $1", []interface{}{filter.ID}
	case filter.Email != "":
		q, args = q+"email = $1", []interface{}{filter.Email}
	default:
		return user.Person{}, user.ErrNotFound
	}

	var row personRow
	if err = sqlx.GetContext(ctx, execFrom(ctx, repo.db), &row, q, args...); err != nil {
		return user.Person{}, trapNoRowsErr(err, user.ErrNotFound, "getting "+string(role))
	}
	return row.unboil(), nil
}

func (repo *userRepository) UpdatePerson(ctx context.Context, role user.Role, p user.Person) (user.Person, error) {
	table, err := peopleTable(role)
	if err != nil {
		return user.Person{}, err
	}
	q := fmt.Sprintf(`UPDATE %s
		SET name = $2, email = $3, auth_id = $4, auth_provider = $5, profile_picture = $6, updated_at = $7
		WHERE id = $1`, table)
	res, err := execFrom(ctx, repo.db).ExecContext(ctx, q,
		p.ID, p.Name, p.Email, p.AuthID, p.AuthProvider, p.ProfilePicture, p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return user.Person{}, user.ErrEmailExists
		}
		return user.Person{}, errors.Wrapf(err, "updating %s", role)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return user.Person{}, user.ErrNotFound
	}
	return p, nil
}

func (repo *userRepository) QueryPeople(ctx context.Context, role user.Role, page core.PageQuery) ([]user.Person, int, error) {
	table, err := peopleTable(role)
	if err != nil {
		return nil, 0, err
	}
	where := ""
	var args []interface{}
	if page.Search != "" {
		where = " WHERE name ILIKE $1 OR email ILIKE $1"
		args = append(args, likePattern(page.Search))
	}
	exec := execFrom(ctx, repo.db)

	var total int
	if err = sqlx.GetContext(ctx, exec, &total, "SELECT COUNT(*) FROM "+table+where, args...); err != nil {
		return nil, 0, errors.Wrapf(err, "counting %s", table)
	}

	q := fmt.Sprintf("SELECT %s FROM %s%s%s LIMIT $%d OFFSET $%d",
		personColumns, table, where, orderBy(page.Orderings, personOrderColumns, "name ASC, id ASC"), len(args)+1, len(args)+2)
	var rows []personRow
	if err = sqlx.SelectContext(ctx, exec, &rows, q, append(args, page.Limit, page.Offset())...); err != nil {
		return nil, 0, errors.Wrapf(err, "querying %s", table)
	}

	people := make([]user.Person, 0, len(rows))
	for _, r := range rows {
		people = append(people, r.unboil())
	}
	return people, total, nil
}

// DeletePerson relies on the ON DELETE CASCADE foreign keys to drop links, quizzes and marks.
func (repo *userRepository) DeletePerson(ctx context.Context, role user.Role, id string) error {
	table, err := peopleTable(role)
	if err != nil {
		return err
	}
	res, err := execFrom(ctx, repo.db).ExecContext(ctx, "DELETE FROM "+table+" WHERE id = $1", id)
	if err != nil {
		return errors.Wrapf(err, "deleting %s", role)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return user.ErrNotFound
	}
	return nil
}
