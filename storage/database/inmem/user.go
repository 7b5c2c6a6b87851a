package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/enrollment"
	"github.com/trezcool/shule/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) GetAdmin(_ context.Context, filter user.AdminFilter) (admin user.Admin, err error) {
	err = user.ErrAdminNotFound
	repo.db.read(func(t *tables) {
		for _, a := range t.admins {
			if (filter.ID != 0 && a.ID == filter.ID) || (filter.Username != "" && a.Username == filter.Username) {
				admin, err = a, nil
				return
			}
		}
	})
	return admin, err
}

func (repo *userRepository) CreateAdmin(ctx context.Context, admin user.Admin) (user.Admin, error) {
	var err error
	repo.db.write(ctx, func(t *tables) {
		for _, a := range t.admins {
			if a.Username == admin.Username {
				err = user.ErrUsernameExists
				return
			}
		}
		admin.ID = t.nextID("admins")
		t.admins[admin.ID] = admin
	})
	if err != nil {
		return user.Admin{}, err
	}
	return admin, nil
}

func (repo *userRepository) UpdateAdmin(ctx context.Context, admin user.Admin) (user.Admin, error) {
	var err error
	repo.db.write(ctx, func(t *tables) {
		if _, ok := t.admins[admin.ID]; !ok {
			err = user.ErrAdminNotFound
			return
		}
		t.admins[admin.ID] = admin
	})
	if err != nil {
		return user.Admin{}, err
	}
	return admin, nil
}

func (repo *userRepository) CreatePerson(ctx context.Context, role user.Role, p user.Person) (user.Person, error) {
	var err error
	repo.db.write(ctx, func(t *tables) {
		rows, ok := t.people[role]
		if !ok {
			err = user.ErrInvalidRole
			return
		}
		for _, other := range rows {
			if other.Email == p.Email {
				err = user.ErrEmailExists
				return
			}
		}
		rows[p.ID] = p
	})
	if err != nil {
		return user.Person{}, err
	}
	return p, nil
}

func (repo *userRepository) GetPerson(_ context.Context, role user.Role, filter user.GetFilter) (p user.Person, err error) {
	err = user.ErrNotFound
	repo.db.read(func(t *tables) {
		if filter.ID != "" {
			if found, ok := t.people[role][filter.ID]; ok && (filter.Email == "" || found.Email == filter.Email) {
				p, err = found, nil
			}
			return
		}
		for _, found := range t.people[role] {
			if filter.Email != "" && found.Email == filter.Email {
				p, err = found, nil
				return
			}
		}
	})
	return p, err
}

func (repo *userRepository) UpdatePerson(ctx context.Context, role user.Role, p user.Person) (user.Person, error) {
	var err error
	repo.db.write(ctx, func(t *tables) {
		rows := t.people[role]
		if _, ok := rows[p.ID]; !ok {
			err = user.ErrNotFound
			return
		}
		for _, other := range rows {
			if other.ID != p.ID && other.Email == p.Email {
				err = user.ErrEmailExists
				return
			}
		}
		rows[p.ID] = p
	})
	if err != nil {
		return user.Person{}, err
	}
	return p, nil
}

var personCompare = map[string]func(a, b user.Person) int{
	"name":      func(a, b user.Person) int { return strings.Compare(a.Name, b.Name) },
	"email":     func(a, b user.Person) int { return strings.Compare(a.Email, b.Email) },
	"createdAt": func(a, b user.Person) int { return compareTime(a.CreatedAt, b.CreatedAt) },
}

func (repo *userRepository) QueryPeople(_ context.Context, role user.Role, q core.PageQuery) ([]user.Person, int, error) {
	var people []user.Person
	repo.db.read(func(t *tables) {
		for _, p := range t.people[role] {
			if q.Search == "" || containsFold(p.Name, q.Search) || containsFold(p.Email, q.Search) {
				people = append(people, p)
			}
		}
	})

	orderings := q.Orderings
	if len(orderings) == 0 {
		orderings = []core.DBOrdering{{Field: "name", Ascending: true}}
	}
	sort.SliceStable(people, func(i, j int) bool {
		for _, ord := range orderings {
			cmp, ok := personCompare[ord.Field]
			if !ok {
				continue
			}
			if c := cmp(people[i], people[j]); c != 0 {
				return (c < 0) == ord.Ascending
			}
		}
		return people[i].ID < people[j].ID
	})

	start, end := core.Paginate(len(people), q)
	return people[start:end], len(people), nil
}

// DeletePerson drops the account along with its links, quizzes and marks.
func (repo *userRepository) DeletePerson(ctx context.Context, role user.Role, id string) error {
	var err error
	repo.db.write(ctx, func(t *tables) {
		if _, ok := t.people[role][id]; !ok {
			err = user.ErrNotFound
			return
		}
		delete(t.people[role], id)

		t.deleteLinks(func(_ enrollment.Relation, l enrollment.Link) bool {
			return (role == user.RoleTeacher && l.TeacherID == id) || (role == user.RoleStudent && l.StudentID == id)
		})
		switch role {
		case user.RoleTeacher:
			for qid, qz := range t.quizzes {
				if qz.TeacherID == id {
					t.deleteQuiz(qid)
				}
			}
		case user.RoleStudent:
			for mid, m := range t.marks {
				if m.StudentID == id {
					delete(t.marks, mid)
				}
			}
		}
	})
	return err
}
