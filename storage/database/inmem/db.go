// Package inmemdb implements the repositories in memory. It backs the tests and local demos.
package inmemdb

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/enrollment"
	"github.com/trezcool/shule/core/quiz"
	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
)

type txKey struct{}

type tables struct {
	seq       map[string]int
	admins    map[int]user.Admin
	people    map[user.Role]map[string]user.Person
	classes   map[int]school.Class
	courses   map[int]school.Course
	links     map[enrollment.Relation]map[int]enrollment.Link
	quizzes   map[string]quiz.Quiz
	questions map[string]quiz.Question
	marks     map[string]quiz.Mark
	// insertion order of the rows keyed by uuid
	inserted map[string]int
}

func newTables() *tables {
	t := &tables{
		seq:       make(map[string]int),
		admins:    make(map[int]user.Admin),
		people:    map[user.Role]map[string]user.Person{user.RoleTeacher: {}, user.RoleStudent: {}},
		classes:   make(map[int]school.Class),
		courses:   make(map[int]school.Course),
		links:     make(map[enrollment.Relation]map[int]enrollment.Link),
		quizzes:   make(map[string]quiz.Quiz),
		questions: make(map[string]quiz.Question),
		marks:     make(map[string]quiz.Mark),
		inserted:  make(map[string]int),
	}
	for _, rel := range enrollment.Relations {
		t.links[rel] = make(map[int]enrollment.Link)
	}
	return t
}

// clone deep-copies the tables; rows are values so copying the maps is enough.
func (t *tables) clone() *tables {
	c := newTables()
	for k, v := range t.seq {
		c.seq[k] = v
	}
	for k, v := range t.admins {
		c.admins[k] = v
	}
	for role, rows := range t.people {
		for k, v := range rows {
			c.people[role][k] = v
		}
	}
	for k, v := range t.classes {
		c.classes[k] = v
	}
	for k, v := range t.courses {
		c.courses[k] = v
	}
	for rel, rows := range t.links {
		for k, v := range rows {
			c.links[rel][k] = v
		}
	}
	for k, v := range t.quizzes {
		c.quizzes[k] = v
	}
	for k, v := range t.questions {
		c.questions[k] = v
	}
	for k, v := range t.marks {
		c.marks[k] = v
	}
	for k, v := range t.inserted {
		c.inserted[k] = v
	}
	return c
}

func (t *tables) nextID(table string) int {
	t.seq[table]++
	return t.seq[table]
}

func (t *tables) markInserted(id string) {
	t.inserted[id] = t.nextID("inserted")
}

// DB is an in-memory database. Transactions are serialized and roll back by restoring a snapshot.
// Writes made outside a transaction wait for the running one to finish, so a rollback never drops them.
type DB struct {
	mu   sync.RWMutex
	txMu sync.Mutex
	data *tables
}

var _ core.Transactor = (*DB)(nil)

func NewDB() *DB {
	return &DB{data: newTables()}
}

// InTx runs fn in a transaction. Nested calls join the outer transaction.
func (db *DB) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}

	db.txMu.Lock()
	defer db.txMu.Unlock()

	db.mu.RLock()
	snapshot := db.data.clone()
	db.mu.RUnlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		db.mu.Lock()
		db.data = snapshot
		db.mu.Unlock()
		return err
	}
	return nil
}

// Reset drops every row.
func (db *DB) Reset() {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.data = newTables()
}

func (db *DB) read(fn func(t *tables)) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	fn(db.data)
}

func inTx(ctx context.Context) bool {
	return ctx.Value(txKey{}) != nil
}

// write applies fn to the tables. Outside a transaction it queues behind the running one.
func (db *DB) write(ctx context.Context, fn func(t *tables)) {
	if !inTx(ctx) {
		db.txMu.Lock()
		defer db.txMu.Unlock()
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	fn(db.data)
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func sameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func compareTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}

// deleteQuiz drops a quiz with its questions and marks.
func (t *tables) deleteQuiz(id string) {
	delete(t.quizzes, id)
	for qid, q := range t.questions {
		if q.QuizID == id {
			delete(t.questions, qid)
		}
	}
	for mid, m := range t.marks {
		if m.QuizID == id {
			delete(t.marks, mid)
		}
	}
}

func (t *tables) deleteLinks(match func(rel enrollment.Relation, l enrollment.Link) bool) {
	for rel, rows := range t.links {
		for id, l := range rows {
			if match(rel, l) {
				delete(rows, id)
			}
		}
	}
}
