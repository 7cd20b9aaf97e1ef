package inmemdb

import (
	"sync"

	"github.com/trezcool/schoolsite/core/school"
)

// DB is a set of named in-memory tables.
type DB struct {
	mutex  sync.Mutex
	tables map[string]*Table

	departments []school.Department
}

func Open() *DB {
	return &DB{tables: make(map[string]*Table)}
}

// Table returns the table name, creating it on first use.
func (db *DB) Table(name string) *Table {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	if t, ok := db.tables[name]; ok {
		return t
	}
	t := newTable(name)
	db.tables[name] = t
	return t
}
