package inmemdb

import (
	"context"

	"github.com/trezcool/schoolsite/core/school"
)

var _ school.DepartmentLister = (*DB)(nil)

// NewGateways returns one table per entity, named after the entity slug.
func NewGateways(db *DB) school.Gateways {
	return school.Gateways{
		Courses:  db.Table(school.Courses),
		Students: db.Table(school.Students),
		Teachers: db.Table(school.Teachers),
		Staff:    db.Table(school.Staff),
	}
}

// SetDepartments replaces the department options.
func (db *DB) SetDepartments(deps ...school.Department) {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	db.departments = append([]school.Department(nil), deps...)
}

func (db *DB) Departments(_ context.Context) ([]school.Department, error) {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	return append([]school.Department{}, db.departments...), nil
}

// Seed fills the empty entity tables with their samples, and the departments.
func Seed(db *DB) {
	for _, slug := range school.Slugs {
		if t := db.Table(slug); t.Len() == 0 {
			t.Insert(school.Samples(slug)...)
		}
	}
	db.SetDepartments(school.SampleDepartments()...)
}
