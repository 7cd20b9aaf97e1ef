package inmemdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/schoolsite/core/crud"
	"github.com/trezcool/schoolsite/core/school"
)

func TestSeed(t *testing.T) {
	db := Open()
	db.Table(school.Courses).Insert(crud.Record{"name": "Existing"})

	Seed(db)
	Seed(db) // no duplicates

	tests := []struct {
		slug string
		want int
	}{
		{slug: school.Courses, want: 1},
		{slug: school.Students, want: len(school.SampleStudents())},
		{slug: school.Teachers, want: len(school.SampleTeachers())},
		{slug: school.Staff, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			if got := db.Table(tt.slug).Len(); got != tt.want {
				t.Errorf("Len() = %v, want %v", got, tt.want)
			}
		})
	}

	deps, err := db.Departments(context.Background())
	require.NoError(t, err)
	assert.Equal(t, school.SampleDepartments(), deps)
}

func TestNewGateways(t *testing.T) {
	db := Open()
	gws := NewGateways(db)

	_, err := gws.Students.Create(context.Background(), crud.Record{"first_name": "Rani"})
	require.NoError(t, err)
	assert.Equal(t, 1, db.Table(school.Students).Len())
	assert.Equal(t, 0, db.Table(school.Courses).Len())
}
