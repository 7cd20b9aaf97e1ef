package school_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/schoolsite/core/crud"
	"github.com/trezcool/schoolsite/core/school"
	"github.com/trezcool/schoolsite/storage/database/inmem"
	"github.com/trezcool/schoolsite/tests"
)

// Rani Verma is added without email nor enrollment date.
func TestStudent_ApplyDefaults(t *testing.T) {
	ent := school.Student(nil, school.Options{EmailOnEmpty: school.EmailSpace})
	draft := crud.Record{"first_name": "Rani", "last_name": "Verma", "email": "", "enrollment_date": nil, "class": "7th"}

	got := ent.ApplyDefaults(draft, testutil.FixedNow)

	assert.Equal(t, "2024-03-05T09:30", got["enrollment_date"])
	assert.Equal(t, " ", got["email"])
	assert.Equal(t, "Rani", got["first_name"])
	assert.Nil(t, draft["enrollment_date"], "the input draft is not modified")
}

func TestStudent_emailPolicy(t *testing.T) {
	tests := []struct {
		name    string
		policy  school.EmailPolicy
		email   interface{}
		present bool
	}{
		{name: "space", policy: school.EmailSpace, email: " ", present: true},
		{name: "default is space", policy: "", email: " ", present: true},
		{name: "null", policy: school.EmailNull, email: nil, present: true},
		{name: "keep", policy: school.EmailKeep, email: nil, present: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ent := school.Student(nil, school.Options{EmailOnEmpty: tt.policy})
			got := ent.ApplyDefaults(crud.Record{"first_name": "Rani"}, testutil.FixedNow)
			email, ok := got["email"]
			assert.Equal(t, tt.present, ok)
			assert.Equal(t, tt.email, email)
		})
	}

	ent := school.Student(nil, school.Options{})
	got := ent.ApplyDefaults(crud.Record{"email": "rani@example.com", "enrollment_date": "2023-08-15"}, testutil.FixedNow)
	assert.Equal(t, "rani@example.com", got["email"], "non-empty values are kept")
	assert.Equal(t, "2023-08-15", got["enrollment_date"])
}

func TestParseEmailPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    school.EmailPolicy
		wantErr bool
	}{
		{in: "", want: school.EmailSpace},
		{in: " NULL ", want: school.EmailNull},
		{in: "keep", want: school.EmailKeep},
		{in: "blank", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := school.ParseEmailPolicy(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseEmailPolicy() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseEmailPolicy() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStudent_Submit(t *testing.T) {
	table := inmemdb.Open().Table("student")
	eng, _ := testutil.NewEngine(school.Student(table, school.Options{}))
	ctx := context.Background()

	require.NoError(t, eng.OpenAdd())
	require.NoError(t, eng.SetFields(crud.Record{"first_name": "Rani", "last_name": "Verma", "email": "", "class": "7th"}))
	require.NoError(t, eng.Submit(ctx))

	res, err := table.List(ctx, crud.Page{Number: 1, Size: 10})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, " ", res.Items[0]["email"])
	assert.Equal(t, "2024-03-05T09:30", res.Items[0]["enrollment_date"])
}

// Listing teachers fails: the three built-in teachers are shown.
func TestTeacher_fallback(t *testing.T) {
	table := inmemdb.Open().Table("teacher")
	table.Fail(inmemdb.OpList)
	eng, _ := testutil.NewEngine(school.Teacher(table, school.Options{ItemsPerPage: 10}))

	eng.Load(context.Background())

	snap := eng.Snapshot()
	assert.Equal(t, crud.SourceFallback, snap.Source)
	assert.Equal(t, 3, snap.Window.Total)
	require.Len(t, snap.Records, 3)
	names := make([]string, 0, 3)
	for _, r := range snap.Records {
		names = append(names, r.Get("first_name"))
	}
	assert.Equal(t, []string{"Amrita", "Apoorva", "Atula"}, names)
}

func TestStaff_schema(t *testing.T) {
	ent := school.StaffMember(nil, school.Options{})

	grid := ent.Schema.Grid()
	assert.Equal(t, []string{"first_name", "last_name", "email", "role", "department"}, grid.Keys())
	form := ent.Schema.Form()
	assert.Equal(t, []string{"first_name", "last_name", "email", "role", "department_id"}, form.Keys())

	dept, ok := ent.Schema.Column("department")
	require.True(t, ok)
	assert.Equal(t, "Unknown", dept.Display(crud.Record{}))
	assert.Equal(t, "Unknown", dept.Display(crud.Record{"department": " "}))
	assert.Equal(t, "History", dept.Display(crud.Record{"department": "History"}))

	verr := testutil.NewValidator().Validate(ent.Schema, crud.Record{"first_name": "A", "last_name": "B", "email": "c@d.e", "role": "Clerk"})
	require.NotNil(t, verr)
	assert.Equal(t, map[string]string{"department_id": "Department is required"}, verr.FieldMap())
}

func TestEntities(t *testing.T) {
	ents := school.Entities(school.Gateways{}, school.Options{})
	require.Len(t, ents, len(school.Slugs))
	for _, slug := range school.Slugs {
		ent, ok := ents[slug]
		require.True(t, ok, slug)
		assert.Equal(t, slug, ent.Plural)
	}
	assert.Equal(t, "Loading students...", ents[school.Students].LoadingText(crud.ActionLoading))
	assert.Equal(t, "Deleting staff...", ents[school.Staff].LoadingText(crud.ActionDeleting))
	assert.Equal(t, "Add New Course", ents[school.Courses].AddTitle())
	assert.Len(t, school.SampleCourses(), 3)
	assert.Len(t, school.SampleStudents(), 3)
}
