// Package school configures the dashboard entities: courses, students, teachers and staff.
package school

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/schoolsite/core"
	"github.com/trezcool/schoolsite/core/crud"
)

// Entity slugs, as used in URLs and by the admin seed command.
const (
	Courses  = "courses"
	Students = "students"
	Teachers = "teachers"
	Staff    = "staff"
)

// Slugs lists the entities in sidebar order.
var Slugs = []string{Students, Courses, Teachers, Staff}

// LookupDepartments is the option list of the staff department input.
const LookupDepartments = "departments"

// EmailPolicy decides what an empty student email becomes on add.
type EmailPolicy string

const (
	EmailSpace EmailPolicy = "space" // a single space, for NOT NULL columns
	EmailNull  EmailPolicy = "null"
	EmailKeep  EmailPolicy = "keep"
)

var ErrUnknownPolicy = errors.New("unknown email policy")

func ParseEmailPolicy(s string) (EmailPolicy, error) {
	switch p := EmailPolicy(core.CleanString(s, true /* lower */)); p {
	case EmailSpace, EmailNull, EmailKeep:
		return p, nil
	case "":
		return EmailSpace, nil
	}
	return "", errors.Wrap(ErrUnknownPolicy, s)
}

type Options struct {
	ItemsPerPage int
	EmailOnEmpty EmailPolicy
}

// Gateways holds one gateway per entity.
type Gateways struct {
	Courses  crud.Gateway
	Students crud.Gateway
	Teachers crud.Gateway
	Staff    crud.Gateway
}

// Department is one option of the staff department input.
type Department struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// DepartmentLister is implemented by the storage backends.
type DepartmentLister interface {
	Departments(ctx context.Context) ([]Department, error)
}

// Entities returns the four entity configurations keyed by slug.
func Entities(gws Gateways, opts Options) map[string]crud.Entity {
	return map[string]crud.Entity{
		Courses:  Course(gws.Courses, opts),
		Students: Student(gws.Students, opts),
		Teachers: Teacher(gws.Teachers, opts),
		Staff:    StaffMember(gws.Staff, opts),
	}
}

func Course(gw crud.Gateway, opts Options) crud.Entity {
	return crud.Entity{
		Name:   "course",
		Plural: Courses,
		Title:  "Courses",
		Schema: crud.Schema{
			{Key: "name", Label: "Course Name", Required: true},
			{Key: "description", Label: "Description"},
			{Key: "credits", Label: "Credits", Kind: crud.KindNumber},
		},
		Gateway:      gw,
		Samples:      SampleCourses(),
		ItemsPerPage: opts.ItemsPerPage,
		Stamp: func(rec crud.Record, now time.Time) {
			rec["created_at"] = now.UTC().Format("2006-01-02T15:04:05.000Z07:00")
		},
	}
}

func Student(gw crud.Gateway, opts Options) crud.Entity {
	defaults := []crud.FieldDefault{
		{Key: "enrollment_date", Value: func(now time.Time) interface{} { return core.NowForInput(now) }},
	}
	switch opts.EmailOnEmpty {
	case EmailNull:
		defaults = append(defaults, crud.FieldDefault{Key: "email", Value: func(time.Time) interface{} { return nil }})
	case EmailKeep:
	default:
		defaults = append(defaults, crud.FieldDefault{Key: "email", Value: func(time.Time) interface{} { return " " }})
	}

	return crud.Entity{
		Name:   "student",
		Plural: Students,
		Title:  "Students",
		Schema: crud.Schema{
			{Key: "first_name", Label: "First Name", Required: true},
			{Key: "last_name", Label: "Last Name", Required: true},
			{Key: "email", Label: "Email", Kind: crud.KindEmail},
			{Key: "enrollment_date", Label: "Enrollment Date", Required: true, Kind: crud.KindDatetime, Render: core.FormatDate},
			{Key: "class", Label: "Class", Required: true},
		},
		Gateway:      gw,
		Samples:      SampleStudents(),
		ItemsPerPage: opts.ItemsPerPage,
		Defaults:     defaults,
	}
}

func Teacher(gw crud.Gateway, opts Options) crud.Entity {
	return crud.Entity{
		Name:   "teacher",
		Plural: Teachers,
		Title:  "Teachers",
		Schema: crud.Schema{
			{Key: "first_name", Label: "First Name"},
			{Key: "last_name", Label: "Last Name"},
			{Key: "email", Label: "Email", Kind: crud.KindEmail},
			{Key: "department", Label: "Department"},
		},
		Gateway:      gw,
		Samples:      SampleTeachers(),
		ItemsPerPage: opts.ItemsPerPage,
	}
}

func StaffMember(gw crud.Gateway, opts Options) crud.Entity {
	return crud.Entity{
		Name:   "staff",
		Plural: Staff,
		Title:  "Staff",
		Schema: crud.Schema{
			{Key: "first_name", Label: "First Name", Required: true},
			{Key: "last_name", Label: "Last Name", Required: true},
			{Key: "email", Label: "Email", Required: true, Kind: crud.KindEmail},
			{Key: "role", Label: "Role", Required: true},
			{Key: "department", Label: "Department", ReadOnly: true, Render: unknownIfEmpty},
			{Key: "department_id", Label: "Department", Required: true, Hidden: true, Lookup: LookupDepartments},
		},
		Gateway:      gw,
		Samples:      SampleStaff(),
		ItemsPerPage: opts.ItemsPerPage,
	}
}

func unknownIfEmpty(v interface{}) string {
	if s := strings.TrimSpace(crud.Stringify(v)); s != "" {
		return s
	}
	return "Unknown"
}
