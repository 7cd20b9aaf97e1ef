package school

import "github.com/trezcool/schoolsite/core/crud"

// Built-in datasets shown when listing fails. Each call returns fresh copies.

func SampleCourses() []crud.Record {
	return []crud.Record{
		{
			"id":          "1",
			"name":        "Introduction to Computer Science",
			"description": "A foundational course in computer science principles",
			"credits":     3,
			"created_at":  "2023-01-01T00:00:00Z",
		},
		{
			"id":          "2",
			"name":        "Advanced Mathematics",
			"description": "In-depth study of calculus and linear algebra",
			"credits":     4,
			"created_at":  "2023-01-02T00:00:00Z",
		},
		{
			"id":          "3",
			"name":        "World History",
			"description": "Comprehensive overview of global historical events",
			"credits":     3,
			"created_at":  "2023-01-03T00:00:00Z",
		},
	}
}

func SampleStudents() []crud.Record {
	return []crud.Record{
		{"id": "1", "first_name": "Rani", "last_name": "Verma", "email": "rverma@example.com", "enrollment_date": "2023-08-15", "class": "7th"},
		{"id": "2", "first_name": "Sumit", "last_name": "Sharma", "email": "ssharma@example.com", "enrollment_date": "2022-01-10", "class": "8th"},
		{"id": "3", "first_name": "Sunita", "last_name": "Singh", "email": "ssingh@example.com", "enrollment_date": "2023-05-25", "class": "6th"},
	}
}

func SampleTeachers() []crud.Record {
	return []crud.Record{
		{"id": "1", "first_name": "Amrita", "last_name": "Nag", "email": "amnag@example.com", "department": "Computer Science"},
		{"id": "2", "first_name": "Apoorva", "last_name": "Nag", "email": "apnag@example.com", "department": "Mathematics"},
		{"id": "3", "first_name": "Atula", "last_name": "Nag", "email": "atinag@example.com", "department": "History"},
	}
}

// SampleStaff is empty: staff rows reference departments that only exist remotely.
func SampleStaff() []crud.Record {
	return []crud.Record{}
}

// SampleDepartments seeds the department table of local databases.
func SampleDepartments() []Department {
	return []Department{
		{ID: "1", Name: "Computer Science"},
		{ID: "2", Name: "Mathematics"},
		{ID: "3", Name: "History"},
		{ID: "4", Name: "Administration"},
	}
}

// Samples returns the dataset of slug.
func Samples(slug string) []crud.Record {
	switch slug {
	case Courses:
		return SampleCourses()
	case Students:
		return SampleStudents()
	case Teachers:
		return SampleTeachers()
	case Staff:
		return SampleStaff()
	}
	return nil
}
