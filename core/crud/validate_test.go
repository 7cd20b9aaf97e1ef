package crud_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/schoolsite/core/crud"
	"github.com/trezcool/schoolsite/tests"
)

var studentSchema = crud.Schema{
	{Key: "first_name", Label: "First Name", Required: true},
	{Key: "email", Label: "Email"},
	{Key: "enrollment_date", Label: "Enrollment Date", Required: true, Kind: crud.KindDatetime},
	{Key: "graduation", Label: "Graduation", Kind: crud.KindDate},
	{Key: "credits", Label: "Credits", Required: true, Kind: crud.KindNumber},
	{Key: "active", Label: "Active", Required: true},
}

func validDraft() crud.Record {
	return crud.Record{
		"first_name":      "Rani",
		"enrollment_date": "2024-03-05T09:30",
		"credits":         3,
		"active":          false,
	}
}

func TestValidator_Validate(t *testing.T) {
	v := testutil.NewValidator()

	tests := []struct {
		name  string
		patch crud.Record
		drop  string
		want  map[string]string
	}{
		{name: "valid", patch: crud.Record{}},
		{name: "empty string", patch: crud.Record{"first_name": ""}, want: map[string]string{"first_name": "First Name is required"}},
		{name: "whitespace only", patch: crud.Record{"first_name": " \t "}, want: map[string]string{"first_name": "First Name is required"}},
		{name: "nil", patch: crud.Record{"first_name": nil}, want: map[string]string{"first_name": "First Name is required"}},
		{name: "absent", drop: "first_name", want: map[string]string{"first_name": "First Name is required"}},
		{name: "zero number is not empty", patch: crud.Record{"credits": 0}},
		{name: "false is not empty", patch: crud.Record{"active": false}},
		{name: "bad number", patch: crud.Record{"credits": "three"}, want: map[string]string{"credits": "Credits must be a valid numeric value"}},
		{name: "numeric string", patch: crud.Record{"credits": "4"}},
		{name: "bad required date", patch: crud.Record{"enrollment_date": "yesterday"}, want: map[string]string{"enrollment_date": "Enrollment Date must be a valid date"}},
		{name: "empty required date", patch: crud.Record{"enrollment_date": ""}, want: map[string]string{"enrollment_date": "Enrollment Date is required"}},
		{name: "bad optional date", patch: crud.Record{"graduation": "2024-13-40"}, want: map[string]string{"graduation": "Graduation must be a valid date"}},
		{name: "empty optional date", patch: crud.Record{"graduation": ""}},
		{name: "optional email may be empty", patch: crud.Record{"email": ""}},
		{
			name:  "one message per failing key",
			patch: crud.Record{"first_name": "  ", "enrollment_date": nil},
			want: map[string]string{
				"first_name":      "First Name is required",
				"enrollment_date": "Enrollment Date is required",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft := validDraft().Merge(tt.patch)
			if tt.drop != "" {
				delete(draft, tt.drop)
			}

			verr := v.Validate(studentSchema, draft)
			if tt.want == nil {
				assert.Nil(t, verr)
				return
			}
			require.NotNil(t, verr)
			assert.Equal(t, crud.ErrInvalidDraft, verr.Err)
			assert.Equal(t, tt.want, verr.FieldMap())
			assert.Len(t, verr.Fields, len(tt.want))
		})
	}
}

func TestValidator_Validate_skipsReadOnly(t *testing.T) {
	schema := crud.Schema{
		{Key: "department", Label: "Department", Required: true, ReadOnly: true},
		{Key: "department_id", Label: "Department", Required: true, Hidden: true},
	}
	verr := testutil.NewValidator().Validate(schema, crud.Record{})
	require.NotNil(t, verr)
	assert.Equal(t, map[string]string{"department_id": "Department is required"}, verr.FieldMap())
}
