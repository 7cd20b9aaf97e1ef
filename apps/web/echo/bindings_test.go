package echoweb

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/schoolsite/core/crud"
	"github.com/trezcool/schoolsite/core/school"
)

func Test_parseNumber(t *testing.T) {
	tests := []struct {
		name string
		val  string
		want interface{}
	}{
		{name: "blank", val: "  ", want: nil},
		{name: "integer", val: "3", want: int64(3)},
		{name: "integral float", val: "4.0", want: int64(4)},
		{name: "float", val: "2.5", want: 2.5},
		{name: "not a number", val: "abc", want: "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseNumber(tt.val); got != tt.want {
				t.Errorf("parseNumber() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBindDraft(t *testing.T) {
	form := url.Values{
		"first_name":    {"Kavita"},
		"department":    {"ignored"},
		"department_id": {"2"},
		"unknown":       {"x"},
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	ctx := echo.New().NewContext(req, httptest.NewRecorder())

	draft, err := BindDraft(ctx, school.StaffMember(nil, school.Options{}).Schema)
	require.NoError(t, err)
	assert.Equal(t, crud.Record{"first_name": "Kavita", "department_id": "2"}, draft)
}
