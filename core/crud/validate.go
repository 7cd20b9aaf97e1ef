package crud

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/schoolsite/core"
)

var ErrInvalidDraft = errors.New("invalid input")

const numericTag = "numeric"

// Validator checks a draft against a schema before it is submitted.
type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

func NewValidator(validate *validator.Validate, translator ut.Translator) *Validator {
	return &Validator{validate: validate, translator: translator}
}

// Validate returns nil when draft can be submitted. Otherwise every failing column
// gets exactly one message, keyed by column key, in schema order.
func (v *Validator) Validate(schema Schema, draft Record) *core.ValidationError {
	var fields []core.FieldError
	for _, col := range schema.Form() {
		val := draft[col.Key]

		if col.Required && (val == nil || v.validate.Var(val, core.NotBlankTag) != nil) {
			fields = append(fields, core.FieldError{
				Field: col.Key,
				Error: core.TranslateTag(v.translator, core.NotBlankTag, col.Label),
			})
			continue
		}

		if col.Kind == KindNumber && !core.IsBlank(val) && v.validate.Var(val, numericTag) != nil {
			fields = append(fields, core.FieldError{
				Field: col.Key,
				Error: core.TranslateTag(v.translator, numericTag, col.Label),
			})
			continue
		}

		if col.Kind.IsDate() && !core.IsBlank(val) && v.validate.Var(val, core.DateLikeTag) != nil {
			fields = append(fields, core.FieldError{
				Field: col.Key,
				Error: core.TranslateTag(v.translator, core.DateLikeTag, col.Label),
			})
		}
	}

	if len(fields) == 0 {
		return nil
	}
	return &core.ValidationError{Err: ErrInvalidDraft, Fields: fields}
}
