package core

import (
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	// custom validation tags & texts
	NotBlankTag  = "notblank"
	notBlankText = "{0} is required"

	DateLikeTag  = "datelike"
	dateLikeText = "{0} must be a valid date"

	requiredTag     = "required"
	requiredWithTag = "required_with"
	requiredText    = "this field is required"
)

// NewValidator returns a validator and its English translator with every custom tag registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	enLocale := en.New()
	translator, _ := ut.New(enLocale, enLocale).GetTranslator("en")
	InitValidators(validate, translator)
	return validate, translator
}

// InitValidators instantiates the validator for use.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use form/JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, key := range []string{"form", "json"} {
			name := strings.SplitN(fld.Tag.Get(key), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})

	// register custom validators
	_ = validate.RegisterValidation(NotBlankTag, notBlankValidation, true)
	RegisterCustomTranslation(validate, translator, NotBlankTag, notBlankText)

	_ = validate.RegisterValidation(DateLikeTag, dateLikeValidation)
	RegisterCustomTranslation(validate, translator, DateLikeTag, dateLikeText)

	RegisterCustomTranslation(validate, translator, requiredTag, requiredText, true)
	RegisterCustomTranslation(validate, translator, requiredWithTag, requiredText, true)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// TranslateTag renders the message registered for tag with label as its parameter.
func TranslateTag(translator ut.Translator, tag, label string) string {
	s, err := translator.T(tag, label)
	if err != nil {
		return label + " is invalid"
	}
	return s
}

// Custom Global Validators

// notBlankValidation fails on nil and on empty or whitespace-only strings.
func notBlankValidation(fl validator.FieldLevel) bool {
	field := fl.Field()
	switch field.Kind() {
	case reflect.Invalid:
		return false
	case reflect.String:
		return strings.TrimSpace(field.String()) != ""
	case reflect.Ptr, reflect.Interface:
		if field.IsNil() {
			return false
		}
		return !IsBlank(field.Elem().Interface())
	}
	return true
}

// dateLikeValidation accepts anything ParseDate can read.
func dateLikeValidation(fl validator.FieldLevel) bool {
	return IsDate(fl.Field().Interface())
}
