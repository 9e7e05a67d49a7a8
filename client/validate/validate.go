// Package validate checks configuration and request models against their
// declared `validate` struct tags, reporting violations as [FieldErrors].
//
// Besides the stock validator tags it understands httptoken, satisfied by
// strings that are a valid HTTP token such as a method or header name.
package validate

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"golang.org/x/net/http/httpguts"
)

type engine struct {
	validate   *validator.Validate
	translator ut.Translator
}

var loadEngine = sync.OnceValue(func() engine {
	v := validator.New(validator.WithRequiredStructEnabled())

	translator, ok := ut.New(en.New(), en.New()).GetTranslator("en")
	if !ok {
		panic("validate: failed to get 'en' translator")
	}
	if err := en_translations.RegisterDefaultTranslations(v, translator); err != nil {
		panic(err)
	}

	v.RegisterTagNameFunc(jsonName)

	if err := v.RegisterValidation("httptoken", func(fl validator.FieldLevel) bool {
		return httpguts.ValidHeaderFieldName(fl.Field().String())
	}); err != nil {
		panic(err)
	}

	return engine{validate: v, translator: translator}
})

// jsonName reports fields under their json name.
func jsonName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	return name
}

// Check validates the provided model against its declared tags.
func Check(val any) error {
	e := loadEngine()

	err := e.validate.Struct(val)
	if err == nil {
		return nil
	}

	var verrors validator.ValidationErrors
	if !errors.As(err, &verrors) {
		return err
	}

	fields := make(FieldErrors, 0, len(verrors))
	for _, verror := range verrors {
		fields = append(fields, FieldError{
			Field: verror.Field(),
			Err:   e.message(verror),
		})
	}

	return fields
}

func (e engine) message(verror validator.FieldError) string {
	switch verror.Tag() {
	case "required":
		return "This field is required"
	case "httptoken":
		return verror.Field() + " must be an HTTP token"
	}
	return verror.Translate(e.translator)
}

// FieldError is a single violation on a named field.
type FieldError struct {
	Field string `json:"field"`
	Err   string `json:"error"`
}

// FieldErrors collects the violations found on one model.
type FieldErrors []FieldError

func (fe FieldErrors) Error() string {
	parts := make([]string, len(fe))
	for i, f := range fe {
		parts[i] = f.Field + ": " + f.Err
	}
	return strings.Join(parts, "; ")
}

// Fields returns the messages keyed by field name. A field violated more
// than once keeps its last message.
func (fe FieldErrors) Fields() map[string]string {
	m := make(map[string]string, len(fe))
	for _, f := range fe {
		m[f.Field] = f.Err
	}
	return m
}

// GetFieldErrors returns the FieldErrors wrapped in err, or nil.
func GetFieldErrors(err error) FieldErrors {
	var fe FieldErrors
	if !errors.As(err, &fe) {
		return nil
	}
	return fe
}
