// Package validation holds the shared validator instance and its English messages.
package validation

import (
	"errors"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	// Validate checks every service request; field names come from the form tag.
	Validate *validator.Validate
	// Translator renders validator failures in English.
	Translator ut.Translator

	locMu    sync.RWMutex
	location = time.UTC

	// Now is swapped in tests.
	Now = time.Now

	notFutureTag  = "notfuture"
	notFutureText = "{0} cannot be in the future"
)

func init() {
	Validate = validator.New()

	_en := en.New()
	uni := ut.New(_en, _en)
	Translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(Validate, Translator)

	// Form field names are what the user sees next to the input.
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"form", "json"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})

	_ = Validate.RegisterValidation(notFutureTag, notFuture)
	RegisterCustomTranslation(notFutureTag, notFutureText)
}

// SetLocation sets the timezone used to decide what "today" is.
func SetLocation(loc *time.Location) {
	if loc == nil {
		return
	}
	locMu.Lock()
	location = loc
	locMu.Unlock()
}

// Today returns the current calendar date in the configured timezone.
func Today() time.Time {
	locMu.RLock()
	loc := location
	locMu.RUnlock()
	now := Now().In(loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = Validate.RegisterTranslation(
		tag, Translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Message turns a validator error into a single human readable sentence.
func Message(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return verrs[0].Translate(Translator)
	}
	return err.Error()
}

// notFuture rejects dates after today. Zero values are left to "required".
func notFuture(fl validator.FieldLevel) bool {
	value, ok := fl.Field().Interface().(time.Time)
	if !ok {
		return false
	}
	if value.IsZero() {
		return true
	}
	today := Today()
	date := time.Date(value.Year(), value.Month(), value.Day(), 0, 0, 0, 0, today.Location())
	return !date.After(today)
}
