package validator

import (
	"errors"
	"log/slog"
	"maps"
	"regexp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
)

const (
	minPasswordLen = 8
	maxPasswordLen = 128
)

var reOTPCode = regexp.MustCompile(`^[0-9]{6}([0-9]{2})?$`)

// rule is a string-only custom tag with its English message.
type rule struct {
	tag     string
	message string
	valid   func(string) bool
}

var rules = []rule{
	{
		tag:     "password",
		message: "{0} must be 8-128 characters",
		valid: func(s string) bool {
			n := utf8.RuneCountInString(s)
			return n >= minPasswordLen && n <= maxPasswordLen
		},
	},
	{
		tag:     "otpcode",
		message: "{0} must be a 6 or 8 digit code",
		valid:   reOTPCode.MatchString,
	},
}

// ErrTranslatorNotFound indicates the requested translator is unavailable.
var ErrTranslatorNotFound = errors.New("translator not found")

// V10Validator implements Validator using go-playground/validator v10.
type V10Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

// V10ValidationError is a field-to-message map returned when validation fails.
//
// Keys are field names in snake_case to match typical JSON conventions.
type V10ValidationError map[string]string

// Error lists the failing fields in key order.
func (vs V10ValidationError) Error() string {
	if len(vs) == 0 {
		return "validation error"
	}

	parts := make([]string, 0, len(vs))
	for _, k := range slices.Sorted(maps.Keys(vs)) {
		parts = append(parts, k+": "+vs[k])
	}
	return "validation error: " + strings.Join(parts, "; ")
}

// Values returns the field error map.
func (vs V10ValidationError) Values() map[string]string {
	return vs
}

// NewV10Validator constructs a V10Validator with English translations and custom rules.
func NewV10Validator() (*V10Validator, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	enLang := en.New()
	uni := ut.New(enLang, enLang)
	enTrans, ok := uni.GetTranslator("en")
	if !ok {
		return nil, ErrTranslatorNotFound
	}

	if err := enTranslations.RegisterDefaultTranslations(validate, enTrans); err != nil {
		return nil, err
	}

	if err := registerRules(validate, enTrans); err != nil {
		return nil, err
	}

	return &V10Validator{
		validate:   validate,
		translator: enTrans,
	}, nil
}

// Validate checks the `validate` tags of data. Rule failures come back as a
// V10ValidationError keyed by snake_case field name; other errors, such as a
// non-struct argument, are returned as is.
func (v *V10Validator) Validate(data any) error {
	err := v.validate.Struct(data)

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := make(V10ValidationError, len(fieldErrs))
	for _, fe := range fieldErrs {
		out[toSnake(fe.Field())] = fe.Translate(v.translator)
	}
	return out
}

func registerRules(validate *validator.Validate, trans ut.Translator) error {
	for _, r := range rules {
		err := validate.RegisterValidation(r.tag, func(fl validator.FieldLevel) bool {
			s, ok := fl.Field().Interface().(string)
			return ok && r.valid(s)
		})
		if err != nil {
			return err
		}

		err = validate.RegisterTranslation(r.tag, trans,
			func(t ut.Translator) error { return t.Add(r.tag, r.message, false) },
			func(t ut.Translator, fe validator.FieldError) string {
				msg, err := t.T(fe.Tag(), fe.Field())
				if err != nil {
					slog.Warn("failed to translate validation error", "tag", fe.Tag(), "error", err)
					return fe.Error()
				}
				return msg
			},
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// toSnake turns Go field names into snake_case keys: ChallengeToken becomes
// challenge_token and UserID becomes user_id.
func toSnake(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s) + 4)

	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}

	return b.String()
}
