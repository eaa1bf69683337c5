package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	apperrors "github.com/zatekoja/servicehub/pkg/errors"
)

// Wire formats for scheduled slots
const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

var phoneRegex = regexp.MustCompile(`^\+?[0-9][0-9 ()\-]{6,19}$`)

// Validator checks request structs against their validate tags
type Validator struct {
	v *validator.Validate
}

// New builds a validator with the marketplace rules registered
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})

	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		value, ok := fl.Field().Interface().(string)
		return ok && strings.TrimSpace(value) != ""
	})

	_ = v.RegisterValidation("date", func(fl validator.FieldLevel) bool {
		value, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}
		_, err := time.Parse(DateLayout, value)
		return err == nil
	})

	_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		value, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}
		_, err := time.Parse(ClockLayout, value)
		return err == nil
	})

	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		value, ok := fl.Field().Interface().(string)
		return ok && phoneRegex.MatchString(strings.TrimSpace(value))
	})

	return &Validator{v: v}
}

// Struct validates s and converts failures into a validation AppError with per-field details
func (v *Validator) Struct(message string, s interface{}) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return apperrors.NewInternalError("failed to validate input", err)
	}

	fields := make(map[string]string, len(ve))
	names := make([]string, 0, len(ve))
	for _, fe := range ve {
		fields[fe.Field()] = fe.Tag()
		names = append(names, fe.Field())
	}

	return apperrors.NewFieldValidationError(message+": invalid "+strings.Join(names, ", "), fields)
}

// ParseSlot resolves a date and clock time in loc
func ParseSlot(date, clock string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DateLayout+" "+ClockLayout, date+" "+clock, loc)
	if err != nil {
		return time.Time{}, apperrors.NewValidationError("invalid scheduled date or time")
	}
	return t, nil
}
