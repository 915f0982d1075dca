package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/datatypes"
)

var validate = validator.New()

// ValidateStruct checks `validate` tags on structs that do not go through
// gin binding and joins the failures into one error.
func ValidateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed on '%s'", fe.Field(), fe.Tag()))
	}
	return errors.New(strings.Join(msgs, "; "))
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (datatypes.Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return datatypes.Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return datatypes.Date(t), nil
}

// ParseOptionalDate returns nil for an empty string.
func ParseOptionalDate(s string) (*datatypes.Date, error) {
	if s == "" {
		return nil, nil
	}
	d, err := ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ParseClock parses an HH:MM time of day; empty means unset.
func ParseClock(s string) (*datatypes.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return nil, fmt.Errorf("invalid time %q: %w", s, err)
	}
	clock := datatypes.NewTime(t.Hour(), t.Minute(), 0, 0)
	return &clock, nil
}
