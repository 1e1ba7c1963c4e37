package binder

import (
	"context"
	"reflect"
	"time"

	"github.com/go-playground/mold/v4"
	"github.com/go-playground/validator/v10"
	"github.com/locallibrary/catalog/pkg/identifiers"
	"github.com/locallibrary/catalog/pkg/models"
	"github.com/samber/lo"
)

const dateLayout = "2006-01-02"

// dateValidator ensures the value is a real calendar date in the format
// YYYY-MM-DD, or the empty string. The empty string is allowed so that a
// payload can clear a date; add `ne=` to the tag when the date is required.
func dateValidator(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	_, err := time.Parse(dateLayout, value)
	return err == nil
}

// isbn13Validator ensures the value is a 13 digit ISBN with a valid check
// digit. Pair it with the `isbn` modifier to accept hyphenated and ISBN-10
// input.
func isbn13Validator(fl validator.FieldLevel) bool {
	return identifiers.ValidateISBN13(fl.Field().String())
}

// isbnModifier normalizes an ISBN string in place.
func isbnModifier(_ context.Context, fl mold.FieldLevel) error {
	field := fl.Field()
	if field.Kind() != reflect.String || !field.CanSet() {
		return nil
	}
	field.SetString(identifiers.NormalizeISBN(field.String()))
	return nil
}

// loanStatusValidator ensures the value is one of the BookInstance status
// codes. Use `omitempty` to make the field optional.
func loanStatusValidator(fl validator.FieldLevel) bool {
	return lo.Contains(models.LoanStatuses, fl.Field().String())
}
