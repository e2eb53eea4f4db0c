package marketdata

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptySymbol is returned when an auction is constructed without a symbol
	ErrEmptySymbol = errors.New("symbol is empty")
	// ErrMissingField is returned when a required auction field is absent or null
	// after translation
	ErrMissingField = errors.New("field required")
	// ErrInvalidField is returned when an auction field has a value that cannot
	// be converted to its canonical type
	ErrInvalidField = errors.New("invalid field value")
	// ErrUnknownField is returned when a field mapping targets a field
	// that an Auction does not have
	ErrUnknownField = errors.New("unknown canonical field")
	// ErrDuplicateTarget is returned when a field mapping maps two provider codes
	// to the same canonical field
	ErrDuplicateTarget = errors.New("duplicate mapping target")
)

// FieldError describes a single problem with a single field.
type FieldError struct {
	Field Field
	Err   error
	// Value is the offending raw value, nil for missing fields.
	Value interface{}
}

func (e FieldError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("%s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("%s: %v (%T %v)", e.Field, e.Err, e.Value, e.Value)
}

func (e FieldError) Unwrap() error {
	return e.Err
}

// ValidationError is returned when a raw auction cannot be turned into an Auction.
// It lists every problem found in the record.
type ValidationError struct {
	Symbol string
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		msgs = append(msgs, fe.Error())
	}
	return fmt.Sprintf("%d validation error(s) for auction %q: %s",
		len(e.Errors), e.Symbol, strings.Join(msgs, "; "))
}

func (e *ValidationError) Unwrap() []error {
	errs := make([]error, 0, len(e.Errors))
	for _, fe := range e.Errors {
		errs = append(errs, fe)
	}
	return errs
}

// Fields returns the names of the fields that failed validation.
func (e *ValidationError) Fields() []Field {
	fields := make([]Field, 0, len(e.Errors))
	for _, fe := range e.Errors {
		fields = append(fields, fe.Field)
	}
	return fields
}
