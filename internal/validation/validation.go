// Package validation carries field-scoped input errors from services back to
// the form layer.
package validation

import (
	"errors"
	"sort"
	"strings"
)

// FieldErrors maps a form field name to a user-facing message. It implements
// error so services can return it from the same path as fatal errors; callers
// distinguish it with AsFieldErrors.
type FieldErrors map[string]string

func (e FieldErrors) Add(field, message string) {
	if _, ok := e[field]; !ok {
		e[field] = message
	}
}

func (e FieldErrors) Has(field string) bool {
	_, ok := e[field]
	return ok
}

func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	var b strings.Builder
	b.WriteString("validation failed:")
	for _, f := range fields {
		b.WriteString(" " + f + ": " + e[f] + ";")
	}
	return strings.TrimSuffix(b.String(), ";")
}

// AsFieldErrors reports whether err (or anything it wraps) is a FieldErrors.
func AsFieldErrors(err error) (FieldErrors, bool) {
	var fe FieldErrors
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}
