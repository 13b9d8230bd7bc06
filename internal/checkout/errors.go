package checkout

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrSubmissionInFlight = errors.New("order submission already in progress")

	// ErrRejected marks a submission failure that retrying cannot fix.
	ErrRejected = errors.New("order rejected")
)

// ValidationError lists the form fields that failed validation, keyed by
// their JSON name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return "invalid checkout form: " + strings.Join(names, ", ")
}
