package errors

import "strings"

type multiError []error

func (e multiError) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return "tlshello: " + strings.Join(msgs, "; ")
}

// Unwrap returns all wrapped errors for errors.Is/As support.
func (e multiError) Unwrap() []error {
	return []error(e)
}

// Combine combines multiple errors into one.
// Returns nil if all errors are nil.
func Combine(maybeError ...error) error {
	var errs multiError
	for _, err := range maybeError {
		if err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}
