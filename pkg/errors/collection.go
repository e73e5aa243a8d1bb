package errors

import "strings"

// ErrorCollection accumulates errors from multi-step operations (e.g. a
// shutdown sequence) where every step must run regardless of failures
type ErrorCollection struct {
	errors []error
}

func NewErrorCollection() *ErrorCollection {
	return &ErrorCollection{}
}

// Add appends an error to the collection; nil errors are ignored
func (c *ErrorCollection) Add(err error) {
	if err != nil {
		c.errors = append(c.errors, err)
	}
}

func (c *ErrorCollection) IsEmpty() bool {
	return len(c.errors) == 0
}

func (c *ErrorCollection) Errors() []error {
	return c.errors
}

// ToError returns nil if no errors were collected, the single error if
// exactly one was collected, or an aggregate error otherwise
func (c *ErrorCollection) ToError() error {
	switch len(c.errors) {
	case 0:
		return nil
	case 1:
		return c.errors[0]
	default:
		messages := make([]string, 0, len(c.errors))
		for _, err := range c.errors {
			messages = append(messages, err.Error())
		}
		return NewInternalError("multiple errors: "+strings.Join(messages, "; "), c.errors[0])
	}
}
