package models

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ValidationError reports a rejected field value.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{Field: field, Message: "is required"}
	}
	return nil
}

func maxLen(field, value string, n int) error {
	if utf8.RuneCountInString(value) > n {
		return &ValidationError{Field: field, Message: fmt.Sprintf("must be at most %d characters", n)}
	}
	return nil
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
