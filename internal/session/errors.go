package session

import (
	"errors"
	"fmt"

	"github.com/v0xg/pagepilot/internal/annotator"
)

var (
	// ErrNotFound matches every *NotFoundError.
	ErrNotFound = errors.New("element not found")
	// ErrInvalidArgument matches every *InvalidArgumentError.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNavigation matches every *NavigationError.
	ErrNavigation = errors.New("navigation failed")

	errLoadTimeout = errors.New("page did not finish loading in time")
)

// NotFoundError reports an identifier that matched no live element of its
// category.
type NotFoundError struct {
	Category annotator.Category
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no %s element matches %q", e.Category, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// InvalidArgumentError reports a request value that failed validation.
type InvalidArgumentError struct {
	Name   string
	Value  string
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Name, e.Value, e.Reason)
}

func (e *InvalidArgumentError) Is(target error) bool { return target == ErrInvalidArgument }

// NavigationError wraps the cause of a failed navigation.
type NavigationError struct {
	URL string
	Err error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigation to %s failed: %v", e.URL, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }

func (e *NavigationError) Is(target error) bool { return target == ErrNavigation }
