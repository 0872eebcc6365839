package refactor

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound matches every *NotFoundError via errors.Is.
	ErrNotFound = errors.New("not found")

	// ErrInvalidName is returned when a replacement name is not a valid
	// Python identifier or module path.
	ErrInvalidName = errors.New("invalid name")

	// ErrInvalidRange is returned for line ranges outside the source.
	ErrInvalidRange = errors.New("invalid line range")

	// ErrTransformationExists is returned when a name is registered twice.
	ErrTransformationExists = errors.New("transformation already registered")

	// ErrUnknownTransformation is returned when applying an unregistered name.
	ErrUnknownTransformation = errors.New("unknown transformation")
)

// NotFoundError reports that a rename target does not exist at the top
// level of the module.
type NotFoundError struct {
	// Kind is "Function" or "Class".
	Kind string
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s '%s' not found", e.Kind, e.Name)
}

// Is reports whether target is ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
