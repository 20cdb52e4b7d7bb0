package attribute

import "fmt"

// UnknownCodeError reports an incoming attribute code with no definition.
// In strict mode the whole attribute batch carrying the code is rejected.
type UnknownCodeError struct {
	// Code is the unregistered attribute code.
	Code string
}

func (e *UnknownCodeError) Error() string {
	return fmt.Sprintf("unknown attribute code %q: no definition registered", e.Code)
}

// TypeMismatchError reports an incoming value whose shape disagrees with
// the definition's declared kind. The whole attribute batch for the
// product is rejected so it never partially applies.
type TypeMismatchError struct {
	// Code is the attribute code.
	Code string
	// Want is the declared value kind.
	Want string
	// Got describes the incoming value's shape.
	Got string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("attribute %q: value kind mismatch: want %s, got %s", e.Code, e.Want, e.Got)
}
