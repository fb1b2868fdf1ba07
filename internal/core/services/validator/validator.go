package validator

// Validator decides whether a program output satisfies the expected output.
type Validator interface {
	Validate(actual, expected string) bool
}

// OutputValidator compares outputs after whitespace normalization.
type OutputValidator struct{}

var _ Validator = OutputValidator{}

func (OutputValidator) Validate(actual, expected string) bool {
	return Validate(actual, expected)
}

// Validate reports whether actual and expected are equal once normalized.
func Validate(actual, expected string) bool {
	return Normalize(actual) == Normalize(expected)
}
