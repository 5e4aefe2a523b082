// Package try holds the outcome of a computation that either produced a value or failed.
package try

// Try is a value/error pair. Exactly one side is meaningful: when Error is
// non-nil the Value is the zero value and should be ignored.
type Try[A any] struct {
	Value A
	Error error
}

// Success wraps a value.
func Success[A any](value A) Try[A] {
	return Try[A]{Value: value}
}

// Failure wraps an error. The value side is left as the zero value.
func Failure[A any](err error) Try[A] {
	return Try[A]{Error: err}
}

// Of builds a Try from Go's usual (value, error) return pair.
func Of[A any](value A, err error) Try[A] {
	if err != nil {
		return Failure[A](err)
	}

	return Success(value)
}

func (t Try[A]) IsSuccess() bool {
	return t.Error == nil
}

func (t Try[A]) IsFailure() bool {
	return t.Error != nil
}

func (t Try[A]) Get() (A, error) { //nolint:ireturn
	if t.IsFailure() {
		var zero A

		return zero, t.Error
	}

	return t.Value, nil
}

func (t Try[A]) GetOrElse(defaultValue A) A { //nolint:ireturn
	if t.IsSuccess() {
		return t.Value
	}

	return defaultValue
}

// Map applies f to a successful value. Failures pass through untouched.
func Map[A, B any](t Try[A], f func(A) (B, error)) Try[B] {
	if t.IsFailure() {
		return Failure[B](t.Error)
	}

	return Of(f(t.Value))
}
