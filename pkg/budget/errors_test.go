package budget

import (
	"errors"
	"testing"
)

func TestWrapErrorFormatsSegments(test *testing.T) {
	test.Parallel()
	wrapped := WrapError("plan", "input", "invalid", ErrInvalidAmountCents)
	if wrapped.Error() != "plan.input.invalid: invalid amount cents" {
		test.Fatalf("unexpected message: %q", wrapped.Error())
	}
	if !errors.Is(wrapped, ErrInvalidAmountCents) {
		test.Fatalf("expected wrapped sentinel to survive errors.Is")
	}
	var operationError OperationError
	if !errors.As(wrapped, &operationError) {
		test.Fatalf("expected OperationError")
	}
	if operationError.Operation() != "plan" || operationError.Subject() != "input" || operationError.Code() != "invalid" {
		test.Fatalf("unexpected segments: %+v", operationError)
	}
}

func TestWrapErrorNilPassthrough(test *testing.T) {
	test.Parallel()
	if WrapError("plan", "input", "invalid", nil) != nil {
		test.Fatalf("expected nil error to stay nil")
	}
}
