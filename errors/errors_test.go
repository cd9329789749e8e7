package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorClass_String(t *testing.T) {
	tests := []struct {
		class    ErrorClass
		expected string
	}{
		{ErrorTransient, "transient"},
		{ErrorInvalid, "invalid"},
		{ErrorFatal, "fatal"},
		{ErrorClass(999), "unknown"},
	}

	for _, test := range tests {
		t.Run(test.expected, func(t *testing.T) {
			result := test.class.String()
			if result != test.expected {
				t.Errorf("expected %s, got %s", test.expected, result)
			}
		})
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"connection timeout", ErrConnectionTimeout, true},
		{"rate limited", ErrRateLimited, true},
		{"context canceled", context.Canceled, true},
		{"timeout in message", fmt.Errorf("operation timeout occurred"), true},
		{"similarity failure", ErrSimilarity, false},
		{"classified transient", &ClassifiedError{Class: ErrorTransient, Err: fmt.Errorf("test")}, true},
		{"classified fatal", &ClassifiedError{Class: ErrorFatal, Err: fmt.Errorf("test")}, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := IsTransient(test.err)
			if result != test.expected {
				t.Errorf("expected %v, got %v for error: %v", test.expected, result, test.err)
			}
		})
	}
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"load failure", ErrLoad, true},
		{"integrity failure", fmt.Errorf("sanitize: %w", ErrGraphIntegrity), true},
		{"invalid config", ErrInvalidConfig, true},
		{"similarity failure", ErrSimilarity, false},
		{"classified fatal", &ClassifiedError{Class: ErrorFatal, Err: fmt.Errorf("test")}, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if result := IsFatal(test.err); result != test.expected {
				t.Errorf("expected %v, got %v for error: %v", test.expected, result, test.err)
			}
		})
	}
}

func TestIsInvalid(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"similarity failure", WithCause(ErrSimilarity, ErrUnknownConcept, "x"), true},
		{"frozen graph", ErrGraphFrozen, true},
		{"parsing failed", ErrParsingFailed, true},
		{"load failure", ErrLoad, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if result := IsInvalid(test.err); result != test.expected {
				t.Errorf("expected %v, got %v for error: %v", test.expected, result, test.err)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorClass
	}{
		{"nil", nil, ErrorTransient},
		{"load", ErrLoad, ErrorFatal},
		{"similarity", ErrSimilarity, ErrorInvalid},
		{"unknown defaults to transient", errors.New("something odd"), ErrorTransient},
		{"explicit class wins", WrapTransient(ErrLoad, "Loader", "Load", "open file"), ErrorTransient},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := Classify(test.err); got != test.expected {
				t.Errorf("expected %s, got %s", test.expected, got)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "C", "M", "a") != nil {
		t.Fatal("wrapping nil must return nil")
	}

	err := Wrap(ErrLoad, "Loader", "Load", "open ontology")
	if !strings.HasPrefix(err.Error(), "Loader.Load: open ontology failed: ") {
		t.Errorf("unexpected message: %s", err)
	}
	if !errors.Is(err, ErrLoad) {
		t.Error("wrapped error must match its cause")
	}
}

func TestClassifiedWrappers(t *testing.T) {
	tests := []struct {
		name  string
		wrap  func(error, string, string, string) error
		class ErrorClass
	}{
		{"transient", WrapTransient, ErrorTransient},
		{"invalid", WrapInvalid, ErrorInvalid},
		{"fatal", WrapFatal, ErrorFatal},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if test.wrap(nil, "C", "M", "a") != nil {
				t.Fatal("wrapping nil must return nil")
			}

			err := test.wrap(ErrGraphIntegrity, "Sanitizer", "Sanitize", "validate DAG")

			var ce *ClassifiedError
			if !errors.As(err, &ce) {
				t.Fatalf("expected ClassifiedError, got %T", err)
			}
			if ce.Class != test.class {
				t.Errorf("expected class %s, got %s", test.class, ce.Class)
			}
			if ce.Component != "Sanitizer" || ce.Operation != "Sanitize" {
				t.Errorf("unexpected context: %s.%s", ce.Component, ce.Operation)
			}
			if !errors.Is(err, ErrGraphIntegrity) {
				t.Error("classified error must unwrap to its cause")
			}
		})
	}
}

func TestWithCause(t *testing.T) {
	err := WithCause(ErrSimilarity, ErrUnknownConcept, "http://usi/D000000")

	if !errors.Is(err, ErrSimilarity) || !errors.Is(err, ErrUnknownConcept) {
		t.Fatalf("expected both sentinels to match: %v", err)
	}
	if !IsSimilarityFailure(err) {
		t.Error("expected similarity failure")
	}
	if !strings.Contains(err.Error(), "http://usi/D000000") {
		t.Errorf("detail missing from %q", err)
	}

	bare := WithCause(ErrSimilarity, ErrEmptyConceptSet, "")
	if bare.Error() != "similarity computation failed: empty concept set" {
		t.Errorf("unexpected message %q", bare)
	}
}
