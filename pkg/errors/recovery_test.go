package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestRecover_WithPanic(t *testing.T) {
	testFunc := func() (err error) {
		defer Recover(&err, "GaussianHMM.Fit")
		panic("transition matrix is not square")
	}

	err := testFunc()
	if err == nil {
		t.Fatal("Expected error from recovered panic, got nil")
	}

	var panicErr *PanicError
	if !errors.As(err, &panicErr) {
		t.Fatalf("Expected PanicError, got %T", err)
	}
	if panicErr.Operation != "GaussianHMM.Fit" {
		t.Errorf("Expected operation 'GaussianHMM.Fit', got '%s'", panicErr.Operation)
	}
	if panicErr.StackTrace == "" {
		t.Error("Expected non-empty stack trace")
	}
	if got, want := panicErr.Error(), "panic in GaussianHMM.Fit: transition matrix is not square"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestRecover_WithoutPanic(t *testing.T) {
	testFunc := func() (err error) {
		defer Recover(&err, "Viterbi")
		return nil
	}

	if err := testFunc(); err != nil {
		t.Fatalf("Expected no error when no panic occurs, got: %v", err)
	}
}

func TestRecover_WithExistingError(t *testing.T) {
	originalErr := fmt.Errorf("original error")

	testFunc := func() (err error) {
		defer Recover(&err, "Train")
		err = originalErr
		panic("panic after error")
	}

	err := testFunc()
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if !strings.Contains(err.Error(), "panic in Train") {
		t.Errorf("Error message should contain panic info: %s", err.Error())
	}
	if !errors.Is(err, originalErr) {
		t.Error("Should be able to identify original error with errors.Is")
	}
}

func TestSafeExecute(t *testing.T) {
	sentinel := fmt.Errorf("function error")

	tests := []struct {
		name      string
		fn        func() error
		wantErr   error
		wantPanic bool
	}{
		{name: "success", fn: func() error { return nil }},
		{name: "function error", fn: func() error { return sentinel }, wantErr: sentinel},
		{name: "panic", fn: func() error { panic("boom") }, wantPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := SafeExecute("op", tt.fn)
			if tt.wantPanic {
				var panicErr *PanicError
				if !errors.As(err, &panicErr) {
					t.Fatalf("Expected PanicError, got %T", err)
				}
				return
			}
			if err != tt.wantErr {
				t.Fatalf("SafeExecute() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPanicError_UnwrapsErrorValues(t *testing.T) {
	inner := fmt.Errorf("inner")
	if !errors.Is(NewPanicError("op", inner), inner) {
		t.Error("PanicError should unwrap to an error panic value")
	}
	if NewPanicError("op", "text").Unwrap() != nil {
		t.Error("PanicError.Unwrap() should return nil for non-error values")
	}
	if !strings.Contains(NewPanicError("op", "v").String(), "Stack trace:") {
		t.Error("String() should include stack trace information")
	}
}

func BenchmarkRecover_NoPanic(b *testing.B) {
	for i := 0; i < b.N; i++ {
		func() (err error) {
			defer Recover(&err, "BenchmarkOp")
			return nil
		}()
	}
}
