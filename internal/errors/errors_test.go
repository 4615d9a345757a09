package errors

import (
	stderrors "errors"
	"testing"
)

func TestErrorString(t *testing.T) {
	err := New("Q001", CategoryConfig, "config file unreadable")
	if got, want := err.Error(), "Q001: config file unreadable"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	noCode := &Error{Message: "plain"}
	if got := noCode.Error(); got != "plain" {
		t.Errorf("Error() = %q, want %q", got, "plain")
	}
}

func TestWrapUnwrap(t *testing.T) {
	cause := stderrors.New("disk full")
	err := Wrap(cause, "Q010", CategoryStorage, "snapshot write failed")

	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
	if err.Category != CategoryStorage {
		t.Errorf("Category = %q, want %q", err.Category, CategoryStorage)
	}
}
